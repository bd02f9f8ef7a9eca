package services

import (
	"context"

	"signal-scout/models"
)

// PriceDataProvider fetches OHLCV history and live prices for a ticker.
// Implementations return an empty slice, not an error, when the symbol has
// no data; callers skip the ticker.
type PriceDataProvider interface {
	GetBars(ctx context.Context, ticker, period, interval string) ([]models.Bar, error)
	GetLatestPrice(ctx context.Context, ticker string) (float64, error)
}

// FundamentalsProvider fetches a cached fundamental assessment for a ticker.
// Failures degrade to a zero-score result, never an error surfaced to scans.
type FundamentalsProvider interface {
	GetFundamentals(ctx context.Context, ticker string) (*models.Fundamentals, error)
}
