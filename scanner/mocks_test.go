package scanner

import (
	"context"
	"errors"
	"time"

	"signal-scout/models"
)

// stubPriceProvider serves canned bars per ticker. Tickers in errs fail,
// tickers in panics blow up inside the pipeline.
type stubPriceProvider struct {
	bars   map[string][]models.Bar
	errs   map[string]error
	panics map[string]bool
	prices map[string]float64
}

func (s *stubPriceProvider) GetBars(_ context.Context, ticker, _, _ string) ([]models.Bar, error) {
	if s.panics[ticker] {
		panic("provider exploded for " + ticker)
	}
	if err, ok := s.errs[ticker]; ok {
		return nil, err
	}
	return s.bars[ticker], nil
}

func (s *stubPriceProvider) GetLatestPrice(_ context.Context, ticker string) (float64, error) {
	if p, ok := s.prices[ticker]; ok {
		return p, nil
	}
	return 0, errors.New("no price")
}

// stubFundamentalsProvider returns a fixed score for every ticker.
type stubFundamentalsProvider struct {
	score int
	err   error
}

func (s *stubFundamentalsProvider) GetFundamentals(_ context.Context, ticker string) (*models.Fundamentals, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.Fundamentals{Ticker: ticker, Score: s.score}, nil
}

// trendingBars builds a rising daily series whose slope varies per seed, so
// different tickers produce different scores deterministically.
func trendingBars(ticker string, n int, seed float64) []models.Bar {
	bars := make([]models.Bar, n)
	ts := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		price := 100 + float64(i)*seed
		bars[i] = models.Bar{
			Ticker:    ticker,
			Timestamp: ts.AddDate(0, 0, i),
			Open:      price,
			High:      price + 1,
			Low:       price - 1,
			Close:     price,
			Volume:    1_000_000,
		}
	}
	return bars
}
