package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"signal-scout/models"
	"signal-scout/observability"
)

// AlpacaService fetches market data from Alpaca. It is the alternative price
// provider for deployments that hold Alpaca keys; period and interval strings
// follow the same conventions as the Yahoo provider.
type AlpacaService struct {
	dataClient *marketdata.Client
}

// NewAlpacaService creates a new AlpacaService instance
func NewAlpacaService(apiKey, apiSecret, baseURL string) *AlpacaService {
	dataClient := marketdata.NewClient(marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	})

	return &AlpacaService{
		dataClient: dataClient,
	}
}

// GetBars returns historical bars for a ticker, oldest first
func (s *AlpacaService) GetBars(ctx context.Context, ticker, period, interval string) ([]models.Bar, error) {
	timeframe, err := parseInterval(interval)
	if err != nil {
		return nil, err
	}

	end := time.Now()
	start := end.Add(-parsePeriod(period))

	metrics := observability.GetMetrics()
	metrics.RecordExternalAPIRequest("alpaca", "bars")
	timer := metrics.NewTimer()
	defer timer.ObserveExternalAPI("alpaca", "bars")

	bars, err := WithCircuitBreaker(ctx, BreakerAlpaca, func() ([]models.Bar, error) {
		var result []marketdata.Bar
		err := WithRetry(ctx, DefaultRetryConfig, func() error {
			var err error
			result, err = s.dataClient.GetBars(ticker, marketdata.GetBarsRequest{
				TimeFrame: timeframe,
				Start:     start,
				End:       end,
			})
			return err
		})
		return convertBars(ticker, result), err
	})
	if err != nil {
		metrics.RecordExternalAPIError("alpaca", "bars", "request_failed")
		return nil, fmt.Errorf("failed to get bars for %s: %w", ticker, err)
	}

	return bars, nil
}

// GetLatestPrice returns the most recent trade price for a ticker
func (s *AlpacaService) GetLatestPrice(ctx context.Context, ticker string) (float64, error) {
	metrics := observability.GetMetrics()
	metrics.RecordExternalAPIRequest("alpaca", "latest_trade")
	timer := metrics.NewTimer()
	defer timer.ObserveExternalAPI("alpaca", "latest_trade")

	price, err := WithCircuitBreaker(ctx, BreakerAlpaca, func() (float64, error) {
		var result float64
		err := WithRetry(ctx, DefaultRetryConfig, func() error {
			trade, err := s.dataClient.GetLatestTrade(ticker, marketdata.GetLatestTradeRequest{})
			if err != nil {
				return err
			}
			result = trade.Price
			return nil
		})
		return result, err
	})
	if err != nil {
		metrics.RecordExternalAPIError("alpaca", "latest_trade", "request_failed")
		return 0, fmt.Errorf("failed to get trade for %s: %w", ticker, err)
	}

	return price, nil
}

func convertBars(ticker string, bars []marketdata.Bar) []models.Bar {
	result := make([]models.Bar, 0, len(bars))
	for _, bar := range bars {
		result = append(result, models.Bar{
			Ticker:    ticker,
			Timestamp: bar.Timestamp,
			Open:      bar.Open,
			High:      bar.High,
			Low:       bar.Low,
			Close:     bar.Close,
			Volume:    int64(bar.Volume),
		})
	}
	return result
}

// parseInterval maps a Yahoo-style interval string to an Alpaca timeframe
func parseInterval(interval string) (marketdata.TimeFrame, error) {
	switch interval {
	case "1m":
		return marketdata.OneMin, nil
	case "1h", "60m":
		return marketdata.OneHour, nil
	case "1d":
		return marketdata.OneDay, nil
	default:
		return marketdata.TimeFrame{}, fmt.Errorf("unsupported interval %q", interval)
	}
}

// parsePeriod maps a Yahoo-style range string to a lookback duration.
// Unknown values fall back to six months.
func parsePeriod(period string) time.Duration {
	const day = 24 * time.Hour

	switch strings.ToLower(period) {
	case "1d":
		return day
	case "5d":
		return 5 * day
	case "1mo":
		return 31 * day
	case "3mo":
		return 92 * day
	case "6mo":
		return 183 * day
	case "1y":
		return 365 * day
	case "2y":
		return 2 * 365 * day
	default:
		return 183 * day
	}
}
