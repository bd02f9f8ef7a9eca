package services

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"signal-scout/models"
	"signal-scout/observability"
)

// yahooBaseURL returns the Yahoo Finance endpoint, honoring the
// YAHOO_BASE_URL override used by the e2e mock server.
func yahooBaseURL() string {
	if url := os.Getenv("YAHOO_BASE_URL"); url != "" {
		return url
	}
	return "https://query1.finance.yahoo.com"
}

// YahooService fetches historical bars and latest prices from the Yahoo
// Finance chart API. No API key is required, so requests are rate limited
// client-side to stay under Yahoo's unauthenticated throttling.
type YahooService struct {
	client  *resty.Client
	limiter *rate.Limiter
}

// NewYahooService creates a new YahooService instance
func NewYahooService() *YahooService {
	client := resty.New().
		SetBaseURL(yahooBaseURL()).
		SetTimeout(30 * time.Second).
		SetHeader("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36")

	return &YahooService{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(5), 10),
	}
}

// chartResponse represents the Yahoo Finance v8 chart API response
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// GetBars returns historical OHLCV bars for a ticker, oldest first. Rows
// where Yahoo reports a null close (halts, partial sessions) are skipped.
func (s *YahooService) GetBars(ctx context.Context, ticker, period, interval string) ([]models.Bar, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	metrics := observability.GetMetrics()
	metrics.RecordExternalAPIRequest("yahoo", "chart")
	timer := metrics.NewTimer()
	defer timer.ObserveExternalAPI("yahoo", "chart")

	bars, err := WithCircuitBreaker(ctx, BreakerYahoo, func() ([]models.Bar, error) {
		var result []models.Bar
		err := WithRetry(ctx, DefaultRetryConfig, func() error {
			chart, err := s.fetchChart(ctx, ticker, period, interval)
			if err != nil {
				return err
			}
			result = barsFromChart(ticker, chart)
			return nil
		})
		return result, err
	})
	if err != nil {
		metrics.RecordExternalAPIError("yahoo", "chart", "request_failed")
		return nil, err
	}

	return bars, nil
}

// GetLatestPrice returns the most recent trade price for a ticker
func (s *YahooService) GetLatestPrice(ctx context.Context, ticker string) (float64, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("rate limiter: %w", err)
	}

	metrics := observability.GetMetrics()
	metrics.RecordExternalAPIRequest("yahoo", "latest_price")
	timer := metrics.NewTimer()
	defer timer.ObserveExternalAPI("yahoo", "latest_price")

	price, err := WithCircuitBreaker(ctx, BreakerYahoo, func() (float64, error) {
		var result float64
		err := WithRetry(ctx, DefaultRetryConfig, func() error {
			chart, err := s.fetchChart(ctx, ticker, "1d", "1m")
			if err != nil {
				return err
			}
			p, err := latestPriceFromChart(ticker, chart)
			if err != nil {
				return err
			}
			result = p
			return nil
		})
		return result, err
	})
	if err != nil {
		metrics.RecordExternalAPIError("yahoo", "latest_price", "request_failed")
		return 0, err
	}

	return price, nil
}

func (s *YahooService) fetchChart(ctx context.Context, ticker, period, interval string) (*chartResponse, error) {
	var chart chartResponse

	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"range":    period,
			"interval": interval,
		}).
		SetResult(&chart).
		Get("/v8/finance/chart/" + ticker)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chart for %s: %w", ticker, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("chart request for %s returned status %d", ticker, resp.StatusCode())
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("chart API error for %s: %s (%s)",
			ticker, chart.Chart.Error.Description, chart.Chart.Error.Code)
	}
	if len(chart.Chart.Result) == 0 {
		return nil, fmt.Errorf("chart response for %s has no result", ticker)
	}

	return &chart, nil
}

// barsFromChart converts a chart response into bars, skipping null entries
func barsFromChart(ticker string, chart *chartResponse) []models.Bar {
	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return []models.Bar{}
	}
	quote := result.Indicators.Quote[0]

	bars := make([]models.Bar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) || quote.Close[i] == nil ||
			quote.Open[i] == nil || quote.High[i] == nil || quote.Low[i] == nil {
			continue
		}

		var volume int64
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			volume = *quote.Volume[i]
		}

		bars = append(bars, models.Bar{
			Ticker:    ticker,
			Timestamp: time.Unix(ts, 0).UTC(),
			Open:      *quote.Open[i],
			High:      *quote.High[i],
			Low:       *quote.Low[i],
			Close:     *quote.Close[i],
			Volume:    volume,
		})
	}

	return bars
}

// latestPriceFromChart prefers the regular market price from chart meta and
// falls back to the last non-null intraday close
func latestPriceFromChart(ticker string, chart *chartResponse) (float64, error) {
	result := chart.Chart.Result[0]
	if result.Meta.RegularMarketPrice > 0 {
		return result.Meta.RegularMarketPrice, nil
	}

	if len(result.Indicators.Quote) > 0 {
		closes := result.Indicators.Quote[0].Close
		for i := len(closes) - 1; i >= 0; i-- {
			if closes[i] != nil && *closes[i] > 0 {
				return *closes[i], nil
			}
		}
	}

	return 0, fmt.Errorf("no price available for %s", ticker)
}
