package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"signal-scout/models"
	"signal-scout/observability"
)

// largeCapFloor is the market cap above which a company earns a score point.
var largeCapFloor = decimal.NewFromInt(5_000_000_000)

// FundamentalsService fetches a lightweight fundamental snapshot from the
// Yahoo quote-summary API and caches it in Redis. Fundamentals are a tilt on
// top of the technical score, so any failure degrades to a neutral snapshot
// instead of failing the scan.
type FundamentalsService struct {
	client *resty.Client
	cache  *redis.Client
	ttl    time.Duration
}

// NewFundamentalsService creates a new FundamentalsService. The Redis client
// is optional; without it every call goes to the API.
func NewFundamentalsService(cache *redis.Client, cacheTTLHours int) *FundamentalsService {
	client := resty.New().
		SetBaseURL(yahooBaseURL()).
		SetTimeout(30 * time.Second).
		SetHeader("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36")

	if cacheTTLHours <= 0 {
		cacheTTLHours = 6
	}

	return &FundamentalsService{
		client: client,
		cache:  cache,
		ttl:    time.Duration(cacheTTLHours) * time.Hour,
	}
}

// quoteSummaryResponse represents the Yahoo quote-summary API response
type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			FinancialData struct {
				RevenueGrowth struct {
					Raw *float64 `json:"raw"`
				} `json:"revenueGrowth"`
				ProfitMargins struct {
					Raw *float64 `json:"raw"`
				} `json:"profitMargins"`
			} `json:"financialData"`
			SummaryDetail struct {
				TrailingPE struct {
					Raw *float64 `json:"raw"`
				} `json:"trailingPE"`
				MarketCap struct {
					Raw *float64 `json:"raw"`
				} `json:"marketCap"`
			} `json:"summaryDetail"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteSummary"`
}

// GetFundamentals returns the fundamental snapshot for a ticker, from cache
// when fresh. Fetch and cache failures return a neutral snapshot, never an
// error.
func (s *FundamentalsService) GetFundamentals(ctx context.Context, ticker string) (*models.Fundamentals, error) {
	if cached := s.fromCache(ctx, ticker); cached != nil {
		return cached, nil
	}

	fundamentals, err := s.fetch(ctx, ticker)
	if err != nil {
		observability.Warn("fundamentals fetch failed, using neutral snapshot",
			"ticker", ticker,
			"error", err)
		return neutralFundamentals(ticker), nil
	}

	s.toCache(ctx, ticker, fundamentals)

	return fundamentals, nil
}

func (s *FundamentalsService) fetch(ctx context.Context, ticker string) (*models.Fundamentals, error) {
	metrics := observability.GetMetrics()
	metrics.RecordExternalAPIRequest("yahoo", "quote_summary")
	timer := metrics.NewTimer()
	defer timer.ObserveExternalAPI("yahoo", "quote_summary")

	summary, err := WithCircuitBreaker(ctx, BreakerYahoo, func() (*quoteSummaryResponse, error) {
		var result quoteSummaryResponse
		err := WithRetry(ctx, DefaultRetryConfig, func() error {
			resp, err := s.client.R().
				SetContext(ctx).
				SetQueryParam("modules", "financialData,summaryDetail").
				SetResult(&result).
				Get("/v10/finance/quoteSummary/" + ticker)
			if err != nil {
				return fmt.Errorf("failed to fetch quote summary for %s: %w", ticker, err)
			}
			if resp.IsError() {
				return fmt.Errorf("quote summary for %s returned status %d", ticker, resp.StatusCode())
			}
			if result.QuoteSummary.Error != nil {
				return fmt.Errorf("quote summary error for %s: %s", ticker, result.QuoteSummary.Error.Description)
			}
			if len(result.QuoteSummary.Result) == 0 {
				return fmt.Errorf("quote summary for %s has no result", ticker)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		return &result, nil
	})
	if err != nil {
		metrics.RecordExternalAPIError("yahoo", "quote_summary", "request_failed")
		return nil, err
	}

	result := summary.QuoteSummary.Result[0]

	var revGrowthPct, marginPct, pe float64
	marketCap := decimal.Zero
	if raw := result.FinancialData.RevenueGrowth.Raw; raw != nil {
		revGrowthPct = *raw * 100
	}
	if raw := result.FinancialData.ProfitMargins.Raw; raw != nil {
		marginPct = *raw * 100
	}
	if raw := result.SummaryDetail.TrailingPE.Raw; raw != nil {
		pe = *raw
	}
	if raw := result.SummaryDetail.MarketCap.Raw; raw != nil {
		marketCap = decimal.NewFromFloat(*raw)
	}

	score, outlook, reasons := ScoreFundamentals(revGrowthPct, marginPct, pe, marketCap)

	return &models.Fundamentals{
		Ticker:           ticker,
		MarketCap:        marketCap,
		PERatio:          pe,
		RevenueGrowthPct: revGrowthPct,
		ProfitMarginPct:  marginPct,
		Score:            score,
		Outlook:          outlook,
		Reasons:          reasons,
		FetchedAt:        time.Now().UTC(),
	}, nil
}

// ScoreFundamentals derives a score in [-2, 3], an outlook label and a
// human-readable reason string from the raw fundamental values.
func ScoreFundamentals(revGrowthPct, marginPct, pe float64, marketCap decimal.Decimal) (int, models.FundamentalOutlook, string) {
	score := 0
	var reasons []string

	switch {
	case revGrowthPct >= 10:
		score++
		reasons = append(reasons, fmt.Sprintf("revenue growing %.1f%%", revGrowthPct))
	case revGrowthPct < 0:
		score--
		reasons = append(reasons, fmt.Sprintf("revenue shrinking %.1f%%", revGrowthPct))
	}

	switch {
	case marginPct >= 10:
		score++
		reasons = append(reasons, fmt.Sprintf("healthy margins %.1f%%", marginPct))
	case marginPct < 0:
		score--
		reasons = append(reasons, "unprofitable")
	}

	switch {
	case pe >= 5 && pe <= 40:
		score++
		reasons = append(reasons, fmt.Sprintf("reasonable P/E %.1f", pe))
	case pe > 60:
		score--
		reasons = append(reasons, fmt.Sprintf("expensive P/E %.1f", pe))
	}

	if marketCap.GreaterThanOrEqual(largeCapFloor) {
		score++
		reasons = append(reasons, "large cap")
	}

	if score > 3 {
		score = 3
	}
	if score < -2 {
		score = -2
	}

	var outlook models.FundamentalOutlook
	switch {
	case score >= 3:
		outlook = models.OutlookBullish
	case score >= 1:
		outlook = models.OutlookPositive
	case score >= 0:
		outlook = models.OutlookNeutral
	default:
		outlook = models.OutlookCautious
	}

	return score, outlook, strings.Join(reasons, "; ")
}

func neutralFundamentals(ticker string) *models.Fundamentals {
	return &models.Fundamentals{
		Ticker:    ticker,
		Outlook:   models.OutlookNeutral,
		FetchedAt: time.Now().UTC(),
	}
}

func cacheKey(ticker string) string {
	return "fundamentals:" + ticker
}

func (s *FundamentalsService) fromCache(ctx context.Context, ticker string) *models.Fundamentals {
	if s.cache == nil {
		return nil
	}

	data, err := s.cache.Get(ctx, cacheKey(ticker)).Bytes()
	if err != nil {
		if err != redis.Nil {
			observability.Warn("fundamentals cache read failed",
				"ticker", ticker,
				"error", err)
		}
		return nil
	}

	var fundamentals models.Fundamentals
	if err := json.Unmarshal(data, &fundamentals); err != nil {
		observability.Warn("fundamentals cache entry corrupt",
			"ticker", ticker,
			"error", err)
		return nil
	}

	return &fundamentals
}

func (s *FundamentalsService) toCache(ctx context.Context, ticker string, fundamentals *models.Fundamentals) {
	if s.cache == nil {
		return
	}

	data, err := json.Marshal(fundamentals)
	if err != nil {
		return
	}

	if err := s.cache.Set(ctx, cacheKey(ticker), data, s.ttl).Err(); err != nil {
		observability.Warn("fundamentals cache write failed",
			"ticker", ticker,
			"error", err)
	}
}
