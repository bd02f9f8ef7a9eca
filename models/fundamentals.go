package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FundamentalOutlook buckets a fundamental score into a qualitative label.
type FundamentalOutlook string

const (
	OutlookBullish  FundamentalOutlook = "BULLISH"
	OutlookPositive FundamentalOutlook = "POSITIVE"
	OutlookNeutral  FundamentalOutlook = "NEUTRAL"
	OutlookCautious FundamentalOutlook = "CAUTIOUS"
)

// Fundamentals is the lightweight fundamental snapshot merged into scan
// results. Score is clamped to [-2, 3] so fundamentals can tilt but never
// dominate the technical score.
type Fundamentals struct {
	Ticker           string             `json:"ticker"`
	MarketCap        decimal.Decimal    `json:"market_cap"`
	PERatio          float64            `json:"pe_ratio"`
	RevenueGrowthPct float64            `json:"revenue_growth_pct"`
	ProfitMarginPct  float64            `json:"profit_margin_pct"`
	Score            int                `json:"score"`
	Outlook          FundamentalOutlook `json:"outlook"`
	Reasons          string             `json:"reasons"`
	FetchedAt        time.Time          `json:"fetched_at"`
}
