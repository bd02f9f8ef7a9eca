package mocks

import "time"

// Bar is one OHLCV row served by the mock chart endpoint.
type Bar struct {
	Timestamp int64
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    int64
}

// History configures the chart response for one ticker. LatestPrice is
// reported as the regular market price in the chart meta.
type History struct {
	Bars        []Bar
	LatestPrice float64
}

// Fundamentals configures the quoteSummary response for one ticker. Growth
// and margin are fractions, matching the raw fields Yahoo returns.
type Fundamentals struct {
	RevenueGrowth float64
	ProfitMargins float64
	TrailingPE    float64
	MarketCap     float64
}

// GenerateUptrendBars builds count daily bars climbing from start by step per
// day, enough history for a scan to compute every indicator.
func GenerateUptrendBars(count int, start, step float64) []Bar {
	bars := make([]Bar, count)
	day := time.Now().AddDate(0, 0, -count)
	for i := 0; i < count; i++ {
		price := start + step*float64(i)
		bars[i] = Bar{
			Timestamp: day.AddDate(0, 0, i).Unix(),
			Open:      price - 0.5,
			High:      price + 1,
			Low:       price - 1,
			Close:     price,
			Volume:    1_000_000 + int64(i)*5_000,
		}
	}
	return bars
}
