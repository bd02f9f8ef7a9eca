package models

import "time"

// Bar represents OHLCV price data for a single period. Bars are immutable
// once fetched; providers return them oldest-first.
type Bar struct {
	Ticker    string    `json:"ticker"`
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    int64     `json:"volume"`
}

// EnrichedBar is a Bar plus the indicator values derived for it. Indicator
// fields are NaN when there is not enough history to compute them; consumers
// must treat NaN as "signal absent", never as an error.
type EnrichedBar struct {
	Bar

	RSI        float64 `json:"rsi"`
	ADX        float64 `json:"adx"`
	ATRPct     float64 `json:"atr_pct"`
	BBHigh     float64 `json:"bb_high"`
	BBLow      float64 `json:"bb_low"`
	BBWidth    float64 `json:"bb_width"`
	EMA20      float64 `json:"ema_20"`
	EMA50      float64 `json:"ema_50"`
	EMA200     float64 `json:"ema_200"`
	MACD       float64 `json:"macd"`
	MACDSignal float64 `json:"macd_signal"`
	MACDHist   float64 `json:"macd_hist"`
	VWAP       float64 `json:"vwap"`
	VolMA20    float64 `json:"vol_ma_20"`
}
