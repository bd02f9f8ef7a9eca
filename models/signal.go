package models

// Trend classifies the EMA alignment of a ticker.
type Trend string

const (
	TrendUp     Trend = "UP"
	TrendDown   Trend = "DOWN"
	TrendChoppy Trend = "CHOPPY"
)

// Action is the trading action resolved by the scorer's decision table.
type Action string

const (
	ActionBuy        Action = "BUY"
	ActionWatch      Action = "WATCH"
	ActionAvoid      Action = "AVOID"
	ActionTakeProfit Action = "TAKE_PROFIT"
	ActionTrailStop  Action = "TRAIL_STOP"
)

// Timeframe labels the holding horizon implied by a setup.
type Timeframe string

const (
	TimeframeScalp     Timeframe = "scalp"
	TimeframeIntraday  Timeframe = "intraday"
	TimeframeSwing     Timeframe = "swing"
	TimeframeSwingExit Timeframe = "swing_exit"
	TimeframePosition  Timeframe = "position"
	TimeframeNone      Timeframe = "none"
)

// SignalFlags is the complete, closed set of technical signals evaluated per
// ticker. The flags are independent; several may be true at once.
type SignalFlags struct {
	Consolidating bool `json:"consolidating"`
	BuyDip        bool `json:"buy_dip"`
	Breakout      bool `json:"breakout"`
	VolSpike      bool `json:"vol_spike"`
	EMABullish    bool `json:"ema_bullish"`
	MACDBullish   bool `json:"macd_bullish"`
	VWAPReclaim   bool `json:"vwap_reclaim"`
}

// Active returns the names of the set flags in catalog order.
func (f SignalFlags) Active() []string {
	var names []string
	if f.Consolidating {
		names = append(names, "CONSOLIDATION")
	}
	if f.BuyDip {
		names = append(names, "BUY_DIP")
	}
	if f.Breakout {
		names = append(names, "BREAKOUT")
	}
	if f.VolSpike {
		names = append(names, "VOL_SPIKE")
	}
	if f.EMABullish {
		names = append(names, "EMA_STACK")
	}
	if f.MACDBullish {
		names = append(names, "MACD_BULL")
	}
	if f.VWAPReclaim {
		names = append(names, "VWAP_RECLAIM")
	}
	return names
}

// ScoreResult combines the technical and fundamental scores with the
// resolved trend and action for one ticker.
type ScoreResult struct {
	TechnicalScore   int       `json:"technical_score"`
	FundamentalScore int       `json:"fundamental_score"`
	CombinedScore    int       `json:"combined_score"`
	Trend            Trend     `json:"trend"`
	Action           Action    `json:"action"`
	Timeframe        Timeframe `json:"timeframe"`
	Reason           string    `json:"reason"`
}

// PotentialMoves holds projected percentage moves per horizon, derived from
// daily ATR% and biased by trend and score.
type PotentialMoves struct {
	Up1h   float64 `json:"potential_up_1h_pct"`
	Down1h float64 `json:"potential_down_1h_pct"`
	Up3h   float64 `json:"potential_up_3h_pct"`
	Down3h float64 `json:"potential_down_3h_pct"`
	Up1d   float64 `json:"potential_up_1d_pct"`
	Down1d float64 `json:"potential_down_1d_pct"`
	Up7d   float64 `json:"potential_up_7d_pct"`
	Down7d float64 `json:"potential_down_7d_pct"`
}

// PriceLevels are the suggested entry/stop/target levels attached to a scan
// result. They scale the 1-day potential move by timeframe-dependent
// fractions and are advisory; trade creation computes its own frozen levels.
type PriceLevels struct {
	Entry       float64 `json:"entry_price"`
	StopLoss    float64 `json:"stop_loss_price"`
	TakeProfit1 float64 `json:"take_profit_1"`
	TakeProfit2 float64 `json:"take_profit_2"`
}

// ScanResult is the per-ticker composite produced by one scan cycle. It is
// ephemeral: persisted scan rows are a projection of it, and trades freeze
// their own copy of the levels at creation time.
type ScanResult struct {
	Ticker     string         `json:"ticker"`
	Close      float64        `json:"close"`
	RSI        float64        `json:"rsi"`
	ADX        float64        `json:"adx"`
	BBWidthPct float64        `json:"bb_width_pct"`
	ATRPct     float64        `json:"atr_pct"`
	Flags      SignalFlags    `json:"flags"`
	Score      ScoreResult    `json:"score"`
	Moves      PotentialMoves `json:"moves"`
	Levels     PriceLevels    `json:"levels"`

	// Fundamentals is nil when the scan ran technical-only or the
	// fundamentals fetch failed.
	Fundamentals *Fundamentals `json:"fundamentals,omitempty"`
}
