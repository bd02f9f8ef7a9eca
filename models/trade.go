package models

import (
	"time"

	"github.com/google/uuid"
)

type TradeStatus string

const (
	TradeStatusPending TradeStatus = "PENDING"
	TradeStatusOpen    TradeStatus = "OPEN"
	TradeStatusClosed  TradeStatus = "CLOSED"
)

// ExitReason records which level closed a trade.
type ExitReason string

const (
	ExitReasonStop     ExitReason = "STOP"
	ExitReasonTP1      ExitReason = "TP1"
	ExitReasonTP2      ExitReason = "TP2"
	ExitReasonTimeExit ExitReason = "TIME_EXIT"
)

// TradeLevels are the price levels a trade is managed against. They are
// computed once at creation and never recomputed.
type TradeLevels struct {
	EntryPrice   float64 `json:"entry_price"`
	StopLoss     float64 `json:"stop_loss"`
	TakeProfit1  float64 `json:"take_profit_1"`
	TakeProfit2  float64 `json:"take_profit_2"`
	RiskPerShare float64 `json:"risk_per_share"`
}

// Trade is the persistent paper-trade aggregate. It moves PENDING -> OPEN ->
// CLOSED; CLOSED is terminal. RMultiple and PnL are set exactly once at close.
type Trade struct {
	ID           uuid.UUID   `json:"id"`
	Ticker       string      `json:"ticker"`
	Status       TradeStatus `json:"status"`
	Levels       TradeLevels `json:"levels"`
	RiskAmount   float64     `json:"risk_amount"`
	CurrentPrice float64     `json:"current_price"`
	EntryTime    *time.Time  `json:"entry_time,omitempty"`
	ExitTime     *time.Time  `json:"exit_time,omitempty"`
	ExitReason   ExitReason  `json:"exit_reason,omitempty"`
	ExitPrice    *float64    `json:"exit_price,omitempty"`
	RMultiple    *float64    `json:"r_multiple,omitempty"`
	PnL          *float64    `json:"pnl,omitempty"`
	Notes        string      `json:"notes,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}

// NewTrade builds a PENDING trade for the given levels. The caller is
// responsible for validating RiskPerShare > 0 before persisting.
func NewTrade(ticker string, levels TradeLevels, riskAmount float64, notes string) *Trade {
	return &Trade{
		ID:         uuid.New(),
		Ticker:     ticker,
		Status:     TradeStatusPending,
		Levels:     levels,
		RiskAmount: riskAmount,
		Notes:      notes,
		CreatedAt:  time.Now(),
	}
}

// IsActive reports whether the trade still occupies its ticker slot.
func (t *Trade) IsActive() bool {
	return t.Status == TradeStatusPending || t.Status == TradeStatusOpen
}

// TradeSummary aggregates closed-trade performance over a window.
type TradeSummary struct {
	Open     int     `json:"open"`
	Pending  int     `json:"pending"`
	Closed   int     `json:"closed"`
	WinRate  float64 `json:"win_rate"`
	AvgR     float64 `json:"avg_r"`
	TotalPnL float64 `json:"total_pnl"`
	Days     int     `json:"days"`
}
