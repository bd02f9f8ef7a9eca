// Package notify defines the lifecycle event stream. Delivery mechanics
// (chat, email) live behind the Sink interface; the core only emits events.
package notify

import (
	"context"
	"time"

	"signal-scout/models"
	"signal-scout/observability"
)

// EventType identifies a lifecycle event.
type EventType string

const (
	EventNew           EventType = "NEW"
	EventEntry         EventType = "ENTRY"
	EventExit          EventType = "EXIT"
	EventDailySummary  EventType = "DAILY_SUMMARY"
	EventWeeklySummary EventType = "WEEKLY_SUMMARY"
)

// Event is one structured lifecycle notification. Trade is set for
// NEW/ENTRY/EXIT, Summary for the summary events.
type Event struct {
	Type    EventType            `json:"type"`
	Ticker  string               `json:"ticker,omitempty"`
	Trade   *models.Trade        `json:"trade,omitempty"`
	Summary *models.TradeSummary `json:"summary,omitempty"`
	At      time.Time            `json:"at"`
}

// Sink accepts lifecycle events. Publish failures are the caller's to log;
// they must never block a trade transition.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}

// LogSink writes events to the structured log. It is the default sink.
type LogSink struct{}

func NewLogSink() *LogSink {
	return &LogSink{}
}

func (s *LogSink) Publish(_ context.Context, event Event) error {
	args := []any{"type", event.Type, "at", event.At}
	if event.Ticker != "" {
		args = append(args, "ticker", event.Ticker)
	}
	if event.Trade != nil {
		args = append(args, "status", event.Trade.Status)
	}
	if event.Summary != nil {
		args = append(args,
			"open", event.Summary.Open,
			"closed", event.Summary.Closed,
			"win_rate", event.Summary.WinRate,
			"total_pnl", event.Summary.TotalPnL)
	}
	observability.Info("trade event", args...)
	return nil
}
