package notify

import (
	"context"
	"testing"
	"time"

	"signal-scout/models"
)

func TestLogSinkPublish(t *testing.T) {
	sink := NewLogSink()

	events := []Event{
		{Type: EventNew, Ticker: "AAPL", Trade: &models.Trade{Ticker: "AAPL", Status: models.TradeStatusPending}, At: time.Now()},
		{Type: EventDailySummary, Summary: &models.TradeSummary{Closed: 2, WinRate: 50}, At: time.Now()},
		{Type: EventExit, At: time.Now()},
	}

	for _, e := range events {
		if err := sink.Publish(context.Background(), e); err != nil {
			t.Errorf("LogSink.Publish(%s) returned %v", e.Type, err)
		}
	}
}
