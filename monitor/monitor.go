// Package monitor runs the fixed-interval loop that advances trades and
// enforces the daily-loss breaker. Cycles are strictly sequential; cycle N+1
// never starts before N completes.
package monitor

import (
	"context"
	"fmt"
	"time"

	"signal-scout/config"
	"signal-scout/models"
	"signal-scout/notify"
	"signal-scout/observability"
)

// lifecycleEngine is the slice of the trading engine the monitor drives.
type lifecycleEngine interface {
	CheckEntries(ctx context.Context) error
	CheckExits(ctx context.Context) error
	DailyRisk(ctx context.Context, day time.Time) (dailyR float64, tripped bool, err error)
}

// summaryStore provides the performance rollups for summary events.
type summaryStore interface {
	TradeSummary(ctx context.Context, days int) (*models.TradeSummary, error)
}

// Monitor owns the polling loop. It is not safe for concurrent Run calls.
type Monitor struct {
	engine lifecycleEngine
	store  summaryStore
	sink   notify.Sink
	cfg    *config.MonitorConfig

	now func() time.Time

	// sent markers, compared against the current day/week so each summary
	// fires at most once per period
	lastDailySummary  string
	lastWeeklySummary string
}

// New creates a Monitor. store and sink may be nil; summaries are skipped
// without them.
func New(engine lifecycleEngine, store summaryStore, sink notify.Sink, cfg *config.MonitorConfig) *Monitor {
	return &Monitor{
		engine: engine,
		store:  store,
		sink:   sink,
		cfg:    cfg,
		now:    time.Now,
	}
}

// Run polls until ctx is cancelled. The first cycle fires immediately; an
// in-flight cycle always completes before Run returns.
func (m *Monitor) Run(ctx context.Context) {
	interval := time.Duration(m.cfg.CheckIntervalMinutes) * time.Minute
	if interval <= 0 {
		interval = time.Minute
	}

	observability.Info("trade monitor started", "interval", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.RunCycle(ctx)
	for {
		select {
		case <-ctx.Done():
			observability.Info("trade monitor stopped")
			return
		case <-ticker.C:
			m.RunCycle(ctx)
		}
	}
}

// RunCycle executes one monitor cycle. A panic inside the cycle is caught
// and logged; the loop proceeds on schedule.
func (m *Monitor) RunCycle(ctx context.Context) {
	timer := observability.GetMetrics().NewTimer()
	failed := false
	defer func() {
		if r := recover(); r != nil {
			observability.Error("monitor cycle panicked", "panic", r)
			failed = true
		}
		timer.ObserveMonitorCycle(failed)
	}()

	now := m.now()

	dailyR, tripped, err := m.engine.DailyRisk(ctx, now)
	if err != nil {
		observability.Warn("daily risk check failed, skipping entries this cycle", "error", err)
		failed = true
	}

	switch {
	case err != nil:
		// unknown risk state; do not add exposure
	case tripped:
		observability.Warn("entries suspended by daily loss breaker", "daily_r", dailyR)
	default:
		if err := m.engine.CheckEntries(ctx); err != nil {
			observability.Error("entry check failed", "error", err)
			failed = true
		}
	}

	// exits reduce risk and always run, breaker or not
	if err := m.engine.CheckExits(ctx); err != nil {
		observability.Error("exit check failed", "error", err)
		failed = true
	}

	m.maybeSendSummaries(ctx, now)
}

func (m *Monitor) maybeSendSummaries(ctx context.Context, now time.Time) {
	if !m.cfg.SendDailySummary || m.store == nil || m.sink == nil {
		return
	}
	if now.Hour() < m.cfg.DailySummaryHour {
		return
	}

	day := now.Format("2006-01-02")
	if m.lastDailySummary != day {
		if m.sendSummary(ctx, notify.EventDailySummary, 1, now) {
			m.lastDailySummary = day
		}
	}

	if now.Weekday() == time.Friday {
		year, week := now.ISOWeek()
		weekKey := fmt.Sprintf("%d-w%02d", year, week)
		if m.lastWeeklySummary != weekKey {
			if m.sendSummary(ctx, notify.EventWeeklySummary, 7, now) {
				m.lastWeeklySummary = weekKey
			}
		}
	}
}

// sendSummary reports whether the summary was published, so a failed send
// retries next cycle instead of being marked done.
func (m *Monitor) sendSummary(ctx context.Context, eventType notify.EventType, days int, at time.Time) bool {
	summary, err := m.store.TradeSummary(ctx, days)
	if err != nil {
		observability.Warn("trade summary query failed", "error", err)
		return false
	}
	err = m.sink.Publish(ctx, notify.Event{Type: eventType, Summary: summary, At: at})
	if err != nil {
		observability.Warn("summary publish failed", "type", eventType, "error", err)
		return false
	}
	return true
}
