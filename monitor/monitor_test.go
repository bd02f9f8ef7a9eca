package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"signal-scout/config"
	"signal-scout/models"
	"signal-scout/notify"
)

// stubEngine records which lifecycle checks ran.
type stubEngine struct {
	mu           sync.Mutex
	entriesCalls int
	exitsCalls   int

	dailyR     float64
	tripped    bool
	riskErr    error
	entriesErr error
	panicOn    string
}

func (e *stubEngine) CheckEntries(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.panicOn == "entries" {
		panic("entries blew up")
	}
	e.entriesCalls++
	return e.entriesErr
}

func (e *stubEngine) CheckExits(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.panicOn == "exits" {
		panic("exits blew up")
	}
	e.exitsCalls++
	return nil
}

func (e *stubEngine) DailyRisk(context.Context, time.Time) (float64, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dailyR, e.tripped, e.riskErr
}

func (e *stubEngine) calls() (entries, exits int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.entriesCalls, e.exitsCalls
}

type stubSummaryStore struct {
	summary models.TradeSummary
	err     error
	calls   int
}

func (s *stubSummaryStore) TradeSummary(_ context.Context, days int) (*models.TradeSummary, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	cp := s.summary
	cp.Days = days
	return &cp, nil
}

type captureSink struct {
	mu     sync.Mutex
	events []notify.Event
	err    error
}

func (s *captureSink) Publish(_ context.Context, event notify.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, event)
	return nil
}

func testMonitorConfig() *config.MonitorConfig {
	return &config.MonitorConfig{
		CheckIntervalMinutes: 5,
		SendDailySummary:     true,
		DailySummaryHour:     16,
	}
}

// fixed reference times: a Wednesday and a Friday, both after summary hour
var (
	wednesdayEvening = time.Date(2025, 6, 4, 17, 0, 0, 0, time.UTC)
	fridayEvening    = time.Date(2025, 6, 6, 17, 0, 0, 0, time.UTC)
)

func newTestMonitor(engine *stubEngine, store *stubSummaryStore, sink *captureSink, at time.Time) *Monitor {
	m := New(engine, store, sink, testMonitorConfig())
	m.now = func() time.Time { return at }
	return m
}

func TestCycleRunsEntriesAndExits(t *testing.T) {
	engine := &stubEngine{}
	m := newTestMonitor(engine, nil, nil, wednesdayEvening)

	m.RunCycle(context.Background())

	entries, exits := engine.calls()
	if entries != 1 || exits != 1 {
		t.Errorf("expected one entry and one exit check, got %d/%d", entries, exits)
	}
}

func TestTrippedBreakerSuspendsEntriesNotExits(t *testing.T) {
	engine := &stubEngine{dailyR: -3.5, tripped: true}
	m := newTestMonitor(engine, nil, nil, wednesdayEvening)

	m.RunCycle(context.Background())

	entries, exits := engine.calls()
	if entries != 0 {
		t.Errorf("tripped breaker must suspend entries, got %d calls", entries)
	}
	if exits != 1 {
		t.Errorf("exits must run regardless of the breaker, got %d calls", exits)
	}
}

func TestRiskCheckFailureSkipsEntries(t *testing.T) {
	engine := &stubEngine{riskErr: errors.New("store down")}
	m := newTestMonitor(engine, nil, nil, wednesdayEvening)

	m.RunCycle(context.Background())

	entries, exits := engine.calls()
	if entries != 0 {
		t.Errorf("unknown risk state must not add exposure, got %d entry checks", entries)
	}
	if exits != 1 {
		t.Errorf("exits still run on a failed risk check, got %d", exits)
	}
}

func TestCyclePanicIsContained(t *testing.T) {
	engine := &stubEngine{panicOn: "entries"}
	m := newTestMonitor(engine, nil, nil, wednesdayEvening)

	// must not propagate
	m.RunCycle(context.Background())

	engine.panicOn = ""
	m.RunCycle(context.Background())
	entries, _ := engine.calls()
	if entries != 1 {
		t.Errorf("loop must keep cycling after a panic, got %d entry checks", entries)
	}
}

func TestDailySummaryFiresOncePerDay(t *testing.T) {
	engine := &stubEngine{}
	store := &stubSummaryStore{summary: models.TradeSummary{Closed: 3, WinRate: 66.7}}
	sink := &captureSink{}
	m := newTestMonitor(engine, store, sink, wednesdayEvening)

	m.RunCycle(context.Background())
	m.RunCycle(context.Background())

	if len(sink.events) != 1 {
		t.Fatalf("expected one daily summary, got %d events", len(sink.events))
	}
	if sink.events[0].Type != notify.EventDailySummary {
		t.Errorf("event type = %s, want DAILY_SUMMARY", sink.events[0].Type)
	}
	if sink.events[0].Summary == nil || sink.events[0].Summary.Days != 1 {
		t.Errorf("daily summary must cover 1 day, got %+v", sink.events[0].Summary)
	}

	// next day, the marker has rolled over
	m.now = func() time.Time { return wednesdayEvening.AddDate(0, 0, 1) }
	m.RunCycle(context.Background())
	if len(sink.events) != 2 {
		t.Errorf("expected a fresh summary the next day, got %d events", len(sink.events))
	}
}

func TestDailySummaryWaitsForConfiguredHour(t *testing.T) {
	engine := &stubEngine{}
	store := &stubSummaryStore{}
	sink := &captureSink{}
	morning := time.Date(2025, 6, 4, 9, 0, 0, 0, time.UTC)
	m := newTestMonitor(engine, store, sink, morning)

	m.RunCycle(context.Background())
	if len(sink.events) != 0 {
		t.Errorf("no summary before the configured hour, got %d events", len(sink.events))
	}
}

func TestWeeklySummaryOnFriday(t *testing.T) {
	engine := &stubEngine{}
	store := &stubSummaryStore{}
	sink := &captureSink{}
	m := newTestMonitor(engine, store, sink, fridayEvening)

	m.RunCycle(context.Background())
	m.RunCycle(context.Background())

	var daily, weekly int
	for _, e := range sink.events {
		switch e.Type {
		case notify.EventDailySummary:
			daily++
		case notify.EventWeeklySummary:
			weekly++
			if e.Summary == nil || e.Summary.Days != 7 {
				t.Errorf("weekly summary must cover 7 days, got %+v", e.Summary)
			}
		}
	}
	if daily != 1 || weekly != 1 {
		t.Errorf("expected one daily and one weekly summary, got %d/%d", daily, weekly)
	}
}

func TestFailedSummarySendRetriesNextCycle(t *testing.T) {
	engine := &stubEngine{}
	store := &stubSummaryStore{}
	sink := &captureSink{err: errors.New("webhook down")}
	m := newTestMonitor(engine, store, sink, wednesdayEvening)

	m.RunCycle(context.Background())
	if len(sink.events) != 0 {
		t.Fatalf("send should have failed, got %d events", len(sink.events))
	}

	sink.err = nil
	m.RunCycle(context.Background())
	if len(sink.events) != 1 {
		t.Errorf("failed send must retry next cycle, got %d events", len(sink.events))
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	engine := &stubEngine{}
	m := newTestMonitor(engine, nil, nil, wednesdayEvening)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	// the first cycle fires immediately
	deadline := time.After(2 * time.Second)
	for {
		if e, _ := engine.calls(); e >= 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("first cycle never ran")
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not stop on context cancel")
	}
}
