package trading

import (
	"context"
	"testing"
	"time"

	"signal-scout/config"
	"signal-scout/models"
	"signal-scout/notify"
)

func testRisk() *config.RiskConfig {
	return &config.RiskConfig{
		MinSignalScore:        5,
		RiskPerTradeDollars:   100,
		StopLossATRMultiplier: 1.5,
		MaxDailyLossR:         3.0,
		MaxConcurrentTrades:   10,
	}
}

func scanResult(ticker string, close float64, score int) *models.ScanResult {
	return &models.ScanResult{
		Ticker: ticker,
		Close:  close,
		ATRPct: 2.0, // percent
		Flags:  models.SignalFlags{Breakout: true},
		Score: models.ScoreResult{
			CombinedScore: score,
			Trend:         models.TrendUp,
			Action:        models.ActionBuy,
		},
	}
}

func TestCreateOutcomes(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	sink := &recordingSink{}
	engine := NewEngine(store, newFixedPriceProvider(), sink, testRisk())

	outcome, trade, err := engine.Create(ctx, scanResult("AAPL", 100, 7))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != OutcomeCreated || trade == nil {
		t.Fatalf("expected created, got %s", outcome)
	}
	if trade.Status != models.TradeStatusPending {
		t.Errorf("new trades start PENDING, got %s", trade.Status)
	}
	if trade.Levels.RiskPerShare <= 0 {
		t.Errorf("risk per share must be positive, got %f", trade.Levels.RiskPerShare)
	}
	if trade.Levels.StopLoss >= trade.Levels.EntryPrice {
		t.Errorf("stop %f must sit below entry %f", trade.Levels.StopLoss, trade.Levels.EntryPrice)
	}

	// same ticker again: the active slot is taken
	outcome, _, err = engine.Create(ctx, scanResult("AAPL", 101, 7))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != OutcomeAlreadyActive {
		t.Errorf("expected already_active, got %s", outcome)
	}

	// below the minimum score
	outcome, _, err = engine.Create(ctx, scanResult("MSFT", 100, 3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != OutcomeScoreTooLow {
		t.Errorf("expected score_too_low, got %s", outcome)
	}

	if got := sink.types(); len(got) != 1 || got[0] != notify.EventNew {
		t.Errorf("expected exactly one NEW event, got %v", got)
	}
}

func TestCreateRefusesDegenerateLevels(t *testing.T) {
	store := newMemoryStore()
	engine := NewEngine(store, newFixedPriceProvider(), nil, testRisk())

	res := scanResult("AAPL", 100, 7)
	res.ATRPct = 0
	// no fixed-stop fallback configured either
	engine.risk.FixedStopPct = 0

	outcome, trade, err := engine.Create(context.Background(), res)
	if err != nil {
		t.Fatalf("refusal must not be an error: %v", err)
	}
	if outcome != OutcomeBadLevels || trade != nil {
		t.Errorf("expected bad_levels refusal, got %s", outcome)
	}
}

func TestCreateRespectsCapacity(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	risk := testRisk()
	risk.MaxConcurrentTrades = 1
	engine := NewEngine(store, newFixedPriceProvider(), nil, risk)

	if outcome, _, _ := engine.Create(ctx, scanResult("AAPL", 100, 7)); outcome != OutcomeCreated {
		t.Fatalf("first trade should create, got %s", outcome)
	}
	outcome, _, err := engine.Create(ctx, scanResult("MSFT", 100, 7))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != OutcomeAtCapacity {
		t.Errorf("expected at_capacity, got %s", outcome)
	}
}

// Entry at 100, stop 98, TP1 102, TP2 104. Price walks 99 (still pending),
// 100.5 (opens at the fill), 103 (closes at TP1 level) for exactly +1R.
func TestLifecyclePendingToTP1(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	prices := newFixedPriceProvider()
	sink := &recordingSink{}
	engine := NewEngine(store, prices, sink, testRisk())

	trade := models.NewTrade("AAPL", models.TradeLevels{
		EntryPrice:   100,
		StopLoss:     98,
		TakeProfit1:  102,
		TakeProfit2:  104,
		RiskPerShare: 2,
	}, 100, "")
	if created, err := store.CreateTradeIfNoActive(ctx, trade); err != nil || !created {
		t.Fatalf("seed trade failed: created=%v err=%v", created, err)
	}

	prices.set("AAPL", 99)
	if err := engine.CheckEntries(ctx); err != nil {
		t.Fatalf("check entries: %v", err)
	}
	if got := store.get(trade.ID); got.Status != models.TradeStatusPending {
		t.Fatalf("price below entry must stay PENDING, got %s", got.Status)
	}

	prices.set("AAPL", 100.5)
	if err := engine.CheckEntries(ctx); err != nil {
		t.Fatalf("check entries: %v", err)
	}
	opened := store.get(trade.ID)
	if opened.Status != models.TradeStatusOpen {
		t.Fatalf("expected OPEN after entry cross, got %s", opened.Status)
	}
	if opened.CurrentPrice != 100.5 {
		t.Errorf("fill price = %f, want 100.5", opened.CurrentPrice)
	}
	if opened.EntryTime == nil {
		t.Error("entry time must be recorded")
	}

	prices.set("AAPL", 103)
	if err := engine.CheckExits(ctx); err != nil {
		t.Fatalf("check exits: %v", err)
	}
	closed := store.get(trade.ID)
	if closed.Status != models.TradeStatusClosed {
		t.Fatalf("expected CLOSED, got %s", closed.Status)
	}
	if closed.ExitReason != models.ExitReasonTP1 {
		t.Errorf("exit reason = %s, want TP1", closed.ExitReason)
	}
	if *closed.ExitPrice != 102 {
		t.Errorf("exit at the level price 102, got %f", *closed.ExitPrice)
	}
	if *closed.RMultiple != 1.0 {
		t.Errorf("TP1 exit must be exactly +1R, got %f", *closed.RMultiple)
	}
	if *closed.PnL != 100 {
		t.Errorf("pnl = %f, want 100 (one full risk unit)", *closed.PnL)
	}

	if got := sink.types(); len(got) != 2 || got[0] != notify.EventEntry || got[1] != notify.EventExit {
		t.Errorf("expected ENTRY then EXIT, got %v", got)
	}
}

func TestExitPriorityStopBeatsTargets(t *testing.T) {
	// a degenerate level set where one price satisfies stop and both targets
	levels := models.TradeLevels{
		EntryPrice:   100,
		StopLoss:     100,
		TakeProfit1:  99,
		TakeProfit2:  99.5,
		RiskPerShare: 1,
	}

	reason, exitPrice, matched := resolveExit(levels, 99.7)
	if !matched || reason != models.ExitReasonStop {
		t.Errorf("stop must win over targets, got %s", reason)
	}
	if exitPrice != levels.StopLoss {
		t.Errorf("exit at the stop level, got %f", exitPrice)
	}
}

func TestExitResolution(t *testing.T) {
	levels := models.TradeLevels{
		EntryPrice:   100,
		StopLoss:     98,
		TakeProfit1:  102,
		TakeProfit2:  104,
		RiskPerShare: 2,
	}

	tests := []struct {
		price       float64
		wantMatched bool
		wantReason  models.ExitReason
		wantExit    float64
	}{
		{97.5, true, models.ExitReasonStop, 98},
		{98, true, models.ExitReasonStop, 98},
		{100, false, "", 0},
		{101.9, false, "", 0},
		{102, true, models.ExitReasonTP1, 102},
		{103.9, true, models.ExitReasonTP1, 102},
		{104, true, models.ExitReasonTP2, 104},
		{110, true, models.ExitReasonTP2, 104},
	}

	for _, tt := range tests {
		reason, exit, matched := resolveExit(levels, tt.price)
		if matched != tt.wantMatched || reason != tt.wantReason || exit != tt.wantExit {
			t.Errorf("resolveExit(%.1f) = (%s, %.1f, %v), want (%s, %.1f, %v)",
				tt.price, reason, exit, matched, tt.wantReason, tt.wantExit, tt.wantMatched)
		}
	}
}

func TestStopExitIsNegativeR(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	prices := newFixedPriceProvider()
	engine := NewEngine(store, prices, nil, testRisk())

	trade := models.NewTrade("TSLA", models.TradeLevels{
		EntryPrice:   200,
		StopLoss:     195,
		TakeProfit1:  205,
		TakeProfit2:  210,
		RiskPerShare: 5,
	}, 100, "")
	store.CreateTradeIfNoActive(ctx, trade)
	prices.set("TSLA", 200)
	engine.CheckEntries(ctx)

	prices.set("TSLA", 190)
	if err := engine.CheckExits(ctx); err != nil {
		t.Fatalf("check exits: %v", err)
	}

	closed := store.get(trade.ID)
	if closed.ExitReason != models.ExitReasonStop {
		t.Fatalf("expected STOP exit, got %s", closed.ExitReason)
	}
	if *closed.RMultiple != -1.0 {
		t.Errorf("full stop must be -1R, got %f", *closed.RMultiple)
	}
	if *closed.PnL != -100 {
		t.Errorf("pnl = %f, want -100", *closed.PnL)
	}
}

func TestCheckExitsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	prices := newFixedPriceProvider()
	sink := &recordingSink{}
	engine := NewEngine(store, prices, sink, testRisk())

	trade := models.NewTrade("NVDA", models.TradeLevels{
		EntryPrice:   100,
		StopLoss:     98,
		TakeProfit1:  102,
		TakeProfit2:  104,
		RiskPerShare: 2,
	}, 100, "")
	store.CreateTradeIfNoActive(ctx, trade)
	prices.set("NVDA", 100)
	engine.CheckEntries(ctx)
	prices.set("NVDA", 105)
	engine.CheckExits(ctx)

	first := store.get(trade.ID)
	// the guarded close makes a second pass a no-op
	if _, err := store.CloseTrade(ctx, trade.ID, 90, models.ExitReasonStop, -5, -500, time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	engine.CheckExits(ctx)

	second := store.get(trade.ID)
	if *second.RMultiple != *first.RMultiple || second.ExitReason != first.ExitReason {
		t.Errorf("closed trade was re-closed: %+v vs %+v", second, first)
	}
	if *second.RMultiple != 2.0 {
		t.Errorf("TP2 exit must be exactly +2R, got %f", *second.RMultiple)
	}
}

func TestDailyRiskBreaker(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	engine := NewEngine(store, newFixedPriceProvider(), nil, testRisk())

	now := time.Now()
	for _, r := range []float64{-1.5, -2.0} {
		trade := models.NewTrade("X", models.TradeLevels{EntryPrice: 100, StopLoss: 98, TakeProfit1: 102, TakeProfit2: 104, RiskPerShare: 2}, 100, "")
		trade.Status = models.TradeStatusClosed
		exitTime := now
		trade.ExitTime = &exitTime
		rm := r
		trade.RMultiple = &rm
		store.trades[trade.ID] = trade
	}

	dailyR, tripped, err := engine.DailyRisk(ctx, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dailyR != -3.5 {
		t.Errorf("daily R = %f, want -3.5", dailyR)
	}
	if !tripped {
		t.Error("breaker must trip at -3.5 against a 3.0 limit")
	}

	// exactly at the limit still trips; only above it stays armed
	engine.risk.MaxDailyLossR = 3.5
	_, tripped, _ = engine.DailyRisk(ctx, now)
	if !tripped {
		t.Error("breaker trips at the exact limit")
	}
	engine.risk.MaxDailyLossR = 4.0
	_, tripped, _ = engine.DailyRisk(ctx, now)
	if tripped {
		t.Error("breaker must stay armed above the limit")
	}
}

func TestSinkFailureDoesNotBlockLifecycle(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	sink := &recordingSink{err: context.DeadlineExceeded}
	engine := NewEngine(store, newFixedPriceProvider(), sink, testRisk())

	outcome, _, err := engine.Create(ctx, scanResult("AAPL", 100, 7))
	if err != nil {
		t.Fatalf("sink failure must not propagate: %v", err)
	}
	if outcome != OutcomeCreated {
		t.Errorf("expected created despite sink failure, got %s", outcome)
	}
}
