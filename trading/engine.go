package trading

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"signal-scout/config"
	"signal-scout/models"
	"signal-scout/notify"
	"signal-scout/observability"
	"signal-scout/services"
)

// TradeStore is the persistence surface the engine needs. The row-level
// guards matter: OpenTrade only fires on PENDING rows and CloseTrade only on
// OPEN rows, so concurrent monitors and manual edits cannot double-apply a
// transition.
type TradeStore interface {
	// CreateTradeIfNoActive inserts the trade unless the ticker already has
	// a PENDING or OPEN trade. Reports whether the insert happened.
	CreateTradeIfNoActive(ctx context.Context, trade *models.Trade) (bool, error)
	GetTradesByStatus(ctx context.Context, status models.TradeStatus) ([]models.Trade, error)
	OpenTrade(ctx context.Context, id uuid.UUID, fillPrice float64, at time.Time) error
	// CloseTrade updates an OPEN trade to CLOSED and reports whether a row
	// was affected. An already-CLOSED trade reports false, nil.
	CloseTrade(ctx context.Context, id uuid.UUID, exitPrice float64, reason models.ExitReason, rMultiple, pnl float64, at time.Time) (bool, error)
	UpdateTradePrice(ctx context.Context, id uuid.UUID, price float64) error
	CountActiveTrades(ctx context.Context) (int, error)
	DailyRealizedR(ctx context.Context, day time.Time) (float64, error)
}

// CreateOutcome reports why a trade was or was not created. Refusals are
// outcomes, not errors.
type CreateOutcome string

const (
	OutcomeCreated       CreateOutcome = "created"
	OutcomeScoreTooLow   CreateOutcome = "score_too_low"
	OutcomeBadLevels     CreateOutcome = "bad_levels"
	OutcomeAlreadyActive CreateOutcome = "already_active"
	OutcomeAtCapacity    CreateOutcome = "at_capacity"
)

// Engine advances trades through their lifecycle against live prices.
type Engine struct {
	store  TradeStore
	prices services.PriceDataProvider
	sink   notify.Sink
	risk   *config.RiskConfig
}

// NewEngine creates an Engine. sink may be nil.
func NewEngine(store TradeStore, prices services.PriceDataProvider, sink notify.Sink, risk *config.RiskConfig) *Engine {
	return &Engine{
		store:  store,
		prices: prices,
		sink:   sink,
		risk:   risk,
	}
}

// Create turns a scored result into a PENDING trade. A result below the
// minimum score or with a degenerate stop is refused with an outcome, never
// an error; errors are reserved for the store itself.
func (e *Engine) Create(ctx context.Context, res *models.ScanResult) (CreateOutcome, *models.Trade, error) {
	metrics := observability.GetMetrics()

	if res.Score.CombinedScore < e.risk.MinSignalScore {
		metrics.RecordTradeCreated(string(OutcomeScoreTooLow))
		return OutcomeScoreTooLow, nil, nil
	}

	levels := CalculateLevels(res, e.risk)
	if levels.RiskPerShare <= 0 {
		observability.Warn("refusing trade with degenerate levels",
			"ticker", res.Ticker,
			"entry", levels.EntryPrice,
			"stop", levels.StopLoss)
		metrics.RecordTradeCreated(string(OutcomeBadLevels))
		return OutcomeBadLevels, nil, nil
	}

	if e.risk.MaxConcurrentTrades > 0 {
		active, err := e.store.CountActiveTrades(ctx)
		if err != nil {
			return "", nil, fmt.Errorf("count active trades: %w", err)
		}
		if active >= e.risk.MaxConcurrentTrades {
			metrics.RecordTradeCreated(string(OutcomeAtCapacity))
			return OutcomeAtCapacity, nil, nil
		}
	}

	trade := models.NewTrade(res.Ticker, levels, e.risk.RiskPerTradeDollars, buildNotes(res))
	trade.CurrentPrice = res.Close

	created, err := e.store.CreateTradeIfNoActive(ctx, trade)
	if err != nil {
		return "", nil, fmt.Errorf("create trade: %w", err)
	}
	if !created {
		metrics.RecordTradeCreated(string(OutcomeAlreadyActive))
		return OutcomeAlreadyActive, nil, nil
	}

	observability.Info("trade created",
		"ticker", trade.Ticker,
		"entry", levels.EntryPrice,
		"stop", levels.StopLoss,
		"tp1", levels.TakeProfit1,
		"tp2", levels.TakeProfit2)
	metrics.RecordTradeCreated(string(OutcomeCreated))
	e.publish(ctx, notify.Event{Type: notify.EventNew, Ticker: trade.Ticker, Trade: trade, At: time.Now()})

	return OutcomeCreated, trade, nil
}

// CheckEntries opens every PENDING trade whose live price has reached the
// entry level, recording the fill price. A failed price fetch skips that
// trade until the next cycle.
func (e *Engine) CheckEntries(ctx context.Context) error {
	pending, err := e.store.GetTradesByStatus(ctx, models.TradeStatusPending)
	if err != nil {
		return fmt.Errorf("load pending trades: %w", err)
	}

	for i := range pending {
		trade := &pending[i]
		price, err := e.prices.GetLatestPrice(ctx, trade.Ticker)
		if err != nil {
			observability.Warn("price fetch failed, skipping entry check",
				"ticker", trade.Ticker,
				"error", err)
			continue
		}

		if price < trade.Levels.EntryPrice {
			if err := e.store.UpdateTradePrice(ctx, trade.ID, price); err != nil {
				observability.Warn("price refresh failed",
					"ticker", trade.Ticker,
					"error", err)
			}
			continue
		}

		now := time.Now()
		if err := e.store.OpenTrade(ctx, trade.ID, price, now); err != nil {
			observability.Error("failed to open trade",
				"ticker", trade.Ticker,
				"error", err)
			continue
		}

		trade.Status = models.TradeStatusOpen
		trade.CurrentPrice = price
		trade.EntryTime = &now
		observability.Info("trade opened",
			"ticker", trade.Ticker,
			"fill", price,
			"entry_level", trade.Levels.EntryPrice)
		observability.GetMetrics().RecordTradeOpened()
		e.publish(ctx, notify.Event{Type: notify.EventEntry, Ticker: trade.Ticker, Trade: trade, At: now})
	}

	return nil
}

// CheckExits closes every OPEN trade whose live price has crossed a level.
// The stop is checked before either target, and the trade closes at the
// level price rather than the raw live print. Trades that crossed nothing
// get their current price refreshed.
func (e *Engine) CheckExits(ctx context.Context) error {
	open, err := e.store.GetTradesByStatus(ctx, models.TradeStatusOpen)
	if err != nil {
		return fmt.Errorf("load open trades: %w", err)
	}

	for i := range open {
		trade := &open[i]
		price, err := e.prices.GetLatestPrice(ctx, trade.Ticker)
		if err != nil {
			observability.Warn("price fetch failed, skipping exit check",
				"ticker", trade.Ticker,
				"error", err)
			continue
		}

		reason, exitPrice, matched := resolveExit(trade.Levels, price)
		if !matched {
			if err := e.store.UpdateTradePrice(ctx, trade.ID, price); err != nil {
				observability.Warn("price refresh failed",
					"ticker", trade.Ticker,
					"error", err)
			}
			continue
		}

		if err := e.closeTrade(ctx, trade, reason, exitPrice); err != nil {
			observability.Error("failed to close trade",
				"ticker", trade.Ticker,
				"reason", reason,
				"error", err)
		}
	}

	return nil
}

// resolveExit applies the fixed exit priority: stop before TP2 before TP1.
func resolveExit(levels models.TradeLevels, price float64) (models.ExitReason, float64, bool) {
	switch {
	case price <= levels.StopLoss:
		return models.ExitReasonStop, levels.StopLoss, true
	case price >= levels.TakeProfit2:
		return models.ExitReasonTP2, levels.TakeProfit2, true
	case price >= levels.TakeProfit1:
		return models.ExitReasonTP1, levels.TakeProfit1, true
	default:
		return "", 0, false
	}
}

func (e *Engine) closeTrade(ctx context.Context, trade *models.Trade, reason models.ExitReason, exitPrice float64) error {
	rMultiple := (exitPrice - trade.Levels.EntryPrice) / trade.Levels.RiskPerShare
	pnl := trade.RiskAmount / trade.Levels.RiskPerShare * (exitPrice - trade.Levels.EntryPrice)
	now := time.Now()

	closed, err := e.store.CloseTrade(ctx, trade.ID, exitPrice, reason, rMultiple, pnl, now)
	if err != nil {
		return err
	}
	if !closed {
		// someone else closed it first; nothing to re-apply
		return nil
	}

	trade.Status = models.TradeStatusClosed
	trade.ExitTime = &now
	trade.ExitReason = reason
	trade.ExitPrice = &exitPrice
	trade.RMultiple = &rMultiple
	trade.PnL = &pnl

	observability.Info("trade closed",
		"ticker", trade.Ticker,
		"reason", reason,
		"exit", exitPrice,
		"r_multiple", rMultiple,
		"pnl", pnl)
	observability.GetMetrics().RecordTradeClosed(string(reason), rMultiple)
	e.publish(ctx, notify.Event{Type: notify.EventExit, Ticker: trade.Ticker, Trade: trade, At: now})

	return nil
}

// DailyRisk reports the realized R for the given day and whether the
// daily-loss breaker has tripped. A tripped breaker is a condition, not an
// error.
func (e *Engine) DailyRisk(ctx context.Context, day time.Time) (dailyR float64, tripped bool, err error) {
	dailyR, err = e.store.DailyRealizedR(ctx, day)
	if err != nil {
		return 0, false, fmt.Errorf("daily realized R: %w", err)
	}

	tripped = dailyR <= -e.risk.MaxDailyLossR
	observability.GetMetrics().SetRiskBreaker(tripped, dailyR)
	if tripped {
		observability.Warn("daily loss breaker tripped",
			"daily_r", dailyR,
			"max_daily_loss_r", e.risk.MaxDailyLossR)
	}
	return dailyR, tripped, nil
}

func (e *Engine) publish(ctx context.Context, event notify.Event) {
	if e.sink == nil {
		return
	}
	if err := e.sink.Publish(ctx, event); err != nil {
		observability.Warn("notification publish failed",
			"event", event.Type,
			"ticker", event.Ticker,
			"error", err)
	}
}
