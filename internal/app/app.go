// Package app holds the application core behind the HTTP surface: it wires
// the scanner, the trade engine and the store, and exposes the operations the
// API serves.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"signal-scout/config"
	"signal-scout/models"
	"signal-scout/observability"
	"signal-scout/scanner"
	"signal-scout/trading"
)

// Store defines the repository operations needed by App
type Store interface {
	Close()
	Health(ctx context.Context) error
	CreateScanRun(ctx context.Context, run *models.ScanRun) error
	UpdateScanRun(ctx context.Context, run *models.ScanRun) error
	StoreScanResults(ctx context.Context, runID uuid.UUID, results []models.ScanResult) error
	GetLatestScanResults(ctx context.Context, minScore int) ([]models.ScanResult, error)
	GetRecentTrades(ctx context.Context, limit int) ([]models.Trade, error)
	GetTradesByStatus(ctx context.Context, status models.TradeStatus) ([]models.Trade, error)
	TradeSummary(ctx context.Context, days int) (*models.TradeSummary, error)
}

// TradeEngine defines the lifecycle operations needed by App
type TradeEngine interface {
	Create(ctx context.Context, res *models.ScanResult) (trading.CreateOutcome, *models.Trade, error)
	DailyRisk(ctx context.Context, day time.Time) (dailyR float64, tripped bool, err error)
}

// App holds application dependencies using interfaces for testability.
// store and engine may be nil when no database is configured; those
// operations then report an error instead of panicking.
type App struct {
	cfg     *config.Config
	store   Store
	scanner *scanner.Scanner
	engine  TradeEngine
}

// New creates a new App struct
func New(cfg *config.Config, store Store, scn *scanner.Scanner, engine TradeEngine) *App {
	return &App{
		cfg:     cfg,
		store:   store,
		scanner: scn,
		engine:  engine,
	}
}

// Shutdown releases held resources
func (a *App) Shutdown() {
	if a.store != nil {
		a.store.Close()
	}
}

// DatabaseStatus reports the health of the backing store
func (a *App) DatabaseStatus(ctx context.Context) string {
	if a.store == nil {
		return "not_configured"
	}
	if err := a.store.Health(ctx); err != nil {
		return "disconnected"
	}
	return "connected"
}

// ScanRequest selects the universe and filters for one scan invocation
type ScanRequest struct {
	Universe     string `json:"universe"`
	MinScore     *int   `json:"min_score,omitempty"`
	Limit        int    `json:"limit,omitempty"`
	Fundamentals bool   `json:"fundamentals,omitempty"`
}

// RunScan resolves the universe, runs the scanner and persists the run and
// its results when a store is available.
func (a *App) RunScan(ctx context.Context, req ScanRequest) ([]models.ScanResult, error) {
	universe := scanner.ResolveUniverse(req.Universe, &a.cfg.Scanner)
	if len(universe) == 0 {
		return nil, fmt.Errorf("universe %q resolved to no tickers", req.Universe)
	}

	name := req.Universe
	if name == "" {
		name = "popular"
	}

	var run *models.ScanRun
	if a.store != nil {
		run = models.NewScanRun(name, len(universe))
		if err := a.store.CreateScanRun(ctx, run); err != nil {
			return nil, fmt.Errorf("failed to record scan run: %w", err)
		}
	}

	results, err := a.scanner.Scan(ctx, scanner.Options{
		Universe:            universe,
		UniverseName:        name,
		MinScore:            req.MinScore,
		Limit:               req.Limit,
		IncludeFundamentals: req.Fundamentals,
	})
	if err != nil {
		return nil, err
	}

	if run != nil {
		run.Complete(len(universe), len(results))
		if err := a.store.UpdateScanRun(ctx, run); err != nil {
			observability.Error("failed to complete scan run", "error", err)
		}
		if err := a.store.StoreScanResults(ctx, run.ID, results); err != nil {
			observability.Error("failed to store scan results", "error", err)
		}
	}

	return results, nil
}

// GetLatestResults returns the persisted results of the most recent scan
func (a *App) GetLatestResults(ctx context.Context, minScore int) ([]models.ScanResult, error) {
	if a.store == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	return a.store.GetLatestScanResults(ctx, minScore)
}

// GetTrades returns trades filtered by status, or the most recent trades
// when status is empty
func (a *App) GetTrades(ctx context.Context, status string, limit int) ([]models.Trade, error) {
	if a.store == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	if status == "" {
		return a.store.GetRecentTrades(ctx, limit)
	}
	return a.store.GetTradesByStatus(ctx, models.TradeStatus(status))
}

// TradeCreation reports the outcome of one conversion attempt
type TradeCreation struct {
	Ticker  string                `json:"ticker"`
	Outcome trading.CreateOutcome `json:"outcome"`
	TradeID string                `json:"trade_id,omitempty"`
}

// CreateTradesFromLatestScan converts the BUY results of the most recent
// scan into pending trades. Refusals are reported per ticker, not dropped.
func (a *App) CreateTradesFromLatestScan(ctx context.Context) ([]TradeCreation, error) {
	if a.store == nil || a.engine == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	results, err := a.store.GetLatestScanResults(ctx, a.cfg.Risk.MinSignalScore)
	if err != nil {
		return nil, err
	}

	creations := make([]TradeCreation, 0, len(results))
	for i := range results {
		res := &results[i]
		if res.Score.Action != models.ActionBuy {
			continue
		}

		outcome, trade, err := a.engine.Create(ctx, res)
		if err != nil {
			observability.Error("trade creation failed",
				"ticker", res.Ticker,
				"error", err)
			continue
		}

		creation := TradeCreation{Ticker: res.Ticker, Outcome: outcome}
		if trade != nil {
			creation.TradeID = trade.ID.String()
		}
		creations = append(creations, creation)
	}

	return creations, nil
}

// GetSummary returns closed-trade performance over the given window
func (a *App) GetSummary(ctx context.Context, days int) (*models.TradeSummary, error) {
	if a.store == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	return a.store.TradeSummary(ctx, days)
}

// GetDailyRisk returns today's realized R and the breaker state
func (a *App) GetDailyRisk(ctx context.Context) (float64, bool, error) {
	if a.engine == nil {
		return 0, false, fmt.Errorf("database not initialized")
	}
	return a.engine.DailyRisk(ctx, time.Now())
}
