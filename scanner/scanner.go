// Package scanner fans a ticker universe out across a bounded worker pool,
// running the fetch→enrich→signals→score pipeline per ticker and aggregating
// the survivors into a ranked result set.
package scanner

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"signal-scout/config"
	"signal-scout/indicators"
	"signal-scout/models"
	"signal-scout/observability"
	"signal-scout/scoring"
	"signal-scout/services"
	"signal-scout/signals"
)

// Options controls a single scan invocation. Zero values fall back to the
// scanner's configuration.
type Options struct {
	// Universe is the list of tickers to scan.
	Universe []string

	// UniverseName labels metrics and logs. Empty means "custom".
	UniverseName string

	// MinScore filters out results below the threshold. Nil keeps everything.
	MinScore *int

	// Limit truncates the ranked result set. Zero or negative keeps all.
	Limit int

	// Workers bounds the pool. Zero falls back to config MaxWorkers.
	Workers int

	// IncludeFundamentals merges a fundamental score into each result.
	IncludeFundamentals bool

	// Progress, when set, fires after each ticker finishes with a
	// monotonically increasing done count. Ticker completion order is not
	// deterministic.
	Progress func(done, total int)
}

// Scanner runs concurrent per-ticker scans. Collaborators are injected; the
// scanner owns no connections.
type Scanner struct {
	prices       services.PriceDataProvider
	fundamentals services.FundamentalsProvider
	cfg          *config.Config
}

// New creates a Scanner. fundamentals may be nil; scans then run
// technical-only even when fundamentals are requested.
func New(prices services.PriceDataProvider, fundamentals services.FundamentalsProvider, cfg *config.Config) *Scanner {
	return &Scanner{
		prices:       prices,
		fundamentals: fundamentals,
		cfg:          cfg,
	}
}

// Scan runs the pipeline over the universe and returns results sorted by
// combined score descending, filtered and truncated per Options. Per-ticker
// failures are logged and dropped; an empty or fully failed universe yields
// an empty slice, not an error.
func (s *Scanner) Scan(ctx context.Context, opts Options) ([]models.ScanResult, error) {
	total := len(opts.Universe)
	if total == 0 {
		return []models.ScanResult{}, nil
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = s.cfg.Scanner.MaxWorkers
	}
	if workers < 1 {
		workers = 1
	}

	universeName := opts.UniverseName
	if universeName == "" {
		universeName = "custom"
	}
	metrics := observability.GetMetrics()
	timer := metrics.NewTimer()

	type tickerResult struct {
		index  int
		result *models.ScanResult
		err    error
	}

	results := make(chan tickerResult, total)
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	// the callback runs under the mutex so the done count the caller sees
	// can never go backwards
	var progressMu sync.Mutex
	done := 0
	reportProgress := func() {
		if opts.Progress == nil {
			return
		}
		progressMu.Lock()
		done++
		opts.Progress(done, total)
		progressMu.Unlock()
	}

	for i, ticker := range opts.Universe {
		wg.Add(1)
		go func(idx int, ticker string) {
			defer wg.Done()
			defer reportProgress()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results <- tickerResult{index: idx, err: ctx.Err()}
				return
			}

			res, err := s.scanTicker(ctx, ticker, opts.IncludeFundamentals)
			results <- tickerResult{index: idx, result: res, err: err}
		}(i, ticker)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	scanned := make([]models.ScanResult, 0, total)
	failures := 0
	for r := range results {
		if r.err != nil {
			failures++
			observability.Warn("ticker scan failed",
				"ticker", opts.Universe[r.index],
				"error", r.err)
			metrics.RecordTickerScan("failed")
			metrics.RecordTickerScanError("scan")
			continue
		}
		metrics.RecordTickerScan("ok")
		if r.result == nil {
			continue
		}
		scanned = append(scanned, *r.result)
	}

	filtered := scanned[:0]
	for _, res := range scanned {
		if opts.MinScore != nil && res.Score.CombinedScore < *opts.MinScore {
			continue
		}
		filtered = append(filtered, res)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Score.CombinedScore > filtered[j].Score.CombinedScore
	})

	if opts.Limit > 0 && len(filtered) > opts.Limit {
		filtered = filtered[:opts.Limit]
	}

	metrics.RecordScanRun(universeName, "completed")
	timer.ObserveScan(universeName)
	observability.Info("scan completed",
		"universe", universeName,
		"tickers", total,
		"failed", failures,
		"results", len(filtered),
		"duration_ms", timer.Duration().Milliseconds())

	return filtered, nil
}

// scanTicker runs the full pipeline for one ticker. A panic anywhere in the
// pipeline is converted to an error so one bad ticker cannot abort the batch.
func (s *Scanner) scanTicker(ctx context.Context, ticker string, includeFundamentals bool) (res *models.ScanResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = fmt.Errorf("scan panicked: %v", r)
		}
	}()

	timeout := time.Duration(s.cfg.Scanner.TickerTimeoutSec) * time.Second
	tickerCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	bars, err := s.prices.GetBars(tickerCtx, ticker, s.cfg.Data.Period, s.cfg.Data.Interval)
	if err != nil {
		return nil, fmt.Errorf("fetch bars: %w", err)
	}
	if len(bars) < s.cfg.Scanner.MinBars {
		observability.Debug("skipping ticker with thin history",
			"ticker", ticker,
			"bars", len(bars))
		return nil, nil
	}

	enriched := indicators.Enrich(bars, s.cfg)
	flags := signals.Evaluate(enriched, &s.cfg.Signals)
	trend := signals.TrendDirection(enriched)

	var fundamentals *models.Fundamentals
	fundamentalScore := 0
	if includeFundamentals && s.fundamentals != nil {
		f, ferr := s.fundamentals.GetFundamentals(tickerCtx, ticker)
		if ferr != nil {
			observability.Warn("fundamentals fetch failed",
				"ticker", ticker,
				"error", ferr)
		} else if f != nil {
			fundamentals = f
			fundamentalScore = f.Score
		}
	}

	last := enriched[len(enriched)-1]
	score, moves, levels := scoring.Score(flags, trend, last.RSI, last.ATRPct, last.Close, fundamentalScore)

	metrics := observability.GetMetrics()
	for _, name := range flags.Active() {
		metrics.RecordSignal(name)
	}
	metrics.RecordScanResult(string(trend), score.CombinedScore, string(score.Action))

	return &models.ScanResult{
		Ticker:       ticker,
		Close:        last.Close,
		RSI:          nanToZero(last.RSI),
		ADX:          nanToZero(last.ADX),
		BBWidthPct:   nanToZero(last.BBWidth) * 100,
		ATRPct:       nanToZero(last.ATRPct) * 100,
		Flags:        flags,
		Score:        score,
		Moves:        moves,
		Levels:       levels,
		Fundamentals: fundamentals,
	}, nil
}

func nanToZero(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}
