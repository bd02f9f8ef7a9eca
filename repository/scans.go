package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"signal-scout/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CreateScanRun records the start of a scan.
func (r *Repository) CreateScanRun(ctx context.Context, run *models.ScanRun) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO scan_runs (id, universe, tickers_total, tickers_scanned, result_count, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, run.ID, run.Universe, run.TickersTotal, run.TickersScanned, run.ResultCount, run.StartedAt, run.CompletedAt)
	if err != nil {
		return fmt.Errorf("failed to create scan run: %w", err)
	}
	return nil
}

// UpdateScanRun writes the completion counters back.
func (r *Repository) UpdateScanRun(ctx context.Context, run *models.ScanRun) error {
	_, err := r.db.Exec(ctx, `
		UPDATE scan_runs
		SET tickers_scanned = $2, result_count = $3, completed_at = $4
		WHERE id = $1
	`, run.ID, run.TickersScanned, run.ResultCount, run.CompletedAt)
	if err != nil {
		return fmt.Errorf("failed to update scan run: %w", err)
	}
	return nil
}

// GetLatestScanRun returns the most recently started run, or nil when none
// exist.
func (r *Repository) GetLatestScanRun(ctx context.Context) (*models.ScanRun, error) {
	var run models.ScanRun
	err := r.db.QueryRow(ctx, `
		SELECT id, universe, tickers_total, tickers_scanned, result_count, started_at, completed_at
		FROM scan_runs
		ORDER BY started_at DESC
		LIMIT 1
	`).Scan(&run.ID, &run.Universe, &run.TickersTotal, &run.TickersScanned, &run.ResultCount, &run.StartedAt, &run.CompletedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest scan run: %w", err)
	}
	return &run, nil
}

// StoreScanResults persists the ranked results of a run. The full composite
// is kept as JSON next to the queryable columns.
func (r *Repository) StoreScanResults(ctx context.Context, runID uuid.UUID, results []models.ScanResult) error {
	for _, res := range results {
		payload, err := json.Marshal(res)
		if err != nil {
			return fmt.Errorf("failed to marshal scan result for %s: %w", res.Ticker, err)
		}
		_, err = r.db.Exec(ctx, `
			INSERT INTO scan_results (id, scan_run_id, ticker, close, combined_score, trend, action, payload)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, uuid.New(), runID, res.Ticker, res.Close, res.Score.CombinedScore, res.Score.Trend, res.Score.Action, payload)
		if err != nil {
			return fmt.Errorf("failed to store scan result for %s: %w", res.Ticker, err)
		}
	}
	return nil
}

// GetLatestScanResults returns the stored results of the most recent run, at
// or above minScore, highest score first.
func (r *Repository) GetLatestScanResults(ctx context.Context, minScore int) ([]models.ScanResult, error) {
	rows, err := r.db.Query(ctx, `
		SELECT sr.payload
		FROM scan_results sr
		JOIN scan_runs runs ON runs.id = sr.scan_run_id
		WHERE runs.started_at = (SELECT MAX(started_at) FROM scan_runs)
			AND sr.combined_score >= $1
		ORDER BY sr.combined_score DESC, sr.ticker ASC
	`, minScore)
	if err != nil {
		return nil, fmt.Errorf("failed to query scan results: %w", err)
	}
	defer rows.Close()

	var results []models.ScanResult
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan result row: %w", err)
		}
		var res models.ScanResult
		if err := json.Unmarshal(payload, &res); err != nil {
			return nil, fmt.Errorf("failed to unmarshal scan result: %w", err)
		}
		results = append(results, res)
	}
	return results, rows.Err()
}
