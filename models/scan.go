package models

import (
	"time"

	"github.com/google/uuid"
)

// ScanRun records one execution of the market scanner.
type ScanRun struct {
	ID             uuid.UUID  `json:"id"`
	Universe       string     `json:"universe"`
	TickersTotal   int        `json:"tickers_total"`
	TickersScanned int        `json:"tickers_scanned"`
	ResultCount    int        `json:"result_count"`
	StartedAt      time.Time  `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// NewScanRun starts a scan run record for the given universe.
func NewScanRun(universe string, total int) *ScanRun {
	return &ScanRun{
		ID:           uuid.New(),
		Universe:     universe,
		TickersTotal: total,
		StartedAt:    time.Now(),
	}
}

// Complete marks the run finished with the given counters.
func (r *ScanRun) Complete(scanned, results int) {
	now := time.Now()
	r.TickersScanned = scanned
	r.ResultCount = results
	r.CompletedAt = &now
}
