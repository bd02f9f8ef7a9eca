// Package trading computes trade levels and drives the paper-trade
// lifecycle: PENDING trades open on an entry cross, OPEN trades close on a
// stop or target cross, and a daily-loss breaker suspends new entries.
package trading

import (
	"fmt"
	"math"
	"strings"

	"signal-scout/config"
	"signal-scout/models"
)

// CalculateLevels freezes entry/stop/target levels for a scan result. The
// stop distance comes from the daily ATR scaled by the configured multiplier,
// or from a fixed percentage when the config says so. RiskPerShare equals the
// stop distance; one R above entry is TP1, two R is TP2.
func CalculateLevels(res *models.ScanResult, risk *config.RiskConfig) models.TradeLevels {
	entry := res.Close

	atrPct := res.ATRPct / 100
	if math.IsNaN(atrPct) || atrPct < 0 {
		atrPct = 0
	}

	var stopDistance float64
	if risk.UseFixedStopPct || atrPct == 0 {
		stopDistance = entry * risk.FixedStopPct / 100
	} else {
		stopDistance = entry * atrPct * risk.StopLossATRMultiplier
	}

	// round the distance once so stop, targets and risk stay consistent
	entry = round2(entry)
	stopDistance = round2(stopDistance)

	return models.TradeLevels{
		EntryPrice:   entry,
		StopLoss:     entry - stopDistance,
		TakeProfit1:  entry + stopDistance,
		TakeProfit2:  entry + 2*stopDistance,
		RiskPerShare: stopDistance,
	}
}

// buildNotes summarizes the setup a trade was created from.
func buildNotes(res *models.ScanResult) string {
	active := res.Flags.Active()
	signalsPart := "no signals"
	if len(active) > 0 {
		signalsPart = strings.Join(active, ", ")
	}
	return fmt.Sprintf("score %d, trend %s, signals: %s",
		res.Score.CombinedScore, res.Score.Trend, signalsPart)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
