// Package scoring turns signal flags, trend and fundamentals into a score,
// a discrete trading action and projected price levels.
package scoring

import (
	"fmt"
	"math"

	"signal-scout/models"
)

// CombinedScoreCap bounds the combined technical + fundamental score.
const CombinedScoreCap = 10

// signalWeights are the catalog scoring weights. Breakouts carry the most
// weight, dips more than the single-point confirmations.
var signalWeights = map[string]int{
	"CONSOLIDATION": 1,
	"BUY_DIP":       2,
	"BREAKOUT":      3,
	"VOL_SPIKE":     1,
	"EMA_STACK":     1,
	"MACD_BULL":     1,
	"VWAP_RECLAIM":  1,
}

// TechnicalScore sums the weights of the set flags, plus one point when the
// trend is up.
func TechnicalScore(flags models.SignalFlags, trend models.Trend) int {
	score := 0
	for _, name := range flags.Active() {
		score += signalWeights[name]
	}
	if trend == models.TrendUp {
		score++
	}
	return score
}

// CombinedScore adds the fundamental score and applies the cap.
func CombinedScore(technical, fundamental int) int {
	combined := technical + fundamental
	if combined > CombinedScoreCap {
		return CombinedScoreCap
	}
	return combined
}

// ProjectMoves estimates percentage moves per horizon from the daily ATR%,
// scaled by the square root of time and biased up or down by trend and
// normalized score. A choppy trend leaves the projection symmetric.
func ProjectMoves(atrPct float64, score int, trend models.Trend) models.PotentialMoves {
	if math.IsNaN(atrPct) || atrPct < 0 {
		atrPct = 0
	}
	dailyMovePct := atrPct * 100

	s := float64(score)
	if s < 0 {
		s = 0
	}
	if s > CombinedScoreCap {
		s = CombinedScoreCap
	}
	bias := 0.5 * s / CombinedScoreCap

	upFactor, downFactor := 1.0, 1.0
	switch trend {
	case models.TrendUp:
		upFactor, downFactor = 1+bias, 1-bias
	case models.TrendDown:
		upFactor, downFactor = 1-bias, 1+bias
	}

	move := func(hours float64) float64 {
		return dailyMovePct * math.Sqrt(hours/24)
	}

	return models.PotentialMoves{
		Up1h:   round2(move(1) * upFactor),
		Down1h: round2(move(1) * downFactor),
		Up3h:   round2(move(3) * upFactor),
		Down3h: round2(move(3) * downFactor),
		Up1d:   round2(move(24) * upFactor),
		Down1d: round2(move(24) * downFactor),
		Up7d:   round2(move(168) * upFactor),
		Down7d: round2(move(168) * downFactor),
	}
}

// RewardRisk is the 1-day up move over the 1-day down move. Zero when there
// is no measurable downside to divide by.
func RewardRisk(moves models.PotentialMoves) float64 {
	if moves.Down1d <= 0 {
		return 0
	}
	return moves.Up1d / moves.Down1d
}

// DetermineAction resolves the trading action from a fixed-order decision
// table. The first matching rule wins; the order is deliberate and must not
// be rearranged.
func DetermineAction(score int, trend models.Trend, rsi float64, flags models.SignalFlags, moves models.PotentialMoves) (models.Action, models.Timeframe, string) {
	rr := RewardRisk(moves)

	switch {
	case score >= 8 && trend == models.TrendUp && rr > 2.0:
		return models.ActionBuy, models.TimeframeSwing,
			fmt.Sprintf("Strong setup (score %d) in uptrend with %.1f:1 reward/risk", score, rr)

	case score >= 6 && score < 8 && trend == models.TrendUp && rr > 1.5:
		return models.ActionBuy, models.TimeframeIntraday,
			fmt.Sprintf("Decent setup (score %d) in uptrend with %.1f:1 reward/risk", score, rr)

	case score >= 5 && score < 6 && (trend == models.TrendUp || trend == models.TrendChoppy):
		return models.ActionWatch, models.TimeframeNone,
			fmt.Sprintf("Borderline setup (score %d), wait for confirmation", score)

	case rsi > 75 && trend == models.TrendUp && flags.Breakout:
		return models.ActionTakeProfit, models.TimeframeSwingExit,
			fmt.Sprintf("Extended breakout with RSI %.0f, consider taking profit", rsi)

	case rsi > 70 && trend == models.TrendUp && score >= 7:
		return models.ActionTrailStop, models.TimeframeSwing,
			fmt.Sprintf("Overbought (RSI %.0f) but setup intact, trail the stop", rsi)

	case score < 5:
		return models.ActionAvoid, models.TimeframeNone,
			fmt.Sprintf("Weak setup (score %d)", score)

	default:
		return models.ActionWatch, models.TimeframeNone,
			fmt.Sprintf("No actionable edge (score %d, trend %s)", score, trend)
	}
}

// levelFractions scale the projected 1-day moves into stop and target
// distances per timeframe.
type levelFractions struct {
	risk    float64
	reward1 float64
	reward2 float64
}

func fractionsFor(tf models.Timeframe) levelFractions {
	switch tf {
	case models.TimeframeIntraday:
		return levelFractions{risk: 0.6, reward1: 0.4, reward2: 0.8}
	case models.TimeframeSwing:
		return levelFractions{risk: 0.8, reward1: 0.5, reward2: 1.0}
	case models.TimeframePosition:
		return levelFractions{risk: 1.0, reward1: 0.6, reward2: 1.2}
	default:
		return levelFractions{risk: 0.75, reward1: 0.5, reward2: 1.0}
	}
}

// SuggestLevels derives advisory entry/stop/target levels from the close and
// the projected 1-day moves. Trade creation computes its own frozen levels.
func SuggestLevels(close float64, moves models.PotentialMoves, tf models.Timeframe) models.PriceLevels {
	f := fractionsFor(tf)
	return models.PriceLevels{
		Entry:       round2(close),
		StopLoss:    round2(close * (1 - moves.Down1d/100*f.risk)),
		TakeProfit1: round2(close * (1 + moves.Up1d/100*f.reward1)),
		TakeProfit2: round2(close * (1 + moves.Up1d/100*f.reward2)),
	}
}

// Score runs the full pipeline for one ticker: technical score, combined
// score, action and levels. fundamental is 0 when no fundamentals were
// fetched.
func Score(flags models.SignalFlags, trend models.Trend, rsi, atrPct, close float64, fundamental int) (models.ScoreResult, models.PotentialMoves, models.PriceLevels) {
	technical := TechnicalScore(flags, trend)
	combined := CombinedScore(technical, fundamental)

	moves := ProjectMoves(atrPct, combined, trend)
	action, tf, reason := DetermineAction(combined, trend, rsi, flags, moves)
	levels := SuggestLevels(close, moves, tf)

	return models.ScoreResult{
		TechnicalScore:   technical,
		FundamentalScore: fundamental,
		CombinedScore:    combined,
		Trend:            trend,
		Action:           action,
		Timeframe:        tf,
		Reason:           reason,
	}, moves, levels
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
