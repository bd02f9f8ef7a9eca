// Package signals evaluates the fixed catalog of boolean trading signals over
// an enriched bar window.
package signals

import (
	"math"

	"signal-scout/config"
	"signal-scout/models"
	"signal-scout/observability"
)

// predicate evaluates one signal over the full bar window. Predicates are
// pure; NaN inputs resolve to false.
type predicate func(bars []models.EnrichedBar, cfg *config.SignalConfig) bool

// Evaluate runs every catalog predicate and returns a complete SignalFlags.
// A panic inside one predicate records that signal as false without aborting
// the others.
func Evaluate(bars []models.EnrichedBar, cfg *config.SignalConfig) models.SignalFlags {
	flags := models.SignalFlags{}
	if len(bars) == 0 {
		return flags
	}

	flags.Consolidating = safeEval("CONSOLIDATION", consolidating, bars, cfg)
	flags.BuyDip = safeEval("BUY_DIP", buyDip, bars, cfg)
	flags.Breakout = safeEval("BREAKOUT", breakout, bars, cfg)
	flags.VolSpike = safeEval("VOL_SPIKE", volumeSpike, bars, cfg)
	flags.EMABullish = safeEval("EMA_STACK", emaBullish, bars, cfg)
	flags.MACDBullish = safeEval("MACD_BULL", macdBullish, bars, cfg)
	flags.VWAPReclaim = safeEval("VWAP_RECLAIM", vwapReclaim, bars, cfg)

	return flags
}

func safeEval(name string, p predicate, bars []models.EnrichedBar, cfg *config.SignalConfig) (result bool) {
	defer func() {
		if r := recover(); r != nil {
			observability.Warn("signal predicate panicked",
				"signal", name,
				"ticker", bars[len(bars)-1].Ticker,
				"panic", r)
			result = false
		}
	}()
	return p(bars, cfg)
}

// TrendDirection classifies the EMA stack of the latest bar. Any undefined
// EMA yields CHOPPY.
func TrendDirection(bars []models.EnrichedBar) models.Trend {
	if len(bars) == 0 {
		return models.TrendChoppy
	}
	last := bars[len(bars)-1]
	if math.IsNaN(last.EMA20) || math.IsNaN(last.EMA50) || math.IsNaN(last.EMA200) {
		return models.TrendChoppy
	}
	switch {
	case last.EMA20 > last.EMA50 && last.EMA50 > last.EMA200:
		return models.TrendUp
	case last.EMA20 < last.EMA50 && last.EMA50 < last.EMA200:
		return models.TrendDown
	default:
		return models.TrendChoppy
	}
}

// consolidating fires when mean band width, mean ATR% and mean ADX over the
// lookback all sit below their ceilings. A tight, quiet base.
func consolidating(bars []models.EnrichedBar, cfg *config.SignalConfig) bool {
	c := cfg.Consolidation
	window := tail(bars, c.Lookback)
	if len(window) < c.Lookback {
		return false
	}

	var sumWidth, sumATR, sumADX float64
	for _, b := range window {
		if math.IsNaN(b.BBWidth) || math.IsNaN(b.ATRPct) || math.IsNaN(b.ADX) {
			return false
		}
		sumWidth += b.BBWidth
		sumATR += b.ATRPct
		sumADX += b.ADX
	}
	n := float64(len(window))

	return sumWidth/n < c.BBWidthMeanMax &&
		sumATR/n < c.ATRPctMeanMax &&
		sumADX/n < c.ADXMeanMax
}

// buyDip fires on an oversold RSI, optionally requiring the close to have
// pierced the lower Bollinger band.
func buyDip(bars []models.EnrichedBar, cfg *config.SignalConfig) bool {
	c := cfg.BuyTheDip
	last := bars[len(bars)-1]

	if math.IsNaN(last.RSI) || last.RSI > c.RSIMax {
		return false
	}
	if c.CloseBelowLowerBB {
		if math.IsNaN(last.BBLow) || last.Close >= last.BBLow {
			return false
		}
	}
	return true
}

// breakout fires when the close exceeds the prior lookback's highest high
// (current bar excluded) with trend strength behind it.
func breakout(bars []models.EnrichedBar, cfg *config.SignalConfig) bool {
	c := cfg.Breakout
	if len(bars) < c.Lookback+1 {
		return false
	}
	last := bars[len(bars)-1]
	if math.IsNaN(last.ADX) || last.ADX < c.ADXMin {
		return false
	}

	priorHigh := math.Inf(-1)
	for _, b := range bars[len(bars)-1-c.Lookback : len(bars)-1] {
		if b.High > priorHigh {
			priorHigh = b.High
		}
	}
	return last.Close > priorHigh
}

func volumeSpike(bars []models.EnrichedBar, cfg *config.SignalConfig) bool {
	c := cfg.VolumeSpike
	last := bars[len(bars)-1]
	if math.IsNaN(last.VolMA20) || last.VolMA20 <= 0 {
		return false
	}
	return float64(last.Volume)/last.VolMA20 >= c.VolumeMultiplier
}

// emaBullish requires the bullish stack with a minimum percentage separation
// between each consecutive pair.
func emaBullish(bars []models.EnrichedBar, cfg *config.SignalConfig) bool {
	c := cfg.EMABullish
	last := bars[len(bars)-1]
	if math.IsNaN(last.EMA20) || math.IsNaN(last.EMA50) || math.IsNaN(last.EMA200) {
		return false
	}
	minSep := c.MinSeparationPct / 100

	return last.EMA20 > last.EMA50*(1+minSep) &&
		last.EMA50 > last.EMA200*(1+minSep)
}

// macdBullish fires on the cross event only: MACD at or below its signal on
// the prior bar, above it now, with the histogram at or above the floor.
func macdBullish(bars []models.EnrichedBar, cfg *config.SignalConfig) bool {
	c := cfg.MACDBullish
	if len(bars) < 2 {
		return false
	}
	last := bars[len(bars)-1]
	prev := bars[len(bars)-2]

	if math.IsNaN(last.MACD) || math.IsNaN(last.MACDSignal) ||
		math.IsNaN(prev.MACD) || math.IsNaN(prev.MACDSignal) ||
		math.IsNaN(last.MACDHist) {
		return false
	}

	crossed := prev.MACD <= prev.MACDSignal && last.MACD > last.MACDSignal
	return crossed && last.MACDHist >= c.HistogramMin
}

// vwapReclaim requires the close to be back above VWAP by a margin after at
// least one bar in the lookback traded below it.
func vwapReclaim(bars []models.EnrichedBar, cfg *config.SignalConfig) bool {
	c := cfg.VWAPReclaim
	lookback := c.Lookback
	if lookback < 2 {
		lookback = 2
	}
	window := tail(bars, lookback)
	if len(window) < 2 {
		return false
	}

	last := window[len(window)-1]
	if math.IsNaN(last.VWAP) {
		return false
	}
	if last.Close < last.VWAP*(1+c.MinCloseAbovePct/100) {
		return false
	}

	for _, b := range window[:len(window)-1] {
		if !math.IsNaN(b.VWAP) && b.Close < b.VWAP {
			return true
		}
	}
	return false
}

func tail(bars []models.EnrichedBar, n int) []models.EnrichedBar {
	if len(bars) <= n {
		return bars
	}
	return bars[len(bars)-n:]
}
