// Package indicators derives technical indicator series from raw OHLCV bars.
// Values that lack enough history are NaN; downstream signal evaluation
// treats NaN as "absent" and never fails on it.
package indicators

import (
	"math"

	"signal-scout/config"
	"signal-scout/models"
)

// Enrich attaches indicator values to every bar. The input slice is not
// modified. An empty input yields an empty output, never an error.
func Enrich(bars []models.Bar, cfg *config.Config) []models.EnrichedBar {
	n := len(bars)
	if n == 0 {
		return nil
	}

	closes := make([]float64, n)
	highs := make([]float64, n)
	lows := make([]float64, n)
	volumes := make([]float64, n)
	for i, b := range bars {
		closes[i] = b.Close
		highs[i] = b.High
		lows[i] = b.Low
		volumes[i] = float64(b.Volume)
	}

	ind := cfg.Indicators

	bbMid := rollingMean(closes, ind.BBWindow)
	bbStd := rollingStd(closes, ind.BBWindow)
	rsi := wilderRSI(closes, ind.RSIWindow)
	atr := wilderATR(highs, lows, closes, ind.ATRWindow)
	adx := wilderADX(highs, lows, closes, ind.ADXWindow)

	ema20 := ema(closes, 20)
	ema50 := ema(closes, 50)
	ema200 := ema(closes, 200)

	macdLine := make([]float64, n)
	ema12 := ema(closes, 12)
	ema26 := ema(closes, 26)
	for i := 0; i < n; i++ {
		macdLine[i] = ema12[i] - ema26[i]
	}
	macdSignal := ema(macdLine, 9)

	volMA := rollingMean(volumes, 20)
	vwap := rollingVWAP(highs, lows, closes, volumes, cfg.Signals.VWAPReclaim.Lookback)

	out := make([]models.EnrichedBar, n)
	for i := 0; i < n; i++ {
		eb := models.EnrichedBar{Bar: bars[i]}

		eb.RSI = rsi[i]
		eb.ADX = adx[i]
		eb.ATRPct = atr[i] / closes[i]
		eb.BBHigh = bbMid[i] + ind.BBDev*bbStd[i]
		eb.BBLow = bbMid[i] - ind.BBDev*bbStd[i]
		eb.BBWidth = (eb.BBHigh - eb.BBLow) / closes[i]
		eb.EMA20 = ema20[i]
		eb.EMA50 = ema50[i]
		eb.EMA200 = ema200[i]
		eb.MACD = macdLine[i]
		eb.MACDSignal = macdSignal[i]
		eb.MACDHist = macdLine[i] - macdSignal[i]
		eb.VWAP = vwap[i]
		eb.VolMA20 = volMA[i]

		out[i] = eb
	}

	return out
}

// ema computes an exponential moving average seeded from the first value,
// matching pandas ewm(span=n, adjust=False).
func ema(values []float64, span int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}

	mult := 2.0 / float64(span+1)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = (values[i]-out[i-1])*mult + out[i-1]
	}
	return out
}

// rollingMean computes a simple moving average; positions without a full
// window are NaN.
func rollingMean(values []float64, window int) []float64 {
	out := nanSlice(len(values))
	if window <= 0 || len(values) < window {
		return out
	}

	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		if i >= window-1 {
			out[i] = sum / float64(window)
		}
	}
	return out
}

// rollingStd computes the rolling population standard deviation.
func rollingStd(values []float64, window int) []float64 {
	out := nanSlice(len(values))
	if window <= 0 || len(values) < window {
		return out
	}

	for i := window - 1; i < len(values); i++ {
		mean := 0.0
		for j := i - window + 1; j <= i; j++ {
			mean += values[j]
		}
		mean /= float64(window)

		variance := 0.0
		for j := i - window + 1; j <= i; j++ {
			d := values[j] - mean
			variance += d * d
		}
		out[i] = math.Sqrt(variance / float64(window))
	}
	return out
}

// wilderRSI computes the Relative Strength Index with Wilder smoothing.
func wilderRSI(closes []float64, window int) []float64 {
	n := len(closes)
	out := nanSlice(n)
	if n <= window {
		return out
	}

	var avgGain, avgLoss float64
	for i := 1; i <= window; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(window)
	avgLoss /= float64(window)
	out[window] = rsiFrom(avgGain, avgLoss)

	for i := window + 1; i < n; i++ {
		change := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(window-1) + gain) / float64(window)
		avgLoss = (avgLoss*float64(window-1) + loss) / float64(window)
		out[i] = rsiFrom(avgGain, avgLoss)
	}
	return out
}

func rsiFrom(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// wilderATR computes the Average True Range with Wilder smoothing.
func wilderATR(highs, lows, closes []float64, window int) []float64 {
	n := len(closes)
	out := nanSlice(n)
	if n <= window {
		return out
	}

	tr := make([]float64, n)
	tr[0] = highs[0] - lows[0]
	for i := 1; i < n; i++ {
		tr[i] = trueRange(highs[i], lows[i], closes[i-1])
	}

	atr := 0.0
	for i := 1; i <= window; i++ {
		atr += tr[i]
	}
	atr /= float64(window)
	out[window] = atr

	for i := window + 1; i < n; i++ {
		atr = (atr*float64(window-1) + tr[i]) / float64(window)
		out[i] = atr
	}
	return out
}

func trueRange(high, low, prevClose float64) float64 {
	tr := high - low
	if d := math.Abs(high - prevClose); d > tr {
		tr = d
	}
	if d := math.Abs(low - prevClose); d > tr {
		tr = d
	}
	return tr
}

// wilderADX computes the Average Directional Index. Values are NaN until a
// full double smoothing window has elapsed.
func wilderADX(highs, lows, closes []float64, window int) []float64 {
	n := len(closes)
	out := nanSlice(n)
	if n < 2*window+1 {
		return out
	}

	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	tr := make([]float64, n)
	for i := 1; i < n; i++ {
		up := highs[i] - highs[i-1]
		down := lows[i-1] - lows[i]
		if up > down && up > 0 {
			plusDM[i] = up
		}
		if down > up && down > 0 {
			minusDM[i] = down
		}
		tr[i] = trueRange(highs[i], lows[i], closes[i-1])
	}

	var smTR, smPlus, smMinus float64
	for i := 1; i <= window; i++ {
		smTR += tr[i]
		smPlus += plusDM[i]
		smMinus += minusDM[i]
	}

	dx := nanSlice(n)
	dx[window] = dxFrom(smPlus, smMinus, smTR)

	for i := window + 1; i < n; i++ {
		smTR = smTR - smTR/float64(window) + tr[i]
		smPlus = smPlus - smPlus/float64(window) + plusDM[i]
		smMinus = smMinus - smMinus/float64(window) + minusDM[i]
		dx[i] = dxFrom(smPlus, smMinus, smTR)
	}

	adx := 0.0
	for i := window; i < 2*window; i++ {
		adx += dx[i]
	}
	adx /= float64(window)
	out[2*window-1] = adx

	for i := 2 * window; i < n; i++ {
		adx = (adx*float64(window-1) + dx[i]) / float64(window)
		out[i] = adx
	}
	return out
}

func dxFrom(smPlus, smMinus, smTR float64) float64 {
	if smTR == 0 {
		return 0
	}
	plusDI := 100 * smPlus / smTR
	minusDI := 100 * smMinus / smTR
	sum := plusDI + minusDI
	if sum == 0 {
		return 0
	}
	return 100 * math.Abs(plusDI-minusDI) / sum
}

// rollingVWAP computes the volume weighted average of the typical price over
// a trailing window.
func rollingVWAP(highs, lows, closes, volumes []float64, window int) []float64 {
	n := len(closes)
	out := nanSlice(n)
	if window < 2 {
		window = 2
	}
	if n < window {
		return out
	}

	typical := make([]float64, n)
	for i := 0; i < n; i++ {
		typical[i] = (highs[i] + lows[i] + closes[i]) / 3
	}

	for i := window - 1; i < n; i++ {
		var pv, vol float64
		for j := i - window + 1; j <= i; j++ {
			pv += typical[j] * volumes[j]
			vol += volumes[j]
		}
		if vol == 0 {
			continue
		}
		out[i] = pv / vol
	}
	return out
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
