package scoring

import (
	"math"
	"testing"

	"signal-scout/models"
)

func TestTechnicalScore(t *testing.T) {
	tests := []struct {
		name  string
		flags models.SignalFlags
		trend models.Trend
		want  int
	}{
		{"no signals choppy", models.SignalFlags{}, models.TrendChoppy, 0},
		{"no signals up", models.SignalFlags{}, models.TrendUp, 1},
		{"consolidation up", models.SignalFlags{Consolidating: true}, models.TrendUp, 2},
		{"breakout alone", models.SignalFlags{Breakout: true}, models.TrendDown, 3},
		{"dip plus volume", models.SignalFlags{BuyDip: true, VolSpike: true}, models.TrendChoppy, 3},
		{
			"everything up",
			models.SignalFlags{
				Consolidating: true, BuyDip: true, Breakout: true,
				VolSpike: true, EMABullish: true, MACDBullish: true, VWAPReclaim: true,
			},
			models.TrendUp,
			11,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TechnicalScore(tt.flags, tt.trend); got != tt.want {
				t.Errorf("TechnicalScore() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCombinedScoreCap(t *testing.T) {
	if got := CombinedScore(8, 3); got != 10 {
		t.Errorf("expected the cap at 10, got %d", got)
	}
	if got := CombinedScore(4, -2); got != 2 {
		t.Errorf("negative fundamentals should subtract, got %d", got)
	}
}

func TestProjectMoves(t *testing.T) {
	// 2% daily ATR, score 10, uptrend: full bias of 1.5x up / 0.5x down
	moves := ProjectMoves(0.02, 10, models.TrendUp)

	if moves.Up1d != 3.0 {
		t.Errorf("Up1d = %f, want 3.0", moves.Up1d)
	}
	if moves.Down1d != 1.0 {
		t.Errorf("Down1d = %f, want 1.0", moves.Down1d)
	}

	// sqrt-of-time scaling: the 7d move is sqrt(7) times the 1d move
	want7d := math.Round(2*math.Sqrt(7)*1.5*100) / 100
	if moves.Up7d != want7d {
		t.Errorf("Up7d = %f, want %f", moves.Up7d, want7d)
	}

	// choppy trend projects symmetrically regardless of score
	choppy := ProjectMoves(0.02, 10, models.TrendChoppy)
	if choppy.Up1d != choppy.Down1d {
		t.Errorf("choppy projection should be symmetric, got up=%f down=%f", choppy.Up1d, choppy.Down1d)
	}

	// NaN ATR degrades to zero moves, never panics
	nan := ProjectMoves(math.NaN(), 5, models.TrendUp)
	if nan.Up1d != 0 || nan.Down1d != 0 {
		t.Errorf("NaN ATR should project zero moves, got %+v", nan)
	}
}

func TestRewardRisk(t *testing.T) {
	if rr := RewardRisk(models.PotentialMoves{Up1d: 3, Down1d: 1}); rr != 3 {
		t.Errorf("RewardRisk = %f, want 3", rr)
	}
	if rr := RewardRisk(models.PotentialMoves{Up1d: 3, Down1d: 0}); rr != 0 {
		t.Errorf("zero downside must yield 0, got %f", rr)
	}
}

func TestDetermineActionOrder(t *testing.T) {
	up := models.TrendUp
	goodRR := models.PotentialMoves{Up1d: 3, Down1d: 1}
	thinRR := models.PotentialMoves{Up1d: 1, Down1d: 1}

	tests := []struct {
		name       string
		score      int
		trend      models.Trend
		rsi        float64
		flags      models.SignalFlags
		moves      models.PotentialMoves
		wantAction models.Action
		wantTF     models.Timeframe
	}{
		{"strong swing buy", 8, up, 55, models.SignalFlags{}, goodRR, models.ActionBuy, models.TimeframeSwing},
		{"intraday buy", 6, up, 55, models.SignalFlags{}, goodRR, models.ActionBuy, models.TimeframeIntraday},
		{"strong score thin rr falls through", 8, up, 55, models.SignalFlags{}, thinRR, models.ActionWatch, models.TimeframeNone},
		{"borderline watch", 5, models.TrendChoppy, 55, models.SignalFlags{}, goodRR, models.ActionWatch, models.TimeframeNone},
		{"extended breakout take profit", 4, up, 80, models.SignalFlags{Breakout: true}, thinRR, models.ActionTakeProfit, models.TimeframeSwingExit},
		{"overbought trail stop", 7, up, 72, models.SignalFlags{}, thinRR, models.ActionTrailStop, models.TimeframeSwing},
		{"weak avoid", 2, up, 55, models.SignalFlags{}, goodRR, models.ActionAvoid, models.TimeframeNone},
		{"default watch", 6, models.TrendChoppy, 55, models.SignalFlags{}, goodRR, models.ActionWatch, models.TimeframeNone},
		{"down trend never buys", 9, models.TrendDown, 55, models.SignalFlags{}, goodRR, models.ActionWatch, models.TimeframeNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action, tf, reason := DetermineAction(tt.score, tt.trend, tt.rsi, tt.flags, tt.moves)
			if action != tt.wantAction {
				t.Errorf("action = %s, want %s", action, tt.wantAction)
			}
			if tf != tt.wantTF {
				t.Errorf("timeframe = %s, want %s", tf, tt.wantTF)
			}
			if reason == "" {
				t.Error("reason must never be empty")
			}
		})
	}
}

// A lone consolidation signal in an uptrend scores 2 and resolves to AVOID.
func TestScoreConsolidationOnlyIsAvoid(t *testing.T) {
	flags := models.SignalFlags{Consolidating: true}

	result, _, _ := Score(flags, models.TrendUp, 50, 0.02, 100, 0)

	if result.TechnicalScore != 2 {
		t.Errorf("technical score = %d, want 2", result.TechnicalScore)
	}
	if result.CombinedScore != 2 {
		t.Errorf("combined score = %d, want 2", result.CombinedScore)
	}
	if result.Action != models.ActionAvoid {
		t.Errorf("action = %s, want AVOID", result.Action)
	}
}

func TestSuggestLevels(t *testing.T) {
	moves := models.PotentialMoves{Up1d: 2.0, Down1d: 1.0}

	tests := []struct {
		tf       models.Timeframe
		wantStop float64
		wantTP1  float64
		wantTP2  float64
	}{
		{models.TimeframeIntraday, 99.4, 100.8, 101.6},
		{models.TimeframeSwing, 99.2, 101.0, 102.0},
		{models.TimeframePosition, 99.0, 101.2, 102.4},
		{models.TimeframeNone, 99.25, 101.0, 102.0},
	}

	for _, tt := range tests {
		t.Run(string(tt.tf), func(t *testing.T) {
			levels := SuggestLevels(100, moves, tt.tf)
			if levels.Entry != 100 {
				t.Errorf("entry = %f, want 100", levels.Entry)
			}
			if levels.StopLoss != tt.wantStop {
				t.Errorf("stop = %f, want %f", levels.StopLoss, tt.wantStop)
			}
			if levels.TakeProfit1 != tt.wantTP1 {
				t.Errorf("tp1 = %f, want %f", levels.TakeProfit1, tt.wantTP1)
			}
			if levels.TakeProfit2 != tt.wantTP2 {
				t.Errorf("tp2 = %f, want %f", levels.TakeProfit2, tt.wantTP2)
			}
		})
	}
}
