package scoring

import (
	"math"
	"testing"
)

var defaultWeights = Weights{Recency: 0.7, History: 0.2, Interaction: 0.2}

func TestAggregateWorkedExample(t *testing.T) {
	res := Aggregate(Input{ScorePotencial: 9, ScoreSatisfaccion: 8, Weights: defaultWeights})
	if math.Abs(res.Current-8.8) > 1e-9 {
		t.Fatalf("expected current 8.8, got %v", res.Current)
	}
	if res.HasTrend || res.HasInteractions {
		t.Fatalf("expected no history or interaction terms")
	}
	if res.NuevoScore != 62 {
		t.Fatalf("expected 62, got %d", res.NuevoScore)
	}
}

func TestAggregateWithoutHistoryIsCurrentTimesRecency(t *testing.T) {
	for p := 1; p <= 10; p++ {
		for s := 1; s <= 10; s++ {
			for _, recency := range []float64{0, 0.3, 0.6, 0.7, 1} {
				res := Aggregate(Input{ScorePotencial: p, ScoreSatisfaccion: s, Weights: Weights{Recency: recency, History: 0.2, Interaction: 0.2}})
				want := int(math.Round(CurrentEvaluation(p, s) * recency * 10))
				if res.NuevoScore != want {
					t.Fatalf("p=%d s=%d r=%v: expected %d, got %d", p, s, recency, want, res.NuevoScore)
				}
			}
		}
	}
}

func TestAggregateAlwaysWithinBounds(t *testing.T) {
	weights := []float64{0, 0.25, 0.5, 0.75, 1}
	histories := [][]float64{nil, {10, 10, 10}, {1}, {10, 1, 10, 1}}
	interactions := [][]float64{nil, {100, 200}, {-50, -40}, {3}}
	for _, r := range weights {
		for _, h := range weights {
			for _, iw := range weights {
				for _, hist := range histories {
					for _, inter := range interactions {
						for _, p := range []int{1, 5, 10} {
							res := Aggregate(Input{
								ScorePotencial:    p,
								ScoreSatisfaccion: 10,
								History:           hist,
								Interactions:      inter,
								Weights:           Weights{Recency: r, History: h, Interaction: iw},
							})
							if res.NuevoScore < 0 || res.NuevoScore > 100 {
								t.Fatalf("score out of bounds: %d", res.NuevoScore)
							}
						}
					}
				}
			}
		}
	}
}

func TestRecencyWeightIncreasesCurrentInfluence(t *testing.T) {
	history := []float64{2, 2, 2}
	prevCurrentShare := -1.0
	for _, r := range []float64{0.1, 0.3, 0.5, 0.7, 0.9} {
		res := Aggregate(Input{ScorePotencial: 9, ScoreSatisfaccion: 9, History: history, Weights: Weights{Recency: r, History: 0.2}})
		share := res.Current * r / res.Combined
		if share <= prevCurrentShare {
			t.Fatalf("recency %v: current share %v did not increase over %v", r, share, prevCurrentShare)
		}
		prevCurrentShare = share
	}
}

func TestHistoricalTrendDecay(t *testing.T) {
	if _, ok := HistoricalTrend(nil); ok {
		t.Fatalf("expected empty history to be absent")
	}
	trend, ok := HistoricalTrend([]float64{10, 0})
	if !ok {
		t.Fatalf("expected trend")
	}
	w1 := math.Exp(-0.5)
	want := 10 / (1 + w1)
	if math.Abs(trend-want) > 1e-9 {
		t.Fatalf("expected %v, got %v", want, trend)
	}
	recentHigh, _ := HistoricalTrend([]float64{9, 1})
	recentLow, _ := HistoricalTrend([]float64{1, 9})
	if recentHigh <= recentLow {
		t.Fatalf("most recent score must weigh more: %v vs %v", recentHigh, recentLow)
	}
	constant, _ := HistoricalTrend([]float64{7, 7, 7, 7})
	if math.Abs(constant-7) > 1e-9 {
		t.Fatalf("expected constant history to average 7, got %v", constant)
	}
}

func TestInteractionValue(t *testing.T) {
	if _, ok := InteractionValue(nil); ok {
		t.Fatalf("expected no interactions to be absent")
	}
	if v, _ := InteractionValue([]float64{20, 30}); v != 10 {
		t.Fatalf("expected cap at 10, got %v", v)
	}
	if v, _ := InteractionValue([]float64{-4, -2}); v != -3 {
		t.Fatalf("expected negative mean kept, got %v", v)
	}

	values := make([]float64, 60)
	for i := range values {
		if i < 50 {
			values[i] = 2
		} else {
			values[i] = 100
		}
	}
	if v, _ := InteractionValue(values); v != 2 {
		t.Fatalf("expected only the most recent 50 values, got %v", v)
	}
}

func TestAggregateBlendsAllTerms(t *testing.T) {
	res := Aggregate(Input{
		ScorePotencial:    5,
		ScoreSatisfaccion: 5,
		History:           []float64{5},
		Interactions:      []float64{5},
		Weights:           defaultWeights,
	})
	// 5*0.7 + 5*0.2 + 5*0.2 = 5.5
	if res.NuevoScore != 55 {
		t.Fatalf("expected 55, got %d", res.NuevoScore)
	}
}

func TestClamp(t *testing.T) {
	if Clamp(-3, 0, 100) != 0 || Clamp(130, 0, 100) != 100 || Clamp(42, 0, 100) != 42 {
		t.Fatalf("unexpected clamp results")
	}
}
