// Package scoring blends a new evaluation with decayed history and recent
// interactions into the 0-100 lead score. Everything here is pure.
package scoring

import "math"

const (
	potentialWeight    = 8
	satisfactionWeight = 2
	decayRate          = 0.5
	maxInteractions    = 50
	maxInteractionVal  = 10.0
	maxScore           = 100
)

// Weights are the blend coefficients, each expected in [0,1].
type Weights struct {
	Recency     float64
	History     float64
	Interaction float64
}

// Input holds everything the blend depends on. History is ordered most recent
// first; Interactions likewise.
type Input struct {
	ScorePotencial    int
	ScoreSatisfaccion int
	History           []float64
	Interactions      []float64
	Weights           Weights
}

// Result exposes the intermediate terms for logging and tests. HasTrend and
// HasInteractions report whether the term took part in the blend.
type Result struct {
	Current          float64
	Trend            float64
	HasTrend         bool
	InteractionValue float64
	HasInteractions  bool
	Combined         float64
	NuevoScore       int
}

// CurrentEvaluation weighs potential over satisfaction 4:1 on the 1-10 scale.
func CurrentEvaluation(potencial, satisfaccion int) float64 {
	return float64(potencial*potentialWeight+satisfaccion*satisfactionWeight) / 10
}

// HistoricalTrend is the exponentially decayed mean of scores, where scores[0]
// is the most recent and weighs e^0, scores[i] weighs e^(-0.5*i). The second
// result is false for an empty history.
func HistoricalTrend(scores []float64) (float64, bool) {
	if len(scores) == 0 {
		return 0, false
	}
	var sum, weights float64
	for i, score := range scores {
		w := math.Exp(-decayRate * float64(i))
		sum += score * w
		weights += w
	}
	return sum / weights, true
}

// InteractionValue averages the most recent 50 values and caps the mean at 10.
// Negative means are kept as is.
func InteractionValue(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	if len(values) > maxInteractions {
		values = values[:maxInteractions]
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return math.Min(sum/float64(len(values)), maxInteractionVal), true
}

// Aggregate computes the new lead score. Absent terms are dropped without
// renormalizing the remaining weights, so leads without history score lower.
func Aggregate(in Input) Result {
	res := Result{Current: CurrentEvaluation(in.ScorePotencial, in.ScoreSatisfaccion)}
	res.Combined = res.Current * in.Weights.Recency

	if trend, ok := HistoricalTrend(in.History); ok {
		res.Trend, res.HasTrend = trend, true
		res.Combined += trend * in.Weights.History
	}
	if value, ok := InteractionValue(in.Interactions); ok {
		res.InteractionValue, res.HasInteractions = value, true
		res.Combined += value * in.Weights.Interaction
	}

	res.NuevoScore = Clamp(int(math.Round(res.Combined*10)), 0, maxScore)
	return res
}

func Clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
