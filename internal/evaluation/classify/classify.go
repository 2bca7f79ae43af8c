// Package classify derives a lead's temperature and priority after each
// evaluation.
package classify

import (
	"crm_messaging_backend/internal/evaluation/domain"
)

const (
	TemperatureHot  = "hot"
	TemperatureWarm = "warm"
	TemperatureCold = "cold"

	PriorityHigh   = "alta"
	PriorityMedium = "media"
	PriorityLow    = "baja"
)

const (
	hotThreshold  = 70
	warmThreshold = 40

	highPriorityIndex   = 0.6
	mediumPriorityIndex = 0.3

	saturatingIntents   = 2
	saturatingProducts  = 3
	saturatingUserTurns = 10
	maxEvaluationScore  = 10.0
)

// Signals are the per-evaluation inputs of the priority index.
type Signals struct {
	Score             int
	ScoreSatisfaccion int
	MatchedIntents    int
	MatchedProducts   int
	UserMessages      int
}

// Classification is the result written back to the lead.
type Classification struct {
	Temperature string
	Priority    string
	Index       float64
}

// Temperature buckets a 0-100 lead score.
func Temperature(score int) string {
	switch {
	case score >= hotThreshold:
		return TemperatureHot
	case score >= warmThreshold:
		return TemperatureWarm
	default:
		return TemperatureCold
	}
}

// PriorityIndex is the weighted mean of the normalized sentiment, intent,
// product interest and engagement signals, in [0,1]. All-zero weights yield 0.
func PriorityIndex(s Signals, cfg domain.EvaluationConfig) float64 {
	sentiment := ratio(float64(s.ScoreSatisfaccion), maxEvaluationScore)
	intent := ratio(float64(s.MatchedIntents), saturatingIntents)
	product := ratio(float64(s.MatchedProducts), saturatingProducts)
	engagement := ratio(float64(s.UserMessages), saturatingUserTurns)

	total := cfg.SentimentWeight + cfg.IntentWeight + cfg.ProductInterestWeight + cfg.EngagementWeight
	if total <= 0 {
		return 0
	}
	sum := sentiment*cfg.SentimentWeight +
		intent*cfg.IntentWeight +
		product*cfg.ProductInterestWeight +
		engagement*cfg.EngagementWeight
	return sum / total
}

// Classify computes temperature from the score and priority from the index.
func Classify(s Signals, cfg domain.EvaluationConfig) Classification {
	index := PriorityIndex(s, cfg)
	priority := PriorityLow
	switch {
	case index >= highPriorityIndex:
		priority = PriorityHigh
	case index >= mediumPriorityIndex:
		priority = PriorityMedium
	}
	return Classification{
		Temperature: Temperature(s.Score),
		Priority:    priority,
		Index:       index,
	}
}

func ratio(v, saturation float64) float64 {
	if v <= 0 {
		return 0
	}
	return min(v/saturation, 1)
}
