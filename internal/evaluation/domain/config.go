package domain

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Matching algorithms selectable per tenant.
const (
	MatchingKeyword = "keyword"
	MatchingExact   = "exact"
	MatchingNone    = "none"
)

// EvaluationConfig holds the per-tenant tunables of the scoring engine.
// Weights are expected in [0,1]; the write path validates them, the engine does not.
type EvaluationConfig struct {
	RecencyWeight          float64 `json:"recencyWeight" yaml:"recency_weight" validate:"weight"`
	HistoryWeight          float64 `json:"historyWeight" yaml:"history_weight" validate:"weight"`
	InteractionWeight      float64 `json:"interactionWeight" yaml:"interaction_weight" validate:"weight"`
	SentimentWeight        float64 `json:"sentimentWeight" yaml:"sentiment_weight" validate:"weight"`
	IntentWeight           float64 `json:"intentWeight" yaml:"intent_weight" validate:"weight"`
	ProductInterestWeight  float64 `json:"productInterestWeight" yaml:"product_interest_weight" validate:"weight"`
	EngagementWeight       float64 `json:"engagementWeight" yaml:"engagement_weight" validate:"weight"`
	MinSatisfaction        int     `json:"minSatisfaction" yaml:"min_satisfaction" validate:"gte=1,lte=10"`
	DrasticChangeThreshold int     `json:"drasticChangeThreshold" yaml:"drastic_change_threshold" validate:"gte=1,lte=9"`
	NormalizeKeywords      bool    `json:"normalizeKeywords" yaml:"normalize_keywords"`
	MatchingAlgorithm      string  `json:"matchingAlgorithm" yaml:"matching_algorithm" validate:"oneof=keyword exact none"`
}

// DefaultEvaluationConfig returns the built-in defaults applied when a tenant
// has no stored configuration.
func DefaultEvaluationConfig() EvaluationConfig {
	return EvaluationConfig{
		RecencyWeight:          0.7,
		HistoryWeight:          0.2,
		InteractionWeight:      0.2,
		SentimentWeight:        0.3,
		IntentWeight:           0.3,
		ProductInterestWeight:  0.2,
		EngagementWeight:       0.2,
		MinSatisfaction:        4,
		DrasticChangeThreshold: 3,
		NormalizeKeywords:      true,
		MatchingAlgorithm:      MatchingKeyword,
	}
}

// LoadDefaultsFile reads an optional YAML file overriding the built-in defaults.
// Keys absent from the file keep their built-in value. An empty path returns
// the built-in defaults.
func LoadDefaultsFile(path string) (EvaluationConfig, error) {
	cfg := DefaultEvaluationConfig()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read evaluation defaults: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return DefaultEvaluationConfig(), fmt.Errorf("parse evaluation defaults: %w", err)
	}
	if cfg.MatchingAlgorithm == "" {
		cfg.MatchingAlgorithm = MatchingKeyword
	}
	return cfg, nil
}
