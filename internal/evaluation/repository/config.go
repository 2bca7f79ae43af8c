package repository

import (
	"context"
	"errors"
	"fmt"

	"crm_messaging_backend/internal/evaluation/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// GetEvaluationConfig returns ErrNotFound when the tenant has no stored
// configuration; callers fall back to defaults.
func (r *Repository) GetEvaluationConfig(ctx context.Context, tenantID uuid.UUID) (domain.EvaluationConfig, error) {
	var cfg domain.EvaluationConfig
	err := r.pool.QueryRow(ctx, `
		SELECT recency_weight, history_weight, interaction_weight, sentiment_weight, intent_weight,
			product_interest_weight, engagement_weight, min_satisfaction, drastic_change_threshold,
			normalize_keywords, matching_algorithm
		FROM tenant_evaluation_configs
		WHERE tenant_id = $1
	`, tenantID).Scan(
		&cfg.RecencyWeight,
		&cfg.HistoryWeight,
		&cfg.InteractionWeight,
		&cfg.SentimentWeight,
		&cfg.IntentWeight,
		&cfg.ProductInterestWeight,
		&cfg.EngagementWeight,
		&cfg.MinSatisfaction,
		&cfg.DrasticChangeThreshold,
		&cfg.NormalizeKeywords,
		&cfg.MatchingAlgorithm,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.EvaluationConfig{}, ErrNotFound
	}
	if err != nil {
		return domain.EvaluationConfig{}, fmt.Errorf("get evaluation config: %w", err)
	}
	return cfg, nil
}

func (r *Repository) UpsertEvaluationConfig(ctx context.Context, tenantID uuid.UUID, cfg domain.EvaluationConfig) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO tenant_evaluation_configs (
			tenant_id, recency_weight, history_weight, interaction_weight, sentiment_weight, intent_weight,
			product_interest_weight, engagement_weight, min_satisfaction, drastic_change_threshold,
			normalize_keywords, matching_algorithm, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now())
		ON CONFLICT (tenant_id) DO UPDATE SET
			recency_weight = EXCLUDED.recency_weight,
			history_weight = EXCLUDED.history_weight,
			interaction_weight = EXCLUDED.interaction_weight,
			sentiment_weight = EXCLUDED.sentiment_weight,
			intent_weight = EXCLUDED.intent_weight,
			product_interest_weight = EXCLUDED.product_interest_weight,
			engagement_weight = EXCLUDED.engagement_weight,
			min_satisfaction = EXCLUDED.min_satisfaction,
			drastic_change_threshold = EXCLUDED.drastic_change_threshold,
			normalize_keywords = EXCLUDED.normalize_keywords,
			matching_algorithm = EXCLUDED.matching_algorithm,
			updated_at = now()
	`,
		tenantID,
		cfg.RecencyWeight,
		cfg.HistoryWeight,
		cfg.InteractionWeight,
		cfg.SentimentWeight,
		cfg.IntentWeight,
		cfg.ProductInterestWeight,
		cfg.EngagementWeight,
		cfg.MinSatisfaction,
		cfg.DrasticChangeThreshold,
		cfg.NormalizeKeywords,
		cfg.MatchingAlgorithm,
	)
	if err != nil {
		return fmt.Errorf("upsert evaluation config: %w", err)
	}
	return nil
}

// GetDefaultLLMConfiguration returns the tenant's preferred active model
// override, or ErrNotFound.
func (r *Repository) GetDefaultLLMConfiguration(ctx context.Context, tenantID uuid.UUID) (LLMConfiguration, error) {
	var cfg LLMConfiguration
	err := r.pool.QueryRow(ctx, `
		SELECT id, model, api_key, base_url
		FROM llm_configurations
		WHERE tenant_id = $1 AND is_active = true
		ORDER BY is_default DESC, created_at ASC
		LIMIT 1
	`, tenantID).Scan(&cfg.ID, &cfg.Model, &cfg.APIKey, &cfg.BaseURL)
	if errors.Is(err, pgx.ErrNoRows) {
		return LLMConfiguration{}, ErrNotFound
	}
	if err != nil {
		return LLMConfiguration{}, fmt.Errorf("get llm configuration: %w", err)
	}
	return cfg, nil
}
