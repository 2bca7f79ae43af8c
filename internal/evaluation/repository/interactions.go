package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

func (r *Repository) ListIntentions(ctx context.Context, tenantID uuid.UUID) ([]Intention, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, description, keywords, priority
		FROM lead_intentions
		WHERE tenant_id = $1 AND is_active = true
		ORDER BY priority DESC, name ASC
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list intentions: %w", err)
	}
	defer rows.Close()

	items := make([]Intention, 0)
	for rows.Next() {
		var item Intention
		if err := rows.Scan(&item.ID, &item.Name, &item.Description, &item.Keywords, &item.Priority); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *Repository) ListInteractionTypes(ctx context.Context, tenantID uuid.UUID) ([]InteractionType, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, description, valor_score
		FROM lead_interaction_types
		WHERE tenant_id = $1 AND is_active = true
		ORDER BY created_at ASC
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list interaction types: %w", err)
	}
	defer rows.Close()

	items := make([]InteractionType, 0)
	for rows.Next() {
		var item InteractionType
		if err := rows.Scan(&item.ID, &item.Name, &item.Description, &item.ValorScore); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// ListRecentInteractions returns a lead's interactions, most recent first.
func (r *Repository) ListRecentInteractions(ctx context.Context, leadID, tenantID uuid.UUID, limit int) ([]Interaction, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, interaction_type_id, valor_score, created_at
		FROM lead_interactions
		WHERE lead_id = $1 AND tenant_id = $2
		ORDER BY created_at DESC
		LIMIT $3
	`, leadID, tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("list interactions: %w", err)
	}
	defer rows.Close()

	items := make([]Interaction, 0)
	for rows.Next() {
		var item Interaction
		if err := rows.Scan(&item.ID, &item.LeadID, &item.InteractionTypeID, &item.ValorScore, &item.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// CreateInteractions records all interactions in one batch round trip.
func (r *Repository) CreateInteractions(ctx context.Context, params []CreateInteractionParams) error {
	if len(params) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, p := range params {
		meta := p.Metadata
		if meta == nil {
			meta = map[string]any{}
		}
		encoded, err := json.Marshal(meta)
		if err != nil {
			return fmt.Errorf("encode interaction metadata: %w", err)
		}
		batch.Queue(`
			INSERT INTO lead_interactions (tenant_id, lead_id, interaction_type_id, valor_score, metadata)
			VALUES ($1, $2, $3, $4, $5)
		`, p.TenantID, p.LeadID, p.InteractionTypeID, p.ValorScore, encoded)
	}

	results := r.pool.SendBatch(ctx, batch)
	for range params {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return fmt.Errorf("insert interaction: %w", err)
		}
	}
	return results.Close()
}
