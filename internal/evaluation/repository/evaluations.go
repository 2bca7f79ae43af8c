package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const evaluationColumns = "id, tenant_id, lead_id, conversation_id, message_id, score_potencial, score_satisfaccion, " +
	"interes_productos, comentario, palabras_clave, matched_products, nuevo_score, output_status, prompt, llm_config_id, created_at"

// SaveEvaluation inserts the evaluation and sets the lead's score in a single
// transaction. If the lead row does not exist nothing is written.
func (r *Repository) SaveEvaluation(ctx context.Context, params SaveEvaluationParams) (Evaluation, error) {
	matched, err := json.Marshal(nonNilMatches(params.MatchedProducts))
	if err != nil {
		return Evaluation{}, fmt.Errorf("encode matched products: %w", err)
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Evaluation{}, fmt.Errorf("begin evaluation tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE leads SET score = $3, updated_at = now()
		WHERE id = $1 AND tenant_id = $2
	`, params.LeadID, params.TenantID, params.NuevoScore)
	if err != nil {
		return Evaluation{}, fmt.Errorf("update lead score: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return Evaluation{}, ErrNotFound
	}

	eval := Evaluation{
		TenantID:          params.TenantID,
		LeadID:            params.LeadID,
		ConversationID:    params.ConversationID,
		MessageID:         params.MessageID,
		ScorePotencial:    params.ScorePotencial,
		ScoreSatisfaccion: params.ScoreSatisfaccion,
		InteresProductos:  nonNilStrings(params.InteresProductos),
		Comentario:        params.Comentario,
		Keywords:          nonNilStrings(params.Keywords),
		MatchedProducts:   nonNilMatches(params.MatchedProducts),
		NuevoScore:        params.NuevoScore,
		OutputStatus:      params.OutputStatus,
		Prompt:            params.Prompt,
		LLMConfigID:       params.LLMConfigID,
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO lead_evaluations (
			tenant_id, lead_id, conversation_id, message_id, score_potencial, score_satisfaccion,
			interes_productos, comentario, palabras_clave, matched_products, nuevo_score, output_status, prompt, llm_config_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at
	`,
		eval.TenantID,
		eval.LeadID,
		eval.ConversationID,
		eval.MessageID,
		eval.ScorePotencial,
		eval.ScoreSatisfaccion,
		eval.InteresProductos,
		eval.Comentario,
		eval.Keywords,
		matched,
		eval.NuevoScore,
		eval.OutputStatus,
		eval.Prompt,
		eval.LLMConfigID,
	).Scan(&eval.ID, &eval.CreatedAt)
	if err != nil {
		return Evaluation{}, fmt.Errorf("insert evaluation: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Evaluation{}, fmt.Errorf("commit evaluation tx: %w", err)
	}

	return eval, nil
}

// ListRecentEvaluations returns a lead's evaluations, most recent first.
func (r *Repository) ListRecentEvaluations(ctx context.Context, leadID, tenantID uuid.UUID, limit int) ([]Evaluation, error) {
	return r.ListEvaluations(ctx, EvaluationFilter{TenantID: tenantID, LeadID: &leadID, Limit: limit})
}

func (r *Repository) ListEvaluations(ctx context.Context, filter EvaluationFilter) ([]Evaluation, error) {
	builder := psql.
		Select(evaluationColumns).
		From("lead_evaluations").
		Where(sq.Eq{"tenant_id": filter.TenantID}).
		OrderBy("created_at DESC", "id DESC")
	if filter.LeadID != nil {
		builder = builder.Where(sq.Eq{"lead_id": *filter.LeadID})
	}
	if filter.ConversationID != nil {
		builder = builder.Where(sq.Eq{"conversation_id": *filter.ConversationID})
	}
	if filter.Since != nil {
		builder = builder.Where(sq.GtOrEq{"created_at": *filter.Since})
	}
	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build evaluation query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list evaluations: %w", err)
	}
	defer rows.Close()

	items := make([]Evaluation, 0)
	for rows.Next() {
		var (
			eval    Evaluation
			matched []byte
		)
		if err := rows.Scan(
			&eval.ID,
			&eval.TenantID,
			&eval.LeadID,
			&eval.ConversationID,
			&eval.MessageID,
			&eval.ScorePotencial,
			&eval.ScoreSatisfaccion,
			&eval.InteresProductos,
			&eval.Comentario,
			&eval.Keywords,
			&matched,
			&eval.NuevoScore,
			&eval.OutputStatus,
			&eval.Prompt,
			&eval.LLMConfigID,
			&eval.CreatedAt,
		); err != nil {
			return nil, err
		}
		if len(matched) > 0 {
			if err := json.Unmarshal(matched, &eval.MatchedProducts); err != nil {
				return nil, fmt.Errorf("decode matched products: %w", err)
			}
		}
		eval.MatchedProducts = nonNilMatches(eval.MatchedProducts)
		items = append(items, eval)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return items, nil
}

// GetEvaluationStats aggregates dashboard figures for evaluations created since the given time.
func (r *Repository) GetEvaluationStats(ctx context.Context, tenantID uuid.UUID, since time.Time, top int) (EvaluationStats, error) {
	if top <= 0 {
		top = 5
	}
	stats := EvaluationStats{Since: since}

	var avg *float64
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*), AVG(nuevo_score)::float8
		FROM lead_evaluations
		WHERE tenant_id = $1 AND created_at >= $2
	`, tenantID, since).Scan(&stats.Evaluations, &avg)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return EvaluationStats{}, fmt.Errorf("evaluation totals: %w", err)
	}
	if avg != nil {
		stats.AverageScore = *avg
	}

	if stats.TopLeads, err = r.topLeads(ctx, tenantID, top); err != nil {
		return EvaluationStats{}, err
	}

	products := psql.
		Select("m->>'name' AS name", "COUNT(*) AS hits").
		From("lead_evaluations e, jsonb_array_elements(e.matched_products) m").
		Where(sq.Eq{"e.tenant_id": tenantID}).
		Where(sq.GtOrEq{"e.created_at": since}).
		GroupBy("name").
		OrderBy("hits DESC", "name ASC").
		Limit(uint64(top))
	if stats.TopProducts, err = r.namedCounts(ctx, products); err != nil {
		return EvaluationStats{}, fmt.Errorf("top products: %w", err)
	}

	keywords := psql.
		Select("k AS name", "COUNT(*) AS hits").
		From("lead_evaluations e, unnest(e.palabras_clave) k").
		Where(sq.Eq{"e.tenant_id": tenantID}).
		Where(sq.GtOrEq{"e.created_at": since}).
		GroupBy("k").
		OrderBy("hits DESC", "name ASC").
		Limit(uint64(top))
	if stats.TopKeywords, err = r.namedCounts(ctx, keywords); err != nil {
		return EvaluationStats{}, fmt.Errorf("top keywords: %w", err)
	}

	return stats, nil
}

func (r *Repository) topLeads(ctx context.Context, tenantID uuid.UUID, top int) ([]LeadScoreSummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, score, temperature
		FROM leads
		WHERE tenant_id = $1
		ORDER BY score DESC, updated_at DESC
		LIMIT $2
	`, tenantID, top)
	if err != nil {
		return nil, fmt.Errorf("top leads: %w", err)
	}
	defer rows.Close()

	items := make([]LeadScoreSummary, 0)
	for rows.Next() {
		var item LeadScoreSummary
		if err := rows.Scan(&item.LeadID, &item.Name, &item.Score, &item.Temperature); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *Repository) namedCounts(ctx context.Context, builder sq.SelectBuilder) ([]NamedCount, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]NamedCount, 0)
	for rows.Next() {
		var item NamedCount
		if err := rows.Scan(&item.Name, &item.Count); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func nonNilMatches(values []MatchedProduct) []MatchedProduct {
	if values == nil {
		return []MatchedProduct{}
	}
	return values
}
