package analytics

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSink appends events to the analytics_events table.
type PostgresSink struct {
	pool *pgxpool.Pool
}

func NewPostgresSink(pool *pgxpool.Pool) *PostgresSink {
	return &PostgresSink{pool: pool}
}

func (s *PostgresSink) Write(ctx context.Context, event Event) error {
	meta := event.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	encoded, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encode event metadata: %w", err)
	}

	var durationMs *int64
	if event.Duration > 0 {
		ms := event.Duration.Milliseconds()
		durationMs = &ms
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO analytics_events (
			tenant_id, event_type, lead_id, conversation_id, message_id,
			score_value, duration_ms, result, detail, metadata, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		event.TenantID,
		string(event.Type),
		event.LeadID,
		event.ConversationID,
		event.MessageID,
		event.ScoreValue,
		durationMs,
		event.Result,
		event.Detail,
		encoded,
		event.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("insert analytics event: %w", err)
	}
	return nil
}

var _ Sink = (*PostgresSink)(nil)
