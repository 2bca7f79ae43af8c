package repository

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("not found")

// psql builds Postgres placeholders for squirrel queries.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) GetLead(ctx context.Context, leadID, tenantID uuid.UUID) (Lead, error) {
	var lead Lead
	err := r.pool.QueryRow(ctx, `
		SELECT id, tenant_id, name, email, phone, score, state, origin_channel, temperature, priority, created_at, updated_at
		FROM leads
		WHERE id = $1 AND tenant_id = $2
	`, leadID, tenantID).Scan(
		&lead.ID,
		&lead.TenantID,
		&lead.Name,
		&lead.Email,
		&lead.Phone,
		&lead.Score,
		&lead.State,
		&lead.OriginChannel,
		&lead.Temperature,
		&lead.Priority,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	if err != nil {
		return Lead{}, fmt.Errorf("get lead: %w", err)
	}
	return lead, nil
}

func (r *Repository) UpdateLeadClassification(ctx context.Context, leadID, tenantID uuid.UUID, temperature, priority string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leads
		SET temperature = $3, priority = $4, updated_at = now()
		WHERE id = $1 AND tenant_id = $2
	`, leadID, tenantID, temperature, priority)
	if err != nil {
		return fmt.Errorf("update lead classification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) GetMessage(ctx context.Context, messageID, tenantID uuid.UUID) (Message, error) {
	var msg Message
	err := r.pool.QueryRow(ctx, `
		SELECT id, conversation_id, tenant_id, lead_id, role, content, position, created_at
		FROM conversation_messages
		WHERE id = $1 AND tenant_id = $2
	`, messageID, tenantID).Scan(
		&msg.ID,
		&msg.ConversationID,
		&msg.TenantID,
		&msg.LeadID,
		&msg.Role,
		&msg.Content,
		&msg.Position,
		&msg.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Message{}, ErrNotFound
	}
	if err != nil {
		return Message{}, fmt.Errorf("get message: %w", err)
	}
	return msg, nil
}

// ListConversationMessages returns the last limit messages of a conversation,
// ordered oldest to newest. A non-positive limit returns the whole transcript.
func (r *Repository) ListConversationMessages(ctx context.Context, conversationID, tenantID uuid.UUID, limit int) ([]Message, error) {
	inner := psql.
		Select("id", "conversation_id", "tenant_id", "lead_id", "role", "content", "position", "created_at").
		From("conversation_messages").
		Where(sq.Eq{"conversation_id": conversationID, "tenant_id": tenantID}).
		OrderBy("position DESC")
	if limit > 0 {
		inner = inner.Limit(uint64(limit))
	}
	query, args, err := psql.
		Select("id", "conversation_id", "tenant_id", "lead_id", "role", "content", "position", "created_at").
		FromSelect(inner, "recent").
		OrderBy("position ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build conversation query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list conversation messages: %w", err)
	}
	defer rows.Close()

	messages := make([]Message, 0)
	for rows.Next() {
		var msg Message
		if err := rows.Scan(
			&msg.ID,
			&msg.ConversationID,
			&msg.TenantID,
			&msg.LeadID,
			&msg.Role,
			&msg.Content,
			&msg.Position,
			&msg.CreatedAt,
		); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return messages, nil
}
