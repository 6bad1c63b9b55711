package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/support-desk/internal/domain"
)

// TicketMessageRepository manages ticket thread messages.
type TicketMessageRepository interface {
	Create(ctx context.Context, msg *domain.TicketMessage) error
	SetSentiment(ctx context.Context, id string, score float64) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketMessage, error)
}

type ticketMessageRepository struct {
	db DB
}

// NewTicketMessageRepository builds repository.
func NewTicketMessageRepository(db DB) TicketMessageRepository {
	return &ticketMessageRepository{db: db}
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func insertMessage(ctx context.Context, db execer, msg *domain.TicketMessage) error {
	if msg.ID == "" {
		msg.ID = NewMessageID()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	const query = `
        INSERT INTO ticket_messages (id, ticket_id, role, content, sentiment_score, created_at)
        VALUES ($1,$2,$3,$4,$5,$6)`
	_, err := db.Exec(ctx, query,
		msg.ID,
		msg.TicketID,
		msg.Role,
		msg.Content,
		msg.SentimentScore,
		msg.CreatedAt,
	)
	return err
}

func (r *ticketMessageRepository) Create(ctx context.Context, msg *domain.TicketMessage) error {
	return insertMessage(ctx, r.db, msg)
}

func (r *ticketMessageRepository) SetSentiment(ctx context.Context, id string, score float64) error {
	cmd, err := r.db.Exec(ctx, `UPDATE ticket_messages SET sentiment_score=$1 WHERE id=$2`, score, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ticketMessageRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketMessage, error) {
	if !validID(ticketID) {
		return nil, nil
	}
	const query = `
        SELECT id, ticket_id, role, content, sentiment_score, created_at
        FROM ticket_messages WHERE ticket_id=$1 ORDER BY created_at ASC, id ASC`
	rows, err := r.db.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMessages(rows)
}

func scanMessages(rows pgx.Rows) ([]domain.TicketMessage, error) {
	var result []domain.TicketMessage
	for rows.Next() {
		var msg domain.TicketMessage
		if err := rows.Scan(
			&msg.ID,
			&msg.TicketID,
			&msg.Role,
			&msg.Content,
			&msg.SentimentScore,
			&msg.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, msg)
	}
	return result, rows.Err()
}
