package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
)

type snapshotRepository struct {
	db DB
}

// NewSnapshotRepository returns a Snapshotter reading inside one repeatable-read transaction.
func NewSnapshotRepository(db DB) Snapshotter {
	return &snapshotRepository{db: db}
}

func (r *snapshotRepository) Snapshot(ctx context.Context) (*Snapshot, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	rows, err := tx.Query(ctx, `SELECT `+customerColumns+` FROM customers ORDER BY id`)
	if err != nil {
		return nil, err
	}
	customers, err := scanCustomers(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}

	rows, err = tx.Query(ctx, `SELECT `+ticketColumns+` FROM tickets ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	tickets, err := scanTickets(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}

	rows, err = tx.Query(ctx, `
        SELECT id, ticket_id, role, content, sentiment_score, created_at
        FROM ticket_messages ORDER BY ticket_id, created_at, id`)
	if err != nil {
		return nil, err
	}
	messages, err := scanMessages(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}

	return &Snapshot{Customers: customers, Tickets: tickets, Messages: messages}, tx.Commit(ctx)
}
