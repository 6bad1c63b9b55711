package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"

	"github.com/spec-kit/support-desk/internal/domain"
)

// ErrNotFound is returned by every repository when a record does not exist.
var ErrNotFound = errors.New("record not found")

// DB is the part of a pgx pool the Postgres repositories use. *pgxpool.Pool satisfies it.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

// Snapshot is a consistent copy of every customer, ticket and message at one instant.
// Messages are ordered by ticket and then by arrival.
type Snapshot struct {
	Customers []domain.Customer
	Tickets   []domain.Ticket
	Messages  []domain.TicketMessage
}

// MessagesByTicket groups the snapshot messages, preserving arrival order.
func (s *Snapshot) MessagesByTicket() map[string][]domain.TicketMessage {
	grouped := make(map[string][]domain.TicketMessage, len(s.Tickets))
	for _, m := range s.Messages {
		grouped[m.TicketID] = append(grouped[m.TicketID], m)
	}
	return grouped
}

// Snapshotter produces read-only snapshots for aggregation.
type Snapshotter interface {
	Snapshot(ctx context.Context) (*Snapshot, error)
}

// Pinger reports store connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewID returns an identifier for customers, tickets and history entries.
func NewID() string {
	return uuid.NewString()
}

// NewMessageID returns a lexicographically sortable message identifier. Ordering is
// monotonic within one process only, so stores order messages by created_at first.
func NewMessageID() string {
	return ulid.Make().String()
}

// validID reports whether id can be compared against a uuid column.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func mapNoRows(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func nullable(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
