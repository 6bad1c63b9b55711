package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/support-desk/internal/domain"
)

// MaxPageSize caps list queries.
const MaxPageSize = 100

// TicketFilter captures list parameters. Empty slices match everything.
type TicketFilter struct {
	CustomerID *string
	Statuses   []domain.TicketStatus
	Channels   []domain.Channel
	Priorities []domain.TicketPriority
	Limit      int
	Offset     int
}

// Normalized returns the filter with limit and offset clamped to valid bounds.
func (f TicketFilter) Normalized() TicketFilter {
	if f.Limit <= 0 {
		f.Limit = 20
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// Matches reports whether ticket passes every filter criterion.
func (f TicketFilter) Matches(ticket *domain.Ticket) bool {
	if f.CustomerID != nil && ticket.CustomerID != *f.CustomerID {
		return false
	}
	if len(f.Statuses) > 0 && !contains(f.Statuses, ticket.Status) {
		return false
	}
	if len(f.Channels) > 0 && !contains(f.Channels, ticket.SourceChannel) {
		return false
	}
	if len(f.Priorities) > 0 && !contains(f.Priorities, ticket.Priority) {
		return false
	}
	return true
}

func contains[T comparable](values []T, v T) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

// TicketRepository encapsulates ticket persistence. Tickets are returned without messages.
type TicketRepository interface {
	// Create stores the ticket together with its first message atomically.
	Create(ctx context.Context, ticket *domain.Ticket, first *domain.TicketMessage) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	FindLatestByCustomer(ctx context.Context, customerID string, channel domain.Channel) (*domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, int, error)
}

type ticketRepository struct {
	db DB
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(db DB) TicketRepository {
	return &ticketRepository{db: db}
}

const ticketColumns = `id, reference, customer_id, source_channel, subject, category, status, priority,
               created_at, updated_at, resolved_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket, first *domain.TicketMessage) error {
	if ticket.ID == "" {
		ticket.ID = NewID()
	}
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = time.Now().UTC()
	}
	if ticket.UpdatedAt.IsZero() {
		ticket.UpdatedAt = ticket.CreatedAt
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const query = `
        INSERT INTO tickets (id, reference, customer_id, source_channel, subject, category, status, priority, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`
	if _, err := tx.Exec(ctx, query,
		ticket.ID,
		ticket.Reference,
		ticket.CustomerID,
		ticket.SourceChannel,
		ticket.Subject,
		ticket.Category,
		ticket.Status,
		ticket.Priority,
		ticket.CreatedAt,
		ticket.UpdatedAt,
	); err != nil {
		return err
	}

	first.TicketID = ticket.ID
	if err := insertMessage(ctx, tx, first); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	if !validID(ticket.ID) {
		return ErrNotFound
	}
	const query = `
        UPDATE tickets SET status=$1, priority=$2, updated_at=$3, resolved_at=$4
        WHERE id=$5`
	cmd, err := r.db.Exec(ctx, query,
		ticket.Status,
		ticket.Priority,
		ticket.UpdatedAt,
		ticket.ResolvedAt,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	ticket, err := scanTicket(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapNoRows(err)
	}
	return ticket, nil
}

func (r *ticketRepository) FindLatestByCustomer(ctx context.Context, customerID string, channel domain.Channel) (*domain.Ticket, error) {
	if !validID(customerID) {
		return nil, ErrNotFound
	}
	query := `SELECT ` + ticketColumns + ` FROM tickets
        WHERE customer_id=$1 AND source_channel=$2
        ORDER BY updated_at DESC LIMIT 1`
	ticket, err := scanTicket(r.db.QueryRow(ctx, query, customerID, channel))
	if err != nil {
		return nil, mapNoRows(err)
	}
	return ticket, nil
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, int, error) {
	filter = filter.Normalized()
	clauses := []string{"1=1"}
	args := []any{}

	if filter.CustomerID != nil {
		if !validID(*filter.CustomerID) {
			return nil, 0, nil
		}
		args = append(args, *filter.CustomerID)
		clauses = append(clauses, fmt.Sprintf("customer_id=$%d", len(args)))
	}
	clauses, args = inClause(clauses, args, "status", filter.Statuses)
	clauses, args = inClause(clauses, args, "source_channel", filter.Channels)
	clauses, args = inClause(clauses, args, "priority", filter.Priorities)
	where := strings.Join(clauses, " AND ")

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM tickets WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY updated_at DESC LIMIT %d OFFSET %d`,
		ticketColumns, where, filter.Limit, filter.Offset)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	tickets, err := scanTickets(rows)
	return tickets, total, err
}

func inClause[T ~string](clauses []string, args []any, column string, values []T) ([]string, []any) {
	if len(values) == 0 {
		return clauses, args
	}
	placeholders := make([]string, len(values))
	for i, v := range values {
		args = append(args, string(v))
		placeholders[i] = fmt.Sprintf("$%d", len(args))
	}
	return append(clauses, fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ","))), args
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.Reference,
		&ticket.CustomerID,
		&ticket.SourceChannel,
		&ticket.Subject,
		&ticket.Category,
		&ticket.Status,
		&ticket.Priority,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.ResolvedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}
