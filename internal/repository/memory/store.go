// Package memory provides process-local implementations of the repository interfaces.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
)

// Store keeps every record behind one RWMutex so snapshots are consistent.
type Store struct {
	mu sync.RWMutex

	customers map[string]domain.Customer
	byEmail   map[string]string
	byPhone   map[string]string

	tickets  map[string]domain.Ticket
	messages map[string][]domain.TicketMessage
	history  map[string][]domain.TicketHistory
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		customers: make(map[string]domain.Customer),
		byEmail:   make(map[string]string),
		byPhone:   make(map[string]string),
		tickets:   make(map[string]domain.Ticket),
		messages:  make(map[string][]domain.TicketMessage),
		history:   make(map[string][]domain.TicketHistory),
	}
}

// Customers returns the customer repository view.
func (s *Store) Customers() repository.CustomerRepository { return customerRepo{s} }

// Tickets returns the ticket repository view.
func (s *Store) Tickets() repository.TicketRepository { return ticketRepo{s} }

// Messages returns the message repository view.
func (s *Store) Messages() repository.TicketMessageRepository { return messageRepo{s} }

// History returns the history repository view.
func (s *Store) History() repository.TicketHistoryRepository { return historyRepo{s} }

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Snapshot copies every customer, ticket and message under the read lock.
func (s *Store) Snapshot(context.Context) (*repository.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := &repository.Snapshot{Tickets: make([]domain.Ticket, 0, len(s.tickets))}
	for _, t := range s.tickets {
		snap.Tickets = append(snap.Tickets, cloneTicket(t))
	}
	sort.Slice(snap.Tickets, func(i, j int) bool {
		a, b := snap.Tickets[i], snap.Tickets[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	snap.Customers = make([]domain.Customer, 0, len(s.customers))
	for _, c := range s.customers {
		snap.Customers = append(snap.Customers, c)
	}
	sort.Slice(snap.Customers, func(i, j int) bool { return snap.Customers[i].ID < snap.Customers[j].ID })
	for _, t := range snap.Tickets {
		for _, m := range s.messages[t.ID] {
			snap.Messages = append(snap.Messages, cloneMessage(m))
		}
	}
	return snap, nil
}

type customerRepo struct{ s *Store }

func (r customerRepo) GetOrCreate(_ context.Context, candidate *domain.Customer) (*domain.Customer, bool, error) {
	column, value, err := repository.ContactColumn(candidate)
	if err != nil {
		return nil, false, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	index := r.s.byEmail
	if column == "phone" {
		index = r.s.byPhone
	}
	if id, ok := index[value]; ok {
		existing := r.s.customers[id]
		return &existing, false, nil
	}

	created := *candidate
	if created.ID == "" {
		created.ID = repository.NewID()
	}
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now().UTC()
	}
	r.s.customers[created.ID] = created
	if created.Email != "" {
		r.s.byEmail[created.Email] = created.ID
	}
	if created.Phone != "" {
		r.s.byPhone[created.Phone] = created.ID
	}
	return &created, true, nil
}

func (r customerRepo) GetByID(_ context.Context, id string) (*domain.Customer, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	customer, ok := r.s.customers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &customer, nil
}

func (r customerRepo) UpdateName(_ context.Context, id, name string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	customer, ok := r.s.customers[id]
	if !ok {
		return repository.ErrNotFound
	}
	customer.Name = name
	r.s.customers[id] = customer
	return nil
}

func (r customerRepo) List(context.Context) ([]domain.Customer, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	result := make([]domain.Customer, 0, len(r.s.customers))
	for _, c := range r.s.customers {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

type ticketRepo struct{ s *Store }

func (r ticketRepo) Create(_ context.Context, ticket *domain.Ticket, first *domain.TicketMessage) error {
	if ticket.ID == "" {
		ticket.ID = repository.NewID()
	}
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = time.Now().UTC()
	}
	if ticket.UpdatedAt.IsZero() {
		ticket.UpdatedAt = ticket.CreatedAt
	}
	first.TicketID = ticket.ID
	fillMessage(first)

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored := cloneTicket(*ticket)
	stored.Messages = nil
	r.s.tickets[ticket.ID] = stored
	r.s.messages[ticket.ID] = []domain.TicketMessage{cloneMessage(*first)}
	return nil
}

func (r ticketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.tickets[ticket.ID]
	if !ok {
		return repository.ErrNotFound
	}
	stored.Status = ticket.Status
	stored.Priority = ticket.Priority
	stored.UpdatedAt = ticket.UpdatedAt
	stored.ResolvedAt = cloneTime(ticket.ResolvedAt)
	r.s.tickets[ticket.ID] = stored
	return nil
}

func (r ticketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	stored, ok := r.s.tickets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	ticket := cloneTicket(stored)
	return &ticket, nil
}

func (r ticketRepo) FindLatestByCustomer(_ context.Context, customerID string, channel domain.Channel) (*domain.Ticket, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var latest *domain.Ticket
	for _, t := range r.s.tickets {
		if t.CustomerID != customerID || t.SourceChannel != channel {
			continue
		}
		if latest == nil || newer(t, *latest) {
			candidate := cloneTicket(t)
			latest = &candidate
		}
	}
	if latest == nil {
		return nil, repository.ErrNotFound
	}
	return latest, nil
}

func (r ticketRepo) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, int, error) {
	filter = filter.Normalized()

	r.s.mu.RLock()
	matched := make([]domain.Ticket, 0)
	for _, t := range r.s.tickets {
		if filter.Matches(&t) {
			matched = append(matched, cloneTicket(t))
		}
	}
	r.s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool { return newer(matched[i], matched[j]) })
	total := len(matched)
	if filter.Offset >= total {
		return []domain.Ticket{}, total, nil
	}
	end := filter.Offset + filter.Limit
	if end > total {
		end = total
	}
	return matched[filter.Offset:end], total, nil
}

type messageRepo struct{ s *Store }

func (r messageRepo) Create(_ context.Context, msg *domain.TicketMessage) error {
	fillMessage(msg)
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tickets[msg.TicketID]; !ok {
		return repository.ErrNotFound
	}
	r.s.messages[msg.TicketID] = append(r.s.messages[msg.TicketID], cloneMessage(*msg))
	return nil
}

func (r messageRepo) SetSentiment(_ context.Context, id string, score float64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for ticketID, thread := range r.s.messages {
		for i := range thread {
			if thread[i].ID == id {
				value := score
				r.s.messages[ticketID][i].SentimentScore = &value
				return nil
			}
		}
	}
	return repository.ErrNotFound
}

func (r messageRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketMessage, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	thread := r.s.messages[ticketID]
	result := make([]domain.TicketMessage, len(thread))
	for i, m := range thread {
		result[i] = cloneMessage(m)
	}
	return result, nil
}

type historyRepo struct{ s *Store }

func (r historyRepo) Create(_ context.Context, entry *domain.TicketHistory) error {
	if entry.ID == "" {
		entry.ID = repository.NewID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.history[entry.TicketID] = append(r.s.history[entry.TicketID], *entry)
	return nil
}

func (r historyRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketHistory, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return append([]domain.TicketHistory{}, r.s.history[ticketID]...), nil
}

func fillMessage(msg *domain.TicketMessage) {
	if msg.ID == "" {
		msg.ID = repository.NewMessageID()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
}

func newer(a, b domain.Ticket) bool {
	if !a.UpdatedAt.Equal(b.UpdatedAt) {
		return a.UpdatedAt.After(b.UpdatedAt)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

func cloneTicket(t domain.Ticket) domain.Ticket {
	t.ResolvedAt = cloneTime(t.ResolvedAt)
	t.Messages = nil
	return t
}

func cloneMessage(m domain.TicketMessage) domain.TicketMessage {
	if m.SentimentScore != nil {
		score := *m.SentimentScore
		m.SentimentScore = &score
	}
	return m
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
