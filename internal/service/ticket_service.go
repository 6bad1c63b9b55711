package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/lock"
	"github.com/spec-kit/support-desk/internal/repository"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

// TicketService owns the ticket lifecycle. Every mutation of an existing ticket runs under its lock.
type TicketService struct {
	tickets    repository.TicketRepository
	messages   repository.TicketMessageRepository
	history    repository.TicketHistoryRepository
	locker     lock.Locker
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// TicketDependencies bundles repositories for ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	MessageRepo repository.TicketMessageRepository
	HistoryRepo repository.TicketHistoryRepository
	Locker      lock.Locker
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
	Clock       func() time.Time
}

// TicketFilter describes list parameters. Page is 1-based.
type TicketFilter struct {
	CustomerID *string
	Statuses   []domain.TicketStatus
	Channels   []domain.Channel
	Priorities []domain.TicketPriority
	Page       int
	Limit      int
}

// TicketPage is one page of tickets.
type TicketPage struct {
	Tickets []domain.Ticket
	Total   int
	Page    int
	Limit   int
}

// NewTicketService wires the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	locker := deps.Locker
	if locker == nil {
		locker = lock.NewKeyedMutex()
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		messages:   deps.MessageRepo,
		history:    deps.HistoryRepo,
		locker:     locker,
		dispatcher: deps.Dispatcher,
		logger:     loggerOrNop(deps.Logger),
		now:        clockOrDefault(deps.Clock),
	}
}

// Create opens a ticket for customer with the intake body as its first message.
func (s *TicketService) Create(ctx context.Context, customer *domain.Customer, intake *domain.Intake) (*domain.Ticket, error) {
	now := s.now()
	ticket := &domain.Ticket{
		Reference:     generateTicketKey(),
		CustomerID:    customer.ID,
		SourceChannel: intake.Channel,
		Subject:       intake.Subject,
		Category:      intake.Category,
		Status:        domain.TicketStatusOpen,
		Priority:      intake.Priority,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if !ticket.Priority.Valid() {
		ticket.Priority = domain.TicketPriorityMedium
	}
	first := &domain.TicketMessage{
		Role:      domain.RoleCustomer,
		Content:   intake.Body,
		CreatedAt: now,
	}
	if err := s.tickets.Create(ctx, ticket, first); err != nil {
		return nil, err
	}
	ticket.Messages = []domain.TicketMessage{*first}

	s.logger.Info("ticket created",
		zap.String("ticket_id", ticket.ID),
		zap.String("reference", ticket.Reference),
		zap.String("channel", string(ticket.SourceChannel)))
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    domain.ActorCustomer,
		Payload: events.TicketCreatedPayload{
			Reference:  ticket.Reference,
			CustomerID: ticket.CustomerID,
			Channel:    ticket.SourceChannel,
			Category:   ticket.Category,
			Priority:   ticket.Priority,
			Subject:    ticket.Subject,
		},
	})
	s.publishMessageAdded(ctx, domain.ActorCustomer, first)
	return ticket, nil
}

// Append adds a message to a ticket. A customer message reopens a resolved ticket.
func (s *TicketService) Append(ctx context.Context, ticketID string, role domain.MessageRole, content string) (*domain.TicketMessage, error) {
	if !role.Valid() {
		return nil, apperrors.NewFieldError("role", "must be customer or assistant")
	}
	if strings.TrimSpace(content) == "" {
		return nil, apperrors.NewFieldError("content", "is required")
	}
	unlock, err := s.lockTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	ticket, err := s.load(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	return s.appendLocked(ctx, ticket, role, content)
}

// Escalate moves a ticket to in_progress and raises its priority to at least high.
// Repeated calls and calls on resolved tickets change nothing.
func (s *TicketService) Escalate(ctx context.Context, ticketID, comment string) (*domain.Ticket, error) {
	unlock, err := s.lockTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	ticket, err := s.load(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if _, err := s.escalateLocked(ctx, ticket, domain.ActorOperator, comment); err != nil {
		return nil, err
	}
	return ticket, nil
}

// Resolve closes a ticket. Resolving a resolved ticket changes nothing.
func (s *TicketService) Resolve(ctx context.Context, ticketID, comment string) (*domain.Ticket, error) {
	unlock, err := s.lockTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	ticket, err := s.load(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	oldStatus := ticket.Status
	if !ticket.Apply(domain.EventResolve, s.now()) {
		return ticket, nil
	}
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}
	if err := s.recordStatusChange(ctx, domain.ActorOperator, ticket, oldStatus, comment); err != nil {
		return nil, err
	}
	return ticket, nil
}

// Get returns a ticket with its ordered messages.
func (s *TicketService) Get(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	return s.load(ctx, ticketID)
}

// List returns one page of tickets, most recently updated first.
func (s *TicketService) List(ctx context.Context, filter TicketFilter) (*TicketPage, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	repoFilter := repository.TicketFilter{
		CustomerID: filter.CustomerID,
		Statuses:   filter.Statuses,
		Channels:   filter.Channels,
		Priorities: filter.Priorities,
		Limit:      filter.Limit,
	}.Normalized()
	repoFilter.Offset = (filter.Page - 1) * repoFilter.Limit

	tickets, total, err := s.tickets.ListWithFilter(ctx, repoFilter)
	if err != nil {
		return nil, err
	}
	return &TicketPage{Tickets: tickets, Total: total, Page: filter.Page, Limit: repoFilter.Limit}, nil
}

// History returns the audit trail of a ticket, oldest first.
func (s *TicketService) History(ctx context.Context, ticketID string) ([]domain.TicketHistory, error) {
	if _, err := s.tickets.GetByID(ctx, ticketID); err != nil {
		return nil, s.notFound(err, ticketID)
	}
	return s.history.ListByTicket(ctx, ticketID)
}

func (s *TicketService) lockTicket(ctx context.Context, ticketID string) (func(), error) {
	unlock, err := s.locker.Lock(ctx, "ticket:"+ticketID)
	if err != nil {
		return nil, apperrors.NewDependencyError("ticket lock", err, map[string]any{"ticket_id": ticketID})
	}
	return unlock, nil
}

func (s *TicketService) load(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, s.notFound(err, ticketID)
	}
	msgs, err := s.messages.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	ticket.Messages = msgs
	return ticket, nil
}

func (s *TicketService) notFound(err error, ticketID string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	}
	return err
}

// appendLocked expects the caller to hold the ticket lock and ticket to be freshly loaded.
func (s *TicketService) appendLocked(ctx context.Context, ticket *domain.Ticket, role domain.MessageRole, content string) (*domain.TicketMessage, error) {
	now := s.now()
	msg := &domain.TicketMessage{
		TicketID:  ticket.ID,
		Role:      role,
		Content:   content,
		CreatedAt: now,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, err
	}
	ticket.Messages = append(ticket.Messages, *msg)

	actor := domain.ActorSystem
	oldStatus := ticket.Status
	reopened := false
	if role == domain.RoleCustomer {
		actor = domain.ActorCustomer
		reopened = ticket.Apply(domain.EventCustomerMessage, now)
	}
	ticket.UpdatedAt = now
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}
	s.publishMessageAdded(ctx, actor, msg)
	if reopened {
		if err := s.recordStatusChange(ctx, actor, ticket, oldStatus, "reopened by customer message"); err != nil {
			return nil, err
		}
	}
	return msg, nil
}

// escalateLocked applies the escalate event and priority floor. It reports whether anything changed.
func (s *TicketService) escalateLocked(ctx context.Context, ticket *domain.Ticket, actor domain.ActorType, comment string) (bool, error) {
	now := s.now()
	oldStatus, oldPriority := ticket.Status, ticket.Priority
	statusChanged := ticket.Apply(domain.EventEscalate, now)
	if ticket.Status != domain.TicketStatusInProgress {
		return false, nil
	}
	ticket.Priority = ticket.Priority.AtLeast(domain.TicketPriorityHigh)
	priorityChanged := ticket.Priority != oldPriority
	if !statusChanged && !priorityChanged {
		return false, nil
	}
	ticket.UpdatedAt = now
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return false, err
	}
	if statusChanged {
		if err := s.recordStatusChange(ctx, actor, ticket, oldStatus, comment); err != nil {
			return false, err
		}
	}
	if priorityChanged {
		if err := s.recordPriorityChange(ctx, actor, ticket, oldPriority, comment); err != nil {
			return false, err
		}
	}
	s.logger.Info("ticket escalated",
		zap.String("ticket_id", ticket.ID),
		zap.String("actor", string(actor)),
		zap.String("reason", comment))
	return true, nil
}

func (s *TicketService) recordStatusChange(ctx context.Context, actor domain.ActorType, ticket *domain.Ticket, oldStatus domain.TicketStatus, comment string) error {
	entry := &domain.TicketHistory{
		TicketID:   ticket.ID,
		Actor:      actor,
		ChangeType: domain.ChangeTypeStatus,
		OldValue:   string(oldStatus),
		NewValue:   string(ticket.Status),
		Comment:    comment,
		CreatedAt:  ticket.UpdatedAt,
	}
	if err := s.history.Create(ctx, entry); err != nil {
		return err
	}
	s.logger.Info("ticket status changed",
		zap.String("ticket_id", ticket.ID),
		zap.String("from", string(oldStatus)),
		zap.String("to", string(ticket.Status)))
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		Actor:    actor,
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: ticket.Status,
			Comment:   comment,
		},
	})
	return nil
}

func (s *TicketService) recordPriorityChange(ctx context.Context, actor domain.ActorType, ticket *domain.Ticket, oldPriority domain.TicketPriority, comment string) error {
	entry := &domain.TicketHistory{
		TicketID:   ticket.ID,
		Actor:      actor,
		ChangeType: domain.ChangeTypePriority,
		OldValue:   string(oldPriority),
		NewValue:   string(ticket.Priority),
		Comment:    comment,
		CreatedAt:  ticket.UpdatedAt,
	}
	if err := s.history.Create(ctx, entry); err != nil {
		return err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketPriorityChanged,
		TicketID: ticket.ID,
		Actor:    actor,
		Payload: events.TicketPriorityChangedPayload{
			OldPriority: oldPriority,
			NewPriority: ticket.Priority,
		},
	})
	return nil
}

func (s *TicketService) publishMessageAdded(ctx context.Context, actor domain.ActorType, msg *domain.TicketMessage) {
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketMessageAdded,
		TicketID: msg.TicketID,
		Actor:    actor,
		Payload: events.TicketMessageAddedPayload{
			MessageID:   msg.ID,
			Role:        msg.Role,
			BodyPreview: stringPreview(msg.Content, 120),
		},
	})
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	publishEvent(ctx, s.dispatcher, s.logger, s.now, event)
}

func generateTicketKey() string {
	return "TCK-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
