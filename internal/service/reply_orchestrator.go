package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/channel"
	"github.com/spec-kit/support-desk/internal/config"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/escalation"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/observability"
	"github.com/spec-kit/support-desk/internal/repository"
	"github.com/spec-kit/support-desk/internal/responder"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

// DefaultThreadWindow is how long a threaded conversation keeps appending to its latest ticket.
const DefaultThreadWindow = 24 * time.Hour

// ReplyOrchestrator turns one normalized intake into a persisted, answered and evaluated exchange.
type ReplyOrchestrator struct {
	customers    *CustomerService
	tickets      *TicketService
	responder    responder.Responder
	policy       *escalation.Policy
	dispatcher   events.Dispatcher
	metrics      *observability.Metrics
	logger       *zap.Logger
	threadWindow time.Duration
	now          func() time.Time
}

// OrchestratorDependencies bundles collaborators for the orchestrator.
type OrchestratorDependencies struct {
	Customers    *CustomerService
	Tickets      *TicketService
	Responder    responder.Responder
	Policy       *escalation.Policy
	Dispatcher   events.Dispatcher
	Metrics      *observability.Metrics
	Logger       *zap.Logger
	ThreadWindow time.Duration
	Clock        func() time.Time
}

// ExchangeResult describes what one intake produced.
type ExchangeResult struct {
	Customer         *domain.Customer
	Ticket           *domain.Ticket
	Inbound          *domain.TicketMessage
	Reply            *domain.TicketMessage
	Created          bool
	Sentiment        float64
	Escalated        bool
	EscalationReason string
}

// NewReplyOrchestrator wires the orchestrator.
func NewReplyOrchestrator(deps OrchestratorDependencies) *ReplyOrchestrator {
	window := deps.ThreadWindow
	if window <= 0 {
		window = DefaultThreadWindow
	}
	policy := deps.Policy
	if policy == nil {
		policy = escalation.NewPolicy(escalation.DefaultSentimentThreshold, config.DefaultEscalationKeywords)
	}
	return &ReplyOrchestrator{
		customers:    deps.Customers,
		tickets:      deps.Tickets,
		responder:    deps.Responder,
		policy:       policy,
		dispatcher:   deps.Dispatcher,
		metrics:      deps.Metrics,
		logger:       loggerOrNop(deps.Logger),
		threadWindow: window,
		now:          clockOrDefault(deps.Clock),
	}
}

// Handle processes one inbound message. When the responder fails the inbound message stays
// persisted without a score and a dependency error carrying the ticket id is returned.
func (o *ReplyOrchestrator) Handle(ctx context.Context, intake *domain.Intake) (*ExchangeResult, error) {
	customer, err := o.customers.Resolve(ctx, intake.Channel, intake.CustomerKey, intake.CustomerName)
	if err != nil {
		return nil, err
	}

	ticket, inbound, created, err := o.accept(ctx, customer, intake)
	if err != nil {
		return nil, err
	}
	o.metrics.RecordIntake(string(intake.Channel))

	started := time.Now()
	reply, err := o.responder.Respond(ctx, ticket, ticket.Messages)
	latency := time.Since(started)
	o.metrics.ObserveResponder(latency, err)
	if err != nil {
		return nil, o.responderFailed(ctx, ticket, inbound, err)
	}

	result, err := o.complete(ctx, ticket.ID, inbound, reply)
	if err != nil {
		return nil, err
	}
	result.Customer = customer
	result.Created = created

	o.publishEvent(ctx, events.Event{
		Type:     events.EventExchangeCompleted,
		TicketID: result.Ticket.ID,
		Actor:    domain.ActorSystem,
		Payload: events.ExchangeCompletedPayload{
			Channel:          intake.Channel,
			MessageID:        inbound.ID,
			LatencyMillis:    latency.Milliseconds(),
			Sentiment:        reply.Sentiment,
			Escalated:        result.Escalated,
			EscalationReason: result.EscalationReason,
		},
	})
	return result, nil
}

// accept persists the inbound message, either on a new ticket or on the conversation's latest
// ticket, and returns a detached copy of the ticket and its history.
func (o *ReplyOrchestrator) accept(ctx context.Context, customer *domain.Customer, intake *domain.Intake) (*domain.Ticket, *domain.TicketMessage, bool, error) {
	normalizer, ok := channel.ForChannel(intake.Channel)
	if !ok {
		return nil, nil, false, apperrors.NewFieldError("channel", "is not supported")
	}
	if !normalizer.Threaded() {
		ticket, err := o.tickets.Create(ctx, customer, intake)
		if err != nil {
			return nil, nil, false, err
		}
		return ticket, &ticket.Messages[0], true, nil
	}

	unlock, err := o.tickets.locker.Lock(ctx, "conversation:"+customer.ID+":"+string(intake.Channel))
	if err != nil {
		return nil, nil, false, apperrors.NewDependencyError("conversation lock", err, nil)
	}
	defer unlock()

	latest, err := o.tickets.tickets.FindLatestByCustomer(ctx, customer.ID, intake.Channel)
	switch {
	case errors.Is(err, repository.ErrNotFound):
	case err != nil:
		return nil, nil, false, err
	case o.now().Sub(latest.UpdatedAt) <= o.threadWindow:
		ticket, msg, err := o.appendInbound(ctx, latest.ID, intake.Body)
		return ticket, msg, false, err
	}

	ticket, err := o.tickets.Create(ctx, customer, intake)
	if err != nil {
		return nil, nil, false, err
	}
	return ticket, &ticket.Messages[0], true, nil
}

func (o *ReplyOrchestrator) appendInbound(ctx context.Context, ticketID, body string) (*domain.Ticket, *domain.TicketMessage, error) {
	unlock, err := o.tickets.lockTicket(ctx, ticketID)
	if err != nil {
		return nil, nil, err
	}
	defer unlock()

	ticket, err := o.tickets.load(ctx, ticketID)
	if err != nil {
		return nil, nil, err
	}
	msg, err := o.tickets.appendLocked(ctx, ticket, domain.RoleCustomer, body)
	if err != nil {
		return nil, nil, err
	}
	return ticket, msg, nil
}

// complete attaches the sentiment, appends the reply and applies the escalation policy
// under the ticket lock.
func (o *ReplyOrchestrator) complete(ctx context.Context, ticketID string, inbound *domain.TicketMessage, reply *responder.Reply) (*ExchangeResult, error) {
	unlock, err := o.tickets.lockTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := o.tickets.messages.SetSentiment(ctx, inbound.ID, reply.Sentiment); err != nil {
		return nil, err
	}
	score := reply.Sentiment
	inbound.SentimentScore = &score

	ticket, err := o.tickets.load(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	answer, err := o.tickets.appendLocked(ctx, ticket, domain.RoleAssistant, responder.FormatReply(ticket.SourceChannel, reply.Text))
	if err != nil {
		return nil, err
	}

	result := &ExchangeResult{Ticket: ticket, Inbound: inbound, Reply: answer, Sentiment: reply.Sentiment}
	decision := o.policy.EvaluateMessage(inbound)
	if decision.Escalate {
		result.Escalated = true
		result.EscalationReason = decision.Reason
		if _, err := o.tickets.escalateLocked(ctx, ticket, domain.ActorSystem, decision.Reason); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (o *ReplyOrchestrator) responderFailed(ctx context.Context, ticket *domain.Ticket, inbound *domain.TicketMessage, cause error) error {
	o.logger.Warn("responder failed",
		zap.String("ticket_id", ticket.ID),
		zap.String("channel", string(ticket.SourceChannel)),
		zap.String("message_id", inbound.ID),
		zap.Error(cause))
	o.publishEvent(ctx, events.Event{
		Type:     events.EventResponderFailed,
		TicketID: ticket.ID,
		Actor:    domain.ActorSystem,
		Payload: events.ResponderFailedPayload{
			Channel:   ticket.SourceChannel,
			MessageID: inbound.ID,
			Error:     cause.Error(),
		},
	})
	return apperrors.NewDependencyError("ai responder", cause, map[string]any{
		"ticket_id":  ticket.ID,
		"message_id": inbound.ID,
	})
}

func (o *ReplyOrchestrator) publishEvent(ctx context.Context, event events.Event) {
	publishEvent(ctx, o.dispatcher, o.logger, o.now, event)
}
