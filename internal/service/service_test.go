package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/escalation"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/lock"
	"github.com/spec-kit/support-desk/internal/repository/memory"
	"github.com/spec-kit/support-desk/internal/responder"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Millisecond)
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type responderFunc func(ctx context.Context, ticket *domain.Ticket, history []domain.TicketMessage) (*responder.Reply, error)

func (f responderFunc) Respond(ctx context.Context, ticket *domain.Ticket, history []domain.TicketMessage) (*responder.Reply, error) {
	return f(ctx, ticket, history)
}

func fixedReply(score float64) responderFunc {
	return func(context.Context, *domain.Ticket, []domain.TicketMessage) (*responder.Reply, error) {
		return &responder.Reply{Text: "We are on it.", Sentiment: score}, nil
	}
}

type recordedEvents struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordedEvents) handle(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recordedEvents) count(t events.EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Type == t {
			n++
		}
	}
	return n
}

type harness struct {
	store     *memory.Store
	clock     *fakeClock
	customers *CustomerService
	tickets   *TicketService
	events    *recordedEvents
	responder responderFunc
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		store:     memory.NewStore(),
		clock:     &fakeClock{now: time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)},
		events:    &recordedEvents{},
		responder: fixedReply(0.6),
	}
	dispatcher := events.NewInMemoryDispatcher()
	events.SubscribeAll(dispatcher, h.events.handle)

	h.customers = NewCustomerService(CustomerDependencies{
		CustomerRepo: h.store.Customers(),
		Clock:        h.clock.Now,
	})
	h.tickets = NewTicketService(TicketDependencies{
		TicketRepo:  h.store.Tickets(),
		MessageRepo: h.store.Messages(),
		HistoryRepo: h.store.History(),
		Locker:      lock.NewKeyedMutex(),
		Dispatcher:  dispatcher,
		Clock:       h.clock.Now,
	})
	return h
}

func (h *harness) orchestrator() *ReplyOrchestrator {
	return NewReplyOrchestrator(OrchestratorDependencies{
		Customers: h.customers,
		Tickets:   h.tickets,
		Responder: responderFunc(func(ctx context.Context, ticket *domain.Ticket, history []domain.TicketMessage) (*responder.Reply, error) {
			return h.responder(ctx, ticket, history)
		}),
		Policy:       escalation.NewPolicy(0.3, []string{"legal", "sue", "lawyer", "refund"}),
		Dispatcher:   h.tickets.dispatcher,
		ThreadWindow: 24 * time.Hour,
		Clock:        h.clock.Now,
	})
}

func (h *harness) openTicket(t *testing.T, intake *domain.Intake) *domain.Ticket {
	t.Helper()
	customer, err := h.customers.Resolve(context.Background(), intake.Channel, intake.CustomerKey, intake.CustomerName)
	require.NoError(t, err)
	ticket, err := h.tickets.Create(context.Background(), customer, intake)
	require.NoError(t, err)
	return ticket
}

func gmailIntake(body string) *domain.Intake {
	return &domain.Intake{
		Channel:       domain.ChannelGmail,
		CustomerKey:   "jane@example.com",
		CustomerEmail: "jane@example.com",
		Subject:       "Billing",
		Category:      "email_inquiry",
		Priority:      domain.TicketPriorityMedium,
		Body:          body,
	}
}

func webFormIntake(body string) *domain.Intake {
	return &domain.Intake{
		Channel:       domain.ChannelWebForm,
		CustomerKey:   "sam@example.com",
		CustomerName:  "Sam",
		CustomerEmail: "sam@example.com",
		Subject:       "Help",
		Category:      "general",
		Priority:      domain.TicketPriorityLow,
		Body:          body,
	}
}
