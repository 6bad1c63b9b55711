package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

func TestCreateStartsOpenWithOneCustomerMessage(t *testing.T) {
	h := newHarness(t)
	ticket := h.openTicket(t, webFormIntake("My export is stuck"))

	got, err := h.tickets.Get(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusOpen, got.Status)
	assert.Regexp(t, `^TCK-[0-9A-F]{8}$`, got.Reference)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, domain.RoleCustomer, got.Messages[0].Role)
	assert.Equal(t, "My export is stuck", got.Messages[0].Content)
	assert.Equal(t, 1, h.events.count(events.EventTicketCreated))
}

func TestResolveIsIdempotent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ticket := h.openTicket(t, webFormIntake("hi"))

	first, err := h.tickets.Resolve(ctx, ticket.ID, "")
	require.NoError(t, err)
	require.NotNil(t, first.ResolvedAt)

	second, err := h.tickets.Resolve(ctx, ticket.ID, "")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusResolved, second.Status)
	assert.Equal(t, *first.ResolvedAt, *second.ResolvedAt)

	history, err := h.tickets.History(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
	assert.Equal(t, 1, h.events.count(events.EventTicketStatusChanged))
}

func TestCustomerMessageReopensResolvedTicket(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ticket := h.openTicket(t, webFormIntake("hi"))
	_, err := h.tickets.Resolve(ctx, ticket.ID, "")
	require.NoError(t, err)

	_, err = h.tickets.Append(ctx, ticket.ID, domain.RoleAssistant, "Glad to help")
	require.NoError(t, err)
	got, _ := h.tickets.Get(ctx, ticket.ID)
	assert.Equal(t, domain.TicketStatusResolved, got.Status)

	_, err = h.tickets.Append(ctx, ticket.ID, domain.RoleCustomer, "Still broken")
	require.NoError(t, err)
	got, _ = h.tickets.Get(ctx, ticket.ID)
	assert.Equal(t, domain.TicketStatusOpen, got.Status)
	assert.Nil(t, got.ResolvedAt)
	assert.Len(t, got.Messages, 3)

	history, _ := h.tickets.History(ctx, ticket.ID)
	require.Len(t, history, 2)
	assert.Equal(t, domain.ActorCustomer, history[1].Actor)
	assert.Equal(t, "open", history[1].NewValue)
}

func TestEscalationIsMonotonic(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ticket := h.openTicket(t, webFormIntake("hi"))

	escalated, err := h.tickets.Escalate(ctx, ticket.ID, "customer asked")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusInProgress, escalated.Status)
	assert.Equal(t, domain.TicketPriorityHigh, escalated.Priority)

	again, err := h.tickets.Escalate(ctx, ticket.ID, "")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusInProgress, again.Status)

	_, err = h.tickets.Append(ctx, ticket.ID, domain.RoleCustomer, "any news?")
	require.NoError(t, err)
	got, _ := h.tickets.Get(ctx, ticket.ID)
	assert.Equal(t, domain.TicketStatusInProgress, got.Status)

	history, _ := h.tickets.History(ctx, ticket.ID)
	assert.Len(t, history, 2)
}

func TestEscalateKeepsUrgentAndIgnoresResolved(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	intake := webFormIntake("down")
	intake.Priority = domain.TicketPriorityUrgent
	urgent := h.openTicket(t, intake)
	got, err := h.tickets.Escalate(ctx, urgent.ID, "")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketPriorityUrgent, got.Priority)

	resolved := h.openTicket(t, webFormIntake("x"))
	_, err = h.tickets.Resolve(ctx, resolved.ID, "")
	require.NoError(t, err)
	got, err = h.tickets.Escalate(ctx, resolved.ID, "")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusResolved, got.Status)
	assert.Equal(t, domain.TicketPriorityLow, got.Priority)
}

func TestUnknownTicketIsNotFound(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.tickets.Escalate(ctx, "nope", "")
	assert.True(t, apperrors.IsNotFound(err))
	_, err = h.tickets.Resolve(ctx, "nope", "")
	assert.True(t, apperrors.IsNotFound(err))
	_, err = h.tickets.Get(ctx, "nope")
	assert.True(t, apperrors.IsNotFound(err))
	_, err = h.tickets.History(ctx, "nope")
	assert.True(t, apperrors.IsNotFound(err))
	_, err = h.tickets.Append(ctx, "nope", domain.RoleCustomer, "x")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestConcurrentAppendsSerialize(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ticket := h.openTicket(t, webFormIntake("first"))

	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := h.tickets.Append(ctx, ticket.ID, domain.RoleCustomer, fmt.Sprintf("msg %d", i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, err := h.tickets.Get(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Len(t, got.Messages, 31)
	for i := 1; i < len(got.Messages); i++ {
		assert.False(t, got.Messages[i].CreatedAt.Before(got.Messages[i-1].CreatedAt))
	}
}

func TestListPagination(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		h.openTicket(t, webFormIntake("x"))
	}
	h.openTicket(t, gmailIntake("y"))

	page, err := h.tickets.List(ctx, TicketFilter{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 6, page.Total)
	assert.Len(t, page.Tickets, 2)
	assert.Equal(t, 2, page.Page)

	gmail, err := h.tickets.List(ctx, TicketFilter{Channels: []domain.Channel{domain.ChannelGmail}, Limit: 500})
	require.NoError(t, err)
	assert.Equal(t, 1, gmail.Total)
	assert.Equal(t, 100, gmail.Limit)
}
