package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
)

func newTicket(customerID string, channel domain.Channel, updated time.Time) *domain.Ticket {
	return &domain.Ticket{
		CustomerID:    customerID,
		SourceChannel: channel,
		Subject:       "subject",
		Status:        domain.TicketStatusOpen,
		Priority:      domain.TicketPriorityMedium,
		CreatedAt:     updated,
		UpdatedAt:     updated,
	}
}

func TestGetOrCreateIsIdempotentUnderConcurrency(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ids     = map[string]struct{}{}
		created int
	)
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, isNew, err := store.Customers().GetOrCreate(ctx, &domain.Customer{Name: "A", Email: "a@b.co"})
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			ids[c.ID] = struct{}{}
			if isNew {
				created++
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, ids, 1)
	assert.Equal(t, 1, created)
}

func TestGetOrCreateByPhone(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	first, isNew, err := store.Customers().GetOrCreate(ctx, &domain.Customer{Name: "Unknown Customer", Phone: "+15550100"})
	require.NoError(t, err)
	assert.True(t, isNew)

	again, isNew, err := store.Customers().GetOrCreate(ctx, &domain.Customer{Name: "Sam", Phone: "+15550100"})
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Equal(t, first.ID, again.ID)

	_, _, err = store.Customers().GetOrCreate(ctx, &domain.Customer{Name: "x"})
	assert.Error(t, err)
}

func TestTicketCreateStoresFirstMessage(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	ticket := newTicket("c1", domain.ChannelGmail, time.Now())
	first := &domain.TicketMessage{Role: domain.RoleCustomer, Content: "hello"}

	require.NoError(t, store.Tickets().Create(ctx, ticket, first))
	require.NotEmpty(t, ticket.ID)
	assert.Equal(t, ticket.ID, first.TicketID)

	thread, err := store.Messages().ListByTicket(ctx, ticket.ID)
	require.NoError(t, err)
	require.Len(t, thread, 1)
	assert.Equal(t, "hello", thread[0].Content)

	_, err = store.Tickets().GetByID(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestMessagesKeepArrivalOrderAndSentiment(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	ticket := newTicket("c1", domain.ChannelWebForm, time.Now())
	first := &domain.TicketMessage{Role: domain.RoleCustomer, Content: "1"}
	require.NoError(t, store.Tickets().Create(ctx, ticket, first))

	for _, content := range []string{"2", "3"} {
		require.NoError(t, store.Messages().Create(ctx, &domain.TicketMessage{TicketID: ticket.ID, Role: domain.RoleAssistant, Content: content}))
	}
	require.NoError(t, store.Messages().SetSentiment(ctx, first.ID, 0.4))
	assert.ErrorIs(t, store.Messages().SetSentiment(ctx, "nope", 0.4), repository.ErrNotFound)
	assert.ErrorIs(t, store.Messages().Create(ctx, &domain.TicketMessage{TicketID: "nope"}), repository.ErrNotFound)

	thread, err := store.Messages().ListByTicket(ctx, ticket.ID)
	require.NoError(t, err)
	require.Len(t, thread, 3)
	assert.Equal(t, []string{"1", "2", "3"}, []string{thread[0].Content, thread[1].Content, thread[2].Content})
	require.NotNil(t, thread[0].SentimentScore)
	assert.Equal(t, 0.4, *thread[0].SentimentScore)

	*thread[0].SentimentScore = 0.9
	again, _ := store.Messages().ListByTicket(ctx, ticket.ID)
	assert.Equal(t, 0.4, *again[0].SentimentScore)
}

func TestFindLatestByCustomer(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	older := newTicket("c1", domain.ChannelGmail, base)
	newer := newTicket("c1", domain.ChannelGmail, base.Add(time.Hour))
	otherChannel := newTicket("c1", domain.ChannelWhatsApp, base.Add(2*time.Hour))
	for _, tk := range []*domain.Ticket{older, newer, otherChannel} {
		require.NoError(t, store.Tickets().Create(ctx, tk, &domain.TicketMessage{Role: domain.RoleCustomer, Content: "x"}))
	}

	latest, err := store.Tickets().FindLatestByCustomer(ctx, "c1", domain.ChannelGmail)
	require.NoError(t, err)
	assert.Equal(t, newer.ID, latest.ID)

	_, err = store.Tickets().FindLatestByCustomer(ctx, "c2", domain.ChannelGmail)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestListWithFilterPaginates(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		tk := newTicket("c1", domain.ChannelWebForm, base.Add(time.Duration(i)*time.Minute))
		if i%2 == 0 {
			tk.Status = domain.TicketStatusResolved
		}
		require.NoError(t, store.Tickets().Create(ctx, tk, &domain.TicketMessage{Role: domain.RoleCustomer, Content: "x"}))
	}

	page, total, err := store.Tickets().ListWithFilter(ctx, repository.TicketFilter{Limit: 2, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, page, 2)
	assert.True(t, page[0].UpdatedAt.After(page[1].UpdatedAt))

	resolved, total, err := store.Tickets().ListWithFilter(ctx, repository.TicketFilter{Statuses: []domain.TicketStatus{domain.TicketStatusResolved}})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, resolved, 3)

	empty, _, err := store.Tickets().ListWithFilter(ctx, repository.TicketFilter{Offset: 50})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSnapshotIsDetached(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	ticket := newTicket("c1", domain.ChannelGmail, time.Now())
	require.NoError(t, store.Tickets().Create(ctx, ticket, &domain.TicketMessage{Role: domain.RoleCustomer, Content: "x"}))

	snap, err := store.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Tickets, 1)
	require.Len(t, snap.MessagesByTicket()[ticket.ID], 1)

	ticket.Status = domain.TicketStatusResolved
	require.NoError(t, store.Tickets().Update(ctx, ticket))
	assert.Equal(t, domain.TicketStatusOpen, snap.Tickets[0].Status)
}
