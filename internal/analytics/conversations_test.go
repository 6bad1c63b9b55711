package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
)

func TestConversationsJoinCustomerAndSentiment(t *testing.T) {
	base := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	snap := &repository.Snapshot{
		Customers: []domain.Customer{
			{ID: "c1", Name: "Jane Doe", Email: "jane@example.com"},
			{ID: "c2", Phone: "+15550100", Name: domain.AnonymousCustomer},
		},
		Tickets: []domain.Ticket{
			{ID: "t1", CustomerID: "c1", SourceChannel: domain.ChannelGmail, Status: domain.TicketStatusOpen, CreatedAt: base},
			{ID: "t2", CustomerID: "c2", SourceChannel: domain.ChannelWhatsApp, Status: domain.TicketStatusInProgress, CreatedAt: base.Add(time.Hour)},
			{ID: "t3", CustomerID: "gone", SourceChannel: domain.ChannelWebForm, Status: domain.TicketStatusResolved, CreatedAt: base.Add(-time.Hour)},
		},
		Messages: []domain.TicketMessage{
			{TicketID: "t1", Role: domain.RoleCustomer, SentimentScore: score(0.2)},
			{TicketID: "t1", Role: domain.RoleAssistant},
			{TicketID: "t1", Role: domain.RoleCustomer, SentimentScore: score(0.6)},
			{TicketID: "t2", Role: domain.RoleCustomer},
		},
	}

	convs := Conversations(snap)
	require.Len(t, convs, 3)
	assert.Equal(t, []string{"t2", "t1", "t3"}, []string{convs[0].TicketID, convs[1].TicketID, convs[2].TicketID})

	assert.Equal(t, domain.AnonymousCustomer, convs[0].CustomerName)
	assert.Nil(t, convs[0].SentimentScore)
	assert.Equal(t, 1, convs[0].MessageCount)

	assert.Equal(t, "Jane Doe", convs[1].CustomerName)
	require.NotNil(t, convs[1].SentimentScore)
	assert.InDelta(t, 0.4, *convs[1].SentimentScore, 1e-9)
	assert.Equal(t, 3, convs[1].MessageCount)

	assert.Equal(t, domain.AnonymousCustomer, convs[2].CustomerName)
	assert.Zero(t, convs[2].MessageCount)
}

func TestListConversationsPropagatesSnapshotError(t *testing.T) {
	agg := NewAggregator(snapshotFunc(func(context.Context) (*repository.Snapshot, error) {
		return nil, errors.New("snapshot failed")
	}))
	_, err := agg.ListConversations(context.Background())
	assert.EqualError(t, err, "snapshot failed")

	assert.Empty(t, Conversations(nil))
}
