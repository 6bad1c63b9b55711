package analytics

import (
	"context"
	"sort"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
)

// ListConversations returns every ticket thread, newest first, from one snapshot.
func (a *Aggregator) ListConversations(ctx context.Context) ([]domain.Conversation, error) {
	snap, err := a.source.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return Conversations(snap), nil
}

// Conversations joins each ticket with its customer's display name and the mean
// sentiment of its scored messages. Threads without a scored message have no sentiment.
func Conversations(snap *repository.Snapshot) []domain.Conversation {
	if snap == nil {
		return []domain.Conversation{}
	}
	names := make(map[string]string, len(snap.Customers))
	for i := range snap.Customers {
		names[snap.Customers[i].ID] = snap.Customers[i].DisplayName()
	}
	byTicket := snap.MessagesByTicket()

	out := make([]domain.Conversation, 0, len(snap.Tickets))
	for _, t := range snap.Tickets {
		conv := domain.Conversation{
			TicketID:       t.ID,
			Reference:      t.Reference,
			CustomerID:     t.CustomerID,
			CustomerName:   names[t.CustomerID],
			Channel:        t.SourceChannel,
			Status:         t.Status,
			Priority:       t.Priority,
			StartedAt:      t.CreatedAt,
			LastActivityAt: t.UpdatedAt,
		}
		if conv.CustomerName == "" {
			conv.CustomerName = domain.AnonymousCustomer
		}
		var sum float64
		var scored int
		for _, m := range byTicket[t.ID] {
			conv.MessageCount++
			if m.SentimentScore != nil {
				sum += *m.SentimentScore
				scored++
			}
		}
		if scored > 0 {
			avg := sum / float64(scored)
			conv.SentimentScore = &avg
		}
		out = append(out, conv)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out
}
