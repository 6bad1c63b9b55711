package analytics

import (
	"context"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
)

// Aggregator computes the metrics overview from a consistent store snapshot.
type Aggregator struct {
	source repository.Snapshotter
}

// NewAggregator builds an aggregator reading from source.
func NewAggregator(source repository.Snapshotter) *Aggregator {
	return &Aggregator{source: source}
}

// ComputeOverview takes one snapshot and derives every field from it.
func (a *Aggregator) ComputeOverview(ctx context.Context) (*domain.MetricsSnapshot, error) {
	snap, err := a.source.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	overview := Compute(snap)
	return &overview, nil
}

// Compute derives the metrics overview from snap. It never divides by zero.
func Compute(snap *repository.Snapshot) domain.MetricsSnapshot {
	out := domain.MetricsSnapshot{
		TicketsByChannel: make(map[domain.Channel]int, len(domain.Channels)),
		TicketsByStatus:  make(map[domain.TicketStatus]int, len(domain.TicketStatuses)),
	}
	for _, c := range domain.Channels {
		out.TicketsByChannel[c] = 0
	}
	for _, s := range domain.TicketStatuses {
		out.TicketsByStatus[s] = 0
	}
	if snap == nil {
		return out
	}

	for _, t := range snap.Tickets {
		out.TotalTickets++
		out.TicketsByChannel[t.SourceChannel]++
		out.TicketsByStatus[t.Status]++
		switch t.Status {
		case domain.TicketStatusOpen:
			out.OpenTickets++
		case domain.TicketStatusInProgress:
			out.Escalations++
		}
	}
	if out.TotalTickets == 0 {
		return out
	}

	var (
		sentimentSum   float64
		sentimentCount int
		responseSum    float64
		responseCount  int
	)
	for _, msgs := range snap.MessagesByTicket() {
		var pending []domain.TicketMessage
		for _, m := range msgs {
			if m.SentimentScore != nil {
				sentimentSum += *m.SentimentScore
				sentimentCount++
			}
			switch m.Role {
			case domain.RoleCustomer:
				pending = append(pending, m)
			case domain.RoleAssistant:
				for _, c := range pending {
					responseSum += m.CreatedAt.Sub(c.CreatedAt).Seconds()
					responseCount++
				}
				pending = pending[:0]
			}
		}
	}
	if sentimentCount > 0 {
		out.AvgSentiment = sentimentSum / float64(sentimentCount)
	}
	if responseCount > 0 {
		out.AvgResponseTime = responseSum / float64(responseCount)
	}
	return out
}
