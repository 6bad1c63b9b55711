package dto

import (
	"time"

	"github.com/spec-kit/support-desk/internal/domain"
)

// ConversationResponse is one row of the dashboard conversation list.
type ConversationResponse struct {
	ID             string                `json:"id"`
	Reference      string                `json:"reference"`
	CustomerID     string                `json:"customer_id"`
	CustomerName   string                `json:"customer_name"`
	InitialChannel domain.Channel        `json:"initial_channel"`
	Status         domain.TicketStatus   `json:"status"`
	Priority       domain.TicketPriority `json:"priority"`
	SentimentScore *float64              `json:"sentiment_score"`
	MessageCount   int                   `json:"message_count"`
	CreatedAt      time.Time             `json:"created_at"`
	LastActivityAt time.Time             `json:"last_activity_at"`
}

func NewConversations(convs []domain.Conversation) []ConversationResponse {
	out := make([]ConversationResponse, 0, len(convs))
	for _, c := range convs {
		out = append(out, ConversationResponse{
			ID:             c.TicketID,
			Reference:      c.Reference,
			CustomerID:     c.CustomerID,
			CustomerName:   c.CustomerName,
			InitialChannel: c.Channel,
			Status:         c.Status,
			Priority:       c.Priority,
			SentimentScore: c.SentimentScore,
			MessageCount:   c.MessageCount,
			CreatedAt:      c.StartedAt,
			LastActivityAt: c.LastActivityAt,
		})
	}
	return out
}
