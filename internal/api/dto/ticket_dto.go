package dto

import (
	"time"

	"github.com/spec-kit/support-desk/internal/domain"
)

// TicketActionRequest is the optional body of escalate and resolve.
type TicketActionRequest struct {
	Comment string `json:"comment"`
}

// TicketSummary response.
type TicketSummary struct {
	ID            string                `json:"id"`
	Reference     string                `json:"reference"`
	CustomerID    string                `json:"customer_id"`
	SourceChannel domain.Channel        `json:"source_channel"`
	Subject       string                `json:"subject"`
	Category      string                `json:"category"`
	Status        domain.TicketStatus   `json:"status"`
	Priority      domain.TicketPriority `json:"priority"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
	ResolvedAt    *time.Time            `json:"resolved_at"`
}

// TicketListResponse is one page of summaries.
type TicketListResponse struct {
	Data  []TicketSummary `json:"data"`
	Total int             `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

// TicketDetailResponse provides full ticket info.
type TicketDetailResponse struct {
	TicketSummary
	Messages []TicketMessageResponse `json:"messages"`
}

// TicketMessageResponse represents thread message.
type TicketMessageResponse struct {
	ID             string             `json:"id"`
	Role           domain.MessageRole `json:"role"`
	Content        string             `json:"content"`
	SentimentScore *float64           `json:"sentiment_score"`
	CreatedAt      time.Time          `json:"created_at"`
}

// TicketHistoryResponse is one audit trail entry.
type TicketHistoryResponse struct {
	ID         string                  `json:"id"`
	Actor      domain.ActorType        `json:"actor"`
	ChangeType domain.TicketChangeType `json:"change_type"`
	OldValue   string                  `json:"old_value"`
	NewValue   string                  `json:"new_value"`
	Comment    string                  `json:"comment,omitempty"`
	CreatedAt  time.Time               `json:"created_at"`
}

// NewTicketSummary maps a ticket to its summary.
func NewTicketSummary(ticket *domain.Ticket) TicketSummary {
	return TicketSummary{
		ID:            ticket.ID,
		Reference:     ticket.Reference,
		CustomerID:    ticket.CustomerID,
		SourceChannel: ticket.SourceChannel,
		Subject:       ticket.Subject,
		Category:      ticket.Category,
		Status:        ticket.Status,
		Priority:      ticket.Priority,
		CreatedAt:     ticket.CreatedAt,
		UpdatedAt:     ticket.UpdatedAt,
		ResolvedAt:    ticket.ResolvedAt,
	}
}

// NewTicketDetail maps a ticket and its messages.
func NewTicketDetail(ticket *domain.Ticket) TicketDetailResponse {
	msgs := make([]TicketMessageResponse, 0, len(ticket.Messages))
	for i := range ticket.Messages {
		msgs = append(msgs, NewTicketMessage(&ticket.Messages[i]))
	}
	return TicketDetailResponse{TicketSummary: NewTicketSummary(ticket), Messages: msgs}
}

func NewTicketMessage(msg *domain.TicketMessage) TicketMessageResponse {
	return TicketMessageResponse{
		ID:             msg.ID,
		Role:           msg.Role,
		Content:        msg.Content,
		SentimentScore: msg.SentimentScore,
		CreatedAt:      msg.CreatedAt,
	}
}

func NewTicketHistory(entries []domain.TicketHistory) []TicketHistoryResponse {
	resp := make([]TicketHistoryResponse, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, TicketHistoryResponse{
			ID:         entry.ID,
			Actor:      entry.Actor,
			ChangeType: entry.ChangeType,
			OldValue:   entry.OldValue,
			NewValue:   entry.NewValue,
			Comment:    entry.Comment,
			CreatedAt:  entry.CreatedAt,
		})
	}
	return resp
}
