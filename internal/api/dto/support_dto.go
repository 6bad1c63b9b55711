package dto

import (
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/service"
)

// SubmitResponse is returned by every channel submit endpoint.
type SubmitResponse struct {
	TicketID         string                `json:"ticket_id"`
	Reference        string                `json:"reference"`
	CustomerID       string                `json:"customer_id"`
	Channel          domain.Channel        `json:"channel"`
	Status           domain.TicketStatus   `json:"status"`
	Priority         domain.TicketPriority `json:"priority"`
	NewTicket        bool                  `json:"new_ticket"`
	Reply            string                `json:"reply"`
	Sentiment        float64               `json:"sentiment"`
	Escalated        bool                  `json:"escalated"`
	EscalationReason string                `json:"escalation_reason,omitempty"`
}

// NewSubmitResponse maps an exchange result.
func NewSubmitResponse(result *service.ExchangeResult) SubmitResponse {
	resp := SubmitResponse{
		TicketID:         result.Ticket.ID,
		Reference:        result.Ticket.Reference,
		CustomerID:       result.Ticket.CustomerID,
		Channel:          result.Ticket.SourceChannel,
		Status:           result.Ticket.Status,
		Priority:         result.Ticket.Priority,
		NewTicket:        result.Created,
		Sentiment:        result.Sentiment,
		Escalated:        result.Escalated,
		EscalationReason: result.EscalationReason,
	}
	if result.Reply != nil {
		resp.Reply = result.Reply.Content
	}
	return resp
}
