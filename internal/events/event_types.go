package events

import (
	"time"

	"github.com/spec-kit/support-desk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated         EventType = "ticket_created"
	EventTicketMessageAdded    EventType = "ticket_message_added"
	EventTicketStatusChanged   EventType = "ticket_status_changed"
	EventTicketPriorityChanged EventType = "ticket_priority_changed"
	EventExchangeCompleted     EventType = "exchange_completed"
	EventResponderFailed       EventType = "responder_failed"
)

// AllTypes lists every event type.
var AllTypes = []EventType{
	EventTicketCreated,
	EventTicketMessageAdded,
	EventTicketStatusChanged,
	EventTicketPriorityChanged,
	EventExchangeCompleted,
	EventResponderFailed,
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string           `json:"id"`
	Type      EventType        `json:"type"`
	TicketID  string           `json:"ticket_id"`
	Actor     domain.ActorType `json:"actor"`
	Timestamp time.Time        `json:"timestamp"`
	Payload   any              `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Reference  string                `json:"reference"`
	CustomerID string                `json:"customer_id"`
	Channel    domain.Channel        `json:"channel"`
	Category   string                `json:"category"`
	Priority   domain.TicketPriority `json:"priority"`
	Subject    string                `json:"subject"`
}

// TicketMessageAddedPayload payload.
type TicketMessageAddedPayload struct {
	MessageID   string             `json:"message_id"`
	Role        domain.MessageRole `json:"role"`
	BodyPreview string             `json:"body_preview"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	Comment   string              `json:"comment,omitempty"`
}

// TicketPriorityChangedPayload payload.
type TicketPriorityChangedPayload struct {
	OldPriority domain.TicketPriority `json:"old_priority"`
	NewPriority domain.TicketPriority `json:"new_priority"`
}

// ExchangeCompletedPayload describes one answered inbound message.
type ExchangeCompletedPayload struct {
	Channel          domain.Channel `json:"channel"`
	MessageID        string         `json:"message_id"`
	LatencyMillis    int64          `json:"latency_ms"`
	Sentiment        float64        `json:"sentiment"`
	Escalated        bool           `json:"escalated"`
	EscalationReason string         `json:"escalation_reason,omitempty"`
}

// ResponderFailedPayload describes an inbound message left without a reply.
type ResponderFailedPayload struct {
	Channel   domain.Channel `json:"channel"`
	MessageID string         `json:"message_id"`
	Error     string         `json:"error"`
}
