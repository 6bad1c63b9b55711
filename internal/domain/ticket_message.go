package domain

import "time"

// MessageRole indicates who authored a message.
type MessageRole string

const (
	RoleCustomer  MessageRole = "customer"
	RoleAssistant MessageRole = "assistant"
)

// Valid reports whether r is a known role.
func (r MessageRole) Valid() bool {
	return r == RoleCustomer || r == RoleAssistant
}

// TicketMessage captures one entry of a ticket thread. Messages are append-only.
type TicketMessage struct {
	ID             string
	TicketID       string
	Role           MessageRole
	Content        string
	SentimentScore *float64
	CreatedAt      time.Time
}
