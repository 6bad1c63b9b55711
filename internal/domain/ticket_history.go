package domain

import "time"

// TicketChangeType captures what changed in a history entry.
type TicketChangeType string

const (
	ChangeTypeStatus   TicketChangeType = "status_change"
	ChangeTypePriority TicketChangeType = "priority_change"
)

// ActorType identifies who caused a change.
type ActorType string

const (
	ActorSystem   ActorType = "system"
	ActorOperator ActorType = "operator"
	ActorCustomer ActorType = "customer"
)

// TicketHistory is an immutable audit trail entry.
type TicketHistory struct {
	ID         string
	TicketID   string
	Actor      ActorType
	ChangeType TicketChangeType
	OldValue   string
	NewValue   string
	Comment    string
	CreatedAt  time.Time
}
