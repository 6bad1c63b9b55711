package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusResolved   TicketStatus = "resolved"
)

// TicketStatuses lists every status in lifecycle order.
var TicketStatuses = []TicketStatus{TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved}

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
	for _, candidate := range TicketStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
	TicketPriorityUrgent TicketPriority = "urgent"
)

// TicketPriorities lists priorities from least to most urgent.
var TicketPriorities = []TicketPriority{TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityUrgent}

// Valid reports whether p is a known priority.
func (p TicketPriority) Valid() bool {
	return p.rank() >= 0
}

// AtLeast returns p, raised to floor when p is less urgent.
func (p TicketPriority) AtLeast(floor TicketPriority) TicketPriority {
	if p.rank() < floor.rank() {
		return floor
	}
	return p
}

func (p TicketPriority) rank() int {
	for i, candidate := range TicketPriorities {
		if candidate == p {
			return i
		}
	}
	return -1
}

// LifecycleEvent is an input to the ticket state machine.
type LifecycleEvent string

const (
	EventEscalate        LifecycleEvent = "escalate"
	EventResolve         LifecycleEvent = "resolve"
	EventCustomerMessage LifecycleEvent = "customer_message"
)

// Pairs missing from the table leave the status unchanged.
var lifecycle = map[TicketStatus]map[LifecycleEvent]TicketStatus{
	TicketStatusOpen: {
		EventEscalate: TicketStatusInProgress,
		EventResolve:  TicketStatusResolved,
	},
	TicketStatusInProgress: {
		EventEscalate: TicketStatusInProgress,
		EventResolve:  TicketStatusResolved,
	},
	TicketStatusResolved: {
		EventResolve:         TicketStatusResolved,
		EventCustomerMessage: TicketStatusOpen,
	},
}

// NextStatus returns the status reached from current when event occurs.
func NextStatus(current TicketStatus, event LifecycleEvent) TicketStatus {
	if next, ok := lifecycle[current][event]; ok {
		return next
	}
	return current
}

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID            string
	Reference     string
	CustomerID    string
	SourceChannel Channel
	Subject       string
	Category      string
	Status        TicketStatus
	Priority      TicketPriority
	Messages      []TicketMessage
	CreatedAt     time.Time
	UpdatedAt     time.Time
	ResolvedAt    *time.Time
}

// Apply runs event through the state machine and reports whether the status changed.
func (t *Ticket) Apply(event LifecycleEvent, at time.Time) bool {
	next := NextStatus(t.Status, event)
	if next == t.Status {
		return false
	}
	t.Status = next
	switch next {
	case TicketStatusResolved:
		t.ResolvedAt = &at
	case TicketStatusOpen:
		t.ResolvedAt = nil
	}
	t.UpdatedAt = at
	return true
}

// LastCustomerMessage returns the most recent customer-authored message, if any.
func (t *Ticket) LastCustomerMessage() *TicketMessage {
	for i := len(t.Messages) - 1; i >= 0; i-- {
		if t.Messages[i].Role == RoleCustomer {
			return &t.Messages[i]
		}
	}
	return nil
}
