package domain

// Intake is a normalized inbound contact event, ready for ticket creation or append.
type Intake struct {
	Channel       Channel
	CustomerKey   string
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	Subject       string
	Category      string
	Priority      TicketPriority
	Body          string
	ExternalID    string
}
