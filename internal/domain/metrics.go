package domain

import "time"

// MetricsSnapshot is a point-in-time aggregate over the ticket store. It is never persisted.
type MetricsSnapshot struct {
	TotalTickets     int
	OpenTickets      int
	Escalations      int
	AvgResponseTime  float64
	AvgSentiment     float64
	TicketsByChannel map[Channel]int
	TicketsByStatus  map[TicketStatus]int
}

// Conversation summarizes one ticket thread for the dashboard conversation list.
type Conversation struct {
	TicketID       string
	Reference      string
	CustomerID     string
	CustomerName   string
	Channel        Channel
	Status         TicketStatus
	Priority       TicketPriority
	SentimentScore *float64
	MessageCount   int
	StartedAt      time.Time
	LastActivityAt time.Time
}
