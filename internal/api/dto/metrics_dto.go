package dto

import (
	"time"

	"github.com/spec-kit/support-desk/internal/domain"
)

// MetricsOverviewResponse mirrors the dashboard overview.
type MetricsOverviewResponse struct {
	TotalTickets     int                         `json:"total_tickets"`
	OpenTickets      int                         `json:"open_tickets"`
	Escalations      int                         `json:"escalations"`
	AvgResponseTime  float64                     `json:"avg_response_time"`
	AvgSentiment     float64                     `json:"avg_sentiment"`
	TicketsByChannel map[domain.Channel]int      `json:"tickets_by_channel"`
	TicketsByStatus  map[domain.TicketStatus]int `json:"tickets_by_status"`
}

func NewMetricsOverview(m *domain.MetricsSnapshot) MetricsOverviewResponse {
	return MetricsOverviewResponse{
		TotalTickets:     m.TotalTickets,
		OpenTickets:      m.OpenTickets,
		Escalations:      m.Escalations,
		AvgResponseTime:  m.AvgResponseTime,
		AvgSentiment:     m.AvgSentiment,
		TicketsByChannel: m.TicketsByChannel,
		TicketsByStatus:  m.TicketsByStatus,
	}
}

// Channel connectivity values reported by /health.
const (
	ChannelConnected = "connected"
	ChannelActive    = "active"
	ChannelHealthy   = "healthy"
	ChannelOffline   = "offline"
)

// HealthResponse reports channel connectivity.
type HealthResponse struct {
	Status    string            `json:"status"`
	Channels  map[string]string `json:"channels"`
	Timestamp time.Time         `json:"timestamp"`
}
