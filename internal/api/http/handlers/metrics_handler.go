package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/api/dto"
	"github.com/spec-kit/support-desk/internal/domain"
)

// OverviewSource computes the metrics overview.
type OverviewSource interface {
	ComputeOverview(ctx context.Context) (*domain.MetricsSnapshot, error)
}

// ConversationSource lists ticket threads for the dashboard.
type ConversationSource interface {
	ListConversations(ctx context.Context) ([]domain.Conversation, error)
}

// DashboardSource is satisfied by the analytics aggregator.
type DashboardSource interface {
	OverviewSource
	ConversationSource
}

// MetricsHandler serves the dashboard overview and conversation list.
type MetricsHandler struct {
	source DashboardSource
}

func NewMetricsHandler(source DashboardSource) *MetricsHandler {
	return &MetricsHandler{source: source}
}

// Overview GET /api/metrics/overview.
func (h *MetricsHandler) Overview(c *fiber.Ctx) error {
	overview, err := h.source.ComputeOverview(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(dto.NewMetricsOverview(overview))
}

// Conversations GET /api/conversations.
func (h *MetricsHandler) Conversations(c *fiber.Ctx) error {
	convs, err := h.source.ListConversations(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewConversations(convs)})
}
