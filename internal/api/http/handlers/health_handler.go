package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/api/dto"
	"github.com/spec-kit/support-desk/internal/persistence"
	"github.com/spec-kit/support-desk/internal/repository"
)

// HealthHandler serves liveness and readiness checks.
type HealthHandler struct {
	serviceName string
	version     string
	database    repository.Pinger
	redis       *persistence.Redis
	now         func() time.Time
}

// NewHealthHandler returns a new handler instance. A disabled redis is not pinged.
func NewHealthHandler(serviceName, version string, database repository.Pinger, redis *persistence.Redis) *HealthHandler {
	return &HealthHandler{
		serviceName: serviceName,
		version:     version,
		database:    database,
		redis:       redis,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Health GET /health reports channel connectivity.
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	resp := dto.HealthResponse{
		Status: "healthy",
		Channels: map[string]string{
			"database": dto.ChannelConnected,
			"gmail":    dto.ChannelConnected,
			"whatsapp": dto.ChannelConnected,
			"web_form": dto.ChannelActive,
		},
		Timestamp: h.now(),
	}
	if err := h.database.Ping(ctx); err != nil {
		resp.Channels["database"] = dto.ChannelOffline
		resp.Status = "degraded"
	}
	switch status, _ := h.redis.Status(ctx); status {
	case persistence.RedisHealthy:
		resp.Channels["redis"] = dto.ChannelHealthy
	case persistence.RedisOffline:
		resp.Channels["redis"] = dto.ChannelOffline
		resp.Status = "degraded"
	}
	return c.JSON(resp)
}

// Live reports service liveness.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": h.serviceName,
		"version": h.version,
	})
}

// Ready reports service readiness by checking dependencies.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	depStatus := fiber.Map{}
	ready := true

	if err := h.database.Ping(ctx); err != nil {
		depStatus["database"] = err.Error()
		ready = false
	} else {
		depStatus["database"] = "ok"
	}

	switch status, err := h.redis.Status(ctx); status {
	case persistence.RedisHealthy:
		depStatus["redis"] = "ok"
	case persistence.RedisOffline:
		depStatus["redis"] = err.Error()
		ready = false
	}

	if ready {
		return c.JSON(fiber.Map{
			"status":       "ready",
			"dependencies": depStatus,
		})
	}

	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "DEPENDENCY_UNAVAILABLE",
			"message": "one or more dependencies unavailable",
			"details": depStatus,
		},
	})
}
