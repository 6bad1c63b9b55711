package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/api/dto"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/service"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// ListTickets GET /api/tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	filter, err := parseTicketQuery(c)
	if err != nil {
		return err
	}
	page, err := h.service.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(page.Tickets))
	for i := range page.Tickets {
		items = append(items, dto.NewTicketSummary(&page.Tickets[i]))
	}
	return c.JSON(dto.TicketListResponse{Data: items, Total: page.Total, Page: page.Page, Limit: page.Limit})
}

// GetTicket GET /api/tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	ticket, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketDetail(ticket))
}

// History GET /api/tickets/:id/history.
func (h *TicketsHandler) History(c *fiber.Ctx) error {
	entries, err := h.service.History(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketHistory(entries)})
}

// Escalate POST /api/tickets/:id/escalate.
func (h *TicketsHandler) Escalate(c *fiber.Ctx) error {
	req, err := parseAction(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.Escalate(c.UserContext(), c.Params("id"), req.Comment)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketDetail(ticket))
}

// Resolve POST /api/tickets/:id/resolve.
func (h *TicketsHandler) Resolve(c *fiber.Ctx) error {
	req, err := parseAction(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.Resolve(c.UserContext(), c.Params("id"), req.Comment)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketDetail(ticket))
}

// parseAction accepts an empty body.
func parseAction(c *fiber.Ctx) (dto.TicketActionRequest, error) {
	var req dto.TicketActionRequest
	if len(c.Body()) == 0 {
		return req, nil
	}
	if err := c.BodyParser(&req); err != nil {
		return req, apperrors.NewFieldError("body", "must be a valid JSON object")
	}
	return req, nil
}

func parseTicketQuery(c *fiber.Ctx) (service.TicketFilter, error) {
	filter := service.TicketFilter{}
	if customerID := strings.TrimSpace(c.Query("customer_id")); customerID != "" {
		filter.CustomerID = &customerID
	}
	for _, part := range splitList(c.Query("status")) {
		status := domain.TicketStatus(part)
		if !status.Valid() {
			return filter, apperrors.NewFieldError("status", "must be one of open, in_progress, resolved")
		}
		filter.Statuses = append(filter.Statuses, status)
	}
	for _, part := range splitList(c.Query("channel")) {
		ch := domain.Channel(part)
		if !ch.Valid() {
			return filter, apperrors.NewFieldError("channel", "must be one of web_form, gmail, whatsapp")
		}
		filter.Channels = append(filter.Channels, ch)
	}
	for _, part := range splitList(c.Query("priority")) {
		priority := domain.TicketPriority(part)
		if !priority.Valid() {
			return filter, apperrors.NewFieldError("priority", "must be one of low, medium, high, urgent")
		}
		filter.Priorities = append(filter.Priorities, priority)
	}
	var err error
	if filter.Page, err = parsePositive(c.Query("page"), "page", 1); err != nil {
		return filter, err
	}
	if filter.Limit, err = parsePositive(c.Query("limit"), "limit", 20); err != nil {
		return filter, err
	}
	return filter, nil
}

func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parsePositive(val, field string, def int) (int, error) {
	if val == "" {
		return def, nil
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return 0, apperrors.NewFieldError(field, "must be a positive integer")
	}
	return parsed, nil
}
