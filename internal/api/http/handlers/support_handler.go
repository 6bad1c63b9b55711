package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/api/dto"
	"github.com/spec-kit/support-desk/internal/channel"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/service"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

const emptyTwiML = `<?xml version="1.0" encoding="UTF-8"?><Response></Response>`

// IntakeProcessor runs one normalized intake end to end.
type IntakeProcessor interface {
	Handle(ctx context.Context, intake *domain.Intake) (*service.ExchangeResult, error)
}

// SupportHandler serves the channel intake endpoints.
type SupportHandler struct {
	processor  IntakeProcessor
	twilio     channel.TwilioWebhook
	webhookURL string
	logger     *zap.Logger
}

// NewSupportHandler constructs handler. An empty webhookURL verifies Twilio signatures against the request URL.
func NewSupportHandler(processor IntakeProcessor, twilio channel.TwilioWebhook, webhookURL string, logger *zap.Logger) *SupportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SupportHandler{processor: processor, twilio: twilio, webhookURL: webhookURL, logger: logger}
}

// Submit returns the POST handler for one channel's JSON submissions.
func (h *SupportHandler) Submit(normalizer channel.Normalizer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		intake, err := normalizer.Normalize(c.Body())
		if err != nil {
			return err
		}
		result, err := h.processor.Handle(c.UserContext(), intake)
		if err != nil {
			return err
		}
		status := fiber.StatusOK
		if result.Created {
			status = fiber.StatusCreated
		}
		return c.Status(status).JSON(dto.NewSubmitResponse(result))
	}
}

// WhatsAppWebhook POST /api/webhooks/whatsapp.
// Responder failures are logged rather than returned so Twilio does not redeliver a stored message.
func (h *SupportHandler) WhatsAppWebhook(c *fiber.Ctx) error {
	raw := c.Body()
	if !h.twilio.Verify(h.signedURL(c), raw, c.Get("X-Twilio-Signature")) {
		return apperrors.NewForbidden("invalid twilio signature")
	}
	intake, err := h.twilio.Normalize(raw)
	if err != nil {
		return err
	}
	if _, err := h.processor.Handle(c.UserContext(), intake); err != nil {
		if !apperrors.IsDependency(err) {
			return err
		}
		h.logger.Warn("whatsapp webhook reply skipped",
			zap.String("external_id", intake.ExternalID),
			zap.Error(err))
	}
	c.Set(fiber.HeaderContentType, "application/xml")
	return c.SendString(emptyTwiML)
}

func (h *SupportHandler) signedURL(c *fiber.Ctx) string {
	if h.webhookURL != "" {
		return h.webhookURL
	}
	return c.BaseURL() + c.OriginalURL()
}
