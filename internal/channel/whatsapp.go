package channel

import (
	"strings"

	"github.com/spec-kit/support-desk/internal/domain"
)

// WhatsAppSubmission is a simulated inbound chat message.
type WhatsAppSubmission struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// WhatsApp normalizes simulated chat submissions. The phone number is the contact key.
type WhatsApp struct{}

func (WhatsApp) Channel() domain.Channel { return domain.ChannelWhatsApp }

func (WhatsApp) Threaded() bool { return true }

func (w WhatsApp) Normalize(raw []byte) (*domain.Intake, error) {
	var sub WhatsAppSubmission
	if err := decode(raw, &sub); err != nil {
		return nil, err
	}
	return w.NormalizeSubmission(sub, "")
}

// NormalizeSubmission validates a decoded chat message. externalID is the provider message id, if any.
func (WhatsApp) NormalizeSubmission(sub WhatsAppSubmission, externalID string) (*domain.Intake, error) {
	phone, err := requiredPhone(sub.Phone)
	if err != nil {
		return nil, err
	}
	body, err := required("message", sub.Message)
	if err != nil {
		return nil, err
	}

	return &domain.Intake{
		Channel:       domain.ChannelWhatsApp,
		CustomerKey:   phone,
		CustomerName:  strings.TrimSpace(sub.Name),
		CustomerPhone: phone,
		Subject:       deriveSubject(body),
		Category:      categoryChatInquiry,
		Priority:      domain.TicketPriorityMedium,
		Body:          body,
		ExternalID:    externalID,
	}, nil
}
