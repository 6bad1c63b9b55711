package channel

import (
	"strings"

	"github.com/spec-kit/support-desk/internal/domain"
)

// GmailSubmission is a simulated inbound email.
type GmailSubmission struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// Gmail normalizes simulated email submissions.
type Gmail struct{}

func (Gmail) Channel() domain.Channel { return domain.ChannelGmail }

func (Gmail) Threaded() bool { return true }

func (Gmail) Normalize(raw []byte) (*domain.Intake, error) {
	var sub GmailSubmission
	if err := decode(raw, &sub); err != nil {
		return nil, err
	}
	email, err := requiredEmail(sub.Email)
	if err != nil {
		return nil, err
	}
	subject, err := required("subject", sub.Subject)
	if err != nil {
		return nil, err
	}
	body, err := required("message", sub.Message)
	if err != nil {
		return nil, err
	}

	return &domain.Intake{
		Channel:       domain.ChannelGmail,
		CustomerKey:   email,
		CustomerName:  strings.TrimSpace(sub.Name),
		CustomerEmail: email,
		Subject:       subject,
		Category:      categoryEmailInquiry,
		Priority:      domain.TicketPriorityMedium,
		Body:          body,
	}, nil
}
