package channel

import (
	"strings"

	"github.com/spec-kit/support-desk/internal/domain"
)

// WebFormSubmission is the payload posted by the support form.
type WebFormSubmission struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Subject  string `json:"subject"`
	Category string `json:"category"`
	Priority string `json:"priority"`
	Message  string `json:"message"`
}

// WebForm normalizes support form submissions. Every submission opens a new ticket.
type WebForm struct{}

func (WebForm) Channel() domain.Channel { return domain.ChannelWebForm }

func (WebForm) Threaded() bool { return false }

func (w WebForm) Normalize(raw []byte) (*domain.Intake, error) {
	var sub WebFormSubmission
	if err := decode(raw, &sub); err != nil {
		return nil, err
	}
	return w.NormalizeSubmission(sub)
}

// NormalizeSubmission validates an already decoded form.
func (WebForm) NormalizeSubmission(sub WebFormSubmission) (*domain.Intake, error) {
	name, err := required("name", sub.Name)
	if err != nil {
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
	priority, err := priorityOrDefault(sub.Priority)
	if err != nil {
		return nil, err
	}
	category := strings.TrimSpace(sub.Category)
	if category == "" {
		category = categoryGeneral
	}

	return &domain.Intake{
		Channel:       domain.ChannelWebForm,
		CustomerKey:   email,
		CustomerName:  name,
		CustomerEmail: email,
		Subject:       subject,
		Category:      category,
		Priority:      priority,
		Body:          body,
	}, nil
}
