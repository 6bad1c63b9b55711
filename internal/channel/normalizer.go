package channel

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/spec-kit/support-desk/internal/domain"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

// Normalizer converts a raw channel submission into a canonical intake.
type Normalizer interface {
	Channel() domain.Channel
	// Threaded reports whether follow-up contacts should join the customer's recent ticket.
	Threaded() bool
	Normalize(raw []byte) (*domain.Intake, error)
}

const (
	categoryGeneral      = "general"
	categoryEmailInquiry = "email_inquiry"
	categoryChatInquiry  = "chat_inquiry"

	derivedSubjectLength = 60
)

var (
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s.]+(\.[^@\s.]+)+$`)
	phoneDigits  = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
)

// ForChannel returns the JSON normalizer for c.
func ForChannel(c domain.Channel) (Normalizer, bool) {
	switch c {
	case domain.ChannelWebForm:
		return WebForm{}, true
	case domain.ChannelGmail:
		return Gmail{}, true
	case domain.ChannelWhatsApp:
		return WhatsApp{}, true
	}
	return nil, false
}

func decode(raw []byte, dst any) error {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return apperrors.NewFieldError("body", "is required")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return apperrors.NewFieldError("body", "must be a valid JSON object")
	}
	return nil
}

func required(field, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", apperrors.NewFieldError(field, "is required")
	}
	return value, nil
}

func requiredEmail(value string) (string, error) {
	email, err := required("email", value)
	if err != nil {
		return "", err
	}
	if !emailPattern.MatchString(email) {
		return "", apperrors.NewFieldError("email", "must look like local@domain.tld")
	}
	return strings.ToLower(email), nil
}

// NormalizePhone strips transport prefixes and separators from a phone number.
func NormalizePhone(value string) string {
	value = strings.TrimSpace(value)
	value = strings.TrimPrefix(value, "whatsapp:")
	replacer := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "")
	return replacer.Replace(value)
}

func requiredPhone(value string) (string, error) {
	if _, err := required("phone", value); err != nil {
		return "", err
	}
	phone := NormalizePhone(value)
	if !phoneDigits.MatchString(phone) {
		return "", apperrors.NewFieldError("phone", "must contain 7 to 15 digits")
	}
	return phone, nil
}

func priorityOrDefault(value string) (domain.TicketPriority, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return domain.TicketPriorityMedium, nil
	}
	priority := domain.TicketPriority(value)
	if !priority.Valid() {
		return "", apperrors.NewFieldError("priority", "must be one of low, medium, high, urgent")
	}
	return priority, nil
}

func deriveSubject(body string) string {
	body = strings.Join(strings.Fields(body), " ")
	runes := []rune(body)
	if len(runes) <= derivedSubjectLength {
		return body
	}
	return string(runes[:derivedSubjectLength-3]) + "..."
}
