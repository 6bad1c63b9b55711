package domain

import (
	"strings"
	"time"

	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

// Name placeholders stored when a channel does not tell us who is writing.
const (
	UnknownName         = "Unknown"
	UnknownCustomerName = "Unknown Customer"
	AnonymousCustomer   = "Anonymous Customer"
)

// Customer is an identity record for someone who contacted support.
type Customer struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	CreatedAt time.Time
}

// Validate enforces the identity invariant checked before a customer is created.
func (c *Customer) Validate() error {
	if strings.TrimSpace(c.Name) == "" && strings.TrimSpace(c.Email) == "" {
		return apperrors.NewFieldError("name", "or email is required")
	}
	return nil
}

// HasKnownName reports whether the stored name is a real name rather than a placeholder.
func (c *Customer) HasKnownName() bool {
	return !IsPlaceholderName(c.Name)
}

// DisplayName resolves the label shown for a customer.
func (c *Customer) DisplayName() string {
	if c.HasKnownName() {
		return strings.TrimSpace(c.Name)
	}
	if local := emailLocalPart(c.Email); local != "" {
		return local
	}
	return AnonymousCustomer
}

// MatchesQuery reports whether query is a case-insensitive substring of the display name or email.
func (c *Customer) MatchesQuery(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(c.DisplayName()), q) ||
		strings.Contains(strings.ToLower(c.Email), q)
}

// IsPlaceholderName reports whether name carries no identity information.
func IsPlaceholderName(name string) bool {
	name = strings.TrimSpace(name)
	return name == "" || name == UnknownName || name == UnknownCustomerName
}

func emailLocalPart(email string) string {
	email = strings.TrimSpace(email)
	if email == "" {
		return ""
	}
	if at := strings.Index(email, "@"); at >= 0 {
		return email[:at]
	}
	return email
}
