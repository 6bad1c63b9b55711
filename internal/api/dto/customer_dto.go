package dto

import (
	"time"

	"github.com/spec-kit/support-desk/internal/domain"
)

// CustomerResponse is a customer with its resolved display name.
type CustomerResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func NewCustomer(c *domain.Customer) CustomerResponse {
	return CustomerResponse{
		ID:          c.ID,
		Name:        c.Name,
		DisplayName: c.DisplayName(),
		Email:       c.Email,
		Phone:       c.Phone,
		CreatedAt:   c.CreatedAt,
	}
}
