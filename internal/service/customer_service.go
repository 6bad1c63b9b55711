package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

// CustomerService is the customer directory.
type CustomerService struct {
	customers repository.CustomerRepository
	logger    *zap.Logger
	now       func() time.Time
}

// CustomerDependencies bundles collaborators for the customer service.
type CustomerDependencies struct {
	CustomerRepo repository.CustomerRepository
	Logger       *zap.Logger
	Clock        func() time.Time
}

// NewCustomerService creates the service.
func NewCustomerService(deps CustomerDependencies) *CustomerService {
	return &CustomerService{
		customers: deps.CustomerRepo,
		logger:    loggerOrNop(deps.Logger),
		now:       clockOrDefault(deps.Clock),
	}
}

// Resolve returns the customer owning contactKey, creating it on first contact.
// whatsapp keys are phone numbers, every other channel keys on email.
func (s *CustomerService) Resolve(ctx context.Context, channel domain.Channel, contactKey, providedName string) (*domain.Customer, error) {
	contactKey = strings.TrimSpace(contactKey)
	if contactKey == "" {
		return nil, apperrors.NewFieldError("customer_key", "is required")
	}
	name := strings.TrimSpace(providedName)
	if name == "" {
		name = domain.UnknownCustomerName
	}

	candidate := &domain.Customer{Name: name, CreatedAt: s.now()}
	if channel == domain.ChannelWhatsApp {
		candidate.Phone = contactKey
	} else {
		candidate.Email = strings.ToLower(contactKey)
	}
	if err := candidate.Validate(); err != nil {
		return nil, err
	}

	customer, created, err := s.customers.GetOrCreate(ctx, candidate)
	if err != nil {
		return nil, err
	}
	if created {
		s.logger.Info("customer created",
			zap.String("customer_id", customer.ID),
			zap.String("channel", string(channel)))
		return customer, nil
	}

	if customer.HasKnownName() || domain.IsPlaceholderName(name) {
		return customer, nil
	}
	if err := s.customers.UpdateName(ctx, customer.ID, name); err != nil {
		return nil, err
	}
	customer.Name = name
	return customer, nil
}

// Get returns one customer.
func (s *CustomerService) Get(ctx context.Context, id string) (*domain.Customer, error) {
	customer, err := s.customers.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewNotFound("customer", map[string]any{"customer_id": id})
	}
	return customer, err
}

// List returns customers whose display name or email contains query, newest first.
func (s *CustomerService) List(ctx context.Context, query string) ([]domain.Customer, error) {
	all, err := s.customers.List(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]domain.Customer, 0, len(all))
	for i := range all {
		if all[i].MatchesQuery(query) {
			result = append(result, all[i])
		}
	}
	return result, nil
}
