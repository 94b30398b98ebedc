package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
	"github.com/rl1809/storefront/pkg/apperr"
)

type CustomerInput struct {
	Name            string
	Surname         string
	Username        string
	Email           string
	ShippingAddress string
}

func (in CustomerInput) normalize() (CustomerInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Surname = strings.TrimSpace(in.Surname)
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.ShippingAddress = strings.TrimSpace(in.ShippingAddress)
	if in.Username == "" || in.Email == "" {
		return in, apperr.New(apperr.CodeInvalidInput, "Username and Email are required")
	}
	if !strings.Contains(in.Email, "@") {
		return in, apperr.New(apperr.CodeInvalidInput, "Email is invalid")
	}
	return in, nil
}

type CustomerService struct {
	repo    port.CustomerRepository
	retries int
	now     func() time.Time
}

func NewCustomerService(repo port.CustomerRepository, conflictRetries int) *CustomerService {
	return &CustomerService{
		repo:    repo,
		retries: conflictRetries,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *CustomerService) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	customers, err := s.repo.ListCustomers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return customers, nil
}

func (s *CustomerService) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	c, err := s.repo.GetCustomer(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}
	if c == nil {
		return nil, apperr.New(apperr.CodeNotFound, "%s not found", domain.PartitionCustomer)
	}
	return c, nil
}

func (s *CustomerService) CreateCustomer(ctx context.Context, in CustomerInput) (*domain.Customer, error) {
	in, err := in.normalize()
	if err != nil {
		return nil, err
	}
	now := s.now()
	c := domain.Customer{
		ID:              uuid.NewString(),
		Name:            in.Name,
		Surname:         in.Surname,
		Username:        in.Username,
		Email:           in.Email,
		ShippingAddress: in.ShippingAddress,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.CreateCustomer(ctx, c); err != nil {
		if errors.Is(err, domain.ErrDuplicateKey) {
			return nil, apperr.Wrap(apperr.CodeAlreadyExists, err, "customer already exists")
		}
		return nil, fmt.Errorf("create customer: %w", err)
	}
	return &c, nil
}

func (s *CustomerService) UpdateCustomer(ctx context.Context, id string, in CustomerInput) (*domain.Customer, error) {
	in, err := in.normalize()
	if err != nil {
		return nil, err
	}
	updated, err := updateWithRetry(ctx, s.retries, domain.PartitionCustomer, id, s.repo.GetCustomer,
		func(c *domain.Customer) error {
			c.Name = in.Name
			c.Surname = in.Surname
			c.Username = in.Username
			c.Email = in.Email
			c.ShippingAddress = in.ShippingAddress
			c.UpdatedAt = s.now()
			return nil
		},
		s.repo.UpdateCustomer,
	)
	if err != nil {
		return nil, err
	}
	updated.Version++
	return updated, nil
}

func (s *CustomerService) DeleteCustomer(ctx context.Context, id string) error {
	if err := s.repo.DeleteCustomer(ctx, id); err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	return nil
}
