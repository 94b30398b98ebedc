package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/web/apiclient"
	"github.com/rl1809/storefront/pkg/apperr"
)

const minPasswordLength = 6

var ErrInvalidCredentials = apperr.New(apperr.CodeUnauthorized, "Invalid username or password")

type RegisterInput struct {
	Username string
	Email    string
	Password string
	Name     string
	Surname  string
	Address  string
}

func (in RegisterInput) normalize() (RegisterInput, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	in.Surname = strings.TrimSpace(in.Surname)
	in.Address = strings.TrimSpace(in.Address)
	switch {
	case in.Username == "" || in.Email == "" || in.Password == "":
		return in, apperr.New(apperr.CodeInvalidInput, "Username, Email and Password are required")
	case !strings.Contains(in.Email, "@"):
		return in, apperr.New(apperr.CodeInvalidInput, "Email is invalid")
	case len(in.Password) < minPasswordLength:
		return in, apperr.New(apperr.CodeInvalidInput, "Password must be at least %d characters", minPasswordLength)
	}
	return in, nil
}

type AuthService struct {
	users     UserStore
	sessions  SessionStore
	customers Customers
	cost      int
	logger    *slog.Logger
}

func NewAuthService(users UserStore, sessions SessionStore, customers Customers, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:     users,
		sessions:  sessions,
		customers: customers,
		cost:      bcrypt.DefaultCost,
		logger:    logger,
	}
}

// Register creates the API customer and the local account linked to it.
// Username and email must both be unused.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.Principal, error) {
	in, err := in.normalize()
	if err != nil {
		return nil, err
	}

	taken, err := s.users.UsernameExists(ctx, in.Username)
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if taken {
		return nil, apperr.New(apperr.CodeAlreadyExists, "Username already exists")
	}
	taken, err = s.users.EmailExists(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if taken {
		return nil, apperr.New(apperr.CodeAlreadyExists, "Email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	customer, err := s.customers.CreateCustomer(ctx, apiclient.CustomerRequest{
		Name:            in.Name,
		Surname:         in.Surname,
		Username:        in.Username,
		Email:           in.Email,
		ShippingAddress: in.Address,
	})
	if err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}

	user := domain.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         domain.RoleCustomer,
		CustomerID:   customer.ID,
	}
	user.ID, err = s.users.CreateUser(ctx, user)
	if err != nil {
		if delErr := s.customers.DeleteCustomer(context.WithoutCancel(ctx), customer.ID); delErr != nil {
			s.logger.Warn("failed to remove customer after registration failure",
				slog.String("customer_id", customer.ID), slog.Any("error", delErr))
		}
		if errors.Is(err, domain.ErrDuplicateKey) {
			return nil, apperr.Wrap(apperr.CodeAlreadyExists, err, "Username or email already registered")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user registered", slog.String("user", user.Username), slog.String("customer_id", customer.ID))
	return principalOf(user), nil
}

func principalOf(u domain.User) *domain.Principal {
	return &domain.Principal{
		UserID:     u.ID,
		Username:   u.Username,
		Email:      u.Email,
		CustomerID: u.CustomerID,
		Role:       u.Role,
	}
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.Principal, error) {
	user, err := s.users.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return principalOf(*user), nil
}

func (s *AuthService) StartSession(ctx context.Context, p domain.Principal) (string, error) {
	return s.sessions.Create(ctx, p)
}

// Resolve returns the principal for a session token, or nil when the token
// is empty, unknown or expired.
func (s *AuthService) Resolve(ctx context.Context, token string) (*domain.Principal, error) {
	if token == "" {
		return nil, nil
	}
	return s.sessions.Get(ctx, token)
}

func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.Delete(ctx, token)
}
