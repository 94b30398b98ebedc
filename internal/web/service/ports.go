package service

import (
	"context"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/web/apiclient"
)

type UserStore interface {
	CreateUser(ctx context.Context, u domain.User) (int64, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
}

type CartStore interface {
	ListCart(ctx context.Context, userID int64) ([]domain.CartLine, error)
	GetCartLine(ctx context.Context, userID int64, productID string) (*domain.CartLine, error)
	AddToCart(ctx context.Context, userID int64, productID string, quantity int) (*domain.CartLine, error)
	SetCartQuantity(ctx context.Context, userID int64, productID string, quantity int) (bool, error)
	RemoveCartLine(ctx context.Context, userID int64, productID string) error
	RemoveCartLines(ctx context.Context, userID int64, productIDs []string) error
}

type SessionStore interface {
	Create(ctx context.Context, p domain.Principal) (string, error)
	Get(ctx context.Context, token string) (*domain.Principal, error)
	Delete(ctx context.Context, token string) error
}

// Customers is the part of the API used during registration.
type Customers interface {
	CreateCustomer(ctx context.Context, in apiclient.CustomerRequest) (*domain.Customer, error)
	DeleteCustomer(ctx context.Context, id string) error
}

// Catalog is the part of the API used by the cart.
type Catalog interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	CreateOrder(ctx context.Context, customerID, productID string, quantity int, idempotencyKey string) (*domain.Order, error)
}
