package port

import (
	"context"

	"github.com/rl1809/storefront/internal/core/domain"
)

// Get methods return (nil, nil) when the row does not exist. Update methods
// replace the row only if its version still equals the given one, returning
// domain.ErrOptimisticLock otherwise; the stored version is then incremented.

type CustomerRepository interface {
	ListCustomers(ctx context.Context) ([]domain.Customer, error)
	GetCustomer(ctx context.Context, id string) (*domain.Customer, error)
	CreateCustomer(ctx context.Context, customer domain.Customer) error
	UpdateCustomer(ctx context.Context, customer domain.Customer) error
	DeleteCustomer(ctx context.Context, id string) error
}

type ProductRepository interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	CreateProduct(ctx context.Context, product domain.Product) error
	UpdateProduct(ctx context.Context, product domain.Product) error
	DeleteProduct(ctx context.Context, id string) error
}

type OrderRepository interface {
	ListOrders(ctx context.Context) ([]domain.Order, error)
	GetOrder(ctx context.Context, id string) (*domain.Order, error)

	// CreateOrder inserts the order and decrements the product stock by the
	// order quantity as one unit. When stock is below the quantity nothing
	// is written and domain.ErrOutOfStock is returned.
	CreateOrder(ctx context.Context, order domain.Order) error

	UpdateOrder(ctx context.Context, order domain.Order) error
	DeleteOrder(ctx context.Context, id string) error
}

type DatabaseRepository interface {
	CustomerRepository
	ProductRepository
	OrderRepository
}
