package storage

import (
	"context"
	"sync"
	"time"

	"github.com/rl1809/storefront/internal/core/domain"
)

// MemoryAdapter keeps every entity in process memory. It backs
// STORAGE_DRIVER=memory and the service tests, and follows the same version
// and stock rules as the MySQL adapter.
type MemoryAdapter struct {
	mu          sync.Mutex
	customers   map[string]domain.Customer
	products    map[string]domain.Product
	orders      map[string]domain.Order
	idempotency map[string]time.Time
	keyTTL      time.Duration
	now         func() time.Time
}

func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{
		customers:   make(map[string]domain.Customer),
		products:    make(map[string]domain.Product),
		orders:      make(map[string]domain.Order),
		idempotency: make(map[string]time.Time),
		keyTTL:      idempotencyKeyTTL,
		now:         time.Now,
	}
}

func (m *MemoryAdapter) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.Customer, 0, len(m.customers))
	for _, c := range m.customers {
		out = append(out, c)
	}
	return out, nil
}

func (m *MemoryAdapter) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.customers[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (m *MemoryAdapter) CreateCustomer(ctx context.Context, customer domain.Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.customers[customer.ID]; ok {
		return domain.ErrDuplicateKey
	}
	m.customers[customer.ID] = customer
	return nil
}

func (m *MemoryAdapter) UpdateCustomer(ctx context.Context, customer domain.Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.customers[customer.ID]
	if !ok || current.Version != customer.Version {
		return domain.ErrOptimisticLock
	}
	customer.Version++
	m.customers[customer.ID] = customer
	return nil
}

func (m *MemoryAdapter) DeleteCustomer(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.customers, id)
	return nil
}

func (m *MemoryAdapter) ListProducts(ctx context.Context) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, p)
	}
	return out, nil
}

func (m *MemoryAdapter) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *MemoryAdapter) CreateProduct(ctx context.Context, product domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.products[product.ID]; ok {
		return domain.ErrDuplicateKey
	}
	m.products[product.ID] = product
	return nil
}

func (m *MemoryAdapter) UpdateProduct(ctx context.Context, product domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.products[product.ID]
	if !ok || current.Version != product.Version {
		return domain.ErrOptimisticLock
	}
	product.Version++
	m.products[product.ID] = product
	return nil
}

func (m *MemoryAdapter) DeleteProduct(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.products, id)
	return nil
}

func (m *MemoryAdapter) ListOrders(ctx context.Context) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.Order, 0, len(m.orders))
	for _, o := range m.orders {
		out = append(out, o)
	}
	return out, nil
}

func (m *MemoryAdapter) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[id]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (m *MemoryAdapter) CreateOrder(ctx context.Context, order domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.orders[order.ID]; ok {
		return domain.ErrDuplicateKey
	}
	product, ok := m.products[order.ProductID]
	if !ok || product.Stock < order.Quantity {
		return domain.ErrOutOfStock
	}

	product.Stock -= order.Quantity
	product.Version++
	product.UpdatedAt = m.now()
	m.products[product.ID] = product

	m.orders[order.ID] = order
	return nil
}

func (m *MemoryAdapter) UpdateOrder(ctx context.Context, order domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.orders[order.ID]
	if !ok || current.Version != order.Version {
		return domain.ErrOptimisticLock
	}
	order.Version++
	m.orders[order.ID] = order
	return nil
}

func (m *MemoryAdapter) DeleteOrder(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.orders, id)
	return nil
}

func (m *MemoryAdapter) SetIdempotency(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if expires, ok := m.idempotency[key]; ok && m.now().Before(expires) {
		return false, nil
	}
	m.idempotency[key] = m.now().Add(m.keyTTL)
	return true, nil
}

func (m *MemoryAdapter) ReleaseIdempotency(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.idempotency, key)
	return nil
}
