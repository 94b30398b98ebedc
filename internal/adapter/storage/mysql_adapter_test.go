package storage

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rl1809/storefront/internal/core/domain"
)

func getMySQLAdapter(t *testing.T) (*MySQLAdapter, *sql.DB) {
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		dsn = "root:root@tcp(localhost:3306)/storefront?parseTime=true"
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Skipf("MySQL not available: %v", err)
	}

	if err := db.Ping(); err != nil {
		t.Skipf("MySQL not available: %v", err)
	}

	adapter := NewMySQLAdapter(db)
	if err := adapter.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	return adapter, db
}

func seedProduct(t *testing.T, adapter *MySQLAdapter, stock int) domain.Product {
	now := time.Now().UTC().Truncate(time.Microsecond)
	p := domain.Product{
		ID:        uuid.NewString(),
		Name:      "test-product",
		Price:     decimal.RequireFromString("19.99"),
		Stock:     stock,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := adapter.CreateProduct(context.Background(), p); err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	return p
}

func newTestOrder(productID string, quantity int) domain.Order {
	now := time.Now().UTC().Truncate(time.Microsecond)
	unit := decimal.RequireFromString("19.99")
	return domain.Order{
		ID:         uuid.NewString(),
		CustomerID: "test-customer",
		Username:   "test-user",
		ProductID:  productID,
		Quantity:   quantity,
		UnitPrice:  unit,
		TotalPrice: domain.Total(unit, quantity),
		OrderDate:  now,
		Status:     domain.OrderStatusSubmitted,
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestCreateOrder_Success(t *testing.T) {
	adapter, db := getMySQLAdapter(t)
	defer db.Close()

	ctx := context.Background()
	product := seedProduct(t, adapter, 100)
	defer adapter.DeleteProduct(ctx, product.ID)

	order := newTestOrder(product.ID, 3)
	if err := adapter.CreateOrder(ctx, order); err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}
	defer adapter.DeleteOrder(ctx, order.ID)

	// Verify order exists
	got, err := adapter.GetOrder(ctx, order.ID)
	if err != nil || got == nil {
		t.Fatalf("order not found in database: %v", err)
	}
	if !got.TotalPrice.Equal(decimal.RequireFromString("59.97")) {
		t.Errorf("expected total 59.97, got %s", got.TotalPrice)
	}

	// Verify stock decremented
	p, _ := adapter.GetProduct(ctx, product.ID)
	if p.Stock != 97 {
		t.Errorf("expected stock 97, got %d", p.Stock)
	}
	if p.Version != 2 {
		t.Errorf("expected version 2, got %d", p.Version)
	}
}

func TestCreateOrder_InsufficientStock(t *testing.T) {
	adapter, db := getMySQLAdapter(t)
	defer db.Close()

	ctx := context.Background()
	product := seedProduct(t, adapter, 1)
	defer adapter.DeleteProduct(ctx, product.ID)

	order := newTestOrder(product.ID, 2)
	err := adapter.CreateOrder(ctx, order)
	if !errors.Is(err, domain.ErrOutOfStock) {
		t.Fatalf("expected ErrOutOfStock, got: %v", err)
	}

	// The insert is rolled back together with the failed decrement
	got, err := adapter.GetOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Error("expected no order row")
		adapter.DeleteOrder(ctx, order.ID)
	}

	p, _ := adapter.GetProduct(ctx, product.ID)
	if p.Stock != 1 {
		t.Errorf("expected stock 1, got %d", p.Stock)
	}
}

func TestCreateOrder_ConcurrentNoOversell(t *testing.T) {
	adapter, db := getMySQLAdapter(t)
	defer db.Close()

	ctx := context.Background()
	initialStock := 10
	totalRequests := 30
	product := seedProduct(t, adapter, initialStock)
	defer adapter.DeleteProduct(ctx, product.ID)

	var successCount atomic.Int32
	var wg sync.WaitGroup
	var mu sync.Mutex
	var created []string

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			order := newTestOrder(product.ID, 1)
			if err := adapter.CreateOrder(ctx, order); err == nil {
				successCount.Add(1)
				mu.Lock()
				created = append(created, order.ID)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	for _, id := range created {
		adapter.DeleteOrder(ctx, id)
	}

	if successCount.Load() != int32(initialStock) {
		t.Errorf("expected %d successes, got %d", initialStock, successCount.Load())
	}
	p, _ := adapter.GetProduct(ctx, product.ID)
	if p.Stock != 0 {
		t.Errorf("expected stock 0, got %d", p.Stock)
	}
}

func TestGetCustomer_NotFound(t *testing.T) {
	adapter, db := getMySQLAdapter(t)
	defer db.Close()

	c, err := adapter.GetCustomer(context.Background(), "nonexistent-customer")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c != nil {
		t.Error("expected nil for nonexistent customer")
	}
}

func TestCreateCustomer_Duplicate(t *testing.T) {
	adapter, db := getMySQLAdapter(t)
	defer db.Close()

	ctx := context.Background()
	now := time.Now().UTC()
	c := domain.Customer{ID: uuid.NewString(), Username: "dup", Email: "dup@example.com", Version: 1, CreatedAt: now, UpdatedAt: now}
	if err := adapter.CreateCustomer(ctx, c); err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	defer adapter.DeleteCustomer(ctx, c.ID)

	if err := adapter.CreateCustomer(ctx, c); !errors.Is(err, domain.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got: %v", err)
	}
}

func TestUpdateProduct_OptimisticLock(t *testing.T) {
	adapter, db := getMySQLAdapter(t)
	defer db.Close()

	ctx := context.Background()
	product := seedProduct(t, adapter, 100)
	defer adapter.DeleteProduct(ctx, product.ID)

	// Update with correct version
	product.Stock = 90
	if err := adapter.UpdateProduct(ctx, product); err != nil {
		t.Fatalf("UpdateProduct failed: %v", err)
	}

	// Verify version incremented
	p, _ := adapter.GetProduct(ctx, product.ID)
	if p.Version != 2 {
		t.Errorf("expected version 2, got %d", p.Version)
	}

	// Try update with stale version
	if err := adapter.UpdateProduct(ctx, product); err != domain.ErrOptimisticLock {
		t.Errorf("expected ErrOptimisticLock, got: %v", err)
	}
}
