package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
	"github.com/rl1809/storefront/pkg/apperr"
)

var (
	ErrDuplicateRequest  = apperr.New(apperr.CodeConflict, "duplicate request")
	ErrInsufficientStock = apperr.New(apperr.CodeInvalidInput, "insufficient stock")
)

type CreateOrderRequest struct {
	CustomerID     string
	ProductID      string
	Quantity       int
	IdempotencyKey string
}

// OrderPatch carries the editable order fields. Nil fields are left alone.
type OrderPatch struct {
	Quantity  *int
	Status    *string
	OrderDate *time.Time
}

type OrderService struct {
	db         port.DatabaseRepository
	cache      port.CacheRepository
	eventQueue chan domain.OrderEvent
	queueMu    sync.RWMutex
	closed     bool
	retries    int
	logger     *slog.Logger
	now        func() time.Time
}

func NewOrderService(db port.DatabaseRepository, cache port.CacheRepository, queueSize, conflictRetries int, logger *slog.Logger) *OrderService {
	return &OrderService{
		db:         db,
		cache:      cache,
		eventQueue: make(chan domain.OrderEvent, queueSize),
		retries:    conflictRetries,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// ListOrders returns orders newest first, restricted to username when it is
// not empty.
func (s *OrderService) ListOrders(ctx context.Context, username string) ([]domain.Order, error) {
	orders, err := s.db.ListOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	if username != "" {
		filtered := orders[:0]
		for _, o := range orders {
			if o.Username == username {
				filtered = append(filtered, o)
			}
		}
		orders = filtered
	}
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].OrderDate.After(orders[j].OrderDate)
	})
	return orders, nil
}

func (s *OrderService) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	order, err := s.db.GetOrder(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, apperr.New(apperr.CodeNotFound, "%s not found", domain.PartitionOrder)
	}
	return order, nil
}

// CreateOrder places an order for one product. Product and customer are read
// before anything is written; the order insert and the stock decrement are a
// single repository call that fails without side effects when stock runs out.
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (_ *domain.Order, err error) {
	req.CustomerID = strings.TrimSpace(req.CustomerID)
	req.ProductID = strings.TrimSpace(req.ProductID)
	if req.CustomerID == "" || req.ProductID == "" || req.Quantity < 1 {
		return nil, apperr.New(apperr.CodeInvalidInput, "CustomerId, ProductId, and Quantity (>= 1) are required")
	}

	if key := strings.TrimSpace(req.IdempotencyKey); key != "" {
		idempotencyKey := fmt.Sprintf("order:%s", key)
		ok, claimErr := s.cache.SetIdempotency(ctx, idempotencyKey)
		if claimErr != nil {
			return nil, fmt.Errorf("idempotency check failed: %w", claimErr)
		}
		if !ok {
			return nil, ErrDuplicateRequest
		}
		defer func() {
			if err == nil {
				return
			}
			if releaseErr := s.cache.ReleaseIdempotency(context.WithoutCancel(ctx), idempotencyKey); releaseErr != nil {
				s.logger.Warn("release idempotency key failed",
					slog.String("key", idempotencyKey), slog.Any("error", releaseErr))
			}
		}()
	}

	product, err := s.db.GetProduct(ctx, req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, apperr.New(apperr.CodeInvalidInput, "Invalid ProductId")
	}

	customer, err := s.db.GetCustomer(ctx, req.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}
	if customer == nil {
		return nil, apperr.New(apperr.CodeInvalidInput, "Invalid CustomerId")
	}

	if product.Stock < req.Quantity {
		return nil, apperr.Wrap(apperr.CodeInvalidInput, ErrInsufficientStock,
			"Insufficient stock. Available: %d", product.Stock)
	}

	now := s.now()
	order := domain.Order{
		ID:              uuid.NewString(),
		CustomerID:      customer.ID,
		Username:        customer.Username,
		ProductID:       product.ID,
		ProductName:     product.Name,
		ProductImageURL: product.ImageURL,
		Quantity:        req.Quantity,
		UnitPrice:       product.Price,
		TotalPrice:      domain.Total(product.Price, req.Quantity),
		OrderDate:       now,
		Status:          domain.OrderStatusSubmitted,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.db.CreateOrder(ctx, order); err != nil {
		if errors.Is(err, domain.ErrOutOfStock) {
			return nil, apperr.Wrap(apperr.CodeInvalidInput, ErrInsufficientStock,
				"Insufficient stock for product %s", product.ID)
		}
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.logger.Info("order created",
		slog.String("order_id", order.ID),
		slog.String("product_id", order.ProductID),
		slog.Int("quantity", order.Quantity))

	s.enqueue(domain.NewOrderPlaced(order))
	return &order, nil
}

func (s *OrderService) enqueue(event domain.OrderEvent) {
	s.queueMu.RLock()
	defer s.queueMu.RUnlock()
	if s.closed {
		s.logger.Warn("order event queue closed, dropping event", slog.String("order_id", event.OrderID))
		return
	}
	select {
	case s.eventQueue <- event:
	default:
		s.logger.Warn("order event queue full, dropping event", slog.String("order_id", event.OrderID))
	}
}

// UpdateOrderStatus overwrites the status. Any non-empty value is accepted.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, id, status string) (*domain.Order, error) {
	status = strings.TrimSpace(status)
	if status == "" {
		return nil, apperr.New(apperr.CodeInvalidInput, "Status is required")
	}
	return s.UpdateOrder(ctx, id, OrderPatch{Status: &status})
}

// UpdateOrder applies the whitelisted fields of patch. A quantity change
// recomputes the total from the stored unit price; stock is not adjusted.
func (s *OrderService) UpdateOrder(ctx context.Context, id string, patch OrderPatch) (*domain.Order, error) {
	if patch.Quantity != nil && *patch.Quantity < 1 {
		return nil, apperr.New(apperr.CodeInvalidInput, "Quantity must be at least 1")
	}
	if patch.Status != nil && strings.TrimSpace(*patch.Status) == "" {
		return nil, apperr.New(apperr.CodeInvalidInput, "Status must not be empty")
	}

	updated, err := updateWithRetry(ctx, s.retries, domain.PartitionOrder, id, s.db.GetOrder,
		func(o *domain.Order) error {
			if patch.Quantity != nil {
				o.Quantity = *patch.Quantity
				o.TotalPrice = domain.Total(o.UnitPrice, o.Quantity)
			}
			if patch.Status != nil {
				o.Status = domain.OrderStatus(strings.TrimSpace(*patch.Status))
			}
			if patch.OrderDate != nil {
				o.OrderDate = patch.OrderDate.UTC()
			}
			o.UpdatedAt = s.now()
			return nil
		},
		s.db.UpdateOrder,
	)
	if err != nil {
		return nil, err
	}
	updated.Version++
	return updated, nil
}

func (s *OrderService) DeleteOrder(ctx context.Context, id string) error {
	if err := s.db.DeleteOrder(ctx, id); err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	return nil
}

func (s *OrderService) GetEventQueue() <-chan domain.OrderEvent {
	return s.eventQueue
}

// Close stops accepting events and closes the queue so workers drain and
// exit. Orders created afterwards still succeed; their events are dropped.
func (s *OrderService) Close() {
	s.queueMu.Lock()
	defer s.queueMu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.eventQueue)
}
