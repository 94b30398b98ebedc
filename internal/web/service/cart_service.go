package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/web/apiclient"
	"github.com/rl1809/storefront/pkg/apperr"
)

// CartItem is a cart line joined with live product data.
type CartItem struct {
	ProductID       string          `json:"productId"`
	ProductName     string          `json:"productName"`
	ProductImageURL string          `json:"productImageUrl,omitempty"`
	Price           decimal.Decimal `json:"price"`
	Quantity        int             `json:"quantity"`
	StockAvailable  int             `json:"stockAvailable"`
	LineTotal       decimal.Decimal `json:"lineTotal"`
	AddedAt         time.Time       `json:"addedAt"`
}

type CheckoutResult struct {
	Message string         `json:"message"`
	Orders  []domain.Order `json:"orders"`
	Skipped []string       `json:"skippedProductIds"`
}

type CartService struct {
	carts   CartStore
	catalog Catalog
	logger  *slog.Logger
}

func NewCartService(carts CartStore, catalog Catalog, logger *slog.Logger) *CartService {
	return &CartService{carts: carts, catalog: catalog, logger: logger}
}

func insufficientStock(available int) error {
	return apperr.New(apperr.CodeInvalidInput, "Insufficient stock. Available: %d", available)
}

func (s *CartService) product(ctx context.Context, id string) (*domain.Product, error) {
	p, err := s.catalog.GetProduct(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if p == nil {
		return nil, apperr.New(apperr.CodeNotFound, "Product not found.")
	}
	return p, nil
}

// List returns the caller's cart. Lines whose product no longer exists are
// left out.
func (s *CartService) List(ctx context.Context, p domain.Principal) ([]CartItem, error) {
	lines, err := s.carts.ListCart(ctx, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("list cart: %w", err)
	}
	items := make([]CartItem, 0, len(lines))
	for _, line := range lines {
		product, err := s.catalog.GetProduct(ctx, line.ProductID)
		if err != nil {
			return nil, fmt.Errorf("get product: %w", err)
		}
		if product == nil {
			continue
		}
		items = append(items, CartItem{
			ProductID:       product.ID,
			ProductName:     product.Name,
			ProductImageURL: product.ImageURL,
			Price:           product.Price,
			Quantity:        line.Quantity,
			StockAvailable:  product.Stock,
			LineTotal:       domain.Total(product.Price, line.Quantity),
			AddedAt:         line.AddedAt,
		})
	}
	return items, nil
}

// Add puts quantity units of a product in the cart, merging with an existing
// line. Stock is checked against the quantity being added.
func (s *CartService) Add(ctx context.Context, p domain.Principal, productID string, quantity int) (*domain.CartLine, error) {
	if quantity < 1 {
		return nil, apperr.New(apperr.CodeInvalidInput, "Quantity must be at least 1.")
	}
	product, err := s.product(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.Stock < quantity {
		return nil, insufficientStock(product.Stock)
	}
	line, err := s.carts.AddToCart(ctx, p.UserID, product.ID, quantity)
	if err != nil {
		return nil, fmt.Errorf("add to cart: %w", err)
	}
	return line, nil
}

// Update sets a line's quantity. Anything below one removes the line.
func (s *CartService) Update(ctx context.Context, p domain.Principal, productID string, quantity int) error {
	if quantity < 1 {
		return s.Remove(ctx, p, productID)
	}
	line, err := s.carts.GetCartLine(ctx, p.UserID, productID)
	if err != nil {
		return fmt.Errorf("get cart line: %w", err)
	}
	if line == nil {
		return apperr.New(apperr.CodeNotFound, "Cart item not found.")
	}
	product, err := s.product(ctx, productID)
	if err != nil {
		return err
	}
	if product.Stock < quantity {
		return insufficientStock(product.Stock)
	}
	found, err := s.carts.SetCartQuantity(ctx, p.UserID, productID, quantity)
	if err != nil {
		return fmt.Errorf("update cart: %w", err)
	}
	if !found {
		return apperr.New(apperr.CodeNotFound, "Cart item not found.")
	}
	return nil
}

// Remove deletes a line; removing a line that is not there is not an error.
func (s *CartService) Remove(ctx context.Context, p domain.Principal, productID string) error {
	if err := s.carts.RemoveCartLine(ctx, p.UserID, productID); err != nil {
		return fmt.Errorf("remove cart line: %w", err)
	}
	return nil
}

// Checkout orders every line that can be fulfilled and then empties the
// cart, skipped lines included. Lines whose product is gone or short on
// stock are skipped; any other failure aborts and leaves the cart as it is.
// Each line carries an idempotency key so a retried checkout does not order
// a line twice.
func (s *CartService) Checkout(ctx context.Context, p domain.Principal) (*CheckoutResult, error) {
	lines, err := s.carts.ListCart(ctx, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("list cart: %w", err)
	}
	if len(lines) == 0 {
		return nil, apperr.New(apperr.CodeInvalidInput, "Your cart is empty.")
	}

	result := &CheckoutResult{Orders: []domain.Order{}, Skipped: []string{}}
	productIDs := make([]string, 0, len(lines))
	for _, line := range lines {
		productIDs = append(productIDs, line.ProductID)

		product, err := s.catalog.GetProduct(ctx, line.ProductID)
		if err != nil {
			return nil, fmt.Errorf("get product %s: %w", line.ProductID, err)
		}
		if product == nil || product.Stock < line.Quantity {
			result.Skipped = append(result.Skipped, line.ProductID)
			continue
		}

		key := fmt.Sprintf("checkout:%d:%s:%d", p.UserID, line.ProductID, line.AddedAt.UnixNano())
		order, err := s.catalog.CreateOrder(ctx, p.CustomerID, line.ProductID, line.Quantity, key)
		if err != nil {
			var apiErr *apiclient.APIError
			if errors.As(err, &apiErr) && (apiErr.InsufficientStock() || apiErr.Status == http.StatusConflict) {
				s.logger.Warn("checkout line skipped",
					slog.String("user", p.Username), slog.String("product_id", line.ProductID), slog.Any("error", err))
				result.Skipped = append(result.Skipped, line.ProductID)
				continue
			}
			return nil, fmt.Errorf("create order for %s: %w", line.ProductID, err)
		}
		result.Orders = append(result.Orders, *order)
	}

	if err := s.carts.RemoveCartLines(ctx, p.UserID, productIDs); err != nil {
		return nil, fmt.Errorf("clear cart: %w", err)
	}

	s.logger.Info("checkout completed",
		slog.String("user", p.Username), slog.Int("orders", len(result.Orders)), slog.Int("skipped", len(result.Skipped)))
	result.Message = "Order placed successfully!"
	return result, nil
}
