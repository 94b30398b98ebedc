package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/pkg/apperr"
	"github.com/rl1809/storefront/pkg/logging"
)

var shopper = domain.Principal{UserID: 1, Username: "ada", CustomerID: "cust-1", Role: domain.RoleCustomer}

func newTestCart() (*CartService, *memCarts, *fakeAPI) {
	carts := newMemCarts()
	api := newFakeAPI()
	api.products["p-1"] = domain.Product{ID: "p-1", Name: "Kettle", Price: decimal.NewFromInt(10), Stock: 5}
	api.products["p-2"] = domain.Product{ID: "p-2", Name: "Toaster", Price: decimal.NewFromInt(20), Stock: 1}
	return NewCartService(carts, api, logging.Discard()), carts, api
}

func TestCartAdd(t *testing.T) {
	svc, carts, _ := newTestCart()
	ctx := context.Background()

	_, err := svc.Add(ctx, shopper, "p-1", 2)
	require.NoError(t, err)
	line, err := svc.Add(ctx, shopper, "p-1", 3)
	require.NoError(t, err)
	assert.Equal(t, 5, line.Quantity)

	_, err = svc.Add(ctx, shopper, "p-1", 0)
	assert.Equal(t, apperr.CodeInvalidInput, apperr.CodeOf(err))

	_, err = svc.Add(ctx, shopper, "missing", 1)
	assert.True(t, apperr.IsNotFound(err))

	_, err = svc.Add(ctx, shopper, "p-2", 2)
	assert.Equal(t, "Insufficient stock. Available: 1", apperr.Message(err))

	lines, _ := carts.ListCart(ctx, shopper.UserID)
	assert.Len(t, lines, 1)
}

func TestCartUpdate(t *testing.T) {
	svc, carts, _ := newTestCart()
	ctx := context.Background()
	_, err := svc.Add(ctx, shopper, "p-1", 1)
	require.NoError(t, err)

	require.NoError(t, svc.Update(ctx, shopper, "p-1", 4))
	line, _ := carts.GetCartLine(ctx, shopper.UserID, "p-1")
	assert.Equal(t, 4, line.Quantity)

	err = svc.Update(ctx, shopper, "p-1", 6)
	assert.Equal(t, apperr.CodeInvalidInput, apperr.CodeOf(err))

	err = svc.Update(ctx, shopper, "p-2", 1)
	assert.True(t, apperr.IsNotFound(err))

	require.NoError(t, svc.Update(ctx, shopper, "p-1", 0))
	line, _ = carts.GetCartLine(ctx, shopper.UserID, "p-1")
	assert.Nil(t, line)
}

func TestCartRemoveMissingLine(t *testing.T) {
	svc, carts, _ := newTestCart()
	ctx := context.Background()
	_, err := svc.Add(ctx, shopper, "p-1", 1)
	require.NoError(t, err)

	assert.NoError(t, svc.Remove(ctx, shopper, "p-2"))

	lines, _ := carts.ListCart(ctx, shopper.UserID)
	assert.Len(t, lines, 1)
}

func TestCartList_HidesMissingProducts(t *testing.T) {
	svc, _, api := newTestCart()
	ctx := context.Background()
	_, err := svc.Add(ctx, shopper, "p-1", 2)
	require.NoError(t, err)
	_, err = svc.Add(ctx, shopper, "p-2", 1)
	require.NoError(t, err)

	delete(api.products, "p-2")

	items, err := svc.List(ctx, shopper)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "p-1", items[0].ProductID)
	assert.True(t, items[0].LineTotal.Equal(decimal.NewFromInt(20)))
}

func TestCheckout_SkipsShortLinesAndClearsCart(t *testing.T) {
	svc, carts, api := newTestCart()
	ctx := context.Background()
	_, err := svc.Add(ctx, shopper, "p-1", 2)
	require.NoError(t, err)
	_, err = svc.Add(ctx, shopper, "p-2", 1)
	require.NoError(t, err)

	// Someone else bought the last toaster after it was added.
	p := api.products["p-2"]
	p.Stock = 0
	api.products["p-2"] = p

	result, err := svc.Checkout(ctx, shopper)
	require.NoError(t, err)
	require.Len(t, result.Orders, 1)
	assert.Equal(t, "p-1", result.Orders[0].ProductID)
	assert.Equal(t, "cust-1", result.Orders[0].CustomerID)
	assert.Equal(t, []string{"p-2"}, result.Skipped)
	assert.Equal(t, 3, api.products["p-1"].Stock)

	lines, _ := carts.ListCart(ctx, shopper.UserID)
	assert.Empty(t, lines)
}

func TestCheckout_EmptyCart(t *testing.T) {
	svc, _, _ := newTestCart()

	_, err := svc.Checkout(context.Background(), shopper)
	assert.Equal(t, apperr.CodeInvalidInput, apperr.CodeOf(err))
}

func TestCheckout_APIFailureKeepsCart(t *testing.T) {
	svc, carts, api := newTestCart()
	ctx := context.Background()
	_, err := svc.Add(ctx, shopper, "p-1", 1)
	require.NoError(t, err)
	api.orderErr["p-1"] = errors.New("connection refused")

	_, err = svc.Checkout(ctx, shopper)
	require.Error(t, err)

	lines, _ := carts.ListCart(ctx, shopper.UserID)
	assert.Len(t, lines, 1)

	// A retried checkout reuses the line's idempotency key.
	delete(api.orderErr, "p-1")
	result, err := svc.Checkout(ctx, shopper)
	require.NoError(t, err)
	assert.Len(t, result.Orders, 1)
}

func TestCheckout_DuplicateLineSkipped(t *testing.T) {
	svc, carts, api := newTestCart()
	ctx := context.Background()
	line, err := svc.Add(ctx, shopper, "p-1", 1)
	require.NoError(t, err)

	_, err = svc.Checkout(ctx, shopper)
	require.NoError(t, err)

	// Same line re-added with the same timestamp maps to the same key.
	carts.lines[cartKey{shopper.UserID, "p-1"}] = *line
	result, err := svc.Checkout(ctx, shopper)
	require.NoError(t, err)
	assert.Empty(t, result.Orders)
	assert.Equal(t, []string{"p-1"}, result.Skipped)
	assert.Len(t, api.orders, 1)
}
