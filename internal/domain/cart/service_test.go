package cart_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/marketplace/internal/domain/cart"
	"github.com/example/marketplace/internal/domain/product"
	"github.com/example/marketplace/internal/infrastructure/store/mocks"
)

type env struct {
	products *mocks.ProductStore
	store    *mocks.CartStore
	svc      *cart.Service
}

func newEnv() *env {
	e := &env{
		products: mocks.NewProductStore(),
		store:    mocks.NewCartStore(),
	}
	e.svc = cart.NewService(e.store, e.products)
	return e
}

func (e *env) seedProduct(id string, price, stock int, active bool) {
	now := time.Now()
	e.products.Seed(&product.Product{
		ID:           id,
		SellerID:     "seller-1",
		Name:         "Product " + id,
		Price:        price,
		Stock:        stock,
		CategoryName: "Gadgets",
		IsActive:     active,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

// ============================================
// Add Tests
// ============================================

func TestAdd_NewItem(t *testing.T) {
	e := newEnv()
	e.seedProduct("p1", 100, 10, true)

	item, err := e.svc.Add(context.Background(), "buyer-1", "p1", 3)

	require.NoError(t, err)
	assert.Equal(t, "p1", item.ProductID)
	assert.Equal(t, 3, item.Quantity)
	assert.NotEmpty(t, item.ID)
}

func TestAdd_MergesIntoExistingEntry(t *testing.T) {
	e := newEnv()
	e.seedProduct("p1", 100, 10, true)
	ctx := context.Background()

	first, err := e.svc.Add(ctx, "buyer-1", "p1", 2)
	require.NoError(t, err)

	second, err := e.svc.Add(ctx, "buyer-1", "p1", 3)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 5, second.Quantity)

	c, err := e.store.GetByUser(ctx, "buyer-1")
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, 5, c.Items[0].Quantity)
}

func TestAdd_ReportsMaximumAllowed(t *testing.T) {
	e := newEnv()
	e.seedProduct("p1", 100, 5, true)
	ctx := context.Background()

	_, err := e.svc.Add(ctx, "buyer-1", "p1", 3)
	require.NoError(t, err)

	// 3 staged of 5 in stock; at most 2 more can be added.
	_, err = e.svc.Add(ctx, "buyer-1", "p1", 3)

	var stockErr *cart.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "p1", stockErr.ProductID)
	assert.Equal(t, 2, stockErr.MaximumAllowed)
	assert.ErrorIs(t, err, cart.ErrInsufficientStock)
}

func TestAdd_MaximumAllowedFlooredAtZero(t *testing.T) {
	e := newEnv()
	e.seedProduct("p1", 100, 2, true)
	ctx := context.Background()

	_, err := e.svc.Add(ctx, "buyer-1", "p1", 2)
	require.NoError(t, err)

	// Stock dropped to 1 after the buyer staged 2.
	p, err := e.products.GetByID(ctx, "p1")
	require.NoError(t, err)
	require.NoError(t, e.products.DecrementStock(ctx, p.ID, 1))

	_, err = e.svc.Add(ctx, "buyer-1", "p1", 1)

	var stockErr *cart.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 0, stockErr.MaximumAllowed)
}

func TestAdd_InvalidInputs(t *testing.T) {
	e := newEnv()
	e.seedProduct("p1", 100, 10, true)
	ctx := context.Background()

	_, err := e.svc.Add(ctx, "buyer-1", "", 1)
	assert.ErrorIs(t, err, cart.ErrInvalidProduct)

	_, err = e.svc.Add(ctx, "buyer-1", "   ", 1)
	assert.ErrorIs(t, err, cart.ErrInvalidProduct)

	_, err = e.svc.Add(ctx, "buyer-1", "p1", 0)
	assert.ErrorIs(t, err, cart.ErrInvalidQuantity)

	_, err = e.svc.Add(ctx, "buyer-1", "p1", -2)
	assert.ErrorIs(t, err, cart.ErrInvalidQuantity)
}

// brokenProductReader simulates a product store outage.
type brokenProductReader struct {
	err error
}

func (r brokenProductReader) GetByID(ctx context.Context, id string) (*product.Product, error) {
	return nil, r.err
}

func TestAdd_StoreFailureIsNotAvailability(t *testing.T) {
	storeErr := errors.New("connection refused")
	svc := cart.NewService(mocks.NewCartStore(), brokenProductReader{err: storeErr})

	_, err := svc.Add(context.Background(), "buyer-1", "p1", 1)

	assert.ErrorIs(t, err, storeErr)
	assert.NotErrorIs(t, err, cart.ErrProductUnavailable)
}

func TestUpdateItem_StoreFailurePropagates(t *testing.T) {
	e := newEnv()
	e.seedProduct("p1", 100, 10, true)
	ctx := context.Background()

	item, err := e.svc.Add(ctx, "buyer-1", "p1", 2)
	require.NoError(t, err)

	storeErr := errors.New("connection refused")
	broken := cart.NewService(e.store, brokenProductReader{err: storeErr})

	err = broken.UpdateItem(ctx, "buyer-1", item.ID, 3)
	assert.ErrorIs(t, err, storeErr)
	assert.NotErrorIs(t, err, cart.ErrInsufficientStock)
}

func TestUpdateItem_ProductGoneIsUnavailable(t *testing.T) {
	e := newEnv()
	e.seedProduct("p1", 100, 10, true)
	ctx := context.Background()

	item, err := e.svc.Add(ctx, "buyer-1", "p1", 2)
	require.NoError(t, err)

	gone := cart.NewService(e.store, brokenProductReader{err: product.ErrProductNotFound})

	err = gone.UpdateItem(ctx, "buyer-1", item.ID, 3)
	assert.ErrorIs(t, err, cart.ErrProductUnavailable)
}

func TestAdd_UnknownOrInactiveProduct(t *testing.T) {
	e := newEnv()
	e.seedProduct("inactive", 100, 10, false)
	ctx := context.Background()

	_, err := e.svc.Add(ctx, "buyer-1", "missing", 1)
	assert.ErrorIs(t, err, cart.ErrProductUnavailable)

	_, err = e.svc.Add(ctx, "buyer-1", "inactive", 1)
	assert.ErrorIs(t, err, cart.ErrProductUnavailable)
}

// ============================================
// View Tests
// ============================================

func TestView_NoCartGivesEmptyView(t *testing.T) {
	e := newEnv()

	view, err := e.svc.View(context.Background(), "buyer-1")

	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.Equal(t, 0, view.Meta.TotalItems)
	assert.Equal(t, 0, view.Meta.TotalAmount)
	assert.Equal(t, "INR", view.Meta.Currency)
	assert.False(t, view.Meta.HasIssues)
}

func TestView_ComputesTotalsAgainstLiveStock(t *testing.T) {
	e := newEnv()
	e.seedProduct("p1", 100, 10, true)
	e.seedProduct("p2", 250, 10, true)
	ctx := context.Background()

	_, err := e.svc.Add(ctx, "buyer-1", "p1", 2)
	require.NoError(t, err)
	_, err = e.svc.Add(ctx, "buyer-1", "p2", 1)
	require.NoError(t, err)

	view, err := e.svc.View(ctx, "buyer-1")

	require.NoError(t, err)
	require.Len(t, view.Items, 2)
	assert.Equal(t, 3, view.Meta.TotalItems)
	assert.Equal(t, 2*100+250, view.Meta.TotalAmount)
	assert.False(t, view.Meta.HasIssues)
}

func TestView_WarnsWhenStockDropped(t *testing.T) {
	e := newEnv()
	e.seedProduct("p1", 100, 10, true)
	ctx := context.Background()

	_, err := e.svc.Add(ctx, "buyer-1", "p1", 5)
	require.NoError(t, err)

	// Stock collapses to 2 after staging.
	require.NoError(t, e.products.DecrementStock(ctx, "p1", 8))

	view, err := e.svc.View(ctx, "buyer-1")

	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	vi := view.Items[0]
	assert.Equal(t, 5, vi.RequestedQuantity)
	assert.Equal(t, 2, vi.AvailableQuantity)
	assert.Equal(t, 200, vi.LineTotal)
	assert.Contains(t, vi.Warnings, "Only 2 items available (requested 5)")
	assert.True(t, view.Meta.HasIssues)
	assert.Equal(t, 2, view.Meta.TotalItems)
	assert.Equal(t, 200, view.Meta.TotalAmount)
	assert.Equal(t, "low-stock", vi.Product.StockStatus)
}

func TestView_InactiveProductContributesNothing(t *testing.T) {
	e := newEnv()
	e.seedProduct("p1", 100, 10, true)
	ctx := context.Background()

	_, err := e.svc.Add(ctx, "buyer-1", "p1", 2)
	require.NoError(t, err)

	p, err := e.products.GetByID(ctx, "p1")
	require.NoError(t, err)
	p.IsActive = false
	e.products.Seed(p)

	view, err := e.svc.View(ctx, "buyer-1")

	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 0, view.Items[0].AvailableQuantity)
	assert.Equal(t, 0, view.Items[0].LineTotal)
	assert.Equal(t, 0, view.Meta.TotalAmount)
	assert.True(t, view.Meta.HasIssues)
}

func TestStockStatus_Buckets(t *testing.T) {
	assert.Equal(t, "in-stock", cart.StockStatus(6))
	assert.Equal(t, "in-stock", cart.StockStatus(100))
	assert.Equal(t, "low-stock", cart.StockStatus(5))
	assert.Equal(t, "low-stock", cart.StockStatus(1))
	assert.Equal(t, "out-of-stock", cart.StockStatus(0))
}

// ============================================
// Update / Remove / Clear Tests
// ============================================

func TestUpdateItem_ReplacesQuantity(t *testing.T) {
	e := newEnv()
	e.seedProduct("p1", 100, 10, true)
	ctx := context.Background()

	item, err := e.svc.Add(ctx, "buyer-1", "p1", 2)
	require.NoError(t, err)

	require.NoError(t, e.svc.UpdateItem(ctx, "buyer-1", item.ID, 7))

	c, err := e.store.GetByUser(ctx, "buyer-1")
	require.NoError(t, err)
	assert.Equal(t, 7, c.Items[0].Quantity)
}

func TestUpdateItem_Errors(t *testing.T) {
	e := newEnv()
	e.seedProduct("p1", 100, 5, true)
	ctx := context.Background()

	item, err := e.svc.Add(ctx, "buyer-1", "p1", 2)
	require.NoError(t, err)

	assert.ErrorIs(t, e.svc.UpdateItem(ctx, "buyer-1", item.ID, 0), cart.ErrInvalidQuantity)
	assert.ErrorIs(t, e.svc.UpdateItem(ctx, "buyer-1", item.ID, 6), cart.ErrInsufficientStock)
	assert.ErrorIs(t, e.svc.UpdateItem(ctx, "buyer-1", "no-such-item", 1), cart.ErrItemNotFound)
	assert.ErrorIs(t, e.svc.UpdateItem(ctx, "cartless-user", item.ID, 1), cart.ErrItemNotFound)
}

func TestRemoveItem_Idempotent(t *testing.T) {
	e := newEnv()
	e.seedProduct("p1", 100, 10, true)
	ctx := context.Background()

	item, err := e.svc.Add(ctx, "buyer-1", "p1", 2)
	require.NoError(t, err)

	require.NoError(t, e.svc.RemoveItem(ctx, "buyer-1", item.ID))
	// Removing again, or removing from a user without a cart, is fine.
	require.NoError(t, e.svc.RemoveItem(ctx, "buyer-1", item.ID))
	require.NoError(t, e.svc.RemoveItem(ctx, "cartless-user", item.ID))
}

func TestClear_Idempotent(t *testing.T) {
	e := newEnv()
	e.seedProduct("p1", 100, 10, true)
	ctx := context.Background()

	_, err := e.svc.Add(ctx, "buyer-1", "p1", 2)
	require.NoError(t, err)

	require.NoError(t, e.svc.Clear(ctx, "buyer-1"))
	require.NoError(t, e.svc.Clear(ctx, "buyer-1"))
	require.NoError(t, e.svc.Clear(ctx, "cartless-user"))

	c, err := e.store.GetByUser(ctx, "buyer-1")
	require.NoError(t, err)
	assert.Empty(t, c.Items)
}
