package product_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/marketplace/internal/domain/category"
	"github.com/example/marketplace/internal/domain/product"
	"github.com/example/marketplace/internal/infrastructure/store/mocks"
)

type env struct {
	store      *mocks.ProductStore
	categories *category.Service
	svc        *product.Service
	categoryID string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		store: mocks.NewProductStore(),
	}
	catStore := mocks.NewCategoryStore()
	e.categories = category.NewService(catStore)

	cat, err := e.categories.Create(context.Background(), "Kitchen Appliances", "Everything for the kitchen", nil)
	require.NoError(t, err)
	e.categoryID = cat.ID

	e.svc = product.NewService(e.store, e.categories)
	return e
}

func validInput(categoryID string) product.CreateInput {
	return product.CreateInput{
		Name:        "Steel Kettle",
		Description: "1.5L electric kettle",
		Price:       129900,
		Stock:       25,
		Images:      []string{"https://cdn.example.com/kettle.jpg"},
		CategoryID:  categoryID,
	}
}

// ============================================
// Create Tests
// ============================================

func TestCreate_SnapshotsCategory(t *testing.T) {
	e := newEnv(t)

	p, err := e.svc.Create(context.Background(), "seller-1", validInput(e.categoryID))

	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "seller-1", p.SellerID)
	assert.Equal(t, e.categoryID, p.CategoryID)
	assert.Equal(t, "Kitchen Appliances", p.CategoryName)
	assert.True(t, p.IsActive)
}

func TestCreate_UnknownCategory(t *testing.T) {
	e := newEnv(t)

	in := validInput("no-such-category")
	_, err := e.svc.Create(context.Background(), "seller-1", in)

	assert.ErrorIs(t, err, product.ErrCategoryNotFound)
}

func TestCreate_DeactivatedCategoryRejected(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.categories.Deactivate(context.Background(), e.categoryID))

	_, err := e.svc.Create(context.Background(), "seller-1", validInput(e.categoryID))

	assert.ErrorIs(t, err, product.ErrCategoryNotFound)
}

func TestCreate_Validation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		mutate  func(*product.CreateInput)
		wantErr error
	}{
		{"short name", func(in *product.CreateInput) { in.Name = "ab" }, product.ErrInvalidName},
		{"whitespace name", func(in *product.CreateInput) { in.Name = "  a  " }, product.ErrInvalidName},
		{"negative price", func(in *product.CreateInput) { in.Price = -1 }, product.ErrInvalidPrice},
		{"negative stock", func(in *product.CreateInput) { in.Stock = -5 }, product.ErrInvalidStock},
		{"too many images", func(in *product.CreateInput) {
			in.Images = []string{"a", "b", "c", "d", "e", "f"}
		}, product.ErrTooManyImages},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput(e.categoryID)
			tt.mutate(&in)
			_, err := e.svc.Create(ctx, "seller-1", in)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCreate_FreeProductAllowed(t *testing.T) {
	e := newEnv(t)

	in := validInput(e.categoryID)
	in.Price = 0
	_, err := e.svc.Create(context.Background(), "seller-1", in)

	assert.NoError(t, err)
}

// ============================================
// Update Tests
// ============================================

func TestUpdate_PartialEdit(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	p, err := e.svc.Create(ctx, "seller-1", validInput(e.categoryID))
	require.NoError(t, err)

	newPrice := 99900
	updated, err := e.svc.Update(ctx, "seller-1", p.ID, product.UpdateInput{Price: &newPrice})

	require.NoError(t, err)
	assert.Equal(t, 99900, updated.Price)
	assert.Equal(t, p.Name, updated.Name)
	assert.Equal(t, p.Description, updated.Description)
}

func TestUpdate_OtherSellersProductIsNotFound(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	p, err := e.svc.Create(ctx, "seller-1", validInput(e.categoryID))
	require.NoError(t, err)

	name := "Hijacked"
	_, err = e.svc.Update(ctx, "seller-2", p.ID, product.UpdateInput{Name: &name})

	assert.ErrorIs(t, err, product.ErrProductNotFound)
}

func TestDeactivate_HidesFromPublicCatalog(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	p, err := e.svc.Create(ctx, "seller-1", validInput(e.categoryID))
	require.NoError(t, err)

	require.NoError(t, e.svc.Deactivate(ctx, "seller-1", p.ID))

	_, err = e.svc.GetActive(ctx, p.ID)
	assert.ErrorIs(t, err, product.ErrProductNotFound)

	// Still visible to its seller.
	mine, err := e.svc.ListBySeller(ctx, "seller-1")
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

// ============================================
// Restock Tests
// ============================================

func TestRestock_AddsQuantity(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	p, err := e.svc.Create(ctx, "seller-1", validInput(e.categoryID))
	require.NoError(t, err)

	require.NoError(t, e.svc.Restock(ctx, "seller-1", p.ID, 10))

	assert.Equal(t, 35, e.store.Stock(p.ID))
}

func TestRestock_Invalid(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	p, err := e.svc.Create(ctx, "seller-1", validInput(e.categoryID))
	require.NoError(t, err)

	assert.ErrorIs(t, e.svc.Restock(ctx, "seller-1", p.ID, 0), product.ErrInvalidStock)
	assert.ErrorIs(t, e.svc.Restock(ctx, "seller-1", p.ID, -3), product.ErrInvalidStock)
	assert.ErrorIs(t, e.svc.Restock(ctx, "seller-2", p.ID, 5), product.ErrProductNotFound)
}
