package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/marketplace/internal/auth"
	"github.com/example/marketplace/internal/domain/cart"
	"github.com/example/marketplace/internal/domain/category"
	"github.com/example/marketplace/internal/domain/order"
	"github.com/example/marketplace/internal/domain/product"
	"github.com/example/marketplace/internal/domain/user"
	"github.com/example/marketplace/internal/infrastructure/store/mocks"
	"github.com/example/marketplace/internal/notification"
)

type routerEnv struct {
	products *mocks.ProductStore
	carts    *mocks.CartStore
	orders   *mocks.OrderStore
	users    *mocks.UserStore

	userSvc  *user.Service
	orderSvc *order.Service
	jwt      *auth.JWTService
	router   http.Handler
}

func newRouterEnv() *routerEnv {
	e := &routerEnv{
		products: mocks.NewProductStore(),
		carts:    mocks.NewCartStore(),
		orders:   mocks.NewOrderStore(),
		users:    mocks.NewUserStore(),
	}

	categorySvc := category.NewService(mocks.NewCategoryStore())
	productSvc := product.NewService(e.products, categorySvc)
	cartSvc := cart.NewService(e.carts, e.products)
	e.orderSvc = order.NewService(e.orders, e.products, e.carts, notification.NopPublisher{})
	e.userSvc = user.NewService(e.users)
	e.jwt = auth.NewJWTService("router-test-secret-0123456789abcdef", 15*time.Minute, time.Hour)

	handlers := NewHandlers(cartSvc, e.orderSvc, productSvc, categorySvc)
	authHandlers := NewAuthHandlers(e.userSvc, e.users, e.jwt, NopAlerter{})
	sellerHandlers := NewSellerHandlers(productSvc, e.orderSvc)
	categoryHandlers := NewCategoryHandlers(categorySvc)
	adminHandlers := NewAdminHandlers(e.userSvc)
	e.router = NewRouter(handlers, authHandlers, sellerHandlers, categoryHandlers, adminHandlers, e.jwt)
	return e
}

func (e *routerEnv) do(t *testing.T, method, path, userID, role, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if userID != "" {
		token, _, err := e.jwt.GenerateAccessToken(userID, userID+"@example.com", role)
		require.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: "access_token", Value: token})
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *routerEnv) placeOrder(t *testing.T, userID string) string {
	t.Helper()
	ctx := context.Background()
	now := time.Now()
	e.products.Seed(&product.Product{
		ID:        "p1",
		SellerID:  "seller-1",
		Name:      "Steel Kettle",
		Price:     500,
		Stock:     10,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	})

	c, err := e.carts.EnsureCart(ctx, userID)
	require.NoError(t, err)
	require.NoError(t, e.carts.PutItem(ctx, c.ID, cart.Item{ID: "item-1", ProductID: "p1", Quantity: 2}))

	o, err := e.orderSvc.Checkout(ctx, userID, order.Address{
		Street:     "12 MG Road",
		City:       "Bengaluru",
		State:      "Karnataka",
		PostalCode: "560001",
	})
	require.NoError(t, err)
	return o.ID
}

// ============================================
// Order Route Tests
// ============================================

func TestRouter_CancelRouteIsPutOnly(t *testing.T) {
	e := newRouterEnv()
	orderID := e.placeOrder(t, "buyer-1")

	rec := e.do(t, http.MethodGet, "/orders/"+orderID+"/cancel", "buyer-1", user.RoleUser, "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = e.do(t, http.MethodPost, "/orders/"+orderID+"/cancel", "buyer-1", user.RoleUser, "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	// The order detail itself is still readable.
	rec = e.do(t, http.MethodGet, "/orders/"+orderID, "buyer-1", user.RoleUser, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodPut, "/orders/"+orderID+"/cancel", "buyer-1", user.RoleUser, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	o, err := e.orders.GetByID(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusCancelled, o.Status)
}

// ============================================
// Admin Route Tests
// ============================================

func TestRouter_AdminTogglesAccountStatus(t *testing.T) {
	e := newRouterEnv()
	ctx := context.Background()

	registered, err := e.userSvc.Register(ctx, "buyer@example.com", "password123", "Asha Rao", user.RoleUser, "", "")
	require.NoError(t, err)

	rec := e.do(t, http.MethodPut, "/admin/users/"+registered.ID+"/status", "admin-1", user.RoleAdmin, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	u, err := e.users.GetByID(ctx, registered.ID)
	require.NoError(t, err)
	assert.False(t, u.IsActive)

	rec = e.do(t, http.MethodPut, "/admin/users/"+registered.ID+"/status", "admin-1", user.RoleAdmin, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	u, err = e.users.GetByID(ctx, registered.ID)
	require.NoError(t, err)
	assert.True(t, u.IsActive)
}

func TestRouter_AdminRoutesRejectOtherRoles(t *testing.T) {
	e := newRouterEnv()

	rec := e.do(t, http.MethodGet, "/admin/users", "buyer-1", user.RoleUser, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = e.do(t, http.MethodPut, "/admin/users/some-id/status", "seller-1", user.RoleSeller, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = e.do(t, http.MethodGet, "/admin/users", "", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_AdminListsUsers(t *testing.T) {
	e := newRouterEnv()
	ctx := context.Background()

	_, err := e.userSvc.Register(ctx, "buyer@example.com", "password123", "Asha Rao", user.RoleUser, "", "")
	require.NoError(t, err)
	_, err = e.userSvc.Register(ctx, "seller@example.com", "password123", "Vikram Shah", user.RoleSeller, "", "")
	require.NoError(t, err)

	rec := e.do(t, http.MethodGet, "/admin/users?role=seller", "admin-1", user.RoleAdmin, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "seller@example.com")
	assert.NotContains(t, rec.Body.String(), "buyer@example.com")
}
