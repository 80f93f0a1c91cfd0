package api

import (
	"net/http"
	"strings"

	"github.com/example/marketplace/internal/api/middleware"
	"github.com/example/marketplace/internal/auth"
	"github.com/example/marketplace/internal/domain/user"
)

func NewRouter(handlers *Handlers, authHandlers *AuthHandlers, sellerHandlers *SellerHandlers, categoryHandlers *CategoryHandlers, adminHandlers *AdminHandlers, jwtService *auth.JWTService) http.Handler {
	mux := http.NewServeMux()

	requireAuth := middleware.AuthMiddleware(jwtService)
	requireSeller := chain(requireAuth, middleware.RequireRole(user.RoleSeller))
	requireAdmin := chain(requireAuth, middleware.RequireRole(user.RoleAdmin))

	// Auth
	mux.HandleFunc("/auth/register", postOnly(authHandlers.Register))
	mux.HandleFunc("/auth/login", postOnly(authHandlers.Login))
	mux.HandleFunc("/auth/refresh", postOnly(authHandlers.Refresh))
	mux.Handle("/auth/logout", requireAuth(http.HandlerFunc(postOnly(authHandlers.Logout))))
	mux.Handle("/auth/me", requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			authHandlers.Me(w, r)
		default:
			methodNotAllowed(w)
		}
	})))

	// Public catalog
	mux.HandleFunc("/products", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handlers.GetProducts(w, r)
		default:
			methodNotAllowed(w)
		}
	})
	mux.HandleFunc("/products/", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handlers.GetProduct(w, r)
		default:
			methodNotAllowed(w)
		}
	})
	mux.HandleFunc("/categories", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handlers.GetCategories(w, r)
		default:
			methodNotAllowed(w)
		}
	})

	// Cart
	mux.Handle("/cart", requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handlers.GetCart(w, r)
		case http.MethodDelete:
			handlers.ClearCart(w, r)
		default:
			methodNotAllowed(w)
		}
	})))
	mux.Handle("/cart/items", requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			handlers.AddToCart(w, r)
		default:
			methodNotAllowed(w)
		}
	})))
	mux.Handle("/cart/items/", requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPut:
			handlers.UpdateCartItem(w, r)
		case http.MethodDelete:
			handlers.RemoveFromCart(w, r)
		default:
			methodNotAllowed(w)
		}
	})))

	// Checkout and orders
	mux.Handle("/checkout", requireAuth(http.HandlerFunc(postOnly(handlers.Checkout))))
	mux.Handle("/orders", requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handlers.GetOrders(w, r)
		default:
			methodNotAllowed(w)
		}
	})))
	mux.Handle("/orders/", requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/cancel"):
			if r.Method != http.MethodPut {
				methodNotAllowed(w)
				return
			}
			handlers.CancelOrder(w, r)
		case r.Method == http.MethodGet:
			handlers.GetOrder(w, r)
		default:
			methodNotAllowed(w)
		}
	})))

	// Seller
	mux.Handle("/seller/products", requireSeller(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			sellerHandlers.ListProducts(w, r)
		case http.MethodPost:
			sellerHandlers.CreateProduct(w, r)
		default:
			methodNotAllowed(w)
		}
	})))
	mux.Handle("/seller/products/", requireSeller(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/restock") && r.Method == http.MethodPost:
			sellerHandlers.RestockProduct(w, r)
		case r.Method == http.MethodPut:
			sellerHandlers.UpdateProduct(w, r)
		case r.Method == http.MethodDelete:
			sellerHandlers.DeactivateProduct(w, r)
		default:
			methodNotAllowed(w)
		}
	})))
	mux.Handle("/seller/orders", requireSeller(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			sellerHandlers.ListOrders(w, r)
		default:
			methodNotAllowed(w)
		}
	})))
	mux.Handle("/seller/orders/", requireSeller(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPatch:
			sellerHandlers.UpdateItemStatus(w, r)
		default:
			methodNotAllowed(w)
		}
	})))

	// Admin
	mux.Handle("/admin/users", requireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			adminHandlers.ListUsers(w, r)
		default:
			methodNotAllowed(w)
		}
	})))
	mux.Handle("/admin/users/", requireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/status"):
			if r.Method != http.MethodPut {
				methodNotAllowed(w)
				return
			}
			adminHandlers.ToggleUserStatus(w, r)
		default:
			methodNotAllowed(w)
		}
	})))
	mux.Handle("/admin/categories", requireAdmin(http.HandlerFunc(postOnly(categoryHandlers.Create))))
	mux.Handle("/admin/categories/", requireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPut:
			categoryHandlers.Update(w, r)
		case http.MethodDelete:
			categoryHandlers.Deactivate(w, r)
		default:
			methodNotAllowed(w)
		}
	})))

	return withLogging(mux)
}

func chain(outer, inner func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return outer(inner(next))
	}
}

func postOnly(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		handler(w, r)
	}
}

func methodNotAllowed(w http.ResponseWriter) {
	respondError(w, "method not allowed", http.StatusMethodNotAllowed)
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		println("[API]", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
