package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/example/marketplace/internal/api/middleware"
	"github.com/example/marketplace/internal/domain/order"
	"github.com/example/marketplace/internal/domain/product"
)

// SellerHandlers handles the seller-scoped catalog and fulfillment routes.
// Every operation is bound to the authenticated seller's ID; resources owned
// by other sellers surface as not found.
type SellerHandlers struct {
	products *product.Service
	orders   *order.Service
}

func NewSellerHandlers(products *product.Service, orders *order.Service) *SellerHandlers {
	return &SellerHandlers{products: products, orders: orders}
}

func (h *SellerHandlers) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var in product.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	p, err := h.products.Create(r.Context(), middleware.GetUserID(r.Context()), in)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, p)
}

func (h *SellerHandlers) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.ListBySeller(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if products == nil {
		products = []*product.Product{}
	}
	respondJSON(w, http.StatusOK, products)
}

func (h *SellerHandlers) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/seller/products/")

	var in product.UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	p, err := h.products.Update(r.Context(), middleware.GetUserID(r.Context()), id, in)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *SellerHandlers) DeactivateProduct(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/seller/products/")
	if err := h.products.Deactivate(r.Context(), middleware.GetUserID(r.Context()), id); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Product deactivated"})
}

func (h *SellerHandlers) RestockProduct(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/seller/products/")
	id = strings.TrimSuffix(id, "/restock")

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.products.Restock(r.Context(), middleware.GetUserID(r.Context()), id, req.Quantity); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Stock updated"})
}

func (h *SellerHandlers) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.SellerOrders(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if orders == nil {
		orders = []*order.Order{}
	}
	respondJSON(w, http.StatusOK, orders)
}

// UpdateItemStatus applies a fulfillment transition to a single order line
// owned by the seller.
func (h *SellerHandlers) UpdateItemStatus(w http.ResponseWriter, r *http.Request) {
	rest := extractPathParam(r.URL.Path, "/seller/orders/")
	parts := strings.Split(rest, "/")
	if len(parts) != 3 || parts[1] != "items" {
		respondError(w, "not found", http.StatusNotFound)
		return
	}
	orderID, itemID := parts[0], parts[2]

	var req struct {
		Status order.ItemStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	err := h.orders.UpdateItemStatus(r.Context(), orderID, itemID, middleware.GetUserID(r.Context()), req.Status)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Item status updated"})
}
