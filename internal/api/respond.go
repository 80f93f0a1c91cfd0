package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/example/marketplace/internal/domain/cart"
	"github.com/example/marketplace/internal/domain/category"
	"github.com/example/marketplace/internal/domain/order"
	"github.com/example/marketplace/internal/domain/product"
	"github.com/example/marketplace/internal/domain/user"
)

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, status, map[string]any{"success": false, "message": message})
}

// respondDomainError maps service errors to HTTP statuses. Unrecognized
// errors are treated as internal: logged server-side, generic to the client.
func respondDomainError(w http.ResponseWriter, err error) {
	var stockErr *cart.InsufficientStockError
	if errors.As(err, &stockErr) {
		respondJSON(w, http.StatusConflict, map[string]any{
			"success":        false,
			"message":        stockErr.Error(),
			"maximumAllowed": stockErr.MaximumAllowed,
		})
		return
	}

	switch {
	case isBadRequest(err):
		respondError(w, err.Error(), http.StatusBadRequest)
	case isNotFound(err):
		respondError(w, err.Error(), http.StatusNotFound)
	case isConflict(err):
		respondError(w, err.Error(), http.StatusConflict)
	default:
		log.Printf("[API] Internal error: %v", err)
		respondError(w, "internal server error", http.StatusInternalServerError)
	}
}

func isBadRequest(err error) bool {
	for _, target := range []error{
		order.ErrInvalidAddress,
		order.ErrEmptyCart,
		order.ErrOutOfStock,
		order.ErrInvalidTransition,
		order.ErrNotCancellable,
		order.ErrInvalidStatus,
		cart.ErrInvalidQuantity,
		cart.ErrInvalidProduct,
		product.ErrInvalidName,
		product.ErrInvalidPrice,
		product.ErrInvalidStock,
		product.ErrTooManyImages,
		category.ErrInvalidName,
		user.ErrInvalidEmail,
		user.ErrInvalidName,
		user.ErrInvalidRole,
		user.ErrInvalidMobile,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func isNotFound(err error) bool {
	for _, target := range []error{
		order.ErrOrderNotFound,
		order.ErrItemNotFound,
		cart.ErrItemNotFound,
		cart.ErrProductUnavailable,
		product.ErrProductNotFound,
		product.ErrCategoryNotFound,
		category.ErrCategoryNotFound,
		user.ErrUserNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func isConflict(err error) bool {
	for _, target := range []error{
		cart.ErrInsufficientStock,
		cart.ErrVersionConflict,
		user.ErrEmailTaken,
		category.ErrDuplicateSlug,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
