package cart

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidQuantity    = errors.New("quantity must be a positive integer")
	ErrInvalidProduct     = errors.New("invalid product identifier")
	ErrProductUnavailable = errors.New("product not found or inactive")
	ErrCartNotFound       = errors.New("cart not found")
	ErrItemNotFound       = errors.New("cart item not found")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrVersionConflict    = errors.New("cart was modified concurrently")
)

// InsufficientStockError reports how much of a product can still be added,
// floored at zero.
type InsufficientStockError struct {
	ProductID      string
	MaximumAllowed int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: at most %d more can be added", e.ProductID, e.MaximumAllowed)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// Item is one product/quantity pair staged in a cart. No stock snapshot is
// kept here; availability is always resolved against live inventory.
type Item struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Cart is the per-buyer staging list, exactly one per buyer. Version is
// bumped by checkout as its double-submission guard.
type Cart struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Items     []Item    `json:"items"`
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FindByProduct returns the entry for a product, if staged.
func (c *Cart) FindByProduct(productID string) *Item {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return &c.Items[i]
		}
	}
	return nil
}

// FindItem returns the entry with the given item ID.
func (c *Cart) FindItem(itemID string) *Item {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			return &c.Items[i]
		}
	}
	return nil
}

// ViewItem is a cart entry enriched with live product data. AvailableQuantity
// is min(requested, stock) for an active product and 0 otherwise; LineTotal
// uses the current price and the available quantity.
type ViewItem struct {
	ID                string         `json:"id"`
	Product           ProductSummary `json:"product"`
	RequestedQuantity int            `json:"requestedQuantity"`
	AvailableQuantity int            `json:"availableQuantity"`
	LineTotal         int            `json:"lineTotal"`
	Warnings          []string       `json:"warnings"`
}

type ProductSummary struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Price       int      `json:"price"`
	Images      []string `json:"images,omitempty"`
	Category    string   `json:"category,omitempty"`
	StockStatus string   `json:"stockStatus"`
}

type ViewMeta struct {
	TotalItems  int      `json:"totalItems"`
	TotalAmount int      `json:"totalAmount"`
	Currency    string   `json:"currency"`
	Warnings    []string `json:"warnings"`
	HasIssues   bool     `json:"hasIssues"`
}

// View is the buyer-facing cart projection against live inventory.
type View struct {
	Items []ViewItem `json:"items"`
	Meta  ViewMeta   `json:"meta"`
}

const currency = "INR"

// StockStatus buckets a stock level for display.
func StockStatus(stock int) string {
	switch {
	case stock > 5:
		return "in-stock"
	case stock > 0:
		return "low-stock"
	default:
		return "out-of-stock"
	}
}
