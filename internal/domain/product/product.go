package product

import (
	"errors"
	"strings"
	"time"
)

const MaxImages = 5

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidName       = errors.New("product name must be at least 3 characters")
	ErrInvalidPrice      = errors.New("price must not be negative")
	ErrInvalidStock      = errors.New("stock must not be negative")
	ErrTooManyImages     = errors.New("exceeds maximum of 5 images")
	ErrCategoryNotFound  = errors.New("category not found")
)

// Product is a catalog entry owned by a seller. Stock is the authoritative
// available quantity and is only ever changed through the store's atomic
// conditional increment/decrement operations.
type Product struct {
	ID           string    `json:"id"`
	SellerID     string    `json:"seller_id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Price        int       `json:"price"` // minor currency units
	Stock        int       `json:"stock"`
	Images       []string  `json:"images,omitempty"`
	CategoryID   string    `json:"category_id"`
	CategoryName string    `json:"category_name"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// FirstImage returns the primary image URL, or empty if none.
func (p *Product) FirstImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

func (p *Product) validate() error {
	if len(strings.TrimSpace(p.Name)) < 3 {
		return ErrInvalidName
	}
	if p.Price < 0 {
		return ErrInvalidPrice
	}
	if p.Stock < 0 {
		return ErrInvalidStock
	}
	if len(p.Images) > MaxImages {
		return ErrTooManyImages
	}
	return nil
}
