package product

import (
	"context"
	"strings"
	"time"

	"github.com/example/marketplace/internal/domain/category"
	"github.com/google/uuid"
)

// Store is the persistence port for products. DecrementStock and
// IncrementStock must be atomic conditional operations at the storage layer;
// DecrementStock fails with ErrInsufficientStock instead of letting stock go
// negative.
type Store interface {
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, id string) (*Product, error)
	ListActive(ctx context.Context) ([]*Product, error)
	ListBySeller(ctx context.Context, sellerID string) ([]*Product, error)
	DecrementStock(ctx context.Context, id string, quantity int) error
	IncrementStock(ctx context.Context, id string, quantity int) error
}

// CategoryReader resolves categories for the snapshot stored on each product.
type CategoryReader interface {
	GetCategory(ctx context.Context, id string) (*category.Category, error)
}

type Service struct {
	store      Store
	categories CategoryReader
}

func NewService(store Store, categories CategoryReader) *Service {
	return &Service{store: store, categories: categories}
}

// CreateInput carries the seller-supplied fields for a new product.
type CreateInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       int      `json:"price"`
	Stock       int      `json:"stock"`
	Images      []string `json:"images"`
	CategoryID  string   `json:"category_id"`
}

func (s *Service) Create(ctx context.Context, sellerID string, in CreateInput) (*Product, error) {
	cat, err := s.categories.GetCategory(ctx, in.CategoryID)
	if err != nil {
		return nil, ErrCategoryNotFound
	}

	now := time.Now()
	p := &Product{
		ID:           uuid.New().String(),
		SellerID:     sellerID,
		Name:         strings.TrimSpace(in.Name),
		Description:  strings.TrimSpace(in.Description),
		Price:        in.Price,
		Stock:        in.Stock,
		Images:       in.Images,
		CategoryID:   cat.ID,
		CategoryName: cat.Name,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := p.validate(); err != nil {
		return nil, err
	}

	if err := s.store.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// UpdateInput carries optional catalog edits. Nil fields are left unchanged.
// Stock is deliberately absent: quantity moves only through the atomic
// increment/decrement operations.
type UpdateInput struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Price       *int      `json:"price"`
	Images      *[]string `json:"images"`
}

// Update edits a product owned by the seller. A product owned by someone else
// is reported as not found rather than forbidden.
func (s *Service) Update(ctx context.Context, sellerID, productID string, in UpdateInput) (*Product, error) {
	p, err := s.loadOwned(ctx, sellerID, productID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		p.Description = strings.TrimSpace(*in.Description)
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.Images != nil {
		p.Images = *in.Images
	}
	p.UpdatedAt = time.Now()

	if err := p.validate(); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Deactivate soft-deletes a product. Historical order lines keep their
// snapshot; the product just stops being purchasable.
func (s *Service) Deactivate(ctx context.Context, sellerID, productID string) error {
	p, err := s.loadOwned(ctx, sellerID, productID)
	if err != nil {
		return err
	}
	p.IsActive = false
	p.UpdatedAt = time.Now()
	return s.store.Update(ctx, p)
}

// Restock adds quantity to a seller's product through the atomic increment.
func (s *Service) Restock(ctx context.Context, sellerID, productID string, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidStock
	}
	if _, err := s.loadOwned(ctx, sellerID, productID); err != nil {
		return err
	}
	return s.store.IncrementStock(ctx, productID, quantity)
}

func (s *Service) ListBySeller(ctx context.Context, sellerID string) ([]*Product, error) {
	return s.store.ListBySeller(ctx, sellerID)
}

// ListActive returns the public catalog.
func (s *Service) ListActive(ctx context.Context) ([]*Product, error) {
	return s.store.ListActive(ctx)
}

// GetActive returns a single product for public browsing.
func (s *Service) GetActive(ctx context.Context, id string) (*Product, error) {
	p, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, ErrProductNotFound
	}
	return p, nil
}

func (s *Service) loadOwned(ctx context.Context, sellerID, productID string) (*Product, error) {
	p, err := s.store.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p.SellerID != sellerID {
		return nil, ErrProductNotFound
	}
	return p, nil
}
