package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/example/marketplace/internal/domain/product"
	"github.com/google/uuid"
)

// Store is the persistence port for carts.
type Store interface {
	// GetByUser returns the buyer's cart, or product-agnostic not-found
	// when no cart exists yet.
	GetByUser(ctx context.Context, userID string) (*Cart, error)
	// EnsureCart creates the buyer's cart lazily and returns it. At most
	// one cart per buyer is enforced by the store.
	EnsureCart(ctx context.Context, userID string) (*Cart, error)
	// PutItem inserts the item or replaces the quantity of an existing
	// item with the same ID.
	PutItem(ctx context.Context, cartID string, item Item) error
	// RemoveItem is idempotent; removing an absent item is not an error.
	RemoveItem(ctx context.Context, cartID, itemID string) error
	// Clear is idempotent; clearing an empty cart is not an error.
	Clear(ctx context.Context, cartID string) error
}

// ProductReader resolves live products for validation and display.
type ProductReader interface {
	GetByID(ctx context.Context, id string) (*product.Product, error)
}

type Service struct {
	store    Store
	products ProductReader
}

func NewService(store Store, products ProductReader) *Service {
	return &Service{store: store, products: products}
}

// View returns the cart enriched with live availability. A buyer without a
// cart gets an empty view with zeroed totals, not an error.
func (s *Service) View(ctx context.Context, userID string) (*View, error) {
	view := &View{
		Items: []ViewItem{},
		Meta:  ViewMeta{Currency: currency, Warnings: []string{}},
	}

	c, err := s.store.GetByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrCartNotFound) {
			return view, nil
		}
		return nil, err
	}

	for _, item := range c.Items {
		p, err := s.products.GetByID(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, product.ErrProductNotFound) {
				continue
			}
			return nil, err
		}

		available := 0
		if p.IsActive {
			available = min(item.Quantity, p.Stock)
		}

		vi := ViewItem{
			ID: item.ID,
			Product: ProductSummary{
				ID:          p.ID,
				Name:        p.Name,
				Price:       p.Price,
				Images:      p.Images,
				Category:    p.CategoryName,
				StockStatus: StockStatus(p.Stock),
			},
			RequestedQuantity: item.Quantity,
			AvailableQuantity: available,
			LineTotal:         p.Price * available,
			Warnings:          []string{},
		}
		if available < item.Quantity {
			vi.Warnings = append(vi.Warnings,
				fmt.Sprintf("Only %d items available (requested %d)", available, item.Quantity))
		}

		view.Items = append(view.Items, vi)
		view.Meta.TotalItems += available
		view.Meta.TotalAmount += vi.LineTotal
		view.Meta.Warnings = append(view.Meta.Warnings, vi.Warnings...)
	}

	view.Meta.HasIssues = len(view.Meta.Warnings) > 0
	return view, nil
}

// Add stages quantity of a product, merging into an existing entry. The
// combined quantity is validated against live stock; on violation the error
// reports the maximum additional quantity still allowed, floored at zero.
func (s *Service) Add(ctx context.Context, userID, productID string, quantity int) (*Item, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, ErrInvalidProduct
	}
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, product.ErrProductNotFound) {
			return nil, ErrProductUnavailable
		}
		return nil, err
	}
	if !p.IsActive {
		return nil, ErrProductUnavailable
	}

	c, err := s.store.EnsureCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	existing := c.FindByProduct(productID)
	existingQty := 0
	if existing != nil {
		existingQty = existing.Quantity
	}

	if existingQty+quantity > p.Stock {
		return nil, &InsufficientStockError{
			ProductID:      productID,
			MaximumAllowed: max(p.Stock-existingQty, 0),
		}
	}

	item := Item{ID: uuid.New().String(), ProductID: productID, Quantity: quantity}
	if existing != nil {
		item = Item{ID: existing.ID, ProductID: productID, Quantity: existingQty + quantity}
	}

	if err := s.store.PutItem(ctx, c.ID, item); err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateItem replaces an entry's quantity after revalidating against live stock.
func (s *Service) UpdateItem(ctx context.Context, userID, itemID string, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	c, err := s.store.GetByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrCartNotFound) {
			return ErrItemNotFound
		}
		return err
	}
	item := c.FindItem(itemID)
	if item == nil {
		return ErrItemNotFound
	}

	p, err := s.products.GetByID(ctx, item.ProductID)
	if err != nil {
		if errors.Is(err, product.ErrProductNotFound) {
			return ErrProductUnavailable
		}
		return err
	}
	if quantity > p.Stock {
		return ErrInsufficientStock
	}

	return s.store.PutItem(ctx, c.ID, Item{ID: item.ID, ProductID: item.ProductID, Quantity: quantity})
}

// RemoveItem deletes an entry. Removing a non-existent item is not an error.
func (s *Service) RemoveItem(ctx context.Context, userID, itemID string) error {
	c, err := s.store.GetByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrCartNotFound) {
			return nil
		}
		return err
	}
	return s.store.RemoveItem(ctx, c.ID, itemID)
}

// Clear empties the cart without deleting it. Clearing an absent or already
// empty cart is not an error.
func (s *Service) Clear(ctx context.Context, userID string) error {
	c, err := s.store.GetByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrCartNotFound) {
			return nil
		}
		return err
	}
	return s.store.Clear(ctx, c.ID)
}
