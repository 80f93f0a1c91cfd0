package order

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/example/marketplace/internal/domain/cart"
	"github.com/example/marketplace/internal/domain/product"
	"github.com/google/uuid"
)

// Store is the persistence port for the order ledger.
type Store interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	ListByUser(ctx context.Context, userID string) ([]*Order, error)
	// ListBySeller returns orders containing at least one line owned by
	// the seller.
	ListBySeller(ctx context.Context, sellerID string) ([]*Order, error)
	// MarkCancelled flips the header from pending to cancelled and
	// cascades every line status to cancelled in one atomic step. It
	// returns ErrOrderNotFound when no order matches (id, user) and
	// ErrNotCancellable when the header is not pending at the moment of
	// the update. The returned order carries the pre-cancellation lines
	// for restocking.
	MarkCancelled(ctx context.Context, orderID, userID string) (*Order, error)
	// GetItemForSeller loads a line scoped by (order, item, seller); any
	// mismatch is ErrItemNotFound so non-owning sellers cannot probe for
	// order existence.
	GetItemForSeller(ctx context.Context, orderID, itemID, sellerID string) (*Item, error)
	// SetItemStatus updates a line status conditionally on its current
	// value, failing with ErrInvalidTransition if the line moved since it
	// was read.
	SetItemStatus(ctx context.Context, orderID, itemID string, from, to ItemStatus) error
}

// ProductStore is the inventory port. Decrement and increment are atomic
// conditional operations at the storage layer; a plain read-then-write is
// not an acceptable implementation.
type ProductStore interface {
	GetByID(ctx context.Context, id string) (*product.Product, error)
	DecrementStock(ctx context.Context, id string, quantity int) error
	IncrementStock(ctx context.Context, id string, quantity int) error
}

// CartStore is the slice of the cart port checkout needs.
type CartStore interface {
	GetByUser(ctx context.Context, userID string) (*cart.Cart, error)
	// BumpVersion is the checkout double-submission guard: it increments
	// the cart version only if it still matches, failing with
	// cart.ErrVersionConflict otherwise.
	BumpVersion(ctx context.Context, cartID string, fromVersion int) error
	Clear(ctx context.Context, cartID string) error
}

// Notifier receives fire-and-forget order events. Implementations must never
// block or fail the calling operation.
type Notifier interface {
	OrderPlaced(o *Order)
	OrderCancelled(o *Order)
}

type Service struct {
	store    Store
	products ProductStore
	carts    CartStore
	notifier Notifier
}

func NewService(store Store, products ProductStore, carts CartStore, notifier Notifier) *Service {
	return &Service{store: store, products: products, carts: carts, notifier: notifier}
}

type checkoutLine struct {
	item Item
}

// Checkout converts the buyer's cart into a durable order.
//
// Entries whose product is missing or inactive are dropped silently; the
// stock check over the survivors is strict and all-or-nothing. The write
// sequence is a saga: the cart version CAS claims this checkout, each line's
// stock is taken with an atomic conditional decrement, and any failure after
// a decrement compensates by restoring the stock already taken, so a failed
// checkout never leaves an order without its stock or stock taken without an
// order.
func (s *Service) Checkout(ctx context.Context, userID string, shipping Address) (*Order, error) {
	if err := shipping.Validate(); err != nil {
		return nil, err
	}

	c, err := s.carts.GetByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, cart.ErrCartNotFound) {
			return nil, ErrEmptyCart
		}
		return nil, err
	}

	lines, err := s.resolveLines(ctx, c)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	now := time.Now()
	o := &Order{
		ID:              uuid.New().String(),
		UserID:          userID,
		Status:          StatusPending,
		ShippingAddress: shipping,
		PaymentMethod:   PaymentMethodCOD,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	for _, line := range lines {
		o.Items = append(o.Items, line.item)
		o.TotalAmount += line.item.Price * line.item.Quantity
	}

	// Claim the checkout before touching stock, so a duplicate submission
	// of the same cart cannot decrement twice.
	if err := s.carts.BumpVersion(ctx, c.ID, c.Version); err != nil {
		return nil, err
	}

	if err := s.takeStock(ctx, o.Items); err != nil {
		return nil, err
	}

	if err := s.store.Create(ctx, o); err != nil {
		s.restock(context.WithoutCancel(ctx), o.Items)
		return nil, fmt.Errorf("failed to persist order: %w", err)
	}

	// The order exists and stock is adjusted; a failed cart clear leaves
	// stale cart entries but no inventory inconsistency.
	if err := s.carts.Clear(ctx, c.ID); err != nil {
		log.Printf("[Order] Failed to clear cart %s after checkout %s: %v", c.ID, o.ID, err)
	}

	s.notifier.OrderPlaced(o)
	return o, nil
}

// resolveLines maps cart entries to order lines against live products,
// silently dropping missing or inactive products and rejecting the whole
// checkout if any survivor exceeds stock.
func (s *Service) resolveLines(ctx context.Context, c *cart.Cart) ([]checkoutLine, error) {
	var lines []checkoutLine
	for _, entry := range c.Items {
		p, err := s.products.GetByID(ctx, entry.ProductID)
		if err != nil {
			if errors.Is(err, product.ErrProductNotFound) {
				continue
			}
			return nil, err
		}
		if !p.IsActive {
			continue
		}
		if p.Stock < entry.Quantity {
			return nil, &OutOfStockError{ProductName: p.Name}
		}
		lines = append(lines, checkoutLine{item: Item{
			ID:        uuid.New().String(),
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			Quantity:  entry.Quantity,
			SellerID:  p.SellerID,
			Image:     p.FirstImage(),
			Status:    ItemPending,
		}})
	}
	return lines, nil
}

// takeStock decrements each line conditionally and compensates the lines
// already taken when one fails, so two concurrent checkouts can never
// over-decrement a shared product.
func (s *Service) takeStock(ctx context.Context, items []Item) error {
	for i, item := range items {
		if err := s.products.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
			s.restock(context.WithoutCancel(ctx), items[:i])
			if errors.Is(err, product.ErrInsufficientStock) || errors.Is(err, product.ErrProductNotFound) {
				return &OutOfStockError{ProductName: item.Name}
			}
			return fmt.Errorf("failed to decrement stock for %s: %w", item.ProductID, err)
		}
	}
	return nil
}

// restock is the compensation for takeStock. Failures are logged; the items
// are already durable on the order side, so this must not mask the original
// error.
func (s *Service) restock(ctx context.Context, items []Item) {
	for _, item := range items {
		if err := s.products.IncrementStock(ctx, item.ProductID, item.Quantity); err != nil {
			log.Printf("[Order] Compensation failed: could not restore %d units of product %s: %v",
				item.Quantity, item.ProductID, err)
		}
	}
}

// Cancel reverses a whole pending order for its buyer: the header CAS claims
// the cancellation exactly once, then every line's quantity is restored with
// the same atomic-increment discipline checkout uses to decrement.
func (s *Service) Cancel(ctx context.Context, orderID, userID string) error {
	o, err := s.store.MarkCancelled(ctx, orderID, userID)
	if err != nil {
		return err
	}

	for _, item := range o.Items {
		if err := s.products.IncrementStock(ctx, item.ProductID, item.Quantity); err != nil {
			return fmt.Errorf("failed to restock product %s for cancelled order %s: %w",
				item.ProductID, orderID, err)
		}
	}

	o.Status = StatusCancelled
	s.notifier.OrderCancelled(o)
	return nil
}

// UpdateItemStatus applies a seller's fulfillment transition to one line.
func (s *Service) UpdateItemStatus(ctx context.Context, orderID, itemID, sellerID string, target ItemStatus) error {
	switch target {
	case ItemPending, ItemShipped, ItemDelivered, ItemCancelled:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidStatus, target)
	}

	item, err := s.store.GetItemForSeller(ctx, orderID, itemID, sellerID)
	if err != nil {
		return err
	}

	if !item.Status.CanTransitionTo(target) {
		return TransitionError(item.Status, target)
	}

	return s.store.SetItemStatus(ctx, orderID, itemID, item.Status, target)
}

// History returns the buyer's orders, newest first.
func (s *Service) History(ctx context.Context, userID string) ([]*Order, error) {
	return s.store.ListByUser(ctx, userID)
}

// Get returns one order, scoped to its buyer.
func (s *Service) Get(ctx context.Context, orderID, userID string) (*Order, error) {
	o, err := s.store.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

// SellerOrders returns orders containing lines owned by the seller.
func (s *Service) SellerOrders(ctx context.Context, sellerID string) ([]*Order, error) {
	return s.store.ListBySeller(ctx, sellerID)
}
