package order

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// PaymentMethodCOD is the only settlement method; orders are paid on delivery.
const PaymentMethodCOD = "COD"

// Status is the order header status. Shipped and delivered exist as
// vocabulary for line items; the header itself only ever moves from pending
// to cancelled.
type Status string

const (
	StatusPending   Status = "pending"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// ItemStatus is the per-line fulfillment status, tracked independently of the
// header and of sibling lines.
type ItemStatus string

const (
	ItemPending   ItemStatus = "pending"
	ItemShipped   ItemStatus = "shipped"
	ItemDelivered ItemStatus = "delivered"
	ItemCancelled ItemStatus = "cancelled"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrItemNotFound      = errors.New("order item not found")
	ErrEmptyCart         = errors.New("your cart is empty")
	ErrOutOfStock        = errors.New("out of stock")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNotCancellable    = errors.New("order cannot be cancelled")
	ErrInvalidStatus     = errors.New("unknown item status")
	ErrInvalidAddress    = errors.New("invalid shipping address")
)

// validItemTransitions defines the forward transitions a seller may apply.
// Cancelled is terminal and reachable only through the buyer's cancellation,
// never through this table.
var validItemTransitions = map[ItemStatus][]ItemStatus{
	ItemPending:   {ItemShipped},
	ItemShipped:   {ItemDelivered},
	ItemDelivered: {},
	ItemCancelled: {},
}

// CanTransitionTo checks whether a line may move to the target status.
func (s ItemStatus) CanTransitionTo(target ItemStatus) bool {
	allowed, exists := validItemTransitions[s]
	if !exists {
		return false
	}
	for _, t := range allowed {
		if t == target {
			return true
		}
	}
	return false
}

// TransitionError names the current and requested statuses.
func TransitionError(from, to ItemStatus) error {
	return fmt.Errorf("%w: cannot transition from %s to %s", ErrInvalidTransition, from, to)
}

// OutOfStockError names the product that blocked a strict checkout.
type OutOfStockError struct {
	ProductName string
}

func (e *OutOfStockError) Error() string {
	name := e.ProductName
	if name == "" {
		name = "Product"
	}
	return fmt.Sprintf("%s is out of stock", name)
}

func (e *OutOfStockError) Unwrap() error { return ErrOutOfStock }

var postalCodeRe = regexp.MustCompile(`^[0-9]{6}$`)

// Address is the shipping address snapshot captured at checkout.
type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
}

// Validate enforces the checkout address shape: street, city and state
// required, postal code exactly 6 digits.
func (a Address) Validate() error {
	if strings.TrimSpace(a.Street) == "" {
		return fmt.Errorf("%w: street is required", ErrInvalidAddress)
	}
	if strings.TrimSpace(a.City) == "" {
		return fmt.Errorf("%w: city is required", ErrInvalidAddress)
	}
	if strings.TrimSpace(a.State) == "" {
		return fmt.Errorf("%w: state is required", ErrInvalidAddress)
	}
	if !postalCodeRe.MatchString(a.PostalCode) {
		return fmt.Errorf("%w: postal code must be exactly 6 digits", ErrInvalidAddress)
	}
	return nil
}

// Item is one order line: a denormalized snapshot of the product as it was at
// checkout, so later catalog edits never alter historical orders. Status is
// tracked per line and mutated only by the owning seller.
type Item struct {
	ID        string     `json:"id"`
	ProductID string     `json:"product_id"`
	Name      string     `json:"name"`
	Price     int        `json:"price"`
	Quantity  int        `json:"quantity"`
	SellerID  string     `json:"seller_id"`
	Image     string     `json:"image,omitempty"`
	Status    ItemStatus `json:"status"`
}

// Order is the durable checkout result. Everything except the header status
// and the per-line statuses is immutable after creation; TotalAmount is
// computed once and never recomputed.
type Order struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	Items           []Item    `json:"items"`
	TotalAmount     int       `json:"totalAmount"`
	Status          Status    `json:"status"`
	ShippingAddress Address   `json:"shippingAddress"`
	PaymentMethod   string    `json:"paymentMethod"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
