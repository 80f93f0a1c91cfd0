package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// ============================================
// Item Status Transition Tests
// ============================================

func TestItemStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		from    ItemStatus
		to      ItemStatus
		allowed bool
	}{
		{"pending to shipped", ItemPending, ItemShipped, true},
		{"shipped to delivered", ItemShipped, ItemDelivered, true},
		{"pending to delivered skips shipped", ItemPending, ItemDelivered, false},
		{"shipped back to pending", ItemShipped, ItemPending, false},
		{"delivered is terminal", ItemDelivered, ItemShipped, false},
		{"delivered to delivered", ItemDelivered, ItemDelivered, false},
		{"cancelled is terminal", ItemCancelled, ItemShipped, false},
		{"cancelled to pending", ItemCancelled, ItemPending, false},
		{"sellers cannot cancel a line", ItemPending, ItemCancelled, false},
		{"sellers cannot cancel a shipped line", ItemShipped, ItemCancelled, false},
		{"unknown status", ItemStatus("bogus"), ItemShipped, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestTransitionError(t *testing.T) {
	err := TransitionError(ItemDelivered, ItemShipped)

	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Contains(t, err.Error(), "delivered")
	assert.Contains(t, err.Error(), "shipped")
}

// ============================================
// Out Of Stock Error Tests
// ============================================

func TestOutOfStockError_Message(t *testing.T) {
	err := &OutOfStockError{ProductName: "Blue Kettle"}
	assert.Equal(t, "Blue Kettle is out of stock", err.Error())
	assert.ErrorIs(t, err, ErrOutOfStock)
}

func TestOutOfStockError_EmptyName(t *testing.T) {
	err := &OutOfStockError{}
	assert.Equal(t, "Product is out of stock", err.Error())
}

// ============================================
// Address Validation Tests
// ============================================

func validAddress() Address {
	return Address{
		Street:     "12 MG Road",
		City:       "Bengaluru",
		State:      "Karnataka",
		PostalCode: "560001",
	}
}

func TestAddress_Validate_Valid(t *testing.T) {
	assert.NoError(t, validAddress().Validate())
}

func TestAddress_Validate_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Address)
	}{
		{"missing street", func(a *Address) { a.Street = "" }},
		{"whitespace street", func(a *Address) { a.Street = "   " }},
		{"missing city", func(a *Address) { a.City = "" }},
		{"missing state", func(a *Address) { a.State = "" }},
		{"postal code too short", func(a *Address) { a.PostalCode = "56001" }},
		{"postal code too long", func(a *Address) { a.PostalCode = "5600011" }},
		{"postal code with letters", func(a *Address) { a.PostalCode = "56OO01" }},
		{"empty postal code", func(a *Address) { a.PostalCode = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := validAddress()
			tt.mutate(&a)
			assert.ErrorIs(t, a.Validate(), ErrInvalidAddress)
		})
	}
}
