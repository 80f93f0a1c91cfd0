package notification

import (
	"encoding/json"
	"time"
)

const (
	EventOrderPlaced    = "OrderPlaced"
	EventOrderCancelled = "OrderCancelled"
	EventLoginAlert     = "LoginAlert"
)

// Event is the envelope written to the notification topic. Data holds the
// type-specific payload.
type Event struct {
	EventType  string          `json:"event_type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

// OrderLine is the slice of an order line a notification needs.
type OrderLine struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	Price     int    `json:"price"`
}

// OrderPlaced carries everything the notifier needs to send a confirmation
// mail. The buyer's email is embedded so the consumer has no store dependency.
type OrderPlaced struct {
	OrderID string      `json:"order_id"`
	UserID  string      `json:"user_id"`
	Email   string      `json:"email"`
	Total   int         `json:"total"`
	Items   []OrderLine `json:"items"`
}

// OrderCancelled is published after a buyer cancellation completes.
type OrderCancelled struct {
	OrderID string `json:"order_id"`
	UserID  string `json:"user_id"`
	Email   string `json:"email"`
	Total   int    `json:"total"`
}

// LoginAlert is published on each successful sign-in.
type LoginAlert struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	IPAddress string    `json:"ip_address"`
	UserAgent string    `json:"user_agent"`
	At        time.Time `json:"at"`
}
