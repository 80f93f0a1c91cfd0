package notification

import (
	"context"
	"encoding/json"
	"log"

	"github.com/example/marketplace/internal/email"
)

// Handler consumes notification events and turns them into emails. Payloads
// carry the recipient, so the handler talks only to the mailer.
type Handler struct {
	emailService *email.Service
}

// NewHandler creates a new notification handler
func NewHandler(emailSvc *email.Service) *Handler {
	return &Handler{emailService: emailSvc}
}

// HandleEvent processes one event from the notification topic.
func (h *Handler) HandleEvent(ctx context.Context, key, value []byte) error {
	var event Event
	if err := json.Unmarshal(value, &event); err != nil {
		log.Printf("[Notifier] Failed to unmarshal event: %v", err)
		return err
	}

	switch event.EventType {
	case EventOrderPlaced:
		return h.handleOrderPlaced(event)
	case EventOrderCancelled:
		return h.handleOrderCancelled(event)
	case EventLoginAlert:
		return h.handleLoginAlert(event)
	default:
		return nil
	}
}

func (h *Handler) handleOrderPlaced(event Event) error {
	var e OrderPlaced
	if err := json.Unmarshal(event.Data, &e); err != nil {
		log.Printf("[Notifier] Failed to unmarshal OrderPlaced event: %v", err)
		return err
	}

	log.Printf("[Notifier] Processing OrderPlaced event for order %s, user %s", e.OrderID, e.UserID)

	items := make([]email.OrderItem, len(e.Items))
	for i, item := range e.Items {
		items[i] = email.OrderItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			Price:     item.Price,
		}
	}

	if err := h.emailService.SendOrderConfirmation(e.Email, e.OrderID, e.Total, items); err != nil {
		log.Printf("[Notifier] Failed to send confirmation to %s: %v", e.Email, err)
		return err
	}

	log.Printf("[Notifier] Order confirmation email sent to %s for order %s", e.Email, e.OrderID)
	return nil
}

func (h *Handler) handleOrderCancelled(event Event) error {
	var e OrderCancelled
	if err := json.Unmarshal(event.Data, &e); err != nil {
		log.Printf("[Notifier] Failed to unmarshal OrderCancelled event: %v", err)
		return err
	}

	if err := h.emailService.SendOrderCancelled(e.Email, e.OrderID, e.Total); err != nil {
		log.Printf("[Notifier] Failed to send cancellation to %s: %v", e.Email, err)
		return err
	}

	log.Printf("[Notifier] Cancellation email sent to %s for order %s", e.Email, e.OrderID)
	return nil
}

func (h *Handler) handleLoginAlert(event Event) error {
	var e LoginAlert
	if err := json.Unmarshal(event.Data, &e); err != nil {
		log.Printf("[Notifier] Failed to unmarshal LoginAlert event: %v", err)
		return err
	}

	when := e.At.Format("2006-01-02 15:04:05 MST")
	if err := h.emailService.SendLoginAlert(e.Email, e.Name, e.IPAddress, e.UserAgent, when); err != nil {
		log.Printf("[Notifier] Failed to send login alert to %s: %v", e.Email, err)
		return err
	}
	return nil
}
