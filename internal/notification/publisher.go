package notification

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/example/marketplace/internal/domain/order"
	"github.com/example/marketplace/internal/domain/user"
)

// EventWriter is the broker port; the Kafka producer satisfies it.
type EventWriter interface {
	Publish(ctx context.Context, key string, event any) error
}

// UserReader resolves the recipient's email before publishing, so the
// consumer side needs no store access.
type UserReader interface {
	GetByID(ctx context.Context, id string) (*user.User, error)
}

// Publisher emits notification events. Every publish is fire-and-forget on a
// detached goroutine with its own timeout; a broker outage is logged and never
// surfaces to the calling operation.
type Publisher struct {
	writer  EventWriter
	users   UserReader
	timeout time.Duration
}

func NewPublisher(writer EventWriter, users UserReader) *Publisher {
	return &Publisher{writer: writer, users: users, timeout: 5 * time.Second}
}

func (p *Publisher) OrderPlaced(o *order.Order) {
	p.async(EventOrderPlaced, o.ID, func(ctx context.Context) (any, error) {
		u, err := p.users.GetByID(ctx, o.UserID)
		if err != nil {
			return nil, err
		}
		items := make([]OrderLine, len(o.Items))
		for i, item := range o.Items {
			items[i] = OrderLine{
				ProductID: item.ProductID,
				Name:      item.Name,
				Quantity:  item.Quantity,
				Price:     item.Price,
			}
		}
		return OrderPlaced{
			OrderID: o.ID,
			UserID:  o.UserID,
			Email:   u.Email,
			Total:   o.TotalAmount,
			Items:   items,
		}, nil
	})
}

func (p *Publisher) OrderCancelled(o *order.Order) {
	p.async(EventOrderCancelled, o.ID, func(ctx context.Context) (any, error) {
		u, err := p.users.GetByID(ctx, o.UserID)
		if err != nil {
			return nil, err
		}
		return OrderCancelled{
			OrderID: o.ID,
			UserID:  o.UserID,
			Email:   u.Email,
			Total:   o.TotalAmount,
		}, nil
	})
}

func (p *Publisher) LoginAlert(u *user.User, ipAddress, userAgent string) {
	alert := LoginAlert{
		UserID:    u.ID,
		Email:     u.Email,
		Name:      u.Name,
		IPAddress: ipAddress,
		UserAgent: userAgent,
		At:        time.Now(),
	}
	p.async(EventLoginAlert, u.ID, func(ctx context.Context) (any, error) {
		return alert, nil
	})
}

func (p *Publisher) async(eventType, key string, build func(ctx context.Context) (any, error)) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()

		payload, err := build(ctx)
		if err != nil {
			log.Printf("[Notification] Failed to build %s event for %s: %v", eventType, key, err)
			return
		}
		data, err := json.Marshal(payload)
		if err != nil {
			log.Printf("[Notification] Failed to marshal %s event for %s: %v", eventType, key, err)
			return
		}
		event := Event{
			EventType:  eventType,
			OccurredAt: time.Now(),
			Data:       data,
		}
		if err := p.writer.Publish(ctx, key, event); err != nil {
			log.Printf("[Notification] Failed to publish %s event for %s: %v", eventType, key, err)
		}
	}()
}

// NopPublisher satisfies the order notifier when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) OrderPlaced(*order.Order)    {}
func (NopPublisher) OrderCancelled(*order.Order) {}

var (
	_ order.Notifier = (*Publisher)(nil)
	_ order.Notifier = NopPublisher{}
)
