package order

import (
	"context"
	"log"
)

// Notifier observes committed order changes.
type Notifier interface {
	OrderPlaced(ctx context.Context, o *Order) error
	OrderStatusChanged(ctx context.Context, o *Order, from Status) error
}

// Notifiers fans out to every observer. Failures are logged and never
// reach the caller, the order is already committed.
type Notifiers []Notifier

func (n Notifiers) placed(ctx context.Context, logger *log.Logger, o *Order) {
	for _, nt := range n {
		if err := nt.OrderPlaced(ctx, o); err != nil {
			logger.Printf("notify order placed orderId=%s: %v", o.ID, err)
		}
	}
}

func (n Notifiers) statusChanged(ctx context.Context, logger *log.Logger, o *Order, from Status) {
	for _, nt := range n {
		if err := nt.OrderStatusChanged(ctx, o, from); err != nil {
			logger.Printf("notify order status changed orderId=%s from=%s to=%s: %v", o.ID, from, o.Status, err)
		}
	}
}
