package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/order"
)

const (
	orderPlacedEventName    = "OrderPlaced"
	orderPlacedEventVersion = 1
	orderPlacedSchema       = "contracts/events/storefront/OrderPlaced.v1.payload.schema.json"

	orderStatusChangedEventName    = "OrderStatusChanged"
	orderStatusChangedEventVersion = 1
	orderStatusChangedSchema       = "contracts/events/storefront/OrderStatusChanged.v1.payload.schema.json"
)

type OrderLine struct {
	ProductID   string          `json:"productId,omitempty"`
	ProductName string          `json:"productName"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Quantity    int             `json:"quantity"`
}

type OrderPlacedPayload struct {
	OrderID        string          `json:"orderId"`
	UserID         string          `json:"userId"`
	Items          []OrderLine     `json:"items"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	ShippingFee    decimal.Decimal `json:"shippingFee"`
	Total          decimal.Decimal `json:"total"`
	DeliveryOption string          `json:"deliveryOption"`
	PaymentMethod  string          `json:"paymentMethod"`
	CreatedAt      time.Time       `json:"createdAt"`
}

type OrderPlacedEnvelope = EventEnvelope[OrderPlacedPayload]

type OrderStatusChangedPayload struct {
	OrderID   string    `json:"orderId"`
	UserID    string    `json:"userId"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	ChangedAt time.Time `json:"changedAt"`
}

type OrderStatusChangedEnvelope = EventEnvelope[OrderStatusChangedPayload]

func newOrderPlacedEvent(o *order.Order, meta EventMeta, seq int64, producer string, occurredAt time.Time) OrderPlacedEnvelope {
	items := make([]OrderLine, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderLine{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			UnitPrice:   it.UnitPrice,
			Quantity:    it.Quantity,
		})
	}

	return OrderPlacedEnvelope{
		EventName:     orderPlacedEventName,
		EventVersion:  orderPlacedEventVersion,
		EventID:       uuid.NewString(),
		CorrelationID: meta.CorrelationID,
		CausationID:   meta.CausationID,
		Producer:      producer,
		PartitionKey:  meta.PartitionKey,
		Sequence:      seq,
		OccurredAt:    occurredAt,
		Schema:        orderPlacedSchema,
		Payload: OrderPlacedPayload{
			OrderID:        o.ID,
			UserID:         o.UserID,
			Items:          items,
			Subtotal:       o.Subtotal,
			ShippingFee:    o.ShippingFee,
			Total:          o.Total,
			DeliveryOption: string(o.DeliveryOption),
			PaymentMethod:  string(o.PaymentMethod),
			CreatedAt:      o.CreatedAt,
		},
	}
}

func newOrderStatusChangedEvent(o *order.Order, from order.Status, meta EventMeta, seq int64, producer string, occurredAt time.Time) OrderStatusChangedEnvelope {
	return OrderStatusChangedEnvelope{
		EventName:     orderStatusChangedEventName,
		EventVersion:  orderStatusChangedEventVersion,
		EventID:       uuid.NewString(),
		CorrelationID: meta.CorrelationID,
		CausationID:   meta.CausationID,
		Producer:      producer,
		PartitionKey:  meta.PartitionKey,
		Sequence:      seq,
		OccurredAt:    occurredAt,
		Schema:        orderStatusChangedSchema,
		Payload: OrderStatusChangedPayload{
			OrderID:   o.ID,
			UserID:    o.UserID,
			From:      string(from),
			To:        string(o.Status),
			ChangedAt: o.UpdatedAt,
		},
	}
}
