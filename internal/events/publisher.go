package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/order"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/sequence"
)

// channel is the part of *amqp.Channel the publisher needs.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type PublisherOptions struct {
	Producer string
	// CorrelationID extracts the request correlation id from ctx, if any.
	CorrelationID func(ctx context.Context) string
}

// Publisher emits order events on the topic exchange. It implements
// order.Notifier.
type Publisher struct {
	ch            channel
	seq           sequence.Allocator
	producer      string
	correlationID func(ctx context.Context) string
	now           func() time.Time
}

func NewPublisher(conn *amqp.Connection, seq sequence.Allocator, opts PublisherOptions) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := declareEventsExchange(ch); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare events exchange: %w", err)
	}

	return newPublisher(ch, seq, opts), nil
}

func newPublisher(ch channel, seq sequence.Allocator, opts PublisherOptions) *Publisher {
	producer := opts.Producer
	if producer == "" {
		producer = ServiceName
	}
	correlationID := opts.CorrelationID
	if correlationID == nil {
		correlationID = func(context.Context) string { return "" }
	}
	return &Publisher{
		ch:            ch,
		seq:           seq,
		producer:      producer,
		correlationID: correlationID,
		now:           time.Now,
	}
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}

func (p *Publisher) OrderPlaced(ctx context.Context, o *order.Order) error {
	meta, seq, err := p.meta(ctx, o.ID)
	if err != nil {
		return err
	}

	body, err := json.Marshal(newOrderPlacedEvent(o, meta, seq, p.producer, p.now().UTC()))
	if err != nil {
		return fmt.Errorf("marshal OrderPlaced: %w", err)
	}
	return p.publishJSON(ctx, OrderPlacedRoutingKey, body)
}

func (p *Publisher) OrderStatusChanged(ctx context.Context, o *order.Order, from order.Status) error {
	meta, seq, err := p.meta(ctx, o.ID)
	if err != nil {
		return err
	}

	body, err := json.Marshal(newOrderStatusChangedEvent(o, from, meta, seq, p.producer, p.now().UTC()))
	if err != nil {
		return fmt.Errorf("marshal OrderStatusChanged: %w", err)
	}
	return p.publishJSON(ctx, OrderStatusChangedRoutingKey, body)
}

func (p *Publisher) meta(ctx context.Context, orderID string) (EventMeta, int64, error) {
	seq, err := p.seq.NextSequence(ctx, orderID)
	if err != nil {
		return EventMeta{}, 0, fmt.Errorf("reserve sequence: %w", err)
	}
	correlationID := p.correlationID(ctx)
	if correlationID == "" {
		correlationID = fromContext(ctx, correlationKey{})
	}
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	meta := EventMeta{
		CorrelationID: correlationID,
		CausationID:   fromContext(ctx, causationKey{}),
		PartitionKey:  orderID,
	}
	return meta, seq, nil
}

func (p *Publisher) publishJSON(ctx context.Context, routingKey string, body []byte) error {
	pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return p.ch.PublishWithContext(
		pubCtx,
		EventsExchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

// NopPublisher drops every event. It is used when EVENTS_ENABLED=false.
type NopPublisher struct{}

func (NopPublisher) OrderPlaced(context.Context, *order.Order) error { return nil }

func (NopPublisher) OrderStatusChanged(context.Context, *order.Order, order.Status) error {
	return nil
}

type (
	causationKey   struct{}
	correlationKey struct{}
)

// withCause marks events emitted while handling a consumed event.
func withCause[T any](ctx context.Context, env EventEnvelope[T]) context.Context {
	ctx = context.WithValue(ctx, causationKey{}, env.EventID)
	if env.CorrelationID != "" {
		ctx = context.WithValue(ctx, correlationKey{}, env.CorrelationID)
	}
	return ctx
}

func fromContext(ctx context.Context, key any) string {
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}
