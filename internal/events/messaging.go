package events

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	EventsExchange     = "ecommerce.events"
	DeadLetterExchange = "ecommerce.events.dlx"

	OrderPlacedRoutingKey           = "order.placed.v1"
	OrderStatusChangedRoutingKey    = "order.status-changed.v1"
	ShipmentStatusUpdatedRoutingKey = "shipment.status-updated.v1"

	ServiceName = "storefront-service-go"
)

func serviceQueue(serviceName, routingKey string) string {
	return serviceName + "." + routingKey
}

func storefrontQueueName(routingKey string) string {
	return serviceQueue(ServiceName, routingKey)
}

func deadLetterQueueName(queue string) string {
	return queue + ".dlq"
}

// Dial connects to the broker at url.
func Dial(url string) (*amqp.Connection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to RabbitMQ: %w", err)
	}
	return conn, nil
}

func declareEventsExchange(ch *amqp.Channel) error {
	return ch.ExchangeDeclare(
		EventsExchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
}

func declareDeadLetterExchange(ch *amqp.Channel) error {
	return ch.ExchangeDeclare(
		DeadLetterExchange,
		"direct",
		true,
		false,
		false,
		false,
		nil,
	)
}
