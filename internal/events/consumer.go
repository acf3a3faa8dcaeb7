package events

import (
	"context"
	"fmt"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"
)

// HandlerFunc processes one message body. Returning an error NACKs the
// message without requeue, which routes it to the dead-letter queue.
type HandlerFunc func(ctx context.Context, body []byte) error

// Consumer owns the channel of one queue subscription.
type Consumer struct {
	ch    *amqp.Channel
	queue string
	done  chan struct{}
}

// StartConsumer declares the queue for routingKey (with its dead-letter
// queue), binds it to the events exchange and runs handler for every
// delivery until ctx is cancelled.
func StartConsumer(ctx context.Context, conn *amqp.Connection, routingKey string, handler HandlerFunc, logger *log.Logger) (*Consumer, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	queue, err := declareQueue(ch, routingKey)
	if err != nil {
		_ = ch.Close()
		return nil, err
	}

	if err := ch.Qos(10, 0, false); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("qos: %w", err)
	}

	msgs, err := ch.Consume(
		queue,
		ServiceName, // consumer tag
		false,       // autoAck
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("consume %s: %w", queue, err)
	}

	c := &Consumer{ch: ch, queue: queue, done: make(chan struct{})}
	go c.loop(ctx, msgs, handler, logger)
	return c, nil
}

func declareQueue(ch *amqp.Channel, routingKey string) (string, error) {
	if err := declareEventsExchange(ch); err != nil {
		return "", fmt.Errorf("declare events exchange: %w", err)
	}
	if err := declareDeadLetterExchange(ch); err != nil {
		return "", fmt.Errorf("declare dead-letter exchange: %w", err)
	}

	queue := storefrontQueueName(routingKey)
	dlq := deadLetterQueueName(queue)

	if _, err := ch.QueueDeclare(dlq, true, false, false, false, nil); err != nil {
		return "", fmt.Errorf("declare %s: %w", dlq, err)
	}
	if err := ch.QueueBind(dlq, dlq, DeadLetterExchange, false, nil); err != nil {
		return "", fmt.Errorf("bind %s: %w", dlq, err)
	}

	_, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		amqp.Table{
			"x-dead-letter-exchange":    DeadLetterExchange,
			"x-dead-letter-routing-key": dlq,
		},
	)
	if err != nil {
		return "", fmt.Errorf("declare %s: %w", queue, err)
	}
	if err := ch.QueueBind(queue, routingKey, EventsExchange, false, nil); err != nil {
		return "", fmt.Errorf("bind %s: %w", queue, err)
	}
	return queue, nil
}

func (c *Consumer) loop(ctx context.Context, msgs <-chan amqp.Delivery, handler HandlerFunc, logger *log.Logger) {
	defer close(c.done)
	for {
		select {
		case <-ctx.Done():
			logger.Printf("stopping %s consumer", c.queue)
			return
		case msg, ok := <-msgs:
			if !ok {
				logger.Printf("%s: messages channel closed", c.queue)
				return
			}

			if err := handler(ctx, msg.Body); err != nil {
				logger.Printf("%s: handle message error: %v", c.queue, err)
				_ = msg.Nack(false, false)
				continue
			}
			_ = msg.Ack(false)
		}
	}
}

// Close stops the subscription and waits for the in-flight message.
func (c *Consumer) Close() error {
	err := c.ch.Close()
	<-c.done
	return err
}
