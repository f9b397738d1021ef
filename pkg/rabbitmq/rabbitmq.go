package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"productapi/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	amqp "github.com/streadway/amqp"
)

// ProductEventsQueue is the durable queue product change events go to.
const ProductEventsQueue = "product_events"

// ErrChannelUnavailable is returned when the client has no open channel.
var ErrChannelUnavailable = errors.New("RabbitMQ channel is not available")

// Channel is the subset of *amqp.Channel the client uses.
type Channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Close() error
}

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel Channel
	log     logrus.FieldLogger
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL string
}

// ProductEvent is the JSON body of every published message.
type ProductEvent struct {
	Event      string         `json:"event"`
	Product    models.Product `json:"product"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// NewClient connects to RabbitMQ, opens a channel and declares the product events queue.
func NewClient(cfg Config, log logrus.FieldLogger) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	client, err := NewClientWithChannel(ch, log)
	if err != nil {
		conn.Close()
		return nil, err
	}
	client.conn = conn
	return client, nil
}

// NewClientWithChannel wraps an already open channel.
func NewClientWithChannel(ch Channel, log logrus.FieldLogger) (*Client, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if err := declareQueue(ch); err != nil {
		ch.Close()
		return nil, err
	}
	log.WithField("queue", ProductEventsQueue).Info("RabbitMQ client connected and queue declared")
	return &Client{channel: ch, log: log}, nil
}

func declareQueue(ch Channel) error {
	_, err := ch.QueueDeclare(
		ProductEventsQueue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare %s: %w", ProductEventsQueue, err)
	}
	return nil
}

// Close closes the RabbitMQ channel and connection.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	return errors.Join(errs...)
}

// PublishProductEvent publishes a persistent JSON message describing a product change.
func (c *Client) PublishProductEvent(ctx context.Context, event string, product models.Product) error {
	if c.channel == nil {
		return ErrChannelUnavailable
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	now := time.Now().UTC()
	body, err := json.Marshal(ProductEvent{Event: event, Product: product, OccurredAt: now})
	if err != nil {
		return fmt.Errorf("failed to marshal product event: %w", err)
	}

	err = c.channel.Publish(
		"",                 // default exchange
		ProductEventsQueue, // routing key
		false,              // mandatory
		false,              // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			MessageId:    uuid.New().String(),
			Type:         event,
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    now,
		})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	c.log.WithFields(logrus.Fields{"event": event, "product_id": product.ID}).Debug("product event sent")
	return nil
}

// ConsumeProductEvents starts a goroutine that hands every delivery to messageHandler.
// Deliveries are acked on success. Failures are nacked without requeue so a
// poison message cannot loop forever.
func (c *Client) ConsumeProductEvents(messageHandler func(msg amqp.Delivery) error) error {
	if c.channel == nil {
		return ErrChannelUnavailable
	}

	msgs, err := c.channel.Consume(
		ProductEventsQueue,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	go func() {
		for msg := range msgs {
			entry := c.log.WithField("delivery_tag", msg.DeliveryTag)
			if err := messageHandler(msg); err != nil {
				entry.WithError(err).Warn("error processing product event")
				if nackErr := msg.Nack(false, false); nackErr != nil {
					entry.WithError(nackErr).Error("error nacking message")
				}
				continue
			}
			if ackErr := msg.Ack(false); ackErr != nil {
				entry.WithError(ackErr).Error("error acking message")
			}
		}
		c.log.Info("product event consumer stopped")
	}()

	return nil
}

// LogProductEvent decodes a delivery and writes it to the log.
func LogProductEvent(log logrus.FieldLogger) func(msg amqp.Delivery) error {
	return func(msg amqp.Delivery) error {
		var event ProductEvent
		if err := json.Unmarshal(msg.Body, &event); err != nil {
			return fmt.Errorf("failed to decode product event: %w", err)
		}
		log.WithFields(logrus.Fields{
			"event":        event.Event,
			"product_id":   event.Product.ID,
			"availability": event.Product.Availability,
			"occurred_at":  event.OccurredAt,
		}).Info("product event received")
		return nil
	}
}
