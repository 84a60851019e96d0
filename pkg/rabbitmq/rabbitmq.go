package rabbitmq

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"conduit/internal/models"
	"conduit/internal/observability"

	amqp "github.com/streadway/amqp"
)

// RelationshipQueue carries follow and favorite events.
const RelationshipQueue = "relationship_events"

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	// amqp channels are not safe for concurrent publishing
	mu sync.Mutex
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL string
}

// NewClient creates a new RabbitMQ client.
// It connects to RabbitMQ and declares the relationship queue.
func NewClient(cfg Config) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if _, err := declareQueue(ch); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	observability.Logger.Info("RabbitMQ client connected", slog.String("queue", RelationshipQueue))
	return &Client{
		conn:    conn,
		channel: ch,
	}, nil
}

func declareQueue(ch *amqp.Channel) (amqp.Queue, error) {
	q, err := ch.QueueDeclare(
		RelationshipQueue, // name
		true,              // durable
		false,             // delete when unused
		false,             // exclusive
		false,             // no-wait
		nil,               // arguments
	)
	if err != nil {
		return q, fmt.Errorf("failed to declare %s: %w", RelationshipQueue, err)
	}
	return q, nil
}

// Close closes the RabbitMQ connection and channel.
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

// PublishRelationshipEvent publishes a follow or favorite change as a persistent JSON message.
func (c *Client) PublishRelationshipEvent(event models.RelationshipEvent) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available")
	}

	msg, err := encodeEvent(event)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.channel.Publish(
		"",                // exchange: default exchange
		RelationshipQueue, // routing key: the queue name
		false,             // mandatory
		false,             // immediate
		msg,
	); err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

func encodeEvent(event models.RelationshipEvent) (amqp.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("failed to marshal relationship event: %w", err)
	}
	ts := event.OccurredAt
	if ts.IsZero() {
		ts = time.Now()
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		Type:         string(event.Type),
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    ts,
	}, nil
}

// DecodeEvent parses a delivery body back into a RelationshipEvent.
func DecodeEvent(body []byte) (models.RelationshipEvent, error) {
	var event models.RelationshipEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return event, fmt.Errorf("failed to unmarshal relationship event: %w", err)
	}
	if event.Type == "" || event.ActorID == "" {
		return event, fmt.Errorf("relationship event is incomplete")
	}
	return event, nil
}

// ConsumeRelationshipEvents starts a goroutine that hands every event on the queue to handler.
// Events the handler accepts are acked; failures are requeued once, undecodable messages are dropped.
func (c *Client) ConsumeRelationshipEvents(handler func(models.RelationshipEvent) error) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available for consumption")
	}

	queue, err := declareQueue(c.channel)
	if err != nil {
		return err
	}

	msgs, err := c.channel.Consume(
		queue.Name, // queue
		"",         // consumer tag
		false,      // auto-ack
		false,      // exclusive
		false,      // no-local
		false,      // no-wait
		nil,        // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	go func() {
		for msg := range msgs {
			handleDelivery(msg, handler)
		}
	}()
	return nil
}

func handleDelivery(msg amqp.Delivery, handler func(models.RelationshipEvent) error) {
	event, err := DecodeEvent(msg.Body)
	if err != nil {
		observability.Logger.Warn("dropping malformed relationship event",
			slog.Uint64("delivery_tag", msg.DeliveryTag),
			slog.String("error", err.Error()),
		)
		if nackErr := msg.Nack(false, false); nackErr != nil {
			observability.Logger.Error("failed to nack message", slog.String("error", nackErr.Error()))
		}
		return
	}

	if err := handler(event); err != nil {
		observability.Logger.Warn("relationship event handler failed",
			slog.Uint64("delivery_tag", msg.DeliveryTag),
			slog.String("error", err.Error()),
		)
		// Requeue only first deliveries to avoid infinite loops for unprocessable messages.
		if nackErr := msg.Nack(false, !msg.Redelivered); nackErr != nil {
			observability.Logger.Error("failed to nack message", slog.String("error", nackErr.Error()))
		}
		return
	}
	if ackErr := msg.Ack(false); ackErr != nil {
		observability.Logger.Error("failed to ack message", slog.String("error", ackErr.Error()))
	}
}

// LogRelationshipEvent is a handler that records each consumed event in the application log.
func LogRelationshipEvent(event models.RelationshipEvent) error {
	observability.Logger.Info("relationship event",
		slog.String("type", string(event.Type)),
		slog.String("actor_id", event.ActorID),
		slog.String("target_id", event.TargetID),
		slog.Time("occurred_at", event.OccurredAt),
	)
	return nil
}
