package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

// FulfilmentEventType represents the type of fulfilment event.
type FulfilmentEventType string

const (
	FulfilmentShipped   FulfilmentEventType = "fulfilment.shipped"
	FulfilmentDelivered FulfilmentEventType = "fulfilment.delivered"
)

// FulfilmentEvent is published by the delivery side when a parcel moves.
type FulfilmentEvent struct {
	ID        string              `json:"id"`
	Type      FulfilmentEventType `json:"type"`
	OrderID   string              `json:"order_id"`
	Carrier   string              `json:"carrier,omitempty"`
	Tracking  string              `json:"tracking,omitempty"`
	Timestamp time.Time           `json:"timestamp"`
}

// StatusUpdater moves an order to a new status.
type StatusUpdater interface {
	UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) (*models.Order, error)
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// KafkaConsumer consumes fulfilment events from Kafka.
type KafkaConsumer struct {
	reader  messageReader
	orders  StatusUpdater
	logger  *logging.LoggerV2
	stopCh  chan struct{}
	retryIn time.Duration
}

// NewKafkaConsumer creates a new Kafka-based fulfilment consumer.
func NewKafkaConsumer(cfg config.KafkaConfig, orders StatusUpdater, logger *logging.LoggerV2) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.FulfilmentTopic,
		GroupID:  cfg.ConsumerGroup,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  time.Second,
	})
	return newKafkaConsumer(reader, orders, logger)
}

func newKafkaConsumer(reader messageReader, orders StatusUpdater, logger *logging.LoggerV2) *KafkaConsumer {
	return &KafkaConsumer{
		reader:  reader,
		orders:  orders,
		logger:  logger,
		stopCh:  make(chan struct{}),
		retryIn: time.Second,
	}
}

// Start consumes until ctx is cancelled or Stop is called.
func (c *KafkaConsumer) Start(ctx context.Context) error {
	c.logger.Info("Starting Kafka consumer")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.stopCh:
			c.logger.Info("Kafka consumer stopped")
			return nil
		default:
		}

		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			select {
			case <-c.stopCh:
				c.logger.Info("Kafka consumer stopped")
				return nil
			default:
			}
			c.logger.Error("Failed to read message", logging.Fields{"error": err.Error()})
			select {
			case <-time.After(c.retryIn):
			case <-ctx.Done():
				return ctx.Err()
			case <-c.stopCh:
				return nil
			}
			continue
		}

		c.handleMessage(ctx, msg)
	}
}

// Stop stops the consumer.
func (c *KafkaConsumer) Stop() {
	close(c.stopCh)
	if err := c.reader.Close(); err != nil {
		c.logger.Warn("Failed to close Kafka reader", logging.Fields{"error": err.Error()})
	}
}

func (c *KafkaConsumer) handleMessage(ctx context.Context, msg kafka.Message) {
	c.logger.Debug("Received message", logging.Fields{
		"topic":     msg.Topic,
		"partition": msg.Partition,
		"offset":    msg.Offset,
	})

	var event FulfilmentEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		c.logger.Error("Failed to unmarshal event", logging.Fields{"error": err.Error()})
		return
	}

	var status models.OrderStatus
	switch event.Type {
	case FulfilmentShipped:
		status = models.OrderStatusShipped
	case FulfilmentDelivered:
		status = models.OrderStatusDelivered
	default:
		c.logger.Debug("Ignoring unknown event type", logging.Fields{"type": event.Type})
		return
	}

	if _, err := c.orders.UpdateOrderStatus(ctx, event.OrderID, status); err != nil {
		c.logger.Error("Failed to update order status", logging.Fields{
			"order_id": event.OrderID,
			"status":   status,
			"error":    err.Error(),
		})
		return
	}

	c.logger.Info("Order status updated from fulfilment", logging.Fields{
		"order_id": event.OrderID,
		"status":   status,
		"tracking": event.Tracking,
	})
}
