package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"

	"storefront/internal/domain/model"
)

const OrderPlacedQueue = "order.placed"

// OrderPlaced is the event body published for every new order.
type OrderPlaced struct {
	EventType     string            `json:"eventType"`
	OrderID       int64             `json:"orderId"`
	CustomerEmail string            `json:"customerEmail"`
	Items         []OrderPlacedItem `json:"items"`
	Subtotal      decimal.Decimal   `json:"subtotal"`
	DeliveryFee   decimal.Decimal   `json:"deliveryFee"`
	TotalAmount   decimal.Decimal   `json:"totalAmount"`
	Timestamp     time.Time         `json:"timestamp"`
}

type OrderPlacedItem struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// channel is the part of *amqp.Channel the notifier uses.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type AMQPNotifier struct {
	ch    channel
	queue string
	now   func() time.Time
}

// NewAMQPNotifier opens a channel and declares the durable queue so publishing
// never fails on missing infra.
func NewAMQPNotifier(conn *amqp.Connection, queue string) (*AMQPNotifier, error) {
	if queue == "" {
		queue = OrderPlacedQueue
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare %s: %w", queue, err)
	}
	return newAMQPNotifier(ch, queue), nil
}

func newAMQPNotifier(ch channel, queue string) *AMQPNotifier {
	return &AMQPNotifier{ch: ch, queue: queue, now: time.Now}
}

func (n *AMQPNotifier) Close() error {
	return n.ch.Close()
}

func (n *AMQPNotifier) NotifyOrderPlaced(ctx context.Context, order model.Order) error {
	ev := OrderPlaced{
		EventType:     "OrderPlaced",
		OrderID:       order.ID,
		CustomerEmail: order.CustomerEmail,
		Subtotal:      order.Subtotal,
		DeliveryFee:   order.DeliveryFee,
		TotalAmount:   order.TotalAmount,
		Timestamp:     n.now().UTC(),
	}
	for _, it := range order.Items {
		ev.Items = append(ev.Items, OrderPlacedItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.Price,
		})
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal OrderPlaced: %w", err)
	}

	err = n.ch.PublishWithContext(
		ctx,
		"",      // default exchange
		n.queue, // queue name as routing key
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", n.queue, err)
	}
	return nil
}
