package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
)

const RoutingKeyOrderPlaced = "order.placed"

// OrderPlaced is published once an order and its items are committed
type OrderPlaced struct {
	OrderID    int64             `json:"order_id"`
	UserID     *int64            `json:"user_id"`
	TotalPrice decimal.Decimal   `json:"total_price"`
	Items      []OrderPlacedItem `json:"items"`
}

type OrderPlacedItem struct {
	BookID   int64           `json:"book_id"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

type Publisher interface {
	Publish(ctx context.Context, routingKey string, v any) error
	Close() error
}

// NopPublisher drops every event. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }
func (NopPublisher) Close() error                                { return nil }

// RabbitPublisher sends JSON events to a durable topic exchange. A closed
// connection or channel is reopened on the next publish.
type RabbitPublisher struct {
	url      string
	exchange string
	dial     func(url string) (*amqp.Connection, error)

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewRabbitPublisher(url, exchange string) (*RabbitPublisher, error) {
	r := &RabbitPublisher{url: url, exchange: exchange, dial: amqp.Dial}
	if err := r.connect(); err != nil {
		return nil, err
	}
	return r, nil
}

// Publish is safe for concurrent use. It returns when ctx is done even if
// the broker is blocking writes. The frame may still go out afterwards.
func (r *RabbitPublisher) Publish(ctx context.Context, routingKey string, v any) error {
	msg, err := newPublishing(v)
	if err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		r.mu.Lock()
		defer r.mu.Unlock()

		if err := ctx.Err(); err != nil {
			done <- err
			return
		}
		if err := r.connect(); err != nil {
			done <- err
			return
		}
		done <- r.ch.PublishWithContext(ctx, r.exchange, routingKey, false, false, msg)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *RabbitPublisher) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ch != nil {
		_ = r.ch.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

// connect (re)opens whatever is missing or closed. Callers hold mu.
func (r *RabbitPublisher) connect() error {
	if r.conn == nil || r.conn.IsClosed() {
		conn, err := r.dial(r.url)
		if err != nil {
			return err
		}
		r.conn, r.ch = conn, nil
	}
	if r.ch == nil || r.ch.IsClosed() {
		ch, err := r.conn.Channel()
		if err != nil {
			return err
		}
		if err := ch.ExchangeDeclare(r.exchange, "topic", true, false, false, false, nil); err != nil {
			_ = ch.Close()
			return err
		}
		r.ch = ch
	}
	return nil
}

func newPublishing(v any) (amqp.Publishing, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return amqp.Publishing{}, err
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}, nil
}
