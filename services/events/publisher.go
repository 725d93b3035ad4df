package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"selftape/models"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const Exchange = "bookings"

// AMQPPublisher publishes booking events to a durable topic exchange. The
// event type is the routing key.
type AMQPPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	logger   *zap.Logger
}

func NewAMQPPublisher(url string, logger *zap.Logger) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(Exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &AMQPPublisher{conn: conn, ch: ch, exchange: Exchange, logger: logger}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, ev models.BookingEvent) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	// amqp channels are not safe for concurrent publishing.
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.PublishWithContext(ctx, p.exchange, ev.Type, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.BookingID + ":" + ev.Type,
		Timestamp:    ev.OccurredAt,
		Body:         b,
	})
}

func (p *AMQPPublisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// NopPublisher drops events. It is used when no broker is configured.
type NopPublisher struct {
	Logger *zap.Logger
}

func (p NopPublisher) Publish(_ context.Context, ev models.BookingEvent) error {
	if p.Logger != nil {
		p.Logger.Debug("Booking event (no broker)", zap.String("type", ev.Type), zap.String("bookingID", ev.BookingID))
	}
	return nil
}
