package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/MimeLyc/caption-studio/internal/video"
	"github.com/MimeLyc/caption-studio/pkg/log"
)

const DefaultExchange = "caption-studio.events"

// channel is the subset of *amqp.Channel the publisher uses.
type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPPublisher forwards lifecycle events to a topic exchange with routing
// keys such as "video.status.transcribed".
type AMQPPublisher struct {
	conn     io.Closer
	exchange string
	timeout  time.Duration

	mu sync.Mutex
	ch channel
}

func DialAMQP(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}
	p, err := newPublisher(ch, conn, exchange)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	return p, nil
}

func newPublisher(ch channel, conn io.Closer, exchange string) (*AMQPPublisher, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}
	return &AMQPPublisher{
		conn:     conn,
		exchange: exchange,
		timeout:  5 * time.Second,
		ch:       ch,
	}, nil
}

// Notify publishes event. Failures are logged and dropped.
func (p *AMQPPublisher) Notify(event video.Event) {
	if err := p.Publish(context.Background(), event); err != nil {
		log.Warn("Dropped %s event for %q: %v", event.Type, event.VideoID, err)
	}
}

func (p *AMQPPublisher) Publish(ctx context.Context, event video.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch == nil {
		return errors.New("publisher closed")
	}
	err = p.ch.PublishWithContext(ctx, p.exchange, RoutingKey(event), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    event.Timestamp,
		MessageId:    event.VideoID,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

func RoutingKey(event video.Event) string {
	key := "video." + string(event.Type)
	if event.Status != "" {
		key += "." + string(event.Status)
	}
	return key
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	ch := p.ch
	p.ch = nil
	p.mu.Unlock()

	var errs []error
	if ch != nil {
		errs = append(errs, ch.Close())
	}
	if p.conn != nil {
		errs = append(errs, p.conn.Close())
	}
	log.Info("RabbitMQ publisher closed")
	return errors.Join(errs...)
}
