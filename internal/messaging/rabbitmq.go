package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/avast/retry-go"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"complaint-service/internal/logger"
	"complaint-service/internal/model"
)

const (
	ExchangeName    = "campus.complaints"
	DLXExchangeName = "campus.complaints.dlx"

	QueueComplaintCreated = "queue.complaint_created"
	QueueStatusUpdates    = "queue.status_updates"

	deadLetterTTL     = 24 * time.Hour
	reconnectAttempts = 6
	reconnectDelay    = 2 * time.Second
	reconnectMaxDelay = 30 * time.Second
	publishTimeout    = 5 * time.Second
	prefetchCount     = 10
)

var errChannelUnavailable = errors.New("channel not available")

// Binding routes one complaint event type to its work queue. Each work queue dead-letters
// into its own queue on the DLX exchange.
type Binding struct {
	Queue      string
	RoutingKey string
}

func (b Binding) DeadLetterQueue() string { return b.Queue + ".dlq" }

func (b Binding) deadLetterKey() string { return "dlq." + b.RoutingKey }

var Bindings = []Binding{
	{Queue: QueueComplaintCreated, RoutingKey: model.EventComplaintCreated},
	{Queue: QueueStatusUpdates, RoutingKey: model.EventComplaintStatusUpdated},
}

// declarer is the part of *amqp.Channel that sets up the topology.
type declarer interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
}

// declareTopology is idempotent; it runs again after every reconnect.
func declareTopology(ch declarer, bindings []Binding) error {
	for _, exchange := range []string{ExchangeName, DLXExchangeName} {
		if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare exchange %s: %w", exchange, err)
		}
	}

	for _, b := range bindings {
		// The dead-letter target has to exist before the work queue points at it.
		dlq := b.DeadLetterQueue()
		if _, err := ch.QueueDeclare(dlq, true, false, false, false, amqp.Table{
			"x-message-ttl": deadLetterTTL.Milliseconds(),
		}); err != nil {
			return fmt.Errorf("declare queue %s: %w", dlq, err)
		}
		if err := ch.QueueBind(dlq, b.deadLetterKey(), DLXExchangeName, false, nil); err != nil {
			return fmt.Errorf("bind %s: %w", dlq, err)
		}

		if _, err := ch.QueueDeclare(b.Queue, true, false, false, false, amqp.Table{
			"x-dead-letter-exchange":    DLXExchangeName,
			"x-dead-letter-routing-key": b.deadLetterKey(),
		}); err != nil {
			return fmt.Errorf("declare queue %s: %w", b.Queue, err)
		}
		if err := ch.QueueBind(b.Queue, b.RoutingKey, ExchangeName, false, nil); err != nil {
			return fmt.Errorf("bind %s to %s: %w", b.Queue, b.RoutingKey, err)
		}
	}
	return nil
}

// RabbitMQ owns one connection and channel shared by the dispatcher (publishing) and the
// consumer. A dropped connection is re-dialed in the background.
type RabbitMQ struct {
	url string

	mu      sync.RWMutex
	conn    *amqp.Connection
	channel *amqp.Channel

	done      chan struct{}
	closeOnce sync.Once
}

func NewRabbitMQ(host, port, user, password string) (*RabbitMQ, error) {
	r := &RabbitMQ{
		url:  fmt.Sprintf("amqp://%s:%s@%s:%s/", user, password, host, port),
		done: make(chan struct{}),
	}

	conn, ch, err := r.dial()
	if err != nil {
		return nil, err
	}
	r.conn, r.channel = conn, ch

	go r.watch()
	return r, nil
}

func (r *RabbitMQ) dial() (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(r.url)
	if err != nil {
		return nil, nil, fmt.Errorf("dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.Qos(prefetchCount, 0, false); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("qos: %w", err)
	}
	if err := declareTopology(ch, Bindings); err != nil {
		conn.Close()
		return nil, nil, err
	}

	logger.Info("RabbitMQ connected", zap.String("exchange", ExchangeName), zap.Int("queues", len(Bindings)))
	return conn, ch, nil
}

func (r *RabbitMQ) closed() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

// watch waits for the connection to drop and dials again with backoff until it succeeds or
// Close is called.
func (r *RabbitMQ) watch() {
	for {
		r.mu.RLock()
		lost := r.conn.NotifyClose(make(chan *amqp.Error, 1))
		r.mu.RUnlock()

		select {
		case <-r.done:
			return
		case amqpErr := <-lost:
			if amqpErr != nil {
				logger.Warn("RabbitMQ connection lost", zap.String("reason", amqpErr.Reason), zap.Int("code", amqpErr.Code))
			}
		}

		for !r.reconnect() {
			if r.closed() {
				return
			}
		}
	}
}

func (r *RabbitMQ) reconnect() bool {
	var conn *amqp.Connection
	var ch *amqp.Channel

	err := retry.Do(
		func() error {
			var err error
			conn, ch, err = r.dial()
			return err
		},
		retry.Attempts(reconnectAttempts),
		retry.Delay(reconnectDelay),
		retry.MaxDelay(reconnectMaxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(error) bool { return !r.closed() }),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn("RabbitMQ reconnect failed", zap.Uint("attempt", n+1), zap.Error(err))
		}),
	)
	if err != nil {
		logger.Error("RabbitMQ still unreachable", zap.Error(err))
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed() {
		conn.Close()
		return true
	}
	r.conn, r.channel = conn, ch
	return true
}

// Publish sends a persistent JSON message to the complaints exchange.
func (r *RabbitMQ) Publish(ctx context.Context, routingKey, messageID string, body []byte) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.channel == nil || r.channel.IsClosed() {
		return errChannelUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    messageID,
		Timestamp:    time.Now(),
		Body:         body,
	}
	if err := r.channel.PublishWithContext(ctx, ExchangeName, routingKey, false, false, msg); err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}
	return nil
}

// ConsumeQueue subscribes with manual acks so failed events can be retried or dead-lettered.
func (r *RabbitMQ) ConsumeQueue(queueName string) (<-chan amqp.Delivery, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.channel == nil || r.channel.IsClosed() {
		return nil, errChannelUnavailable
	}

	msgs, err := r.channel.Consume(queueName, "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consume %s: %w", queueName, err)
	}
	return msgs, nil
}

func (r *RabbitMQ) Close() {
	r.closeOnce.Do(func() {
		close(r.done)

		r.mu.Lock()
		defer r.mu.Unlock()
		if r.channel != nil {
			r.channel.Close()
		}
		if r.conn != nil {
			r.conn.Close()
		}
		logger.Info("RabbitMQ connection closed")
	})
}
