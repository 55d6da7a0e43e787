package messaging

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/avast/retry-go"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"complaint-service/internal/logger"
	"complaint-service/internal/model"
)

const (
	maxRetryAttempts = 3
	initialDelay     = 1 * time.Second
	maxDelay         = 30 * time.Second
	resubscribeDelay = 5 * time.Second
)

var errMalformedEvent = errors.New("malformed complaint event")

type ProcessedStore interface {
	IsProcessed(ctx context.Context, messageID string) (bool, error)
	MarkProcessed(ctx context.Context, messageID string) error
}

type QueueSource interface {
	ConsumeQueue(queueName string) (<-chan amqp.Delivery, error)
}

// Consumer feeds queued complaint events to the fanout handler. Failed handling is retried with
// backoff and finally dead-lettered; handled message ids are recorded so redeliveries are acked
// without running the side effects twice.
type Consumer struct {
	source     QueueSource
	processed  ProcessedStore
	handler    EventHandler
	retryDelay time.Duration
	done       chan struct{}
	wg         sync.WaitGroup
}

func NewConsumer(source QueueSource, processed ProcessedStore, handler EventHandler) *Consumer {
	return &Consumer{
		source:     source,
		processed:  processed,
		handler:    handler,
		retryDelay: initialDelay,
		done:       make(chan struct{}),
	}
}

func (c *Consumer) Start() {
	for _, b := range Bindings {
		c.wg.Add(1)
		go c.consumeQueue(b.Queue)
	}
	logger.Info("Complaint event consumers started", zap.Int("queues", len(Bindings)))
}

func (c *Consumer) consumeQueue(queueName string) {
	defer c.wg.Done()

	for {
		select {
		case <-c.done:
			return
		default:
		}

		msgs, err := c.source.ConsumeQueue(queueName)
		if err != nil {
			logger.Warn("Consume failed, retrying", zap.String("queue", queueName), zap.Error(err))
			select {
			case <-c.done:
				return
			case <-time.After(resubscribeDelay):
			}
			continue
		}

		logger.Info("Listening for messages", zap.String("queue", queueName))
		c.processQueue(queueName, msgs)
	}
}

func (c *Consumer) processQueue(queueName string, msgs <-chan amqp.Delivery) {
	for {
		select {
		case <-c.done:
			return
		case msg, ok := <-msgs:
			if !ok {
				logger.Warn("Delivery channel closed, resubscribing", zap.String("queue", queueName))
				return
			}
			c.handleDelivery(queueName, msg)
		}
	}
}

func (c *Consumer) handleDelivery(queueName string, msg amqp.Delivery) {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	messageID := msg.MessageId
	if messageID == "" {
		sum := sha256.Sum256(msg.Body)
		messageID = hex.EncodeToString(sum[:16])
	}
	log := logger.With(zap.String("queue", queueName), zap.String("message_id", messageID))

	processed, err := c.processed.IsProcessed(ctx, messageID)
	if err != nil {
		log.Warn("Idempotency check failed", zap.Error(err))
	}
	if processed {
		log.Debug("Message already processed")
		msg.Ack(false)
		return
	}

	var event model.ComplaintEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil || event.Type == "" {
		log.Error("Dropping malformed message to DLQ", zap.Error(errors.Join(errMalformedEvent, err)))
		msg.Nack(false, false)
		return
	}
	if event.MessageID == "" {
		event.MessageID = messageID
	}

	err = retry.Do(
		func() error {
			return c.handler.HandleComplaintEvent(ctx, event)
		},
		retry.Attempts(maxRetryAttempts),
		retry.Delay(c.retryDelay),
		retry.MaxDelay(maxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Warn("Retrying complaint event", zap.Uint("attempt", n+1), zap.Error(err))
		}),
	)
	if err != nil {
		log.Error("Complaint event failed, sending to DLQ", zap.Error(err))
		msg.Nack(false, false)
		return
	}

	if err := c.processed.MarkProcessed(ctx, messageID); err != nil {
		log.Warn("Mark processed failed", zap.Error(err))
	}
	msg.Ack(false)
}

func (c *Consumer) Stop() {
	close(c.done)
	c.wg.Wait()
	logger.Info("Complaint event consumers stopped")
}
