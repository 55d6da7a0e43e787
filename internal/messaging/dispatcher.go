package messaging

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"complaint-service/internal/logger"
	"complaint-service/internal/model"
)

// handlerTimeout bounds one fanout run (email retries included).
const handlerTimeout = 2 * time.Minute

// EventHandler performs the side effects of a committed lifecycle change.
type EventHandler interface {
	HandleComplaintEvent(ctx context.Context, event model.ComplaintEvent) error
}

type Publisher interface {
	Publish(ctx context.Context, routingKey, messageID string, body []byte) error
}

type OutboxStore interface {
	Create(ctx context.Context, routingKey string, payload any) error
}

// LocalDispatcher runs the handler in-process on its own goroutine per event.
type LocalDispatcher struct {
	handler EventHandler
	wg      sync.WaitGroup
}

func NewLocalDispatcher(handler EventHandler) *LocalDispatcher {
	return &LocalDispatcher{handler: handler}
}

// Dispatch returns immediately. The handler runs detached from the request context so that
// a finished HTTP response does not cancel the fanout.
func (d *LocalDispatcher) Dispatch(_ context.Context, event model.ComplaintEvent) {
	if event.MessageID == "" {
		event.MessageID = uuid.NewString()
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				logger.Error("Complaint event handler panicked",
					zap.String("message_id", event.MessageID),
					zap.Any("panic", r),
				)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
		defer cancel()

		if err := d.handler.HandleComplaintEvent(ctx, event); err != nil {
			logger.Error("Complaint event handling failed",
				zap.String("type", event.Type),
				zap.String("complaint_id", event.ComplaintID.String()),
				zap.Error(err),
			)
		}
	}()
}

// Wait blocks until every dispatched event has been handled.
func (d *LocalDispatcher) Wait() {
	d.wg.Wait()
}

// RabbitDispatcher publishes events to the exchange. Events that cannot be published are
// parked in the outbox for the OutboxWorker to retry.
type RabbitDispatcher struct {
	publisher Publisher
	outbox    OutboxStore
}

func NewRabbitDispatcher(publisher Publisher, outbox OutboxStore) *RabbitDispatcher {
	return &RabbitDispatcher{publisher: publisher, outbox: outbox}
}

func (d *RabbitDispatcher) Dispatch(ctx context.Context, event model.ComplaintEvent) {
	if event.MessageID == "" {
		event.MessageID = uuid.NewString()
	}

	// The request may already be finishing; publishing must outlive it.
	ctx = context.WithoutCancel(ctx)

	body, err := json.Marshal(event)
	if err != nil {
		logger.Error("Failed to encode complaint event", zap.Error(err))
		return
	}

	pubErr := d.publisher.Publish(ctx, event.Type, event.MessageID, body)
	if pubErr == nil {
		return
	}

	logger.Warn("Publish failed, storing event in outbox",
		zap.String("message_id", event.MessageID),
		zap.String("routing_key", event.Type),
		zap.Error(pubErr),
	)
	if err := d.outbox.Create(ctx, event.Type, event); err != nil {
		logger.Error("Failed to store event in outbox",
			zap.String("message_id", event.MessageID),
			zap.Error(err),
		)
	}
}
