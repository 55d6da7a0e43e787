package messaging

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"complaint-service/internal/logger"
	"complaint-service/internal/model"
)

const (
	workerInterval     = 1 * time.Second
	batchSize          = 50
	cleanupInterval    = 1 * time.Hour
	publishedRetention = 24 * time.Hour
)

type OutboxQueue interface {
	ClaimPending(ctx context.Context, limit int, publish func(model.OutboxEvent) error) (published, failed int, err error)
	DeletePublished(ctx context.Context, olderThan time.Duration) (int64, error)
	GetStats(ctx context.Context) (map[string]int, error)
}

// ProcessedPruner trims the consumer's idempotency table along with the outbox.
type ProcessedPruner interface {
	DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error)
}

// OutboxWorker republishes events whose first publish attempt failed.
type OutboxWorker struct {
	outbox    OutboxQueue
	pruner    ProcessedPruner
	publisher Publisher
	done      chan struct{}
	wg        sync.WaitGroup
}

func NewOutboxWorker(outbox OutboxQueue, pruner ProcessedPruner, publisher Publisher) *OutboxWorker {
	return &OutboxWorker{
		outbox:    outbox,
		pruner:    pruner,
		publisher: publisher,
		done:      make(chan struct{}),
	}
}

func (w *OutboxWorker) Start() {
	w.wg.Add(2)
	go w.processLoop()
	go w.cleanupLoop()
	logger.Info("Outbox worker started")
}

func (w *OutboxWorker) processLoop() {
	defer w.wg.Done()

	ticker := time.NewTicker(workerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			w.processPending(context.Background())
		}
	}
}

func (w *OutboxWorker) processPending(ctx context.Context) {
	published, failed, err := w.outbox.ClaimPending(ctx, batchSize, func(e model.OutboxEvent) error {
		return w.publisher.Publish(ctx, e.RoutingKey, e.ID.String(), e.Payload)
	})
	if err != nil {
		logger.Error("Outbox batch failed", zap.Error(err))
		return
	}
	if published > 0 || failed > 0 {
		logger.Info("Outbox batch processed", zap.Int("published", published), zap.Int("failed", failed))
	}
}

func (w *OutboxWorker) cleanupLoop() {
	defer w.wg.Done()

	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			w.cleanup(context.Background())
		}
	}
}

func (w *OutboxWorker) cleanup(ctx context.Context) {
	deleted, err := w.outbox.DeletePublished(ctx, publishedRetention)
	if err != nil {
		logger.Error("Outbox cleanup failed", zap.Error(err))
	} else if deleted > 0 {
		logger.Info("Outbox cleaned", zap.Int64("deleted", deleted))
	}

	if stats, err := w.outbox.GetStats(ctx); err == nil && stats["pending"] > 0 {
		logger.Warn("Outbox backlog", zap.Int("pending", stats["pending"]), zap.Int("published", stats["published"]))
	}

	if w.pruner == nil {
		return
	}
	pruned, err := w.pruner.DeleteOlderThan(ctx, 7*publishedRetention)
	if err != nil {
		logger.Error("Processed message cleanup failed", zap.Error(err))
	} else if pruned > 0 {
		logger.Info("Processed messages pruned", zap.Int64("deleted", pruned))
	}
}

func (w *OutboxWorker) Stop() {
	close(w.done)
	w.wg.Wait()
	logger.Info("Outbox worker stopped")
}
