package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"complaint-service/internal/model"

	"github.com/google/uuid"
)

// maxOutboxRetries is the retry count after which a row stops being picked up.
const maxOutboxRetries = 5

type OutboxRepository struct {
	db *sql.DB
}

func NewOutboxRepository(db *sql.DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

// Create stores an event that could not be published so the outbox worker can retry it.
func (r *OutboxRepository) Create(ctx context.Context, routingKey string, payload any) error {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO outbox_events (id, routing_key, payload, status)
		VALUES ($1, $2, $3, 'pending')
	`
	_, err = r.db.ExecContext(ctx, query, uuid.New(), routingKey, payloadBytes)
	return err
}

// ClaimPending locks up to limit pending rows and hands them to publish one at a time inside a
// single transaction. publish's result decides whether the row is marked published or has its
// retry count bumped. Rows locked by another worker are skipped.
func (r *OutboxRepository) ClaimPending(ctx context.Context, limit int, publish func(model.OutboxEvent) error) (published, failed int, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, err
	}
	defer tx.Rollback()

	query := `
		SELECT id, routing_key, payload, status, retry_count, last_error, created_at
		FROM outbox_events
		WHERE status = 'pending'
		ORDER BY created_at ASC
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`
	rows, err := tx.QueryContext(ctx, query, limit)
	if err != nil {
		return 0, 0, err
	}

	var events []model.OutboxEvent
	for rows.Next() {
		var e model.OutboxEvent
		var lastError sql.NullString
		err := rows.Scan(&e.ID, &e.RoutingKey, &e.Payload, &e.Status, &e.RetryCount, &lastError, &e.CreatedAt)
		if err != nil {
			rows.Close()
			return 0, 0, err
		}
		if lastError.Valid {
			e.LastError = &lastError.String
		}
		events = append(events, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, 0, err
	}

	for _, e := range events {
		if pubErr := publish(e); pubErr != nil {
			_, err = tx.ExecContext(ctx, `
				UPDATE outbox_events
				SET retry_count = retry_count + 1, last_error = $2,
					status = CASE WHEN retry_count + 1 >= $3 THEN 'failed' ELSE 'pending' END
				WHERE id = $1`, e.ID, pubErr.Error(), maxOutboxRetries)
			failed++
		} else {
			_, err = tx.ExecContext(ctx, `
				UPDATE outbox_events SET status = 'published', published_at = NOW() WHERE id = $1`, e.ID)
			published++
		}
		if err != nil {
			return 0, 0, err
		}
	}

	return published, failed, tx.Commit()
}

func (r *OutboxRepository) DeletePublished(ctx context.Context, olderThan time.Duration) (int64, error) {
	query := `
		DELETE FROM outbox_events
		WHERE status = 'published' AND published_at < $1
	`
	result, err := r.db.ExecContext(ctx, query, time.Now().Add(-olderThan))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *OutboxRepository) GetStats(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM outbox_events GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}
