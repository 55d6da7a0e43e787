package repository

import (
	"context"
	"database/sql"
	"time"
)

// ProcessedMessageRepository records consumed message ids so redeliveries are skipped.
type ProcessedMessageRepository struct {
	db *sql.DB
}

func NewProcessedMessageRepository(db *sql.DB) *ProcessedMessageRepository {
	return &ProcessedMessageRepository{db: db}
}

func (r *ProcessedMessageRepository) IsProcessed(ctx context.Context, messageID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM processed_messages WHERE message_id = $1)`
	err := r.db.QueryRowContext(ctx, query, messageID).Scan(&exists)
	return exists, err
}

func (r *ProcessedMessageRepository) MarkProcessed(ctx context.Context, messageID string) error {
	query := `INSERT INTO processed_messages (message_id) VALUES ($1) ON CONFLICT DO NOTHING`
	_, err := r.db.ExecContext(ctx, query, messageID)
	return err
}

func (r *ProcessedMessageRepository) DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM processed_messages WHERE processed_at < $1`, time.Now().Add(-age))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
