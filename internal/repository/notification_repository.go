package repository

import (
	"context"
	"database/sql"

	"complaint-service/internal/model"

	"github.com/google/uuid"
)

type NotificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n *model.Notification) error {
	query := `
		INSERT INTO notifications (id, user_id, complaint_id, message, type, is_read, feedback_given, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		n.ID,
		n.UserID,
		n.ComplaintID,
		n.Message,
		n.Type,
		n.IsRead,
		n.FeedbackGiven,
		n.CreatedAt,
	)
	return translate(err)
}

const notificationSelect = `
	SELECT n.id, n.user_id, n.complaint_id, n.message, n.type, n.is_read, n.feedback_given, n.created_at,
		c.title, c.status
	FROM notifications n
	LEFT JOIN complaints c ON n.complaint_id = c.id`

func scanNotification(row scanner) (*model.Notification, error) {
	n := &model.Notification{}
	var complaintID uuid.NullUUID
	var title, status sql.NullString

	err := row.Scan(
		&n.ID,
		&n.UserID,
		&complaintID,
		&n.Message,
		&n.Type,
		&n.IsRead,
		&n.FeedbackGiven,
		&n.CreatedAt,
		&title,
		&status,
	)
	if err != nil {
		return nil, err
	}
	if complaintID.Valid {
		id := complaintID.UUID
		n.ComplaintID = &id
		if title.Valid {
			n.Complaint = &model.ComplaintSummary{
				ID:     id,
				Title:  title.String,
				Status: model.ComplaintStatus(status.String),
			}
		}
	}
	return n, nil
}

func (r *NotificationRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Notification, error) {
	n, err := scanNotification(r.db.QueryRowContext(ctx, notificationSelect+` WHERE n.id = $1`, id))
	if err != nil {
		return nil, translate(err)
	}
	return n, nil
}

// Returns the user's notifications newest first with the complaint summary joined in.
func (r *NotificationRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]model.Notification, error) {
	rows, err := r.db.QueryContext(ctx, notificationSelect+` WHERE n.user_id = $1 ORDER BY n.created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notifications := []model.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, *n)
	}
	return notifications, rows.Err()
}

func (r *NotificationRepository) GetUnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = FALSE`
	var count int
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&count)
	return count, err
}

func (r *NotificationRepository) MarkAsRead(ctx context.Context, notificationID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = $1`, notificationID)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

func (r *NotificationRepository) MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	query := `UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND is_read = FALSE`
	result, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// ExistsForComplaint reports whether userID already holds a notification of kind about the
// complaint.
func (r *NotificationRepository) ExistsForComplaint(ctx context.Context, userID, complaintID uuid.UUID, kind model.NotificationType) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM notifications WHERE user_id = $1 AND complaint_id = $2 AND type = $3)`
	var exists bool
	err := r.db.QueryRowContext(ctx, query, userID, complaintID, kind).Scan(&exists)
	return exists, err
}

// MarkFeedbackGiven flips feedback_given on a notification owned by userID.
func (r *NotificationRepository) MarkFeedbackGiven(ctx context.Context, notificationID, userID uuid.UUID) error {
	query := `UPDATE notifications SET feedback_given = TRUE WHERE id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, notificationID, userID)
	if err != nil {
		return err
	}
	return checkAffected(result)
}
