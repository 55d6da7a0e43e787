package repository

import (
	"context"
	"database/sql"

	"complaint-service/internal/model"

	"github.com/google/uuid"
)

type FeedbackRepository struct {
	db *sql.DB
}

func NewFeedbackRepository(db *sql.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// Create fails with ErrDuplicate when the submitter already rated the complaint.
func (r *FeedbackRepository) Create(ctx context.Context, f *model.Feedback) error {
	query := `
		INSERT INTO feedback (id, submitted_by, complaint_id, rating, comments, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query, f.ID, f.SubmittedBy, f.ComplaintID, f.Rating, f.Comments, f.CreatedAt)
	return translate(err)
}

func (r *FeedbackRepository) FindByUserAndComplaint(ctx context.Context, userID, complaintID uuid.UUID) (*model.Feedback, error) {
	query := `
		SELECT id, submitted_by, complaint_id, rating, comments, created_at
		FROM feedback
		WHERE submitted_by = $1 AND complaint_id = $2
	`
	f := &model.Feedback{}
	err := r.db.QueryRowContext(ctx, query, userID, complaintID).Scan(
		&f.ID,
		&f.SubmittedBy,
		&f.ComplaintID,
		&f.Rating,
		&f.Comments,
		&f.CreatedAt,
	)
	if err != nil {
		return nil, translate(err)
	}
	return f, nil
}

// Returns all feedback newest first with submitter and complaint summaries joined in.
func (r *FeedbackRepository) ListWithDetails(ctx context.Context) ([]model.Feedback, error) {
	query := `
		SELECT f.id, f.submitted_by, f.complaint_id, f.rating, f.comments, f.created_at,
			u.username, u.email,
			c.title, c.status, d.name
		FROM feedback f
		JOIN users u ON f.submitted_by = u.id
		JOIN complaints c ON f.complaint_id = c.id
		JOIN departments d ON c.department_id = d.id
		ORDER BY f.created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []model.Feedback{}
	for rows.Next() {
		f := model.Feedback{User: &model.UserSummary{}, Complaint: &model.ComplaintSummary{}}
		err := rows.Scan(
			&f.ID,
			&f.SubmittedBy,
			&f.ComplaintID,
			&f.Rating,
			&f.Comments,
			&f.CreatedAt,
			&f.User.Username,
			&f.User.Email,
			&f.Complaint.Title,
			&f.Complaint.Status,
			&f.Complaint.Department,
		)
		if err != nil {
			return nil, err
		}
		f.User.ID = f.SubmittedBy
		f.Complaint.ID = f.ComplaintID
		list = append(list, f)
	}
	return list, rows.Err()
}

// Stats returns the number of feedback rows and their mean rating.
func (r *FeedbackRepository) Stats(ctx context.Context) (count int, average float64, err error) {
	query := `SELECT COUNT(*), COALESCE(AVG(rating), 0) FROM feedback`
	err = r.db.QueryRowContext(ctx, query).Scan(&count, &average)
	return count, average, err
}
