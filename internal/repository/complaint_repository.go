package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"complaint-service/internal/model"

	"github.com/google/uuid"
)

type ComplaintRepository struct {
	db *sql.DB
}

func NewComplaintRepository(db *sql.DB) *ComplaintRepository {
	return &ComplaintRepository{db: db}
}

const complaintSelect = `
	SELECT c.id, c.user_id, c.department_id, c.title, c.description, c.status, c.priority,
		c.attachments, c.seen, c.created_at, c.updated_at,
		u.username, u.email,
		d.name, d.description
	FROM complaints c
	JOIN users u ON c.user_id = u.id
	JOIN departments d ON c.department_id = d.id`

func scanComplaint(row scanner) (*model.Complaint, error) {
	c := &model.Complaint{User: &model.UserSummary{}, Department: &model.Department{}}
	err := row.Scan(
		&c.ID,
		&c.UserID,
		&c.DepartmentID,
		&c.Title,
		&c.Description,
		&c.Status,
		&c.Priority,
		&c.Attachments,
		&c.Seen,
		&c.CreatedAt,
		&c.UpdatedAt,
		&c.User.Username,
		&c.User.Email,
		&c.Department.Name,
		&c.Department.Description,
	)
	if err != nil {
		return nil, err
	}
	c.User.ID = c.UserID
	c.Department.ID = c.DepartmentID
	return c, nil
}

func (r *ComplaintRepository) Create(ctx context.Context, c *model.Complaint) error {
	query := `
		INSERT INTO complaints (id, user_id, department_id, title, description, status, priority,
			attachments, seen, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.ExecContext(ctx, query,
		c.ID,
		c.UserID,
		c.DepartmentID,
		c.Title,
		c.Description,
		c.Status,
		c.Priority,
		c.Attachments,
		c.Seen,
		c.CreatedAt,
		c.UpdatedAt,
	)
	return translate(err)
}

func (r *ComplaintRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Complaint, error) {
	c, err := scanComplaint(r.db.QueryRowContext(ctx, complaintSelect+` WHERE c.id = $1`, id))
	if err != nil {
		return nil, translate(err)
	}
	return c, nil
}

func (r *ComplaintRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]model.Complaint, error) {
	return r.query(ctx, complaintSelect+` WHERE c.user_id = $1 ORDER BY c.created_at DESC`, userID)
}

// Returns complaints newest first, narrowed by whichever filter fields are set.
func (r *ComplaintRepository) FindAll(ctx context.Context, filter model.ComplaintFilter) ([]model.Complaint, error) {
	query := complaintSelect + ` WHERE 1=1`
	args := []any{}
	argIndex := 1

	if filter.DepartmentID != nil {
		query += fmt.Sprintf(" AND c.department_id = $%d", argIndex)
		args = append(args, *filter.DepartmentID)
		argIndex++
	}
	if filter.Status != nil {
		query += fmt.Sprintf(" AND c.status = $%d", argIndex)
		args = append(args, *filter.Status)
		argIndex++
	}
	if filter.Seen != nil {
		query += fmt.Sprintf(" AND c.seen = $%d", argIndex)
		args = append(args, *filter.Seen)
		argIndex++
	}

	query += " ORDER BY c.created_at DESC"
	return r.query(ctx, query, args...)
}

func (r *ComplaintRepository) query(ctx context.Context, query string, args ...any) ([]model.Complaint, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	complaints := []model.Complaint{}
	for rows.Next() {
		c, err := scanComplaint(rows)
		if err != nil {
			return nil, err
		}
		complaints = append(complaints, *c)
	}
	return complaints, rows.Err()
}

// UpdateContent writes the owner-editable columns and bumps updated_at.
func (r *ComplaintRepository) UpdateContent(ctx context.Context, c *model.Complaint) error {
	c.UpdatedAt = time.Now()
	query := `
		UPDATE complaints
		SET title = $1, description = $2, department_id = $3, priority = $4, attachments = $5, updated_at = $6
		WHERE id = $7
	`
	result, err := r.db.ExecContext(ctx, query,
		c.Title,
		c.Description,
		c.DepartmentID,
		c.Priority,
		c.Attachments,
		c.UpdatedAt,
		c.ID,
	)
	if err != nil {
		return translate(err)
	}
	return checkAffected(result)
}

// UpdateStatus sets the status under a row lock and returns the status it replaced.
func (r *ComplaintRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.ComplaintStatus) (model.ComplaintStatus, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	var old model.ComplaintStatus
	err = tx.QueryRowContext(ctx, `SELECT status FROM complaints WHERE id = $1 FOR UPDATE`, id).Scan(&old)
	if err != nil {
		return "", translate(err)
	}

	_, err = tx.ExecContext(ctx, `UPDATE complaints SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return "", translate(err)
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return old, nil
}

func (r *ComplaintRepository) MarkSeen(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `UPDATE complaints SET seen = TRUE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

func (r *ComplaintRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM complaints WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

// AttachmentsByUser lists every stored file of the user's complaints, used before the user
// row is deleted and the complaints cascade away.
func (r *ComplaintRepository) AttachmentsByUser(ctx context.Context, userID uuid.UUID) (model.Attachments, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT attachments FROM complaints WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	all := model.Attachments{}
	for rows.Next() {
		var a model.Attachments
		if err := rows.Scan(&a); err != nil {
			return nil, err
		}
		all = append(all, a...)
	}
	return all, rows.Err()
}
