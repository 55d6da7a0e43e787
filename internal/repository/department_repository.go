package repository

import (
	"context"
	"database/sql"

	"complaint-service/internal/model"

	"github.com/google/uuid"
)

type DepartmentRepository struct {
	db *sql.DB
}

func NewDepartmentRepository(db *sql.DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

func (r *DepartmentRepository) Create(ctx context.Context, d *model.Department) error {
	query := `
		INSERT INTO departments (id, name, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query, d.ID, d.Name, d.Description, d.CreatedAt, d.UpdatedAt)
	return translate(err)
}

func (r *DepartmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Department, error) {
	query := `SELECT id, name, description, created_at, updated_at FROM departments WHERE id = $1`
	d := &model.Department{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&d.ID, &d.Name, &d.Description, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return d, nil
}

// FindByName matches case-insensitively.
func (r *DepartmentRepository) FindByName(ctx context.Context, name string) (*model.Department, error) {
	query := `SELECT id, name, description, created_at, updated_at FROM departments WHERE LOWER(name) = LOWER($1)`
	d := &model.Department{}
	err := r.db.QueryRowContext(ctx, query, name).Scan(&d.ID, &d.Name, &d.Description, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return d, nil
}

// Returns departments ordered by name, each with its complaint and admin counts.
func (r *DepartmentRepository) List(ctx context.Context) ([]model.DepartmentSummary, error) {
	query := `
		SELECT d.id, d.name, d.description, d.created_at, d.updated_at,
			(SELECT COUNT(*) FROM complaints c WHERE c.department_id = d.id),
			(SELECT COUNT(*) FROM users u WHERE u.department_id = d.id AND u.role = 'admin')
		FROM departments d
		ORDER BY d.name
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	departments := []model.DepartmentSummary{}
	for rows.Next() {
		var s model.DepartmentSummary
		err := rows.Scan(
			&s.ID,
			&s.Name,
			&s.Description,
			&s.CreatedAt,
			&s.UpdatedAt,
			&s.ComplaintCount,
			&s.AdminCount,
		)
		if err != nil {
			return nil, err
		}
		departments = append(departments, s)
	}
	return departments, rows.Err()
}

func (r *DepartmentRepository) Update(ctx context.Context, d *model.Department) error {
	query := `UPDATE departments SET name = $1, description = $2, updated_at = $3 WHERE id = $4`
	result, err := r.db.ExecContext(ctx, query, d.Name, d.Description, d.UpdatedAt, d.ID)
	if err != nil {
		return translate(err)
	}
	return checkAffected(result)
}

// ReferenceCounts returns how many complaints and admins point at the department.
func (r *DepartmentRepository) ReferenceCounts(ctx context.Context, id uuid.UUID) (complaints, admins int, err error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM complaints WHERE department_id = $1),
			(SELECT COUNT(*) FROM users WHERE department_id = $1 AND role = 'admin')
	`
	err = r.db.QueryRowContext(ctx, query, id).Scan(&complaints, &admins)
	return complaints, admins, err
}

// Delete fails with ErrReferenced when a foreign key still points at the row.
func (r *DepartmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM departments WHERE id = $1`, id)
	if err != nil {
		return translate(err)
	}
	return checkAffected(result)
}

func (r *DepartmentRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM departments`).Scan(&count)
	return count, err
}
