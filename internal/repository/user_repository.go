package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"complaint-service/internal/model"

	"github.com/google/uuid"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `
	u.id, u.username, u.email, u.password_hash, u.role, u.department_id, u.is_verified,
	u.otp, u.otp_expiry, u.created_at, u.updated_at,
	d.id, d.name, d.description`

func scanUser(row scanner) (*model.User, error) {
	u := &model.User{}
	var deptID, joinedID uuid.NullUUID
	var deptName, deptDesc, otp sql.NullString
	var otpExpiry sql.NullTime

	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&deptID,
		&u.IsVerified,
		&otp,
		&otpExpiry,
		&u.CreatedAt,
		&u.UpdatedAt,
		&joinedID,
		&deptName,
		&deptDesc,
	)
	if err != nil {
		return nil, err
	}

	if deptID.Valid {
		id := deptID.UUID
		u.DepartmentID = &id
	}
	if joinedID.Valid {
		u.Department = &model.Department{ID: joinedID.UUID, Name: deptName.String, Description: deptDesc.String}
	}
	if otp.Valid {
		u.OTP = &otp.String
	}
	if otpExpiry.Valid {
		u.OTPExpiry = &otpExpiry.Time
	}
	return u, nil
}

func (r *UserRepository) Create(ctx context.Context, u *model.User) error {
	return insertUser(ctx, r.db, u)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertUser(ctx context.Context, db execer, u *model.User) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, role, department_id, is_verified,
			otp, otp_expiry, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := db.ExecContext(ctx, query,
		u.ID,
		u.Username,
		u.Email,
		u.PasswordHash,
		u.Role,
		u.DepartmentID,
		u.IsVerified,
		u.OTP,
		u.OTPExpiry,
		u.CreatedAt,
		u.UpdatedAt,
	)
	return translate(err)
}

func (r *UserRepository) findOne(ctx context.Context, where string, arg any) (*model.User, error) {
	query := `SELECT ` + userColumns + `
		FROM users u
		LEFT JOIN departments d ON u.department_id = d.id
		WHERE ` + where
	u, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		return nil, translate(err)
	}
	return u, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return r.findOne(ctx, "u.id = $1", id)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, "u.email = $1", strings.ToLower(strings.TrimSpace(email)))
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.findOne(ctx, "u.username = $1", strings.TrimSpace(username))
}

// Returns users ordered by creation time, optionally restricted to one role.
func (r *UserRepository) List(ctx context.Context, role *model.Role) ([]model.User, error) {
	query := `SELECT ` + userColumns + `
		FROM users u
		LEFT JOIN departments d ON u.department_id = d.id`
	var args []any
	if role != nil {
		query += ` WHERE u.role = $1`
		args = append(args, *role)
	}
	query += ` ORDER BY u.created_at DESC`

	return r.queryUsers(ctx, query, args...)
}

func (r *UserRepository) ListAdminsByDepartment(ctx context.Context, departmentID uuid.UUID) ([]model.User, error) {
	query := `SELECT ` + userColumns + `
		FROM users u
		LEFT JOIN departments d ON u.department_id = d.id
		WHERE u.role = 'admin' AND u.department_id = $1
		ORDER BY u.created_at`
	return r.queryUsers(ctx, query, departmentID)
}

func (r *UserRepository) queryUsers(ctx context.Context, query string, args ...any) ([]model.User, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// Update writes every mutable column of u.
func (r *UserRepository) Update(ctx context.Context, u *model.User) error {
	return updateUser(ctx, r.db, u)
}

func updateUser(ctx context.Context, db execer, u *model.User) error {
	u.UpdatedAt = time.Now()
	query := `
		UPDATE users
		SET username = $1, email = $2, password_hash = $3, role = $4, department_id = $5,
			is_verified = $6, otp = $7, otp_expiry = $8, updated_at = $9
		WHERE id = $10
	`
	result, err := db.ExecContext(ctx, query,
		u.Username,
		u.Email,
		u.PasswordHash,
		u.Role,
		u.DepartmentID,
		u.IsVerified,
		u.OTP,
		u.OTPExpiry,
		u.UpdatedAt,
		u.ID,
	)
	if err != nil {
		return translate(err)
	}
	return checkAffected(result)
}

// SaveWithSeatCheck inserts (isNew) or updates u as an admin of departmentID. The department row
// is locked for the duration so that concurrent assignments see each other's seats; check
// receives the number of other admins already holding a seat and aborts the write by
// returning an error.
func (r *UserRepository) SaveWithSeatCheck(ctx context.Context, u *model.User, isNew bool, departmentID uuid.UUID, check func(seated int) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var locked uuid.UUID
	err = tx.QueryRowContext(ctx, `SELECT id FROM departments WHERE id = $1 FOR UPDATE`, departmentID).Scan(&locked)
	if err != nil {
		return translate(err)
	}

	var seated int
	query := `SELECT COUNT(*) FROM users WHERE role = 'admin' AND department_id = $1 AND id <> $2`
	if err := tx.QueryRowContext(ctx, query, departmentID, u.ID).Scan(&seated); err != nil {
		return err
	}

	if err := check(seated); err != nil {
		return err
	}

	if isNew {
		err = insertUser(ctx, tx, u)
	} else {
		err = updateUser(ctx, tx, u)
	}
	if err != nil {
		return err
	}

	return tx.Commit()
}

// Delete removes the user. Complaints, feedback and notifications go with it through
// ON DELETE CASCADE.
func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return translate(err)
	}
	return checkAffected(result)
}

func (r *UserRepository) CountByRole(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT role, COUNT(*) FROM users GROUP BY role`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var role string
		var count int
		if err := rows.Scan(&role, &count); err != nil {
			return nil, err
		}
		counts[role] = count
	}
	return counts, rows.Err()
}

// EnsureSuperAdmin creates the bootstrap super-admin when no account with that email exists.
func (r *UserRepository) EnsureSuperAdmin(ctx context.Context, u *model.User) (bool, error) {
	query := `
		INSERT INTO users (id, username, email, password_hash, role, is_verified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 'superadmin', TRUE, NOW(), NOW())
		ON CONFLICT DO NOTHING
	`
	result, err := r.db.ExecContext(ctx, query, u.ID, u.Username, u.Email, u.PasswordHash)
	if err != nil {
		return false, fmt.Errorf("seed superadmin: %w", err)
	}
	n, err := result.RowsAffected()
	return n > 0, err
}
