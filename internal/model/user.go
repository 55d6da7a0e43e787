package model

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// Privileged reports whether the role may see every complaint.
func (r Role) Privileged() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

type User struct {
	ID           uuid.UUID   `json:"id"`
	Username     string      `json:"username"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"-"`
	Role         Role        `json:"role"`
	DepartmentID *uuid.UUID  `json:"department_id,omitempty"`
	Department   *Department `json:"department,omitempty"`
	IsVerified   bool        `json:"is_verified"`
	OTP          *string     `json:"-"`
	OTPExpiry    *time.Time  `json:"-"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// Request/Response DTOs
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type VerifyEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,numeric"`
}

type EmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type LoginRequest struct {
	// Identifier is an email address or a username.
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	OTP         string `json:"otp" validate:"required,numeric"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

type CreateUserRequest struct {
	Username     string     `json:"username" validate:"required,min=3,max=50"`
	Email        string     `json:"email" validate:"required,email"`
	Password     string     `json:"password" validate:"required,min=6"`
	Role         Role       `json:"role" validate:"required,oneof=user admin"`
	DepartmentID *uuid.UUID `json:"department_id"`
}

type UpdateUserRequest struct {
	Username     *string    `json:"username" validate:"omitempty,min=3,max=50"`
	Email        *string    `json:"email" validate:"omitempty,email"`
	Role         *Role      `json:"role" validate:"omitempty,oneof=user admin superadmin"`
	DepartmentID *uuid.UUID `json:"department_id"`

	// ClearDepartment detaches the user from any department.
	ClearDepartment bool `json:"clear_department"`
}
