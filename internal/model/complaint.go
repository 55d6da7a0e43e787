package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

type ComplaintStatus string

const (
	StatusOpen       ComplaintStatus = "Open"
	StatusInProgress ComplaintStatus = "In Progress"
	StatusResolved   ComplaintStatus = "Resolved"
	StatusClosed     ComplaintStatus = "Closed"
)

var ComplaintStatuses = []ComplaintStatus{StatusOpen, StatusInProgress, StatusResolved, StatusClosed}

func (s ComplaintStatus) Valid() bool {
	for _, v := range ComplaintStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// FeedbackEligible reports whether the owner may rate a complaint in this status.
func (s ComplaintStatus) FeedbackEligible() bool {
	return s == StatusResolved || s == StatusClosed
}

type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
	PriorityUrgent Priority = "Urgent"
)

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

func (p Priority) Valid() bool {
	for _, v := range Priorities {
		if p == v {
			return true
		}
	}
	return false
}

type Attachment struct {
	Filename string `json:"filename"`
	Filepath string `json:"filepath"`
	Mimetype string `json:"mimetype"`
}

// Attachments is stored as a JSONB column.
type Attachments []Attachment

func (a Attachments) Value() (driver.Value, error) {
	if a == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(a)
}

func (a *Attachments) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*a = Attachments{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("attachments: unsupported column type")
	}
	return json.Unmarshal(raw, a)
}

type Complaint struct {
	ID           uuid.UUID       `json:"id"`
	UserID       uuid.UUID       `json:"user_id"`
	User         *UserSummary    `json:"user,omitempty"`
	DepartmentID uuid.UUID       `json:"department_id"`
	Department   *Department     `json:"department,omitempty"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Status       ComplaintStatus `json:"status"`
	Priority     Priority        `json:"priority"`
	Attachments  Attachments     `json:"attachments"`
	Seen         bool            `json:"seen"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// UserSummary is the owner view embedded in complaint and feedback listings.
type UserSummary struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
}

// Request/Response DTOs
type CreateComplaintRequest struct {
	Title        string     `form:"title" json:"title" validate:"required,max=200"`
	Description  string     `form:"description" json:"description" validate:"required"`
	DepartmentID *uuid.UUID `form:"department_id" json:"department_id" validate:"required"`
	Priority     Priority   `form:"priority" json:"priority" validate:"omitempty,oneof=Low Medium High Urgent"`
}

type UpdateComplaintRequest struct {
	Title        *string    `form:"title" json:"title" validate:"omitempty,max=200"`
	Description  *string    `form:"description" json:"description"`
	DepartmentID *uuid.UUID `form:"department_id" json:"department_id"`
	Priority     *Priority  `form:"priority" json:"priority" validate:"omitempty,oneof=Low Medium High Urgent"`
}

type UpdateStatusRequest struct {
	Status ComplaintStatus `json:"status" validate:"required"`
}

// ComplaintFilter narrows admin listings. Zero values match everything.
type ComplaintFilter struct {
	DepartmentID *uuid.UUID
	Status       *ComplaintStatus
	Seen         *bool
}
