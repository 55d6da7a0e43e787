package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventComplaintCreated       = "complaint.created"
	EventComplaintStatusUpdated = "complaint.status.updated"
)

// ComplaintEvent is the payload dispatched after a lifecycle change commits.
type ComplaintEvent struct {
	MessageID    string          `json:"message_id"`
	Type         string          `json:"type"`
	ComplaintID  uuid.UUID       `json:"complaint_id"`
	Title        string          `json:"title"`
	OwnerID      uuid.UUID       `json:"owner_id"`
	OwnerEmail   string          `json:"owner_email"`
	OwnerName    string          `json:"owner_name"`
	DepartmentID uuid.UUID       `json:"department_id"`
	OldStatus    ComplaintStatus `json:"old_status,omitempty"`
	NewStatus    ComplaintStatus `json:"new_status"`
	OccurredAt   time.Time       `json:"occurred_at"`
}

type OutboxStatus string

const (
	OutboxPending   OutboxStatus = "pending"
	OutboxPublished OutboxStatus = "published"
	OutboxFailed    OutboxStatus = "failed"
)

type OutboxEvent struct {
	ID          uuid.UUID    `json:"id"`
	RoutingKey  string       `json:"routing_key"`
	Payload     []byte       `json:"payload"`
	Status      OutboxStatus `json:"status"`
	RetryCount  int          `json:"retry_count"`
	LastError   *string      `json:"last_error,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	PublishedAt *time.Time   `json:"published_at,omitempty"`
}
