package model

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationStatusUpdate    NotificationType = "status_update"
	NotificationFeedbackRequest NotificationType = "feedback_request"
	NotificationNewComplaint    NotificationType = "new_complaint"
)

type Notification struct {
	ID            uuid.UUID         `json:"id"`
	UserID        uuid.UUID         `json:"user_id"`
	ComplaintID   *uuid.UUID        `json:"complaint_id,omitempty"`
	Complaint     *ComplaintSummary `json:"complaint,omitempty"`
	Message       string            `json:"message"`
	Type          NotificationType  `json:"type"`
	IsRead        bool              `json:"is_read"`
	FeedbackGiven bool              `json:"feedback_given"`
	CreatedAt     time.Time         `json:"created_at"`
}

type NotificationListResponse struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int            `json:"unread_count"`
}
