package model

import (
	"time"

	"github.com/google/uuid"
)

type Feedback struct {
	ID          uuid.UUID         `json:"id"`
	SubmittedBy uuid.UUID         `json:"submitted_by"`
	ComplaintID uuid.UUID         `json:"complaint_id"`
	Rating      int               `json:"rating"`
	Comments    string            `json:"comments"`
	CreatedAt   time.Time         `json:"created_at"`
	User        *UserSummary      `json:"user,omitempty"`
	Complaint   *ComplaintSummary `json:"complaint,omitempty"`
}

// ComplaintSummary is the complaint view joined into feedback and notification listings.
type ComplaintSummary struct {
	ID         uuid.UUID       `json:"id"`
	Title      string          `json:"title"`
	Status     ComplaintStatus `json:"status"`
	Department string          `json:"department,omitempty"`
}

type SubmitFeedbackRequest struct {
	ComplaintID    uuid.UUID  `json:"complaint_id" validate:"required"`
	Rating         int        `json:"rating" validate:"required,min=1,max=5"`
	Comments       string     `json:"comments" validate:"max=2000"`
	NotificationID *uuid.UUID `json:"notification_id"`
}

type FeedbackAnalytics struct {
	Feedback      []Feedback  `json:"feedback"`
	AverageRating float64     `json:"average_rating"`
	Distribution  map[int]int `json:"distribution"`
}
