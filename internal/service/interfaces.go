package service

import (
	"context"
	"mime/multipart"

	"github.com/google/uuid"

	"complaint-service/internal/model"
)

type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	List(ctx context.Context, role *model.Role) ([]model.User, error)
	ListAdminsByDepartment(ctx context.Context, departmentID uuid.UUID) ([]model.User, error)
	Update(ctx context.Context, u *model.User) error
	SaveWithSeatCheck(ctx context.Context, u *model.User, isNew bool, departmentID uuid.UUID, check func(seated int) error) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountByRole(ctx context.Context) (map[string]int, error)
}

type DepartmentStore interface {
	Create(ctx context.Context, d *model.Department) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Department, error)
	FindByName(ctx context.Context, name string) (*model.Department, error)
	List(ctx context.Context) ([]model.DepartmentSummary, error)
	Update(ctx context.Context, d *model.Department) error
	ReferenceCounts(ctx context.Context, id uuid.UUID) (complaints, admins int, err error)
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int, error)
}

type ComplaintStore interface {
	Create(ctx context.Context, c *model.Complaint) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Complaint, error)
	FindByUser(ctx context.Context, userID uuid.UUID) ([]model.Complaint, error)
	FindAll(ctx context.Context, filter model.ComplaintFilter) ([]model.Complaint, error)
	UpdateContent(ctx context.Context, c *model.Complaint) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.ComplaintStatus) (model.ComplaintStatus, error)
	MarkSeen(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	AttachmentsByUser(ctx context.Context, userID uuid.UUID) (model.Attachments, error)
}

type FeedbackStore interface {
	Create(ctx context.Context, f *model.Feedback) error
	FindByUserAndComplaint(ctx context.Context, userID, complaintID uuid.UUID) (*model.Feedback, error)
	ListWithDetails(ctx context.Context) ([]model.Feedback, error)
	Stats(ctx context.Context) (count int, average float64, err error)
}

type NotificationStore interface {
	Create(ctx context.Context, n *model.Notification) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Notification, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]model.Notification, error)
	GetUnreadCount(ctx context.Context, userID uuid.UUID) (int, error)
	MarkAsRead(ctx context.Context, notificationID uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkFeedbackGiven(ctx context.Context, notificationID, userID uuid.UUID) error
	ExistsForComplaint(ctx context.Context, userID, complaintID uuid.UUID, kind model.NotificationType) (bool, error)
}

// AttachmentStore persists uploaded files and removes them again.
type AttachmentStore interface {
	Check(files []*multipart.FileHeader) error
	Save(files []*multipart.FileHeader) (model.Attachments, error)
	Remove(attachments model.Attachments)
}

// Dispatcher hands a committed lifecycle event to the fanout. It never reports failure to
// the caller.
type Dispatcher interface {
	Dispatch(ctx context.Context, event model.ComplaintEvent)
}

// Pusher delivers a freshly stored notification to the recipient's live stream.
type Pusher interface {
	SendToUser(n *model.Notification)
}
