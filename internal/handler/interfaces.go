package handler

import (
	"context"
	"mime/multipart"

	"github.com/google/uuid"

	"complaint-service/internal/messaging"
	"complaint-service/internal/model"
)

type AuthAPI interface {
	Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error)
	VerifyEmail(ctx context.Context, req *model.VerifyEmailRequest) (*model.User, error)
	ResendOTP(ctx context.Context, req *model.EmailRequest) error
	Login(ctx context.Context, req *model.LoginRequest) (*model.AuthResponse, error)
	ForgotPassword(ctx context.Context, req *model.EmailRequest) error
	ResetPassword(ctx context.Context, req *model.ResetPasswordRequest) error
	Me(ctx context.Context, userID uuid.UUID) (*model.User, error)
}

type ComplaintAPI interface {
	Create(ctx context.Context, actor *model.User, req *model.CreateComplaintRequest, files []*multipart.FileHeader) (*model.Complaint, error)
	ReadOne(ctx context.Context, actor *model.User, id uuid.UUID) (*model.Complaint, error)
	ReadMineForUser(ctx context.Context, actor *model.User) ([]model.Complaint, error)
	ReadAllForAdmin(ctx context.Context, actor *model.User, filter model.ComplaintFilter) ([]model.Complaint, error)
	UpdateContent(ctx context.Context, actor *model.User, id uuid.UUID, req *model.UpdateComplaintRequest, files []*multipart.FileHeader) (*model.Complaint, error)
	UpdateStatus(ctx context.Context, actor *model.User, id uuid.UUID, req *model.UpdateStatusRequest) (*model.Complaint, error)
	MarkSeen(ctx context.Context, actor *model.User, id uuid.UUID) (*model.Complaint, error)
	Delete(ctx context.Context, actor *model.User, id uuid.UUID) error
}

type DepartmentAPI interface {
	List(ctx context.Context) ([]model.DepartmentSummary, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Department, error)
	Create(ctx context.Context, req *model.CreateDepartmentRequest) (*model.Department, error)
	Update(ctx context.Context, id uuid.UUID, req *model.UpdateDepartmentRequest) (*model.Department, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type FeedbackAPI interface {
	Submit(ctx context.Context, actor *model.User, req *model.SubmitFeedbackRequest) (*model.Feedback, error)
	AnalyticsList(ctx context.Context, actor *model.User) (*model.FeedbackAnalytics, error)
}

type NotificationAPI interface {
	ListMine(ctx context.Context, actor *model.User) (*model.NotificationListResponse, error)
	UnreadCount(ctx context.Context, actor *model.User) (int, error)
	MarkRead(ctx context.Context, actor *model.User, id uuid.UUID) error
	MarkAllRead(ctx context.Context, actor *model.User) (int64, error)
}

type UserAPI interface {
	List(ctx context.Context, role *model.Role) ([]model.User, error)
	Get(ctx context.Context, id uuid.UUID) (*model.User, error)
	Create(ctx context.Context, req *model.CreateUserRequest) (*model.User, error)
	Update(ctx context.Context, id uuid.UUID, req *model.UpdateUserRequest) (*model.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type StatsAPI interface {
	AdminDashboard(ctx context.Context, actor *model.User) (*model.AdminDashboard, error)
	SuperAdminStats(ctx context.Context) (*model.SuperAdminStats, error)
}

// StreamHub hands out live notification channels.
type StreamHub interface {
	RegisterClient(userID uuid.UUID) *messaging.SSEClient
	UnregisterClient(client *messaging.SSEClient)
}
