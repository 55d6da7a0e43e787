package handler

import (
	"context"
	"mime/multipart"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"complaint-service/internal/apperr"
	"complaint-service/internal/messaging"
	"complaint-service/internal/model"
)

// ret returns the i-th mocked value, or T's zero value when the expectation returned nil.
func ret[T any](args mock.Arguments, i int) T {
	v, _ := args.Get(i).(T)
	return v
}

type tokenTable map[string]*model.User

func (t tokenTable) Authenticate(_ context.Context, token string) (*model.User, error) {
	if u, ok := t[token]; ok {
		return u, nil
	}
	return nil, apperr.Unauthenticated("invalid or expired token")
}

type authAPIMock struct{ mock.Mock }

func (m *authAPIMock) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	args := m.Called(ctx, req)
	return ret[*model.User](args, 0), args.Error(1)
}

func (m *authAPIMock) VerifyEmail(ctx context.Context, req *model.VerifyEmailRequest) (*model.User, error) {
	args := m.Called(ctx, req)
	return ret[*model.User](args, 0), args.Error(1)
}

func (m *authAPIMock) ResendOTP(ctx context.Context, req *model.EmailRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *authAPIMock) Login(ctx context.Context, req *model.LoginRequest) (*model.AuthResponse, error) {
	args := m.Called(ctx, req)
	return ret[*model.AuthResponse](args, 0), args.Error(1)
}

func (m *authAPIMock) ForgotPassword(ctx context.Context, req *model.EmailRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *authAPIMock) ResetPassword(ctx context.Context, req *model.ResetPasswordRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *authAPIMock) Me(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, userID)
	return ret[*model.User](args, 0), args.Error(1)
}

type complaintAPIMock struct{ mock.Mock }

func (m *complaintAPIMock) Create(ctx context.Context, actor *model.User, req *model.CreateComplaintRequest, files []*multipart.FileHeader) (*model.Complaint, error) {
	args := m.Called(ctx, actor, req, files)
	return ret[*model.Complaint](args, 0), args.Error(1)
}

func (m *complaintAPIMock) ReadOne(ctx context.Context, actor *model.User, id uuid.UUID) (*model.Complaint, error) {
	args := m.Called(ctx, actor, id)
	return ret[*model.Complaint](args, 0), args.Error(1)
}

func (m *complaintAPIMock) ReadMineForUser(ctx context.Context, actor *model.User) ([]model.Complaint, error) {
	args := m.Called(ctx, actor)
	return ret[[]model.Complaint](args, 0), args.Error(1)
}

func (m *complaintAPIMock) ReadAllForAdmin(ctx context.Context, actor *model.User, filter model.ComplaintFilter) ([]model.Complaint, error) {
	args := m.Called(ctx, actor, filter)
	return ret[[]model.Complaint](args, 0), args.Error(1)
}

func (m *complaintAPIMock) UpdateContent(ctx context.Context, actor *model.User, id uuid.UUID, req *model.UpdateComplaintRequest, files []*multipart.FileHeader) (*model.Complaint, error) {
	args := m.Called(ctx, actor, id, req, files)
	return ret[*model.Complaint](args, 0), args.Error(1)
}

func (m *complaintAPIMock) UpdateStatus(ctx context.Context, actor *model.User, id uuid.UUID, req *model.UpdateStatusRequest) (*model.Complaint, error) {
	args := m.Called(ctx, actor, id, req)
	return ret[*model.Complaint](args, 0), args.Error(1)
}

func (m *complaintAPIMock) MarkSeen(ctx context.Context, actor *model.User, id uuid.UUID) (*model.Complaint, error) {
	args := m.Called(ctx, actor, id)
	return ret[*model.Complaint](args, 0), args.Error(1)
}

func (m *complaintAPIMock) Delete(ctx context.Context, actor *model.User, id uuid.UUID) error {
	return m.Called(ctx, actor, id).Error(0)
}

type departmentAPIMock struct{ mock.Mock }

func (m *departmentAPIMock) List(ctx context.Context) ([]model.DepartmentSummary, error) {
	args := m.Called(ctx)
	return ret[[]model.DepartmentSummary](args, 0), args.Error(1)
}

func (m *departmentAPIMock) Get(ctx context.Context, id uuid.UUID) (*model.Department, error) {
	args := m.Called(ctx, id)
	return ret[*model.Department](args, 0), args.Error(1)
}

func (m *departmentAPIMock) Create(ctx context.Context, req *model.CreateDepartmentRequest) (*model.Department, error) {
	args := m.Called(ctx, req)
	return ret[*model.Department](args, 0), args.Error(1)
}

func (m *departmentAPIMock) Update(ctx context.Context, id uuid.UUID, req *model.UpdateDepartmentRequest) (*model.Department, error) {
	args := m.Called(ctx, id, req)
	return ret[*model.Department](args, 0), args.Error(1)
}

func (m *departmentAPIMock) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type feedbackAPIMock struct{ mock.Mock }

func (m *feedbackAPIMock) Submit(ctx context.Context, actor *model.User, req *model.SubmitFeedbackRequest) (*model.Feedback, error) {
	args := m.Called(ctx, actor, req)
	return ret[*model.Feedback](args, 0), args.Error(1)
}

func (m *feedbackAPIMock) AnalyticsList(ctx context.Context, actor *model.User) (*model.FeedbackAnalytics, error) {
	args := m.Called(ctx, actor)
	return ret[*model.FeedbackAnalytics](args, 0), args.Error(1)
}

type notificationAPIMock struct{ mock.Mock }

func (m *notificationAPIMock) ListMine(ctx context.Context, actor *model.User) (*model.NotificationListResponse, error) {
	args := m.Called(ctx, actor)
	return ret[*model.NotificationListResponse](args, 0), args.Error(1)
}

func (m *notificationAPIMock) UnreadCount(ctx context.Context, actor *model.User) (int, error) {
	args := m.Called(ctx, actor)
	return args.Int(0), args.Error(1)
}

func (m *notificationAPIMock) MarkRead(ctx context.Context, actor *model.User, id uuid.UUID) error {
	return m.Called(ctx, actor, id).Error(0)
}

func (m *notificationAPIMock) MarkAllRead(ctx context.Context, actor *model.User) (int64, error) {
	args := m.Called(ctx, actor)
	return ret[int64](args, 0), args.Error(1)
}

type userAPIMock struct{ mock.Mock }

func (m *userAPIMock) List(ctx context.Context, role *model.Role) ([]model.User, error) {
	args := m.Called(ctx, role)
	return ret[[]model.User](args, 0), args.Error(1)
}

func (m *userAPIMock) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	return ret[*model.User](args, 0), args.Error(1)
}

func (m *userAPIMock) Create(ctx context.Context, req *model.CreateUserRequest) (*model.User, error) {
	args := m.Called(ctx, req)
	return ret[*model.User](args, 0), args.Error(1)
}

func (m *userAPIMock) Update(ctx context.Context, id uuid.UUID, req *model.UpdateUserRequest) (*model.User, error) {
	args := m.Called(ctx, id, req)
	return ret[*model.User](args, 0), args.Error(1)
}

func (m *userAPIMock) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type statsAPIMock struct{ mock.Mock }

func (m *statsAPIMock) AdminDashboard(ctx context.Context, actor *model.User) (*model.AdminDashboard, error) {
	args := m.Called(ctx, actor)
	return ret[*model.AdminDashboard](args, 0), args.Error(1)
}

func (m *statsAPIMock) SuperAdminStats(ctx context.Context) (*model.SuperAdminStats, error) {
	args := m.Called(ctx)
	return ret[*model.SuperAdminStats](args, 0), args.Error(1)
}

// stubHub hands out a single prepared client.
type stubHub struct {
	client       *messaging.SSEClient
	unregistered bool
}

func (h *stubHub) RegisterClient(userID uuid.UUID) *messaging.SSEClient {
	if h.client != nil {
		h.client.UserID = userID
	}
	return h.client
}

func (h *stubHub) UnregisterClient(*messaging.SSEClient) { h.unregistered = true }

type denyLimiter struct{}

func (denyLimiter) Allow(context.Context, string, int, time.Duration) (bool, error) {
	return false, nil
}

type failingPinger struct{}

func (failingPinger) PingContext(context.Context) error { return context.DeadlineExceeded }
