package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"complaint-service/internal/apperr"
	"complaint-service/internal/model"
)

type NotificationService struct {
	notifications NotificationStore
	pusher        Pusher
}

func NewNotificationService(notifications NotificationStore, pusher Pusher) *NotificationService {
	return &NotificationService{notifications: notifications, pusher: pusher}
}

// Create stores a notification and pushes it to the recipient's open streams. It is only
// reached from the lifecycle fanout.
func (s *NotificationService) Create(ctx context.Context, recipient uuid.UUID, complaintID *uuid.UUID, message string, kind model.NotificationType) (*model.Notification, error) {
	n := &model.Notification{
		ID:          uuid.New(),
		UserID:      recipient,
		ComplaintID: complaintID,
		Message:     message,
		Type:        kind,
		CreatedAt:   time.Now(),
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		return nil, err
	}

	if s.pusher != nil {
		s.pusher.SendToUser(n)
	}
	return n, nil
}

// CreateOnce is Create unless the recipient already has a notification of kind about the
// complaint, in which case it returns nil and stores nothing. Redelivered events go through it.
func (s *NotificationService) CreateOnce(ctx context.Context, recipient, complaintID uuid.UUID, message string, kind model.NotificationType) (*model.Notification, error) {
	exists, err := s.notifications.ExistsForComplaint(ctx, recipient, complaintID, kind)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, nil
	}
	return s.Create(ctx, recipient, &complaintID, message, kind)
}

func (s *NotificationService) ListMine(ctx context.Context, actor *model.User) (*model.NotificationListResponse, error) {
	notifications, err := s.notifications.GetByUserID(ctx, actor.ID)
	if err != nil {
		return nil, apperr.Unexpected("failed to load notifications", err)
	}
	if notifications == nil {
		notifications = []model.Notification{}
	}

	unread, err := s.notifications.GetUnreadCount(ctx, actor.ID)
	if err != nil {
		return nil, apperr.Unexpected("failed to count notifications", err)
	}

	return &model.NotificationListResponse{
		Notifications: notifications,
		UnreadCount:   unread,
	}, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, actor *model.User) (int, error) {
	unread, err := s.notifications.GetUnreadCount(ctx, actor.ID)
	if err != nil {
		return 0, apperr.Unexpected("failed to count notifications", err)
	}
	return unread, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, actor *model.User, id uuid.UUID) error {
	n, err := s.notifications.FindByID(ctx, id)
	if err != nil {
		return notFoundOr(err, "notification not found")
	}
	if n.UserID != actor.ID {
		return apperr.Authorization("not authorized to update this notification")
	}

	if err := s.notifications.MarkAsRead(ctx, id); err != nil {
		return notFoundOr(err, "notification not found")
	}
	return nil
}

// MarkAllRead returns how many notifications flipped to read.
func (s *NotificationService) MarkAllRead(ctx context.Context, actor *model.User) (int64, error) {
	updated, err := s.notifications.MarkAllAsRead(ctx, actor.ID)
	if err != nil {
		return 0, apperr.Unexpected("failed to update notifications", err)
	}
	return updated, nil
}
