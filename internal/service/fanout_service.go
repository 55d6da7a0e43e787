package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"complaint-service/internal/logger"
	"complaint-service/internal/mailer"
	"complaint-service/internal/model"
)

// FanoutService performs the side effects of a committed complaint event: email the owner,
// record notifications and push them live. It implements messaging.EventHandler.
//
// Email failures are logged and swallowed. A failed notification write is returned so a queue
// consumer can redeliver the event; redelivery may send the email again.
type FanoutService struct {
	users         UserStore
	notifications *NotificationService
	mail          mailer.Mailer
	clientURL     string
}

func NewFanoutService(users UserStore, notifications *NotificationService, mail mailer.Mailer, clientURL string) *FanoutService {
	return &FanoutService{
		users:         users,
		notifications: notifications,
		mail:          mail,
		clientURL:     strings.TrimRight(clientURL, "/"),
	}
}

func (s *FanoutService) HandleComplaintEvent(ctx context.Context, event model.ComplaintEvent) error {
	switch event.Type {
	case model.EventComplaintCreated:
		return s.complaintCreated(ctx, event)
	case model.EventComplaintStatusUpdated:
		return s.statusUpdated(ctx, event)
	default:
		return fmt.Errorf("unknown complaint event type %q", event.Type)
	}
}

func (s *FanoutService) link(event model.ComplaintEvent) string {
	return s.clientURL + "/complaints/" + event.ComplaintID.String()
}

func (s *FanoutService) statusUpdated(ctx context.Context, event model.ComplaintEvent) error {
	log := logger.With(
		zap.String("complaint_id", event.ComplaintID.String()),
		zap.String("owner_id", event.OwnerID.String()),
	)
	// An owner without an address gets neither the email nor the notification.
	if event.OwnerEmail == "" {
		log.Info("Complaint owner has no email, skipping status fanout")
		return nil
	}
	feedback := event.NewStatus.FeedbackEligible()

	msg, err := mailer.StatusChanged(event.OwnerEmail, mailer.StatusChangedData{
		Name:              event.OwnerName,
		Title:             event.Title,
		OldStatus:         string(event.OldStatus),
		NewStatus:         string(event.NewStatus),
		Link:              s.link(event),
		FeedbackRequested: feedback,
	})
	if err == nil {
		err = s.mail.Send(ctx, msg)
	}
	if err != nil {
		log.Warn("Failed to send status email", zap.Error(err))
	}

	kind := model.NotificationStatusUpdate
	message := fmt.Sprintf("Your complaint %q is now %s.", event.Title, event.NewStatus)
	if feedback {
		kind = model.NotificationFeedbackRequest
		message += " Please rate how it was handled."
	}

	complaintID := event.ComplaintID
	if _, err := s.notifications.Create(ctx, event.OwnerID, &complaintID, message, kind); err != nil {
		log.Error("Failed to create status notification", zap.Error(err))
		return fmt.Errorf("create status notification: %w", err)
	}
	return nil
}

func (s *FanoutService) complaintCreated(ctx context.Context, event model.ComplaintEvent) error {
	log := logger.With(zap.String("complaint_id", event.ComplaintID.String()))

	if event.OwnerEmail != "" {
		msg, err := mailer.ComplaintCreated(event.OwnerEmail, mailer.ComplaintCreatedData{
			Name:  event.OwnerName,
			Title: event.Title,
			Link:  s.link(event),
		})
		if err == nil {
			err = s.mail.Send(ctx, msg)
		}
		if err != nil {
			log.Warn("Failed to send confirmation email", zap.Error(err))
		}
	}

	admins, err := s.users.ListAdminsByDepartment(ctx, event.DepartmentID)
	if err != nil {
		log.Error("Failed to load department admins", zap.Error(err))
		return fmt.Errorf("load department admins: %w", err)
	}

	// Admins notified by an earlier, partly failed delivery are skipped.
	message := fmt.Sprintf("New complaint in your department: %q.", event.Title)
	var errs []error
	for _, admin := range admins {
		if _, err := s.notifications.CreateOnce(ctx, admin.ID, event.ComplaintID, message, model.NotificationNewComplaint); err != nil {
			log.Error("Failed to notify admin", zap.String("admin_id", admin.ID.String()), zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
