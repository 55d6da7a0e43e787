package service

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"complaint-service/internal/apperr"
	"complaint-service/internal/logger"
	"complaint-service/internal/model"
	"complaint-service/internal/validate"
)

type FeedbackService struct {
	feedback      FeedbackStore
	complaints    ComplaintStore
	notifications NotificationStore
}

func NewFeedbackService(feedback FeedbackStore, complaints ComplaintStore, notifications NotificationStore) *FeedbackService {
	return &FeedbackService{feedback: feedback, complaints: complaints, notifications: notifications}
}

// Submit records the owner's one rating of a resolved or closed complaint. When the rating
// answers a notification, that notification is marked as having collected feedback.
func (s *FeedbackService) Submit(ctx context.Context, actor *model.User, req *model.SubmitFeedbackRequest) (*model.Feedback, error) {
	req.Comments = strings.TrimSpace(req.Comments)
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	c, err := s.complaints.FindByID(ctx, req.ComplaintID)
	if err != nil {
		return nil, notFoundOr(err, "complaint not found")
	}
	if c.UserID != actor.ID {
		return nil, apperr.Authorization("you can only give feedback on your own complaints")
	}
	if !c.Status.FeedbackEligible() {
		return nil, apperr.Validation("feedback can only be given once a complaint is resolved or closed")
	}

	existing, err := s.feedback.FindByUserAndComplaint(ctx, actor.ID, c.ID)
	if err != nil && !isNotFound(err) {
		return nil, apperr.Unexpected("database error", err)
	}
	if existing != nil {
		return nil, apperr.Conflict("feedback already submitted for this complaint")
	}

	f := &model.Feedback{
		ID:          uuid.New(),
		SubmittedBy: actor.ID,
		ComplaintID: c.ID,
		Rating:      req.Rating,
		Comments:    req.Comments,
		CreatedAt:   time.Now(),
	}
	if err := s.feedback.Create(ctx, f); err != nil {
		if isDuplicate(err) {
			return nil, apperr.Conflict("feedback already submitted for this complaint")
		}
		return nil, apperr.Unexpected("failed to save feedback", err)
	}

	if req.NotificationID != nil {
		if err := s.notifications.MarkFeedbackGiven(ctx, *req.NotificationID, actor.ID); err != nil {
			logger.Warn("Failed to flag notification feedback",
				zap.String("notification_id", req.NotificationID.String()),
				zap.String("user_id", actor.ID.String()),
				zap.Error(err),
			)
		}
	}

	return f, nil
}

// AnalyticsList returns every feedback entry newest first with its rating summary.
func (s *FeedbackService) AnalyticsList(ctx context.Context, actor *model.User) (*model.FeedbackAnalytics, error) {
	if !actor.Role.Privileged() {
		return nil, apperr.Authorization("admin access required")
	}

	list, err := s.feedback.ListWithDetails(ctx)
	if err != nil {
		return nil, apperr.Unexpected("failed to load feedback", err)
	}
	return SummarizeFeedback(list), nil
}

// SummarizeFeedback computes the mean rating (two decimals) and a 1..5 distribution.
func SummarizeFeedback(list []model.Feedback) *model.FeedbackAnalytics {
	if list == nil {
		list = []model.Feedback{}
	}
	dist := map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}
	sum := 0
	for _, f := range list {
		dist[f.Rating]++
		sum += f.Rating
	}

	var avg float64
	if len(list) > 0 {
		avg = round2(float64(sum) / float64(len(list)))
	}
	return &model.FeedbackAnalytics{Feedback: list, AverageRating: avg, Distribution: dist}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
