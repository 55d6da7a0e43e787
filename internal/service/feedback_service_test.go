package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"complaint-service/internal/apperr"
	"complaint-service/internal/model"
)

type feedbackFixture struct {
	db    *memDB
	notes *memNotifications
	svc   *FeedbackService
	owner *model.User
	dept  *model.Department
}

func newFeedbackFixture() *feedbackFixture {
	db := newMemDB()
	notes := &memNotifications{db: db}
	return &feedbackFixture{
		db:    db,
		notes: notes,
		svc:   NewFeedbackService(memFeedback{db}, memComplaints{db}, notes),
		owner: db.addUser("student", model.RoleUser, nil),
		dept:  db.addDepartment("Facilities"),
	}
}

func TestSubmitFeedback_SecondSubmissionConflicts(t *testing.T) {
	f := newFeedbackFixture()
	ctx := context.Background()
	c := f.db.addComplaint(f.owner, f.dept, model.StatusResolved)

	first, err := f.svc.Submit(ctx, f.owner, &model.SubmitFeedbackRequest{ComplaintID: c.ID, Rating: 4, Comments: " quick fix "})
	require.NoError(t, err)
	assert.Equal(t, "quick fix", first.Comments)

	_, err = f.svc.Submit(ctx, f.owner, &model.SubmitFeedbackRequest{ComplaintID: c.ID, Rating: 1})
	require.Error(t, err)
	assert.True(t, apperr.IsConflict(err))

	require.Len(t, f.db.feedback, 1)
	assert.Equal(t, 4, f.db.feedback[0].Rating)
	assert.Equal(t, first.ID, f.db.feedback[0].ID)
}

func TestSubmitFeedback_Rejections(t *testing.T) {
	f := newFeedbackFixture()
	ctx := context.Background()
	resolved := f.db.addComplaint(f.owner, f.dept, model.StatusResolved)
	open := f.db.addComplaint(f.owner, f.dept, model.StatusOpen)
	stranger := f.db.addUser("stranger", model.RoleUser, nil)

	tests := []struct {
		name  string
		actor *model.User
		req   model.SubmitFeedbackRequest
		kind  apperr.Kind
	}{
		{"rating too high", f.owner, model.SubmitFeedbackRequest{ComplaintID: resolved.ID, Rating: 6}, apperr.KindValidation},
		{"rating missing", f.owner, model.SubmitFeedbackRequest{ComplaintID: resolved.ID}, apperr.KindValidation},
		{"not the owner", stranger, model.SubmitFeedbackRequest{ComplaintID: resolved.ID, Rating: 3}, apperr.KindAuthorization},
		{"unknown complaint", f.owner, model.SubmitFeedbackRequest{ComplaintID: uuid.New(), Rating: 3}, apperr.KindNotFound},
		{"still open", f.owner, model.SubmitFeedbackRequest{ComplaintID: open.ID, Rating: 3}, apperr.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			_, err := f.svc.Submit(ctx, tt.actor, &req)
			require.Error(t, err)
			assert.Equal(t, tt.kind, apperr.KindOf(err))
		})
	}
	assert.Empty(t, f.db.feedback)
}

func TestSubmitFeedback_FlagsNotification(t *testing.T) {
	f := newFeedbackFixture()
	ctx := context.Background()
	c := f.db.addComplaint(f.owner, f.dept, model.StatusClosed)

	n := &model.Notification{ID: uuid.New(), UserID: f.owner.ID, ComplaintID: &c.ID, Type: model.NotificationFeedbackRequest, CreatedAt: time.Now()}
	require.NoError(t, f.notes.Create(ctx, n))

	_, err := f.svc.Submit(ctx, f.owner, &model.SubmitFeedbackRequest{ComplaintID: c.ID, Rating: 5, NotificationID: &n.ID})
	require.NoError(t, err)

	stored, err := f.notes.FindByID(ctx, n.ID)
	require.NoError(t, err)
	assert.True(t, stored.FeedbackGiven)
}

func TestSubmitFeedback_UnknownNotificationIsIgnored(t *testing.T) {
	f := newFeedbackFixture()
	c := f.db.addComplaint(f.owner, f.dept, model.StatusResolved)
	missing := uuid.New()

	_, err := f.svc.Submit(context.Background(), f.owner, &model.SubmitFeedbackRequest{ComplaintID: c.ID, Rating: 2, NotificationID: &missing})
	require.NoError(t, err)
	assert.Len(t, f.db.feedback, 1)
}

func TestAnalyticsList(t *testing.T) {
	f := newFeedbackFixture()
	ctx := context.Background()
	admin := f.db.addUser("admin", model.RoleAdmin, &f.dept.ID)

	_, err := f.svc.AnalyticsList(ctx, f.owner)
	assert.True(t, apperr.IsAuthorization(err))

	for _, rating := range []int{5, 4, 4} {
		c := f.db.addComplaint(f.owner, f.dept, model.StatusResolved)
		_, err := f.svc.Submit(ctx, f.owner, &model.SubmitFeedbackRequest{ComplaintID: c.ID, Rating: rating})
		require.NoError(t, err)
	}

	got, err := f.svc.AnalyticsList(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, got.Feedback, 3)
	assert.Equal(t, 4.33, got.AverageRating)
	assert.Equal(t, map[int]int{1: 0, 2: 0, 3: 0, 4: 2, 5: 1}, got.Distribution)
}

func TestSummarizeFeedback_Empty(t *testing.T) {
	got := SummarizeFeedback(nil)
	assert.NotNil(t, got.Feedback)
	assert.Zero(t, got.AverageRating)
	assert.Len(t, got.Distribution, 5)
}
