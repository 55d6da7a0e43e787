package mailer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) Send(ctx context.Context, msg Message) error {
	return m.Called(ctx, msg).Error(0)
}

func TestRetryMailer_RetriesUntilSuccess(t *testing.T) {
	inner := &mockMailer{}
	msg := Message{To: "u@campus.edu", Subject: "hi"}
	inner.On("Send", mock.Anything, msg).Return(errors.New("421 try later")).Twice()
	inner.On("Send", mock.Anything, msg).Return(nil).Once()

	err := NewRetryMailer(inner, 3, time.Millisecond).Send(context.Background(), msg)

	assert.NoError(t, err)
	inner.AssertNumberOfCalls(t, "Send", 3)
}

func TestRetryMailer_GivesUp(t *testing.T) {
	inner := &mockMailer{}
	inner.On("Send", mock.Anything, mock.Anything).Return(errors.New("550 mailbox unavailable"))

	err := NewRetryMailer(inner, 2, time.Millisecond).Send(context.Background(), Message{To: "x@y.z"})

	assert.EqualError(t, err, "550 mailbox unavailable")
	inner.AssertNumberOfCalls(t, "Send", 2)
}

func TestRetryMailer_StopsWhenContextDone(t *testing.T) {
	inner := &mockMailer{}
	inner.On("Send", mock.Anything, mock.Anything).Return(context.Canceled)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewRetryMailer(inner, 5, time.Millisecond).Send(ctx, Message{To: "x@y.z"})

	assert.Error(t, err)
	inner.AssertNumberOfCalls(t, "Send", 1)
}

func TestStatusChanged_Render(t *testing.T) {
	msg, err := StatusChanged("u@campus.edu", StatusChangedData{
		Name:              "alice",
		Title:             "Broken <projector>",
		OldStatus:         "Open",
		NewStatus:         "Resolved",
		Link:              "http://localhost:5173/complaints/1",
		FeedbackRequested: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "u@campus.edu", msg.To)
	assert.Equal(t, "Complaint status updated: Broken <projector>", msg.Subject)
	assert.Contains(t, msg.Text, "changed from Open to Resolved")
	assert.Contains(t, msg.Text, "Please tell us how we did")
	assert.Contains(t, msg.HTML, "Broken &lt;projector&gt;")
}

func TestBuildMIME(t *testing.T) {
	raw, err := buildMIME("Campus <no-reply@campus.local>", Message{To: "u@campus.edu", Subject: "s", Text: "plain", HTML: "<p>rich</p>"})
	require.NoError(t, err)

	body := string(raw)
	assert.True(t, strings.HasPrefix(body, "From: Campus <no-reply@campus.local>\r\n"))
	assert.Contains(t, body, "multipart/alternative")
	assert.Contains(t, body, "text/plain; charset=utf-8")
	assert.Contains(t, body, "text/html; charset=utf-8")
	assert.Equal(t, "no-reply@campus.local", envelopeAddress("Campus <no-reply@campus.local>"))
}
