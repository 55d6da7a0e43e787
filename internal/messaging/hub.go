package messaging

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"complaint-service/internal/logger"
	"complaint-service/internal/model"
)

const (
	clientBuffer  = 10
	outboundQueue = 100
)

// SSEClient is one open event stream. A user may hold several (one per browser tab).
type SSEClient struct {
	UserID  uuid.UUID
	Channel chan *model.Notification
}

type subscription struct {
	client *SSEClient
	join   bool
}

// SSEHub pushes freshly stored notifications to the open streams of their recipient.
// Only the Run goroutine touches the stream sets.
type SSEHub struct {
	streams  map[uuid.UUID]map[*SSEClient]struct{}
	subs     chan subscription
	outbound chan *model.Notification
	stopped  chan struct{}
}

func NewSSEHub() *SSEHub {
	return &SSEHub{
		streams:  make(map[uuid.UUID]map[*SSEClient]struct{}),
		subs:     make(chan subscription),
		outbound: make(chan *model.Notification, outboundQueue),
		stopped:  make(chan struct{}),
	}
}

// Run serves the hub until ctx ends, then closes every open stream.
func (h *SSEHub) Run(ctx context.Context) {
	defer close(h.stopped)

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case s := <-h.subs:
			if s.join {
				h.add(s.client)
			} else {
				h.remove(s.client)
			}
		case n := <-h.outbound:
			h.deliver(n)
		}
	}
}

func (h *SSEHub) add(c *SSEClient) {
	set, ok := h.streams[c.UserID]
	if !ok {
		set = make(map[*SSEClient]struct{})
		h.streams[c.UserID] = set
	}
	set[c] = struct{}{}
	logger.Debug("SSE stream opened", zap.String("user_id", c.UserID.String()), zap.Int("streams", len(set)))
}

func (h *SSEHub) remove(c *SSEClient) {
	set := h.streams[c.UserID]
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.Channel)
	if len(set) == 0 {
		delete(h.streams, c.UserID)
	}
}

// deliver never waits on a slow stream; a full buffer loses the push, not the notification.
func (h *SSEHub) deliver(n *model.Notification) {
	for c := range h.streams[n.UserID] {
		select {
		case c.Channel <- n:
		default:
			logger.Warn("SSE stream lagging, push dropped",
				zap.String("user_id", n.UserID.String()),
				zap.String("notification_id", n.ID.String()),
			)
		}
	}
}

func (h *SSEHub) closeAll() {
	for userID, set := range h.streams {
		for c := range set {
			close(c.Channel)
		}
		delete(h.streams, userID)
	}
}

// RegisterClient opens a stream for userID. It returns nil once the hub has stopped.
func (h *SSEHub) RegisterClient(userID uuid.UUID) *SSEClient {
	c := &SSEClient{UserID: userID, Channel: make(chan *model.Notification, clientBuffer)}
	select {
	case h.subs <- subscription{client: c, join: true}:
		return c
	case <-h.stopped:
		return nil
	}
}

func (h *SSEHub) UnregisterClient(c *SSEClient) {
	select {
	case h.subs <- subscription{client: c}:
	case <-h.stopped:
	}
}

// SendToUser queues n for the recipient's streams without blocking the caller.
func (h *SSEHub) SendToUser(n *model.Notification) {
	select {
	case h.outbound <- n:
	case <-h.stopped:
	default:
		logger.Warn("SSE outbound queue full", zap.String("notification_id", n.ID.String()))
	}
}
