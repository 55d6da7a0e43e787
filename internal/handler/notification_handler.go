package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"complaint-service/internal/httpx"
	"complaint-service/internal/middleware"
)

const keepAliveInterval = 25 * time.Second

type NotificationHandler struct {
	notifications NotificationAPI
	hub           StreamHub
}

func NewNotificationHandler(notifications NotificationAPI, hub StreamHub) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, hub: hub}
}

func (h *NotificationHandler) List(c *gin.Context) {
	resp, err := h.notifications.ListMine(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	count := len(resp.Notifications)
	c.JSON(http.StatusOK, httpx.Response{Success: true, Data: resp, Count: &count})
}

func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	unread, err := h.notifications.UnreadCount(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "", gin.H{"unread_count": unread})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		httpx.Error(c, err)
		return
	}

	if err := h.notifications.MarkRead(c.Request.Context(), middleware.CurrentUser(c), id); err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "notification marked as read", nil)
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	updated, err := h.notifications.MarkAllRead(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "all notifications marked as read", gin.H{"updated": updated})
}

// Handles GET /notifications/stream as server-sent events. Auth accepts the token as a query
// parameter here because EventSource cannot send headers.
func (h *NotificationHandler) Stream(c *gin.Context) {
	user := middleware.CurrentUser(c)

	client := h.hub.RegisterClient(user.ID)
	if client == nil {
		httpx.Fail(c, http.StatusServiceUnavailable, "server is shutting down")
		return
	}
	defer h.hub.UnregisterClient(client)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	c.SSEvent("connected", gin.H{"message": "SSE connection established"})
	c.Writer.Flush()

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	clientGone := c.Request.Context().Done()
	for {
		select {
		case <-clientGone:
			return
		case <-keepAlive.C:
			c.SSEvent("ping", gin.H{"time": time.Now().Unix()})
			c.Writer.Flush()
		case notification, ok := <-client.Channel:
			if !ok {
				return
			}
			c.SSEvent("notification", notification)
			c.Writer.Flush()
		}
	}
}
