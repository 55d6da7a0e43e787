package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"complaint-service/internal/httpx"
	"complaint-service/internal/middleware"
)

type StatsHandler struct {
	stats StatsAPI
}

func NewStatsHandler(stats StatsAPI) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// Handles GET /admin/dashboard.
func (h *StatsHandler) AdminDashboard(c *gin.Context) {
	d, err := h.stats.AdminDashboard(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "", d)
}

// Handles GET /super-admin/stats.
func (h *StatsHandler) SuperAdminStats(c *gin.Context) {
	s, err := h.stats.SuperAdminStats(c.Request.Context())
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "", s)
}

type Pinger interface {
	PingContext(ctx context.Context) error
}

// Health reports whether the database answers.
func Health(db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if db != nil {
			if err := db.PingContext(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, httpx.Response{Success: false, Message: "database unavailable"})
				return
			}
		}
		httpx.OK(c, http.StatusOK, "", gin.H{"status": "healthy", "service": "complaint-service"})
	}
}
