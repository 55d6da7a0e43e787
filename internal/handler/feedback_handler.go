package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"complaint-service/internal/httpx"
	"complaint-service/internal/middleware"
	"complaint-service/internal/model"
)

type FeedbackHandler struct {
	feedback FeedbackAPI
}

func NewFeedbackHandler(feedback FeedbackAPI) *FeedbackHandler {
	return &FeedbackHandler{feedback: feedback}
}

func (h *FeedbackHandler) Submit(c *gin.Context) {
	var req model.SubmitFeedbackRequest
	if err := bindJSON(c, &req); err != nil {
		httpx.Error(c, err)
		return
	}

	f, err := h.feedback.Submit(c.Request.Context(), middleware.CurrentUser(c), &req)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, http.StatusCreated, "thank you for your feedback", f)
}

func (h *FeedbackHandler) Analytics(c *gin.Context) {
	analytics, err := h.feedback.AnalyticsList(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	count := len(analytics.Feedback)
	c.JSON(http.StatusOK, httpx.Response{Success: true, Data: analytics, Count: &count})
}
