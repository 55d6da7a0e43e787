// Package httpx writes the JSON envelope every endpoint answers with.
package httpx

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"complaint-service/internal/apperr"
	"complaint-service/internal/logger"
)

type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Count   *int   `json:"count,omitempty"`
}

func OK(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Response{Success: true, Message: message, Data: data})
}

// List answers 200 with data and its element count.
func List(c *gin.Context, data any, count int) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data, Count: &count})
}

func Fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, Response{Success: false, Message: message})
}

// Error maps err onto its HTTP status. Unexpected failures are logged and reported
// without their cause.
func Error(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		Fail(c, status, "internal server error")
		return
	}
	Fail(c, status, apperr.MessageOf(err))
}
