package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"complaint-service/internal/logger"
)

// Logger logs one line per request.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		}
		if user := CurrentUser(c); user != nil {
			fields = append(fields, zap.String("user_id", user.ID.String()))
		}

		switch {
		case len(c.Errors) > 0:
			logger.Error("Request error", append(fields, zap.String("error", c.Errors.String()))...)
		case c.Writer.Status() >= 500:
			logger.Error("Request processed", fields...)
		default:
			logger.Info("Request processed", fields...)
		}
	}
}
