package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"querydesk-api/pkg/logger"
)

const (
	RequestIDHeader = "X-Request-ID"
	RequestIDKey    = "requestID"
)

// RequestLogger tags every request with an id and writes one access log line
// once the handler chain has finished.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(RequestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)

		start := time.Now()
		c.Next()

		fields := logger.Ctx{
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"duration":   time.Since(start).String(),
			"client_ip":  c.ClientIP(),
		}
		if userID := c.GetString("userID"); userID != "" {
			fields["user_id"] = userID
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			logger.Error("HTTP -> request failed", fields)
		case status >= 400:
			logger.Warn("HTTP -> request rejected", fields)
		default:
			logger.Info("HTTP -> request served", fields)
		}
	}
}
