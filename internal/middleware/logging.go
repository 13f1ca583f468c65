package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"hearth/internal/logger"
	"hearth/internal/uuid"
)

const (
	requestIDKey    = "requestID"
	requestIDHeader = "X-Request-ID"
)

// RequestLogging returns a Gin middleware that logs each request with a
// request ID, method, path, status code, latency, and client IP using Zap.
// A valid incoming X-Request-ID is kept.
func RequestLogging() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(requestIDHeader)
		if !uuid.IsValid(requestID) {
			requestID = uuid.New()
		}
		c.Set(requestIDKey, requestID)
		c.Writer.Header().Set(requestIDHeader, requestID)

		c.Next()

		fields := []any{
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if userID, ok := c.Get(userIDKey); ok {
			fields = append(fields, "user_id", userID)
		}
		logger.Named("http").Infow("request", fields...)
	}
}

// RequestID returns the ID assigned to the request by RequestLogging.
func RequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
