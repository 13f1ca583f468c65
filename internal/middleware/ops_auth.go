package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// OpsAuthMiddleware guards the scheduler endpoints (period resets driven by
// cron or a job runner) with the X-API-Key header.
func OpsAuthMiddleware(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable,
				gin.H{"error": gin.H{"code": "OPS_NOT_CONFIGURED", "message": "Ops endpoints are not configured"}})
			return
		}
		key := c.GetHeader("X-API-Key")
		if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				gin.H{"error": gin.H{"code": "INVALID_API_KEY", "message": "Invalid or missing API key"}})
			return
		}
		c.Next()
	}
}
