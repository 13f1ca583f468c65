package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"

	apperrors "hearth/internal/errors"
	"hearth/internal/logger"
)

// ErrorHandler converts errors attached to the Gin context into the JSON
// error envelope. Handlers that already wrote a response are left alone.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err

		var appErr *apperrors.AppError
		if !errors.As(err, &appErr) {
			logger.Get().Errorw("unexpected error",
				"error", err.Error(),
				"path", c.Request.URL.Path,
				"method", c.Request.Method,
				"request_id", RequestID(c),
			)
			appErr = apperrors.ErrInternalServer
		} else if appErr.Internal != nil {
			logger.Get().Errorw("app error",
				"code", appErr.Code,
				"message", appErr.Message,
				"internal", appErr.Internal.Error(),
				"path", c.Request.URL.Path,
				"request_id", RequestID(c),
			)
		}

		c.JSON(appErr.StatusCode, gin.H{
			"error": gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
			},
		})
	}
}
