package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	apperrors "hearth/internal/errors"
	"hearth/internal/logger"
)

// NewLimiter builds an in-memory limiter from a formatted rate such as "100-M".
func NewLimiter(formatted string) (*limiter.Limiter, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, err
	}
	return limiter.New(memory.NewStore(), rate), nil
}

// RateLimit limits requests per client IP.
func RateLimit(l *limiter.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()

		lctx, err := l.Get(c.Request.Context(), ip)
		if err != nil {
			logger.Get().Errorw("rate limit check failed", "ip", ip, "error", err.Error())
			c.Next()
			return
		}

		if lctx.Reached {
			logger.Get().Warnw("rate limit exceeded", "ip", ip, "limit", lctx.Limit)
			abortWithError(c, apperrors.ErrRateLimited)
			return
		}

		c.Next()
	}
}
