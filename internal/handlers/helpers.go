package handlers

import (
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "hearth/internal/errors"
	"hearth/internal/logger"
	"hearth/internal/services"
	"hearth/internal/uuid"
)

// getUserID extracts the authenticated user ID from the Gin context.
// Returns ErrUnauthorized if not present.
func getUserID(c *gin.Context) (string, error) {
	userID := c.GetString("userID")
	if userID == "" {
		return "", apperrors.ErrUnauthorized
	}
	return userID, nil
}

// getHouseholdID resolves the household of the authenticated user.
func getHouseholdID(c *gin.Context, households services.HouseholdServicer) (string, string, error) {
	userID, err := getUserID(c)
	if err != nil {
		return "", "", err
	}
	householdID, err := households.ResolveHousehold(c.Request.Context(), userID)
	if err != nil {
		return "", "", err
	}
	return userID, householdID, nil
}

// parsePathID reads a UUID path parameter.
// Returns ErrInvalidInput if the parameter is not a valid UUID.
func parsePathID(c *gin.Context, param string) (string, error) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid "+param)
	}
	return id, nil
}

// parseFlexibleTime accepts RFC3339 timestamps and plain YYYY-MM-DD dates.
func parseFlexibleTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q, use RFC3339 or YYYY-MM-DD", s)
}

// bindError converts a binding failure into an INVALID_INPUT error.
func bindError(err error) error {
	return apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
}

// respondWithError writes a consistent JSON error response. If the error is an
// *AppError it uses the error's status code, code, and message. Otherwise it
// logs the unexpected error and returns a generic internal server error.
func respondWithError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Internal != nil {
			logger.Get().Errorw("app error",
				"code", appErr.Code,
				"internal", appErr.Internal.Error(),
				"path", c.Request.URL.Path,
			)
		}
		c.JSON(appErr.StatusCode, gin.H{
			"error": gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
			},
		})
		return
	}

	logger.Get().Errorw("unexpected error",
		"error", err.Error(),
		"path", c.Request.URL.Path,
		"method", c.Request.Method,
	)
	c.JSON(apperrors.ErrInternalServer.StatusCode, gin.H{
		"error": gin.H{
			"code":    apperrors.ErrInternalServer.Code,
			"message": apperrors.ErrInternalServer.Message,
		},
	})
}

// ErrorDetail represents the inner error object in an error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}
