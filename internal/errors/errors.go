// Package errors provides the typed error values returned by hearth services.
// Every service failure is an AppError so handlers can render a stable code
// and message without leaking internal details to clients.
package errors

import (
	"context"
	stderrors "errors"
	"net/http"
)

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Is reports whether target is an AppError carrying the same code, so that
// wrapped copies still match their sentinel.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// CodeOf returns the AppError code carried by err, or an empty string.
func CodeOf(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// IsRetryable reports whether the whole operation that produced err may be
// retried from scratch.
func IsRetryable(err error) bool {
	return CodeOf(err) == ErrConcurrencyConflict.Code
}

// FromStore converts a persistence failure into an AppError. AppErrors pass
// through unchanged, cancellations become ErrRequestCanceled and everything
// else is a PersistenceError.
func FromStore(err error) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return err
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return Wrap(ErrRequestCanceled, err)
	}
	return Wrap(ErrPersistence, err)
}

// Authentication & authorization errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid email or password", StatusCode: http.StatusUnauthorized}
	ErrForbidden          = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden}
	ErrAccountLocked      = &AppError{Code: "ACCOUNT_LOCKED", Message: "Account is temporarily locked", StatusCode: http.StatusLocked}
	ErrRateLimited        = &AppError{Code: "RATE_LIMITED", Message: "Too many requests", StatusCode: http.StatusTooManyRequests}
)

// Validation errors.
var (
	ErrInvalidInput       = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrInvalidPercentages = &AppError{Code: "INVALID_PERCENTAGES", Message: "Needs, wants and savings percentages must each be between 0 and 100 and sum to 100", StatusCode: http.StatusBadRequest}
	ErrInvalidPeriod      = &AppError{Code: "INVALID_PERIOD", Message: "Period start must be before period end", StatusCode: http.StatusBadRequest}
	ErrCategoryUnmapped   = &AppError{Code: "CATEGORY_UNMAPPED", Message: "Category is not mapped to a budget bucket", StatusCode: http.StatusUnprocessableEntity}
)

// General errors.
var (
	ErrNotFound            = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer      = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
	ErrPersistence         = &AppError{Code: "PERSISTENCE_ERROR", Message: "The data store is unavailable", StatusCode: http.StatusServiceUnavailable}
	ErrConcurrencyConflict = &AppError{Code: "CONCURRENCY_CONFLICT", Message: "The resource was modified concurrently, please retry", StatusCode: http.StatusConflict}
	ErrRequestCanceled     = &AppError{Code: "REQUEST_CANCELED", Message: "The request was canceled", StatusCode: http.StatusRequestTimeout}
)

// User and household errors.
var (
	ErrUserNotFound      = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateEmail    = &AppError{Code: "DUPLICATE_EMAIL", Message: "A user with this email already exists", StatusCode: http.StatusConflict}
	ErrHouseholdNotFound = &AppError{Code: "HOUSEHOLD_NOT_FOUND", Message: "Household not found", StatusCode: http.StatusNotFound}
	ErrAlreadyMember     = &AppError{Code: "ALREADY_MEMBER", Message: "User already belongs to this household", StatusCode: http.StatusConflict}
)

// Wallet errors.
var (
	ErrWalletNotFound    = &AppError{Code: "WALLET_NOT_FOUND", Message: "Wallet not found", StatusCode: http.StatusNotFound}
	ErrInsufficientFunds = &AppError{Code: "INSUFFICIENT_FUNDS", Message: "Insufficient wallet balance", StatusCode: http.StatusUnprocessableEntity}
	ErrWalletInUse       = &AppError{Code: "WALLET_IN_USE", Message: "Wallet is referenced by transactions or savings transfers", StatusCode: http.StatusConflict}
)

// Category errors.
var (
	ErrCategoryNotFound = &AppError{Code: "CATEGORY_NOT_FOUND", Message: "Category not found", StatusCode: http.StatusNotFound}
	ErrCategoryInUse    = &AppError{Code: "CATEGORY_IN_USE", Message: "Category is used by existing transactions", StatusCode: http.StatusConflict}
)

// Transaction errors.
var (
	ErrTransactionNotFound    = &AppError{Code: "TRANSACTION_NOT_FOUND", Message: "Transaction not found", StatusCode: http.StatusNotFound}
	ErrInvalidTransactionType = &AppError{Code: "INVALID_TRANSACTION_TYPE", Message: "Category type does not match the transaction type", StatusCode: http.StatusBadRequest}
)

// Budget errors.
var (
	ErrBudgetNotFound      = &AppError{Code: "BUDGET_NOT_FOUND", Message: "Budget not found", StatusCode: http.StatusNotFound}
	ErrBudgetNotConfigured = &AppError{Code: "BUDGET_NOT_CONFIGURED", Message: "Household has no configured budget", StatusCode: http.StatusNotFound}
)

// Savings errors.
var (
	ErrSavingsGoalNotFound = &AppError{Code: "SAVINGS_GOAL_NOT_FOUND", Message: "Savings goal not found", StatusCode: http.StatusNotFound}
	ErrInsufficientSavings = &AppError{Code: "INSUFFICIENT_SAVINGS", Message: "Withdrawal exceeds the amount saved", StatusCode: http.StatusUnprocessableEntity}
)
