package testutil

import (
	"errors"
	"testing"

	apperrors "hearth/internal/errors"
	"hearth/internal/models"

	"github.com/shopspring/decimal"
)

// AssertAppError checks that err is an *AppError with the expected error code.
func AssertAppError(t *testing.T, err error, expectedCode string) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected AppError with code %q, got nil", expectedCode)
	}

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *AppError, got %T: %v", err, err)
	}

	if appErr.Code != expectedCode {
		t.Errorf("expected error code %q, got %q (message: %s)", expectedCode, appErr.Code, appErr.Message)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertMoney fails the test unless got equals the decimal literal want.
func AssertMoney(t *testing.T, label string, got decimal.Decimal, want string) {
	t.Helper()

	if !got.Equal(decimal.RequireFromString(want)) {
		t.Errorf("expected %s = %s, got %s", label, want, got.String())
	}
}

// AssertSpend checks the four running totals of a budget and that the
// total equals the sum of the buckets.
func AssertSpend(t *testing.T, budget *models.Budget, total, needs, wants, savings string) {
	t.Helper()

	AssertMoney(t, "total_spent", budget.TotalSpent, total)
	AssertMoney(t, "spent_needs", budget.SpentNeeds, needs)
	AssertMoney(t, "spent_wants", budget.SpentWants, wants)
	AssertMoney(t, "spent_savings", budget.SpentSavings, savings)

	sum := budget.SpentNeeds.Add(budget.SpentWants).Add(budget.SpentSavings)
	if !sum.Equal(budget.TotalSpent) {
		t.Errorf("total_spent %s does not equal bucket sum %s", budget.TotalSpent, sum)
	}
}
