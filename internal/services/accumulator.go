package services

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"hearth/internal/allocation"
	apperrors "hearth/internal/errors"
	"hearth/internal/models"
)

// spendAccumulator applies expense deltas to a household's budget totals.
type spendAccumulator struct{}

// NewSpendAccumulator creates a new SpendAccumulator.
func NewSpendAccumulator() SpendAccumulator {
	return &spendAccumulator{}
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// ApplyDelta adds a signed amount to bucket and to the total of the
// household's budget. Households without a budget are skipped.
func (a *spendAccumulator) ApplyDelta(ctx context.Context, tx *gorm.DB, householdID string, bucket models.BudgetBucket, amount decimal.Decimal) (*DeltaResult, error) {
	if !bucket.Valid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown budget bucket")
	}

	budget, err := loadHouseholdBudget(ctx, tx, householdID)
	if err != nil {
		return nil, err
	}
	if budget == nil {
		return &DeltaResult{}, nil
	}
	return a.apply(ctx, tx, budget, bucket, amount)
}

// Reverse subtracts the expense's amount from the bucket it was counted in,
// provided it was counted in the current cycle of the budget it names.
func (a *spendAccumulator) Reverse(ctx context.Context, tx *gorm.DB, expense *models.Transaction) (*DeltaResult, error) {
	if expense.Type != models.TransactionTypeExpense || expense.Bucket == nil || expense.BudgetID == nil {
		return &DeltaResult{}, nil
	}

	budget, err := loadHouseholdBudget(ctx, tx, expense.HouseholdID)
	if err != nil {
		return nil, err
	}
	if !expense.CountedIn(budget) {
		return &DeltaResult{}, nil
	}
	return a.apply(ctx, tx, budget, *expense.Bucket, expense.Amount.Neg())
}

// Recount moves a counted expense to its edited bucket and amount. The old
// contribution comes out and the new one goes in under a single version
// bump, so a breach is only reported for a bucket that was within its limit
// before the edit. Expenses not counted in the budget's current cycle are
// left alone.
func (a *spendAccumulator) Recount(ctx context.Context, tx *gorm.DB, expense *models.Transaction, bucket models.BudgetBucket, amount decimal.Decimal) (*DeltaResult, error) {
	if !bucket.Valid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown budget bucket")
	}
	if expense.Type != models.TransactionTypeExpense || expense.Bucket == nil || expense.BudgetID == nil {
		return &DeltaResult{}, nil
	}

	budget, err := loadHouseholdBudget(ctx, tx, expense.HouseholdID)
	if err != nil {
		return nil, err
	}
	if !expense.CountedIn(budget) {
		return &DeltaResult{}, nil
	}
	return a.save(ctx, tx, budget, func() {
		budget.AddSpend(*expense.Bucket, expense.Amount.Neg())
		budget.AddSpend(bucket, amount)
	})
}

func (a *spendAccumulator) apply(ctx context.Context, tx *gorm.DB, budget *models.Budget, bucket models.BudgetBucket, amount decimal.Decimal) (*DeltaResult, error) {
	return a.save(ctx, tx, budget, func() { budget.AddSpend(bucket, amount) })
}

// save runs mutate on budget and persists every running total with a
// version check. Buckets that went from within limit to exceeded are
// returned as breaches.
func (a *spendAccumulator) save(ctx context.Context, tx *gorm.DB, budget *models.Budget, mutate func()) (*DeltaResult, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	wasExceeded := make(map[models.BudgetBucket]bool, len(models.Buckets))
	for _, b := range models.Buckets {
		wasExceeded[b] = allocation.Exceeded(budget, b)
	}
	mutate()

	updates := map[string]any{
		"total_spent": budget.TotalSpent,
		"version":     budget.Version + 1,
	}
	for _, b := range models.Buckets {
		updates[models.SpendColumn(b)] = budget.Spent(b)
	}
	res := tx.WithContext(ctx).Model(&models.Budget{}).
		Where("id = ? AND version = ?", budget.ID, budget.Version).
		Updates(updates)
	if res.Error != nil {
		return nil, apperrors.FromStore(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrConcurrencyConflict, "budget totals were modified concurrently")
	}
	budget.Version++

	result := &DeltaResult{Budget: budget}
	for _, b := range models.Buckets {
		if wasExceeded[b] || !allocation.Exceeded(budget, b) {
			continue
		}
		result.Breaches = append(result.Breaches, BucketBreach{
			Bucket:  b,
			Overage: allocation.Overage(budget, b),
			Spent:   budget.Spent(b),
			Limit:   allocation.Limit(budget.Amount, budget.Percentage(b)),
		})
	}
	return result, nil
}

// loadHouseholdBudget reads the household's budget through tx, or nil when
// there is none.
func loadHouseholdBudget(ctx context.Context, tx *gorm.DB, householdID string) (*models.Budget, error) {
	var budget models.Budget
	err := tx.WithContext(ctx).Where("household_id = ?", householdID).First(&budget).Error
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.FromStore(err)
	}
	return &budget, nil
}
