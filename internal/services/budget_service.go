package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"hearth/internal/allocation"
	apperrors "hearth/internal/errors"
	"hearth/internal/logger"
	"hearth/internal/models"
)

// budgetService is the budget configuration store.
type budgetService struct {
	db         *gorm.DB
	households HouseholdServicer
	locks      *HouseholdLocks
	now        func() time.Time
}

// NewBudgetService creates a new BudgetServicer. locks must be shared with
// the transaction service so budget writes and expense deltas of a
// household are serialized.
func NewBudgetService(db *gorm.DB, households HouseholdServicer, locks *HouseholdLocks) BudgetServicer {
	return &budgetService{db: db, households: households, locks: locks, now: time.Now}
}

// validatePercentages checks each share is within [0,100] and that they sum to 100.
func validatePercentages(needs, wants, savings int) error {
	for _, pct := range []int{needs, wants, savings} {
		if pct < 0 || pct > 100 {
			return apperrors.WithMessage(apperrors.ErrInvalidPercentages,
				fmt.Sprintf("percentage %d is outside 0-100", pct))
		}
	}
	if sum := needs + wants + savings; sum != 100 {
		return apperrors.WithMessage(apperrors.ErrInvalidPercentages,
			fmt.Sprintf("percentages must sum to 100, got %d", sum))
	}
	return nil
}

// validateEnvelope checks the amount and date range of a budget.
func validateEnvelope(amount decimal.Decimal, start, end time.Time) error {
	if amount.IsNegative() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "budget amount cannot be negative")
	}
	if start.IsZero() || end.IsZero() {
		return apperrors.WithMessage(apperrors.ErrInvalidPeriod, "period start and end are required")
	}
	if !start.Before(end) {
		return apperrors.ErrInvalidPeriod
	}
	return nil
}

// CreateOrReplaceBudget creates the household's budget with zero spend, or
// redefines the envelope of the existing one keeping its spend totals.
func (s *budgetService) CreateOrReplaceBudget(ctx context.Context, householdID string, input BudgetInput) (*models.Budget, error) {
	if err := validateEnvelope(input.Amount, input.PeriodStart, input.PeriodEnd); err != nil {
		return nil, err
	}
	if err := validatePercentages(input.NeedsPct, input.WantsPct, input.SavingsPct); err != nil {
		return nil, err
	}
	if _, err := s.households.GetHousehold(ctx, householdID); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(householdID)
	defer unlock()

	var budget *models.Budget
	var created bool
	err := withRetry(ctx, "create_or_replace_budget", func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var existing models.Budget
			err := tx.Where("household_id = ?", householdID).First(&existing).Error
			if err != nil && !isNotFound(err) {
				return apperrors.FromStore(err)
			}

			if isNotFound(err) {
				budget = &models.Budget{
					HouseholdID:  householdID,
					Amount:       input.Amount,
					PeriodStart:  input.PeriodStart,
					PeriodEnd:    input.PeriodEnd,
					NeedsPct:     input.NeedsPct,
					WantsPct:     input.WantsPct,
					SavingsPct:   input.SavingsPct,
					TotalSpent:   decimal.Zero,
					SpentNeeds:   decimal.Zero,
					SpentWants:   decimal.Zero,
					SpentSavings: decimal.Zero,
					Epoch:        1,
				}
				created = true
				return apperrors.FromStore(tx.Create(budget).Error)
			}

			existing.Amount = input.Amount
			existing.PeriodStart = input.PeriodStart
			existing.PeriodEnd = input.PeriodEnd
			existing.NeedsPct = input.NeedsPct
			existing.WantsPct = input.WantsPct
			existing.SavingsPct = input.SavingsPct
			created = false
			budget = &existing
			return saveEnvelope(tx, budget)
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Get().Infow("Budget configured",
		"budget_id", budget.ID,
		"household_id", householdID,
		"created", created,
		"amount", budget.Amount.String(),
	)
	return budget, nil
}

// saveEnvelope writes amount, period and percentages with a version check.
func saveEnvelope(tx *gorm.DB, budget *models.Budget) error {
	res := tx.Model(&models.Budget{}).
		Where("id = ? AND version = ?", budget.ID, budget.Version).
		Updates(map[string]any{
			"amount":       budget.Amount,
			"period_start": budget.PeriodStart,
			"period_end":   budget.PeriodEnd,
			"needs_pct":    budget.NeedsPct,
			"wants_pct":    budget.WantsPct,
			"savings_pct":  budget.SavingsPct,
			"version":      budget.Version + 1,
		})
	if res.Error != nil {
		return apperrors.FromStore(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.WithMessage(apperrors.ErrConcurrencyConflict, "budget was modified concurrently")
	}
	budget.Version++
	return nil
}

// GetBudget returns a budget by ID.
func (s *budgetService) GetBudget(ctx context.Context, budgetID string) (*models.Budget, error) {
	var budget models.Budget
	if err := s.db.WithContext(ctx).Where("id = ?", budgetID).First(&budget).Error; err != nil {
		return nil, storeErr(err, apperrors.ErrBudgetNotFound)
	}
	return &budget, nil
}

// GetHouseholdBudget returns the household's budget.
func (s *budgetService) GetHouseholdBudget(ctx context.Context, householdID string) (*models.Budget, error) {
	var budget models.Budget
	if err := s.db.WithContext(ctx).Where("household_id = ?", householdID).First(&budget).Error; err != nil {
		return nil, storeErr(err, apperrors.ErrBudgetNotConfigured)
	}
	return &budget, nil
}

// GetActiveBudgetID returns the ID of the household's budget.
func (s *budgetService) GetActiveBudgetID(ctx context.Context, householdID string) (string, error) {
	budget, err := s.GetHouseholdBudget(ctx, householdID)
	if err != nil {
		return "", err
	}
	return budget.ID, nil
}

// UpdateBudget changes any of amount, period and percentages. Percentages
// are replaced as a whole and must still sum to 100.
func (s *budgetService) UpdateBudget(ctx context.Context, budgetID string, update BudgetUpdate) (*models.Budget, error) {
	current, err := s.GetBudget(ctx, budgetID)
	if err != nil {
		return nil, err
	}
	if update.Percentages != nil {
		p := update.Percentages
		if err := validatePercentages(p.Needs, p.Wants, p.Savings); err != nil {
			return nil, err
		}
	}

	unlock := s.locks.Lock(current.HouseholdID)
	defer unlock()

	var budget models.Budget
	err = withRetry(ctx, "update_budget", func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			budget = models.Budget{}
			if err := tx.Where("id = ?", budgetID).First(&budget).Error; err != nil {
				return storeErr(err, apperrors.ErrBudgetNotFound)
			}

			if update.Amount != nil {
				budget.Amount = *update.Amount
			}
			if update.PeriodStart != nil {
				budget.PeriodStart = *update.PeriodStart
			}
			if update.PeriodEnd != nil {
				budget.PeriodEnd = *update.PeriodEnd
			}
			if p := update.Percentages; p != nil {
				budget.NeedsPct, budget.WantsPct, budget.SavingsPct = p.Needs, p.Wants, p.Savings
			}
			if err := validateEnvelope(budget.Amount, budget.PeriodStart, budget.PeriodEnd); err != nil {
				return err
			}
			return saveEnvelope(tx, &budget)
		})
	})
	if err != nil {
		return nil, err
	}
	return &budget, nil
}

// ResetPeriod zeroes the four spend totals of the household's budget and
// starts a new counting cycle. Amount, period and percentages are kept.
func (s *budgetService) ResetPeriod(ctx context.Context, householdID string) (*models.Budget, error) {
	if _, err := s.households.GetHousehold(ctx, householdID); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(householdID)
	defer unlock()

	var budget models.Budget
	err := withRetry(ctx, "reset_period", func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			budget = models.Budget{}
			if err := tx.Where("household_id = ?", householdID).First(&budget).Error; err != nil {
				return storeErr(err, apperrors.ErrBudgetNotConfigured)
			}

			res := tx.Model(&models.Budget{}).
				Where("id = ? AND version = ?", budget.ID, budget.Version).
				Updates(map[string]any{
					"total_spent":   decimal.Zero,
					"spent_needs":   decimal.Zero,
					"spent_wants":   decimal.Zero,
					"spent_savings": decimal.Zero,
					"epoch":         budget.Epoch + 1,
					"version":       budget.Version + 1,
				})
			if res.Error != nil {
				return apperrors.FromStore(res.Error)
			}
			if res.RowsAffected == 0 {
				return apperrors.WithMessage(apperrors.ErrConcurrencyConflict, "budget was modified concurrently")
			}
			budget.ClearSpend()
			budget.Epoch++
			budget.Version++
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Get().Infow("Budget period reset", "budget_id", budget.ID, "household_id", householdID, "epoch", budget.Epoch)
	return &budget, nil
}

// DeleteBudget removes a budget permanently so the household can configure a
// new one. Expenses counted against it are no longer reversed anywhere.
func (s *budgetService) DeleteBudget(ctx context.Context, budgetID string) error {
	budget, err := s.GetBudget(ctx, budgetID)
	if err != nil {
		return err
	}

	unlock := s.locks.Lock(budget.HouseholdID)
	defer unlock()

	res := s.db.WithContext(ctx).Unscoped().Where("id = ?", budgetID).Delete(&models.Budget{})
	if res.Error != nil {
		return apperrors.FromStore(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrBudgetNotFound
	}

	logger.Get().Infow("Budget deleted", "budget_id", budgetID, "household_id", budget.HouseholdID)
	return nil
}

// Analyze returns the allocation analysis of a budget as of now.
func (s *budgetService) Analyze(ctx context.Context, budgetID string) (*allocation.Result, error) {
	budget, err := s.GetBudget(ctx, budgetID)
	if err != nil {
		return nil, err
	}
	return allocation.Analyze(budget, s.now()), nil
}
