package services

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "hearth/internal/errors"
	"hearth/internal/events"
	"hearth/internal/logger"
	"hearth/internal/models"
	"hearth/internal/pagination"
)

// savingsService moves money between wallets and savings goals.
type savingsService struct {
	db        *gorm.DB
	wallets   WalletServicer
	publisher events.Publisher
	now       func() time.Time
}

// NewSavingsService creates a new SavingsServicer.
func NewSavingsService(db *gorm.DB, wallets WalletServicer, publisher events.Publisher) SavingsServicer {
	return &savingsService{db: db, wallets: wallets, publisher: publisher, now: time.Now}
}

// CreateGoal creates a savings goal with nothing saved yet.
func (s *savingsService) CreateGoal(ctx context.Context, userID, name string, target decimal.Decimal, targetDate *time.Time) (*models.SavingsGoal, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "goal name is required")
	}
	if err := validateAmount(target); err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "target amount must be a positive amount with at most two decimal places")
	}
	if targetDate != nil && !targetDate.After(s.now()) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "target date must be in the future")
	}

	goal := &models.SavingsGoal{
		UserID:        userID,
		Name:          name,
		TargetAmount:  target,
		CurrentAmount: decimal.Zero,
		TargetDate:    targetDate,
	}
	if err := s.db.WithContext(ctx).Create(goal).Error; err != nil {
		return nil, apperrors.FromStore(err)
	}
	return goal, nil
}

// GetUserGoals returns a paginated list of the user's goals.
func (s *savingsService) GetUserGoals(ctx context.Context, userID string, page pagination.PageRequest) (*pagination.PageResponse[models.SavingsGoal], error) {
	page.Defaults()

	base := s.db.WithContext(ctx).Model(&models.SavingsGoal{}).Where("user_id = ?", userID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.FromStore(err)
	}

	var goals []models.SavingsGoal
	if err := base.Scopes(pagination.Paginate(page)).Order("created_at DESC").Find(&goals).Error; err != nil {
		return nil, apperrors.FromStore(err)
	}

	result := pagination.NewPageResponse(goals, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetGoal returns a goal of the user.
func (s *savingsService) GetGoal(ctx context.Context, userID, goalID string) (*models.SavingsGoal, error) {
	return loadGoal(ctx, s.db, userID, goalID)
}

func loadGoal(ctx context.Context, db *gorm.DB, userID, goalID string) (*models.SavingsGoal, error) {
	var goal models.SavingsGoal
	if err := db.WithContext(ctx).Where("id = ? AND user_id = ?", goalID, userID).First(&goal).Error; err != nil {
		return nil, storeErr(err, apperrors.ErrSavingsGoalNotFound)
	}
	return &goal, nil
}

// Deposit moves amount from the wallet into the goal.
func (s *savingsService) Deposit(ctx context.Context, userID, goalID, walletID string, amount decimal.Decimal) (*models.SavingsGoal, error) {
	goal, reached, err := s.transfer(ctx, userID, goalID, walletID, amount, true)
	if err != nil {
		return nil, err
	}
	if reached {
		s.publisher.Publish(events.NewGoalReached(events.GoalReached{
			GoalID:        goal.ID,
			UserID:        userID,
			Name:          goal.Name,
			TargetAmount:  goal.TargetAmount,
			CurrentAmount: goal.CurrentAmount,
		}, s.now()))
	}
	return goal, nil
}

// Withdraw moves amount from the goal back into the wallet.
func (s *savingsService) Withdraw(ctx context.Context, userID, goalID, walletID string, amount decimal.Decimal) (*models.SavingsGoal, error) {
	goal, _, err := s.transfer(ctx, userID, goalID, walletID, amount, false)
	return goal, err
}

// transfer applies a deposit or withdrawal atomically and reports whether a
// deposit made the goal reach its target.
func (s *savingsService) transfer(ctx context.Context, userID, goalID, walletID string, amount decimal.Decimal, deposit bool) (*models.SavingsGoal, bool, error) {
	if err := validateAmount(amount); err != nil {
		return nil, false, err
	}

	var goal *models.SavingsGoal
	var reached bool
	err := withRetry(ctx, "savings_transfer", func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var err error
			reached = false
			goal, err = loadGoal(ctx, tx, userID, goalID)
			if err != nil {
				return err
			}
			wallet, err := s.wallets.LoadWallet(ctx, tx, userID, walletID)
			if err != nil {
				return err
			}

			walletDelta, goalDelta := amount.Neg(), amount
			if !deposit {
				if goal.CurrentAmount.LessThan(amount) {
					return apperrors.ErrInsufficientSavings
				}
				walletDelta, goalDelta = amount, amount.Neg()
			}
			if err := s.wallets.ApplyBalanceChange(ctx, tx, wallet, walletDelta); err != nil {
				return err
			}

			previous := goal.CurrentAmount
			goal.CurrentAmount = goal.CurrentAmount.Add(goalDelta)
			updates := map[string]any{
				"current_amount": goal.CurrentAmount,
				"version":        goal.Version + 1,
			}
			if deposit && goal.ReachedAt == nil && previous.LessThan(goal.TargetAmount) &&
				!goal.CurrentAmount.LessThan(goal.TargetAmount) {
				now := s.now()
				goal.ReachedAt = &now
				updates["reached_at"] = now
				reached = true
			}
			res := tx.Model(&models.SavingsGoal{}).
				Where("id = ? AND version = ?", goal.ID, goal.Version).
				Updates(updates)
			if res.Error != nil {
				return apperrors.FromStore(res.Error)
			}
			if res.RowsAffected == 0 {
				return apperrors.WithMessage(apperrors.ErrConcurrencyConflict, "savings goal was modified concurrently")
			}
			goal.Version++

			return apperrors.FromStore(tx.Create(&models.SavingsTransfer{
				GoalID:    goal.ID,
				UserID:    userID,
				WalletID:  wallet.ID,
				Amount:    amount,
				IsDeposit: deposit,
				Date:      s.now(),
			}).Error)
		})
	})
	if err != nil {
		return nil, false, err
	}

	logger.Get().Infow("Savings transfer",
		"goal_id", goal.ID,
		"deposit", deposit,
		"amount", amount.String(),
		"progress", goal.Progress().String(),
	)
	return goal, reached, nil
}
