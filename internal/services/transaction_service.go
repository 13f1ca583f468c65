package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "hearth/internal/errors"
	"hearth/internal/events"
	"hearth/internal/logger"
	"hearth/internal/models"
	"hearth/internal/pagination"
)

// transactionService is the expense and income ledger. Every mutation runs
// as one database transaction: wallet change, budget deltas, then the row.
type transactionService struct {
	db          *gorm.DB
	wallets     WalletServicer
	households  HouseholdServicer
	buckets     BucketResolver
	accumulator SpendAccumulator
	publisher   events.Publisher
	locks       *HouseholdLocks
	now         func() time.Time
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(
	db *gorm.DB,
	wallets WalletServicer,
	households HouseholdServicer,
	buckets BucketResolver,
	accumulator SpendAccumulator,
	publisher events.Publisher,
	locks *HouseholdLocks,
) TransactionServicer {
	return &transactionService{
		db:          db,
		wallets:     wallets,
		households:  households,
		buckets:     buckets,
		accumulator: accumulator,
		publisher:   publisher,
		locks:       locks,
		now:         time.Now,
	}
}

func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if !amount.Equal(amount.Round(2)) {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "amount cannot have more than two decimal places")
	}
	return nil
}

// CreateExpense debits the wallet, counts the amount in the category's
// bucket and records the expense.
func (s *transactionService) CreateExpense(ctx context.Context, userID string, input TransactionInput) (*models.Transaction, error) {
	if err := validateAmount(input.Amount); err != nil {
		return nil, err
	}
	if input.CategoryID == nil || *input.CategoryID == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "expenses require a category")
	}
	if input.Date.IsZero() {
		input.Date = s.now()
	}

	householdID, err := s.households.ResolveHousehold(ctx, userID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(householdID)
	defer unlock()

	var expense *models.Transaction
	var delta *DeltaResult
	err = withRetry(ctx, "create_expense", func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			wallet, err := s.wallets.LoadWallet(ctx, tx, userID, input.WalletID)
			if err != nil {
				return err
			}
			bucket, err := s.buckets.ResolveBucket(ctx, tx, householdID, *input.CategoryID)
			if err != nil {
				return err
			}

			if err := s.wallets.ApplyBalanceChange(ctx, tx, wallet, input.Amount.Neg()); err != nil {
				return err
			}
			delta, err = s.accumulator.ApplyDelta(ctx, tx, householdID, bucket, input.Amount)
			if err != nil {
				return err
			}

			expense = &models.Transaction{
				UserID:      userID,
				HouseholdID: householdID,
				WalletID:    wallet.ID,
				CategoryID:  input.CategoryID,
				Type:        models.TransactionTypeExpense,
				Amount:      input.Amount,
				Description: input.Description,
				Date:        input.Date,
				Bucket:      &bucket,
			}
			expense.MarkCounted(delta.Budget)
			return apperrors.FromStore(tx.Create(expense).Error)
		})
	})
	if err != nil {
		return nil, err
	}

	s.notifyBreaches(householdID, delta)
	logger.Get().Infow("Expense recorded",
		"transaction_id", expense.ID,
		"household_id", householdID,
		"bucket", *expense.Bucket,
		"amount", expense.Amount.String(),
	)
	return expense, nil
}

// CreateIncome credits the wallet and records the income. Incomes never
// touch the budget.
func (s *transactionService) CreateIncome(ctx context.Context, userID string, input TransactionInput) (*models.Transaction, error) {
	if err := validateAmount(input.Amount); err != nil {
		return nil, err
	}
	if input.Date.IsZero() {
		input.Date = s.now()
	}

	householdID, err := s.households.ResolveHousehold(ctx, userID)
	if err != nil {
		return nil, err
	}

	var income *models.Transaction
	err = withRetry(ctx, "create_income", func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			wallet, err := s.wallets.LoadWallet(ctx, tx, userID, input.WalletID)
			if err != nil {
				return err
			}
			if err := s.checkIncomeCategory(ctx, tx, householdID, input.CategoryID); err != nil {
				return err
			}
			if err := s.wallets.ApplyBalanceChange(ctx, tx, wallet, input.Amount); err != nil {
				return err
			}

			income = &models.Transaction{
				UserID:      userID,
				HouseholdID: householdID,
				WalletID:    wallet.ID,
				CategoryID:  input.CategoryID,
				Type:        models.TransactionTypeIncome,
				Amount:      input.Amount,
				Description: input.Description,
				Date:        input.Date,
			}
			return apperrors.FromStore(tx.Create(income).Error)
		})
	})
	if err != nil {
		return nil, err
	}
	return income, nil
}

func (s *transactionService) checkIncomeCategory(ctx context.Context, tx *gorm.DB, householdID string, categoryID *string) error {
	if categoryID == nil || *categoryID == "" {
		return nil
	}
	category, err := loadCategory(ctx, tx, householdID, *categoryID)
	if err != nil {
		return err
	}
	if category.Type != models.CategoryTypeIncome {
		return apperrors.WithMessage(apperrors.ErrInvalidTransactionType, "incomes require an income category")
	}
	return nil
}

// UpdateTransaction changes amount, category, description or date. For an
// expense counted in the budget's current cycle the old amount is taken out
// of its bucket and the new amount added to the (possibly different) new
// bucket. Expenses from an earlier cycle only move the wallet.
func (s *transactionService) UpdateTransaction(ctx context.Context, userID, transactionID string, update TransactionUpdate) (*models.Transaction, error) {
	if update.Amount != nil {
		if err := validateAmount(*update.Amount); err != nil {
			return nil, err
		}
	}

	current, err := s.GetTransactionByID(ctx, userID, transactionID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(current.HouseholdID)
	defer unlock()

	var txn models.Transaction
	var delta *DeltaResult
	err = withRetry(ctx, "update_transaction", func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			txn = models.Transaction{}
			delta = nil
			if err := tx.Where("id = ? AND user_id = ?", transactionID, userID).First(&txn).Error; err != nil {
				return storeErr(err, apperrors.ErrTransactionNotFound)
			}

			amount := txn.Amount
			if update.Amount != nil {
				amount = *update.Amount
			}
			wallet, err := s.wallets.LoadWallet(ctx, tx, userID, txn.WalletID)
			if err != nil {
				return err
			}

			switch txn.Type {
			case models.TransactionTypeExpense:
				categoryID := txn.CategoryID
				if update.CategoryID != nil {
					categoryID = update.CategoryID
				}
				if categoryID == nil {
					return apperrors.WithMessage(apperrors.ErrInvalidInput, "expenses require a category")
				}
				bucket, err := s.buckets.ResolveBucket(ctx, tx, txn.HouseholdID, *categoryID)
				if err != nil {
					return err
				}

				if err := s.wallets.ApplyBalanceChange(ctx, tx, wallet, txn.Amount.Sub(amount)); err != nil {
					return err
				}
				delta, err = s.accumulator.Recount(ctx, tx, &txn, bucket, amount)
				if err != nil {
					return err
				}

				txn.CategoryID = categoryID
				txn.Bucket = &bucket
			case models.TransactionTypeIncome:
				if update.CategoryID != nil {
					if err := s.checkIncomeCategory(ctx, tx, txn.HouseholdID, update.CategoryID); err != nil {
						return err
					}
					txn.CategoryID = update.CategoryID
				}
				if err := s.wallets.ApplyBalanceChange(ctx, tx, wallet, amount.Sub(txn.Amount)); err != nil {
					return err
				}
			default:
				return apperrors.ErrInvalidTransactionType
			}

			txn.Amount = amount
			if update.Description != nil {
				txn.Description = *update.Description
			}
			if update.Date != nil {
				txn.Date = *update.Date
			}
			return apperrors.FromStore(tx.Omit("Category").Save(&txn).Error)
		})
	})
	if err != nil {
		return nil, err
	}

	s.notifyBreaches(txn.HouseholdID, delta)
	return &txn, nil
}

// DeleteTransaction removes a transaction and reverses its effect on the
// wallet and, for expenses, on the budget.
func (s *transactionService) DeleteTransaction(ctx context.Context, userID, transactionID string) error {
	current, err := s.GetTransactionByID(ctx, userID, transactionID)
	if err != nil {
		return err
	}

	unlock := s.locks.Lock(current.HouseholdID)
	defer unlock()

	return withRetry(ctx, "delete_transaction", func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var txn models.Transaction
			if err := tx.Where("id = ? AND user_id = ?", transactionID, userID).First(&txn).Error; err != nil {
				return storeErr(err, apperrors.ErrTransactionNotFound)
			}
			wallet, err := s.wallets.LoadWallet(ctx, tx, userID, txn.WalletID)
			if err != nil {
				return err
			}

			switch txn.Type {
			case models.TransactionTypeExpense:
				if err := s.wallets.ApplyBalanceChange(ctx, tx, wallet, txn.Amount); err != nil {
					return err
				}
				if _, err := s.accumulator.Reverse(ctx, tx, &txn); err != nil {
					return err
				}
			case models.TransactionTypeIncome:
				if err := s.wallets.ApplyBalanceChange(ctx, tx, wallet, txn.Amount.Neg()); err != nil {
					return err
				}
			default:
				return apperrors.ErrInvalidTransactionType
			}

			return apperrors.FromStore(tx.Delete(&txn).Error)
		})
	})
}

// GetTransactionByID retrieves a transaction by ID for a specific user
func (s *transactionService) GetTransactionByID(ctx context.Context, userID, transactionID string) (*models.Transaction, error) {
	var transaction models.Transaction
	err := s.db.WithContext(ctx).Preload("Category").
		Where("id = ? AND user_id = ?", transactionID, userID).
		First(&transaction).Error
	if err != nil {
		return nil, storeErr(err, apperrors.ErrTransactionNotFound)
	}
	return &transaction, nil
}

// GetUserTransactions retrieves a paginated, filtered list of the user's transactions.
func (s *transactionService) GetUserTransactions(ctx context.Context, userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	base := s.db.WithContext(ctx).Model(&models.Transaction{}).Where("user_id = ?", userID)
	base = applyTransactionFilters(base, filter)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.FromStore(err)
	}

	var transactions []models.Transaction
	if err := base.Preload("Category").
		Scopes(pagination.Paginate(page)).
		Order(page.OrderBy("date DESC", "date", "amount", "created_at")).
		Find(&transactions).Error; err != nil {
		return nil, apperrors.FromStore(err)
	}

	result := pagination.NewPageResponse(transactions, page.Page, page.PageSize, totalItems)
	return &result, nil
}

func applyTransactionFilters(q *gorm.DB, f TransactionFilter) *gorm.DB {
	if f.FromDate != nil {
		q = q.Where("date >= ?", *f.FromDate)
	}
	if f.ToDate != nil {
		q = q.Where("date <= ?", *f.ToDate)
	}
	if f.Type != nil {
		q = q.Where("type = ?", *f.Type)
	}
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if f.WalletID != nil {
		q = q.Where("wallet_id = ?", *f.WalletID)
	}
	if f.Bucket != nil {
		q = q.Where("bucket = ?", *f.Bucket)
	}
	if f.MinAmount != nil {
		q = q.Where("amount >= ?", *f.MinAmount)
	}
	if f.MaxAmount != nil {
		q = q.Where("amount <= ?", *f.MaxAmount)
	}
	return q
}

// notifyBreaches publishes a BudgetExceeded event per breached bucket. It is
// called after commit only.
func (s *transactionService) notifyBreaches(householdID string, delta *DeltaResult) {
	if delta == nil || delta.Budget == nil {
		return
	}
	for _, breach := range delta.Breaches {
		s.publisher.Publish(events.NewBudgetExceeded(events.BudgetExceeded{
			BudgetID:       delta.Budget.ID,
			HouseholdID:    householdID,
			Bucket:         breach.Bucket,
			ExceededAmount: breach.Overage,
			Spent:          breach.Spent,
			Limit:          breach.Limit,
		}, s.now()))
	}
}
