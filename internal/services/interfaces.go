package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"hearth/internal/allocation"
	"hearth/internal/models"
	"hearth/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(ctx context.Context, email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(ctx context.Context, email, password string) (*models.User, error)
}

// HouseholdServicer groups users that share a budget.
type HouseholdServicer interface {
	CreateHousehold(ctx context.Context, ownerUserID, name string) (*models.Household, error)
	GetHousehold(ctx context.Context, householdID string) (*models.Household, error)
	AddMember(ctx context.Context, householdID, email string) (*models.User, error)
	ResolveHousehold(ctx context.Context, userID string) (string, error)
}

// WalletServicer defines the contract for wallet-related business logic.
type WalletServicer interface {
	CreateWallet(ctx context.Context, userID, name, description, currency string, initialBalance decimal.Decimal) (*models.Wallet, error)
	GetUserWallets(ctx context.Context, userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Wallet], error)
	GetWalletByID(ctx context.Context, userID, walletID string) (*models.Wallet, error)
	UpdateWallet(ctx context.Context, userID, walletID, name, description string) (*models.Wallet, error)
	DeleteWallet(ctx context.Context, userID, walletID string) error
	// LoadWallet reads a wallet inside tx.
	LoadWallet(ctx context.Context, tx *gorm.DB, userID, walletID string) (*models.Wallet, error)
	// ApplyBalanceChange adds delta to the wallet balance inside tx. A result
	// below zero fails with INSUFFICIENT_FUNDS.
	ApplyBalanceChange(ctx context.Context, tx *gorm.DB, wallet *models.Wallet, delta decimal.Decimal) error
}

// CategoryInput holds the fields of a new category.
type CategoryInput struct {
	Name        string
	Type        models.CategoryType
	Bucket      *models.BudgetBucket
	Code        *string
	Description string
	Icon        string
	Color       string
}

// CategoryUpdate holds the optional fields of a category update.
type CategoryUpdate struct {
	Name        *string
	Bucket      *models.BudgetBucket
	Code        *string
	Description *string
	Icon        *string
	Color       *string
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	CreateCategory(ctx context.Context, householdID string, input CategoryInput) (*models.Category, error)
	GetHouseholdCategories(ctx context.Context, householdID string, categoryType *models.CategoryType, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	GetCategoryByID(ctx context.Context, householdID, categoryID string) (*models.Category, error)
	UpdateCategory(ctx context.Context, householdID, categoryID string, update CategoryUpdate) (*models.Category, error)
	DeleteCategory(ctx context.Context, householdID, categoryID string) error
	SeedDefaultCategories(ctx context.Context, tx *gorm.DB, householdID string) error
}

// BucketResolver maps an expense category to the bucket it is counted in.
type BucketResolver interface {
	ResolveBucket(ctx context.Context, tx *gorm.DB, householdID, categoryID string) (models.BudgetBucket, error)
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate   *time.Time
	ToDate     *time.Time
	Type       *models.TransactionType
	CategoryID *string
	WalletID   *string
	Bucket     *models.BudgetBucket
	MinAmount  *decimal.Decimal
	MaxAmount  *decimal.Decimal
}

// TransactionInput holds the fields of a new income or expense.
type TransactionInput struct {
	WalletID    string
	CategoryID  *string
	Amount      decimal.Decimal
	Description string
	Date        time.Time
}

// TransactionUpdate holds the optional fields of a transaction update.
type TransactionUpdate struct {
	Amount      *decimal.Decimal
	CategoryID  *string
	Description *string
	Date        *time.Time
}

// TransactionServicer defines the contract for the expense and income ledger.
type TransactionServicer interface {
	CreateExpense(ctx context.Context, userID string, input TransactionInput) (*models.Transaction, error)
	CreateIncome(ctx context.Context, userID string, input TransactionInput) (*models.Transaction, error)
	UpdateTransaction(ctx context.Context, userID, transactionID string, update TransactionUpdate) (*models.Transaction, error)
	DeleteTransaction(ctx context.Context, userID, transactionID string) error
	GetTransactionByID(ctx context.Context, userID, transactionID string) (*models.Transaction, error)
	GetUserTransactions(ctx context.Context, userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
}

// BudgetInput holds the full definition of a budget period.
type BudgetInput struct {
	Amount      decimal.Decimal
	PeriodStart time.Time
	PeriodEnd   time.Time
	NeedsPct    int
	WantsPct    int
	SavingsPct  int
}

// Percentages groups the three bucket shares; they are always updated together.
type Percentages struct {
	Needs   int
	Wants   int
	Savings int
}

// BudgetUpdate holds the optional fields of a budget update. Spend totals
// are never touched by an update.
type BudgetUpdate struct {
	Amount      *decimal.Decimal
	PeriodStart *time.Time
	PeriodEnd   *time.Time
	Percentages *Percentages
}

// BudgetServicer is the budget configuration store of a household.
type BudgetServicer interface {
	CreateOrReplaceBudget(ctx context.Context, householdID string, input BudgetInput) (*models.Budget, error)
	GetBudget(ctx context.Context, budgetID string) (*models.Budget, error)
	GetActiveBudgetID(ctx context.Context, householdID string) (string, error)
	GetHouseholdBudget(ctx context.Context, householdID string) (*models.Budget, error)
	UpdateBudget(ctx context.Context, budgetID string, update BudgetUpdate) (*models.Budget, error)
	ResetPeriod(ctx context.Context, householdID string) (*models.Budget, error)
	DeleteBudget(ctx context.Context, budgetID string) error
	Analyze(ctx context.Context, budgetID string) (*allocation.Result, error)
}

// BucketBreach describes a bucket that went over its limit because of a delta.
type BucketBreach struct {
	Bucket  models.BudgetBucket
	Overage decimal.Decimal
	Spent   decimal.Decimal
	Limit   decimal.Decimal
}

// DeltaResult reports the outcome of an accumulator call. Budget is nil when
// the household has no budget or the call was skipped.
type DeltaResult struct {
	Budget   *models.Budget
	Breaches []BucketBreach
}

// SpendAccumulator keeps a budget's running totals in step with the expense
// ledger. All methods run inside the caller's database transaction.
type SpendAccumulator interface {
	ApplyDelta(ctx context.Context, tx *gorm.DB, householdID string, bucket models.BudgetBucket, amount decimal.Decimal) (*DeltaResult, error)
	// Reverse takes an expense's earlier contribution back out. Expenses
	// counted against another budget or before the last reset are skipped.
	Reverse(ctx context.Context, tx *gorm.DB, expense *models.Transaction) (*DeltaResult, error)
	// Recount replaces a counted expense's contribution with amount in
	// bucket. Uncounted expenses are skipped.
	Recount(ctx context.Context, tx *gorm.DB, expense *models.Transaction, bucket models.BudgetBucket, amount decimal.Decimal) (*DeltaResult, error)
}

// SavingsServicer defines the contract for savings goals.
type SavingsServicer interface {
	CreateGoal(ctx context.Context, userID, name string, target decimal.Decimal, targetDate *time.Time) (*models.SavingsGoal, error)
	GetUserGoals(ctx context.Context, userID string, page pagination.PageRequest) (*pagination.PageResponse[models.SavingsGoal], error)
	GetGoal(ctx context.Context, userID, goalID string) (*models.SavingsGoal, error)
	Deposit(ctx context.Context, userID, goalID, walletID string, amount decimal.Decimal) (*models.SavingsGoal, error)
	Withdraw(ctx context.Context, userID, goalID, walletID string, amount decimal.Decimal) (*models.SavingsGoal, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]any)
}
