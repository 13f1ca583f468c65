package server

import (
	"gorm.io/gorm"

	"hearth/internal/allocation"
	"hearth/internal/events"
	"hearth/internal/services"
)

// ServiceDeps configures NewServices.
type ServiceDeps struct {
	// BucketTable resolves categories that carry only a code.
	BucketTable allocation.BucketTable
	// Publisher receives budget and savings events after commit.
	Publisher events.Publisher
}

// Services bundles the business services the router dispatches to.
type Services struct {
	Users        services.UserServicer
	Households   services.HouseholdServicer
	Wallets      services.WalletServicer
	Categories   services.CategoryServicer
	Transactions services.TransactionServicer
	Budgets      services.BudgetServicer
	Savings      services.SavingsServicer
	Audit        services.AuditServicer
}

// NewServices wires the business services over db.
func NewServices(db *gorm.DB, deps ServiceDeps) Services {
	if deps.Publisher == nil {
		deps.Publisher = events.NopPublisher{}
	}
	locks := services.NewHouseholdLocks()
	categories := services.NewCategoryService(db, deps.BucketTable)
	households := services.NewHouseholdService(db, categories)
	wallets := services.NewWalletService(db)

	return Services{
		Users:      services.NewUserService(db),
		Households: households,
		Wallets:    wallets,
		Categories: categories,
		Transactions: services.NewTransactionService(db, wallets, households,
			services.NewBucketResolver(deps.BucketTable), services.NewSpendAccumulator(), deps.Publisher, locks),
		Budgets: services.NewBudgetService(db, households, locks),
		Savings: services.NewSavingsService(db, wallets, deps.Publisher),
		Audit:   services.NewAuditService(db),
	}
}
