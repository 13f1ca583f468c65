package services

import (
	"testing"

	"gorm.io/gorm"

	"hearth/internal/allocation"
	"hearth/internal/models"
	"hearth/internal/testutil"
)

// ledger wires the services the way cmd/api does, over a test database.
type ledger struct {
	db           *gorm.DB
	events       *testutil.EventRecorder
	households   HouseholdServicer
	categories   CategoryServicer
	wallets      WalletServicer
	budgets      BudgetServicer
	transactions TransactionServicer
	savings      SavingsServicer

	user      *models.User
	household *models.Household
	wallet    *models.Wallet
	needs     *models.Category
	wants     *models.Category
	savingsC  *models.Category
}

func newLedger(t *testing.T, balance string) *ledger {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	recorder := &testutil.EventRecorder{}
	locks := NewHouseholdLocks()
	categories := NewCategoryService(db, allocation.LegacyBucketTable)
	households := NewHouseholdService(db, categories)
	wallets := NewWalletService(db)

	l := &ledger{
		db:         db,
		events:     recorder,
		households: households,
		categories: categories,
		wallets:    wallets,
		budgets:    NewBudgetService(db, households, locks),
		transactions: NewTransactionService(db, wallets, households,
			NewBucketResolver(allocation.LegacyBucketTable), NewSpendAccumulator(), recorder, locks),
		savings: NewSavingsService(db, wallets, recorder),
	}

	l.user = testutil.CreateTestUser(t, db)
	l.household = testutil.CreateTestHousehold(t, db, l.user)
	l.wallet = testutil.CreateTestWallet(t, db, l.user.ID, balance)
	l.needs = testutil.CreateTestCategory(t, db, l.household.ID, models.BucketNeeds)
	l.wants = testutil.CreateTestCategory(t, db, l.household.ID, models.BucketWants)
	l.savingsC = testutil.CreateTestCategory(t, db, l.household.ID, models.BucketSavings)
	return l
}

func (l *ledger) budget(t *testing.T, budgetID string) *models.Budget {
	t.Helper()
	return testutil.ReloadBudget(t, l.db, budgetID)
}

func (l *ledger) balance(t *testing.T) string {
	t.Helper()
	return testutil.ReloadWallet(t, l.db, l.wallet.ID).Balance.String()
}
