package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"hearth/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// Money parses a decimal literal and fails the test on malformed input.
func Money(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("invalid decimal %q: %v", s, err)
	}
	return d
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestHousehold creates a household owned by owner and moves the owner into it.
func CreateTestHousehold(t *testing.T, db *gorm.DB, owner *models.User) *models.Household {
	t.Helper()

	household := &models.Household{
		Name:    fmt.Sprintf("Test Household %d", nextID()),
		OwnerID: owner.ID,
	}
	if err := db.Create(household).Error; err != nil {
		t.Fatalf("failed to create test household: %v", err)
	}
	JoinHousehold(t, db, owner, household)
	return household
}

// JoinHousehold makes user a member of household.
func JoinHousehold(t *testing.T, db *gorm.DB, user *models.User, household *models.Household) {
	t.Helper()

	if err := db.Model(user).Update("household_id", household.ID).Error; err != nil {
		t.Fatalf("failed to join household: %v", err)
	}
	user.HouseholdID = &household.ID
}

// CreateTestWallet creates an active wallet with the given balance.
func CreateTestWallet(t *testing.T, db *gorm.DB, userID, balance string) *models.Wallet {
	t.Helper()

	wallet := &models.Wallet{
		UserID:   userID,
		Name:     fmt.Sprintf("Test Wallet %d", nextID()),
		Balance:  Money(t, balance),
		Currency: "USD",
		IsActive: true,
	}
	if err := db.Create(wallet).Error; err != nil {
		t.Fatalf("failed to create test wallet: %v", err)
	}
	return wallet
}

// CreateTestCategory creates an expense category mapped to bucket.
func CreateTestCategory(t *testing.T, db *gorm.DB, householdID string, bucket models.BudgetBucket) *models.Category {
	t.Helper()

	b := bucket
	category := &models.Category{
		HouseholdID: householdID,
		Name:        fmt.Sprintf("Test Category %d", nextID()),
		Type:        models.CategoryTypeExpense,
		Bucket:      &b,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestCodedCategory creates an expense category that carries only a
// legacy code.
func CreateTestCodedCategory(t *testing.T, db *gorm.DB, householdID, code string) *models.Category {
	t.Helper()

	c := code
	category := &models.Category{
		HouseholdID: householdID,
		Name:        fmt.Sprintf("Coded Category %d", nextID()),
		Type:        models.CategoryTypeExpense,
		Code:        &c,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestIncomeCategory creates an income category.
func CreateTestIncomeCategory(t *testing.T, db *gorm.DB, householdID string) *models.Category {
	t.Helper()

	category := &models.Category{
		HouseholdID: householdID,
		Name:        fmt.Sprintf("Income Category %d", nextID()),
		Type:        models.CategoryTypeIncome,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestBudget creates a budget for the household covering the current month.
func CreateTestBudget(t *testing.T, db *gorm.DB, householdID, amount string, needs, wants, savings int) *models.Budget {
	t.Helper()

	now := time.Now().UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	budget := &models.Budget{
		HouseholdID:  householdID,
		Amount:       Money(t, amount),
		PeriodStart:  start,
		PeriodEnd:    start.AddDate(0, 1, -1),
		NeedsPct:     needs,
		WantsPct:     wants,
		SavingsPct:   savings,
		TotalSpent:   decimal.Zero,
		SpentNeeds:   decimal.Zero,
		SpentWants:   decimal.Zero,
		SpentSavings: decimal.Zero,
		Epoch:        1,
	}
	if err := db.Create(budget).Error; err != nil {
		t.Fatalf("failed to create test budget: %v", err)
	}
	return budget
}

// CreateTestSavingsGoal creates a goal with the given target.
func CreateTestSavingsGoal(t *testing.T, db *gorm.DB, userID, target string) *models.SavingsGoal {
	t.Helper()

	goal := &models.SavingsGoal{
		UserID:        userID,
		Name:          fmt.Sprintf("Goal %d", nextID()),
		TargetAmount:  Money(t, target),
		CurrentAmount: decimal.Zero,
	}
	if err := db.Create(goal).Error; err != nil {
		t.Fatalf("failed to create test savings goal: %v", err)
	}
	return goal
}

// ReloadBudget re-reads a budget from the database.
func ReloadBudget(t *testing.T, db *gorm.DB, budgetID string) *models.Budget {
	t.Helper()

	var budget models.Budget
	if err := db.Where("id = ?", budgetID).First(&budget).Error; err != nil {
		t.Fatalf("failed to reload budget: %v", err)
	}
	return &budget
}

// ReloadWallet re-reads a wallet from the database.
func ReloadWallet(t *testing.T, db *gorm.DB, walletID string) *models.Wallet {
	t.Helper()

	var wallet models.Wallet
	if err := db.Where("id = ?", walletID).First(&wallet).Error; err != nil {
		t.Fatalf("failed to reload wallet: %v", err)
	}
	return &wallet
}
