package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType represents the type of transaction
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

// Transaction represents an income or expense booked against a wallet.
type Transaction struct {
	Base
	UserID      string          `gorm:"type:uuid;not null;index" json:"user_id"`
	HouseholdID string          `gorm:"type:uuid;not null;index" json:"household_id"`
	WalletID    string          `gorm:"type:uuid;not null;index" json:"wallet_id"`
	CategoryID  *string         `gorm:"type:uuid;index" json:"category_id,omitempty"`
	Type        TransactionType `gorm:"not null" json:"type"`
	Amount      decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"amount"`
	Description string          `json:"description"`
	Date        time.Time       `gorm:"not null" json:"date"`

	// Bucket, BudgetID and BudgetEpoch record where an expense was counted.
	// BudgetID is nil when the household had no budget at the time.
	Bucket      *BudgetBucket `gorm:"size:16" json:"bucket,omitempty"`
	BudgetID    *string       `gorm:"type:uuid" json:"budget_id,omitempty"`
	BudgetEpoch *int64        `json:"-"`

	// Relationships
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

// CountedIn reports whether the expense still contributes to the given
// budget's current cycle.
func (t *Transaction) CountedIn(budget *Budget) bool {
	if t.BudgetID == nil || t.BudgetEpoch == nil || budget == nil {
		return false
	}
	return *t.BudgetID == budget.ID && *t.BudgetEpoch == budget.Epoch
}

// MarkCounted records that the expense was counted in budget's current
// cycle, or clears the marker when budget is nil.
func (t *Transaction) MarkCounted(budget *Budget) {
	if budget == nil {
		t.BudgetID = nil
		t.BudgetEpoch = nil
		return
	}
	id, epoch := budget.ID, budget.Epoch
	t.BudgetID = &id
	t.BudgetEpoch = &epoch
}
