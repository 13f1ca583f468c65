package models

// CategoryType represents the type of category
type CategoryType string

const (
	CategoryTypeIncome  CategoryType = "income"
	CategoryTypeExpense CategoryType = "expense"
)

// Category represents a transaction category shared by a household.
// Expense categories resolve to a budget bucket either through Bucket or,
// for categories imported from the numeric scheme, through Code.
type Category struct {
	Base
	HouseholdID string        `gorm:"type:uuid;not null;index" json:"household_id"`
	Name        string        `gorm:"not null" json:"name"`
	Type        CategoryType  `gorm:"not null" json:"type"`
	Bucket      *BudgetBucket `gorm:"size:16" json:"bucket,omitempty"`
	Code        *string       `gorm:"size:32" json:"code,omitempty"`
	Description string        `json:"description"`
	Icon        string        `json:"icon"`
	Color       string        `json:"color"`
}
