package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BudgetBucket is the three-way classification every expense is counted in.
type BudgetBucket string

const (
	BucketNeeds   BudgetBucket = "needs"
	BucketWants   BudgetBucket = "wants"
	BucketSavings BudgetBucket = "savings"
)

// Buckets lists the buckets in reporting order.
var Buckets = []BudgetBucket{BucketNeeds, BucketWants, BucketSavings}

// Valid reports whether b is one of the three known buckets.
func (b BudgetBucket) Valid() bool {
	switch b {
	case BucketNeeds, BucketWants, BucketSavings:
		return true
	}
	return false
}

// Budget is the active budget period of a household: the envelope amount,
// its date range and split, plus the running spend totals.
type Budget struct {
	Base
	HouseholdID string          `gorm:"type:uuid;not null;uniqueIndex" json:"household_id"`
	Amount      decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"amount"`
	PeriodStart time.Time       `gorm:"not null" json:"period_start"`
	PeriodEnd   time.Time       `gorm:"not null" json:"period_end"`
	NeedsPct    int             `gorm:"not null" json:"needs_pct"`
	WantsPct    int             `gorm:"not null" json:"wants_pct"`
	SavingsPct  int             `gorm:"not null" json:"savings_pct"`

	TotalSpent   decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0" json:"total_spent"`
	SpentNeeds   decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0" json:"spent_needs"`
	SpentWants   decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0" json:"spent_wants"`
	SpentSavings decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0" json:"spent_savings"`

	// Epoch is bumped on every reset; expenses remember the epoch they were
	// counted in so that reversals never reach into an earlier cycle.
	Epoch   int64 `gorm:"not null;default:1" json:"epoch"`
	Version int64 `gorm:"not null;default:0" json:"-"`
}

// Percentage returns the share of the envelope assigned to bucket.
func (b *Budget) Percentage(bucket BudgetBucket) int {
	switch bucket {
	case BucketNeeds:
		return b.NeedsPct
	case BucketWants:
		return b.WantsPct
	case BucketSavings:
		return b.SavingsPct
	}
	return 0
}

// Spent returns the running total of bucket.
func (b *Budget) Spent(bucket BudgetBucket) decimal.Decimal {
	switch bucket {
	case BucketNeeds:
		return b.SpentNeeds
	case BucketWants:
		return b.SpentWants
	case BucketSavings:
		return b.SpentSavings
	}
	return decimal.Zero
}

// AddSpend adds a signed amount to bucket and to the total.
func (b *Budget) AddSpend(bucket BudgetBucket, amount decimal.Decimal) {
	switch bucket {
	case BucketNeeds:
		b.SpentNeeds = b.SpentNeeds.Add(amount)
	case BucketWants:
		b.SpentWants = b.SpentWants.Add(amount)
	case BucketSavings:
		b.SpentSavings = b.SpentSavings.Add(amount)
	default:
		return
	}
	b.TotalSpent = b.TotalSpent.Add(amount)
}

// ClearSpend zeroes the four running totals.
func (b *Budget) ClearSpend() {
	b.TotalSpent = decimal.Zero
	b.SpentNeeds = decimal.Zero
	b.SpentWants = decimal.Zero
	b.SpentSavings = decimal.Zero
}

// SpendColumn returns the column holding the running total of bucket.
func SpendColumn(bucket BudgetBucket) string {
	return "spent_" + string(bucket)
}
