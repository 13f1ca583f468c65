// Package allocation derives per-bucket limits and utilization from a
// budget. Everything here is a pure function of its inputs; money is
// handled with decimal arithmetic only.
package allocation

import (
	"time"

	"hearth/internal/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// BucketResult is the derived state of one bucket.
type BucketResult struct {
	Bucket         models.BudgetBucket `json:"bucket"`
	Percentage     int                 `json:"percentage"`
	Limit          decimal.Decimal     `json:"limit"`
	Spent          decimal.Decimal     `json:"spent"`
	Remaining      decimal.Decimal     `json:"remaining"`
	UtilizationPct decimal.Decimal     `json:"utilization_pct"`
	Exceeded       bool                `json:"exceeded"`
}

// PeriodStatus describes where asOf falls within the budget period.
type PeriodStatus struct {
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	DaysRemaining int       `json:"days_remaining"`
	Expired       bool      `json:"expired"`
}

// Result is the analysis of a budget. Buckets always holds needs, wants and
// savings in that order.
type Result struct {
	BudgetID       string          `json:"budget_id"`
	HouseholdID    string          `json:"household_id"`
	Buckets        []BucketResult  `json:"buckets"`
	TotalLimit     decimal.Decimal `json:"total_limit"`
	TotalSpent     decimal.Decimal `json:"total_spent"`
	Remaining      decimal.Decimal `json:"remaining"`
	UtilizationPct decimal.Decimal `json:"utilization_pct"`
	Period         PeriodStatus    `json:"period"`
}

// Bucket returns the result for bucket.
func (r *Result) Bucket(bucket models.BudgetBucket) (BucketResult, bool) {
	for _, b := range r.Buckets {
		if b.Bucket == bucket {
			return b, true
		}
	}
	return BucketResult{}, false
}

// Limit returns amount × pct / 100. Dividing by 100 is a decimal shift, so
// the result is exact.
func Limit(amount decimal.Decimal, pct int) decimal.Decimal {
	return amount.Mul(decimal.NewFromInt(int64(pct))).Shift(-2)
}

// Utilization returns spent as a percentage of limit rounded to two places,
// or zero when the limit is not positive. The value is not clamped at 100.
func Utilization(spent, limit decimal.Decimal) decimal.Decimal {
	if !limit.IsPositive() {
		return decimal.Zero
	}
	return spent.Mul(hundred).DivRound(limit, 2)
}

// Exceeded reports whether bucket has spent more than its limit.
func Exceeded(budget *models.Budget, bucket models.BudgetBucket) bool {
	return budget.Spent(bucket).GreaterThan(Limit(budget.Amount, budget.Percentage(bucket)))
}

// Overage returns how far bucket is over its limit, or zero.
func Overage(budget *models.Budget, bucket models.BudgetBucket) decimal.Decimal {
	over := budget.Spent(bucket).Sub(Limit(budget.Amount, budget.Percentage(bucket)))
	if over.IsPositive() {
		return over
	}
	return decimal.Zero
}

// Analyze derives the presentation figures of budget as of the given time.
func Analyze(budget *models.Budget, asOf time.Time) *Result {
	result := &Result{
		BudgetID:    budget.ID,
		HouseholdID: budget.HouseholdID,
		Buckets:     make([]BucketResult, 0, len(models.Buckets)),
		TotalLimit:  budget.Amount,
		TotalSpent:  budget.TotalSpent,
		Remaining:   budget.Amount.Sub(budget.TotalSpent),
		Period:      Period(budget.PeriodStart, budget.PeriodEnd, asOf),
	}

	for _, bucket := range models.Buckets {
		pct := budget.Percentage(bucket)
		limit := Limit(budget.Amount, pct)
		spent := budget.Spent(bucket)
		result.Buckets = append(result.Buckets, BucketResult{
			Bucket:         bucket,
			Percentage:     pct,
			Limit:          limit,
			Spent:          spent,
			Remaining:      limit.Sub(spent),
			UtilizationPct: Utilization(spent, limit),
			Exceeded:       spent.GreaterThan(limit),
		})
	}

	result.UtilizationPct = Utilization(budget.TotalSpent, budget.Amount)
	return result
}

// Period computes the period status. End is inclusive: the period expires
// once asOf reaches the day after end.
func Period(start, end, asOf time.Time) PeriodStatus {
	status := PeriodStatus{Start: start, End: end}

	endExclusive := truncateDay(end).AddDate(0, 0, 1)
	if !asOf.Before(endExclusive) {
		status.Expired = true
		return status
	}

	from := truncateDay(asOf.In(end.Location()))
	if s := truncateDay(start); from.Before(s) {
		from = s
	}
	status.DaysRemaining = daysBetween(from, endExclusive)
	return status
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func daysBetween(from, to time.Time) int {
	// Round to absorb DST shifts.
	return int((to.Sub(from).Hours() + 12) / 24)
}
