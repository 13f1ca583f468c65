package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SavingsGoal is a target amount a user saves towards from their wallets.
type SavingsGoal struct {
	Base
	UserID        string          `gorm:"type:uuid;not null;index" json:"user_id"`
	Name          string          `gorm:"not null" json:"name"`
	TargetAmount  decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"target_amount"`
	CurrentAmount decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0" json:"current_amount"`
	TargetDate    *time.Time      `json:"target_date,omitempty"`
	ReachedAt     *time.Time      `json:"reached_at,omitempty"`
	Version       int64           `gorm:"not null;default:0" json:"-"`
}

// Progress returns CurrentAmount as a percentage of TargetAmount, rounded to
// two places.
func (g *SavingsGoal) Progress() decimal.Decimal {
	if !g.TargetAmount.IsPositive() {
		return decimal.Zero
	}
	return g.CurrentAmount.Mul(decimal.NewFromInt(100)).DivRound(g.TargetAmount, 2)
}

// SavingsTransfer records money moved between a wallet and a savings goal.
type SavingsTransfer struct {
	Base
	GoalID    string          `gorm:"type:uuid;not null;index" json:"goal_id"`
	UserID    string          `gorm:"type:uuid;not null" json:"user_id"`
	WalletID  string          `gorm:"type:uuid;not null" json:"wallet_id"`
	Amount    decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"amount"`
	IsDeposit bool            `gorm:"not null" json:"is_deposit"`
	Date      time.Time       `gorm:"not null" json:"date"`
}
