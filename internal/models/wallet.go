package models

import "github.com/shopspring/decimal"

// Wallet holds a cash balance that transactions debit and credit.
type Wallet struct {
	Base
	UserID      string          `gorm:"type:uuid;not null;index" json:"user_id"`
	Name        string          `gorm:"not null" json:"name"`
	Description string          `json:"description"`
	Balance     decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0" json:"balance"`
	Currency    string          `gorm:"size:3;not null;default:'USD'" json:"currency"`
	IsActive    bool            `gorm:"default:true" json:"is_active"`

	// Version guards balance updates against lost writes.
	Version int64 `gorm:"not null;default:0" json:"-"`
}
