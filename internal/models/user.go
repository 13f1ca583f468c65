package models

import "time"

// User represents the user model in the database
type User struct {
	Base
	HouseholdID         *string    `gorm:"type:uuid;index" json:"household_id,omitempty"`
	Email               string     `gorm:"uniqueIndex;not null" json:"email"`
	Password            string     `gorm:"not null" json:"-"`
	FirstName           string     `json:"first_name"`
	LastName            string     `json:"last_name"`
	IsActive            bool       `gorm:"default:true" json:"is_active"`
	FailedLoginAttempts int        `gorm:"default:0" json:"-"`
	LockedUntil         *time.Time `json:"-"`
	LastLoginAt         *time.Time `json:"last_login_at,omitempty"`
}

// DisplayName returns the first name, or the email when no name was given.
func (u *User) DisplayName() string {
	if u.FirstName != "" {
		return u.FirstName
	}
	return u.Email
}
