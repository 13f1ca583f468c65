package models

// Household groups the users that share one budget.
type Household struct {
	Base
	Name    string `gorm:"not null" json:"name"`
	OwnerID string `gorm:"type:uuid;not null;index" json:"owner_id"`

	// Relationships
	Members []User `gorm:"foreignKey:HouseholdID" json:"members,omitempty"`
}
