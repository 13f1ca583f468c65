package services

import (
	"context"
	"strings"

	"gorm.io/gorm"

	apperrors "hearth/internal/errors"
	"hearth/internal/logger"
	"hearth/internal/models"
)

// householdService handles household membership.
type householdService struct {
	db         *gorm.DB
	categories CategoryServicer
}

// NewHouseholdService creates a new HouseholdServicer. New households are
// seeded with the default categories.
func NewHouseholdService(db *gorm.DB, categories CategoryServicer) HouseholdServicer {
	return &householdService{db: db, categories: categories}
}

// CreateHousehold creates a household owned by the user and moves the user into it.
func (s *householdService) CreateHousehold(ctx context.Context, ownerUserID, name string) (*models.Household, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "household name is required")
	}
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	household := &models.Household{Name: name, OwnerID: ownerUserID}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owner models.User
		if err := tx.Where("id = ?", ownerUserID).First(&owner).Error; err != nil {
			return storeErr(err, apperrors.ErrUserNotFound)
		}

		if err := tx.Create(household).Error; err != nil {
			return apperrors.FromStore(err)
		}
		if err := tx.Model(&owner).Update("household_id", household.ID).Error; err != nil {
			return apperrors.FromStore(err)
		}
		return s.categories.SeedDefaultCategories(ctx, tx, household.ID)
	})
	if err != nil {
		return nil, err
	}

	logger.Get().Infow("Household created", "household_id", household.ID, "owner_id", ownerUserID)
	return household, nil
}

// GetHousehold returns a household with its members.
func (s *householdService) GetHousehold(ctx context.Context, householdID string) (*models.Household, error) {
	var household models.Household
	err := s.db.WithContext(ctx).Preload("Members").Where("id = ?", householdID).First(&household).Error
	if err != nil {
		return nil, storeErr(err, apperrors.ErrHouseholdNotFound)
	}
	return &household, nil
}

// AddMember moves the user with the given email into the household. Expenses
// the user booked earlier stay attached to their previous household.
func (s *householdService) AddMember(ctx context.Context, householdID, email string) (*models.User, error) {
	if _, err := s.GetHousehold(ctx, householdID); err != nil {
		return nil, err
	}

	var user models.User
	err := s.db.WithContext(ctx).
		Where("email = ? AND is_active = ?", strings.ToLower(strings.TrimSpace(email)), true).
		First(&user).Error
	if err != nil {
		return nil, storeErr(err, apperrors.ErrUserNotFound)
	}
	if user.HouseholdID != nil && *user.HouseholdID == householdID {
		return nil, apperrors.ErrAlreadyMember
	}

	if err := s.db.WithContext(ctx).Model(&user).Update("household_id", householdID).Error; err != nil {
		return nil, apperrors.FromStore(err)
	}
	user.HouseholdID = &householdID

	logger.Get().Infow("Household member added", "household_id", householdID, "user_id", user.ID)
	return &user, nil
}

// ResolveHousehold returns the household the user belongs to.
func (s *householdService) ResolveHousehold(ctx context.Context, userID string) (string, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Select("id", "household_id").Where("id = ?", userID).First(&user).Error; err != nil {
		return "", storeErr(err, apperrors.ErrUserNotFound)
	}
	if user.HouseholdID == nil || *user.HouseholdID == "" {
		return "", apperrors.ErrHouseholdNotFound
	}
	return *user.HouseholdID, nil
}
