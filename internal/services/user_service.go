package services

import (
	"context"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	apperrors "hearth/internal/errors"
	"hearth/internal/logger"
	"hearth/internal/models"
)

const (
	maxFailedLogins = 5
	lockoutDuration = 15 * time.Minute
)

// userService handles user-related business logic.
type userService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewUserService creates a new UserServicer.
func NewUserService(db *gorm.DB) UserServicer {
	return &userService{db: db, now: time.Now}
}

// CreateUser registers a new user
func (s *userService) CreateUser(ctx context.Context, email, password, firstName, lastName string) (*models.User, error) {
	// Validate input
	if email == "" || password == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "email and password are required")
	}
	email = strings.ToLower(strings.TrimSpace(email))

	// Check if user with email exists
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, apperrors.FromStore(err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateEmail
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	user := &models.User{
		Email:     email,
		Password:  string(hashedPassword),
		FirstName: firstName,
		LastName:  lastName,
		IsActive:  true,
	}

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, apperrors.FromStore(err)
	}

	return user, nil
}

// GetUserByEmail retrieves an active user by email
func (s *userService) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Where("email = ? AND is_active = ?", strings.ToLower(strings.TrimSpace(email)), true).
		First(&user).Error
	if err != nil {
		return nil, storeErr(err, apperrors.ErrUserNotFound)
	}
	return &user, nil
}

// GetUserByID retrieves a user by ID
func (s *userService) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, storeErr(err, apperrors.ErrUserNotFound)
	}
	return &user, nil
}

// VerifyPassword checks if the provided password matches the stored hash
func (s *userService) VerifyPassword(user *models.User, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password))
	return err == nil
}

// AttemptLogin checks the credentials and tracks failed attempts. After
// maxFailedLogins consecutive failures the user is locked out for
// lockoutDuration.
func (s *userService) AttemptLogin(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.GetUserByEmail(ctx, email)
	if err != nil {
		if apperrors.CodeOf(err) == apperrors.ErrUserNotFound.Code {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	now := s.now()
	if user.LockedUntil != nil && now.Before(*user.LockedUntil) {
		return nil, apperrors.ErrAccountLocked
	}

	db := s.db.WithContext(ctx).Model(user)
	if !s.VerifyPassword(user, password) {
		updates := map[string]any{"failed_login_attempts": user.FailedLoginAttempts + 1}
		if user.FailedLoginAttempts+1 >= maxFailedLogins {
			updates["locked_until"] = now.Add(lockoutDuration)
			updates["failed_login_attempts"] = 0
			logger.Get().Warnw("User locked out after failed logins", "user_id", user.ID)
		}
		if err := db.Updates(updates).Error; err != nil {
			return nil, apperrors.FromStore(err)
		}
		return nil, apperrors.ErrInvalidCredentials
	}

	if err := db.Updates(map[string]any{
		"failed_login_attempts": 0,
		"locked_until":          nil,
		"last_login_at":         now,
	}).Error; err != nil {
		return nil, apperrors.FromStore(err)
	}
	return user, nil
}
