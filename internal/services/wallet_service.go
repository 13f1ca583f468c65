package services

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "hearth/internal/errors"
	"hearth/internal/models"
	"hearth/internal/pagination"
)

// walletService handles wallet-related business logic.
type walletService struct {
	db *gorm.DB
}

// NewWalletService creates a new WalletServicer.
func NewWalletService(db *gorm.DB) WalletServicer {
	return &walletService{db: db}
}

// CreateWallet creates a wallet with an opening balance.
func (s *walletService) CreateWallet(ctx context.Context, userID, name, description, currency string, initialBalance decimal.Decimal) (*models.Wallet, error) {
	if strings.TrimSpace(name) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "wallet name is required")
	}
	if initialBalance.IsNegative() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "initial balance cannot be negative")
	}
	if currency == "" {
		currency = "USD"
	}

	wallet := &models.Wallet{
		UserID:      userID,
		Name:        name,
		Description: description,
		Balance:     initialBalance,
		Currency:    strings.ToUpper(currency),
		IsActive:    true,
	}
	if err := s.db.WithContext(ctx).Create(wallet).Error; err != nil {
		return nil, apperrors.FromStore(err)
	}
	return wallet, nil
}

// GetUserWallets returns a paginated list of the user's active wallets.
func (s *walletService) GetUserWallets(ctx context.Context, userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Wallet], error) {
	page.Defaults()

	base := s.db.WithContext(ctx).Model(&models.Wallet{}).Where("user_id = ? AND is_active = ?", userID, true)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.FromStore(err)
	}

	var wallets []models.Wallet
	if err := base.Scopes(pagination.Paginate(page)).Order("created_at ASC").Find(&wallets).Error; err != nil {
		return nil, apperrors.FromStore(err)
	}

	result := pagination.NewPageResponse(wallets, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetWalletByID returns a wallet if it belongs to the user.
func (s *walletService) GetWalletByID(ctx context.Context, userID, walletID string) (*models.Wallet, error) {
	return s.LoadWallet(ctx, s.db, userID, walletID)
}

// UpdateWallet renames a wallet.
func (s *walletService) UpdateWallet(ctx context.Context, userID, walletID, name, description string) (*models.Wallet, error) {
	wallet, err := s.GetWalletByID(ctx, userID, walletID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]any)
	if name != "" {
		updates["name"] = name
		wallet.Name = name
	}
	if description != "" {
		updates["description"] = description
		wallet.Description = description
	}
	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(wallet).Updates(updates).Error; err != nil {
			return nil, apperrors.FromStore(err)
		}
	}
	return wallet, nil
}

// DeleteWallet soft-deletes a wallet that no transaction or savings transfer
// references.
func (s *walletService) DeleteWallet(ctx context.Context, userID, walletID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		wallet, err := s.LoadWallet(ctx, tx, userID, walletID)
		if err != nil {
			return err
		}

		for _, model := range []any{&models.Transaction{}, &models.SavingsTransfer{}} {
			var count int64
			if err := tx.Model(model).Where("wallet_id = ?", wallet.ID).Count(&count).Error; err != nil {
				return apperrors.FromStore(err)
			}
			if count > 0 {
				return apperrors.ErrWalletInUse
			}
		}

		if err := tx.Model(wallet).Update("is_active", false).Error; err != nil {
			return apperrors.FromStore(err)
		}
		return apperrors.FromStore(tx.Delete(wallet).Error)
	})
}

// LoadWallet reads an active wallet of the user through tx.
func (s *walletService) LoadWallet(ctx context.Context, tx *gorm.DB, userID, walletID string) (*models.Wallet, error) {
	if walletID == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "wallet ID is required")
	}
	var wallet models.Wallet
	err := tx.WithContext(ctx).
		Where("id = ? AND user_id = ? AND is_active = ?", walletID, userID, true).
		First(&wallet).Error
	if err != nil {
		return nil, storeErr(err, apperrors.ErrWalletNotFound)
	}
	return &wallet, nil
}

// ApplyBalanceChange adds delta to the wallet balance with an optimistic
// version check. On success wallet reflects the stored row.
func (s *walletService) ApplyBalanceChange(ctx context.Context, tx *gorm.DB, wallet *models.Wallet, delta decimal.Decimal) error {
	newBalance := wallet.Balance.Add(delta)
	if newBalance.IsNegative() {
		return apperrors.ErrInsufficientFunds
	}

	res := tx.WithContext(ctx).Model(&models.Wallet{}).
		Where("id = ? AND version = ?", wallet.ID, wallet.Version).
		Updates(map[string]any{
			"balance": newBalance,
			"version": wallet.Version + 1,
		})
	if res.Error != nil {
		return apperrors.FromStore(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.WithMessage(apperrors.ErrConcurrencyConflict, "wallet was modified concurrently")
	}

	wallet.Balance = newBalance
	wallet.Version++
	return nil
}
