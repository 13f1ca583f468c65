package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"hearth/internal/pagination"
	"hearth/internal/testutil"
)

func TestWalletService(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	ctx := context.Background()
	svc := NewWalletService(db)
	user := testutil.CreateTestUser(t, db)

	wallet, err := svc.CreateWallet(ctx, user.ID, "Checking", "", "eur", testutil.Money(t, "150.25"))
	require.NoError(t, err)
	assert.Equal(t, "EUR", wallet.Currency)

	_, err = svc.CreateWallet(ctx, user.ID, "Broken", "", "", testutil.Money(t, "-1"))
	testutil.AssertAppError(t, err, "INVALID_INPUT")

	renamed, err := svc.UpdateWallet(ctx, user.ID, wallet.ID, "Joint", "")
	require.NoError(t, err)
	assert.Equal(t, "Joint", renamed.Name)

	page, err := svc.GetUserWallets(ctx, user.ID, pagination.PageRequest{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.TotalItems)

	other := testutil.CreateTestUser(t, db)
	_, err = svc.GetWalletByID(ctx, other.ID, wallet.ID)
	testutil.AssertAppError(t, err, "WALLET_NOT_FOUND")
}

func TestApplyBalanceChange(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	ctx := context.Background()
	svc := NewWalletService(db)
	user := testutil.CreateTestUser(t, db)
	stored := testutil.CreateTestWallet(t, db, user.ID, "100")

	t.Run("overdraft", func(t *testing.T) {
		err := db.Transaction(func(tx *gorm.DB) error {
			w, err := svc.LoadWallet(ctx, tx, user.ID, stored.ID)
			if err != nil {
				return err
			}
			return svc.ApplyBalanceChange(ctx, tx, w, testutil.Money(t, "-100.01"))
		})
		testutil.AssertAppError(t, err, "INSUFFICIENT_FUNDS")
	})

	t.Run("stale_version", func(t *testing.T) {
		stale, err := svc.GetWalletByID(ctx, user.ID, stored.ID)
		require.NoError(t, err)

		require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
			w, err := svc.LoadWallet(ctx, tx, user.ID, stored.ID)
			if err != nil {
				return err
			}
			return svc.ApplyBalanceChange(ctx, tx, w, testutil.Money(t, "-40"))
		}))

		err = db.Transaction(func(tx *gorm.DB) error {
			return svc.ApplyBalanceChange(ctx, tx, stale, testutil.Money(t, "-10"))
		})
		testutil.AssertAppError(t, err, "CONCURRENCY_CONFLICT")
		assert.Equal(t, "60", testutil.ReloadWallet(t, db, stored.ID).Balance.String())
	})
}

func TestDeleteWallet(t *testing.T) {
	ctx := context.Background()

	t.Run("unused wallet", func(t *testing.T) {
		l := newLedger(t, "50")

		require.NoError(t, l.wallets.DeleteWallet(ctx, l.user.ID, l.wallet.ID))

		_, err := l.wallets.GetWalletByID(ctx, l.user.ID, l.wallet.ID)
		testutil.AssertAppError(t, err, "WALLET_NOT_FOUND")
		page, err := l.wallets.GetUserWallets(ctx, l.user.ID, pagination.PageRequest{})
		require.NoError(t, err)
		assert.EqualValues(t, 0, page.TotalItems)
	})

	t.Run("referenced by an expense", func(t *testing.T) {
		l := newLedger(t, "50")
		l.expense(t, l.needs.ID, "10")

		err := l.wallets.DeleteWallet(ctx, l.user.ID, l.wallet.ID)
		testutil.AssertAppError(t, err, "WALLET_IN_USE")
		_, err = l.wallets.GetWalletByID(ctx, l.user.ID, l.wallet.ID)
		require.NoError(t, err)
	})

	t.Run("referenced by a savings transfer", func(t *testing.T) {
		l := newLedger(t, "50")
		goal := testutil.CreateTestSavingsGoal(t, l.db, l.user.ID, "100")
		_, err := l.savings.Deposit(ctx, l.user.ID, goal.ID, l.wallet.ID, testutil.Money(t, "20"))
		require.NoError(t, err)

		err = l.wallets.DeleteWallet(ctx, l.user.ID, l.wallet.ID)
		testutil.AssertAppError(t, err, "WALLET_IN_USE")
	})

	t.Run("after its expenses are deleted", func(t *testing.T) {
		l := newLedger(t, "50")
		txn := l.expense(t, l.needs.ID, "10")
		require.NoError(t, l.transactions.DeleteTransaction(ctx, l.user.ID, txn.ID))

		require.NoError(t, l.wallets.DeleteWallet(ctx, l.user.ID, l.wallet.ID))
	})

	t.Run("another user's wallet", func(t *testing.T) {
		l := newLedger(t, "50")
		other := testutil.CreateTestUser(t, l.db)

		err := l.wallets.DeleteWallet(ctx, other.ID, l.wallet.ID)
		testutil.AssertAppError(t, err, "WALLET_NOT_FOUND")
	})
}
