package services

import (
	"context"
	"testing"
	"time"

	"hearth/internal/models"
	"hearth/internal/testutil"
)

func TestCreateUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewUserService(db)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, "  Alice@Example.com ", "s3cret-pass", "Alice", "Smith")
	testutil.AssertNoError(t, err)

	if user.Email != "alice@example.com" {
		t.Errorf("expected normalized email, got %q", user.Email)
	}
	if user.Password == "s3cret-pass" {
		t.Error("password should be hashed")
	}
	if !svc.VerifyPassword(user, "s3cret-pass") {
		t.Error("expected password to verify")
	}

	_, err = svc.CreateUser(ctx, "alice@example.com", "other", "A", "S")
	testutil.AssertAppError(t, err, "DUPLICATE_EMAIL")

	_, err = svc.CreateUser(ctx, "", "pw", "A", "S")
	testutil.AssertAppError(t, err, "INVALID_INPUT")
}

func TestGetUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewUserService(db)
	ctx := context.Background()

	created := testutil.CreateTestUserWithEmail(t, db, "bob@example.com")

	byEmail, err := svc.GetUserByEmail(ctx, "BOB@example.com")
	testutil.AssertNoError(t, err)
	if byEmail.ID != created.ID {
		t.Errorf("expected user %s, got %s", created.ID, byEmail.ID)
	}

	_, err = svc.GetUserByID(ctx, created.ID)
	testutil.AssertNoError(t, err)

	_, err = svc.GetUserByID(ctx, "0190b5a8-6f3a-7c2e-9b1d-2a4f5e6d7c8b")
	testutil.AssertAppError(t, err, "USER_NOT_FOUND")
}

func TestAttemptLogin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewUserService(db).(*userService)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, "carol@example.com", "correct", "Carol", "Jones")
	testutil.AssertNoError(t, err)

	user, err := svc.AttemptLogin(ctx, "carol@example.com", "correct")
	testutil.AssertNoError(t, err)
	if user.Email != "carol@example.com" {
		t.Errorf("unexpected user %q", user.Email)
	}

	_, err = svc.AttemptLogin(ctx, "nobody@example.com", "correct")
	testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")

	for i := 0; i < maxFailedLogins; i++ {
		_, err = svc.AttemptLogin(ctx, "carol@example.com", "wrong")
		testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
	}

	// Locked even with the right password.
	_, err = svc.AttemptLogin(ctx, "carol@example.com", "correct")
	testutil.AssertAppError(t, err, "ACCOUNT_LOCKED")

	var stored models.User
	db.Where("email = ?", "carol@example.com").First(&stored)
	if stored.LockedUntil == nil {
		t.Fatal("expected locked_until to be set")
	}

	// Once the lockout expires the correct password works again.
	svc.now = func() time.Time { return stored.LockedUntil.Add(time.Second) }
	_, err = svc.AttemptLogin(ctx, "carol@example.com", "correct")
	testutil.AssertNoError(t, err)
}
