// Package testutil provides test helpers for setting up in-memory databases,
// creating fixtures, and making assertions.
package testutil

import (
	"fmt"
	"testing"

	"hearth/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// allModels is the list of all GORM models to auto-migrate in tests.
var allModels = []interface{}{
	&models.User{},
	&models.Household{},
	&models.Wallet{},
	&models.Category{},
	&models.Transaction{},
	&models.Budget{},
	&models.SavingsGoal{},
	&models.SavingsTransfer{},
	&models.AuditLog{},
}

// SetupTestDB creates a private in-memory SQLite database with all models
// migrated. The pool holds a single connection, so concurrent callers queue
// the way writers do on a real SQLite file.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", nextID())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get underlying DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(allModels...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// TeardownTestDB closes the underlying database connection.
func TeardownTestDB(t *testing.T, db *gorm.DB) {
	t.Helper()

	sqlDB, err := db.DB()
	if err != nil {
		t.Errorf("failed to get underlying DB for teardown: %v", err)
		return
	}
	if err := sqlDB.Close(); err != nil {
		t.Errorf("failed to close test database: %v", err)
	}
}
