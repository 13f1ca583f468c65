// Package database owns the GORM connection and schema migrations.
package database

import (
	"errors"
	"fmt"
	"time"

	"hearth/internal/logger"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Manager handles database operations
type Manager struct {
	db     *gorm.DB
	config *Config
}

// NewManager opens a connection for the configured driver.
func NewManager(config *Config) (*Manager, error) {
	var dialector gorm.Dialector
	switch config.Driver {
	case DriverSQLite:
		dialector = sqlite.Open(config.DSN())
	case DriverPostgres, "":
		dialector = postgres.New(postgres.Config{
			DSN:                  config.DSN(),
			PreferSimpleProtocol: true,
		})
	default:
		return nil, fmt.Errorf("unsupported database driver %q", config.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying DB: %w", err)
	}
	if config.Driver == DriverSQLite {
		// SQLite allows a single writer.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)

	return &Manager{db: db, config: config}, nil
}

func (m *Manager) migrator() (*migrate.Migrate, error) {
	mig, err := migrate.New(m.config.SourceURL(), m.config.MigrateURL())
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return mig, nil
}

func closeMigrator(mig *migrate.Migrate) {
	srcErr, dbErr := mig.Close()
	if srcErr != nil {
		logger.Get().Warnf("migrate source close error: %v", srcErr)
	}
	if dbErr != nil {
		logger.Get().Warnf("migrate database close error: %v", dbErr)
	}
}

// RunMigrations applies pending SQL migrations from the migrations directory.
func (m *Manager) RunMigrations() error {
	logger.Get().Infow("Running database migrations", "driver", m.config.Driver, "source", m.config.SourceURL())

	mig, err := m.migrator()
	if err != nil {
		return err
	}
	defer closeMigrator(mig)

	if err := mig.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}

	logger.Get().Info("Database migrations completed successfully")
	return nil
}

// RollbackMigrations reverts the given number of migrations, or all of them
// when steps is zero.
func (m *Manager) RollbackMigrations(steps int) error {
	mig, err := m.migrator()
	if err != nil {
		return err
	}
	defer closeMigrator(mig)

	if steps > 0 {
		err = mig.Steps(-steps)
	} else {
		err = mig.Down()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("rollback failed: %w", err)
	}
	return nil
}

// MigrationVersion reports the current schema version and whether the last
// migration left the schema dirty.
func (m *Manager) MigrationVersion() (uint, bool, error) {
	mig, err := m.migrator()
	if err != nil {
		return 0, false, err
	}
	defer closeMigrator(mig)

	version, dirty, err := mig.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

// DB returns the underlying GORM database instance
func (m *Manager) DB() *gorm.DB {
	return m.db
}

// Close releases the connection pool.
func (m *Manager) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
