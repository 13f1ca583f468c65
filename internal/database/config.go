package database

import (
	"fmt"

	"hearth/internal/config"
)

// Supported drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds database configuration
type Config struct {
	Driver         string
	Host           string
	Port           string
	User           string
	Password       string
	DBName         string
	SSLMode        string
	SQLitePath     string
	MigrationsPath string
}

// NewConfig derives the database configuration from the application configuration.
func NewConfig(cfg *config.Config) *Config {
	return &Config{
		Driver:         cfg.DBDriver,
		Host:           cfg.DBHost,
		Port:           cfg.DBPort,
		User:           cfg.DBUser,
		Password:       cfg.DBPassword,
		DBName:         cfg.DBName,
		SSLMode:        cfg.DBSSLMode,
		SQLitePath:     cfg.SQLitePath,
		MigrationsPath: cfg.MigrationsPath,
	}
}

// DSN returns the connection string for the configured driver.
func (c *Config) DSN() string {
	if c.Driver == DriverSQLite {
		return c.SQLitePath
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// MigrateURL returns the golang-migrate database URL for the configured driver.
func (c *Config) MigrateURL() string {
	if c.Driver == DriverSQLite {
		return "sqlite3://" + c.SQLitePath
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

// SourceURL returns the golang-migrate source URL of the migrations directory.
func (c *Config) SourceURL() string {
	path := c.MigrationsPath
	if path == "" {
		path = "migrations"
	}
	return "file://" + path
}
