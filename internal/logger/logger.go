// Package logger provides structured logging using Zap.
package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	sugar *zap.SugaredLogger
	once  sync.Once
)

// Init initializes the global logger for the given environment.
// For "production", it uses a JSON encoder. For all other environments,
// it uses a human-readable console encoder. An empty or unknown level keeps
// the encoder's default.
func Init(env, level string) {
	once.Do(func() {
		var cfg zap.Config
		if env == "production" {
			cfg = zap.NewProductionConfig()
		} else {
			cfg = zap.NewDevelopmentConfig()
		}
		if lvl, err := zapcore.ParseLevel(level); err == nil && level != "" {
			cfg.Level = zap.NewAtomicLevelAt(lvl)
		}

		base, err := cfg.Build()
		if err != nil {
			// Fallback to nop logger if initialization fails.
			base = zap.NewNop()
		}

		sugar = base.Sugar().With("service", "hearth")
	})
}

// Get returns the global sugared logger.
// If Init has not been called, it initializes a development logger.
func Get() *zap.SugaredLogger {
	if sugar == nil {
		Init("development", "")
	}
	return sugar
}

// Named returns the global logger scoped to a component, e.g. "events".
func Named(component string) *zap.SugaredLogger {
	return Get().Named(component)
}

// Sync flushes any buffered log entries. Call this before application exit.
func Sync() {
	if sugar != nil {
		_ = sugar.Sync()
	}
}
