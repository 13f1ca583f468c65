// Package config loads hearth configuration from the environment.
package config

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/ulule/limiter/v3"
)

// Config holds application configuration
type Config struct {
	// Server
	Env         string
	Port        string
	LogLevel    string
	CORSOrigins []string
	RateLimit   string

	// Database
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string

	MigrationsPath string

	// JWT
	JWTSecret        string
	JWTExpirationDur time.Duration

	// OpsAPIKey guards the scheduler endpoints; empty disables them.
	OpsAPIKey string

	// Events
	AMQPURL         string
	AMQPExchange    string
	AMQPRoutingKey  string
	EventBufferSize int
}

var appConfig *Config

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", "development")
	v.SetDefault("PORT", "8080")
	v.SetDefault("LOG_LEVEL", "")
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("RATE_LIMIT", "100-M")

	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "hearth")
	v.SetDefault("DB_PASSWORD", "hearth")
	v.SetDefault("DB_NAME", "hearth")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("SQLITE_PATH", "hearth.db")
	v.SetDefault("MIGRATIONS_PATH", "migrations")

	v.SetDefault("JWT_SECRET", "fallback-secret-key-for-dev-only")
	v.SetDefault("JWT_EXPIRES_IN", "24h")
	v.SetDefault("OPS_API_KEY", "")

	v.SetDefault("AMQP_URL", "")
	v.SetDefault("AMQP_EXCHANGE", "hearth.events")
	v.SetDefault("AMQP_ROUTING_KEY", "budget")
	v.SetDefault("EVENT_BUFFER", 256)
}

// Load loads configuration from the .env file (if present) and environment
// variables, environment taking precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	config := &Config{
		Env:       v.GetString("ENV"),
		Port:      v.GetString("PORT"),
		LogLevel:  v.GetString("LOG_LEVEL"),
		RateLimit: v.GetString("RATE_LIMIT"),

		DBDriver:   strings.ToLower(v.GetString("DB_DRIVER")),
		DBHost:     v.GetString("DB_HOST"),
		DBPort:     v.GetString("DB_PORT"),
		DBUser:     v.GetString("DB_USER"),
		DBPassword: v.GetString("DB_PASSWORD"),
		DBName:     v.GetString("DB_NAME"),
		DBSSLMode:  v.GetString("DB_SSLMODE"),
		SQLitePath: v.GetString("SQLITE_PATH"),

		MigrationsPath: v.GetString("MIGRATIONS_PATH"),

		JWTSecret: v.GetString("JWT_SECRET"),
		OpsAPIKey: v.GetString("OPS_API_KEY"),

		AMQPURL:         v.GetString("AMQP_URL"),
		AMQPExchange:    v.GetString("AMQP_EXCHANGE"),
		AMQPRoutingKey:  v.GetString("AMQP_ROUTING_KEY"),
		EventBufferSize: v.GetInt("EVENT_BUFFER"),
	}

	for _, origin := range strings.Split(v.GetString("CORS_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			config.CORSOrigins = append(config.CORSOrigins, origin)
		}
	}

	// Parse JWT expiration duration
	expStr := v.GetString("JWT_EXPIRES_IN")
	expDur, err := time.ParseDuration(expStr)
	if err != nil {
		log.Printf("Warning: invalid JWT_EXPIRES_IN value '%s', falling back to 24h\n", expStr)
		expDur = 24 * time.Hour
	}
	config.JWTExpirationDur = expDur

	if err := config.Validate(); err != nil {
		return nil, err
	}

	appConfig = config
	return config, nil
}

// Validate checks the loaded values for combinations the server cannot run with.
func (c *Config) Validate() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil {
		return fmt.Errorf("invalid port '%s': must be a number", c.Port)
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("invalid port %d: must be between 1 and 65535", port)
	}

	switch c.DBDriver {
	case "postgres":
		if c.DBHost == "" || c.DBName == "" {
			return fmt.Errorf("postgres driver requires DB_HOST and DB_NAME")
		}
	case "sqlite":
		if c.SQLitePath == "" {
			return fmt.Errorf("sqlite driver requires SQLITE_PATH")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER '%s': must be postgres or sqlite", c.DBDriver)
	}

	if _, err := limiter.NewRateFromFormatted(c.RateLimit); err != nil {
		return fmt.Errorf("invalid RATE_LIMIT '%s': %w", c.RateLimit, err)
	}

	if c.EventBufferSize <= 0 {
		return fmt.Errorf("invalid EVENT_BUFFER %d: must be positive", c.EventBufferSize)
	}

	if c.AMQPURL != "" && c.AMQPExchange == "" {
		return fmt.Errorf("AMQP_EXCHANGE is required when AMQP_URL is set")
	}

	return nil
}

// IsProduction reports whether the server runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}
