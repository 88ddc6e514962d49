package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Logger   LoggerConfig
	Database DatabaseConfig
	App      AppConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	ConnMaxLifetime time.Duration
	MaxOpenConns    int
	MaxIdleConns    int
}

// AppConfig holds transfer lifecycle configuration
type AppConfig struct {
	// TokenExpiry is how long a confirmation code stays active.
	TokenExpiry time.Duration
	// CancelDeadline is how long an unauthenticated transfer survives
	// before the cancellation sweep fires. Must exceed TokenExpiry.
	CancelDeadline time.Duration
	// NotifyWebhookURL receives transaction lifecycle events. Empty
	// disables outbound notifications.
	NotifyWebhookURL string

	SchedulerPollInterval time.Duration
	SchedulerRetryBase    time.Duration
	SchedulerMaxAttempts  int
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level string // debug, info, warn, error
}

// Load loads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  getEnvAsDuration("SERVER_READ_TIMEOUT", "15s"),
			WriteTimeout: getEnvAsDuration("SERVER_WRITE_TIMEOUT", "15s"),
			IdleTimeout:  getEnvAsDuration("SERVER_IDLE_TIMEOUT", "60s"),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			DBName:          getEnv("DB_NAME", "raroledger"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", "5m"),
		},
		App: AppConfig{
			TokenExpiry:           getEnvAsDuration("TOKEN_EXPIRY", "5m"),
			CancelDeadline:        getEnvAsDuration("CANCEL_DEADLINE", "6m"),
			NotifyWebhookURL:      getEnv("NOTIFY_WEBHOOK_URL", ""),
			SchedulerPollInterval: getEnvAsDuration("SCHEDULER_POLL_INTERVAL", "1s"),
			SchedulerRetryBase:    getEnvAsDuration("SCHEDULER_RETRY_BASE", "10s"),
			SchedulerMaxAttempts:  getEnvAsInt("SCHEDULER_MAX_ATTEMPTS", 5),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port cannot be empty")
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host cannot be empty")
	}
	if c.Database.DBName == "" {
		return fmt.Errorf("database name cannot be empty")
	}

	if c.App.TokenExpiry <= 0 {
		return fmt.Errorf("token expiry must be positive, got %s", c.App.TokenExpiry)
	}
	if c.App.CancelDeadline <= c.App.TokenExpiry {
		return fmt.Errorf("cancel deadline (%s) must exceed token expiry (%s)",
			c.App.CancelDeadline, c.App.TokenExpiry)
	}

	if c.App.SchedulerPollInterval <= 0 {
		return fmt.Errorf("scheduler poll interval must be positive")
	}
	if c.App.SchedulerMaxAttempts < 1 {
		return fmt.Errorf("scheduler max attempts must be at least 1, got %d", c.App.SchedulerMaxAttempts)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	return nil
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to parsing the default if provided value is invalid
		duration, err = time.ParseDuration(defaultValue)
		if err != nil {
			return 0
		}
	}
	return duration
}
