package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Server
	Port        string
	Environment string
	LogLevel    string

	// Database
	DatabaseURL string
	AutoMigrate bool

	// JWT
	JWTSecret string

	// CORS
	AllowedOrigins []string

	// Sentry
	SentryDSN string

	// E-Procurement callback
	EprocBaseURL     string
	EprocCallbackKey string
	EprocTimeout     time.Duration

	// Workflow
	LegacyTriSignEnabled bool

	// Institutional constants printed on every cheque
	DDOName     string
	CostCentre  string
	GrantNumber string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:                 getEnv("PORT", "8080"),
		Environment:          getEnv("ENVIRONMENT", "development"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		AutoMigrate:          getEnvAsBool("AUTO_MIGRATE", true),
		JWTSecret:            getEnv("JWT_SECRET", ""),
		AllowedOrigins:       getEnvAsSlice("ALLOWED_ORIGINS", []string{"*"}),
		SentryDSN:            getEnv("SENTRY_DSN", ""),
		EprocBaseURL:         strings.TrimRight(getEnv("EPROC_BASE_URL", ""), "/"),
		EprocCallbackKey:     getEnv("EPROC_CALLBACK_KEY", ""),
		EprocTimeout:         time.Duration(getEnvAsInt("EPROC_TIMEOUT_SECONDS", 5)) * time.Second,
		LegacyTriSignEnabled: getEnvAsBool("LEGACY_TRISIGN_ENABLED", true),
		DDOName:              getEnv("DDO_NAME", "Director Finance, Teaching Hospital"),
		CostCentre:           getEnv("COST_CENTRE", "LO4587"),
		GrantNumber:          getEnv("GRANT_NUMBER", "PC22036"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.JWTSecret == "" && cfg.Environment == "production" {
		return nil, fmt.Errorf("JWT_SECRET is required in production")
	}

	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "dev-secret-change-in-production"
	}

	if cfg.EprocTimeout <= 0 {
		cfg.EprocTimeout = 5 * time.Second
	}

	return cfg, nil
}

// EprocEnabled reports whether the award-finalization callback can be attempted at all.
func (c *Config) EprocEnabled() bool {
	return c.EprocBaseURL != "" && c.EprocCallbackKey != ""
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsSlice reads an environment variable as comma-separated slice
func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
