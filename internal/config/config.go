// Package config loads server settings from an optional .env file and the
// environment. Command-line flags override these in cmd/barter.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the server settings.
type Config struct {
	DBPath             string
	Addr               string
	AdminUser          string
	LogPath            string
	RedisAddr          string // empty disables proposal rate limiting
	RedisPassword      string
	ProposalsPerMinute int
}

// Defaults used when neither the environment nor a flag sets a value.
const (
	DefaultDBPath             = "barter.sqlite3"
	DefaultAddr               = ":8080"
	DefaultAdminUser          = "admin"
	DefaultProposalsPerMinute = 5
)

// Load reads envFile if it exists, then the BARTER_* environment variables.
// A missing envFile is not an error.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	cfg := &Config{
		DBPath:        getEnv("BARTER_DB", DefaultDBPath),
		Addr:          getEnv("BARTER_ADDR", DefaultAddr),
		AdminUser:     getEnv("BARTER_ADMIN_USER", DefaultAdminUser),
		LogPath:       getEnv("BARTER_LOG", ""),
		RedisAddr:     getEnv("BARTER_REDIS_ADDR", ""),
		RedisPassword: getEnv("BARTER_REDIS_PASSWORD", ""),
	}

	perMinute := getEnv("BARTER_PROPOSALS_PER_MINUTE", strconv.Itoa(DefaultProposalsPerMinute))
	n, err := strconv.Atoi(perMinute)
	if err != nil || n < 0 {
		return nil, fmt.Errorf("BARTER_PROPOSALS_PER_MINUTE must be a non-negative integer, got %q", perMinute)
	}
	cfg.ProposalsPerMinute = n

	return cfg, nil
}

// getEnv returns the value of key, or fallback when it is unset.
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
