package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL string

	// Wallet configuration
	StartingBalance int64
	CommissionRate  float64 // platform cut of each prize pool

	// Admin configuration
	AdminUIDs []string // user IDs allowed to settle, delete, and handle payments

	// Match configuration
	OpenMatchTTL time.Duration // how long an open match may wait before being swept

	// Notification configuration
	NATSURL string

	// Advisory configuration
	AdvisoryURL string

	// Environment
	Environment string // "development" or "production"
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// IsAdmin reports whether the given uid carries the admin capability.
func (c *Config) IsAdmin(uid string) bool {
	for _, id := range c.AdminUIDs {
		if id == uid {
			return true
		}
	}
	return false
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		NATSURL:     os.Getenv("NATS_URL"),
		AdvisoryURL: os.Getenv("ADVISORY_URL"),
		Environment: os.Getenv("ENVIRONMENT"),

		// Defaults
		StartingBalance: 0,
		CommissionRate:  0.10,
		OpenMatchTTL:    24 * time.Hour,
	}

	// Override defaults if environment variables are set
	if balance := os.Getenv("STARTING_BALANCE"); balance != "" {
		if parsed, err := strconv.ParseInt(balance, 10, 64); err == nil {
			config.StartingBalance = parsed
		}
	}
	if rate := os.Getenv("COMMISSION_RATE"); rate != "" {
		if parsed, err := strconv.ParseFloat(rate, 64); err == nil {
			config.CommissionRate = parsed
		}
	}
	if ttl := os.Getenv("OPEN_MATCH_TTL"); ttl != "" {
		if parsed, err := time.ParseDuration(ttl); err == nil {
			config.OpenMatchTTL = parsed
		}
	}

	// Parse admin UIDs
	if adminUIDs := os.Getenv("ADMIN_UIDS"); adminUIDs != "" {
		for _, id := range strings.Split(adminUIDs, ",") {
			id = strings.TrimSpace(id)
			if id != "" {
				config.AdminUIDs = append(config.AdminUIDs, id)
			}
		}
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
	}

	return config, nil
}
