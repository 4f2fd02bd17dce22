package config

import (
	"fmt"
	"os"
	"time"
)

// Config holds all runtime configuration, populated from environment
// variables with sensible defaults for local development.
type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	ServerPort string

	// TransferLockTimeout bounds how long a transfer may wait on a row lock
	// before failing with a timeout error.
	TransferLockTimeout time.Duration
}

// Load reads configuration from the environment.
func Load() *Config {
	return &Config{
		DBHost:              getEnv("DB_HOST", "localhost"),
		DBPort:              getEnv("DB_PORT", "5432"),
		DBUser:              getEnv("DB_USER", "postgres"),
		DBPassword:          getEnv("DB_PASSWORD", "password"),
		DBName:              getEnv("DB_NAME", "account_transfers"),
		ServerPort:          getEnv("SERVER_PORT", "8080"),
		TransferLockTimeout: getDurationEnv("TRANSFER_LOCK_TIMEOUT", 5*time.Second),
	}
}

// GetDBConnectionString builds a lib/pq connection string.
func (c *Config) GetDBConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
