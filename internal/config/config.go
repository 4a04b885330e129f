// Package config provides configuration for the clipboard service.
package config

import (
	"os"
	"strconv"
)

// Allocator modes. The shared mode coordinates ids through the store; the
// local mode hands out sequential ids from a process-local counter with no
// reservation and is only suitable for single-user deployments.
const (
	AllocatorShared = "shared"
	AllocatorLocal  = "local"
)

// Config holds the clipboard service configuration.
type Config struct {
	// Server settings
	HTTPPort int

	// Database
	DatabaseURL string

	// Id allocation
	AllocatorMode string

	// Logging
	LogLevel  string
	LogPretty bool
}

// Load loads configuration from environment variables.
func Load() *Config {
	cfg := &Config{
		HTTPPort:      getEnvInt("HTTP_PORT", 8080),
		DatabaseURL:   getEnv("DATABASE_URL", "file:copas.db?cache=shared&mode=rwc"),
		AllocatorMode: getEnv("ALLOCATOR_MODE", AllocatorShared),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogPretty:     getEnvBool("LOG_PRETTY", false),
	}
	return cfg
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if boolVal, err := strconv.ParseBool(val); err == nil {
			return boolVal
		}
	}
	return defaultVal
}
