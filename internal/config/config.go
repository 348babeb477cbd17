// Package config loads bootstrap configuration for the gateway from
// environment variables with sensible defaults.
//
// Bootstrap configuration covers what the process needs before it can serve
// requests: listen port, data directory, credential store backend, and the
// optional encryption key for secrets at rest. Runtime-mutable gateway
// settings (vendor endpoints, poll interval, refresh behavior) live in the
// settings package and are managed through the HTTP API.
//
// Environment Variables:
//
//   - PORT: Server port (default: 8080)
//   - DATA_DIR: Directory for persisted state and logs (default: ./data)
//   - LOG_LEVEL: Logging level (default: info)
//   - LOG_FILE: Log file name inside DATA_DIR (default: gateway.log)
//   - CREDENTIAL_STORE: Credential store backend - "file", "sqlite" or "redis" (default: file)
//   - DATABASE_PATH: SQLite database file path (default: DATA_DIR/gateway.db)
//   - REDIS_ADDRESS: Redis server address (default: localhost:6379)
//   - REDIS_PASSWORD: Redis password
//   - REDIS_DB: Redis database number 0-15 (default: 0)
//   - CREDENTIAL_ENCRYPTION_KEY: Passphrase for encrypting stored secrets (optional)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Config holds bootstrap configuration for the gateway process.
type Config struct {
	Port     string // Server port number
	DataDir  string // Directory for persisted state and logs
	LogLevel string // Logging level (debug, info, warn, error)
	LogFile  string // Log file name inside DataDir; empty disables file logging

	// Credential store configuration
	CredentialStore string // Backend: "file", "sqlite" or "redis"
	DatabasePath    string // SQLite database file path
	RedisAddress    string // Redis server address (host:port)
	RedisPassword   string // Redis authentication password
	RedisDB         string // Redis database number (0-15)

	// Encryption configuration
	EncryptionKey string // Passphrase for encrypting stored secrets; empty disables encryption
}

// Load creates a Config with values from environment variables, falling back
// to defaults. Call Validate before use.
func Load() *Config {
	dataDir := getEnv("DATA_DIR", "./data")

	return &Config{
		Port:     getEnv("PORT", "8080"),
		DataDir:  dataDir,
		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  getEnv("LOG_FILE", "gateway.log"),

		CredentialStore: getEnv("CREDENTIAL_STORE", "file"),
		DatabasePath:    getEnv("DATABASE_PATH", filepath.Join(dataDir, "gateway.db")),
		RedisAddress:    getEnv("REDIS_ADDRESS", "localhost:6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisDB:         getEnv("REDIS_DB", "0"),

		EncryptionKey: getEnv("CREDENTIAL_ENCRYPTION_KEY", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// LogFilePath returns the absolute-ish path of the log file, or empty when
// file logging is disabled.
func (c *Config) LogFilePath() string {
	if c.LogFile == "" {
		return ""
	}
	return filepath.Join(c.DataDir, c.LogFile)
}

// Validate checks that the configuration can safely start the gateway.
func (c *Config) Validate() error {
	if port, err := strconv.Atoi(c.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("PORT must be a valid port number between 1 and 65535")
	}

	switch c.CredentialStore {
	case "file", "sqlite", "redis":
	default:
		return fmt.Errorf("CREDENTIAL_STORE must be 'file', 'sqlite' or 'redis'")
	}

	if c.CredentialStore == "redis" {
		if c.RedisAddress == "" {
			return fmt.Errorf("REDIS_ADDRESS is required when using the redis credential store")
		}
		if db, err := strconv.Atoi(c.RedisDB); err != nil || db < 0 || db > 15 {
			return fmt.Errorf("REDIS_DB must be a number between 0 and 15")
		}
	}

	if c.CredentialStore == "sqlite" && c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required when using the sqlite credential store")
	}

	return nil
}
