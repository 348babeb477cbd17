package config

import (
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.CredentialStore != "file" {
		t.Errorf("expected default credential store 'file', got %s", cfg.CredentialStore)
	}
	if cfg.DataDir != "./data" {
		t.Errorf("expected default data dir ./data, got %s", cfg.DataDir)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CREDENTIAL_STORE", "redis")
	t.Setenv("REDIS_ADDRESS", "redis:6380")
	t.Setenv("DATA_DIR", "/var/lib/gateway")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Port)
	}
	if cfg.CredentialStore != "redis" {
		t.Errorf("expected redis store, got %s", cfg.CredentialStore)
	}
	if cfg.RedisAddress != "redis:6380" {
		t.Errorf("expected redis:6380, got %s", cfg.RedisAddress)
	}
	if cfg.DatabasePath != filepath.Join("/var/lib/gateway", "gateway.db") {
		t.Errorf("expected database path under DATA_DIR, got %s", cfg.DatabasePath)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		expectErr bool
	}{
		{"defaults are valid", func(c *Config) {}, false},
		{"invalid port", func(c *Config) { c.Port = "not-a-port" }, true},
		{"port out of range", func(c *Config) { c.Port = "70000" }, true},
		{"unknown store", func(c *Config) { c.CredentialStore = "dynamo" }, true},
		{"redis store without address", func(c *Config) {
			c.CredentialStore = "redis"
			c.RedisAddress = ""
		}, true},
		{"redis store with bad db", func(c *Config) {
			c.CredentialStore = "redis"
			c.RedisDB = "99"
		}, true},
		{"sqlite store without path", func(c *Config) {
			c.CredentialStore = "sqlite"
			c.DatabasePath = ""
		}, true},
		{"sqlite store with path", func(c *Config) {
			c.CredentialStore = "sqlite"
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Load()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.expectErr && err == nil {
				t.Error("expected validation error, got nil")
			}
			if !tt.expectErr && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestConfig_LogFilePath(t *testing.T) {
	cfg := &Config{DataDir: "/data", LogFile: "gateway.log"}
	if got := cfg.LogFilePath(); got != filepath.Join("/data", "gateway.log") {
		t.Errorf("unexpected log file path: %s", got)
	}

	cfg.LogFile = ""
	if got := cfg.LogFilePath(); got != "" {
		t.Errorf("expected empty path when file logging disabled, got %s", got)
	}
}
