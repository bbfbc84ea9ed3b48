package config

import (
	"log/slog"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() with defaults failed: %v", err)
	}

	if cfg.Port != "8000" {
		t.Errorf("Expected default port 8000, got %s", cfg.Port)
	}
	if cfg.Address != "127.0.0.1" {
		t.Errorf("Expected default address 127.0.0.1, got %s", cfg.Address)
	}
	if cfg.DataDir != "dataset" {
		t.Errorf("Expected default data dir, got %s", cfg.DataDir)
	}
	if cfg.StateDir != "state" {
		t.Errorf("Expected default state dir, got %s", cfg.StateDir)
	}
	if cfg.StorageBackend != StorageFile {
		t.Errorf("Expected default storage backend %s, got %s", StorageFile, cfg.StorageBackend)
	}
	if cfg.MatchCacheSize != 200 {
		t.Errorf("Expected default match cache size 200, got %d", cfg.MatchCacheSize)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORAGE_BACKEND", "SQLite")
	t.Setenv("MATCH_CACHE_SIZE", "500")
	t.Setenv("SIGNING_KEY", "secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("Expected port 9090, got %s", cfg.Port)
	}
	if cfg.StorageBackend != StorageSQLite {
		t.Errorf("Expected storage backend normalized to sqlite, got %s", cfg.StorageBackend)
	}
	if cfg.MatchCacheSize != 500 {
		t.Errorf("Expected match cache size 500, got %d", cfg.MatchCacheSize)
	}
	if cfg.SigningKey != "secret" {
		t.Errorf("Expected signing key from environment, got %s", cfg.SigningKey)
	}
}

func TestValidatePort(t *testing.T) {
	tests := []struct {
		name    string
		port    string
		wantErr bool
	}{
		{"valid port", "8000", false},
		{"empty port", "", true},
		{"not a number", "abc", true},
		{"privileged port", "80", true},
		{"too large", "70000", true},
		{"upper bound", "65535", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validatePort(tt.port)
			if (err != nil) != tt.wantErr {
				t.Errorf("validatePort(%q) error = %v, wantErr %v", tt.port, err, tt.wantErr)
			}
		})
	}
}

func TestValidateAddress(t *testing.T) {
	tests := []struct {
		name    string
		address string
		wantErr bool
	}{
		{"loopback", "127.0.0.1", false},
		{"localhost", "localhost", false},
		{"unspecified", "0.0.0.0", false},
		{"private", "192.168.1.10", false},
		{"public", "8.8.8.8", true},
		{"garbage", "not-an-ip", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateAddress(tt.address)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateAddress(%q) error = %v, wantErr %v", tt.address, err, tt.wantErr)
			}
		})
	}
}

func TestValidateStorageBackend(t *testing.T) {
	if err := validateStorageBackend(StorageFile); err != nil {
		t.Errorf("file backend rejected: %v", err)
	}
	if err := validateStorageBackend(StorageSQLite); err != nil {
		t.Errorf("sqlite backend rejected: %v", err)
	}
	if err := validateStorageBackend("redis"); err == nil {
		t.Error("Expected unknown backend to be rejected")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad port", "PORT", "99999"},
		{"bad env", "ENV", "production-ish"},
		{"bad log level", "LOG_LEVEL", "verbose"},
		{"bad storage backend", "STORAGE_BACKEND", "redis"},
		{"zero retention", "LOG_RETENTION_WEEKS", "0"},
		{"zero cache size", "MATCH_CACHE_SIZE", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("Expected Load() to reject %s=%s", tt.key, tt.value)
			}
		})
	}
}

func TestLogLevelValue(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"WARN", slog.LevelWarn},
		{"unknown", slog.LevelInfo},
	}

	for _, tt := range tests {
		cfg := &Config{LogLevel: tt.level}
		if got := cfg.LogLevelValue(); got != tt.want {
			t.Errorf("LogLevelValue(%q) = %v, want %v", tt.level, got, tt.want)
		}
	}
}
