package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const testBcryptHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

func validConfig() *Config {
	return &Config{
		Port:              "8080",
		DBPath:            "./data/test.db",
		AdminPasswordHash: testBcryptHash,
		JWTSecret:         "test-secret-key-at-least-16-bytes",
		TokenDuration:     12 * time.Hour,
	}
}

func TestLoad(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		for _, key := range []string{"PORT", "DB_PATH", "TOKEN_DURATION", "ADMIN_PASSWORD_HASH", "JWT_SECRET", "GEMINI_API_KEY"} {
			t.Setenv(key, "")
		}

		cfg := Load()
		if cfg.Port != "8080" {
			t.Errorf("Expected default port 8080, got %s", cfg.Port)
		}
		if cfg.DBPath != "./data/tripledger.db" {
			t.Errorf("Unexpected default db path: %s", cfg.DBPath)
		}
		if cfg.TokenDuration != 12*time.Hour {
			t.Errorf("Expected default token duration 12h, got %v", cfg.TokenDuration)
		}
	})

	t.Run("Environment overrides", func(t *testing.T) {
		t.Setenv("PORT", "9999")
		t.Setenv("TOKEN_DURATION", "30m")
		t.Setenv("GEMINI_API_KEY", "g-key")

		cfg := Load()
		if cfg.Port != "9999" {
			t.Errorf("Expected port 9999, got %s", cfg.Port)
		}
		if cfg.TokenDuration != 30*time.Minute {
			t.Errorf("Expected 30m token duration, got %v", cfg.TokenDuration)
		}
		if cfg.GeminiAPIKey != "g-key" {
			t.Errorf("Expected gemini key, got %s", cfg.GeminiAPIKey)
		}
	})
}

func TestValidate(t *testing.T) {
	t.Run("Valid config passes", func(t *testing.T) {
		if err := validConfig().Validate(); err != nil {
			t.Errorf("Expected valid config, got %v", err)
		}
	})

	t.Run("Bad port", func(t *testing.T) {
		cfg := validConfig()
		cfg.Port = "not-a-port"
		if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "invalid port") {
			t.Errorf("Expected port error, got %v", err)
		}

		cfg.Port = "70000"
		if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "invalid port") {
			t.Errorf("Expected port range error, got %v", err)
		}
	})

	t.Run("Admin hash required", func(t *testing.T) {
		cfg := validConfig()
		cfg.AdminPasswordHash = ""
		if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "admin password hash is required") {
			t.Errorf("Expected missing hash error, got %v", err)
		}
	})

	t.Run("Admin hash must be bcrypt", func(t *testing.T) {
		cfg := validConfig()
		cfg.AdminPasswordHash = "admin123"
		if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "bcrypt") {
			t.Errorf("Expected bcrypt error, got %v", err)
		}
	})

	t.Run("Secret file resolution", func(t *testing.T) {
		dir := t.TempDir()
		hashFile := filepath.Join(dir, "admin_hash")
		if err := os.WriteFile(hashFile, []byte(testBcryptHash+"\n"), 0600); err != nil {
			t.Fatalf("Failed to write secret file: %v", err)
		}

		cfg := validConfig()
		cfg.AdminPasswordHash = ""
		cfg.AdminPasswordHashFile = hashFile
		if err := cfg.Validate(); err != nil {
			t.Fatalf("Expected file-based hash to validate, got %v", err)
		}
		if cfg.AdminPasswordHash != testBcryptHash {
			t.Errorf("Secret file not resolved and trimmed: %q", cfg.AdminPasswordHash)
		}
	})

	t.Run("Missing secret file", func(t *testing.T) {
		cfg := validConfig()
		cfg.AdminPasswordHashFile = "/nonexistent/secret"
		if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "cannot read admin password hash file") {
			t.Errorf("Expected file error, got %v", err)
		}
	})

	t.Run("Short JWT secret", func(t *testing.T) {
		cfg := validConfig()
		cfg.JWTSecret = "short"
		if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "JWT secret") {
			t.Errorf("Expected JWT secret error, got %v", err)
		}
	})

	t.Run("Token duration bounds", func(t *testing.T) {
		cfg := validConfig()
		cfg.TokenDuration = 10 * time.Second
		if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "token duration") {
			t.Errorf("Expected duration error, got %v", err)
		}

		cfg.TokenDuration = 30 * 24 * time.Hour
		if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "token duration") {
			t.Errorf("Expected duration error, got %v", err)
		}
	})

	t.Run("Multiple problems joined", func(t *testing.T) {
		cfg := &Config{}
		err := cfg.Validate()
		if err == nil {
			t.Fatal("Expected validation failure")
		}
		if !strings.Contains(err.Error(), "\n- ") {
			t.Errorf("Expected joined error list, got %v", err)
		}
	})
}
