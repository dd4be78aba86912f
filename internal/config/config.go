// Package config assembles process configuration from the environment. All
// credentials arrive here: nothing elsewhere in the tree carries a literal
// secret.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the explicit configuration struct injected at process start.
type Config struct {
	// HTTP server
	Port string

	// Database
	DBPath string

	// Admin gate. The credential is a bcrypt hash, supplied directly or via
	// a secret file (e.g. a mounted secret volume). Never a literal in code.
	AdminPasswordHash     string
	AdminPasswordHashFile string

	// Admin session tokens
	JWTSecret     string
	JWTSecretFile string
	TokenDuration time.Duration

	// Receipt scanning (optional; empty disables the feature)
	GeminiAPIKey string
}

// Load reads configuration from the environment, after loading a local .env
// file if one exists.
func Load() *Config {
	// Missing .env is the normal case in production
	_ = godotenv.Load()

	return &Config{
		Port:   getEnv("PORT", "8080"),
		DBPath: getEnv("DB_PATH", "./data/tripledger.db"),

		AdminPasswordHash:     getEnv("ADMIN_PASSWORD_HASH", ""),
		AdminPasswordHashFile: getEnv("ADMIN_PASSWORD_HASH_FILE", ""),

		JWTSecret:     getEnv("JWT_SECRET", ""),
		JWTSecretFile: getEnv("JWT_SECRET_FILE", ""),
		TokenDuration: getEnvDuration("TOKEN_DURATION", 12*time.Hour),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
	}
}

// Validate checks the configuration and resolves file-based secrets.
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.DBPath == "" {
		errs = append(errs, "database path cannot be empty")
	}

	if c.AdminPasswordHashFile != "" {
		hash, err := readSecretFile(c.AdminPasswordHashFile)
		if err != nil {
			errs = append(errs, fmt.Sprintf("cannot read admin password hash file: %v", err))
		} else {
			c.AdminPasswordHash = hash
		}
	}
	if c.AdminPasswordHash == "" {
		errs = append(errs, "admin password hash is required: set ADMIN_PASSWORD_HASH or ADMIN_PASSWORD_HASH_FILE")
	} else if !strings.HasPrefix(c.AdminPasswordHash, "$2") {
		errs = append(errs, "admin password hash must be a bcrypt hash")
	}

	if c.JWTSecretFile != "" {
		secret, err := readSecretFile(c.JWTSecretFile)
		if err != nil {
			errs = append(errs, fmt.Sprintf("cannot read JWT secret file: %v", err))
		} else {
			c.JWTSecret = secret
		}
	}
	if len(c.JWTSecret) < 16 {
		errs = append(errs, "JWT secret is required and must be at least 16 bytes")
	}

	if c.TokenDuration < time.Minute {
		errs = append(errs, fmt.Sprintf("invalid token duration %v: must be at least 1 minute", c.TokenDuration))
	} else if c.TokenDuration > 7*24*time.Hour {
		errs = append(errs, fmt.Sprintf("invalid token duration %v: must be at most 7 days", c.TokenDuration))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}

	return nil
}

func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
