package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/screepskit/screepskit/internal/core/client"
)

// Environment variables read by ClientConfigFromEnv.
const (
	EnvToken    = "SCREEPS_TOKEN"
	EnvEmail    = "SCREEPS_EMAIL"
	EnvPassword = "SCREEPS_PASSWORD"
	EnvHost     = "SCREEPS_HOST"
	EnvSecure   = "SCREEPS_SECURE"
	EnvTimeout  = "SCREEPS_TIMEOUT"
)

// ErrNoCredentials is returned when the environment carries neither a token
// nor an email/password pair.
var ErrNoCredentials = errors.New("no credentials found in environment: set SCREEPS_TOKEN or SCREEPS_EMAIL/SCREEPS_PASSWORD")

// LoadDotEnv loads variables from the given files (default ".env") without
// overriding variables already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if _, err := os.Stat(file); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("stat %s: %w", file, err)
		}
		if err := godotenv.Load(file); err != nil {
			return fmt.Errorf("load %s: %w", file, err)
		}
	}
	return nil
}

// ClientConfigFromEnv builds a client configuration from SCREEPS_* variables
// after loading an optional .env file. Credentials are considered present when
// SCREEPS_EMAIL or SCREEPS_PASSWORD is set, or SCREEPS_TOKEN is non-empty.
// SCREEPS_TIMEOUT accepts whole seconds or a Go duration string.
func ClientConfigFromEnv() (client.Config, error) {
	if err := LoadDotEnv(); err != nil {
		return client.Config{}, err
	}

	cfg := client.DefaultConfig()
	token := strings.TrimSpace(os.Getenv(EnvToken))
	email, hasEmail := os.LookupEnv(EnvEmail)
	password, hasPassword := os.LookupEnv(EnvPassword)
	if token == "" && !hasEmail && !hasPassword {
		return client.Config{}, ErrNoCredentials
	}
	cfg.Token = token
	cfg.Email = email
	cfg.Password = password

	if host := strings.TrimSpace(os.Getenv(EnvHost)); host != "" {
		cfg.Host = host
	}
	if raw := strings.TrimSpace(os.Getenv(EnvSecure)); raw != "" {
		secure, err := strconv.ParseBool(raw)
		if err != nil {
			return client.Config{}, fmt.Errorf("invalid %s: %w", EnvSecure, err)
		}
		cfg.Secure = secure
	}
	if raw := strings.TrimSpace(os.Getenv(EnvTimeout)); raw != "" {
		timeout, err := ParseTimeout(raw)
		if err != nil {
			return client.Config{}, fmt.Errorf("invalid %s: %w", EnvTimeout, err)
		}
		cfg.Timeout = timeout
	}
	return cfg, nil
}

// ParseTimeout accepts whole seconds ("10") or a Go duration ("1m30s").
func ParseTimeout(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if seconds, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if seconds <= 0 {
			return 0, fmt.Errorf("timeout must be positive: %q", raw)
		}
		return time.Duration(seconds) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("timeout must be positive: %q", raw)
	}
	return d, nil
}
