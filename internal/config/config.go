package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Remote finance API
	APIBaseURL string
	// RequestTimeout of zero means no client-side timeout; the transport
	// waits as long as the server does.
	RequestTimeout time.Duration

	// Durable local slot
	SlotDBPath string

	// Notifications
	NotifyTTL time.Duration

	// Logging
	LogLevel string
}

func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "3000"),
		APIBaseURL:     getEnv("API_BASE_URL", "http://localhost:3001/api"),
		RequestTimeout: getEnvDuration("API_REQUEST_TIMEOUT", 0),
		SlotDBPath:     getEnv("SLOT_DB_PATH", "./data/contas.db"),
		NotifyTTL:      getEnvDuration("NOTIFY_TTL", 4*time.Second),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate API base URL
	if parsed, err := url.Parse(c.APIBaseURL); err != nil {
		errors = append(errors, fmt.Sprintf("invalid API base URL '%s': %v", c.APIBaseURL, err))
	} else if parsed.Scheme != "http" && parsed.Scheme != "https" {
		errors = append(errors, fmt.Sprintf("invalid API base URL scheme '%s': must be 'http' or 'https'", parsed.Scheme))
	}

	if c.RequestTimeout < 0 {
		errors = append(errors, fmt.Sprintf("invalid request timeout %v: cannot be negative", c.RequestTimeout))
	}

	// Validate slot database path
	if c.SlotDBPath == "" {
		errors = append(errors, "slot database path cannot be empty")
	} else {
		dir := filepath.Dir(c.SlotDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create slot database directory '%s': %v", dir, err))
				}
			}
		}
	}

	// The notification auto-dismiss window is fixed at a few seconds.
	if c.NotifyTTL < 3*time.Second || c.NotifyTTL > 5*time.Second {
		errors = append(errors, fmt.Sprintf("invalid notify TTL %v: must be between 3s and 5s", c.NotifyTTL))
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of [debug info warn error]", c.LogLevel))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
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
