// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Server settings.
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Database settings.
	DBPath      string // Path to the read-only site database file.
	BusyTimeout time.Duration

	// Processing API settings.
	ProcessAPIBase  string // e.g. "http://processor:8001"
	ProcessAPIToken string
	ProcessTimeout  time.Duration // Per-request timeout; expiry means queued, not failed.
	ProcessCooldown time.Duration // One site at a time within this window.

	// Results viewer.
	ResultsBaseURL string // Prefix for outbound links to the results viewer.

	// Auth settings.
	PasswordHash      string // argon2id hash of the viewer password.
	Password          string // Plaintext fallback, hashed at startup when no hash is set.
	JWTPrivateKeyPath string // Path to Ed25519 private key PEM file.
	JWTPublicKeyPath  string // Path to Ed25519 public key PEM file.
	JWTExpiration     time.Duration

	// OTEL settings.
	OTELEndpoint string
	OTELInsecure bool
	ServiceName  string

	// Rate limiting.
	RateLimitRPS   int
	RateLimitBurst int

	// Operational settings.
	LogLevel            string
	MaxRequestBodyBytes int64
	MaxPageSize         int // Upper bound for per-request row limits.
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (Config, error) {
	cfg := Config{
		Port:                envInt("ECOSIGHT_PORT", 8080),
		ReadTimeout:         envDuration("ECOSIGHT_READ_TIMEOUT", 30*time.Second),
		WriteTimeout:        envDuration("ECOSIGHT_WRITE_TIMEOUT", 60*time.Second),
		DBPath:              envStr("ECO_DB_PATH", "data/ecology_sites.db"),
		BusyTimeout:         envDuration("ECOSIGHT_DB_BUSY_TIMEOUT", 5*time.Second),
		ProcessAPIBase:      envStr("PROCESS_API_BASE", "http://localhost:8001"),
		ProcessAPIToken:     envStr("PROCESS_API_TOKEN", ""),
		ProcessTimeout:      envDuration("ECOSIGHT_PROCESS_TIMEOUT", 5*time.Second),
		ProcessCooldown:     envDuration("ECOSIGHT_PROCESS_COOLDOWN", 10*time.Minute),
		ResultsBaseURL:      envStr("RESULTS_BASE_URL", "http://localhost:8501"),
		PasswordHash:        envStr("ECOSIGHT_PASSWORD_HASH", ""),
		Password:            envStr("ECOSIGHT_PASSWORD", ""),
		JWTPrivateKeyPath:   envStr("ECOSIGHT_JWT_PRIVATE_KEY", ""),
		JWTPublicKeyPath:    envStr("ECOSIGHT_JWT_PUBLIC_KEY", ""),
		JWTExpiration:       envDuration("ECOSIGHT_JWT_EXPIRATION", 24*time.Hour),
		OTELEndpoint:        envStr("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTELInsecure:        envStr("OTEL_EXPORTER_OTLP_INSECURE", "") == "true",
		ServiceName:         envStr("OTEL_SERVICE_NAME", "ecosight"),
		RateLimitRPS:        envInt("ECOSIGHT_RATE_LIMIT_RPS", 25),
		RateLimitBurst:      envInt("ECOSIGHT_RATE_LIMIT_BURST", 50),
		LogLevel:            envStr("ECOSIGHT_LOG_LEVEL", "info"),
		MaxRequestBodyBytes: int64(envInt("ECOSIGHT_MAX_REQUEST_BODY_BYTES", 1*1024*1024)), // 1 MB default
		MaxPageSize:         envInt("ECOSIGHT_MAX_PAGE_SIZE", 500),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that required configuration is present.
func (c Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("config: ECO_DB_PATH is required")
	}
	if c.PasswordHash == "" && c.Password == "" {
		return fmt.Errorf("config: ECOSIGHT_PASSWORD or ECOSIGHT_PASSWORD_HASH is required")
	}
	if c.ProcessCooldown <= 0 {
		return fmt.Errorf("config: ECOSIGHT_PROCESS_COOLDOWN must be positive")
	}
	if c.MaxRequestBodyBytes <= 0 {
		return fmt.Errorf("config: ECOSIGHT_MAX_REQUEST_BODY_BYTES must be positive")
	}
	if c.MaxPageSize <= 0 {
		return fmt.Errorf("config: ECOSIGHT_MAX_PAGE_SIZE must be positive")
	}
	return nil
}

func envStr(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
