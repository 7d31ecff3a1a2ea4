package config

import (
	"testing"
	"time"
)

func TestEnvStrFallback(t *testing.T) {
	// TEST_STR_MISSING is not set.
	if v := envStr("TEST_STR_MISSING", "fallback"); v != "fallback" {
		t.Fatalf("expected fallback, got %q", v)
	}
}

func TestEnvIntValid(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	if v := envInt("TEST_INT", 0); v != 42 {
		t.Fatalf("expected 42, got %d", v)
	}
}

func TestEnvIntInvalidFallsBack(t *testing.T) {
	t.Setenv("TEST_INT_BAD", "abc")
	if v := envInt("TEST_INT_BAD", 7); v != 7 {
		t.Fatalf("expected fallback 7, got %d", v)
	}
}

func TestEnvDurationValid(t *testing.T) {
	t.Setenv("TEST_DUR", "5s")
	if v := envDuration("TEST_DUR", 0); v != 5*time.Second {
		t.Fatalf("expected 5s, got %s", v)
	}
}

func TestEnvDurationInvalidFallsBack(t *testing.T) {
	t.Setenv("TEST_DUR_BAD", "five-seconds")
	if v := envDuration("TEST_DUR_BAD", time.Minute); v != time.Minute {
		t.Fatalf("expected fallback 1m, got %s", v)
	}
}

func TestLoadSucceedsWithDefaults(t *testing.T) {
	t.Setenv("ECOSIGHT_PASSWORD", "hunter2")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected Load() to succeed, got: %v", err)
	}
	if cfg.Port != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.Port)
	}
	if cfg.ProcessCooldown != 10*time.Minute {
		t.Fatalf("expected default cooldown 10m, got %s", cfg.ProcessCooldown)
	}
}

func TestLoadFailsWithoutPassword(t *testing.T) {
	t.Setenv("ECOSIGHT_PASSWORD", "")
	t.Setenv("ECOSIGHT_PASSWORD_HASH", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected Load() to fail with no password configured")
	}
}

func TestValidateRejectsEmptyDBPath(t *testing.T) {
	cfg := Config{
		DBPath:              "",
		Password:            "x",
		ProcessCooldown:     time.Minute,
		MaxRequestBodyBytes: 1,
		MaxPageSize:         1,
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected Validate() to reject empty DBPath")
	}
}
