package config

import (
	"testing"
	"time"
)

func setMinimalEnv(t *testing.T) {
	t.Helper()
	t.Setenv("AURELIA_APP_ENV", "dev")
	t.Setenv("AURELIA_BACKEND_BASE_URL", "https://backend.internal")
}

func TestLoadDefaults(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.App.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.App.Port)
	}
	if !cfg.App.IsDev() {
		t.Error("expected dev environment")
	}
	if cfg.Backend.RequestTimeout != 10*time.Second {
		t.Errorf("expected default request timeout 10s, got %s", cfg.Backend.RequestTimeout)
	}
	if cfg.Backend.RetryAttempts != 3 {
		t.Errorf("expected 3 retry attempts, got %d", cfg.Backend.RetryAttempts)
	}
	if cfg.Checkout.FallbackCountry != "US" || cfg.Checkout.DefaultCurrency != "USD" {
		t.Errorf("unexpected checkout defaults %+v", cfg.Checkout)
	}
	if cfg.Geo.CacheTTL != 12*time.Hour {
		t.Errorf("expected default geo cache ttl 12h, got %s", cfg.Geo.CacheTTL)
	}
	if cfg.Redis.Enabled() {
		t.Error("redis must be disabled when no endpoint is configured")
	}
	if len(cfg.CORS.AllowedOrigins) != 1 || cfg.CORS.AllowedOrigins[0] != "http://localhost:3000" {
		t.Errorf("unexpected cors defaults %v", cfg.CORS.AllowedOrigins)
	}
}

func TestLoadMissingBackendURL(t *testing.T) {
	t.Setenv("AURELIA_APP_ENV", "dev")
	t.Setenv("AURELIA_BACKEND_BASE_URL", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing backend base url")
	}
}

func TestLoadRelativeBackendURL(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv("AURELIA_BACKEND_BASE_URL", "backend.internal/api")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for a non-absolute backend url")
	}
}

func TestLoadBadFallbackCountry(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv("AURELIA_CHECKOUT_FALLBACK_COUNTRY", "USA")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for a three-letter fallback country")
	}
}

func TestNormalizedFallbackCountry(t *testing.T) {
	t.Parallel()

	c := CheckoutConfig{FallbackCountry: " us "}
	if got := c.NormalizedFallbackCountry(); got != "US" {
		t.Fatalf("expected US, got %q", got)
	}
}

func TestRedisEnabled(t *testing.T) {
	t.Parallel()

	if (RedisConfig{}).Enabled() {
		t.Error("empty config must not report enabled")
	}
	if !(RedisConfig{Address: "localhost:6379"}).Enabled() {
		t.Error("address alone should enable redis")
	}
	if !(RedisConfig{URL: "redis://localhost:6379/0"}).Enabled() {
		t.Error("url alone should enable redis")
	}
}
