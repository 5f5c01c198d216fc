package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is applied by envconfig to unannotated fields.
const EnvPrefix = "AURELIA"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App      AppConfig
	Backend  BackendConfig
	Checkout CheckoutConfig
	Geo      GeoConfig
	Redis    RedisConfig
	CORS     CORSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Backend.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Checkout.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"AURELIA_APP_ENV" required:"true"`
	Port         string `envconfig:"AURELIA_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"AURELIA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"AURELIA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// BackendConfig points at the commerce backend consumed by this service.
type BackendConfig struct {
	BaseURL        string        `envconfig:"AURELIA_BACKEND_BASE_URL" required:"true"`
	RequestTimeout time.Duration `envconfig:"AURELIA_BACKEND_REQUEST_TIMEOUT" default:"10s"`
	RetryAttempts  int           `envconfig:"AURELIA_BACKEND_RETRY_ATTEMPTS" default:"3"`
	RetryBaseDelay time.Duration `envconfig:"AURELIA_BACKEND_RETRY_BASE_DELAY" default:"200ms"`
}

func (b BackendConfig) validate() error {
	parsed, err := url.Parse(b.BaseURL)
	if err != nil {
		return fmt.Errorf("parsing backend base url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("backend base url must be absolute, got %q", b.BaseURL)
	}
	if b.RequestTimeout <= 0 {
		return fmt.Errorf("backend request timeout must be positive")
	}
	return nil
}

// CheckoutConfig carries checkout and shipping estimation defaults.
type CheckoutConfig struct {
	FallbackCountry string  `envconfig:"AURELIA_CHECKOUT_FALLBACK_COUNTRY" default:"US"`
	DefaultCurrency string  `envconfig:"AURELIA_CHECKOUT_DEFAULT_CURRENCY" default:"USD"`
	PreferredSpeed  string  `envconfig:"AURELIA_CHECKOUT_PREFERRED_SPEED" default:"fastest"`
	MarkupPercent   float64 `envconfig:"AURELIA_CHECKOUT_MARKUP_PERCENT" default:"0"`
}

func (c CheckoutConfig) validate() error {
	if len(strings.TrimSpace(c.FallbackCountry)) != 2 {
		return fmt.Errorf("fallback country must be a two-letter code, got %q", c.FallbackCountry)
	}
	if len(strings.TrimSpace(c.DefaultCurrency)) != 3 {
		return fmt.Errorf("default currency must be a three-letter code, got %q", c.DefaultCurrency)
	}
	if c.MarkupPercent < 0 {
		return fmt.Errorf("markup percent cannot be negative")
	}
	return nil
}

// NormalizedFallbackCountry returns the fallback country uppercased.
func (c CheckoutConfig) NormalizedFallbackCountry() string {
	return strings.ToUpper(strings.TrimSpace(c.FallbackCountry))
}

// GeoConfig tunes the IP geolocation cache.
type GeoConfig struct {
	CacheTTL time.Duration `envconfig:"AURELIA_GEO_CACHE_TTL" default:"12h"`
}

type RedisConfig struct {
	URL          string        `envconfig:"AURELIA_REDIS_URL"`
	Address      string        `envconfig:"AURELIA_REDIS_ADDR"`
	Password     string        `envconfig:"AURELIA_REDIS_PASSWORD"`
	DB           int           `envconfig:"AURELIA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"AURELIA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"AURELIA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"AURELIA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"AURELIA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"AURELIA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a redis endpoint was configured at all.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"AURELIA_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}
