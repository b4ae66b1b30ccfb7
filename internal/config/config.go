package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/dig"

	"github.com/davidbz/creditmeter/internal/cache/redis"
	"github.com/davidbz/creditmeter/internal/observability"
	"github.com/davidbz/creditmeter/internal/provider/openai"
	"github.com/davidbz/creditmeter/internal/storage/postgres"
)

// Storage drivers accepted by BILLING_STORAGE_DRIVER.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Config represents the billing service configuration.
type Config struct {
	Server   ServerConfig
	CORS     CORSConfig
	Auth     AuthConfig
	Billing  BillingConfig
	Postgres postgres.Config
	Redis    redis.Config
	Tracing  observability.TracingConfig
	OpenAI   openai.Config
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port         int `env:"SERVER_PORT"          envDefault:"8080"`
	ReadTimeout  int `env:"SERVER_READ_TIMEOUT"  envDefault:"30"`
	WriteTimeout int `env:"SERVER_WRITE_TIMEOUT" envDefault:"30"`
}

// CORSConfig contains CORS policy settings.
type CORSConfig struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS"   envSeparator:"," envDefault:"*"`
	AllowedMethods   []string `env:"CORS_ALLOWED_METHODS"   envSeparator:"," envDefault:"GET,POST,PUT,DELETE,OPTIONS"`
	AllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS"   envSeparator:"," envDefault:"Content-Type,Authorization"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS"                  envDefault:"true"`
	MaxAge           int      `env:"CORS_MAX_AGE"                            envDefault:"86400"`
}

// AuthConfig names the headers through which the identity proxy asserts
// the authenticated principal.
type AuthConfig struct {
	UserHeader   string `env:"AUTH_USER_HEADER"   envDefault:"X-Auth-User-Id"`
	ScopesHeader string `env:"AUTH_SCOPES_HEADER" envDefault:"X-Auth-Scopes"`
}

// BillingConfig contains pricing, rounding and ledger write settings.
type BillingConfig struct {
	StorageDriver         string        `env:"BILLING_STORAGE_DRIVER"          envDefault:"memory"`
	PricingFile           string        `env:"BILLING_PRICING_FILE"`
	DefaultIncrement      string        `env:"BILLING_DEFAULT_INCREMENT"       envDefault:"0.01"`
	MarginFailClosed      bool          `env:"BILLING_MARGIN_FAIL_CLOSED"      envDefault:"false"`
	WriteTimeout          time.Duration `env:"BILLING_WRITE_TIMEOUT"           envDefault:"5s"`
	WriteRetries          uint          `env:"BILLING_WRITE_RETRIES"           envDefault:"4"`
	WriteRetryDelay       time.Duration `env:"BILLING_WRITE_RETRY_DELAY"       envDefault:"20ms"`
	PolicyRefreshInterval time.Duration `env:"BILLING_POLICY_REFRESH_INTERVAL" envDefault:"30s"`
}

// DepConfig is used for dependency injection with dig.
type DepConfig struct {
	dig.Out
	*ServerConfig
	*CORSConfig
	*AuthConfig
	*BillingConfig
	*observability.TracingConfig

	Postgres *postgres.Config
	Redis    *redis.Config
	OpenAI   *openai.Config
}

// Load loads environment files and parses configuration.
func Load() *Config {
	for _, file := range []string{".env"} {
		_ = godotenv.Load(file)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		panic(err)
	}

	return &cfg
}

// ParseDependenciesConfig returns pointers to sub-configs for dependency injection.
func ParseDependenciesConfig(cfg *Config) DepConfig {
	return DepConfig{
		dig.Out{},
		&cfg.Server,
		&cfg.CORS,
		&cfg.Auth,
		&cfg.Billing,
		&cfg.Tracing,
		&cfg.Postgres,
		&cfg.Redis,
		&cfg.OpenAI,
	}
}
