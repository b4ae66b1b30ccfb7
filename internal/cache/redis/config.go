package redis

import "time"

// Config contains Redis connection and key settings.
type Config struct {
	Enabled    bool          `env:"REDIS_ENABLED"     envDefault:"false"`
	Addr       string        `env:"REDIS_ADDR"        envDefault:"localhost:6379"`
	Password   string        `env:"REDIS_PASSWORD"`
	DB         int           `env:"REDIS_DB"          envDefault:"0"`
	BalanceTTL time.Duration `env:"REDIS_BALANCE_TTL" envDefault:"30s"`
	KeyPrefix  string        `env:"REDIS_KEY_PREFIX"  envDefault:"creditmeter:"`
	MarginKey  string        `env:"REDIS_MARGIN_KEY"  envDefault:"creditmeter:margins"`
}
