package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	env "github.com/caarlos0/env/v11"
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName  string `env:"APP_NAME" envDefault:"OnlineWallet"`
	AppEnv   string `env:"APP_ENV" envDefault:"development"`
	Port     string `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Ledger backend: Postgres when DatabaseURL is set, otherwise a local
	// write-ahead file when LedgerFile is set, otherwise memory.
	DatabaseURL string `env:"DATABASE_URL"`
	LedgerFile  string `env:"LEDGER_FILE"`
	RedisURL    string `env:"REDIS_URL"`

	// MigrationsDir, when set, is applied to the database at startup.
	MigrationsDir string `env:"MIGRATIONS_DIR"`

	ShutdownPeriod      time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	IdempotencyTTL      time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"24h"`
	IdempotencyRequired bool          `env:"IDEMPOTENCY_REQUIRED" envDefault:"false"`
	RateLimitPerMinute  int           `env:"RATE_LIMIT_PER_MINUTE" envDefault:"120"`
	AppendRetries       int           `env:"WALLET_APPEND_RETRIES" envDefault:"5"`

	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"KAFKA_TOPIC" envDefault:"wallet.entries"`
}

// Load reads configuration values from the environment and populates a Config instance.
func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("config.Load: %w", err)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("config.Load: %w", err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if !c.IsDev() && c.DatabaseURL == "" && c.LedgerFile == "" {
		return errors.New("DATABASE_URL or LEDGER_FILE must be set outside development")
	}
	if c.AppendRetries < 1 {
		return fmt.Errorf("WALLET_APPEND_RETRIES must be at least 1, got %d", c.AppendRetries)
	}
	if c.ShutdownPeriod <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive, got %s", c.ShutdownPeriod)
	}
	return nil
}

// IsDev reports whether the service runs in development mode.
func (c Config) IsDev() bool {
	return strings.EqualFold(c.AppEnv, "development")
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}
