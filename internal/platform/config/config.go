package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"donationpool/pkg/domain"
	pstrings "donationpool/pkg/platform/strings"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// Config is the server configuration, read from DONATIONPOOL_* variables.
type Config struct {
	Addr            string        `env:"ADDR" envDefault:":8080"`
	AdminAddress    string        `env:"ADMIN_ADDRESS"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`

	JWT      JWTConfig
	Store    string `env:"STORE" envDefault:"memory"`
	Redis    RedisConfig
	Postgres PostgresConfig
	Events   EventsConfig
}

type JWTConfig struct {
	SigningKey string        `env:"JWT_SIGNING_KEY" envDefault:"dev-secret-key-change-in-production"`
	Issuer     string        `env:"JWT_ISSUER" envDefault:"donationpool"`
	Audience   string        `env:"JWT_AUDIENCE" envDefault:"donationpool-api"`
	TTL        time.Duration `env:"JWT_TTL" envDefault:"1h"`
}

type RedisConfig struct {
	URL          string        `env:"REDIS_URL"`
	KeyPrefix    string        `env:"REDIS_KEY_PREFIX" envDefault:"donationpool"`
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

type PostgresConfig struct {
	DSN             string        `env:"POSTGRES_DSN"`
	MaxOpenConns    int           `env:"POSTGRES_MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns    int           `env:"POSTGRES_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"POSTGRES_CONN_MAX_LIFETIME" envDefault:"30m"`
	TxTimeout       time.Duration `env:"POSTGRES_TX_TIMEOUT" envDefault:"5s"`
}

type EventsConfig struct {
	BufferSize       int      `env:"EVENT_BUFFER_SIZE" envDefault:"256"`
	FeedSize         int      `env:"EVENT_FEED_SIZE" envDefault:"1000"`
	KafkaBrokers     []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic       string   `env:"KAFKA_TOPIC" envDefault:"donationpool.events"`
	KafkaPartitions  int32    `env:"KAFKA_PARTITIONS" envDefault:"3"`
	KafkaReplication int16    `env:"KAFKA_REPLICATION" envDefault:"1"`
}

// Load parses the environment and validates the result.
func Load() (*Config, error) {
	return parse(env.Options{Prefix: "DONATIONPOOL_"})
}

func parse(opts env.Options) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects unknown backends, missing backend settings and a
// malformed admin address.
func (c *Config) Validate() error {
	c.Store = strings.ToLower(strings.TrimSpace(c.Store))
	switch c.Store {
	case StoreMemory:
	case StoreRedis:
		if c.Redis.URL == "" {
			return fmt.Errorf("config: DONATIONPOOL_REDIS_URL is required for the redis store")
		}
	case StorePostgres:
		if c.Postgres.DSN == "" {
			return fmt.Errorf("config: DONATIONPOOL_POSTGRES_DSN is required for the postgres store")
		}
	default:
		return fmt.Errorf("config: unknown store %q (want memory, redis or postgres)", c.Store)
	}
	c.Events.KafkaBrokers = pstrings.DedupeAndTrim(c.Events.KafkaBrokers)
	if c.AdminAddress != "" {
		if _, err := domain.ParseAddress(c.AdminAddress); err != nil {
			return fmt.Errorf("config: admin address: %w", err)
		}
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// Admin returns the configured administrator, if any.
func (c *Config) Admin() (domain.Address, bool) {
	if c.AdminAddress == "" {
		return domain.ZeroAddress, false
	}
	admin, err := domain.ParseAddress(c.AdminAddress)
	if err != nil {
		return domain.ZeroAddress, false
	}
	return admin, true
}

func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("config: log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}
