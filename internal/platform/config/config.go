// Package config loads process configuration from the environment so main
// stays lean. Rule configuration lives in its own file; see
// internal/tags/rulesfile.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Server is the full process configuration.
type Server struct {
	Addr      string `env:"TAGD_ADDR" envDefault:":8080"`
	RulesPath string `env:"TAGD_RULES_FILE" envDefault:"tags.yaml"`

	// JWTSigningKey signs and verifies admin bearer tokens. Override in
	// production.
	JWTSigningKey string `env:"TAGD_JWT_SIGNING_KEY" envDefault:"dev-secret-key-change-in-production"`

	// TickInterval paces the scheduler loop everything deferred runs on.
	TickInterval time.Duration `env:"TAGD_TICK_INTERVAL" envDefault:"50ms"`

	// Apply/revalidation tuning; the defaults tolerate a permission backend
	// that loads grants for up to 40s after connect.
	WarmupWindow       time.Duration `env:"TAGD_WARMUP_WINDOW" envDefault:"40s"`
	ApplyRetryDelay    time.Duration `env:"TAGD_APPLY_RETRY_DELAY" envDefault:"200ms"`
	ApplyMaxAttempts   int           `env:"TAGD_APPLY_MAX_ATTEMPTS" envDefault:"200"`
	RevalidateInterval time.Duration `env:"TAGD_REVALIDATE_INTERVAL" envDefault:"1s"`

	Redis RedisConfig `envPrefix:"TAGD_REDIS_"`
	Audit AuditConfig `envPrefix:"TAGD_AUDIT_"`
}

// RedisConfig configures the optional redis permission backend. An empty URL
// disables it.
type RedisConfig struct {
	URL          string        `env:"URL"`
	PoolSize     int           `env:"POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"250ms"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"250ms"`
}

// AuditConfig configures the optional Kafka audit trail. No brokers means
// events stay in process memory.
type AuditConfig struct {
	Brokers []string `env:"BROKERS" envSeparator:","`
	Topic   string   `env:"TOPIC" envDefault:"tagd.audit"`
}

// FromEnv parses the environment into a Server config.
func FromEnv() (Server, error) {
	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return Server{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}
