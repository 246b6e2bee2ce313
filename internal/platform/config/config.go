package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures everything cmd/server needs so main stays lean. Values come
// from the environment with development defaults.
type Config struct {
	Addr           string
	OperatorEmail  string
	OperatorSecret string
	JWTSigningKey  string
	SessionTTL     time.Duration
	LockoutWindow  time.Duration

	Postgres PostgresConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
}

// PostgresConfig holds the record store connection settings. An empty DSN
// selects the in-memory stores.
type PostgresConfig struct {
	DSN string
}

// RedisConfig holds the sign-in lockout store settings. An empty URL selects
// the in-memory lockout store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig holds the audit sink settings. Empty seeds disable the sink.
type KafkaConfig struct {
	Seeds []string
	Topic string
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	cfg := Config{
		Addr:           envOr("OPSCONSOLE_ADDR", ":8080"),
		OperatorEmail:  envOr("OPSCONSOLE_OPERATOR_EMAIL", "operator@example.com"),
		OperatorSecret: envOr("OPSCONSOLE_OPERATOR_SECRET", "change-me-operator"),
		JWTSigningKey:  envOr("OPSCONSOLE_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		SessionTTL:     envDurationOr("OPSCONSOLE_SESSION_TTL", 12*time.Hour),
		LockoutWindow:  envDurationOr("OPSCONSOLE_LOCKOUT_WINDOW", 15*time.Minute),
		Postgres: PostgresConfig{
			DSN: os.Getenv("OPSCONSOLE_POSTGRES_DSN"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("OPSCONSOLE_REDIS_URL"),
			PoolSize:     envIntOr("OPSCONSOLE_REDIS_POOL_SIZE", 10),
			MinIdleConns: envIntOr("OPSCONSOLE_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDurationOr("OPSCONSOLE_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDurationOr("OPSCONSOLE_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDurationOr("OPSCONSOLE_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Topic: envOr("OPSCONSOLE_KAFKA_AUDIT_TOPIC", "opsconsole.audit"),
		},
	}
	if seeds := os.Getenv("OPSCONSOLE_KAFKA_SEEDS"); seeds != "" {
		for _, s := range strings.Split(seeds, ",") {
			if s = strings.TrimSpace(s); s != "" {
				cfg.Kafka.Seeds = append(cfg.Kafka.Seeds, s)
			}
		}
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
