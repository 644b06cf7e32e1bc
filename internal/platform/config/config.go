package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures process-level configuration. Backends are optional: an
// empty Postgres URL selects the in-memory stores, an empty Redis URL the
// in-memory verify cache, and empty Kafka brokers disable audit fan-out.
type Config struct {
	Addr          string
	InitialIssuer string
	VotingWindow  time.Duration

	PostgresURL string
	Redis       RedisConfig
	Kafka       KafkaConfig
}

// RedisConfig configures the optional shared verify cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CacheTTL     time.Duration
}

// KafkaConfig configures the optional audit event sink.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	return Config{
		Addr:          envOr("WATSONMARK_ADDR", ":8080"),
		InitialIssuer: os.Getenv("WATSONMARK_ISSUER"),
		VotingWindow:  envDuration("WATSONMARK_VOTING_WINDOW", 0),
		PostgresURL:   os.Getenv("WATSONMARK_POSTGRES_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("WATSONMARK_REDIS_URL"),
			PoolSize:     envInt("WATSONMARK_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("WATSONMARK_REDIS_MIN_IDLE", 2),
			DialTimeout:  envDuration("WATSONMARK_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("WATSONMARK_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("WATSONMARK_REDIS_WRITE_TIMEOUT", 3*time.Second),
			CacheTTL:     envDuration("WATSONMARK_VERIFY_CACHE_TTL", 30*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(os.Getenv("WATSONMARK_KAFKA_BROKERS")),
			Topic:   envOr("WATSONMARK_AUDIT_TOPIC", "watsonmark.audit"),
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
