package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process-level configuration for the gating service.
type Server struct {
	Addr string

	// GraceCookieSecret signs and verifies the paywall grace cookie. When
	// empty the grace-cookie fast path is disabled and every request falls
	// through to the standard subscription check.
	GraceCookieSecret string

	// JWTSigningKey verifies session access tokens.
	JWTSigningKey string

	PostgresURL string

	Redis     RedisConfig
	RateLimit RateLimitConfig
	Kafka     KafkaConfig
}

// RedisConfig holds connection settings for the shared key-value store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// RateLimitConfig centralizes the sliding-window policy so the constants are
// not scattered as literals through the limiter.
type RateLimitConfig struct {
	Window      time.Duration
	MaxRequests int
}

// KafkaConfig holds settings for the analytics event sink.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("PREPGATE_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	topic := os.Getenv("KAFKA_ANALYTICS_TOPIC")
	if topic == "" {
		topic = "product.analytics"
	}

	return Server{
		Addr:              addr,
		GraceCookieSecret: os.Getenv("GRACE_COOKIE_SECRET"),
		JWTSigningKey:     jwtSigningKey,
		PostgresURL:       os.Getenv("POSTGRES_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 2*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 500*time.Millisecond),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 500*time.Millisecond),
		},
		RateLimit: RateLimitConfig{
			Window:      envDuration("RATE_LIMIT_WINDOW", 60*time.Second),
			MaxRequests: envInt("RATE_LIMIT_MAX_REQUESTS", 3),
		},
		Kafka: KafkaConfig{
			Brokers: envList("KAFKA_BROKERS"),
			Topic:   topic,
		},
	}
}

func envInt(key string, fallback int) int {
	if raw := os.Getenv(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			return v
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if raw := os.Getenv(key); raw != "" {
		if v, err := time.ParseDuration(raw); err == nil && v > 0 {
			return v
		}
	}
	return fallback
}

func envList(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
