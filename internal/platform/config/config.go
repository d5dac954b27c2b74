// Package config builds the service configuration from environment
// variables so main stays lean.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	platformstrings "ghostlogin/pkg/platform/strings"
)

// Server captures the full service configuration.
type Server struct {
	Addr            string
	ShutdownTimeout time.Duration

	// Impersonation feature settings.
	Enabled             bool
	TokenLifetime       time.Duration
	RedirectPath        string
	BaseURL             string
	DefaultStoreScopeID int64
	SessionTTL          time.Duration

	JWTSigningKey string

	DatabaseURL string
	Redis       RedisConfig

	KafkaBrokers []string
	KafkaTopic   string
}

// RedisConfig holds session store connection settings. An empty URL means
// sessions stay in memory.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	cfg := Server{
		Addr:                envOr("GHOSTLOGIN_ADDR", ":8080"),
		ShutdownTimeout:     envDuration("GHOSTLOGIN_SHUTDOWN_TIMEOUT", 10*time.Second),
		Enabled:             os.Getenv("GHOSTLOGIN_ENABLED") != "false",
		TokenLifetime:       time.Duration(envInt("GHOSTLOGIN_TOKEN_LIFETIME_MINUTES", 5)) * time.Minute,
		RedirectPath:        envOr("GHOSTLOGIN_REDIRECT_PATH", "/customer/account"),
		BaseURL:             envOr("GHOSTLOGIN_BASE_URL", "http://localhost:8080"),
		DefaultStoreScopeID: int64(envInt("GHOSTLOGIN_STORE_SCOPE_ID", 1)),
		SessionTTL:          envDuration("GHOSTLOGIN_SESSION_TTL", time.Hour),
		JWTSigningKey:       envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		DatabaseURL:         os.Getenv("GHOSTLOGIN_DATABASE_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("GHOSTLOGIN_REDIS_URL"),
			PoolSize:     envInt("GHOSTLOGIN_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("GHOSTLOGIN_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("GHOSTLOGIN_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("GHOSTLOGIN_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("GHOSTLOGIN_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		KafkaTopic: envOr("GHOSTLOGIN_KAFKA_TOPIC", "ghostlogin.audit"),
	}

	if brokers := os.Getenv("GHOSTLOGIN_KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = platformstrings.DedupeAndTrim(strings.Split(brokers, ","))
	}

	return cfg
}

// Validate rejects configurations that cannot possibly serve traffic.
func (c Server) Validate() error {
	if c.TokenLifetime <= 0 {
		return fmt.Errorf("token lifetime must be positive")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session ttl must be positive")
	}
	if !strings.HasPrefix(c.RedirectPath, "/") {
		return fmt.Errorf("redirect path must be absolute, got %q", c.RedirectPath)
	}
	return nil
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
