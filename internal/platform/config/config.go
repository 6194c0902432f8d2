// Package config builds runtime configuration from environment variables so
// main stays lean. Every knob has a development default; production
// deployments override through the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures the full service configuration.
type Server struct {
	Addr          string
	DatabaseURL   string
	JWTSigningKey string
	JWTIssuer     string
	TokenTTL      time.Duration

	// NumeroUnicoGlobal widens numeroExpediente uniqueness to include
	// soft-deleted expedientes. Default scopes uniqueness to active rows.
	NumeroUnicoGlobal bool

	BcryptCost int

	Redis   RedisConfig
	Kafka   KafkaConfig
	Lockout LockoutConfig

	ShutdownTimeout time.Duration
}

// RedisConfig configures the optional Redis connection used for login
// lockout tracking. An empty URL disables Redis; lockouts then live in
// process memory.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the optional audit event stream. No brokers means
// audit events stay in the local store only.
type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
}

// LockoutConfig tunes the login failure lockout.
type LockoutConfig struct {
	MaxFailures  int
	Window       time.Duration
	LockDuration time.Duration
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	return Server{
		Addr:              envString("EXPEDIENTES_ADDR", ":8080"),
		DatabaseURL:       os.Getenv("EXPEDIENTES_DATABASE_URL"),
		JWTSigningKey:     envString("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		JWTIssuer:         envString("JWT_ISSUER", "expedientes"),
		TokenTTL:          envDuration("JWT_TOKEN_TTL", 8*time.Hour),
		NumeroUnicoGlobal: os.Getenv("EXPEDIENTES_NUMERO_UNICO_GLOBAL") == "true",
		BcryptCost:        envInt("EXPEDIENTES_BCRYPT_COST", 10),
		Redis: RedisConfig{
			URL:          os.Getenv("EXPEDIENTES_REDIS_URL"),
			PoolSize:     envInt("EXPEDIENTES_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("EXPEDIENTES_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("EXPEDIENTES_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("EXPEDIENTES_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("EXPEDIENTES_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:    envList("EXPEDIENTES_KAFKA_BROKERS"),
			AuditTopic: envString("EXPEDIENTES_AUDIT_TOPIC", "expedientes.audit"),
		},
		Lockout: LockoutConfig{
			MaxFailures:  envInt("EXPEDIENTES_LOCKOUT_MAX_FAILURES", 5),
			Window:       envDuration("EXPEDIENTES_LOCKOUT_WINDOW", 15*time.Minute),
			LockDuration: envDuration("EXPEDIENTES_LOCKOUT_DURATION", 15*time.Minute),
		},
		ShutdownTimeout: envDuration("EXPEDIENTES_SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

func envString(key, fallback string) string {
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

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
