package config

import (
	"os"
	"strings"
	"time"
)

// Server captures process-level configuration. Anything left empty selects
// the in-memory fallback for that dependency, so a bare `go run` works
// without postgres, redis, or kafka.
type Server struct {
	Addr          string
	DatabaseURL   string
	RedisURL      string
	KafkaBrokers  []string
	KafkaTopic    string
	JWTSigningKey string
	JWTIssuer     string

	PostingCacheTTL time.Duration
	RequestTimeout  time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	cfg := Server{
		Addr:            getenv("PLACEMENT_ADDR", ":8080"),
		DatabaseURL:     os.Getenv("PLACEMENT_DATABASE_URL"),
		RedisURL:        os.Getenv("PLACEMENT_REDIS_URL"),
		KafkaTopic:      getenv("PLACEMENT_KAFKA_TOPIC", "placement.audit"),
		JWTSigningKey:   getenv("PLACEMENT_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		JWTIssuer:       getenv("PLACEMENT_JWT_ISSUER", "placement"),
		PostingCacheTTL: getenvDuration("PLACEMENT_POSTING_CACHE_TTL", 5*time.Minute),
		RequestTimeout:  getenvDuration("PLACEMENT_REQUEST_TIMEOUT", 30*time.Second),
	}
	if brokers := os.Getenv("PLACEMENT_KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
