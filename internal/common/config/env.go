package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the application configuration
// This struct contains all configuration parameters for the application
type Config struct {
	// HTTP server
	ListenAddr string

	// Environment info
	Environment string

	// Upstream office API (the record of truth for all dashboard entities)
	UpstreamBaseURL string
	UpstreamTimeout time.Duration

	// Auth configuration. Tokens are issued elsewhere; we only verify them
	// against the issuer's JWKS.
	TokenIssuer string
	JWKSURL     string

	// Session store configuration
	SessionBackend string // memory, redis, dynamodb
	SessionTTL     time.Duration

	// Redis session backend
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// DynamoDB session backend
	AWSRegion         string
	DynamoDBTableName string

	// Kafka event publishing (disabled when no brokers are configured)
	KafkaBrokers []string
	KafkaTopic   string
}

// LoadFromEnv loads the configuration from environment variables. A .env
// file in the working directory is applied first when present.
func LoadFromEnv() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	// Required environment variables
	cfg.UpstreamBaseURL = os.Getenv("UPSTREAM_BASE_URL")
	if cfg.UpstreamBaseURL == "" {
		return nil, errors.New("UPSTREAM_BASE_URL environment variable is required")
	}
	cfg.UpstreamBaseURL = strings.TrimRight(cfg.UpstreamBaseURL, "/")

	cfg.TokenIssuer = os.Getenv("TOKEN_ISSUER")
	if cfg.TokenIssuer == "" {
		return nil, errors.New("TOKEN_ISSUER environment variable is required")
	}

	cfg.JWKSURL = os.Getenv("JWKS_URL")
	if cfg.JWKSURL == "" {
		cfg.JWKSURL = strings.TrimRight(cfg.TokenIssuer, "/") + "/.well-known/jwks.json"
	}

	cfg.ListenAddr = os.Getenv("LISTEN_ADDR")
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}

	cfg.Environment = os.Getenv("ENVIRONMENT")
	if cfg.Environment == "" {
		cfg.Environment = "dev"
	}

	cfg.UpstreamTimeout = durationFromEnv("UPSTREAM_TIMEOUT_SECONDS", 10*time.Second)

	// Session store
	cfg.SessionBackend = os.Getenv("SESSION_BACKEND")
	if cfg.SessionBackend == "" {
		cfg.SessionBackend = "memory"
	}
	switch cfg.SessionBackend {
	case "memory", "redis", "dynamodb":
	default:
		return nil, errors.New("SESSION_BACKEND must be one of: memory, redis, dynamodb")
	}
	cfg.SessionTTL = durationFromEnv("SESSION_TTL_MINUTES", 12*time.Hour)

	cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	if cfg.RedisAddr == "" {
		cfg.RedisAddr = "localhost:6379"
	}
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	if db := os.Getenv("REDIS_DB"); db != "" {
		n, err := strconv.Atoi(db)
		if err != nil {
			return nil, errors.New("REDIS_DB must be an integer")
		}
		cfg.RedisDB = n
	}

	cfg.AWSRegion = os.Getenv("AWS_REGION")
	if cfg.AWSRegion == "" {
		cfg.AWSRegion = "ap-northeast-1"
	}
	cfg.DynamoDBTableName = os.Getenv("DYNAMODB_TABLE_NAME")
	if cfg.SessionBackend == "dynamodb" && cfg.DynamoDBTableName == "" {
		return nil, errors.New("DYNAMODB_TABLE_NAME is required when SESSION_BACKEND=dynamodb")
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}
	cfg.KafkaTopic = os.Getenv("KAFKA_TOPIC")
	if cfg.KafkaTopic == "" {
		cfg.KafkaTopic = "officehub.mutations"
	}

	return cfg, nil
}

func (c *Config) IsProd() bool {
	return c.Environment == "prod"
}

// EventsEnabled reports whether mutation events should be published.
func (c *Config) EventsEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// durationFromEnv reads an integer environment variable expressed in the
// unit implied by its name and falls back to def on absence or parse error.
func durationFromEnv(name string, def time.Duration) time.Duration {
	raw := os.Getenv(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	if strings.HasSuffix(name, "_MINUTES") {
		return time.Duration(n) * time.Minute
	}
	return time.Duration(n) * time.Second
}
