package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the runtime configuration, loaded from the environment
// with an optional .env file for local development
type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	DatabaseURL string
	RedisURL    string

	Casdoor CasdoorConfig
	Storage StorageConfig
	Kafka   KafkaConfig
}

// CasdoorConfig configures the identity provider client
type CasdoorConfig struct {
	Endpoint     string
	ClientID     string
	ClientSecret string
	Cert         string
	Organization string
	Application  string
}

// StorageConfig configures the S3-compatible object store
type StorageConfig struct {
	Endpoint          string
	Region            string
	Bucket            string
	AccessKey         string
	SecretKey         string
	UseSSL            bool
	UsePathStyle      bool
	PresignExpiration time.Duration
}

// KafkaConfig configures the event publisher. Empty brokers disable
// event publishing entirely.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// LoadConfig reads configuration from the environment. A missing .env
// file is not an error; containers inject everything directly.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    parseLogLevel(getEnv("LOG_LEVEL", "info")),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		Casdoor: CasdoorConfig{
			Endpoint:     os.Getenv("CASDOOR_ENDPOINT"),
			ClientID:     os.Getenv("CASDOOR_CLIENT_ID"),
			ClientSecret: os.Getenv("CASDOOR_CLIENT_SECRET"),
			Cert:         os.Getenv("CASDOOR_CERT"),
			Organization: os.Getenv("CASDOOR_ORGANIZATION"),
			Application:  os.Getenv("CASDOOR_APPLICATION"),
		},
		Storage: StorageConfig{
			Endpoint:          getEnv("S3_ENDPOINT", "http://localhost:9000"),
			Region:            getEnv("S3_REGION", "us-east-1"),
			Bucket:            getEnv("S3_BUCKET", "notes"),
			AccessKey:         os.Getenv("S3_ACCESS_KEY"),
			SecretKey:         os.Getenv("S3_SECRET_KEY"),
			UseSSL:            getEnvBool("S3_USE_SSL", false),
			UsePathStyle:      getEnvBool("S3_USE_PATH_STYLE", true),
			PresignExpiration: getEnvDuration("S3_PRESIGN_EXPIRATION", 15*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers: splitNonEmpty(os.Getenv("KAFKA_BROKERS")),
			Topic:   getEnv("KAFKA_TOPIC", "notes-events"),
		},
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseLogLevel(raw string) slog.Level {
	switch strings.ToLower(raw) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func splitNonEmpty(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
