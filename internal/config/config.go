package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration for the service.
type Config struct {
	ListenAddr   string
	InferenceURL string
	RedisAddr    string
	DatabaseDSN  string
	JWTSecret    string
	JWTAudience  string

	FetchTimeout   time.Duration
	PredictTimeout time.Duration

	Development bool
}

// Load reads configuration from the environment, optionally seeded from a
// local .env file. A missing .env is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ListenAddr:     getEnv("LISTEN_ADDR", ":8080"),
		InferenceURL:   getEnv("INFERENCE_URL", "http://localhost:5000/predict"),
		RedisAddr:      getEnv("REDIS_ADDR", "redis:6379"),
		DatabaseDSN:    getEnv("DATABASE_DSN", "host=postgres user=postgres password=postgres dbname=predictions port=5432 sslmode=disable"),
		JWTSecret:      getEnv("JWT_SECRET", "dev-secret"),
		JWTAudience:    os.Getenv("JWT_AUDIENCE"),
		FetchTimeout:   getDurationEnv("FETCH_TIMEOUT_SECONDS", 15*time.Second),
		PredictTimeout: getDurationEnv("PREDICT_TIMEOUT_SECONDS", 30*time.Second),
		Development:    getBoolEnv("DEVELOPMENT", false),
	}

	if cfg.InferenceURL == "" {
		return nil, fmt.Errorf("INFERENCE_URL is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if seconds, err := strconv.Atoi(os.Getenv(key)); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return fallback
}

func getBoolEnv(key string, fallback bool) bool {
	if parsed, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return parsed
	}
	return fallback
}
