package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Defaults chosen for local development; production deployments set
// everything explicitly.
const (
	defaultPort       = "8080"
	defaultRedisAddr  = "localhost:6379"
	defaultBasketTTL  = 120
	defaultRateLimit  = 100
	defaultRateWindow = 60
)

type Config struct {
	Port        string
	DatabaseURL string

	RedisAddr string
	RedisDB   int

	// BasketTTL is the expiry window applied to every basket write.
	BasketTTL time.Duration

	MetricsEnabled bool
	MetricsToken   string

	RateLimit         int
	RateWindowSeconds int
}

func Load() (*Config, error) {
	// Load .env if present (local dev convenience).
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getenv("PORT", defaultPort),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisAddr:   getenv("REDIS_ADDR", defaultRedisAddr),

		MetricsEnabled: os.Getenv("METRICS_ENABLED") == "true",
		MetricsToken:   os.Getenv("METRICS_TOKEN"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL must be set")
	}

	redisDB, err := getenvInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}
	cfg.RedisDB = redisDB

	ttlSeconds, err := getenvInt("BASKET_TTL_SECONDS", defaultBasketTTL)
	if err != nil {
		return nil, err
	}
	if ttlSeconds <= 0 {
		return nil, fmt.Errorf("BASKET_TTL_SECONDS must be positive, got %d", ttlSeconds)
	}
	cfg.BasketTTL = time.Duration(ttlSeconds) * time.Second

	cfg.RateLimit, err = getenvInt("RATE_LIMIT", defaultRateLimit)
	if err != nil {
		return nil, err
	}
	cfg.RateWindowSeconds, err = getenvInt("RATE_WINDOW_SECONDS", defaultRateWindow)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvInt(k string, def int) (int, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return n, nil
}
