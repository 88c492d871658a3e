package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all process configuration, loaded once at startup from the
// environment. The admin principal is injected here rather than hardcoded so
// test harnesses can construct isolated instances.
type Config struct {
	DatabaseURL string
	HTTPPort    string

	JWTSecret    string
	JWTExpiresIn time.Duration

	AdminPrincipal string
	AdminEmail     string
	AdminPassword  string

	RateLimitRPS   float64
	RateLimitBurst int
}

// Load reads .env (if present) and the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		HTTPPort:       getEnv("HTTP_PORT", "8080"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		JWTExpiresIn:   getDuration("JWT_EXPIRES_IN", 24*time.Hour),
		AdminPrincipal: getEnv("ADMIN_PRINCIPAL", "admin"),
		AdminEmail:     getEnv("ADMIN_EMAIL", "admin@provtrack.local"),
		AdminPassword:  getEnv("ADMIN_PASSWORD", "changeme"),
		RateLimitRPS:   getFloat("RATE_LIMIT_RPS", 25),
		RateLimitBurst: getInt("RATE_LIMIT_BURST", 50),
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
