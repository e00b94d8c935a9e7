package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const devSecret = "dev-secret-key-change-in-production"

type Config struct {
	Port        string
	DatabaseURL string
	RedisURL    string
	JWTSecret   string

	GoogleClientID     string
	GoogleClientSecret string
	OAuthRedirectURL   string
	// Where the browser lands after the OAuth callback. Empty means the
	// callback answers with the JSON session instead of redirecting.
	FrontendURL string

	CORSOrigins []string
	LogLevel    string
	LogFile     string

	AccessTTL         time.Duration
	RefreshTTL        time.Duration
	TrendingEvery     time.Duration
	SessionSweepEvery time.Duration
	AutoMigrate       bool
}

// Load reads .env when present and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:               env("PORT", "8082"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		RedisURL:           env("REDIS_URL", "redis://localhost:6379"),
		JWTSecret:          env("JWT_SECRET", devSecret),
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		OAuthRedirectURL:   env("OAUTH_REDIRECT_URL", "http://localhost:8082/auth/google/callback"),
		FrontendURL:        os.Getenv("FRONTEND_URL"),
		CORSOrigins:        splitList(env("CORS_ORIGINS", "http://localhost:5173")),
		LogLevel:           env("LOG_LEVEL", "info"),
		LogFile:            os.Getenv("LOG_FILE"),
		AccessTTL:          time.Hour,
		RefreshTTL:         30 * 24 * time.Hour,
		TrendingEvery:      10 * time.Minute,
		SessionSweepEvery:  30 * time.Minute,
		AutoMigrate:        envBool("AUTO_MIGRATE", true),
	}

	if d, err := envDuration("TRENDING_INTERVAL"); err != nil {
		return nil, err
	} else if d > 0 {
		cfg.TrendingEvery = d
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL não definida")
	}
	return cfg, nil
}

// InsecureSecret reports whether the JWT secret is the development default.
func (c *Config) InsecureSecret() bool {
	return c.JWTSecret == devSecret
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envDuration(key string) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s inválido: %w", key, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
