package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env         string
	Port        string
	DatabaseURL string

	AppName string

	PlaidClientID string
	PlaidSecret   string
	PlaidEnv      string

	DwollaKey    string
	DwollaSecret string
	DwollaEnv    string

	AllowedOrigins []string
	SessionTTL     time.Duration
	SecureCookies  bool

	SyncSchedule string
}

// Load builds the config once at startup. Everything downstream takes the
// struct by reference instead of reading the environment itself.
func Load() *Config {
	// Load .env file if present
	_ = godotenv.Load()

	cfg := &Config{
		Env:            getEnv("APP_ENV", "dev"),
		Port:           getEnv("PORT", "8080"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		AppName:        getEnv("APP_NAME", "Finlink"),
		PlaidClientID:  getEnv("PLAID_CLIENT_ID", ""),
		PlaidSecret:    getEnv("PLAID_SECRET", ""),
		PlaidEnv:       getEnv("PLAID_ENV", "sandbox"),
		DwollaKey:      getEnv("DWOLLA_KEY", ""),
		DwollaSecret:   getEnv("DWOLLA_SECRET", ""),
		DwollaEnv:      getEnv("DWOLLA_ENV", "sandbox"),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		SecureCookies:  getEnv("SECURE_COOKIES", "true") == "true",
		SyncSchedule:   getEnv("SYNC_SCHEDULE", "@every 6h"),
	}

	ttl, err := time.ParseDuration(getEnv("SESSION_TTL", "168h"))
	if err != nil {
		log.Fatalf("invalid SESSION_TTL: %v", err)
	}
	cfg.SessionTTL = ttl

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}
	if cfg.PlaidClientID == "" || cfg.PlaidSecret == "" {
		log.Fatal("PLAID_CLIENT_ID and PLAID_SECRET are required")
	}
	if cfg.DwollaKey == "" || cfg.DwollaSecret == "" {
		log.Fatal("DWOLLA_KEY and DWOLLA_SECRET are required")
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
