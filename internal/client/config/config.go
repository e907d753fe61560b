// Package config handles configuration for the client, loaded from
// environment variables with an optional .env overlay for development.
package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds runtime settings for the TokenKeeper client.
type Config struct {
	// ServerAddress is the base URL of the issuer's HTTP API.
	ServerAddress string
	// SessionCheckInterval is how often the session manager re-checks
	// token expiry while the application is idle.
	SessionCheckInterval time.Duration
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerAddress:        getEnv("SERVER_ADDRESS", "http://localhost:8080"),
		SessionCheckInterval: getDuration("SESSION_CHECK_INTERVAL", 15*time.Minute),
	}
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
