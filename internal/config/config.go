package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds all environment-driven settings for the NUSAM services.
type Config struct {
	APIPort          string
	LogLevel         string
	ElasticsearchURL string

	CouchbaseURL      string
	CouchbaseUsername string
	CouchbasePassword string
	CouchbaseBucket   string
}

// Load reads the .env file if present and assembles the configuration
// from environment variables with sensible defaults.
func Load() *Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Info().Msg("No .env file found, assuming environment variables are set")
	}

	return &Config{
		APIPort:          getEnvOrDefault("API_PORT", "8080"),
		LogLevel:         getEnvOrDefault("LOG_LEVEL", "info"),
		ElasticsearchURL: os.Getenv("ELASTICSEARCH_URL"),

		CouchbaseURL:      getEnvOrDefault("COUCHBASE_URL", "couchbase://localhost"),
		CouchbaseUsername: getEnvOrDefault("COUCHBASE_USERNAME", "Administrator"),
		CouchbasePassword: getEnvOrDefault("COUCHBASE_PASSWORD", "password"),
		CouchbaseBucket:   getEnvOrDefault("COUCHBASE_BUCKET", "saudemental"),
	}
}

// getEnvOrDefault returns the environment variable value or a default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
