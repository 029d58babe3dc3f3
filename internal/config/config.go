package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration values.
type Config struct {
	Port          string
	DatabaseURL   string
	SessionSecret string
	JWTSecret     string
	RedisURL      string
	GinMode       string
	LogLevel      string
	CORSOrigins   []string

	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration

	ReactionMaxAttempts    int
	ReactionRatePerSecond  float64
	ReactionRequestTimeout time.Duration
	UserGateTTL            time.Duration

	ReconcileHour      int
	ReconcileBatchSize int
}

// Load reads configuration from the environment. Call godotenv.Load first
// if a .env file should be honoured.
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		DatabaseURL:   getEnv("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=agora port=5432 sslmode=disable"),
		SessionSecret: getEnv("SESSION_SECRET", "secret_key_change_me"),
		JWTSecret:     getEnv("JWT_SECRET", ""),
		RedisURL:      getEnv("REDIS_URL", ""),
		GinMode:       getEnv("GIN_MODE", "release"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		CORSOrigins:   getEnvAsList("CORS_ORIGINS", []string{"*"}),

		DBMaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		DBConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),

		ReactionMaxAttempts:    getEnvAsInt("REACTION_MAX_ATTEMPTS", 3),
		ReactionRatePerSecond:  getEnvAsFloat("REACTION_RATE_PER_SECOND", 5),
		ReactionRequestTimeout: getEnvAsDuration("REACTION_REQUEST_TIMEOUT", 5*time.Second),
		UserGateTTL:            getEnvAsDuration("USER_GATE_TTL", 30*time.Second),

		ReconcileHour:      getEnvAsInt("RECONCILE_HOUR", 3),
		ReconcileBatchSize: getEnvAsInt("RECONCILE_BATCH_SIZE", 200),
	}
}

// Development reports whether gin runs in debug mode.
func (c *Config) Development() bool {
	return c.GinMode == "debug"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(name string, fallback int) int {
	if value, err := strconv.Atoi(getEnv(name, "")); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(name string, fallback float64) float64 {
	if value, err := strconv.ParseFloat(getEnv(name, ""), 64); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go durations ("45s", "2m").
func getEnvAsDuration(name string, fallback time.Duration) time.Duration {
	if value, err := time.ParseDuration(getEnv(name, "")); err == nil {
		return value
	}
	return fallback
}

func getEnvAsList(name string, fallback []string) []string {
	raw := getEnv(name, "")
	if raw == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
