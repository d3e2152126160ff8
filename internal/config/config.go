package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Accommodation API
	StayAPIBaseURL        string
	StayAPITimeoutSeconds int
	StayAPIUserAgent      string

	// Reservations
	ReservationSubmitTimeout time.Duration
	FormIdleTTL              time.Duration

	// Redis
	RedisURL              string
	AccommodationCacheTTL time.Duration

	// CORS
	AllowedOrigins []string

	// Rate limiting
	RateLimitPerMinute int

	// Logging
	LogLevel string
}

func Load() *Config {
	// Load .env file in development
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		// Server
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		// Accommodation API
		StayAPIBaseURL:        getEnv("STAY_API_BASE_URL", "http://localhost:8000"),
		StayAPITimeoutSeconds: parseInt(getEnv("STAY_API_TIMEOUT_SECONDS", "10"), 10),
		StayAPIUserAgent:      getEnv("STAY_API_USER_AGENT", "stayfinder-api/1.0"),

		// Reservations
		ReservationSubmitTimeout: parseDuration(getEnv("RESERVATION_SUBMIT_TIMEOUT", "15s"), 15*time.Second),
		FormIdleTTL:              parseDuration(getEnv("FORM_IDLE_TTL", "30m"), 30*time.Minute),

		// Redis
		RedisURL:              getEnv("REDIS_URL", ""),
		AccommodationCacheTTL: parseDuration(getEnv("ACCOMMODATION_CACHE_TTL", "5m"), 5*time.Minute),

		// CORS
		AllowedOrigins: parseStringSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),

		// Rate limiting
		RateLimitPerMinute: parseInt(getEnv("RATE_LIMIT_PER_MINUTE", "120"), 120),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "debug"),
	}
}

// StayAPITimeout is the per-request timeout for the accommodation API.
func (c *Config) StayAPITimeout() time.Duration {
	if c.StayAPITimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.StayAPITimeoutSeconds) * time.Second
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func parseDuration(s string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

func parseInt(s string, defaultValue int) int {
	value, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}
	return value
}

func parseStringSlice(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	if result == nil {
		return []string{}
	}
	return result
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
