package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds process configuration read from the environment
type Config struct {
	Port           string
	AppEnv         string
	FrontendURL    string
	AllowedOrigins []string

	RedisURI        string
	RateLimitCreate int
	RateLimitWindow time.Duration

	ReaperInterval time.Duration
	ReaperMaxAge   time.Duration

	WSMaxMessageBytes int64
	WSSendBuffer      int

	ShutdownTimeout time.Duration

	// Warnings lists variables that were set but unusable and fell back to
	// their defaults. They are logged once a logger exists.
	Warnings []string
}

// Load reads the configuration from the environment
func Load() *Config {
	c := &Config{}

	c.Port = getEnv("PORT", "3001")
	c.AppEnv = getEnv("APP_ENV", "development")
	c.FrontendURL = strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:5173"), "/")
	c.AllowedOrigins = splitList(getEnv("CORS_ALLOWED_ORIGINS", c.FrontendURL))

	c.RedisURI = os.Getenv("REDIS_URI")
	c.RateLimitCreate = c.getEnvInt("RATE_LIMIT_CREATE", 30)
	c.RateLimitWindow = c.getEnvDuration("RATE_LIMIT_WINDOW", time.Minute)

	c.ReaperInterval = c.getEnvDuration("REAPER_INTERVAL", 5*time.Minute)
	c.ReaperMaxAge = c.getEnvDuration("REAPER_MAX_AGE", 24*time.Hour)

	c.WSMaxMessageBytes = int64(c.getEnvInt("WS_MAX_MESSAGE_BYTES", 1<<20))
	c.WSSendBuffer = c.getEnvInt("WS_SEND_BUFFER", 256)

	c.ShutdownTimeout = c.getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second)

	return c
}

// IsDevelopment reports whether APP_ENV selects the development profile
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// RateLimitEnabled reports whether a Redis backend was configured
func (c *Config) RateLimitEnabled() bool {
	return c.RedisURI != ""
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// getEnvInt accepts positive integers only
func (c *Config) getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil || n <= 0 {
		c.warn(key, val, defaultVal)
		return defaultVal
	}
	return n
}

// getEnvDuration accepts positive time.ParseDuration values
func (c *Config) getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		c.warn(key, val, defaultVal)
		return defaultVal
	}
	return d
}

func (c *Config) warn(key, val string, defaultVal interface{}) {
	c.Warnings = append(c.Warnings, fmt.Sprintf("invalid %s=%q, using default %v", key, val, defaultVal))
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
