package main

import (
	"os"
	"time"

	"dailybingo/internal/bingo"
)

// Config holds everything read from the environment at startup.
type Config struct {
	Port             string
	IsProduction     bool
	ResetHourUTC     int
	PhrasesFile      string
	SessionsDir      string
	SessionTimeout   time.Duration
	CacheIdleTimeout time.Duration
	CookieMaxAge     time.Duration
	StaticCacheAge   time.Duration
	CleanupInterval  time.Duration
	RateLimitRPS     int
	RateLimitBurst   int
	PGDSN            string
}

// loadConfig reads the configuration from the environment, falling back to
// defaults for anything unset or unparsable.
func loadConfig() Config {
	return Config{
		Port:             getEnvString("PORT", "8080"),
		IsProduction:     os.Getenv("GIN_MODE") == "release" || os.Getenv("ENV") == "production",
		ResetHourUTC:     getResetHour("RESET_HOUR_UTC", bingo.DefaultResetHourUTC),
		PhrasesFile:      getEnvString("PHRASES_FILE", "data/phrases.json"),
		SessionsDir:      getEnvString("SESSIONS_DIR", "data/sessions"),
		SessionTimeout:   getEnvDuration("SESSION_TIMEOUT", 48*time.Hour),
		CacheIdleTimeout: getEnvDuration("CACHE_IDLE_TIMEOUT", 30*time.Minute),
		CookieMaxAge:     getEnvDuration("COOKIE_MAX_AGE", 48*time.Hour),
		StaticCacheAge:   getEnvDuration("STATIC_CACHE_AGE", 5*time.Minute),
		CleanupInterval:  getEnvDuration("CLEANUP_INTERVAL", 10*time.Minute),
		RateLimitRPS:     getEnvInt("RATE_LIMIT_RPS", 5),
		RateLimitBurst:   getEnvInt("RATE_LIMIT_BURST", 10),
		PGDSN:            os.Getenv("PG_DSN"),
	}
}

// getResetHour reads the UTC rollover hour, rejecting values outside 0..23.
func getResetHour(key string, fallback int) int {
	h := getEnvInt(key, fallback)
	if h < 0 || h > 23 {
		logWarn("Invalid hour for %s: %d, using default %d", key, h, fallback)
		return fallback
	}
	return h
}
