package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	DatabaseFile string // Optional: path to SQLite database file (default: ./activault.db)
	JWTSecret    string // Required for bearer auth: HS256 shared secret; empty disables bearer tokens

	DefaultExpiryDays  int           // Optional: expiry horizon applied when generate requests carry none (default: 365)
	StaleUnusedAfter   time.Duration // Optional: age after which unused codes are swept (default: 5m)
	ExpiredUnusedAfter time.Duration // Optional: grace after expiry before unredeemed codes are swept (default: 720h)

	RedisAddr string // Optional: redis address for the shared rate limiter; empty uses the in-process limiter

	GuardCoarseMax    int           // Optional: coarse guard request budget (default: 10)
	GuardCoarseWindow time.Duration // Optional: coarse guard window (default: 60s)
	GuardCoarseBlock  time.Duration // Optional: coarse guard hard-block duration (default: 15m)
	GuardFineMax      int           // Optional: fine guard request budget (default: 2)
	GuardFineWindow   time.Duration // Optional: fine guard window (default: 1s)

	StoreTimeout time.Duration // Optional: per-request deadline on storage work (default: 5s)

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

func LoadConfig() Config {
	return Config{
		DatabaseFile: getEnvOrDefault("ACT_DATABASE_FILE", "activault.db"),
		JWTSecret:    os.Getenv("ACT_JWT_SECRET"),

		DefaultExpiryDays:  getEnvIntOrDefault("ACT_DEFAULT_EXPIRY_DAYS", 365),
		StaleUnusedAfter:   getEnvDurationOrDefault("ACT_STALE_UNUSED_AFTER", 5*time.Minute),
		ExpiredUnusedAfter: getEnvDurationOrDefault("ACT_EXPIRED_UNUSED_AFTER", 720*time.Hour),

		RedisAddr: os.Getenv("ACT_REDIS_ADDR"),

		GuardCoarseMax:    getEnvIntOrDefault("ACT_GUARD_COARSE_MAX", 10),
		GuardCoarseWindow: getEnvDurationOrDefault("ACT_GUARD_COARSE_WINDOW", 60*time.Second),
		GuardCoarseBlock:  getEnvDurationOrDefault("ACT_GUARD_COARSE_BLOCK", 15*time.Minute),
		GuardFineMax:      getEnvIntOrDefault("ACT_GUARD_FINE_MAX", 2),
		GuardFineWindow:   getEnvDurationOrDefault("ACT_GUARD_FINE_WINDOW", time.Second),

		StoreTimeout: getEnvDurationOrDefault("ACT_STORE_TIMEOUT", 5*time.Second),

		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes (for backwards compatibility)
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
