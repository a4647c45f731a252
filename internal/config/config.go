package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all process configuration, loaded once at startup from the
// environment (with an optional .env file for local development).
type Config struct {
	Environment string
	HTTPAddr    string

	Database  Database
	Bootstrap Bootstrap
	Tracing   Tracing
	Sweep     Sweep
	HTTP      HTTP
}

type Database struct {
	Driver string // "postgres" or "sqlite"
	DSN    string
}

type Bootstrap struct {
	EnsureDefaultOrg bool
	SeedDemoSchedule bool
}

type Tracing struct {
	Enabled          bool
	ServiceName      string
	ServiceVersion   string
	ExporterEndpoint string
	ExporterProtocol string
	SamplingRatio    float64
}

type Sweep struct {
	BatchSize    int
	PollInterval time.Duration
}

type HTTP struct {
	RateLimitPerMinute int
}

// Load reads configuration from the environment. Missing keys fall back to
// development defaults; a .env file is honored when present.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Environment: envString("LUNCHLINE_ENV", "development"),
		HTTPAddr:    envString("LUNCHLINE_HTTP_ADDR", ":8080"),
		Database: Database{
			Driver: envString("LUNCHLINE_DB_DRIVER", "sqlite"),
			DSN:    envString("LUNCHLINE_DB_DSN", "lunchline.db"),
		},
		Bootstrap: Bootstrap{
			EnsureDefaultOrg: envBool("LUNCHLINE_BOOTSTRAP_DEFAULT_ORG", true),
			SeedDemoSchedule: envBool("LUNCHLINE_BOOTSTRAP_DEMO_SCHEDULE", false),
		},
		Tracing: Tracing{
			Enabled:          envBool("LUNCHLINE_TRACING_ENABLED", false),
			ServiceName:      envString("LUNCHLINE_TRACING_SERVICE_NAME", "lunchline"),
			ServiceVersion:   envString("LUNCHLINE_TRACING_SERVICE_VERSION", "dev"),
			ExporterEndpoint: envString("LUNCHLINE_TRACING_ENDPOINT", "localhost:4317"),
			ExporterProtocol: envString("LUNCHLINE_TRACING_PROTOCOL", "grpc"),
			SamplingRatio:    envFloat("LUNCHLINE_TRACING_SAMPLING_RATIO", 1.0),
		},
		Sweep: Sweep{
			BatchSize:    envInt("LUNCHLINE_SWEEP_BATCH_SIZE", 0),
			PollInterval: envDuration("LUNCHLINE_SWEEP_POLL_INTERVAL", 0),
		},
		HTTP: HTTP{
			RateLimitPerMinute: envInt("LUNCHLINE_RATE_LIMIT_PER_MINUTE", 0),
		},
	}
}

// IsProduction reports whether the process runs with production settings.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

func envString(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return value
}

func envInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func envFloat(key string, fallback float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return value
}

func envDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return value
}
