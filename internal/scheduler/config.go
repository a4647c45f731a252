package scheduler

import (
	"time"

	appconfig "github.com/athenajq/lunchline/internal/config"
)

// Config controls the order sweep worker loop.
type Config struct {
	BatchSize    int
	PollInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		BatchSize:    50,
		PollInterval: 30 * time.Second,
	}
}

// FromAppConfig maps the application sweep settings onto the worker config.
func FromAppConfig(cfg appconfig.Config) Config {
	return Config{
		BatchSize:    cfg.Sweep.BatchSize,
		PollInterval: cfg.Sweep.PollInterval,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.BatchSize <= 0 {
		c.BatchSize = defaults.BatchSize
	}

	if c.PollInterval <= 0 {
		c.PollInterval = defaults.PollInterval
	}
	return c
}
