package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"
)

const (
	// DefaultAPIURL is the local development origin of the build backend.
	DefaultAPIURL = "http://localhost:3001"
	// DefaultTenantID identifies the local development workspace.
	DefaultTenantID = "test-tenant"

	defaultPollInterval = 2 * time.Second
	defaultTickInterval = 1 * time.Second
	defaultPollRetries  = 2
	defaultJobLimit     = 20
)

// APIConfig holds the build backend connection settings.
type APIConfig struct {
	URL      string `toml:"url" envconfig:"API_URL"`
	TenantID string `toml:"tenant_id" envconfig:"TENANT_ID"`
}

// WatchConfig holds the tuning of the live job tracker.
type WatchConfig struct {
	PollIntervalSeconds int `toml:"poll_interval_seconds" envconfig:"POLL_INTERVAL_SECONDS"`
	TickIntervalSeconds int `toml:"tick_interval_seconds" envconfig:"TICK_INTERVAL_SECONDS"`
	// PollRetries is the number of extra attempts for a failed status poll.
	// A negative value disables retries.
	PollRetries int `toml:"poll_retries" envconfig:"POLL_RETRIES"`
}

// Config holds all vibedeck configuration.
type Config struct {
	API      APIConfig   `toml:"api"`
	Watch    WatchConfig `toml:"watch"`
	JobLimit int         `toml:"job_limit"`
}

// APIURLOrDefault returns the configured API origin or the local development one.
func (c Config) APIURLOrDefault() string {
	if c.API.URL != "" {
		return c.API.URL
	}
	return DefaultAPIURL
}

// TenantIDOrDefault returns the configured tenant or the development tenant.
func (c Config) TenantIDOrDefault() string {
	if c.API.TenantID != "" {
		return c.API.TenantID
	}
	return DefaultTenantID
}

// PollIntervalOrDefault returns the delay between two status polls.
func (c Config) PollIntervalOrDefault() time.Duration {
	if c.Watch.PollIntervalSeconds > 0 {
		return time.Duration(c.Watch.PollIntervalSeconds) * time.Second
	}
	return defaultPollInterval
}

// TickIntervalOrDefault returns the refresh period of the elapsed-time clock.
func (c Config) TickIntervalOrDefault() time.Duration {
	if c.Watch.TickIntervalSeconds > 0 {
		return time.Duration(c.Watch.TickIntervalSeconds) * time.Second
	}
	return defaultTickInterval
}

// PollRetriesOrDefault returns how many times a failed poll is retried.
func (c Config) PollRetriesOrDefault() int {
	switch {
	case c.Watch.PollRetries < 0:
		return 0
	case c.Watch.PollRetries > 0:
		return c.Watch.PollRetries
	}
	return defaultPollRetries
}

// JobLimitOrDefault returns JobLimit if set, otherwise defaultJobLimit.
func (c Config) JobLimitOrDefault() int {
	if c.JobLimit > 0 {
		return c.JobLimit
	}
	return defaultJobLimit
}

// WithDefaults returns a copy of the config with every unset value filled in,
// as written by `vibedeck init`.
func (c Config) WithDefaults() Config {
	c.API.URL = c.APIURLOrDefault()
	c.API.TenantID = c.TenantIDOrDefault()
	c.Watch.PollIntervalSeconds = int(c.PollIntervalOrDefault() / time.Second)
	c.Watch.TickIntervalSeconds = int(c.TickIntervalOrDefault() / time.Second)
	c.Watch.PollRetries = c.PollRetriesOrDefault()
	c.JobLimit = c.JobLimitOrDefault()
	return c
}

// LoadFrom reads configuration from the given TOML file path.
// If the file does not exist, it returns an empty config without error.
// Environment variables always take precedence over file values:
//   - VIBE_API_URL               overrides api.url
//   - VIBE_TENANT_ID             overrides api.tenant_id
//   - VIBE_POLL_INTERVAL_SECONDS overrides watch.poll_interval_seconds
//   - VIBE_TICK_INTERVAL_SECONDS overrides watch.tick_interval_seconds
//   - VIBE_POLL_RETRIES          overrides watch.poll_retries
func LoadFrom(path string) (Config, error) {
	var cfg Config
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("decoding %s: %w", path, err)
		}
	}
	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DefaultConfigPath returns the default path for the vibedeck config file.
func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "vibedeck", "config.toml")
}

const envPrefix = "VIBE"

func applyEnvOverrides(cfg *Config) error {
	if err := envconfig.Process(envPrefix, &cfg.API); err != nil {
		return fmt.Errorf("reading API environment: %w", err)
	}
	if err := envconfig.Process(envPrefix, &cfg.Watch); err != nil {
		return fmt.Errorf("reading watch environment: %w", err)
	}
	return nil
}

// Save writes cfg to the given TOML file path, creating parent directories as needed.
// Existing file contents are overwritten. Permissions on the written file are 0600.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("opening config file: %w", err)
	}
	if encErr := toml.NewEncoder(f).Encode(cfg); encErr != nil {
		f.Close()
		return encErr
	}
	return f.Close()
}
