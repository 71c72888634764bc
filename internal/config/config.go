// Package config handles configuration loading and validation for jobalert.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Polling PollingConfig `yaml:"polling"`
	Alerts  AlertsConfig  `yaml:"alerts"`
	DataDir string        `yaml:"-"` // set by caller, not from config file
}

// ServerConfig locates the job tracker and authenticates against it.
type ServerConfig struct {
	BaseURL string `yaml:"base_url"`
	// SessionCookie is the value of the tracker's "session" cookie.
	SessionCookie string        `yaml:"session_cookie"`
	Timeout       time.Duration `yaml:"timeout"`
}

type PollingConfig struct {
	Interval time.Duration `yaml:"interval"`
	Limit    int           `yaml:"limit"`
}

// AlertsConfig controls how desktop alerts look and behave.
type AlertsConfig struct {
	Sound        bool          `yaml:"sound"`
	DismissAfter time.Duration `yaml:"dismiss_after"`
	// Link is the click-through target. Relative paths resolve against
	// server.base_url.
	Link            string `yaml:"link"`
	AppName         string `yaml:"app_name"`
	MarkReadOnClick bool   `yaml:"mark_read_on_click"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			BaseURL: "http://localhost:5000",
			Timeout: 15 * time.Second,
		},
		Polling: PollingConfig{
			Interval: 30 * time.Second,
			Limit:    5,
		},
		Alerts: AlertsConfig{
			Sound:           true,
			DismissAfter:    10 * time.Second,
			Link:            "/jobs",
			AppName:         "jobalert",
			MarkReadOnClick: true,
		},
	}
}

// Load reads configuration from the given path and sets the data directory.
// If configPath is empty or doesn't exist, returns defaults with the provided dataDir.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.DataDir = dataDir

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}

			// Re-set dataDir since Unmarshal may have cleared it
			cfg.DataDir = dataDir
		}
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Server.Timeout == 0 {
		c.Server.Timeout = defaults.Server.Timeout
	}
	if c.Polling.Interval == 0 {
		c.Polling.Interval = defaults.Polling.Interval
	}
	if c.Polling.Limit == 0 {
		c.Polling.Limit = defaults.Polling.Limit
	}
	if c.Alerts.DismissAfter == 0 {
		c.Alerts.DismissAfter = defaults.Alerts.DismissAfter
	}
	if c.Alerts.Link == "" {
		c.Alerts.Link = defaults.Alerts.Link
	}
	if c.Alerts.AppName == "" {
		c.Alerts.AppName = defaults.Alerts.AppName
	}
}

// Validate checks that the configuration is structurally valid.
func (c *Config) Validate() error {
	if c.Server.BaseURL == "" {
		return fmt.Errorf("server.base_url cannot be empty")
	}

	if c.DataDir == "" {
		return fmt.Errorf("data directory cannot be empty")
	}

	if c.Polling.Interval < 0 {
		return fmt.Errorf("polling.interval cannot be negative")
	}

	if c.Polling.Limit < 0 {
		return fmt.Errorf("polling.limit cannot be negative")
	}

	return nil
}
