package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/hay-kot/criterio"

	"github.com/nateberkopec/jobalert/internal/siteurl"
)

const (
	minInterval = time.Second
	maxLimit    = 100
)

// ValidateDeep runs Validate and then checks every field against the values
// the client can actually work with.
func (c *Config) ValidateDeep(configPath string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	return criterio.ValidateStruct(
		validateConfigFile(configPath),
		criterio.Run("server.base_url", c.Server.BaseURL, isSiteURL),
		criterio.Run("alerts.link", c.Alerts.Link, isLink),
		criterio.Run("data_dir", c.DataDir, isDirectoryOrNotExist),
		c.validateDurations(),
		c.validateLimit(),
	)
}

func (c *Config) validateDurations() error {
	var errs criterio.FieldErrorsBuilder
	if c.Polling.Interval < minInterval {
		errs = errs.Append("polling.interval", fmt.Errorf("must be at least %s, got %s", minInterval, c.Polling.Interval))
	}
	if c.Server.Timeout <= 0 {
		errs = errs.Append("server.timeout", fmt.Errorf("must be positive, got %s", c.Server.Timeout))
	}
	if c.Alerts.DismissAfter < 0 {
		errs = errs.Append("alerts.dismiss_after", fmt.Errorf("cannot be negative, got %s", c.Alerts.DismissAfter))
	}
	return errs.ToError()
}

func (c *Config) validateLimit() error {
	if c.Polling.Limit < 1 || c.Polling.Limit > maxLimit {
		return criterio.NewFieldErrors("polling.limit", fmt.Errorf("must be between 1 and %d, got %d", maxLimit, c.Polling.Limit))
	}
	return nil
}

func validateConfigFile(configPath string) error {
	if configPath == "" {
		return nil
	}

	info, err := os.Stat(configPath)
	if os.IsNotExist(err) {
		return nil // not found is fine, using defaults
	}
	if err != nil {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("cannot access: %w", err))
	}
	if info.IsDir() {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("%s is a directory, not a file", configPath))
	}
	return nil
}

func isSiteURL(raw string) error {
	_, err := siteurl.Parse(raw)
	return err
}

func isLink(raw string) error {
	if strings.HasPrefix(raw, "/") {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("must be a path or an http(s) URL: %q", raw)
	}
	return nil
}

func isDirectoryOrNotExist(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("cannot access: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	return nil
}

// LinkURL resolves the click-through link against the server.
func (c *Config) LinkURL() (string, error) {
	site, err := siteurl.Parse(c.Server.BaseURL)
	if err != nil {
		return "", err
	}
	return site.Link(c.Alerts.Link), nil
}
