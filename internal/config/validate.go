package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateAPI(); err != nil {
		return err
	}
	if err := c.validateSync(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateAPI() error {
	if c.API.BaseURL == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/jobsync/config.toml"
		}
		return fmt.Errorf("api.base_url is required. Edit %s (create with 'jobsync config init')", defaultPath)
	}
	parsed, err := url.Parse(c.API.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("api.base_url %q is not a valid URL", c.API.BaseURL)
	}
	if c.API.RequestTimeout <= 0 {
		return errors.New("api.request_timeout must be positive")
	}
	return nil
}

func (c *Config) validateSync() error {
	if c.Sync.RetryAttempts < 1 {
		return errors.New("sync.retry_attempts must be at least 1")
	}
	if c.Sync.RetryDelaySeconds < 0 {
		return errors.New("sync.retry_delay_seconds must not be negative")
	}
	if c.Sync.VideoRetryCap < 1 {
		return errors.New("sync.video_retry_cap must be at least 1")
	}
	if c.Sync.PollInterval < 1 {
		return errors.New("sync.poll_interval must be at least 1")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be \"text\" or \"json\", got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
	return nil
}
