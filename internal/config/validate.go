package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateDemucs(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateDemucs() error {
	switch c.Demucs.Device {
	case "cpu", "cuda", "mps":
	default:
		return fmt.Errorf("demucs.device must be cpu, cuda, or mps (got %q)", c.Demucs.Device)
	}
	switch c.Demucs.ProgressMode {
	case ProgressModeLive, ProgressModeBuffered:
	default:
		return fmt.Errorf("demucs.progress_mode must be %q or %q (got %q)", ProgressModeLive, ProgressModeBuffered, c.Demucs.ProgressMode)
	}
	if len(c.Demucs.AudioExtensions) == 0 {
		return errors.New("demucs.audio_extensions must list at least one extension")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json (got %q)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error (got %q)", c.Logging.Level)
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout < 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	if c.Notifications.NtfyTopic == "" {
		return nil
	}
	parsed, err := url.Parse(c.Notifications.NtfyTopic)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("notifications.ntfy_topic must be a full URL (got %q)", c.Notifications.NtfyTopic)
	}
	return nil
}
