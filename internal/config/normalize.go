package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeDemucs()
	c.normalizeLogging()
	c.normalizeNotifications()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.PreferencesFile) == "" {
		c.Paths.PreferencesFile = defaultPreferencesFile
	}
	if c.Paths.PreferencesFile, err = expandPath(c.Paths.PreferencesFile); err != nil {
		return fmt.Errorf("paths.preferences_file: %w", err)
	}
	return nil
}

func (c *Config) normalizeDemucs() {
	if value, ok := os.LookupEnv("STEMSPLIT_DEMUCS_BINARY"); ok && strings.TrimSpace(value) != "" {
		c.Demucs.Binary = value
	}
	if value, ok := os.LookupEnv("STEMSPLIT_DEVICE"); ok && strings.TrimSpace(value) != "" {
		c.Demucs.Device = value
	}
	c.Demucs.Binary = strings.TrimSpace(c.Demucs.Binary)
	if c.Demucs.Binary == "" {
		c.Demucs.Binary = defaultDemucsBinary
	}
	c.Demucs.Model = strings.TrimSpace(c.Demucs.Model)
	if c.Demucs.Model == "" {
		c.Demucs.Model = defaultDemucsModel
	}
	c.Demucs.Device = strings.ToLower(strings.TrimSpace(c.Demucs.Device))
	if c.Demucs.Device == "" {
		c.Demucs.Device = defaultDemucsDevice
	}
	c.Demucs.PythonBinary = strings.TrimSpace(c.Demucs.PythonBinary)
	if c.Demucs.PythonBinary == "" {
		c.Demucs.PythonBinary = defaultPythonBinary
	}
	c.Demucs.ProgressMode = strings.ToLower(strings.TrimSpace(c.Demucs.ProgressMode))
	if c.Demucs.ProgressMode == "" {
		c.Demucs.ProgressMode = defaultProgressMode
	}

	seen := make(map[string]struct{}, len(c.Demucs.AudioExtensions))
	exts := make([]string, 0, len(c.Demucs.AudioExtensions))
	for _, ext := range c.Demucs.AudioExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if _, dup := seen[ext]; dup {
			continue
		}
		seen[ext] = struct{}{}
		exts = append(exts, ext)
	}
	if len(exts) == 0 {
		exts = append(exts, defaultAudioExtensions...)
	}
	c.Demucs.AudioExtensions = exts
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch format {
	case "", "console", "text", "pretty":
		c.Logging.Format = "console"
	default:
		c.Logging.Format = format
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout == 0 {
		c.Notifications.RequestTimeout = defaultRequestTimeout
	}
}
