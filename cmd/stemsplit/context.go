package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"stemsplit/internal/config"
	"stemsplit/internal/history"
	"stemsplit/internal/logging"
	"stemsplit/internal/notifications"
	"stemsplit/internal/prefs"
	"stemsplit/internal/runner"
	"stemsplit/internal/services/demucs"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	prefsOnce sync.Once
	prefs     *prefs.Store
	prefsErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
	}
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensurePrefs() (*prefs.Store, error) {
	c.prefsOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.prefsErr = err
			return
		}
		c.prefs, c.prefsErr = prefs.Load(cfg.Paths.PreferencesFile)
	})
	return c.prefs, c.prefsErr
}

// logger builds the process logger. fileOnly keeps log output off the
// terminal, which the interactive shell owns.
func (c *commandContext) logger(fileOnly bool) (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := logging.NewFromConfig(cfg, fileOnly)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return logger, nil
}

// newRunner wires the Demucs client, history, notifications, and the process
// lock into a runner. The returned cleanup closes the history database.
func (c *commandContext) newRunner(ctx context.Context, logger *slog.Logger) (*runner.Runner, func(), error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	client, err := demucs.New(
		cfg.Demucs.Binary,
		cfg.Demucs.Model,
		cfg.Demucs.Device,
		demucs.WithBufferedProgress(cfg.BufferedProgress()),
	)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("demucs client ready",
		logging.String("binary", client.Binary()),
		logging.String("model", client.Model()),
		logging.Bool("buffered_progress", cfg.BufferedProgress()),
	)

	opts := []runner.Option{
		runner.WithLogger(logger),
		runner.WithLockFile(cfg.LockPath()),
		runner.WithNotifier(notifications.NewService(cfg)),
	}
	cleanup := func() {}
	if cfg.History.Enabled {
		store, err := history.Open(cfg.HistoryPath())
		if err != nil {
			return nil, nil, err
		}
		if n, err := store.ResetInterrupted(ctx); err != nil {
			logger.Warn("failed to reset interrupted jobs", logging.Error(err))
		} else if n > 0 {
			logger.Info("marked interrupted jobs as failed", logging.Int("count", int(n)))
		}
		opts = append(opts, runner.WithRecorder(store))
		cleanup = func() {
			if err := store.Close(); err != nil {
				logger.Warn("failed to close history", logging.Error(err))
			}
		}
	}

	r, err := runner.New(client, opts...)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return r, cleanup, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
