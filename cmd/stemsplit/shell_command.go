package main

import (
	"context"

	"github.com/spf13/cobra"

	"stemsplit/internal/deps"
	"stemsplit/internal/logging"
	"stemsplit/internal/tui"
)

func runShell(cmd *cobra.Command, ctx *commandContext) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	store, err := ctx.ensurePrefs()
	if err != nil {
		return err
	}
	logger, err := ctx.logger(true)
	if err != nil {
		return err
	}
	r, cleanup, err := ctx.newRunner(cmd.Context(), logger)
	if err != nil {
		return err
	}
	defer cleanup()

	exec := deps.DefaultExecutor()
	installer := deps.NewInstaller(cfg.Demucs.PythonBinary, exec, logger)
	logger.Info("shell started", logging.String("preferences", store.Path()))

	return tui.Run(cmd.Context(), tui.Options{
		Config: cfg,
		Prefs:  store,
		Runner: r,
		Detect: func(c context.Context) bool {
			return deps.DetectDemucs(c, exec, cfg.Demucs.Binary)
		},
		Install: installer.Install,
		Logger:  logger,
	})
}
