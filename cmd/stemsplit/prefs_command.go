package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"stemsplit/internal/config"
)

const prefOutputDir = "output-dir"

func newPrefsCommand(ctx *commandContext) *cobra.Command {
	prefsCmd := &cobra.Command{
		Use:   "prefs",
		Short: "Read or change saved preferences",
	}

	prefsCmd.AddCommand(&cobra.Command{
		Use:       "get output-dir",
		Short:     "Print a saved preference",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{prefOutputDir},
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.ensurePrefs()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), store.OutputDir())
			return nil
		},
	})

	prefsCmd.AddCommand(&cobra.Command{
		Use:   "set output-dir <value>",
		Short: "Save a preference",
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.ExactArgs(2)(cmd, args); err != nil {
				return err
			}
			if args[0] != prefOutputDir {
				return fmt.Errorf("unknown preference %q (supported: %s)", args[0], prefOutputDir)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.ensurePrefs()
			if err != nil {
				return err
			}
			dir, err := config.ExpandPath(args[1])
			if err != nil {
				return fmt.Errorf("resolve output directory: %w", err)
			}
			if err := store.SetOutputDir(dir); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Output folder set to %s\n", dir)
			return nil
		},
	})

	return prefsCmd
}
