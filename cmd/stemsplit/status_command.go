package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"stemsplit/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Run preflight checks for directories, tools, and notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := ctx.ensurePrefs()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			for _, line := range renderSectionHeader("Preflight", colorize) {
				fmt.Fprintln(out, line)
			}
			results := preflight.RunAll(cmd.Context(), cfg, store.OutputDir())
			for _, result := range results {
				kind := statusOK
				if !result.Passed {
					kind = statusError
				}
				fmt.Fprintln(out, renderStatusLine(result.Name, kind, result.Detail, colorize))
			}

			failed := preflight.Failed(results)
			if len(failed) == 0 {
				return nil
			}
			names := make([]string, 0, len(failed))
			for _, result := range failed {
				names = append(names, result.Name)
			}
			fmt.Fprintln(out, renderStatusLine("Failed checks", statusWarn, strings.Join(names, ", "), colorize))
			return errSilentFailure
		},
	}
}
