package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"stemsplit/internal/deps"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	var install bool
	var assumeYes bool

	cmd := &cobra.Command{
		Use:   "deps",
		Short: "Check external dependencies and optionally install Demucs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			statuses := deps.CheckBinaries(deps.Requirements(cfg))
			fmt.Fprintln(out, renderDependencyTable(statuses))

			exec := deps.DefaultExecutor()
			if deps.DetectDemucs(cmd.Context(), exec, cfg.Demucs.Binary) {
				fmt.Fprintln(out, "Demucs is ready")
				return nil
			}
			if !install {
				fmt.Fprintln(out, "Demucs is required; run `stemsplit deps --install` to install it with pip")
				return errSilentFailure
			}
			if !assumeYes {
				fmt.Fprintf(out, "Install Demucs with %s -m pip now? (y/n) ", cfg.Demucs.PythonBinary)
				answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if !strings.EqualFold(strings.TrimSpace(answer), "y") && !strings.EqualFold(strings.TrimSpace(answer), "yes") {
					fmt.Fprintln(out, "Demucs is required to use this application.")
					return errSilentFailure
				}
			}

			logger, err := ctx.logger(false)
			if err != nil {
				return err
			}
			if err := deps.NewInstaller(cfg.Demucs.PythonBinary, exec, logger).Install(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(out, "Demucs installed")
			return nil
		},
	}

	cmd.Flags().BoolVar(&install, "install", false, "Install Demucs with pip when it is missing")
	cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Do not ask for confirmation before installing")
	return cmd
}

func renderDependencyTable(statuses []deps.Status) string {
	rows := make([][]string, 0, len(statuses))
	for _, status := range statuses {
		state := "ready"
		detail := status.Command
		if !status.Available {
			state = "missing"
			detail = status.Detail
		}
		rows = append(rows, []string{status.Name, state, yesNo(!status.Optional), detail, status.Description})
	}
	return renderTable(
		[]string{"Dependency", "Status", "Required", "Detail", "Purpose"},
		rows,
		nil,
	)
}
