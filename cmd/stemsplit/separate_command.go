package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"stemsplit/internal/audiometa"
	"stemsplit/internal/config"
	"stemsplit/internal/logging"
	"stemsplit/internal/preflight"
	"stemsplit/internal/runner"
	"stemsplit/internal/separation"
)

// progressPrintStep limits headless progress output to 10% steps.
const progressPrintStep = 10

func newSeparateCommand(ctx *commandContext) *cobra.Command {
	var fourStems bool
	var format string
	var output string

	cmd := &cobra.Command{
		Use:   "separate <file>",
		Short: "Separate an audio file into stems",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := ctx.ensurePrefs()
			if err != nil {
				return err
			}

			outFormat, err := separation.ParseFormat(format)
			if err != nil {
				return err
			}
			mode := separation.TwoStem
			if fourStems {
				mode = separation.FourStem
			}
			outputDir := strings.TrimSpace(output)
			if outputDir == "" {
				outputDir = store.OutputDir()
			}
			outputDir, err = config.ExpandPath(outputDir)
			if err != nil {
				return fmt.Errorf("resolve output directory: %w", err)
			}
			req, err := separation.NewRequest(args[0], outputDir, mode, outFormat)
			if err != nil {
				return err
			}
			if !cfg.IsAudioFile(req.InputPath()) {
				return fmt.Errorf("%s is not a supported audio file (allowed: %s)", req.InputPath(), strings.Join(cfg.Demucs.AudioExtensions, ", "))
			}

			logger, err := ctx.logger(false)
			if err != nil {
				return err
			}
			stderr := cmd.ErrOrStderr()
			for _, check := range preflight.Failed(preflight.RunAll(cmd.Context(), cfg, req.OutputDir())) {
				fmt.Fprintln(stderr, renderStatusLine(check.Name, statusWarn, check.Detail, shouldColorize(stderr)))
			}

			r, cleanup, err := ctx.newRunner(cmd.Context(), logger)
			if err != nil {
				return err
			}
			defer cleanup()

			out := cmd.OutOrStdout()
			if info, err := audiometa.Read(req.InputPath()); err == nil {
				fmt.Fprintf(out, "Separating %s (%s, %s)\n", info.Label(), req.Mode(), req.Format())
				if info.Tagged {
					logger.Info("input metadata",
						logging.String("title", info.Title),
						logging.String("artist", info.Artist),
						logging.String("album", info.Album),
					)
				}
			}

			job, err := r.Start(cmd.Context(), req)
			if err != nil {
				return err
			}
			sampler := logging.NewProgressSampler(progressPrintStep)
			result := runner.Drain(job.Events(), runner.Callbacks{
				OnProgress: func(percent int) {
					if sampler.ShouldLog(percent) {
						fmt.Fprintf(out, "Progress: %d%%\n", percent)
					}
				},
			})

			fmt.Fprintln(out, result.Message)
			if !result.Success {
				return errSilentFailure
			}
			for _, stem := range result.Stems {
				fmt.Fprintf(out, "  %-12s %s\n", separation.StemLabel(stem), stem)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&fourStems, "four-stems", false, "Separate vocals, drums, bass, and other instead of vocals and instrumental")
	cmd.Flags().StringVar(&format, "format", string(separation.WAV), "Output format (wav or mp3)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output directory (defaults to the saved output folder)")
	return cmd
}
