// Package main hosts the stemsplit entrypoint and command graph.
//
// Run without arguments on a terminal, stemsplit opens the interactive shell.
// The Cobra subcommands expose the same job runner headlessly (separate), plus
// dependency checks and installation, preference and configuration tooling,
// and the job history. Configuration, preferences, logging, and the runner are
// resolved once per invocation by the command context.
package main
