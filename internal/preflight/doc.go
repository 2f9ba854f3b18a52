// Package preflight runs quick environment checks before a separation: the
// state and output directories are usable, the tools are on PATH, and the
// notification endpoint answers when one is configured.
package preflight
