// Package tui implements the interactive stemsplit shell on Bubble Tea.
//
// The shell walks the user through a welcome screen and a startup tool check
// (with an optional one-shot Demucs install), then presents the main screen:
// a file picker limited to the configured audio extensions, the output
// directory (persisted to the preference file as it is edited), mode and
// format choices, and a progress bar. Separation jobs run on the runner's
// worker goroutine; their events are drained here, on the Bubble Tea update
// loop, one message at a time.
package tui
