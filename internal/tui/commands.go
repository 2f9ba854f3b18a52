package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"stemsplit/internal/outwatch"
	"stemsplit/internal/runner"
)

type toolCheckMsg struct {
	available bool
}

type installDoneMsg struct {
	err error
}

type prefsSaveMsg struct{}

type jobEventMsg struct {
	event runner.Event
	ok    bool
}

type stemFoundMsg struct {
	path string
}

type stemWatchDoneMsg struct{}

type stemWatchErrMsg struct {
	err error
}

type watchStartedMsg struct {
	jobID   string
	watcher *outwatch.Watcher
}

type watchFailedMsg struct {
	dir string
	err error
}

func checkTool(ctx context.Context, detect func(context.Context) bool) tea.Cmd {
	return func() tea.Msg {
		return toolCheckMsg{available: detect(ctx)}
	}
}

func runInstall(ctx context.Context, install func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return installDoneMsg{err: install(ctx)}
	}
}

func schedulePrefsSave() tea.Cmd {
	return tea.Tick(prefsSaveDelay, func(time.Time) tea.Msg { return prefsSaveMsg{} })
}

// waitForEvent blocks on the job channel off the update loop; the event is
// applied when Update receives the message.
func waitForEvent(events <-chan runner.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		return jobEventMsg{event: ev, ok: ok}
	}
}

// startWatch sets up the output watch off the update loop. The watcher is
// only adopted if jobID is still the running job.
func startWatch(jobID, modelDir, track string, exts []string) tea.Cmd {
	return func() tea.Msg {
		w, err := outwatch.New(modelDir, track, exts)
		if err != nil {
			return watchFailedMsg{dir: modelDir, err: err}
		}
		return watchStartedMsg{jobID: jobID, watcher: w}
	}
}

func waitForStem(w *outwatch.Watcher) tea.Cmd {
	files, errs := w.Files(), w.Errors()
	return func() tea.Msg {
		select {
		case path, ok := <-files:
			if !ok {
				return stemWatchDoneMsg{}
			}
			return stemFoundMsg{path: path}
		case err := <-errs:
			return stemWatchErrMsg{err: err}
		}
	}
}
