package tui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"stemsplit/internal/outwatch"
	"stemsplit/internal/prefs"
	"stemsplit/internal/runner"
	"stemsplit/internal/separation"
	"stemsplit/internal/services"
	"stemsplit/internal/testsupport"
)

type separatorFunc func(ctx context.Context, req separation.Request, onProgress func(int)) ([]string, error)

func (f separatorFunc) Separate(ctx context.Context, req separation.Request, onProgress func(int)) ([]string, error) {
	return f(ctx, req, onProgress)
}

type harness struct {
	m      model
	prefs  *prefs.Store
	calls  int
	input  string
	outDir string
}

func newHarness(t *testing.T, sep separatorFunc) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store, err := prefs.Load(cfg.Paths.PreferencesFile)
	if err != nil {
		t.Fatalf("prefs.Load: %v", err)
	}
	h := &harness{prefs: store}
	counting := separatorFunc(func(ctx context.Context, req separation.Request, onProgress func(int)) ([]string, error) {
		h.calls++
		if sep == nil {
			return nil, nil
		}
		return sep(ctx, req, onProgress)
	})
	r, err := runner.New(counting)
	if err != nil {
		t.Fatalf("runner.New: %v", err)
	}
	h.m, err = newModel(context.Background(), Options{
		Config:   cfg,
		Prefs:    store,
		Runner:   r,
		StartDir: testsupport.BaseDir(cfg),
	})
	if err != nil {
		t.Fatalf("newModel: %v", err)
	}
	h.input = filepath.Join(testsupport.BaseDir(cfg), "song.wav")
	testsupport.WriteFile(t, h.input, 64)
	h.outDir = filepath.Join(testsupport.BaseDir(cfg), "out")
	h.m.output.SetValue(h.outDir)
	h.m.output.CursorEnd()
	h.m.screen = screenMain
	return h
}

func (h *harness) send(t *testing.T, msg tea.Msg) tea.Cmd {
	t.Helper()
	next, cmd := h.m.Update(msg)
	m, ok := next.(model)
	if !ok {
		t.Fatalf("unexpected model type %T", next)
	}
	h.m = m
	return cmd
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "space":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestWelcomeCancelQuits(t *testing.T) {
	h := newHarness(t, nil)
	h.m.screen = screenWelcome
	h.send(t, keyMsg("right"))
	if !h.m.welcomeCancel {
		t.Fatal("expected Cancel to be highlighted")
	}
	if cmd := h.send(t, keyMsg("enter")); !isQuit(cmd) {
		t.Fatal("expected Cancel to quit")
	}
}

func TestToolCheckDeclinedInstallExits(t *testing.T) {
	h := newHarness(t, nil)
	h.m.screen = screenWelcome
	h.m.detect = func(context.Context) bool { return false }

	cmd := h.send(t, keyMsg("enter"))
	if h.m.screen != screenChecking || cmd == nil {
		t.Fatalf("expected tool check, screen=%v", h.m.screen)
	}
	h.send(t, cmd())
	if h.m.screen != screenInstallPrompt {
		t.Fatalf("expected install prompt, got %v", h.m.screen)
	}
	h.send(t, keyMsg("n"))
	if h.m.screen != screenFatal || h.m.fatalMsg != msgToolRequired {
		t.Fatalf("unexpected state screen=%v msg=%q", h.m.screen, h.m.fatalMsg)
	}
	if !strings.Contains(h.m.View(), "Demucs is required") {
		t.Fatal("fatal message not rendered")
	}
	if cmd := h.send(t, keyMsg("x")); !isQuit(cmd) {
		t.Fatal("expected any key to exit")
	}
}

func TestInstallOutcomes(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		h := newHarness(t, nil)
		h.m.screen = screenInstallPrompt
		installs := 0
		h.m.install = func(context.Context) error { installs++; return nil }
		cmd := h.send(t, keyMsg("y"))
		if h.m.screen != screenInstalling {
			t.Fatalf("expected installing screen, got %v", h.m.screen)
		}
		h.send(t, cmd())
		if installs != 1 || h.m.screen != screenMain {
			t.Fatalf("installs=%d screen=%v", installs, h.m.screen)
		}
	})
	t.Run("failure", func(t *testing.T) {
		h := newHarness(t, nil)
		h.m.screen = screenInstallPrompt
		h.m.install = func(context.Context) error {
			return services.Wrap(services.ErrInstallFailed, "install", "pip install demucs", errors.New("no network"))
		}
		cmd := h.send(t, keyMsg("y"))
		h.send(t, cmd())
		if h.m.screen != screenFatal || !strings.Contains(h.m.fatalMsg, "no network") {
			t.Fatalf("unexpected state screen=%v msg=%q", h.m.screen, h.m.fatalMsg)
		}
	})
}

func TestStartWithoutFileShowsPrompt(t *testing.T) {
	h := newHarness(t, nil)
	h.send(t, keyMsg("ctrl+s"))
	if h.m.status != msgSelectFile {
		t.Fatalf("expected %q, got %q", msgSelectFile, h.m.status)
	}
	if h.m.screen != screenMain || h.calls != 0 {
		t.Fatalf("job should not start: screen=%v calls=%d", h.m.screen, h.calls)
	}
}

func TestModeAndFormatToggles(t *testing.T) {
	h := newHarness(t, nil)
	h.send(t, keyMsg("tab"))
	h.send(t, keyMsg("tab"))
	if h.m.focus != focusMode {
		t.Fatalf("expected mode focus, got %d", h.m.focus)
	}
	h.send(t, keyMsg("space"))
	if h.m.mode != separation.FourStem {
		t.Fatalf("expected four-stem, got %s", h.m.mode)
	}
	h.send(t, keyMsg("tab"))
	h.send(t, keyMsg("right"))
	if h.m.format != separation.MP3 {
		t.Fatalf("expected mp3, got %s", h.m.format)
	}
	h.send(t, keyMsg("right"))
	if h.m.format != separation.WAV {
		t.Fatalf("expected wav after second toggle, got %s", h.m.format)
	}
}

func TestOutputFolderPersisted(t *testing.T) {
	h := newHarness(t, nil)
	h.send(t, keyMsg("tab"))
	if h.m.focus != focusOutput {
		t.Fatalf("expected output focus, got %d", h.m.focus)
	}
	cmd := h.send(t, keyMsg("2"))
	if cmd == nil || !h.m.pendingSave {
		t.Fatal("expected a scheduled save")
	}
	h.send(t, prefsSaveMsg{})
	if h.m.pendingSave {
		t.Fatal("pending save not cleared")
	}

	reloaded, err := prefs.Load(h.prefs.Path())
	if err != nil {
		t.Fatalf("prefs.Load: %v", err)
	}
	if got := reloaded.OutputDir(); got != h.outDir+"2" {
		t.Fatalf("expected persisted %q, got %q", h.outDir+"2", got)
	}
}

func runToCompletion(t *testing.T, h *harness) {
	t.Helper()
	cmd := h.send(t, keyMsg("ctrl+s"))
	if h.m.screen != screenRunning || h.m.job == nil || cmd == nil {
		t.Fatalf("job not started: screen=%v status=%q", h.m.screen, h.m.status)
	}
	job := h.m.job
	for h.m.screen == screenRunning {
		h.send(t, waitForEvent(job.Events())())
	}
}

func TestSuccessfulJobShowsResult(t *testing.T) {
	var seen []int
	h := newHarness(t, func(_ context.Context, req separation.Request, onProgress func(int)) ([]string, error) {
		for _, p := range []int{10, 55, 100} {
			onProgress(p)
		}
		dir := filepath.Join(req.OutputDir(), "htdemucs", req.TrackName())
		return []string{filepath.Join(dir, "no_vocals.wav"), filepath.Join(dir, "vocals.wav")}, nil
	})
	h.m.selectFile(h.input)
	if h.m.track.Title != "song" {
		t.Fatalf("expected fallback title, got %q", h.m.track.Title)
	}

	cmd := h.send(t, keyMsg("ctrl+s"))
	job := h.m.job
	if job == nil || cmd == nil {
		t.Fatalf("job not started: %q", h.m.status)
	}
	for h.m.screen == screenRunning {
		h.send(t, waitForEvent(job.Events())())
		if h.m.screen == screenRunning {
			seen = append(seen, h.m.percent)
		}
	}
	if len(seen) != 3 || seen[0] != 10 || seen[1] != 55 || seen[2] != 100 {
		t.Fatalf("unexpected progress sequence %v", seen)
	}
	if h.m.screen != screenResult || !h.m.result.Success {
		t.Fatalf("expected success modal, got screen=%v result=%+v", h.m.screen, h.m.result)
	}
	if h.m.watcher != nil {
		t.Fatal("watcher should be stopped after completion")
	}
	view := h.m.View()
	if !strings.Contains(view, "Files saved to: "+h.outDir) || !strings.Contains(view, "No Vocals") {
		t.Fatalf("result view missing details:\n%s", view)
	}

	h.send(t, keyMsg("enter"))
	if h.m.screen != screenMain {
		t.Fatalf("expected main screen after dismiss, got %v", h.m.screen)
	}
	if _, err := os.Stat(h.prefs.Path()); err != nil {
		t.Fatalf("expected output folder to be saved on start: %v", err)
	}
}

func TestFailedJobShowsMessage(t *testing.T) {
	h := newHarness(t, func(context.Context, separation.Request, func(int)) ([]string, error) {
		return nil, services.Wrap(services.ErrToolFailed, "demucs", "exit status 1", errors.New("disk full"))
	})
	h.m.selectFile(h.input)
	runToCompletion(t, h)
	if h.m.result.Success || !strings.Contains(h.m.result.Message, "disk full") {
		t.Fatalf("unexpected result %+v", h.m.result)
	}
	if !strings.Contains(h.m.View(), "Separation failed") {
		t.Fatal("failure modal not rendered")
	}
}

func TestStartWhileBusyIsRejected(t *testing.T) {
	release := make(chan struct{})
	h := newHarness(t, func(context.Context, separation.Request, func(int)) ([]string, error) {
		<-release
		return nil, nil
	})
	h.m.selectFile(h.input)
	h.send(t, keyMsg("ctrl+s"))
	job := h.m.job
	if job == nil {
		t.Fatalf("first job not started: %q", h.m.status)
	}

	// A second shell sharing the runner cannot start another job.
	other := h.m
	other.screen = screenMain
	other.job = nil
	next, _ := other.Update(keyMsg("ctrl+s"))
	if got := next.(model).status; got != runner.ErrBusy.Error() {
		t.Fatalf("expected busy status, got %q", got)
	}

	close(release)
	for h.m.screen == screenRunning {
		h.send(t, waitForEvent(job.Events())())
	}
}

func TestUnsupportedFileRejected(t *testing.T) {
	h := newHarness(t, nil)
	h.m.selectFile(filepath.Join(t.TempDir(), "notes.txt"))
	if h.m.selected != "" || !strings.Contains(h.m.status, "not a supported audio file") {
		t.Fatalf("unexpected selection %q status %q", h.m.selected, h.m.status)
	}
}

// runBatch runs every command in cmd concurrently and delivers their messages
// on the returned channel.
func runBatch(t *testing.T, cmd tea.Cmd) <-chan tea.Msg {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	cmds := []tea.Cmd{cmd}
	if batch, ok := cmd().(tea.BatchMsg); ok {
		cmds = batch
	}
	msgs := make(chan tea.Msg, len(cmds))
	for _, c := range cmds {
		if c == nil {
			continue
		}
		go func(c tea.Cmd) { msgs <- c() }(c)
	}
	return msgs
}

func nextMsg[T tea.Msg](t *testing.T, msgs <-chan tea.Msg) T {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case msg := <-msgs:
			if typed, ok := msg.(T); ok {
				return typed
			}
		case <-timeout:
			var zero T
			t.Fatalf("timed out waiting for %T", zero)
			return zero
		}
	}
}

func TestStemsListedWithoutProgressOutput(t *testing.T) {
	ready := make(chan struct{})
	release := make(chan struct{})
	var stem string
	h := newHarness(t, func(_ context.Context, req separation.Request, _ func(int)) ([]string, error) {
		<-ready
		if err := os.MkdirAll(filepath.Dir(stem), 0o755); err != nil {
			return nil, err
		}
		if err := os.WriteFile(stem, []byte("RIFF"), 0o644); err != nil {
			return nil, err
		}
		<-release
		return []string{stem}, nil
	})
	stem = filepath.Join(h.outDir, h.m.cfg.Demucs.Model, "song", "vocals.wav")
	h.m.selectFile(h.input)

	msgs := runBatch(t, h.send(t, keyMsg("ctrl+s")))
	if h.m.screen != screenRunning || h.m.job == nil {
		t.Fatalf("job not started: %q", h.m.status)
	}
	started := nextMsg[watchStartedMsg](t, msgs)
	h.send(t, started)
	if h.m.watcher == nil {
		t.Fatal("watcher not adopted for the running job")
	}
	if got := len(h.m.watcher.Watched()); got > 2 {
		t.Fatalf("watch should cover only the model and track directories, got %v", h.m.watcher.Watched())
	}

	close(ready)
	found := nextMsg[stemFoundMsg](t, runBatch(t, waitForStem(h.m.watcher)))
	if cmd := h.send(t, found); cmd == nil {
		t.Fatal("expected the watch to continue")
	}
	if h.m.percent != 0 || len(h.m.stems) != 1 || h.m.stems[0] != stem {
		t.Fatalf("expected live stem with no progress, percent=%d stems=%v", h.m.percent, h.m.stems)
	}
	if !strings.Contains(h.m.View(), "Stems written") {
		t.Fatalf("running view missing stem:\n%s", h.m.View())
	}

	close(release)
	h.send(t, nextMsg[jobEventMsg](t, msgs))
	if h.m.screen != screenResult || !h.m.result.Success || h.m.watcher != nil {
		t.Fatalf("unexpected state screen=%v result=%+v", h.m.screen, h.m.result)
	}
}

func TestLateWatchIsClosed(t *testing.T) {
	h := newHarness(t, nil)
	w, err := outwatch.New(filepath.Join(h.outDir, "htdemucs"), "song", []string{".wav"})
	if err != nil {
		t.Fatalf("outwatch.New: %v", err)
	}
	h.send(t, watchStartedMsg{jobID: "finished", watcher: w})
	if h.m.watcher != nil {
		t.Fatal("watcher adopted without a running job")
	}
	select {
	case _, ok := <-w.Files():
		if ok {
			t.Fatal("unexpected stem from a closed watch")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("late watcher was not closed")
	}
}

func TestWatchErrorKeepsWatching(t *testing.T) {
	h := newHarness(t, nil)
	w, err := outwatch.New(filepath.Join(h.outDir, "htdemucs"), "song", []string{".wav"})
	if err != nil {
		t.Fatalf("outwatch.New: %v", err)
	}
	defer w.Close()
	h.m.watcher = w
	if cmd := h.send(t, stemWatchErrMsg{err: errors.New("queue overflow")}); cmd == nil {
		t.Fatal("expected the watch to be re-armed after an error")
	}
	h.m.watcher = nil
	if cmd := h.send(t, stemWatchErrMsg{err: errors.New("queue overflow")}); cmd != nil {
		t.Fatal("errors after the watch stopped should be ignored")
	}
}
