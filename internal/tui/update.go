package tui

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"stemsplit/internal/audiometa"
	"stemsplit/internal/config"
	"stemsplit/internal/logging"
	"stemsplit/internal/runner"
	"stemsplit/internal/separation"
)

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.bar.Width = max(10, min(progressBarWidth, msg.Width-8))
		return m, nil

	case toolCheckMsg:
		if msg.available {
			return m.enterMain()
		}
		m.screen = screenInstallPrompt
		return m, nil

	case installDoneMsg:
		if msg.err != nil {
			m.logger.Error("demucs installation failed", logging.Error(msg.err))
			m.screen = screenFatal
			m.fatalMsg = "Installation failed: " + msg.err.Error()
			return m, nil
		}
		m.logger.Info("demucs installed")
		return m.enterMain()

	case prefsSaveMsg:
		m.pendingSave = false
		m.persistOutput()
		return m, nil

	case jobEventMsg:
		return m.handleJobEvent(msg)

	case stemFoundMsg:
		if m.watcher == nil {
			return m, nil
		}
		if !slices.Contains(m.stems, msg.path) {
			m.stems = append(m.stems, msg.path)
		}
		return m, waitForStem(m.watcher)

	case stemWatchDoneMsg:
		return m, nil

	case stemWatchErrMsg:
		if m.watcher == nil {
			return m, nil
		}
		m.logger.Warn("output watch error", logging.Error(msg.err))
		return m, waitForStem(m.watcher)

	case watchStartedMsg:
		if m.job == nil || m.job.ID != msg.jobID || m.watcher != nil {
			if err := msg.watcher.Close(); err != nil {
				m.logger.Warn("failed to stop output watch", logging.Error(err))
			}
			return m, nil
		}
		m.watcher = msg.watcher
		return m, waitForStem(m.watcher)

	case watchFailedMsg:
		m.logger.Warn("output watch unavailable", logging.String("output_dir", msg.dir), logging.Error(msg.err))
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			m.stopWatcher()
			m.persistOutput()
			return m, tea.Quit
		}
		switch m.screen {
		case screenWelcome:
			return m.updateWelcome(msg)
		case screenInstallPrompt:
			return m.updateInstallPrompt(msg)
		case screenMain:
			return m.updateMain(msg)
		case screenResult:
			return m.updateResult(msg)
		case screenFatal:
			return m, tea.Quit
		}
		return m, nil
	}

	// Directory listings and other picker-internal messages.
	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	return m, cmd
}

func (m model) updateWelcome(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Left), key.Matches(msg, keys.Right), key.Matches(msg, keys.Next), key.Matches(msg, keys.Prev):
		m.welcomeCancel = !m.welcomeCancel
	case msg.String() == "enter":
		if m.welcomeCancel {
			return m, tea.Quit
		}
		m.screen = screenChecking
		return m, checkTool(m.ctx, m.detect)
	case msg.String() == "esc", msg.String() == "q":
		return m, tea.Quit
	}
	return m, nil
}

func (m model) updateInstallPrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Yes):
		m.screen = screenInstalling
		m.logger.Info("installing demucs")
		return m, runInstall(m.ctx, m.install)
	case key.Matches(msg, keys.No):
		m.screen = screenFatal
		m.fatalMsg = msgToolRequired
	}
	return m, nil
}

func (m model) enterMain() (tea.Model, tea.Cmd) {
	m.screen = screenMain
	m.focus = focusFile
	return m, m.picker.Init()
}

func (m model) updateMain(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Start):
		return m.startJob()
	case key.Matches(msg, keys.Next):
		m.setFocus((m.focus + 1) % focusCount)
		return m, nil
	case key.Matches(msg, keys.Prev):
		m.setFocus((m.focus + focusCount - 1) % focusCount)
		return m, nil
	}

	switch m.focus {
	case focusFile:
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		if ok, path := m.picker.DidSelectFile(msg); ok {
			m.selectFile(path)
		} else if ok, path := m.picker.DidSelectDisabledFile(msg); ok {
			m.status = fmt.Sprintf("%s is not a supported audio file", filepath.Base(path))
		}
		return m, cmd

	case focusOutput:
		before := m.output.Value()
		var cmd tea.Cmd
		m.output, cmd = m.output.Update(msg)
		if m.output.Value() != before && !m.pendingSave {
			m.pendingSave = true
			return m, tea.Batch(cmd, schedulePrefsSave())
		}
		return m, cmd

	case focusMode:
		if key.Matches(msg, keys.Left, keys.Right, keys.Toggle) {
			if m.mode == separation.TwoStem {
				m.mode = separation.FourStem
			} else {
				m.mode = separation.TwoStem
			}
		}

	case focusFormat:
		if key.Matches(msg, keys.Left, keys.Right, keys.Toggle) {
			if m.format == separation.WAV {
				m.format = separation.MP3
			} else {
				m.format = separation.WAV
			}
		}

	case focusStart:
		if key.Matches(msg, keys.Toggle) {
			return m.startJob()
		}
	}
	return m, nil
}

func (m model) updateResult(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc", " ":
		m.screen = screenMain
		m.status = ""
	}
	return m, nil
}

func (m *model) setFocus(focus int) {
	m.focus = focus
	if focus == focusOutput {
		m.output.Focus()
		return
	}
	m.output.Blur()
}

func (m *model) selectFile(path string) {
	if !m.cfg.IsAudioFile(path) {
		m.status = fmt.Sprintf("%s is not a supported audio file", filepath.Base(path))
		return
	}
	m.selected = path
	m.status = ""
	info, err := audiometa.Read(path)
	if err != nil {
		m.logger.Warn("audio metadata unavailable", logging.String("input_path", path), logging.Error(err))
	}
	m.track = info
}

func (m model) startJob() (tea.Model, tea.Cmd) {
	if m.selected == "" {
		m.status = msgSelectFile
		return m, nil
	}
	outputDir := strings.TrimSpace(m.output.Value())
	if outputDir == "" {
		outputDir = m.prefs.OutputDir()
		m.output.SetValue(outputDir)
	}
	expanded, err := config.ExpandPath(outputDir)
	if err != nil {
		m.status = err.Error()
		return m, nil
	}
	req, err := separation.NewRequest(m.selected, expanded, m.mode, m.format)
	if err != nil {
		m.status = err.Error()
		return m, nil
	}
	m.persistOutput()

	job, err := m.runner.Start(m.ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, runner.ErrBusy), errors.Is(err, runner.ErrLocked):
			m.status = err.Error()
		default:
			m.status = "Failed to start separation: " + err.Error()
		}
		m.logger.Warn("separation not started", logging.Error(err))
		return m, nil
	}

	if m.track.Title != "" {
		m.logger.Info("separating track",
			logging.String("track", m.track.Label()),
			logging.String("album", m.track.Album),
		)
	}
	m.job = job
	m.screen = screenRunning
	m.status = ""
	m.percent = 0
	m.stems = nil
	m.result = separation.Result{}
	modelDir := filepath.Join(req.OutputDir(), m.cfg.Demucs.Model)
	return m, tea.Batch(
		waitForEvent(job.Events()),
		startWatch(job.ID, modelDir, req.TrackName(), []string{"." + string(req.Format())}),
	)
}

func (m model) handleJobEvent(msg jobEventMsg) (tea.Model, tea.Cmd) {
	if !msg.ok || m.job == nil || msg.event.JobID != m.job.ID {
		return m, nil
	}
	var cmds []tea.Cmd
	runner.Callbacks{
		OnProgress: func(percent int) {
			m.percent = percent
			cmds = append(cmds, waitForEvent(m.job.Events()))
		},
		OnComplete: func(result separation.Result) {
			m.stopWatcher()
			m.result = result
			if result.Success {
				m.percent = 100
				m.stems = result.Stems
			}
			m.job = nil
			m.screen = screenResult
		},
	}.Apply(msg.event)
	return m, tea.Batch(cmds...)
}

func (m *model) stopWatcher() {
	if m.watcher == nil {
		return
	}
	if err := m.watcher.Close(); err != nil {
		m.logger.Warn("failed to stop output watch", logging.Error(err))
	}
	m.watcher = nil
}

// persistOutput writes the output directory to the preference file when it
// differs from the last saved value.
func (m *model) persistOutput() {
	value := strings.TrimSpace(m.output.Value())
	if value == "" || value == m.savedOutput {
		return
	}
	if err := m.prefs.SetOutputDir(value); err != nil {
		m.logger.Warn("failed to save output folder", logging.Error(err))
		m.status = "Could not save output folder: " + err.Error()
		return
	}
	m.savedOutput = value
}
