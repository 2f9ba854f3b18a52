package tui

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"stemsplit/internal/audiometa"
	"stemsplit/internal/config"
	"stemsplit/internal/logging"
	"stemsplit/internal/outwatch"
	"stemsplit/internal/prefs"
	"stemsplit/internal/runner"
	"stemsplit/internal/separation"
)

// Starter launches separation jobs. *runner.Runner satisfies it.
type Starter interface {
	Start(ctx context.Context, req separation.Request) (*runner.Job, error)
}

// Options carries the shell's collaborators.
type Options struct {
	Config *config.Config
	Prefs  *prefs.Store
	Runner Starter
	// Detect reports whether the separation tool is usable.
	Detect func(context.Context) bool
	// Install runs the one-shot tool installation.
	Install func(context.Context) error
	Logger  *slog.Logger
	// StartDir is where the file picker opens; defaults to the working directory.
	StartDir string
}

type screen int

const (
	screenWelcome screen = iota
	screenChecking
	screenInstallPrompt
	screenInstalling
	screenMain
	screenRunning
	screenResult
	screenFatal
)

// Main screen focus order; tab cycles through it.
const (
	focusFile = iota
	focusOutput
	focusMode
	focusFormat
	focusStart
	focusCount
)

const (
	prefsSaveDelay   = 300 * time.Millisecond
	pickerHeight     = 10
	progressBarWidth = 50
	maxListedStems   = 8
)

const (
	msgSelectFile   = "Please select a file to process"
	msgToolRequired = "Demucs is required to use this application."
)

type model struct {
	// Framework exception: Bubble Tea owns the model lifecycle, so the
	// program context is stored here for commands that launch work.
	ctx context.Context //nolint:containedctx

	cfg     *config.Config
	prefs   *prefs.Store
	runner  Starter
	detect  func(context.Context) bool
	install func(context.Context) error
	logger  *slog.Logger

	screen        screen
	welcomeCancel bool
	fatalMsg      string

	focus    int
	picker   filepicker.Model
	output   textinput.Model
	bar      progress.Model
	selected string
	track    audiometa.Info
	mode     separation.Mode
	format   separation.Format
	status   string

	pendingSave bool
	savedOutput string

	job     *runner.Job
	watcher *outwatch.Watcher
	percent int
	stems   []string
	result  separation.Result

	width  int
	height int
}

type keyMap struct {
	Quit   key.Binding
	Next   key.Binding
	Prev   key.Binding
	Left   key.Binding
	Right  key.Binding
	Toggle key.Binding
	Start  key.Binding
	Yes    key.Binding
	No     key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("ctrl+c", "quit"),
	),
	Next: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next field"),
	),
	Prev: key.NewBinding(
		key.WithKeys("shift+tab"),
		key.WithHelp("shift+tab", "previous field"),
	),
	Left: key.NewBinding(
		key.WithKeys("left", "h"),
	),
	Right: key.NewBinding(
		key.WithKeys("right", "l"),
	),
	Toggle: key.NewBinding(
		key.WithKeys(" ", "enter"),
		key.WithHelp("space", "toggle"),
	),
	Start: key.NewBinding(
		key.WithKeys("ctrl+s"),
		key.WithHelp("ctrl+s", "start"),
	),
	Yes: key.NewBinding(
		key.WithKeys("y", "Y"),
	),
	No: key.NewBinding(
		key.WithKeys("n", "N"),
	),
}

var (
	accent = lipgloss.Color("#88C0D0")
	muted  = lipgloss.Color("#4C566A")
	warn   = lipgloss.Color("#BF616A")
	good   = lipgloss.Color("#A3BE8C")

	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(accent)
	sectionStyle = lipgloss.NewStyle().MarginTop(1).Foreground(lipgloss.Color("#81A1C1"))
	focusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#EBCB8B"))
	helpStyle    = lipgloss.NewStyle().Faint(true)
	statusStyle  = lipgloss.NewStyle().Foreground(warn)
	btnStyle     = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("#D8DEE9")).Background(lipgloss.Color("#434C5E"))
	btnOnStyle   = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("#2E3440")).Background(lipgloss.Color("#5E81AC"))
	modalStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(1, 2)
)

// New builds the shell model.
func New(ctx context.Context, opts Options) (tea.Model, error) {
	m, err := newModel(ctx, opts)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func newModel(ctx context.Context, opts Options) (model, error) {
	if opts.Config == nil || opts.Prefs == nil || opts.Runner == nil {
		return model{}, fmt.Errorf("tui requires config, preferences, and runner")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	detect := opts.Detect
	if detect == nil {
		detect = func(context.Context) bool { return true }
	}
	install := opts.Install
	if install == nil {
		install = func(context.Context) error { return fmt.Errorf("installation not available") }
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	picker := filepicker.New()
	picker.AllowedTypes = append([]string(nil), opts.Config.Demucs.AudioExtensions...)
	picker.AutoHeight = false
	picker.Height = pickerHeight
	if opts.StartDir != "" {
		picker.CurrentDirectory = opts.StartDir
	}

	output := textinput.New()
	output.Placeholder = "~/Music/stems"
	output.Prompt = ""
	output.CharLimit = 4096
	output.Width = 60
	outputDir := opts.Prefs.OutputDir()
	output.SetValue(outputDir)

	return model{
		ctx:         ctx,
		cfg:         opts.Config,
		prefs:       opts.Prefs,
		runner:      opts.Runner,
		detect:      detect,
		install:     install,
		logger:      logging.NewComponentLogger(logger, "tui"),
		screen:      screenWelcome,
		picker:      picker,
		output:      output,
		bar:         progress.New(progress.WithDefaultGradient(), progress.WithWidth(progressBarWidth)),
		mode:        separation.TwoStem,
		format:      separation.WAV,
		savedOutput: outputDir,
		percent:     0,
	}, nil
}

// Run starts the shell and blocks until the user quits.
func Run(ctx context.Context, opts Options) error {
	m, err := New(ctx, opts)
	if err != nil {
		return err
	}
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if fm, ok := final.(model); ok {
		fm.stopWatcher()
		fm.persistOutput()
	}
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

func (m model) Init() tea.Cmd {
	return nil
}
