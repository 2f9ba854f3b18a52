package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"stemsplit/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// History is disabled unless WithHistory is supplied.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.PreferencesFile = filepath.Join(base, "prefs.ini")
	cfgVal.History.Enabled = false

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithHistory enables the sqlite job history.
func WithHistory() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.History.Enabled = true
	}
}

// WithProgressMode sets demucs.progress_mode.
func WithProgressMode(mode string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Demucs.ProgressMode = mode
	}
}

// WithDemucsScript writes an executable shell script as the demucs binary
// and points the config at it.
func WithDemucsScript(body string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Demucs.Binary = WriteStubScript(b.t, filepath.Join(b.baseDir, "bin"), "demucs", body)
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, demucs and python3 are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"demucs", "python3"}
		}
		binDir := filepath.Join(b.baseDir, "stubs")
		for _, name := range names {
			WriteStubScript(b.t, binDir, name, "exit 0\n")
		}
		b.t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
