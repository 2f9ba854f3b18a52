package config

const (
	defaultStateDir        = "~/.local/share/stemsplit"
	defaultLogDir          = "~/.local/share/stemsplit/logs"
	defaultPreferencesFile = "~/.stemsplit.ini"
	defaultDemucsBinary    = "demucs"
	defaultDemucsModel     = "htdemucs"
	defaultDemucsDevice    = "cpu"
	defaultPythonBinary    = "python3"
	defaultProgressMode    = ProgressModeLive
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
	defaultRequestTimeout  = 10
	defaultHistoryEnabled  = true
)

var defaultAudioExtensions = []string{".mp3", ".wav"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir:        defaultStateDir,
			LogDir:          defaultLogDir,
			PreferencesFile: defaultPreferencesFile,
		},
		Demucs: Demucs{
			Binary:          defaultDemucsBinary,
			Model:           defaultDemucsModel,
			Device:          defaultDemucsDevice,
			PythonBinary:    defaultPythonBinary,
			ProgressMode:    defaultProgressMode,
			AudioExtensions: append([]string(nil), defaultAudioExtensions...),
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Notifications: Notifications{
			RequestTimeout: defaultRequestTimeout,
		},
		History: History{
			Enabled: defaultHistoryEnabled,
		},
	}
}
