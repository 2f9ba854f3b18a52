// Package prefs persists user preferences that outlive a single run, currently
// the last chosen output folder, in a small INI file.
package prefs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/ini.v1"
)

const (
	sectionName     = "settings"
	outputFolderKey = "output_folder"
)

// Store wraps one preference file. Reads and writes are serialized.
type Store struct {
	path string

	mu   sync.Mutex
	file *ini.File
}

// Load opens the preference file at path. A missing file is not an error: the
// store starts empty and the file is created on the first Save.
func Load(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("preferences path is required")
	}
	file := ini.Empty()
	if _, err := os.Stat(path); err == nil {
		loaded, err := ini.Load(path)
		if err != nil {
			return nil, fmt.Errorf("parse preferences %q: %w", path, err)
		}
		file = loaded
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("stat preferences %q: %w", path, err)
	}
	return &Store{path: path, file: file}, nil
}

// Path returns the backing file location.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// OutputDir returns the persisted output folder, or the user's home directory
// when none has been saved.
func (s *Store) OutputDir() string {
	if s != nil {
		s.mu.Lock()
		value := strings.TrimSpace(s.file.Section(sectionName).Key(outputFolderKey).String())
		s.mu.Unlock()
		if value != "" {
			return value
		}
	}
	return homeDir()
}

// SetOutputDir records dir and writes the file. Other sections and keys in the
// file are preserved.
func (s *Store) SetOutputDir(dir string) error {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return errors.New("output directory is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.file.Section(sectionName).Key(outputFolderKey).SetValue(dir)
	return s.saveLocked()
}

func (s *Store) saveLocked() error {
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create preferences directory: %w", err)
		}
	}
	if err := s.file.SaveTo(s.path); err != nil {
		return fmt.Errorf("write preferences %q: %w", s.path, err)
	}
	return nil
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return home
}
