// Package outwatch reports stem files as Demucs writes them, so the shell can
// list stems before the run finishes.
package outwatch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher follows the model directory of one separation and emits the paths
// of new files with one of the watched extensions inside the track
// directory. Each path is emitted once.
type Watcher struct {
	modelDir string
	trackDir string
	exts     map[string]struct{}
	fs       *fsnotify.Watcher
	files    chan string
	errs     chan error
	done     chan struct{}

	mu        sync.Mutex
	seen      map[string]struct{}
	closeOnce sync.Once
}

// New watches modelDir (created if missing) for the track directory Demucs
// writes into, and that directory once it exists. Nothing else below
// modelDir is watched.
func New(modelDir, track string, exts []string) (*Watcher, error) {
	track = strings.TrimSpace(track)
	if track == "" || track != filepath.Base(track) {
		return nil, fmt.Errorf("invalid track name %q", track)
	}
	if err := os.MkdirAll(modelDir, 0o755); err != nil {
		return nil, fmt.Errorf("create model directory: %w", err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	w := &Watcher{
		modelDir: filepath.Clean(modelDir),
		trackDir: filepath.Join(modelDir, track),
		exts:     make(map[string]struct{}, len(exts)),
		fs:       fsw,
		files:    make(chan string, 16),
		errs:     make(chan error, 1),
		done:     make(chan struct{}),
		seen:     make(map[string]struct{}),
	}
	for _, ext := range exts {
		w.exts[strings.ToLower(ext)] = struct{}{}
	}
	if err := fsw.Add(w.modelDir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", w.modelDir, err)
	}
	trackReady, err := w.watchTrack()
	if err != nil {
		_ = fsw.Close()
		return nil, err
	}
	go w.loop(trackReady)
	return w, nil
}

// Files delivers newly written stem paths. It is closed by Close.
func (w *Watcher) Files() <-chan string { return w.files }

// Errors delivers watcher errors without blocking the event loop. Only the
// first unread error is kept.
func (w *Watcher) Errors() <-chan error { return w.errs }

// Watched lists the directories currently registered with the OS.
func (w *Watcher) Watched() []string { return w.fs.WatchList() }

// Close stops the watcher.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		err = w.fs.Close()
	})
	return err
}

func (w *Watcher) loop(trackReady bool) {
	defer close(w.files)
	// Files may have landed before the watch was registered.
	if trackReady {
		w.emitExisting()
	}
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.report(err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	name := filepath.Clean(event.Name)
	if name == w.trackDir {
		if !event.Has(fsnotify.Create) {
			return
		}
		ready, err := w.watchTrack()
		if err != nil {
			w.report(err)
			return
		}
		if ready {
			w.emitExisting()
		}
		return
	}
	if filepath.Dir(name) != w.trackDir {
		return
	}
	info, err := os.Stat(name)
	if err != nil || info.IsDir() {
		return
	}
	w.emit(name)
}

// watchTrack registers the track directory when it exists as a directory.
func (w *Watcher) watchTrack() (bool, error) {
	info, err := os.Stat(w.trackDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("inspect %s: %w", w.trackDir, err)
	}
	if !info.IsDir() {
		return false, nil
	}
	if err := w.fs.Add(w.trackDir); err != nil {
		return false, fmt.Errorf("failed to watch %s: %w", w.trackDir, err)
	}
	return true, nil
}

func (w *Watcher) emitExisting() {
	entries, err := os.ReadDir(w.trackDir)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			w.report(fmt.Errorf("list %s: %w", w.trackDir, err))
		}
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		w.emit(filepath.Join(w.trackDir, entry.Name()))
	}
}

func (w *Watcher) report(err error) {
	select {
	case w.errs <- err:
	default:
	}
}

func (w *Watcher) emit(path string) {
	if _, ok := w.exts[strings.ToLower(filepath.Ext(path))]; !ok {
		return
	}
	w.mu.Lock()
	if _, dup := w.seen[path]; dup {
		w.mu.Unlock()
		return
	}
	w.seen[path] = struct{}{}
	w.mu.Unlock()

	select {
	case w.files <- path:
	case <-w.done:
	}
}
