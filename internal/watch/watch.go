// Package watch notices changes to a set of files by polling their
// modification times, with fsnotify events on the parent directories to
// react faster than the poll interval.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is how long the watcher waits after a filesystem event
// before checking modification times, so bursts of writes collapse.
const DefaultDebounce = 50 * time.Millisecond

// ChangeFunc is called with the files whose modification time changed,
// appeared or disappeared. It runs on the watch goroutine, so changes
// detected while it runs are reported on the next check.
type ChangeFunc func(ctx context.Context, changed []string)

// Watcher watches a set of files.
type Watcher struct {
	interval time.Duration
	debounce time.Duration
	logger   *zap.Logger

	mu     sync.Mutex
	files  []string
	mtimes map[string]time.Time // Zero time for a missing file

	fsw  *fsnotify.Watcher
	dirs map[string]bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets the logger for watcher diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// New creates a watcher polling files every interval. When fsnotify is
// unavailable the watcher falls back to polling alone.
func New(files []string, interval time.Duration, opts ...Option) (*Watcher, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("watch interval must be positive, got %s", interval)
	}

	w := &Watcher{
		interval: interval,
		debounce: DefaultDebounce,
		logger:   zap.NewNop(),
		mtimes:   make(map[string]time.Time),
		dirs:     make(map[string]bool),
	}
	for _, opt := range opts {
		opt(w)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.Warn("filesystem notifications unavailable, polling only", zap.Error(err))
	} else {
		w.fsw = fsw
	}

	w.SetFiles(files)
	return w, nil
}

// SetFiles replaces the watched files and records their current
// modification times as the new baseline.
func (w *Watcher) SetFiles(files []string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.files = w.files[:0]
	clear(w.mtimes)
	for _, f := range files {
		f = filepath.Clean(f)
		if _, ok := w.mtimes[f]; ok {
			continue
		}
		w.files = append(w.files, f)
		w.mtimes[f] = modTime(f)
		w.watchDir(filepath.Dir(f))
	}
	w.logger.Debug("watching files", zap.Strings("files", w.files))
}

// Files returns the watched files.
func (w *Watcher) Files() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.files)
}

func (w *Watcher) watchDir(dir string) {
	if w.fsw == nil || w.dirs[dir] {
		return
	}
	if err := w.fsw.Add(dir); err != nil {
		w.logger.Debug("cannot watch directory", zap.String("dir", dir), zap.Error(err))
		return
	}
	w.dirs[dir] = true
}

// Run checks for changes until ctx is cancelled and calls onChange for
// every batch of changed files. It returns nil when ctx is cancelled.
func (w *Watcher) Run(ctx context.Context, onChange ChangeFunc) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	var events <-chan fsnotify.Event
	var errs <-chan error
	if w.fsw != nil {
		events = w.fsw.Events
		errs = w.fsw.Errors
	}

	var debounce *time.Timer
	var debounceC <-chan time.Time
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-ticker.C:
			w.check(ctx, onChange)

		case <-debounceC:
			debounceC = nil
			w.check(ctx, onChange)

		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if !w.isWatched(ev.Name) {
				continue
			}
			w.logger.Debug("file event", zap.String("file", ev.Name), zap.String("op", ev.Op.String()))
			if debounce == nil {
				debounce = time.NewTimer(w.debounce)
			} else {
				debounce.Reset(w.debounce)
			}
			debounceC = debounce.C

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			w.logger.Warn("watch error", zap.Error(err))
		}
	}
}

// Close releases the filesystem watcher.
func (w *Watcher) Close() error {
	if w.fsw == nil {
		return nil
	}
	return w.fsw.Close()
}

func (w *Watcher) isWatched(name string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.mtimes[filepath.Clean(name)]
	return ok
}

func (w *Watcher) check(ctx context.Context, onChange ChangeFunc) {
	changed := w.changed()
	if len(changed) == 0 || ctx.Err() != nil {
		return
	}
	w.logger.Debug("files changed", zap.Strings("files", changed))
	onChange(ctx, changed)
}

// changed returns files whose modification time differs from the baseline
// and moves the baseline forward.
func (w *Watcher) changed() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	var out []string
	for _, f := range w.files {
		current := modTime(f)
		if !current.Equal(w.mtimes[f]) {
			w.mtimes[f] = current
			out = append(out, f)
		}
	}
	return out
}

func modTime(path string) time.Time {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}
