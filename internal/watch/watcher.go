package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/yuya-takeyama/strict-resize-sync/internal/logging"
	"github.com/yuya-takeyama/strict-resize-sync/pkg/enumerate"
)

const defaultDebounce = 500 * time.Millisecond

type Config struct {
	// Root is the source tree.
	Root string
	// SkipDirs are never watched. The derivative root belongs here when it
	// sits inside Root, or every write would trigger another run.
	SkipDirs   []string
	Extensions []string
	Debounce   time.Duration
}

// Watcher calls onChange with the changed image paths after each burst of
// source tree events. Runs never overlap.
type Watcher struct {
	config    Config
	fsWatcher *fsnotify.Watcher
	debouncer *Debouncer
	onChange  func(ctx context.Context, paths []string)
	skipDirs  map[string]struct{}
	log       *slog.Logger

	ctx   context.Context
	runMu sync.Mutex
}

func New(cfg Config, onChange func(ctx context.Context, paths []string)) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	skip := make(map[string]struct{}, len(cfg.SkipDirs))
	for _, d := range cfg.SkipDirs {
		skip[filepath.Clean(d)] = struct{}{}
	}

	return &Watcher{
		config:    cfg,
		fsWatcher: fsWatcher,
		onChange:  onChange,
		skipDirs:  skip,
		log:       logging.Component("watch"),
	}, nil
}

// Run blocks until ctx is cancelled. Changes still pending at cancellation
// are dropped; if the event stream closes first they are flushed.
func (w *Watcher) Run(ctx context.Context) error {
	window := w.config.Debounce
	if window <= 0 {
		window = defaultDebounce
	}
	w.ctx = ctx
	w.debouncer = NewDebouncer(window, w.handleChanged)
	defer func() {
		if ctx.Err() != nil {
			if n := w.debouncer.PendingCount(); n > 0 {
				w.log.Debug("dropping pending changes on shutdown", "paths", n)
			}
			w.debouncer.Discard()
			return
		}
		w.debouncer.Stop()
	}()

	if err := w.addRecursive(w.config.Root); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.config.Root, err)
	}
	w.log.Info("watching for changes", "root", w.config.Root, "debounce", window)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.log.Error("watch error", "error", err)
		}
	}
}

func (w *Watcher) Close() error {
	if w.fsWatcher != nil {
		return w.fsWatcher.Close()
	}
	return nil
}

// addRecursive watches dir and every directory below it.
func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			w.log.Warn("skipping unreadable path", "path", path, "error", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if w.skipped(path) {
			return filepath.SkipDir
		}

		if err := w.fsWatcher.Add(path); err != nil {
			if isWatchLimitError(err) {
				return fmt.Errorf("watch limit reached at %s: %w\n"+
					"Increase limit with: sudo sysctl fs.inotify.max_user_watches=524288", path, err)
			}
			w.log.Warn("failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if w.skipped(path) {
				return
			}
			if err := w.addRecursive(path); err != nil {
				w.log.Error("failed to watch new directory", "path", path, "error", err)
			}
			// files moved in along with the directory produce no events
			w.debouncer.Add(path)
			return
		}
	}

	if !w.relevant(event) {
		return
	}
	w.log.Debug("source changed", "path", path, "op", event.Op.String())
	w.debouncer.Add(path)
}

// relevant keeps image create, write, remove and rename events outside the
// skipped directories.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	if !enumerate.HasImageExtension(filepath.Base(event.Name), w.config.Extensions) {
		return false
	}
	return !w.skipped(filepath.Dir(event.Name))
}

func (w *Watcher) skipped(dir string) bool {
	dir = filepath.Clean(dir)
	for skip := range w.skipDirs {
		if dir == skip || strings.HasPrefix(dir, skip+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (w *Watcher) handleChanged(paths []string) {
	w.runMu.Lock()
	defer w.runMu.Unlock()

	ctx := w.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	// a timer flush can race with shutdown
	if ctx.Err() != nil {
		return
	}
	w.log.Info("changes detected", "paths", len(paths))
	w.onChange(ctx, paths)
}

func isWatchLimitError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "no space left on device") ||
		strings.Contains(errStr, "too many open files")
}

// MaxAttempts is how many times in a row the same plan runs before the gate
// waits for the plan to change. A source that always fails to decode would
// otherwise be retried on every event.
const MaxAttempts = 3

// Gate decides whether a fresh plan is worth executing in watch mode.
type Gate struct {
	mu       sync.Mutex
	last     string
	attempts int
}

// ShouldRun reports whether a plan with fingerprint must run. Empty plans
// never run.
func (g *Gate) ShouldRun(fingerprint string, empty bool) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if empty {
		g.last, g.attempts = fingerprint, 0
		return false
	}
	if fingerprint != g.last {
		g.last, g.attempts = fingerprint, 0
	}
	if g.attempts >= MaxAttempts {
		return false
	}
	g.attempts++
	return true
}
