// Package watch triggers debounced rebuilds when files under a directory change.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	ferrors "git.home.luguber.info/inful/htmlconcat/internal/foundation/errors"
	"git.home.luguber.info/inful/htmlconcat/internal/logfields"
)

// ChangeFunc is called once per quiet window with the changed paths, sorted.
type ChangeFunc func(ctx context.Context, changed []string) error

// Config configures a Watcher.
type Config struct {
	// Root is watched recursively.
	Root string
	// Ignore lists directories whose events are dropped, typically the build output.
	Ignore []string
	// Debounce is the quiet window after the last event before OnChange runs.
	Debounce time.Duration
	OnChange ChangeFunc
	Logger   *slog.Logger
}

// Watcher coalesces bursts of filesystem events into single OnChange calls.
type Watcher struct {
	cfg     Config
	root    string
	ignore  []string
	watcher *fsnotify.Watcher

	readyOnce sync.Once
	ready     chan struct{}

	mu      sync.Mutex
	pending map[string]struct{}
}

// New validates cfg and creates the underlying fsnotify watcher.
func New(cfg Config) (*Watcher, error) {
	if cfg.Root == "" {
		return nil, ferrors.ValidationError("watch root is required").Build()
	}
	if cfg.Debounce <= 0 {
		return nil, ferrors.ValidationError("debounce must be > 0").
			WithContext("debounce", cfg.Debounce.String()).
			Build()
	}
	if cfg.OnChange == nil {
		return nil, ferrors.ValidationError("change callback is required").Build()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to resolve watch root").
			WithContext("path", cfg.Root).
			Build()
	}
	ignore := make([]string, 0, len(cfg.Ignore))
	for _, p := range cfg.Ignore {
		abs, err := filepath.Abs(p)
		if err != nil {
			continue
		}
		ignore = append(ignore, abs)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryRuntime, "failed to create file watcher").Build()
	}

	return &Watcher{
		cfg:     cfg,
		root:    root,
		ignore:  ignore,
		watcher: fw,
		ready:   make(chan struct{}),
		pending: make(map[string]struct{}),
	}, nil
}

// Ready is closed once every directory under Root is being watched.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Run watches until ctx is cancelled. Callback errors are logged and do not
// stop the loop.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() {
		if err := w.watcher.Close(); err != nil {
			w.cfg.Logger.Error("Error closing file watcher", logfields.Error(err))
		}
	}()

	if err := w.addRecursive(w.root); err != nil {
		return err
	}
	w.cfg.Logger.Info("Watching for changes", logfields.Path(w.root))
	w.readyOnce.Do(func() { close(w.ready) })

	quiet := time.NewTimer(time.Hour)
	if !quiet.Stop() {
		<-quiet.C
	}
	var quietC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			quiet.Stop()
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.handleEvent(event) {
				continue
			}
			if quietC != nil && !quiet.Stop() {
				select {
				case <-quiet.C:
				default:
				}
			}
			quiet.Reset(w.cfg.Debounce)
			quietC = quiet.C

		case <-quietC:
			quietC = nil
			w.flush(ctx)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.cfg.Logger.Error("File watcher error", logfields.Error(err))
		}
	}
}

// handleEvent records a relevant event and reports whether it should
// (re)start the quiet window.
func (w *Watcher) handleEvent(event fsnotify.Event) bool {
	if w.ignored(event.Name) {
		return false
	}
	if event.Op == fsnotify.Chmod {
		return false
	}
	if event.Has(fsnotify.Create) {
		// New directories must be watched explicitly; fsnotify is not recursive.
		if err := w.addRecursive(event.Name); err != nil {
			w.cfg.Logger.Debug("Failed to watch new path", logfields.Path(event.Name), logfields.Error(err))
		}
	}

	w.cfg.Logger.Debug("Change detected", logfields.Path(event.Name), slog.String("op", event.Op.String()))
	w.mu.Lock()
	w.pending[event.Name] = struct{}{}
	w.mu.Unlock()
	return true
}

func (w *Watcher) flush(ctx context.Context) {
	w.mu.Lock()
	changed := make([]string, 0, len(w.pending))
	for p := range w.pending {
		changed = append(changed, p)
	}
	w.pending = make(map[string]struct{})
	w.mu.Unlock()

	if len(changed) == 0 {
		return
	}
	sort.Strings(changed)
	if err := w.cfg.OnChange(ctx, changed); err != nil {
		w.cfg.Logger.Error("Rebuild failed", logfields.Error(err), logfields.FileCount(len(changed)))
	}
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			// Paths may disappear between the event and the walk.
			if p == root {
				return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to watch directory").
					WithContext("path", p).
					Build()
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if w.ignored(p) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(p); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to watch directory").
				WithContext("path", p).
				Build()
		}
		return nil
	})
}

func (w *Watcher) ignored(p string) bool {
	abs, err := filepath.Abs(p)
	if err != nil {
		return false
	}
	for _, dir := range w.ignore {
		if abs == dir {
			return true
		}
		if rel, err := filepath.Rel(dir, abs); err == nil && filepath.IsLocal(rel) {
			return true
		}
	}
	return false
}
