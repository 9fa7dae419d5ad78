package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is how long the Watcher waits after the last change
// before reloading.
const DefaultDebounce = 200 * time.Millisecond

// Watcher reloads a Memory from a fixture directory whenever a fixture file
// changes. A reload that fails to parse keeps the previous content.
type Watcher struct {
	dir      string
	target   *Memory
	logger   *zap.Logger
	debounce time.Duration
	onReload func(records int, err error)
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.debounce = d }
}

// WithReloadHook registers fn to be called after every reload attempt.
func WithReloadHook(fn func(records int, err error)) WatcherOption {
	return func(w *Watcher) { w.onReload = fn }
}

// NewWatcher creates a Watcher that keeps target in sync with dir.
func NewWatcher(dir string, target *Memory, logger *zap.Logger, opts ...WatcherOption) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &Watcher{
		dir:      dir,
		target:   target,
		logger:   logger,
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches until ctx is cancelled. It returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fs watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	w.logger.Info("watching catalog fixtures", zap.String("dir", w.dir))

	var (
		timer   *time.Timer
		timerCh <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !IsFixture(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.logger.Debug("catalog fixture changed",
				zap.String("file", event.Name),
				zap.String("op", event.Op.String()))
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerCh = timer.C
		case <-timerCh:
			timerCh = nil
			w.Reload()
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("catalog watcher error", zap.Error(err))
		}
	}
}

// Reload reads the directory once and swaps it into the target.
func (w *Watcher) Reload() {
	loaded, err := LoadDir(w.dir)
	if err != nil {
		w.logger.Warn("catalog reload failed, keeping previous data",
			zap.String("dir", w.dir), zap.Error(err))
		if w.onReload != nil {
			w.onReload(0, err)
		}
		return
	}
	w.target.Replace(loaded)
	n := loaded.Len()
	w.logger.Info("catalog reloaded", zap.String("dir", w.dir), zap.Int("records", n))
	if w.onReload != nil {
		w.onReload(n, nil)
	}
}
