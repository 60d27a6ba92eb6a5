package vault

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/vaultgraph/vaultgraph/internal/graph"
)

// DefaultDebounce is the quiet period after the last file system event
// before a reload fires. Editors and sync clients write in bursts; the
// trailing-edge debounce collapses each burst into one reload.
const DefaultDebounce = 400 * time.Millisecond

// Watcher reloads the vault when files change and hands the fresh corpus to
// a callback. The callback side (the view controller) is idempotent and
// re-entrancy guarded, so redundant fires are harmless.
type Watcher struct {
	vault    *Vault
	debounce time.Duration
	onChange func(graph.Corpus)
	log      *zap.Logger

	fsw   *fsnotify.Watcher
	mu    sync.Mutex
	timer *time.Timer
}

// NewWatcher creates a Watcher over the given vault. onChange is invoked
// with each reloaded corpus snapshot, never concurrently with itself.
func NewWatcher(v *Vault, debounce time.Duration, onChange func(graph.Corpus), logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fs watcher: %w", err)
	}
	return &Watcher{
		vault:    v,
		debounce: debounce,
		onChange: onChange,
		log:      logger.Named("watcher"),
		fsw:      fsw,
	}, nil
}

// Start begins watching the vault tree and blocks until ctx is done or the
// underlying watcher fails.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addRecursive(w.vault.Root()); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return w.Close()
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("fs watcher error", zap.Error(err))
		}
	}
}

// Close stops the watcher and cancels any pending reload.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.mu.Unlock()
	return w.fsw.Close()
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	// New directories must be added to the watch set before their contents
	// produce events.
	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			_ = w.addRecursive(event.Name)
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		if ctx.Err() != nil {
			return
		}
		corpus, err := w.vault.Load(ctx)
		if err != nil {
			w.log.Warn("vault reload failed", zap.Error(err))
			return
		}
		if w.onChange != nil {
			w.onChange(corpus)
		}
	})
}

// addRecursive registers path and every directory below it. Files inside
// excluded directories never get watched.
func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && shouldExcludeDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			w.log.Warn("cannot watch directory", zap.String("path", path), zap.Error(err))
		}
		return nil
	})
}
