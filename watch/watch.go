// Package watch re-runs reconciliation when Go sources change.
package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/teranos/buildergen/errors"
	"github.com/teranos/buildergen/logger"
)

// ownWriteWindow is how long events for a file we wrote are ignored.
const ownWriteWindow = 2 * time.Second

// ChangeFunc handles one debounced batch of changed files.
type ChangeFunc func(ctx context.Context, changed []string) error

// Watcher watches directory trees for .go changes.
type Watcher struct {
	fsw      *fsnotify.Watcher
	debounce time.Duration
	log      *zap.SugaredLogger

	mu      sync.Mutex
	own     map[string]time.Time
	pending map[string]bool
	timer   *time.Timer
	fire    chan struct{}
}

// New watches every directory under roots. Hidden directories, vendor and
// testdata are skipped.
func New(roots []string, debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}
	w := &Watcher{
		fsw:      fsw,
		debounce: debounce,
		log:      logger.ComponentLogger("watch"),
		own:      make(map[string]time.Time),
		pending:  make(map[string]bool),
		fire:     make(chan struct{}, 1),
	}
	for _, root := range roots {
		if err := w.addTree(root); err != nil {
			fsw.Close()
			return nil, err
		}
	}
	return w, nil
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.Wrapf(err, "failed to walk %s", path)
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && skipDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return errors.Wrapf(err, "failed to watch %s", path)
		}
		return nil
	})
}

func skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || name == "vendor" || name == "testdata" || name == "node_modules"
}

// MarkOwnWrites suppresses the events our own writes to paths cause.
func (w *Watcher) MarkOwnWrites(paths []string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	until := time.Now().Add(ownWriteWindow)
	for _, p := range paths {
		w.own[filepath.Clean(p)] = until
	}
}

func (w *Watcher) isOwnWrite(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	until, ok := w.own[path]
	if !ok {
		return false
	}
	if time.Now().After(until) {
		delete(w.own, path)
		return false
	}
	return true
}

// Run delivers debounced batches to onChange until ctx is done. Batches
// are handled one at a time; changes arriving meanwhile form the next one.
func (w *Watcher) Run(ctx context.Context, onChange ChangeFunc) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warnw("watcher error", logger.FieldError, err.Error())

		case <-w.fire:
			changed := w.drain()
			if len(changed) == 0 {
				continue
			}
			w.log.Infow("sources changed", logger.FieldCount, len(changed))
			if err := onChange(ctx, changed); err != nil {
				w.log.Errorw("run after change failed", logger.FieldError, err.Error())
			}
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	path := filepath.Clean(event.Name)

	if event.Op&fsnotify.Create == fsnotify.Create {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if skipDir(info.Name()) {
				return
			}
			if err := w.addTree(path); err != nil {
				w.log.Warnw("failed to watch new directory", logger.FieldPath, path, logger.FieldError, err.Error())
			}
			return
		}
	}

	if !relevant(path) || event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	if w.isOwnWrite(path) {
		w.log.Debugw("ignoring own write", logger.FieldPath, path)
		return
	}
	w.schedule(path)
}

func relevant(path string) bool {
	return strings.HasSuffix(path, ".go") && !strings.HasSuffix(path, "_test.go")
}

func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[path] = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case w.fire <- struct{}{}:
		default:
		}
	})
}

func (w *Watcher) drain() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.pending))
	for p := range w.pending {
		out = append(out, p)
	}
	sort.Strings(out)
	w.pending = make(map[string]bool)
	return out
}

// Close stops watching.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	return w.fsw.Close()
}
