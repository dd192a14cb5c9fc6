// Package watch notices when another process rewrites the contacts file.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ChangeFunc reports whether the file differs from what this process last
// read or wrote.
type ChangeFunc func() (bool, error)

// Watcher calls onChange once per foreign write to a single file, until the
// file matches again. The parent directory is watched so renames onto the
// path are seen.
type Watcher struct {
	path     string
	changed  ChangeFunc
	onChange func()
	logger   *zap.Logger

	dirty bool

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	doneCh  chan struct{}
	running bool
}

// New returns a watcher for path. Start must be called to begin watching.
func New(path string, changed ChangeFunc, onChange func(), logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		path:     filepath.Clean(path),
		changed:  changed,
		onChange: onChange,
		logger:   logger,
	}
}

// Start begins watching. It is non-blocking and stops when ctx is done or
// Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		_ = fw.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}
	w.watcher = fw
	w.doneCh = make(chan struct{})
	w.running = true

	go w.run(ctx, fw, w.doneCh)
	return nil
}

// Stop ends watching and waits for the event loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	fw, done := w.watcher, w.doneCh
	w.mu.Unlock()

	if err := fw.Close(); err != nil {
		w.logger.Warn("close watcher", zap.Error(err))
	}
	<-done
}

func (w *Watcher) run(ctx context.Context, fw *fsnotify.Watcher, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			if !errors.Is(err, fsnotify.ErrEventOverflow) {
				w.logger.Warn("watch error", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}
	changed, err := w.changed()
	if err != nil {
		w.logger.Debug("compare contacts file", zap.Error(err))
		return
	}
	switch {
	case changed && !w.dirty:
		w.dirty = true
		w.logger.Debug("contacts file changed on disk", zap.String("op", event.Op.String()))
		w.onChange()
	case !changed:
		w.dirty = false
	}
}
