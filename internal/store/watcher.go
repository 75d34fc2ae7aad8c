package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"careerai/internal/errors"

	"github.com/fsnotify/fsnotify"
)

// Watcher imports resume files as they are created or rewritten in a
// directory. Bursts of events for the same file are debounced.
type Watcher struct {
	dir      string
	importer *Importer
	debounce time.Duration
	logger   *errors.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer
}

func NewWatcher(dir string, importer *Importer, debounce time.Duration, logger *errors.Logger) *Watcher {
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	return &Watcher{
		dir:      dir,
		importer: importer,
		debounce: debounce,
		logger:   logger,
		pending:  make(map[string]*time.Timer),
	}
}

// Run watches until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fsWatcher.Close()

	if err := fsWatcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch directory %s: %w", w.dir, err)
	}
	w.logger.Info("Watching directory for resumes", "directory", w.dir, "debounce", w.debounce.String())

	defer w.stopPending()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, event)
		case err, ok := <-fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logger.LogError(err, "Resume watcher error", "directory", w.dir)
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	if MimeFromName(event.Name) == "" {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[event.Name]; ok {
		t.Stop()
	}
	file := event.Name
	w.pending[file] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, file)
		w.mu.Unlock()
		if ctx.Err() != nil {
			return
		}
		if _, err := w.importer.ImportFile(ctx, file); err != nil {
			w.logger.LogError(err, "Failed to import watched resume", "file", file)
		}
	})
}

func (w *Watcher) stopPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for file, t := range w.pending {
		t.Stop()
		delete(w.pending, file)
	}
}
