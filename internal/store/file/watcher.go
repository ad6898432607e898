package file

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultSettle = 200 * time.Millisecond

// Watcher reports world files edited outside the process so cached copies
// can be dropped. Bursts of events for one file collapse into one callback.
type Watcher struct {
	watcher    *fsnotify.Watcher
	dir        string
	settle     time.Duration
	invalidate func(name string)
	logger     *zap.Logger

	mu      sync.Mutex
	pending map[string]time.Time
	done    chan struct{}
}

func NewWatcher(dir string, invalidate func(name string), logger *zap.Logger) (*Watcher, error) {
	if invalidate == nil {
		return nil, fmt.Errorf("invalidate callback is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watching %s: %w", dir, err)
	}
	return &Watcher{
		watcher:    w,
		dir:        dir,
		settle:     defaultSettle,
		invalidate: invalidate,
		logger:     logger,
		pending:    make(map[string]time.Time),
		done:       make(chan struct{}),
	}, nil
}

// Run blocks until ctx is cancelled or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.settle / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.flush(time.Time{})
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				w.flush(time.Time{})
				return
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("world watcher error", zap.Error(err))
		case now := <-ticker.C:
			w.flush(now.Add(-w.settle))
		}
	}
}

func (w *Watcher) Close() error {
	return w.watcher.Close()
}

// Done is closed when Run returns.
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}

func (w *Watcher) handle(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}
	name, ok := worldName(event.Name)
	if !ok {
		return
	}
	w.logger.Debug("world file changed", zap.String("world", name), zap.String("op", event.Op.String()))
	w.mu.Lock()
	w.pending[name] = time.Now()
	w.mu.Unlock()
}

// flush invalidates every world whose last event is older than cutoff; a
// zero cutoff flushes everything.
func (w *Watcher) flush(cutoff time.Time) {
	w.mu.Lock()
	ready := make([]string, 0, len(w.pending))
	for name, at := range w.pending {
		if cutoff.IsZero() || !at.After(cutoff) {
			ready = append(ready, name)
			delete(w.pending, name)
		}
	}
	w.mu.Unlock()

	for _, name := range ready {
		w.invalidate(name)
	}
}
