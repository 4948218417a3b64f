package ingest

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/akolanti/smartsort/internal/config"
	"github.com/akolanti/smartsort/internal/storage"
	"github.com/akolanti/smartsort/pkg/logger_i"
	"github.com/fsnotify/fsnotify"
)

type Ingester interface {
	Ingest(ctx context.Context, inboxPath string) (Result, error)
}

// InboxWatcher ingests files that appear in the inbox once they stop changing.
type InboxWatcher struct {
	ingester Ingester
	sandbox  *storage.Sandbox
	debounce time.Duration
	logger   *logger_i.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
}

func NewInboxWatcher(ingester Ingester, sandbox *storage.Sandbox, debounce time.Duration) *InboxWatcher {
	if debounce <= 0 {
		debounce = config.InboxDebounce
	}
	return &InboxWatcher{
		ingester: ingester,
		sandbox:  sandbox,
		debounce: debounce,
		logger:   logger_i.NewLogger("Inbox Watcher"),
		timers:   make(map[string]*time.Timer),
	}
}

// Run watches until ctx is done. Files already in the inbox are not picked up.
func (w *InboxWatcher) Run(ctx context.Context) error {
	dir, err := w.sandbox.EnsureDir(config.InboxDir)
	if err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating inbox watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	w.logger.Info("Watching inbox", "dir", dir, "debounce", w.debounce)

	for {
		select {
		case <-ctx.Done():
			w.stopTimers()
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) {
				w.schedule(ctx, ev.Name)
			}
			if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
				w.cancel(ev.Name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Watcher error", "error", err)
		}
	}
}

func (w *InboxWatcher) schedule(ctx context.Context, abs string) {
	if strings.HasPrefix(filepath.Base(abs), ".") {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.timers[abs]; ok {
		t.Stop()
	}
	w.timers[abs] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, abs)
		w.mu.Unlock()
		w.ingest(ctx, abs)
	})
}

func (w *InboxWatcher) ingest(ctx context.Context, abs string) {
	if ctx.Err() != nil {
		return
	}
	rel, err := w.sandbox.Rel(abs)
	if err != nil {
		w.logger.Warn("Ignoring path outside storage", "path", abs, "error", err)
		return
	}
	info, err := w.sandbox.Stat(rel)
	if err != nil || info.IsDir {
		return
	}
	res, err := w.ingester.Ingest(ctx, rel)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			w.logger.Error("Auto ingest failed", "path", rel, "error", err)
		}
		return
	}
	w.logger.Info("Auto ingested", "path", rel, "documentId", res.DocumentId, "status", res.Status)
}

func (w *InboxWatcher) cancel(abs string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.timers[abs]; ok {
		t.Stop()
		delete(w.timers, abs)
	}
}

func (w *InboxWatcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for p, t := range w.timers {
		t.Stop()
		delete(w.timers, p)
	}
}
