package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"mailcanvas/internal/domain"
	"mailcanvas/internal/service"
)

// storeWatcher polls the template store for changes made by other
// processes (a second MCP server, the import command, another host on a
// shared document store) and reports them as templates:changed events.
type storeWatcher struct {
	store    domain.TemplateStore
	emitter  service.EventEmitter
	log      *zap.Logger
	interval time.Duration

	mu   sync.Mutex
	last string // list fingerprint (count + max updated_at)
}

func newStoreWatcher(store domain.TemplateStore, emitter service.EventEmitter, log *zap.Logger, interval time.Duration) *storeWatcher {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &storeWatcher{store: store, emitter: emitter, log: log, interval: interval}
}

// Run polls until ctx is cancelled.
func (w *storeWatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.check(ctx)
	for {
		select {
		case <-ticker.C:
			w.check(ctx)
		case <-ctx.Done():
			return nil
		}
	}
}

// check reports whether the store changed since the previous check. The
// first check only records the baseline.
func (w *storeWatcher) check(ctx context.Context) bool {
	list, err := w.store.ListTemplates(ctx)
	if err != nil {
		w.log.Debug("poll templates", zap.Error(err))
		return false
	}

	var newest time.Time
	for _, t := range list {
		if t.UpdatedAt.After(newest) {
			newest = t.UpdatedAt
		}
	}
	fingerprint := fmt.Sprintf("%d:%d", len(list), newest.UnixNano())

	w.mu.Lock()
	changed := w.last != "" && w.last != fingerprint
	w.last = fingerprint
	w.mu.Unlock()

	if changed {
		w.emitter.Emit(ctx, "templates:changed", map[string]int{"count": len(list)})
	}
	return changed
}
