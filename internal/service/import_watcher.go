package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"mailcanvas/internal/domain"
)

// FileImporter stores the template in a file; TemplateService implements it.
type FileImporter interface {
	ImportFileAs(ctx context.Context, path, templateID string) (*domain.SaveResult, error)
}

// ImportWatcher imports *.json template files dropped into a directory.
// Editors write files in bursts, so each path is debounced.
type ImportWatcher struct {
	importer FileImporter
	dir      string
	debounce time.Duration
	emitter  EventEmitter
	log      *zap.Logger

	mu  sync.Mutex
	ids map[string]string // absolute path → template id it was imported as
}

func NewImportWatcher(importer FileImporter, dir string, emitter EventEmitter, log *zap.Logger) *ImportWatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &ImportWatcher{
		importer: importer,
		dir:      dir,
		debounce: 500 * time.Millisecond,
		emitter:  emitter,
		log:      log,
		ids:      make(map[string]string),
	}
}

// SetDebounce changes the quiet period before a changed file is imported.
func (w *ImportWatcher) SetDebounce(d time.Duration) { w.debounce = d }

// Run watches the directory until ctx is cancelled. Pending imports are
// dropped and in-flight ones awaited before it returns.
func (w *ImportWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	dir, err := filepath.Abs(w.dir)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", w.dir, err)
	}
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.log.Info("watching for template imports", zap.String("dir", dir))

	var inflight sync.WaitGroup
	timers := make(map[string]*time.Timer)
	defer func() {
		for _, t := range timers {
			if t.Stop() {
				inflight.Done()
			}
		}
		inflight.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !strings.EqualFold(filepath.Ext(event.Name), ".json") {
				continue
			}
			path, _ := filepath.Abs(event.Name)
			if t, exists := timers[path]; exists && t.Stop() {
				inflight.Done()
			}
			inflight.Add(1)
			timers[path] = time.AfterFunc(w.debounce, func() {
				defer inflight.Done()
				w.importPath(ctx, path)
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watcher error", zap.Error(err))
		}
	}
}

func (w *ImportWatcher) importPath(ctx context.Context, path string) {
	w.mu.Lock()
	id := w.ids[path]
	w.mu.Unlock()

	res, err := w.importer.ImportFileAs(ctx, path, id)
	if err != nil {
		w.log.Warn("import failed", zap.String("path", path), zap.Error(err))
		w.emitter.Emit(ctx, "template:import-failed", path)
		return
	}

	w.mu.Lock()
	w.ids[path] = res.ID
	w.mu.Unlock()
	w.log.Info("template imported", zap.String("path", path), zap.String("template", res.ID))
}
