package app

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	mcpserver "mailcanvas/internal/mcp"
	"mailcanvas/internal/service"
)

const (
	storePollInterval = 2 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// ServeMCP runs the MCP server on in/out with autosave, the import watcher
// and the store poller alongside it. It returns when in is closed or ctx is
// cancelled.
func (a *App) ServeMCP(ctx context.Context, version string, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	srv := mcpserver.New(mcpserver.Deps{
		Emitter:    a.emitter,
		Templates:  a.Templates,
		Categories: a.Categories,
		Log:        a.log.Named("mcp"),
		Version:    version,
	})

	if a.cfg.Autosave.Enabled {
		saver := service.NewAutosaver(a.Templates, a.cfg.Autosave.Schedule, a.log.Named("autosave"))
		if err := saver.Start(ctx); err != nil {
			return err
		}
		defer func() {
			stopCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
			defer stop()
			saver.Stop(stopCtx)
		}()
	}

	g, ctx := errgroup.WithContext(ctx)
	a.startBackground(ctx, g)
	g.Go(func() error {
		defer cancel()
		err := srv.Listen(ctx, in, out)
		if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
			return nil
		}
		return err
	})
	return g.Wait()
}

// Watch runs only the import watcher and the store poller, reporting
// events through the app's emitter until ctx is cancelled.
func (a *App) Watch(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	if !a.startBackground(ctx, g) {
		a.log.Warn("no import directory configured; only polling the store")
	}
	return g.Wait()
}

// startBackground adds the store poller and, when an import directory is
// configured, the import watcher to g. It reports whether the watcher runs.
func (a *App) startBackground(ctx context.Context, g *errgroup.Group) bool {
	poller := newStoreWatcher(a.store, a.emitter, a.log.Named("poll"), storePollInterval)
	g.Go(func() error { return poller.Run(ctx) })

	dir := a.cfg.ImportDir()
	if dir == "" {
		return false
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		a.log.Warn("import directory unavailable", zap.String("dir", dir), zap.Error(err))
		return false
	}
	watcher := service.NewImportWatcher(a.Templates, dir, a.emitter, a.log.Named("import"))
	watcher.SetDebounce(a.cfg.ImportDebounce())
	g.Go(func() error { return watcher.Run(ctx) })
	return true
}
