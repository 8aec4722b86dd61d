// Package app is the composition root: it opens storage, builds the
// services and runs them for the CLI commands.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"mailcanvas/internal/config"
	"mailcanvas/internal/docstore"
	"mailcanvas/internal/domain"
	"mailcanvas/internal/editor"
	"mailcanvas/internal/service"
	"mailcanvas/internal/storage"
)

// App holds the long-lived stores and services of one process.
type App struct {
	cfg     *config.Config
	log     *zap.Logger
	db      *storage.DB
	store   domain.TemplateStore
	emitter service.EventEmitter

	Templates  *service.TemplateService
	Categories *service.CategoryService
}

// Option customises New.
type Option func(*App)

// WithEmitter replaces the default log emitter.
func WithEmitter(e service.EventEmitter) Option {
	return func(a *App) { a.emitter = e }
}

// New opens the local database and, when configured, the external document
// store, then builds the services on top of them.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger, opts ...Option) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	db, err := storage.New(cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	a := &App{
		cfg:     cfg,
		log:     log,
		db:      db,
		emitter: service.LogEmitter{Log: log.Named("events")},
	}
	for _, o := range opts {
		o(a)
	}

	local := storage.NewTemplateStore(db)
	var filer service.TemplateFiler
	if cfg.UsesDocStore() {
		remote, err := docstore.Open(ctx, cfg.DocStore, log.Named("docstore"))
		if err != nil {
			db.Close()
			return nil, err
		}
		a.store = remote
	} else {
		a.store = local
		filer = local
	}

	a.Templates = service.NewTemplateService(
		a.store,
		storage.NewCheckpointStore(db),
		a.emitter,
		log.Named("templates"),
		editor.WithHistoryLimit(cfg.Editor.HistoryLimit),
	)
	a.Categories = service.NewCategoryService(storage.NewCategoryStore(db), filer, a.emitter)

	log.Debug("app ready",
		zap.String("dataDir", cfg.DataDir),
		zap.Bool("docstore", cfg.UsesDocStore()),
	)
	return a, nil
}

// Close saves every open session and releases the stores.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if err := a.Templates.CloseAll(ctx); err != nil {
		errs = append(errs, fmt.Errorf("save open sessions: %w", err))
	}
	if err := a.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close template store: %w", err))
	}
	if err := a.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close database: %w", err))
	}
	return errors.Join(errs...)
}

func (a *App) Config() *config.Config { return a.cfg }
