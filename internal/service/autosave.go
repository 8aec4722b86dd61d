package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultAutosaveSpec runs autosave every 30 seconds.
const DefaultAutosaveSpec = "@every 30s"

const autosaveKey = "autosave"

// DirtySaver is what Autosaver drives; TemplateService implements it.
type DirtySaver interface {
	SaveDirty(ctx context.Context) error
}

// Autosaver periodically saves sessions with unsaved changes.
type Autosaver struct {
	saver DirtySaver
	spec  string
	log   *zap.Logger

	mu    sync.Mutex
	sched *cron.Cron
	guard keyGuard
}

func NewAutosaver(saver DirtySaver, spec string, log *zap.Logger) *Autosaver {
	if spec == "" {
		spec = DefaultAutosaveSpec
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Autosaver{saver: saver, spec: spec, log: log}
}

// Start schedules autosave runs until Stop. ctx bounds every run.
func (a *Autosaver) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.sched != nil {
		return nil
	}
	c := cron.New()
	if _, err := c.AddFunc(a.spec, func() { a.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("invalid autosave schedule %q: %w", a.spec, err)
	}
	c.Start()
	a.sched = c
	a.log.Info("autosave scheduled", zap.String("spec", a.spec))
	return nil
}

// RunOnce saves dirty sessions now. It reports false when a run was
// already in progress and this one was skipped.
func (a *Autosaver) RunOnce(ctx context.Context) bool {
	if !a.guard.TryLock(autosaveKey) {
		a.log.Debug("autosave still running, skipping tick")
		return false
	}
	defer a.guard.Unlock(autosaveKey)
	if err := a.saver.SaveDirty(ctx); err != nil {
		a.log.Warn("autosave failed", zap.Error(err))
	}
	return true
}

// Stop halts the schedule and waits for a running save to finish or ctx
// to expire.
func (a *Autosaver) Stop(ctx context.Context) {
	a.mu.Lock()
	sched := a.sched
	a.sched = nil
	a.mu.Unlock()
	if sched == nil {
		return
	}
	select {
	case <-sched.Stop().Done():
	case <-ctx.Done():
	}
	a.guard.WaitAll(ctx)
}
