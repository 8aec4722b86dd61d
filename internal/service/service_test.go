package service_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"mailcanvas/internal/canvas"
	"mailcanvas/internal/domain"
	"mailcanvas/internal/editor"
	"mailcanvas/internal/service"
	"mailcanvas/internal/storage"
)

type fixture struct {
	db          *storage.DB
	templates   *storage.TemplateStore
	checkpoints *storage.CheckpointStore
	emitter     *service.MockEmitter
	svc         *service.TemplateService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := storage.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f := &fixture{
		db:          db,
		templates:   storage.NewTemplateStore(db),
		checkpoints: storage.NewCheckpointStore(db),
		emitter:     &service.MockEmitter{},
	}
	f.svc = service.NewTemplateService(f.templates, f.checkpoints, f.emitter, zap.NewNop())
	return f
}

// ─────────────────────────────────────────────────────────────
// keyGuard tests
// ─────────────────────────────────────────────────────────────

func TestKeyGuard_TryLock(t *testing.T) {
	var g service.ExportedKeyGuard

	if !g.TryLock("s-1") {
		t.Fatal("expected first TryLock to succeed")
	}
	if g.TryLock("s-1") {
		t.Fatal("expected second TryLock for same key to fail")
	}
	if !g.TryLock("s-2") {
		t.Fatal("expected TryLock for different key to succeed")
	}
	g.Unlock("s-1")
	g.Unlock("s-2")

	if !g.TryLock("s-1") {
		t.Fatal("expected TryLock to succeed after unlock")
	}
	g.Unlock("s-1")
}

func TestKeyGuard_WaitAll(t *testing.T) {
	var g service.ExportedKeyGuard
	if !g.TryLock("s-a") {
		t.Fatal("expected lock to succeed")
	}

	done := make(chan struct{})
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()
		g.WaitAll(ctx)
		close(done)
	}()
	go func() {
		time.Sleep(20 * time.Millisecond)
		g.Unlock("s-a")
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("WaitAll timed out")
	}
}

func TestKeyGuard_WaitAllIdleReturnsImmediately(t *testing.T) {
	var g service.ExportedKeyGuard
	g.WaitAll(context.Background())

	require.True(t, g.TryLock("s-a"))
	g.Unlock("s-a")
	g.Unlock("s-a") // releasing twice is harmless
	g.WaitAll(context.Background())
}

func TestKeyGuard_WaitAllCancelledLeavesNothingRunning(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	var g service.ExportedKeyGuard
	require.True(t, g.TryLock("stuck"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	g.WaitAll(ctx)

	// The key is still held; a later release wakes a new waiter.
	done := make(chan struct{})
	go func() {
		g.WaitAll(context.Background())
		close(done)
	}()
	g.Unlock("stuck")
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("WaitAll did not return after release")
	}
}

// ─────────────────────────────────────────────────────────────
// TemplateService tests
// ─────────────────────────────────────────────────────────────

func TestTemplateService_SaveAndReopen(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess := f.svc.NewSession("Spring sale")
	_, err := sess.AddBlock(domain.BlockTypeWrapper, canvas.BlockConfig{})
	require.NoError(t, err)
	require.True(t, sess.Dirty())

	res, err := f.svc.Save(ctx, sess.Key())
	require.NoError(t, err)
	require.False(t, sess.Dirty())
	require.Equal(t, res.ID, sess.TemplateID())
	require.Len(t, f.emitter.Named("template:saved"), 1)

	// Reopening an open template returns the same session.
	same, err := f.svc.Open(ctx, res.ID)
	require.NoError(t, err)
	require.Same(t, sess, same)

	require.NoError(t, f.svc.Close(ctx, sess.Key()))
	_, err = f.svc.Session(sess.Key())
	require.ErrorIs(t, err, service.ErrSessionNotFound)

	reopened, err := f.svc.Open(ctx, res.ID)
	require.NoError(t, err)
	require.Equal(t, sess.Tree(), reopened.Tree())
	require.False(t, reopened.History().CanUndo)
}

func TestTemplateService_SaveRejectsInvalidName(t *testing.T) {
	f := newFixture(t)
	sess := f.svc.NewSession("")

	_, err := f.svc.Save(context.Background(), sess.Key())
	require.Error(t, err)
	require.Empty(t, f.emitter.Events)
}

func TestTemplateService_OpenMissing(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Open(context.Background(), "nope")
	require.ErrorIs(t, err, domain.ErrTemplateNotFound)
}

func TestTemplateService_OpenEmptyIDIgnoresUnsavedSessions(t *testing.T) {
	f := newFixture(t)
	unsaved := f.svc.NewSession("Draft")
	require.Empty(t, unsaved.TemplateID())

	sess, err := f.svc.Open(context.Background(), "")
	require.ErrorIs(t, err, domain.ErrTemplateNotFound)
	require.Nil(t, sess)
}

func TestTemplateService_SaveDirty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.svc.NewSession("A")
	b := f.svc.NewSession("B")
	clean := f.svc.NewSession("C")
	for _, s := range []*editor.Session{a, b} {
		_, err := s.AddBlock(domain.BlockTypeColumns, canvas.BlockConfig{ColumnCount: 2})
		require.NoError(t, err)
	}

	require.NoError(t, f.svc.SaveDirty(ctx))
	require.False(t, a.Dirty())
	require.False(t, b.Dirty())
	require.Empty(t, clean.TemplateID())

	list, err := f.svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
}

func TestTemplateService_CloseCommitsPreview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess := f.svc.NewSession("Drag")
	_, err := sess.AddBlock(domain.BlockTypeColumns, canvas.BlockConfig{ColumnCount: 2})
	require.NoError(t, err)
	row := domain.RowSelection(sess.Tree()[0].ID)
	sess.PreviewResize(row, 0, 70)
	sess.PreviewResize(row, 0, 65)

	require.NoError(t, f.svc.Close(ctx, sess.Key()))

	reopened, err := f.svc.Open(ctx, sess.TemplateID())
	require.NoError(t, err)
	cols := reopened.Tree()[0].Columns
	require.InDelta(t, 65, cols[0].Width, 1e-9)
	require.InDelta(t, 35, cols[1].Width, 1e-9)
}

func TestTemplateService_CheckpointRestore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess := f.svc.NewSession("History")
	_, err := sess.AddBlock(domain.BlockTypeWrapper, canvas.BlockConfig{})
	require.NoError(t, err)
	_, err = f.svc.Save(ctx, sess.Key())
	require.NoError(t, err)
	saved := sess.Tree()

	require.True(t, sess.Delete(domain.RowSelection(saved[0].ID)))
	require.Empty(t, sess.Tree())

	cps, err := f.svc.Checkpoints(sess.TemplateID())
	require.NoError(t, err)
	require.Len(t, cps, 1)

	require.NoError(t, f.svc.RestoreCheckpoint(sess.Key(), cps[0].ID))
	require.Equal(t, saved, sess.Tree())

	// The restore is itself undoable.
	require.True(t, sess.Undo())
	require.Empty(t, sess.Tree())
}

func TestTemplateService_RestoreForeignCheckpoint(t *testing.T) {
	f := newFixture(t)
	cp, err := f.checkpoints.Push("other-template", "x", nil)
	require.NoError(t, err)

	sess := f.svc.NewSession("Mine")
	err = f.svc.RestoreCheckpoint(sess.Key(), cp.ID)
	require.ErrorIs(t, err, service.ErrForeignSnapshot)
}

func TestTemplateService_Delete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess := f.svc.NewSession("Gone soon")
	res, err := f.svc.Save(ctx, sess.Key())
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, res.ID))
	_, err = f.svc.Session(sess.Key())
	require.ErrorIs(t, err, service.ErrSessionNotFound)
	require.Len(t, f.emitter.Named("template:deleted"), 1)

	cps, err := f.svc.Checkpoints(res.ID)
	require.NoError(t, err)
	require.Empty(t, cps)
}

func TestTemplateService_ImportExportFile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	src := f.svc.NewSession("Exported")
	_, err := src.AddBlock(domain.BlockTypeColumns, canvas.BlockConfig{ColumnCount: 3})
	require.NoError(t, err)
	res, err := f.svc.Save(ctx, src.Key())
	require.NoError(t, err)

	doc, err := f.svc.Export(ctx, res.ID)
	require.NoError(t, err)
	require.Equal(t, src.Tree(), doc.Content)

	// A file without id or name becomes a new template named after the file.
	path := filepath.Join(t.TempDir(), "newsletter.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"content":[]}`), 0o644))
	imported, err := f.svc.ImportFile(ctx, path)
	require.NoError(t, err)
	require.NotEqual(t, res.ID, imported.ID)

	tpl, err := f.svc.Load(ctx, imported.ID)
	require.NoError(t, err)
	require.Equal(t, "newsletter", tpl.Name)
}

// ─────────────────────────────────────────────────────────────
// CategoryService tests
// ─────────────────────────────────────────────────────────────

func TestCategoryService_AssignAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cats := service.NewCategoryService(storage.NewCategoryStore(f.db), f.templates, f.emitter)

	c, err := cats.Create("Newsletters")
	require.NoError(t, err)

	sess := f.svc.NewSession("Weekly")
	res, err := f.svc.Save(ctx, sess.Key())
	require.NoError(t, err)

	require.NoError(t, cats.Assign(ctx, res.ID, c.ID))
	tpl, err := f.svc.Load(ctx, res.ID)
	require.NoError(t, err)
	require.Equal(t, c.ID, tpl.CategoryID)

	require.ErrorIs(t, cats.Assign(ctx, res.ID, "missing"), domain.ErrCategoryNotFound)

	require.NoError(t, cats.Delete(ctx, c.ID))
	tpl, err = f.svc.Load(ctx, res.ID)
	require.NoError(t, err)
	require.Empty(t, tpl.CategoryID)
}

func TestCategoryService_Validation(t *testing.T) {
	f := newFixture(t)
	cats := service.NewCategoryService(storage.NewCategoryStore(f.db), nil, f.emitter)

	_, err := cats.Create("")
	require.Error(t, err)
	require.ErrorIs(t, cats.Assign(context.Background(), "t", ""), service.ErrCategoriesUnsupported)
}

// ─────────────────────────────────────────────────────────────
// Autosaver tests
// ─────────────────────────────────────────────────────────────

type blockingSaver struct {
	calls   atomic.Int32
	release chan struct{}
}

func (b *blockingSaver) SaveDirty(ctx context.Context) error {
	b.calls.Add(1)
	select {
	case <-b.release:
	case <-ctx.Done():
	}
	return errors.New("store unavailable")
}

func TestAutosaver_SkipsOverlappingRuns(t *testing.T) {
	saver := &blockingSaver{release: make(chan struct{})}
	a := service.NewAutosaver(saver, "", zap.NewNop())
	ctx := context.Background()

	first := make(chan bool)
	go func() { first <- a.RunOnce(ctx) }()
	require.Eventually(t, func() bool { return saver.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	require.False(t, a.RunOnce(ctx), "overlapping run should be skipped")
	close(saver.release)
	require.True(t, <-first)
	require.EqualValues(t, 1, saver.calls.Load())
}

func TestAutosaver_InvalidSpec(t *testing.T) {
	a := service.NewAutosaver(&blockingSaver{}, "every now and then", zap.NewNop())
	require.Error(t, a.Start(context.Background()))
}

func TestAutosaver_StartStop(t *testing.T) {
	f := newFixture(t)
	a := service.NewAutosaver(f.svc, "@every 1h", zap.NewNop())
	require.NoError(t, a.Start(context.Background()))
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	a.Stop(ctx)
}

// ─────────────────────────────────────────────────────────────
// ImportWatcher tests
// ─────────────────────────────────────────────────────────────

func TestImportWatcher_ImportsAndUpdates(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	w := service.NewImportWatcher(f.svc, dir, f.emitter, zap.NewNop())
	w.SetDebounce(20 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- w.Run(ctx) }()
	defer func() {
		cancel()
		require.NoError(t, <-done)
	}()

	count := func() int {
		list, err := f.svc.List(context.Background())
		if err != nil {
			return -1
		}
		return len(list)
	}

	// Give the watcher time to register the directory.
	time.Sleep(50 * time.Millisecond)
	path := filepath.Join(dir, "promo.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"name":"Promo","content":[]}`), 0o644))
	require.Eventually(t, func() bool { return count() == 1 }, 2*time.Second, 20*time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte(`{"name":"Promo v2","content":[]}`), 0o644))
	require.Eventually(t, func() bool {
		list, err := f.svc.List(context.Background())
		return err == nil && len(list) == 1 && list[0].Name == "Promo v2"
	}, 2*time.Second, 20*time.Millisecond)

	// Non-JSON files are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o644))
	time.Sleep(100 * time.Millisecond)
	require.Equal(t, 1, count())
}
