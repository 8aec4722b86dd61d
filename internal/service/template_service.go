package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"mailcanvas/internal/domain"
	"mailcanvas/internal/editor"
)

// ─────────────────────────────────────────────────────────────
// Template Service: open sessions, save and load
// ─────────────────────────────────────────────────────────────

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSaveInProgress  = errors.New("save already in progress")
	ErrForeignSnapshot = errors.New("checkpoint belongs to another template")
)

// maxParallelSaves bounds SaveDirty's fan-out against the store.
const maxParallelSaves = 4

var validate = validator.New(validator.WithRequiredStructEnabled())

// SaveInput is what a save sends to the store.
type SaveInput struct {
	Name    string               `validate:"required,max=120"`
	Content []domain.CanvasBlock `validate:"-"`
}

// CheckpointStore persists named snapshots. storage.CheckpointStore
// implements it.
type CheckpointStore interface {
	Push(templateID, label string, content []domain.CanvasBlock) (*domain.Checkpoint, error)
	List(templateID string) ([]domain.Checkpoint, error)
	Get(id string) (*domain.Checkpoint, error)
	ClearTemplate(templateID string) error
}

// TemplateService keeps the registry of open editing sessions and moves
// their trees to and from the template store.
type TemplateService struct {
	store       domain.TemplateStore
	checkpoints CheckpointStore
	emitter     EventEmitter
	log         *zap.Logger
	sessionOpts []editor.Option

	mu       sync.RWMutex
	sessions map[string]*editor.Session
	saving   keyGuard
}

// NewTemplateService creates a TemplateService. checkpoints may be nil, in
// which case saves keep no snapshots.
func NewTemplateService(
	store domain.TemplateStore,
	checkpoints CheckpointStore,
	emitter EventEmitter,
	log *zap.Logger,
	sessionOpts ...editor.Option,
) *TemplateService {
	if log == nil {
		log = zap.NewNop()
	}
	return &TemplateService{
		store:       store,
		checkpoints: checkpoints,
		emitter:     emitter,
		log:         log,
		sessionOpts: append([]editor.Option{editor.WithLogger(log)}, sessionOpts...),
		sessions:    make(map[string]*editor.Session),
	}
}

// ── Sessions ───────────────────────────────────────────────

// NewSession opens an empty, unsaved template.
func (s *TemplateService) NewSession(name string) *editor.Session {
	sess := editor.New(name, s.sessionOpts...)
	s.register(sess)
	return sess
}

// Open loads a template into a session. A template that is already open
// returns its existing session. An empty id never names a stored template.
func (s *TemplateService) Open(ctx context.Context, templateID string) (*editor.Session, error) {
	if templateID == "" {
		return nil, fmt.Errorf("open template: %w", domain.ErrTemplateNotFound)
	}
	if sess := s.findByTemplate(templateID); sess != nil {
		return sess, nil
	}
	t, err := s.store.LoadTemplate(ctx, templateID)
	if err != nil {
		return nil, fmt.Errorf("open template: %w", err)
	}
	sess := editor.Open(t, s.sessionOpts...)
	s.register(sess)
	s.log.Info("template opened", zap.String("template", templateID), zap.Int("rows", len(t.Content)))
	return sess, nil
}

func (s *TemplateService) register(sess *editor.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.Key()] = sess
}

func (s *TemplateService) findByTemplate(templateID string) *editor.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sess := range s.sessions {
		if sess.TemplateID() == templateID {
			return sess
		}
	}
	return nil
}

func (s *TemplateService) Session(key string) (*editor.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[key]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", key, ErrSessionNotFound)
	}
	return sess, nil
}

// Sessions returns every open session.
func (s *TemplateService) Sessions() []*editor.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*editor.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	return out
}

// ── Save / close ───────────────────────────────────────────

// Save writes the session's working tree and records a checkpoint of it.
func (s *TemplateService) Save(ctx context.Context, key string) (*domain.SaveResult, error) {
	sess, err := s.Session(key)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, sess)
}

func (s *TemplateService) save(ctx context.Context, sess *editor.Session) (*domain.SaveResult, error) {
	if !s.saving.TryLock(sess.Key()) {
		return nil, ErrSaveInProgress
	}
	defer s.saving.Unlock(sess.Key())

	name, templateID, tree, rev := sess.SaveState()
	in := SaveInput{Name: name, Content: tree}
	if err := validate.Struct(in); err != nil {
		return nil, fmt.Errorf("invalid template: %w", err)
	}
	res, err := s.store.SaveTemplate(ctx, in.Name, in.Content, templateID)
	if err != nil {
		return nil, fmt.Errorf("save template: %w", err)
	}
	sess.MarkSaved(res.ID, res.UpdatedAt, rev)

	if s.checkpoints != nil {
		if _, err := s.checkpoints.Push(res.ID, "save", tree); err != nil {
			s.log.Warn("checkpoint failed", zap.String("template", res.ID), zap.Error(err))
		}
	}
	s.log.Info("template saved", zap.String("template", res.ID), zap.String("name", name))
	s.emitter.Emit(ctx, "template:saved", res)
	return res, nil
}

// SaveDirty saves every session with unsaved changes in parallel. A save
// already running for a session is skipped.
func (s *TemplateService) SaveDirty(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelSaves)
	for _, sess := range s.Sessions() {
		if !sess.Dirty() {
			continue
		}
		g.Go(func() error {
			_, err := s.save(ctx, sess)
			if errors.Is(err, ErrSaveInProgress) {
				return nil
			}
			return err
		})
	}
	return g.Wait()
}

// Close ends a session, committing any pending preview and saving unsaved
// changes first.
func (s *TemplateService) Close(ctx context.Context, key string) error {
	sess, err := s.Session(key)
	if err != nil {
		return err
	}
	sess.Close()
	if sess.Dirty() {
		if _, err := s.save(ctx, sess); err != nil {
			return fmt.Errorf("close session: %w", err)
		}
	}
	s.mu.Lock()
	delete(s.sessions, key)
	s.mu.Unlock()
	return nil
}

// CloseAll closes every session; used on shutdown.
func (s *TemplateService) CloseAll(ctx context.Context) error {
	var errs []error
	for _, sess := range s.Sessions() {
		if err := s.Close(ctx, sess.Key()); err != nil {
			errs = append(errs, err)
		}
	}
	s.saving.WaitAll(ctx)
	return errors.Join(errs...)
}

// ── Templates ──────────────────────────────────────────────

func (s *TemplateService) List(ctx context.Context) ([]domain.TemplateSummary, error) {
	return s.store.ListTemplates(ctx)
}

// Load returns a stored template without opening a session.
func (s *TemplateService) Load(ctx context.Context, templateID string) (*domain.Template, error) {
	return s.store.LoadTemplate(ctx, templateID)
}

// Delete removes a template, its checkpoints and any session editing it.
func (s *TemplateService) Delete(ctx context.Context, templateID string) error {
	if err := s.store.DeleteTemplate(ctx, templateID); err != nil {
		return err
	}
	if s.checkpoints != nil {
		if err := s.checkpoints.ClearTemplate(templateID); err != nil {
			s.log.Warn("clear checkpoints failed", zap.String("template", templateID), zap.Error(err))
		}
	}
	s.mu.Lock()
	for key, sess := range s.sessions {
		if sess.TemplateID() == templateID {
			delete(s.sessions, key)
		}
	}
	s.mu.Unlock()
	s.emitter.Emit(ctx, "template:deleted", templateID)
	return nil
}

// Import stores content as a template. An empty templateID creates a new one.
func (s *TemplateService) Import(ctx context.Context, name string, content []domain.CanvasBlock, templateID string) (*domain.SaveResult, error) {
	in := SaveInput{Name: name, Content: content}
	if err := validate.Struct(in); err != nil {
		return nil, fmt.Errorf("invalid template: %w", err)
	}
	res, err := s.store.SaveTemplate(ctx, in.Name, in.Content, templateID)
	if err != nil {
		return nil, fmt.Errorf("import template: %w", err)
	}
	s.emitter.Emit(ctx, "template:saved", res)
	return res, nil
}

// ImportDocument is the on-disk shape of an exported template.
type ImportDocument struct {
	ID      string               `json:"id,omitempty"`
	Name    string               `json:"name"`
	Content []domain.CanvasBlock `json:"content"`
}

// ImportFile reads an ImportDocument from path and stores it. A document
// without a name is named after its file; one with an id overwrites that
// template.
func (s *TemplateService) ImportFile(ctx context.Context, path string) (*domain.SaveResult, error) {
	return s.ImportFileAs(ctx, path, "")
}

// ImportFileAs is ImportFile with a fallback id for documents that carry
// none, so re-importing a file updates the template it created.
func (s *TemplateService) ImportFileAs(ctx context.Context, path, templateID string) (*domain.SaveResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var doc ImportDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if doc.Name == "" {
		doc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if doc.ID == "" {
		doc.ID = templateID
	}
	return s.Import(ctx, doc.Name, doc.Content, doc.ID)
}

// Export returns a stored template in the shape ImportFile reads.
func (s *TemplateService) Export(ctx context.Context, templateID string) (*ImportDocument, error) {
	t, err := s.store.LoadTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}
	return &ImportDocument{ID: t.ID, Name: t.Name, Content: t.Content}, nil
}

// ── Checkpoints ────────────────────────────────────────────

func (s *TemplateService) Checkpoints(templateID string) ([]domain.Checkpoint, error) {
	if s.checkpoints == nil {
		return nil, nil
	}
	return s.checkpoints.List(templateID)
}

// CreateCheckpoint snapshots a saved session's working tree under label.
func (s *TemplateService) CreateCheckpoint(key, label string) (*domain.Checkpoint, error) {
	sess, err := s.Session(key)
	if err != nil {
		return nil, err
	}
	if s.checkpoints == nil {
		return nil, errors.New("checkpoints are not configured")
	}
	if sess.TemplateID() == "" {
		return nil, errors.New("save the template before creating checkpoints")
	}
	return s.checkpoints.Push(sess.TemplateID(), label, sess.Tree())
}

// RestoreCheckpoint replaces the session's tree with a checkpoint as a
// checkpointed edit, so the restore itself can be undone.
func (s *TemplateService) RestoreCheckpoint(key, checkpointID string) error {
	sess, err := s.Session(key)
	if err != nil {
		return err
	}
	if s.checkpoints == nil {
		return fmt.Errorf("checkpoint %s: %w", checkpointID, domain.ErrCheckpointNotFound)
	}
	cp, err := s.checkpoints.Get(checkpointID)
	if err != nil {
		return err
	}
	if cp.TemplateID != sess.TemplateID() {
		return ErrForeignSnapshot
	}
	sess.Edit("restore_checkpoint", func([]domain.CanvasBlock) []domain.CanvasBlock {
		return cp.Content
	})
	return nil
}
