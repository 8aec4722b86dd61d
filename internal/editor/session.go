// Package editor composes the canvas document, the current selection and
// the undo log into a single editing session.
package editor

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mailcanvas/internal/canvas"
	"mailcanvas/internal/domain"
	"mailcanvas/internal/history"
)

// Session is one open template. The edit engine and history are
// single-threaded; the mutex only serialises callers such as concurrent
// MCP tool calls.
type Session struct {
	mu sync.Mutex

	key        string
	templateID string
	name       string
	savedAt    time.Time
	dirty      bool
	rev        uint64 // bumped on every change to name or tree

	hist *history.Manager
	sel  domain.Selection
	log  *zap.Logger
}

type Option func(*Session)

func WithLogger(l *zap.Logger) Option {
	return func(s *Session) { s.log = l }
}

// WithHistoryLimit bounds the undo log.
func WithHistoryLimit(n int) Option {
	return func(s *Session) { s.hist = history.New(history.WithLimit(n)) }
}

// New opens an empty, unsaved session.
func New(name string, opts ...Option) *Session {
	s := &Session{
		key:  uuid.NewString(),
		name: name,
		hist: history.New(),
		log:  zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	s.log = s.log.With(zap.String("session", s.key))
	return s
}

// Open starts a session on a loaded template. The loaded tree is the only
// history entry, so undo cannot step past it.
func Open(t *domain.Template, opts ...Option) *Session {
	s := New(t.Name, opts...)
	s.templateID = t.ID
	s.savedAt = t.UpdatedAt
	s.hist.Reset(t.Content)
	return s
}

func (s *Session) Key() string { return s.key }

func (s *Session) TemplateID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.templateID
}

func (s *Session) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}

func (s *Session) Rename(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.name != name {
		s.name = name
		s.touch()
	}
}

func (s *Session) touch() {
	s.dirty = true
	s.rev++
}

// Dirty reports whether the tree changed since the last save.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Revision identifies the current state of name and tree. A save records
// the revision it wrote so edits racing with it keep the session dirty.
func (s *Session) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rev
}

// SaveState returns everything a save needs, read under one lock.
func (s *Session) SaveState() (name, templateID string, tree []domain.CanvasBlock, rev uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name, s.templateID, s.hist.Current(), s.rev
}

// MarkSaved records the store's answer to a save of revision rev.
func (s *Session) MarkSaved(id string, at time.Time, rev uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templateID = id
	s.savedAt = at
	s.dirty = s.rev != rev
}

func (s *Session) SavedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.savedAt
}

// Tree returns the working tree. It is immutable and safe to serialise.
func (s *Session) Tree() []domain.CanvasBlock {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hist.Current()
}

// Snapshot returns the working tree as JSON.
func (s *Session) Snapshot() ([]byte, error) {
	return json.Marshal(s.Tree())
}

// Load replaces the document with tree and starts a fresh history.
func (s *Session) Load(tree []domain.CanvasBlock) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hist.Reset(tree)
	s.sel = domain.Selection{}
	s.touch()
}

// HistoryState describes the undo log for display.
type HistoryState struct {
	Cursor     int  `json:"cursor"`
	Entries    int  `json:"entries"`
	CanUndo    bool `json:"canUndo"`
	CanRedo    bool `json:"canRedo"`
	Previewing bool `json:"previewing"`
}

func (s *Session) History() HistoryState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return HistoryState{
		Cursor:     s.hist.Cursor(),
		Entries:    s.hist.Len(),
		CanUndo:    s.hist.CanUndo(),
		CanRedo:    s.hist.CanRedo(),
		Previewing: s.hist.Previewing(),
	}
}

// ── Selection ──────────────────────────────────────────────

func (s *Session) Select(sel domain.Selection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sel = sel
}

// Selection returns the current selection, resetting it to none when its
// address no longer resolves.
func (s *Session) Selection() domain.Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := domain.ResolveSelectionType(s.sel, s.hist.Current()); !ok {
		s.sel = domain.Selection{}
	}
	return s.sel
}

// SelectionType resolves the current selection against the working tree.
func (s *Session) SelectionType() (domain.VariantTag, bool) {
	sel := s.Selection()
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.ResolveSelectionType(sel, s.hist.Current())
}

// ── Edits ──────────────────────────────────────────────────

// apply runs a checkpointed edit. Edits that return the tree unchanged are
// not recorded, so no-ops on stale addresses leave history untouched.
func (s *Session) apply(op string, fn history.Update) bool {
	before := s.hist.Current()
	next := fn(before)
	if sameTree(before, next) {
		s.log.Debug("edit was a no-op", zap.String("op", op))
		return false
	}
	s.hist.Apply(history.Replace(next))
	s.touch()
	s.log.Debug("edit applied", zap.String("op", op), zap.Int("cursor", s.hist.Cursor()))
	return true
}

// sameTree reports whether next is the very slice an operation was given,
// which is how the edit engine signals a no-op.
func sameTree(a, b []domain.CanvasBlock) bool {
	if len(a) != len(b) {
		return false
	}
	if len(a) == 0 {
		return true
	}
	return &a[0] == &b[0]
}

// AddBlock appends a new row and returns its id.
func (s *Session) AddBlock(kind domain.BlockType, cfg canvas.BlockConfig) (string, error) {
	b, ok := canvas.NewCanvasBlock(kind, cfg)
	if !ok {
		return "", fmt.Errorf("unknown block type %q", kind)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apply("insert_block", func(tree []domain.CanvasBlock) []domain.CanvasBlock {
		return canvas.AppendCanvasBlock(tree, b)
	})
	return b.ID, nil
}

// AddPrimitive appends a new primitive to the container and selects it. It
// reports false when the container is gone or does not accept the type.
func (s *Session) AddPrimitive(container domain.Selection, t domain.PrimitiveType) (domain.Selection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := canvas.NewPrimitive(t, canvas.ContainerBlocks(s.hist.Current(), container))
	if !ok {
		return domain.Selection{}, false
	}
	if !s.apply("insert_primitive", func(tree []domain.CanvasBlock) []domain.CanvasBlock {
		return canvas.AppendPrimitive(tree, container, p)
	}) {
		return domain.Selection{}, false
	}
	sel := domain.PrimitiveSelection(container.RowID, container.ColumnID, p.ID)
	if container.Kind == domain.SelectWrapper {
		sel = domain.WrapperPrimitiveSelection(container.RowID, p.ID)
	}
	s.sel = sel
	return sel, true
}

// UpdateField sets one payload field of the addressed primitive.
func (s *Session) UpdateField(sel domain.Selection, key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var verr error
	s.apply("update_field", func(tree []domain.CanvasBlock) []domain.CanvasBlock {
		next, err := canvas.UpdatePayloadField(tree, sel, key, value)
		verr = err
		return next
	})
	return verr
}

// RenameElement renames an overlay primitive.
func (s *Session) RenameElement(wrapperID, primitiveID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var verr error
	s.apply("rename", func(tree []domain.CanvasBlock) []domain.CanvasBlock {
		next, err := canvas.RenameInteractivePrimitive(tree, wrapperID, primitiveID, name)
		verr = err
		return next
	})
	return verr
}

// Edit runs an arbitrary pure edit as a checkpoint. It reports whether the
// tree changed.
func (s *Session) Edit(op string, fn func([]domain.CanvasBlock) []domain.CanvasBlock) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apply(op, fn)
}

func (s *Session) ResizeColumns(row domain.Selection, index int, width float64) bool {
	return s.Edit("resize_columns", func(tree []domain.CanvasBlock) []domain.CanvasBlock {
		return canvas.ResizeColumns(tree, row, index, width)
	})
}

func (s *Session) Reorder(index int, dir canvas.Direction) bool {
	return s.Edit("reorder_block", func(tree []domain.CanvasBlock) []domain.CanvasBlock {
		return canvas.ReorderCanvasBlock(tree, index, dir)
	})
}

func (s *Session) ReorderLayer(wrapperID string, from, to int) bool {
	return s.Edit("reorder_layer", func(tree []domain.CanvasBlock) []domain.CanvasBlock {
		return canvas.ReorderLayer(tree, wrapperID, from, to)
	})
}

func (s *Session) Delete(sel domain.Selection) bool {
	return s.Edit("delete_node", func(tree []domain.CanvasBlock) []domain.CanvasBlock {
		return canvas.DeleteNode(tree, sel)
	})
}

// ── Transient edits ────────────────────────────────────────

// Preview applies fn without checkpointing. Previews coalesce until
// CommitPreview or DiscardPreview.
func (s *Session) Preview(fn func([]domain.CanvasBlock) []domain.CanvasBlock) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hist.Preview(fn)
	s.touch()
}

// PreviewResize is the live-drag form of ResizeColumns.
func (s *Session) PreviewResize(row domain.Selection, index int, width float64) {
	s.Preview(func(tree []domain.CanvasBlock) []domain.CanvasBlock {
		return canvas.ResizeColumns(tree, row, index, width)
	})
}

// CommitPreview checkpoints a pending preview.
func (s *Session) CommitPreview() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hist.CommitPreview() {
		return false
	}
	s.touch()
	return true
}

// DiscardPreview drops a pending preview, restoring the last checkpoint.
func (s *Session) DiscardPreview() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hist.DiscardPreview() {
		return false
	}
	s.touch()
	return true
}

// ── Undo / redo ────────────────────────────────────────────

// Undo steps back one checkpoint and clears the selection.
func (s *Session) Undo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hist.Undo() {
		return false
	}
	s.sel = domain.Selection{}
	s.touch()
	return true
}

// Redo steps forward one checkpoint and clears the selection.
func (s *Session) Redo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hist.Redo() {
		return false
	}
	s.sel = domain.Selection{}
	s.touch()
	return true
}

// Close ends the session. A preview abandoned mid-interaction is
// checkpointed rather than lost.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hist.CommitPreview() {
		s.touch()
		s.log.Info("committed pending preview on close")
	}
}
