// Package history keeps the linear undo/redo log of canvas snapshots.
//
// Each entry is a whole tree. Because the edit operations never mutate
// their input, consecutive entries share every node an edit did not touch,
// so full snapshots cost little more than diffs.
package history

import (
	"slices"

	"mailcanvas/internal/domain"
)

// Update computes the next tree from the latest working tree.
type Update func(tree []domain.CanvasBlock) []domain.CanvasBlock

// Replace returns an Update that ignores the current tree.
func Replace(tree []domain.CanvasBlock) Update {
	return func([]domain.CanvasBlock) []domain.CanvasBlock { return tree }
}

// Manager owns the working tree and its history. The cursor always points
// at an existing entry; the working tree equals that entry unless a preview
// is pending.
type Manager struct {
	entries    [][]domain.CanvasBlock
	cursor     int
	working    []domain.CanvasBlock
	previewing bool
	limit      int
}

type Option func(*Manager)

// WithLimit caps the number of entries; the oldest are dropped first.
// Zero means unbounded.
func WithLimit(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.limit = n
		}
	}
}

// New returns a manager whose only entry is the empty tree.
func New(opts ...Option) *Manager {
	m := &Manager{}
	for _, o := range opts {
		o(m)
	}
	m.Reset([]domain.CanvasBlock{})
	return m
}

// Reset discards all history and makes tree the single entry.
func (m *Manager) Reset(tree []domain.CanvasBlock) {
	if tree == nil {
		tree = []domain.CanvasBlock{}
	}
	m.entries = [][]domain.CanvasBlock{tree}
	m.cursor = 0
	m.working = tree
	m.previewing = false
}

// SetTree computes the next tree from the latest working tree. With record
// set, entries after the cursor are discarded and the result is appended.
// Without it only the working tree changes; a later recorded call (even an
// unchanged one) checkpoints it.
func (m *Manager) SetTree(update Update, record bool) {
	next := update(m.working)
	if next == nil {
		next = []domain.CanvasBlock{}
	}
	if record {
		m.push(next)
		return
	}
	m.working = next
	m.previewing = true
}

// Apply performs a checkpointed edit.
func (m *Manager) Apply(update Update) { m.SetTree(update, true) }

// Preview performs a transient edit. Consecutive previews coalesce; the
// interaction must end with CommitPreview or DiscardPreview.
func (m *Manager) Preview(update Update) { m.SetTree(update, false) }

// CommitPreview checkpoints the working tree if a preview is pending.
func (m *Manager) CommitPreview() bool {
	if !m.previewing {
		return false
	}
	m.push(m.working)
	return true
}

// DiscardPreview restores the working tree to the current entry.
func (m *Manager) DiscardPreview() bool {
	if !m.previewing {
		return false
	}
	m.working = m.entries[m.cursor]
	m.previewing = false
	return true
}

func (m *Manager) push(tree []domain.CanvasBlock) {
	m.entries = append(slices.Clip(m.entries[:m.cursor+1]), tree)
	m.cursor = len(m.entries) - 1
	if m.limit > 0 && len(m.entries) > m.limit {
		drop := len(m.entries) - m.limit
		m.entries = slices.Clone(m.entries[drop:])
		m.cursor -= drop
	}
	m.working = tree
	m.previewing = false
}

// Undo discards a pending preview, then moves the cursor back one entry.
// It reports false only when there was neither a preview nor an older entry.
func (m *Manager) Undo() bool {
	dropped := m.DiscardPreview()
	if m.cursor == 0 {
		return dropped
	}
	m.cursor--
	m.working = m.entries[m.cursor]
	m.previewing = false
	return true
}

// Redo discards a pending preview, then moves the cursor forward one entry.
// It reports false only when there was neither a preview nor a newer entry.
func (m *Manager) Redo() bool {
	dropped := m.DiscardPreview()
	if m.cursor >= len(m.entries)-1 {
		return dropped
	}
	m.cursor++
	m.working = m.entries[m.cursor]
	m.previewing = false
	return true
}

// Current returns the working tree. Callers must not modify it.
func (m *Manager) Current() []domain.CanvasBlock { return m.working }

func (m *Manager) Cursor() int      { return m.cursor }
func (m *Manager) Len() int         { return len(m.entries) }
func (m *Manager) CanUndo() bool    { return m.cursor > 0 }
func (m *Manager) CanRedo() bool    { return m.cursor < len(m.entries)-1 }
func (m *Manager) Previewing() bool { return m.previewing }

// Entry returns the snapshot at index i.
func (m *Manager) Entry(i int) ([]domain.CanvasBlock, bool) {
	if i < 0 || i >= len(m.entries) {
		return nil, false
	}
	return m.entries[i], true
}
