// Package canvas implements the edit operations of the template canvas.
//
// Every operation is a pure function from a tree to a new tree. The input is
// never written to: nodes on the path to the edit are shallow-cloned and all
// other nodes are shared with the input. An address that no longer resolves
// makes the operation a no-op returning the input tree.
package canvas

import (
	"slices"

	"github.com/google/uuid"

	"mailcanvas/internal/domain"
)

func newID() string { return uuid.NewString() }

// mapFirst applies fn to the first element accepted by match and returns a
// copy of items with that element replaced. items itself is returned when
// nothing matches or fn declines.
func mapFirst[T any](items []T, match func(T) bool, fn func(T) (T, bool)) ([]T, bool) {
	for i := range items {
		if !match(items[i]) {
			continue
		}
		next, ok := fn(items[i])
		if !ok {
			return items, false
		}
		out := slices.Clone(items)
		out[i] = next
		return out, true
	}
	return items, false
}

func updateRow(tree []domain.CanvasBlock, rowID string, fn func(domain.CanvasBlock) (domain.CanvasBlock, bool)) ([]domain.CanvasBlock, bool) {
	return mapFirst(tree, func(b domain.CanvasBlock) bool { return b.ID == rowID }, fn)
}

func updateColumn(tree []domain.CanvasBlock, rowID, columnID string, fn func(domain.Column) (domain.Column, bool)) ([]domain.CanvasBlock, bool) {
	return updateRow(tree, rowID, func(row domain.CanvasBlock) (domain.CanvasBlock, bool) {
		if row.Type != domain.BlockTypeColumns {
			return row, false
		}
		cols, ok := mapFirst(row.Columns, func(c domain.Column) bool { return c.ID == columnID }, fn)
		if !ok {
			return row, false
		}
		row.Columns = cols
		return row, true
	})
}

// updateContainer rewrites the primitive list of the column or wrapper that
// sel addresses. Primitive selections address their parent container.
func updateContainer(tree []domain.CanvasBlock, sel domain.Selection, fn func([]domain.Primitive) ([]domain.Primitive, bool)) ([]domain.CanvasBlock, bool) {
	switch sel.Kind {
	case domain.SelectColumn, domain.SelectPrimitive:
		return updateColumn(tree, sel.RowID, sel.ColumnID, func(col domain.Column) (domain.Column, bool) {
			blocks, ok := fn(col.Blocks)
			if !ok {
				return col, false
			}
			col.Blocks = blocks
			return col, true
		})
	case domain.SelectWrapper, domain.SelectWrapperPrimitive:
		return updateRow(tree, sel.RowID, func(row domain.CanvasBlock) (domain.CanvasBlock, bool) {
			if row.Type != domain.BlockTypeWrapper {
				return row, false
			}
			blocks, ok := fn(row.Blocks)
			if !ok {
				return row, false
			}
			row.Blocks = blocks
			return row, true
		})
	}
	return tree, false
}

func updatePrimitive(tree []domain.CanvasBlock, sel domain.Selection, fn func(domain.Primitive) (domain.Primitive, bool)) ([]domain.CanvasBlock, bool) {
	if sel.Kind != domain.SelectPrimitive && sel.Kind != domain.SelectWrapperPrimitive {
		return tree, false
	}
	return updateContainer(tree, sel, func(blocks []domain.Primitive) ([]domain.Primitive, bool) {
		return mapFirst(blocks, func(p domain.Primitive) bool { return p.ID == sel.PrimitiveID }, fn)
	})
}

// UpdatePrimitive replaces the primitive addressed by sel with fn's result.
// fn may decline the edit by returning false.
func UpdatePrimitive(tree []domain.CanvasBlock, sel domain.Selection, fn func(domain.Primitive) (domain.Primitive, bool)) []domain.CanvasBlock {
	out, _ := updatePrimitive(tree, sel, fn)
	return out
}
