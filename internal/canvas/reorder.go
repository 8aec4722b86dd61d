package canvas

import (
	"slices"

	"mailcanvas/internal/domain"
)

// Direction is a one-step move within an ordered sequence.
type Direction int

const (
	Up   Direction = -1
	Down Direction = 1
)

// ReorderCanvasBlock swaps the row at index with its neighbour in dir.
// Moving past either end of the tree is rejected as a no-op.
func ReorderCanvasBlock(tree []domain.CanvasBlock, index int, dir Direction) []domain.CanvasBlock {
	if dir != Up && dir != Down {
		return tree
	}
	j := index + int(dir)
	if index < 0 || index >= len(tree) || j < 0 || j >= len(tree) {
		return tree
	}
	out := slices.Clone(tree)
	out[index], out[j] = out[j], out[index]
	return out
}

// ReorderWrapperPrimitive moves the primitive at from to position to.
// Later positions render in front. Out-of-range indices are a no-op.
func ReorderWrapperPrimitive(blocks []domain.Primitive, from, to int) []domain.Primitive {
	if from < 0 || from >= len(blocks) || to < 0 || to >= len(blocks) || from == to {
		return blocks
	}
	p := blocks[from]
	out := slices.Delete(slices.Clone(blocks), from, from+1)
	return slices.Insert(out, to, p)
}

// ReorderLayer applies ReorderWrapperPrimitive to a wrapper in the tree.
func ReorderLayer(tree []domain.CanvasBlock, wrapperID string, from, to int) []domain.CanvasBlock {
	out, _ := updateRow(tree, wrapperID, func(row domain.CanvasBlock) (domain.CanvasBlock, bool) {
		n := len(row.Blocks)
		if row.Type != domain.BlockTypeWrapper || from < 0 || from >= n || to < 0 || to >= n || from == to {
			return row, false
		}
		row.Blocks = ReorderWrapperPrimitive(row.Blocks, from, to)
		return row, true
	})
	return out
}

// MovePrimitiveInColumn swaps a column primitive with its neighbour in dir.
func MovePrimitiveInColumn(tree []domain.CanvasBlock, sel domain.Selection, dir Direction) []domain.CanvasBlock {
	if sel.Kind != domain.SelectPrimitive || (dir != Up && dir != Down) {
		return tree
	}
	out, _ := updateContainer(tree, sel, func(blocks []domain.Primitive) ([]domain.Primitive, bool) {
		i := domain.FindPrimitive(blocks, sel.PrimitiveID)
		j := i + int(dir)
		if i < 0 || j < 0 || j >= len(blocks) {
			return blocks, false
		}
		next := slices.Clone(blocks)
		next[i], next[j] = next[j], next[i]
		return next, true
	})
	return out
}
