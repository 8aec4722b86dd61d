package canvas

import (
	"slices"

	"mailcanvas/internal/domain"
)

// DeleteNode removes the node sel addresses:
//
//   - primitive / wrapper-primitive: the primitive is removed from its container
//   - column: the whole parent row is removed (partial rows are not supported)
//   - row / wrapper: the row is removed
//
// Deletion is total. A stale address returns tree unchanged.
func DeleteNode(tree []domain.CanvasBlock, sel domain.Selection) []domain.CanvasBlock {
	switch sel.Kind {
	case domain.SelectPrimitive, domain.SelectWrapperPrimitive:
		out, _ := updateContainer(tree, sel, func(blocks []domain.Primitive) ([]domain.Primitive, bool) {
			i := domain.FindPrimitive(blocks, sel.PrimitiveID)
			if i < 0 {
				return blocks, false
			}
			return slices.Delete(slices.Clone(blocks), i, i+1), true
		})
		return out
	case domain.SelectColumn:
		if _, ok := domain.ResolveSelectionType(sel, tree); !ok {
			return tree
		}
		return deleteRow(tree, sel.RowID)
	case domain.SelectWrapper:
		if i := domain.FindBlock(tree, sel.RowID); i < 0 || tree[i].Type != domain.BlockTypeWrapper {
			return tree
		}
		return deleteRow(tree, sel.RowID)
	case domain.SelectRow:
		return deleteRow(tree, sel.RowID)
	}
	return tree
}

func deleteRow(tree []domain.CanvasBlock, rowID string) []domain.CanvasBlock {
	i := domain.FindBlock(tree, rowID)
	if i < 0 {
		return tree
	}
	return slices.Delete(slices.Clone(tree), i, i+1)
}
