package canvas

import (
	"mailcanvas/internal/domain"
)

// UpdatePayloadField replaces one payload field of the addressed primitive.
// A stale address or an unchanged value returns tree with a nil error; an
// unknown field or an invalid value returns tree with a *domain.ValidationError.
func UpdatePayloadField(tree []domain.CanvasBlock, sel domain.Selection, key string, value any) ([]domain.CanvasBlock, error) {
	var verr error
	out, _ := updatePrimitive(tree, sel, func(p domain.Primitive) (domain.Primitive, bool) {
		next, err := domain.SetPayloadField(p.Payload, key, value)
		if err != nil {
			verr = err
			return p, false
		}
		if next == p.Payload {
			return p, false
		}
		p.Payload = next
		return p, true
	})
	if verr != nil {
		return tree, verr
	}
	return out, nil
}

// MoveInteractive sets the x/y position of an overlay primitive, clamped to
// the wrapper box.
func MoveInteractive(tree []domain.CanvasBlock, sel domain.Selection, x, y float64) []domain.CanvasBlock {
	return updatePlacement(tree, sel, func(pl domain.Placement) domain.Placement {
		pl.X = clamp(x, 0, 100)
		pl.Y = clamp(y, 0, 100)
		return pl
	})
}

// TransformInteractive sets the scale and rotation of an overlay primitive.
func TransformInteractive(tree []domain.CanvasBlock, sel domain.Selection, scale, rotate float64) []domain.CanvasBlock {
	return updatePlacement(tree, sel, func(pl domain.Placement) domain.Placement {
		pl.Scale = clamp(scale, 0.1, 5)
		pl.Rotate = clamp(rotate, -360, 360)
		return pl
	})
}

func updatePlacement(tree []domain.CanvasBlock, sel domain.Selection, fn func(domain.Placement) domain.Placement) []domain.CanvasBlock {
	if sel.Kind != domain.SelectWrapperPrimitive {
		return tree
	}
	return UpdatePrimitive(tree, sel, func(p domain.Primitive) (domain.Primitive, bool) {
		ip, ok := p.Interactive()
		if !ok {
			return p, false
		}
		pl := fn(ip.Position())
		if pl == ip.Position() {
			return p, false
		}
		p.Payload = ip.WithPosition(pl)
		return p, true
	})
}

// ResizeWrapper sets a wrapper's height in pixels.
func ResizeWrapper(tree []domain.CanvasBlock, rowID string, height float64) []domain.CanvasBlock {
	out, _ := updateRow(tree, rowID, func(row domain.CanvasBlock) (domain.CanvasBlock, bool) {
		if row.Type != domain.BlockTypeWrapper {
			return row, false
		}
		h := clamp(height, minWrapperHeight, maxWrapperHeight)
		if h == row.Height {
			return row, false
		}
		row.Height = h
		return row, true
	})
	return out
}

// UpdateWrapperStyles replaces a wrapper's container styles.
func UpdateWrapperStyles(tree []domain.CanvasBlock, rowID string, styles domain.WrapperStyles) []domain.CanvasBlock {
	out, _ := updateRow(tree, rowID, func(row domain.CanvasBlock) (domain.CanvasBlock, bool) {
		if row.Type != domain.BlockTypeWrapper || (row.Styles != nil && *row.Styles == styles) {
			return row, false
		}
		row.Styles = &styles
		return row, true
	})
	return out
}

// UpdateColumnStyles replaces a column's styles; nil clears them.
func UpdateColumnStyles(tree []domain.CanvasBlock, sel domain.Selection, styles *domain.ColumnStyles) []domain.CanvasBlock {
	if sel.Kind != domain.SelectColumn {
		return tree
	}
	if styles != nil {
		s := *styles
		styles = &s
	}
	out, _ := updateColumn(tree, sel.RowID, sel.ColumnID, func(col domain.Column) (domain.Column, bool) {
		if sameColumnStyles(col.Styles, styles) {
			return col, false
		}
		col.Styles = styles
		return col, true
	})
	return out
}

// SetAlignment sets the alignment (0-100) of a columns row.
func SetAlignment(tree []domain.CanvasBlock, rowID string, alignment float64) []domain.CanvasBlock {
	out, _ := updateRow(tree, rowID, func(row domain.CanvasBlock) (domain.CanvasBlock, bool) {
		if row.Type != domain.BlockTypeColumns {
			return row, false
		}
		a := clamp(alignment, 0, 100)
		if a == row.Alignment {
			return row, false
		}
		row.Alignment = a
		return row, true
	})
	return out
}

func sameColumnStyles(a, b *domain.ColumnStyles) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
