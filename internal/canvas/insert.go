package canvas

import (
	"fmt"
	"slices"

	"mailcanvas/internal/domain"
)

const (
	DefaultWrapperHeight = 300
	minWrapperHeight     = 50
	maxWrapperHeight     = 2000
)

// BlockConfig parameterises a new canvas row. ColumnCount applies to
// columns rows, Height and Styles to wrappers.
type BlockConfig struct {
	ColumnCount int
	Height      float64
	Styles      *domain.WrapperStyles
}

// InitialWidths splits 100 into n equal widths. The last width is computed
// as the remainder so the sum is exact.
func InitialWidths(n int) []float64 {
	if n < 1 {
		return nil
	}
	widths := make([]float64, n)
	share := 100.0 / float64(n)
	var used float64
	for i := 0; i < n-1; i++ {
		widths[i] = share
		used += share
	}
	widths[n-1] = 100 - used
	return widths
}

// NewCanvasBlock builds a row with fresh ids. It reports false for an
// unknown kind.
func NewCanvasBlock(kind domain.BlockType, cfg BlockConfig) (domain.CanvasBlock, bool) {
	switch kind {
	case domain.BlockTypeColumns:
		n := min(max(cfg.ColumnCount, 1), domain.MaxColumns)
		cols := make([]domain.Column, n)
		for i, w := range InitialWidths(n) {
			cols[i] = domain.Column{ID: newID(), Width: w, Blocks: []domain.Primitive{}}
		}
		return domain.CanvasBlock{ID: newID(), Type: domain.BlockTypeColumns, Alignment: 50, Columns: cols}, true
	case domain.BlockTypeWrapper:
		height := cfg.Height
		if height <= 0 {
			height = DefaultWrapperHeight
		}
		styles := domain.WrapperStyles{BackgroundColor: "#F3F4F6"}
		if cfg.Styles != nil {
			styles = *cfg.Styles
		}
		return domain.CanvasBlock{
			ID:     newID(),
			Type:   domain.BlockTypeWrapper,
			Height: clamp(height, minWrapperHeight, maxWrapperHeight),
			Styles: &styles,
			Blocks: []domain.Primitive{},
		}, true
	}
	return domain.CanvasBlock{}, false
}

// AppendCanvasBlock returns tree with b added at the end.
func AppendCanvasBlock(tree []domain.CanvasBlock, b domain.CanvasBlock) []domain.CanvasBlock {
	return append(slices.Clip(tree), b)
}

// InsertCanvasBlock appends a new row of the given kind.
func InsertCanvasBlock(tree []domain.CanvasBlock, kind domain.BlockType, cfg BlockConfig) []domain.CanvasBlock {
	b, ok := NewCanvasBlock(kind, cfg)
	if !ok {
		return tree
	}
	return AppendCanvasBlock(tree, b)
}

// NewPrimitive builds a primitive with the factory payload for t. Interactive
// primitives get the first free "<Base>-N" name among siblings.
func NewPrimitive(t domain.PrimitiveType, siblings []domain.Primitive) (domain.Primitive, bool) {
	payload := domain.DefaultPayload(t)
	if payload == nil {
		return domain.Primitive{}, false
	}
	if ip, ok := payload.(domain.InteractivePayload); ok {
		payload = ip.WithLabel(nextName(ip.Label(), siblings))
	}
	return domain.Primitive{ID: newID(), Type: t, Payload: payload}, true
}

func nextName(base string, siblings []domain.Primitive) string {
	for n := 1; ; n++ {
		name := fmt.Sprintf("%s-%d", base, n)
		if !nameTaken(siblings, name, "") {
			return name
		}
	}
}

// AppendPrimitive adds p at the end of the container sel names. Static
// primitives go into columns and interactive ones into wrappers; any other
// combination, or a stale container, leaves tree unchanged.
func AppendPrimitive(tree []domain.CanvasBlock, container domain.Selection, p domain.Primitive) []domain.CanvasBlock {
	switch container.Kind {
	case domain.SelectColumn:
		if p.Type.IsInteractive() {
			return tree
		}
	case domain.SelectWrapper:
		if !p.Type.IsInteractive() {
			return tree
		}
	default:
		return tree
	}
	out, _ := updateContainer(tree, container, func(blocks []domain.Primitive) ([]domain.Primitive, bool) {
		return append(slices.Clip(blocks), p), true
	})
	return out
}

// InsertPrimitive appends a new primitive of type t to the container.
func InsertPrimitive(tree []domain.CanvasBlock, container domain.Selection, t domain.PrimitiveType) []domain.CanvasBlock {
	siblings := ContainerBlocks(tree, container)
	p, ok := NewPrimitive(t, siblings)
	if !ok {
		return tree
	}
	return AppendPrimitive(tree, container, p)
}

// ContainerBlocks returns the primitives of the addressed column or wrapper.
func ContainerBlocks(tree []domain.CanvasBlock, sel domain.Selection) []domain.Primitive {
	ri := domain.FindBlock(tree, sel.RowID)
	if ri < 0 {
		return nil
	}
	row := tree[ri]
	switch sel.Kind {
	case domain.SelectColumn, domain.SelectPrimitive:
		if ci := row.FindColumn(sel.ColumnID); ci >= 0 {
			return row.Columns[ci].Blocks
		}
	case domain.SelectWrapper, domain.SelectWrapperPrimitive:
		if row.Type == domain.BlockTypeWrapper {
			return row.Blocks
		}
	}
	return nil
}

// DuplicateCanvasBlock inserts a copy of the row directly after it. Every
// id in the copy is fresh; interactive names are kept since they are only
// unique per wrapper.
func DuplicateCanvasBlock(tree []domain.CanvasBlock, rowID string) []domain.CanvasBlock {
	i := domain.FindBlock(tree, rowID)
	if i < 0 {
		return tree
	}
	return slices.Insert(slices.Clone(tree), i+1, cloneBlock(tree[i]))
}

func cloneBlock(b domain.CanvasBlock) domain.CanvasBlock {
	b.ID = newID()
	if b.Styles != nil {
		s := *b.Styles
		b.Styles = &s
	}
	if b.Columns != nil {
		cols := make([]domain.Column, len(b.Columns))
		for i, c := range b.Columns {
			c.ID = newID()
			c.Blocks = clonePrimitives(c.Blocks)
			if c.Styles != nil {
				s := *c.Styles
				c.Styles = &s
			}
			cols[i] = c
		}
		b.Columns = cols
	}
	b.Blocks = clonePrimitives(b.Blocks)
	return b
}

func clonePrimitives(blocks []domain.Primitive) []domain.Primitive {
	if blocks == nil {
		return nil
	}
	out := make([]domain.Primitive, len(blocks))
	for i, p := range blocks {
		p.ID = newID()
		out[i] = p
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	return min(max(v, lo), hi)
}
