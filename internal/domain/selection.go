package domain

type SelectionKind string

const (
	SelectNone             SelectionKind = ""
	SelectRow              SelectionKind = "row"
	SelectColumn           SelectionKind = "column"
	SelectPrimitive        SelectionKind = "primitive"
	SelectWrapper          SelectionKind = "wrapper"
	SelectWrapperPrimitive SelectionKind = "wrapper-primitive"
)

// Selection addresses a node by ids rather than by reference, so it stays
// meaningful across tree rewrites and degrades to "not found" when the
// target is gone.
type Selection struct {
	Kind        SelectionKind `json:"kind"`
	RowID       string        `json:"rowId,omitempty"`
	ColumnID    string        `json:"columnId,omitempty"`
	PrimitiveID string        `json:"primitiveId,omitempty"`
}

func RowSelection(rowID string) Selection {
	return Selection{Kind: SelectRow, RowID: rowID}
}

func ColumnSelection(rowID, columnID string) Selection {
	return Selection{Kind: SelectColumn, RowID: rowID, ColumnID: columnID}
}

func PrimitiveSelection(rowID, columnID, primitiveID string) Selection {
	return Selection{Kind: SelectPrimitive, RowID: rowID, ColumnID: columnID, PrimitiveID: primitiveID}
}

func WrapperSelection(rowID string) Selection {
	return Selection{Kind: SelectWrapper, RowID: rowID}
}

func WrapperPrimitiveSelection(rowID, primitiveID string) Selection {
	return Selection{Kind: SelectWrapperPrimitive, RowID: rowID, PrimitiveID: primitiveID}
}

func (s Selection) IsNone() bool { return s.Kind == SelectNone }

// VariantTag names what a selection resolves to: a container tag or the
// primitive's type.
type VariantTag string

const (
	TagColumns VariantTag = "columns"
	TagColumn  VariantTag = "column"
	TagWrapper VariantTag = "wrapper"
)

// ResolveSelectionType looks sel up in tree. The boolean is false when the
// address no longer resolves; callers treat that as a deselect.
func ResolveSelectionType(sel Selection, tree []CanvasBlock) (VariantTag, bool) {
	if sel.IsNone() {
		return "", false
	}
	ri := FindBlock(tree, sel.RowID)
	if ri < 0 {
		return "", false
	}
	row := tree[ri]

	switch sel.Kind {
	case SelectRow:
		if row.Type == BlockTypeWrapper {
			return TagWrapper, true
		}
		return TagColumns, true
	case SelectColumn:
		if row.Type != BlockTypeColumns || row.FindColumn(sel.ColumnID) < 0 {
			return "", false
		}
		return TagColumn, true
	case SelectPrimitive:
		if row.Type != BlockTypeColumns {
			return "", false
		}
		ci := row.FindColumn(sel.ColumnID)
		if ci < 0 {
			return "", false
		}
		pi := FindPrimitive(row.Columns[ci].Blocks, sel.PrimitiveID)
		if pi < 0 {
			return "", false
		}
		return VariantTag(row.Columns[ci].Blocks[pi].Type), true
	case SelectWrapper:
		if row.Type != BlockTypeWrapper {
			return "", false
		}
		return TagWrapper, true
	case SelectWrapperPrimitive:
		if row.Type != BlockTypeWrapper {
			return "", false
		}
		pi := FindPrimitive(row.Blocks, sel.PrimitiveID)
		if pi < 0 {
			return "", false
		}
		return VariantTag(row.Blocks[pi].Type), true
	}
	return "", false
}

// LookupPrimitive returns the primitive addressed by a primitive or
// wrapper-primitive selection.
func LookupPrimitive(sel Selection, tree []CanvasBlock) (Primitive, bool) {
	ri := FindBlock(tree, sel.RowID)
	if ri < 0 {
		return Primitive{}, false
	}
	row := tree[ri]
	var blocks []Primitive
	switch sel.Kind {
	case SelectPrimitive:
		ci := row.FindColumn(sel.ColumnID)
		if ci < 0 {
			return Primitive{}, false
		}
		blocks = row.Columns[ci].Blocks
	case SelectWrapperPrimitive:
		if row.Type != BlockTypeWrapper {
			return Primitive{}, false
		}
		blocks = row.Blocks
	default:
		return Primitive{}, false
	}
	pi := FindPrimitive(blocks, sel.PrimitiveID)
	if pi < 0 {
		return Primitive{}, false
	}
	return blocks[pi], true
}
