package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"mailcanvas/internal/canvas"
	"mailcanvas/internal/domain"
	"mailcanvas/internal/editor"
)

func selectionParams() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("sessionId", mcp.Description("Session ID (optional, defaults to active session)")),
		mcp.WithString("kind",
			mcp.Description("Address kind: row, column, primitive, wrapper, wrapper-primitive (optional, defaults to the current selection)"),
			mcp.Enum("row", "column", "primitive", "wrapper", "wrapper-primitive"),
		),
		mcp.WithString("rowId", mcp.Description("Row (canvas block) ID")),
		mcp.WithString("columnId", mcp.Description("Column ID (column and primitive kinds)")),
		mcp.WithString("primitiveId", mcp.Description("Primitive ID (primitive and wrapper-primitive kinds)")),
	}
}

func tool(name, description string, opts ...mcp.ToolOption) mcp.Tool {
	return mcp.NewTool(name, append([]mcp.ToolOption{mcp.WithDescription(description)}, opts...)...)
}

func (s *Server) registerCanvasTools() {
	// ── select ─────────────────────────────────────────
	s.mcp.AddTool(tool("select",
		"Select a node on the canvas. Later edits default to the selected node.",
		selectionParams()...,
	), s.handleSelect)

	// ── insert_block ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("insert_block",
		mcp.WithDescription("Append a row to the canvas: a columns layout or a wrapper for free-positioned overlays"),
		mcp.WithString("sessionId", mcp.Description("Session ID (optional, defaults to active session)")),
		mcp.WithString("type", mcp.Description("Row type"), mcp.Enum("columns", "wrapper"), mcp.Required()),
		mcp.WithNumber("columnCount", mcp.Description("Columns for a columns row, 1-4 (default 1)")),
		mcp.WithNumber("height", mcp.Description("Wrapper height in px, 50-2000 (default 300)")),
	), s.handleInsertBlock)

	// ── insert_element ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("insert_element",
		mcp.WithDescription("Add a content element. Static types go into a column (pass columnId); interactive types (emoji-interactive, heading-interactive) go into a wrapper. The new element becomes the selection."),
		mcp.WithString("sessionId", mcp.Description("Session ID (optional, defaults to active session)")),
		mcp.WithString("type", mcp.Description("Element type, e.g. heading, text, image, button, emoji-interactive"), mcp.Required()),
		mcp.WithString("rowId", mcp.Description("Target row ID"), mcp.Required()),
		mcp.WithString("columnId", mcp.Description("Target column ID (omit for wrappers)")),
	), s.handleInsertElement)

	// ── update_field ───────────────────────────────────
	s.mcp.AddTool(tool("update_field",
		"Set one payload field of an element. value is JSON (32, true, \"text\"); a bare word is taken as a string.",
		append(selectionParams(),
			mcp.WithString("key", mcp.Description("Payload field, e.g. text, fontSize, url"), mcp.Required()),
			mcp.WithString("value", mcp.Description("New value as JSON"), mcp.Required()),
		)...,
	), s.handleUpdateField)

	// ── rename_element ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("rename_element",
		mcp.WithDescription("Rename an overlay element. Names are at most 20 characters and unique within their wrapper."),
		mcp.WithString("sessionId", mcp.Description("Session ID (optional, defaults to active session)")),
		mcp.WithString("rowId", mcp.Description("Wrapper row ID"), mcp.Required()),
		mcp.WithString("primitiveId", mcp.Description("Element ID"), mcp.Required()),
		mcp.WithString("name", mcp.Description("New name"), mcp.Required()),
	), s.handleRenameElement)

	// ── resize_columns ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("resize_columns",
		mcp.WithDescription("Set one column's width; the others are redistributed so widths sum to 100. With preview=true the change is not yet recorded for undo; a later call without preview records it."),
		mcp.WithString("sessionId", mcp.Description("Session ID (optional, defaults to active session)")),
		mcp.WithString("rowId", mcp.Description("Columns row ID"), mcp.Required()),
		mcp.WithNumber("index", mcp.Description("Column index"), mcp.Required()),
		mcp.WithNumber("width", mcp.Description("New width in percent"), mcp.Required()),
		mcp.WithBoolean("preview", mcp.Description("Transient edit during a drag (default false)")),
	), s.handleResizeColumns)

	// ── reorder_block ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("reorder_block",
		mcp.WithDescription("Move a row one step up or down"),
		mcp.WithString("sessionId", mcp.Description("Session ID (optional, defaults to active session)")),
		mcp.WithNumber("index", mcp.Description("Current row index"), mcp.Required()),
		mcp.WithString("direction", mcp.Enum("up", "down"), mcp.Required()),
	), s.handleReorderBlock)

	// ── reorder_layer ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("reorder_layer",
		mcp.WithDescription("Move an overlay element within its wrapper's stacking order (later is in front)"),
		mcp.WithString("sessionId", mcp.Description("Session ID (optional, defaults to active session)")),
		mcp.WithString("rowId", mcp.Description("Wrapper row ID"), mcp.Required()),
		mcp.WithNumber("from", mcp.Description("Current layer index"), mcp.Required()),
		mcp.WithNumber("to", mcp.Description("New layer index"), mcp.Required()),
	), s.handleReorderLayer)

	// ── delete_node ────────────────────────────────────
	s.mcp.AddTool(tool("delete_node",
		"Delete the addressed node. Deleting a column deletes its whole row.",
		append(selectionParams(), mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}))...,
	), s.handleDeleteNode)

	// ── move_element ───────────────────────────────────
	s.mcp.AddTool(tool("move_element",
		"Position an overlay element: x/y in percent of the wrapper, scale 0.1-5, rotate in degrees",
		append(selectionParams(),
			mcp.WithNumber("x", mcp.Description("Horizontal position 0-100")),
			mcp.WithNumber("y", mcp.Description("Vertical position 0-100")),
			mcp.WithNumber("scale", mcp.Description("Scale factor")),
			mcp.WithNumber("rotate", mcp.Description("Rotation in degrees")),
		)...,
	), s.handleMoveElement)

	// ── duplicate_block ────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("duplicate_block",
		mcp.WithDescription("Insert a copy of a row directly after it"),
		mcp.WithString("sessionId", mcp.Description("Session ID (optional, defaults to active session)")),
		mcp.WithString("rowId", mcp.Description("Row ID"), mcp.Required()),
	), s.handleDuplicateBlock)

	// ── style_block ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("style_block",
		mcp.WithDescription("Change row-level settings: wrapper height and background, or columns alignment"),
		mcp.WithString("sessionId", mcp.Description("Session ID (optional, defaults to active session)")),
		mcp.WithString("rowId", mcp.Description("Row ID"), mcp.Required()),
		mcp.WithNumber("height", mcp.Description("Wrapper height in px")),
		mcp.WithString("backgroundColor", mcp.Description("Wrapper background colour")),
		mcp.WithNumber("borderRadius", mcp.Description("Wrapper border radius")),
		mcp.WithString("backgroundImage", mcp.Description("Wrapper background image URL")),
		mcp.WithNumber("alignment", mcp.Description("Columns row alignment 0-100")),
	), s.handleStyleBlock)
}

// selectionFrom reads an explicit address from args, or the session's
// current selection when no kind is given.
func selectionFrom(sess *editor.Session, args map[string]any) (domain.Selection, error) {
	kind, _ := args["kind"].(string)
	if kind == "" {
		sel := sess.Selection()
		if sel.IsNone() {
			return sel, fmt.Errorf("nothing is selected; pass kind and ids or use select first")
		}
		return sel, nil
	}
	sel := domain.Selection{Kind: domain.SelectionKind(kind)}
	sel.RowID, _ = args["rowId"].(string)
	sel.ColumnID, _ = args["columnId"].(string)
	sel.PrimitiveID, _ = args["primitiveId"].(string)
	switch sel.Kind {
	case domain.SelectRow, domain.SelectColumn, domain.SelectPrimitive, domain.SelectWrapper, domain.SelectWrapperPrimitive:
		return sel, nil
	}
	return sel, fmt.Errorf("unknown selection kind %q", kind)
}

// decodeValue parses a tool argument as JSON, falling back to the raw string.
func decodeValue(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	return v
}

// editResult reports an edit and the resulting canvas.
func (s *Server) editResult(ctx context.Context, sess *editor.Session, changed bool, what string) (*mcp.CallToolResult, error) {
	if !changed {
		return textResult(fmt.Sprintf("%s: nothing changed (the target may no longer exist)", what)), nil
	}
	s.emitCanvasChanged(ctx, sess)
	return jsonResult(viewOf(sess))
}

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handleSelect(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	sess, err := s.resolveSession(args)
	if err != nil {
		return nil, err
	}
	if kind, _ := args["kind"].(string); kind == "" {
		sess.Select(domain.Selection{})
		return textResult("Selection cleared"), nil
	}
	sel, err := selectionFrom(sess, args)
	if err != nil {
		return nil, err
	}
	tag, ok := domain.ResolveSelectionType(sel, sess.Tree())
	if !ok {
		return nil, fmt.Errorf("no %s at that address", sel.Kind)
	}
	sess.Select(sel)
	return jsonResult(map[string]any{"selection": sel, "type": tag})
}

func (s *Server) handleInsertBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	sess, err := s.resolveSession(args)
	if err != nil {
		return nil, err
	}
	kind, err := requireString(args, "type")
	if err != nil {
		return nil, err
	}
	cfg := canvas.BlockConfig{
		ColumnCount: int(getFloat(args, "columnCount", 1)),
		Height:      getFloat(args, "height", canvas.DefaultWrapperHeight),
	}
	id, err := sess.AddBlock(domain.BlockType(kind), cfg)
	if err != nil {
		return nil, err
	}
	s.emitCanvasChanged(ctx, sess)
	return jsonResult(map[string]string{"rowId": id})
}

func (s *Server) handleInsertElement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	sess, err := s.resolveSession(args)
	if err != nil {
		return nil, err
	}
	typ, err := requireString(args, "type")
	if err != nil {
		return nil, err
	}
	rowID, err := requireString(args, "rowId")
	if err != nil {
		return nil, err
	}
	container := domain.WrapperSelection(rowID)
	if colID, _ := args["columnId"].(string); colID != "" {
		container = domain.ColumnSelection(rowID, colID)
	}
	sel, ok := sess.AddPrimitive(container, domain.PrimitiveType(typ))
	if !ok {
		return nil, fmt.Errorf("cannot add %s to that %s", typ, container.Kind)
	}
	s.emitCanvasChanged(ctx, sess)
	return jsonResult(map[string]any{"selection": sel})
}

func (s *Server) handleUpdateField(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	sess, err := s.resolveSession(args)
	if err != nil {
		return nil, err
	}
	sel, err := selectionFrom(sess, args)
	if err != nil {
		return nil, err
	}
	key, err := requireString(args, "key")
	if err != nil {
		return nil, err
	}
	raw, _ := args["value"].(string)
	before := sess.Revision()
	if err := sess.UpdateField(sel, key, decodeValue(raw)); err != nil {
		return nil, err
	}
	return s.editResult(ctx, sess, sess.Revision() != before, "update_field")
}

func (s *Server) handleRenameElement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	sess, err := s.resolveSession(args)
	if err != nil {
		return nil, err
	}
	rowID, err := requireString(args, "rowId")
	if err != nil {
		return nil, err
	}
	primID, err := requireString(args, "primitiveId")
	if err != nil {
		return nil, err
	}
	name, _ := args["name"].(string)
	before := sess.Revision()
	if err := sess.RenameElement(rowID, primID, name); err != nil {
		return nil, err
	}
	return s.editResult(ctx, sess, sess.Revision() != before, "rename_element")
}

func (s *Server) handleResizeColumns(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	sess, err := s.resolveSession(args)
	if err != nil {
		return nil, err
	}
	rowID, err := requireString(args, "rowId")
	if err != nil {
		return nil, err
	}
	index, _ := getInt(args, "index")
	width := getFloat(args, "width", 0)
	row := domain.RowSelection(rowID)

	if preview, _ := args["preview"].(bool); preview {
		sess.PreviewResize(row, index, width)
		return jsonResult(viewOf(sess))
	}
	changed := sess.ResizeColumns(row, index, width)
	if !changed {
		// A preview at the same widths still needs recording.
		changed = sess.CommitPreview()
	}
	return s.editResult(ctx, sess, changed, "resize_columns")
}

func (s *Server) handleReorderBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	sess, err := s.resolveSession(args)
	if err != nil {
		return nil, err
	}
	index, _ := getInt(args, "index")
	dir := canvas.Down
	switch d, _ := args["direction"].(string); d {
	case "up":
		dir = canvas.Up
	case "down":
	default:
		return nil, fmt.Errorf("direction must be up or down")
	}
	return s.editResult(ctx, sess, sess.Reorder(index, dir), "reorder_block")
}

func (s *Server) handleReorderLayer(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	sess, err := s.resolveSession(args)
	if err != nil {
		return nil, err
	}
	rowID, err := requireString(args, "rowId")
	if err != nil {
		return nil, err
	}
	from, _ := getInt(args, "from")
	to, _ := getInt(args, "to")
	return s.editResult(ctx, sess, sess.ReorderLayer(rowID, from, to), "reorder_layer")
}

func (s *Server) handleDeleteNode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	sess, err := s.resolveSession(args)
	if err != nil {
		return nil, err
	}
	sel, err := selectionFrom(sess, args)
	if err != nil {
		return nil, err
	}
	return s.editResult(ctx, sess, sess.Delete(sel), "delete_node")
}

func (s *Server) handleMoveElement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	sess, err := s.resolveSession(args)
	if err != nil {
		return nil, err
	}
	sel, err := selectionFrom(sess, args)
	if err != nil {
		return nil, err
	}
	p, ok := domain.LookupPrimitive(sel, sess.Tree())
	if !ok {
		return nil, fmt.Errorf("no element at that address")
	}
	ip, ok := p.Interactive()
	if !ok {
		return nil, fmt.Errorf("%s elements are not freely positioned", p.Type)
	}
	pos := ip.Position()
	x, y := getFloat(args, "x", pos.X), getFloat(args, "y", pos.Y)
	scale, rotate := getFloat(args, "scale", pos.Scale), getFloat(args, "rotate", pos.Rotate)
	changed := sess.Edit("move_element", func(tree []domain.CanvasBlock) []domain.CanvasBlock {
		tree = canvas.MoveInteractive(tree, sel, x, y)
		return canvas.TransformInteractive(tree, sel, scale, rotate)
	})
	return s.editResult(ctx, sess, changed, "move_element")
}

func (s *Server) handleDuplicateBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	sess, err := s.resolveSession(args)
	if err != nil {
		return nil, err
	}
	rowID, err := requireString(args, "rowId")
	if err != nil {
		return nil, err
	}
	changed := sess.Edit("duplicate_block", func(tree []domain.CanvasBlock) []domain.CanvasBlock {
		return canvas.DuplicateCanvasBlock(tree, rowID)
	})
	return s.editResult(ctx, sess, changed, "duplicate_block")
}

func (s *Server) handleStyleBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	sess, err := s.resolveSession(args)
	if err != nil {
		return nil, err
	}
	rowID, err := requireString(args, "rowId")
	if err != nil {
		return nil, err
	}
	tree := sess.Tree()
	i := domain.FindBlock(tree, rowID)
	if i < 0 {
		return nil, fmt.Errorf("row %s not found", rowID)
	}
	row := tree[i]

	changed := sess.Edit("style_block", func(tree []domain.CanvasBlock) []domain.CanvasBlock {
		if h, ok := args["height"].(float64); ok {
			tree = canvas.ResizeWrapper(tree, rowID, h)
		}
		if a, ok := args["alignment"].(float64); ok {
			tree = canvas.SetAlignment(tree, rowID, a)
		}
		if row.Styles != nil {
			styles := *row.Styles
			touched := false
			if v, ok := args["backgroundColor"].(string); ok {
				styles.BackgroundColor, touched = v, true
			}
			if v, ok := args["borderRadius"].(float64); ok {
				styles.BorderRadius, touched = v, true
			}
			if v, ok := args["backgroundImage"].(string); ok {
				styles.BackgroundImage, touched = v, true
			}
			if touched {
				tree = canvas.UpdateWrapperStyles(tree, rowID, styles)
			}
		}
		return tree
	})
	return s.editResult(ctx, sess, changed, "style_block")
}
