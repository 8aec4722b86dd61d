package canvas_test

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"

	"mailcanvas/internal/canvas"
	"mailcanvas/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// helpers
// ─────────────────────────────────────────────────────────────

func columnsRow(t *testing.T, n int) domain.CanvasBlock {
	t.Helper()
	b, ok := canvas.NewCanvasBlock(domain.BlockTypeColumns, canvas.BlockConfig{ColumnCount: n})
	if !ok {
		t.Fatal("expected columns block")
	}
	return b
}

func wrapperRow(t *testing.T) domain.CanvasBlock {
	t.Helper()
	b, ok := canvas.NewCanvasBlock(domain.BlockTypeWrapper, canvas.BlockConfig{})
	if !ok {
		t.Fatal("expected wrapper block")
	}
	return b
}

func widths(row domain.CanvasBlock) []float64 {
	out := make([]float64, len(row.Columns))
	for i, c := range row.Columns {
		out[i] = c.Width
	}
	return out
}

func sum(ws []float64) float64 {
	var s float64
	for _, w := range ws {
		s += w
	}
	return s
}

func snapshot(t *testing.T, tree []domain.CanvasBlock) string {
	t.Helper()
	data, err := json.Marshal(tree)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(data)
}

// sampleTree builds a columns row with a heading, a wrapper with two
// overlay elements, and a second columns row with a button.
func sampleTree(t *testing.T) []domain.CanvasBlock {
	t.Helper()
	var tree []domain.CanvasBlock
	tree = canvas.AppendCanvasBlock(tree, columnsRow(t, 2))
	tree = canvas.AppendCanvasBlock(tree, wrapperRow(t))
	tree = canvas.AppendCanvasBlock(tree, columnsRow(t, 3))

	tree = canvas.InsertPrimitive(tree, domain.ColumnSelection(tree[0].ID, tree[0].Columns[0].ID), domain.PrimitiveHeading)
	tree = canvas.InsertPrimitive(tree, domain.WrapperSelection(tree[1].ID), domain.PrimitiveEmojiInteractive)
	tree = canvas.InsertPrimitive(tree, domain.WrapperSelection(tree[1].ID), domain.PrimitiveHeadingInteractive)
	tree = canvas.InsertPrimitive(tree, domain.ColumnSelection(tree[2].ID, tree[2].Columns[1].ID), domain.PrimitiveButton)
	return tree
}

func headingSel(tree []domain.CanvasBlock) domain.Selection {
	return domain.PrimitiveSelection(tree[0].ID, tree[0].Columns[0].ID, tree[0].Columns[0].Blocks[0].ID)
}

func overlaySel(tree []domain.CanvasBlock, i int) domain.Selection {
	return domain.WrapperPrimitiveSelection(tree[1].ID, tree[1].Blocks[i].ID)
}

// ─────────────────────────────────────────────────────────────
// Insert
// ─────────────────────────────────────────────────────────────

func TestInitialWidths(t *testing.T) {
	for n := 1; n <= domain.MaxColumns; n++ {
		ws := canvas.InitialWidths(n)
		if len(ws) != n {
			t.Fatalf("n=%d: got %d widths", n, len(ws))
		}
		if s := sum(ws); s != 100 {
			t.Fatalf("n=%d: widths sum to %v", n, s)
		}
	}
	if canvas.InitialWidths(0) != nil {
		t.Fatal("expected nil for zero columns")
	}
}

func TestNewCanvasBlock_ClampsColumnCount(t *testing.T) {
	if got := len(columnsRow(t, 9).Columns); got != domain.MaxColumns {
		t.Fatalf("expected %d columns, got %d", domain.MaxColumns, got)
	}
	if got := len(columnsRow(t, 0).Columns); got != 1 {
		t.Fatalf("expected 1 column, got %d", got)
	}
	if _, ok := canvas.NewCanvasBlock("grid", canvas.BlockConfig{}); ok {
		t.Fatal("expected unknown kind to be rejected")
	}
	w := wrapperRow(t)
	if w.Height != canvas.DefaultWrapperHeight || w.Blocks == nil || w.Styles == nil {
		t.Fatalf("unexpected wrapper defaults: %+v", w)
	}
}

func TestInsertPrimitive_ContainerMustMatchKind(t *testing.T) {
	tree := sampleTree(t)
	before := snapshot(t, tree)

	out := canvas.InsertPrimitive(tree, domain.WrapperSelection(tree[1].ID), domain.PrimitiveText)
	if snapshot(t, out) != before {
		t.Fatal("static primitive must not enter a wrapper")
	}
	out = canvas.InsertPrimitive(tree, domain.ColumnSelection(tree[0].ID, tree[0].Columns[0].ID), domain.PrimitiveEmojiInteractive)
	if snapshot(t, out) != before {
		t.Fatal("interactive primitive must not enter a column")
	}
	out = canvas.InsertPrimitive(tree, domain.ColumnSelection(tree[0].ID, "missing"), domain.PrimitiveText)
	if snapshot(t, out) != before {
		t.Fatal("stale column must be a no-op")
	}
}

func TestNewPrimitive_DefaultNamesAreUnique(t *testing.T) {
	tree := canvas.AppendCanvasBlock(nil, wrapperRow(t))
	sel := domain.WrapperSelection(tree[0].ID)
	for range 3 {
		tree = canvas.InsertPrimitive(tree, sel, domain.PrimitiveEmojiInteractive)
	}
	tree = canvas.InsertPrimitive(tree, sel, domain.PrimitiveHeadingInteractive)

	var names []string
	for _, p := range tree[0].Blocks {
		ip, _ := p.Interactive()
		names = append(names, ip.Label())
	}
	want := []string{"Emoji-1", "Emoji-2", "Emoji-3", "Heading-1"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestDuplicateCanvasBlock_FreshIDs(t *testing.T) {
	tree := sampleTree(t)
	out := canvas.DuplicateCanvasBlock(tree, tree[1].ID)
	if len(out) != len(tree)+1 {
		t.Fatalf("expected %d rows, got %d", len(tree)+1, len(out))
	}
	orig, dup := out[1], out[2]
	if orig.ID == dup.ID {
		t.Fatal("duplicate reused the row id")
	}
	for i := range orig.Blocks {
		if orig.Blocks[i].ID == dup.Blocks[i].ID {
			t.Fatalf("duplicate reused primitive id %s", orig.Blocks[i].ID)
		}
		if diff := cmp.Diff(orig.Blocks[i].Payload, dup.Blocks[i].Payload); diff != "" {
			t.Fatalf("payload differs (-orig +dup):\n%s", diff)
		}
	}
	if orig.Styles == dup.Styles {
		t.Fatal("duplicate shares the styles pointer")
	}
}

// ─────────────────────────────────────────────────────────────
// Resize
// ─────────────────────────────────────────────────────────────

func TestScenario_InsertAndResizeTwoColumns(t *testing.T) {
	tree := canvas.InsertCanvasBlock([]domain.CanvasBlock{}, domain.BlockTypeColumns, canvas.BlockConfig{ColumnCount: 2})
	if len(tree) != 1 || len(tree[0].Columns) != 2 {
		t.Fatalf("unexpected tree: %+v", tree)
	}
	if diff := cmp.Diff([]float64{50, 50}, widths(tree[0])); diff != "" {
		t.Fatalf("initial widths (-want +got):\n%s", diff)
	}

	tree = canvas.ResizeColumns(tree, domain.RowSelection(tree[0].ID), 0, 70)
	if diff := cmp.Diff([]float64{70, 30}, widths(tree[0])); diff != "" {
		t.Fatalf("resized widths (-want +got):\n%s", diff)
	}
}

func TestRedistributeWidths(t *testing.T) {
	tests := []struct {
		name   string
		widths []float64
		i      int
		w      float64
		want   []float64
	}{
		{"two clamps high", []float64{50, 50}, 0, 95, []float64{90, 10}},
		{"two clamps low", []float64{50, 50}, 1, 2, []float64{90, 10}},
		{"three keeps ratio", []float64{20, 40, 40}, 0, 40, []float64{40, 30, 30}},
		{"three floors neighbour", []float64{10, 45, 45}, 1, 80, []float64{10, 80, 10}},
		{"four fixes prefix", []float64{25, 25, 25, 25}, 1, 40, []float64{25, 40, 17.5, 17.5}},
		{"four last reverses", []float64{25, 25, 25, 25}, 3, 40, []float64{20, 20, 20, 40}},
		{"four clamps to 70", []float64{25, 25, 25, 25}, 0, 90, []float64{70, 10, 10, 10}},
		{"out of range", []float64{50, 50}, 2, 70, []float64{50, 50}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := append([]float64(nil), tt.widths...)
			got := canvas.RedistributeWidths(in, tt.i, tt.w)
			if diff := cmp.Diff(tt.want, got, cmp.Comparer(func(a, b float64) bool {
				return math.Abs(a-b) < 1e-9
			})); diff != "" {
				t.Fatalf("widths (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.widths, in); diff != "" {
				t.Fatal("input widths were modified")
			}
		})
	}
}

func TestResizeColumns_RandomSequencesKeepSum(t *testing.T) {
	f := gofakeit.New(42)
	for n := 2; n <= domain.MaxColumns; n++ {
		tree := canvas.AppendCanvasBlock(nil, columnsRow(t, n))
		row := domain.RowSelection(tree[0].ID)
		for step := 0; step < 500; step++ {
			i := f.IntRange(0, n-1)
			w := f.Float64Range(-20, 120)
			tree = canvas.ResizeColumns(tree, row, i, w)

			ws := widths(tree[0])
			if s := sum(ws); math.Abs(s-100) > 1e-6 {
				t.Fatalf("n=%d step=%d: widths %v sum to %v", n, step, ws, s)
			}
			for _, x := range ws {
				if x < 10-1e-6 {
					t.Fatalf("n=%d step=%d: width %v below minimum in %v", n, step, x, ws)
				}
			}
		}
	}
}

func TestResizeColumns_NoOps(t *testing.T) {
	tree := sampleTree(t)
	before := snapshot(t, tree)
	for _, out := range [][]domain.CanvasBlock{
		canvas.ResizeColumns(tree, domain.RowSelection("missing"), 0, 60),
		canvas.ResizeColumns(tree, domain.RowSelection(tree[1].ID), 0, 60),
		canvas.ResizeColumns(tree, domain.RowSelection(tree[0].ID), 5, 60),
	} {
		if snapshot(t, out) != before {
			t.Fatal("expected unchanged tree")
		}
	}
}

// ─────────────────────────────────────────────────────────────
// Update / rename
// ─────────────────────────────────────────────────────────────

func TestUpdatePayloadField(t *testing.T) {
	tree := sampleTree(t)
	sel := headingSel(tree)

	out, err := canvas.UpdatePayloadField(tree, sel, "color", "#FF0000")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	got := out[0].Columns[0].Blocks[0].Payload.(domain.HeadingPayload)
	if got.Color != "#FF0000" {
		t.Fatalf("expected new colour, got %q", got.Color)
	}
	if tree[0].Columns[0].Blocks[0].Payload.(domain.HeadingPayload).Color == "#FF0000" {
		t.Fatal("input tree was modified")
	}
}

func TestUpdatePayloadField_Rejections(t *testing.T) {
	tree := sampleTree(t)
	before := snapshot(t, tree)

	tests := []struct {
		name string
		sel  domain.Selection
		key  string
		val  any
		want error
	}{
		{"unknown field", headingSel(tree), "href", "x", domain.ErrUnknownField},
		{"wrong type", headingSel(tree), "fontSize", "big", domain.ErrInvalidValue},
		{"out of range", headingSel(tree), "fontSize", 500, domain.ErrInvalidValue},
		{"bad enum", headingSel(tree), "align", "middle", domain.ErrInvalidValue},
		{"name is reserved", overlaySel(tree, 0), "name", "Other", domain.ErrReservedField},
		{"position out of box", overlaySel(tree, 0), "x", 140, domain.ErrInvalidValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := canvas.UpdatePayloadField(tree, tt.sel, tt.key, tt.val)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if snapshot(t, out) != before {
				t.Fatal("rejected edit changed the tree")
			}
		})
	}

	out, err := canvas.UpdatePayloadField(tree, domain.PrimitiveSelection(tree[0].ID, tree[0].Columns[0].ID, "gone"), "text", "x")
	if err != nil || snapshot(t, out) != before {
		t.Fatalf("stale address should be a silent no-op, got err=%v", err)
	}
}

func TestRename_SiblingUniqueness(t *testing.T) {
	tree := canvas.InsertCanvasBlock(nil, domain.BlockTypeWrapper, canvas.BlockConfig{Height: 300})
	wrapper := domain.WrapperSelection(tree[0].ID)
	tree = canvas.InsertPrimitive(tree, wrapper, domain.PrimitiveEmojiInteractive)
	first := tree[0].Blocks[0]
	if ip, _ := first.Interactive(); ip.Label() != "Emoji-1" || ip.Position().X != 50 || ip.Position().Y != 50 {
		t.Fatalf("unexpected first overlay: %+v", first.Payload)
	}

	tree = canvas.InsertPrimitive(tree, wrapper, domain.PrimitiveEmojiInteractive)
	second := tree[0].Blocks[1]
	before := snapshot(t, tree)

	out, err := canvas.RenameInteractivePrimitive(tree, tree[0].ID, second.ID, "Emoji-1")
	if !errors.Is(err, domain.ErrNameTaken) {
		t.Fatalf("expected ErrNameTaken, got %v", err)
	}
	if snapshot(t, out) != before {
		t.Fatal("rejected rename changed the tree")
	}

	out, err = canvas.RenameInteractivePrimitive(tree, tree[0].ID, second.ID, "Emoji-2")
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	if ip, _ := out[0].Blocks[1].Interactive(); ip.Label() != "Emoji-2" {
		t.Fatalf("expected Emoji-2, got %q", ip.Label())
	}

	out, err = canvas.RenameInteractivePrimitive(tree, tree[0].ID, second.ID, "Sparkles")
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	if ip, _ := out[0].Blocks[1].Interactive(); ip.Label() != "Sparkles" {
		t.Fatalf("expected Sparkles, got %q", ip.Label())
	}
}

func TestRename_LengthAndEmpty(t *testing.T) {
	tree := sampleTree(t)
	sel := overlaySel(tree, 0)

	if _, err := canvas.RenameInteractivePrimitive(tree, sel.RowID, sel.PrimitiveID, "   "); !errors.Is(err, domain.ErrNameEmpty) {
		t.Fatalf("expected ErrNameEmpty, got %v", err)
	}
	// 20 runes, multi-byte
	ok := "ééééééééééééééééééé1"
	if _, err := canvas.RenameInteractivePrimitive(tree, sel.RowID, sel.PrimitiveID, ok); err != nil {
		t.Fatalf("20-rune name rejected: %v", err)
	}
	if _, err := canvas.RenameInteractivePrimitive(tree, sel.RowID, sel.PrimitiveID, ok+"x"); !errors.Is(err, domain.ErrNameTooLong) {
		t.Fatalf("expected ErrNameTooLong, got %v", err)
	}
	out, err := canvas.RenameInteractivePrimitive(tree, sel.RowID, "gone", "Fine")
	if err != nil || snapshot(t, out) != snapshot(t, tree) {
		t.Fatalf("stale rename should be a no-op, got %v", err)
	}
}

func TestMoveInteractive_Clamps(t *testing.T) {
	tree := sampleTree(t)
	sel := overlaySel(tree, 1)

	out := canvas.MoveInteractive(tree, sel, -5, 130)
	out = canvas.TransformInteractive(out, sel, 9, -400)
	ip, _ := out[1].Blocks[1].Interactive()
	want := domain.Placement{X: 0, Y: 100, Scale: 5, Rotate: -360}
	if diff := cmp.Diff(want, ip.Position()); diff != "" {
		t.Fatalf("placement (-want +got):\n%s", diff)
	}

	// Static primitives have no placement.
	if snapshot(t, canvas.MoveInteractive(tree, headingSel(tree), 10, 10)) != snapshot(t, tree) {
		t.Fatal("moving a column primitive should be a no-op")
	}
}

func TestRowSettings(t *testing.T) {
	tree := sampleTree(t)

	out := canvas.ResizeWrapper(tree, tree[1].ID, 10)
	if out[1].Height != 50 {
		t.Fatalf("expected height clamped to 50, got %v", out[1].Height)
	}
	out = canvas.ResizeWrapper(out, tree[1].ID, 5000)
	if out[1].Height != 2000 {
		t.Fatalf("expected height clamped to 2000, got %v", out[1].Height)
	}
	out = canvas.SetAlignment(out, tree[0].ID, 120)
	if out[0].Alignment != 100 {
		t.Fatalf("expected alignment 100, got %v", out[0].Alignment)
	}
	out = canvas.UpdateWrapperStyles(out, tree[1].ID, domain.WrapperStyles{BackgroundColor: "#000000", BorderRadius: 8})
	if out[1].Styles.BackgroundColor != "#000000" {
		t.Fatalf("styles not applied: %+v", out[1].Styles)
	}
	col := domain.ColumnSelection(tree[2].ID, tree[2].Columns[0].ID)
	out = canvas.UpdateColumnStyles(out, col, &domain.ColumnStyles{BackgroundColor: "#FAFAFA"})
	if out[2].Columns[0].Styles == nil || out[2].Columns[0].Styles.BackgroundColor != "#FAFAFA" {
		t.Fatalf("column styles not applied: %+v", out[2].Columns[0].Styles)
	}
	if tree[1].Height != canvas.DefaultWrapperHeight || tree[0].Alignment != 50 {
		t.Fatal("input tree was modified")
	}
}

// ─────────────────────────────────────────────────────────────
// Reorder / delete
// ─────────────────────────────────────────────────────────────

func TestReorderCanvasBlock(t *testing.T) {
	tree := sampleTree(t)
	ids := func(tr []domain.CanvasBlock) []string {
		var out []string
		for _, b := range tr {
			out = append(out, b.ID)
		}
		return out
	}

	out := canvas.ReorderCanvasBlock(tree, 0, canvas.Down)
	want := []string{tree[1].ID, tree[0].ID, tree[2].ID}
	if diff := cmp.Diff(want, ids(out)); diff != "" {
		t.Fatalf("order (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(ids(tree), ids(canvas.ReorderCanvasBlock(tree, 0, canvas.Up))); diff != "" {
		t.Fatal("moving the first row up should be a no-op")
	}
	if diff := cmp.Diff(ids(tree), ids(canvas.ReorderCanvasBlock(tree, 2, canvas.Down))); diff != "" {
		t.Fatal("moving the last row down should be a no-op")
	}
}

func TestReorderLayer(t *testing.T) {
	tree := sampleTree(t)
	front := tree[1].Blocks[1].ID

	out := canvas.ReorderLayer(tree, tree[1].ID, 1, 0)
	if out[1].Blocks[0].ID != front {
		t.Fatal("expected the front element to move to the back")
	}
	if snapshot(t, canvas.ReorderLayer(tree, tree[1].ID, 0, 7)) != snapshot(t, tree) {
		t.Fatal("out-of-range layer move should be a no-op")
	}
	if snapshot(t, canvas.ReorderLayer(tree, tree[0].ID, 0, 1)) != snapshot(t, tree) {
		t.Fatal("layer move on a columns row should be a no-op")
	}
}

func TestMovePrimitiveInColumn(t *testing.T) {
	tree := sampleTree(t)
	col := domain.ColumnSelection(tree[0].ID, tree[0].Columns[0].ID)
	tree = canvas.InsertPrimitive(tree, col, domain.PrimitiveText)
	heading := headingSel(tree)

	out := canvas.MovePrimitiveInColumn(tree, heading, canvas.Down)
	if out[0].Columns[0].Blocks[1].ID != heading.PrimitiveID {
		t.Fatal("expected heading to move below the text")
	}
	if snapshot(t, canvas.MovePrimitiveInColumn(tree, heading, canvas.Up)) != snapshot(t, tree) {
		t.Fatal("moving the first primitive up should be a no-op")
	}
}

func TestDeleteNode(t *testing.T) {
	tree := sampleTree(t)

	out := canvas.DeleteNode(tree, headingSel(tree))
	if len(out[0].Columns[0].Blocks) != 0 {
		t.Fatal("expected heading to be removed")
	}
	out = canvas.DeleteNode(tree, overlaySel(tree, 0))
	if len(out[1].Blocks) != 1 {
		t.Fatal("expected one overlay element left")
	}
	out = canvas.DeleteNode(tree, domain.ColumnSelection(tree[2].ID, tree[2].Columns[1].ID))
	if len(out) != 2 || domain.FindBlock(out, tree[2].ID) >= 0 {
		t.Fatal("deleting a column should remove its row")
	}
	out = canvas.DeleteNode(tree, domain.WrapperSelection(tree[1].ID))
	if len(out) != 2 || domain.FindBlock(out, tree[1].ID) >= 0 {
		t.Fatal("expected wrapper row to be removed")
	}
}

func TestDeleteNode_WrapperAddressOnColumnsRow(t *testing.T) {
	tree := sampleTree(t)
	out := canvas.DeleteNode(tree, domain.WrapperSelection(tree[0].ID))
	if len(out) != len(tree) || &out[0] != &tree[0] {
		t.Fatal("a wrapper address must not delete a columns row")
	}
	if _, ok := domain.ResolveSelectionType(domain.WrapperSelection(tree[0].ID), tree); ok {
		t.Fatal("address should not resolve either")
	}
}

func TestDeleteNode_MissingIDLeavesTreeEqual(t *testing.T) {
	tree := sampleTree(t)
	for _, sel := range []domain.Selection{
		domain.PrimitiveSelection(tree[0].ID, tree[0].Columns[0].ID, "does-not-exist"),
		domain.WrapperPrimitiveSelection(tree[1].ID, "does-not-exist"),
		domain.ColumnSelection(tree[0].ID, "does-not-exist"),
		domain.RowSelection("does-not-exist"),
		{},
	} {
		out := canvas.DeleteNode(tree, sel)
		if diff := cmp.Diff(tree, out); diff != "" {
			t.Fatalf("%s delete changed the tree (-before +after):\n%s", sel.Kind, diff)
		}
	}
}

// ─────────────────────────────────────────────────────────────
// Structural sharing
// ─────────────────────────────────────────────────────────────

func TestEdits_NeverMutateInput(t *testing.T) {
	tree := sampleTree(t)
	before := snapshot(t, tree)

	edits := map[string]func([]domain.CanvasBlock) []domain.CanvasBlock{
		"insert row": func(tr []domain.CanvasBlock) []domain.CanvasBlock {
			return canvas.InsertCanvasBlock(tr, domain.BlockTypeWrapper, canvas.BlockConfig{})
		},
		"insert primitive": func(tr []domain.CanvasBlock) []domain.CanvasBlock {
			return canvas.InsertPrimitive(tr, domain.ColumnSelection(tr[0].ID, tr[0].Columns[1].ID), domain.PrimitiveImage)
		},
		"update": func(tr []domain.CanvasBlock) []domain.CanvasBlock {
			out, _ := canvas.UpdatePayloadField(tr, headingSel(tr), "text", "Changed")
			return out
		},
		"rename": func(tr []domain.CanvasBlock) []domain.CanvasBlock {
			out, _ := canvas.RenameInteractivePrimitive(tr, tr[1].ID, tr[1].Blocks[0].ID, "Renamed")
			return out
		},
		"resize": func(tr []domain.CanvasBlock) []domain.CanvasBlock {
			return canvas.ResizeColumns(tr, domain.RowSelection(tr[2].ID), 1, 60)
		},
		"move": func(tr []domain.CanvasBlock) []domain.CanvasBlock {
			return canvas.MoveInteractive(tr, overlaySel(tr, 0), 10, 90)
		},
		"layer": func(tr []domain.CanvasBlock) []domain.CanvasBlock {
			return canvas.ReorderLayer(tr, tr[1].ID, 0, 1)
		},
		"reorder": func(tr []domain.CanvasBlock) []domain.CanvasBlock {
			return canvas.ReorderCanvasBlock(tr, 1, canvas.Up)
		},
		"delete": func(tr []domain.CanvasBlock) []domain.CanvasBlock {
			return canvas.DeleteNode(tr, headingSel(tr))
		},
		"duplicate": func(tr []domain.CanvasBlock) []domain.CanvasBlock {
			return canvas.DuplicateCanvasBlock(tr, tr[0].ID)
		},
	}
	for name, edit := range edits {
		out := edit(tree)
		if snapshot(t, tree) != before {
			t.Fatalf("%s mutated its input", name)
		}
		if snapshot(t, out) == before {
			t.Fatalf("%s produced no change", name)
		}
	}
}

func TestEdits_IdenticalValuesReturnSameTree(t *testing.T) {
	tree := sampleTree(t)
	tree = canvas.ResizeColumns(tree, domain.RowSelection(tree[0].ID), 0, 95)
	heading, _ := domain.LookupPrimitive(headingSel(tree), tree)
	text := heading.Payload.(domain.HeadingPayload).Text
	ip, _ := tree[1].Blocks[0].Interactive()
	pos := ip.Position()

	edits := map[string]func([]domain.CanvasBlock) []domain.CanvasBlock{
		"clamped resize": func(tr []domain.CanvasBlock) []domain.CanvasBlock {
			return canvas.ResizeColumns(tr, domain.RowSelection(tr[0].ID), 0, 99)
		},
		"same field": func(tr []domain.CanvasBlock) []domain.CanvasBlock {
			out, err := canvas.UpdatePayloadField(tr, headingSel(tr), "text", text)
			if err != nil {
				t.Fatalf("update: %v", err)
			}
			return out
		},
		"same position": func(tr []domain.CanvasBlock) []domain.CanvasBlock {
			return canvas.MoveInteractive(tr, overlaySel(tr, 0), pos.X, pos.Y)
		},
		"same transform": func(tr []domain.CanvasBlock) []domain.CanvasBlock {
			return canvas.TransformInteractive(tr, overlaySel(tr, 0), pos.Scale, pos.Rotate)
		},
		"same height": func(tr []domain.CanvasBlock) []domain.CanvasBlock {
			return canvas.ResizeWrapper(tr, tr[1].ID, tr[1].Height)
		},
		"same styles": func(tr []domain.CanvasBlock) []domain.CanvasBlock {
			return canvas.UpdateWrapperStyles(tr, tr[1].ID, *tr[1].Styles)
		},
		"same alignment": func(tr []domain.CanvasBlock) []domain.CanvasBlock {
			return canvas.SetAlignment(tr, tr[0].ID, tr[0].Alignment)
		},
		"clear absent column styles": func(tr []domain.CanvasBlock) []domain.CanvasBlock {
			return canvas.UpdateColumnStyles(tr, domain.ColumnSelection(tr[2].ID, tr[2].Columns[0].ID), nil)
		},
	}
	for name, edit := range edits {
		out := edit(tree)
		if len(out) != len(tree) || &out[0] != &tree[0] {
			t.Fatalf("%s returned a new tree", name)
		}
	}
}

func TestEdits_ShareUntouchedNodes(t *testing.T) {
	tree := sampleTree(t)

	out, err := canvas.UpdatePayloadField(tree, headingSel(tree), "text", "Changed")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	// Rows off the edit path are shared outright.
	if &out[1].Blocks[0] != &tree[1].Blocks[0] {
		t.Fatal("wrapper row was copied")
	}
	if &out[2].Columns[0] != &tree[2].Columns[0] {
		t.Fatal("untouched columns row was copied")
	}
	// The edited row gets a new column slice with unchanged siblings.
	if &out[0].Columns[1] == &tree[0].Columns[1] {
		t.Fatal("edited row must get a new column slice")
	}
	if diff := cmp.Diff(tree[0].Columns[1], out[0].Columns[1]); diff != "" {
		t.Fatalf("sibling column changed:\n%s", diff)
	}
	if diff := cmp.Diff(tree[2], out[2]); diff != "" {
		t.Fatalf("untouched row changed:\n%s", diff)
	}
}
