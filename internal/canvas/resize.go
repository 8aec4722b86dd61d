package canvas

import (
	"slices"

	"mailcanvas/internal/domain"
)

const (
	minColumnWidth  = 10
	maxWidthOfTwo   = 90
	maxWidthOfThree = 80
	maxWidthOfMany  = 70
)

// ResizeColumns sets the width of column changedIndex in the row addressed
// by sel and redistributes the other widths so they still sum to 100. Any
// selection carrying a RowID of a columns row works as the address. A resize
// that leaves every width as it was returns tree unchanged.
func ResizeColumns(tree []domain.CanvasBlock, sel domain.Selection, changedIndex int, newWidth float64) []domain.CanvasBlock {
	out, _ := updateRow(tree, sel.RowID, func(row domain.CanvasBlock) (domain.CanvasBlock, bool) {
		if row.Type != domain.BlockTypeColumns || len(row.Columns) < 2 {
			return row, false
		}
		if changedIndex < 0 || changedIndex >= len(row.Columns) {
			return row, false
		}
		widths := make([]float64, len(row.Columns))
		for i, c := range row.Columns {
			widths[i] = c.Width
		}
		next := RedistributeWidths(widths, changedIndex, newWidth)
		if slices.Equal(next, widths) {
			return row, false
		}

		cols := slices.Clone(row.Columns)
		for i := range cols {
			cols[i].Width = next[i]
		}
		row.Columns = cols
		return row, true
	})
	return out
}

// RedistributeWidths returns new widths after setting widths[i] to w.
//
//   - 2 columns: w is clamped to [10, 90]; the other column gets 100-w.
//   - 3 columns: w is clamped to [10, 80]; the other two share the rest in
//     their prior ratio, each floored at 10. The last non-changed column is
//     always derived as 100 minus the others.
//   - 4+ columns: w is clamped to [10, 70]; columns before i stay fixed and
//     columns after i share the rest in their prior ratio. The last column
//     takes any rounding remainder. When i is the last column the preceding
//     columns absorb the change instead.
//
// widths is not modified. An out-of-range i returns a copy of widths.
func RedistributeWidths(widths []float64, i int, w float64) []float64 {
	n := len(widths)
	out := slices.Clone(widths)
	if n < 2 || i < 0 || i >= n {
		return out
	}

	switch n {
	case 2:
		w = clamp(w, minColumnWidth, maxWidthOfTwo)
		out[i] = w
		out[1-i] = 100 - w
		return out
	case 3:
		return redistributeThree(widths, i, w)
	}

	if i == n-1 {
		rev := slices.Clone(widths)
		slices.Reverse(rev)
		rev = redistributeTail(rev, 0, w)
		slices.Reverse(rev)
		return rev
	}
	return redistributeTail(widths, i, w)
}

func redistributeThree(widths []float64, i int, w float64) []float64 {
	out := slices.Clone(widths)
	w = clamp(w, minColumnWidth, maxWidthOfThree)
	out[i] = w

	var a, b int
	switch i {
	case 0:
		a, b = 1, 2
	case 1:
		a, b = 0, 2
	default:
		a, b = 0, 1
	}

	rest := 100 - w
	ratio := 0.5
	if sum := widths[a] + widths[b]; sum > 0 {
		ratio = widths[a] / sum
	}
	wa := rest * ratio
	if wa < minColumnWidth {
		wa = minColumnWidth
	} else if rest-wa < minColumnWidth {
		wa = rest - minColumnWidth
	}
	out[a] = wa
	out[b] = 100 - out[i] - out[a]
	return out
}

// redistributeTail implements the 4+ column rule for a non-last index.
func redistributeTail(widths []float64, i int, w float64) []float64 {
	n := len(widths)
	out := slices.Clone(widths)

	var fixed float64
	for _, x := range widths[:i] {
		fixed += x
	}
	tail := n - i - 1
	hi := min(float64(maxWidthOfMany), 100-fixed-float64(minColumnWidth*tail))
	if hi < minColumnWidth {
		hi = minColumnWidth
	}
	w = clamp(w, minColumnWidth, hi)
	out[i] = w

	rest := 100 - fixed - w
	var prior float64
	for _, x := range widths[i+1:] {
		prior += x
	}
	remaining := rest
	for j := i + 1; j < n-1; j++ {
		share := rest / float64(tail)
		if prior > 0 {
			share = rest * widths[j] / prior
		}
		after := float64(n - 1 - j)
		share = clamp(share, minColumnWidth, remaining-minColumnWidth*after)
		out[j] = share
		remaining -= share
	}
	out[n-1] = remaining
	return out
}
