package dataset

import "fmt"

// sliceHeaderBytes approximates the fixed overhead of a resident slice.
const sliceHeaderBytes = 64

// Slice is the data read through one window, row-major over the window shape.
type Slice struct {
	Key    Key
	Shape  []int
	Values []float64
}

// Bytes returns the size charged against the cache budget.
func (s *Slice) Bytes() int64 {
	if s == nil {
		return 0
	}
	return int64(len(s.Values))*8 + int64(len(s.Key.Path)) + sliceHeaderBytes
}

// At returns the value at absolute dataset indices, which must lie inside
// the slice window.
func (s *Slice) At(idx []int) (float64, bool) {
	w := s.Key.Window
	if len(idx) != len(w) {
		return 0, false
	}
	off := 0
	for d, i := range idx {
		if !w[d].Contains(i) {
			return 0, false
		}
		off = off*w[d].Len() + (i - w[d].Start)
	}
	if off >= len(s.Values) {
		return 0, false
	}
	return s.Values[off], true
}

// Table is a 2-D pivot of a slice: rows along one dimension, columns along
// another, every other dimension held at a fixed index.
type Table struct {
	RowName   string
	ColName   string
	RowLabels []string
	ColLabels []string
	// Cells is indexed [row][col].
	Cells     [][]float64
	RowTotals []float64
	ColTotals []float64
	Total     float64
}

// Pivot builds the table for rowAxis by colAxis of s. A negative axis
// collapses to a single row or column, which is how 1-D and scalar datasets
// are shown. fixed holds the absolute index of every dimension; entries for
// the two axes are ignored.
func Pivot(m Meta, s *Slice, rowAxis, colAxis int, fixed []int) (Table, error) {
	if s == nil {
		return Table{}, fmt.Errorf("no data")
	}
	w := s.Key.Window
	if len(w) != m.NDims() || len(fixed) != m.NDims() {
		return Table{}, fmt.Errorf("pivot of %s: window and indices must have %d dimensions", m.Path, m.NDims())
	}
	if rowAxis >= 0 && rowAxis == colAxis {
		return Table{}, fmt.Errorf("pivot of %s: row and column axis are both %d", m.Path, rowAxis)
	}

	rows := axisIndices(w, rowAxis)
	cols := axisIndices(w, colAxis)

	t := Table{
		RowName:   axisName(m, rowAxis),
		ColName:   axisName(m, colAxis),
		RowLabels: axisLabels(m, rowAxis, rows),
		ColLabels: axisLabels(m, colAxis, cols),
		Cells:     make([][]float64, len(rows)),
		RowTotals: make([]float64, len(rows)),
		ColTotals: make([]float64, len(cols)),
	}
	if colAxis < 0 {
		t.ColLabels = []string{"value"}
	}

	idx := make([]int, len(fixed))
	copy(idx, fixed)
	for r, ri := range rows {
		t.Cells[r] = make([]float64, len(cols))
		for c, ci := range cols {
			if rowAxis >= 0 {
				idx[rowAxis] = ri
			}
			if colAxis >= 0 {
				idx[colAxis] = ci
			}
			v, ok := s.At(idx)
			if !ok {
				return Table{}, fmt.Errorf("pivot of %s: index %v outside window %s", m.Path, idx, w)
			}
			t.Cells[r][c] = v
			t.RowTotals[r] += v
			t.ColTotals[c] += v
			t.Total += v
		}
	}
	return t, nil
}

func axisIndices(w Window, axis int) []int {
	if axis < 0 {
		return []int{0}
	}
	r := w[axis]
	out := make([]int, 0, r.Len())
	for i := r.Start; i < r.End; i++ {
		out = append(out, i)
	}
	return out
}

func axisName(m Meta, axis int) string {
	if axis < 0 {
		return ""
	}
	return m.DimName(axis)
}

func axisLabels(m Meta, axis int, indices []int) []string {
	if axis < 0 {
		return []string{""}
	}
	out := make([]string, len(indices))
	for i, idx := range indices {
		out[i] = m.Label(axis, idx)
	}
	return out
}

// DefaultAxes returns the initial pivot axes for a dataset with ndims
// dimensions: the last dimension across, the first one down.
func DefaultAxes(ndims int) (rowAxis, colAxis int) {
	switch ndims {
	case 0:
		return -1, -1
	case 1:
		return 0, -1
	default:
		return 0, ndims - 1
	}
}
