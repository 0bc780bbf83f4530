package dataset

import (
	"fmt"
	"strconv"
	"strings"
)

// Range is the half-open index range [Start, End) along one dimension.
type Range struct {
	Start int
	End   int
}

// Len returns the number of indices in the range.
func (r Range) Len() int {
	return r.End - r.Start
}

// Contains reports whether i lies in the range.
func (r Range) Contains(i int) bool {
	return i >= r.Start && i < r.End
}

// Window selects one range per dimension of a dataset.
type Window []Range

// FullWindow spans every dimension of m. Dimension 0 is capped at maxRows
// when maxRows is positive.
func FullWindow(m Meta, maxRows int) Window {
	w := make(Window, len(m.Shape))
	for d, size := range m.Shape {
		w[d] = Range{Start: 0, End: size}
	}
	if maxRows > 0 && len(w) > 0 && w[0].End > maxRows {
		w[0].End = maxRows
	}
	return w
}

// Clone returns an independent copy.
func (w Window) Clone() Window {
	if w == nil {
		return nil
	}
	out := make(Window, len(w))
	copy(out, w)
	return out
}

// Equal reports whether both windows select the same ranges.
func (w Window) Equal(o Window) bool {
	if len(w) != len(o) {
		return false
	}
	for i := range w {
		if w[i] != o[i] {
			return false
		}
	}
	return true
}

// Shape returns the length of each range.
func (w Window) Shape() []int {
	out := make([]int, len(w))
	for i, r := range w {
		out[i] = r.Len()
	}
	return out
}

// Size returns the number of elements selected.
func (w Window) Size() int {
	n := 1
	for _, r := range w {
		n *= r.Len()
	}
	return n
}

// Shift moves dimension dim by delta, keeping its length and clamping it
// inside [0, size).
func (w Window) Shift(dim, delta, size int) Window {
	out := w.Clone()
	if dim < 0 || dim >= len(out) {
		return out
	}
	r := out[dim]
	n := r.Len()
	start := clamp(r.Start+delta, 0, max(size-n, 0))
	out[dim] = Range{Start: start, End: start + n}
	return out
}

// Reveal moves dimension dim the least distance needed to contain index i.
func (w Window) Reveal(dim, i, size int) Window {
	if dim < 0 || dim >= len(w) || w[dim].Contains(i) {
		return w.Clone()
	}
	r := w[dim]
	if i < r.Start {
		return w.Shift(dim, i-r.Start, size)
	}
	return w.Shift(dim, i-(r.End-1), size)
}

// Validate checks that w has one in-bounds range per dimension of shape.
func (w Window) Validate(shape []int) error {
	if len(w) != len(shape) {
		return fmt.Errorf("window has %d dimensions, dataset has %d", len(w), len(shape))
	}
	for d, r := range w {
		if r.Start < 0 || r.End > shape[d] || r.Start > r.End || (r.Start == r.End && shape[d] > 0) {
			return fmt.Errorf("range %d:%d outside dimension %d of size %d", r.Start, r.End, d, shape[d])
		}
	}
	return nil
}

// String formats the window as "0:120,0:5".
func (w Window) String() string {
	parts := make([]string, len(w))
	for i, r := range w {
		parts[i] = strconv.Itoa(r.Start) + ":" + strconv.Itoa(r.End)
	}
	return strings.Join(parts, ",")
}

// Key identifies one slice of one dataset.
type Key struct {
	Path   string
	Window Window
}

// String is the canonical form used as the cache key.
func (k Key) String() string {
	return k.Path + "[" + k.Window.String() + "]"
}

// Equal reports whether both keys name the same slice.
func (k Key) Equal(o Key) bool {
	return k.Path == o.Path && k.Window.Equal(o.Window)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
