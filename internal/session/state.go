// Package session holds the state of an interactive session and the pure
// transition function that advances it. Apply performs no I/O: reads it
// wants are returned as commands and their results come back as actions.
package session

import (
	"github.com/yildizm/h5view/internal/dataset"
)

// Options is the per-session context fixed at startup.
type Options struct {
	// MaxRows caps dimension 0 of a slice window; 0 means no cap.
	MaxRows int
	// Fuzzy ranks the catalog listing by fuzzy score instead of word match.
	Fuzzy bool
	// NoticeTicks is how many ticks a notice stays visible.
	NoticeTicks uint64
}

// State is owned by a single goroutine and replaced, never mutated, by Apply.
type State struct {
	Catalog *dataset.Catalog
	Mode    Mode
	Options Options

	Width  int
	Height int
	Ticks  uint64
	Help   bool

	Notice      string
	NoticeUntil uint64

	Quit bool
}

// New returns the initial Browsing state.
func New(c *dataset.Catalog, opts Options) State {
	if opts.NoticeTicks == 0 {
		opts.NoticeTicks = 8
	}
	return State{Catalog: c, Mode: Browsing{}, Options: opts}
}

// Listing returns the catalog entries visible under filter.
func (s State) Listing(filter string) []dataset.Meta {
	return s.Catalog.Filter(filter, s.Options.Fuzzy)
}

// Mode is one of Browsing, Viewing, Searching or ErrorMode.
type Mode interface {
	mode()
	// Name is a short label for the status bar.
	Name() string
}

// Browsing shows the catalog.
type Browsing struct {
	Cursor int
	Filter string
}

// Viewing shows a 2-D pivot of one dataset.
type Viewing struct {
	Path   string
	Window dataset.Window
	// RowAxis and ColAxis are the dimensions laid out down and across; -1
	// collapses that direction to a single row or column.
	RowAxis int
	ColAxis int
	// Fixed is the absolute index of every dimension that is not an axis.
	Fixed []int
	// Row is the cursor row relative to the window; Col the first
	// visible column.
	Row int
	Col int

	Dashes bool
	Chart  bool

	// Data is nil until the read for Key() completes.
	Data *dataset.Slice
	// Back is the catalog view to return to.
	Back Browsing
}

// Searching edits the catalog filter in an overlay.
type Searching struct {
	Input string
	Prev  Mode
}

// ErrorMode shows a failure until dismissed.
type ErrorMode struct {
	Message string
	Prev    Mode
}

func (Browsing) mode()  {}
func (Viewing) mode()   {}
func (Searching) mode() {}
func (ErrorMode) mode() {}

func (Browsing) Name() string  { return "browse" }
func (Viewing) Name() string   { return "view" }
func (Searching) Name() string { return "search" }
func (ErrorMode) Name() string { return "error" }

// Key names the slice the view needs.
func (v Viewing) Key() dataset.Key {
	return dataset.Key{Path: v.Path, Window: v.Window}
}

// Loaded reports whether Data holds the slice for the current window.
func (v Viewing) Loaded() bool {
	return v.Data != nil && v.Data.Key.Equal(v.Key())
}

// Rows returns the number of pivot rows.
func (v Viewing) Rows() int {
	if v.RowAxis < 0 || v.RowAxis >= len(v.Window) {
		return 1
	}
	return v.Window[v.RowAxis].Len()
}

// Cols returns the number of pivot columns.
func (v Viewing) Cols() int {
	if v.ColAxis < 0 || v.ColAxis >= len(v.Window) {
		return 1
	}
	return v.Window[v.ColAxis].Len()
}

// FixedIndices returns Fixed with the axis positions set to the window
// start, ready for dataset.Pivot.
func (v Viewing) FixedIndices() []int {
	out := make([]int, len(v.Fixed))
	copy(out, v.Fixed)
	for _, axis := range []int{v.RowAxis, v.ColAxis} {
		if axis >= 0 && axis < len(out) {
			out[axis] = v.Window[axis].Start
		}
	}
	return out
}

func (v Viewing) clone() Viewing {
	v.Window = v.Window.Clone()
	fixed := make([]int, len(v.Fixed))
	copy(fixed, v.Fixed)
	v.Fixed = fixed
	return v
}

// newViewing opens meta with a full window, capped at maxRows.
func newViewing(meta dataset.Meta, maxRows int, back Browsing) Viewing {
	rowAxis, colAxis := dataset.DefaultAxes(meta.NDims())
	return Viewing{
		Path:    meta.Path,
		Window:  dataset.FullWindow(meta, maxRows),
		RowAxis: rowAxis,
		ColAxis: colAxis,
		Fixed:   make([]int, meta.NDims()),
		Back:    back,
	}
}

// CurrentViewing returns the Viewing mode that is shown or that an overlay
// will return to.
func CurrentViewing(m Mode) (Viewing, bool) {
	switch m := m.(type) {
	case Viewing:
		return m, true
	case Searching:
		return CurrentViewing(m.Prev)
	case ErrorMode:
		return CurrentViewing(m.Prev)
	}
	return Viewing{}, false
}

// mapViewing applies f to the Viewing mode in m, looking through overlays.
func mapViewing(m Mode, f func(Viewing) Viewing) Mode {
	switch m := m.(type) {
	case Viewing:
		return f(m.clone())
	case Searching:
		m.Prev = mapViewing(m.Prev, f)
		return m
	case ErrorMode:
		m.Prev = mapViewing(m.Prev, f)
		return m
	}
	return m
}
