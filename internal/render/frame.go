// Package render turns a session state into a frame: a plain description of
// what the screen shows. Building a frame is pure; View draws it.
package render

import "github.com/yildizm/h5view/internal/cache"

const (
	// MinWidth and MinHeight are the smallest terminal the layout fits.
	MinWidth  = 40
	MinHeight = 10

	chartHeight = 5
	// minTable is the smallest table panel shown next to a chart.
	minTable = 7
)

// StatusText is the help line shown at the bottom of every frame.
const StatusText = "Press q to exit, ? to view help, ◄ ▲ ▼ ► to navigate."

// Status is the runtime context shown alongside the session.
type Status struct {
	File  string
	Cache cache.Stats
}

// Frame is one screen. Two frames built from the same input are equal.
type Frame struct {
	Width  int
	Height int
	Header string
	Panels []Panel
	Status string
}

// Panel is one of CatalogPanel, TablePanel, ChartPanel, ErrorPanel,
// HelpPanel or TooSmallPanel. The set is closed.
type Panel interface {
	panel()
	bounds() Box
}

// Box is the outer size of a panel, border included.
type Box struct {
	Width  int
	Height int
}

func (b Box) bounds() Box { return b }

// Column is a table column; Width excludes cell padding.
type Column struct {
	Title string
	Width int
}

// CatalogPanel lists datasets.
type CatalogPanel struct {
	Box
	Filter   string
	Editing  bool
	Columns  []Column
	Rows     [][]string
	Cursor   int
	Position string
}

// TablePanel shows a pivot of the viewed dataset.
type TablePanel struct {
	Box
	// Title is the path on the left and shape, type and window on the right.
	Title   string
	Doc     string
	Dims    []string
	Columns []Column
	Rows    [][]string
	Totals  []string
	// Cursor indexes Rows; -1 hides it.
	Cursor int
	// Loading holds a spinner frame while the slice is read.
	Loading string
	Note    string
}

// ChartPanel is a sparkline of one table column.
type ChartPanel struct {
	Box
	Title string
	Line  string
	Range string
}

// ErrorPanel shows a failure.
type ErrorPanel struct {
	Box
	Lines []string
	Hint  string
}

// HelpEntry is one key binding.
type HelpEntry struct {
	Key  string
	Desc string
}

// HelpPanel lists the key bindings of the current mode.
type HelpPanel struct {
	Box
	Groups [][]HelpEntry
}

// TooSmallPanel replaces everything when the terminal is below the minimum.
type TooSmallPanel struct {
	Box
	Message string
}

func (CatalogPanel) panel()  {}
func (TablePanel) panel()    {}
func (ChartPanel) panel()    {}
func (ErrorPanel) panel()    {}
func (HelpPanel) panel()     {}
func (TooSmallPanel) panel() {}
