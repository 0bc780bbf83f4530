package session

import "github.com/yildizm/h5view/internal/dataset"

// Action is a domain action derived from an event. The set is closed.
type Action interface {
	action()
}

// Axis selects the pivot direction changed by CycleAxis.
type Axis int

const (
	RowsAxis Axis = iota
	ColsAxis
)

type (
	// Quit ends the session.
	Quit struct{}
	// Cancel closes the innermost overlay.
	Cancel struct{}
	// MoveCursor moves the catalog or table cursor by Delta rows plus
	// Pages screens.
	MoveCursor struct {
		Delta int
		Pages int
	}
	// MoveColumn moves the first visible table column.
	MoveColumn struct{ Delta int }
	// OpenDataset views the dataset at Path.
	OpenDataset struct{ Path string }
	// OpenSelected views the dataset under the catalog cursor.
	OpenSelected struct{}
	// SetFilter replaces the catalog filter, or the search input while
	// searching.
	SetFilter struct{ Text string }
	// BeginSearch opens the filter overlay.
	BeginSearch struct{}
	// ConfirmSearch applies the search input as the catalog filter.
	ConfirmSearch struct{}
	// ScrollSlice shifts the slice window along dimension 0.
	ScrollSlice struct{ Delta int }
	// CycleAxis moves the row or column axis to another dimension.
	CycleAxis struct {
		Axis  Axis
		Delta int
	}
	// CycleFixed steps the fixed index of dimension Dim, wrapping.
	CycleFixed struct {
		Dim   int
		Delta int
	}
	ToggleDashes struct{}
	ToggleChart  struct{}
	ToggleHelp   struct{}
	// Reload drops cached slices and reads the current one again.
	Reload struct{}
	Resize struct{ Width, Height int }
	Tick   struct{}
	// FetchCompleted delivers the outcome of a FetchSlice command.
	FetchCompleted struct {
		Key   dataset.Key
		Slice *dataset.Slice
		Err   error
	}
	// FileChanged reports that the open file was written to.
	FileChanged struct{ Path string }
)

func (Quit) action()           {}
func (Cancel) action()         {}
func (MoveCursor) action()     {}
func (MoveColumn) action()     {}
func (OpenDataset) action()    {}
func (OpenSelected) action()   {}
func (SetFilter) action()      {}
func (BeginSearch) action()    {}
func (ConfirmSearch) action()  {}
func (ScrollSlice) action()    {}
func (CycleAxis) action()      {}
func (CycleFixed) action()     {}
func (ToggleDashes) action()   {}
func (ToggleChart) action()    {}
func (ToggleHelp) action()     {}
func (Reload) action()         {}
func (Resize) action()         {}
func (Tick) action()           {}
func (FetchCompleted) action() {}
func (FileChanged) action()    {}

// Command is an effect requested by Apply and executed by the runtime.
type Command interface {
	command()
}

// FetchSlice asks for the slice Key; the result returns as FetchCompleted.
type FetchSlice struct {
	Key dataset.Key
}

// PurgeCache drops every cached slice.
type PurgeCache struct{}

func (FetchSlice) command() {}
func (PurgeCache) command() {}
