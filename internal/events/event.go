// Package events merges terminal input, timers, cancellation and background
// completions into the single ordered stream that drives a session.
package events

import "github.com/yildizm/h5view/internal/dataset"

// Event is one of Key, Mouse, Resize, Tick, Render, Quit, FetchCompleted or
// FileChanged. The set is closed.
type Event interface {
	event()
}

// Key is a key press. Code uses the names of the terminal adapter, e.g.
// "a", "enter", "ctrl+c", "shift+down", "f3".
type Key struct {
	Code string
}

// String lets a Key be matched against key bindings.
func (k Key) String() string {
	return k.Code
}

// MouseAction is what happened to the mouse.
type MouseAction int

const (
	MousePress MouseAction = iota
	MouseRelease
	MouseMotion
	MouseWheelUp
	MouseWheelDown
)

// Mouse is a mouse event at cell X, Y.
type Mouse struct {
	X, Y   int
	Action MouseAction
}

// Resize reports new terminal dimensions in cells.
type Resize struct {
	Width, Height int
}

// Tick fires at the tick rate.
type Tick struct{}

// Render fires at the frame rate.
type Render struct{}

// Quit ends the stream.
type Quit struct{}

// FetchCompleted carries the outcome of a slice read.
type FetchCompleted struct {
	Key   dataset.Key
	Slice *dataset.Slice
	Err   error
}

// FileChanged reports a write to the open file.
type FileChanged struct {
	Path string
}

func (Key) event()            {}
func (Mouse) event()          {}
func (Resize) event()         {}
func (Tick) event()           {}
func (Render) event()         {}
func (Quit) event()           {}
func (FetchCompleted) event() {}
func (FileChanged) event()    {}
