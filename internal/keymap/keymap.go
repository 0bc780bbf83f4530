// Package keymap turns input events into session actions.
package keymap

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/key"

	"github.com/yildizm/h5view/internal/events"
	"github.com/yildizm/h5view/internal/session"
)

// wheelStep is the number of rows one mouse wheel notch moves.
const wheelStep = 3

// KeyMap holds every binding of the viewer.
type KeyMap struct {
	ForceQuit key.Binding
	Quit      key.Binding
	Help      key.Binding
	Search    key.Binding
	Cancel    key.Binding

	Up       key.Binding
	Down     key.Binding
	Top      key.Binding
	Bottom   key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Open     key.Binding

	Left        key.Binding
	Right       key.Binding
	FirstColumn key.Binding
	LastColumn  key.Binding
	SliceUp     key.Binding
	SliceDown   key.Binding
	WindowUp    key.Binding
	WindowDown  key.Binding
	ColsPrev    key.Binding
	ColsNext    key.Binding
	RowsPrev    key.Binding
	RowsNext    key.Binding
	FixedNext   key.Binding
	FixedPrev   key.Binding
	Dashes      key.Binding
	Chart       key.Binding
	Reload      key.Binding

	Confirm    key.Binding
	Backspace  key.Binding
	ClearInput key.Binding
}

// fixedNext and fixedPrev list, per dimension, the keys that step its fixed
// index forward and back.
var (
	fixedNext = [][]string{
		{"1", "f1"}, {"2", "f2"}, {"3", "f3"}, {"4", "f4"}, {"5", "f5"},
		{"6", "f6"}, {"7", "f7"}, {"8", "f8"}, {"9", "f9"},
	}
	fixedPrev = []string{"!", "@", "#", "$", "%", "^", "&", "*", "("}
)

// Default returns the standard bindings.
func Default() KeyMap {
	var next []string
	for _, keys := range fixedNext {
		next = append(next, keys...)
	}
	return KeyMap{
		ForceQuit: key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
		Quit:      key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		Search:    key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search datasets")),
		Cancel:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),

		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Top:      key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g/home", "top")),
		Bottom:   key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G/end", "bottom")),
		PageUp:   key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "page up")),
		PageDown: key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "page down")),
		Open:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open dataset")),

		Left:        key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "column left")),
		Right:       key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "column right")),
		FirstColumn: key.NewBinding(key.WithKeys("home"), key.WithHelp("home", "first column")),
		LastColumn:  key.NewBinding(key.WithKeys("end"), key.WithHelp("end", "last column")),
		SliceUp:     key.NewBinding(key.WithKeys("shift+up"), key.WithHelp("shift+↑", "slice back one row")),
		SliceDown:   key.NewBinding(key.WithKeys("shift+down"), key.WithHelp("shift+↓", "slice forward one row")),
		WindowUp:    key.NewBinding(key.WithKeys("ctrl+u"), key.WithHelp("ctrl+u", "previous slice")),
		WindowDown:  key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "next slice")),
		ColsPrev:    key.NewBinding(key.WithKeys("["), key.WithHelp("[ / ]", "cycle column axis")),
		ColsNext:    key.NewBinding(key.WithKeys("]"), key.WithHelp("[ / ]", "cycle column axis")),
		RowsPrev:    key.NewBinding(key.WithKeys("{"), key.WithHelp("{ / }", "cycle row axis")),
		RowsNext:    key.NewBinding(key.WithKeys("}"), key.WithHelp("{ / }", "cycle row axis")),
		FixedNext:   key.NewBinding(key.WithKeys(next...), key.WithHelp("1-9/f1-f9", "next index of dimension")),
		FixedPrev:   key.NewBinding(key.WithKeys(fixedPrev...), key.WithHelp("shift+1-9", "previous index of dimension")),
		Dashes:      key.NewBinding(key.WithKeys("."), key.WithHelp(".", "zeros as dashes")),
		Chart:       key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "toggle chart")),
		Reload:      key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),

		Confirm:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "apply filter")),
		Backspace:  key.NewBinding(key.WithKeys("backspace"), key.WithHelp("backspace", "delete")),
		ClearInput: key.NewBinding(key.WithKeys("ctrl+u"), key.WithHelp("ctrl+u", "clear")),
	}
}

var defaultKeys = Default()

// Map translates ev into an action for a session in mode. It is pure: the
// same event and mode always give the same result. ok is false when the
// event means nothing in mode.
func Map(ev events.Event, mode session.Mode) (session.Action, bool) {
	return defaultKeys.Map(ev, mode)
}

// Resolve is Map with the help overlay taken into account.
func Resolve(ev events.Event, s session.State) (session.Action, bool) {
	return defaultKeys.Resolve(ev, s)
}

// Resolve maps ev for state s. While help is shown q, esc and ? only close it.
func (km KeyMap) Resolve(ev events.Event, s session.State) (session.Action, bool) {
	if k, ok := ev.(events.Key); ok && s.Help {
		switch {
		case key.Matches(k, km.ForceQuit):
			return session.Quit{}, true
		case key.Matches(k, km.Quit, km.Cancel, km.Help):
			return session.ToggleHelp{}, true
		}
		return nil, false
	}
	return km.Map(ev, s.Mode)
}

// Map translates ev for mode using km.
func (km KeyMap) Map(ev events.Event, mode session.Mode) (session.Action, bool) {
	switch ev := ev.(type) {
	case events.Key:
		if key.Matches(ev, km.ForceQuit) {
			return session.Quit{}, true
		}
		switch m := mode.(type) {
		case session.Browsing:
			return km.browsing(ev, m)
		case session.Viewing:
			return km.viewing(ev, m)
		case session.Searching:
			return km.searching(ev, m)
		case session.ErrorMode:
			if key.Matches(ev, km.Cancel, km.Open, km.Quit) {
				return session.Cancel{}, true
			}
		}
	case events.Mouse:
		if _, ok := mode.(session.ErrorMode); ok {
			return nil, false
		}
		switch ev.Action {
		case events.MouseWheelUp:
			return session.MoveCursor{Delta: -wheelStep}, true
		case events.MouseWheelDown:
			return session.MoveCursor{Delta: wheelStep}, true
		}
	case events.Resize:
		return session.Resize{Width: ev.Width, Height: ev.Height}, true
	case events.Tick:
		return session.Tick{}, true
	case events.Quit:
		return session.Quit{}, true
	case events.FetchCompleted:
		return session.FetchCompleted{Key: ev.Key, Slice: ev.Slice, Err: ev.Err}, true
	case events.FileChanged:
		return session.FileChanged{Path: ev.Path}, true
	}
	return nil, false
}

func (km KeyMap) browsing(k events.Key, m session.Browsing) (session.Action, bool) {
	switch {
	case key.Matches(k, km.Quit):
		return session.Quit{}, true
	case key.Matches(k, km.Help):
		return session.ToggleHelp{}, true
	case key.Matches(k, km.Search):
		return session.BeginSearch{}, true
	case key.Matches(k, km.Cancel):
		if m.Filter == "" {
			return nil, false
		}
		return session.SetFilter{}, true
	}
	if a, ok := km.cursor(k); ok {
		return a, true
	}
	if key.Matches(k, km.Open) {
		return session.OpenSelected{}, true
	}
	return nil, false
}

// cursor handles the row movement shared by the catalog and the table.
func (km KeyMap) cursor(k events.Key) (session.Action, bool) {
	switch {
	case key.Matches(k, km.Up):
		return session.MoveCursor{Delta: -1}, true
	case key.Matches(k, km.Down):
		return session.MoveCursor{Delta: 1}, true
	case key.Matches(k, km.PageUp):
		return session.MoveCursor{Pages: -1}, true
	case key.Matches(k, km.PageDown):
		return session.MoveCursor{Pages: 1}, true
	case key.Matches(k, km.Top):
		return session.MoveCursor{Delta: -maxDelta}, true
	case key.Matches(k, km.Bottom):
		return session.MoveCursor{Delta: maxDelta}, true
	}
	return nil, false
}

// maxDelta moves a cursor to the end of anything it can address.
const maxDelta = 1 << 30

func (km KeyMap) viewing(k events.Key, v session.Viewing) (session.Action, bool) {
	switch {
	case key.Matches(k, km.Quit):
		return session.Quit{}, true
	case key.Matches(k, km.Help):
		return session.ToggleHelp{}, true
	case key.Matches(k, km.Search):
		return session.BeginSearch{}, true
	case key.Matches(k, km.Cancel):
		return session.Cancel{}, true
	case key.Matches(k, km.Left):
		return session.MoveColumn{Delta: -1}, true
	case key.Matches(k, km.Right):
		return session.MoveColumn{Delta: 1}, true
	case key.Matches(k, km.FirstColumn):
		return session.MoveColumn{Delta: -maxDelta}, true
	case key.Matches(k, km.LastColumn):
		return session.MoveColumn{Delta: maxDelta}, true
	case key.Matches(k, km.SliceUp):
		return session.ScrollSlice{Delta: -1}, true
	case key.Matches(k, km.SliceDown):
		return session.ScrollSlice{Delta: 1}, true
	case key.Matches(k, km.WindowUp):
		return session.ScrollSlice{Delta: -windowLen(v)}, true
	case key.Matches(k, km.WindowDown):
		return session.ScrollSlice{Delta: windowLen(v)}, true
	case key.Matches(k, km.ColsPrev):
		return session.CycleAxis{Axis: session.ColsAxis, Delta: -1}, true
	case key.Matches(k, km.ColsNext):
		return session.CycleAxis{Axis: session.ColsAxis, Delta: 1}, true
	case key.Matches(k, km.RowsPrev):
		return session.CycleAxis{Axis: session.RowsAxis, Delta: -1}, true
	case key.Matches(k, km.RowsNext):
		return session.CycleAxis{Axis: session.RowsAxis, Delta: 1}, true
	case key.Matches(k, km.FixedNext):
		return session.CycleFixed{Dim: fixedDim(k.Code), Delta: 1}, true
	case key.Matches(k, km.FixedPrev):
		return session.CycleFixed{Dim: prevDim(k.Code), Delta: -1}, true
	case key.Matches(k, km.Dashes):
		return session.ToggleDashes{}, true
	case key.Matches(k, km.Chart):
		return session.ToggleChart{}, true
	case key.Matches(k, km.Reload):
		return session.Reload{}, true
	}
	return km.cursor(k)
}

func windowLen(v session.Viewing) int {
	if len(v.Window) == 0 {
		return 1
	}
	return max(1, v.Window[0].Len())
}

func fixedDim(code string) int {
	for d, keys := range fixedNext {
		for _, k := range keys {
			if k == code {
				return d
			}
		}
	}
	return -1
}

func prevDim(code string) int {
	for d, k := range fixedPrev {
		if k == code {
			return d
		}
	}
	return -1
}

func (km KeyMap) searching(k events.Key, m session.Searching) (session.Action, bool) {
	switch {
	case key.Matches(k, km.Cancel):
		return session.Cancel{}, true
	case key.Matches(k, km.Confirm):
		return session.ConfirmSearch{}, true
	case key.Matches(k, km.Backspace):
		if m.Input == "" {
			return nil, false
		}
		_, size := utf8.DecodeLastRuneInString(m.Input)
		return session.SetFilter{Text: m.Input[:len(m.Input)-size]}, true
	case key.Matches(k, km.ClearInput):
		return session.SetFilter{}, true
	}
	if text, ok := typed(k.Code); ok {
		return session.SetFilter{Text: m.Input + text}, true
	}
	return nil, false
}

// typed returns the text entered by a key press: a single printable rune or
// a bracketed paste.
func typed(code string) (string, bool) {
	if n := utf8.RuneCountInString(code); n > 2 && strings.HasPrefix(code, "[") && strings.HasSuffix(code, "]") {
		code = code[1 : len(code)-1]
	} else if n != 1 {
		return "", false
	}
	for _, r := range code {
		if !unicode.IsPrint(r) {
			return "", false
		}
	}
	return code, true
}
