package keymap

import (
	"errors"
	"testing"

	"github.com/charmbracelet/bubbles/key"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yildizm/h5view/internal/dataset"
	"github.com/yildizm/h5view/internal/events"
	"github.com/yildizm/h5view/internal/session"
)

func testViewing() session.Viewing {
	return session.Viewing{
		Path:    "routput/Dmd",
		Window:  dataset.Window{{Start: 0, End: 10}, {Start: 0, End: 5}},
		RowAxis: 0,
		ColAxis: 1,
		Fixed:   []int{0, 0},
	}
}

func TestMapKeys(t *testing.T) {
	browsing := session.Browsing{}
	viewing := testViewing()
	searching := session.Searching{Input: "dm", Prev: browsing}
	failed := session.ErrorMode{Message: "boom", Prev: viewing}

	tests := []struct {
		name string
		code string
		mode session.Mode
		want session.Action
	}{
		{"ctrl+c quits anywhere", "ctrl+c", searching, session.Quit{}},
		{"q quits browsing", "q", browsing, session.Quit{}},
		{"down in catalog", "j", browsing, session.MoveCursor{Delta: 1}},
		{"page down in catalog", "pgdown", browsing, session.MoveCursor{Pages: 1}},
		{"end in catalog", "end", browsing, session.MoveCursor{Delta: maxDelta}},
		{"enter opens", "enter", browsing, session.OpenSelected{}},
		{"slash searches", "/", browsing, session.BeginSearch{}},
		{"help", "?", viewing, session.ToggleHelp{}},
		{"esc leaves viewing", "esc", viewing, session.Cancel{}},
		{"up in table", "up", viewing, session.MoveCursor{Delta: -1}},
		{"column right", "l", viewing, session.MoveColumn{Delta: 1}},
		{"home is first column", "home", viewing, session.MoveColumn{Delta: -maxDelta}},
		{"g is top row", "g", viewing, session.MoveCursor{Delta: -maxDelta}},
		{"shift+down scrolls slice", "shift+down", viewing, session.ScrollSlice{Delta: 1}},
		{"ctrl+d scrolls a window", "ctrl+d", viewing, session.ScrollSlice{Delta: 10}},
		{"ctrl+u scrolls back a window", "ctrl+u", viewing, session.ScrollSlice{Delta: -10}},
		{"column axis", "]", viewing, session.CycleAxis{Axis: session.ColsAxis, Delta: 1}},
		{"row axis back", "{", viewing, session.CycleAxis{Axis: session.RowsAxis, Delta: -1}},
		{"digit cycles dimension", "3", viewing, session.CycleFixed{Dim: 2, Delta: 1}},
		{"function key cycles dimension", "f1", viewing, session.CycleFixed{Dim: 0, Delta: 1}},
		{"shifted digit cycles back", "@", viewing, session.CycleFixed{Dim: 1, Delta: -1}},
		{"dashes", ".", viewing, session.ToggleDashes{}},
		{"chart", "c", viewing, session.ToggleChart{}},
		{"reload", "r", viewing, session.Reload{}},
		{"typing extends filter", "q", searching, session.SetFilter{Text: "dmq"}},
		{"multibyte typing", "é", searching, session.SetFilter{Text: "dmé"}},
		{"paste", "[d/T]", searching, session.SetFilter{Text: "dmd/T"}},
		{"backspace", "backspace", searching, session.SetFilter{Text: "d"}},
		{"ctrl+u clears", "ctrl+u", searching, session.SetFilter{}},
		{"enter confirms", "enter", searching, session.ConfirmSearch{}},
		{"esc cancels search", "esc", searching, session.Cancel{}},
		{"esc dismisses error", "esc", failed, session.Cancel{}},
		{"q dismisses error", "q", failed, session.Cancel{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Map(events.Key{Code: tt.code}, tt.mode)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMapIgnoresUnboundKeys(t *testing.T) {
	tests := []struct {
		name string
		code string
		mode session.Mode
	}{
		{"unbound in catalog", "x", session.Browsing{}},
		{"esc without filter", "esc", session.Browsing{}},
		{"navigation in error", "j", session.ErrorMode{}},
		{"named key while searching", "tab", session.Searching{}},
		{"backspace on empty input", "backspace", session.Searching{}},
		{"alt rune while searching", "alt+x", session.Searching{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := Map(events.Key{Code: tt.code}, tt.mode)
			assert.False(t, ok)
		})
	}
}

func TestEscClearsActiveFilter(t *testing.T) {
	got, ok := Map(events.Key{Code: "esc"}, session.Browsing{Filter: "dmd"})
	require.True(t, ok)
	assert.Equal(t, session.SetFilter{}, got)
}

func TestMapNonKeyEvents(t *testing.T) {
	key := dataset.Key{Path: "a"}
	slice := &dataset.Slice{Key: key}
	failure := errors.New("read failed")

	tests := []struct {
		name string
		ev   events.Event
		want session.Action
	}{
		{"resize", events.Resize{Width: 80, Height: 24}, session.Resize{Width: 80, Height: 24}},
		{"tick", events.Tick{}, session.Tick{}},
		{"quit", events.Quit{}, session.Quit{}},
		{"fetch", events.FetchCompleted{Key: key, Slice: slice}, session.FetchCompleted{Key: key, Slice: slice}},
		{"fetch error", events.FetchCompleted{Key: key, Err: failure}, session.FetchCompleted{Key: key, Err: failure}},
		{"file changed", events.FileChanged{Path: "db.h5"}, session.FileChanged{Path: "db.h5"}},
		{"wheel", events.Mouse{Action: events.MouseWheelDown}, session.MoveCursor{Delta: wheelStep}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Map(tt.ev, session.Browsing{})
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, ev := range []events.Event{events.Render{}, events.Mouse{Action: events.MouseMotion}} {
		_, ok := Map(ev, session.Browsing{})
		assert.False(t, ok, "%T", ev)
	}
}

func TestMapIsDeterministic(t *testing.T) {
	modes := []session.Mode{session.Browsing{}, testViewing(), session.Searching{Input: "x"}, session.ErrorMode{}}
	codes := []string{"q", "j", "3", "#", "ctrl+d", "enter", "esc", "backspace", "z"}

	for _, m := range modes {
		for _, c := range codes {
			a1, ok1 := Map(events.Key{Code: c}, m)
			a2, ok2 := Map(events.Key{Code: c}, m)
			assert.Equal(t, ok1, ok2)
			assert.Equal(t, a1, a2)
		}
	}
}

func TestResolveWithHelpOpen(t *testing.T) {
	s := session.New(dataset.NewCatalog(nil), session.Options{})
	s.Help = true

	for _, code := range []string{"q", "esc", "?"} {
		got, ok := Resolve(events.Key{Code: code}, s)
		require.True(t, ok, code)
		assert.Equal(t, session.ToggleHelp{}, got, code)
	}

	_, ok := Resolve(events.Key{Code: "j"}, s)
	assert.False(t, ok)

	got, ok := Resolve(events.Key{Code: "ctrl+c"}, s)
	require.True(t, ok)
	assert.Equal(t, session.Quit{}, got)

	got, ok = Resolve(events.Tick{}, s)
	require.True(t, ok)
	assert.Equal(t, session.Tick{}, got)
}

func TestHelpListsModeBindings(t *testing.T) {
	viewing := Help(testViewing())
	assert.NotEmpty(t, viewing.ShortHelp())
	assert.Len(t, viewing.FullHelp(), 3)

	browsing := Help(session.Browsing{})
	assert.Contains(t, browsing.ShortHelp()[3].Keys(), "enter")

	assert.Len(t, Help(session.ErrorMode{}).ShortHelp(), 1)
}

func TestHelpForUsesOwnBindings(t *testing.T) {
	km := Default()
	km.Help = key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "toggle help"))

	browsing := km.HelpFor(session.Browsing{})
	assert.Equal(t, []string{"h"}, browsing.ShortHelp()[1].Keys())

	a, ok := km.Map(events.Key{Code: "h"}, session.Browsing{})
	require.True(t, ok)
	assert.Equal(t, session.ToggleHelp{}, a)
}
