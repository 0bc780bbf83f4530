package session

import (
	"context"
	"fmt"

	"github.com/yildizm/h5view/internal/dataset"
	"github.com/yildizm/h5view/internal/errors"
)

// chromeRows is the screen height taken by header, borders and status.
const chromeRows = 8

// Apply returns the state after a and the commands it requires. s is not
// modified.
func Apply(s State, a Action) (State, []Command) {
	if s.Quit {
		return s, nil
	}

	switch a := a.(type) {
	case Quit:
		s.Quit = true
		return s, nil
	case Resize:
		s.Width, s.Height = a.Width, a.Height
		return s, nil
	case Tick:
		s.Ticks++
		if s.Notice != "" && s.Ticks >= s.NoticeUntil {
			s.Notice = ""
		}
		return s, nil
	case ToggleHelp:
		s.Help = !s.Help
		return s, nil
	case Cancel:
		return cancel(s), nil
	case FetchCompleted:
		return fetched(s, a), nil
	case FileChanged:
		return reload(s, fmt.Sprintf("%s changed on disk, reloaded", a.Path))
	case Reload:
		return reload(s, "reloaded")
	case OpenDataset:
		return open(s, a.Path, backOf(s.Mode))
	}

	switch m := s.Mode.(type) {
	case Browsing:
		return applyBrowsing(s, m, a)
	case Viewing:
		return applyViewing(s, m.clone(), a)
	case Searching:
		return applySearching(s, m, a)
	}
	return s, nil
}

func backOf(m Mode) Browsing {
	switch m := m.(type) {
	case Browsing:
		return m
	case Viewing:
		return m.Back
	case Searching:
		return backOf(m.Prev)
	case ErrorMode:
		return backOf(m.Prev)
	}
	return Browsing{}
}

func pageRows(s State) int {
	return max(1, s.Height-chromeRows)
}

func cancel(s State) State {
	if s.Help {
		s.Help = false
		return s
	}
	switch m := s.Mode.(type) {
	case Searching:
		s.Mode = m.Prev
	case ErrorMode:
		s.Mode = m.Prev
	case Viewing:
		s.Mode = m.Back
	}
	return s
}

func fetched(s State, a FetchCompleted) State {
	if a.Err != nil {
		if errors.Is(a.Err, context.Canceled) {
			return s
		}
		prev := s.Mode
		if e, ok := prev.(ErrorMode); ok {
			prev = e.Prev
		}
		s.Mode = ErrorMode{Message: a.Err.Error(), Prev: prev}
		return s
	}
	s.Mode = mapViewing(s.Mode, func(v Viewing) Viewing {
		if a.Slice != nil && a.Key.Equal(v.Key()) {
			v.Data = a.Slice
		}
		return v
	})
	return s
}

func reload(s State, notice string) (State, []Command) {
	cmds := []Command{PurgeCache{}}
	if v, ok := CurrentViewing(s.Mode); ok {
		cmds = append(cmds, FetchSlice{Key: v.Key()})
		s.Mode = mapViewing(s.Mode, func(v Viewing) Viewing {
			v.Data = nil
			return v
		})
	}
	s.Notice = notice
	s.NoticeUntil = s.Ticks + s.Options.NoticeTicks
	return s, cmds
}

func open(s State, path string, back Browsing) (State, []Command) {
	meta, ok := s.Catalog.Get(path)
	if !ok {
		s.Mode = ErrorMode{Message: errors.New(errors.DatasetNotFound, path, nil).Error(), Prev: s.Mode}
		return s, nil
	}
	for i, m := range s.Listing(back.Filter) {
		if m.Path == path {
			back.Cursor = i
			break
		}
	}
	v := newViewing(meta, s.Options.MaxRows, back)
	s.Mode = v
	return s, []Command{FetchSlice{Key: v.Key()}}
}

func applyBrowsing(s State, m Browsing, a Action) (State, []Command) {
	switch a := a.(type) {
	case MoveCursor:
		n := len(s.Listing(m.Filter))
		m.Cursor = clamp(m.Cursor+a.Delta+a.Pages*pageRows(s), 0, n-1)
		s.Mode = m
	case SetFilter:
		m.Filter = a.Text
		m.Cursor = 0
		s.Mode = m
	case BeginSearch:
		s.Mode = Searching{Input: m.Filter, Prev: m}
	case OpenSelected:
		listing := s.Listing(m.Filter)
		if m.Cursor < 0 || m.Cursor >= len(listing) {
			return s, nil
		}
		return open(s, listing[m.Cursor].Path, m)
	}
	return s, nil
}

func applySearching(s State, m Searching, a Action) (State, []Command) {
	switch a := a.(type) {
	case SetFilter:
		m.Input = a.Text
		s.Mode = m
	case ConfirmSearch:
		s.Mode = Browsing{Filter: m.Input}
	}
	return s, nil
}

func applyViewing(s State, v Viewing, a Action) (State, []Command) {
	meta, ok := s.Catalog.Get(v.Path)
	if !ok {
		return s, nil
	}
	before := v.Key()

	switch a := a.(type) {
	case MoveCursor:
		v = moveRow(v, meta, a.Delta+a.Pages*pageRows(s))
	case MoveColumn:
		v.Col = clamp(v.Col+a.Delta, 0, v.Cols()-1)
	case ScrollSlice:
		if meta.NDims() == 0 {
			return s, nil
		}
		v.Window = v.Window.Shift(0, a.Delta, meta.Shape[0])
	case CycleAxis:
		v = cycleAxis(v, meta, a)
	case CycleFixed:
		v = cycleFixed(v, meta, a)
	case ToggleDashes:
		v.Dashes = !v.Dashes
	case ToggleChart:
		v.Chart = !v.Chart
	case BeginSearch:
		s.Mode = Searching{Input: v.Back.Filter, Prev: v}
		return s, nil
	default:
		return s, nil
	}

	v = normalize(v)
	s.Mode = v
	if v.Key().Equal(before) {
		return s, nil
	}
	v.Data = nil
	s.Mode = v
	return s, []Command{FetchSlice{Key: v.Key()}}
}

// moveRow moves the cursor by delta rows. When rows run along dimension 0
// the window follows the cursor past its edges.
func moveRow(v Viewing, meta dataset.Meta, delta int) Viewing {
	if v.RowAxis != 0 || meta.NDims() == 0 {
		v.Row = clamp(v.Row+delta, 0, v.Rows()-1)
		return v
	}
	size := meta.Shape[0]
	abs := clamp(v.Window[0].Start+v.Row+delta, 0, size-1)
	v.Window = v.Window.Reveal(0, abs, size)
	v.Row = abs - v.Window[0].Start
	return v
}

func cycleAxis(v Viewing, meta dataset.Meta, a CycleAxis) Viewing {
	n := meta.NDims()
	if n < 2 || a.Delta == 0 {
		return v
	}
	axis, other := &v.RowAxis, v.ColAxis
	if a.Axis == ColsAxis {
		axis, other = &v.ColAxis, v.RowAxis
	}
	step := 1
	if a.Delta < 0 {
		step = -1
	}
	for i := 0; i < abs(a.Delta); i++ {
		next := wrap(*axis+step, n)
		if next == other {
			next = wrap(next+step, n)
		}
		*axis = next
	}
	v.Row, v.Col = 0, 0
	return v
}

func cycleFixed(v Viewing, meta dataset.Meta, a CycleFixed) Viewing {
	d := a.Dim
	if d < 0 || d >= meta.NDims() || d == v.RowAxis || d == v.ColAxis || meta.Shape[d] == 0 {
		return v
	}
	v.Fixed[d] = wrap(v.Fixed[d]+a.Delta, meta.Shape[d])
	if d == 0 {
		v.Window = v.Window.Reveal(0, v.Fixed[0], meta.Shape[0])
	}
	return v
}

// normalize keeps the cursor, column offset and fixed indices inside the
// window.
func normalize(v Viewing) Viewing {
	v.Row = clamp(v.Row, 0, v.Rows()-1)
	v.Col = clamp(v.Col, 0, v.Cols()-1)
	for d := range v.Fixed {
		if d == v.RowAxis || d == v.ColAxis || d >= len(v.Window) {
			continue
		}
		r := v.Window[d]
		if r.Len() > 0 {
			v.Fixed[d] = clamp(v.Fixed[d], r.Start, r.End-1)
		}
	}
	return v
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func wrap(v, n int) int {
	v %= n
	if v < 0 {
		v += n
	}
	return v
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
