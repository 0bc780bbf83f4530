package session

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yildizm/h5view/internal/config"
	"github.com/yildizm/h5view/internal/dataset"
	"github.com/yildizm/h5view/internal/errors"
)

func testCatalog() *dataset.Catalog {
	return dataset.NewCatalog([]dataset.Meta{
		{Path: "routput/Dmd", Shape: []int{120, 5}, Type: "float64"},
		{Path: "routput/DmdTot", Shape: []int{120}, Type: "float64"},
		{Path: "iinput/FsPEE", Shape: []int{4, 3, 6}, Type: "float64"},
		{Path: "iinput/Scalar", Type: "float64"},
	})
}

func viewing(t *testing.T, s State) Viewing {
	t.Helper()
	v, ok := s.Mode.(Viewing)
	require.True(t, ok, "mode is %T", s.Mode)
	return v
}

func TestOpenDatasetFetchesFullWindow(t *testing.T) {
	s := New(dataset.NewCatalog([]dataset.Meta{{Path: "routput/Dmd", Shape: []int{120, 5}}}), Options{})

	s, cmds := Apply(s, OpenDataset{Path: "routput/Dmd"})

	v := viewing(t, s)
	assert.Equal(t, "routput/Dmd", v.Path)
	assert.Equal(t, dataset.Window{{Start: 0, End: 120}, {Start: 0, End: 5}}, v.Window)
	require.Len(t, cmds, 1)
	assert.Equal(t, FetchSlice{Key: dataset.Key{Path: "routput/Dmd", Window: v.Window}}, cmds[0])
}

func TestDefaultConfigOpensWholeDataset(t *testing.T) {
	rows := config.DefaultConfig().Session.MaxWindowRows
	s := New(dataset.NewCatalog([]dataset.Meta{{Path: "routput/Hourly", Shape: []int{8760, 3}}}), Options{MaxRows: rows})

	s, _ = Apply(s, OpenDataset{Path: "routput/Hourly"})

	assert.Equal(t, dataset.Window{{Start: 0, End: 8760}, {Start: 0, End: 3}}, viewing(t, s).Window)
}

func TestOpenUnknownDatasetIsAnError(t *testing.T) {
	s := New(testCatalog(), Options{})

	s, cmds := Apply(s, OpenDataset{Path: "routput/Nope"})

	assert.Empty(t, cmds)
	e, ok := s.Mode.(ErrorMode)
	require.True(t, ok)
	assert.Equal(t, "dataset not found: routput/Nope", e.Message)
	assert.Equal(t, Browsing{}, e.Prev)
}

func TestScrollSliceClamps(t *testing.T) {
	s := New(testCatalog(), Options{MaxRows: 10})
	s, _ = Apply(s, OpenDataset{Path: "routput/Dmd"})
	require.Equal(t, dataset.Range{Start: 0, End: 10}, viewing(t, s).Window[0])

	s, cmds := Apply(s, ScrollSlice{Delta: 115})

	v := viewing(t, s)
	assert.Equal(t, dataset.Range{Start: 110, End: 120}, v.Window[0])
	assert.Equal(t, dataset.Range{Start: 0, End: 5}, v.Window[1])
	require.Len(t, cmds, 1)
	assert.Equal(t, FetchSlice{Key: v.Key()}, cmds[0])

	s, cmds = Apply(s, ScrollSlice{Delta: 3})
	assert.Equal(t, dataset.Range{Start: 110, End: 120}, viewing(t, s).Window[0])
	assert.Empty(t, cmds, "unchanged window must not fetch")
}

func TestFetchErrorThenCancelRestoresViewing(t *testing.T) {
	s := New(testCatalog(), Options{})
	s, cmds := Apply(s, OpenDataset{Path: "routput/Dmd"})
	key := cmds[0].(FetchSlice).Key
	before := viewing(t, s)

	err := errors.New(errors.DatasetNotFound, "routput/Dmd", nil)
	s, _ = Apply(s, FetchCompleted{Key: key, Err: err})

	e, ok := s.Mode.(ErrorMode)
	require.True(t, ok)
	assert.Equal(t, "dataset not found: routput/Dmd", e.Message)

	s, cmds = Apply(s, Cancel{})
	assert.Empty(t, cmds)
	assert.Equal(t, before, viewing(t, s))
}

func TestFetchCompletedStoresMatchingSliceOnly(t *testing.T) {
	s := New(testCatalog(), Options{})
	s, cmds := Apply(s, OpenDataset{Path: "routput/DmdTot"})
	key := cmds[0].(FetchSlice).Key

	stale := dataset.Key{Path: "routput/DmdTot", Window: dataset.Window{{Start: 1, End: 2}}}
	s, _ = Apply(s, FetchCompleted{Key: stale, Slice: &dataset.Slice{Key: stale}})
	assert.False(t, viewing(t, s).Loaded())

	slice := &dataset.Slice{Key: key, Shape: []int{120}, Values: make([]float64, 120)}
	s, _ = Apply(s, FetchCompleted{Key: key, Slice: slice})
	assert.True(t, viewing(t, s).Loaded())
}

func TestFetchCompletedReachesViewingUnderOverlay(t *testing.T) {
	s := New(testCatalog(), Options{})
	s, cmds := Apply(s, OpenDataset{Path: "routput/DmdTot"})
	key := cmds[0].(FetchSlice).Key

	s, _ = Apply(s, BeginSearch{})
	s, _ = Apply(s, FetchCompleted{Key: key, Slice: &dataset.Slice{Key: key}})
	s, _ = Apply(s, Cancel{})

	assert.True(t, viewing(t, s).Loaded())
}

func TestBrowsingFilterAndOpenSelected(t *testing.T) {
	s := New(testCatalog(), Options{})

	s, _ = Apply(s, SetFilter{Text: "dmd"})
	assert.Equal(t, Browsing{Filter: "dmd"}, s.Mode)

	s, _ = Apply(s, MoveCursor{Delta: 5})
	assert.Equal(t, 1, s.Mode.(Browsing).Cursor, "cursor clamps to the filtered listing")

	s, cmds := Apply(s, OpenSelected{})
	v := viewing(t, s)
	assert.Equal(t, "routput/DmdTot", v.Path)
	assert.Len(t, cmds, 1)
	assert.Equal(t, Browsing{Cursor: 1, Filter: "dmd"}, v.Back)

	s, _ = Apply(s, Cancel{})
	assert.Equal(t, Browsing{Cursor: 1, Filter: "dmd"}, s.Mode)
}

func TestSearchConfirmAndCancel(t *testing.T) {
	s := New(testCatalog(), Options{})
	s, _ = Apply(s, SetFilter{Text: "old"})

	s, _ = Apply(s, BeginSearch{})
	s, _ = Apply(s, SetFilter{Text: "fs"})
	assert.Equal(t, Searching{Input: "fs", Prev: Browsing{Filter: "old"}}, s.Mode)

	cancelled, _ := Apply(s, Cancel{})
	assert.Equal(t, Browsing{Filter: "old"}, cancelled.Mode)

	confirmed, _ := Apply(s, ConfirmSearch{})
	assert.Equal(t, Browsing{Filter: "fs"}, confirmed.Mode)
}

func TestSearchFromViewingReturnsToCatalog(t *testing.T) {
	s := New(testCatalog(), Options{})
	s, _ = Apply(s, OpenDataset{Path: "routput/Dmd"})
	v := viewing(t, s)

	s, _ = Apply(s, BeginSearch{})
	cancelled, _ := Apply(s, Cancel{})
	assert.Equal(t, v, viewing(t, cancelled))

	s, _ = Apply(s, SetFilter{Text: "tot"})
	confirmed, _ := Apply(s, ConfirmSearch{})
	assert.Equal(t, Browsing{Filter: "tot"}, confirmed.Mode)
}

func TestCursorFollowsWindow(t *testing.T) {
	s := New(testCatalog(), Options{MaxRows: 10})
	s, _ = Apply(s, OpenDataset{Path: "routput/Dmd"})

	s, cmds := Apply(s, MoveCursor{Delta: 9})
	assert.Empty(t, cmds)
	assert.Equal(t, 9, viewing(t, s).Row)

	s, cmds = Apply(s, MoveCursor{Delta: 1})
	v := viewing(t, s)
	assert.Equal(t, dataset.Range{Start: 1, End: 11}, v.Window[0])
	assert.Equal(t, 9, v.Row)
	assert.Len(t, cmds, 1)

	s, _ = Apply(s, MoveCursor{Delta: 1 << 30})
	v = viewing(t, s)
	assert.Equal(t, dataset.Range{Start: 110, End: 120}, v.Window[0])
	assert.Equal(t, 9, v.Row)

	s, _ = Apply(s, MoveCursor{Delta: -(1 << 30)})
	v = viewing(t, s)
	assert.Equal(t, dataset.Range{Start: 0, End: 10}, v.Window[0])
	assert.Equal(t, 0, v.Row)
}

func TestPagesUseTerminalHeight(t *testing.T) {
	s := New(testCatalog(), Options{})
	s, _ = Apply(s, Resize{Width: 100, Height: 20})
	s, _ = Apply(s, OpenDataset{Path: "routput/Dmd"})

	s, _ = Apply(s, MoveCursor{Pages: 1})
	assert.Equal(t, 20-chromeRows, viewing(t, s).Row)
}

func TestCycleAxisNeverCollides(t *testing.T) {
	s := New(testCatalog(), Options{})
	s, _ = Apply(s, OpenDataset{Path: "iinput/FsPEE"})
	v := viewing(t, s)
	require.Equal(t, 0, v.RowAxis)
	require.Equal(t, 2, v.ColAxis)

	s, _ = Apply(s, CycleAxis{Axis: ColsAxis, Delta: 1})
	v = viewing(t, s)
	assert.Equal(t, 1, v.ColAxis, "2 -> 0 collides with rows, so 1")

	s, _ = Apply(s, CycleAxis{Axis: RowsAxis, Delta: 1})
	assert.Equal(t, 2, viewing(t, s).RowAxis)

	s, _ = Apply(s, CycleAxis{Axis: RowsAxis, Delta: -1})
	assert.Equal(t, 0, viewing(t, s).RowAxis)

	for i := 0; i < 10; i++ {
		s, _ = Apply(s, CycleAxis{Axis: Axis(i % 2), Delta: 1 - 2*(i%3%2)})
		v = viewing(t, s)
		assert.NotEqual(t, v.RowAxis, v.ColAxis)
	}
}

func TestCycleFixedWraps(t *testing.T) {
	s := New(testCatalog(), Options{})
	s, _ = Apply(s, OpenDataset{Path: "iinput/FsPEE"})

	s, cmds := Apply(s, CycleFixed{Dim: 1, Delta: 1})
	assert.Empty(t, cmds)
	assert.Equal(t, []int{0, 1, 0}, viewing(t, s).Fixed)

	s, _ = Apply(s, CycleFixed{Dim: 1, Delta: 2})
	assert.Equal(t, 0, viewing(t, s).Fixed[1])

	s, _ = Apply(s, CycleFixed{Dim: 1, Delta: -1})
	assert.Equal(t, 2, viewing(t, s).Fixed[1])

	before := viewing(t, s)
	s, _ = Apply(s, CycleFixed{Dim: 0, Delta: 1})
	assert.Equal(t, before, viewing(t, s), "axis dimensions have no fixed index")
}

func TestCycleFixedMovesWindowOnDimensionZero(t *testing.T) {
	s := New(testCatalog(), Options{MaxRows: 2})
	s, _ = Apply(s, OpenDataset{Path: "iinput/FsPEE"})
	s, _ = Apply(s, CycleAxis{Axis: RowsAxis, Delta: 1})
	require.Equal(t, 1, viewing(t, s).RowAxis)

	s, cmds := Apply(s, CycleFixed{Dim: 0, Delta: 3})
	v := viewing(t, s)
	assert.Equal(t, 3, v.Fixed[0])
	assert.Equal(t, dataset.Range{Start: 2, End: 4}, v.Window[0])
	assert.Len(t, cmds, 1)
}

func TestReloadAndFileChanged(t *testing.T) {
	s := New(testCatalog(), Options{NoticeTicks: 2})

	s2, cmds := Apply(s, FileChanged{Path: "db.h5"})
	assert.Equal(t, []Command{PurgeCache{}}, cmds)
	assert.Contains(t, s2.Notice, "db.h5")

	s2, _ = Apply(s2, Tick{})
	assert.NotEmpty(t, s2.Notice)
	s2, _ = Apply(s2, Tick{})
	assert.Empty(t, s2.Notice)

	s, _ = Apply(s, OpenDataset{Path: "routput/Dmd"})
	s, cmds = Apply(s, Reload{})
	v := viewing(t, s)
	assert.Equal(t, []Command{PurgeCache{}, FetchSlice{Key: v.Key()}}, cmds)
	assert.Nil(t, v.Data)
}

func TestHelpClosesBeforeMode(t *testing.T) {
	s := New(testCatalog(), Options{})
	s, _ = Apply(s, OpenDataset{Path: "routput/Dmd"})
	s, _ = Apply(s, ToggleHelp{})
	require.True(t, s.Help)

	s, _ = Apply(s, Cancel{})
	assert.False(t, s.Help)
	viewing(t, s)
}

func TestQuitIsTerminal(t *testing.T) {
	s := New(testCatalog(), Options{})
	s, _ = Apply(s, Quit{})
	require.True(t, s.Quit)

	after, cmds := Apply(s, OpenDataset{Path: "routput/Dmd"})
	assert.Empty(t, cmds)
	assert.Equal(t, s, after)
}

func TestApplyDoesNotModifyInput(t *testing.T) {
	s := New(testCatalog(), Options{MaxRows: 10})
	s, _ = Apply(s, OpenDataset{Path: "iinput/FsPEE"})
	before := viewing(t, s)
	window := before.Window.Clone()
	fixed := append([]int(nil), before.Fixed...)

	for _, a := range []Action{ScrollSlice{Delta: 2}, CycleFixed{Dim: 1, Delta: 1}, MoveCursor{Delta: 3}, CycleAxis{Axis: RowsAxis, Delta: 1}} {
		Apply(s, a)
	}

	assert.Equal(t, window, viewing(t, s).Window)
	assert.Equal(t, fixed, viewing(t, s).Fixed)
}

// randomAction draws from every action that can change a selection.
func randomAction(r *rand.Rand, paths []string) Action {
	switch r.Intn(12) {
	case 0:
		return OpenDataset{Path: paths[r.Intn(len(paths))]}
	case 1:
		return OpenDataset{Path: "missing/" + paths[r.Intn(len(paths))]}
	case 2:
		return ScrollSlice{Delta: r.Intn(301) - 150}
	case 3:
		return MoveCursor{Delta: r.Intn(41) - 20, Pages: r.Intn(3) - 1}
	case 4:
		return MoveColumn{Delta: r.Intn(11) - 5}
	case 5:
		return CycleAxis{Axis: Axis(r.Intn(2)), Delta: r.Intn(5) - 2}
	case 6:
		return CycleFixed{Dim: r.Intn(4), Delta: r.Intn(9) - 4}
	case 7:
		return Cancel{}
	case 8:
		return OpenSelected{}
	case 9:
		return SetFilter{Text: []string{"", "dmd", "fs", "zzz"}[r.Intn(4)]}
	case 10:
		return BeginSearch{}
	default:
		return FetchCompleted{Err: errors.New(errors.IOFailure, "x", nil)}
	}
}

func TestInvariantsHoldForRandomSequences(t *testing.T) {
	c := testCatalog()
	paths := c.Paths()
	r := rand.New(rand.NewSource(7))

	for run := 0; run < 200; run++ {
		s := New(c, Options{MaxRows: 1 + r.Intn(40)})
		s, _ = Apply(s, Resize{Width: 80, Height: 30})
		for step := 0; step < 60; step++ {
			a := randomAction(r, paths)
			s, _ = Apply(s, a)

			v, ok := CurrentViewing(s.Mode)
			if !ok {
				continue
			}
			meta, found := c.Get(v.Path)
			require.True(t, found, "run %d step %d: %q not in catalog", run, step, v.Path)
			require.NoError(t, v.Window.Validate(meta.Shape), "run %d step %d after %#v", run, step, a)
			require.True(t, v.RowAxis == -1 || v.RowAxis != v.ColAxis)
			require.GreaterOrEqual(t, v.Row, 0)
			require.Less(t, v.Row, max(v.Rows(), 1))
		}
	}
}
