package render

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yildizm/h5view/internal/cache"
	"github.com/yildizm/h5view/internal/dataset"
	"github.com/yildizm/h5view/internal/session"
)

func testCatalog() *dataset.Catalog {
	return dataset.NewCatalog([]dataset.Meta{
		{
			Path:     "routput/Dmd",
			Shape:    []int{3, 2},
			DimNames: []string{"t", "r"},
			Labels:   [][]string{{"2020", "2021", "2022"}, {"north", "south"}},
			Type:     "float64",
			Units:    "MW",
			Doc:      "Demand by region",
		},
		{Path: "routput/Count", Shape: []int{4}, Type: "int32"},
		{Path: "iinput/数据集名称非常长的一个数据集名称非常长的一个数据集名称非常长的一个数据集", Shape: []int{2}, Type: "float64"},
	})
}

var testStatus = Status{File: "/data/run.h5", Cache: cache.Stats{Bytes: 2048, Budget: 1 << 20}}

func viewState(t *testing.T, path string, values []float64) session.State {
	t.Helper()
	s := session.New(testCatalog(), session.Options{})
	s, cmds := session.Apply(s, session.OpenDataset{Path: path})
	require.Len(t, cmds, 1)
	key := cmds[0].(session.FetchSlice).Key
	if values != nil {
		slice := &dataset.Slice{Key: key, Shape: key.Window.Shape(), Values: values}
		s, _ = session.Apply(s, session.FetchCompleted{Key: key, Slice: slice})
	}
	return s
}

func TestRenderIsDeterministic(t *testing.T) {
	states := []session.State{
		session.New(testCatalog(), session.Options{}),
		viewState(t, "routput/Dmd", nil),
		viewState(t, "routput/Dmd", []float64{1, 2, 3, 4, 5, 6}),
	}
	for _, s := range states {
		a := Render(s, 80, 24, testStatus)
		b := Render(s, 80, 24, testStatus)
		assert.Equal(t, a, b)
		assert.Equal(t, a.View(NewStyles(DefaultTheme, true)), b.View(NewStyles(DefaultTheme, true)))
	}
}

func TestRenderTooSmall(t *testing.T) {
	s := session.New(testCatalog(), session.Options{})
	for _, size := range [][2]int{{39, 24}, {80, 9}, {0, 0}} {
		f := Render(s, size[0], size[1], testStatus)
		require.Len(t, f.Panels, 1)
		p, ok := f.Panels[0].(TooSmallPanel)
		require.True(t, ok)
		assert.Contains(t, p.Message, "too small")
		assert.Empty(t, f.Header)
		assert.Empty(t, f.Status)
	}

	f := Render(s, MinWidth, MinHeight, testStatus)
	_, ok := f.Panels[0].(CatalogPanel)
	assert.True(t, ok)
}

func TestRenderCatalog(t *testing.T) {
	s := session.New(testCatalog(), session.Options{})
	s, _ = session.Apply(s, session.MoveCursor{Delta: 1})

	f := Render(s, 100, 24, testStatus)

	assert.Contains(t, f.Header, "run.h5")
	assert.True(t, strings.HasPrefix(f.Status, StatusText))
	assert.Contains(t, f.Status, "3 datasets")
	require.Len(t, f.Panels, 1)
	p := f.Panels[0].(CatalogPanel)
	require.Len(t, p.Rows, 3)
	assert.Equal(t, 1, p.Cursor)
	assert.Equal(t, "2/3", p.Position)
	assert.Equal(t, "routput/Count", p.Rows[1][0])
	assert.Equal(t, "[4]", p.Rows[1][1])

	long := p.Rows[0][0]
	assert.True(t, strings.HasSuffix(long, "…"))
	assert.LessOrEqual(t, runewidth.StringWidth(long), p.Columns[0].Width)
	for _, line := range []string{f.Header, f.Status} {
		assert.LessOrEqual(t, runewidth.StringWidth(line), 100)
	}

	narrow := Render(s, 60, 24, testStatus)
	assert.Equal(t, StatusText, narrow.Status, "counters are dropped before the key hint")
}

func TestRenderSearching(t *testing.T) {
	s := session.New(testCatalog(), session.Options{})
	s, _ = session.Apply(s, session.BeginSearch{})
	s, _ = session.Apply(s, session.SetFilter{Text: "routput"})

	p := Render(s, 80, 24, testStatus).Panels[0].(CatalogPanel)
	assert.True(t, p.Editing)
	assert.Equal(t, "routput", p.Filter)
	assert.Len(t, p.Rows, 2)
	assert.Equal(t, -1, p.Cursor)
	assert.Equal(t, "2/3", p.Position)
}

func TestRenderTable(t *testing.T) {
	s := viewState(t, "routput/Dmd", []float64{1, 2, 3, 0, 5, 6.5})

	f := Render(s, 80, 24, testStatus)

	require.Len(t, f.Panels, 1)
	p := f.Panels[0].(TablePanel)
	assert.Contains(t, f.Header, "routput/Dmd")
	assert.Contains(t, p.Title, "[3, 2]")
	assert.Contains(t, p.Title, "MW")
	assert.Equal(t, "Demand by region", p.Doc)
	assert.Equal(t, []string{"rows: t  columns: r"}, p.Dims)
	require.Len(t, p.Columns, 4)
	assert.Equal(t, "north", strings.TrimSpace(p.Columns[1].Title))
	assert.Equal(t, "Total", strings.TrimSpace(p.Columns[3].Title))
	require.Len(t, p.Rows, 3)
	assert.Equal(t, []string{"2021", "3.00", "0.00", "3.00"}, trimAll(p.Rows[1]))
	assert.Equal(t, []string{"Total", "9.00", "8.50", "17.50"}, trimAll(p.Totals))
	assert.Equal(t, 0, p.Cursor)
	assert.Empty(t, p.Loading)

	s, _ = session.Apply(s, session.ToggleDashes{})
	s, _ = session.Apply(s, session.MoveCursor{Delta: 2})
	p = Render(s, 80, 24, testStatus).Panels[0].(TablePanel)
	assert.Equal(t, "-", strings.TrimSpace(p.Rows[1][2]))
	assert.Equal(t, 2, p.Cursor)
}

func TestRenderIntegerAndOneDimensional(t *testing.T) {
	s := viewState(t, "routput/Count", []float64{1, 0, 7, 12})

	p := Render(s, 60, 20, testStatus).Panels[0].(TablePanel)

	assert.Empty(t, p.Dims)
	require.Len(t, p.Columns, 2)
	assert.Equal(t, "value", strings.TrimSpace(p.Columns[1].Title))
	assert.Equal(t, []string{"2", "7"}, trimAll(p.Rows[2]))
	assert.Equal(t, []string{"Total", "20"}, trimAll(p.Totals))
}

func TestRenderLoading(t *testing.T) {
	s := viewState(t, "routput/Dmd", nil)

	p := Render(s, 80, 24, testStatus).Panels[0].(TablePanel)

	assert.NotEmpty(t, p.Loading)
	assert.Empty(t, p.Rows)
	assert.Equal(t, -1, p.Cursor)
}

func TestRenderScrollsToCursor(t *testing.T) {
	s := viewState(t, "routput/Dmd", []float64{1, 2, 3, 4, 5, 6})
	s, _ = session.Apply(s, session.MoveCursor{Delta: 2})

	// The minimum height leaves room for a single table row.
	p := Render(s, 80, MinHeight, testStatus).Panels[0].(TablePanel)

	require.Len(t, p.Rows, 1)
	assert.Equal(t, "2022", strings.TrimSpace(p.Rows[0][0]))
	assert.Equal(t, 0, p.Cursor)
}

func TestRenderChart(t *testing.T) {
	s := viewState(t, "routput/Dmd", []float64{1, 2, 3, 4, 5, 6})
	s, _ = session.Apply(s, session.ToggleChart{})

	f := Render(s, 80, 24, testStatus)

	require.Len(t, f.Panels, 2)
	c := f.Panels[1].(ChartPanel)
	assert.Equal(t, "r = north along t", c.Title)
	assert.Equal(t, "▁▄█", c.Line)
	assert.Equal(t, "min 1.00  max 5.00", c.Range)
	assert.Equal(t, 24-2, f.Panels[0].bounds().Height+c.Height)
}

func TestRenderError(t *testing.T) {
	s := session.New(testCatalog(), session.Options{})
	s, _ = session.Apply(s, session.OpenDataset{Path: "routput/Nope"})

	f := Render(s, 80, 24, testStatus)

	p := f.Panels[0].(ErrorPanel)
	assert.Equal(t, []string{"dataset not found: routput/Nope"}, p.Lines)
	assert.Contains(t, p.Hint, "esc")
}

func TestRenderHelp(t *testing.T) {
	s := viewState(t, "routput/Dmd", nil)
	s, _ = session.Apply(s, session.ToggleHelp{})

	p := Render(s, 100, 30, testStatus).Panels[0].(HelpPanel)

	require.NotEmpty(t, p.Groups)
	var keys []string
	for _, g := range p.Groups {
		for _, e := range g {
			keys = append(keys, e.Key)
		}
	}
	assert.Contains(t, keys, "[ / ]")
	assert.Contains(t, keys, ".")
}

func TestViewFillsTerminal(t *testing.T) {
	st := NewStyles(DefaultTheme, true)
	states := []session.State{
		session.New(testCatalog(), session.Options{}),
		viewState(t, "routput/Dmd", []float64{1, 2, 3, 4, 5, 6}),
	}
	for _, s := range states {
		view := Render(s, 100, 30, testStatus).View(st)
		assert.Equal(t, 30, lipgloss.Height(view))
		assert.LessOrEqual(t, lipgloss.Width(view), 100)
	}
}

func TestSparkline(t *testing.T) {
	assert.Equal(t, "", sparkline(nil, 10))
	assert.Equal(t, "▁▁▁", sparkline([]float64{2, 2, 2}, 10))
	assert.Equal(t, "▁█", sparkline([]float64{0, 10}, 10))
	assert.Equal(t, 4, len([]rune(sparkline([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9}, 4))))
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		v       float64
		integer bool
		dashes  bool
		want    string
	}{
		{1.234, false, false, "1.23"},
		{0, false, true, "-"},
		{0, false, false, "0.00"},
		{42, true, false, "42"},
		{-3, true, true, "-3"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatValue(tt.v, tt.integer, tt.dashes))
	}
}

func TestTruncateIsWidthAware(t *testing.T) {
	s := truncate("数据集名称", 5)
	assert.LessOrEqual(t, runewidth.StringWidth(s), 5)
	assert.True(t, strings.HasSuffix(s, "…"))
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "", truncate("abc", 0))
}

func trimAll(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = strings.TrimSpace(c)
	}
	return out
}
