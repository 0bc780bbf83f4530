package render

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"github.com/yildizm/h5view/internal/dataset"
	"github.com/yildizm/h5view/internal/keymap"
	"github.com/yildizm/h5view/internal/session"
)

// Render builds the frame for s on a width by height terminal. It reads
// nothing but its arguments.
func Render(s session.State, width, height int, st Status) Frame {
	f := Frame{Width: width, Height: height}
	if width < MinWidth || height < MinHeight {
		f.Panels = []Panel{TooSmallPanel{
			Box:     Box{Width: max(width, 0), Height: max(height, 0)},
			Message: fmt.Sprintf("Terminal too small: %dx%d, need at least %dx%d.", width, height, MinWidth, MinHeight),
		}}
		return f
	}

	f.Header = header(s, st, width)
	f.Status = statusLine(s, st, width)

	body := Box{Width: width, Height: height - 2}
	if s.Help {
		f.Panels = []Panel{helpPanel(s.Mode, body)}
		return f
	}
	switch m := s.Mode.(type) {
	case session.Browsing:
		f.Panels = []Panel{catalogPanel(s, m.Filter, false, m.Cursor, body)}
	case session.Searching:
		f.Panels = []Panel{catalogPanel(s, m.Input, true, -1, body)}
	case session.Viewing:
		f.Panels = viewingPanels(s, m, body)
	case session.ErrorMode:
		f.Panels = []Panel{errorPanel(m.Message, body)}
	}
	return f
}

// inner is the content area of a bordered, padded panel.
func inner(b Box) Box {
	return Box{Width: max(b.Width-4, 0), Height: max(b.Height-2, 0)}
}

func header(s session.State, st Status, width int) string {
	left := "h5view"
	if st.File != "" {
		left += " · " + filepath.Base(st.File)
	}
	if v, ok := session.CurrentViewing(s.Mode); ok {
		left += " › " + v.Path
	}
	right := s.Notice
	if right == "" && s.Mode != nil {
		right = s.Mode.Name()
	}
	return spread(left, right, width)
}

// statusLine keeps the key hint whole and adds the counters when they fit.
func statusLine(s session.State, st Status, width int) string {
	c := st.Cache
	right := fmt.Sprintf("%d datasets · cache %s/%s",
		s.Catalog.Len(), humanize.IBytes(uint64(max(c.Bytes, 0))), humanize.IBytes(uint64(max(c.Budget, 0))))
	if runewidth.StringWidth(StatusText)+1+runewidth.StringWidth(right) > width {
		return truncate(StatusText, width)
	}
	return spread(StatusText, right, width)
}

func catalogPanel(s session.State, filter string, editing bool, cursor int, box Box) CatalogPanel {
	in := inner(box)
	listing := s.Listing(filter)
	p := CatalogPanel{Box: box, Filter: truncate(filter, in.Width-12), Editing: editing, Cursor: -1}

	shapeW, typeW, unitsW := len("Shape"), len("Type"), len("Units")
	for _, m := range listing {
		shapeW = max(shapeW, runewidth.StringWidth(m.ShapeString()))
		typeW = max(typeW, runewidth.StringWidth(m.Type))
		unitsW = max(unitsW, runewidth.StringWidth(m.Units))
	}
	shapeW, typeW, unitsW = min(shapeW, 12), min(typeW, 7), min(unitsW, 10)
	pathW := in.Width - (shapeW + 2) - (typeW + 2) - 2
	withUnits := pathW-(unitsW+2) >= 24
	if withUnits {
		pathW -= unitsW + 2
	}
	pathW = max(pathW, 8)

	p.Columns = []Column{{"Dataset", pathW}, {"Shape", shapeW}, {"Type", typeW}}
	if withUnits {
		p.Columns = append(p.Columns, Column{"Units", unitsW})
	}

	n := len(listing)
	switch {
	case n == 0:
		p.Position = "no match"
	case cursor >= 0:
		cursor = min(cursor, n-1)
		p.Position = fmt.Sprintf("%d/%d", cursor+1, n)
	default:
		p.Position = fmt.Sprintf("%d/%d", n, s.Catalog.Len())
	}

	visible := max(in.Height-2, 1)
	offset := 0
	if cursor >= visible {
		offset = cursor - visible + 1
	}
	for _, m := range listing[offset:min(n, offset+visible)] {
		row := []string{truncate(m.Path, pathW), truncate(m.ShapeString(), shapeW), truncate(m.Type, typeW)}
		if withUnits {
			row = append(row, truncate(m.Units, unitsW))
		}
		p.Rows = append(p.Rows, row)
	}
	if cursor >= 0 && n > 0 {
		p.Cursor = cursor - offset
	}
	return p
}

func viewingPanels(s session.State, v session.Viewing, body Box) []Panel {
	meta, _ := s.Catalog.Get(v.Path)

	var (
		table dataset.Table
		err   error
	)
	loaded := v.Loaded()
	if loaded {
		table, err = dataset.Pivot(meta, v.Data, v.RowAxis, v.ColAxis, v.FixedIndices())
	}

	if v.Chart && loaded && err == nil && len(table.Cells) > 0 && len(table.ColLabels) > 0 && body.Height-chartHeight >= minTable {
		top := Box{Width: body.Width, Height: body.Height - chartHeight}
		bottom := Box{Width: body.Width, Height: chartHeight}
		return []Panel{
			tablePanel(s, v, meta, table, loaded, err, top),
			chartPanel(meta, v, table, bottom),
		}
	}
	return []Panel{tablePanel(s, v, meta, table, loaded, err, body)}
}

func tablePanel(s session.State, v session.Viewing, meta dataset.Meta, table dataset.Table, loaded bool, err error, box Box) TablePanel {
	in := inner(box)
	p := TablePanel{Box: box, Cursor: -1}
	p.Title = spread(v.Path, describe(meta, v), in.Width)
	used := 1
	if meta.Doc != "" {
		p.Doc = truncate(meta.Doc, in.Width)
		used++
	}
	dims := dimLines(meta, v, in.Width)
	if room := max(in.Height-used-3, 0); len(dims) > room {
		dims = dims[:room]
	}
	p.Dims = dims
	used += len(dims)

	switch {
	case !loaded:
		frames := spinner.Dot.Frames
		p.Loading = frames[int(s.Ticks%uint64(len(frames)))]
		return p
	case err != nil:
		p.Note = truncate(err.Error(), in.Width)
		return p
	}

	integer := isInteger(meta.Type)
	format := func(x float64) string { return formatValue(x, integer, v.Dashes) }

	nrows := len(table.Cells)
	totalRow := v.RowAxis >= 0 && nrows > 1
	body := in.Height - used - 1
	if totalRow {
		body--
	}
	body = max(body, 1)
	offset := max(0, v.Row-body+1)
	end := min(nrows, offset+body)

	labelW := max(runewidth.StringWidth(table.RowName), 3)
	for _, l := range table.RowLabels[offset:end] {
		labelW = max(labelW, runewidth.StringWidth(l))
	}
	if totalRow {
		labelW = max(labelW, len("Total"))
	}
	labelW = min(labelW, max(in.Width/3, 3))
	avail := in.Width - (labelW + 2)

	totalCol := v.ColAxis >= 0 && len(table.ColLabels) > 1
	totalW := 0
	if totalCol {
		totalW = columnWidth("Total", table.RowTotals[offset:end], table.Total, format)
		avail -= totalW + 2
	}

	var cols []int
	for c := min(v.Col, len(table.ColLabels)-1); c >= 0 && c < len(table.ColLabels); c++ {
		values := make([]float64, 0, end-offset)
		for r := offset; r < end; r++ {
			values = append(values, table.Cells[r][c])
		}
		w := columnWidth(table.ColLabels[c], values, table.ColTotals[c], format)
		if len(cols) > 0 && w+2 > avail {
			break
		}
		cols = append(cols, c)
		avail -= w + 2
		p.Columns = append(p.Columns, Column{Title: padLeft(table.ColLabels[c], w), Width: w})
	}
	p.Columns = append([]Column{{Title: padRight(table.RowName, labelW), Width: labelW}}, p.Columns...)
	if totalCol {
		p.Columns = append(p.Columns, Column{Title: padLeft("Total", totalW), Width: totalW})
	}

	for r := offset; r < end; r++ {
		row := []string{padRight(table.RowLabels[r], labelW)}
		for i, c := range cols {
			row = append(row, padLeft(format(table.Cells[r][c]), p.Columns[i+1].Width))
		}
		if totalCol {
			row = append(row, padLeft(format(table.RowTotals[r]), totalW))
		}
		p.Rows = append(p.Rows, row)
	}
	if totalRow {
		p.Totals = []string{padRight("Total", labelW)}
		for i, c := range cols {
			p.Totals = append(p.Totals, padLeft(format(table.ColTotals[c]), p.Columns[i+1].Width))
		}
		if totalCol {
			p.Totals = append(p.Totals, padLeft(format(table.Total), totalW))
		}
	}
	if nrows > 0 {
		p.Cursor = min(v.Row, nrows-1) - offset
	}
	return p
}

// columnWidth fits the title and every value, within limits.
func columnWidth(title string, values []float64, total float64, format func(float64) string) int {
	w := runewidth.StringWidth(title)
	for _, x := range values {
		w = max(w, runewidth.StringWidth(format(x)))
	}
	w = max(w, runewidth.StringWidth(format(total)))
	return min(max(w, 3), 14)
}

func describe(meta dataset.Meta, v session.Viewing) string {
	parts := []string{meta.ShapeString()}
	if meta.Type != "" {
		parts = append(parts, meta.Type)
	}
	if meta.Units != "" {
		parts = append(parts, meta.Units)
	}
	if meta.NDims() > 0 && v.Window[0].Len() < meta.Shape[0] {
		parts = append(parts, fmt.Sprintf("rows %d-%d", v.Window[0].Start+1, v.Window[0].End))
	}
	return strings.Join(parts, " · ")
}

// dimLines describes the axes and every fixed dimension with its key.
func dimLines(meta dataset.Meta, v session.Viewing, width int) []string {
	if meta.NDims() < 2 {
		return nil
	}
	lines := []string{truncate(fmt.Sprintf("rows: %s  columns: %s", meta.DimName(v.RowAxis), meta.DimName(v.ColAxis)), width)}
	for d := range meta.Shape {
		if d == v.RowAxis || d == v.ColAxis {
			continue
		}
		i := v.Fixed[d]
		line := fmt.Sprintf("%s: %s (%d / %d)", meta.DimName(d), meta.Label(d, i), i+1, meta.Shape[d])
		if d < 9 {
			line += fmt.Sprintf("  F%d", d+1)
		}
		lines = append(lines, truncate(line, width))
	}
	return lines
}

func chartPanel(meta dataset.Meta, v session.Viewing, table dataset.Table, box Box) ChartPanel {
	in := inner(box)
	col := min(v.Col, len(table.ColLabels)-1)
	series := make([]float64, len(table.Cells))
	for r := range table.Cells {
		series[r] = table.Cells[r][col]
	}

	title := v.Path
	if v.ColAxis >= 0 {
		title = table.ColName + " = " + table.ColLabels[col]
	}
	if v.RowAxis >= 0 {
		title += " along " + table.RowName
	}

	rng := "no finite values"
	if lo, hi, ok := bounds(series); ok {
		integer := isInteger(meta.Type)
		rng = fmt.Sprintf("min %s  max %s", formatValue(lo, integer, false), formatValue(hi, integer, false))
	}
	return ChartPanel{
		Box:   box,
		Title: truncate(title, in.Width),
		Line:  sparkline(series, in.Width),
		Range: truncate(rng, in.Width),
	}
}

func errorPanel(msg string, box Box) ErrorPanel {
	in := inner(box)
	lines := wrap(msg, in.Width)
	if room := max(in.Height-2, 1); len(lines) > room {
		lines = lines[:room]
	}
	return ErrorPanel{Box: box, Lines: lines, Hint: truncate("Press esc to dismiss.", in.Width)}
}

func helpPanel(m session.Mode, box Box) HelpPanel {
	room := max(inner(box).Height-1, 1)
	seen := make(map[HelpEntry]bool)
	p := HelpPanel{Box: box}
	for _, group := range keymap.Help(m).FullHelp() {
		var entries []HelpEntry
		for _, b := range group {
			e := HelpEntry{Key: b.Help().Key, Desc: b.Help().Desc}
			if seen[e] || len(entries) == room {
				continue
			}
			seen[e] = true
			entries = append(entries, e)
		}
		if len(entries) > 0 {
			p.Groups = append(p.Groups, entries)
		}
	}
	return p
}
