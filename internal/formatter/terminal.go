package formatter

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// terminalFormatter writes an aligned plain text table
type terminalFormatter struct{}

// NewTerminal creates a new text formatter
func NewTerminal() Formatter {
	return &terminalFormatter{}
}

// Format aligns the columns. When the table is wider than the listing width
// the dataset column is truncated.
func (f *terminalFormatter) Format(l *Listing) ([]byte, error) {
	rows := make([][]string, 0, len(l.Datasets))
	for _, m := range l.Datasets {
		rows = append(rows, cells(m))
	}
	widths := f.columnWidths(rows, l.Width)

	var b strings.Builder
	f.writeRow(&b, columns, widths)
	for _, row := range rows {
		f.writeRow(&b, row, widths)
	}
	b.WriteString("\n")
	b.WriteString(summary(l))
	b.WriteString("\n")
	return []byte(b.String()), nil
}

func (f *terminalFormatter) columnWidths(rows [][]string, limit int) []int {
	widths := make([]int, len(columns))
	for i, h := range columns {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}
	if limit > 0 {
		rest := 0
		for _, w := range widths[1:] {
			rest += w + 2
		}
		widths[0] = max(len(columns[0]), min(widths[0], limit-rest))
	}
	return widths
}

// writeRow pads every cell but the last, which is right aligned.
func (f *terminalFormatter) writeRow(b *strings.Builder, row []string, widths []int) {
	var line strings.Builder
	for i, cell := range row {
		cell = runewidth.Truncate(cell, widths[i], "…")
		if i == len(row)-1 {
			line.WriteString(runewidth.FillLeft(cell, widths[i]))
			break
		}
		line.WriteString(runewidth.FillRight(cell, widths[i]))
		line.WriteString("  ")
	}
	b.WriteString(strings.TrimRight(line.String(), " "))
	b.WriteString("\n")
}
