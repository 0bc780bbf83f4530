package formatter

import (
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/yildizm/h5view/internal/dataset"
)

var columns = []string{"DATASET", "SHAPE", "TYPE", "UNITS", "ELEMENTS"}

// cells returns the table cells of m in column order.
func cells(m dataset.Meta) []string {
	return []string{m.Path, m.ShapeString(), m.Type, m.Units, formatNumber(m.Size())}
}

// formatNumber formats numbers with commas for readability
func formatNumber(n int) string {
	return humanize.Comma(int64(n))
}

// summary is the closing line of a listing.
func summary(l *Listing) string {
	if len(l.Datasets) == l.Total {
		return humanize.Comma(int64(l.Total)) + " datasets"
	}
	return humanize.Comma(int64(len(l.Datasets))) + " of " + humanize.Comma(int64(l.Total)) + " datasets"
}

func dimNames(m dataset.Meta) string {
	names := make([]string, m.NDims())
	for d := range names {
		names[d] = m.DimName(d)
	}
	return strings.Join(names, ", ")
}
