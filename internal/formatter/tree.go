package formatter

import (
	"fmt"
	"path"
	"strings"

	"github.com/yildizm/go-termfmt"

	"github.com/yildizm/h5view/internal/dataset"
)

// treeFormatter draws the listing as a group tree using go-termfmt
type treeFormatter struct {
	opts *termfmt.TerminalOptions
}

// NewTree creates a tree formatter. Output carries no color codes so it can
// be piped.
func NewTree() Formatter {
	opts := termfmt.DefaultOptions()
	opts.Color = false
	opts.Emoji = false
	return &treeFormatter{opts: opts}
}

func (f *treeFormatter) Format(l *Listing) ([]byte, error) {
	var b strings.Builder

	b.WriteString(path.Base(l.File) + "\n")
	if len(l.Datasets) > 0 {
		b.WriteString(termfmt.TreeViewWithOptions(groupItems(l.Datasets), f.opts))
		b.WriteString("\n")
	}
	b.WriteString(summary(l) + "\n")

	return []byte(b.String()), nil
}

// groupItems nests datasets under their group. Datasets arrive sorted by
// path, so members of a group are adjacent.
func groupItems(metas []dataset.Meta) []termfmt.TreeItem {
	var items []termfmt.TreeItem
	group := "\x00"
	for _, m := range metas {
		if g := m.Group(); g != group {
			group = g
			label := g + "/"
			if g == "" {
				label = "/"
			}
			items = append(items, termfmt.TreeItem{Label: label})
		}
		last := &items[len(items)-1]
		last.Children = append(last.Children, termfmt.TreeItem{
			Label: path.Base(m.Path),
			Value: describe(m),
		})
	}

	for i := range items {
		n := len(items[i].Children)
		items[i].Value = fmt.Sprintf("(%d datasets)", n)
		items[i].Children[n-1].Last = true
	}
	if len(items) > 0 {
		items[len(items)-1].Last = true
	}
	return items
}

func describe(m dataset.Meta) string {
	parts := []string{m.ShapeString()}
	if m.Type != "" {
		parts = append(parts, m.Type)
	}
	if m.Units != "" {
		parts = append(parts, m.Units)
	}
	return strings.Join(parts, " ")
}
