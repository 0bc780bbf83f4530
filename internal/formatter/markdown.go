package formatter

import (
	"fmt"
	"path"
	"strings"
)

// markdownFormatter formats output as Markdown
type markdownFormatter struct{}

// NewMarkdown creates a new Markdown formatter
func NewMarkdown() Formatter {
	return &markdownFormatter{}
}

// Format writes one table per group so that large files stay readable.
func (f *markdownFormatter) Format(l *Listing) ([]byte, error) {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("# %s\n\n", path.Base(l.File)))
	b.WriteString(summary(l))
	b.WriteString("\n")

	group := "\x00"
	for _, m := range l.Datasets {
		if g := m.Group(); g != group {
			group = g
			f.writeGroupHeader(&b, g)
		}
		b.WriteString(fmt.Sprintf("| `%s` | %s | %s | %s | %s | %s |\n",
			m.Path, m.ShapeString(), escapeCell(dimNames(m)), m.Type, escapeCell(m.Units), formatNumber(m.Size())))
	}

	return []byte(b.String()), nil
}

func (f *markdownFormatter) writeGroupHeader(b *strings.Builder, group string) {
	if group == "" {
		group = "/"
	}
	b.WriteString(fmt.Sprintf("\n## %s\n\n", group))
	b.WriteString("| Dataset | Shape | Dims | Type | Units | Elements |\n")
	b.WriteString("|---------|-------|------|------|-------|---------:|\n")
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
