package render

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

// View draws f with st. The result has at most f.Height lines.
func (f Frame) View(st Styles) string {
	var out []string
	if f.Header != "" {
		out = append(out, st.Header.Render(f.Header))
	}
	for _, p := range f.Panels {
		out = append(out, st.panel(p))
	}
	if f.Status != "" {
		out = append(out, st.Status.Render(f.Status))
	}
	return lipgloss.JoinVertical(lipgloss.Left, out...)
}

func (st Styles) panel(p Panel) string {
	switch p := p.(type) {
	case TooSmallPanel:
		lines := wrap(p.Message, max(p.Width, 1))
		if len(lines) > p.Height {
			lines = lines[:p.Height]
		}
		return st.Error.Render(strings.Join(lines, "\n"))
	case CatalogPanel:
		return st.catalog(p)
	case TablePanel:
		return st.table(p)
	case ChartPanel:
		return st.box(p.Box, st.Panel,
			st.Title.Render(p.Title),
			st.Chart.Render(p.Line),
			st.Muted.Render(p.Range))
	case ErrorPanel:
		lines := append([]string{st.Error.Render("Error")}, p.Lines...)
		return st.box(p.Box, st.ErrorPanel, append(lines, st.Muted.Render(p.Hint))...)
	case HelpPanel:
		return st.box(p.Box, st.Focused, st.Title.Render("Keys"), st.help(p))
	}
	return ""
}

// box draws lines in a bordered panel of exactly b, dropping lines that do
// not fit.
func (st Styles) box(b Box, style lipgloss.Style, lines ...string) string {
	in := inner(b)
	content := strings.Split(strings.Join(lines, "\n"), "\n")
	if len(content) > in.Height {
		content = content[:in.Height]
	}
	return style.Width(max(b.Width-2, 0)).Height(in.Height).Render(strings.Join(content, "\n"))
}

func (st Styles) catalog(p CatalogPanel) string {
	in := inner(p.Box)
	prompt := "Filter: " + p.Filter
	style := st.Muted
	if p.Editing {
		prompt = "/ " + p.Filter + "█"
		style = st.Accent
	}
	line := style.Render(spread(prompt, p.Position, in.Width))
	frame := st.Panel
	if !p.Editing {
		frame = st.Focused
	}
	return st.box(p.Box, frame, line, st.grid(p.Columns, p.Rows, p.Cursor))
}

func (st Styles) table(p TablePanel) string {
	lines := []string{st.Title.Render(p.Title)}
	if p.Doc != "" {
		lines = append(lines, st.Muted.Render(p.Doc))
	}
	for _, d := range p.Dims {
		lines = append(lines, st.Accent.Render(d))
	}
	switch {
	case p.Loading != "":
		lines = append(lines, st.Muted.Render(p.Loading+" reading slice"))
	case p.Note != "":
		lines = append(lines, st.Error.Render(p.Note))
	default:
		lines = append(lines, st.grid(p.Columns, p.Rows, p.Cursor))
		if len(p.Totals) > 0 {
			cells := make([]string, len(p.Totals))
			for i, c := range p.Totals {
				cells[i] = " " + c + " "
			}
			lines = append(lines, st.Total.Render(strings.Join(cells, "")))
		}
	}
	return st.box(p.Box, st.Focused, lines...)
}

// grid draws a header and rows with the cursor row selected.
func (st Styles) grid(columns []Column, rows [][]string, cursor int) string {
	cols := make([]table.Column, len(columns))
	for i, c := range columns {
		cols[i] = table.Column{Title: c.Title, Width: c.Width}
	}
	trs := make([]table.Row, len(rows))
	for i, r := range rows {
		trs[i] = table.Row(r)
	}
	styles := table.Styles{Header: st.TableHeader, Cell: st.Cell, Selected: st.Selected}
	if cursor < 0 {
		styles.Selected = lipgloss.NewStyle()
	}
	t := table.New(
		table.WithColumns(cols),
		table.WithRows(trs),
		table.WithStyles(styles),
		table.WithHeight(len(rows)+1),
	)
	if cursor >= 0 {
		t.SetCursor(cursor)
	}
	return t.View()
}

func (st Styles) help(p HelpPanel) string {
	h := help.New()
	h.Width = inner(p.Box).Width
	h.Styles.FullKey = st.Key
	h.Styles.FullDesc = st.Desc
	h.Styles.FullSeparator = st.Muted

	groups := make([][]key.Binding, len(p.Groups))
	for i, g := range p.Groups {
		for _, e := range g {
			groups[i] = append(groups[i], key.NewBinding(key.WithKeys(e.Key), key.WithHelp(e.Key, e.Desc)))
		}
	}
	return h.FullHelpView(groups)
}
