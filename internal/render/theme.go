package render

import (
	"os"

	"github.com/charmbracelet/lipgloss"
)

// Theme represents a color theme for the viewer
type Theme struct {
	Name string

	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Accent    lipgloss.AdaptiveColor

	Success lipgloss.AdaptiveColor
	Warning lipgloss.AdaptiveColor
	Error   lipgloss.AdaptiveColor

	Border    lipgloss.AdaptiveColor
	Muted     lipgloss.AdaptiveColor
	Selected  lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor
}

// buildTheme creates a theme from light/dark color pairs
func buildTheme(name string, primary, secondary, accent, success, warning, errorColor, border, muted, selected, highlight [2]string) Theme {
	return Theme{
		Name:      name,
		Primary:   lipgloss.AdaptiveColor{Light: primary[0], Dark: primary[1]},
		Secondary: lipgloss.AdaptiveColor{Light: secondary[0], Dark: secondary[1]},
		Accent:    lipgloss.AdaptiveColor{Light: accent[0], Dark: accent[1]},
		Success:   lipgloss.AdaptiveColor{Light: success[0], Dark: success[1]},
		Warning:   lipgloss.AdaptiveColor{Light: warning[0], Dark: warning[1]},
		Error:     lipgloss.AdaptiveColor{Light: errorColor[0], Dark: errorColor[1]},
		Border:    lipgloss.AdaptiveColor{Light: border[0], Dark: border[1]},
		Muted:     lipgloss.AdaptiveColor{Light: muted[0], Dark: muted[1]},
		Selected:  lipgloss.AdaptiveColor{Light: selected[0], Dark: selected[1]},
		Highlight: lipgloss.AdaptiveColor{Light: highlight[0], Dark: highlight[1]},
	}
}

// Available themes
var (
	DefaultTheme = buildTheme("default",
		[2]string{"#1E40AF", "#3B82F6"}, [2]string{"#6B7280", "#9CA3AF"}, [2]string{"#B45309", "#FBBF24"},
		[2]string{"#059669", "#10B981"}, [2]string{"#D97706", "#F59E0B"}, [2]string{"#DC2626", "#EF4444"},
		[2]string{"#D1D5DB", "#374151"}, [2]string{"#6B7280", "#9CA3AF"}, [2]string{"#DBEAFE", "#1E3A8A"},
		[2]string{"#FEF3C7", "#1F2937"})

	HighContrastTheme = buildTheme("high-contrast",
		[2]string{"#000000", "#FFFFFF"}, [2]string{"#666666", "#BBBBBB"}, [2]string{"#000080", "#FFFF00"},
		[2]string{"#006600", "#00FF00"}, [2]string{"#CC6600", "#FFAA00"}, [2]string{"#CC0000", "#FF4444"},
		[2]string{"#000000", "#FFFFFF"}, [2]string{"#666666", "#BBBBBB"}, [2]string{"#CCCCCC", "#333333"},
		[2]string{"#FFFF00", "#444444"})

	MinimalTheme = buildTheme("minimal",
		[2]string{"#2D3748", "#E2E8F0"}, [2]string{"#718096", "#A0AEC0"}, [2]string{"#4A5568", "#CBD5E0"},
		[2]string{"#2F855A", "#68D391"}, [2]string{"#C05621", "#F6AD55"}, [2]string{"#C53030", "#FC8181"},
		[2]string{"#E2E8F0", "#2D3748"}, [2]string{"#A0AEC0", "#718096"}, [2]string{"#EDF2F7", "#2D3748"},
		[2]string{"#F7FAFC", "#2D3748"})
)

// ThemeByName returns the named theme
func ThemeByName(name string) (Theme, bool) {
	switch name {
	case "default", "":
		return DefaultTheme, true
	case "high-contrast":
		return HighContrastTheme, true
	case "minimal":
		return MinimalTheme, true
	default:
		return Theme{}, false
	}
}

// ThemeNames returns list of available theme names
func ThemeNames() []string {
	return []string{"default", "high-contrast", "minimal"}
}

// ColorDisabled checks if colors should be disabled
func ColorDisabled() bool {
	return os.Getenv("NO_COLOR") != ""
}

// Styles contains all the styled components
type Styles struct {
	Header lipgloss.Style
	Status lipgloss.Style
	Title  lipgloss.Style
	Muted  lipgloss.Style
	Accent lipgloss.Style
	Error  lipgloss.Style
	Chart  lipgloss.Style

	Panel      lipgloss.Style
	Focused    lipgloss.Style
	ErrorPanel lipgloss.Style

	TableHeader lipgloss.Style
	Cell        lipgloss.Style
	Selected    lipgloss.Style
	Total       lipgloss.Style

	Key  lipgloss.Style
	Desc lipgloss.Style
}

// NewStyles builds the styles of theme. With colors disabled only
// attributes and borders remain.
func NewStyles(theme Theme, noColor bool) Styles {
	color := func(s lipgloss.Style, c lipgloss.AdaptiveColor) lipgloss.Style {
		if noColor {
			return s
		}
		return s.Foreground(c)
	}
	border := func(s lipgloss.Style, c lipgloss.AdaptiveColor) lipgloss.Style {
		s = s.Border(lipgloss.RoundedBorder()).Padding(0, 1)
		if noColor {
			return s
		}
		return s.BorderForeground(c)
	}
	selected := lipgloss.NewStyle().Bold(true)
	if noColor {
		selected = selected.Reverse(true)
	} else {
		selected = selected.Background(theme.Selected).Foreground(theme.Primary)
	}

	return Styles{
		Header: color(lipgloss.NewStyle().Bold(true), theme.Primary),
		Status: color(lipgloss.NewStyle(), theme.Muted),
		Title:  color(lipgloss.NewStyle().Bold(true), theme.Primary),
		Muted:  color(lipgloss.NewStyle(), theme.Muted),
		Accent: color(lipgloss.NewStyle(), theme.Accent),
		Error:  color(lipgloss.NewStyle().Bold(true), theme.Error),
		Chart:  color(lipgloss.NewStyle(), theme.Success),

		Panel:      border(lipgloss.NewStyle(), theme.Border),
		Focused:    border(lipgloss.NewStyle(), theme.Primary),
		ErrorPanel: border(lipgloss.NewStyle(), theme.Error),

		TableHeader: color(lipgloss.NewStyle().Bold(true).Padding(0, 1), theme.Secondary),
		Cell:        lipgloss.NewStyle().Padding(0, 1),
		Selected:    selected,
		Total:       color(lipgloss.NewStyle().Bold(true), theme.Warning),

		Key:  color(lipgloss.NewStyle().Bold(true), theme.Accent),
		Desc: color(lipgloss.NewStyle(), theme.Muted),
	}
}
