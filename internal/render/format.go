package render

import (
	"math"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
)

const ellipsis = "…"

// truncate cuts s to at most width terminal cells.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, ellipsis)
}

func padRight(s string, width int) string {
	return runewidth.FillRight(truncate(s, width), width)
}

func padLeft(s string, width int) string {
	return runewidth.FillLeft(truncate(s, width), width)
}

// spread puts left and right on one line of width cells, truncating left
// first.
func spread(left, right string, width int) string {
	rw := runewidth.StringWidth(right)
	if rw >= width {
		return truncate(right, width)
	}
	return padRight(left, width-rw-1) + " " + right
}

// wrap breaks s into lines of at most width cells at spaces.
func wrap(s string, width int) []string {
	var lines []string
	for _, para := range strings.Split(s, "\n") {
		line := ""
		for _, word := range strings.Fields(para) {
			switch {
			case line == "":
				line = word
			case runewidth.StringWidth(line)+1+runewidth.StringWidth(word) <= width:
				line += " " + word
			default:
				lines = append(lines, truncate(line, width))
				line = word
			}
		}
		lines = append(lines, truncate(line, width))
	}
	return lines
}

func isInteger(goType string) bool {
	return strings.HasPrefix(goType, "int") || strings.HasPrefix(goType, "uint")
}

// formatValue prints integers without decimals and everything else with
// two. With dashes set zero prints as "-".
func formatValue(v float64, integer, dashes bool) string {
	switch {
	case dashes && v == 0:
		return "-"
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "+Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	case integer:
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

var sparks = []rune("▁▂▃▄▅▆▇█")

// sparkline samples series down to width points and draws one block per
// point. NaN points are blank.
func sparkline(series []float64, width int) string {
	if width <= 0 || len(series) == 0 {
		return ""
	}
	sampled := series
	if len(series) > width {
		sampled = make([]float64, width)
		step := float64(len(series)-1) / float64(max(width-1, 1))
		for i := range sampled {
			idx := int(math.Round(float64(i) * step))
			sampled[i] = series[min(idx, len(series)-1)]
		}
	}

	lo, hi, ok := bounds(sampled)
	var b strings.Builder
	for _, v := range sampled {
		if math.IsNaN(v) || math.IsInf(v, 0) || !ok {
			b.WriteRune(' ')
			continue
		}
		level := 0
		if hi > lo {
			level = int((v - lo) / (hi - lo) * float64(len(sparks)-1))
		}
		b.WriteRune(sparks[max(0, min(level, len(sparks)-1))])
	}
	return b.String()
}

// bounds returns the finite minimum and maximum of values.
func bounds(values []float64) (lo, hi float64, ok bool) {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if !ok {
			lo, hi, ok = v, v, true
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi, ok
}
