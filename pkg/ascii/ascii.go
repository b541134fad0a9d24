// Package ascii provides display-width aware helpers for terminal text output
package ascii

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// Box builds a box containing the provided lines and returns it as a string.
// Lines are left-aligned with single-space padding on each side. Multi-width
// runes (emoji, CJK, etc.) are accounted for so the borders stay aligned.
func Box(lines []string) string {
	if len(lines) == 0 {
		return ""
	}

	trimmed := make([]string, len(lines))
	maxWidth := 0
	for i, line := range lines {
		trimmed[i] = strings.TrimRight(line, " ")
		if w := StringWidth(trimmed[i]); w > maxWidth {
			maxWidth = w
		}
	}

	innerWidth := maxWidth + 2
	border := strings.Repeat("─", innerWidth)

	var sb strings.Builder
	sb.WriteString("┌" + border + "┐\n")
	for _, line := range trimmed {
		sb.WriteString("│ " + PadRight(line, maxWidth) + " │\n")
	}
	sb.WriteString("└" + border + "┘\n")
	return sb.String()
}

// PadRight pads s with spaces up to the given display width.
func PadRight(s string, width int) string {
	fill := width - StringWidth(s)
	if fill <= 0 {
		return s
	}
	return s + strings.Repeat(" ", fill)
}

// Truncate shortens value so that its display width fits within width. An
// ellipsis ("...") is appended when truncation occurs and there is space for it.
func Truncate(value string, width int) string {
	if width <= 0 {
		return ""
	}
	if StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return substringWithWidth(value, width)
	}
	return substringWithWidth(value, width-3) + "..."
}

func substringWithWidth(s string, target int) string {
	width := 0
	var sb strings.Builder
	for _, r := range s {
		w := runewidth.RuneWidth(r)
		if width+w > target {
			break
		}
		width += w
		sb.WriteRune(r)
	}
	return sb.String()
}

// StringWidth returns the display width of a string.
func StringWidth(s string) int {
	return runewidth.StringWidth(s)
}
