package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/fulmenhq/licensescan/pkg/ascii"
)

// cells wider than this are truncated
const maxColumnWidth = 48

func writeText(w io.Writer, r *Report) error {
	var sb strings.Builder
	heading := cases.Upper(language.English)

	status := "passed"
	if !r.Passed {
		status = "failed"
	}
	summary := []string{"License report"}
	for _, m := range r.Manifests {
		summary = append(summary, "Manifest: "+m)
	}
	summary = append(summary, fmt.Sprintf("Dependencies: %d", r.Total), "Status: "+status)
	sb.WriteString(ascii.Box(summary))
	sb.WriteString("\n")

	countRows := make([][]string, 0, len(r.Counts)+1)
	countRows = append(countRows, []string{"Category", "Count"})
	for _, c := range r.Counts {
		countRows = append(countRows, []string{c.Category, strconv.Itoa(c.Count)})
	}
	writeTable(&sb, countRows)

	for _, g := range r.Groups {
		sb.WriteString("\n")
		sb.WriteString(heading.String(g.Category))
		sb.WriteString("\n")
		rows := make([][]string, 0, len(g.Entries))
		for _, e := range g.Entries {
			rows = append(rows, []string{e.Name, e.Version, e.License})
		}
		writeTable(&sb, rows)
	}

	if len(r.Issues) > 0 {
		sb.WriteString("\n")
		sb.WriteString(heading.String("Issues"))
		sb.WriteString("\n")
		for _, is := range r.Issues {
			fmt.Fprintf(&sb, "  [%s] %s\n", is.Severity, is.Message)
		}
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// writeTable writes rows as left-aligned columns indented by two spaces.
func writeTable(sb *strings.Builder, rows [][]string) {
	var widths []int
	for _, row := range rows {
		for i, cell := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			if w := ascii.StringWidth(ascii.Truncate(cell, maxColumnWidth)); w > widths[i] {
				widths[i] = w
			}
		}
	}
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cell = ascii.Truncate(cell, maxColumnWidth)
			if i < len(row)-1 {
				cell = ascii.PadRight(cell, widths[i])
			}
			cells[i] = cell
		}
		sb.WriteString("  ")
		sb.WriteString(strings.TrimRight(strings.Join(cells, "  "), " "))
		sb.WriteString("\n")
	}
}
