package report

import (
	"encoding/csv"
	"io"
	"strconv"
)

// writeCSV writes the spreadsheet layout: a Category,Count table, then a
// Dependency,License table where each category opens with its own row.
// Blank rows separate the sections.
func writeCSV(w io.Writer, r *Report) error {
	cw := csv.NewWriter(w)
	blank := []string{"", ""}

	rows := [][]string{{"Category", "Count"}}
	for _, c := range r.Counts {
		rows = append(rows, []string{c.Category, strconv.Itoa(c.Count)})
	}
	rows = append(rows, blank, []string{"Dependency", "License"}, blank)
	for _, g := range r.Groups {
		rows = append(rows, []string{g.Category, ""})
		for _, e := range g.Entries {
			rows = append(rows, []string{e.Name, e.License})
		}
		rows = append(rows, blank)
	}
	return cw.WriteAll(rows)
}
