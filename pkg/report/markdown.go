package report

import (
	_ "embed"
	"io"
	"strings"

	"github.com/aymerick/raymond"
)

//go:embed markdown.hbs
var markdownSource string

var markdownTemplate = raymond.MustParse(markdownSource)

// cells are written unescaped; only the table delimiter needs guarding
var cellEscaper = strings.NewReplacer("|", `\|`, "\n", " ")

func writeMarkdown(w io.Writer, r *Report) error {
	out, err := markdownTemplate.Exec(markdownContext(r))
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

func markdownContext(r *Report) map[string]interface{} {
	counts := make([]map[string]interface{}, 0, len(r.Counts))
	for _, c := range r.Counts {
		counts = append(counts, map[string]interface{}{
			"category": c.Category,
			"count":    c.Count,
		})
	}

	groups := make([]map[string]interface{}, 0, len(r.Groups))
	for _, g := range r.Groups {
		entries := make([]map[string]interface{}, 0, len(g.Entries))
		for _, e := range g.Entries {
			entries = append(entries, map[string]interface{}{
				"name":    cellEscaper.Replace(e.Name),
				"version": cellEscaper.Replace(e.Version),
				"license": cellEscaper.Replace(e.License),
			})
		}
		groups = append(groups, map[string]interface{}{
			"category": g.Category,
			"entries":  entries,
		})
	}

	issues := make([]map[string]interface{}, 0, len(r.Issues))
	for _, is := range r.Issues {
		issues = append(issues, map[string]interface{}{
			"severity": is.Severity,
			"message":  is.Message,
		})
	}

	return map[string]interface{}{
		"manifests": r.Manifests,
		"total":     r.Total,
		"passed":    r.Passed,
		"counts":    counts,
		"groups":    groups,
		"issues":    issues,
	}
}
