// Package report turns analysis results into a license inventory and renders
// it in the supported output formats.
package report

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fulmenhq/licensescan/pkg/dependencies"
	"github.com/fulmenhq/licensescan/pkg/dependencies/classify"
)

// Format names an output format.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
	FormatXML      Format = "xml"
)

// ErrUnsupportedFormat is returned for unknown format names.
var ErrUnsupportedFormat = errors.New("unsupported report format")

var aliases = map[string]Format{
	"md":  FormatMarkdown,
	"txt": FormatText,
	"yml": FormatYAML,
}

// Formats lists the supported formats.
func Formats() []Format {
	return []Format{FormatCSV, FormatJSON, FormatYAML, FormatMarkdown, FormatText, FormatXML}
}

// ParseFormat resolves a format name, accepting md, txt and yml as aliases.
func ParseFormat(name string) (Format, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if f, ok := aliases[n]; ok {
		return f, nil
	}
	for _, f := range Formats() {
		if string(f) == n {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
}

// Report is the license inventory of one or more scans.
type Report struct {
	Manifests []string        `json:"manifests,omitempty" yaml:"manifests,omitempty"`
	Passed    bool            `json:"passed" yaml:"passed"`
	Total     int             `json:"total" yaml:"total"`
	Counts    []CategoryCount `json:"counts" yaml:"counts"`
	Groups    []Group         `json:"groups" yaml:"groups"`
	Issues    []Issue         `json:"issues,omitempty" yaml:"issues,omitempty"`
}

// CategoryCount is the number of dependencies in one category.
type CategoryCount struct {
	Category string `json:"category" yaml:"category"`
	Count    int    `json:"count" yaml:"count"`
}

// Group lists the dependencies of one category.
type Group struct {
	Category string  `json:"category" yaml:"category"`
	Entries  []Entry `json:"entries" yaml:"entries"`
}

// Entry is one dependency line of the report.
type Entry struct {
	Name    string `json:"name" yaml:"name"`
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
	License string `json:"license" yaml:"license"`
	Path    string `json:"path,omitempty" yaml:"path,omitempty"`
}

// Issue is a policy violation or scan notice.
type Issue struct {
	Manifest string `json:"manifest,omitempty" yaml:"manifest,omitempty"`
	Type     string `json:"type" yaml:"type"`
	Severity string `json:"severity" yaml:"severity"`
	Message  string `json:"message" yaml:"message"`
}

// Build groups dependencies by category. Counts and groups follow the fixed
// category order and leave out empty categories; entries are sorted by name,
// then license.
func Build(deps []dependencies.Dependency) *Report {
	byCategory := make(map[classify.Category][]Entry)
	for _, d := range deps {
		e := Entry{Name: d.Name, Version: d.Version, Path: d.Path}
		if d.License != nil {
			e.License = d.License.Type
		}
		byCategory[d.Category] = append(byCategory[d.Category], e)
	}

	r := &Report{Passed: true, Total: len(deps), Counts: []CategoryCount{}, Groups: []Group{}}
	for _, c := range classify.Categories() {
		entries := byCategory[c]
		if len(entries) == 0 {
			continue
		}
		sort.SliceStable(entries, func(i, j int) bool {
			if entries[i].Name != entries[j].Name {
				return entries[i].Name < entries[j].Name
			}
			if entries[i].License != entries[j].License {
				return entries[i].License < entries[j].License
			}
			return entries[i].Path < entries[j].Path
		})
		r.Counts = append(r.Counts, CategoryCount{Category: string(c), Count: len(entries)})
		r.Groups = append(r.Groups, Group{Category: string(c), Entries: entries})
	}
	return r
}

// FromResults builds one report covering every result. It passes only when
// every result passed.
func FromResults(results ...*dependencies.AnalysisResult) *Report {
	var deps []dependencies.Dependency
	for _, res := range results {
		deps = append(deps, res.Dependencies...)
	}
	r := Build(deps)
	for _, res := range results {
		if res.Manifest != "" {
			r.Manifests = append(r.Manifests, res.Manifest)
		}
		if !res.Passed {
			r.Passed = false
		}
		for _, is := range res.Issues {
			r.Issues = append(r.Issues, Issue{
				Manifest: res.Manifest,
				Type:     is.Type,
				Severity: is.Severity,
				Message:  is.Message,
			})
		}
	}
	return r
}

// Write renders r to w in the given format.
func Write(w io.Writer, r *Report, format Format) error {
	switch format {
	case FormatCSV:
		return writeCSV(w, r)
	case FormatJSON:
		return writeJSON(w, r)
	case FormatYAML:
		return writeYAML(w, r)
	case FormatMarkdown:
		return writeMarkdown(w, r)
	case FormatText:
		return writeText(w, r)
	case FormatXML:
		return writeXML(w, r)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}
