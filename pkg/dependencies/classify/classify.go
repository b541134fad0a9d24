// Package classify buckets raw npm license values into compliance categories.
//
// Matching is exact and case-sensitive against fixed tables. Compound
// expressions joined by AND/OR are split and each fragment is classified on
// its own; a compound value whose fragments disagree is Mixed.
package classify

import "strings"

// Category is a license compliance bucket.
type Category string

const (
	OpenSource   Category = "Open Source"
	ClosedSource Category = "Closed Source"
	Partial      Category = "Partial"
	Unlicensed   Category = "Unlicensed"
	EULA         Category = "EULA"
	Mixed        Category = "Mixed"
	Unknown      Category = "Unknown"
)

var tables = map[Category][]string{
	OpenSource: {
		"MIT", "Apache-2.0", "GPL-3.0", "BSD", "BSD-3-Clause", "ISC",
		"BSD-2-Clause", "Python-2.0", "CC0-1.0", "CC-BY-4.0", "0BSD", "CC-BY-3.0", "OFL-1.1", "MPL-2.0",
	},
	ClosedSource: {"Proprietary"},
	Partial:      {"LGPL-2.1", "LGPL-3.0"},
	Unlicensed:   {"UNLICENSED", "Unlicense"},
	EULA:         {"SEE LICENSE IN EULA_MICROSOFT VISUAL STUDIO TEAM SERVICES AUTHHELPER FOR NPM.txt"},
}

// lookup order when a value appears in more than one table
var tableOrder = []Category{OpenSource, ClosedSource, Partial, Unlicensed, EULA}

var index = buildIndex()

func buildIndex() map[string]Category {
	idx := make(map[string]Category)
	for _, c := range tableOrder {
		for _, id := range tables[c] {
			if _, exists := idx[id]; !exists {
				idx[id] = c
			}
		}
	}
	return idx
}

// Categories lists every category in report order.
func Categories() []Category {
	return []Category{OpenSource, ClosedSource, Partial, Unlicensed, EULA, Mixed, Unknown}
}

// Members returns a copy of the identifiers listed for c. Mixed and Unknown
// are derived categories and have no members.
func Members(c Category) []string {
	return append([]string(nil), tables[c]...)
}

// Categorize maps a raw license value to its category.
func Categorize(raw string) Category {
	fragments, compound := splitExpression(raw)
	if !compound {
		return lookup(raw)
	}

	var first Category
	for i, frag := range fragments {
		c := lookup(frag)
		if i == 0 {
			first = c
			continue
		}
		if c != first {
			return Mixed
		}
	}
	return first
}

// IsCompound reports whether raw is an AND/OR expression.
func IsCompound(raw string) bool {
	_, compound := splitExpression(raw)
	return compound
}

func lookup(id string) Category {
	if c, ok := index[id]; ok {
		return c
	}
	return Unknown
}

// splitExpression splits raw on standalone AND/OR tokens. Operators must be
// whitespace-delimited words so identifiers that merely contain the letters
// (the EULA entry contains "FOR") are not split.
func splitExpression(raw string) ([]string, bool) {
	words := strings.Fields(raw)
	var (
		fragments []string
		current   []string
		compound  bool
	)
	flush := func() {
		frag := strings.Trim(strings.Join(current, " "), " ()")
		fragments = append(fragments, frag)
		current = current[:0]
	}
	for _, w := range words {
		if isOperator(w) {
			compound = true
			flush()
			continue
		}
		current = append(current, w)
	}
	if !compound {
		return nil, false
	}
	flush()
	return fragments, true
}

func isOperator(word string) bool {
	w := strings.Trim(word, "()")
	return w == "AND" || w == "OR"
}
