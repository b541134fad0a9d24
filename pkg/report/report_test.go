package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/fulmenhq/licensescan/pkg/dependencies"
	"github.com/fulmenhq/licensescan/pkg/dependencies/classify"
)

func dep(name, version, license string) dependencies.Dependency {
	return dependencies.Dependency{
		Module:   dependencies.Module{Name: name, Version: version, Language: dependencies.LanguageJavaScript},
		License:  &dependencies.License{Type: license},
		Category: classify.Categorize(license),
		Path:     "node_modules/" + name,
	}
}

func sampleDeps() []dependencies.Dependency {
	return []dependencies.Dependency{
		dep("pad-util", "1.0.0", "MIT"),
		dep("left-pad", "1.3.0", "WTFPL"),
		dep("pad-util", "0.9.0", "ISC"),
		dep("abbrev", "1.1.1", "ISC"),
		dep("secret-sdk", "2.0.0", "Proprietary"),
	}
}

func TestBuild(t *testing.T) {
	r := Build(sampleDeps())
	assert.True(t, r.Passed)
	assert.Equal(t, 5, r.Total)
	assert.Equal(t, []CategoryCount{
		{Category: "Open Source", Count: 3},
		{Category: "Closed Source", Count: 1},
		{Category: "Unknown", Count: 1},
	}, r.Counts)

	require.Len(t, r.Groups, 3)
	open := r.Groups[0]
	assert.Equal(t, "Open Source", open.Category)
	var names []string
	for _, e := range open.Entries {
		names = append(names, e.Name+"@"+e.License)
	}
	assert.Equal(t, []string{"abbrev@ISC", "pad-util@ISC", "pad-util@MIT"}, names)
	assert.Equal(t, "Unknown", r.Groups[2].Category)
}

func TestBuildEmpty(t *testing.T) {
	r := Build(nil)
	assert.Equal(t, 0, r.Total)
	assert.Empty(t, r.Counts)
	assert.Empty(t, r.Groups)
}

func TestFromResults(t *testing.T) {
	r := FromResults(
		&dependencies.AnalysisResult{Manifest: "a/package.json", Dependencies: sampleDeps()[:2], Passed: true},
		&dependencies.AnalysisResult{
			Manifest:     "b/package.json",
			Dependencies: sampleDeps()[2:],
			Passed:       false,
			Issues:       []dependencies.Issue{{Type: "policy", Severity: "critical", Message: "Package secret-sdk has forbidden license category"}},
		},
	)
	assert.False(t, r.Passed)
	assert.Equal(t, []string{"a/package.json", "b/package.json"}, r.Manifests)
	assert.Equal(t, 5, r.Total)
	require.Len(t, r.Issues, 1)
	assert.Equal(t, "b/package.json", r.Issues[0].Manifest)
}

func TestParseFormat(t *testing.T) {
	for _, f := range Formats() {
		got, err := ParseFormat(string(f))
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}
	got, err := ParseFormat(" MD ")
	require.NoError(t, err)
	assert.Equal(t, FormatMarkdown, got)

	_, err = ParseFormat("pdf")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.ErrorIs(t, Write(&bytes.Buffer{}, Build(nil), Format("pdf")), ErrUnsupportedFormat)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, Build(sampleDeps()), FormatCSV))

	want := strings.Join([]string{
		"Category,Count",
		"Open Source,3",
		"Closed Source,1",
		"Unknown,1",
		",",
		"Dependency,License",
		",",
		"Open Source,",
		"abbrev,ISC",
		"pad-util,ISC",
		"pad-util,MIT",
		",",
		"Closed Source,",
		"secret-sdk,Proprietary",
		",",
		"Unknown,",
		"left-pad,WTFPL",
		",",
		"",
	}, "\n")
	assert.Equal(t, want, buf.String())
}

func TestWriteCSVQuotesCompoundValues(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, Build([]dependencies.Dependency{dep("x", "1", "MIT, ISC")}), FormatCSV))
	assert.Contains(t, buf.String(), "x,\"MIT, ISC\"\n")
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, Build(sampleDeps()), FormatJSON))

	var got Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, *Build(sampleDeps()), got)
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, Build(sampleDeps()), FormatYAML))

	var got Report
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, 5, got.Total)
	assert.Equal(t, "Closed Source", got.Counts[1].Category)
	assert.Contains(t, buf.String(), "category: Open Source")
}

func TestWriteMarkdown(t *testing.T) {
	r := Build(append(sampleDeps(), dep("odd", "1.0.0", "A|B")))
	r.Manifests = []string{"app/package.json"}
	r.Issues = []Issue{{Type: "policy", Severity: "critical", Message: "Package secret-sdk uses forbidden license: Proprietary"}}
	r.Passed = false

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, r, FormatMarkdown))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "# License report\n"))
	assert.Contains(t, out, "- Manifest: `app/package.json`")
	assert.Contains(t, out, "- Status: failed")
	assert.Contains(t, out, "| Open Source | 3 |")
	assert.Contains(t, out, "## Closed Source")
	assert.Contains(t, out, "| secret-sdk | 2.0.0 | Proprietary |")
	assert.Contains(t, out, `| odd | 1.0.0 | A\|B |`)
	assert.Contains(t, out, "## Issues")
	assert.Contains(t, out, "- **critical** Package secret-sdk uses forbidden license: Proprietary")
}

func TestWriteMarkdownNoIssues(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, Build(sampleDeps()), FormatMarkdown))
	assert.NotContains(t, buf.String(), "## Issues")
	assert.Contains(t, buf.String(), "- Status: passed")
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, Build(sampleDeps()), FormatText))
	out := buf.String()

	assert.Contains(t, out, "│ License report  │")
	assert.Contains(t, out, "│ Dependencies: 5 │")
	assert.Contains(t, out, "  Category       Count\n")
	assert.Contains(t, out, "  Open Source    3\n")
	assert.Contains(t, out, "\nOPEN SOURCE\n")
	assert.Contains(t, out, "  abbrev    1.1.1  ISC\n")
	assert.Contains(t, out, "  pad-util  0.9.0  ISC\n")
	assert.Contains(t, out, "\nCLOSED SOURCE\n")
}

func TestWriteXML(t *testing.T) {
	r := Build(sampleDeps())
	r.Issues = []Issue{{Type: "skipped", Severity: "info", Message: "Package ghost skipped: missing descriptor"}}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, r, FormatXML))

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(buf.Bytes()))
	root := doc.SelectElement("licenseReport")
	require.NotNil(t, root)
	assert.Equal(t, "5", root.SelectAttrValue("total", ""))

	cats := root.FindElements("./counts/category")
	require.Len(t, cats, 3)
	assert.Equal(t, "Open Source", cats[0].SelectAttrValue("name", ""))

	deps := root.FindElements("./groups/group[@category='Unknown']/dependency")
	require.Len(t, deps, 1)
	assert.Equal(t, "left-pad", deps[0].SelectAttrValue("name", ""))
	assert.Equal(t, "WTFPL", deps[0].SelectAttrValue("license", ""))

	issue := root.FindElement("./issues/issue")
	require.NotNil(t, issue)
	assert.Equal(t, "Package ghost skipped: missing descriptor", issue.Text())
}
