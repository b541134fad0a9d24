package report

import (
	"io"
	"strconv"

	"github.com/beevik/etree"
)

func writeXML(w io.Writer, r *Report) error {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("licenseReport")
	root.CreateAttr("passed", strconv.FormatBool(r.Passed))
	root.CreateAttr("total", strconv.Itoa(r.Total))

	for _, m := range r.Manifests {
		root.CreateElement("manifest").SetText(m)
	}

	counts := root.CreateElement("counts")
	for _, c := range r.Counts {
		el := counts.CreateElement("category")
		el.CreateAttr("name", c.Category)
		el.CreateAttr("count", strconv.Itoa(c.Count))
	}

	groups := root.CreateElement("groups")
	for _, g := range r.Groups {
		ge := groups.CreateElement("group")
		ge.CreateAttr("category", g.Category)
		for _, e := range g.Entries {
			de := ge.CreateElement("dependency")
			de.CreateAttr("name", e.Name)
			if e.Version != "" {
				de.CreateAttr("version", e.Version)
			}
			de.CreateAttr("license", e.License)
			if e.Path != "" {
				de.CreateAttr("path", e.Path)
			}
		}
	}

	if len(r.Issues) > 0 {
		issues := root.CreateElement("issues")
		for _, is := range r.Issues {
			ie := issues.CreateElement("issue")
			ie.CreateAttr("type", is.Type)
			ie.CreateAttr("severity", is.Severity)
			if is.Manifest != "" {
				ie.CreateAttr("manifest", is.Manifest)
			}
			ie.SetText(is.Message)
		}
	}

	doc.Indent(2)
	_, err := doc.WriteTo(w)
	return err
}
