package policy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/open-policy-agent/opa/v1/rego"
)

// Query is the rule set holding violation messages.
const Query = "data.licensescan.policy.deny"

// Engine defines policy engine interface
type Engine interface {
	LoadPolicy(source string) error
	// Evaluate returns the sorted violation messages for input.
	Evaluate(ctx context.Context, input interface{}) ([]string, error)
	// Exempt reports whether a package is covered by a policy exception.
	Exempt(name string) (Exception, bool)
}

// OPAEngine implements embedded OPA
type OPAEngine struct {
	policy   *Policy
	regoCode string
}

// NewOPAEngine creates new engine
func NewOPAEngine() *OPAEngine {
	return &OPAEngine{}
}

// LoadPolicy reads a YAML or TOML policy file and compiles it to Rego.
func (e *OPAEngine) LoadPolicy(source string) error {
	p, err := Load(source)
	if err != nil {
		return err
	}
	e.SetPolicy(p)
	return nil
}

// SetPolicy installs an already parsed policy.
func (e *OPAEngine) SetPolicy(p *Policy) {
	e.policy = p
	e.regoCode = Transpile(p)
}

// Rego returns the generated module, empty until a policy is loaded.
func (e *OPAEngine) Rego() string { return e.regoCode }

func (e *OPAEngine) Exempt(name string) (Exception, bool) {
	if e.policy == nil {
		return Exception{}, false
	}
	return e.policy.Exempt(name)
}

// Evaluate runs the deny rules against input. Input is expected to carry a
// "dependencies" array of objects with name, version, license and category.
func (e *OPAEngine) Evaluate(ctx context.Context, input interface{}) ([]string, error) {
	if e.regoCode == "" {
		return nil, fmt.Errorf("no policy loaded")
	}

	rs, err := rego.New(
		rego.Query(Query),
		rego.Input(input),
		rego.Module("policy.rego", e.regoCode),
	).Eval(ctx)
	if err != nil {
		return nil, fmt.Errorf("policy evaluation failed: %w", err)
	}

	var denials []string
	for _, r := range rs {
		for _, expr := range r.Expressions {
			values, ok := expr.Value.([]interface{})
			if !ok {
				continue
			}
			for _, v := range values {
				if msg, ok := v.(string); ok {
					denials = append(denials, msg)
				}
			}
		}
	}
	sort.Strings(denials)
	return denials, nil
}

// Transpile converts a policy to a Rego module in package licensescan.policy.
func Transpile(p *Policy) string {
	var buf bytes.Buffer

	// a policy without rules leaves deny undefined, which evaluates to no denials
	buf.WriteString("package licensescan.policy\n\n")

	if len(p.Licenses.Forbidden) > 0 {
		buf.WriteString("forbidden_licenses := ")
		buf.WriteString(formatRegoSet(p.Licenses.Forbidden))
		buf.WriteString("\n\n")
		buf.WriteString("deny contains msg if {\n")
		buf.WriteString("  dep := input.dependencies[_]\n")
		buf.WriteString("  forbidden_licenses[dep.license]\n")
		buf.WriteString("  msg := sprintf(\"Package %s uses forbidden license: %s\", [dep.name, dep.license])\n")
		buf.WriteString("}\n\n")
	}

	if len(p.Licenses.Allowed) > 0 {
		buf.WriteString("allowed_licenses := ")
		buf.WriteString(formatRegoSet(p.Licenses.Allowed))
		buf.WriteString("\n\n")
		buf.WriteString("deny contains msg if {\n")
		buf.WriteString("  dep := input.dependencies[_]\n")
		buf.WriteString("  not allowed_licenses[dep.license]\n")
		buf.WriteString("  msg := sprintf(\"Package %s uses license not in allow-list: %s\", [dep.name, dep.license])\n")
		buf.WriteString("}\n\n")
	}

	if len(p.Categories.Forbidden) > 0 {
		buf.WriteString("forbidden_categories := ")
		buf.WriteString(formatRegoSet(p.Categories.Forbidden))
		buf.WriteString("\n\n")
		buf.WriteString("deny contains msg if {\n")
		buf.WriteString("  dep := input.dependencies[_]\n")
		buf.WriteString("  forbidden_categories[dep.category]\n")
		buf.WriteString("  msg := sprintf(\"Package %s has forbidden license category: %s (%s)\", [dep.name, dep.category, dep.license])\n")
		buf.WriteString("}\n\n")
	}

	return buf.String()
}

// formatRegoSet renders values as a Rego set literal of JSON-quoted strings,
// e.g. [GPL-3.0, MIT] -> {"GPL-3.0", "MIT"}
func formatRegoSet(values []string) string {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, v := range values {
		if i > 0 {
			buf.WriteString(", ")
		}
		quoted, _ := json.Marshal(v)
		buf.Write(quoted)
	}
	buf.WriteByte('}')
	return buf.String()
}
