package policy

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/fulmenhq/licensescan/pkg/safeio"
)

// ErrInvalidPolicy is returned for policy files that cannot be used.
var ErrInvalidPolicy = errors.New("invalid policy")

// Policy is the user-facing license policy document.
type Policy struct {
	Version    string        `yaml:"version" toml:"version"`
	Licenses   LicenseRules  `yaml:"licenses" toml:"licenses"`
	Categories CategoryRules `yaml:"categories" toml:"categories"`
	Exceptions []Exception   `yaml:"exceptions" toml:"exceptions"`
}

// LicenseRules match raw license values exactly. An empty Allowed list
// disables the allow-list.
type LicenseRules struct {
	Forbidden []string `yaml:"forbidden" toml:"forbidden"`
	Allowed   []string `yaml:"allowed" toml:"allowed"`
}

// CategoryRules match classifier categories by display name.
type CategoryRules struct {
	Forbidden []string `yaml:"forbidden" toml:"forbidden"`
}

// Exception exempts packages whose name matches Pattern (doublestar syntax).
type Exception struct {
	Pattern string `yaml:"pattern" toml:"pattern"`
	Reason  string `yaml:"reason" toml:"reason"`
}

// Load reads a policy file. The format follows the extension: .toml is TOML,
// anything else is YAML.
func Load(path string) (*Policy, error) {
	clean, err := safeio.CleanUserPath(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPolicy, err)
	}
	data, err := os.ReadFile(clean) // #nosec G304 -- user-selected policy path, traversal rejected above
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPolicy, err)
	}
	format := "yaml"
	if strings.EqualFold(filepath.Ext(clean), ".toml") {
		format = "toml"
	}
	return Parse(data, format)
}

// Parse decodes policy data in the given format ("yaml" or "toml") and
// validates its exception patterns.
func Parse(data []byte, format string) (*Policy, error) {
	p := &Policy{}
	switch format {
	case "yaml", "yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(p); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPolicy, err)
		}
	case "toml":
		if err := toml.Unmarshal(data, p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPolicy, err)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported policy format %q", ErrInvalidPolicy, format)
	}

	if p.Version != "" && p.Version != "v1" {
		return nil, fmt.Errorf("%w: unsupported policy version %q", ErrInvalidPolicy, p.Version)
	}
	for _, exc := range p.Exceptions {
		if exc.Pattern == "" {
			return nil, fmt.Errorf("%w: exception without pattern", ErrInvalidPolicy)
		}
		if !doublestar.ValidatePattern(exc.Pattern) {
			return nil, fmt.Errorf("%w: bad exception pattern %q", ErrInvalidPolicy, exc.Pattern)
		}
	}
	return p, nil
}

// Empty reports whether the policy has no rules at all.
func (p *Policy) Empty() bool {
	return len(p.Licenses.Forbidden) == 0 && len(p.Licenses.Allowed) == 0 && len(p.Categories.Forbidden) == 0
}

// Exempt returns the first exception matching the package name.
func (p *Policy) Exempt(name string) (Exception, bool) {
	for _, exc := range p.Exceptions {
		if ok, _ := doublestar.Match(exc.Pattern, name); ok {
			return exc, true
		}
	}
	return Exception{}, false
}
