// Package manifest loads the root package.json of an npm project.
//
// Dependency names are kept in document order because the resolver's
// breadth-first walk is defined in terms of that order; decoding goes through
// gojay so object keys are seen one at a time as they appear in the file.
package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/francoispqt/gojay"
)

// FileName is the only manifest basename accepted by Load.
const FileName = "package.json"

// ErrInvalidManifest marks every failure that happens before traversal can start.
var ErrInvalidManifest = errors.New("invalid manifest")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Keys collects the keys of a JSON object in document order; values are skipped.
type Keys []string

// UnmarshalJSONObject implements gojay.UnmarshalerJSONObject.
func (k *Keys) UnmarshalJSONObject(_ *gojay.Decoder, key string) error {
	*k = append(*k, key)
	return nil
}

// NKeys implements gojay.UnmarshalerJSONObject.
func (k *Keys) NKeys() int { return 0 }

// Manifest is the parsed root package.json.
type Manifest struct {
	Path            string
	Name            string
	Version         string
	Dependencies    Keys
	DevDependencies Keys
}

// UnmarshalJSONObject implements gojay.UnmarshalerJSONObject.
func (m *Manifest) UnmarshalJSONObject(dec *gojay.Decoder, key string) error {
	switch key {
	case "name":
		return dec.String(&m.Name)
	case "version":
		return dec.String(&m.Version)
	case "dependencies":
		return dec.Object(&m.Dependencies)
	case "devDependencies":
		return dec.Object(&m.DevDependencies)
	}
	return nil
}

// NKeys implements gojay.UnmarshalerJSONObject.
func (m *Manifest) NKeys() int { return 0 }

// Decode parses manifest bytes. A leading UTF-8 BOM is tolerated.
func Decode(data []byte) (*Manifest, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("empty document")
	}
	if trimmed[0] != '{' {
		return nil, errors.New("document is not a JSON object")
	}
	if !json.Valid(data) {
		return nil, errors.New("document is not valid JSON")
	}
	m := &Manifest{}
	if err := gojay.UnmarshalJSONObject(data, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Load reads and parses the manifest at path. Every failure wraps ErrInvalidManifest.
func Load(path string) (*Manifest, error) {
	if filepath.Base(path) != FileName {
		return nil, fmt.Errorf("%w: %s is not a %s file", ErrInvalidManifest, path, FileName)
	}

	data, err := os.ReadFile(filepath.Clean(path)) // #nosec G304 -- user-selected manifest
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}

	m, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrInvalidManifest, path, err)
	}
	m.Path = path
	return m, nil
}

// Dir is the project directory holding the manifest.
func (m *Manifest) Dir() string {
	return filepath.Dir(m.Path)
}

// DependencyNames returns dependencies followed by devDependencies (when
// includeDev is set), in document order, without duplicates.
func (m *Manifest) DependencyNames(includeDev bool) []string {
	seen := make(map[string]struct{}, len(m.Dependencies)+len(m.DevDependencies))
	names := make([]string, 0, len(m.Dependencies)+len(m.DevDependencies))
	add := func(keys Keys) {
		for _, name := range keys {
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	add(m.Dependencies)
	if includeDev {
		add(m.DevDependencies)
	}
	return names
}
