package dependencies

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/francoispqt/gojay"

	"github.com/fulmenhq/licensescan/pkg/manifest"
	"github.com/fulmenhq/licensescan/pkg/safeio"
)

// NoLicenseFound is recorded when a descriptor carries no usable license value.
const NoLicenseFound = "No license found"

// ErrMalformedDescriptor wraps descriptors that exist but cannot be decoded.
var ErrMalformedDescriptor = errors.New("malformed package descriptor")

var (
	errMissingDescriptor = errors.New("package descriptor not found")
	utf8BOM              = []byte{0xEF, 0xBB, 0xBF}
)

// descriptor is the subset of an installed package.json the resolver needs.
// The license fields are kept raw because they may be a string, an object or
// a list of objects.
type descriptor struct {
	Version      string
	Dependencies manifest.Keys
	license      gojay.EmbeddedJSON
	licenses     gojay.EmbeddedJSON
}

func (d *descriptor) UnmarshalJSONObject(dec *gojay.Decoder, key string) error {
	switch key {
	case "version":
		return dec.String(&d.Version)
	case "license":
		return dec.EmbeddedJSON(&d.license)
	case "licenses":
		return dec.EmbeddedJSON(&d.licenses)
	case "dependencies":
		return dec.Object(&d.Dependencies)
	}
	return nil
}

func (d *descriptor) NKeys() int { return 0 }

// readDescriptor loads the descriptor at path, refusing to read outside baseDir.
func readDescriptor(baseDir, path string) (*descriptor, error) {
	data, err := safeio.ReadFileContained(baseDir, path)
	if err != nil {
		// a stray file where the package directory should be has no descriptor either
		if errors.Is(err, fs.ErrNotExist) || !safeio.IsDir(filepath.Dir(path)) {
			return nil, errMissingDescriptor
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	d, err := decodeDescriptor(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedDescriptor, path, err)
	}
	return d, nil
}

func decodeDescriptor(data []byte) (*descriptor, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, errors.New("descriptor is not a JSON object")
	}
	// gojay stops at the closing brace and tolerates truncation
	if !json.Valid(data) {
		return nil, errors.New("descriptor is not valid JSON")
	}
	d := &descriptor{}
	if err := gojay.UnmarshalJSONObject(data, d); err != nil {
		return nil, err
	}
	return d, nil
}

// License returns the raw license value: the first non-empty of `license`
// and `licenses`. Lists and legacy objects yield their first `type` or
// `name`; anything else yields NoLicenseFound.
func (d *descriptor) License() (string, error) {
	for _, raw := range []gojay.EmbeddedJSON{d.license, d.licenses} {
		if len(raw) == 0 {
			continue
		}
		var v interface{}
		if err := json.Unmarshal(raw, &v); err != nil {
			return "", err
		}
		if isEmptyValue(v) {
			continue
		}
		return licenseFromValue(v), nil
	}
	return NoLicenseFound, nil
}

func licenseFromValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case []interface{}:
		return licenseFromItem(val[0])
	case map[string]interface{}:
		return licenseFromItem(val)
	default:
		return NoLicenseFound
	}
}

func licenseFromItem(v interface{}) string {
	switch item := v.(type) {
	case string:
		if item != "" {
			return item
		}
	case map[string]interface{}:
		for _, key := range []string{"type", "name"} {
			if s, ok := item[key].(string); ok && s != "" {
				return s
			}
		}
	}
	return NoLicenseFound
}

// isEmptyValue treats null, "", [], {} and false as absent.
func isEmptyValue(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case []interface{}:
		return len(val) == 0
	case map[string]interface{}:
		return len(val) == 0
	case bool:
		return !val
	default:
		return false
	}
}
