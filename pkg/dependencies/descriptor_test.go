package dependencies

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fulmenhq/licensescan/pkg/safeio"
)

func TestDescriptorLicense(t *testing.T) {
	tests := []struct {
		name string
		json string
		want string
	}{
		{"string", `{"license":"MIT"}`, "MIT"},
		{"compound string", `{"license":"(MIT OR Apache-2.0)"}`, "(MIT OR Apache-2.0)"},
		{"legacy object type", `{"license":{"type":"ISC","url":"u"}}`, "ISC"},
		{"legacy object name", `{"license":{"name":"BSD"}}`, "BSD"},
		{"list", `{"licenses":[{"type":"MIT"},{"type":"Apache-2.0"}]}`, "MIT"},
		{"list of strings", `{"licenses":["Apache-2.0"]}`, "Apache-2.0"},
		{"license wins over licenses", `{"license":"ISC","licenses":[{"type":"MIT"}]}`, "ISC"},
		{"null license falls through", `{"license":null,"licenses":[{"type":"MIT"}]}`, "MIT"},
		{"empty list", `{"licenses":[]}`, NoLicenseFound},
		{"absent", `{"name":"x"}`, NoLicenseFound},
		{"number", `{"license":42}`, NoLicenseFound},
		{"list item without type", `{"licenses":[{"url":"u"}]}`, NoLicenseFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := decodeDescriptor([]byte(tt.json))
			require.NoError(t, err)
			got, err := d.License()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeDescriptor(t *testing.T) {
	d, err := decodeDescriptor([]byte("\xEF\xBB\xBF" + `{"version":"2.0.0","scripts":{"x":"y"},"dependencies":{"z":"1","a":"2"}}`))
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", d.Version)
	assert.Equal(t, []string{"z", "a"}, []string(d.Dependencies))

	bad := map[string]string{
		"empty":            "",
		"blank":            "   ",
		"array":            `["MIT"]`,
		"missing value":    `{"license": }`,
		"truncated":        `{"license":"MIT"`,
		"trailing comma":   `{"license":"MIT",}`,
		"trailing garbage": `{"license":"MIT"} garbage`,
		"nested truncated": `{"dependencies":{"a":"1"`,
	}
	for name, input := range bad {
		t.Run(name, func(t *testing.T) {
			_, err := decodeDescriptor([]byte(input))
			assert.Error(t, err, "input %q", input)
		})
	}
}

func TestReadDescriptor(t *testing.T) {
	root := t.TempDir()
	dir := writePackage(t, root, "node_modules/a", `{"license":"MIT"}`)

	d, err := readDescriptor(root, filepath.Join(dir, "package.json"))
	require.NoError(t, err)
	lic, err := d.License()
	require.NoError(t, err)
	assert.Equal(t, "MIT", lic)

	_, err = readDescriptor(root, filepath.Join(root, "node_modules", "missing", "package.json"))
	assert.ErrorIs(t, err, errMissingDescriptor)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), []byte("not json"), 0o644))
	_, err = readDescriptor(root, filepath.Join(dir, "package.json"))
	assert.ErrorIs(t, err, ErrMalformedDescriptor)

	_, err = readDescriptor(dir, filepath.Join(root, "package.json"))
	assert.ErrorIs(t, err, safeio.ErrOutsideBase)

	require.NoError(t, os.WriteFile(filepath.Join(root, "node_modules", "stray"), []byte("x"), 0o644))
	_, err = readDescriptor(root, filepath.Join(root, "node_modules", "stray", "package.json"))
	assert.ErrorIs(t, err, errMissingDescriptor)
}
