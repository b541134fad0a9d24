package ignore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMatcher(t *testing.T) {
	dir := t.TempDir()
	content := `# packages we do not ship
node_modules/@types/**
node_modules/eslint

fixtures
!node_modules/fixtures
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultFileName), []byte(content), 0o644))

	m, err := NewMatcher(dir, "")
	require.NoError(t, err)
	assert.Equal(t, 4, m.Len())

	nm := filepath.Join(dir, "node_modules")
	tests := []struct {
		path    string
		ignored bool
	}{
		{filepath.Join(nm, "@types", "node"), true},
		{filepath.Join(nm, "eslint"), true},
		{filepath.Join(nm, "left-pad"), false},
		{filepath.Join(nm, "left-pad", "node_modules", "fixtures"), true},
		{filepath.Join(nm, "fixtures"), false},
		{filepath.Join(nm, "eslintrc"), false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.ignored, m.IsIgnored(tt.path))
		})
	}
}

func TestMissingIgnoreFile(t *testing.T) {
	dir := t.TempDir()
	m, err := NewMatcher(dir, "")
	require.NoError(t, err)
	assert.Equal(t, 0, m.Len())
	assert.False(t, m.IsIgnored(filepath.Join(dir, "node_modules", "a")))
}

func TestRejectsTraversalInFileName(t *testing.T) {
	_, err := NewMatcher(t.TempDir(), "../escape")
	assert.Error(t, err)
}

func TestOutsideProjectIsNeverIgnored(t *testing.T) {
	dir := t.TempDir()
	m := FromPatterns(filepath.Join(dir, "project"), []string{"*"})
	assert.True(t, m.IsIgnored(filepath.Join(dir, "project", "node_modules", "a")))
	assert.False(t, m.IsIgnored(filepath.Join(dir, "other", "node_modules", "a")))
	assert.False(t, m.IsIgnored(filepath.Join(dir, "project")))
}

func TestSplitPath(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitPath("/a//b/"))
	assert.Empty(t, splitPath("."))
	assert.Empty(t, splitPath(""))
}
