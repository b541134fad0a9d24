// Package ignore excludes installed packages from a scan using a
// gitignore-syntax file kept in the project directory.
package ignore

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	gitignore "github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"github.com/fulmenhq/licensescan/pkg/safeio"
)

// DefaultFileName is the ignore file looked up in the project directory.
const DefaultFileName = ".licensescanignore"

// Matcher matches install directories against ignore patterns. Paths are
// matched relative to the project directory, e.g. node_modules/@types/node.
type Matcher struct {
	root     string
	patterns []gitignore.Pattern
	matcher  gitignore.Matcher
}

// NewMatcher loads fileName from projectDir. A missing file yields a matcher
// that ignores nothing.
func NewMatcher(projectDir, fileName string) (*Matcher, error) {
	if fileName == "" {
		fileName = DefaultFileName
	}
	name, err := safeio.CleanUserPath(fileName)
	if err != nil {
		return nil, fmt.Errorf("ignore file %q: %w", fileName, err)
	}
	root, err := filepath.Abs(projectDir)
	if err != nil {
		return nil, fmt.Errorf("resolve project directory: %w", err)
	}

	patterns, err := readPatterns(osfs.New(root), name)
	if err != nil {
		return nil, err
	}
	return &Matcher{
		root:     root,
		patterns: patterns,
		matcher:  gitignore.NewMatcher(patterns),
	}, nil
}

// FromPatterns builds a matcher from in-memory lines.
func FromPatterns(projectDir string, lines []string) *Matcher {
	root, err := filepath.Abs(projectDir)
	if err != nil {
		root = projectDir
	}
	var patterns []gitignore.Pattern
	for _, line := range lines {
		if p, ok := parseLine(line); ok {
			patterns = append(patterns, p)
		}
	}
	return &Matcher{root: root, patterns: patterns, matcher: gitignore.NewMatcher(patterns)}
}

func readPatterns(fsys billy.Filesystem, name string) ([]gitignore.Pattern, error) {
	f, err := fsys.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open ignore file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var patterns []gitignore.Pattern
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if p, ok := parseLine(scanner.Text()); ok {
			patterns = append(patterns, p)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read ignore file: %w", err)
	}
	return patterns, nil
}

func parseLine(line string) (gitignore.Pattern, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil, false
	}
	return gitignore.ParsePattern(line, nil), true
}

// Len is the number of loaded patterns.
func (m *Matcher) Len() int { return len(m.patterns) }

// IsIgnored reports whether the package installed at dir is excluded.
// Directories outside the project are never ignored.
func (m *Matcher) IsIgnored(dir string) bool {
	if len(m.patterns) == 0 {
		return false
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(m.root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}
	parts := splitPath(filepath.ToSlash(rel))
	if len(parts) == 0 {
		return false
	}
	return m.matcher.Match(parts, true)
}

// splitPath converts a slash-separated path into components for go-git matching
func splitPath(path string) []string {
	if path == "" || path == "." {
		return nil
	}
	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" && part != "." {
			result = append(result, part)
		}
	}
	return result
}
