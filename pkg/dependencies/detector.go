package dependencies

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fulmenhq/licensescan/pkg/manifest"
)

// ErrNoManifest is returned when a target holds no package.json.
var ErrNoManifest = errors.New("no package.json found")

// lockfiles recognised next to a manifest, in reporting order
var lockfiles = []string{"package-lock.json", "npm-shrinkwrap.json", "yarn.lock", "pnpm-lock.yaml"}

// Detector implements LanguageDetector for npm projects
type Detector struct{}

func NewDetector() *Detector {
	return &Detector{}
}

// Detect reports whether target (a directory or a package.json) is an npm project.
func (d *Detector) Detect(target string) (Language, bool, error) {
	path, err := d.ManifestPath(target)
	if err != nil {
		if errors.Is(err, ErrNoManifest) {
			return "", false, nil
		}
		return "", false, err
	}
	if _, err := os.Stat(path); err != nil {
		return "", false, nil
	}
	return LanguageJavaScript, true, nil
}

// GetManifestFiles lists the manifest and any lockfiles present, as basenames.
func (d *Detector) GetManifestFiles(target string) ([]string, error) {
	path, err := d.ManifestPath(target)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w in %s", ErrNoManifest, filepath.Dir(path))
	}
	dir := filepath.Dir(path)
	files := []string{manifest.FileName}
	for _, name := range lockfiles {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			files = append(files, name)
		}
	}
	return files, nil
}

// ManifestPath turns a scan target into a manifest path. Directories map to
// their package.json; any other path is returned cleaned and left for the
// manifest loader to validate.
func (d *Detector) ManifestPath(target string) (string, error) {
	if target == "" {
		target = "."
	}
	st, err := os.Stat(target)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return filepath.Clean(target), nil
		}
		return "", err
	}
	if !st.IsDir() {
		return filepath.Clean(target), nil
	}
	path := filepath.Join(target, manifest.FileName)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%w in %s", ErrNoManifest, target)
	}
	return path, nil
}

// UsesPnpm reports whether projectDir carries a pnpm lockfile.
func (d *Detector) UsesPnpm(projectDir string) bool {
	_, err := os.Stat(filepath.Join(projectDir, "pnpm-lock.yaml"))
	return err == nil
}
