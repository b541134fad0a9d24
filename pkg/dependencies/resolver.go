package dependencies

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/fulmenhq/licensescan/pkg/logger"
	"github.com/fulmenhq/licensescan/pkg/safeio"
)

const (
	DefaultModulesDirName = "node_modules"
	DefaultDescriptorName = "package.json"
)

// Reasons recorded on SkippedPackage.
const (
	ReasonMissingDescriptor   = "missing descriptor"
	ReasonMalformedDescriptor = "malformed descriptor"
)

// PackageRef identifies one installed package: its dependency name and the
// directory its descriptor was read from.
type PackageRef struct {
	Name string `json:"name"`
	Dir  string `json:"dir"`
}

// LicenseEntry is the raw license found for one PackageRef.
type LicenseEntry struct {
	PackageRef
	Version string `json:"version,omitempty"`
	License string `json:"license"`
}

// SkippedPackage is a node that produced no entry.
type SkippedPackage struct {
	PackageRef
	Reason string `json:"reason"`
	Detail string `json:"detail,omitempty"`
}

// ResolverOptions tunes a Resolver. Zero values select npm defaults.
type ResolverOptions struct {
	// BaseDir bounds every descriptor read; defaults to the parent of the modules directory.
	BaseDir        string
	ModulesDirName string
	DescriptorName string
	// SkipMalformed records undecodable descriptors as skipped instead of failing the scan.
	SkipMalformed bool
}

// Resolver walks an installed node_modules tree breadth-first and collects
// one LicenseEntry per physical install directory.
//
// A dependency is looked up in the requiring package's own nested modules
// directory before the shared root one: package managers only nest a copy
// there when the hoisted version does not satisfy that package.
//
// A Resolver is not safe for concurrent use.
type Resolver struct {
	modulesDir string
	opts       ResolverOptions

	queue    *WorkQueue
	analyzed map[string]struct{}
	order    []string
	entries  []LicenseEntry
	skipped  []SkippedPackage
}

// NewResolver creates a Resolver rooted at modulesDir (the project's node_modules).
func NewResolver(modulesDir string, opts ResolverOptions) *Resolver {
	if opts.ModulesDirName == "" {
		opts.ModulesDirName = DefaultModulesDirName
	}
	if opts.DescriptorName == "" {
		opts.DescriptorName = DefaultDescriptorName
	}
	if opts.BaseDir == "" {
		opts.BaseDir = filepath.Dir(modulesDir)
	}
	return &Resolver{
		modulesDir: modulesDir,
		opts:       opts,
		queue:      NewWorkQueue(),
		analyzed:   make(map[string]struct{}),
	}
}

// Resolve scans the tree starting from the given direct dependency names and
// returns the entries in discovery order. Each call starts a fresh scan.
//
// Packages without a descriptor are skipped. A malformed descriptor aborts
// the scan unless SkipMalformed is set.
func (r *Resolver) Resolve(names []string) ([]LicenseEntry, error) {
	r.reset()

	for _, name := range names {
		r.queue.PushBack(r.modulesDir, name)
	}

	for {
		item, ok := r.queue.PopFront()
		if !ok {
			break
		}
		dir := filepath.Join(item.SearchDir, item.Name)
		if r.isAnalyzed(dir) {
			logger.Trace("Dependency already analyzed", logger.String("dependency", item.Name), logger.String("dir", dir))
			continue
		}
		desc, err := r.load(item.Name, dir)
		if err != nil {
			r.queue.Clear()
			return nil, err
		}
		if desc == nil {
			continue
		}
		if err := r.expand(dir, desc); err != nil {
			r.queue.Clear()
			return nil, err
		}
	}

	return r.entries, nil
}

// Analyzed returns every directory consulted during the last scan, in order.
func (r *Resolver) Analyzed() []string {
	return append([]string(nil), r.order...)
}

// Skipped returns the nodes of the last scan that produced no entry.
func (r *Resolver) Skipped() []SkippedPackage {
	return append([]SkippedPackage(nil), r.skipped...)
}

func (r *Resolver) reset() {
	r.queue.Clear()
	r.analyzed = make(map[string]struct{})
	r.order = nil
	r.entries = nil
	r.skipped = nil
}

func (r *Resolver) isAnalyzed(dir string) bool {
	_, ok := r.analyzed[dir]
	return ok
}

func (r *Resolver) markAnalyzed(dir string) {
	r.analyzed[dir] = struct{}{}
	r.order = append(r.order, dir)
}

// load reads the descriptor in dir and records its entry. It returns a nil
// descriptor and nil error when the node is skipped.
func (r *Resolver) load(name, dir string) (*descriptor, error) {
	path := filepath.Join(dir, r.opts.DescriptorName)
	desc, err := readDescriptor(r.opts.BaseDir, path)
	if err == nil {
		var license string
		license, err = desc.License()
		if err == nil {
			r.record(name, dir, desc.Version, license)
			return desc, nil
		}
		err = errors.Join(ErrMalformedDescriptor, err)
	}

	switch {
	case errors.Is(err, errMissingDescriptor):
		logger.Debug("No descriptor for dependency", logger.String("dependency", name), logger.String("dir", dir))
		r.markAnalyzed(dir)
		r.skipped = append(r.skipped, SkippedPackage{PackageRef: PackageRef{Name: name, Dir: dir}, Reason: ReasonMissingDescriptor})
		return nil, nil
	case errors.Is(err, ErrMalformedDescriptor) && r.opts.SkipMalformed:
		logger.Warn("Skipping malformed descriptor", logger.String("dependency", name), logger.Err(err))
		r.markAnalyzed(dir)
		r.skipped = append(r.skipped, SkippedPackage{
			PackageRef: PackageRef{Name: name, Dir: dir},
			Reason:     ReasonMalformedDescriptor,
			Detail:     err.Error(),
		})
		return nil, nil
	default:
		return nil, err
	}
}

func (r *Resolver) record(name, dir, version, license string) {
	logger.Debug("Resolved license", logger.String("dependency", name), logger.String("license", license), logger.String("dir", dir))
	r.entries = append(r.entries, LicenseEntry{
		PackageRef: PackageRef{Name: name, Dir: dir},
		Version:    version,
		License:    license,
	})
	r.markAnalyzed(dir)
}

// expand schedules the children of the package installed in dir. Children
// with a copy nested under dir are resolved on the spot. The rest are queued
// against the nearest enclosing nested modules directory holding them, or
// the root modules directory.
func (r *Resolver) expand(dir string, desc *descriptor) error {
	remaining, nested, err := r.resolveNested(dir, desc.Dependencies)
	if err != nil {
		return err
	}

	enclosing := r.enclosingModulesDirs(dir)
	for _, child := range remaining {
		searchDir := r.modulesDir
		for _, m := range enclosing {
			if fileExists(filepath.Join(m, child, r.opts.DescriptorName)) {
				searchDir = m
				break
			}
		}
		if r.isAnalyzed(filepath.Join(searchDir, child)) {
			continue
		}
		logger.Trace("Enqueuing child dependency", logger.String("dependency", child), logger.String("parent", dir), logger.String("search_dir", searchDir))
		r.queue.PushBack(searchDir, child)
	}

	for _, n := range nested {
		if err := r.expand(n.dir, n.desc); err != nil {
			return err
		}
	}
	return nil
}

type nestedPackage struct {
	dir  string
	desc *descriptor
}

// resolveNested checks dir's own modules directory for each child. It always
// inspects every child before returning: children that were found nested are
// left out of remaining, the others are returned in their original order.
// A missing nested modules directory is the same outcome as no matches.
func (r *Resolver) resolveNested(dir string, children []string) (remaining []string, nested []nestedPackage, err error) {
	nestedRoot := filepath.Join(dir, r.opts.ModulesDirName)
	if len(children) == 0 || !safeio.IsDir(nestedRoot) {
		return children, nil, nil
	}

	remaining = make([]string, 0, len(children))
	for _, child := range children {
		childDir := filepath.Join(nestedRoot, child)
		if r.isAnalyzed(childDir) {
			continue
		}
		if !fileExists(filepath.Join(childDir, r.opts.DescriptorName)) {
			remaining = append(remaining, child)
			continue
		}
		desc, err := r.load(child, childDir)
		if err != nil {
			return nil, nil, err
		}
		if desc != nil {
			nested = append(nested, nestedPackage{dir: childDir, desc: desc})
		}
	}
	return remaining, nested, nil
}

// enclosingModulesDirs lists the nested modules directories that contain
// dir, nearest first. The root modules directory is not included.
func (r *Resolver) enclosingModulesDirs(dir string) []string {
	rel, err := filepath.Rel(r.modulesDir, dir)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return nil
	}
	parts := strings.Split(rel, string(filepath.Separator))
	var dirs []string
	for i := len(parts) - 2; i > 0; i-- {
		if parts[i] == r.opts.ModulesDirName {
			dirs = append(dirs, filepath.Join(r.modulesDir, filepath.Join(parts[:i+1]...)))
		}
	}
	return dirs
}

func fileExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}
