/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package dependencies

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fulmenhq/licensescan/pkg/dependencies/classify"
	"github.com/fulmenhq/licensescan/pkg/dependencies/policy"
	"github.com/fulmenhq/licensescan/pkg/ignore"
	"github.com/fulmenhq/licensescan/pkg/logger"
	"github.com/fulmenhq/licensescan/pkg/manifest"
)

// Issue types and severities produced by the node analyzer.
const (
	IssuePolicy  = "policy"
	IssueSkipped = "skipped"

	SeverityCritical = "critical"
	SeverityInfo     = "info"
)

// NodeAnalyzer implements Analyzer for installed npm package trees
type NodeAnalyzer struct {
	detector *Detector
}

// NewNodeAnalyzer creates a new npm dependency analyzer
func NewNodeAnalyzer() *NodeAnalyzer {
	return &NodeAnalyzer{detector: NewDetector()}
}

// Analyze loads the manifest found at target (a package.json or its
// directory), walks the installed tree and classifies every package found.
func (a *NodeAnalyzer) Analyze(ctx context.Context, target string, cfg AnalysisConfig) (*AnalysisResult, error) {
	start := time.Now()

	manifestPath, err := a.detector.ManifestPath(target)
	if err != nil {
		return nil, err
	}
	m, err := manifest.Load(manifestPath)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	projectDir := m.Dir()
	modulesDirName := cfg.ModulesDir
	if modulesDirName == "" {
		modulesDirName = DefaultModulesDirName
	}

	matcher, err := ignore.NewMatcher(projectDir, cfg.IgnoreFile)
	if err != nil {
		return nil, err
	}

	var engine policy.Engine
	if cfg.PolicyPath != "" {
		e := policy.NewOPAEngine()
		if err := e.LoadPolicy(cfg.PolicyPath); err != nil {
			return nil, fmt.Errorf("load policy %s: %w", cfg.PolicyPath, err)
		}
		engine = e
	}

	if a.detector.UsesPnpm(projectDir) {
		logger.Warn("pnpm lockfile found; packages outside the hoisted node_modules layout may be missed",
			logger.String("project", projectDir))
	}

	resolver := NewResolver(filepath.Join(projectDir, modulesDirName), ResolverOptions{
		BaseDir:        projectDir,
		ModulesDirName: modulesDirName,
		DescriptorName: cfg.DescriptorName,
		SkipMalformed:  cfg.SkipMalformed,
	})
	entries, err := resolver.Resolve(m.DependencyNames(cfg.IncludeDev))
	if err != nil {
		return nil, err
	}

	deps := make([]Dependency, 0, len(entries))
	for _, e := range entries {
		if matcher.IsIgnored(e.Dir) {
			logger.Debug("Ignoring dependency", logger.String("dependency", e.Name), logger.String("dir", e.Dir))
			continue
		}
		deps = append(deps, newDependency(projectDir, e))
	}

	var issues []Issue
	for _, s := range resolver.Skipped() {
		issues = append(issues, Issue{
			Type:     IssueSkipped,
			Severity: SeverityInfo,
			Message:  fmt.Sprintf("Package %s skipped: %s", s.Name, s.Reason),
		})
	}

	passed := true
	if engine != nil {
		denials, err := evaluatePolicy(ctx, engine, deps)
		if err != nil {
			return nil, err
		}
		for _, msg := range denials {
			issues = append(issues, Issue{
				Type:     IssuePolicy,
				Severity: SeverityCritical,
				Message:  msg,
			})
			passed = false
		}
	}

	logger.Info("Scan complete",
		logger.String("manifest", manifestPath),
		logger.Int("packages", len(deps)),
		logger.Int("skipped", len(resolver.Skipped())),
		logger.Bool("passed", passed))

	return &AnalysisResult{
		Manifest:        manifestPath,
		Dependencies:    deps,
		Issues:          issues,
		Skipped:         resolver.Skipped(),
		PackagesScanned: len(resolver.Analyzed()),
		Passed:          passed,
		Duration:        time.Since(start),
	}, nil
}

// DetectLanguages implements Analyzer.DetectLanguages for npm projects
func (a *NodeAnalyzer) DetectLanguages(target string) ([]Language, error) {
	lang, found, err := a.detector.Detect(target)
	if err != nil {
		return nil, err
	}
	if !found {
		return []Language{}, nil
	}
	return []Language{lang}, nil
}

func newDependency(projectDir string, e LicenseEntry) Dependency {
	path := e.Dir
	if rel, err := filepath.Rel(projectDir, e.Dir); err == nil {
		path = filepath.ToSlash(rel)
	}
	dep := Dependency{
		Module: Module{
			Name:     e.Name,
			Version:  e.Version,
			Language: LanguageJavaScript,
		},
		License: &License{
			Type: e.License,
			URL:  licenseURL(e.License),
		},
		Category: classify.Categorize(e.License),
		Path:     path,
	}
	if classify.IsCompound(e.License) {
		dep.Metadata = map[string]interface{}{"compound": true}
	}
	return dep
}

// evaluatePolicy runs the policy over every dependency not covered by an
// exception. Exempted dependencies are tagged in their metadata.
func evaluatePolicy(ctx context.Context, engine policy.Engine, deps []Dependency) ([]string, error) {
	input := make([]interface{}, 0, len(deps))
	for i := range deps {
		d := &deps[i]
		if exc, ok := engine.Exempt(d.Name); ok {
			if d.Metadata == nil {
				d.Metadata = map[string]interface{}{}
			}
			d.Metadata["policy_exception"] = exc.Reason
			logger.Debug("Policy exception", logger.String("dependency", d.Name), logger.String("pattern", exc.Pattern))
			continue
		}
		input = append(input, map[string]interface{}{
			"name":     d.Name,
			"version":  d.Version,
			"license":  d.License.Type,
			"category": string(d.Category),
			"path":     d.Path,
		})
	}
	return engine.Evaluate(ctx, map[string]interface{}{"dependencies": input})
}
