package dependencies

import (
	"context"
	"errors"
	"time"

	"github.com/fulmenhq/licensescan/pkg/config"
	"github.com/fulmenhq/licensescan/pkg/dependencies/classify"
)

// Language represents a package ecosystem
type Language string

const (
	LanguageJavaScript Language = "javascript"
)

// ErrPolicyViolation is returned by callers that turn a failed result into an error.
var ErrPolicyViolation = errors.New("license policy violated")

// Module represents a dependency module
type Module struct {
	Name     string   `json:"name"`
	Version  string   `json:"version,omitempty"`
	Language Language `json:"language"`
}

// License represents a software license
type License struct {
	Type string `json:"type"` // raw value from the descriptor, e.g. MIT or "(MIT OR Apache-2.0)"
	URL  string `json:"url,omitempty"`
}

// AnalysisConfig holds configuration for analysis
type AnalysisConfig struct {
	PolicyPath     string
	IgnoreFile     string
	ModulesDir     string
	DescriptorName string
	IncludeDev     bool
	SkipMalformed  bool
}

// NewAnalysisConfig derives the analyzer settings from loaded configuration.
func NewAnalysisConfig(cfg *config.Config) AnalysisConfig {
	return AnalysisConfig{
		PolicyPath:     cfg.Policy.Path,
		IgnoreFile:     cfg.Scan.IgnoreFile,
		ModulesDir:     cfg.Scan.ModulesDir,
		DescriptorName: cfg.Scan.Descriptor,
		IncludeDev:     cfg.Scan.IncludeDev,
		SkipMalformed:  cfg.Scan.OnMalformed == config.MalformedSkip,
	}
}

// AnalysisResult holds the result of analysis
type AnalysisResult struct {
	Manifest        string           `json:"manifest"`
	Dependencies    []Dependency     `json:"dependencies"`
	Issues          []Issue          `json:"issues"`
	Skipped         []SkippedPackage `json:"skipped,omitempty"`
	PackagesScanned int              `json:"packages_scanned"`
	Passed          bool             `json:"passed"`
	Duration        time.Duration    `json:"duration"`
}

// Dependency represents an analyzed dependency
type Dependency struct {
	Module
	License  *License              `json:"license"`
	Category classify.Category     `json:"category"`
	Path     string                `json:"path"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Issue represents an analysis issue
type Issue struct {
	Type       string      `json:"type"`
	Severity   string      `json:"severity"`
	Message    string      `json:"message"`
	Dependency *Dependency `json:"dependency,omitempty"`
}

// Analyzer defines the dependency analyzer interface
type Analyzer interface {
	Analyze(ctx context.Context, target string, config AnalysisConfig) (*AnalysisResult, error)
	DetectLanguages(target string) ([]Language, error)
}

// LanguageDetector defines language detection interface
type LanguageDetector interface {
	Detect(target string) (Language, bool, error)
	GetManifestFiles(target string) ([]string, error)
}
