/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/

package cmd

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/fulmenhq/licensescan/pkg/config"
	"github.com/fulmenhq/licensescan/pkg/dependencies"
	"github.com/fulmenhq/licensescan/pkg/logger"
	"github.com/fulmenhq/licensescan/pkg/report"
	"github.com/fulmenhq/licensescan/pkg/safeio"
	"github.com/spf13/cobra"
)

const manifestPrompt = "Enter the manifest file location: "

func newScanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [manifest-or-dir ...]",
		Short: "Scan installed npm dependencies and report their licenses",
		Long: `Scan reads each package.json, walks the installed node_modules tree and
writes a license report grouped by compliance category.

With no arguments the manifest location is read from stdin.

Settings (.licensescan.*, .env, policy, ignore file name) are read once from
the first manifest's directory and apply to every manifest scanned. The
ignore file itself is looked up in each project.`,
		RunE: runScan,
	}

	cmd.Flags().String("format", string(report.FormatCSV), "Report format ("+strings.Join(formatNames(), ", ")+")")
	cmd.Flags().StringP("output", "o", "-", "Report file (- for stdout)")
	cmd.Flags().String("policy", "", "License policy file (yaml or toml)")
	cmd.Flags().Bool("production", false, "Exclude devDependencies")
	cmd.Flags().Bool("skip-malformed", false, "Skip packages with malformed package.json instead of failing")
	cmd.Flags().Int("workers", 4, "Manifests scanned in parallel")

	return cmd
}

func formatNames() []string {
	var names []string
	for _, f := range report.Formats() {
		names = append(names, string(f))
	}
	return names
}

func runScan(cmd *cobra.Command, args []string) error {
	targets := args
	if len(targets) == 0 {
		target, err := promptManifest(cmd)
		if err != nil {
			return err
		}
		targets = []string{target}
	}

	detector := dependencies.NewDetector()
	manifests := make([]string, 0, len(targets))
	for _, t := range targets {
		path, err := detector.ManifestPath(t)
		if err != nil {
			return err
		}
		manifests = append(manifests, path)
	}

	cfg, err := config.Load(filepath.Dir(manifests[0]), cmd.Flags())
	if err != nil {
		return err
	}
	if src := cfg.Source(); src != "" {
		logger.Debug("Loaded configuration", logger.String("file", src))
	}

	format, err := report.ParseFormat(cfg.Report.Format)
	if err != nil {
		return err
	}

	results, err := scanManifests(cmd.Context(), manifests, dependencies.NewAnalysisConfig(cfg), cfg.Scan.Workers)
	if err != nil {
		return err
	}

	r := report.FromResults(results...)
	if err := writeReport(cmd.OutOrStdout(), cfg.Report.Output, r, format); err != nil {
		return err
	}

	if !r.Passed {
		return fmt.Errorf("%w: %d issue(s)", dependencies.ErrPolicyViolation, countPolicyIssues(r))
	}
	return nil
}

// promptManifest reads a single manifest location from the command's stdin.
func promptManifest(cmd *cobra.Command) (string, error) {
	fmt.Fprint(cmd.OutOrStdout(), manifestPrompt) //nolint:errcheck // CLI output errors are typically ignored
	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read manifest location: %w", err)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", fmt.Errorf("%w: no manifest location given", dependencies.ErrNoManifest)
	}
	return line, nil
}

// scanManifests analyzes each manifest with its own resolver, at most workers at a time.
// Results keep the order of manifests.
func scanManifests(ctx context.Context, manifests []string, cfg dependencies.AnalysisConfig, workers int) ([]*dependencies.AnalysisResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	results := make([]*dependencies.AnalysisResult, len(manifests))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, m := range manifests {
		g.Go(func() error {
			res, err := dependencies.NewNodeAnalyzer().Analyze(gctx, m, cfg)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func writeReport(stdout io.Writer, output string, r *report.Report, format report.Format) error {
	if output == "" || output == "-" {
		return report.Write(stdout, r, format)
	}

	var buf bytes.Buffer
	if err := report.Write(&buf, r, format); err != nil {
		return err
	}
	path, err := safeio.CleanUserPath(output)
	if err != nil {
		return err
	}
	if err := safeio.WriteFilePreservePerms(path, buf.Bytes()); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	logger.Info("Report written", logger.String("path", path), logger.String("format", string(format)))
	return nil
}

func countPolicyIssues(r *report.Report) int {
	n := 0
	for _, is := range r.Issues {
		if is.Type == dependencies.IssuePolicy {
			n++
		}
	}
	return n
}
