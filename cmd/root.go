/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"errors"
	"io/fs"
	"os"

	"github.com/fulmenhq/licensescan/pkg/buildinfo"
	"github.com/fulmenhq/licensescan/pkg/config"
	"github.com/fulmenhq/licensescan/pkg/dependencies"
	"github.com/fulmenhq/licensescan/pkg/dependencies/policy"
	"github.com/fulmenhq/licensescan/pkg/exitcode"
	"github.com/fulmenhq/licensescan/pkg/logger"
	"github.com/fulmenhq/licensescan/pkg/manifest"
	"github.com/fulmenhq/licensescan/pkg/report"
	"github.com/spf13/cobra"
)

// newRootCommand creates a fresh root command instance.
// Tests use it to build isolated command trees.
func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "licensescan",
		Short: "License inventory for npm dependency trees",
		Long: `licensescan walks an installed node_modules tree starting from a project's
package.json and reports the license of every reachable package, grouped by
compliance category.

Examples:
   licensescan scan                       # Prompt for a manifest location
   licensescan scan ./app                 # Scan ./app/package.json
   licensescan scan --format markdown -o licenses.md ./app
   licensescan scan --policy .licensescan-policy.yaml ./app
   licensescan categories                 # Show the category tables`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			initializeLogger(cmd)
		},
	}

	cmd.PersistentFlags().String("log-level", "info", "Set log level (trace|debug|info|warn|error)")
	cmd.PersistentFlags().Bool("json", false, "Output logs in JSON format")
	cmd.PersistentFlags().Bool("no-color", false, "Disable colored output")

	cmd.Version = buildinfo.Version()
	cmd.SetVersionTemplate("licensescan {{.Version}}\n")

	return cmd
}

// registerSubcommands adds all subcommands to the root command.
func registerSubcommands(cmd *cobra.Command) {
	cmd.AddCommand(newScanCommand())
	cmd.AddCommand(newCategoriesCommand())
	cmd.AddCommand(newVersionCommand())
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCommand()

// Execute runs the root command and exits with a code derived from the error.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		code := exitCodeFor(err)
		fields := []logger.Field{logger.Err(err), logger.String("exit", exitcode.String(code))}
		if code == exitcode.PolicyViolation {
			logger.Warn("License policy violated", fields...)
		} else {
			logger.Error("Command execution failed", fields...)
		}
		os.Exit(code)
	}
}

func init() {
	registerSubcommands(rootCmd)
}

// exitCodeFor maps sentinel errors onto process exit codes.
func exitCodeFor(err error) int {
	var pathErr *fs.PathError
	switch {
	case err == nil:
		return exitcode.Success
	case errors.Is(err, config.ErrInvalidConfig), errors.Is(err, policy.ErrInvalidPolicy):
		return exitcode.ConfigError
	case errors.Is(err, dependencies.ErrPolicyViolation):
		return exitcode.PolicyViolation
	case errors.Is(err, report.ErrUnsupportedFormat):
		return exitcode.UnsupportedFormat
	case errors.Is(err, manifest.ErrInvalidManifest),
		errors.Is(err, dependencies.ErrNoManifest),
		errors.Is(err, dependencies.ErrMalformedDescriptor),
		errors.As(err, &pathErr):
		return exitcode.FileSystemError
	default:
		return exitcode.GeneralError
	}
}

// initializeLogger sets up the logger based on command flags
func initializeLogger(cmd *cobra.Command) {
	logLevel, _ := cmd.Flags().GetString("log-level")
	jsonLogs, _ := cmd.Flags().GetBool("json")
	noColor, _ := cmd.Flags().GetBool("no-color")

	cfg := logger.Config{
		Level:     logger.ParseLevel(logLevel),
		UseColor:  !noColor,
		JSON:      jsonLogs,
		Component: "licensescan",
		Output:    cmd.ErrOrStderr(),
	}

	if err := logger.Initialize(cfg); err != nil {
		_, _ = os.Stderr.WriteString("Failed to initialize logger: " + err.Error() + "\n")
		os.Exit(exitcode.ConfigError)
	}
}
