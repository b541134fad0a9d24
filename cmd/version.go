/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/fulmenhq/licensescan/pkg/buildinfo"
	"github.com/spf13/cobra"
)

func newVersionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show licensescan version",
		Args:  cobra.NoArgs,
		RunE:  runVersion,
	}
	cmd.Flags().Bool("extended", false, "Show Go version and platform")
	cmd.Flags().Bool("json", false, "Output version information in JSON format")
	return cmd
}

func runVersion(cmd *cobra.Command, _ []string) error {
	extended, _ := cmd.Flags().GetBool("extended")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	out := cmd.OutOrStdout()

	if jsonOutput {
		info := map[string]interface{}{
			"version":   buildinfo.Version(),
			"goVersion": runtime.Version(),
			"platform":  runtime.GOOS,
			"arch":      runtime.GOARCH,
		}
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to format JSON: %w", err)
		}
		fmt.Fprintln(out, string(data)) //nolint:errcheck // CLI output errors are typically ignored
		return nil
	}

	if extended {
		fmt.Fprintln(out, buildinfo.Summary()) //nolint:errcheck // CLI output errors are typically ignored
		return nil
	}
	fmt.Fprintf(out, "licensescan %s\n", buildinfo.Version()) //nolint:errcheck // CLI output errors are typically ignored
	return nil
}
