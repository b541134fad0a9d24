/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fulmenhq/licensescan/pkg/dependencies/classify"
	"github.com/spf13/cobra"
)

// CategoryInfo is one category and the license identifiers listed under it.
type CategoryInfo struct {
	Category classify.Category `json:"category"`
	Members  []string          `json:"members"`
	Derived  bool              `json:"derived,omitempty"`
}

func newCategoriesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Display the license category tables",
		Long: `Display the license identifiers recognized for each compliance category.

Matching is exact and case-sensitive. Mixed and Unknown have no members:
Mixed applies to AND/OR expressions whose parts disagree and Unknown to any
value not listed.`,
		Args: cobra.NoArgs,
		RunE: runCategories,
	}
	cmd.Flags().Bool("json", false, "Output category tables in JSON format")
	return cmd
}

func categoryInfo() []CategoryInfo {
	var infos []CategoryInfo
	for _, c := range classify.Categories() {
		members := classify.Members(c)
		if members == nil {
			members = []string{}
		}
		infos = append(infos, CategoryInfo{
			Category: c,
			Members:  members,
			Derived:  c == classify.Mixed || c == classify.Unknown,
		})
	}
	return infos
}

func runCategories(cmd *cobra.Command, _ []string) error {
	jsonFormat, _ := cmd.Flags().GetBool("json")
	out := cmd.OutOrStdout()
	infos := categoryInfo()

	if jsonFormat {
		data, err := json.MarshalIndent(infos, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to format JSON: %w", err)
		}
		fmt.Fprintln(out, string(data)) //nolint:errcheck // CLI output errors are typically ignored
		return nil
	}

	for _, info := range infos {
		fmt.Fprintf(out, "%s\n", info.Category) //nolint:errcheck // CLI output errors are typically ignored
		if info.Derived {
			fmt.Fprintln(out, "  (derived)") //nolint:errcheck // CLI output errors are typically ignored
			continue
		}
		fmt.Fprintf(out, "  %s\n", strings.Join(info.Members, ", ")) //nolint:errcheck // CLI output errors are typically ignored
	}
	return nil
}
