// Copyright © 2025 The agnix authors

package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/avifenesh/agnix/lint"
)

var rulesCategory string

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the rule catalogue",
	Long: `List every rule agnix can report: id, severity tier, category, the
tool it applies to, and a one-line description.

Rule ids are stable and never reused; use them in .agnix.toml under
rules.disabled_rules to suppress individual rules.

Examples:
  agnix rules                      # The full catalogue
  agnix rules --category hooks     # Only hook rules`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTIER\tCATEGORY\tTOOL\tDESCRIPTION")
		for _, id := range lint.RuleIDs() {
			md := lint.LookupRule(id)
			if md == nil {
				continue
			}
			if rulesCategory != "" && md.Category != rulesCategory {
				continue
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				id, md.Tier, md.Category, md.Tool, md.Description)
		}
		if err := w.Flush(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
	},
}

func init() {
	rootCmd.AddCommand(rulesCmd)

	rulesCmd.Flags().StringVar(&rulesCategory, "category", "",
		"Only list rules in this category (e.g. hooks, skills, mcp).")
}
