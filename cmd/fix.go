// Copyright © 2025 The agnix authors

package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/avifenesh/agnix/lint"
)

var (
	fixDryRun bool
	fixUnsafe bool
)

var fixCmd = &cobra.Command{
	Use:   "fix [flags] [paths...]",
	Short: "Apply machine-generated fixes to agent configuration files",
	Long: `Validate the given paths and apply the resulting fixes.

Only fixes marked safe are applied by default; --unsafe extends to fixes
that may change behaviour (value replacements guessed from context).
Fixes are byte-range edits applied back-to-front per file, with invalid
or overlapping ranges dropped rather than risking corruption.

Exit codes:
  0  All applicable fixes applied (or none were needed)
  2  Bad invocation (invalid flags, unreadable paths, bad config)

Examples:
  agnix fix .                   # Apply safe fixes to the current project
  agnix fix --dry-run .         # Show what would change without writing
  agnix fix --unsafe SKILL.md   # Apply every available fix to one file`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			args = []string{"."}
		}

		var all []lint.Diagnostic
		for _, arg := range args {
			root, err := resolveRoot(arg)
			if err != nil {
				fmt.Fprintf(os.Stderr, "agnix fix: %v\n", err)
				os.Exit(2)
			}
			cfg, err := loadConfigFor(root)
			if err != nil {
				fmt.Fprintf(os.Stderr, "agnix fix: %v\n", err)
				os.Exit(2)
			}
			diags, _, err := runCheck(arg, root, cfg)
			if err != nil {
				fmt.Fprintf(os.Stderr, "agnix fix: %v\n", err)
				os.Exit(2)
			}
			all = append(all, diags...)
		}

		results, err := lint.ApplyFixes(all, lint.ApplyOptions{
			DryRun:   fixDryRun,
			SafeOnly: !fixUnsafe,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "agnix fix: %v\n", err)
			os.Exit(2)
		}
		reportFixResults(results, fixDryRun)
	},
}

// reportFixResults prints a per-file summary of applied fix descriptions.
func reportFixResults(results []lint.FileFixResult, dryRun bool) {
	changed := 0
	verb := "fixed"
	if dryRun {
		verb = "would fix"
	}
	for _, res := range results {
		if !res.Changed() {
			continue
		}
		changed++
		path := res.Path
		if colorFlag != "never" {
			path = color.CyanString(path)
		}
		fmt.Printf("%s: %s\n", path, verb)
		for _, desc := range res.Applied {
			fmt.Printf("  - %s\n", desc)
		}
	}
	if changed == 0 {
		fmt.Println("nothing to fix")
	}
}

func init() {
	rootCmd.AddCommand(fixCmd)

	fixCmd.Flags().BoolVar(&fixDryRun, "dry-run", false,
		"Compute fixes and print the plan without writing files.")
	fixCmd.Flags().BoolVar(&fixUnsafe, "unsafe", false,
		"Also apply fixes that may change behaviour.")
}
