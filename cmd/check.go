// Copyright © 2025 The agnix authors

package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/avifenesh/agnix/lint"
	"github.com/avifenesh/agnix/rules"
)

var (
	checkJSON     bool
	checkFix      bool
	checkUnsafe   bool
	checkMaxFiles int
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] [paths...]",
	Short: "Validate agent configuration files",
	Long: `Validate agent configuration files in one or more paths.

Directory arguments are validated as projects: the tree is walked
(respecting .gitignore), every recognised file is dispatched to its
validators in parallel, and cross-file rules (duplicate AGENTS.md,
conflicting instruction layers, missing version pins) run over the
collected paths. File arguments validate the single file in the context
of its containing project.

With no paths, the current directory is validated.

Exit codes:
  0  No findings at or above the severity threshold
  1  One or more findings were reported
  2  Bad invocation (invalid flags, unreadable paths, bad config)

Examples:
  agnix check                           # Validate the current directory
  agnix check path/to/project          # Validate another project
  agnix check SKILL.md                 # Validate a single file
  agnix check --json .                 # Machine-readable output
  agnix check --fix .                  # Apply safe fixes after validation
  agnix check --fix --unsafe .         # Also apply unsafe fixes
  agnix check --max-files 500 .        # Abort on oversized projects`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			args = []string{"."}
		}

		var all []lint.Diagnostic
		checked := 0

		for _, arg := range args {
			root, err := resolveRoot(arg)
			if err != nil {
				fmt.Fprintf(os.Stderr, "agnix check: %v\n", err)
				os.Exit(2)
			}
			cfg, err := loadConfigFor(root)
			if err != nil {
				fmt.Fprintf(os.Stderr, "agnix check: %v\n", err)
				os.Exit(2)
			}
			if checkMaxFiles > 0 {
				cfg.MaxFilesToValidate = checkMaxFiles
			}
			diags, n, err := runCheck(arg, root, cfg)
			if err != nil {
				fmt.Fprintf(os.Stderr, "agnix check: %v\n", err)
				os.Exit(2)
			}
			checked += n
			all = append(all, filterSeverity(diags, cfg.MinSeverity())...)
		}

		if checkFix {
			results, err := lint.ApplyFixes(all, lint.ApplyOptions{SafeOnly: !checkUnsafe})
			if err != nil {
				fmt.Fprintf(os.Stderr, "agnix check: applying fixes: %v\n", err)
				os.Exit(2)
			}
			reportFixResults(results, false)
		}

		if checkJSON {
			if err := lint.FormatJSON(os.Stdout, all); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(2)
			}
		} else if len(all) > 0 {
			renderDiagnostics(all)
		}

		printSummary(all, checked)
		if len(all) > 0 {
			os.Exit(1)
		}
	},
}

// runCheck validates one CLI argument: a directory runs the full project
// pipeline, a file runs its validators with project context attached.
func runCheck(arg, root string, cfg *lint.Config) ([]lint.Diagnostic, int, error) {
	reg := rules.DefaultRegistry()

	info, err := os.Stat(arg)
	if err != nil {
		return nil, 0, err
	}
	if info.IsDir() {
		result, err := lint.ValidateProject(context.Background(), root, cfg, reg)
		if err != nil {
			return nil, 0, err
		}
		return result.Diagnostics, result.FilesChecked, nil
	}

	cfg.RootDir = root
	cfg.Imports = lint.NewImportCache()
	diags, err := lint.ValidateFile(arg, cfg, reg)
	if err != nil {
		return nil, 0, err
	}
	return diags, 1, nil
}

// printSummary writes the colored one-line run summary to stdout.
func printSummary(diags []lint.Diagnostic, checked int) {
	errors, warnings, infos := countBySeverity(diags)
	useColor := colorFlag == "always" || (colorFlag == "auto" && color.NoColor == false)

	if len(diags) == 0 {
		ok := "ok"
		if useColor {
			ok = color.GreenString("ok")
		}
		fmt.Printf("%s: %d files checked, no findings\n", ok, checked)
		return
	}

	parts := fmt.Sprintf("%d errors, %d warnings, %d notes", errors, warnings, infos)
	if useColor {
		switch {
		case errors > 0:
			parts = color.RedString(parts)
		case warnings > 0:
			parts = color.YellowString(parts)
		}
	}
	fmt.Printf("%d files checked: %s\n", checked, parts)
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().BoolVar(&checkJSON, "json", false,
		"Output findings as JSON.")
	checkCmd.Flags().BoolVar(&checkFix, "fix", false,
		"Apply safe fixes after validation.")
	checkCmd.Flags().BoolVar(&checkUnsafe, "unsafe", false,
		"With --fix, also apply fixes that may change behaviour.")
	checkCmd.Flags().IntVar(&checkMaxFiles, "max-files", 0,
		"Abort when the project walk exceeds this many files (0 = unlimited).")
}
