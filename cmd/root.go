// Copyright © 2025 The agnix authors

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/avifenesh/agnix/lint"
)

var (
	cfgFile   string
	colorFlag string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "agnix",
	Short: "agnix - linter for AI agent configuration files",
	Long: `agnix validates AI agent configuration artifacts: SKILL.md skills,
CLAUDE.md/AGENTS.md memory files, Claude Code hooks and agents, MCP tool
registries, and per-tool rule files (.clinerules, .roomodes, Kiro steering,
Amp checks, .codex/config.toml).

Getting started:
  agnix check .                Validate the current project
  agnix check --fix .          Validate and apply safe autofixes
  agnix fix --dry-run .        Preview fixes without writing
  agnix rules                  List every rule in the catalogue
  agnix lsp                    Start the language server for editors

Configuration:
  agnix reads .agnix.toml from the project root. Use it to set the
  severity threshold, target tool, excluded paths, rule category flags,
  disabled rules, and file-classification overrides.

Exit codes:
  0  No findings at or above the severity threshold
  1  One or more findings were reported
  2  Bad invocation (invalid flags, unreadable paths, bad config)

More information:
  Source code:  https://github.com/avifenesh/agnix`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is <project root>/.agnix.toml)")
	rootCmd.PersistentFlags().StringVar(&colorFlag, "color", "auto",
		`Control colored output: "auto", "always", or "never".`)
}

// loadConfigFor resolves the lint configuration for a validation root.
// The --config flag overrides the default .agnix.toml discovery.
func loadConfigFor(root string) (*lint.Config, error) {
	if cfgFile == "" {
		return lint.LoadConfig(root)
	}
	cfg := lint.DefaultConfig()
	v := viper.New()
	v.SetConfigFile(cfgFile)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config %s: %w", cfgFile, err)
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// resolveRoot normalises a CLI path argument to an absolute directory:
// file arguments validate their containing directory's context.
func resolveRoot(arg string) (string, error) {
	abs, err := filepath.Abs(arg)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return filepath.Dir(abs), nil
	}
	return abs, nil
}
