// Copyright © 2025 The agnix authors

package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/avifenesh/agnix/lsp"
)

var (
	lspStdio bool
	lspPort  int
)

var lspCmd = &cobra.Command{
	Use:   "lsp [flags]",
	Short: "Start the agnix Language Server Protocol server",
	Long: `Start an LSP server for agent configuration files.

The language server publishes lint diagnostics as you type, offers
quickfix code actions for every machine-applicable fix, completes
frontmatter keys for recognised file types, and shows rule documentation
on hover. Project-level rules re-run when an instruction file is saved
or on the agnix.validateProjectRules command.

Transport modes:
  --stdio      Use stdin/stdout for LSP communication (default)
  --port N     Listen for an LSP client on TCP port N

Examples:
  agnix lsp                          Start with stdio transport
  agnix lsp --stdio                  Same as above (explicit)
  agnix lsp --port 7997              Start with TCP on port 7997

Editor configuration (VS Code):
  Install a generic LSP client extension and configure it to run
  "agnix lsp --stdio" for SKILL.md, CLAUDE.md, AGENTS.md, and
  .claude/**/*.json files.`,
	Args: cobra.NoArgs,
	Run: func(_ *cobra.Command, _ []string) {
		srv := lsp.New()

		if !lspStdio && lspPort > 0 {
			addr := fmt.Sprintf("localhost:%d", lspPort)
			log.Printf("agnix LSP server listening on %s", addr)
			if err := srv.RunTCP(addr); err != nil {
				fmt.Fprintf(os.Stderr, "lsp server error: %v\n", err)
				os.Exit(1)
			}
		} else {
			if err := srv.RunStdio(); err != nil {
				fmt.Fprintf(os.Stderr, "lsp server error: %v\n", err)
				os.Exit(1)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(lspCmd)

	lspCmd.Flags().BoolVar(&lspStdio, "stdio", false,
		"Use stdin/stdout for LSP communication (default behavior)")
	lspCmd.Flags().IntVar(&lspPort, "port", 0,
		"TCP port for LSP server (use instead of --stdio)")
}
