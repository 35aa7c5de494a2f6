// Copyright © 2025 The agnix authors

// Command agnix lints AI agent configuration files: SKILL.md skills,
// CLAUDE.md/AGENTS.md memory files, hook manifests, MCP registries, and
// per-tool rule files. It also embeds a language server for editors.
package main

import "github.com/avifenesh/agnix/cmd"

func main() {
	cmd.Execute()
}
