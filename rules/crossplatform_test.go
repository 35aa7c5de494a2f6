// Copyright © 2025 The agnix authors

package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avifenesh/agnix/lint"
)

func validateCrossPlatform(path, content string) []lint.Diagnostic {
	v := &CrossPlatformValidator{}
	return v.Validate(path, content, lint.DefaultConfig())
}

func TestCrossPlatformCleanAgentsFile(t *testing.T) {
	content := "# Project Guide\n\n## Conventions\n\nUse tabs for indentation.\n"
	assert.Empty(t, validateCrossPlatform("AGENTS.md", content))
}

func TestCrossPlatformClaudeFeatureInAgentsMd(t *testing.T) {
	content := "# Guide\n\n- type: PreToolExecution\n  command: ./lint.sh\n"
	diags := byRule(validateCrossPlatform("AGENTS.md", content), "XP-001")
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "Claude-specific feature 'hooks' in AGENTS.md")
	assert.Equal(t, 3, diags[0].Line)
	assert.Contains(t, diags[0].Suggestion, "CLAUDE.md")
}

func TestCrossPlatformClaudeFeatureAllowedInClaudeMd(t *testing.T) {
	content := "# Guide\n\n- type: PreToolExecution\n  command: ./lint.sh\n"
	assert.Empty(t, byRule(validateCrossPlatform("CLAUDE.md", content), "XP-001"))
}

func TestCrossPlatformStructureIssues(t *testing.T) {
	content := "# Title\n\n### Deep Section\n\ntext\n"
	diags := byRule(validateCrossPlatform("AGENTS.md", content), "XP-002")
	require.Len(t, diags, 1)
	assert.Equal(t, lint.SeverityWarning, diags[0].Severity)
	assert.Contains(t, diags[0].Message, "AGENTS.md structure issue")

	// Structure checks only apply to AGENTS.md variants.
	assert.Empty(t, byRule(validateCrossPlatform("CLAUDE.md", content), "XP-002"))
}

func TestCrossPlatformHardCodedPaths(t *testing.T) {
	content := "Put helper scripts under .claude/scripts/ for reuse.\n"
	diags := byRule(validateCrossPlatform("AGENTS.md", content), "XP-003")
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "Hard-coded Claude Code path")
	assert.Contains(t, diags[0].Message, "portability")

	// Flagged everywhere, not only in AGENTS.md.
	diags = byRule(validateCrossPlatform("docs/notes.md", content), "XP-003")
	assert.Len(t, diags, 1)
}

func TestCrossPlatformRulesDisabled(t *testing.T) {
	cfg := lint.DefaultConfig()
	cfg.Rules.CrossPlatform = false
	v := &CrossPlatformValidator{}
	content := "allowed-tools: Read\nSee .claude/scripts/run.sh\n### Deep\n"
	assert.Empty(t, v.Validate("AGENTS.md", content, cfg))
}
