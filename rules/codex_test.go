// Copyright © 2025 The agnix authors

package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avifenesh/agnix/lint"
)

func validateCodex(content string) []lint.Diagnostic {
	v := &CodexValidator{}
	return v.Validate(".codex/config.toml", content, lint.DefaultConfig())
}

func TestCodexValidConfig(t *testing.T) {
	content := `model = "o3"
approvalMode = "suggest"
fullAutoErrorMode = "ask-user"
project_doc_max_bytes = 32768

[mcp_servers.github]
command = "gh-mcp"
`
	assert.Empty(t, validateCodex(content))
}

func TestCodexInvalidTOML(t *testing.T) {
	diags := validateCodex("model = \"o3\"\napprovalMode = suggest\n")
	require.Len(t, diags, 1)
	assert.Equal(t, "CDX-000", diags[0].Rule)
	assert.Contains(t, diags[0].Message, "Invalid TOML syntax")
	assert.Equal(t, 2, diags[0].Line)
}

func TestCodexUnknownKey(t *testing.T) {
	content := "model = \"o3\"\ntemperature = 0.5\n"
	diags := validateCodex(content)
	require.Len(t, diags, 1)
	assert.Equal(t, "CDX-004", diags[0].Rule)
	assert.Equal(t, lint.SeverityWarning, diags[0].Severity)
	assert.Contains(t, diags[0].Message, "Unknown config key 'temperature'")
	assert.Equal(t, 2, diags[0].Line)
}

func TestCodexInvalidApprovalMode(t *testing.T) {
	content := "approvalMode = \"Suggest\"\n"
	diags := validateCodex(content)
	require.Len(t, diags, 1)

	d := diags[0]
	assert.Equal(t, "CDX-001", d.Rule)
	assert.Contains(t, d.Message, "Invalid approvalMode 'Suggest'")
	assert.Contains(t, d.Message, "suggest, auto-edit, full-auto")
	require.Len(t, d.Fixes, 1)
	assert.Equal(t, "approvalMode = \"suggest\"\n", applyFixTo(content, d.Fixes[0]))
}

func TestCodexApprovalModeNoCloseMatch(t *testing.T) {
	diags := validateCodex("approvalMode = \"yolo\"\n")
	require.Len(t, diags, 1)
	assert.Equal(t, "CDX-001", diags[0].Rule)
	assert.Empty(t, diags[0].Fixes)
}

func TestCodexApprovalModeNotAString(t *testing.T) {
	diags := validateCodex("approvalMode = 3\n")
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "approvalMode must be a string")
}

func TestCodexInvalidFullAutoErrorMode(t *testing.T) {
	content := "fullAutoErrorMode = \"ignore\"\n"
	diags := validateCodex(content)
	require.Len(t, diags, 1)

	d := diags[0]
	assert.Equal(t, "CDX-002", d.Rule)
	assert.Contains(t, d.Message, "Invalid fullAutoErrorMode 'ignore'")
	require.Len(t, d.Fixes, 1)
	assert.Equal(t, "fullAutoErrorMode = \"ignore-and-continue\"\n", applyFixTo(content, d.Fixes[0]))
}

func TestCodexProjectDocMaxBytes(t *testing.T) {
	diags := validateCodex("project_doc_max_bytes = 131072\n")
	require.Len(t, diags, 1)
	assert.Equal(t, "CDX-005", diags[0].Rule)
	assert.Contains(t, diags[0].Message, "131072 exceeds the 65536 limit")

	diags = validateCodex("project_doc_max_bytes = \"lots\"\n")
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "must be an integer")

	assert.Empty(t, validateCodex("project_doc_max_bytes = 65536\n"))
}

func TestCodexRulesDisabled(t *testing.T) {
	cfg := lint.DefaultConfig()
	cfg.Rules.DisabledRules = []string{"CDX-001", "CDX-004"}
	v := &CodexValidator{}
	content := "approvalMode = \"nope-mode\"\nbogus = true\n"
	assert.Empty(t, v.Validate(".codex/config.toml", content, cfg))
}

func TestCodexTargetClaudeDisablesValidator(t *testing.T) {
	cfg := lint.DefaultConfig()
	cfg.Target = "claude"
	assert.False(t, cfg.IsRuleEnabled("CDX-001"))
}
