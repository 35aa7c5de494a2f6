// Copyright © 2025 The agnix authors

package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avifenesh/agnix/lint"
)

func validateRoo(path, content string) []lint.Diagnostic {
	v := &RooValidator{}
	return v.Validate(path, content, lint.DefaultConfig())
}

func TestRooRulesFileEmpty(t *testing.T) {
	diags := validateRoo(".roorules", "  \n")
	require.Len(t, diags, 1)
	assert.Equal(t, "ROO-001", diags[0].Rule)
	assert.Contains(t, diags[0].Message, "rule file is empty")

	assert.Empty(t, validateRoo(".roorules", "Prefer small commits.\n"))
}

func TestRoomodesValid(t *testing.T) {
	content := `{
  "customModes": [
    {"slug": "reviewer", "name": "Reviewer", "roleDefinition": "Reviews diffs", "groups": ["read", "command"]}
  ]
}`
	assert.Empty(t, validateRoo(".roomodes", content))
}

func TestRoomodesInvalidJSON(t *testing.T) {
	diags := validateRoo(".roomodes", "{\n  \"customModes\": [,]\n}")
	require.Len(t, diags, 1)
	assert.Equal(t, "ROO-002", diags[0].Rule)
	assert.Contains(t, diags[0].Message, "Invalid .roomodes JSON")
	assert.Equal(t, 2, diags[0].Line)
}

func TestRoomodesMissingCustomModes(t *testing.T) {
	diags := validateRoo(".roomodes", `{"modes": []}`)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "Missing 'customModes' key")

	diags = validateRoo(".roomodes", `{"customModes": {}}`)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "'customModes' must be an array")
}

func TestRoomodesModeProblems(t *testing.T) {
	content := `{
  "customModes": [
    {"slug": "Code Review", "name": "CR", "roleDefinition": "r", "groups": ["read"]},
    {"slug": "dup", "name": "A", "roleDefinition": "r", "groups": ["read"]},
    {"slug": "dup", "name": "B", "roleDefinition": "r", "groups": ["write"]},
    {"name": "No Slug", "roleDefinition": "r", "groups": ["read"]},
    {"slug": "bare"}
  ]
}`
	diags := validateRoo(".roomodes", content)
	messages := make([]string, len(diags))
	for i, d := range diags {
		messages[i] = d.Message
	}

	assert.Contains(t, messages, "Invalid slug 'Code Review' in customModes[0]: use lowercase letters, digits, and hyphens")
	assert.Contains(t, messages, "Duplicate slug 'dup' in customModes[2]")
	assert.Contains(t, messages, "Invalid group 'write' in customModes[2]: must be one of read, edit, browser, command, mcp")
	assert.Contains(t, messages, "Missing 'slug' in customModes[3]")
	assert.Contains(t, messages, "Mode 'bare' is missing the 'groups' field")
	assert.Contains(t, messages, "Missing 'name' in customModes[4]")
	assert.Contains(t, messages, "Missing 'roleDefinition' in customModes[4]")
}

func TestRooignorePatterns(t *testing.T) {
	assert.Empty(t, validateRoo(".rooignore", "# build output\ndist/**\n!dist/keep.txt\n"))

	diags := validateRoo(".rooignore", "\n# only comments\n")
	require.Len(t, diags, 1)
	assert.Equal(t, "ROO-003", diags[0].Rule)
	assert.Contains(t, diags[0].Message, "contains no patterns")

	diags = validateRoo(".rooignore", "src/[\n")
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "Invalid glob pattern 'src/['")
	assert.Equal(t, 1, diags[0].Line)
}

func TestRooModeRulesSlug(t *testing.T) {
	diags := validateRoo(".roo/rules-Debug_Mode/style.md", "Be strict.\n")
	require.Len(t, diags, 1)
	assert.Equal(t, "ROO-004", diags[0].Rule)
	assert.Contains(t, diags[0].Message, "Invalid mode slug 'Debug_Mode'")

	assert.Empty(t, validateRoo(".roo/rules-debug/style.md", "Be strict.\n"))
}

func TestRooModeRulesEmptyBody(t *testing.T) {
	diags := validateRoo(".roo/rules-code/empty.md", "")
	require.Len(t, diags, 1)
	assert.Equal(t, "ROO-001", diags[0].Rule)
}

func TestRooSkillModeBinding(t *testing.T) {
	// Built-in modes never need a .roomodes entry.
	assert.Empty(t, validateRoo("/proj/.roo/rules-debug/SKILL.md", "Use the debugger.\n"))

	cfg := lint.DefaultConfig()
	cfg.FS = lint.NewMockFS()
	v := &RooValidator{}
	diags := v.Validate("/proj/.roo/rules-triage/SKILL.md", "Triage bugs.\n", cfg)
	require.Len(t, diags, 1)
	assert.Equal(t, "ROO-006", diags[0].Rule)
	assert.Contains(t, diags[0].Message, "Mode slug 'triage' is not a built-in or custom mode")
	assert.Contains(t, diags[0].Suggestion, "code, architect, ask, debug, orchestrator")
}

func TestRooSkillCustomModeDefined(t *testing.T) {
	fs := lint.NewMockFS()
	fs.AddFile("/proj/.roomodes", `{"customModes": [{"slug": "triage", "name": "Triage", "roleDefinition": "r", "groups": []}]}`)
	cfg := lint.DefaultConfig()
	cfg.FS = fs

	v := &RooValidator{}
	assert.Empty(t, v.Validate("/proj/.roo/rules-triage/SKILL.md", "Triage bugs.\n", cfg))
}

func TestRooRulesDisabled(t *testing.T) {
	cfg := lint.DefaultConfig()
	cfg.Rules.DisabledRules = []string{"ROO-002"}
	v := &RooValidator{}
	assert.Empty(t, v.Validate(".roomodes", "{not json", cfg))
}
