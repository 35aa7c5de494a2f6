// Copyright © 2025 The agnix authors

package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avifenesh/agnix/lint"
)

func validateKiro(content string) []lint.Diagnostic {
	v := &KiroValidator{}
	return v.Validate(".kiro/steering/conventions.md", content, lint.DefaultConfig())
}

func TestKiroValidSteering(t *testing.T) {
	content := "---\ninclusion: fileMatch\nfileMatchPattern: \"src/**/*.ts\"\n---\nUse strict TypeScript.\n"
	assert.Empty(t, validateKiro(content))
}

func TestKiroEmptyFile(t *testing.T) {
	diags := validateKiro("  \n")
	require.Len(t, diags, 1)
	assert.Equal(t, "KIRO-004", diags[0].Rule)
	assert.Contains(t, diags[0].Message, "steering file is empty")
}

func TestKiroNoFrontmatter(t *testing.T) {
	// Frontmatter is optional; a plain body is valid steering.
	assert.Empty(t, validateKiro("Always lint before commit.\n"))
}

func TestKiroInvalidInclusionMode(t *testing.T) {
	content := "---\ninclusion: sometimes\n---\nBody.\n"
	diags := validateKiro(content)
	require.Len(t, diags, 1)
	assert.Equal(t, "KIRO-001", diags[0].Rule)
	assert.Contains(t, diags[0].Message, "Invalid inclusion mode 'sometimes'")
	assert.Contains(t, diags[0].Suggestion, "always, fileMatch, manual, auto")
	assert.Equal(t, 2, diags[0].Line)
}

func TestKiroAutoRequiresNameAndDescription(t *testing.T) {
	content := "---\ninclusion: auto\n---\nBody.\n"
	diags := validateKiro(content)
	require.Len(t, diags, 2)
	assert.Equal(t, "KIRO-002", diags[0].Rule)
	assert.Contains(t, diags[0].Message, "requires the 'name' field")
	assert.Contains(t, diags[1].Message, "requires the 'description' field")

	content = "---\ninclusion: auto\nname: conventions\ndescription: Project conventions\n---\nBody.\n"
	assert.Empty(t, validateKiro(content))
}

func TestKiroFileMatchRequiresPattern(t *testing.T) {
	content := "---\ninclusion: fileMatch\n---\nBody.\n"
	diags := validateKiro(content)
	require.Len(t, diags, 1)
	assert.Equal(t, "KIRO-002", diags[0].Rule)
	assert.Contains(t, diags[0].Message, "requires the 'fileMatchPattern' field")
}

func TestKiroInvalidFileMatchPattern(t *testing.T) {
	content := "---\ninclusion: fileMatch\nfileMatchPattern: \"src/[\"\n---\nBody.\n"
	diags := validateKiro(content)
	require.Len(t, diags, 1)
	assert.Equal(t, "KIRO-003", diags[0].Rule)
	assert.Equal(t, lint.SeverityWarning, diags[0].Severity)
	assert.Contains(t, diags[0].Message, "Invalid fileMatchPattern glob 'src/['")
	assert.Equal(t, 3, diags[0].Line)
}

func TestKiroRulesDisabled(t *testing.T) {
	cfg := lint.DefaultConfig()
	cfg.Rules.DisabledRules = []string{"KIRO-001", "KIRO-002", "KIRO-003", "KIRO-004"}
	v := &KiroValidator{}
	content := "---\ninclusion: bogus\n---\n"
	assert.Empty(t, v.Validate(".kiro/steering/x.md", content, cfg))
}
