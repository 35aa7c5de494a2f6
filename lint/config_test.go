// Copyright © 2025 The agnix authors

package lint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "info", cfg.Severity)
	assert.Equal(t, "generic", cfg.Target)
	assert.True(t, cfg.Rules.Skills)
	assert.True(t, cfg.Rules.Roo)
	assert.True(t, cfg.Rules.PromptEngineering)
	assert.NotNil(t, cfg.Filesystem())
}

func TestConfigClone(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Exclude = []string{"vendor/**"}
	cfg.Rules.DisabledRules = []string{"AS-005"}
	cfg.ToolVersions = map[string]string{"claude-code": "2.1"}

	clone := cfg.Clone()
	clone.Exclude[0] = "changed"
	clone.Rules.DisabledRules = append(clone.Rules.DisabledRules, "AS-006")
	clone.ToolVersions["claude-code"] = "3.0"

	assert.Equal(t, "vendor/**", cfg.Exclude[0])
	assert.Equal(t, []string{"AS-005"}, cfg.Rules.DisabledRules)
	assert.Equal(t, "2.1", cfg.ToolVersions["claude-code"])
}

func TestIsRuleEnabledDisabledList(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Rules.DisabledRules = []string{"CC-HK-003"}
	assert.False(t, cfg.IsRuleEnabled("CC-HK-003"))
	assert.True(t, cfg.IsRuleEnabled("CC-HK-001"))
}

func TestIsRuleEnabledCategory(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Rules.Skills = false
	assert.False(t, cfg.IsRuleEnabled("AS-005"))
	assert.False(t, cfg.IsRuleEnabled("CC-SK-001"))
	assert.True(t, cfg.IsRuleEnabled("CC-HK-001"))

	cfg = DefaultConfig()
	cfg.Rules.CrossPlatform = false
	assert.False(t, cfg.IsRuleEnabled("XP-001"))
	assert.False(t, cfg.IsRuleEnabled("VER-001"))

	cfg = DefaultConfig()
	cfg.Rules.Cursor = false
	assert.False(t, cfg.IsRuleEnabled("CUR-001"))
	assert.True(t, cfg.IsRuleEnabled("CLN-001"))
}

func TestIsRuleEnabledTarget(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Target = "codex"
	assert.True(t, cfg.IsRuleEnabled("CDX-001"))
	assert.False(t, cfg.IsRuleEnabled("CC-SK-001"))
	assert.False(t, cfg.IsRuleEnabled("ROO-001"))
	// Generic rules always run.
	assert.True(t, cfg.IsRuleEnabled("XML-001"))
	assert.True(t, cfg.IsRuleEnabled("MCP-001"))

	cfg.Target = "generic"
	assert.True(t, cfg.IsRuleEnabled("CC-SK-001"))

	// Unknown rule ids default to enabled.
	assert.True(t, cfg.IsRuleEnabled("FUTURE-001"))
}

func TestIsValidatorDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Rules.DisabledValidators = []string{"skills"}
	assert.True(t, cfg.IsValidatorDisabled("skills"))
	assert.False(t, cfg.IsValidatorDisabled("hooks"))
}

func TestMinSeverity(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, SeverityInfo, cfg.MinSeverity())
	cfg.Severity = "Error"
	assert.Equal(t, SeverityError, cfg.MinSeverity())
	cfg.Severity = "warning"
	assert.Equal(t, SeverityWarning, cfg.MinSeverity())
	cfg.Severity = "bogus"
	assert.Equal(t, SeverityInfo, cfg.MinSeverity())
}

func TestHasVersionPins(t *testing.T) {
	cfg := DefaultConfig()
	assert.False(t, cfg.HasVersionPins())
	cfg.SpecRevisions = map[string]string{"mcp": "2025-06-18"}
	assert.True(t, cfg.HasVersionPins())
}

func TestLoadConfigMissing(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Severity)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	toml := `
severity = "warning"
target = "claude-code"
exclude = ["vendor/"]

[rules]
skills = false
disabled_rules = ["CC-HK-011"]

[files]
include_as_memory = ["docs/agents/*.md"]

[tool_versions]
claude-code = "2.1.0"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".agnix.toml"), []byte(toml), 0o644))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "warning", cfg.Severity)
	assert.Equal(t, "claude-code", cfg.Target)
	assert.Equal(t, []string{"vendor/"}, cfg.Exclude)
	assert.False(t, cfg.Rules.Skills)
	// Categories not mentioned keep their defaults.
	assert.True(t, cfg.Rules.Hooks)
	assert.Equal(t, []string{"CC-HK-011"}, cfg.Rules.DisabledRules)
	assert.Equal(t, []string{"docs/agents/*.md"}, cfg.Files.IncludeAsMemory)
	assert.Equal(t, "2.1.0", cfg.ToolVersions["claude-code"])
}

func TestLoadConfigMalformed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".agnix.toml"), []byte("severity = [broken"), 0o644))
	_, err := LoadConfig(dir)
	assert.Error(t, err)
}
