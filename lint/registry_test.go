// Copyright © 2025 The agnix authors

package lint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avifenesh/agnix/filetype"
)

func TestRegistryDispatch(t *testing.T) {
	reg := newStubRegistry()
	cfg := DefaultConfig()

	diags := reg.Dispatch(filetype.ClaudeMd, "CLAUDE.md", "content", cfg)
	require.Len(t, diags, 1)
	assert.Equal(t, "CC-MEM-001", diags[0].Rule)

	assert.Empty(t, reg.Dispatch(filetype.Hooks, "settings.json", "{}", cfg))
}

func TestRegistryDispatchDisabledValidator(t *testing.T) {
	reg := newStubRegistry()
	cfg := DefaultConfig()
	cfg.Rules.DisabledValidators = []string{"memory"}

	assert.Empty(t, reg.Dispatch(filetype.ClaudeMd, "CLAUDE.md", "x", cfg))
	assert.NotEmpty(t, reg.Dispatch(filetype.Skill, "SKILL.md", "x", cfg))
}

func TestRegistryDispatchAllRulesDisabled(t *testing.T) {
	reg := newStubRegistry()
	cfg := DefaultConfig()
	cfg.Rules.DisabledRules = []string{"CC-MEM-001"}

	// The family short-circuits when every id it may emit is disabled.
	assert.Empty(t, reg.Dispatch(filetype.ClaudeMd, "CLAUDE.md", "x", cfg))
}

func TestRegistryMultipleFamiliesPerType(t *testing.T) {
	reg := NewRegistry()
	reg.Register(stubValidator{name: "xml", ids: []string{"XML-001"}, rule: "XML-001"}, filetype.ClaudeMd)
	reg.Register(stubValidator{name: "memory", ids: []string{"CC-MEM-001"}, rule: "CC-MEM-001"}, filetype.ClaudeMd)

	diags := reg.Dispatch(filetype.ClaudeMd, "CLAUDE.md", "x", DefaultConfig())
	require.Len(t, diags, 2)
	// Registration order is dispatch order.
	assert.Equal(t, "XML-001", diags[0].Rule)
	assert.Equal(t, "CC-MEM-001", diags[1].Rule)
	assert.Equal(t, 2, reg.ValidatorCount())
}

func TestImportCache(t *testing.T) {
	c := NewImportCache()
	_, ok := c.Get("CLAUDE.md")
	assert.False(t, ok)

	c.Put("CLAUDE.md", nil)
	imports, ok := c.Get("CLAUDE.md")
	assert.True(t, ok)
	assert.Nil(t, imports)
}

func TestImportCacheNil(t *testing.T) {
	var c *ImportCache
	_, ok := c.Get("x")
	assert.False(t, ok)
	c.Put("x", nil) // must not panic
}

func TestLookupRule(t *testing.T) {
	md := LookupRule("CC-HK-001")
	require.NotNil(t, md)
	assert.Equal(t, "hooks", md.Category)
	assert.Equal(t, "claude-code", md.Tool)
	assert.NotEmpty(t, md.Description)

	assert.Nil(t, LookupRule("NOT-A-RULE"))
}

func TestRuleIDs(t *testing.T) {
	ids := RuleIDs()
	assert.Len(t, ids, 110)
	assert.IsIncreasing(t, ids)
	assert.Contains(t, ids, "AS-005")
	assert.Contains(t, ids, "ROO-006")
	assert.Contains(t, ids, "KIRO-004")
	assert.Contains(t, ids, "CUR-009")
	assert.Contains(t, ids, "MCP-024")
}
