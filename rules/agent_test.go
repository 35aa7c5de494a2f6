// Copyright © 2025 The agnix authors

package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avifenesh/agnix/lint"
)

func validateAgent(content string) []lint.Diagnostic {
	v := &AgentValidator{}
	return v.Validate(".claude/agents/reviewer.md", content, lint.DefaultConfig())
}

func TestAgentValid(t *testing.T) {
	content := `---
name: reviewer
description: Reviews pull requests for style and correctness
model: sonnet
permissionMode: default
tools:
  - Read
  - Grep
---
You are a code reviewer.
`
	assert.Empty(t, validateAgent(content))
}

func TestAgentMissingIdentity(t *testing.T) {
	diags := validateAgent("---\nmodel: sonnet\n---\nbody\n")
	require.Len(t, diags, 2)
	assert.Equal(t, "CC-AG-001", diags[0].Rule)
	assert.Equal(t, "CC-AG-002", diags[1].Rule)

	// Whitespace-only values count as missing.
	diags = validateAgent("---\nname: \"  \"\ndescription: Reviews things for correctness\n---\nbody\n")
	require.Len(t, diags, 1)
	assert.Equal(t, "CC-AG-001", diags[0].Rule)
}

func TestAgentInvalidModel(t *testing.T) {
	content := "---\nname: r\ndescription: Reviews code changes\nmodel: gpt-4o\n---\nbody\n"
	diags := validateAgent(content)
	require.Len(t, diags, 1)

	d := diags[0]
	assert.Equal(t, "CC-AG-003", d.Rule)
	assert.Contains(t, d.Message, "Invalid model 'gpt-4o'")
	require.Len(t, d.Fixes, 1)
	assert.Contains(t, applyFixTo(content, d.Fixes[0]), "model: sonnet\n")
}

func TestAgentInvalidPermissionMode(t *testing.T) {
	content := "---\nname: r\ndescription: Reviews code changes\npermissionMode: yolo\n---\nbody\n"
	diags := validateAgent(content)
	require.Len(t, diags, 1)

	d := diags[0]
	assert.Equal(t, "CC-AG-004", d.Rule)
	require.Len(t, d.Fixes, 1)
	assert.Contains(t, applyFixTo(content, d.Fixes[0]), "permissionMode: default\n")
}

func TestAgentUnknownTool(t *testing.T) {
	content := "---\nname: r\ndescription: Reviews code changes\ntools:\n  - Read\n  - Compile\n---\nbody\n"
	diags := validateAgent(content)
	require.Len(t, diags, 1)
	assert.Equal(t, "CC-AG-009", diags[0].Rule)
	assert.Contains(t, diags[0].Message, "Unknown tool 'Compile'")

	scoped := "---\nname: r\ndescription: Reviews code changes\ntools:\n  - Bash(git:*)\n---\nbody\n"
	assert.Empty(t, validateAgent(scoped))
}

func TestAgentHooksShape(t *testing.T) {
	valid := `---
name: r
description: Reviews code changes
hooks:
  Stop:
    - hooks:
        - type: command
          command: echo done
---
body
`
	assert.Empty(t, validateAgent(valid))
}

func TestAgentHooksNotMapping(t *testing.T) {
	content := "---\nname: r\ndescription: Reviews code changes\nhooks: [1, 2]\n---\nbody\n"
	diags := validateAgent(content)
	require.Len(t, diags, 1)
	assert.Equal(t, "CC-AG-011", diags[0].Rule)
	assert.Contains(t, diags[0].Message, "must be a mapping of event names")
}

func TestAgentHooksUnknownEvent(t *testing.T) {
	content := "---\nname: r\ndescription: Reviews code changes\nhooks:\n  OnSave:\n    - hooks: []\n---\nbody\n"
	diags := validateAgent(content)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "unknown event 'OnSave'")
}

func TestAgentHooksBadEntries(t *testing.T) {
	content := `---
name: r
description: Reviews code changes
hooks:
  Stop:
    - hooks:
        - command: echo hi
        - type: webhook
---
body
`
	diags := validateAgent(content)
	require.Len(t, diags, 2)
	assert.Contains(t, diags[0].Message, "missing required 'type' field")
	assert.Contains(t, diags[1].Message, "hook type 'webhook'")
}

func TestAgentHooksMatcherMissingHooks(t *testing.T) {
	content := "---\nname: r\ndescription: Reviews code changes\nhooks:\n  Stop:\n    - matcher: x\n---\nbody\n"
	diags := validateAgent(content)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "missing required 'hooks' array")
}

func TestAgentNoFrontmatter(t *testing.T) {
	assert.Empty(t, validateAgent("# plain agent prose\n"))
}
