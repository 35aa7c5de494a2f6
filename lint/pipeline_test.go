// Copyright © 2025 The agnix authors

package lint

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avifenesh/agnix/filetype"
)

// stubValidator reports a fixed diagnostic for every dispatched file.
type stubValidator struct {
	name string
	ids  []string
	rule string
}

func (v stubValidator) Name() string      { return v.name }
func (v stubValidator) RuleIDs() []string { return v.ids }
func (v stubValidator) Validate(path, content string, cfg *Config) []Diagnostic {
	return []Diagnostic{NewWarning(path, 1, 0, v.rule, "stub finding")}
}

func newStubRegistry() *Registry {
	reg := NewRegistry()
	reg.Register(stubValidator{name: "memory", ids: []string{"CC-MEM-001"}, rule: "CC-MEM-001"},
		filetype.ClaudeMd)
	reg.Register(stubValidator{name: "skills", ids: []string{"AS-005"}, rule: "AS-005"},
		filetype.Skill)
	return reg
}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for path, content := range files {
		full := filepath.Join(root, filepath.FromSlash(path))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
	return root
}

func TestResolveFileType(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, filetype.Skill, ResolveFileType("x/SKILL.md", cfg))
	assert.Equal(t, filetype.Unknown, ResolveFileType("x/README.md", cfg))
}

func TestResolveFileTypeOverrides(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RootDir = "/proj"
	cfg.Files.Exclude = []string{"gen/**"}
	cfg.Files.IncludeAsMemory = []string{"docs/agents.md"}

	assert.Equal(t, filetype.Unknown, ResolveFileType("/proj/gen/SKILL.md", cfg))
	assert.Equal(t, filetype.ClaudeMd, ResolveFileType("/proj/docs/agents.md", cfg))
	assert.Equal(t, filetype.Skill, ResolveFileType("/proj/sk/SKILL.md", cfg))
}

func TestValidateFile(t *testing.T) {
	fs := NewMockFS()
	fs.AddFile("/proj/CLAUDE.md", "remember things")
	cfg := DefaultConfig()
	cfg.FS = fs

	diags, err := ValidateFile("/proj/CLAUDE.md", cfg, newStubRegistry())
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, "CC-MEM-001", diags[0].Rule)

	// Unknown types are skipped without reading the file.
	diags, err = ValidateFile("/proj/notes.txt", cfg, newStubRegistry())
	require.NoError(t, err)
	assert.Empty(t, diags)

	_, err = ValidateFile("/proj/missing/CLAUDE.md", cfg, newStubRegistry())
	assert.Error(t, err)
}

func TestValidateProject(t *testing.T) {
	root := writeTree(t, map[string]string{
		"CLAUDE.md":          "instructions",
		"skills/a/SKILL.md":  "---\nname: a\n---\nbody",
		"README.md":          "not validated",
		"ignored/.gitignore": "",
	})

	result, err := ValidateProject(context.Background(), root, DefaultConfig(), newStubRegistry())
	require.NoError(t, err)
	assert.Equal(t, 2, result.FilesChecked)
	assert.Equal(t, 2, result.ValidatorCount)

	rulesSeen := map[string]bool{}
	for _, d := range result.Diagnostics {
		rulesSeen[d.Rule] = true
	}
	assert.True(t, rulesSeen["CC-MEM-001"])
	assert.True(t, rulesSeen["AS-005"])
	// No version pins configured, so the project-level info fires.
	assert.True(t, rulesSeen["VER-001"])
}

func TestValidateProjectDeterministic(t *testing.T) {
	files := map[string]string{}
	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		files["skills/"+name+"/SKILL.md"] = "---\nname: " + name + "\n---\nbody"
	}
	root := writeTree(t, files)

	first, err := ValidateProject(context.Background(), root, DefaultConfig(), newStubRegistry())
	require.NoError(t, err)
	second, err := ValidateProject(context.Background(), root, DefaultConfig(), newStubRegistry())
	require.NoError(t, err)
	assert.Equal(t, first.Diagnostics, second.Diagnostics)
}

func TestValidateProjectExcludes(t *testing.T) {
	root := writeTree(t, map[string]string{
		"vendor/CLAUDE.md": "excluded",
		"CLAUDE.md":        "kept",
	})
	cfg := DefaultConfig()
	cfg.Exclude = []string{"vendor/"}

	result, err := ValidateProject(context.Background(), root, cfg, newStubRegistry())
	require.NoError(t, err)
	assert.Equal(t, 1, result.FilesChecked)
}

func TestValidateProjectInvalidExclude(t *testing.T) {
	root := writeTree(t, map[string]string{"CLAUDE.md": "x"})
	cfg := DefaultConfig()
	cfg.Exclude = []string{"[broken"}

	_, err := ValidateProject(context.Background(), root, cfg, newStubRegistry())
	var patternErr *InvalidExcludePatternError
	require.ErrorAs(t, err, &patternErr)
	assert.Equal(t, "[broken", patternErr.Pattern)
}

func TestValidateProjectGitignore(t *testing.T) {
	root := writeTree(t, map[string]string{
		".gitignore":      "build/\n",
		"build/CLAUDE.md": "generated",
		"CLAUDE.md":       "kept",
	})

	result, err := ValidateProject(context.Background(), root, DefaultConfig(), newStubRegistry())
	require.NoError(t, err)
	assert.Equal(t, 1, result.FilesChecked)
}

func TestValidateProjectFileCap(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a/CLAUDE.md": "x",
		"b/CLAUDE.md": "x",
		"c/CLAUDE.md": "x",
	})
	cfg := DefaultConfig()
	cfg.MaxFilesToValidate = 2

	_, err := ValidateProject(context.Background(), root, cfg, newStubRegistry())
	var tooMany *TooManyFilesError
	require.ErrorAs(t, err, &tooMany)
	assert.Equal(t, 2, tooMany.Limit)
}

func TestValidateProjectFileCapCountsPlainMarkdown(t *testing.T) {
	// Plain markdown classifies as GenericMarkdown, so it spends budget.
	root := writeTree(t, map[string]string{
		"notes-a.md": "x",
		"notes-b.md": "x",
		"notes-c.md": "x",
	})
	cfg := DefaultConfig()
	cfg.MaxFilesToValidate = 2

	_, err := ValidateProject(context.Background(), root, cfg, newStubRegistry())
	var tooMany *TooManyFilesError
	require.ErrorAs(t, err, &tooMany)
	assert.Equal(t, 2, tooMany.Limit)
	assert.GreaterOrEqual(t, tooMany.Count, 2)
}

func TestValidateProjectAgentsLayers(t *testing.T) {
	root := writeTree(t, map[string]string{
		"AGENTS.md":     "top level",
		"sub/AGENTS.md": "nested",
	})
	cfg := DefaultConfig()
	// Isolate the AGM-006 check from the XP and VER project checks.
	cfg.Rules.CrossPlatform = false
	cfg.Rules.Memory = false

	result, err := ValidateProject(context.Background(), root, cfg, NewRegistry())
	require.NoError(t, err)

	var agm []Diagnostic
	for _, d := range result.Diagnostics {
		if d.Rule == "AGM-006" {
			agm = append(agm, d)
		}
	}
	require.Len(t, agm, 2)
	nested := agm[1]
	if filepath.Base(filepath.Dir(agm[0].File)) == "sub" {
		nested = agm[0]
	}
	assert.Contains(t, nested.Message, "Nested AGENTS.md detected")
	assert.Contains(t, nested.Message, filepath.Join(root, "AGENTS.md"))
}

func TestValidateProjectRules(t *testing.T) {
	root := writeTree(t, map[string]string{
		"AGENTS.md": "use npm install\n",
		"CLAUDE.md": "use yarn install\n",
	})

	diags, err := ValidateProjectRules(context.Background(), root, DefaultConfig())
	require.NoError(t, err)

	rulesSeen := map[string]bool{}
	for _, d := range diags {
		rulesSeen[d.Rule] = true
	}
	assert.True(t, rulesSeen["XP-004"], "conflicting package managers should be reported")
	assert.True(t, rulesSeen["XP-006"], "undocumented precedence should be reported")
	assert.True(t, rulesSeen["VER-001"])
}

func TestValidateProjectRulesVersionPinned(t *testing.T) {
	root := writeTree(t, map[string]string{"CLAUDE.md": "x"})
	cfg := DefaultConfig()
	cfg.ToolVersions = map[string]string{"claude-code": "2.1"}

	diags, err := ValidateProjectRules(context.Background(), root, cfg)
	require.NoError(t, err)
	for _, d := range diags {
		assert.NotEqual(t, "VER-001", d.Rule)
	}
}

func TestValidateProjectCancellation(t *testing.T) {
	root := writeTree(t, map[string]string{"CLAUDE.md": "x"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ValidateProject(ctx, root, DefaultConfig(), newStubRegistry())
	assert.True(t, errors.Is(err, context.Canceled))
}
