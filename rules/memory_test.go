// Copyright © 2025 The agnix authors

package rules

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avifenesh/agnix/lint"
)

func memoryConfig(fs *lint.MockFS) *lint.Config {
	cfg := lint.DefaultConfig()
	cfg.FS = fs
	cfg.Imports = lint.NewImportCache()
	return cfg
}

func validateMemory(fs *lint.MockFS, path string) []lint.Diagnostic {
	content, err := fs.ReadFile(path)
	if err != nil {
		panic(err)
	}
	v := &MemoryValidator{}
	return v.Validate(path, content, memoryConfig(fs))
}

func TestMemoryImportsResolve(t *testing.T) {
	fs := lint.NewMockFS()
	fs.AddFile("/proj/CLAUDE.md", "@docs/style.md\n")
	fs.AddFile("/proj/docs/style.md", "style notes\n")
	assert.Empty(t, validateMemory(fs, "/proj/CLAUDE.md"))
}

func TestMemoryImportNotFound(t *testing.T) {
	fs := lint.NewMockFS()
	fs.AddFile("/proj/CLAUDE.md", "intro\n@docs/missing.md\n")

	diags := validateMemory(fs, "/proj/CLAUDE.md")
	require.Len(t, diags, 1)

	d := diags[0]
	assert.Equal(t, "CC-MEM-001", d.Rule)
	assert.Contains(t, d.Message, "Import not found: @docs/missing.md")
	assert.Equal(t, 2, d.Line)
	assert.Contains(t, d.Suggestion, "/proj/docs/missing.md")
}

func TestMemoryImportCycle(t *testing.T) {
	fs := lint.NewMockFS()
	fs.AddFile("/proj/CLAUDE.md", "@a.md\n")
	fs.AddFile("/proj/a.md", "@b.md\n")
	fs.AddFile("/proj/b.md", "@a.md\n")

	diags := validateMemory(fs, "/proj/CLAUDE.md")
	require.Len(t, diags, 1)
	assert.Equal(t, "CC-MEM-002", diags[0].Rule)
	assert.Contains(t, diags[0].Message, "Circular @import detected")
	assert.Contains(t, diags[0].Message, "/proj/a.md -> /proj/b.md -> /proj/a.md")
}

func TestMemoryImportDepth(t *testing.T) {
	fs := lint.NewMockFS()
	// CLAUDE.md -> d1 -> d2 -> d3 -> d4 -> d5 -> d6 is one hop too deep.
	fs.AddFile("/proj/CLAUDE.md", "@d1.md\n")
	for i := 1; i <= 5; i++ {
		fs.AddFile("/proj/d"+string(rune('0'+i))+".md", "@d"+string(rune('1'+i))+".md\n")
	}
	fs.AddFile("/proj/d6.md", "leaf\n")

	diags := validateMemory(fs, "/proj/CLAUDE.md")
	require.Len(t, diags, 1)
	assert.Equal(t, "CC-MEM-003", diags[0].Rule)
	assert.Contains(t, diags[0].Message, "Import depth exceeds 5 hops")
	assert.Equal(t, "/proj/d5.md", diags[0].File)
}

func TestMemoryLinkTargets(t *testing.T) {
	fs := lint.NewMockFS()
	fs.AddFile("/proj/CLAUDE.md", strings.Join([]string{
		"[exists](docs/setup.md)",
		"[missing](docs/nope.md)",
		"[web](https://example.com/docs)",
		"[anchor](#section)",
		"[fragment](docs/setup.md#install)",
	}, "\n")+"\n")
	fs.AddFile("/proj/docs/setup.md", "setup\n")

	diags := validateMemory(fs, "/proj/CLAUDE.md")
	require.Len(t, diags, 1)
	assert.Equal(t, "REF-002", diags[0].Rule)
	assert.Contains(t, diags[0].Message, "Link target not found: docs/nope.md")
	assert.Equal(t, 2, diags[0].Line)
}

func TestMemoryImportCacheShared(t *testing.T) {
	fs := lint.NewMockFS()
	fs.AddFile("/proj/CLAUDE.md", "@shared.md\n")
	fs.AddFile("/proj/shared.md", "@leaf.md\n")
	fs.AddFile("/proj/leaf.md", "done\n")

	cfg := memoryConfig(fs)
	v := &MemoryValidator{}
	content, _ := fs.ReadFile("/proj/CLAUDE.md")
	assert.Empty(t, v.Validate("/proj/CLAUDE.md", content, cfg))

	// The walk populated the shared cache for the imported files.
	imports, ok := cfg.Imports.Get("/proj/shared.md")
	require.True(t, ok)
	require.Len(t, imports, 1)
	assert.Equal(t, "leaf.md", imports[0].Path)
}

func TestMemoryRulesDisabled(t *testing.T) {
	fs := lint.NewMockFS()
	fs.AddFile("/proj/CLAUDE.md", "@missing.md\n[missing](nope.md)\n")
	cfg := memoryConfig(fs)
	cfg.Rules.DisabledRules = []string{"CC-MEM-001", "REF-002"}

	v := &MemoryValidator{}
	content, _ := fs.ReadFile("/proj/CLAUDE.md")
	assert.Empty(t, v.Validate("/proj/CLAUDE.md", content, cfg))
}
