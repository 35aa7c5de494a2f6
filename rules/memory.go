// Copyright © 2025 The agnix authors

package rules

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/avifenesh/agnix/lint"
	"github.com/avifenesh/agnix/mdutil"
)

var memoryRuleIDs = []string{
	"CC-MEM-001", "CC-MEM-002", "CC-MEM-003", "REF-002",
}

// maxImportDepth caps how many @import hops Claude Code follows.
const maxImportDepth = 5

// MemoryValidator checks CLAUDE.md memory files: @import targets exist,
// import chains are acyclic and shallow, and markdown links resolve.
type MemoryValidator struct{}

func (*MemoryValidator) Name() string      { return "memory" }
func (*MemoryValidator) RuleIDs() []string { return memoryRuleIDs }

func (v *MemoryValidator) Validate(path, content string, cfg *lint.Config) []lint.Diagnostic {
	var diags []lint.Diagnostic

	root := normalizeExistingPath(path)
	walk := &importWalk{
		cfg:     cfg,
		depths:  map[string]int{},
		local:   map[string][]mdutil.Import{},
		checkNF: cfg.IsRuleEnabled("CC-MEM-001"),
		cycle:   cfg.IsRuleEnabled("CC-MEM-002"),
		depth:   cfg.IsRuleEnabled("CC-MEM-003"),
	}
	walk.local[root] = mdutil.ExtractImports(content)
	diags = append(diags, walk.visit(root)...)

	if cfg.IsRuleEnabled("REF-002") {
		diags = append(diags, checkMarkdownLinks(path, content, cfg)...)
	}

	return diags
}

// importWalk follows @import chains breadth-unbounded but depth-bounded,
// re-visiting a file only when reached through a deeper chain so depth
// overflows are not masked by an earlier shallow visit.
type importWalk struct {
	cfg     *lint.Config
	depths  map[string]int
	stack   []string
	local   map[string][]mdutil.Import
	checkNF bool
	cycle   bool
	depth   bool
}

func (w *importWalk) visit(path string) []lint.Diagnostic {
	if !(w.checkNF || w.cycle || w.depth) {
		return nil
	}
	depth := len(w.stack)
	if prev, seen := w.depths[path]; seen && prev >= depth {
		return nil
	}
	w.depths[path] = depth

	imports, ok := w.importsFor(path)
	if !ok {
		return nil
	}

	var diags []lint.Diagnostic
	baseDir := filepath.Dir(path)
	w.stack = append(w.stack, path)

	for _, imp := range imports {
		resolved := resolveImportPath(imp.Path, baseDir)
		if !w.cfg.Filesystem().Exists(resolved) {
			if w.checkNF {
				diags = append(diags, lint.NewError(path, imp.Line, imp.Column, "CC-MEM-001",
					fmt.Sprintf("Import not found: @%s", imp.Path)).
					WithSuggestion("Check that the file exists: "+resolved))
			}
			continue
		}
		resolved = normalizeExistingPath(resolved)

		if w.cycle && containsString(w.stack, resolved) {
			diags = append(diags, lint.NewError(path, imp.Line, imp.Column, "CC-MEM-002",
				fmt.Sprintf("Circular @import detected: %s", formatImportCycle(w.stack, resolved))).
				WithSuggestion("Remove or break the circular @import chain"))
			continue
		}
		if w.depth && depth+1 > maxImportDepth {
			diags = append(diags, lint.NewError(path, imp.Line, imp.Column, "CC-MEM-003",
				fmt.Sprintf("Import depth exceeds %d hops at @%s", maxImportDepth, imp.Path)).
				WithSuggestion("Flatten or shorten the @import chain"))
			continue
		}
		if w.cycle || w.depth {
			diags = append(diags, w.visit(resolved)...)
		}
	}

	w.stack = w.stack[:len(w.stack)-1]
	return diags
}

// importsFor parses a file's @import list once per walk, preferring the
// project-wide cache shared across workers.
func (w *importWalk) importsFor(path string) ([]mdutil.Import, bool) {
	if imports, ok := w.local[path]; ok {
		return imports, true
	}
	if imports, ok := w.cfg.Imports.Get(path); ok {
		w.local[path] = imports
		return imports, true
	}
	content, err := w.cfg.Filesystem().ReadFile(path)
	if err != nil {
		return nil, false
	}
	imports := mdutil.ExtractImports(content)
	w.local[path] = imports
	w.cfg.Imports.Put(path, imports)
	return imports, true
}

func resolveImportPath(importPath, baseDir string) string {
	if rest, ok := strings.CutPrefix(importPath, "~/"); ok {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, rest)
		}
	}
	if filepath.IsAbs(importPath) {
		return filepath.Clean(importPath)
	}
	return filepath.Join(baseDir, importPath)
}

func normalizeExistingPath(path string) string {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}
	return filepath.Clean(path)
}

// formatImportCycle renders the portion of the stack forming the cycle,
// ending back at the repeated file.
func formatImportCycle(stack []string, target string) string {
	var cycle []string
	inCycle := false
	for _, p := range stack {
		if p == target {
			inCycle = true
		}
		if inCycle {
			cycle = append(cycle, p)
		}
	}
	cycle = append(cycle, target)
	return strings.Join(cycle, " -> ")
}

// checkMarkdownLinks flags local links whose target file does not exist.
func checkMarkdownLinks(path, content string, cfg *lint.Config) []lint.Diagnostic {
	var diags []lint.Diagnostic
	baseDir := filepath.Dir(path)

	for _, link := range mdutil.ExtractLinks(content) {
		if !isLocalFileLink(link.URL) {
			continue
		}
		target := link.URL
		if i := strings.IndexByte(target, '#'); i >= 0 {
			target = target[:i]
		}
		if target == "" {
			continue
		}
		resolved := resolveImportPath(target, baseDir)
		if cfg.Filesystem().Exists(resolved) {
			continue
		}
		diags = append(diags, lint.NewError(path, link.Line, link.Column, "REF-002",
			fmt.Sprintf("Link target not found: %s", link.URL)).
			WithSuggestion("Check that the file exists: "+resolved))
	}

	return diags
}

func isLocalFileLink(url string) bool {
	if url == "" || strings.HasPrefix(url, "#") || strings.HasPrefix(url, "//") {
		return false
	}
	for _, scheme := range []string{"http://", "https://", "mailto:", "tel:", "data:", "ftp://"} {
		if strings.HasPrefix(url, scheme) {
			return false
		}
	}
	return true
}
