// Copyright © 2025 The agnix authors

// Package rules implements the validator families dispatched by the lint
// registry. Each family handles one artifact kind (skills, hooks, MCP
// registries, ...) and emits diagnostics with spans suitable for the fix
// engine.
package rules

import (
	"strings"

	"github.com/avifenesh/agnix/filetype"
	"github.com/avifenesh/agnix/frontmatter"
	"github.com/avifenesh/agnix/lint"
)

// DefaultRegistry wires every validator family to the file types it
// handles. The LSP and CLI both build their registry here.
func DefaultRegistry() *lint.Registry {
	r := lint.NewRegistry()

	r.Register(&SkillValidator{}, filetype.Skill)
	r.Register(&HooksValidator{}, filetype.Hooks)
	r.Register(&McpValidator{}, filetype.Mcp)
	r.Register(&AgentValidator{}, filetype.Agent)
	r.Register(&MemoryValidator{}, filetype.ClaudeMd, filetype.ClaudeRule)
	r.Register(&CrossPlatformValidator{},
		filetype.ClaudeMd, filetype.ClaudeRule, filetype.GenericMarkdown,
		filetype.ClineRules, filetype.ClineRulesFolder)
	r.Register(&XMLValidator{},
		filetype.Skill, filetype.ClaudeMd, filetype.Agent, filetype.GenericMarkdown)
	r.Register(&PromptValidator{},
		filetype.Skill, filetype.ClaudeMd, filetype.Agent, filetype.GenericMarkdown)
	r.Register(&AmpValidator{}, filetype.AmpCheck, filetype.AmpSettings, filetype.ClaudeMd)
	r.Register(&ClineValidator{}, filetype.ClineRules, filetype.ClineRulesFolder)
	r.Register(&CursorValidator{}, filetype.CursorRule, filetype.CursorRulesLegacy)
	r.Register(&CodexValidator{}, filetype.CodexConfig)
	r.Register(&RooValidator{}, filetype.RooRules, filetype.RooModes, filetype.RooIgnore)
	r.Register(&KiroValidator{}, filetype.KiroSteering)

	return r
}

// lineStarts returns the byte offset of each line start, used to convert
// byte offsets into line/column positions in O(log n).
func lineStarts(content string) []int {
	starts := []int{0}
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// lineColAt converts a byte offset into a 1-based line and 0-based column.
func lineColAt(offset int, starts []int) (int, int) {
	lo, hi := 0, len(starts)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if starts[mid] <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo + 1, offset - starts[lo]
}

// fmKeyOffset returns the byte offset of a key within the frontmatter
// text, or -1 when the key is absent. The offset points at the key name,
// past any indentation.
func fmKeyOffset(fm, key string) int {
	offset := 0
	for _, line := range strings.SplitAfter(fm, "\n") {
		trimmed := strings.TrimLeft(line, " \t")
		indent := len(line) - len(trimmed)
		if strings.HasPrefix(trimmed, key+":") {
			return offset + indent
		}
		offset += len(line)
	}
	return -1
}

// fmKeyLineCol locates a frontmatter key in whole-file coordinates,
// falling back to the frontmatter start when the key is absent.
func fmKeyLineCol(parts frontmatter.Parts, starts []int, key string) (int, int) {
	off := fmKeyOffset(parts.Frontmatter, key)
	if off < 0 {
		return lineColAt(parts.Start, starts)
	}
	return lineColAt(parts.Start+off, starts)
}

// fmKeyLineRange returns the whole-file byte range of the line holding a
// frontmatter key, including its trailing newline. Used for fixes that
// insert a sibling key or delete the whole entry.
func fmKeyLineRange(content string, parts frontmatter.Parts, key string) (int, int, bool) {
	off := fmKeyOffset(parts.Frontmatter, key)
	if off < 0 {
		return 0, 0, false
	}
	abs := parts.Start + off
	start := strings.LastIndexByte(content[:abs], '\n') + 1
	end := strings.IndexByte(content[abs:], '\n')
	if end < 0 {
		end = len(content)
	} else {
		end = abs + end + 1
	}
	return start, end, true
}

// closestValue returns the entry of valid that matches invalid
// case-insensitively, or a substring match in either direction for
// inputs of three or more characters. Empty when nothing is close.
func closestValue(invalid string, valid []string) string {
	if invalid == "" {
		return ""
	}
	lower := strings.ToLower(invalid)
	for _, v := range valid {
		if strings.ToLower(v) == lower {
			return v
		}
	}
	if len(lower) < 3 {
		return ""
	}
	for _, v := range valid {
		vl := strings.ToLower(v)
		if strings.Contains(vl, lower) || strings.Contains(lower, vl) {
			return v
		}
	}
	return ""
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// isValidToolName accepts tools from the known list (with or without
// parenthesised parameters) and well-formed MCP tools of the shape
// mcp__<server>__<tool>.
func isValidToolName(tool string, known []string) bool {
	base := tool
	if i := strings.IndexByte(tool, '('); i >= 0 {
		base = tool[:i]
	}
	for _, k := range known {
		if base == k {
			return true
		}
	}
	if rest, ok := strings.CutPrefix(base, "mcp__"); ok {
		if i := strings.Index(rest, "__"); i > 0 && i+2 < len(rest) {
			return true
		}
	}
	return false
}
