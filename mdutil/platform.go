// Copyright © 2025 The agnix authors

package mdutil

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// Portability scanning for instruction files. AGENTS.md is read by many
// tools (Codex CLI, OpenCode, Copilot, Cursor, Cline), so Claude-only
// constructs and hard-coded platform paths degrade silently elsewhere.

// PlatformFeature is a Claude-only construct found in an instruction file.
type PlatformFeature struct {
	Line        int
	Column      int
	Feature     string
	Description string
}

var (
	claudeHooksRe  = regexp.MustCompile(`(?i)^\s*-?\s*(?:type|event):\s*(?:PreToolExecution|PostToolExecution|Notification|Stop|SubagentStop)\b`)
	contextForkRe  = regexp.MustCompile(`(?i)^\s*context:\s*fork\b`)
	agentFieldRe   = regexp.MustCompile(`(?i)^\s*agent:\s*(?:Explore|Plan|general-purpose)\b`)
	allowedToolsRe = regexp.MustCompile(`(?i)^\s*allowed-tools:\s*.+`)
	hardCodedRe    = regexp.MustCompile(`(?i)(?:\.claude/|\.opencode/|\.cursor/|\.cline/|\.github/copilot/)`)
	mdHeaderRe     = regexp.MustCompile(`^#+\s+.+`)
)

// FindClaudeSpecificFeatures scans for hooks declarations, context
// forking, agent fields, and tool restrictions, none of which other
// AGENTS.md readers understand.
func FindClaudeSpecificFeatures(content string) []PlatformFeature {
	var out []PlatformFeature
	for i, line := range strings.Split(content, "\n") {
		if loc := claudeHooksRe.FindStringIndex(line); loc != nil {
			out = append(out, PlatformFeature{
				Line:        i + 1,
				Column:      loc[0] + 1,
				Feature:     "hooks",
				Description: "Claude Code hooks are not supported by other AGENTS.md readers",
			})
		}
		if loc := contextForkRe.FindStringIndex(line); loc != nil {
			out = append(out, PlatformFeature{
				Line:        i + 1,
				Column:      loc[0] + 1,
				Feature:     "context:fork",
				Description: "Context forking is Claude Code specific",
			})
		}
		if loc := agentFieldRe.FindStringIndex(line); loc != nil {
			out = append(out, PlatformFeature{
				Line:        i + 1,
				Column:      loc[0] + 1,
				Feature:     "agent",
				Description: "Agent field is Claude Code specific",
			})
		}
		if loc := allowedToolsRe.FindStringIndex(line); loc != nil {
			out = append(out, PlatformFeature{
				Line:        i + 1,
				Column:      loc[0] + 1,
				Feature:     "allowed-tools",
				Description: "Tool restrictions are Claude Code specific",
			})
		}
	}
	return out
}

// StructureIssue is a markdown layout problem in an instruction file.
type StructureIssue struct {
	Line       int
	Column     int
	Issue      string
	Suggestion string
}

// CheckMarkdownStructure flags instruction files with no headers at all
// and headers that skip levels.
func CheckMarkdownStructure(content string) []StructureIssue {
	var out []StructureIssue

	hasHeaders := false
	for _, line := range strings.Split(content, "\n") {
		if mdHeaderRe.MatchString(line) {
			hasHeaders = true
			break
		}
	}
	if !hasHeaders && strings.TrimSpace(content) != "" {
		out = append(out, StructureIssue{
			Line:       1,
			Column:     1,
			Issue:      "No markdown headers found",
			Suggestion: "Add headers (# Section) to structure the document for better readability",
		})
	}

	lastLevel := 0
	for i, line := range strings.Split(content, "\n") {
		if !mdHeaderRe.MatchString(line) {
			continue
		}
		level := 0
		for _, r := range line {
			if r != '#' {
				break
			}
			level++
		}
		if lastLevel > 0 && level > lastLevel+1 {
			out = append(out, StructureIssue{
				Line:       i + 1,
				Column:     1,
				Issue:      fmt.Sprintf("Header level skipped from %d to %d", lastLevel, level),
				Suggestion: fmt.Sprintf("Use h%d instead of h%d for proper hierarchy", lastLevel+1, level),
			})
		}
		lastLevel = level
	}
	return out
}

// HardCodedPath is a platform-specific config directory reference.
type HardCodedPath struct {
	Line     int
	Column   int
	Path     string
	Platform string
}

// FindHardCodedPaths scans for references to tool-private directories
// like .claude/ or .cursor/ that break when the file is shared across
// platforms.
func FindHardCodedPaths(content string) []HardCodedPath {
	var out []HardCodedPath
	for i, line := range strings.Split(content, "\n") {
		for _, loc := range hardCodedRe.FindAllStringIndex(line, -1) {
			match := line[loc[0]:loc[1]]
			lower := strings.ToLower(match)
			platform := "Unknown"
			switch {
			case strings.Contains(lower, ".claude"):
				platform = "Claude Code"
			case strings.Contains(lower, ".opencode"):
				platform = "OpenCode"
			case strings.Contains(lower, ".cursor"):
				platform = "Cursor"
			case strings.Contains(lower, ".cline"):
				platform = "Cline"
			case strings.Contains(lower, ".github/copilot"):
				platform = "GitHub Copilot"
			}
			out = append(out, HardCodedPath{
				Line:     i + 1,
				Column:   loc[0] + 1,
				Path:     match,
				Platform: platform,
			})
		}
	}
	return out
}

// CommandType classifies a package-manager invocation.
type CommandType int

const (
	CommandInstall CommandType = iota
	CommandBuild
	CommandTest
	CommandRun
	CommandOther
)

func (t CommandType) String() string {
	switch t {
	case CommandInstall:
		return "install"
	case CommandBuild:
		return "build"
	case CommandTest:
		return "test"
	case CommandRun:
		return "run"
	default:
		return "other"
	}
}

// BuildCommand is one package-manager invocation found in an instruction
// file.
type BuildCommand struct {
	Manager string
	Type    CommandType
	Line    int
}

// Package managers grouped by ecosystem. Conflicts are only meaningful
// within an ecosystem: `cargo build` next to `npm run build` is a
// polyglot repo, not a contradiction.
var managerFamilies = map[string]string{
	"npm":    "js",
	"yarn":   "js",
	"pnpm":   "js",
	"bun":    "js",
	"pip":    "py",
	"pip3":   "py",
	"poetry": "py",
	"uv":     "py",
}

var buildCommandRe = regexp.MustCompile(`(?:^|[\s` + "`" + `$])(npm|yarn|pnpm|bun|pip3?|poetry|uv)\s+([a-z][a-z-]*)`)

// ExtractBuildCommands finds package-manager invocations line by line,
// including inside fenced code blocks where most command examples live.
func ExtractBuildCommands(content string) []BuildCommand {
	var out []BuildCommand
	for i, line := range strings.Split(content, "\n") {
		for _, m := range buildCommandRe.FindAllStringSubmatch(line, -1) {
			manager, verb := m[1], m[2]
			var typ CommandType
			switch {
			case verb == "install" || verb == "ci" || verb == "add" || verb == "sync":
				typ = CommandInstall
			case strings.Contains(verb, "build"):
				typ = CommandBuild
			case strings.Contains(verb, "test"):
				typ = CommandTest
			case verb == "run" || verb == "start" || verb == "dev":
				typ = CommandRun
			default:
				typ = CommandOther
			}
			out = append(out, BuildCommand{Manager: manager, Type: typ, Line: i + 1})
		}
	}
	return out
}

// FileCommands pairs an instruction file with the commands it mentions.
type FileCommands struct {
	Path     string
	Commands []BuildCommand
}

// BuildConflict reports two instruction files prescribing different
// package managers for the same kind of command.
type BuildConflict struct {
	File1        string
	File1Line    int
	File1Manager string
	File2        string
	File2Manager string
	Type         CommandType
}

// DetectBuildConflicts compares every pair of files and reports the first
// disagreement per (pair, command type). Input order is preserved, so
// pre-sorted input yields deterministic output.
func DetectBuildConflicts(files []FileCommands) []BuildConflict {
	var out []BuildConflict
	for i := 0; i < len(files); i++ {
		for j := i + 1; j < len(files); j++ {
			out = append(out, conflictsBetween(files[i], files[j])...)
		}
	}
	return out
}

func conflictsBetween(a, b FileCommands) []BuildConflict {
	var out []BuildConflict
	seen := make(map[CommandType]bool)
	for _, ca := range a.Commands {
		if seen[ca.Type] {
			continue
		}
		famA, ok := managerFamilies[ca.Manager]
		if !ok {
			continue
		}
		for _, cb := range b.Commands {
			if cb.Type != ca.Type || cb.Manager == ca.Manager {
				continue
			}
			if managerFamilies[cb.Manager] != famA {
				continue
			}
			out = append(out, BuildConflict{
				File1:        a.Path,
				File1Line:    ca.Line,
				File1Manager: ca.Manager,
				File2:        b.Path,
				File2Manager: cb.Manager,
				Type:         ca.Type,
			})
			seen[ca.Type] = true
			break
		}
	}
	return out
}

// ToolConstraint is an instruction allowing or forbidding a named tool.
type ToolConstraint struct {
	Tool    string
	Allowed bool
	Line    int
}

var (
	disallowToolRe = regexp.MustCompile(`(?i)\b(?:do not use|don't use|never use|avoid using)\s+` + "`?" + `([A-Za-z][\w.-]+)` + "`?")
	allowToolRe    = regexp.MustCompile(`(?i)\b(?:always use|prefer|use only)\s+` + "`?" + `([A-Za-z][\w.-]+)` + "`?")
)

// ExtractToolConstraints finds explicit allow/disallow statements about
// tools. Disallow phrases are matched first and blanked so "never use X"
// is not also read as "use X".
func ExtractToolConstraints(content string) []ToolConstraint {
	var out []ToolConstraint
	for i, line := range strings.Split(content, "\n") {
		rest := line
		for _, m := range disallowToolRe.FindAllStringSubmatchIndex(line, -1) {
			tool := line[m[2]:m[3]]
			out = append(out, ToolConstraint{Tool: tool, Allowed: false, Line: i + 1})
			rest = rest[:m[0]] + strings.Repeat(" ", m[1]-m[0]) + rest[m[1]:]
		}
		for _, m := range allowToolRe.FindAllStringSubmatch(rest, -1) {
			out = append(out, ToolConstraint{Tool: m[1], Allowed: true, Line: i + 1})
		}
	}
	return out
}

// FileConstraints pairs an instruction file with its tool constraints.
type FileConstraints struct {
	Path        string
	Constraints []ToolConstraint
}

// ToolConflict reports a tool allowed in one instruction file and
// disallowed in another.
type ToolConflict struct {
	Tool         string
	AllowFile    string
	AllowLine    int
	DisallowFile string
}

// DetectToolConflicts reports every tool that one file allows and
// another disallows, keyed case-insensitively.
func DetectToolConflicts(files []FileConstraints) []ToolConflict {
	type mention struct {
		file string
		line int
	}
	allows := make(map[string][]mention)
	disallows := make(map[string][]mention)
	var order []string
	for _, f := range files {
		for _, c := range f.Constraints {
			key := strings.ToLower(c.Tool)
			if _, seen := allows[key]; !seen {
				if _, seen := disallows[key]; !seen {
					order = append(order, key)
				}
			}
			if c.Allowed {
				allows[key] = append(allows[key], mention{f.Path, c.Line})
			} else {
				disallows[key] = append(disallows[key], mention{f.Path, c.Line})
			}
		}
	}

	var out []ToolConflict
	for _, key := range order {
		for _, a := range allows[key] {
			for _, d := range disallows[key] {
				if a.file == d.file {
					continue
				}
				out = append(out, ToolConflict{
					Tool:         key,
					AllowFile:    a.file,
					AllowLine:    a.line,
					DisallowFile: d.file,
				})
			}
		}
	}
	return out
}

// Layer is one instruction file categorised by the tool that reads it.
type Layer struct {
	Path                string
	Kind                string
	DocumentsPrecedence bool
}

var precedenceRe = regexp.MustCompile(`(?i)\b(?:precedence|takes priority|overrides|is overridden)\b`)

// CategorizeLayer classifies an instruction file by filename and records
// whether its content documents precedence between layers.
func CategorizeLayer(path, content string) Layer {
	base := filepath.Base(path)
	kind := "other"
	switch {
	case strings.HasPrefix(base, "AGENTS."):
		kind = "AGENTS.md"
	case strings.HasPrefix(base, "CLAUDE."):
		kind = "CLAUDE.md"
	case base == ".clinerules":
		kind = ".clinerules"
	case base == ".cursorrules":
		kind = ".cursorrules"
	}
	return Layer{
		Path:                path,
		Kind:                kind,
		DocumentsPrecedence: precedenceRe.MatchString(content),
	}
}

// PrecedenceIssue reports multiple instruction layers with no documented
// ordering between them.
type PrecedenceIssue struct {
	Description string
	Layers      []Layer
}

// DetectPrecedenceIssues returns a non-nil issue when two or more
// distinct instruction layers coexist and none of them says which wins.
func DetectPrecedenceIssues(layers []Layer) *PrecedenceIssue {
	kinds := make(map[string]bool)
	for _, l := range layers {
		kinds[l.Kind] = true
		if l.DocumentsPrecedence {
			return nil
		}
	}
	if len(kinds) < 2 {
		return nil
	}
	names := make([]string, 0, len(kinds))
	for k := range kinds {
		names = append(names, k)
	}
	sort.Strings(names)
	return &PrecedenceIssue{
		Description: fmt.Sprintf(
			"%d instruction layers (%s) without documented precedence",
			len(kinds), strings.Join(names, ", ")),
		Layers: layers,
	}
}
