// Copyright © 2025 The agnix authors

// Package filetype classifies paths into the closed set of recognised
// agent-configuration file shapes. Detection is a pure function of the
// file name and its (grand)parent directory names; user config can
// override the result with glob patterns.
package filetype

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Type tags one recognised file shape. Unknown files are skipped.
type Type int

const (
	Unknown Type = iota
	Skill
	ClaudeMd
	Agent
	AmpCheck
	AmpSettings
	Hooks
	Mcp
	ClaudeRule
	ClineRules
	ClineRulesFolder
	CodexConfig
	RooRules
	RooModes
	RooIgnore
	KiroSteering
	CursorRule
	CursorRulesLegacy
	GenericMarkdown
)

var typeNames = map[Type]string{
	Unknown:           "unknown",
	Skill:             "skill",
	ClaudeMd:          "memory",
	Agent:             "agent",
	AmpCheck:          "amp-check",
	AmpSettings:       "amp-settings",
	Hooks:             "hooks",
	Mcp:               "mcp",
	ClaudeRule:        "claude-rule",
	ClineRules:        "cline-rules",
	ClineRulesFolder:  "cline-rules-folder",
	CodexConfig:       "codex-config",
	RooRules:          "roo-rules",
	RooModes:          "roo-modes",
	RooIgnore:         "roo-ignore",
	KiroSteering:      "kiro-steering",
	CursorRule:        "cursor-rule",
	CursorRulesLegacy: "cursorrules-legacy",
	GenericMarkdown:   "markdown",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "unknown"
}

// memoryFileNames are the instruction-file names treated as memory files.
var memoryFileNames = map[string]bool{
	"CLAUDE.md":          true,
	"CLAUDE.local.md":    true,
	"AGENTS.md":          true,
	"AGENTS.local.md":    true,
	"AGENTS.override.md": true,
}

// IsInstructionFile reports whether the path names a cross-tool
// instruction file, the inputs to cross-file contradiction checks.
func IsInstructionFile(path string) bool {
	name := filepath.Base(path)
	return memoryFileNames[name] || name == ".clinerules" || name == ".cursorrules"
}

// excludedFilenames are common project files that look like markdown
// agent configs but never are. They routinely contain HTML, @mentions,
// and cross-tool references that would produce false positives.
var excludedFilenames = []string{
	"changelog.md", "history.md", "releases.md", "readme.md",
	"contributing.md", "license.md", "code_of_conduct.md", "security.md",
	"pull_request_template.md", "issue_template.md", "bug_report.md",
	"feature_request.md", "developer.md", "developers.md",
	"development.md", "hacking.md", "maintainers.md", "governance.md",
	"support.md", "authors.md", "credits.md", "thanks.md",
	"migration.md", "upgrading.md",
}

// documentationDirectories mark markdown as project documentation
// rather than agent configuration, anywhere in the path.
var documentationDirectories = []string{
	"docs", "doc", "documentation", "wiki", "licenses",
	"examples", "api-docs", "api_docs",
}

// excludedParents are directories whose markdown is GitHub metadata.
var excludedParents = []string{
	".github", "issue_template", "pull_request_template",
}

func isExcludedFilename(name string) bool {
	for _, excl := range excludedFilenames {
		if strings.EqualFold(name, excl) {
			return true
		}
	}
	return false
}

func isDocumentationDirectory(path string) bool {
	for _, comp := range strings.Split(filepath.ToSlash(path), "/") {
		for _, dir := range documentationDirectories {
			if strings.EqualFold(comp, dir) {
				return true
			}
		}
	}
	return false
}

func isExcludedParent(parent string) bool {
	for _, excl := range excludedParents {
		if strings.EqualFold(parent, excl) {
			return true
		}
	}
	return false
}

// Detect classifies a path by its file name and enclosing directories.
// The cascade checks the file name first, then the parent directory, and
// only rarely the grandparent.
func Detect(path string) Type {
	name := filepath.Base(path)
	parent := filepath.Base(filepath.Dir(path))
	grandparent := filepath.Base(filepath.Dir(filepath.Dir(path)))

	switch name {
	case "SKILL.md":
		return Skill
	case ".clinerules":
		return ClineRules
	case ".cursorrules":
		return CursorRulesLegacy
	case ".roorules":
		return RooRules
	case ".roomodes":
		return RooModes
	case ".rooignore":
		return RooIgnore
	case "config.toml":
		if parent == ".codex" {
			return CodexConfig
		}
		return Unknown
	case "settings.json", "settings.local.json":
		switch parent {
		case ".claude":
			return Hooks
		case ".amp":
			return AmpSettings
		}
		return Unknown
	case "mcp.json":
		return Mcp
	}
	if memoryFileNames[name] {
		return ClaudeMd
	}

	// MCP registries also appear as *.mcp.json or mcp-*.json.
	if strings.HasSuffix(name, ".mcp.json") ||
		(strings.HasPrefix(name, "mcp-") && strings.HasSuffix(name, ".json")) {
		return Mcp
	}

	if strings.HasSuffix(name, ".mdc") && parent == "rules" && grandparent == ".cursor" {
		return CursorRule
	}

	if strings.HasSuffix(name, ".md") {
		switch {
		case parent == "rules" && grandparent == ".claude":
			return ClaudeRule
		case parent == "checks" && grandparent == ".agents":
			return AmpCheck
		case parent == ".clinerules":
			return ClineRulesFolder
		case grandparent == ".roo" && (parent == "rules" || strings.HasPrefix(parent, "rules-")):
			return RooRules
		case parent == "steering" && grandparent == ".kiro":
			return KiroSteering
		}

		// Agent directories take precedence over the filename and
		// documentation exclusions: agents/README.md is still an agent.
		if parent == "agents" || grandparent == "agents" {
			return Agent
		}
		if isExcludedFilename(name) || isDocumentationDirectory(path) || isExcludedParent(parent) {
			return Unknown
		}
		return GenericMarkdown
	}

	return Unknown
}

// Overrides are user glob patterns reclassifying paths. Patterns match
// against slash-separated paths relative to the project root; `*` does
// not cross a separator, use `**` for recursion.
type Overrides struct {
	Exclude          []string
	IncludeAsMemory  []string
	IncludeAsGeneric []string
}

// ValidatePattern reports whether a glob pattern is well-formed.
func ValidatePattern(pattern string) bool {
	return doublestar.ValidatePattern(pattern)
}

// DetectWithOverrides classifies relPath, applying override globs with
// priority exclude > memory > generic > built-in detection. Patterns are
// assumed pre-validated; invalid ones never match.
func DetectWithOverrides(relPath string, ov Overrides) Type {
	slashed := filepath.ToSlash(relPath)
	if matchAny(ov.Exclude, slashed) {
		return Unknown
	}
	if matchAny(ov.IncludeAsMemory, slashed) {
		return ClaudeMd
	}
	if matchAny(ov.IncludeAsGeneric, slashed) {
		return GenericMarkdown
	}
	return Detect(relPath)
}

func matchAny(patterns []string, path string) bool {
	for _, p := range patterns {
		if ok, err := doublestar.Match(p, path); err == nil && ok {
			return true
		}
	}
	return false
}
