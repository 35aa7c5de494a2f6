// Copyright © 2025 The agnix authors

package lint

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// RuleConfig holds per-category enable flags and explicit rule/validator
// disable lists. All categories default to enabled.
type RuleConfig struct {
	Skills            bool `mapstructure:"skills" json:"skills"`
	Hooks             bool `mapstructure:"hooks" json:"hooks"`
	Agents            bool `mapstructure:"agents" json:"agents"`
	Memory            bool `mapstructure:"memory" json:"memory"`
	XML               bool `mapstructure:"xml" json:"xml"`
	MCP               bool `mapstructure:"mcp" json:"mcp"`
	Imports           bool `mapstructure:"imports" json:"imports"`
	CrossPlatform     bool `mapstructure:"cross_platform" json:"cross_platform"`
	AgentsMd          bool `mapstructure:"agents_md" json:"agents_md"`
	Cline             bool `mapstructure:"cline" json:"cline"`
	Cursor            bool `mapstructure:"cursor" json:"cursor"`
	Codex             bool `mapstructure:"codex" json:"codex"`
	Roo               bool `mapstructure:"roo" json:"roo"`
	Kiro              bool `mapstructure:"kiro" json:"kiro"`
	Amp               bool `mapstructure:"amp" json:"amp"`
	PromptEngineering bool `mapstructure:"prompt_engineering" json:"prompt_engineering"`

	// DisabledRules suppresses individual rule ids regardless of category.
	DisabledRules []string `mapstructure:"disabled_rules" json:"disabled_rules"`

	// DisabledValidators suppresses whole validator families by name.
	DisabledValidators []string `mapstructure:"disabled_validators" json:"disabled_validators"`
}

// FilesConfig overrides file-type detection with user globs.
// Priority: Exclude > IncludeAsMemory > IncludeAsGeneric > built-in detection.
type FilesConfig struct {
	// IncludeAsMemory forces matching paths to be validated as memory
	// files (CLAUDE.md semantics).
	IncludeAsMemory []string `mapstructure:"include_as_memory" json:"include_as_memory"`

	// IncludeAsGeneric forces matching paths to be validated as generic
	// markdown (prompt/XML/link checks only).
	IncludeAsGeneric []string `mapstructure:"include_as_generic" json:"include_as_generic"`

	// Exclude removes matching paths from validation entirely.
	Exclude []string `mapstructure:"exclude" json:"exclude"`
}

// Config is the process-wide linter configuration. It is read-mostly: the
// pipeline clones it per project walk and treats the clone as immutable;
// the LSP keeps it behind a read-write lock.
type Config struct {
	// Severity is the minimum severity to report ("error", "warning", "info").
	Severity string `mapstructure:"severity" json:"severity"`

	// Target selects the tool being linted for. Tool-specific rules for
	// other tools are suppressed. "generic" enables everything.
	Target string `mapstructure:"target" json:"target"`

	// Rules holds category flags and disable lists.
	Rules RuleConfig `mapstructure:"rules" json:"rules"`

	// Exclude are project-level glob patterns pruned during the walk.
	// Invalid patterns are a config-load error.
	Exclude []string `mapstructure:"exclude" json:"exclude"`

	// Files holds classification-override globs. Invalid patterns here are
	// dropped with a warning rather than failing the load.
	Files FilesConfig `mapstructure:"files" json:"files"`

	// ToolVersions pins tool versions for version-aware validation.
	ToolVersions map[string]string `mapstructure:"tool_versions" json:"tool_versions"`

	// SpecRevisions pins spec revisions (e.g. the MCP protocol date).
	SpecRevisions map[string]string `mapstructure:"spec_revisions" json:"spec_revisions"`

	// MaxFilesToValidate caps the project walk. Zero means unlimited.
	MaxFilesToValidate int `mapstructure:"max_files_to_validate" json:"max_files_to_validate"`

	// Locale selects the message language. Only "en" ships currently.
	Locale string `mapstructure:"locale" json:"locale"`

	// RootDir is the resolved project root, set by the pipeline.
	RootDir string `mapstructure:"-" json:"-"`

	// FS is the filesystem handle used by validators for sibling reads.
	// Defaults to the OS filesystem.
	FS FileSystem `mapstructure:"-" json:"-"`

	// Imports is the shared import cache, initialised per project walk.
	Imports *ImportCache `mapstructure:"-" json:"-"`
}

// DefaultConfig returns a config with every category enabled, generic
// target, and the OS filesystem.
func DefaultConfig() *Config {
	return &Config{
		Severity: "info",
		Target:   "generic",
		Rules: RuleConfig{
			Skills: true, Hooks: true, Agents: true, Memory: true,
			XML: true, MCP: true, Imports: true, CrossPlatform: true,
			AgentsMd: true, Cline: true, Cursor: true, Codex: true,
			Roo: true, Kiro: true, Amp: true, PromptEngineering: true,
		},
		Locale: "en",
		FS:     OSFileSystem{},
	}
}

// Clone returns a shallow copy safe to mutate independently. Slices and
// maps are copied; the FS handle and import cache are shared.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Exclude = append([]string(nil), c.Exclude...)
	clone.Files.IncludeAsMemory = append([]string(nil), c.Files.IncludeAsMemory...)
	clone.Files.IncludeAsGeneric = append([]string(nil), c.Files.IncludeAsGeneric...)
	clone.Files.Exclude = append([]string(nil), c.Files.Exclude...)
	clone.Rules.DisabledRules = append([]string(nil), c.Rules.DisabledRules...)
	clone.Rules.DisabledValidators = append([]string(nil), c.Rules.DisabledValidators...)
	if c.ToolVersions != nil {
		clone.ToolVersions = make(map[string]string, len(c.ToolVersions))
		for k, v := range c.ToolVersions {
			clone.ToolVersions[k] = v
		}
	}
	if c.SpecRevisions != nil {
		clone.SpecRevisions = make(map[string]string, len(c.SpecRevisions))
		for k, v := range c.SpecRevisions {
			clone.SpecRevisions[k] = v
		}
	}
	return &clone
}

// LoadConfig reads .agnix.toml from dir. A missing file returns defaults;
// a malformed file returns an error. Unknown fields are tolerated.
func LoadConfig(dir string) (*Config, error) {
	cfg := DefaultConfig()
	path := filepath.Join(dir, ".agnix.toml")
	if _, err := os.Stat(path); err != nil {
		return cfg, nil
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	cfg.FS = OSFileSystem{}
	return cfg, nil
}

// toolRulePrefixes maps tool-specific rule-id prefixes to the tool they
// belong to. Generic prefixes (AS-, XML-, MCP-, REF-, XP-, AGM-, PE-,
// VER-) are absent and apply to every target.
var toolRulePrefixes = []struct {
	prefix string
	tool   string
}{
	{"CC-", "claude-code"},
	{"CDX-", "codex"},
	{"CLN-", "cline"},
	{"ROO-", "roo"},
	{"KIRO-", "kiro"},
	{"AMP-", "amp"},
	{"CUR-", "cursor"},
}

// IsRuleEnabled resolves whether a rule id should run:
// explicitly disabled ⇒ off; tool-specific for another target ⇒ off;
// category disabled ⇒ off; otherwise on. Unknown ids default to on.
func (c *Config) IsRuleEnabled(ruleID string) bool {
	for _, disabled := range c.Rules.DisabledRules {
		if disabled == ruleID {
			return false
		}
	}
	if !c.isRuleForTarget(ruleID) {
		return false
	}
	return c.isCategoryEnabled(ruleID)
}

func (c *Config) isRuleForTarget(ruleID string) bool {
	for _, entry := range toolRulePrefixes {
		if strings.HasPrefix(ruleID, entry.prefix) {
			return c.Target == entry.tool || c.Target == "generic" || c.Target == ""
		}
	}
	return true
}

func (c *Config) isCategoryEnabled(ruleID string) bool {
	switch {
	case strings.HasPrefix(ruleID, "AS-") || strings.HasPrefix(ruleID, "CC-SK-"):
		return c.Rules.Skills
	case strings.HasPrefix(ruleID, "CC-HK-"):
		return c.Rules.Hooks
	case strings.HasPrefix(ruleID, "CC-AG-"):
		return c.Rules.Agents
	case strings.HasPrefix(ruleID, "CC-MEM-"):
		return c.Rules.Memory
	case strings.HasPrefix(ruleID, "XML-"):
		return c.Rules.XML
	case strings.HasPrefix(ruleID, "MCP-"):
		return c.Rules.MCP
	case strings.HasPrefix(ruleID, "REF-"):
		return c.Rules.Imports
	case strings.HasPrefix(ruleID, "XP-") || strings.HasPrefix(ruleID, "VER-"):
		return c.Rules.CrossPlatform
	case strings.HasPrefix(ruleID, "AGM-"):
		return c.Rules.AgentsMd
	case strings.HasPrefix(ruleID, "CLN-"):
		return c.Rules.Cline
	case strings.HasPrefix(ruleID, "CUR-"):
		return c.Rules.Cursor
	case strings.HasPrefix(ruleID, "CDX-"):
		return c.Rules.Codex
	case strings.HasPrefix(ruleID, "ROO-"):
		return c.Rules.Roo
	case strings.HasPrefix(ruleID, "KIRO-"):
		return c.Rules.Kiro
	case strings.HasPrefix(ruleID, "AMP-"):
		return c.Rules.Amp
	case strings.HasPrefix(ruleID, "PE-"):
		return c.Rules.PromptEngineering
	default:
		return true
	}
}

// IsValidatorDisabled reports whether a validator family was disabled by
// name in the config.
func (c *Config) IsValidatorDisabled(name string) bool {
	for _, n := range c.Rules.DisabledValidators {
		if n == name {
			return true
		}
	}
	return false
}

// MinSeverity converts the configured threshold to a Severity. Diagnostics
// below the threshold are filtered from CLI output (the LSP publishes all).
func (c *Config) MinSeverity() Severity {
	switch strings.ToLower(c.Severity) {
	case "error":
		return SeverityError
	case "warning":
		return SeverityWarning
	default:
		return SeverityInfo
	}
}

// HasVersionPins reports whether any tool version or spec revision is
// pinned. Used by the VER-001 project check.
func (c *Config) HasVersionPins() bool {
	return len(c.ToolVersions) > 0 || len(c.SpecRevisions) > 0
}

// Filesystem returns the configured FS handle, defaulting to the OS.
func (c *Config) Filesystem() FileSystem {
	if c.FS == nil {
		return OSFileSystem{}
	}
	return c.FS
}
