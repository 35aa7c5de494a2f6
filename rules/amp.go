// Copyright © 2025 The agnix authors

package rules

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/avifenesh/agnix/frontmatter"
	"github.com/avifenesh/agnix/lint"
)

var ampRuleIDs = []string{"AMP-001", "AMP-002", "AMP-003", "AMP-004"}

var validAmpSeverities = []string{"low", "medium", "high", "critical"}

var validAmpCheckKeys = []string{"name", "description", "severity-default", "tools"}

var validAmpSettingsKeys = []string{
	"model", "models", "instructions", "checks", "watch", "sandbox",
	"approval", "server", "parallelism", "theme", "vim", "wsl", "env",
	"shell", "plugins", "lsp", "disable_summaries", "summarize",
	"trusted", "history", "notify",
}

// AmpValidator checks Amp artifacts: .agents/checks/*.md check files,
// .amp/settings.json, and the globs frontmatter Amp reads from AGENTS.md.
type AmpValidator struct{}

func (*AmpValidator) Name() string      { return "amp" }
func (*AmpValidator) RuleIDs() []string { return ampRuleIDs }

func (v *AmpValidator) Validate(path, content string, cfg *lint.Config) []lint.Diagnostic {
	switch {
	case isAmpCheckPath(path):
		return validateAmpCheck(path, content, cfg)
	case strings.HasSuffix(path, ".json"):
		return validateAmpSettings(path, content, cfg)
	default:
		return validateAmpAgentsGlobs(path, content, cfg)
	}
}

func isAmpCheckPath(path string) bool {
	if !strings.HasSuffix(path, ".md") {
		return false
	}
	parts := strings.Split(filepath.ToSlash(path), "/")
	for i := 0; i+1 < len(parts); i++ {
		if strings.EqualFold(parts[i], ".agents") && strings.EqualFold(parts[i+1], "checks") {
			return true
		}
	}
	return false
}

func validateAmpCheck(path, content string, cfg *lint.Config) []lint.Diagnostic {
	check001 := cfg.IsRuleEnabled("AMP-001")
	check002 := cfg.IsRuleEnabled("AMP-002")
	if !check001 && !check002 {
		return nil
	}

	var diags []lint.Diagnostic
	parts := frontmatter.Split(content)
	if !parts.HasFrontmatter || !parts.HasClosing {
		if check001 {
			diags = append(diags, lint.NewError(path, 1, 0, "AMP-001",
				"Amp check files must include YAML frontmatter").
				WithSuggestion("Add frontmatter with at least `name` and a markdown body"))
		}
		return diags
	}

	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(parts.Frontmatter), &doc); err != nil {
		if check001 {
			diags = append(diags, lint.NewError(path, 1, 0, "AMP-001",
				fmt.Sprintf("Invalid YAML frontmatter in Amp check file: %v", err)).
				WithSuggestion("Fix YAML syntax in frontmatter"))
		}
		return diags
	}
	mapping := yamlDocumentMapping(&doc)
	if mapping == nil {
		if check001 {
			diags = append(diags, lint.NewError(path, 1, 0, "AMP-001",
				"Amp check frontmatter must be a YAML mapping").
				WithSuggestion("Use key-value frontmatter fields like `name`, `description`, and `tools`"))
		}
		return diags
	}

	if check001 {
		for i := 0; i+1 < len(mapping.Content); i += 2 {
			key := mapping.Content[i].Value
			value := resolveYAMLAlias(mapping.Content[i+1])
			keyLine := ampFrontmatterKeyLine(parts.Frontmatter, key)

			if !containsString(validAmpCheckKeys, key) {
				diags = append(diags, lint.NewError(path, keyLine, 0, "AMP-001",
					fmt.Sprintf("Unknown Amp check frontmatter key '%s'", key)).
					WithSuggestion("Allowed keys are: name, description, severity-default, tools"))
			}
			if key == "description" && !isYAMLString(value) {
				diags = append(diags, lint.NewError(path, keyLine, 0, "AMP-001",
					"Amp check `description` must be a string").
					WithSuggestion("Set `description` to a string value"))
			}
			if key == "tools" && !isValidAmpToolsField(value) {
				diags = append(diags, lint.NewError(path, keyLine, 0, "AMP-001",
					"Amp check `tools` must be a string or an array of strings").
					WithSuggestion("Set `tools` to a string or list of strings"))
			}
		}

		name := yamlMapValue(mapping, "name")
		if name == nil || !isYAMLString(resolveYAMLAlias(name)) ||
			strings.TrimSpace(resolveYAMLAlias(name).Value) == "" {
			diags = append(diags, lint.NewError(path,
				ampFrontmatterKeyLine(parts.Frontmatter, "name"), 0, "AMP-001",
				"Amp check frontmatter is missing required `name` field").
				WithSuggestion("Add `name: your-check-name` to frontmatter"))
		}
	}

	if check002 {
		if value := yamlMapValue(mapping, "severity-default"); value != nil {
			value = resolveYAMLAlias(value)
			keyLine := ampFrontmatterKeyLine(parts.Frontmatter, "severity-default")
			switch {
			case !isYAMLString(value):
				diags = append(diags, lint.NewWarning(path, keyLine, 0, "AMP-002",
					"severity-default must be a string").
					WithSuggestion("Set `severity-default` to a string value"))
			case !containsString(validAmpSeverities, value.Value):
				diags = append(diags, lint.NewWarning(path, keyLine, 0, "AMP-002",
					fmt.Sprintf("Invalid severity-default value '%s' (expected low, medium, high, or critical)", value.Value)).
					WithSuggestion("Set `severity-default` to one of: low, medium, high, critical"))
			}
		}
	}

	return diags
}

// validateAmpAgentsGlobs checks the optional globs frontmatter Amp reads
// from AGENTS.md to scope instructions to matching files.
func validateAmpAgentsGlobs(path, content string, cfg *lint.Config) []lint.Diagnostic {
	if !cfg.IsRuleEnabled("AMP-003") {
		return nil
	}
	filename := filepath.Base(path)
	if filename != "AGENTS.md" && filename != "AGENTS.local.md" && filename != "AGENTS.override.md" {
		return nil
	}

	parts := frontmatter.Split(content)
	if !parts.HasFrontmatter || !parts.HasClosing {
		return nil
	}
	var doc yaml.Node
	if yaml.Unmarshal([]byte(parts.Frontmatter), &doc) != nil {
		return nil
	}
	mapping := yamlDocumentMapping(&doc)
	if mapping == nil {
		return nil
	}
	globsNode := yamlMapValue(mapping, "globs")
	if globsNode == nil {
		return nil
	}
	globsNode = resolveYAMLAlias(globsNode)
	globsLine := ampFrontmatterKeyLine(parts.Frontmatter, "globs")

	var patterns []string
	switch {
	case isYAMLString(globsNode):
		patterns = []string{globsNode.Value}
	case globsNode.Kind == yaml.SequenceNode:
		for _, entry := range globsNode.Content {
			entry = resolveYAMLAlias(entry)
			if !isYAMLString(entry) {
				return []lint.Diagnostic{lint.NewWarning(path, globsLine, 0, "AMP-003",
					"AGENTS.md frontmatter `globs` must contain only string patterns").
					WithSuggestion("Set `globs` to a string or list of string patterns")}
			}
			patterns = append(patterns, entry.Value)
		}
	default:
		return []lint.Diagnostic{lint.NewWarning(path, globsLine, 0, "AMP-003",
			"AGENTS.md frontmatter `globs` must be a string or array of strings").
			WithSuggestion("Set `globs` to a string or list of string patterns")}
	}

	var diags []lint.Diagnostic
	for _, pattern := range patterns {
		if !doublestar.ValidatePattern(normalizeAmpGlob(pattern)) {
			diags = append(diags, lint.NewWarning(path, globsLine, 0, "AMP-003",
				fmt.Sprintf("Invalid AGENTS.md glob pattern '%s'", pattern)).
				WithSuggestion("Fix the glob syntax in `globs` frontmatter"))
		}
	}
	return diags
}

func validateAmpSettings(path, content string, cfg *lint.Config) []lint.Diagnostic {
	if !cfg.IsRuleEnabled("AMP-004") {
		return nil
	}

	var settings map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &settings); err != nil {
		if json.Valid([]byte(content)) {
			return []lint.Diagnostic{lint.NewError(path, 1, 0, "AMP-004",
				"Amp settings must be a top-level JSON object").
				WithSuggestion("Wrap settings keys in a JSON object")}
		}
		return []lint.Diagnostic{lint.NewError(path, 1, 0, "AMP-004",
			fmt.Sprintf("Failed to parse Amp settings JSON: %v", err)).
			WithSuggestion("Fix JSON syntax in .amp/settings.json")}
	}

	keys := make([]string, 0, len(settings))
	for key := range settings {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var diags []lint.Diagnostic
	for _, key := range keys {
		if containsString(validAmpSettingsKeys, key) {
			continue
		}
		diags = append(diags, lint.NewError(path, findJSONKeyLine(content, key), 0, "AMP-004",
			fmt.Sprintf("Unknown Amp settings key '%s'", key)).
			WithSuggestion("Remove or rename unknown settings keys"))
	}
	return diags
}

func isValidAmpToolsField(value *yaml.Node) bool {
	if isYAMLString(value) {
		return true
	}
	if value == nil || value.Kind != yaml.SequenceNode {
		return false
	}
	for _, entry := range value.Content {
		if !isYAMLString(resolveYAMLAlias(entry)) {
			return false
		}
	}
	return true
}

// normalizeAmpGlob mirrors Amp's matching: bare patterns match at any
// depth unless anchored.
func normalizeAmpGlob(pattern string) string {
	if strings.HasPrefix(pattern, "./") || strings.HasPrefix(pattern, "../") || strings.HasPrefix(pattern, "**/") {
		return pattern
	}
	return "**/" + pattern
}

func ampFrontmatterKeyLine(fm, key string) int {
	for i, line := range strings.Split(fm, "\n") {
		trimmed := strings.TrimLeft(line, " \t")
		if rest, ok := strings.CutPrefix(trimmed, key); ok &&
			strings.HasPrefix(strings.TrimLeft(rest, " \t"), ":") {
			return i + 1
		}
	}
	return 1
}

func findJSONKeyLine(content, key string) int {
	needle := `"` + key + `"`
	for i, line := range strings.Split(content, "\n") {
		pos := strings.Index(line, needle)
		if pos < 0 {
			continue
		}
		after := strings.TrimLeft(line[pos+len(needle):], " \t")
		if strings.HasPrefix(after, ":") {
			return i + 1
		}
	}
	return 1
}

// yamlDocumentMapping unwraps a parsed document node down to its root
// mapping, or nil when the document is not a mapping.
func yamlDocumentMapping(doc *yaml.Node) *yaml.Node {
	node := doc
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return nil
		}
		node = node.Content[0]
	}
	node = resolveYAMLAlias(node)
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	return node
}

func isYAMLString(n *yaml.Node) bool {
	return n != nil && n.Kind == yaml.ScalarNode &&
		(n.Tag == "!!str" || n.Tag == "" || n.Tag == "?")
}
