// Copyright © 2025 The agnix authors

package rules

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/avifenesh/agnix/lint"
	"github.com/avifenesh/agnix/spanutil"
)

var codexRuleIDs = []string{"CDX-000", "CDX-001", "CDX-002", "CDX-004", "CDX-005"}

var validApprovalModes = []string{"suggest", "auto-edit", "full-auto"}

var validFullAutoErrorModes = []string{"ask-user", "ignore-and-continue"}

// projectDocMaxBytes is the hard cap Codex CLI enforces on AGENTS.md size.
const projectDocMaxBytes = 65536

// knownCodexKeys are the top-level keys Codex CLI reads from
// .codex/config.toml.
var knownCodexKeys = []string{
	"model", "provider", "providers", "approvalMode", "fullAutoErrorMode",
	"notify", "project_doc_max_bytes", "mcp_servers", "profile", "profiles",
	"sandbox_permissions", "approval_policy", "disable_response_storage",
	"history", "shell_environment_policy", "sandbox_mode", "instructions",
	"file_opener", "hide_agent_reasoning", "model_reasoning_effort", "tui",
}

// CodexValidator checks .codex/config.toml: TOML syntax, approval and
// error-mode values, unknown keys, and the project doc size cap.
type CodexValidator struct{}

func (*CodexValidator) Name() string      { return "codex" }
func (*CodexValidator) RuleIDs() []string { return codexRuleIDs }

func (v *CodexValidator) Validate(path, content string, cfg *lint.Config) []lint.Diagnostic {
	var raw map[string]any
	if _, err := toml.Decode(content, &raw); err != nil {
		if !cfg.IsRuleEnabled("CDX-000") {
			return nil
		}
		line := 1
		var perr toml.ParseError
		if ok := asTomlParseError(err, &perr); ok {
			line = perr.Position.Line
		}
		return []lint.Diagnostic{lint.NewError(path, line, 0, "CDX-000",
			fmt.Sprintf("Invalid TOML syntax: %v", err)).
			WithSuggestion("Fix the TOML syntax in .codex/config.toml")}
	}

	var diags []lint.Diagnostic
	keyLines := buildTOMLKeyLines(content)
	lineOf := func(key string) int {
		if line, ok := keyLines[key]; ok {
			return line
		}
		return 1
	}

	if cfg.IsRuleEnabled("CDX-004") {
		keys := make([]string, 0, len(raw))
		for key := range raw {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			if containsString(knownCodexKeys, key) {
				continue
			}
			diags = append(diags, lint.NewWarning(path, lineOf(key), 0, "CDX-004",
				fmt.Sprintf("Unknown config key '%s'", key)).
				WithSuggestion("Remove or rename unknown keys in .codex/config.toml"))
		}
	}

	if cfg.IsRuleEnabled("CDX-001") {
		diags = append(diags, checkCodexEnum(path, content, raw, "approvalMode",
			"CDX-001", validApprovalModes, lineOf)...)
	}
	if cfg.IsRuleEnabled("CDX-002") {
		diags = append(diags, checkCodexEnum(path, content, raw, "fullAutoErrorMode",
			"CDX-002", validFullAutoErrorModes, lineOf)...)
	}

	if cfg.IsRuleEnabled("CDX-005") {
		if value, ok := raw["project_doc_max_bytes"]; ok {
			line := lineOf("project_doc_max_bytes")
			size, isInt := value.(int64)
			switch {
			case !isInt:
				diags = append(diags, lint.NewError(path, line, 0, "CDX-005",
					"project_doc_max_bytes must be an integer").
					WithSuggestion("Set project_doc_max_bytes to a byte count, at most 65536"))
			case size > projectDocMaxBytes:
				diags = append(diags, lint.NewError(path, line, 0, "CDX-005",
					fmt.Sprintf("project_doc_max_bytes %d exceeds the %d limit", size, projectDocMaxBytes)).
					WithSuggestion("Set project_doc_max_bytes to at most 65536"))
			}
		}
	}

	return diags
}

// checkCodexEnum validates a string-valued key against its allowed set,
// attaching an unsafe fix when a close valid value exists.
func checkCodexEnum(path, content string, raw map[string]any, key, rule string, valid []string, lineOf func(string) int) []lint.Diagnostic {
	value, ok := raw[key]
	if !ok {
		return nil
	}
	line := lineOf(key)

	str, isString := value.(string)
	if !isString {
		return []lint.Diagnostic{lint.NewError(path, line, 1, rule,
			fmt.Sprintf("%s must be a string", key)).
			WithSuggestion(fmt.Sprintf("Set %s to one of: %s", key, strings.Join(valid, ", ")))}
	}
	if containsString(valid, str) {
		return nil
	}

	d := lint.NewError(path, line, 1, rule,
		fmt.Sprintf("Invalid %s '%s': must be one of %s", key, str, strings.Join(valid, ", "))).
		WithSuggestion(fmt.Sprintf("Set %s to one of: %s", key, strings.Join(valid, ", ")))
	if suggested, ok := findClosestValue(str, valid); ok {
		if span, found := spanutil.FindUniqueTOMLStringValue(content, key, str); found {
			d = d.WithFix(lint.ReplaceFix(span.Start, span.End, suggested,
				fmt.Sprintf("Replace with '%s'", suggested)))
		}
	}
	return []lint.Diagnostic{d}
}

// buildTOMLKeyLines maps top-level key names to their first 1-based line.
// Table header lines reset nothing; keys inside tables are recorded under
// their bare name but lookups only ever ask for top-level keys.
func buildTOMLKeyLines(content string) map[string]int {
	lines := map[string]int{}
	for i, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "[") {
			continue
		}
		eq := strings.IndexByte(trimmed, '=')
		if eq < 0 {
			continue
		}
		key := strings.Trim(strings.TrimSpace(trimmed[:eq]), `"'`)
		if key == "" {
			continue
		}
		if _, seen := lines[key]; !seen {
			lines[key] = i + 1
		}
	}
	return lines
}

func asTomlParseError(err error, target *toml.ParseError) bool {
	if perr, ok := err.(toml.ParseError); ok {
		*target = perr
		return true
	}
	return false
}

// findClosestValue suggests a valid value for a typo: case-insensitive
// exact matches first, then substring containment either way for inputs
// of three characters or more.
func findClosestValue(invalid string, valid []string) (string, bool) {
	if invalid == "" {
		return "", false
	}
	for _, v := range valid {
		if strings.EqualFold(v, invalid) {
			return v, true
		}
	}
	if len(invalid) < 3 {
		return "", false
	}
	lower := strings.ToLower(invalid)
	for _, v := range valid {
		lv := strings.ToLower(v)
		if strings.Contains(lv, lower) || strings.Contains(lower, lv) {
			return v, true
		}
	}
	return "", false
}
