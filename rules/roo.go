// Copyright © 2025 The agnix authors

package rules

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/avifenesh/agnix/lint"
)

var rooRuleIDs = []string{"ROO-001", "ROO-002", "ROO-003", "ROO-004", "ROO-006"}

// validRooGroups are the tool group names a custom mode may grant.
var validRooGroups = []string{"read", "edit", "browser", "command", "mcp"}

// builtinRooModes are the mode slugs that ship with Roo Code.
var builtinRooModes = []string{"code", "architect", "ask", "debug", "orchestrator"}

// RooValidator checks Roo Code configuration: .roomodes custom mode
// registries, .rooignore patterns, and rule files under .roo/.
type RooValidator struct{}

func (*RooValidator) Name() string      { return "roo" }
func (*RooValidator) RuleIDs() []string { return rooRuleIDs }

func (v *RooValidator) Validate(path, content string, cfg *lint.Config) []lint.Diagnostic {
	switch filepath.Base(path) {
	case ".roomodes":
		return checkRoomodes(path, content, cfg)
	case ".rooignore":
		return checkRooignore(path, content, cfg)
	case ".roorules":
		return checkRooRulesContent(path, content, cfg)
	}
	if !strings.HasSuffix(path, ".md") {
		return nil
	}
	parent := filepath.Base(filepath.Dir(path))
	grandparent := filepath.Base(filepath.Dir(filepath.Dir(path)))
	if strings.HasPrefix(parent, "rules-") && grandparent == ".roo" {
		return checkRooModeRules(path, content, cfg)
	}
	return checkRooRulesContent(path, content, cfg)
}

// checkRooRulesContent reports ROO-001 when a rule file carries no text.
func checkRooRulesContent(path, content string, cfg *lint.Config) []lint.Diagnostic {
	if !cfg.IsRuleEnabled("ROO-001") {
		return nil
	}
	if strings.TrimSpace(content) != "" {
		return nil
	}
	return []lint.Diagnostic{lint.NewError(path, 1, 0, "ROO-001",
		"Roo Code rule file is empty").
		WithSuggestion("Add rule content or remove the file")}
}

const roomodesSuggestion = "Fix the customModes entries to match the Roo Code schema"

func checkRoomodes(path, content string, cfg *lint.Config) []lint.Diagnostic {
	if !cfg.IsRuleEnabled("ROO-002") {
		return nil
	}

	var root any
	if err := json.Unmarshal([]byte(content), &root); err != nil {
		line, col := jsonErrorLineCol(content, err)
		return []lint.Diagnostic{lint.NewError(path, line, col, "ROO-002",
			fmt.Sprintf("Invalid .roomodes JSON: %v", err)).
			WithSuggestion(roomodesSuggestion)}
	}

	obj, _ := root.(map[string]any)
	raw, present := obj["customModes"]
	if !present {
		return []lint.Diagnostic{lint.NewError(path, 1, 0, "ROO-002",
			"Missing 'customModes' key in .roomodes").
			WithSuggestion(roomodesSuggestion)}
	}
	modes, ok := raw.([]any)
	if !ok {
		return []lint.Diagnostic{lint.NewError(path, 1, 0, "ROO-002",
			"'customModes' must be an array").
			WithSuggestion(roomodesSuggestion)}
	}

	var diags []lint.Diagnostic
	report := func(msg string) {
		diags = append(diags, lint.NewError(path, 1, 0, "ROO-002", msg).
			WithSuggestion(roomodesSuggestion))
	}

	seen := make(map[string]bool)
	for idx, item := range modes {
		pos := fmt.Sprintf("customModes[%d]", idx)
		mode, _ := item.(map[string]any)
		slug := stringField(mode, "slug")

		if mode != nil {
			if groupsRaw, has := mode["groups"]; !has {
				report(fmt.Sprintf("Mode '%s' is missing the 'groups' field", slug))
			} else if _, isArr := groupsRaw.([]any); !isArr {
				report(fmt.Sprintf("'groups' for mode '%s' must be an array", slug))
			}
		}

		if slug == "" {
			report(fmt.Sprintf("Missing 'slug' in %s", pos))
			continue
		}
		if !isValidRooSlug(slug) {
			report(fmt.Sprintf("Invalid slug '%s' in %s: use lowercase letters, digits, and hyphens", slug, pos))
		}
		if seen[slug] {
			report(fmt.Sprintf("Duplicate slug '%s' in %s", slug, pos))
		}
		seen[slug] = true

		if stringField(mode, "name") == "" {
			report(fmt.Sprintf("Missing 'name' in %s", pos))
		}
		if stringField(mode, "roleDefinition") == "" {
			report(fmt.Sprintf("Missing 'roleDefinition' in %s", pos))
		}
		for _, group := range stringSliceField(mode, "groups") {
			if !containsString(validRooGroups, group) {
				report(fmt.Sprintf("Invalid group '%s' in %s: must be one of %s",
					group, pos, strings.Join(validRooGroups, ", ")))
			}
		}
	}
	return diags
}

func checkRooignore(path, content string, cfg *lint.Config) []lint.Diagnostic {
	if !cfg.IsRuleEnabled("ROO-003") {
		return nil
	}

	hasContent := false
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" && !strings.HasPrefix(trimmed, "#") {
			hasContent = true
			break
		}
	}
	if !hasContent {
		return []lint.Diagnostic{lint.NewWarning(path, 1, 0, "ROO-003",
			".rooignore contains no patterns").
			WithSuggestion("Add ignore patterns or remove the file")}
	}

	var diags []lint.Diagnostic
	for i, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		pattern := strings.TrimPrefix(trimmed, "!")
		if doublestar.ValidatePattern(pattern) {
			continue
		}
		diags = append(diags, lint.NewWarning(path, i+1, 0, "ROO-003",
			fmt.Sprintf("Invalid glob pattern '%s' in .rooignore", trimmed)).
			WithSuggestion("Fix the glob syntax or remove the pattern"))
	}
	return diags
}

// checkRooModeRules validates files under .roo/rules-{slug}/ directories.
func checkRooModeRules(path, content string, cfg *lint.Config) []lint.Diagnostic {
	var diags []lint.Diagnostic
	slug, hasSlug := extractRooSlug(path)

	if cfg.IsRuleEnabled("ROO-004") && hasSlug && !isValidRooSlug(slug) {
		diags = append(diags, lint.NewWarning(path, 1, 0, "ROO-004",
			fmt.Sprintf("Invalid mode slug '%s' in rules directory name", slug)).
			WithSuggestion("Use lowercase letters, digits, and hyphens in rules-{slug} directory names"))
	}

	diags = append(diags, checkRooRulesContent(path, content, cfg)...)

	if cfg.IsRuleEnabled("ROO-006") && filepath.Base(path) == "SKILL.md" && hasSlug {
		if !containsString(builtinRooModes, slug) && !isRooCustomMode(path, slug, cfg) {
			diags = append(diags, lint.NewWarning(path, 1, 0, "ROO-006",
				fmt.Sprintf("Mode slug '%s' is not a built-in or custom mode", slug)).
				WithSuggestion(fmt.Sprintf("Define the mode in .roomodes or use one of: %s",
					strings.Join(builtinRooModes, ", "))))
		}
	}
	return diags
}

// isRooCustomMode reports whether slug is defined in the .roomodes file
// at the project root, found as the parent of the enclosing .roo
// directory.
func isRooCustomMode(path, slug string, cfg *lint.Config) bool {
	dir := filepath.Dir(path)
	for {
		if filepath.Base(dir) == ".roo" {
			break
		}
		next := filepath.Dir(dir)
		if next == dir {
			return false
		}
		dir = next
	}

	roomodes := filepath.Join(filepath.Dir(dir), ".roomodes")
	fs := cfg.Filesystem()
	if !fs.Exists(roomodes) {
		return false
	}
	content, err := fs.ReadFile(roomodes)
	if err != nil {
		return false
	}

	var doc struct {
		CustomModes []struct {
			Slug string `json:"slug"`
		} `json:"customModes"`
	}
	if json.Unmarshal([]byte(content), &doc) != nil {
		return false
	}
	for _, mode := range doc.CustomModes {
		if mode.Slug == slug {
			return true
		}
	}
	return false
}

// extractRooSlug pulls the mode slug out of a .roo/rules-{slug}/ parent
// directory name.
func extractRooSlug(path string) (string, bool) {
	parent := filepath.Base(filepath.Dir(path))
	return strings.CutPrefix(parent, "rules-")
}

// isValidRooSlug accepts lowercase alphanumerics and interior hyphens.
func isValidRooSlug(s string) bool {
	if s == "" || strings.HasPrefix(s, "-") || strings.HasSuffix(s, "-") {
		return false
	}
	for _, c := range s {
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') && c != '-' {
			return false
		}
	}
	return true
}

func stringField(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return s
}

func stringSliceField(obj map[string]any, key string) []string {
	arr, _ := obj[key].([]any)
	var out []string
	for _, item := range arr {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// jsonErrorLineCol converts the byte offset carried by encoding/json
// errors into a 1-based line and column.
func jsonErrorLineCol(content string, err error) (int, int) {
	var offset int64 = -1
	var syn *json.SyntaxError
	var typ *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syn):
		offset = syn.Offset
	case errors.As(err, &typ):
		offset = typ.Offset
	}
	if offset < 0 {
		return 1, 1
	}
	if offset > int64(len(content)) {
		offset = int64(len(content))
	}
	return lineColAt(int(offset), lineStarts(content))
}
