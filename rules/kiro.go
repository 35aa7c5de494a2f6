// Copyright © 2025 The agnix authors

package rules

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/avifenesh/agnix/frontmatter"
	"github.com/avifenesh/agnix/lint"
)

var kiroRuleIDs = []string{"KIRO-001", "KIRO-002", "KIRO-003", "KIRO-004"}

// validKiroInclusionModes are the inclusion values Kiro steering accepts.
var validKiroInclusionModes = []string{"always", "fileMatch", "manual", "auto"}

// KiroValidator checks Kiro steering files under .kiro/steering/:
// inclusion mode values, per-mode required fields, and match globs.
type KiroValidator struct{}

func (*KiroValidator) Name() string      { return "kiro" }
func (*KiroValidator) RuleIDs() []string { return kiroRuleIDs }

func (v *KiroValidator) Validate(path, content string, cfg *lint.Config) []lint.Diagnostic {
	if cfg.IsRuleEnabled("KIRO-004") && strings.TrimSpace(content) == "" {
		return []lint.Diagnostic{lint.NewWarning(path, 1, 0, "KIRO-004",
			"Kiro steering file is empty").
			WithSuggestion("Add steering content or remove the file")}
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

	var diags []lint.Diagnostic
	starts := lineStarts(content)

	inclusion := ""
	hasInclusion := false
	if node := yamlMapValue(mapping, "inclusion"); isYAMLString(node) {
		inclusion = node.Value
		hasInclusion = true
	}

	if cfg.IsRuleEnabled("KIRO-001") && hasInclusion &&
		!containsString(validKiroInclusionModes, inclusion) {
		line, col := fmKeyLineCol(parts, starts, "inclusion")
		diags = append(diags, lint.NewError(path, line, col, "KIRO-001",
			fmt.Sprintf("Invalid inclusion mode '%s'", inclusion)).
			WithSuggestion(fmt.Sprintf("Use one of: %s",
				strings.Join(validKiroInclusionModes, ", "))))
	}

	if cfg.IsRuleEnabled("KIRO-002") && hasInclusion {
		switch inclusion {
		case "auto":
			for _, field := range []string{"name", "description"} {
				if yamlMapValue(mapping, field) == nil {
					diags = append(diags, lint.NewError(path, 1, 0, "KIRO-002",
						fmt.Sprintf("Inclusion mode 'auto' requires the '%s' field", field)).
						WithSuggestion("Add the field to the steering frontmatter"))
				}
			}
		case "fileMatch":
			if yamlMapValue(mapping, "fileMatchPattern") == nil {
				diags = append(diags, lint.NewError(path, 1, 0, "KIRO-002",
					"Inclusion mode 'fileMatch' requires the 'fileMatchPattern' field").
					WithSuggestion("Add a fileMatchPattern glob to the steering frontmatter"))
			}
		}
	}

	if cfg.IsRuleEnabled("KIRO-003") {
		if node := yamlMapValue(mapping, "fileMatchPattern"); isYAMLString(node) {
			if !doublestar.ValidatePattern(node.Value) {
				line, col := fmKeyLineCol(parts, starts, "fileMatchPattern")
				diags = append(diags, lint.NewWarning(path, line, col, "KIRO-003",
					fmt.Sprintf("Invalid fileMatchPattern glob '%s'", node.Value)).
					WithSuggestion("Fix the glob syntax in fileMatchPattern"))
			}
		}
	}

	return diags
}
