// Copyright © 2025 The agnix authors

package rules

import (
	"fmt"
	"path/filepath"

	"github.com/avifenesh/agnix/lint"
	"github.com/avifenesh/agnix/mdutil"
)

var crossPlatformRuleIDs = []string{"XP-001", "XP-002", "XP-003"}

// CrossPlatformValidator checks instruction files shared across agent
// tools. AGENTS.md is read by many tools, so Claude-only constructs and
// sloppy structure are flagged there; hard-coded platform paths are
// flagged everywhere.
type CrossPlatformValidator struct{}

func (*CrossPlatformValidator) Name() string      { return "cross-platform" }
func (*CrossPlatformValidator) RuleIDs() []string { return crossPlatformRuleIDs }

func (v *CrossPlatformValidator) Validate(path, content string, cfg *lint.Config) []lint.Diagnostic {
	var diags []lint.Diagnostic

	filename := filepath.Base(path)
	isAgentsMd := filename == "AGENTS.md" || filename == "AGENTS.local.md" || filename == "AGENTS.override.md"

	// CLAUDE.md may use Claude-only features freely; AGENTS.md may not.
	if cfg.IsRuleEnabled("XP-001") && isAgentsMd {
		for _, f := range mdutil.FindClaudeSpecificFeatures(content) {
			diags = append(diags, lint.NewError(path, f.Line, f.Column, "XP-001",
				fmt.Sprintf("Claude-specific feature '%s' in %s: %s", f.Feature, filename, f.Description)).
				WithSuggestion("Move Claude-specific features to CLAUDE.md or use platform guards"))
		}
	}

	if cfg.IsRuleEnabled("XP-002") && isAgentsMd {
		for _, issue := range mdutil.CheckMarkdownStructure(content) {
			diags = append(diags, lint.NewWarning(path, issue.Line, issue.Column, "XP-002",
				fmt.Sprintf("%s structure issue: %s", filename, issue.Issue)).
				WithSuggestion(issue.Suggestion))
		}
	}

	if cfg.IsRuleEnabled("XP-003") {
		for _, hc := range mdutil.FindHardCodedPaths(content) {
			diags = append(diags, lint.NewWarning(path, hc.Line, hc.Column, "XP-003",
				fmt.Sprintf("Hard-coded %s path '%s' may cause portability issues", hc.Platform, hc.Path)).
				WithSuggestion("Use environment variables or relative paths for better portability"))
		}
	}

	return diags
}
