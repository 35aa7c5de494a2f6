// Copyright © 2025 The agnix authors

package rules

import (
	"fmt"
	"strings"

	"github.com/avifenesh/agnix/lint"
	"github.com/avifenesh/agnix/mdutil"
)

var promptRuleIDs = []string{"PE-001", "PE-002", "PE-003", "PE-004"}

// PromptValidator applies prompt-engineering heuristics to instruction
// files: critical content buried mid-document, chain-of-thought prompting
// on mechanical tasks, hedged language in critical sections, and vague
// quantifiers.
type PromptValidator struct{}

func (*PromptValidator) Name() string      { return "prompt" }
func (*PromptValidator) RuleIDs() []string { return promptRuleIDs }

func (v *PromptValidator) Validate(path, content string, cfg *lint.Config) []lint.Diagnostic {
	var diags []lint.Diagnostic

	if cfg.IsRuleEnabled("PE-001") {
		total := strings.Count(content, "\n") + 1
		for _, f := range mdutil.FindCriticalInMiddle(content) {
			percent := float64(f.Line-1) / float64(total) * 100
			diags = append(diags, lint.NewWarning(path, f.Line, f.Column, "PE-001",
				fmt.Sprintf("Critical keyword '%s' at %.0f%% of the document, where model recall is weakest", f.Term, percent)).
				WithSuggestion("Move critical instructions to the beginning or end of the document"))
		}
	}

	if cfg.IsRuleEnabled("PE-002") {
		for _, f := range mdutil.FindCoTOnSimpleTasks(content) {
			diags = append(diags, lint.NewWarning(path, f.Line, f.Column, "PE-002",
				fmt.Sprintf("Chain-of-thought phrase '%s' near simple task '%s'", f.Term, f.Context)).
				WithSuggestion("State the task directly; step-by-step prompting adds latency on mechanical tasks"))
		}
	}

	if cfg.IsRuleEnabled("PE-003") {
		for _, f := range mdutil.FindWeakLanguage(content) {
			diags = append(diags, lint.NewWarning(path, f.Line, f.Column, "PE-003",
				fmt.Sprintf("Weak language '%s' in critical section '%s'", f.Term, f.Context)).
				WithSuggestion("Use imperative language (must, never, always) for rules that are not optional"))
		}
	}

	if cfg.IsRuleEnabled("PE-004") {
		for _, f := range mdutil.FindAmbiguousTerms(content) {
			diags = append(diags, lint.NewWarning(path, f.Line, f.Column, "PE-004",
				fmt.Sprintf("Ambiguous term '%s' leaves the condition to interpretation", f.Term)).
				WithSuggestion("Spell out the exact condition instead of a vague quantifier"))
		}
	}

	return diags
}
