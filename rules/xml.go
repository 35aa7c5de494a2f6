// Copyright © 2025 The agnix authors

package rules

import (
	"fmt"

	"github.com/avifenesh/agnix/lint"
	"github.com/avifenesh/agnix/mdutil"
)

var xmlRuleIDs = []string{"XML-001", "XML-002", "XML-003"}

// XMLValidator checks that the XML-style section tags agent instruction
// files use as delimiters are balanced and properly nested.
type XMLValidator struct{}

func (*XMLValidator) Name() string      { return "xml" }
func (*XMLValidator) RuleIDs() []string { return xmlRuleIDs }

func (v *XMLValidator) Validate(path, content string, cfg *lint.Config) []lint.Diagnostic {
	var diags []lint.Diagnostic

	for _, balErr := range mdutil.CheckXMLBalance(mdutil.ExtractXMLTags(content)) {
		var rule, message, suggestion string
		switch balErr.Kind {
		case mdutil.Unclosed:
			rule = "XML-001"
			message = fmt.Sprintf("Unclosed XML tag '<%s>'", balErr.Tag)
			suggestion = fmt.Sprintf("Add closing tag '</%s>'", balErr.Tag)
		case mdutil.Mismatch:
			rule = "XML-002"
			message = fmt.Sprintf("Expected '</%s>' but found '</%s>'", balErr.Expected, balErr.Tag)
			suggestion = fmt.Sprintf("Replace '</%s>' with '</%s>'", balErr.Tag, balErr.Expected)
		case mdutil.UnmatchedClosing:
			rule = "XML-003"
			message = fmt.Sprintf("Unmatched closing tag '</%s>'", balErr.Tag)
			suggestion = fmt.Sprintf("Remove '</%s>' or add matching opening tag '<%s>'", balErr.Tag, balErr.Tag)
		default:
			continue
		}
		if !cfg.IsRuleEnabled(rule) {
			continue
		}
		diags = append(diags, lint.NewError(path, balErr.Line, balErr.Column, rule, message).
			WithSuggestion(suggestion))
	}

	return diags
}
