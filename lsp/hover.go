// Copyright © 2025 The agnix authors

package lsp

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tliron/glsp"

	"github.com/avifenesh/agnix/lint"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

var ruleIDRe = regexp.MustCompile(`^[A-Z][A-Z0-9]*(-[A-Z0-9]+)*$`)

// textDocumentHover shows rule documentation when hovering a rule id
// (as it appears in published diagnostics or inline comments).
func (s *Server) textDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	s.captureNotify(ctx)
	snap := s.docs.Snapshot(params.TextDocument.URI)
	if snap == nil {
		return nil, nil
	}
	word := wordAt(*snap, int(params.Position.Line), int(params.Position.Character))
	if word == "" || !ruleIDRe.MatchString(word) {
		return nil, nil
	}
	md := lint.LookupRule(word)
	if md == nil {
		return nil, nil
	}
	value := fmt.Sprintf("**%s** (%s, %s)\n\n%s", word, md.Category, md.Tier, md.Description)
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: value,
		},
	}, nil
}

// wordAt extracts the token under a 0-based position. Tokens are runs of
// letters, digits, hyphens, and underscores.
func wordAt(content string, line, col int) string {
	lines := strings.Split(content, "\n")
	if line < 0 || line >= len(lines) {
		return ""
	}
	text := lines[line]
	isWord := func(c byte) bool {
		return c == '-' || c == '_' ||
			(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
	}
	if col < 0 || col >= len(text) || !isWord(text[col]) {
		return ""
	}
	start, end := col, col
	for start > 0 && isWord(text[start-1]) {
		start--
	}
	for end < len(text) && isWord(text[end]) {
		end++
	}
	return text[start:end]
}
