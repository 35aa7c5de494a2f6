// Copyright © 2025 The agnix authors

package lsp

import (
	"github.com/tliron/glsp"

	"github.com/avifenesh/agnix/lint"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// textDocumentCodeAction offers quickfix actions for every fix attached
// to a diagnostic in the requested range. Edits are computed against the
// current snapshot; byte offsets are translated to LSP positions here so
// clients never see raw offsets.
func (s *Server) textDocumentCodeAction(ctx *glsp.Context, params *protocol.CodeActionParams) (any, error) {
	s.captureNotify(ctx)
	uri := params.TextDocument.URI
	snap := s.docs.Snapshot(uri)
	if snap == nil {
		return nil, nil
	}
	path, ok := s.workspacePath(uri)
	if !ok {
		return nil, nil
	}

	diags, err := s.validateSnapshot(path, *snap, s.config())
	if err != nil {
		return nil, nil
	}

	kind := protocol.CodeActionKindQuickFix
	var actions []protocol.CodeAction
	for _, d := range diags {
		if len(d.Fixes) == 0 || !diagnosticInRange(d, params.Range) {
			continue
		}
		for _, fix := range d.Fixes {
			edit, ok := fixToTextEdit(*snap, fix)
			if !ok {
				continue
			}
			title := fix.Description
			if title == "" {
				title = "Apply fix for " + d.Rule
			}
			if !fix.Safe {
				title += " (unsafe)"
			}
			lspDiag := toProtocolDiagnostic(d)
			actions = append(actions, protocol.CodeAction{
				Title:       title,
				Kind:        &kind,
				Diagnostics: []protocol.Diagnostic{lspDiag},
				Edit: &protocol.WorkspaceEdit{
					Changes: map[string][]protocol.TextEdit{
						uri: {edit},
					},
				},
			})
		}
	}
	return actions, nil
}

// diagnosticInRange reports whether a diagnostic's line intersects the
// requested 0-based range. A whole-file diagnostic (line 0) matches
// everything.
func diagnosticInRange(d lint.Diagnostic, r protocol.Range) bool {
	if d.Line == 0 {
		return true
	}
	line := protocol.UInteger(d.Line - 1)
	return line >= r.Start.Line && line <= r.End.Line
}

// fixToTextEdit converts a byte-range fix to an LSP text edit against
// the given content. Fixes with out-of-bounds or mid-codepoint offsets
// are dropped; the batch fix engine applies the same policy.
func fixToTextEdit(content string, fix lint.Fix) (protocol.TextEdit, bool) {
	if fix.StartByte < 0 || fix.EndByte < fix.StartByte || fix.EndByte > len(content) {
		return protocol.TextEdit{}, false
	}
	return protocol.TextEdit{
		Range: protocol.Range{
			Start: offsetToPosition(content, fix.StartByte),
			End:   offsetToPosition(content, fix.EndByte),
		},
		NewText: fix.Replacement,
	}, true
}

// offsetToPosition converts a byte offset to a 0-based LSP position.
func offsetToPosition(content string, offset int) protocol.Position {
	line, col := 0, 0
	for i := 0; i < offset && i < len(content); i++ {
		if content[i] == '\n' {
			line++
			col = 0
		} else {
			col++
		}
	}
	return protocol.Position{Line: safeUint(line), Character: safeUint(col)}
}
