// Copyright © 2025 The agnix authors

package lsp

import (
	"log"

	"github.com/tliron/glsp"

	"github.com/avifenesh/agnix/filetype"
	"github.com/avifenesh/agnix/lint"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// textDocumentDidOpen handles the textDocument/didOpen notification.
func (s *Server) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	s.captureNotify(ctx)
	uri := params.TextDocument.URI
	snap := s.docs.Set(uri, int32(params.TextDocument.Version), params.TextDocument.Text)
	s.spawnValidate(uri, snap)
	return nil
}

// textDocumentDidChange handles the textDocument/didChange notification.
func (s *Server) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	s.captureNotify(ctx)
	// With full sync, the last content change is the complete document.
	var content string
	for _, change := range params.ContentChanges {
		switch c := change.(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			content = c.Text
		case protocol.TextDocumentContentChangeEvent:
			content = c.Text
		}
	}
	uri := params.TextDocument.URI
	snap := s.docs.Set(uri, int32(params.TextDocument.Version), content)
	s.spawnValidate(uri, snap)
	return nil
}

// textDocumentDidSave handles the textDocument/didSave notification.
func (s *Server) textDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	s.captureNotify(ctx)
	uri := params.TextDocument.URI
	if snap := s.docs.Snapshot(uri); snap != nil {
		s.spawnValidate(uri, snap)
	}

	// Saving an instruction layer invalidates cross-file findings.
	if path, ok := s.workspacePath(uri); ok && isProjectLevelTrigger(path) {
		go func() {
			defer func() { _ = recover() }()
			s.runProjectRules()
		}()
	}
	return nil
}

// textDocumentDidClose handles the textDocument/didClose notification.
func (s *Server) textDocumentDidClose(_ *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	s.docs.Close(params.TextDocument.URI)
	// Clear diagnostics for the closed file.
	s.sendNotification(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         params.TextDocument.URI,
		Diagnostics: []protocol.Diagnostic{},
	})
	return nil
}

// spawnValidate runs a validation for uri against snap on a new
// goroutine. The goroutine captures the config generation at spawn time;
// validatePublish discards the result if either moves before it
// finishes. Panics are contained so one bad document cannot take the
// server down.
func (s *Server) spawnValidate(uri string, snap *string) {
	gen := s.generation.Load()
	cfg := s.config()
	go func() {
		defer func() { _ = recover() }()
		s.validatePublish(uri, snap, gen, cfg)
	}()
}

// validatePublish validates one snapshot and publishes the result,
// unless the fence shows the document or the configuration moved on.
func (s *Server) validatePublish(uri string, snap *string, gen uint64, cfg *lint.Config) {
	path, ok := s.workspacePath(uri)
	if !ok {
		log.Printf("%s: ignoring URI outside workspace: %s", serverName, uri)
		return
	}

	diags, internalErr := s.validateSnapshot(path, *snap, cfg)

	// Merge any cached project-level findings for this file.
	s.projectMu.Lock()
	diags = append(diags, s.projectDiags[path]...)
	s.projectMu.Unlock()

	// Generation fence: publish only when the editor still holds the
	// text this result was computed from and the config is unchanged.
	if s.docs.Snapshot(uri) != snap || s.generation.Load() != gen {
		return
	}

	out := make([]protocol.Diagnostic, 0, len(diags)+1)
	if internalErr != nil {
		out = append(out, internalErrorDiagnostic(internalErr))
	}
	for _, d := range diags {
		out = append(out, toProtocolDiagnostic(d))
	}
	s.sendNotification(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: out,
	})
}

// validateSnapshot dispatches the in-memory document text to every
// validator registered for its file type. Validator panics are converted
// to an internal error rather than propagated.
func (s *Server) validateSnapshot(path, content string, cfg *lint.Config) (diags []lint.Diagnostic, internalErr error) {
	defer func() {
		if r := recover(); r != nil {
			internalErr = &validatorPanicError{value: r}
		}
	}()
	t := lint.ResolveFileType(path, cfg)
	if t == filetype.Unknown {
		return nil, nil
	}
	return s.registry.Dispatch(t, path, content, cfg), nil
}

type validatorPanicError struct{ value any }

func (e *validatorPanicError) Error() string {
	return "validator panic"
}

// internalErrorDiagnostic reports an engine-level failure at the top of
// the document so the user sees that validation did not complete.
func internalErrorDiagnostic(err error) protocol.Diagnostic {
	sev := protocol.DiagnosticSeverityError
	zero := protocol.Position{Line: 0, Character: 0}
	return protocol.Diagnostic{
		Range:    protocol.Range{Start: zero, End: zero},
		Severity: &sev,
		Source:   strPtr("agnix"),
		Code:     &protocol.IntegerOrString{Value: "agnix::internal-error"},
		Message:  "internal validation error: " + err.Error(),
	}
}

// toProtocolDiagnostic converts a lint.Diagnostic to an LSP Diagnostic.
// Lint lines are 1-based with 0 meaning whole file; lint columns and LSP
// positions are both 0-based.
func toProtocolDiagnostic(d lint.Diagnostic) protocol.Diagnostic {
	line := d.Line
	if line > 0 {
		line--
	}
	start := protocol.Position{Line: safeUint(line), Character: safeUint(d.Col)}
	sev := mapSeverity(d.Severity)
	msg := d.Message
	if d.Suggestion != "" {
		msg += "\n" + d.Suggestion
	}
	return protocol.Diagnostic{
		Range:    protocol.Range{Start: start, End: start},
		Severity: &sev,
		Source:   strPtr("agnix"),
		Code:     &protocol.IntegerOrString{Value: d.Rule},
		Message:  msg,
	}
}

// mapSeverity converts a lint.Severity to a protocol.DiagnosticSeverity.
func mapSeverity(sev lint.Severity) protocol.DiagnosticSeverity {
	switch sev {
	case lint.SeverityError:
		return protocol.DiagnosticSeverityError
	case lint.SeverityWarning:
		return protocol.DiagnosticSeverityWarning
	case lint.SeverityInfo:
		return protocol.DiagnosticSeverityInformation
	default:
		return protocol.DiagnosticSeverityWarning
	}
}

// safeUint converts a non-negative int to protocol.UInteger, clamping
// negative values to zero.
func safeUint(n int) protocol.UInteger {
	if n < 0 {
		return 0
	}
	return protocol.UInteger(n) // #nosec G115 -- line/col are small positive ints
}
