// Copyright © 2025 The agnix authors

package cmd

import (
	"os"

	"github.com/avifenesh/agnix/diagnostic"
	"github.com/avifenesh/agnix/lint"
)

func colorMode() diagnostic.ColorMode {
	switch colorFlag {
	case "always":
		return diagnostic.ColorAlways
	case "never":
		return diagnostic.ColorNever
	default:
		return diagnostic.ColorAuto
	}
}

func newRenderer() *diagnostic.Renderer {
	return &diagnostic.Renderer{Color: colorMode()}
}

// toRenderDiagnostic converts a lint.Diagnostic to the terminal
// renderer's model.
func toRenderDiagnostic(d lint.Diagnostic) diagnostic.Diagnostic {
	out := diagnostic.Diagnostic{
		Severity:   mapRenderSeverity(d.Severity),
		Rule:       d.Rule,
		Message:    d.Message,
		Suggestion: d.Suggestion,
	}
	if d.File != "" {
		// Lint columns are zero-based with 0 meaning the whole line; the
		// renderer prints one-based columns and hides col 0.
		col := d.Col
		if col > 0 {
			col++
		}
		out.Spans = []diagnostic.Span{{
			File: d.File,
			Line: d.Line,
			Col:  col,
		}}
	}
	for _, fix := range d.Fixes {
		if fix.Description == "" {
			continue
		}
		note := "fix available: " + fix.Description
		if !fix.Safe {
			note += " (unsafe, requires --unsafe)"
		}
		out.Notes = append(out.Notes, note)
	}
	if d.Assumption != "" {
		out.Notes = append(out.Notes, "assumes "+d.Assumption)
	}
	return out
}

func mapRenderSeverity(s lint.Severity) diagnostic.Severity {
	switch s {
	case lint.SeverityError:
		return diagnostic.SeverityError
	case lint.SeverityWarning:
		return diagnostic.SeverityWarning
	default:
		return diagnostic.SeverityNote
	}
}

// renderDiagnostics prints findings to stderr as annotated snippets.
func renderDiagnostics(diags []lint.Diagnostic) {
	r := newRenderer()
	rendered := make([]diagnostic.Diagnostic, 0, len(diags))
	for _, d := range diags {
		rendered = append(rendered, toRenderDiagnostic(d))
	}
	_ = r.RenderAll(os.Stderr, rendered)
}

// filterSeverity drops findings below the configured threshold. The
// pipeline reports everything; the display threshold is a CLI concern.
func filterSeverity(diags []lint.Diagnostic, min lint.Severity) []lint.Diagnostic {
	var out []lint.Diagnostic
	for _, d := range diags {
		if d.Severity <= min {
			out = append(out, d)
		}
	}
	return out
}

// countBySeverity tallies findings for the summary line.
func countBySeverity(diags []lint.Diagnostic) (errors, warnings, infos int) {
	for _, d := range diags {
		switch d.Severity {
		case lint.SeverityError:
			errors++
		case lint.SeverityWarning:
			warnings++
		default:
			infos++
		}
	}
	return
}
