// Copyright © 2025 The agnix authors

// Package diagnostic provides Rust-style annotated finding rendering for
// agnix CLI output. It is intentionally independent of the lint package
// so that it can render any finding without creating import cycles.
package diagnostic

// Severity indicates the severity level of a rendered finding.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityNote
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityNote:
		return "note"
	default:
		return "unknown"
	}
}

// Span identifies a region of a file to highlight in the finding.
type Span struct {
	File   string // path for reading source; display name if unreadable
	Line   int    // 1-based line number
	Col    int    // 1-based start column
	EndCol int    // 1-based end column (0 = auto-detect from source)
	Label  string // text shown under the underline
}

// Diagnostic represents a single finding with optional source
// annotations, a wrapped help suggestion, and trailing notes.
type Diagnostic struct {
	Severity   Severity
	Rule       string // rule id shown in the header, e.g. "CC-HK-009"
	Message    string
	Spans      []Span
	Suggestion string   // "= help:" text, wrapped at render time
	Notes      []string // "= note:" lines (fix descriptions, assumptions)
}
