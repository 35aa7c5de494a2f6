// Copyright © 2025 The agnix authors

// Package lint implements the agnix validation engine.
//
// The engine is modeled after go vet: each rule family is an independent
// Validator that receives file content and reports diagnostics. The
// framework handles file discovery, classification, dispatch, fix
// application, result ordering, and output formatting.
//
// Validators are composable and extensible — embedders can register custom
// families alongside the built-in set.
package lint

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
)

// Severity indicates the severity level of a diagnostic.
// The ordering Error < Warning < Info is used for result sorting.
type Severity int

const (
	severityUnset Severity = iota // unexported zero sentinel for default detection
	SeverityError
	SeverityWarning
	SeverityInfo
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return "unknown"
	}
}

// MarshalJSON serializes the severity as a JSON string.
// An unset severity (zero value) is marshaled as "warning".
func (s Severity) MarshalJSON() ([]byte, error) {
	if s == severityUnset {
		return json.Marshal("warning")
	}
	return json.Marshal(s.String())
}

// UnmarshalJSON deserializes a severity from a JSON string.
func (s *Severity) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	switch str {
	case "error":
		*s = SeverityError
	case "warning":
		*s = SeverityWarning
	case "info":
		*s = SeverityInfo
	default:
		return fmt.Errorf("unknown severity: %q", str)
	}
	return nil
}

// Fix is a byte-range edit attached to a diagnostic. Offsets are UTF-8 byte
// offsets into the target file. Start == End with a non-empty replacement is
// an insertion; Start < End with an empty replacement is a deletion.
type Fix struct {
	StartByte   int    `json:"start_byte"`
	EndByte     int    `json:"end_byte"`
	Replacement string `json:"replacement"`
	Description string `json:"description"`

	// Safe marks edits with high confidence of being semantically neutral
	// (pure case or whitespace normalizations). Unsafe fixes require the
	// user to opt in.
	Safe bool `json:"safe"`
}

// ReplaceFix creates a fix that replaces the bytes in [start, end).
func ReplaceFix(start, end int, replacement, description string) Fix {
	return Fix{StartByte: start, EndByte: end, Replacement: replacement, Description: description}
}

// InsertFix creates a fix that inserts text at offset.
func InsertFix(offset int, text, description string) Fix {
	return Fix{StartByte: offset, EndByte: offset, Replacement: text, Description: description}
}

// DeleteFix creates a fix that removes the bytes in [start, end).
func DeleteFix(start, end int, description string) Fix {
	return Fix{StartByte: start, EndByte: end, Description: description}
}

// IsInsertion reports whether the fix inserts text without removing any.
func (f Fix) IsInsertion() bool {
	return f.StartByte == f.EndByte && f.Replacement != ""
}

// IsDeletion reports whether the fix removes text without inserting any.
func (f Fix) IsDeletion() bool {
	return f.StartByte < f.EndByte && f.Replacement == ""
}

// Diagnostic is a single reported problem bound to a file position and a
// rule id from the catalogue.
type Diagnostic struct {
	// Severity is the severity level of the diagnostic.
	Severity Severity `json:"level"`

	// Message is a human-readable description of the problem.
	Message string `json:"message"`

	// File is the path of the file the problem was found in.
	File string `json:"file"`

	// Line is the 1-indexed line number. Line 0 means the whole file.
	Line int `json:"line"`

	// Col is the 0-indexed column within Line.
	Col int `json:"column"`

	// Rule is the stable rule id (e.g. "CC-HK-009").
	Rule string `json:"rule"`

	// Suggestion is optional human-readable advice.
	Suggestion string `json:"suggestion,omitempty"`

	// Fixes are machine-applicable edits, in source order.
	Fixes []Fix `json:"fixes,omitempty"`

	// Assumption notes a heuristic premise behind the finding.
	Assumption string `json:"assumption,omitempty"`

	// Metadata is the catalogue entry for Rule, nil for unknown ids.
	Metadata *RuleMetadata `json:"metadata,omitempty"`
}

// NewError creates an error diagnostic with metadata resolved from the
// rule catalogue.
func NewError(file string, line, col int, rule, message string) Diagnostic {
	return newDiagnostic(SeverityError, file, line, col, rule, message)
}

// NewWarning creates a warning diagnostic.
func NewWarning(file string, line, col int, rule, message string) Diagnostic {
	return newDiagnostic(SeverityWarning, file, line, col, rule, message)
}

// NewInfo creates an info diagnostic.
func NewInfo(file string, line, col int, rule, message string) Diagnostic {
	return newDiagnostic(SeverityInfo, file, line, col, rule, message)
}

func newDiagnostic(sev Severity, file string, line, col int, rule, message string) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Message:  message,
		File:     file,
		Line:     line,
		Col:      col,
		Rule:     rule,
		Metadata: LookupRule(rule),
	}
}

// WithSuggestion attaches advice text and returns the diagnostic.
func (d Diagnostic) WithSuggestion(s string) Diagnostic {
	d.Suggestion = s
	return d
}

// WithFix appends a fix and returns the diagnostic.
func (d Diagnostic) WithFix(f Fix) Diagnostic {
	d.Fixes = append(d.Fixes, f)
	return d
}

// WithAssumption records the heuristic premise behind the finding.
func (d Diagnostic) WithAssumption(a string) Diagnostic {
	d.Assumption = a
	return d
}

// HasFixes reports whether any fix is attached.
func (d Diagnostic) HasFixes() bool { return len(d.Fixes) > 0 }

// HasSafeFixes reports whether at least one attached fix is safe.
func (d Diagnostic) HasSafeFixes() bool {
	for _, f := range d.Fixes {
		if f.Safe {
			return true
		}
	}
	return false
}

// String returns the diagnostic in go vet style: file:line:col: message (rule).
func (d Diagnostic) String() string {
	pos := d.File
	if d.Line > 0 {
		pos = fmt.Sprintf("%s:%d:%d", d.File, d.Line, d.Col)
	}
	s := fmt.Sprintf("%s: %s: %s (%s)", pos, d.Severity, d.Message, d.Rule)
	if d.Suggestion != "" {
		s += "\n  = help: " + d.Suggestion
	}
	return s
}

// SortDiagnostics orders diagnostics by (severity, file, line, rule).
// The order is total, so results are stable across runs and CPU counts.
func SortDiagnostics(diags []Diagnostic) {
	sort.SliceStable(diags, func(i, j int) bool {
		a, b := diags[i], diags[j]
		if a.Severity != b.Severity {
			return a.Severity < b.Severity
		}
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Rule < b.Rule
	})
}

// Result is the outcome of a project validation.
type Result struct {
	// Diagnostics is the sorted list of findings.
	Diagnostics []Diagnostic `json:"diagnostics"`

	// FilesChecked counts files dispatched to validators.
	FilesChecked int `json:"files_checked"`

	// DurationMillis is the wall-clock time of the run.
	DurationMillis int64 `json:"duration_ms"`

	// ValidatorCount is the number of registered validator families.
	ValidatorCount int `json:"validator_count"`
}

// FormatText writes diagnostics one per line in go vet text format.
func FormatText(w io.Writer, diags []Diagnostic) {
	for _, d := range diags {
		fmt.Fprintln(w, d.String()) //nolint:errcheck // best-effort output to writer
	}
}

// FormatJSON writes diagnostics as indented JSON.
func FormatJSON(w io.Writer, diags []Diagnostic) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(diags)
}
