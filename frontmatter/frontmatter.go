// Copyright © 2025 The agnix authors

// Package frontmatter splits a markdown document into its leading
// ----delimited YAML header and body, tracking byte offsets so rules can
// convert header positions into whole-file spans.
package frontmatter

import "strings"

// Parts is the result of splitting a document.
//
// Frontmatter excludes the fences but keeps the newline that follows the
// opening fence, so line numbers inside it line up with the file when the
// fence sits on line 1.
type Parts struct {
	HasFrontmatter bool
	HasClosing     bool

	// Frontmatter is the header text between the fences.
	Frontmatter string

	// Body is everything after the closing fence (or the whole document
	// when there is no frontmatter).
	Body string

	// Start is the byte offset just past the opening fence.
	Start int

	// BodyStart is the byte offset where Body begins in the original
	// content.
	BodyStart int
}

// Split separates the frontmatter header from the body. A document whose
// first non-whitespace bytes are not "---" has no frontmatter. A missing
// closing fence is reported via HasClosing=false with an empty header so
// structure-dependent rules can diagnose it instead of mis-parsing.
func Split(content string) Parts {
	trimmed := strings.TrimLeft(content, " \t\r\n")
	trimOffset := len(content) - len(trimmed)

	if !strings.HasPrefix(trimmed, "---") {
		return Parts{
			Body:      trimmed,
			Start:     trimOffset,
			BodyStart: trimOffset,
		}
	}

	rest := trimmed[3:]
	start := trimOffset + 3

	end := strings.Index(rest, "\n---")
	if end < 0 {
		return Parts{
			HasFrontmatter: true,
			Body:           rest,
			Start:          start,
			BodyStart:      start,
		}
	}

	return Parts{
		HasFrontmatter: true,
		HasClosing:     true,
		Frontmatter:    rest[:end],
		Body:           rest[end+4:],
		Start:          start,
		BodyStart:      start + end + 4,
	}
}

// LineOf returns the 1-indexed line number of a byte offset in content.
func LineOf(content string, offset int) int {
	if offset > len(content) {
		offset = len(content)
	}
	return strings.Count(content[:offset], "\n") + 1
}

// ColumnOf returns the 0-indexed column of a byte offset in content.
func ColumnOf(content string, offset int) int {
	if offset > len(content) {
		offset = len(content)
	}
	if idx := strings.LastIndexByte(content[:offset], '\n'); idx >= 0 {
		return offset - idx - 1
	}
	return offset
}
