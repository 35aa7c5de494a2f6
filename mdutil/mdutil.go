// Copyright © 2025 The agnix authors

// Package mdutil scans markdown documents for the structures rule
// validators care about: @import directives, local links, and XML-style
// tags. All extractors return byte offsets on UTF-8 boundaries and
// 1-indexed line / 1-indexed column positions.
package mdutil

import (
	"regexp"
	"strings"
)

// MaxScanSize bounds regex scanning. Oversized documents silently yield
// no results rather than risking pathological regex time.
const MaxScanSize = 512 * 1024

// Import is one @path directive.
type Import struct {
	Path      string
	Line      int
	Column    int
	StartByte int
	EndByte   int
}

// Link is one inline markdown link [text](url).
type Link struct {
	Text      string
	URL       string
	Line      int
	Column    int
	StartByte int
	EndByte   int
}

var (
	importRe = regexp.MustCompile(`(^|\s)@([^\s` + "`" + `]+)`)
	linkRe   = regexp.MustCompile(`\[([^\]]*)\]\(([^)\s]+)\)`)
	tagRe    = regexp.MustCompile(`</?([A-Za-z][A-Za-z0-9_-]*)(\s[^<>]*)?/?>`)
)

// ExtractImports finds @path directives outside fenced code blocks and
// inline code spans.
func ExtractImports(content string) []Import {
	if len(content) > MaxScanSize {
		return nil
	}
	var imports []Import
	forEachScannableLine(content, func(line string, lineNum, lineStart int) {
		for _, m := range importRe.FindAllStringSubmatchIndex(stripInlineCode(line), -1) {
			pathStart, pathEnd := m[4], m[5]
			path := line[pathStart:pathEnd]
			// Bare "@" or obvious mentions like "@user," are not imports.
			path = strings.TrimRight(path, ".,;:!?")
			if path == "" {
				continue
			}
			start := lineStart + pathStart - 1 // include the @
			imports = append(imports, Import{
				Path:      path,
				Line:      lineNum,
				Column:    pathStart, // 1-indexed position of the @
				StartByte: start,
				EndByte:   lineStart + pathStart + len(path),
			})
		}
	})
	return imports
}

// ExtractLinks finds inline markdown links outside fenced code blocks.
func ExtractLinks(content string) []Link {
	if len(content) > MaxScanSize {
		return nil
	}
	var links []Link
	forEachScannableLine(content, func(line string, lineNum, lineStart int) {
		for _, m := range linkRe.FindAllStringSubmatchIndex(line, -1) {
			links = append(links, Link{
				Text:      line[m[2]:m[3]],
				URL:       line[m[4]:m[5]],
				Line:      lineNum,
				Column:    m[0] + 1,
				StartByte: lineStart + m[0],
				EndByte:   lineStart + m[1],
			})
		}
	})
	return links
}

// XMLTag is one <tag>, </tag>, or <tag/> occurrence.
type XMLTag struct {
	Name      string
	Closing   bool
	SelfClose bool
	Line      int
	Column    int
	StartByte int
	EndByte   int
}

// ExtractXMLTags finds XML-style tags outside fenced code blocks. Agent
// instruction files use XML tags as section markers, so unbalanced tags
// usually mean a truncated or mis-edited document.
func ExtractXMLTags(content string) []XMLTag {
	if len(content) > MaxScanSize {
		return nil
	}
	var tags []XMLTag
	forEachScannableLine(content, func(line string, lineNum, lineStart int) {
		clean := stripInlineCode(line)
		for _, m := range tagRe.FindAllStringSubmatchIndex(clean, -1) {
			raw := clean[m[0]:m[1]]
			tags = append(tags, XMLTag{
				Name:      clean[m[2]:m[3]],
				Closing:   strings.HasPrefix(raw, "</"),
				SelfClose: strings.HasSuffix(raw, "/>"),
				Line:      lineNum,
				Column:    m[0] + 1,
				StartByte: lineStart + m[0],
				EndByte:   lineStart + m[1],
			})
		}
	})
	return tags
}

// BalanceErrorKind classifies an XML balance failure.
type BalanceErrorKind int

const (
	// Unclosed: an opening tag with no matching close.
	Unclosed BalanceErrorKind = iota
	// Mismatch: a closing tag that closes a different open tag.
	Mismatch
	// UnmatchedClosing: a closing tag with nothing open.
	UnmatchedClosing
)

// BalanceError is one XML balance failure.
type BalanceError struct {
	Kind BalanceErrorKind

	// Tag is the offending tag name; for Mismatch it is the tag found.
	Tag string

	// Expected is the open tag a Mismatch should have closed.
	Expected string

	Line   int
	Column int
}

// CheckXMLBalance verifies tags nest properly using a stack.
func CheckXMLBalance(tags []XMLTag) []BalanceError {
	var errs []BalanceError
	var stack []XMLTag
	for _, tag := range tags {
		switch {
		case tag.SelfClose:
			// balanced by construction
		case !tag.Closing:
			stack = append(stack, tag)
		case len(stack) == 0:
			errs = append(errs, BalanceError{
				Kind: UnmatchedClosing, Tag: tag.Name,
				Line: tag.Line, Column: tag.Column,
			})
		case stack[len(stack)-1].Name != tag.Name:
			errs = append(errs, BalanceError{
				Kind: Mismatch, Tag: tag.Name, Expected: stack[len(stack)-1].Name,
				Line: tag.Line, Column: tag.Column,
			})
			stack = stack[:len(stack)-1]
		default:
			stack = stack[:len(stack)-1]
		}
	}
	for _, open := range stack {
		errs = append(errs, BalanceError{
			Kind: Unclosed, Tag: open.Name,
			Line: open.Line, Column: open.Column,
		})
	}
	return errs
}

// forEachScannableLine visits lines outside fenced code blocks, passing
// the 1-indexed line number and the line's starting byte offset.
func forEachScannableLine(content string, visit func(line string, lineNum, lineStart int)) {
	inFence := false
	offset := 0
	lineNum := 0
	for _, line := range strings.SplitAfter(content, "\n") {
		lineNum++
		text := strings.TrimRight(line, "\n")
		if strings.HasPrefix(strings.TrimLeft(text, " \t"), "```") {
			inFence = !inFence
			offset += len(line)
			continue
		}
		if !inFence {
			visit(text, lineNum, offset)
		}
		offset += len(line)
	}
}

// stripInlineCode blanks `code` spans in place so matches inside them are
// skipped without shifting byte offsets.
func stripInlineCode(line string) string {
	if !strings.Contains(line, "`") {
		return line
	}
	b := []byte(line)
	inCode := false
	for i := 0; i < len(b); i++ {
		if b[i] == '`' {
			inCode = !inCode
			continue
		}
		if inCode {
			b[i] = ' '
		}
	}
	return string(b)
}
