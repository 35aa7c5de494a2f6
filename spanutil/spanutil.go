// Copyright © 2025 The agnix authors

// Package spanutil locates byte spans of structured values inside raw
// JSON, TOML, and YAML-frontmatter text. Validators use these finders to
// turn a logical edit ("replace the model value") into a concrete byte
// range for a fix.
//
// Most finders are uniqueness-guarded: when the pattern matches zero or
// more than one location, they return no span at all. An ambiguous match
// must demote an autofix to "no fix attached", never attach the wrong one.
package spanutil

import (
	"fmt"
	"regexp"
	"strings"
)

// Span is a half-open byte range [Start, End) into the searched content.
// All spans fall on UTF-8 boundaries because the finders only accept
// well-formed scalar starts.
type Span struct {
	Start int
	End   int
}

// FindEventKey returns the span of the first quoted JSON key (including
// quotes) that is followed, after optional whitespace, by a colon.
func FindEventKey(content, key string) (Span, bool) {
	re, err := regexp.Compile(`"` + regexp.QuoteMeta(key) + `"\s*:`)
	if err != nil {
		return Span{}, false
	}
	loc := re.FindStringIndex(content)
	if loc == nil {
		return Span{}, false
	}
	return Span{Start: loc[0], End: loc[0] + len(key) + 2}, true
}

// FindUniqueJSONKeyValue returns the span of the serialized value in a
// `"key": <value>` pair, only when exactly one occurrence exists.
func FindUniqueJSONKeyValue(content, key, serializedValue string) (Span, bool) {
	re, err := regexp.Compile(`"` + regexp.QuoteMeta(key) + `"\s*:\s*` + regexp.QuoteMeta(serializedValue))
	if err != nil {
		return Span{}, false
	}
	locs := re.FindAllStringIndex(content, 2)
	if len(locs) != 1 {
		return Span{}, false
	}
	end := locs[0][1]
	return Span{Start: end - len(serializedValue), End: end}, true
}

// jsonScalar matches a quoted string without escape handling, a number,
// a bool, or null.
const jsonScalar = `(?:"[^"]*"|-?\d+(?:\.\d+)?|true|false|null)`

// FindUniqueJSONFieldLine returns the span of the full line containing a
// `"field": <scalar>` member, including trailing comma and newline when
// present. Unique-match guarded.
func FindUniqueJSONFieldLine(content, field string) (Span, bool) {
	re, err := regexp.Compile(`(?m)^[ \t]*"` + regexp.QuoteMeta(field) + `"\s*:\s*` + jsonScalar + `,?[ \t]*\n?`)
	if err != nil {
		return Span{}, false
	}
	locs := re.FindAllStringIndex(content, 2)
	if len(locs) != 1 {
		return Span{}, false
	}
	return Span{Start: locs[0][0], End: locs[0][1]}, true
}

// FindUniqueJSONMatcherLine is FindUniqueJSONFieldLine specialised to a
// `"matcher": "<value>"` member with an exact value.
func FindUniqueJSONMatcherLine(content, value string) (Span, bool) {
	re, err := regexp.Compile(`(?m)^[ \t]*"matcher"\s*:\s*"` + regexp.QuoteMeta(value) + `",?[ \t]*\n?`)
	if err != nil {
		return Span{}, false
	}
	locs := re.FindAllStringIndex(content, 2)
	if len(locs) != 1 {
		return Span{}, false
	}
	return Span{Start: locs[0][0], End: locs[0][1]}, true
}

// FindUniqueJSONStringInner returns the span of the string contents
// (without quotes) of a unique `"key": "value"` pair.
func FindUniqueJSONStringInner(content, key, value string) (Span, bool) {
	span, ok := FindUniqueJSONKeyValue(content, key, fmt.Sprintf("%q", value))
	if !ok {
		return Span{}, false
	}
	return Span{Start: span.Start + 1, End: span.End - 1}, true
}

// FindUniqueJSONScalarSpan returns the span of a unique `"key": <scalar>`
// value, quotes included for strings.
func FindUniqueJSONScalarSpan(content, key string) (Span, bool) {
	re, err := regexp.Compile(`"` + regexp.QuoteMeta(key) + `"\s*:\s*(` + jsonScalar + `)`)
	if err != nil {
		return Span{}, false
	}
	locs := re.FindAllStringSubmatchIndex(content, 2)
	if len(locs) != 1 {
		return Span{}, false
	}
	return Span{Start: locs[0][2], End: locs[0][3]}, true
}

// FindUniqueTOMLStringValue returns the span of the inner string (without
// quotes) in a unique `key = "value"` line. Leading inline whitespace is
// allowed; the key must start the line.
func FindUniqueTOMLStringValue(content, key, value string) (Span, bool) {
	re, err := regexp.Compile(`(?m)^[ \t]*` + regexp.QuoteMeta(key) + `\s*=\s*"` + regexp.QuoteMeta(value) + `"`)
	if err != nil {
		return Span{}, false
	}
	locs := re.FindAllStringIndex(content, 2)
	if len(locs) != 1 {
		return Span{}, false
	}
	end := locs[0][1] - 1 // before the closing quote
	return Span{Start: end - len(value), End: end}, true
}

// FindFrontmatterValue returns the span of a scalar value for a key inside
// the given frontmatter text, translated into whole-file offsets by base.
// Quoted values return the inner span. Comment lines are skipped; an
// empty value yields no span.
func FindFrontmatterValue(frontmatter string, base int, key string) (Span, bool) {
	offset := 0
	for _, line := range strings.SplitAfter(frontmatter, "\n") {
		lineLen := len(line)
		trimmed := strings.TrimLeft(line, " \t")
		leading := lineLen - len(trimmed)
		trimmed = strings.TrimRight(trimmed, "\n")

		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			offset += lineLen
			continue
		}
		rest, found := strings.CutPrefix(trimmed, key)
		if !found {
			offset += lineLen
			continue
		}
		afterKey := strings.TrimLeft(rest, " \t")
		wsAfterKey := len(rest) - len(afterKey)
		afterColon, hasColon := strings.CutPrefix(afterKey, ":")
		if !hasColon {
			offset += lineLen
			continue
		}

		value := strings.TrimLeft(afterColon, " \t")
		if value == "" {
			return Span{}, false
		}
		valueCol := leading + len(key) + wsAfterKey + 1 + (len(afterColon) - len(value))

		start, length := valueCol, len(value)
		if inner, quoted := strings.CutPrefix(value, `"`); quoted {
			closeIdx := strings.IndexByte(inner, '"')
			if closeIdx < 0 {
				return Span{}, false
			}
			start, length = valueCol+1, closeIdx
		} else if inner, quoted := strings.CutPrefix(value, `'`); quoted {
			closeIdx := strings.IndexByte(inner, '\'')
			if closeIdx < 0 {
				return Span{}, false
			}
			start, length = valueCol+1, closeIdx
		} else {
			// Trim an inline comment from an unquoted scalar.
			if idx := strings.Index(value, " #"); idx >= 0 {
				length = idx
			} else if idx := strings.Index(value, "\t#"); idx >= 0 {
				length = idx
			}
			length = len(strings.TrimRight(value[:length], " \t\r"))
		}

		abs := base + offset + start
		return Span{Start: abs, End: abs + length}, true
	}
	return Span{}, false
}
