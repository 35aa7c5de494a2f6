// Copyright © 2025 The agnix authors

package rules

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/avifenesh/agnix/lint"
)

var clineRuleIDs = []string{"CLN-001", "CLN-002", "CLN-003"}

// clineKnownKeys are the frontmatter keys Cline reads in folder rules.
var clineKnownKeys = []string{"paths"}

// ClineValidator checks .clinerules files: the single plain-text form and
// the .clinerules/*.md folder form with optional paths frontmatter.
type ClineValidator struct{}

func (*ClineValidator) Name() string      { return "cline" }
func (*ClineValidator) RuleIDs() []string { return clineRuleIDs }

func (v *ClineValidator) Validate(path, content string, cfg *lint.Config) []lint.Diagnostic {
	var diags []lint.Diagnostic
	isFolder := strings.HasSuffix(path, ".md")

	if cfg.IsRuleEnabled("CLN-001") {
		diags = append(diags, checkClineEmpty(path, content, isFolder)...)
	}

	// Only folder files carry frontmatter.
	if !isFolder {
		return diags
	}
	parsed := parseClineFrontmatter(content)
	if parsed == nil || parsed.parseError {
		return diags
	}

	if cfg.IsRuleEnabled("CLN-002") {
		for _, pattern := range parsed.paths {
			if doublestar.ValidatePattern(pattern) {
				continue
			}
			line := parsed.pathsLine
			if line == 0 {
				line = parsed.startLine + 1
			}
			diags = append(diags, lint.NewError(path, line, 0, "CLN-002",
				fmt.Sprintf("Invalid paths glob pattern '%s'", pattern)).
				WithSuggestion("Fix the glob syntax in the paths frontmatter"))
		}
	}

	if cfg.IsRuleEnabled("CLN-003") {
		for _, unknown := range parsed.unknownKeys {
			d := lint.NewWarning(path, unknown.line, 0, "CLN-003",
				fmt.Sprintf("Unknown frontmatter key '%s'", unknown.key)).
				WithSuggestion("Only 'paths' is recognized in .clinerules frontmatter")
			// Deleting the line is unsafe: a multi-line value would
			// leave orphaned continuation lines behind.
			if start, end, ok := lineByteRange(content, unknown.line); ok {
				d = d.WithFix(lint.DeleteFix(start, end,
					fmt.Sprintf("Remove unknown frontmatter key '%s'", unknown.key)))
			}
			diags = append(diags, d)
		}
	}

	return diags
}

func checkClineEmpty(path, content string, isFolder bool) []lint.Diagnostic {
	if isFolder {
		if parsed := parseClineFrontmatter(content); parsed != nil {
			if parsed.parseError || strings.TrimSpace(parsed.body) != "" {
				return nil
			}
			totalLines := strings.Count(content, "\n") + 1
			reportLine := parsed.endLine + 1
			if reportLine > totalLines {
				reportLine = totalLines
			}
			return []lint.Diagnostic{lint.NewError(path, reportLine, 0, "CLN-001",
				"Cline rules file has no content after frontmatter").
				WithSuggestion("Add rule content below the frontmatter")}
		}
	}
	if strings.TrimSpace(content) != "" {
		return nil
	}
	return []lint.Diagnostic{lint.NewError(path, 1, 0, "CLN-001",
		"Cline rules file is empty").
		WithSuggestion("Add rule content so Cline has instructions to apply")}
}

type clineUnknownKey struct {
	key  string
	line int
}

// parsedClineFrontmatter carries whole-file 1-based line numbers for the
// frontmatter block and its keys.
type parsedClineFrontmatter struct {
	paths       []string
	pathsLine   int
	startLine   int
	endLine     int
	body        string
	unknownKeys []clineUnknownKey
	parseError  bool
}

func parseClineFrontmatter(content string) *parsedClineFrontmatter {
	if !strings.HasPrefix(content, "---") {
		return nil
	}
	lines := strings.Split(content, "\n")

	closing := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			closing = i
			break
		}
	}
	if closing < 0 {
		// An opened fence with no close is malformed frontmatter, not a
		// plain document.
		return &parsedClineFrontmatter{startLine: 1, endLine: len(lines), parseError: true}
	}

	raw := strings.Join(lines[1:closing], "\n")
	parsed := &parsedClineFrontmatter{
		startLine: 1,
		endLine:   closing + 1,
		body:      strings.Join(lines[closing+1:], "\n"),
	}

	var fm struct {
		Paths yaml.Node `yaml:"paths"`
	}
	if yaml.Unmarshal([]byte(raw), &fm) != nil {
		parsed.parseError = true
		return parsed
	}

	switch pathsNode := resolveYAMLAlias(&fm.Paths); pathsNode.Kind {
	case yaml.ScalarNode:
		if isYAMLString(pathsNode) && pathsNode.Value != "" {
			parsed.paths = []string{pathsNode.Value}
		}
	case yaml.SequenceNode:
		for _, entry := range pathsNode.Content {
			entry = resolveYAMLAlias(entry)
			if isYAMLString(entry) {
				parsed.paths = append(parsed.paths, entry.Value)
			}
		}
	}

	for i, line := range lines[1:closing] {
		if strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t") {
			continue
		}
		colon := strings.IndexByte(line, ':')
		if colon < 0 {
			continue
		}
		key := strings.Trim(strings.TrimSpace(line[:colon]), `'"`)
		if key == "" {
			continue
		}
		fileLine := i + 2 // past the opening ---
		if key == "paths" {
			parsed.pathsLine = fileLine
			continue
		}
		if !containsString(clineKnownKeys, key) {
			parsed.unknownKeys = append(parsed.unknownKeys, clineUnknownKey{key: key, line: fileLine})
		}
	}

	return parsed
}

// lineByteRange returns the byte range of a 1-based line including its
// trailing newline.
func lineByteRange(content string, lineNumber int) (int, int, bool) {
	if lineNumber <= 0 {
		return 0, 0, false
	}
	line := 1
	start := 0
	for i := 0; i < len(content); i++ {
		if content[i] != '\n' {
			continue
		}
		if line == lineNumber {
			return start, i + 1, true
		}
		line++
		start = i + 1
	}
	if line == lineNumber {
		return start, len(content), true
	}
	return 0, 0, false
}
