// Copyright © 2025 The agnix authors

package rules

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/avifenesh/agnix/lint"
)

var cursorRuleIDs = []string{
	"CUR-001", "CUR-002", "CUR-003", "CUR-004", "CUR-005",
	"CUR-006", "CUR-007", "CUR-008", "CUR-009",
}

// cursorKnownKeys are the frontmatter keys Cursor reads in .mdc rules.
var cursorKnownKeys = []string{"description", "globs", "alwaysApply"}

// CursorValidator checks Cursor project rules: .cursor/rules/*.mdc files
// with description/globs/alwaysApply frontmatter, and the legacy
// .cursorrules format that only gets a migration warning.
type CursorValidator struct{}

func (*CursorValidator) Name() string      { return "cursor" }
func (*CursorValidator) RuleIDs() []string { return cursorRuleIDs }

func (v *CursorValidator) Validate(path, content string, cfg *lint.Config) []lint.Diagnostic {
	if strings.HasSuffix(path, ".cursorrules") {
		return v.validateLegacy(path, content, cfg)
	}
	return v.validateMdc(path, content, cfg)
}

func (*CursorValidator) validateLegacy(path, content string, cfg *lint.Config) []lint.Diagnostic {
	var diags []lint.Diagnostic
	if cfg.IsRuleEnabled("CUR-006") {
		diags = append(diags, lint.NewWarning(path, 1, 0, "CUR-006",
			"Legacy .cursorrules file; Cursor has moved to .cursor/rules/*.mdc").
			WithSuggestion("Migrate the rules into .cursor/rules/ so they can be scoped with globs"))
	}
	if cfg.IsRuleEnabled("CUR-001") && strings.TrimSpace(content) == "" {
		diags = append(diags, lint.NewError(path, 1, 0, "CUR-001",
			"Legacy .cursorrules file is empty").
			WithSuggestion("Add rule content or delete the file"))
	}
	return diags
}

func (v *CursorValidator) validateMdc(path, content string, cfg *lint.Config) []lint.Diagnostic {
	var diags []lint.Diagnostic

	parsed := parseMdcFrontmatter(content)
	if parsed == nil {
		if strings.TrimSpace(content) == "" {
			if cfg.IsRuleEnabled("CUR-001") {
				diags = append(diags, lint.NewError(path, 1, 0, "CUR-001",
					"Cursor rule file is empty").
					WithSuggestion("Add rule content so Cursor has instructions to apply"))
			}
			return diags
		}
		if cfg.IsRuleEnabled("CUR-002") {
			d := lint.NewWarning(path, 1, 0, "CUR-002",
				"Cursor .mdc rule has no frontmatter").
				WithSuggestion("Add frontmatter declaring when the rule applies")
			fix := lint.InsertFix(0, "---\ndescription: \nglobs: \n---\n",
				"Insert frontmatter template")
			diags = append(diags, d.WithFix(fix))
		}
		return diags
	}

	if parsed.parseError != "" {
		if cfg.IsRuleEnabled("CUR-003") {
			diags = append(diags, lint.NewError(path, parsed.startLine, 0, "CUR-003",
				fmt.Sprintf("Invalid frontmatter YAML: %s", parsed.parseError)).
				WithSuggestion("Fix the YAML syntax; the rule was not validated"))
		}
		return diags
	}

	if cfg.IsRuleEnabled("CUR-001") && strings.TrimSpace(parsed.body) == "" {
		totalLines := strings.Count(content, "\n") + 1
		reportLine := parsed.endLine + 1
		if reportLine > totalLines {
			reportLine = totalLines
		}
		diags = append(diags, lint.NewError(path, reportLine, 0, "CUR-001",
			"Cursor rule file has no content after frontmatter").
			WithSuggestion("Add rule content below the frontmatter"))
	}

	if cfg.IsRuleEnabled("CUR-004") {
		for _, pattern := range parsed.globs {
			if doublestar.ValidatePattern(pattern) {
				continue
			}
			diags = append(diags, lint.NewError(path, parsed.keyLine("globs"), 0, "CUR-004",
				fmt.Sprintf("Invalid glob pattern '%s'", pattern)).
				WithSuggestion("Fix the glob syntax in the globs frontmatter"))
		}
	}

	if cfg.IsRuleEnabled("CUR-005") {
		for _, unknown := range parsed.unknownKeys {
			d := lint.NewWarning(path, unknown.line, 0, "CUR-005",
				fmt.Sprintf("Unknown frontmatter key '%s'", unknown.key)).
				WithSuggestion("Cursor reads description, globs, and alwaysApply")
			if start, end, ok := lineByteRange(content, unknown.line); ok {
				fix := lint.DeleteFix(start, end,
					fmt.Sprintf("Remove unknown frontmatter key '%s'", unknown.key))
				fix.Safe = true
				d = d.WithFix(fix)
			}
			diags = append(diags, d)
		}
	}

	if cfg.IsRuleEnabled("CUR-008") && parsed.alwaysApplyString != nil {
		d := lint.NewError(path, parsed.keyLine("alwaysApply"), 0, "CUR-008",
			"alwaysApply must be a boolean, not a quoted string").
			WithSuggestion("Remove the quotes: alwaysApply: true")
		if lower := strings.ToLower(*parsed.alwaysApplyString); lower == "true" || lower == "false" {
			if start, end, ok := quotedValueSpan(content, parsed.keyLine("alwaysApply"), *parsed.alwaysApplyString); ok {
				fix := lint.ReplaceFix(start, end, lower,
					fmt.Sprintf("Change alwaysApply to the boolean %s", lower))
				fix.Safe = true
				d = d.WithFix(fix)
			}
		}
		diags = append(diags, d)
	}

	if cfg.IsRuleEnabled("CUR-007") && parsed.alwaysApply && parsed.hasGlobs {
		d := lint.NewWarning(path, parsed.keyLine("globs"), 0, "CUR-007",
			"globs are ignored when alwaysApply is true").
			WithSuggestion("Remove the globs field or drop alwaysApply so the globs take effect")
		if start, end, ok := yamlBlockRange(content, parsed.keyLine("globs")); ok {
			fix := lint.DeleteFix(start, end, "Remove redundant globs field")
			fix.Safe = true
			d = d.WithFix(fix)
		}
		diags = append(diags, d)
	}

	if cfg.IsRuleEnabled("CUR-009") &&
		!parsed.hasAlwaysApply && !parsed.hasGlobs && strings.TrimSpace(parsed.description) == "" {
		diags = append(diags, lint.NewWarning(path, parsed.startLine, 0, "CUR-009",
			"Rule has no alwaysApply, globs, or description; Cursor cannot decide when to apply it").
			WithSuggestion("Add a description so the agent knows when the rule is relevant"))
	}

	return diags
}

type mdcUnknownKey struct {
	key  string
	line int
}

// parsedMdcFrontmatter carries whole-file 1-based line numbers for the
// frontmatter block and its keys.
type parsedMdcFrontmatter struct {
	description       string
	globs             []string
	hasGlobs          bool
	alwaysApply       bool
	hasAlwaysApply    bool
	alwaysApplyString *string
	keyLines          map[string]int
	unknownKeys       []mdcUnknownKey
	startLine         int
	endLine           int
	body              string
	parseError        string
}

// keyLine returns the 1-based line of a frontmatter key, falling back to
// the line after the opening fence.
func (p *parsedMdcFrontmatter) keyLine(key string) int {
	if line, ok := p.keyLines[key]; ok {
		return line
	}
	return p.startLine + 1
}

func parseMdcFrontmatter(content string) *parsedMdcFrontmatter {
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
		return &parsedMdcFrontmatter{
			startLine:  1,
			endLine:    len(lines),
			parseError: "missing closing ---",
		}
	}

	raw := strings.Join(lines[1:closing], "\n")
	parsed := &parsedMdcFrontmatter{
		startLine: 1,
		endLine:   closing + 1,
		body:      strings.Join(lines[closing+1:], "\n"),
		keyLines:  map[string]int{},
	}

	var fm struct {
		Description yaml.Node `yaml:"description"`
		Globs       yaml.Node `yaml:"globs"`
		AlwaysApply yaml.Node `yaml:"alwaysApply"`
	}
	if err := yaml.Unmarshal([]byte(raw), &fm); err != nil {
		parsed.parseError = err.Error()
		return parsed
	}

	if desc := resolveYAMLAlias(&fm.Description); isYAMLString(desc) {
		parsed.description = desc.Value
	}

	switch globsNode := resolveYAMLAlias(&fm.Globs); globsNode.Kind {
	case yaml.ScalarNode:
		parsed.hasGlobs = globsNode.Tag != "!!null"
		if isYAMLString(globsNode) && globsNode.Value != "" {
			// Cursor accepts comma-separated patterns in the scalar form.
			for _, p := range strings.Split(globsNode.Value, ",") {
				if p = strings.TrimSpace(p); p != "" {
					parsed.globs = append(parsed.globs, p)
				}
			}
		}
	case yaml.SequenceNode:
		parsed.hasGlobs = true
		for _, entry := range globsNode.Content {
			entry = resolveYAMLAlias(entry)
			if isYAMLString(entry) {
				parsed.globs = append(parsed.globs, entry.Value)
			}
		}
	}

	if always := resolveYAMLAlias(&fm.AlwaysApply); always.Kind == yaml.ScalarNode && always.Tag != "!!null" {
		parsed.hasAlwaysApply = true
		switch always.Tag {
		case "!!bool":
			parsed.alwaysApply = always.Value == "true"
		default:
			s := always.Value
			parsed.alwaysApplyString = &s
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
		if containsString(cursorKnownKeys, key) {
			parsed.keyLines[key] = fileLine
			continue
		}
		parsed.unknownKeys = append(parsed.unknownKeys, mdcUnknownKey{key: key, line: fileLine})
	}

	return parsed
}

// quotedValueSpan finds the byte span of a quoted scalar value on the
// given line, quotes included.
func quotedValueSpan(content string, lineNumber int, value string) (int, int, bool) {
	start, end, ok := lineByteRange(content, lineNumber)
	if !ok {
		return 0, 0, false
	}
	line := content[start:end]
	for _, quoted := range []string{`"` + value + `"`, `'` + value + `'`} {
		if i := strings.Index(line, quoted); i >= 0 {
			return start + i, start + i + len(quoted), true
		}
	}
	return 0, 0, false
}

// yamlBlockRange returns the byte range of a key line plus any indented
// continuation lines below it, so list-style fields delete cleanly.
func yamlBlockRange(content string, startLine int) (int, int, bool) {
	start, end, ok := lineByteRange(content, startLine)
	if !ok {
		return 0, 0, false
	}
	for line := startLine + 1; ; line++ {
		next, nextEnd, ok := lineByteRange(content, line)
		if !ok {
			break
		}
		text := content[next:nextEnd]
		if !strings.HasPrefix(text, " ") && !strings.HasPrefix(text, "\t") {
			break
		}
		end = nextEnd
	}
	return start, end, true
}
