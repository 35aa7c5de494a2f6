// Copyright © 2025 The agnix authors

package rules

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/avifenesh/agnix/frontmatter"
	"github.com/avifenesh/agnix/lint"
	"github.com/avifenesh/agnix/spanutil"
)

var skillRuleIDs = []string{
	"AS-001", "AS-002", "AS-003", "AS-004", "AS-005", "AS-006", "AS-007",
	"AS-008", "AS-009", "AS-010", "AS-016",
	"CC-SK-001", "CC-SK-002", "CC-SK-003", "CC-SK-004", "CC-SK-005",
	"CC-SK-006", "CC-SK-007", "CC-SK-008", "CC-SK-009", "CC-SK-010",
}

// reservedSkillNames can never be used as skill names.
var reservedSkillNames = []string{"anthropic", "claude", "skill"}

// validModels are the accepted model overrides for skills and agents.
var validModels = []string{"sonnet", "opus", "haiku", "inherit"}

// builtinAgents are the agent types shipped with Claude Code; anything
// else must be a kebab-case custom agent name.
var builtinAgents = []string{"Explore", "Plan", "general-purpose"}

// knownSkillTools is the tool vocabulary accepted in allowed-tools.
var knownSkillTools = []string{
	"Bash", "Read", "Write", "Edit", "Grep", "Glob", "Task",
	"WebFetch", "WebSearch", "AskUserQuestion", "TodoRead", "TodoWrite",
	"MultiTool", "NotebookEdit", "EnterPlanMode", "ExitPlanMode",
	"Skill", "StatusBarMessageTool", "TaskOutput",
}

// dangerousSkillNames trigger CC-SK-006 when the model may auto-invoke
// the skill.
var dangerousSkillNames = []string{"deploy", "ship", "publish", "delete", "release", "push"}

// maxInjections caps !`...` dynamic injections per skill file.
const maxInjections = 3

var (
	skillNameRe   = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
	doubleHyphens = regexp.MustCompile(`-{2,}`)
	plainBashRe   = regexp.MustCompile(`\bBash\b`)
	xmlTagRe      = regexp.MustCompile(`<[^>]+>`)
)

type skillFrontmatter struct {
	Name                   *string `yaml:"name"`
	Description            *string `yaml:"description"`
	AllowedTools           *string `yaml:"allowed-tools"`
	ArgumentHint           *string `yaml:"argument-hint"`
	DisableModelInvocation *bool   `yaml:"disable-model-invocation"`
	UserInvocable          *bool   `yaml:"user-invocable"`
	Model                  *string `yaml:"model"`
	Context                *string `yaml:"context"`
	Agent                  *string `yaml:"agent"`
	// Value type on purpose: yaml.v3 only stores the raw node for
	// yaml.Node fields, not *yaml.Node.
	Hooks yaml.Node `yaml:"hooks"`
}

// SkillValidator checks SKILL.md files: name and description hygiene,
// model/context/agent coherence, tool restrictions, and injection count.
type SkillValidator struct{}

func (*SkillValidator) Name() string      { return "skill" }
func (*SkillValidator) RuleIDs() []string { return skillRuleIDs }

func (v *SkillValidator) Validate(path, content string, cfg *lint.Config) []lint.Diagnostic {
	parts := frontmatter.Split(content)
	starts := lineStarts(content)

	// A skill without a parseable header cannot be validated further;
	// everything below depends on the frontmatter fields.
	if !parts.HasFrontmatter || !parts.HasClosing {
		if !cfg.IsRuleEnabled("AS-001") {
			return nil
		}
		line, col := lineColAt(parts.Start, starts)
		return []lint.Diagnostic{lint.NewError(path, line, col, "AS-001",
			"Skill file is missing frontmatter").
			WithSuggestion("Start the file with a --- fenced YAML block containing name and description")}
	}

	var fm skillFrontmatter
	if err := yaml.Unmarshal([]byte(parts.Frontmatter), &fm); err != nil {
		if !cfg.IsRuleEnabled("AS-016") {
			return nil
		}
		line, col := lineColAt(parts.Start, starts)
		return []lint.Diagnostic{lint.NewError(path, line, col, "AS-016",
			fmt.Sprintf("Invalid frontmatter YAML: %v", err)).
			WithSuggestion("Fix the YAML syntax; the skill was not validated")}
	}

	s := skillCheck{
		path:    path,
		content: content,
		cfg:     cfg,
		parts:   parts,
		starts:  starts,
		fm:      fm,
	}

	s.checkRequired()
	if fm.Name != nil {
		s.checkName(strings.TrimSpace(*fm.Name))
	}
	if fm.Description != nil {
		s.checkDescription(strings.TrimSpace(*fm.Description))
	}
	s.checkModelContext()
	s.checkAgent()
	s.checkTools()
	s.checkSafety()
	s.checkHooksField()

	return s.diags
}

type skillCheck struct {
	path    string
	content string
	cfg     *lint.Config
	parts   frontmatter.Parts
	starts  []int
	fm      skillFrontmatter
	diags   []lint.Diagnostic
}

func (s *skillCheck) valueSpan(key string) (spanutil.Span, bool) {
	return spanutil.FindFrontmatterValue(s.parts.Frontmatter, s.parts.Start, key)
}

func (s *skillCheck) checkRequired() {
	if s.cfg.IsRuleEnabled("AS-002") && s.fm.Name == nil {
		line, col := fmKeyLineCol(s.parts, s.starts, "name")
		s.diags = append(s.diags, lint.NewError(s.path, line, col, "AS-002",
			"Skill frontmatter is missing the required 'name' field").
			WithSuggestion("Add a kebab-case name, e.g. 'name: review-pr'"))
	}
	if s.cfg.IsRuleEnabled("AS-003") && s.fm.Description == nil {
		line, col := fmKeyLineCol(s.parts, s.starts, "description")
		s.diags = append(s.diags, lint.NewError(s.path, line, col, "AS-003",
			"Skill frontmatter is missing the required 'description' field").
			WithSuggestion("Add a description saying what the skill does and when to use it"))
	}
}

func (s *skillCheck) checkName(name string) {
	line, col := fmKeyLineCol(s.parts, s.starts, "name")

	if s.cfg.IsRuleEnabled("AS-004") && (len(name) > 64 || !skillNameRe.MatchString(name)) {
		d := lint.NewError(s.path, line, col, "AS-004",
			fmt.Sprintf("Skill name '%s' must be 1-64 kebab-case characters", name)).
			WithSuggestion("Use lowercase letters, digits, and single hyphens, at most 64 characters")
		if fixed := toKebabCase(name); fixed != "" && skillNameRe.MatchString(fixed) {
			if span, ok := s.valueSpan("name"); ok {
				d = d.WithFix(lint.Fix{
					StartByte:   span.Start,
					EndByte:     span.End,
					Replacement: fixed,
					Description: fmt.Sprintf("Rename skill to '%s'", fixed),
					Safe:        caseOnlyRename(name, fixed),
				})
			}
		}
		s.diags = append(s.diags, d)
	}

	if s.cfg.IsRuleEnabled("AS-005") && (strings.HasPrefix(name, "-") || strings.HasSuffix(name, "-")) {
		d := lint.NewError(s.path, line, col, "AS-005",
			fmt.Sprintf("Skill name '%s' cannot start or end with a hyphen", name)).
			WithSuggestion("Remove the leading/trailing hyphens from the name")
		if span, ok := s.valueSpan("name"); ok {
			fixed := strings.Trim(name, "-")
			if fixed != "" && fixed != name && skillNameRe.MatchString(fixed) {
				d = d.WithFix(lint.Fix{
					StartByte:   span.Start,
					EndByte:     span.End,
					Replacement: fixed,
					Description: "Remove leading/trailing hyphens from skill name",
					Safe:        true,
				})
			}
		}
		s.diags = append(s.diags, d)
	}

	if s.cfg.IsRuleEnabled("AS-006") && strings.Contains(name, "--") {
		d := lint.NewError(s.path, line, col, "AS-006",
			fmt.Sprintf("Skill name '%s' cannot contain consecutive hyphens", name)).
			WithSuggestion("Collapse repeated hyphens to a single hyphen")
		if span, ok := s.valueSpan("name"); ok {
			fixed := doubleHyphens.ReplaceAllString(name, "-")
			if fixed != "" && fixed != name && skillNameRe.MatchString(fixed) {
				d = d.WithFix(lint.Fix{
					StartByte:   span.Start,
					EndByte:     span.End,
					Replacement: fixed,
					Description: "Collapse consecutive hyphens in skill name",
					Safe:        true,
				})
			}
		}
		s.diags = append(s.diags, d)
	}

	if s.cfg.IsRuleEnabled("AS-007") && name != "" && containsString(reservedSkillNames, strings.ToLower(name)) {
		s.diags = append(s.diags, lint.NewError(s.path, line, col, "AS-007",
			fmt.Sprintf("Skill name '%s' is reserved", name)).
			WithSuggestion(fmt.Sprintf("Pick a name other than: %s", strings.Join(reservedSkillNames, ", "))))
	}
}

// toKebabCase lowercases the name, converts separators to single
// hyphens, drops everything else, and truncates to 64 characters.
func toKebabCase(name string) string {
	var b strings.Builder
	lastHyphen := true
	for _, c := range name {
		switch {
		case c >= 'a' && c <= 'z' || c >= '0' && c <= '9':
			b.WriteRune(c)
			lastHyphen = false
		case c >= 'A' && c <= 'Z':
			b.WriteRune(c + ('a' - 'A'))
			lastHyphen = false
		case (c == '_' || c == '-' || c == ' ') && !lastHyphen:
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	out := strings.TrimRight(b.String(), "-")
	if len(out) > 64 {
		out = strings.TrimRight(out[:64], "-")
	}
	return out
}

// caseOnlyRename reports whether the kebab fix only changes letter case,
// the one rename that cannot alter the name's word structure.
func caseOnlyRename(name, fixed string) bool {
	if strings.ToLower(name) != fixed {
		return false
	}
	for _, c := range name {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-':
		default:
			return false
		}
	}
	return true
}

func (s *skillCheck) checkDescription(desc string) {
	line, col := fmKeyLineCol(s.parts, s.starts, "description")

	if s.cfg.IsRuleEnabled("AS-008") {
		if n := len(desc); n < 1 || n > 1024 {
			s.diags = append(s.diags, lint.NewError(s.path, line, col, "AS-008",
				fmt.Sprintf("Skill description must be 1-1024 characters, got %d", n)).
				WithSuggestion("Keep the description between 1 and 1024 characters"))
		}
	}

	if s.cfg.IsRuleEnabled("AS-009") && xmlTagRe.MatchString(desc) {
		s.diags = append(s.diags, lint.NewError(s.path, line, col, "AS-009",
			"Skill description contains XML tags").
			WithSuggestion("Remove angle-bracket markup; descriptions are injected into the system prompt verbatim"))
	}

	if !s.cfg.IsRuleEnabled("AS-010") || desc == "" {
		return
	}
	if strings.Contains(strings.ToLower(desc), "use when") {
		return
	}
	d := lint.NewWarning(s.path, line, col, "AS-010",
		"Description does not state when the skill should be used").
		WithSuggestion("Start the description with a trigger phrase like 'Use when ...' so the model knows when to invoke it")
	if span, ok := s.valueSpan("description"); ok {
		replacement := "Use when user wants to " + desc
		// Changes what the description claims, so never auto-applied
		// without --unsafe.
		if len(replacement) <= 1024 {
			d = d.WithFix(lint.Fix{
				StartByte:   span.Start,
				EndByte:     span.End,
				Replacement: replacement,
				Description: "Prepend a 'Use when' trigger phrase",
				Safe:        false,
			})
		}
	}
	s.diags = append(s.diags, d)
}

func (s *skillCheck) checkModelContext() {
	if s.cfg.IsRuleEnabled("CC-SK-001") && s.fm.Model != nil {
		model := *s.fm.Model
		valid := false
		for _, m := range validModels {
			if model == m {
				valid = true
				break
			}
		}
		if !valid {
			line, col := fmKeyLineCol(s.parts, s.starts, "model")
			d := lint.NewError(s.path, line, col, "CC-SK-001",
				fmt.Sprintf("Invalid model '%s'; valid values: %s", model, strings.Join(validModels, ", "))).
				WithSuggestion(fmt.Sprintf("Use one of: %s", strings.Join(validModels, ", ")))
			if span, ok := s.valueSpan("model"); ok {
				d = d.WithFix(lint.Fix{
					StartByte:   span.Start,
					EndByte:     span.End,
					Replacement: "sonnet",
					Description: "Replace invalid model with 'sonnet'",
					Safe:        false,
				})
			}
			s.diags = append(s.diags, d)
		}
	}

	ctxVal := ""
	if s.fm.Context != nil {
		ctxVal = *s.fm.Context
	}

	if s.cfg.IsRuleEnabled("CC-SK-002") && s.fm.Context != nil && ctxVal != "fork" {
		line, col := fmKeyLineCol(s.parts, s.starts, "context")
		d := lint.NewError(s.path, line, col, "CC-SK-002",
			fmt.Sprintf("Invalid context '%s'; the only supported value is 'fork'", ctxVal)).
			WithSuggestion("Set context to 'fork' or remove the field")
		if span, ok := s.valueSpan("context"); ok {
			d = d.WithFix(lint.Fix{
				StartByte:   span.Start,
				EndByte:     span.End,
				Replacement: "fork",
				Description: "Replace invalid context with 'fork'",
				Safe:        false,
			})
		}
		s.diags = append(s.diags, d)
	}

	if s.cfg.IsRuleEnabled("CC-SK-003") && ctxVal == "fork" && s.fm.Agent == nil {
		line, col := fmKeyLineCol(s.parts, s.starts, "context")
		d := lint.NewError(s.path, line, col, "CC-SK-003",
			"context: fork requires an 'agent' field").
			WithSuggestion("Add an agent field, e.g. 'agent: general-purpose'")
		if _, end, ok := fmKeyLineRange(s.content, s.parts, "context"); ok {
			d = d.WithFix(lint.Fix{
				StartByte:   end,
				EndByte:     end,
				Replacement: "agent: general-purpose\n",
				Description: "Add required 'agent' for context: fork",
				Safe:        false,
			})
		}
		s.diags = append(s.diags, d)
	}

	if s.cfg.IsRuleEnabled("CC-SK-004") && s.fm.Agent != nil && ctxVal != "fork" {
		line, col := fmKeyLineCol(s.parts, s.starts, "agent")
		d := lint.NewError(s.path, line, col, "CC-SK-004",
			"'agent' field requires 'context: fork'").
			WithSuggestion("Add 'context: fork' or remove the agent field")
		if span, ok := s.valueSpan("context"); ok {
			d = d.WithFix(lint.Fix{
				StartByte:   span.Start,
				EndByte:     span.End,
				Replacement: "fork",
				Description: "Set context to 'fork' when agent is configured",
				Safe:        false,
			})
		} else if start, _, ok := fmKeyLineRange(s.content, s.parts, "agent"); ok {
			d = d.WithFix(lint.Fix{
				StartByte:   start,
				EndByte:     start,
				Replacement: "context: fork\n",
				Description: "Add required 'context: fork' for agent usage",
				Safe:        false,
			})
		}
		s.diags = append(s.diags, d)
	}
}

func isValidAgentName(agent string) bool {
	for _, b := range builtinAgents {
		if agent == b {
			return true
		}
	}
	return len(agent) >= 1 && len(agent) <= 64 && skillNameRe.MatchString(agent)
}

func (s *skillCheck) checkAgent() {
	if !s.cfg.IsRuleEnabled("CC-SK-005") || s.fm.Agent == nil {
		return
	}
	agent := *s.fm.Agent
	if isValidAgentName(agent) {
		return
	}
	line, col := fmKeyLineCol(s.parts, s.starts, "agent")
	d := lint.NewError(s.path, line, col, "CC-SK-005",
		fmt.Sprintf("Invalid agent '%s'; use a built-in agent (%s) or a kebab-case custom agent name",
			agent, strings.Join(builtinAgents, ", "))).
		WithSuggestion("Use a built-in agent or a kebab-case custom agent name (1-64 characters)")
	if span, ok := s.valueSpan("agent"); ok {
		d = d.WithFix(lint.Fix{
			StartByte:   span.Start,
			EndByte:     span.End,
			Replacement: "general-purpose",
			Description: "Replace invalid agent with 'general-purpose'",
			Safe:        false,
		})
	}
	s.diags = append(s.diags, d)
}

// splitToolList accepts both the preferred comma-separated format
// ("Bash(git:*), Read") and the legacy space-separated one ("Read Write").
func splitToolList(tools string) []string {
	var out []string
	if strings.Contains(tools, ",") {
		for _, t := range strings.Split(tools, ",") {
			if t = strings.TrimSpace(t); t != "" {
				out = append(out, t)
			}
		}
		return out
	}
	return strings.Fields(tools)
}

func (s *skillCheck) checkTools() {
	if s.fm.AllowedTools == nil {
		return
	}
	tools := splitToolList(*s.fm.AllowedTools)
	line, col := fmKeyLineCol(s.parts, s.starts, "allowed-tools")

	if s.cfg.IsRuleEnabled("CC-SK-007") {
		// Search only from the allowed-tools line so "Bash" in the
		// description does not produce fixes at the wrong offset.
		searchStart := s.parts.Start
		if off := fmKeyOffset(s.parts.Frontmatter, "allowed-tools"); off >= 0 {
			searchStart = s.parts.Start + off
		}
		positions := plainBashPositions(s.content, searchStart)
		next := 0
		for _, tool := range tools {
			if tool != "Bash" {
				continue
			}
			d := lint.NewWarning(s.path, line, col, "CC-SK-007",
				"Unrestricted 'Bash' grants the skill arbitrary command execution").
				WithSuggestion("Scope Bash to the commands the skill needs, e.g. Bash(git:*)")
			if next < len(positions) {
				p := positions[next]
				next++
				d = d.WithFix(lint.Fix{
					StartByte:   p[0],
					EndByte:     p[1],
					Replacement: "Bash(git:*)",
					Description: "Scope Bash to git commands",
					Safe:        false,
				})
			}
			s.diags = append(s.diags, d)
		}
	}

	if s.cfg.IsRuleEnabled("CC-SK-008") {
		known := strings.Join(knownSkillTools, ", ")
		for _, tool := range tools {
			base := tool
			if i := strings.IndexByte(tool, '('); i >= 0 {
				base = tool[:i]
			}
			if !isValidToolName(base, knownSkillTools) {
				s.diags = append(s.diags, lint.NewError(s.path, line, col, "CC-SK-008",
					fmt.Sprintf("Unknown tool '%s' in allowed-tools", base)).
					WithSuggestion(fmt.Sprintf("Use a known tool (%s) or an MCP tool of the form mcp__<server>__<tool>", known)))
			}
		}
	}
}

// plainBashPositions finds byte spans of bare "Bash" tokens from
// searchStart on, skipping scoped forms like Bash(git:*).
func plainBashPositions(content string, searchStart int) [][2]int {
	var out [][2]int
	for _, loc := range plainBashRe.FindAllStringIndex(content[searchStart:], -1) {
		end := searchStart + loc[1]
		if end < len(content) && content[end] == '(' {
			continue
		}
		out = append(out, [2]int{searchStart + loc[0], end})
	}
	return out
}

func (s *skillCheck) checkSafety() {
	if s.cfg.IsRuleEnabled("CC-SK-006") && s.fm.Name != nil {
		nameLower := strings.ToLower(*s.fm.Name)
		dangerous := false
		for _, d := range dangerousSkillNames {
			if strings.Contains(nameLower, d) {
				dangerous = true
				break
			}
		}
		disabled := s.fm.DisableModelInvocation != nil && *s.fm.DisableModelInvocation
		if dangerous && !disabled {
			line, col := fmKeyLineCol(s.parts, s.starts, "name")
			s.diags = append(s.diags, lint.NewError(s.path, line, col, "CC-SK-006",
				fmt.Sprintf("Skill '%s' performs a dangerous operation but can be auto-invoked by the model", *s.fm.Name)).
				WithSuggestion("Set 'disable-model-invocation: true' so the skill only runs when a user asks for it"))
		}
	}

	if s.cfg.IsRuleEnabled("CC-SK-009") {
		count := strings.Count(s.content, "!`")
		if count > maxInjections {
			line, col := lineColAt(s.parts.Start, s.starts)
			s.diags = append(s.diags, lint.NewWarning(s.path, line, col, "CC-SK-009",
				fmt.Sprintf("Skill uses %d dynamic injections; more than %d slows every invocation", count, maxInjections)).
				WithSuggestion("Move static context into the skill body and keep only the injections that must run at invocation time"))
		}
	}
}

// checkHooksField validates the shape of a hooks block declared in skill
// frontmatter: a mapping of known event names to arrays.
func (s *skillCheck) checkHooksField() {
	if !s.cfg.IsRuleEnabled("CC-SK-010") || s.fm.Hooks.IsZero() {
		return
	}
	line, col := fmKeyLineCol(s.parts, s.starts, "hooks")

	node := resolveYAMLAlias(&s.fm.Hooks)
	if node.Kind != yaml.MappingNode {
		s.diags = append(s.diags, lint.NewError(s.path, line, col, "CC-SK-010",
			"hooks must be a mapping of event names to hook arrays").
			WithSuggestion("Declare hooks as 'EventName: [ ... ]' entries"))
		return
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		event := node.Content[i].Value
		if !isValidEvent(event) {
			s.diags = append(s.diags, lint.NewError(s.path, line, col, "CC-SK-010",
				fmt.Sprintf("Invalid hook event '%s'", event)).
				WithSuggestion(fmt.Sprintf("Valid events are: %s", strings.Join(validEvents, ", "))))
		}
		if value := resolveYAMLAlias(node.Content[i+1]); value.Kind != yaml.SequenceNode {
			s.diags = append(s.diags, lint.NewError(s.path, line, col, "CC-SK-010",
				fmt.Sprintf("Hooks for event '%s' must be an array", event)).
				WithSuggestion("Wrap the event's hooks in a YAML sequence"))
		}
	}
}
