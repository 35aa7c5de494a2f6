// Copyright © 2025 The agnix authors

package rules

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/avifenesh/agnix/frontmatter"
	"github.com/avifenesh/agnix/lint"
	"github.com/avifenesh/agnix/spanutil"
)

var agentRuleIDs = []string{
	"CC-AG-001", "CC-AG-002", "CC-AG-003", "CC-AG-004", "CC-AG-009", "CC-AG-011",
}

// validAgentModels are the model aliases agent frontmatter accepts.
var validAgentModels = []string{"sonnet", "opus", "haiku", "inherit"}

// validPermissionModes are the permissionMode values Claude Code accepts.
var validPermissionModes = []string{
	"default", "acceptEdits", "dontAsk", "bypassPermissions", "plan",
}

// knownAgentTools are the built-in tools an agent definition may grant.
var knownAgentTools = []string{
	"Bash", "Read", "Write", "Edit", "Grep", "Glob", "Task",
	"WebFetch", "WebSearch", "AskUserQuestion", "TodoRead", "TodoWrite",
	"MultiTool", "NotebookEdit", "EnterPlanMode", "ExitPlanMode",
}

type agentFrontmatter struct {
	Name            *string    `yaml:"name"`
	Description     *string    `yaml:"description"`
	Model           *string    `yaml:"model"`
	PermissionMode  *string    `yaml:"permissionMode"`
	Tools           []string  `yaml:"tools"`
	DisallowedTools []string  `yaml:"disallowedTools"`
	// Value type on purpose: yaml.v3 only stores the raw node for
	// yaml.Node fields, not *yaml.Node.
	Hooks yaml.Node `yaml:"hooks"`
}

// AgentValidator checks agent definition files: required identity fields,
// model and permission-mode values, tool grants, and inline hook shape.
type AgentValidator struct{}

func (*AgentValidator) Name() string      { return "agent" }
func (*AgentValidator) RuleIDs() []string { return agentRuleIDs }

func (v *AgentValidator) Validate(path, content string, cfg *lint.Config) []lint.Diagnostic {
	parts := frontmatter.Split(content)
	if !parts.HasFrontmatter || !parts.HasClosing {
		return nil
	}

	var fm agentFrontmatter
	if err := yaml.Unmarshal([]byte(parts.Frontmatter), &fm); err != nil {
		return nil
	}

	a := agentCheck{
		path:    path,
		content: content,
		cfg:     cfg,
		parts:   parts,
		starts:  lineStarts(content),
		fm:      fm,
	}

	a.checkIdentity()
	a.checkModel()
	a.checkPermissionMode()
	a.checkTools()
	a.checkHooks()

	return a.diags
}

type agentCheck struct {
	path    string
	content string
	cfg     *lint.Config
	parts   frontmatter.Parts
	starts  []int
	fm      agentFrontmatter
	diags   []lint.Diagnostic
}

func (a *agentCheck) report(d lint.Diagnostic) {
	a.diags = append(a.diags, d)
}

func (a *agentCheck) checkIdentity() {
	if a.cfg.IsRuleEnabled("CC-AG-001") &&
		(a.fm.Name == nil || strings.TrimSpace(*a.fm.Name) == "") {
		a.report(lint.NewError(a.path, 1, 0, "CC-AG-001",
			"Agent is missing required field 'name'").
			WithSuggestion("Add a name field to the agent frontmatter"))
	}
	if a.cfg.IsRuleEnabled("CC-AG-002") &&
		(a.fm.Description == nil || strings.TrimSpace(*a.fm.Description) == "") {
		a.report(lint.NewError(a.path, 1, 0, "CC-AG-002",
			"Agent is missing required field 'description'").
			WithSuggestion("Add a description so Claude Code knows when to delegate to this agent"))
	}
}

func (a *agentCheck) checkModel() {
	if !a.cfg.IsRuleEnabled("CC-AG-003") || a.fm.Model == nil {
		return
	}
	model := *a.fm.Model
	if containsString(validAgentModels, model) {
		return
	}
	line, col := fmKeyLineCol(a.parts, a.starts, "model")
	d := lint.NewError(a.path, line, col, "CC-AG-003",
		fmt.Sprintf("Invalid model '%s': valid values are %s",
			model, strings.Join(validAgentModels, ", "))).
		WithSuggestion("Use one of: " + strings.Join(validAgentModels, ", "))
	if span, ok := spanutil.FindFrontmatterValue(a.parts.Frontmatter, a.parts.Start, "model"); ok {
		d = d.WithFix(lint.ReplaceFix(span.Start, span.End, "sonnet",
			"Replace invalid model with 'sonnet'"))
	}
	a.report(d)
}

func (a *agentCheck) checkPermissionMode() {
	if !a.cfg.IsRuleEnabled("CC-AG-004") || a.fm.PermissionMode == nil {
		return
	}
	mode := *a.fm.PermissionMode
	if containsString(validPermissionModes, mode) {
		return
	}
	line, col := fmKeyLineCol(a.parts, a.starts, "permissionMode")
	d := lint.NewError(a.path, line, col, "CC-AG-004",
		fmt.Sprintf("Invalid permissionMode '%s': valid values are %s",
			mode, strings.Join(validPermissionModes, ", "))).
		WithSuggestion("Use one of: " + strings.Join(validPermissionModes, ", "))
	if span, ok := spanutil.FindFrontmatterValue(a.parts.Frontmatter, a.parts.Start, "permissionMode"); ok {
		d = d.WithFix(lint.ReplaceFix(span.Start, span.End, "default",
			"Replace invalid permissionMode with 'default'"))
	}
	a.report(d)
}

func (a *agentCheck) checkTools() {
	if !a.cfg.IsRuleEnabled("CC-AG-009") {
		return
	}
	line, col := fmKeyLineCol(a.parts, a.starts, "tools")
	for _, tool := range a.fm.Tools {
		base := tool
		if i := strings.IndexByte(tool, '('); i >= 0 {
			base = tool[:i]
		}
		if containsString(knownAgentTools, base) {
			continue
		}
		a.report(lint.NewError(a.path, line, col, "CC-AG-009",
			fmt.Sprintf("Unknown tool '%s' in tools list: known tools are %s",
				tool, strings.Join(knownAgentTools, ", "))).
			WithSuggestion("Remove the entry or correct it to a built-in tool name"))
	}
}

// checkHooks validates the shape of inline hooks: a mapping of known
// event names to matcher lists, each matcher carrying a hooks array of
// command or prompt entries.
func (a *agentCheck) checkHooks() {
	if !a.cfg.IsRuleEnabled("CC-AG-011") || a.fm.Hooks.IsZero() {
		return
	}
	node := resolveYAMLAlias(&a.fm.Hooks)
	line, col := fmKeyLineCol(a.parts, a.starts, "hooks")

	reportShape := func(problem string) {
		a.report(lint.NewError(a.path, line, col, "CC-AG-011",
			"Invalid hooks configuration: "+problem).
			WithSuggestion("Define hooks as event names mapping to matcher lists, each with a hooks array of command or prompt entries"))
	}

	if node.Kind != yaml.MappingNode {
		reportShape("hooks must be a mapping of event names to matcher lists")
		return
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		event := node.Content[i].Value
		value := resolveYAMLAlias(node.Content[i+1])

		if !containsString(validEvents, event) {
			reportShape(fmt.Sprintf("unknown event '%s', valid events: %s",
				event, strings.Join(validEvents, ", ")))
			continue
		}
		if value.Kind != yaml.SequenceNode {
			reportShape(fmt.Sprintf("'%s' must be a list of matchers", event))
			continue
		}
		for mi, matcher := range value.Content {
			matcher = resolveYAMLAlias(matcher)
			if matcher.Kind != yaml.MappingNode {
				reportShape(fmt.Sprintf("matcher in %s.matchers[%d] must be an object", event, mi))
				continue
			}
			hooksNode := yamlMapValue(matcher, "hooks")
			if hooksNode == nil {
				reportShape(fmt.Sprintf("matcher in %s.matchers[%d] is missing required 'hooks' array", event, mi))
				continue
			}
			hooksNode = resolveYAMLAlias(hooksNode)
			if hooksNode.Kind != yaml.SequenceNode {
				reportShape(fmt.Sprintf("'hooks' field in %s.matchers[%d] must be an array", event, mi))
				continue
			}
			for hi, hook := range hooksNode.Content {
				hook = resolveYAMLAlias(hook)
				if hook.Kind != yaml.MappingNode {
					reportShape(fmt.Sprintf("hook in %s.matchers[%d].hooks[%d] must be an object", event, mi, hi))
					continue
				}
				typNode := yamlMapValue(hook, "type")
				switch {
				case typNode == nil:
					reportShape(fmt.Sprintf("hook in %s.matchers[%d].hooks[%d] is missing required 'type' field", event, mi, hi))
				case typNode.Value != "command" && typNode.Value != "prompt":
					reportShape(fmt.Sprintf("hook type '%s' in %s.matchers[%d].hooks[%d] is invalid, must be 'command' or 'prompt'",
						typNode.Value, event, mi, hi))
				}
			}
		}
	}
}

func resolveYAMLAlias(n *yaml.Node) *yaml.Node {
	if n != nil && n.Kind == yaml.AliasNode && n.Alias != nil {
		return n.Alias
	}
	return n
}

func yamlMapValue(mapping *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}
