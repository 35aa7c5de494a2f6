// Copyright © 2025 The agnix authors

package rules

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/avifenesh/agnix/lint"
	"github.com/avifenesh/agnix/spanutil"
)

var hooksRuleIDs = []string{
	"CC-HK-001", "CC-HK-002", "CC-HK-003", "CC-HK-004", "CC-HK-005",
	"CC-HK-006", "CC-HK-007", "CC-HK-008", "CC-HK-009", "CC-HK-010",
	"CC-HK-011", "CC-HK-012", "CC-HK-013", "CC-HK-014", "CC-HK-016",
}

// validHookTypes are the hook kinds Claude Code executes.
var validHookTypes = []string{"command", "prompt", "agent"}

// validEvents are the hook event names Claude Code dispatches,
// case-sensitive.
var validEvents = []string{
	"PreToolUse",
	"PermissionRequest",
	"PostToolUse",
	"PostToolUseFailure",
	"Notification",
	"UserPromptSubmit",
	"Stop",
	"SubagentStart",
	"SubagentStop",
	"PreCompact",
	"Setup",
	"SessionStart",
	"SessionEnd",
	"TeammateIdle",
	"TaskCompleted",
}

// toolEvents require a matcher selecting which tools trigger the hook.
var toolEvents = []string{
	"PreToolUse", "PermissionRequest", "PostToolUse", "PostToolUseFailure",
}

// promptEvents are the only events prompt and agent hooks may run on.
var promptEvents = []string{"Stop", "SubagentStop"}

// Default timeouts per hook type, in seconds, from the Claude Code docs.
const (
	commandHookDefaultTimeout = 600
	promptHookDefaultTimeout  = 30
)

// timeoutAssumption is attached to CC-HK-010 findings when no claude-code
// version is pinned, since the defaults may change across releases.
const timeoutAssumption = "Assuming current Claude Code defaults (command hooks 600s, prompt hooks 30s); pin claude-code under [tool_versions] to lock this in"

type dangerousPattern struct {
	re      *regexp.Regexp
	pattern string
	reason  string
}

var dangerousPatterns = compileDangerous([][2]string{
	{`rm\s+-rf\s+/`, "Recursive delete from root is extremely dangerous"},
	{`rm\s+-rf\s+\*`, "Recursive delete with wildcard could delete unintended files"},
	{`rm\s+-rf\s+\.\.`, "Recursive delete of parent directories is dangerous"},
	{`git\s+reset\s+--hard`, "Hard reset discards uncommitted changes permanently"},
	{`git\s+clean\s+-fd`, "Git clean -fd removes untracked files permanently"},
	{`git\s+push\s+.*--force`, "Force push can overwrite remote history"},
	{`drop\s+database`, "Dropping database is irreversible"},
	{`drop\s+table`, "Dropping table is irreversible"},
	{`truncate\s+table`, "Truncating table deletes all data"},
	{`curl\s+.*\|\s*sh`, "Piping curl to shell is a security risk"},
	{`curl\s+.*\|\s*bash`, "Piping curl to bash is a security risk"},
	{`wget\s+.*\|\s*sh`, "Piping wget to shell is a security risk"},
	{`chmod\s+777`, "chmod 777 gives everyone full access"},
	{`>\s*/dev/sd[a-z]`, "Writing directly to block devices can destroy data"},
	{`mkfs\.`, "Formatting filesystem destroys all data"},
	{`dd\s+if=.*of=/dev/`, "dd to device can destroy data"},
})

func compileDangerous(specs [][2]string) []dangerousPattern {
	out := make([]dangerousPattern, len(specs))
	for i, s := range specs {
		out[i] = dangerousPattern{
			re:      regexp.MustCompile("(?i)" + s[0]),
			pattern: s[0],
			reason:  s[1],
		}
	}
	return out
}

var positiveIntRe = regexp.MustCompile(`^[1-9][0-9]*$`)

var scriptPatterns = []*regexp.Regexp{
	regexp.MustCompile(`["']?([^\s"']+\.sh)["']?\b`),
	regexp.MustCompile(`["']?([^\s"']+\.bash)["']?\b`),
	regexp.MustCompile(`["']?([^\s"']+\.py)["']?\b`),
	regexp.MustCompile(`["']?([^\s"']+\.js)["']?\b`),
	regexp.MustCompile(`["']?([^\s"']+\.ts)["']?\b`),
}

// hookEntry is one hook in a matcher's hooks array. Type stays raw so a
// non-string type reaches CC-HK-016 instead of failing the whole decode.
type hookEntry struct {
	Type    json.RawMessage `json:"type"`
	Command *string         `json:"command"`
	Prompt  *string         `json:"prompt"`
	Timeout json.RawMessage `json:"timeout"`
	Model   *string         `json:"model"`
	Async   json.RawMessage `json:"async"`
	Once    json.RawMessage `json:"once"`
}

// typeString returns the hook type when it is a JSON string, or
// ok=false for absent or non-string values.
func (h hookEntry) typeString() (string, bool) {
	if len(h.Type) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(h.Type, &s); err != nil {
		return "", false
	}
	return s, true
}

type hookMatcher struct {
	Matcher *string     `json:"matcher"`
	Hooks   []hookEntry `json:"hooks"`
}

type hooksDocument struct {
	Hooks map[string][]hookMatcher `json:"hooks"`
}

// timeoutSeconds parses the raw timeout value. ok is false when the
// field is absent; invalid is true for anything that is not a positive
// integer (zero, negatives, floats, strings, ...).
func (h hookEntry) timeoutSeconds() (seconds uint64, ok, invalid bool) {
	if len(h.Timeout) == 0 {
		return 0, false, false
	}
	raw := strings.TrimSpace(string(h.Timeout))
	if !positiveIntRe.MatchString(raw) {
		return 0, false, true
	}
	if _, err := fmt.Sscan(raw, &seconds); err != nil {
		return 0, false, true
	}
	return seconds, true, false
}

func isToolEvent(event string) bool {
	for _, e := range toolEvents {
		if e == event {
			return true
		}
	}
	return false
}

func isPromptEvent(event string) bool {
	for _, e := range promptEvents {
		if e == event {
			return true
		}
	}
	return false
}

func isValidEvent(event string) bool {
	for _, e := range validEvents {
		if e == event {
			return true
		}
	}
	return false
}

// HooksValidator checks hook declarations in settings.json: event names,
// matcher usage, hook shape, timeout policy, and dangerous commands.
type HooksValidator struct{}

func (*HooksValidator) Name() string      { return "hooks" }
func (*HooksValidator) RuleIDs() []string { return hooksRuleIDs }

func (v *HooksValidator) Validate(path, content string, cfg *lint.Config) []lint.Diagnostic {
	var diags []lint.Diagnostic

	var doc hooksDocument
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		if cfg.IsRuleEnabled("CC-HK-012") {
			diags = append(diags, lint.NewError(path, 1, 0, "CC-HK-012",
				fmt.Sprintf("Invalid JSON: %v", err)).
				WithSuggestion("Fix the JSON syntax; hooks were not validated"))
		}
		return diags
	}

	// Events are sorted so diagnostics come out in the same order on
	// every run regardless of map iteration.
	events := make([]string, 0, len(doc.Hooks))
	for event := range doc.Hooks {
		events = append(events, event)
	}
	sort.Strings(events)

	// CC-HK-005 runs first over the whole document: a hook without a
	// type cannot be classified, so structural validation stops here.
	if cfg.IsRuleEnabled("CC-HK-005") {
		for _, event := range events {
			for mi, matcher := range doc.Hooks[event] {
				for hi, hook := range matcher.Hooks {
					if len(hook.Type) == 0 {
						diags = append(diags, lint.NewError(path, 1, 0, "CC-HK-005",
							fmt.Sprintf("Hook at hooks.%s[%d].hooks[%d] is missing the required 'type' field", event, mi, hi)).
							WithSuggestion(`Add "type": "command" or "type": "prompt" to the hook`))
					}
				}
			}
		}
		if len(diags) > 0 {
			return diags
		}
	}

	if cfg.IsRuleEnabled("CC-HK-011") {
		for _, event := range events {
			for mi, matcher := range doc.Hooks[event] {
				for hi, hook := range matcher.Hooks {
					if _, _, invalid := hook.timeoutSeconds(); invalid {
						d := lint.NewError(path, 1, 0, "CC-HK-011",
							fmt.Sprintf("Hook at hooks.%s[%d].hooks[%d] has an invalid timeout", event, mi, hi)).
							WithSuggestion("Timeouts must be positive integers, in seconds")
						raw := strings.TrimSpace(string(hook.Timeout))
						if span, ok := spanutil.FindUniqueJSONKeyValue(content, "timeout", raw); ok {
							d = d.WithFix(lint.Fix{
								StartByte:   span.Start,
								EndByte:     span.End,
								Replacement: "30",
								Description: "Set timeout to 30 seconds",
								Safe:        false,
							})
						}
						diags = append(diags, d)
					}
				}
			}
		}
	}

	projectDir := hooksProjectDir(path)
	versionPinned := cfg.ToolVersions["claude-code"] != ""

	for _, event := range events {
		if !isValidEvent(event) {
			if cfg.IsRuleEnabled("CC-HK-001") {
				diags = append(diags, v.invalidEvent(path, content, event))
			}
			continue
		}

		for mi, matcher := range doc.Hooks[event] {
			if cfg.IsRuleEnabled("CC-HK-003") && isToolEvent(event) && matcher.Matcher == nil {
				diags = append(diags, lint.NewError(path, 1, 0, "CC-HK-003",
					fmt.Sprintf("Tool event '%s' at hooks.%s[%d] is missing a matcher", event, event, mi)).
					WithSuggestion(`Add a "matcher" selecting which tools trigger the hook, e.g. "Bash" or "*"`))
			}
			if cfg.IsRuleEnabled("CC-HK-004") && !isToolEvent(event) && matcher.Matcher != nil {
				diags = append(diags, lint.NewError(path, 1, 0, "CC-HK-004",
					fmt.Sprintf("Event '%s' at hooks.%s[%d] does not take a matcher", event, event, mi)).
					WithSuggestion("Remove the matcher; only tool events filter by tool name"))
			}

			for hi, hook := range matcher.Hooks {
				loc := hookLocation(event, matcher.Matcher, mi, hi)

				if cfg.IsRuleEnabled("CC-HK-014") && len(hook.Once) > 0 {
					diags = append(diags, lint.NewWarning(path, 1, 0, "CC-HK-014",
						fmt.Sprintf("Hook at %s sets 'once', which settings.json hooks do not support", loc)).
						WithSuggestion("Move the hook into skill or agent frontmatter, where 'once' is honored"))
				}

				hookType, isString := hook.typeString()
				switch {
				case isString && hookType == "command":
					diags = append(diags, v.checkCommandHook(path, hook, loc, versionPinned, projectDir, cfg)...)
				case isString && (hookType == "prompt" || hookType == "agent"):
					diags = append(diags, v.checkPromptHook(path, content, event, hook, loc, versionPinned, cfg)...)
				default:
					// A missing type was already reported by CC-HK-005.
					if cfg.IsRuleEnabled("CC-HK-016") && len(hook.Type) > 0 {
						diags = append(diags, v.unknownHookType(path, content, hook, loc))
					}
				}
			}
		}
	}

	return diags
}

func hookLocation(event string, matcher *string, mi, hi int) string {
	sel := fmt.Sprintf("[%d]", mi)
	if matcher != nil {
		sel = fmt.Sprintf("[matcher=%s]", *matcher)
	}
	return fmt.Sprintf("hooks.%s%s.hooks[%d]", event, sel, hi)
}

// invalidEvent builds the CC-HK-001 diagnostic. A case-insensitive match
// against a known event yields a safe autofix; a partial match yields an
// unsafe one.
func (*HooksValidator) invalidEvent(path, content, event string) lint.Diagnostic {
	corrected, caseOnly := closestEvent(event)

	suggestion := fmt.Sprintf("Valid events are: %s", strings.Join(validEvents, ", "))
	if corrected != "" {
		if caseOnly {
			suggestion = fmt.Sprintf("Did you mean '%s'? Event names are case-sensitive.", corrected)
		} else {
			suggestion = fmt.Sprintf("Did you mean '%s'?", corrected)
		}
	}

	d := lint.NewError(path, 1, 0, "CC-HK-001",
		fmt.Sprintf("Unknown hook event '%s'", event)).
		WithSuggestion(suggestion)

	if corrected != "" {
		if span, ok := spanutil.FindEventKey(content, event); ok {
			d = d.WithFix(lint.Fix{
				StartByte:   span.Start,
				EndByte:     span.End,
				Replacement: fmt.Sprintf("%q", corrected),
				Description: fmt.Sprintf("Rename event '%s' to '%s'", event, corrected),
				Safe:        caseOnly,
			})
		}
	}
	return d
}

func closestEvent(invalid string) (corrected string, caseOnly bool) {
	lower := strings.ToLower(invalid)
	for _, valid := range validEvents {
		if strings.ToLower(valid) == lower {
			return valid, true
		}
	}
	for _, valid := range validEvents {
		vl := strings.ToLower(valid)
		if strings.Contains(vl, lower) || strings.Contains(lower, vl) {
			return valid, false
		}
	}
	return "", false
}

// unknownHookType builds the CC-HK-016 diagnostic for a hook whose type
// is a non-string value or a string outside the known kinds. String
// values with a close valid match get an unsafe replacement fix.
func (*HooksValidator) unknownHookType(path, content string, hook hookEntry, loc string) lint.Diagnostic {
	typeStr, isString := hook.typeString()
	shown := strings.TrimSpace(string(hook.Type))
	if isString {
		shown = fmt.Sprintf("'%s'", typeStr)
	}

	d := lint.NewError(path, 1, 0, "CC-HK-016",
		fmt.Sprintf("Hook at %s has an unknown type %s", loc, shown)).
		WithSuggestion(fmt.Sprintf("Valid hook types are: %s", strings.Join(validHookTypes, ", ")))

	if isString {
		if corrected := closestValue(typeStr, validHookTypes); corrected != "" {
			if span, ok := spanutil.FindUniqueJSONStringInner(content, "type", typeStr); ok {
				d = d.WithFix(lint.Fix{
					StartByte:   span.Start,
					EndByte:     span.End,
					Replacement: corrected,
					Description: fmt.Sprintf("Change hook type to '%s'", corrected),
					Safe:        false,
				})
			}
		}
	}
	return d
}

func (*HooksValidator) checkCommandHook(path string, hook hookEntry, loc string, versionPinned bool, projectDir string, cfg *lint.Config) []lint.Diagnostic {
	var diags []lint.Diagnostic

	if cfg.IsRuleEnabled("CC-HK-010") {
		seconds, ok, invalid := hook.timeoutSeconds()
		if !ok && !invalid {
			d := lint.NewWarning(path, 1, 0, "CC-HK-010",
				fmt.Sprintf("Command hook at %s has no timeout and falls back to the %ds default", loc, commandHookDefaultTimeout)).
				WithSuggestion("Set an explicit timeout matching what the command actually needs")
			if !versionPinned {
				d = d.WithAssumption(timeoutAssumption)
			}
			diags = append(diags, d)
		} else if ok && seconds > commandHookDefaultTimeout {
			d := lint.NewWarning(path, 1, 0, "CC-HK-010",
				fmt.Sprintf("Command hook at %s sets timeout %ds, above the %ds default ceiling", loc, seconds, commandHookDefaultTimeout)).
				WithSuggestion(fmt.Sprintf("Keep command hook timeouts at or below %ds", commandHookDefaultTimeout))
			if !versionPinned {
				d = d.WithAssumption(timeoutAssumption)
			}
			diags = append(diags, d)
		}
	}

	if cfg.IsRuleEnabled("CC-HK-006") && hook.Command == nil {
		diags = append(diags, lint.NewError(path, 1, 0, "CC-HK-006",
			fmt.Sprintf("Command hook at %s is missing the 'command' field", loc)).
			WithSuggestion("Add the shell command the hook should run"))
	}

	if hook.Command != nil {
		cmd := *hook.Command
		if cfg.IsRuleEnabled("CC-HK-008") {
			fs := cfg.Filesystem()
			for _, script := range extractScriptPaths(cmd) {
				if hasUnresolvedEnvVars(script) {
					continue
				}
				resolved := resolveScriptPath(script, projectDir)
				if !fs.Exists(resolved) {
					diags = append(diags, lint.NewError(path, 1, 0, "CC-HK-008",
						fmt.Sprintf("Hook script '%s' not found (resolved to %s)", script, resolved)).
						WithSuggestion("Create the script or fix the path; $CLAUDE_PROJECT_DIR resolves to the project root"))
				}
			}
		}
		if cfg.IsRuleEnabled("CC-HK-009") {
			for _, dp := range dangerousPatterns {
				if dp.re.MatchString(cmd) {
					diags = append(diags, lint.NewWarning(path, 1, 0, "CC-HK-009",
						fmt.Sprintf("Hook command matches a dangerous pattern: %s", dp.reason)).
						WithSuggestion(fmt.Sprintf("Remove or guard the '%s' construct; hooks run without confirmation", dp.pattern)))
					break
				}
			}
		}
	}

	return diags
}

func (*HooksValidator) checkPromptHook(path, content, event string, hook hookEntry, loc string, versionPinned bool, cfg *lint.Config) []lint.Diagnostic {
	var diags []lint.Diagnostic

	if cfg.IsRuleEnabled("CC-HK-013") && len(hook.Async) > 0 {
		d := lint.NewError(path, 1, 0, "CC-HK-013",
			fmt.Sprintf("Hook at %s sets 'async', which only command hooks support", loc)).
			WithSuggestion("Remove the async field; prompt and agent hooks always run synchronously")
		if span, ok := spanutil.FindUniqueJSONFieldLine(content, "async"); ok {
			d = d.WithFix(lint.Fix{
				StartByte:   span.Start,
				EndByte:     span.End,
				Replacement: "",
				Description: "Remove the async field",
				Safe:        true,
			})
		}
		diags = append(diags, d)
	}

	if cfg.IsRuleEnabled("CC-HK-010") {
		seconds, ok, invalid := hook.timeoutSeconds()
		if !ok && !invalid {
			d := lint.NewWarning(path, 1, 0, "CC-HK-010",
				fmt.Sprintf("Prompt hook at %s has no timeout and falls back to the %ds default", loc, promptHookDefaultTimeout)).
				WithSuggestion("Set an explicit timeout so slow model responses fail predictably")
			if !versionPinned {
				d = d.WithAssumption(timeoutAssumption)
			}
			diags = append(diags, d)
		} else if ok && seconds > promptHookDefaultTimeout {
			d := lint.NewWarning(path, 1, 0, "CC-HK-010",
				fmt.Sprintf("Prompt hook at %s sets timeout %ds, above the %ds default ceiling", loc, seconds, promptHookDefaultTimeout)).
				WithSuggestion(fmt.Sprintf("Keep prompt hook timeouts at or below %ds", promptHookDefaultTimeout))
			if !versionPinned {
				d = d.WithAssumption(timeoutAssumption)
			}
			diags = append(diags, d)
		}
	}

	if cfg.IsRuleEnabled("CC-HK-002") && !isPromptEvent(event) {
		diags = append(diags, lint.NewError(path, 1, 0, "CC-HK-002",
			fmt.Sprintf("Prompt hook at %s is not allowed on event '%s'", loc, event)).
			WithSuggestion(fmt.Sprintf("Prompt hooks only run on: %s", strings.Join(promptEvents, ", "))))
	}

	if cfg.IsRuleEnabled("CC-HK-007") && hook.Prompt == nil {
		diags = append(diags, lint.NewError(path, 1, 0, "CC-HK-007",
			fmt.Sprintf("Prompt hook at %s is missing the 'prompt' field", loc)).
			WithSuggestion("Add the prompt text the hook should send"))
	}

	return diags
}

// hooksProjectDir derives the project root from a settings.json path,
// stepping out of a .claude directory when present.
func hooksProjectDir(path string) string {
	dir := filepath.Dir(path)
	if filepath.Base(dir) == ".claude" {
		return filepath.Dir(dir)
	}
	return dir
}

func extractScriptPaths(command string) []string {
	var paths []string
	for _, re := range scriptPatterns {
		for _, m := range re.FindAllStringSubmatch(command, -1) {
			p := strings.Trim(m[1], `"'`)
			if strings.Contains(p, "://") || strings.HasPrefix(p, "http") {
				continue
			}
			paths = append(paths, p)
		}
	}
	return paths
}

func resolveScriptPath(script, projectDir string) string {
	resolved := strings.ReplaceAll(script, "${CLAUDE_PROJECT_DIR}", projectDir)
	resolved = strings.ReplaceAll(resolved, "$CLAUDE_PROJECT_DIR", projectDir)
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(projectDir, resolved)
	}
	return resolved
}

// hasUnresolvedEnvVars reports whether a script path still references
// environment variables other than CLAUDE_PROJECT_DIR; those cannot be
// checked for existence.
func hasUnresolvedEnvVars(path string) bool {
	stripped := strings.ReplaceAll(path, "${CLAUDE_PROJECT_DIR}", "")
	stripped = strings.ReplaceAll(stripped, "$CLAUDE_PROJECT_DIR", "")
	return strings.Contains(stripped, "$")
}
