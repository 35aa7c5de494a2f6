// Copyright © 2025 The agnix authors

package rules

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/avifenesh/agnix/lint"
	"github.com/avifenesh/agnix/spanutil"
)

var mcpRuleIDs = []string{
	"MCP-001", "MCP-002", "MCP-003", "MCP-004", "MCP-005", "MCP-006",
	"MCP-007", "MCP-009", "MCP-010", "MCP-011", "MCP-012", "MCP-013",
	"MCP-017", "MCP-018", "MCP-019", "MCP-021", "MCP-022", "MCP-023",
	"MCP-024",
}

// validServerTypes are the transports an mcpServers entry may declare.
var validServerTypes = []string{"stdio", "http", "sse", "ws"}

// serverSecretMarkers flag env var names that usually carry credentials.
var serverSecretMarkers = []string{"API_KEY", "SECRET", "TOKEN", "PASSWORD"}

// validAnnotationHints are the annotation keys the MCP spec defines for
// tool definitions. Anything else is flagged as unknown.
var validAnnotationHints = []string{
	"readOnlyHint", "destructiveHint", "idempotentHint", "openWorldHint", "title",
}

// mcpTool is one entry of a tools array or a tools/list response. Pointer
// fields distinguish absent from empty; typed fields make malformed
// entries fail decoding so they can be reported instead of half-validated.
type mcpTool struct {
	Name         *string                    `json:"name"`
	Description  *string                    `json:"description"`
	InputSchema  json.RawMessage            `json:"inputSchema"`
	OutputSchema json.RawMessage            `json:"outputSchema"`
	Title        *string                    `json:"title"`
	Annotations  map[string]json.RawMessage `json:"annotations"`
}

func (t *mcpTool) hasName() bool {
	return t.Name != nil && strings.TrimSpace(*t.Name) != ""
}

func (t *mcpTool) hasDescription() bool {
	return t.Description != nil && strings.TrimSpace(*t.Description) != ""
}

func (t *mcpTool) hasInputSchema() bool {
	return rawPresent(t.InputSchema)
}

// hasMeaningfulDescription requires enough text for a model to choose
// between tools; single words don't qualify.
func (t *mcpTool) hasMeaningfulDescription() bool {
	if t.Description == nil {
		return false
	}
	return len(strings.TrimSpace(*t.Description)) >= 10
}

// hasConsentFields reports whether the tool declares the annotation
// hints clients use to decide when to ask the user for consent.
func (t *mcpTool) hasConsentFields() bool {
	if t.Annotations == nil {
		return false
	}
	_, ro := t.Annotations["readOnlyHint"]
	_, destructive := t.Annotations["destructiveHint"]
	return ro || destructive
}

func rawPresent(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}

// McpValidator checks MCP registries, tool definitions, and tools/list
// responses: JSON-RPC versioning, required tool fields, inputSchema
// structure, consent annotations, and duplicate server names.
type McpValidator struct{}

func (v *McpValidator) Name() string { return "mcp" }

func (v *McpValidator) RuleIDs() []string { return mcpRuleIDs }

func (v *McpValidator) Validate(path, content string, cfg *lint.Config) []lint.Diagnostic {
	var root map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &root); err != nil {
		if !cfg.IsRuleEnabled("MCP-007") {
			return nil
		}
		msg := fmt.Sprintf("Invalid JSON: %v", err)
		if json.Valid([]byte(content)) {
			msg = "Top-level value must be a JSON object"
		}
		return []lint.Diagnostic{lint.NewError(path, 1, 0, "MCP-007", msg).
			WithSuggestion("Fix the JSON so the document is a single top-level object")}
	}

	var diags []lint.Diagnostic
	starts := lineStarts(content)

	if cfg.IsRuleEnabled("MCP-001") {
		diags = append(diags, checkJSONRPCVersion(path, content, starts, root)...)
	}

	toolSpans := collectToolsArraySpans(content)
	tools, toolDiags := extractMcpTools(path, content, starts, root, toolSpans)
	diags = append(diags, toolDiags...)

	for i, tool := range tools {
		mc := mcpToolCheck{
			path:    path,
			content: content,
			starts:  starts,
			cfg:     cfg,
			tool:    tool,
			index:   i,
		}
		if i < len(toolSpans) {
			mc.span = toolSpans[i]
			mc.hasSpan = true
		}
		diags = append(diags, mc.run()...)
	}

	diags = append(diags, validateServers(path, content, starts, root, cfg)...)

	if cfg.IsRuleEnabled("MCP-023") {
		diags = append(diags, checkDuplicateServerNames(path, content, starts)...)
	}

	return diags
}

// checkJSONRPCVersion flags a jsonrpc field that is present but not the
// string "2.0". A missing field is fine: only JSON-RPC messages carry
// one, plain registries and tool definitions don't.
func checkJSONRPCVersion(path, content string, starts []int, root map[string]json.RawMessage) []lint.Diagnostic {
	raw, ok := root["jsonrpc"]
	if !ok {
		return nil
	}
	line, col := findJSONFieldLocation(content, starts, "jsonrpc")

	var version string
	var message string
	if err := json.Unmarshal(raw, &version); err != nil {
		message = "jsonrpc version must be a string"
	} else if version == "2.0" {
		return nil
	} else {
		message = fmt.Sprintf("Invalid JSON-RPC version '%s': MCP requires \"2.0\"", version)
	}

	d := lint.NewError(path, line, col, "MCP-001", message).
		WithSuggestion("Set the jsonrpc field to the string \"2.0\"")
	if span, ok := spanutil.FindUniqueJSONScalarSpan(content, "jsonrpc"); ok {
		fix := lint.ReplaceFix(span.Start, span.End, `"2.0"`, `Set jsonrpc version to "2.0"`)
		fix.Safe = true
		d = d.WithFix(fix)
	}
	return []lint.Diagnostic{d}
}

// extractMcpTools gathers tool definitions from wherever the document
// keeps them: a root tools array, a tools/list response under result, or
// the whole document when it looks like a single tool. Entries that fail
// to decode are reported rather than skipped.
func extractMcpTools(path, content string, starts []int, root map[string]json.RawMessage, toolSpans []spanutil.Span) ([]*mcpTool, []lint.Diagnostic) {
	var tools []*mcpTool
	var diags []lint.Diagnostic

	decodeArray := func(raw json.RawMessage, spanOffset int) {
		var entries []json.RawMessage
		if json.Unmarshal(raw, &entries) != nil {
			return
		}
		for i, entry := range entries {
			var tool mcpTool
			if err := json.Unmarshal(entry, &tool); err != nil {
				line, col := 1, 0
				if idx := spanOffset + i; idx < len(toolSpans) {
					line, col = lineColAt(toolSpans[idx].Start, starts)
				}
				diags = append(diags, lint.NewError(path, line, col, "mcp::invalid_tool",
					fmt.Sprintf("Tool #%d could not be parsed: %v", i+1, err)).
					WithSuggestion("Each tool must be a JSON object with name, description, and inputSchema"))
				continue
			}
			tools = append(tools, &tool)
		}
	}

	if raw, ok := root["tools"]; ok && rawPresent(raw) {
		decodeArray(raw, 0)
	}
	if raw, ok := root["result"]; ok && rawPresent(raw) {
		var result map[string]json.RawMessage
		if json.Unmarshal(raw, &result) == nil {
			if inner, ok := result["tools"]; ok && rawPresent(inner) {
				decodeArray(inner, len(tools))
			}
		}
	}
	if len(tools) > 0 || len(diags) > 0 {
		return tools, diags
	}

	// Root-level single tool. Keying on any tool field (not all of them)
	// lets incomplete definitions reach the MCP-002 checks.
	looksLikeTool := false
	for _, field := range []string{"name", "description", "inputSchema", "outputSchema", "title", "icons"} {
		if _, ok := root[field]; ok {
			looksLikeTool = true
			break
		}
	}
	if looksLikeTool {
		var tool mcpTool
		if err := json.Unmarshal([]byte(content), &tool); err != nil {
			diags = append(diags, lint.NewError(path, 1, 0, "mcp::invalid_tool",
				fmt.Sprintf("Tool definition could not be parsed: %v", err)).
				WithSuggestion("Each tool must be a JSON object with name, description, and inputSchema"))
		} else {
			tools = append(tools, &tool)
		}
	}

	return tools, diags
}

// mcpToolCheck validates one tool definition.
type mcpToolCheck struct {
	path    string
	content string
	starts  []int
	cfg     *lint.Config
	tool    *mcpTool
	index   int
	span    spanutil.Span
	hasSpan bool
}

func (c *mcpToolCheck) prefix() string {
	return fmt.Sprintf("Tool #%d: ", c.index+1)
}

// toolLineCol is the position of the tool's opening brace, or the start
// of the document for a root-level tool.
func (c *mcpToolCheck) toolLineCol() (int, int) {
	if c.hasSpan {
		return lineColAt(c.span.Start, c.starts)
	}
	return 1, 0
}

// fieldLineCol locates a field inside the tool's own span first, falling
// back to a whole-document search and then to the tool position.
func (c *mcpToolCheck) fieldLineCol(field string) (int, int) {
	pattern := `"` + field + `"`
	if c.hasSpan && c.span.Start < c.span.End && c.span.End <= len(c.content) {
		if rel := strings.Index(c.content[c.span.Start:c.span.End], pattern); rel >= 0 {
			return lineColAt(c.span.Start+rel, c.starts)
		}
	}
	if pos := strings.Index(c.content, pattern); pos >= 0 {
		return lineColAt(pos, c.starts)
	}
	return c.toolLineCol()
}

func (c *mcpToolCheck) run() []lint.Diagnostic {
	var diags []lint.Diagnostic

	if c.cfg.IsRuleEnabled("MCP-002") {
		diags = append(diags, c.checkRequiredFields()...)
	}
	if c.cfg.IsRuleEnabled("MCP-013") && c.tool.Name != nil {
		if name := strings.TrimSpace(*c.tool.Name); name != "" && !isValidMcpToolName(name) {
			line, col := c.fieldLineCol("name")
			diags = append(diags, lint.NewError(c.path, line, col, "MCP-013",
				fmt.Sprintf("%sinvalid tool name '%s': expected 1-128 chars using [a-zA-Z0-9_.-]", c.prefix(), name)).
				WithSuggestion("Rename the tool to use only letters, numbers, underscore, dot, or hyphen"))
		}
	}
	if c.cfg.IsRuleEnabled("MCP-003") && rawPresent(c.tool.InputSchema) {
		diags = append(diags, c.checkInputSchema()...)
	}
	if c.cfg.IsRuleEnabled("MCP-004") && c.tool.hasDescription() && !c.tool.hasMeaningfulDescription() {
		line, col := c.fieldLineCol("description")
		descLen := len(*c.tool.Description)
		diags = append(diags, lint.NewWarning(c.path, line, col, "MCP-004",
			fmt.Sprintf("%sdescription is too short (%d chars) to guide tool selection", c.prefix(), descLen)).
			WithSuggestion("Describe what the tool does and when a model should pick it"))
	}
	if c.cfg.IsRuleEnabled("MCP-005") && !c.tool.hasConsentFields() {
		line, col := c.toolLineCol()
		diags = append(diags, lint.NewWarning(c.path, line, col, "MCP-005",
			c.prefix()+"no user consent mechanism declared").
			WithSuggestion("Add annotations with readOnlyHint or destructiveHint so clients can prompt for consent"))
	}
	if c.cfg.IsRuleEnabled("MCP-006") && len(c.tool.Annotations) > 0 {
		diags = append(diags, c.checkAnnotations()...)
	}

	return diags
}

func (c *mcpToolCheck) checkRequiredFields() []lint.Diagnostic {
	var diags []lint.Diagnostic

	if !c.tool.hasName() {
		line, col := c.toolLineCol()
		if c.tool.Name != nil {
			line, col = c.fieldLineCol("name")
		}
		diags = append(diags, lint.NewError(c.path, line, col, "MCP-002",
			c.prefix()+"missing required field 'name'").
			WithSuggestion("Add a non-empty name to the tool definition"))
	}
	if !c.tool.hasDescription() {
		line, col := c.toolLineCol()
		if c.tool.Description != nil {
			line, col = c.fieldLineCol("description")
		}
		diags = append(diags, lint.NewError(c.path, line, col, "MCP-002",
			c.prefix()+"missing required field 'description'").
			WithSuggestion("Add a non-empty description to the tool definition"))
	}
	if !c.tool.hasInputSchema() {
		suggestion := "Add an inputSchema object describing the tool's parameters"
		if strings.Contains(c.content, `"parameters"`) {
			suggestion += ". Found 'parameters' field - did you mean 'inputSchema'?"
		}
		line, col := c.toolLineCol()
		diags = append(diags, lint.NewError(c.path, line, col, "MCP-002",
			c.prefix()+"missing required field 'inputSchema'").
			WithSuggestion(suggestion))
	}

	return diags
}

func (c *mcpToolCheck) checkInputSchema() []lint.Diagnostic {
	line, col := c.fieldLineCol("inputSchema")
	var diags []lint.Diagnostic
	for _, problem := range jsonSchemaProblems(c.tool.InputSchema) {
		diags = append(diags, lint.NewError(c.path, line, col, "MCP-003",
			fmt.Sprintf("%sinvalid inputSchema: %s", c.prefix(), problem)).
			WithSuggestion("Ensure inputSchema is a valid JSON Schema object"))
	}
	return diags
}

func (c *mcpToolCheck) checkAnnotations() []lint.Diagnostic {
	line, col := c.fieldLineCol("annotations")
	diags := []lint.Diagnostic{
		lint.NewWarning(c.path, line, col, "MCP-006",
			c.prefix()+"annotations are unverified hints supplied by the server").
			WithSuggestion("Treat annotation hints as advisory; never base security decisions on them"),
	}

	var unknown []string
	for key := range c.tool.Annotations {
		if !containsString(validAnnotationHints, key) {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		diags = append(diags, lint.NewWarning(c.path, line, col, "MCP-006",
			fmt.Sprintf("%sunknown annotation keys: %s", c.prefix(), strings.Join(unknown, ", "))).
			WithSuggestion("Use only standard annotation hints: readOnlyHint, destructiveHint, idempotentHint, openWorldHint, title"))
	}

	return diags
}

// jsonSchemaProblems reports structural problems in a JSON Schema value:
// non-object schemas, a top-level type other than "object", malformed
// properties, and a malformed required list.
func jsonSchemaProblems(raw json.RawMessage) []string {
	var schema map[string]json.RawMessage
	if err := json.Unmarshal(raw, &schema); err != nil {
		return []string{"schema must be a JSON object"}
	}

	var problems []string

	if typRaw, ok := schema["type"]; ok {
		var typ string
		if json.Unmarshal(typRaw, &typ) != nil {
			problems = append(problems, "'type' must be a string")
		} else if typ != "object" {
			problems = append(problems, fmt.Sprintf("top-level 'type' must be \"object\", got %q", typ))
		}
	}

	if propsRaw, ok := schema["properties"]; ok {
		var props map[string]json.RawMessage
		if json.Unmarshal(propsRaw, &props) != nil {
			problems = append(problems, "'properties' must be an object")
		} else {
			names := make([]string, 0, len(props))
			for name := range props {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				var prop map[string]json.RawMessage
				if json.Unmarshal(props[name], &prop) != nil {
					problems = append(problems, fmt.Sprintf("property %q must be an object", name))
				}
			}
		}
	}

	if reqRaw, ok := schema["required"]; ok {
		var required []string
		if json.Unmarshal(reqRaw, &required) != nil {
			problems = append(problems, "'required' must be an array of strings")
		}
	}

	return problems
}

// collectToolsArraySpans returns the byte spans of the object entries of
// the first "tools" array in the document, scanning raw text so that
// positions survive duplicate keys and other quirks the JSON decoder
// normalizes away.
func collectToolsArraySpans(content string) []spanutil.Span {
	toolsPos := strings.Index(content, `"tools"`)
	if toolsPos < 0 {
		return nil
	}
	arrRel := strings.IndexByte(content[toolsPos:], '[')
	if arrRel < 0 {
		return nil
	}

	var spans []spanutil.Span
	inString := false
	escaped := false
	depth := 0
	objStart := -1

	for i := toolsPos + arrRel + 1; i < len(content); i++ {
		ch := content[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			if depth == 0 {
				objStart = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 && objStart >= 0 {
					spans = append(spans, spanutil.Span{Start: objStart, End: i + 1})
					objStart = -1
				}
			}
		case ']':
			if depth == 0 {
				return spans
			}
		}
	}
	return spans
}

// checkDuplicateServerNames scans the raw text of the mcpServers object
// for repeated keys. The JSON decoder keeps only the last duplicate, so
// this is the one check that must not go through it.
func checkDuplicateServerNames(path, content string, starts []int) []lint.Diagnostic {
	var diags []lint.Diagnostic
	for _, name := range duplicateServerNames(content) {
		line, col := findJSONFieldLocation(content, starts, name)
		diags = append(diags, lint.NewError(path, line, col, "MCP-023",
			fmt.Sprintf("Duplicate MCP server name '%s'", name)).
			WithSuggestion("Rename duplicate mcpServers keys so each server name is unique"))
	}
	return diags
}

func duplicateServerNames(content string) []string {
	keyPos := strings.Index(content, `"mcpServers"`)
	if keyPos < 0 {
		return nil
	}
	colonRel := strings.IndexByte(content[keyPos:], ':')
	if colonRel < 0 {
		return nil
	}

	i := keyPos + colonRel + 1
	for i < len(content) && isJSONSpace(content[i]) {
		i++
	}
	if i >= len(content) || content[i] != '{' {
		return nil
	}
	i++

	depth := 1
	expectingKey := true
	seen := map[string]bool{}
	dups := map[string]bool{}

	for i < len(content) && depth > 0 {
		switch content[i] {
		case '"':
			value, next := readJSONStringLiteral(content, i)
			if depth == 1 && expectingKey {
				if seen[value] {
					dups[value] = true
				}
				seen[value] = true
				expectingKey = false
			}
			i = next
			continue
		case '{', '[':
			depth++
		case '}', ']':
			depth--
		case ',':
			if depth == 1 {
				expectingKey = true
			}
		}
		i++
	}

	names := make([]string, 0, len(dups))
	for name := range dups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// readJSONStringLiteral reads a string literal starting at the opening
// quote, returning its raw contents (escapes passed through verbatim)
// and the index just past the closing quote.
func readJSONStringLiteral(content string, startQuote int) (string, int) {
	var out strings.Builder
	escaped := false
	for i := startQuote + 1; i < len(content); i++ {
		ch := content[i]
		if escaped {
			out.WriteByte(ch)
			escaped = false
			continue
		}
		if ch == '\\' {
			escaped = true
			continue
		}
		if ch == '"' {
			return out.String(), i + 1
		}
		out.WriteByte(ch)
	}
	return out.String(), len(content)
}

func isJSONSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// isValidMcpToolName enforces the MCP tool-name grammar: 1-128 chars
// from [a-zA-Z0-9_.-].
func isValidMcpToolName(name string) bool {
	if len(name) == 0 || len(name) > 128 {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '_' || c == '.' || c == '-':
		default:
			return false
		}
	}
	return true
}

// mcpServer is one entry under mcpServers. Raw fields keep malformed
// values around so the checks can report them instead of losing the
// whole entry to a decode error.
type mcpServer struct {
	Type    json.RawMessage            `json:"type"`
	Command json.RawMessage            `json:"command"`
	Args    json.RawMessage            `json:"args"`
	URL     *string                    `json:"url"`
	Env     map[string]json.RawMessage `json:"env"`
}

// typeString returns the declared transport when it is a JSON string.
func (s *mcpServer) typeString() (string, bool) {
	if !rawPresent(s.Type) {
		return "", false
	}
	var str string
	if err := json.Unmarshal(s.Type, &str); err != nil {
		return "", false
	}
	return str, true
}

// hasCommand treats a blank string and an empty array as absent; any
// other non-null value counts as a command.
func (s *mcpServer) hasCommand() bool {
	if !rawPresent(s.Command) {
		return false
	}
	var str string
	if json.Unmarshal(s.Command, &str) == nil {
		return strings.TrimSpace(str) != ""
	}
	var arr []json.RawMessage
	if json.Unmarshal(s.Command, &arr) == nil {
		return len(arr) > 0
	}
	return true
}

// commandText flattens the command to one string for pattern checks.
func (s *mcpServer) commandText() string {
	var str string
	if json.Unmarshal(s.Command, &str) == nil {
		return str
	}
	var arr []string
	if json.Unmarshal(s.Command, &arr) == nil {
		return strings.Join(arr, " ")
	}
	return ""
}

func (s *mcpServer) hasURL() bool {
	return s.URL != nil && strings.TrimSpace(*s.URL) != ""
}

// hasMeaningfulConfig reports whether any field actually configures the
// server; an entry of all-absent or blank fields does nothing.
func (s *mcpServer) hasMeaningfulConfig() bool {
	if rawPresent(s.Type) || s.hasCommand() || s.hasURL() || len(s.Env) > 0 {
		return true
	}
	var args []json.RawMessage
	return json.Unmarshal(s.Args, &args) == nil && len(args) > 0
}

// validateServers runs the per-server checks over the mcpServers object
// in sorted name order.
func validateServers(path, content string, starts []int, root map[string]json.RawMessage, cfg *lint.Config) []lint.Diagnostic {
	raw, ok := root["mcpServers"]
	if !ok || !rawPresent(raw) {
		return nil
	}
	var servers map[string]json.RawMessage
	if json.Unmarshal(raw, &servers) != nil {
		return nil
	}

	names := make([]string, 0, len(servers))
	for name := range servers {
		names = append(names, name)
	}
	sort.Strings(names)

	var diags []lint.Diagnostic
	for _, name := range names {
		diags = append(diags, validateServer(path, content, starts, name, servers[name], cfg)...)
	}
	return diags
}

func validateServer(path, content string, starts []int, name string, raw json.RawMessage, cfg *lint.Config) []lint.Diagnostic {
	var diags []lint.Diagnostic
	line, col := findJSONFieldLocation(content, starts, name)

	// Non-object entries decode to zero values; the checks below then
	// report everything the entry is missing.
	var srv mcpServer
	_ = json.Unmarshal(raw, &srv)

	// An unknown transport makes the remaining checks meaningless, so it
	// is the one finding that stops validation of this server.
	effectiveType := "stdio"
	if rawPresent(srv.Type) {
		typeStr, isString := srv.typeString()
		if !isString || !containsString(validServerTypes, typeStr) {
			if cfg.IsRuleEnabled("MCP-011") {
				diags = append(diags, invalidServerType(path, content, name, srv, line, col))
			}
			return diags
		}
		effectiveType = typeStr
	}

	hasCommand := srv.hasCommand()

	if cfg.IsRuleEnabled("MCP-009") && effectiveType == "stdio" && !hasCommand {
		diags = append(diags, lint.NewError(path, line, col, "MCP-009",
			fmt.Sprintf("Server '%s' uses stdio transport but has no command", name)).
			WithSuggestion("Add the command that launches the server process"))
	}

	if cfg.IsRuleEnabled("MCP-022") && rawPresent(srv.Args) {
		var args []string
		if json.Unmarshal(srv.Args, &args) != nil {
			diags = append(diags, lint.NewError(path, line, col, "MCP-022",
				fmt.Sprintf("Server '%s' has invalid args: expected an array of strings", name)).
				WithSuggestion("Pass each command argument as its own string in the args array"))
		}
	}

	if cfg.IsRuleEnabled("MCP-010") && effectiveType != "stdio" && !srv.hasURL() {
		diags = append(diags, lint.NewError(path, line, col, "MCP-010",
			fmt.Sprintf("Server '%s' uses %s transport but has no url", name, effectiveType)).
			WithSuggestion("Add the url the client should connect to"))
	}

	if effectiveType == "http" && srv.hasURL() {
		url := strings.TrimSpace(*srv.URL)
		host := extractHTTPHost(url)
		if cfg.IsRuleEnabled("MCP-017") &&
			strings.HasPrefix(strings.ToLower(url), "http://") &&
			host != "" && !isLocalHTTPHost(host) {
			diags = append(diags, lint.NewError(path, line, col, "MCP-017",
				fmt.Sprintf("Server '%s' connects to a remote host over unencrypted http://", name)).
				WithSuggestion("Use https:// for anything other than localhost"))
		}
		if cfg.IsRuleEnabled("MCP-021") && isWildcardHTTPHost(host) {
			diags = append(diags, lint.NewWarning(path, line, col, "MCP-021",
				fmt.Sprintf("Server '%s' points at a wildcard address", name)).
				WithSuggestion("Use a concrete host name; wildcard addresses listen on every interface"))
		}
	}

	if effectiveType == "stdio" {
		if cfg.IsRuleEnabled("MCP-018") {
			diags = append(diags, checkServerEnvSecrets(path, name, srv, line, col)...)
		}
		if cfg.IsRuleEnabled("MCP-019") && hasCommand {
			if text := srv.commandText(); text != "" && isDangerousServerCommand(text) {
				diags = append(diags, lint.NewWarning(path, line, col, "MCP-019",
					fmt.Sprintf("Server '%s' command matches a dangerous pattern", name)).
					WithSuggestion("Review the command; MCP servers launch without confirmation"))
			}
		}
	}

	if cfg.IsRuleEnabled("MCP-012") && effectiveType == "sse" {
		d := lint.NewError(path, line, col, "MCP-012",
			fmt.Sprintf("Server '%s' uses the deprecated sse transport", name)).
			WithSuggestion("Switch to the streamable http transport")
		if span, ok := spanutil.FindUniqueJSONStringInner(content, "type", "sse"); ok {
			fix := lint.ReplaceFix(span.Start, span.End, "http", "Change transport to http")
			d = d.WithFix(fix)
		}
		diags = append(diags, d)
	}

	if cfg.IsRuleEnabled("MCP-024") && !srv.hasMeaningfulConfig() {
		diags = append(diags, lint.NewError(path, line, col, "MCP-024",
			fmt.Sprintf("Server '%s' has an empty configuration object", name)).
			WithSuggestion("Configure the server or remove the entry"))
	}

	return diags
}

// invalidServerType builds the MCP-011 diagnostic. String types with a
// close valid match get an unsafe replacement fix.
func invalidServerType(path, content, name string, srv mcpServer, line, col int) lint.Diagnostic {
	typeStr, isString := srv.typeString()
	shown := strings.TrimSpace(string(srv.Type))
	if isString {
		shown = fmt.Sprintf("'%s'", typeStr)
	}

	d := lint.NewError(path, line, col, "MCP-011",
		fmt.Sprintf("Server '%s' has an invalid type %s", name, shown)).
		WithSuggestion(fmt.Sprintf("Valid server types are: %s", strings.Join(validServerTypes, ", ")))

	if isString {
		if corrected := closestValue(typeStr, validServerTypes); corrected != "" {
			if span, ok := spanutil.FindUniqueJSONStringInner(content, "type", typeStr); ok {
				d = d.WithFix(lint.ReplaceFix(span.Start, span.End, corrected,
					fmt.Sprintf("Change server type to '%s'", corrected)))
			}
		}
	}
	return d
}

func checkServerEnvSecrets(path, name string, srv mcpServer, line, col int) []lint.Diagnostic {
	keys := make([]string, 0, len(srv.Env))
	for key := range srv.Env {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var diags []lint.Diagnostic
	for _, key := range keys {
		upper := strings.ToUpper(key)
		marked := false
		for _, m := range serverSecretMarkers {
			if strings.Contains(upper, m) {
				marked = true
				break
			}
		}
		if !marked {
			continue
		}
		var value string
		if json.Unmarshal(srv.Env[key], &value) != nil {
			continue
		}
		if seemsPlaintextSecret(value) {
			diags = append(diags, lint.NewWarning(path, line, col, "MCP-018",
				fmt.Sprintf("Server '%s' env var '%s' appears to contain a plaintext secret", name, key)).
				WithSuggestion("Reference the secret through an expansion like ${VAR} instead of inlining it"))
		}
	}
	return diags
}

// seemsPlaintextSecret reports whether an env value is a literal rather
// than an expansion reference like ${VAR}, $(cmd), or {{template}}.
func seemsPlaintextSecret(value string) bool {
	v := strings.TrimSpace(value)
	if v == "" {
		return false
	}
	for _, prefix := range []string{"${", "$(", "{{"} {
		if strings.HasPrefix(v, prefix) {
			return false
		}
	}
	return true
}

// isDangerousServerCommand flags command text that downloads and pipes
// to a shell, deletes as root, or exfiltrates sensitive paths.
func isDangerousServerCommand(text string) bool {
	t := strings.ToLower(text)
	if strings.Contains(t, "curl") || strings.Contains(t, "wget") {
		for _, pipe := range []string{"| sh", "| bash", "|sh", "|bash"} {
			if strings.Contains(t, pipe) {
				return true
			}
		}
	}
	if strings.Contains(t, "sudo rm") {
		return true
	}
	if strings.Contains(t, "nc ") || strings.Contains(t, "netcat ") {
		for _, target := range []string{"/etc/", ".ssh", "token"} {
			if strings.Contains(t, target) {
				return true
			}
		}
	}
	return false
}

// extractHTTPHost pulls the lowercased host out of a url: the text after
// :// up to the first path, query, or fragment, with any port stripped.
// Bracketed IPv6 hosts keep their brackets.
func extractHTTPHost(url string) string {
	idx := strings.Index(url, "://")
	if idx < 0 {
		return ""
	}
	rest := url[idx+3:]
	if end := strings.IndexAny(rest, "/?#"); end >= 0 {
		rest = rest[:end]
	}
	if strings.HasPrefix(rest, "[") {
		if end := strings.IndexByte(rest, ']'); end >= 0 {
			rest = rest[:end+1]
		}
	} else if colon := strings.LastIndexByte(rest, ':'); colon >= 0 {
		rest = rest[:colon]
	}
	return strings.ToLower(rest)
}

func isLocalHTTPHost(host string) bool {
	switch host {
	case "localhost", "127.0.0.1", "::1", "[::1]":
		return true
	}
	return false
}

func isWildcardHTTPHost(host string) bool {
	switch host {
	case "0.0.0.0", "::", "[::]", "*":
		return true
	}
	return false
}

// findJSONFieldLocation returns the position of the first occurrence of
// a quoted field name (1-based line, 0-based column), or the document
// start when absent.
func findJSONFieldLocation(content string, starts []int, field string) (int, int) {
	pos := strings.Index(content, `"`+field+`"`)
	if pos < 0 {
		return 1, 0
	}
	return lineColAt(pos, starts)
}
