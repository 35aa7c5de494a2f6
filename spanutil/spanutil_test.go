// Copyright © 2025 The agnix authors

package spanutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindEventKey(t *testing.T) {
	content := `{"hooks": {"pretooluse": [{"matcher": "*"}]}}`
	span, ok := FindEventKey(content, "pretooluse")
	require.True(t, ok)
	assert.Equal(t, `"pretooluse"`, content[span.Start:span.End])

	_, ok = FindEventKey(content, "PostToolUse")
	assert.False(t, ok)
}

func TestFindUniqueJSONKeyValue(t *testing.T) {
	content := `{"timeout": 30, "command": "echo hi"}`
	span, ok := FindUniqueJSONKeyValue(content, "timeout", "30")
	require.True(t, ok)
	assert.Equal(t, "30", content[span.Start:span.End])
}

func TestFindUniqueJSONKeyValueAmbiguous(t *testing.T) {
	content := `{"a": {"type": "command"}, "b": {"type": "command"}}`
	_, ok := FindUniqueJSONKeyValue(content, "type", `"command"`)
	assert.False(t, ok)
}

func TestFindUniqueJSONFieldLine(t *testing.T) {
	content := "{\n  \"name\": \"srv\",\n  \"port\": 8080\n}\n"
	span, ok := FindUniqueJSONFieldLine(content, "port")
	require.True(t, ok)
	assert.Equal(t, "  \"port\": 8080\n", content[span.Start:span.End])
}

func TestFindUniqueJSONFieldLineKeepsComma(t *testing.T) {
	content := "{\n  \"name\": \"srv\",\n  \"port\": 8080\n}\n"
	span, ok := FindUniqueJSONFieldLine(content, "name")
	require.True(t, ok)
	assert.Equal(t, "  \"name\": \"srv\",\n", content[span.Start:span.End])
}

func TestFindUniqueJSONMatcherLine(t *testing.T) {
	content := "{\n  \"matcher\": \"Bash\",\n  \"matcher\": \"Edit\"\n}\n"
	span, ok := FindUniqueJSONMatcherLine(content, "Bash")
	require.True(t, ok)
	assert.Contains(t, content[span.Start:span.End], `"matcher": "Bash"`)

	// Two identical matchers are ambiguous.
	dup := "{\"matcher\": \"Bash\"}\n{\"matcher\": \"Bash\"}"
	_, ok = FindUniqueJSONMatcherLine(dup, "Bash")
	assert.False(t, ok)
}

func TestFindUniqueJSONStringInner(t *testing.T) {
	content := `{"transport": "https"}`
	span, ok := FindUniqueJSONStringInner(content, "transport", "https")
	require.True(t, ok)
	assert.Equal(t, "https", content[span.Start:span.End])
}

func TestFindUniqueJSONScalarSpan(t *testing.T) {
	content := `{"enabled": true, "name": "x"}`
	span, ok := FindUniqueJSONScalarSpan(content, "enabled")
	require.True(t, ok)
	assert.Equal(t, "true", content[span.Start:span.End])

	span, ok = FindUniqueJSONScalarSpan(content, "name")
	require.True(t, ok)
	assert.Equal(t, `"x"`, content[span.Start:span.End])
}

func TestFindUniqueTOMLStringValue(t *testing.T) {
	content := "model = \"o3\"\napproval_policy = \"untrusted\"\n"
	span, ok := FindUniqueTOMLStringValue(content, "model", "o3")
	require.True(t, ok)
	assert.Equal(t, "o3", content[span.Start:span.End])

	// Key must start the line.
	_, ok = FindUniqueTOMLStringValue("# model = \"o3\"\n", "model", "o3")
	assert.False(t, ok)
}

func TestFindFrontmatterValue(t *testing.T) {
	fm := "\nname: my-skill\ndescription: Use when deploying\n"
	span, ok := FindFrontmatterValue(fm, 0, "name")
	require.True(t, ok)
	assert.Equal(t, "my-skill", fm[span.Start:span.End])
}

func TestFindFrontmatterValueBaseOffset(t *testing.T) {
	content := "---\nname: my-skill\n---\nbody"
	fm := "\nname: my-skill\n"
	span, ok := FindFrontmatterValue(fm, 3, "name")
	require.True(t, ok)
	assert.Equal(t, "my-skill", content[span.Start:span.End])
}

func TestFindFrontmatterValueQuoted(t *testing.T) {
	fm := "\nmodel: \"gpt-4\"\n"
	span, ok := FindFrontmatterValue(fm, 0, "model")
	require.True(t, ok)
	assert.Equal(t, "gpt-4", fm[span.Start:span.End])

	fm = "\nmodel: 'gpt-4'\n"
	span, ok = FindFrontmatterValue(fm, 0, "model")
	require.True(t, ok)
	assert.Equal(t, "gpt-4", fm[span.Start:span.End])
}

func TestFindFrontmatterValueInlineComment(t *testing.T) {
	fm := "\ninclusion: always # default\n"
	span, ok := FindFrontmatterValue(fm, 0, "inclusion")
	require.True(t, ok)
	assert.Equal(t, "always", fm[span.Start:span.End])
}

func TestFindFrontmatterValueSkipsComments(t *testing.T) {
	fm := "\n# name: commented-out\nname: real\n"
	span, ok := FindFrontmatterValue(fm, 0, "name")
	require.True(t, ok)
	assert.Equal(t, "real", fm[span.Start:span.End])
}

func TestFindFrontmatterValueEmpty(t *testing.T) {
	_, ok := FindFrontmatterValue("\nname:\n", 0, "name")
	assert.False(t, ok)

	_, ok = FindFrontmatterValue("\ndescription: x\n", 0, "name")
	assert.False(t, ok)
}
