// Copyright © 2025 The agnix authors

package lint

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverityString(t *testing.T) {
	assert.Equal(t, "error", SeverityError.String())
	assert.Equal(t, "warning", SeverityWarning.String())
	assert.Equal(t, "info", SeverityInfo.String())
	assert.Equal(t, "unknown", severityUnset.String())
}

func TestSeverityJSON(t *testing.T) {
	data, err := json.Marshal(SeverityError)
	require.NoError(t, err)
	assert.Equal(t, `"error"`, string(data))

	// The zero value marshals as warning for embedders that construct
	// diagnostics without the builders.
	data, err = json.Marshal(severityUnset)
	require.NoError(t, err)
	assert.Equal(t, `"warning"`, string(data))

	var s Severity
	require.NoError(t, json.Unmarshal([]byte(`"info"`), &s))
	assert.Equal(t, SeverityInfo, s)
	assert.Error(t, json.Unmarshal([]byte(`"fatal"`), &s))
}

func TestDiagnosticBuilders(t *testing.T) {
	d := NewError("SKILL.md", 2, 7, "AS-005", "bad name").
		WithSuggestion("use kebab-case").
		WithFix(ReplaceFix(10, 17, "my-name", "Lowercase the name")).
		WithAssumption("name refers to the skill")

	assert.Equal(t, SeverityError, d.Severity)
	assert.Equal(t, "SKILL.md", d.File)
	assert.Equal(t, 2, d.Line)
	assert.Equal(t, 7, d.Col)
	assert.Equal(t, "use kebab-case", d.Suggestion)
	assert.Equal(t, "name refers to the skill", d.Assumption)
	assert.True(t, d.HasFixes())
	assert.False(t, d.HasSafeFixes())

	require.NotNil(t, d.Metadata)
	assert.Equal(t, "skills", d.Metadata.Category)
	assert.Equal(t, "HIGH", d.Metadata.Tier)

	assert.Nil(t, NewWarning("f", 1, 1, "NOPE-999", "x").Metadata)
}

func TestDiagnosticString(t *testing.T) {
	d := NewWarning("CLAUDE.md", 3, 1, "CC-MEM-001", "too long")
	assert.Equal(t, "CLAUDE.md:3:1: warning: too long (CC-MEM-001)", d.String())

	whole := NewError("mcp.json", 0, 0, "MCP-001", "invalid JSON")
	assert.Equal(t, "mcp.json: error: invalid JSON (MCP-001)", whole.String())

	withHelp := d.WithSuggestion("trim it")
	assert.Contains(t, withHelp.String(), "\n  = help: trim it")
}

func TestFixConstructors(t *testing.T) {
	r := ReplaceFix(1, 3, "ab", "swap")
	assert.False(t, r.IsInsertion())
	assert.False(t, r.IsDeletion())

	ins := InsertFix(5, "x", "insert")
	assert.True(t, ins.IsInsertion())
	assert.Equal(t, 5, ins.StartByte)
	assert.Equal(t, 5, ins.EndByte)

	del := DeleteFix(2, 4, "drop")
	assert.True(t, del.IsDeletion())
}

func TestSortDiagnostics(t *testing.T) {
	diags := []Diagnostic{
		NewInfo("b.md", 1, 1, "PE-001", "c"),
		NewError("b.md", 9, 1, "AS-005", "a"),
		NewError("a.md", 2, 1, "AS-006", "b"),
		NewError("a.md", 2, 1, "AS-005", "b"),
		NewWarning("a.md", 1, 1, "XML-001", "d"),
	}
	SortDiagnostics(diags)

	assert.Equal(t, "a.md", diags[0].File)
	assert.Equal(t, "AS-005", diags[0].Rule)
	assert.Equal(t, "AS-006", diags[1].Rule)
	assert.Equal(t, "b.md", diags[2].File)
	assert.Equal(t, SeverityWarning, diags[3].Severity)
	assert.Equal(t, SeverityInfo, diags[4].Severity)
}

func TestFormatText(t *testing.T) {
	var buf bytes.Buffer
	FormatText(&buf, []Diagnostic{
		NewError("a.md", 1, 1, "AS-005", "first"),
		NewWarning("b.md", 2, 3, "XML-001", "second"),
	})
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "a.md:1:1: error: first (AS-005)", lines[0])
}

func TestFormatJSON(t *testing.T) {
	var buf bytes.Buffer
	d := NewError("a.md", 1, 2, "AS-005", "bad").WithSuggestion("fix it")
	require.NoError(t, FormatJSON(&buf, []Diagnostic{d}))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "error", decoded[0]["level"])
	assert.Equal(t, "AS-005", decoded[0]["rule"])
	assert.Equal(t, float64(1), decoded[0]["line"])
	assert.Equal(t, "fix it", decoded[0]["suggestion"])
}

func TestFormatJSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatJSON(&buf, nil))
	assert.Equal(t, "null\n", buf.String())
}
