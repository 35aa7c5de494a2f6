// Copyright © 2025 The agnix authors

package lsp

import (
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tliron/glsp"

	"github.com/avifenesh/agnix/filetype"
	"github.com/avifenesh/agnix/lint"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// mockContext returns a minimal glsp.Context for testing.
func mockContext() *glsp.Context {
	return &glsp.Context{
		Notify: func(method string, params any) {},
	}
}

// capturingContext returns a context that captures published diagnostics.
func capturingContext() (*glsp.Context, *[]*protocol.PublishDiagnosticsParams) {
	var captured []*protocol.PublishDiagnosticsParams
	ctx := &glsp.Context{
		Notify: func(method string, params any) {
			if method == protocol.ServerTextDocumentPublishDiagnostics {
				captured = append(captured, params.(*protocol.PublishDiagnosticsParams))
			}
		},
	}
	return ctx, &captured
}

// channelContext returns a context that forwards published diagnostics to
// a channel, for handlers that validate on a background goroutine.
func channelContext() (*glsp.Context, chan *protocol.PublishDiagnosticsParams) {
	ch := make(chan *protocol.PublishDiagnosticsParams, 8)
	ctx := &glsp.Context{
		Notify: func(method string, params any) {
			if method == protocol.ServerTextDocumentPublishDiagnostics {
				ch <- params.(*protocol.PublishDiagnosticsParams)
			}
		},
	}
	return ctx, ch
}

func waitForPublish(t *testing.T, ch chan *protocol.PublishDiagnosticsParams) *protocol.PublishDiagnosticsParams {
	t.Helper()
	select {
	case pub := <-ch:
		return pub
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for published diagnostics")
		return nil
	}
}

const skillWithFixable = "---\nname: my--skill\ndescription: Use when testing\n---\nBody.\n"

// --- Path and URI tests ---

func TestURIConversion(t *testing.T) {
	assert.Equal(t, "/path/to/SKILL.md", uriToPath("file:///path/to/SKILL.md"))
	assert.Equal(t, "file:///path/to/SKILL.md", pathToURI("/path/to/SKILL.md"))
	// Non-URI input returned unchanged.
	assert.Equal(t, "relative/path", uriToPath("relative/path"))

	// Percent-encoded spaces round-trip.
	spacePath := "/path/to/my skill.md"
	assert.Equal(t, spacePath, uriToPath(pathToURI(spacePath)))
}

func TestNormalizePath(t *testing.T) {
	assert.Equal(t, "/a/c", normalizePath("/a/b/../c"))
	assert.Equal(t, "/a/b", normalizePath("/a/./b/"))
	// ".." clamps at the root instead of escaping it.
	assert.Equal(t, "/etc", normalizePath("/a/../../etc"))
	assert.Equal(t, "/", normalizePath("/.."))
	assert.Equal(t, "a/b", normalizePath("a/./b"))
	assert.Equal(t, ".", normalizePath(".."))
}

func TestWorkspacePathBoundary(t *testing.T) {
	s := New()
	s.rootPath = "/workspace"

	path, ok := s.workspacePath("file:///workspace/SKILL.md")
	assert.True(t, ok)
	assert.Equal(t, "/workspace/SKILL.md", path)

	_, ok = s.workspacePath("file:///elsewhere/SKILL.md")
	assert.False(t, ok)

	// Traversal resolves lexically before the boundary check.
	_, ok = s.workspacePath("file:///workspace/../etc/passwd")
	assert.False(t, ok)

	// A sibling sharing the root as a name prefix is outside.
	_, ok = s.workspacePath("file:///workspace-other/SKILL.md")
	assert.False(t, ok)

	// Without a root every path is accepted.
	s.rootPath = ""
	_, ok = s.workspacePath("file:///anywhere/SKILL.md")
	assert.True(t, ok)
}

func TestWorkspacePathResolvesSymlinks(t *testing.T) {
	outside := t.TempDir()
	root := t.TempDir()

	secret := filepath.Join(outside, "secret.md")
	require.NoError(t, os.WriteFile(secret, []byte("x"), 0o644))
	link := filepath.Join(root, "link.md")
	require.NoError(t, os.Symlink(secret, link))

	s := New()
	s.rootPath = root

	// A symlink under the root pointing outside is rejected.
	_, ok := s.workspacePath(pathToURI(link))
	assert.False(t, ok)

	// A real file under the root resolves to its canonical location.
	inside := filepath.Join(root, "SKILL.md")
	require.NoError(t, os.WriteFile(inside, []byte("x"), 0o644))
	path, ok := s.workspacePath(pathToURI(inside))
	assert.True(t, ok)
	assert.Equal(t, canonicalPath(inside), path)
}

func TestIsProjectLevelTrigger(t *testing.T) {
	assert.True(t, isProjectLevelTrigger("/p/AGENTS.md"))
	assert.True(t, isProjectLevelTrigger("/p/CLAUDE.md"))
	assert.True(t, isProjectLevelTrigger("/p/.agnix.toml"))
	assert.True(t, isProjectLevelTrigger("/p/.clinerules"))
	assert.True(t, isProjectLevelTrigger("/p/.cursor/rules/style.mdc"))
	assert.False(t, isProjectLevelTrigger("/p/docs/style.mdc"))
	assert.False(t, isProjectLevelTrigger("/p/README.md"))
}

// --- Document store tests ---

func TestDocumentStore(t *testing.T) {
	store := NewDocumentStore()

	snap1 := store.Set("file:///a.md", 1, "one")
	require.NotNil(t, snap1)
	assert.Equal(t, "one", *snap1)
	assert.Same(t, snap1, store.Snapshot("file:///a.md"))

	// Each edit installs a fresh pointer; the old one goes stale.
	snap2 := store.Set("file:///a.md", 2, "two")
	assert.NotSame(t, snap1, snap2)
	assert.Same(t, snap2, store.Snapshot("file:///a.md"))

	assert.Nil(t, store.Snapshot("file:///missing.md"))

	store.Set("file:///b.md", 1, "other")
	assert.ElementsMatch(t, []string{"file:///a.md", "file:///b.md"}, store.URIs())

	store.Close("file:///a.md")
	assert.Nil(t, store.Snapshot("file:///a.md"))
}

// --- Bounded fan-out tests ---

func TestForEachBounded(t *testing.T) {
	var count atomic.Int32
	items := make([]int, 20)
	for i := range items {
		items[i] = i
	}

	panics := forEachBounded(items, 4, func(int) { count.Add(1) })
	assert.Empty(t, panics)
	assert.Equal(t, int32(20), count.Load())
}

func TestForEachBoundedZeroLimit(t *testing.T) {
	var count atomic.Int32
	panics := forEachBounded([]int{1, 2, 3}, 0, func(int) { count.Add(1) })
	assert.Empty(t, panics)
	assert.Equal(t, int32(3), count.Load())
}

func TestForEachBoundedCollectsPanics(t *testing.T) {
	var count atomic.Int32
	panics := forEachBounded([]int{1, 2, 3, 4}, 2, func(n int) {
		if n%2 == 1 {
			panic(n)
		}
		count.Add(1)
	})
	assert.Len(t, panics, 2)
	assert.Equal(t, int32(2), count.Load(), "panicking workers must not block the rest")
}

// --- Frontmatter and word helpers ---

func TestInFrontmatter(t *testing.T) {
	content := "---\nname: x\n---\nBody.\n"
	assert.False(t, inFrontmatter(content, 0), "opening fence is not inside")
	assert.True(t, inFrontmatter(content, 1))
	assert.False(t, inFrontmatter(content, 3), "body is outside")
	assert.False(t, inFrontmatter("Plain body.\n", 0))

	// Unterminated frontmatter extends to the end of the file.
	assert.True(t, inFrontmatter("---\nname: x\nstill going\n", 2))
}

func TestWordAt(t *testing.T) {
	content := "see CC-HK-001 here\nsecond line"
	assert.Equal(t, "CC-HK-001", wordAt(content, 0, 4))
	assert.Equal(t, "CC-HK-001", wordAt(content, 0, 8))
	assert.Equal(t, "see", wordAt(content, 0, 0))
	assert.Equal(t, "", wordAt(content, 0, 3), "cursor on whitespace")
	assert.Equal(t, "", wordAt(content, 5, 0), "line out of range")
	assert.Equal(t, "", wordAt(content, 0, -1))
}

// --- Diagnostic conversion tests ---

func TestToProtocolDiagnostic(t *testing.T) {
	d := lint.NewError("f.md", 3, 5, "CC-HK-001", "bad hook").
		WithSuggestion("use a valid event")
	p := toProtocolDiagnostic(d)

	assert.Equal(t, protocol.UInteger(2), p.Range.Start.Line)
	assert.Equal(t, protocol.UInteger(5), p.Range.Start.Character)
	assert.Equal(t, protocol.DiagnosticSeverityError, *p.Severity)
	assert.Equal(t, "CC-HK-001", p.Code.Value)
	assert.Equal(t, "agnix", *p.Source)
	assert.Equal(t, "bad hook\nuse a valid event", p.Message)
}

func TestToProtocolDiagnosticWholeFile(t *testing.T) {
	d := lint.NewWarning("f.md", 0, 0, "VER-001", "no version pins")
	p := toProtocolDiagnostic(d)
	assert.Equal(t, protocol.UInteger(0), p.Range.Start.Line)
	assert.Equal(t, protocol.UInteger(0), p.Range.Start.Character)
	assert.Equal(t, protocol.DiagnosticSeverityWarning, *p.Severity)
}

func TestMapSeverity(t *testing.T) {
	assert.Equal(t, protocol.DiagnosticSeverityError, mapSeverity(lint.SeverityError))
	assert.Equal(t, protocol.DiagnosticSeverityWarning, mapSeverity(lint.SeverityWarning))
	assert.Equal(t, protocol.DiagnosticSeverityInformation, mapSeverity(lint.SeverityInfo))
}

// --- Publish and fence tests ---

func TestValidatePublish(t *testing.T) {
	s := New()
	ctx, captured := capturingContext()
	s.captureNotify(ctx)

	uri := "file:///proj/SKILL.md"
	snap := s.docs.Set(uri, 1, skillWithFixable)
	s.validatePublish(uri, snap, s.generation.Load(), s.config())

	require.Len(t, *captured, 1)
	pub := (*captured)[0]
	assert.Equal(t, uri, pub.URI)
	require.NotEmpty(t, pub.Diagnostics)
	assert.Equal(t, "AS-004", pub.Diagnostics[0].Code.Value)
}

func TestValidatePublishStaleSnapshotDropped(t *testing.T) {
	s := New()
	ctx, captured := capturingContext()
	s.captureNotify(ctx)

	uri := "file:///proj/SKILL.md"
	stale := s.docs.Set(uri, 1, skillWithFixable)
	s.docs.Set(uri, 2, "---\nname: my-skill\ndescription: Use when testing\n---\nBody.\n")

	s.validatePublish(uri, stale, s.generation.Load(), s.config())
	assert.Empty(t, *captured, "result computed from stale text must not publish")
}

func TestValidatePublishStaleConfigDropped(t *testing.T) {
	s := New()
	ctx, captured := capturingContext()
	s.captureNotify(ctx)

	uri := "file:///proj/SKILL.md"
	snap := s.docs.Set(uri, 1, skillWithFixable)
	gen := s.generation.Load()
	cfg := s.config()
	s.setConfig(cfg.Clone())

	s.validatePublish(uri, snap, gen, cfg)
	assert.Empty(t, *captured, "result computed under an old config must not publish")
}

func TestValidatePublishMergesProjectDiagnostics(t *testing.T) {
	s := New()
	ctx, captured := capturingContext()
	s.captureNotify(ctx)

	uri := "file:///proj/AGENTS.md"
	snap := s.docs.Set(uri, 1, "# Guide\n\n## Layout\n\nKeep it small.\n")
	s.projectMu.Lock()
	s.projectDiags["/proj/AGENTS.md"] = []lint.Diagnostic{
		lint.NewWarning("/proj/AGENTS.md", 0, 0, "AGM-006", "Multiple AGENTS.md files detected"),
	}
	s.projectMu.Unlock()

	s.validatePublish(uri, snap, s.generation.Load(), s.config())

	require.Len(t, *captured, 1)
	codes := make([]string, 0)
	for _, d := range (*captured)[0].Diagnostics {
		codes = append(codes, d.Code.Value.(string))
	}
	assert.Contains(t, codes, "AGM-006")
}

func TestDidOpenPublishesDiagnostics(t *testing.T) {
	s := New()
	ctx, ch := channelContext()

	err := s.textDocumentDidOpen(ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:        "file:///proj/SKILL.md",
			LanguageID: "markdown",
			Version:    1,
			Text:       skillWithFixable,
		},
	})
	require.NoError(t, err)

	pub := waitForPublish(t, ch)
	assert.Equal(t, "file:///proj/SKILL.md", pub.URI)
	require.NotEmpty(t, pub.Diagnostics)
	assert.Equal(t, "AS-004", pub.Diagnostics[0].Code.Value)
}

func TestDidCloseClearsDiagnostics(t *testing.T) {
	s := New()
	s.docs.Set("file:///proj/SKILL.md", 1, skillWithFixable)

	ctx, captured := capturingContext()
	s.captureNotify(ctx)
	err := s.textDocumentDidClose(ctx, &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: "file:///proj/SKILL.md"},
	})
	require.NoError(t, err)

	require.Len(t, *captured, 1)
	assert.Empty(t, (*captured)[0].Diagnostics, "close should clear diagnostics")
	assert.Nil(t, s.docs.Snapshot("file:///proj/SKILL.md"))
}

// --- Validator panic containment ---

type panickyValidator struct{}

func (*panickyValidator) Name() string      { return "panicky" }
func (*panickyValidator) RuleIDs() []string { return []string{"AS-005"} }
func (*panickyValidator) Validate(string, string, *lint.Config) []lint.Diagnostic {
	panic("boom")
}

func TestValidateSnapshotContainsPanic(t *testing.T) {
	reg := lint.NewRegistry()
	reg.Register(&panickyValidator{}, filetype.Skill)
	s := New(WithRegistry(reg))

	diags, err := s.validateSnapshot("/proj/SKILL.md", skillWithFixable, s.config())
	assert.Nil(t, diags)
	require.Error(t, err)

	p := internalErrorDiagnostic(err)
	assert.Equal(t, "agnix::internal-error", p.Code.Value)
	assert.Contains(t, p.Message, "internal validation error")
}

// --- Hover tests ---

func TestHoverOnRuleID(t *testing.T) {
	s := New()
	uri := "file:///proj/SKILL.md"
	s.docs.Set(uri, 1, "See CC-HK-001 for hook events.\n")

	hover, err := s.textDocumentHover(mockContext(), &protocol.HoverParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: uri},
			Position:     protocol.Position{Line: 0, Character: 6},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, hover)
	mc, ok := hover.Contents.(protocol.MarkupContent)
	require.True(t, ok)
	assert.Contains(t, mc.Value, "CC-HK-001")
	assert.Contains(t, mc.Value, "hooks")
}

func TestHoverOnPlainWord(t *testing.T) {
	s := New()
	uri := "file:///proj/SKILL.md"
	s.docs.Set(uri, 1, "Just prose here.\n")

	hover, err := s.textDocumentHover(mockContext(), &protocol.HoverParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: uri},
			Position:     protocol.Position{Line: 0, Character: 1},
		},
	})
	require.NoError(t, err)
	assert.Nil(t, hover)
}

func TestHoverOnUnknownRuleShape(t *testing.T) {
	s := New()
	uri := "file:///proj/SKILL.md"
	s.docs.Set(uri, 1, "ZZZ-999 is not a rule.\n")

	hover, err := s.textDocumentHover(mockContext(), &protocol.HoverParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: uri},
			Position:     protocol.Position{Line: 0, Character: 2},
		},
	})
	require.NoError(t, err)
	assert.Nil(t, hover)
}

// --- Completion tests ---

func TestCompletionInSkillFrontmatter(t *testing.T) {
	s := New()
	uri := "file:///proj/SKILL.md"
	s.docs.Set(uri, 1, "---\nname: x\n---\nBody.\n")

	result, err := s.textDocumentCompletion(mockContext(), &protocol.CompletionParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: uri},
			Position:     protocol.Position{Line: 1, Character: 0},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, result)

	items, ok := result.([]protocol.CompletionItem)
	require.True(t, ok)
	labels := make([]string, len(items))
	for i, item := range items {
		labels[i] = item.Label
	}
	assert.Contains(t, labels, "name")
	assert.Contains(t, labels, "allowed-tools")
	assert.Contains(t, labels, "disable-model-invocation")
}

func TestCompletionOutsideFrontmatter(t *testing.T) {
	s := New()
	uri := "file:///proj/SKILL.md"
	s.docs.Set(uri, 1, "---\nname: x\n---\nBody.\n")

	result, err := s.textDocumentCompletion(mockContext(), &protocol.CompletionParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: uri},
			Position:     protocol.Position{Line: 3, Character: 0},
		},
	})
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestCompletionUnknownFileType(t *testing.T) {
	s := New()
	uri := "file:///proj/notes.md"
	s.docs.Set(uri, 1, "---\nkey: x\n---\nBody.\n")

	result, err := s.textDocumentCompletion(mockContext(), &protocol.CompletionParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: uri},
			Position:     protocol.Position{Line: 1, Character: 0},
		},
	})
	require.NoError(t, err)
	assert.Nil(t, result)
}

// --- Code action tests ---

func TestCodeActionQuickfix(t *testing.T) {
	s := New()
	uri := "file:///proj/SKILL.md"
	s.docs.Set(uri, 1, skillWithFixable)

	result, err := s.textDocumentCodeAction(mockContext(), &protocol.CodeActionParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
		Range: protocol.Range{
			Start: protocol.Position{Line: 0, Character: 0},
			End:   protocol.Position{Line: 10, Character: 0},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, result)

	actions, ok := result.([]protocol.CodeAction)
	require.True(t, ok)
	require.NotEmpty(t, actions)

	action := actions[0]
	assert.NotEmpty(t, action.Title)
	assert.Equal(t, protocol.CodeActionKindQuickFix, *action.Kind)
	require.NotNil(t, action.Edit)
	edits := action.Edit.Changes[uri]
	require.Len(t, edits, 1)
	assert.Contains(t, edits[0].NewText, "my-skill")
}

func TestCodeActionUnsafeFixMarked(t *testing.T) {
	s := New()
	uri := "file:///proj/SKILL.md"
	s.docs.Set(uri, 1, "---\nname: my-skill\ndescription: Use when testing\nmodel: gpt-4\n---\nBody.\n")

	result, err := s.textDocumentCodeAction(mockContext(), &protocol.CodeActionParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
		Range: protocol.Range{
			Start: protocol.Position{Line: 0, Character: 0},
			End:   protocol.Position{Line: 10, Character: 0},
		},
	})
	require.NoError(t, err)
	actions, ok := result.([]protocol.CodeAction)
	require.True(t, ok)
	require.NotEmpty(t, actions)

	var unsafeSeen bool
	for _, a := range actions {
		if strings.HasSuffix(a.Title, "(unsafe)") {
			unsafeSeen = true
		}
	}
	assert.True(t, unsafeSeen, "fixes not marked safe should be labelled unsafe")
}

func TestCodeActionOutOfRange(t *testing.T) {
	s := New()
	uri := "file:///proj/SKILL.md"
	s.docs.Set(uri, 1, skillWithFixable)

	// The name diagnostics sit on line 1; a range far below excludes them.
	result, err := s.textDocumentCodeAction(mockContext(), &protocol.CodeActionParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
		Range: protocol.Range{
			Start: protocol.Position{Line: 8, Character: 0},
			End:   protocol.Position{Line: 9, Character: 0},
		},
	})
	require.NoError(t, err)
	actions, _ := result.([]protocol.CodeAction)
	assert.Empty(t, actions)
}

func TestFixToTextEdit(t *testing.T) {
	content := "abc\ndef\n"
	edit, ok := fixToTextEdit(content, lint.ReplaceFix(4, 7, "xyz", "swap"))
	require.True(t, ok)
	assert.Equal(t, protocol.UInteger(1), edit.Range.Start.Line)
	assert.Equal(t, protocol.UInteger(0), edit.Range.Start.Character)
	assert.Equal(t, protocol.UInteger(1), edit.Range.End.Line)
	assert.Equal(t, protocol.UInteger(3), edit.Range.End.Character)
	assert.Equal(t, "xyz", edit.NewText)

	_, ok = fixToTextEdit(content, lint.ReplaceFix(4, 100, "xyz", "past end"))
	assert.False(t, ok)
	_, ok = fixToTextEdit(content, lint.ReplaceFix(5, 4, "xyz", "inverted"))
	assert.False(t, ok)
}

// --- Configuration tests ---

func TestDidChangeConfiguration(t *testing.T) {
	s := New()
	genBefore := s.generation.Load()

	err := s.workspaceDidChangeConfiguration(mockContext(), &protocol.DidChangeConfigurationParams{
		Settings: map[string]any{"severity": "error", "target": "claude"},
	})
	require.NoError(t, err)

	cfg := s.config()
	assert.Equal(t, "error", cfg.Severity)
	assert.Equal(t, "claude", cfg.Target)
	assert.Greater(t, s.generation.Load(), genBefore, "config swap must bump the generation")
}

func TestDidChangeConfigurationInvalidIgnored(t *testing.T) {
	s := New()
	before := s.config()

	err := s.workspaceDidChangeConfiguration(mockContext(), &protocol.DidChangeConfigurationParams{
		Settings: "not an object",
	})
	require.NoError(t, err)
	assert.Equal(t, before.Severity, s.config().Severity)
}

// --- Command tests ---

func TestExecuteCommandUnknown(t *testing.T) {
	s := New()
	_, err := s.workspaceExecuteCommand(mockContext(), &protocol.ExecuteCommandParams{
		Command: "agnix.doesNotExist",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command")
}

func TestExecuteCommandProjectRulesNoRoot(t *testing.T) {
	s := New()
	result, err := s.workspaceExecuteCommand(mockContext(), &protocol.ExecuteCommandParams{
		Command: validateProjectRulesCommand,
	})
	require.NoError(t, err)
	assert.Nil(t, result)
}

// --- Lifecycle tests ---

func TestInitializeLifecycle(t *testing.T) {
	s := New()

	rootURI := "file:///workspace"
	result, err := s.initialize(mockContext(), &protocol.InitializeParams{
		RootURI: &rootURI,
	})
	require.NoError(t, err)

	initResult, ok := result.(protocol.InitializeResult)
	require.True(t, ok)
	require.NotNil(t, initResult.ServerInfo)
	assert.Equal(t, serverName, initResult.ServerInfo.Name)
	assert.Equal(t, "/workspace", s.rootPath)

	require.NotNil(t, initResult.Capabilities.ExecuteCommandProvider)
	assert.Contains(t, initResult.Capabilities.ExecuteCommandProvider.Commands, validateProjectRulesCommand)
}

func TestExitHandler(t *testing.T) {
	s := New()
	var exitCode int
	var exitCalled bool
	s.exitFn = func(code int) {
		exitCode = code
		exitCalled = true
	}

	err := s.exit(mockContext())
	require.NoError(t, err)
	assert.True(t, exitCalled)
	assert.Equal(t, 0, exitCode)
}
