// Copyright © 2025 The agnix authors

package lsp

import (
	"strings"

	"github.com/tliron/glsp"

	"github.com/avifenesh/agnix/filetype"
	"github.com/avifenesh/agnix/frontmatter"
	"github.com/avifenesh/agnix/lint"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// frontmatterKeys lists the recognised frontmatter keys per file type,
// offered as completions inside the frontmatter block.
var frontmatterKeys = map[filetype.Type][]string{
	filetype.Skill: {
		"name", "description", "allowed-tools", "argument-hint",
		"disable-model-invocation", "user-invocable", "model", "context", "agent",
	},
	filetype.Agent: {
		"name", "description", "model", "permissionMode",
		"tools", "disallowedTools", "hooks",
	},
	filetype.AmpCheck: {
		"name", "description", "severity-default", "tools",
	},
	filetype.KiroSteering: {
		"inclusion", "fileMatchPattern", "name", "description",
	},
	filetype.ClineRulesFolder: {
		"paths",
	},
}

// textDocumentCompletion offers frontmatter key completions when the
// cursor sits inside the frontmatter block of a recognised file type.
func (s *Server) textDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	s.captureNotify(ctx)
	uri := params.TextDocument.URI
	snap := s.docs.Snapshot(uri)
	if snap == nil {
		return nil, nil
	}
	path, ok := s.workspacePath(uri)
	if !ok {
		return nil, nil
	}
	t := lint.ResolveFileType(path, s.config())
	keys, known := frontmatterKeys[t]
	if !known {
		return nil, nil
	}
	if !inFrontmatter(*snap, int(params.Position.Line)) {
		return nil, nil
	}

	kind := protocol.CompletionItemKindProperty
	items := make([]protocol.CompletionItem, 0, len(keys))
	for _, key := range keys {
		key := key
		items = append(items, protocol.CompletionItem{
			Label:      key,
			Kind:       &kind,
			InsertText: strPtr(key + ": "),
		})
	}
	return items, nil
}

// inFrontmatter reports whether a 0-based line lies inside the
// frontmatter block (between the opening and closing fences).
func inFrontmatter(content string, line int) bool {
	parts := frontmatter.Split(content)
	if !parts.HasFrontmatter {
		return false
	}
	if line < 1 {
		return false
	}
	fmLines := strings.Count(parts.Frontmatter, "\n") + 1
	if parts.Frontmatter == "" {
		fmLines = 0
	}
	if !parts.HasClosing {
		// Unterminated frontmatter extends to the end of the file.
		return true
	}
	return line <= fmLines
}
