// Copyright © 2025 The agnix authors

package lsp

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"runtime"

	"github.com/tliron/glsp"

	"github.com/avifenesh/agnix/lint"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// maxConfigRevalidationConcurrency caps the fan-out when every open
// document must be revalidated after a configuration change.
const maxConfigRevalidationConcurrency = 8

// workspaceDidChangeConfiguration handles workspace/didChangeConfiguration.
// Settings are a tolerant superset of .agnix.toml: fields present in the
// payload overwrite the current configuration, absent fields keep their
// prior values, and an unparseable payload is logged and ignored.
func (s *Server) workspaceDidChangeConfiguration(ctx *glsp.Context, params *protocol.DidChangeConfigurationParams) error {
	s.captureNotify(ctx)

	raw, err := json.Marshal(params.Settings)
	if err != nil {
		log.Printf("%s: ignoring unreadable configuration: %v", serverName, err)
		return nil
	}
	cfg := s.config().Clone()
	if err := json.Unmarshal(raw, cfg); err != nil {
		log.Printf("%s: ignoring invalid configuration: %v", serverName, err)
		return nil
	}
	s.setConfig(cfg)
	s.revalidateOpenDocuments()
	return nil
}

// revalidateOpenDocuments re-runs validation for every open document
// with a bounded fan-out.
func (s *Server) revalidateOpenDocuments() {
	limit := runtime.GOMAXPROCS(0)
	if limit > maxConfigRevalidationConcurrency {
		limit = maxConfigRevalidationConcurrency
	}
	gen := s.generation.Load()
	cfg := s.config()
	panics := forEachBounded(s.docs.URIs(), limit, func(uri string) {
		if snap := s.docs.Snapshot(uri); snap != nil {
			s.validatePublish(uri, snap, gen, cfg)
		}
	})
	for _, p := range panics {
		log.Printf("%s: revalidation worker panic: %v", serverName, p)
	}
}

// workspaceExecuteCommand handles workspace/executeCommand.
func (s *Server) workspaceExecuteCommand(ctx *glsp.Context, params *protocol.ExecuteCommandParams) (any, error) {
	s.captureNotify(ctx)
	switch params.Command {
	case validateProjectRulesCommand:
		go func() {
			defer func() { _ = recover() }()
			s.runProjectRules()
		}()
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown command %q", params.Command)
	}
}

// runProjectRules runs cross-file validation over the workspace root,
// swaps the project-level diagnostics cache in one step, and re-publishes
// every open document so the merged findings appear immediately.
func (s *Server) runProjectRules() {
	if s.rootPath == "" {
		return
	}
	cfg := s.config()
	diags, err := lint.ValidateProjectRules(context.Background(), s.rootPath, cfg)
	if err != nil {
		log.Printf("%s: project validation failed: %v", serverName, err)
		return
	}

	byPath := make(map[string][]lint.Diagnostic)
	for _, d := range diags {
		byPath[d.File] = append(byPath[d.File], d)
	}
	s.projectMu.Lock()
	s.projectDiags = byPath
	s.projectMu.Unlock()

	s.revalidateOpenDocuments()
}
