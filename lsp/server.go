// Copyright © 2025 The agnix authors

// Package lsp implements a Language Server Protocol server for agent
// configuration files. It publishes lint diagnostics on open/change/save,
// offers quickfix code actions for machine-applicable fixes, completes
// frontmatter keys, and shows rule documentation on hover.
package lsp

import (
	"log"
	"os"
	"sync"
	"sync/atomic"

	"github.com/tliron/glsp"
	glspserver "github.com/tliron/glsp/server"

	"github.com/avifenesh/agnix/lint"
	"github.com/avifenesh/agnix/rules"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

const serverName = "agnix-lsp"

// validateProjectRulesCommand triggers a cross-file validation pass over
// the whole workspace.
const validateProjectRulesCommand = "agnix.validateProjectRules"

// Server is the agnix language server.
type Server struct {
	handler  protocol.Handler
	glspSrv  *glspserver.Server
	docs     *DocumentStore
	rootURI  string
	rootPath string

	// Lint configuration, swapped wholesale on didChangeConfiguration.
	// generation fences in-flight validations against config swaps.
	cfgMu      sync.RWMutex
	cfg        *lint.Config
	generation atomic.Uint64

	// Validator registry, shared read-only across validations.
	registry *lint.Registry

	// Project-level diagnostics keyed by absolute file path, replaced
	// in one swap whenever cross-file validation runs.
	projectMu    sync.Mutex
	projectDiags map[string][]lint.Diagnostic

	// Context for sending notifications (captured from latest request).
	notifyMu sync.Mutex
	notify   glsp.NotifyFunc

	// exitFn is called on the LSP exit notification. Defaults to os.Exit.
	// Overridable for testing.
	exitFn func(int)
}

// Option configures the LSP server.
type Option func(*Server)

// WithRegistry injects a validator registry in place of the default.
func WithRegistry(reg *lint.Registry) Option {
	return func(s *Server) { s.registry = reg }
}

// WithConfig injects an initial lint configuration.
func WithConfig(cfg *lint.Config) Option {
	return func(s *Server) { s.cfg = cfg }
}

// New creates a new agnix LSP server.
func New(opts ...Option) *Server {
	s := &Server{
		docs:         NewDocumentStore(),
		cfg:          lint.DefaultConfig(),
		registry:     rules.DefaultRegistry(),
		projectDiags: make(map[string][]lint.Diagnostic),
		exitFn:       os.Exit,
	}
	for _, o := range opts {
		o(s)
	}

	s.handler = protocol.Handler{
		Initialize:  s.initialize,
		Initialized: s.initialized,
		Shutdown:    s.shutdown,
		Exit:        s.exit,
		SetTrace:    s.setTrace,

		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidSave:   s.textDocumentDidSave,
		TextDocumentDidClose:  s.textDocumentDidClose,

		TextDocumentCompletion: s.textDocumentCompletion,
		TextDocumentHover:      s.textDocumentHover,
		TextDocumentCodeAction: s.textDocumentCodeAction,

		WorkspaceDidChangeConfiguration: s.workspaceDidChangeConfiguration,
		WorkspaceExecuteCommand:         s.workspaceExecuteCommand,
	}

	s.glspSrv = glspserver.NewServer(&s.handler, serverName, false)
	return s
}

// RunStdio starts the server using stdio transport.
func (s *Server) RunStdio() error {
	return s.glspSrv.RunStdio()
}

// RunTCP starts the server listening on the given address.
func (s *Server) RunTCP(addr string) error {
	return s.glspSrv.RunTCP(addr)
}

// initialize handles the LSP initialize request.
func (s *Server) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	s.captureNotify(ctx)

	if params.RootURI != nil {
		s.rootURI = *params.RootURI
		s.rootPath = uriToPath(s.rootURI)
	} else if params.RootPath != nil {
		s.rootPath = *params.RootPath
		s.rootURI = pathToURI(s.rootPath)
	}

	// Pick up .agnix.toml from the workspace root; defaults on failure.
	if s.rootPath != "" {
		if cfg, err := lint.LoadConfig(s.rootPath); err == nil {
			cfg.RootDir = s.rootPath
			s.setConfig(cfg)
		}
	}

	capabilities := s.handler.CreateServerCapabilities()

	syncKind := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    &syncKind,
		Save:      &protocol.SaveOptions{IncludeText: boolPtr(false)},
	}
	capabilities.CompletionProvider = &protocol.CompletionOptions{
		TriggerCharacters: []string{":", " "},
	}
	capabilities.ExecuteCommandProvider = &protocol.ExecuteCommandOptions{
		Commands: []string{validateProjectRulesCommand},
	}

	version := "0.1.0"
	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    serverName,
			Version: &version,
		},
	}, nil
}

// initialized handles the initialized notification.
func (s *Server) initialized(ctx *glsp.Context, _ *protocol.InitializedParams) error {
	s.captureNotify(ctx)
	log.Printf("%s ready (root=%s)", serverName, s.rootPath)
	return nil
}

// shutdown handles the LSP shutdown request.
func (s *Server) shutdown(_ *glsp.Context) error {
	return nil
}

// exit handles the LSP exit notification by terminating the process.
func (s *Server) exit(_ *glsp.Context) error {
	s.exitFn(0)
	return nil
}

// setTrace handles the $/setTrace notification (required by some clients).
func (s *Server) setTrace(_ *glsp.Context, _ *protocol.SetTraceParams) error {
	return nil
}

// config returns the current lint configuration. The returned value is
// treated as immutable; configuration changes install a fresh clone.
func (s *Server) config() *lint.Config {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.cfg
}

// setConfig swaps the configuration and bumps the generation counter so
// in-flight validations against the old configuration are discarded.
func (s *Server) setConfig(cfg *lint.Config) {
	s.cfgMu.Lock()
	s.cfg = cfg
	s.cfgMu.Unlock()
	s.generation.Add(1)
}

func (s *Server) captureNotify(ctx *glsp.Context) {
	if ctx == nil || ctx.Notify == nil {
		return
	}
	s.notifyMu.Lock()
	s.notify = ctx.Notify
	s.notifyMu.Unlock()
}

func (s *Server) sendNotification(method string, params any) {
	s.notifyMu.Lock()
	notify := s.notify
	s.notifyMu.Unlock()
	if notify != nil {
		notify(method, params)
	}
}

func boolPtr(b bool) *bool {
	return &b
}

func strPtr(s string) *string {
	return &s
}
