// Copyright © 2025 The agnix authors

package lint

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	gitignore "github.com/sabhiram/go-gitignore"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/avifenesh/agnix/filetype"
	"github.com/avifenesh/agnix/mdutil"
)

var tracer = otel.Tracer("github.com/avifenesh/agnix/lint")

// excludePattern is a project-level exclude glob prepared for directory
// pruning. A trailing slash in the source pattern means "this directory
// and everything under it" but never a plain file of the same name.
type excludePattern struct {
	pattern       string
	dirOnlyPrefix string
	allowProbe    bool
}

func compileExcludePatterns(excludes []string) ([]excludePattern, error) {
	patterns := make([]excludePattern, 0, len(excludes))
	for _, raw := range excludes {
		normalized := strings.ReplaceAll(raw, `\`, "/")
		p := excludePattern{pattern: normalized}
		if prefix, ok := strings.CutSuffix(normalized, "/"); ok {
			p.pattern = prefix + "/**"
			p.dirOnlyPrefix = prefix
		}
		p.allowProbe = p.dirOnlyPrefix != "" || strings.Contains(p.pattern, "**")
		if !doublestar.ValidatePattern(p.pattern) {
			return nil, &InvalidExcludePatternError{Pattern: raw, Err: doublestar.ErrBadPattern}
		}
		patterns = append(patterns, p)
	}
	return patterns, nil
}

// shouldPruneDir reports whether the walk can skip relDir entirely. The
// probe path detects recursive patterns that match files inside the
// directory without matching the directory itself; single-level globs
// like target/* must not prune because target/sub/file.md survives them.
func shouldPruneDir(relDir string, patterns []excludePattern) bool {
	if relDir == "" || relDir == "." {
		return false
	}
	probe := strings.TrimSuffix(relDir, "/") + "/__agnix_probe__"
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p.pattern, relDir); ok {
			return true
		}
		if p.allowProbe {
			if ok, _ := doublestar.Match(p.pattern, probe); ok {
				return true
			}
		}
	}
	return false
}

func isExcludedFile(relPath string, patterns []excludePattern) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p.pattern, relPath); ok && p.dirOnlyPrefix != relPath {
			return true
		}
	}
	return false
}

func normalizeRelPath(path, root string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)
	return strings.TrimPrefix(rel, "./")
}

// compileOverrides validates the [files] globs leniently: invalid
// patterns are dropped with a warning instead of failing the run, so a
// typo in one override does not block the whole project.
func compileOverrides(files FilesConfig) filetype.Overrides {
	keep := func(patterns []string) []string {
		var out []string
		for _, p := range patterns {
			normalized := strings.ReplaceAll(p, `\`, "/")
			if !filetype.ValidatePattern(normalized) {
				fmt.Fprintf(os.Stderr, "warning: ignoring invalid glob pattern %q\n", p)
				continue
			}
			out = append(out, normalized)
		}
		return out
	}
	return filetype.Overrides{
		Exclude:          keep(files.Exclude),
		IncludeAsMemory:  keep(files.IncludeAsMemory),
		IncludeAsGeneric: keep(files.IncludeAsGeneric),
	}
}

func overridesEmpty(ov filetype.Overrides) bool {
	return len(ov.Exclude) == 0 && len(ov.IncludeAsMemory) == 0 && len(ov.IncludeAsGeneric) == 0
}

func resolveTypeWith(path string, cfg *Config, ov filetype.Overrides) filetype.Type {
	if overridesEmpty(ov) {
		return filetype.Detect(path)
	}
	rel := filepath.Base(path)
	if cfg.RootDir != "" {
		rel = normalizeRelPath(path, cfg.RootDir)
	}
	return filetype.DetectWithOverrides(rel, ov)
}

// ResolveFileType classifies a path, applying the [files] config
// overrides with priority exclude > include_as_memory >
// include_as_generic > built-in detection.
func ResolveFileType(path string, cfg *Config) filetype.Type {
	return resolveTypeWith(path, cfg, compileOverrides(cfg.Files))
}

// ValidateFile validates a single file through the registry. An Unknown
// file type yields no diagnostics; read failures are returned as errors,
// not diagnostics.
func ValidateFile(path string, cfg *Config, reg *Registry) ([]Diagnostic, error) {
	return validateFileTyped(path, ResolveFileType(path, cfg), cfg, reg)
}

func validateFileTyped(path string, t filetype.Type, cfg *Config, reg *Registry) ([]Diagnostic, error) {
	if t == filetype.Unknown {
		return nil, nil
	}
	content, err := cfg.Filesystem().ReadFile(path)
	if err != nil {
		return nil, err
	}
	return reg.Dispatch(t, path, content, cfg), nil
}

// ValidateProject walks root and validates every recognised file in
// parallel, then runs the cross-file checks. Diagnostics come back fully
// sorted; two runs over the same tree produce identical output.
func ValidateProject(ctx context.Context, root string, cfg *Config, reg *Registry) (*Result, error) {
	ctx, span := tracer.Start(ctx, "lint.ValidateProject")
	defer span.End()

	start := time.Now()

	rootDir := resolveValidationRoot(root)
	cfg = cfg.Clone()
	cfg.RootDir = rootDir
	cfg.Imports = NewImportCache()

	excl, err := compileExcludePatterns(cfg.Exclude)
	if err != nil {
		return nil, err
	}
	overrides := compileOverrides(cfg.Files)

	var candidates []string
	err = walkProject(rootDir, excl, func(path string) error {
		candidates = append(candidates, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	var (
		mu               sync.Mutex
		diagnostics      []Diagnostic
		agentsPaths      []string
		instructionPaths []string
		filesChecked     atomic.Int64
		limitExceeded    atomic.Bool
	)
	maxFiles := cfg.MaxFilesToValidate

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, path := range candidates {
		path := path
		g.Go(func() error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// Once the budget is blown no further work is useful;
			// remaining files are skipped, not partially reported.
			if limitExceeded.Load() {
				return nil
			}

			t := resolveTypeWith(path, cfg, overrides)
			if t != filetype.Unknown {
				count := filesChecked.Add(1)
				if maxFiles > 0 && int(count) > maxFiles {
					limitExceeded.Store(true)
					return nil
				}
			}

			base := filepath.Base(path)
			isAgents := base == "AGENTS.md"
			isInstruction := filetype.IsInstructionFile(path)

			diags, verr := validateFileTyped(path, t, cfg, reg)
			if verr != nil {
				diags = []Diagnostic{
					NewError(path, 0, 0, "file::read",
						fmt.Sprintf("Failed to read file: %v", verr)).
						WithSuggestion("Check file permissions, encoding, and size"),
				}
			}

			mu.Lock()
			if isAgents {
				agentsPaths = append(agentsPaths, path)
			}
			if isInstruction {
				instructionPaths = append(instructionPaths, path)
			}
			diagnostics = append(diagnostics, diags...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if limitExceeded.Load() {
		return nil, &TooManyFilesError{Count: int(filesChecked.Load()), Limit: maxFiles}
	}

	sort.Strings(agentsPaths)
	sort.Strings(instructionPaths)
	diagnostics = append(diagnostics, runProjectChecks(agentsPaths, instructionPaths, cfg, rootDir)...)

	SortDiagnostics(diagnostics)

	span.SetAttributes(
		attribute.Int("lint.files_checked", int(filesChecked.Load())),
		attribute.Int("lint.diagnostics", len(diagnostics)),
	)

	return &Result{
		Diagnostics:    diagnostics,
		FilesChecked:   int(filesChecked.Load()),
		DurationMillis: time.Since(start).Milliseconds(),
		ValidatorCount: reg.ValidatorCount(),
	}, nil
}

// ValidateProjectRules runs only the cross-file checks (AGM-006,
// XP-004/005/006, VER-001) without validating file contents. The LSP
// uses it for workspace-level diagnostics; per-file validation happens
// incrementally on didOpen/didChange.
func ValidateProjectRules(ctx context.Context, root string, cfg *Config) ([]Diagnostic, error) {
	_, span := tracer.Start(ctx, "lint.ValidateProjectRules")
	defer span.End()

	rootDir := resolveValidationRoot(root)
	cfg = cfg.Clone()
	cfg.RootDir = rootDir

	excl, err := compileExcludePatterns(cfg.Exclude)
	if err != nil {
		return nil, err
	}

	var agentsPaths, instructionPaths []string
	seen := 0
	err = walkProject(rootDir, excl, func(path string) error {
		if cfg.MaxFilesToValidate > 0 && seen >= cfg.MaxFilesToValidate {
			return &TooManyFilesError{Count: seen, Limit: cfg.MaxFilesToValidate}
		}
		seen++
		if filepath.Base(path) == "AGENTS.md" {
			agentsPaths = append(agentsPaths, path)
		}
		if filetype.IsInstructionFile(path) {
			instructionPaths = append(instructionPaths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(agentsPaths)
	sort.Strings(instructionPaths)
	diags := runProjectChecks(agentsPaths, instructionPaths, cfg, rootDir)
	SortDiagnostics(diags)
	span.SetAttributes(attribute.Int("lint.diagnostics", len(diags)))
	return diags, nil
}

func resolveValidationRoot(path string) string {
	candidate := path
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		candidate = filepath.Dir(path)
	}
	abs, err := filepath.Abs(candidate)
	if err != nil {
		return candidate
	}
	return abs
}

// ignoreScope is one .gitignore file active for a directory subtree.
type ignoreScope struct {
	dir     string
	matcher *gitignore.GitIgnore
}

// walkProject traverses rootDir depth-first in lexical order, honouring
// .gitignore files (but not .git/info/exclude, which users often point
// at config dirs that still need linting), pruning excluded directories,
// and skipping .git itself. Hidden directories like .claude and .codex
// are visited. Symlinks are not followed.
func walkProject(rootDir string, excl []excludePattern, visit func(path string) error) error {
	var scopes []ignoreScope

	ignored := func(path string, isDir bool) bool {
		for _, s := range scopes {
			rel, err := filepath.Rel(s.dir, path)
			if err != nil {
				continue
			}
			rel = filepath.ToSlash(rel)
			if isDir {
				rel += "/"
			}
			if s.matcher.MatchesPath(rel) {
				return true
			}
		}
		return false
	}

	return filepath.WalkDir(rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable directories are skipped, not fatal.
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		// Drop .gitignore scopes we have walked out of.
		for len(scopes) > 0 {
			top := scopes[len(scopes)-1]
			if rel, rerr := filepath.Rel(top.dir, path); rerr == nil && !strings.HasPrefix(rel, "..") {
				break
			}
			scopes = scopes[:len(scopes)-1]
		}

		if d.IsDir() {
			if path != rootDir {
				if d.Name() == ".git" {
					return fs.SkipDir
				}
				if shouldPruneDir(normalizeRelPath(path, rootDir), excl) {
					return fs.SkipDir
				}
				if ignored(path, true) {
					return fs.SkipDir
				}
			}
			if m, merr := gitignore.CompileIgnoreFile(filepath.Join(path, ".gitignore")); merr == nil {
				scopes = append(scopes, ignoreScope{dir: path, matcher: m})
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if ignored(path, false) {
			return nil
		}
		if isExcludedFile(normalizeRelPath(path, rootDir), excl) {
			return nil
		}
		return visit(path)
	})
}

// agentsParents returns the AGENTS.md paths whose directory is a proper
// ancestor of path's directory.
func agentsParents(path string, all []string) []string {
	dir := filepath.Dir(path)
	var parents []string
	for _, other := range all {
		if other == path {
			continue
		}
		otherDir := filepath.Dir(other)
		if otherDir == dir {
			continue
		}
		if rel, err := filepath.Rel(otherDir, dir); err == nil && rel != "." && !strings.HasPrefix(rel, "..") {
			parents = append(parents, other)
		}
	}
	return parents
}

// runProjectChecks analyses relationships between files: duplicate
// AGENTS.md layers, contradictory instructions across files, and missing
// version pins. Both path slices must be pre-sorted.
func runProjectChecks(agentsPaths, instructionPaths []string, cfg *Config, rootDir string) []Diagnostic {
	var diags []Diagnostic

	if cfg.IsRuleEnabled("AGM-006") && len(agentsPaths) > 1 {
		for _, path := range agentsPaths {
			parents := agentsParents(path, agentsPaths)
			var msg string
			if len(parents) > 0 {
				msg = fmt.Sprintf("Nested AGENTS.md detected - parent AGENTS.md files exist at: %s",
					strings.Join(parents, ", "))
			} else {
				others := make([]string, 0, len(agentsPaths)-1)
				for _, other := range agentsPaths {
					if other != path {
						others = append(others, other)
					}
				}
				msg = fmt.Sprintf("Multiple AGENTS.md files detected - other AGENTS.md files exist at: %s",
					strings.Join(others, ", "))
			}
			diags = append(diags, NewWarning(path, 1, 0, "AGM-006", msg).
				WithSuggestion("Some tools load AGENTS.md hierarchically. Document inheritance behavior or consolidate files."))
		}
	}

	xp004 := cfg.IsRuleEnabled("XP-004")
	xp005 := cfg.IsRuleEnabled("XP-005")
	xp006 := cfg.IsRuleEnabled("XP-006")

	if (xp004 || xp005 || xp006) && len(instructionPaths) > 1 {
		type fileContent struct {
			path    string
			content string
		}
		var contents []fileContent
		for _, path := range instructionPaths {
			content, err := cfg.Filesystem().ReadFile(path)
			if err != nil {
				diags = append(diags, NewError(path, 0, 0, "XP-004",
					fmt.Sprintf("Failed to read instruction file: %v", err)).
					WithSuggestion("Check file permissions, encoding, and size"))
				continue
			}
			contents = append(contents, fileContent{path, content})
		}

		if xp004 {
			var fileCommands []mdutil.FileCommands
			for _, fc := range contents {
				if cmds := mdutil.ExtractBuildCommands(fc.content); len(cmds) > 0 {
					fileCommands = append(fileCommands, mdutil.FileCommands{Path: fc.path, Commands: cmds})
				}
			}
			for _, c := range mdutil.DetectBuildConflicts(fileCommands) {
				diags = append(diags, NewWarning(c.File1, c.File1Line, 0, "XP-004",
					fmt.Sprintf("Conflicting package managers: %s uses %s but %s uses %s for %s commands",
						c.File1, c.File1Manager, c.File2, c.File2Manager, c.Type)).
					WithSuggestion("Standardize on a single package manager across all instruction files"))
			}
		}

		if xp005 {
			var fileConstraints []mdutil.FileConstraints
			for _, fc := range contents {
				if cs := mdutil.ExtractToolConstraints(fc.content); len(cs) > 0 {
					fileConstraints = append(fileConstraints, mdutil.FileConstraints{Path: fc.path, Constraints: cs})
				}
			}
			for _, c := range mdutil.DetectToolConflicts(fileConstraints) {
				diags = append(diags, NewError(c.AllowFile, c.AllowLine, 0, "XP-005",
					fmt.Sprintf("Conflicting tool constraints: '%s' is allowed in %s but disallowed in %s",
						c.Tool, c.AllowFile, c.DisallowFile)).
					WithSuggestion("Resolve the conflict by consistently allowing or disallowing the tool"))
			}
		}

		if xp006 {
			layers := make([]mdutil.Layer, 0, len(contents))
			for _, fc := range contents {
				layers = append(layers, mdutil.CategorizeLayer(fc.path, fc.content))
			}
			if issue := mdutil.DetectPrecedenceIssues(layers); issue != nil && len(issue.Layers) > 0 {
				diags = append(diags, NewWarning(issue.Layers[0].Path, 1, 0, "XP-006", issue.Description).
					WithSuggestion("Document which file takes precedence (e.g., 'CLAUDE.md takes precedence over AGENTS.md')"))
			}
		}
	}

	if cfg.IsRuleEnabled("VER-001") && !cfg.HasVersionPins() {
		reportPath := filepath.Join(rootDir, ".agnix.toml")
		if !cfg.Filesystem().Exists(reportPath) {
			reportPath = rootDir
		}
		diags = append(diags, NewInfo(reportPath, 1, 0, "VER-001",
			"No tool or spec versions are pinned").
			WithSuggestion("Pin versions under [tool_versions] or [spec_revisions] in .agnix.toml so lint results stay reproducible as tools evolve"))
	}

	return diags
}
