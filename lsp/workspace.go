// Copyright © 2025 The agnix authors

package lsp

import (
	"net/url"
	"path/filepath"
	"strings"
)

// uriToPath converts a file:// URI to a filesystem path.
func uriToPath(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme != "file" {
		return strings.TrimPrefix(uri, "file://")
	}
	return u.Path
}

// pathToURI converts a filesystem path to a file:// URI.
func pathToURI(path string) string {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	return u.String()
}

// normalizePath resolves "." and ".." segments lexically, without
// consulting the disk, clamping ".." at the root so traversal cannot
// escape above "/". Used for URIs naming files that do not exist yet,
// where symlink resolution is unavailable.
func normalizePath(path string) string {
	sep := string(filepath.Separator)
	rooted := strings.HasPrefix(path, sep)
	var parts []string
	for _, seg := range strings.Split(filepath.ToSlash(path), "/") {
		switch seg {
		case "", ".":
		case "..":
			if len(parts) > 0 {
				parts = parts[:len(parts)-1]
			}
			// Clamp at the root: ".." above "/" is a no-op.
		default:
			parts = append(parts, seg)
		}
	}
	joined := strings.Join(parts, sep)
	if rooted {
		return sep + joined
	}
	if joined == "" {
		return "."
	}
	return joined
}

// canonicalPath resolves symlinks when the path (or its directory)
// exists, so the boundary check sees the real location. Paths that do
// not exist yet fall back to lexical normalization.
func canonicalPath(path string) string {
	path = normalizePath(path)
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}
	// The file may not exist yet; resolve its directory instead so a
	// symlinked parent still lands on its canonical location.
	dir, base := filepath.Split(path)
	if resolved, err := filepath.EvalSymlinks(filepath.Clean(dir)); err == nil {
		return filepath.Join(resolved, base)
	}
	return path
}

// workspacePath converts a URI to a filesystem path and enforces the
// workspace boundary: the resolved path must live under the workspace
// root. Requests naming paths outside the workspace are ignored.
func (s *Server) workspacePath(uri string) (string, bool) {
	path := canonicalPath(uriToPath(uri))
	if s.rootPath == "" {
		return path, true
	}
	root := canonicalPath(s.rootPath)
	if path != root && !strings.HasPrefix(path, root+string(filepath.Separator)) {
		return "", false
	}
	return path, true
}

// isProjectLevelTrigger reports whether a change to path warrants a
// cross-file validation pass: instruction layers and the agnix
// configuration affect project-level rules.
func isProjectLevelTrigger(path string) bool {
	switch filepath.Base(path) {
	case "AGENTS.md", "AGENTS.local.md", "AGENTS.override.md",
		"CLAUDE.md", "CLAUDE.local.md", ".agnix.toml", ".clinerules":
		return true
	}
	if strings.HasSuffix(path, ".mdc") {
		dir := filepath.Dir(path)
		if filepath.Base(dir) == "rules" && filepath.Base(filepath.Dir(dir)) == ".cursor" {
			return true
		}
	}
	return false
}
