// Copyright © 2025 The agnix authors

package lint

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// MaxFileSize is the read limit enforced by the OS filesystem. Agent
// configuration files are small; anything over 1 MiB is refused rather
// than loaded into memory.
const MaxFileSize = 1 << 20

// FileSystem abstracts file access so validators that read sibling files
// (mode registries, skill directories, import targets) can be tested
// without fixtures on disk. The LSP and CLI use the OS-backed
// implementation.
type FileSystem interface {
	// ReadFile returns the contents of a regular file. Implementations
	// must refuse symlinks, non-regular files, and files larger than
	// MaxFileSize.
	ReadFile(path string) (string, error)

	// WriteFile replaces the contents of a file, preserving its mode.
	WriteFile(path string, content string) error

	// Exists reports whether a file or directory exists at path.
	Exists(path string) bool

	// IsFile reports whether path is a regular file.
	IsFile(path string) bool

	// IsDir reports whether path is a directory.
	IsDir(path string) bool
}

// OSFileSystem is the production FileSystem backed by the real filesystem.
type OSFileSystem struct{}

// ReadFile reads a regular file with the safe-read policy: no symlinks,
// no special files, at most MaxFileSize bytes.
func (OSFileSystem) ReadFile(path string) (string, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return "", &FileReadError{Path: path, Err: err}
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return "", &SymlinkError{Path: path}
	}
	if !info.Mode().IsRegular() {
		return "", &NotRegularFileError{Path: path}
	}
	if info.Size() > MaxFileSize {
		return "", &FileTooBigError{Path: path, Size: info.Size(), Limit: MaxFileSize}
	}
	f, err := os.Open(path)
	if err != nil {
		return "", &FileReadError{Path: path, Err: err}
	}
	defer f.Close()
	// Limit the read even if the file grew between Lstat and Open.
	data, err := io.ReadAll(io.LimitReader(f, MaxFileSize+1))
	if err != nil {
		return "", &FileReadError{Path: path, Err: err}
	}
	if len(data) > MaxFileSize {
		return "", &FileTooBigError{Path: path, Size: int64(len(data)), Limit: MaxFileSize}
	}
	return string(data), nil
}

func (OSFileSystem) WriteFile(path string, content string) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.WriteFile(path, []byte(content), mode); err != nil {
		return &FileWriteError{Path: path, Err: err}
	}
	return nil
}

func (OSFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (OSFileSystem) IsFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func (OSFileSystem) IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// MockFS is an in-memory FileSystem for tests. Parent directories are
// created implicitly when files are added.
type MockFS struct {
	mu    sync.RWMutex
	files map[string]string
	dirs  map[string]bool
}

// NewMockFS creates an empty in-memory filesystem.
func NewMockFS() *MockFS {
	return &MockFS{files: make(map[string]string), dirs: make(map[string]bool)}
}

// AddFile stores a file and creates its parent directories.
func (m *MockFS) AddFile(path, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)
	m.files[path] = content
	m.addDirsLocked(filepath.Dir(path))
}

// AddDir records an (possibly empty) directory.
func (m *MockFS) AddDir(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addDirsLocked(filepath.Clean(path))
}

func (m *MockFS) addDirsLocked(dir string) {
	for dir != "." && dir != string(filepath.Separator) && dir != "" {
		if m.dirs[dir] {
			return
		}
		m.dirs[dir] = true
		dir = filepath.Dir(dir)
	}
}

func (m *MockFS) ReadFile(path string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if content, ok := m.files[filepath.Clean(path)]; ok {
		return content, nil
	}
	return "", &FileReadError{Path: path, Err: os.ErrNotExist}
}

func (m *MockFS) WriteFile(path string, content string) error {
	m.AddFile(path, content)
	return nil
}

func (m *MockFS) Exists(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	path = filepath.Clean(path)
	if _, ok := m.files[path]; ok {
		return true
	}
	return m.dirs[path]
}

func (m *MockFS) IsFile(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.files[filepath.Clean(path)]
	return ok
}

func (m *MockFS) IsDir(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dirs[filepath.Clean(path)]
}

// Files returns the stored paths in sorted order. Test helper.
func (m *MockFS) Files() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	paths := make([]string, 0, len(m.files))
	for p := range m.files {
		paths = append(paths, p)
	}
	// Deterministic for assertions.
	sort.Strings(paths)
	return paths
}
