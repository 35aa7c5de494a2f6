// Copyright © 2025 The agnix authors

package lint

import (
	"fmt"
)

// FileReadError reports an I/O failure while reading a file.
type FileReadError struct {
	Path string
	Err  error
}

func (e *FileReadError) Error() string {
	return fmt.Sprintf("failed to read %s: %v", e.Path, e.Err)
}

func (e *FileReadError) Unwrap() error { return e.Err }

// FileWriteError reports an I/O failure while writing a file.
type FileWriteError struct {
	Path string
	Err  error
}

func (e *FileWriteError) Error() string {
	return fmt.Sprintf("failed to write %s: %v", e.Path, e.Err)
}

func (e *FileWriteError) Unwrap() error { return e.Err }

// SymlinkError reports a refused read because the target is a symlink.
// Following symlinks could read files outside the project tree.
type SymlinkError struct {
	Path string
}

func (e *SymlinkError) Error() string {
	return fmt.Sprintf("refusing to read symlink %s", e.Path)
}

// FileTooBigError reports a file exceeding the read size limit.
type FileTooBigError struct {
	Path  string
	Size  int64
	Limit int64
}

func (e *FileTooBigError) Error() string {
	return fmt.Sprintf("%s is %d bytes, exceeding the %d byte limit", e.Path, e.Size, e.Limit)
}

// NotRegularFileError reports a refused read because the target is not a
// regular file (device, socket, directory, ...).
type NotRegularFileError struct {
	Path string
}

func (e *NotRegularFileError) Error() string {
	return fmt.Sprintf("%s is not a regular file", e.Path)
}

// InvalidExcludePatternError reports a project-level exclude glob that
// failed to compile at config load.
type InvalidExcludePatternError struct {
	Pattern string
	Err     error
}

func (e *InvalidExcludePatternError) Error() string {
	return fmt.Sprintf("invalid exclude pattern %q: %v", e.Pattern, e.Err)
}

func (e *InvalidExcludePatternError) Unwrap() error { return e.Err }

// TooManyFilesError reports a project walk that exceeded the configured
// file budget. No partial result is returned.
type TooManyFilesError struct {
	Count int
	Limit int
}

func (e *TooManyFilesError) Error() string {
	return fmt.Sprintf("project has %d or more candidate files, exceeding max_files_to_validate=%d", e.Count, e.Limit)
}
