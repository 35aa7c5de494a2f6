// Copyright © 2025 The agnix authors

package lint

import (
	"sort"
	"unicode/utf8"
)

// ApplyOptions control fix application.
type ApplyOptions struct {
	// DryRun computes new contents without writing them.
	DryRun bool

	// SafeOnly restricts application to fixes marked Safe.
	SafeOnly bool

	// FS is the filesystem used for reads and writes. Defaults to the OS.
	FS FileSystem
}

// FileFixResult reports the outcome of fixing one file.
type FileFixResult struct {
	// Path of the fixed file.
	Path string `json:"path"`

	// Original is the content before fixing.
	Original string `json:"-"`

	// Fixed is the content after applying the accepted fixes.
	Fixed string `json:"-"`

	// Applied lists the descriptions of accepted fixes in source order.
	Applied []string `json:"applied"`
}

// Changed reports whether any accepted fix altered the content.
func (r FileFixResult) Changed() bool { return r.Original != r.Fixed }

// ApplyFixes applies the fixes attached to diagnostics, grouped per file.
//
// Within one file, fixes are sorted by start byte descending and applied
// back-to-front so earlier offsets stay valid. A fix is rejected when its
// range is inverted, runs past the content, lands off a UTF-8 boundary,
// or overlaps a fix already applied (end > last applied start; touching
// ranges with end == start are fine). Rejection is per-fix: remaining
// fixes still apply.
//
// Results are sorted by path. Files whose diagnostics carry no eligible
// fixes produce no result.
func ApplyFixes(diags []Diagnostic, opts ApplyOptions) ([]FileFixResult, error) {
	fs := opts.FS
	if fs == nil {
		fs = OSFileSystem{}
	}

	byPath := make(map[string][]Fix)
	for _, d := range diags {
		if len(d.Fixes) == 0 {
			continue
		}
		byPath[d.File] = append(byPath[d.File], d.Fixes...)
	}

	paths := make([]string, 0, len(byPath))
	for p := range byPath {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var results []FileFixResult
	for _, path := range paths {
		fixes := byPath[path]
		if opts.SafeOnly {
			var safe []Fix
			for _, f := range fixes {
				if f.Safe {
					safe = append(safe, f)
				}
			}
			fixes = safe
		}
		if len(fixes) == 0 {
			continue
		}

		content, err := fs.ReadFile(path)
		if err != nil {
			return nil, err
		}

		fixed, applied := spliceFixes(content, fixes)
		result := FileFixResult{
			Path:     path,
			Original: content,
			Fixed:    fixed,
			Applied:  applied,
		}
		if result.Changed() && !opts.DryRun {
			if err := fs.WriteFile(path, fixed); err != nil {
				return nil, err
			}
		}
		results = append(results, result)
	}
	return results, nil
}

// spliceFixes applies fixes back-to-front and returns the new content with
// the accepted fix descriptions restored to source order.
func spliceFixes(content string, fixes []Fix) (string, []string) {
	sorted := append([]Fix(nil), fixes...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartByte > sorted[j].StartByte
	})

	// lastStart is the start of the most recently applied (leftmost so
	// far) fix; the next fix may touch it but not cross it.
	lastStart := len(content) + 1
	var applied []string

	for _, f := range sorted {
		if f.EndByte < f.StartByte {
			continue
		}
		if f.StartByte > len(content) || f.EndByte > len(content) {
			continue
		}
		// Boundary checks are the last line of defence against a
		// validator that computed a mid-codepoint offset: such bugs must
		// produce a missing fix, not UTF-8 corruption.
		if !isCharBoundary(content, f.StartByte) || !isCharBoundary(content, f.EndByte) {
			continue
		}
		if f.EndByte > lastStart {
			continue
		}
		content = content[:f.StartByte] + f.Replacement + content[f.EndByte:]
		lastStart = f.StartByte
		applied = append(applied, f.Description)
	}

	// Applied back-to-front; restore source order for reporting.
	for i, j := 0, len(applied)-1; i < j; i, j = i+1, j-1 {
		applied[i], applied[j] = applied[j], applied[i]
	}
	return content, applied
}

// isCharBoundary reports whether offset is on a UTF-8 rune boundary.
func isCharBoundary(s string, offset int) bool {
	if offset == 0 || offset == len(s) {
		return true
	}
	if offset < 0 || offset > len(s) {
		return false
	}
	return utf8.RuneStart(s[offset])
}
