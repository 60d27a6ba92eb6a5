package vault

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultMaxFileSize is the maximum document size read into memory (4 MB).
// Larger documents still appear in the graph; their content is skipped.
const DefaultMaxFileSize int64 = 4 << 20

// defaultExcludedDirs are directory names skipped during traversal.
var defaultExcludedDirs = []string{
	".git",
	".obsidian",
	".trash",
	".vaultgraph",
	"node_modules",
	".DS_Store",
}

// fileEntry holds metadata about a single file discovered during traversal.
type fileEntry struct {
	Path      string // absolute path on disk
	RelPath   string // slash-separated path relative to the vault root
	Size      int64
	Extension string // lowercased, with leading dot
}

// shouldExcludeDir checks whether a directory name matches any default
// exclusion. Used during traversal to skip entire subtrees.
func shouldExcludeDir(name string) bool {
	for _, excl := range defaultExcludedDirs {
		if strings.EqualFold(name, excl) {
			return true
		}
	}
	return false
}

// walk traverses the vault root and returns every regular file that passes
// the include/exclude globs. Unreadable entries are skipped, not fatal.
func walk(root string, include, exclude []string) ([]fileEntry, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	var files []fileEntry
	err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if d.IsDir() {
			if path != abs && shouldExcludeDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(abs, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if !matchesInclude(rel, include) || matchesExclude(rel, exclude) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}

		files = append(files, fileEntry{
			Path:      path,
			RelPath:   rel,
			Size:      info.Size(),
			Extension: strings.ToLower(filepath.Ext(rel)),
		})
		return nil
	})

	return files, err
}

// matchesInclude returns true if relPath matches any include pattern. An
// empty pattern list includes everything.
func matchesInclude(relPath string, patterns []string) bool {
	if len(patterns) == 0 {
		return true
	}
	return matchesAny(relPath, patterns)
}

// matchesExclude returns true if relPath matches any exclude pattern.
func matchesExclude(relPath string, patterns []string) bool {
	return matchesAny(relPath, patterns)
}

// matchesAny checks relPath against each glob, trying both the full relative
// path and the bare filename so "*.png" style patterns behave as expected.
func matchesAny(relPath string, patterns []string) bool {
	for _, pattern := range patterns {
		pattern = filepath.ToSlash(pattern)
		if ok, err := doublestar.PathMatch(pattern, relPath); err == nil && ok {
			return true
		}
		if ok, err := doublestar.PathMatch(pattern, filepath.Base(relPath)); err == nil && ok {
			return true
		}
	}
	return false
}
