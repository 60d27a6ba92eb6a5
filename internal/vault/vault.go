// Package vault reads a markdown note vault from disk into immutable corpus
// snapshots: every file with its tags and content, plus a resolved
// cross-reference table. Link resolution (mapping a wikilink or relative
// markdown link to an existing file, dropping broken targets) happens here;
// downstream consumers only ever see confirmed references.
package vault

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/vaultgraph/vaultgraph/internal/graph"
)

// Vault reads and caches one note vault rooted at a directory.
type Vault struct {
	root        string
	include     []string
	exclude     []string
	maxFileSize int64
	progress    func(done, total int, name string)
	log         *zap.Logger

	mu     sync.RWMutex
	corpus graph.Corpus // zero value (nil Links) until the first Load
}

// Option configures a Vault.
type Option func(*Vault)

// WithPatterns sets include/exclude globs applied during traversal.
func WithPatterns(include, exclude []string) Option {
	return func(v *Vault) {
		v.include = include
		v.exclude = exclude
	}
}

// WithMaxFileSize caps how large a document may be for its content to be
// read into memory.
func WithMaxFileSize(n int64) Option {
	return func(v *Vault) {
		if n > 0 {
			v.maxFileSize = n
		}
	}
}

// WithProgress registers a callback invoked once per file during Load.
func WithProgress(fn func(done, total int, name string)) Option {
	return func(v *Vault) {
		v.progress = fn
	}
}

// New creates a Vault over the given root directory. Call Load before
// Snapshot; an unloaded vault yields a corpus without a link index.
func New(root string, logger *zap.Logger, opts ...Option) *Vault {
	if logger == nil {
		logger = zap.NewNop()
	}
	v := &Vault{
		root:        root,
		maxFileSize: DefaultMaxFileSize,
		log:         logger.Named("vault"),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Root returns the vault root directory.
func (v *Vault) Root() string { return v.root }

// Snapshot returns the current corpus. The returned value is treated as
// immutable by every consumer; Load replaces it wholesale.
func (v *Vault) Snapshot() graph.Corpus {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.corpus
}

// Load walks the vault, parses every document, resolves all links, and
// atomically swaps in the fresh corpus snapshot.
func (v *Vault) Load(ctx context.Context) (graph.Corpus, error) {
	entries, err := walk(v.root, v.include, v.exclude)
	if err != nil {
		return graph.Corpus{}, fmt.Errorf("walking vault %s: %w", v.root, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].RelPath < entries[j].RelPath })

	files := make([]graph.File, 0, len(entries))
	rawLinks := make(map[string][]string)

	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			return graph.Corpus{}, err
		}
		if v.progress != nil {
			v.progress(i+1, len(entries), entry.RelPath)
		}

		f := graph.File{
			ID:        entry.RelPath,
			Name:      strings.TrimSuffix(filepath.Base(entry.RelPath), entry.Extension),
			Filename:  filepath.Base(entry.RelPath),
			Extension: entry.Extension,
		}

		if f.IsDocument() {
			if entry.Size > v.maxFileSize {
				v.log.Warn("document too large, content skipped",
					zap.String("path", entry.RelPath),
					zap.Int64("size", entry.Size))
			} else {
				raw, err := os.ReadFile(entry.Path)
				if err != nil {
					v.log.Warn("unreadable document skipped",
						zap.String("path", entry.RelPath),
						zap.Error(err))
					continue
				}
				doc := parseDocument(string(raw))
				f.Content = string(raw)
				f.Tags = doc.Tags
				rawLinks[f.ID] = doc.Links
			}
		}

		files = append(files, f)
	}

	corpus := graph.Corpus{
		Files: files,
		Links: resolveLinks(files, rawLinks),
	}

	v.mu.Lock()
	v.corpus = corpus
	v.mu.Unlock()

	v.log.Info("vault loaded",
		zap.String("root", v.root),
		zap.Int("files", len(files)))
	return corpus, nil
}

// resolveLinks turns raw link targets into a confirmed reference table.
// A target resolves, in order, as: exact relative path, relative path with
// ".md" appended, then unique-enough base name (first file in path order
// wins, which matches the deterministic walk order).
func resolveLinks(files []graph.File, rawLinks map[string][]string) map[string][]string {
	byPath := make(map[string]string, len(files))
	byName := make(map[string]string, len(files))
	for _, f := range files {
		lower := strings.ToLower(f.ID)
		byPath[lower] = f.ID
		byPath[strings.TrimSuffix(lower, f.Extension)] = f.ID
		name := strings.ToLower(f.Name)
		if _, taken := byName[name]; !taken {
			byName[name] = f.ID
		}
	}

	resolved := make(map[string][]string, len(rawLinks))
	for src, targets := range rawLinks {
		var out []string
		seen := make(map[string]bool, len(targets))
		for _, target := range targets {
			id, ok := resolveTarget(target, byPath, byName)
			if !ok || id == src || seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, id)
		}
		sort.Strings(out)
		resolved[src] = out
	}
	return resolved
}

func resolveTarget(target string, byPath, byName map[string]string) (string, bool) {
	t := strings.ToLower(filepath.ToSlash(strings.TrimSpace(target)))
	t = strings.TrimPrefix(t, "./")
	if t == "" {
		return "", false
	}
	if id, ok := byPath[t]; ok {
		return id, true
	}
	if id, ok := byPath[t+".md"]; ok {
		return id, true
	}
	if id, ok := byName[path.Base(t)]; ok {
		return id, true
	}
	return "", false
}
