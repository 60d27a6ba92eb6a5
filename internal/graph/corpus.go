package graph

import (
	"errors"
	"strings"
)

// ErrNoLinkIndex is returned by Derive when the corpus has no resolved-link
// table yet (the host's index is still being built). Callers treat it as a
// transient "no graph this cycle" condition and retry on the next trigger.
var ErrNoLinkIndex = errors.New("graph: resolved-link index not available")

// File is one corpus entry as supplied by the corpus reader: a stable
// path-like id plus the metadata derivation needs. Content is only populated
// for documents.
type File struct {
	ID        string   // slash-separated path relative to the vault root
	Name      string   // base name without extension
	Filename  string   // base name including extension
	Extension string   // lowercased, with leading dot (".md", ".png", ...)
	Tags      []string
	Content   string
}

// Corpus is an immutable snapshot of the vault: every file plus the resolved
// cross-reference table. Links maps a source file id to the ids of targets
// the reader confirmed exist; a nil map means the index is not ready.
type Corpus struct {
	Files []File
	Links map[string][]string
}

// markdownExtensions are the extensions treated as documents; everything else
// in the corpus is an attachment.
var markdownExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
}

// IsDocument reports whether the file is a text document (as opposed to an
// attachment), decided by extension.
func (f File) IsDocument() bool {
	return markdownExtensions[strings.ToLower(f.Extension)]
}
