package vault

import (
	"regexp"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"
)

// wikilinkRe matches [[target]], [[target|alias]] and [[target#heading]].
// Wikilinks are not part of CommonMark, so they are extracted by regexp
// alongside the goldmark AST walk that handles standard markdown links.
var wikilinkRe = regexp.MustCompile(`\[\[([^\[\]|#]+)(?:#[^\[\]|]*)?(?:\|[^\[\]]*)?\]\]`)

// inlineTagRe matches #tag tokens in body text. A leading boundary keeps
// URL fragments and headings ("# Title") from counting as tags.
var inlineTagRe = regexp.MustCompile(`(?:^|[\s(])#([\p{L}\p{N}_][\p{L}\p{N}_/-]*)`)

var markdown = goldmark.New()

// document is the parsed view of one markdown file: its tags and the raw
// (unresolved) link targets it references.
type document struct {
	Tags  []string
	Links []string
}

// frontmatter is the subset of YAML frontmatter vaultgraph cares about.
// Tags may be a list or a comma-separated scalar.
type frontmatter struct {
	Tags any `yaml:"tags"`
}

// parseDocument extracts tags and link targets from markdown source.
func parseDocument(content string) document {
	body, fmTags := splitFrontmatter(content)

	tagSet := make(map[string]bool)
	for _, tag := range fmTags {
		tag = normalizeTag(tag)
		if tag != "" {
			tagSet[tag] = true
		}
	}
	for _, m := range inlineTagRe.FindAllStringSubmatch(body, -1) {
		if tag := normalizeTag(m[1]); tag != "" {
			tagSet[tag] = true
		}
	}

	linkSet := make(map[string]bool)
	for _, m := range wikilinkRe.FindAllStringSubmatch(body, -1) {
		if target := strings.TrimSpace(m[1]); target != "" {
			linkSet[target] = true
		}
	}
	for _, target := range markdownLinkTargets(body) {
		linkSet[target] = true
	}

	doc := document{
		Tags:  make([]string, 0, len(tagSet)),
		Links: make([]string, 0, len(linkSet)),
	}
	for tag := range tagSet {
		doc.Tags = append(doc.Tags, tag)
	}
	for link := range linkSet {
		doc.Links = append(doc.Links, link)
	}
	sort.Strings(doc.Tags)
	sort.Strings(doc.Links)
	return doc
}

// markdownLinkTargets walks the goldmark AST and collects the destinations
// of standard [text](target) links, skipping external URLs.
func markdownLinkTargets(body string) []string {
	var targets []string
	source := []byte(body)
	root := markdown.Parser().Parse(text.NewReader(source))

	ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		var dest string
		switch link := n.(type) {
		case *ast.Link:
			dest = string(link.Destination)
		case *ast.Image:
			dest = string(link.Destination)
		default:
			return ast.WalkContinue, nil
		}
		if dest == "" || strings.Contains(dest, "://") || strings.HasPrefix(dest, "mailto:") || strings.HasPrefix(dest, "#") {
			return ast.WalkContinue, nil
		}
		// Drop an in-document fragment from the target.
		if i := strings.IndexByte(dest, '#'); i >= 0 {
			dest = dest[:i]
		}
		if dest != "" {
			targets = append(targets, dest)
		}
		return ast.WalkContinue, nil
	})

	return targets
}

// splitFrontmatter strips a leading YAML frontmatter block and returns the
// remaining body plus any tags declared in it. Malformed frontmatter is
// treated as regular body text.
func splitFrontmatter(content string) (body string, tags []string) {
	if !strings.HasPrefix(content, "---\n") && !strings.HasPrefix(content, "---\r\n") {
		return content, nil
	}
	rest := content[strings.IndexByte(content, '\n')+1:]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return content, nil
	}

	var fm frontmatter
	if err := yaml.Unmarshal([]byte(rest[:end]), &fm); err != nil {
		return content, nil
	}

	body = rest[end+len("\n---"):]
	if i := strings.IndexByte(body, '\n'); i >= 0 {
		body = body[i+1:]
	} else {
		body = ""
	}
	return body, frontmatterTags(fm.Tags)
}

// frontmatterTags flattens the YAML tags value: a sequence, a single scalar,
// or a comma-separated scalar.
func frontmatterTags(v any) []string {
	switch val := v.(type) {
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		parts := strings.Split(val, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	default:
		return nil
	}
}

// normalizeTag lowercases a tag and strips the leading marker.
func normalizeTag(tag string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(tag), "#"))
}
