package vault

import (
	"reflect"
	"testing"
)

func TestParseDocument_FrontmatterTags(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			"list form",
			"---\ntags:\n  - Project\n  - work\n---\nbody",
			[]string{"project", "work"},
		},
		{
			"inline list form",
			"---\ntags: [a, b]\n---\nbody",
			[]string{"a", "b"},
		},
		{
			"comma scalar form",
			"---\ntags: one, two\n---\nbody",
			[]string{"one", "two"},
		},
		{
			"hash markers stripped",
			"---\ntags:\n  - \"#draft\"\n---\nbody",
			[]string{"draft"},
		},
		{
			"no frontmatter",
			"just a note",
			[]string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parseDocument(tt.content)
			if !reflect.DeepEqual(doc.Tags, tt.want) {
				t.Errorf("tags = %v, want %v", doc.Tags, tt.want)
			}
		})
	}
}

func TestParseDocument_InlineTags(t *testing.T) {
	doc := parseDocument("Working on #project today.\n\n# Heading Not A Tag\n\nAlso (#nested/sub) counts.")
	want := []string{"nested/sub", "project"}
	if !reflect.DeepEqual(doc.Tags, want) {
		t.Errorf("tags = %v, want %v", doc.Tags, want)
	}
}

func TestParseDocument_TagsDeduplicated(t *testing.T) {
	doc := parseDocument("---\ntags: [work]\n---\nStill #work, always #Work.")
	if !reflect.DeepEqual(doc.Tags, []string{"work"}) {
		t.Errorf("tags = %v, want [work]", doc.Tags)
	}
}

func TestParseDocument_Wikilinks(t *testing.T) {
	doc := parseDocument("See [[Target Note]], [[other|an alias]], and [[deep/path#Section]].")
	want := []string{"Target Note", "deep/path", "other"}
	if !reflect.DeepEqual(doc.Links, want) {
		t.Errorf("links = %v, want %v", doc.Links, want)
	}
}

func TestParseDocument_MarkdownLinks(t *testing.T) {
	doc := parseDocument("A [note](other.md), an ![image](img/pic.png), an [external](https://example.com) and an [anchor](#here).")
	want := []string{"img/pic.png", "other.md"}
	if !reflect.DeepEqual(doc.Links, want) {
		t.Errorf("links = %v, want %v (external URLs and anchors excluded)", doc.Links, want)
	}
}

func TestParseDocument_MalformedFrontmatter(t *testing.T) {
	content := "---\ntags: [unclosed\n---\nBody with #tag."
	doc := parseDocument(content)
	// Malformed YAML: the block is treated as body text; the inline tag in
	// the body still counts.
	if !reflect.DeepEqual(doc.Tags, []string{"tag"}) {
		t.Errorf("tags = %v, want [tag]", doc.Tags)
	}
}

func TestSplitFrontmatter_UnterminatedBlock(t *testing.T) {
	content := "---\ntags: [a]\nno closing fence"
	body, tags := splitFrontmatter(content)
	if body != content || tags != nil {
		t.Errorf("unterminated frontmatter must be left as body, got tags=%v", tags)
	}
}
