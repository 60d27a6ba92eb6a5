package graph

import (
	"reflect"
	"testing"
)

// testCorpus builds the recurring fixture: two tagged notes that link to each
// other, an attachment, and an isolated note.
//
//	a.md  (tag: x) -> b.md, pic.png
//	b.md  (tag: x)
//	lonely.md (no tags, no links)
//	pic.png (attachment)
func testCorpus() Corpus {
	return Corpus{
		Files: []File{
			{ID: "a.md", Name: "a", Filename: "a.md", Extension: ".md", Tags: []string{"x"}, Content: "hello world"},
			{ID: "b.md", Name: "b", Filename: "b.md", Extension: ".md", Tags: []string{"x"}, Content: "second note"},
			{ID: "lonely.md", Name: "lonely", Filename: "lonely.md", Extension: ".md", Content: "alone"},
			{ID: "pic.png", Name: "pic", Filename: "pic.png", Extension: ".png"},
		},
		Links: map[string][]string{
			"a.md": {"b.md", "pic.png"},
		},
	}
}

func nodeIDs(g *Graph) map[string]bool {
	ids := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		ids[n.ID] = true
	}
	return ids
}

func edgeSet(g *Graph) map[Edge]bool {
	set := make(map[Edge]bool, len(g.Edges))
	for _, e := range g.Edges {
		set[e] = true
	}
	return set
}

// assertNoDanglingEdges checks the invariant every stage must maintain.
func assertNoDanglingEdges(t *testing.T, g *Graph) {
	t.Helper()
	ids := nodeIDs(g)
	for _, e := range g.Edges {
		if !ids[e.Source] || !ids[e.Target] {
			t.Errorf("dangling edge %s -> %s", e.Source, e.Target)
		}
	}
}

func derive(t *testing.T, c Corpus, s Settings) *Graph {
	t.Helper()
	g, err := NewEngine(nil).Derive(c, s)
	if err != nil {
		t.Fatalf("Derive() error: %v", err)
	}
	assertNoDanglingEdges(t, g)
	return g
}

func TestDerive_NoLinkIndex(t *testing.T) {
	_, err := NewEngine(nil).Derive(Corpus{}, Settings{})
	if err != ErrNoLinkIndex {
		t.Fatalf("Derive() error = %v, want ErrNoLinkIndex", err)
	}
}

func TestDerive_EmptyCorpus(t *testing.T) {
	g := derive(t, Corpus{Links: map[string][]string{}}, Settings{ShowTags: true})
	if len(g.Nodes) != 0 || len(g.Edges) != 0 {
		t.Errorf("empty corpus: got %d nodes, %d edges, want 0/0", len(g.Nodes), len(g.Edges))
	}
}

func TestDerive_BaseGraphWithTags(t *testing.T) {
	// Scenario from the shared-tag case: A and B share tag x and A links to B.
	g := derive(t, testCorpus(), Settings{ShowTags: true, ShowAttachments: true})

	want := map[string]bool{"a.md": true, "b.md": true, "lonely.md": true, "pic.png": true, "tag:x": true}
	if got := nodeIDs(g); !reflect.DeepEqual(got, want) {
		t.Errorf("node ids = %v, want %v", got, want)
	}

	edges := edgeSet(g)
	for _, e := range []Edge{
		{Source: "a.md", Target: "b.md"},
		{Source: "a.md", Target: "pic.png"},
		{Source: "a.md", Target: "tag:x"},
		{Source: "b.md", Target: "tag:x"},
	} {
		if !edges[e] {
			t.Errorf("missing edge %s -> %s", e.Source, e.Target)
		}
	}
	if len(g.Edges) != 4 {
		t.Errorf("edge count = %d, want 4", len(g.Edges))
	}
}

func TestDerive_SharedTagNodeIsDeduplicated(t *testing.T) {
	g := derive(t, testCorpus(), Settings{ShowTags: true})
	count := 0
	for _, n := range g.Nodes {
		if n.Type == NodeTag {
			count++
		}
	}
	if count != 1 {
		t.Errorf("tag node count = %d, want 1 (shared tag must dedupe)", count)
	}
}

func TestDerive_TagEdgeDedupPerDocument(t *testing.T) {
	c := testCorpus()
	c.Files[0].Tags = []string{"x", "X", "#x"} // same tag three times
	g := derive(t, c, Settings{ShowTags: true})

	count := 0
	for _, e := range g.Edges {
		if e.Source == "a.md" && e.Target == "tag:x" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("a.md -> tag:x edge count = %d, want 1", count)
	}
}

func TestDerive_Idempotent(t *testing.T) {
	c := testCorpus()
	s := Settings{ShowTags: true, ShowAttachments: true}
	g1 := derive(t, c, s)
	g2 := derive(t, c, s)
	if !reflect.DeepEqual(g1, g2) {
		t.Error("two derivations of the same inputs differ")
	}
}

func TestDerive_VisibilityToggles(t *testing.T) {
	tests := []struct {
		name     string
		settings Settings
		wantTags bool
		wantAtt  bool
	}{
		{"all hidden", Settings{}, false, false},
		{"tags only", Settings{ShowTags: true}, true, false},
		{"attachments only", Settings{ShowAttachments: true}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := derive(t, testCorpus(), tt.settings)
			ids := nodeIDs(g)
			if ids["tag:x"] != tt.wantTags {
				t.Errorf("tag node present = %v, want %v", ids["tag:x"], tt.wantTags)
			}
			if ids["pic.png"] != tt.wantAtt {
				t.Errorf("attachment present = %v, want %v", ids["pic.png"], tt.wantAtt)
			}
			// Documents always survive visibility filtering.
			for _, id := range []string{"a.md", "b.md", "lonely.md"} {
				if !ids[id] {
					t.Errorf("document %s missing", id)
				}
			}
		})
	}
}

func TestDerive_PositiveFilterOrSemantics(t *testing.T) {
	c := testCorpus()
	s := Settings{
		ShowTags: true,
		Filters: []FilterRule{
			{Kind: FilterPath, Value: "a.md"},
			{Kind: FilterPath, Value: "lonely"},
		},
	}
	g := derive(t, c, s)
	ids := nodeIDs(g)
	if !ids["a.md"] || !ids["lonely.md"] {
		t.Errorf("positive rules should OR together, got %v", ids)
	}
	if ids["b.md"] {
		t.Error("b.md matches no positive rule and should be excluded")
	}
}

func TestDerive_NegativeOverridesPositive(t *testing.T) {
	// A node matching both a positive and a negative rule must be excluded.
	c := testCorpus()
	s := Settings{
		Filters: []FilterRule{
			{Kind: FilterPath, Value: "a.md"},
			{Kind: FilterTag, Value: "#x", Inverted: true},
		},
	}
	g := derive(t, c, s)
	if nodeIDs(g)["a.md"] {
		t.Error("a.md matches both rules; negative must win")
	}
}

func TestDerive_InvertedTagFilter(t *testing.T) {
	// {kind: tag, value: "#x", inverted: true}: tagged documents excluded,
	// untagged ones retained.
	g := derive(t, testCorpus(), Settings{
		Filters: []FilterRule{{Kind: FilterTag, Value: "#x", Inverted: true}},
	})
	ids := nodeIDs(g)
	if ids["a.md"] || ids["b.md"] {
		t.Errorf("tagged documents should be excluded, got %v", ids)
	}
	if !ids["lonely.md"] {
		t.Error("lonely.md has no tag and should be retained")
	}
}

func TestDerive_WhitespaceRuleIsInert(t *testing.T) {
	g := derive(t, testCorpus(), Settings{
		ShowTags:        true,
		ShowAttachments: true,
		Filters:         []FilterRule{{Kind: FilterPath, Value: "   "}},
	})
	if len(g.Nodes) != 5 {
		t.Errorf("inert rule changed the graph: %d nodes, want 5", len(g.Nodes))
	}
}

func TestDerive_SearchContent(t *testing.T) {
	g := derive(t, testCorpus(), Settings{SearchText: "hello"})
	want := map[string]bool{"a.md": true}
	if got := nodeIDs(g); !reflect.DeepEqual(got, want) {
		t.Errorf("search nodes = %v, want %v", got, want)
	}
}

func TestDerive_SearchNeighborExpansion(t *testing.T) {
	g := derive(t, testCorpus(), Settings{SearchText: "hello", ExpandNeighbors: true})
	ids := nodeIDs(g)
	if !ids["a.md"] || !ids["b.md"] {
		t.Errorf("expansion should pull in linked neighbor b.md, got %v", ids)
	}
	// lonely.md has no match and no adjacency to a match.
	if ids["lonely.md"] {
		t.Error("lonely.md must not be retained by expansion")
	}
	// pic.png is adjacent but attachments are hidden by default settings.
	if ids["pic.png"] {
		t.Error("hidden attachment must not survive visibility filtering")
	}
}

func TestDerive_SearchExpansionUsesPreSearchAdjacency(t *testing.T) {
	// With tags hidden, the tag edge still exists at expansion time, so a
	// search matching only tag-sharer b.md does not surface a.md through the
	// tag node (that would be two hops) but does through the direct link.
	g := derive(t, testCorpus(), Settings{SearchText: "second", ExpandNeighbors: true})
	ids := nodeIDs(g)
	if !ids["b.md"] {
		t.Error("b.md matches the search and must be present")
	}
	if !ids["a.md"] {
		t.Error("a.md links to b.md and must be pulled in by expansion")
	}
}

func TestDerive_SearchExpansionRespectsAdvancedFilters(t *testing.T) {
	// Expansion walks the full-corpus adjacency, but it cannot resurrect a
	// node removed by an advanced filter.
	g := derive(t, testCorpus(), Settings{
		SearchText:      "hello",
		ExpandNeighbors: true,
		Filters:         []FilterRule{{Kind: FilterPath, Value: "b.md", Inverted: true}},
	})
	ids := nodeIDs(g)
	if ids["b.md"] {
		t.Error("b.md was excluded by a negative filter; expansion must not restore it")
	}
	if !ids["a.md"] {
		t.Error("a.md matches the search and must be present")
	}
}

func TestDerive_HideOrphans(t *testing.T) {
	g := derive(t, testCorpus(), Settings{ShowTags: true, HideOrphans: true})
	ids := nodeIDs(g)
	if ids["lonely.md"] {
		t.Error("lonely.md has no edges in any configuration and must be pruned")
	}
	if !ids["a.md"] || !ids["b.md"] || !ids["tag:x"] {
		t.Errorf("connected nodes must survive orphan pruning, got %v", ids)
	}
}

func TestDerive_OrphanPruningIgnoresHiddenEdges(t *testing.T) {
	// b.md's only edges are the incoming link from a.md and its tag edge.
	// Remove a.md with a filter and hide tags: the tag edge is invisible, so
	// b.md is an orphan and must go, even though the tag edge "exists".
	g := derive(t, testCorpus(), Settings{
		HideOrphans: true,
		Filters:     []FilterRule{{Kind: FilterPath, Value: "a.md", Inverted: true}},
	})
	if nodeIDs(g)["b.md"] {
		t.Error("b.md kept alive by a hidden tag edge; orphan pruning must only count visible edges")
	}
}

func TestDerive_DuplicateFileIDsSkipped(t *testing.T) {
	c := testCorpus()
	c.Files = append(c.Files, File{ID: "a.md", Name: "a", Filename: "a.md", Extension: ".md"})
	g := derive(t, c, Settings{})
	count := 0
	for _, n := range g.Nodes {
		if n.ID == "a.md" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("node id a.md appears %d times, want 1", count)
	}
}

func TestDerive_PreviousGraphUntouched(t *testing.T) {
	c := testCorpus()
	e := NewEngine(nil)
	g1, err := e.Derive(c, Settings{ShowTags: true, ShowAttachments: true})
	if err != nil {
		t.Fatalf("Derive() error: %v", err)
	}
	before := len(g1.Nodes)

	if _, err := e.Derive(c, Settings{HideOrphans: true}); err != nil {
		t.Fatalf("Derive() error: %v", err)
	}
	if len(g1.Nodes) != before {
		t.Error("second derivation mutated the first graph")
	}
}
