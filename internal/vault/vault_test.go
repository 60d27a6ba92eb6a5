package vault

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"testing"

	"github.com/vaultgraph/vaultgraph/internal/graph"
)

// testdataVault returns the absolute path to the testdata/vault fixture.
func testdataVault(t *testing.T) string {
	t.Helper()
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("unable to determine test file location")
	}
	root := filepath.Join(filepath.Dir(filename), "..", "..", "testdata", "vault")
	abs, err := filepath.Abs(root)
	if err != nil {
		t.Fatalf("resolve testdata path: %v", err)
	}
	if _, err := os.Stat(abs); os.IsNotExist(err) {
		t.Fatalf("testdata vault does not exist: %s", abs)
	}
	return abs
}

func loadFixture(t *testing.T, opts ...Option) graph.Corpus {
	t.Helper()
	v := New(testdataVault(t), nil, opts...)
	corpus, err := v.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	return corpus
}

func fileByID(t *testing.T, c graph.Corpus, id string) graph.File {
	t.Helper()
	for _, f := range c.Files {
		if f.ID == id {
			return f
		}
	}
	t.Fatalf("file %s not in corpus", id)
	return graph.File{}
}

func TestLoad_FileInventory(t *testing.T) {
	corpus := loadFixture(t)

	var ids []string
	for _, f := range corpus.Files {
		ids = append(ids, f.ID)
	}
	want := []string{"assets/capture.png", "index.md", "orphan.md", "projects/plan.md", "reading.md"}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("file ids = %v, want %v", ids, want)
	}
}

func TestLoad_DocumentMetadata(t *testing.T) {
	corpus := loadFixture(t)

	plan := fileByID(t, corpus, "projects/plan.md")
	if plan.Name != "plan" || plan.Filename != "plan.md" || plan.Extension != ".md" {
		t.Errorf("plan metadata = %+v", plan)
	}
	if !plan.IsDocument() {
		t.Error("plan.md must be a document")
	}
	wantTags := []string{"draft", "project", "work"}
	if !reflect.DeepEqual(plan.Tags, wantTags) {
		t.Errorf("plan tags = %v, want %v", plan.Tags, wantTags)
	}
	if plan.Content == "" {
		t.Error("document content must be read eagerly")
	}
}

func TestLoad_AttachmentHasNoContent(t *testing.T) {
	corpus := loadFixture(t)
	png := fileByID(t, corpus, "assets/capture.png")
	if png.IsDocument() {
		t.Error("capture.png must be an attachment")
	}
	if png.Content != "" || png.Tags != nil {
		t.Errorf("attachment carries content/tags: %+v", png)
	}
}

func TestLoad_ResolvedLinks(t *testing.T) {
	corpus := loadFixture(t)

	want := map[string][]string{
		"index.md":         {"assets/capture.png", "projects/plan.md", "reading.md"},
		"projects/plan.md": {"reading.md"},
	}
	for src, targets := range want {
		if got := corpus.Links[src]; !reflect.DeepEqual(got, targets) {
			t.Errorf("links[%s] = %v, want %v", src, got, targets)
		}
	}
	// The broken [[does-not-exist]] reference must have been dropped.
	for _, target := range corpus.Links["reading.md"] {
		t.Errorf("reading.md should have no resolved links, got %s", target)
	}
}

func TestLoad_ExcludePatterns(t *testing.T) {
	corpus := loadFixture(t, WithPatterns(nil, []string{"assets/**"}))
	for _, f := range corpus.Files {
		if f.ID == "assets/capture.png" {
			t.Error("excluded attachment present in corpus")
		}
	}
}

func TestSnapshot_BeforeLoadHasNoLinkIndex(t *testing.T) {
	v := New(testdataVault(t), nil)
	corpus := v.Snapshot()
	if corpus.Links != nil {
		t.Error("unloaded vault must report a missing link index")
	}
	if _, err := graph.NewEngine(nil).Derive(corpus, graph.Settings{}); err != graph.ErrNoLinkIndex {
		t.Errorf("Derive on unloaded snapshot: err = %v, want ErrNoLinkIndex", err)
	}
}

func TestLoad_SwapsSnapshotAtomically(t *testing.T) {
	v := New(testdataVault(t), nil)
	if _, err := v.Load(context.Background()); err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	corpus := v.Snapshot()
	if corpus.Links == nil {
		t.Fatal("snapshot after load is missing the link index")
	}
	if len(corpus.Files) == 0 {
		t.Fatal("snapshot after load has no files")
	}
}

func TestLoad_FixtureDerivesExpectedGraph(t *testing.T) {
	// End-to-end over the fixture: everything visible, orphans pruned.
	corpus := loadFixture(t)
	g, err := graph.NewEngine(nil).Derive(corpus, graph.Settings{
		ShowTags:        true,
		ShowAttachments: true,
		HideOrphans:     true,
	})
	if err != nil {
		t.Fatalf("Derive() error: %v", err)
	}

	ids := make(map[string]bool)
	for _, n := range g.Nodes {
		ids[n.ID] = true
	}
	if ids["orphan.md"] {
		t.Error("orphan.md must be pruned")
	}
	for _, id := range []string{"index.md", "projects/plan.md", "reading.md", "assets/capture.png", "tag:home", "tag:work"} {
		if !ids[id] {
			t.Errorf("expected node %s in derived graph", id)
		}
	}
}
