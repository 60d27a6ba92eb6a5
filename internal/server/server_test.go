package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vaultgraph/vaultgraph/internal/graph"
	"github.com/vaultgraph/vaultgraph/internal/layout"
	"github.com/vaultgraph/vaultgraph/internal/view"
)

type staticSource struct{ corpus graph.Corpus }

func (s staticSource) Snapshot() graph.Corpus { return s.corpus }

func (s staticSource) Load(ctx context.Context) (graph.Corpus, error) { return s.corpus, nil }

func testServer(t *testing.T) *Server {
	t.Helper()
	src := staticSource{corpus: graph.Corpus{
		Files: []graph.File{
			{ID: "a.md", Name: "a", Filename: "a.md", Extension: ".md", Tags: []string{"x"}, Content: "hello"},
			{ID: "b.md", Name: "b", Filename: "b.md", Extension: ".md"},
		},
		Links: map[string][]string{"a.md": {"b.md"}},
	}}
	controller := view.NewController(src, graph.Settings{ShowTags: true}, graph.DefaultPalette(), nil, nil)
	if _, err := controller.UpdateData(context.Background(), view.UpdateOptions{FirstLoad: true}); err != nil {
		t.Fatalf("seeding controller: %v", err)
	}
	return New(Config{Port: 0}, controller, nil)
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding request: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	rec := doJSON(t, testServer(t), http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d", rec.Code)
	}
}

func TestGetGraph(t *testing.T) {
	rec := doJSON(t, testServer(t), http.MethodGet, "/api/graph", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var snap view.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decoding snapshot: %v", err)
	}
	if len(snap.Nodes) != 3 { // a, b, tag:x
		t.Errorf("node count = %d, want 3", len(snap.Nodes))
	}
	for _, n := range snap.Nodes {
		if n.Color == "" {
			t.Errorf("node %s has no color", n.ID)
		}
	}
}

func TestPostConfig(t *testing.T) {
	s := testServer(t)
	hide := true
	rec := doJSON(t, s, http.MethodPost, "/api/config", view.Partial{HideOrphans: &hide})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var snap view.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decoding snapshot: %v", err)
	}
	if snap.Profile.Name != "cool" {
		t.Errorf("profile = %s, want cool", snap.Profile.Name)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/config", nil)
	var settings graph.Settings
	if err := json.Unmarshal(rec.Body.Bytes(), &settings); err != nil {
		t.Fatalf("decoding settings: %v", err)
	}
	if !settings.HideOrphans {
		t.Error("config update not reflected in GET /api/config")
	}
}

func TestPostConfig_BadPayload(t *testing.T) {
	s := testServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/config", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestPostHighlight(t *testing.T) {
	rec := doJSON(t, testServer(t), http.MethodPost, "/api/highlight", map[string][]string{"ids": {"a.md"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var snap view.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decoding snapshot: %v", err)
	}
	palette := graph.DefaultPalette()
	for _, n := range snap.Nodes {
		if n.ID == "a.md" && n.Color != palette.Highlight {
			t.Errorf("highlighted node color = %s, want %s", n.Color, palette.Highlight)
		}
	}
}

func TestPostPositions(t *testing.T) {
	s := testServer(t)
	rec := doJSON(t, s, http.MethodPost, "/api/positions",
		map[string]layout.Position{"a.md": {X: 4, Y: 5, Z: 6}})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}

	// Write-backs land in continuity state and must be carried by the next
	// update cycle.
	snap, err := s.controller.UpdateData(context.Background(), view.UpdateOptions{UseCache: true})
	if err != nil {
		t.Fatalf("UpdateData() error: %v", err)
	}
	for _, n := range snap.Nodes {
		if n.ID == "a.md" {
			if n.Position == nil || n.Position.X != 4 {
				t.Errorf("a.md position = %+v, want X=4", n.Position)
			}
		}
	}
}
