package graph

import (
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Engine derives a displayable graph from a corpus snapshot and a settings
// snapshot. It holds no mutable state of its own; Derive is a pure function
// of its arguments and may be called with any snapshot pair.
type Engine struct {
	log *zap.Logger
}

// NewEngine creates a derivation engine. A nil logger is replaced with a nop.
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{log: logger.Named("derive")}
}

// Derive runs the full derivation pipeline and returns a fresh graph. Stages
// run in a fixed order; each narrowing stage is followed by an edge
// re-projection so the edge set never references a pruned node. The previous
// graph, if any, is never touched.
func (e *Engine) Derive(corpus Corpus, settings Settings) (*Graph, error) {
	if corpus.Links == nil {
		return nil, ErrNoLinkIndex
	}

	// Stage 1: base nodes. Files are sorted by id so repeated derivation of
	// the same corpus yields an identical graph.
	files := append([]File(nil), corpus.Files...)
	sort.Slice(files, func(i, j int) bool { return files[i].ID < files[j].ID })

	nodes := make([]Node, 0, len(files))
	present := make(map[string]bool, len(files))
	for _, f := range files {
		if present[f.ID] {
			e.log.Warn("duplicate file id in corpus, skipping", zap.String("id", f.ID))
			continue
		}
		n := Node{
			ID:       f.ID,
			Name:     f.Name,
			Filename: f.Filename,
			Type:     NodeAttachment,
		}
		if f.IsDocument() {
			n.Type = NodeDocument
			n.Tags = f.Tags
			n.Content = f.Content
		}
		nodes = append(nodes, n)
		present[n.ID] = true
	}

	// Stage 2: base edges from the resolved-link table. Only references whose
	// endpoints both exist become edges.
	edges := make([]Edge, 0)
	sources := make([]string, 0, len(corpus.Links))
	for src := range corpus.Links {
		sources = append(sources, src)
	}
	sort.Strings(sources)
	for _, src := range sources {
		if !present[src] {
			continue
		}
		targets := append([]string(nil), corpus.Links[src]...)
		sort.Strings(targets)
		for _, dst := range targets {
			if present[dst] {
				edges = append(edges, Edge{Source: src, Target: dst})
			}
		}
	}

	// Stage 3: tag materialization. Tag nodes are synthesized here even when
	// show-tags is off — visibility is a later stage, and both the advanced
	// filters and group colors must be able to see tags before pruning. Tag
	// edges are deduplicated per (document, tag) pair.
	tagSeen := make(map[string]bool)
	for _, n := range nodes {
		if n.Type != NodeDocument {
			continue
		}
		edgeSeen := make(map[string]bool, len(n.Tags))
		for _, tag := range n.Tags {
			id := TagID(tag)
			if !tagSeen[id] {
				tagSeen[id] = true
				present[id] = true
				nodes = append(nodes, Node{
					ID:   id,
					Name: "#" + strings.ToLower(strings.TrimPrefix(tag, "#")),
					Type: NodeTag,
				})
			}
			if !edgeSeen[id] {
				edgeSeen[id] = true
				edges = append(edges, Edge{Source: n.ID, Target: id})
			}
		}
	}

	// The stage-3 edge set is the adjacency neighbor expansion runs against
	// later, regardless of what the intervening filters remove.
	baseEdges := append([]Edge(nil), edges...)

	// Stage 4: advanced filtering. Positive rules OR together; negative rules
	// then exclude unconditionally.
	positive, negative := splitRules(settings.Filters)
	if len(positive) > 0 {
		nodes = keepNodes(nodes, func(n Node) bool { return matchesAnyRule(n, positive) })
	}
	if len(negative) > 0 {
		nodes = keepNodes(nodes, func(n Node) bool { return !matchesAnyRule(n, negative) })
	}
	edges = projectEdges(edges, nodes)

	// Stage 5: search filtering with optional one-hop neighbor expansion.
	// Expansion walks the stage-3 adjacency so a neighbor is surfaced even
	// when the search text alone would have dropped it, but it can only
	// retain nodes that survived the advanced filters above.
	if search := strings.TrimSpace(settings.SearchText); search != "" {
		matched := make(map[string]bool)
		for _, n := range nodes {
			if matchesSearch(n, search) {
				matched[n.ID] = true
			}
		}
		keep := matched
		if settings.ExpandNeighbors {
			keep = expandByAdjacency(matched, baseEdges)
		}
		nodes = keepNodes(nodes, func(n Node) bool { return keep[n.ID] })
		edges = projectEdges(edges, nodes)
	}

	// Stage 6: visibility toggles. Documents always survive this stage.
	nodes = keepNodes(nodes, func(n Node) bool {
		switch n.Type {
		case NodeTag:
			return settings.ShowTags
		case NodeAttachment:
			return settings.ShowAttachments
		default:
			return true
		}
	})
	edges = projectEdges(edges, nodes)

	// Stage 7: orphan pruning against the currently visible edge set only.
	if settings.HideOrphans {
		degree := make(map[string]int)
		for _, edge := range edges {
			degree[edge.Source]++
			degree[edge.Target]++
		}
		nodes = keepNodes(nodes, func(n Node) bool { return degree[n.ID] > 0 })
		edges = projectEdges(edges, nodes)
	}

	e.log.Debug("derivation complete",
		zap.Int("files", len(corpus.Files)),
		zap.Int("nodes", len(nodes)),
		zap.Int("edges", len(edges)))

	return &Graph{Nodes: nodes, Edges: edges}, nil
}

// matchesSearch reports whether a node matches the search text: name, id (for
// non-tag nodes), or document content, case-insensitive substring.
func matchesSearch(n Node, search string) bool {
	search = strings.ToLower(search)
	if strings.Contains(strings.ToLower(n.Name), search) {
		return true
	}
	if n.Type != NodeTag && strings.Contains(strings.ToLower(n.ID), search) {
		return true
	}
	return n.Content != "" && strings.Contains(strings.ToLower(n.Content), search)
}

// expandByAdjacency grows a match set by one hop over the given edge set.
func expandByAdjacency(matched map[string]bool, edges []Edge) map[string]bool {
	keep := make(map[string]bool, len(matched))
	for id := range matched {
		keep[id] = true
	}
	for _, edge := range edges {
		if matched[edge.Source] {
			keep[edge.Target] = true
		}
		if matched[edge.Target] {
			keep[edge.Source] = true
		}
	}
	return keep
}

// keepNodes filters a node slice in a fresh slice, preserving order.
func keepNodes(nodes []Node, keep func(Node) bool) []Node {
	out := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		if keep(n) {
			out = append(out, n)
		}
	}
	return out
}

// projectEdges drops every edge with an endpoint outside the node set.
func projectEdges(edges []Edge, nodes []Node) []Edge {
	present := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		present[n.ID] = true
	}
	out := make([]Edge, 0, len(edges))
	for _, edge := range edges {
		if present[edge.Source] && present[edge.Target] {
			out = append(out, edge)
		}
	}
	return out
}
