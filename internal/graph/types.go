package graph

import "strings"

// NodeType classifies a graph node.
type NodeType string

const (
	// NodeDocument is a markdown note.
	NodeDocument NodeType = "document"
	// NodeTag is a synthesized node representing a tag shared by documents.
	NodeTag NodeType = "tag"
	// NodeAttachment is any non-markdown file in the vault (images, PDFs, ...).
	NodeAttachment NodeType = "attachment"
)

// TagIDPrefix namespaces tag node ids so they can never collide with file paths.
const TagIDPrefix = "tag:"

// TagID returns the node id for a tag name. The name is lowercased so that
// "#Project" and "#project" materialize as the same node.
func TagID(name string) string {
	return TagIDPrefix + strings.ToLower(strings.TrimPrefix(name, "#"))
}

// Node is a plain-data graph node. Rendering-engine state (3D object handles,
// live simulation coordinates) lives in side tables owned by the presentation
// layer, keyed by ID — never here.
type Node struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Filename string   `json:"filename,omitempty"` // absent for tag nodes
	Type     NodeType `json:"type"`
	Tags     []string `json:"tags,omitempty"`
	Content  string   `json:"-"` // document text, search only, never serialized
}

// Edge is an unordered reference between two node ids. Both endpoints must
// exist in the node set of the same graph; Derive maintains that invariant
// after every narrowing stage.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Graph is one derived {nodes, edges} snapshot. It is recomputed from scratch
// each update cycle and never mutated in place after being published.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// NodeByID returns the node with the given id, if present.
func (g *Graph) NodeByID(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// FilterRuleKind selects which node attribute a filter rule inspects.
type FilterRuleKind string

const (
	FilterPath FilterRuleKind = "path"
	FilterTag  FilterRuleKind = "tag"
)

// FilterRule is one structured advanced-filter entry. A rule with an empty
// (or whitespace-only) value is inert: it matches nothing and excludes nothing.
type FilterRule struct {
	Kind     FilterRuleKind `json:"kind" yaml:"kind" koanf:"kind"`
	Value    string         `json:"value" yaml:"value" koanf:"value"`
	Inverted bool           `json:"inverted" yaml:"inverted" koanf:"inverted"`
}

// GroupRule maps a query to a display color. Rules are evaluated in list
// order; the first match wins.
type GroupRule struct {
	Query string `json:"query" yaml:"query" koanf:"query"`
	Color string `json:"color" yaml:"color" koanf:"color"`
}

// Settings is the immutable view-configuration snapshot a derivation runs
// against. Callers build a new value per change rather than mutating a shared
// one; Derive is a pure function of (Corpus, Settings).
type Settings struct {
	SearchText      string       `json:"search_text" yaml:"search_text" koanf:"search_text"`
	ExpandNeighbors bool         `json:"expand_neighbors" yaml:"expand_neighbors" koanf:"expand_neighbors"`
	Filters         []FilterRule `json:"filters" yaml:"filters" koanf:"filters"`
	ShowTags        bool         `json:"show_tags" yaml:"show_tags" koanf:"show_tags"`
	ShowAttachments bool         `json:"show_attachments" yaml:"show_attachments" koanf:"show_attachments"`
	HideOrphans     bool         `json:"hide_orphans" yaml:"hide_orphans" koanf:"hide_orphans"`
	Groups          []GroupRule  `json:"groups" yaml:"groups" koanf:"groups"`
}

// Clone returns a deep copy so a caller can build the next snapshot without
// aliasing the slices of the current one.
func (s Settings) Clone() Settings {
	out := s
	out.Filters = append([]FilterRule(nil), s.Filters...)
	out.Groups = append([]GroupRule(nil), s.Groups...)
	return out
}
