package graph

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"
)

// Palette holds the type-based default colors plus the highlight color used
// for the focused node set. Values are #rrggbb strings consumed by the
// rendering frontend.
type Palette struct {
	Document   string `json:"document" yaml:"document" koanf:"document"`
	Tag        string `json:"tag" yaml:"tag" koanf:"tag"`
	Attachment string `json:"attachment" yaml:"attachment" koanf:"attachment"`
	Highlight  string `json:"highlight" yaml:"highlight" koanf:"highlight"`
}

// DefaultPalette mirrors the frontend's built-in theme.
func DefaultPalette() Palette {
	return Palette{
		Document:   "#8b9dc3",
		Tag:        "#b08fc7",
		Attachment: "#7fa88f",
		Highlight:  "#ffb347",
	}
}

// EdgeStyle is the per-edge color/width pair, keyed on highlight membership.
type EdgeStyle struct {
	Color string  `json:"color"`
	Width float64 `json:"width"`
}

// Resolver maps nodes to display colors by evaluating the ordered group-rule
// list, first match winning, with highlight state taking precedence over
// everything and type defaults as the fallback. It is stateless apart from
// its palette and logger; resolving a color has no side effects.
type Resolver struct {
	palette Palette
	log     *zap.Logger
}

// NewResolver creates a color resolver over the given palette.
func NewResolver(palette Palette, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{palette: palette, log: logger.Named("colors")}
}

// ResolveColor returns the display color for a node. highlighted is the
// current focus set (selected/hovered nodes and their neighbors), which
// always wins over group rules. When the first matching rule carries an
// unparseable color, the node's type default is substituted (later rules are
// not consulted) so a bad rule cannot blank the graph.
func (r *Resolver) ResolveColor(n Node, groups []GroupRule, highlighted map[string]bool) string {
	if highlighted[n.ID] {
		return r.palette.Highlight
	}
	for _, rule := range groups {
		if !MatchQuery(n, rule.Query) {
			continue
		}
		if !ValidColor(rule.Color) {
			r.log.Warn("invalid group color, using type default",
				zap.String("query", rule.Query),
				zap.String("color", rule.Color),
				zap.String("node", n.ID))
			break
		}
		return rule.Color
	}
	return r.typeDefault(n.Type)
}

// EdgeStyleFor returns the color/width for an edge given the highlight set.
// An edge is highlighted when both endpoints are in the focus set.
func (r *Resolver) EdgeStyleFor(e Edge, highlighted map[string]bool) EdgeStyle {
	if highlighted[e.Source] && highlighted[e.Target] {
		return EdgeStyle{Color: r.palette.Highlight, Width: 2}
	}
	return EdgeStyle{Color: "#666666", Width: 1}
}

func (r *Resolver) typeDefault(t NodeType) string {
	switch t {
	case NodeTag:
		return r.palette.Tag
	case NodeAttachment:
		return r.palette.Attachment
	default:
		return r.palette.Document
	}
}

// MatchQuery evaluates a group-rule query against a node. Queries dispatch on
// an optional prefix: "path:" (id starts-with, never matches tag nodes),
// "tag:" (exact tag match against a tag node's own name or a document's tag
// list), "file:" (exact or * glob against the filename); anything else is a
// substring match against name or content. Case-insensitive throughout.
func MatchQuery(n Node, query string) bool {
	query = strings.TrimSpace(query)
	if query == "" {
		return false
	}

	switch {
	case strings.HasPrefix(query, "path:"):
		if n.Type == NodeTag {
			return false
		}
		value := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(query, "path:")))
		return value != "" && strings.HasPrefix(strings.ToLower(n.ID), value)

	case strings.HasPrefix(query, "tag:"):
		value := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(query, "tag:")))
		value = strings.TrimPrefix(value, "#")
		if value == "" {
			return false
		}
		if n.Type == NodeTag {
			return strings.TrimPrefix(strings.ToLower(n.Name), "#") == value
		}
		for _, tag := range n.Tags {
			if strings.EqualFold(tag, value) {
				return true
			}
		}
		return false

	case strings.HasPrefix(query, "file:"):
		if n.Filename == "" {
			return false
		}
		value := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(query, "file:")))
		if value == "" {
			return false
		}
		name := strings.ToLower(n.Filename)
		if strings.Contains(value, "*") {
			ok, err := doublestar.Match(value, name)
			return err == nil && ok
		}
		return name == value

	default:
		query = strings.ToLower(query)
		if strings.Contains(strings.ToLower(n.Name), query) {
			return true
		}
		return n.Content != "" && strings.Contains(strings.ToLower(n.Content), query)
	}
}

// ValidColor reports whether a color string is a #rgb or #rrggbb hex value.
func ValidColor(c string) bool {
	if len(c) != 4 && len(c) != 7 {
		return false
	}
	if c[0] != '#' {
		return false
	}
	for _, ch := range c[1:] {
		switch {
		case ch >= '0' && ch <= '9':
		case ch >= 'a' && ch <= 'f':
		case ch >= 'A' && ch <= 'F':
		default:
			return false
		}
	}
	return true
}
