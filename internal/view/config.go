package view

import (
	"context"
	"reflect"

	"github.com/vaultgraph/vaultgraph/internal/graph"
)

// Partial is one configuration mutation. Nil fields are left unchanged.
// ForcesChanged marks a change to physical force parameters (owned by the
// frontend), which requires a hot re-energize on the next data swap.
type Partial struct {
	SearchText      *string             `json:"search_text,omitempty"`
	ExpandNeighbors *bool               `json:"expand_neighbors,omitempty"`
	Filters         *[]graph.FilterRule `json:"filters,omitempty"`
	ShowTags        *bool               `json:"show_tags,omitempty"`
	ShowAttachments *bool               `json:"show_attachments,omitempty"`
	HideOrphans     *bool               `json:"hide_orphans,omitempty"`
	Groups          *[]graph.GroupRule  `json:"groups,omitempty"`
	ForcesChanged   bool                `json:"forces_changed,omitempty"`
}

// apply returns a new settings snapshot with the partial overlaid.
func (p Partial) apply(s graph.Settings) graph.Settings {
	out := s.Clone()
	if p.SearchText != nil {
		out.SearchText = *p.SearchText
	}
	if p.ExpandNeighbors != nil {
		out.ExpandNeighbors = *p.ExpandNeighbors
	}
	if p.Filters != nil {
		out.Filters = append([]graph.FilterRule(nil), (*p.Filters)...)
	}
	if p.ShowTags != nil {
		out.ShowTags = *p.ShowTags
	}
	if p.ShowAttachments != nil {
		out.ShowAttachments = *p.ShowAttachments
	}
	if p.HideOrphans != nil {
		out.HideOrphans = *p.HideOrphans
	}
	if p.Groups != nil {
		out.Groups = append([]graph.GroupRule(nil), (*p.Groups)...)
	}
	return out
}

// ApplyConfig is the single configuration entry point: it computes the next
// settings snapshot and triggers exactly one well-defined refresh decision.
// Group-rule-only changes refresh colors; derivation-affecting changes run a
// data cycle over the cached corpus (cool regime unless forces changed). A
// no-op partial publishes nothing new.
func (c *Controller) ApplyConfig(ctx context.Context, p Partial) (Snapshot, error) {
	c.mu.Lock()
	old := c.settings
	next := p.apply(old)
	c.settings = next
	c.mu.Unlock()

	derivationChanged := old.SearchText != next.SearchText ||
		old.ExpandNeighbors != next.ExpandNeighbors ||
		old.ShowTags != next.ShowTags ||
		old.ShowAttachments != next.ShowAttachments ||
		old.HideOrphans != next.HideOrphans ||
		!reflect.DeepEqual(old.Filters, next.Filters)
	colorsChanged := !reflect.DeepEqual(old.Groups, next.Groups)

	switch {
	case derivationChanged || p.ForcesChanged:
		return c.UpdateData(ctx, UpdateOptions{UseCache: true, Reheat: p.ForcesChanged})
	case colorsChanged:
		return c.UpdateColors(), nil
	default:
		return c.Snapshot(), nil
	}
}
