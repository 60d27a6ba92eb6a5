// Package view orchestrates update cycles: it owns the current settings
// snapshot, the previously derived graph and its positions, the re-entrancy
// guard, and the hot/cool regime decision. The derivation engine and the
// continuity manager stay pure; this is the only place that sequences them.
package view

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vaultgraph/vaultgraph/internal/graph"
	"github.com/vaultgraph/vaultgraph/internal/layout"
)

// ErrUpdateInFlight is returned when a re-derivation is triggered while a
// prior cycle is still running. The trigger is dropped, not queued; callers
// retry on their next natural trigger.
var ErrUpdateInFlight = errors.New("view: update cycle already in flight")

// CorpusSource supplies corpus snapshots. *vault.Vault implements it.
type CorpusSource interface {
	Snapshot() graph.Corpus
	Load(ctx context.Context) (graph.Corpus, error)
}

// UpdateOptions mirrors the updateData entry point: UseCache reuses the last
// corpus snapshot instead of re-reading the vault; Reheat and FirstLoad
// select the hot tuning profile.
type UpdateOptions struct {
	UseCache  bool `json:"use_cache"`
	Reheat    bool `json:"reheat"`
	FirstLoad bool `json:"is_first_load"`
}

// NodeView is a node decorated with presentation state for the frontend.
// Position is absent for nodes the physics simulation should place itself.
type NodeView struct {
	graph.Node
	Color    string           `json:"color"`
	Position *layout.Position `json:"position,omitempty"`
}

// EdgeView is an edge plus its display style.
type EdgeView struct {
	graph.Edge
	Style graph.EdgeStyle `json:"style"`
}

// Snapshot is one complete, immutable result of an update cycle, replaceable
// atomically. Empty distinguishes "valid derivation, zero results" from "no
// data yet" so the frontend can show a no-results indicator instead of a
// silently blank canvas.
type Snapshot struct {
	Nodes   []NodeView     `json:"nodes"`
	Edges   []EdgeView     `json:"edges"`
	Empty   bool           `json:"empty"`
	Profile layout.Profile `json:"profile"`
}

// Controller drives update cycles for one graph instance.
type Controller struct {
	source   CorpusSource
	engine   *graph.Engine
	resolver *graph.Resolver
	store    *layout.Store // may be nil (no persistence)
	log      *zap.Logger
	rng      *rand.Rand

	inFlight atomic.Bool

	mu          sync.RWMutex
	settings    graph.Settings
	current     *graph.Graph
	positions   layout.PositionMap
	highlighted map[string]bool
	snapshot    Snapshot
	onUpdate    func(Snapshot)
}

// NewController creates a controller. store may be nil to disable position
// persistence; a nil logger is replaced with a nop.
func NewController(source CorpusSource, settings graph.Settings, palette graph.Palette, store *layout.Store, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		source:      source,
		engine:      graph.NewEngine(logger),
		resolver:    graph.NewResolver(palette, logger),
		store:       store,
		log:         logger.Named("view"),
		rng:         rand.New(rand.NewSource(rand.Int63())),
		settings:    settings.Clone(),
		positions:   layout.PositionMap{},
		highlighted: map[string]bool{},
	}
}

// SetOnUpdate registers the callback invoked with every fresh snapshot
// (data, color, and display refreshes alike).
func (c *Controller) SetOnUpdate(fn func(Snapshot)) {
	c.mu.Lock()
	c.onUpdate = fn
	c.mu.Unlock()
}

// RestorePositions loads persisted positions into the continuity state, so
// the first derivation after a restart carries the previous layout.
func (c *Controller) RestorePositions(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	positions, err := c.store.Load(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.positions = positions
	c.mu.Unlock()
	c.log.Info("restored persisted positions", zap.Int("count", len(positions)))
	return nil
}

// Settings returns the current settings snapshot.
func (c *Controller) Settings() graph.Settings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.settings.Clone()
}

// Snapshot returns the most recent update result.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot
}

// UpdateData runs one full update cycle: read corpus, derive, carry
// positions, publish. It is idempotent and re-entrancy guarded: a trigger
// arriving while a cycle runs is dropped with ErrUpdateInFlight. On
// derivation failure the previous snapshot stays published.
func (c *Controller) UpdateData(ctx context.Context, opts UpdateOptions) (Snapshot, error) {
	if !c.inFlight.CompareAndSwap(false, true) {
		c.log.Debug("update trigger dropped, cycle in flight")
		return Snapshot{}, ErrUpdateInFlight
	}
	defer c.inFlight.Store(false)

	cycle := uuid.New().String()[:8]

	var corpus graph.Corpus
	if opts.UseCache {
		corpus = c.source.Snapshot()
	} else {
		var err error
		if corpus, err = c.source.Load(ctx); err != nil {
			c.log.Error("corpus load failed, keeping previous graph",
				zap.String("cycle", cycle), zap.Error(err))
			return c.Snapshot(), err
		}
	}

	// Copy the position map while holding the lock: SetPositions writes into
	// it concurrently (physics write-backs arrive over HTTP and the socket),
	// and CarryOver must read a stable snapshot outside the lock.
	c.mu.RLock()
	settings := c.settings
	prevPositions := make(layout.PositionMap, len(c.positions))
	for id, pos := range c.positions {
		prevPositions[id] = pos
	}
	c.mu.RUnlock()

	g, err := c.engine.Derive(corpus, settings)
	if err != nil {
		// Recoverable: leave the previous snapshot in place, retry on the
		// next trigger.
		c.log.Warn("derivation yielded no graph this cycle",
			zap.String("cycle", cycle), zap.Error(err))
		return c.Snapshot(), err
	}

	positions := layout.CarryOver(prevPositions, g, c.rng)
	profile := layout.ProfileFor(opts.Reheat, opts.FirstLoad)

	c.mu.Lock()
	c.current = g
	c.positions = positions
	snap := c.buildSnapshotLocked(profile)
	c.snapshot = snap
	fn := c.onUpdate
	c.mu.Unlock()

	c.log.Info("update cycle complete",
		zap.String("cycle", cycle),
		zap.Int("nodes", len(snap.Nodes)),
		zap.Int("edges", len(snap.Edges)),
		zap.String("profile", profile.Name),
		zap.Bool("empty", snap.Empty))

	if c.store != nil {
		if err := c.store.Save(ctx, positions); err != nil {
			c.log.Warn("persisting positions failed", zap.Error(err))
		}
	}
	if fn != nil {
		fn(snap)
	}
	return snap, nil
}

// UpdateColors recomputes node colors and edge styles against the current
// graph without re-deriving, for group-rule or highlight changes.
func (c *Controller) UpdateColors() Snapshot {
	return c.refresh()
}

// UpdateDisplay refreshes all visual attributes of the published snapshot
// without re-deriving. Today this is the same refresh as UpdateColors; it is
// a distinct entry point because callers distinguish the two intents.
func (c *Controller) UpdateDisplay() Snapshot {
	return c.refresh()
}

func (c *Controller) refresh() Snapshot {
	c.mu.Lock()
	snap := c.buildSnapshotLocked(c.snapshot.Profile)
	c.snapshot = snap
	fn := c.onUpdate
	c.mu.Unlock()
	if fn != nil {
		fn(snap)
	}
	return snap
}

// SetHighlight replaces the focus set and refreshes colors.
func (c *Controller) SetHighlight(ids []string) Snapshot {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	c.mu.Lock()
	c.highlighted = set
	c.mu.Unlock()
	return c.UpdateColors()
}

// SetPositions merges position write-backs from the physics simulation.
// Unknown node ids are ignored.
func (c *Controller) SetPositions(updates layout.PositionMap) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return
	}
	known := make(map[string]bool, len(c.current.Nodes))
	for _, n := range c.current.Nodes {
		known[n.ID] = true
	}
	for id, pos := range updates {
		if known[id] {
			c.positions[id] = pos
		}
	}
}

// PersistPositions writes the current position map to the store.
func (c *Controller) PersistPositions(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	c.mu.RLock()
	positions := make(layout.PositionMap, len(c.positions))
	for id, pos := range c.positions {
		positions[id] = pos
	}
	c.mu.RUnlock()
	return c.store.Save(ctx, positions)
}

// buildSnapshotLocked assembles a Snapshot from the held graph, positions
// and highlight set. Caller must hold c.mu.
func (c *Controller) buildSnapshotLocked(profile layout.Profile) Snapshot {
	if c.current == nil {
		return Snapshot{Nodes: []NodeView{}, Edges: []EdgeView{}, Profile: profile}
	}

	nodes := make([]NodeView, 0, len(c.current.Nodes))
	for _, n := range c.current.Nodes {
		nv := NodeView{
			Node:  n,
			Color: c.resolver.ResolveColor(n, c.settings.Groups, c.highlighted),
		}
		if pos, ok := c.positions[n.ID]; ok {
			p := pos
			nv.Position = &p
		}
		nodes = append(nodes, nv)
	}

	edges := make([]EdgeView, 0, len(c.current.Edges))
	for _, e := range c.current.Edges {
		edges = append(edges, EdgeView{
			Edge:  e,
			Style: c.resolver.EdgeStyleFor(e, c.highlighted),
		})
	}

	return Snapshot{
		Nodes:   nodes,
		Edges:   edges,
		Empty:   len(nodes) == 0,
		Profile: profile,
	}
}
