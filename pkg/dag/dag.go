package dag

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/cadseer/cadseer/pkg/errors"
	"github.com/cadseer/cadseer/pkg/feature"
	"github.com/cadseer/cadseer/pkg/stableid"
)

// Vertex is a handle to a feature in a [Graph]. Handles stay valid while the
// feature is alive and after it is removed, until [Graph.Compact] recycles its
// slot. From then on every use of the handle fails with STALE_VERTEX.
//
// The zero value is never a valid handle.
type Vertex struct {
	index uint32
	gen   uint32
}

// IsZero reports whether v is the zero handle.
func (v Vertex) IsZero() bool { return v.gen == 0 }

// String returns "v<index>.<generation>" for logs.
func (v Vertex) String() string { return fmt.Sprintf("v%d.%d", v.index, v.gen) }

// Edge is a handle to a connection between two features. Disconnecting an
// edge makes its handle stale immediately.
type Edge struct {
	index uint32
	gen   uint32
}

// IsZero reports whether e is the zero handle.
func (e Edge) IsZero() bool { return e.gen == 0 }

// String returns "e<index>.<generation>" for logs.
func (e Edge) String() string { return fmt.Sprintf("e%d.%d", e.index, e.gen) }

type vertexSlot struct {
	feature feature.Feature
	state   feature.State
	log     []string
	gen     uint32
	seq     uint64
	alive   bool
	used    bool
	in, out []int
}

type edgeSlot struct {
	parent, child int
	tags          feature.Tags
	gen           uint32
	used          bool
}

// Graph is the feature dependency graph. Vertices are features; an edge
// parent -> child carries the set of roles the parent plays for the child.
// There is at most one edge per (parent, child) pair and the graph is always
// acyclic: [Graph.Connect] rejects edges that would close a cycle.
//
// Features live in an arena of slots addressed by generation-checked
// [Vertex] handles. [Graph.RemoveFeature] only marks a slot dead, so handles
// held elsewhere keep working until [Graph.Compact].
//
// Structure may only change between recompute passes; see
// [Graph.BeginPass]. Graph is not safe for concurrent use.
type Graph struct {
	vertices  []vertexSlot
	edges     []edgeSlot
	free      []int
	freeEdges []int
	byID      map[stableid.ID]int
	seq       uint64
	inPass    bool

	observers  []observerEntry
	observerID int
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{byID: make(map[stableid.ID]int)}
}

// =============================================================================
// Handles
// =============================================================================

func (g *Graph) slot(v Vertex) (*vertexSlot, error) {
	if v.IsZero() || int(v.index) >= len(g.vertices) || g.vertices[v.index].gen != v.gen || !g.vertices[v.index].used {
		return nil, errors.New(errors.ErrCodeStaleVertex, "vertex %s is stale", v)
	}
	return &g.vertices[v.index], nil
}

func (g *Graph) liveSlot(v Vertex) (*vertexSlot, error) {
	s, err := g.slot(v)
	if err != nil {
		return nil, err
	}
	if !s.alive {
		return nil, errors.New(errors.ErrCodeDeadVertex, "feature %q was removed", s.feature.Name())
	}
	return s, nil
}

func (g *Graph) handle(i int) Vertex { return Vertex{index: uint32(i), gen: g.vertices[i].gen} }

func (g *Graph) edgeSlot(e Edge) (*edgeSlot, error) {
	if e.IsZero() || int(e.index) >= len(g.edges) || g.edges[e.index].gen != e.gen || !g.edges[e.index].used {
		return nil, errors.New(errors.ErrCodeStaleVertex, "edge %s is stale", e)
	}
	return &g.edges[e.index], nil
}

func (g *Graph) edgeHandle(i int) Edge { return Edge{index: uint32(i), gen: g.edges[i].gen} }

func (g *Graph) mutable() error {
	if g.inPass {
		return errors.New(errors.ErrCodePrecondition, "graph structure cannot change during a recompute pass")
	}
	return nil
}

// BeginPass freezes the graph structure for a recompute pass. Adding,
// removing, connecting and disconnecting fail with PRECONDITION until
// [Graph.EndPass]. State changes stay allowed.
func (g *Graph) BeginPass() { g.inPass = true }

// EndPass unfreezes the graph structure.
func (g *Graph) EndPass() { g.inPass = false }

// InPass reports whether a recompute pass is running.
func (g *Graph) InPass() bool { return g.inPass }

// =============================================================================
// Vertices
// =============================================================================

// AddFeature inserts f as a new vertex in state ModelDirty and returns its
// handle. It fails with INVALID_INPUT for a nil feature, a nil id, or an id
// already used by a live feature.
func (g *Graph) AddFeature(f feature.Feature) (Vertex, error) {
	if err := g.mutable(); err != nil {
		return Vertex{}, err
	}
	if f == nil || f.ID().IsNil() {
		return Vertex{}, errors.New(errors.ErrCodeInvalidInput, "feature must have an id")
	}
	if _, dup := g.byID[f.ID()]; dup {
		return Vertex{}, errors.New(errors.ErrCodeInvalidInput, "duplicate feature id %s", f.ID().Short())
	}

	var i int
	if n := len(g.free); n > 0 {
		i = g.free[n-1]
		g.free = g.free[:n-1]
	} else {
		g.vertices = append(g.vertices, vertexSlot{})
		i = len(g.vertices) - 1
	}
	g.seq++
	s := &g.vertices[i]
	*s = vertexSlot{feature: f, state: feature.ModelDirty, gen: s.gen + 1, seq: g.seq, alive: true, used: true}
	g.byID[f.ID()] = i

	g.emit(Event{Kind: FeatureAdded, Feature: f.ID(), State: s.state})
	return g.handle(i), nil
}

// RemoveFeature soft deletes v: the feature is disconnected from all parents
// and children (each child is marked dirty) and marked dead. The handle stays
// valid, and [Graph.Feature] still returns the feature, until
// [Graph.Compact].
func (g *Graph) RemoveFeature(v Vertex) error {
	if err := g.mutable(); err != nil {
		return err
	}
	s, err := g.liveSlot(v)
	if err != nil {
		return err
	}
	s.alive = false
	delete(g.byID, s.feature.ID())
	for _, e := range slices.Concat(s.in, s.out) {
		g.disconnect(e)
	}
	g.emit(Event{Kind: FeatureRemoved, Feature: s.feature.ID(), State: s.state})
	return nil
}

// Compact recycles the slots of removed features. Handles to them become
// stale; handles to live features are unaffected. It returns the number of
// recycled slots.
func (g *Graph) Compact() int {
	n := 0
	for i := range g.vertices {
		s := &g.vertices[i]
		if !s.used || s.alive {
			continue
		}
		*s = vertexSlot{gen: s.gen}
		g.free = append(g.free, i)
		n++
	}
	return n
}

// Len returns the number of live features.
func (g *Graph) Len() int { return len(g.byID) }

// Vertices returns the handles of all live features in insertion order.
func (g *Graph) Vertices() []Vertex {
	idx := make([]int, 0, len(g.byID))
	for _, i := range g.byID {
		idx = append(idx, i)
	}
	slices.SortFunc(idx, func(a, b int) int { return cmp.Compare(g.vertices[a].seq, g.vertices[b].seq) })
	out := make([]Vertex, len(idx))
	for k, i := range idx {
		out[k] = g.handle(i)
	}
	return out
}

// AllFeatureIDs returns the ids of all live features in insertion order.
func (g *Graph) AllFeatureIDs() []stableid.ID {
	vs := g.Vertices()
	out := make([]stableid.ID, len(vs))
	for i, v := range vs {
		out[i] = g.vertices[v.index].feature.ID()
	}
	return out
}

// Vertex returns the handle of the live feature with id.
func (g *Graph) Vertex(id stableid.ID) (Vertex, bool) {
	i, ok := g.byID[id]
	if !ok {
		return Vertex{}, false
	}
	return g.handle(i), true
}

// FindFeature returns the live feature with id.
func (g *Graph) FindFeature(id stableid.ID) (feature.Feature, bool) {
	i, ok := g.byID[id]
	if !ok {
		return nil, false
	}
	return g.vertices[i].feature, true
}

// Feature returns the feature behind v, removed features included. It
// returns nil for a stale handle.
func (g *Graph) Feature(v Vertex) feature.Feature {
	s, err := g.slot(v)
	if err != nil {
		return nil
	}
	return s.feature
}

// Alive reports whether v refers to a live feature.
func (g *Graph) Alive(v Vertex) bool {
	s, err := g.slot(v)
	return err == nil && s.alive
}

// Check returns nil when v is a live vertex and the STALE_VERTEX or
// DEAD_VERTEX error otherwise.
func (g *Graph) Check(v Vertex) error {
	_, err := g.liveSlot(v)
	return err
}

// =============================================================================
// State
// =============================================================================

// State returns v's lifecycle flags, or 0 for a stale handle.
func (g *Graph) State(v Vertex) feature.State {
	s, err := g.slot(v)
	if err != nil {
		return 0
	}
	return s.state
}

// SetState sets flags on v and notifies observers when the state changed.
func (g *Graph) SetState(v Vertex, flags feature.State) error {
	return g.updateState(v, func(st feature.State) feature.State { return st.Set(flags) })
}

// ClearState clears flags on v and notifies observers when the state changed.
func (g *Graph) ClearState(v Vertex, flags feature.State) error {
	return g.updateState(v, func(st feature.State) feature.State { return st.Clear(flags) })
}

func (g *Graph) updateState(v Vertex, fn func(feature.State) feature.State) error {
	s, err := g.liveSlot(v)
	if err != nil {
		return err
	}
	next := fn(s.state)
	if next == s.state {
		return nil
	}
	s.state = next
	g.emit(Event{Kind: StateChanged, Feature: s.feature.ID(), State: next})
	return nil
}

// SetActive includes v in recomputes again.
func (g *Graph) SetActive(v Vertex) error { return g.ClearState(v, feature.Inactive) }

// SetInactive suppresses v from recomputes and from leaf status.
func (g *Graph) SetInactive(v Vertex) error { return g.SetState(v, feature.Inactive) }

// SetLeaf marks v as having no active descendants.
func (g *Graph) SetLeaf(v Vertex) error { return g.ClearState(v, feature.NonLeaf) }

// SetNonLeaf marks v as having active descendants.
func (g *Graph) SetNonLeaf(v Vertex) error { return g.SetState(v, feature.NonLeaf) }

// SetSkipped turns pass-through mode of v on or off. Either way v becomes
// dirty, since its output changes.
func (g *Graph) SetSkipped(v Vertex, skipped bool) error {
	if skipped {
		return g.SetState(v, feature.Skipped|feature.ModelDirty)
	}
	if err := g.ClearState(v, feature.Skipped); err != nil {
		return err
	}
	return g.SetState(v, feature.ModelDirty)
}

// IsActive reports whether v is live and not Inactive.
func (g *Graph) IsActive(v Vertex) bool { return g.Alive(v) && !g.State(v).Has(feature.Inactive) }

// IsLeaf reports whether v is live and not NonLeaf.
func (g *Graph) IsLeaf(v Vertex) bool { return g.Alive(v) && !g.State(v).Has(feature.NonLeaf) }

// Log returns the messages recorded for v by its last update.
func (g *Graph) Log(v Vertex) []string {
	s, err := g.slot(v)
	if err != nil {
		return nil
	}
	return slices.Clone(s.log)
}

// AppendLog records msg for v.
func (g *Graph) AppendLog(v Vertex, msg string) {
	if s, err := g.slot(v); err == nil {
		s.log = append(s.log, msg)
	}
}

// ClearLog drops v's messages.
func (g *Graph) ClearLog(v Vertex) {
	if s, err := g.slot(v); err == nil {
		s.log = nil
	}
}

// =============================================================================
// Edges
// =============================================================================

// Connect adds the edge parent -> child carrying tags and marks child dirty.
// When the pair is already connected the tags are merged into the existing
// edge, whose handle is returned.
//
// Connect fails, leaving the graph unchanged, when either vertex is stale or
// removed, when parent == child, when tags is empty, or with CYCLE when child
// already reaches parent.
func (g *Graph) Connect(parent, child Vertex, tags feature.Tags) (Edge, error) {
	if err := g.mutable(); err != nil {
		return Edge{}, err
	}
	ps, err := g.liveSlot(parent)
	if err != nil {
		return Edge{}, err
	}
	cs, err := g.liveSlot(child)
	if err != nil {
		return Edge{}, err
	}
	tags = feature.NewTags(tags...)
	if len(tags) == 0 {
		return Edge{}, errors.New(errors.ErrCodeInvalidInput, "connection %q -> %q needs at least one role", ps.feature.Name(), cs.feature.Name())
	}
	if parent == child || g.reaches(int(child.index), int(parent.index)) {
		return Edge{}, errors.New(errors.ErrCodeCycle, "connecting %q -> %q would close a cycle", ps.feature.Name(), cs.feature.Name())
	}

	if e, ok := g.findEdge(int(parent.index), int(child.index)); ok {
		es := &g.edges[e]
		merged := es.tags.Union(tags)
		if slices.Equal(merged, es.tags) {
			return g.edgeHandle(e), nil
		}
		es.tags = merged
		g.emitEdge(ConnectionAdded, e)
		_ = g.SetState(child, feature.ModelDirty)
		return g.edgeHandle(e), nil
	}

	var e int
	if n := len(g.freeEdges); n > 0 {
		e = g.freeEdges[n-1]
		g.freeEdges = g.freeEdges[:n-1]
	} else {
		g.edges = append(g.edges, edgeSlot{})
		e = len(g.edges) - 1
	}
	es := &g.edges[e]
	*es = edgeSlot{parent: int(parent.index), child: int(child.index), tags: tags, gen: es.gen + 1, used: true}
	g.vertices[parent.index].out = append(g.vertices[parent.index].out, e)
	g.vertices[child.index].in = append(g.vertices[child.index].in, e)

	g.emitEdge(ConnectionAdded, e)
	_ = g.SetState(child, feature.ModelDirty)
	return g.edgeHandle(e), nil
}

// Disconnect removes e and marks its child dirty.
func (g *Graph) Disconnect(e Edge) error {
	if err := g.mutable(); err != nil {
		return err
	}
	if _, err := g.edgeSlot(e); err != nil {
		return err
	}
	g.disconnect(int(e.index))
	return nil
}

// DisconnectPair removes the edge parent -> child, if any.
func (g *Graph) DisconnectPair(parent, child Vertex) error {
	if err := g.mutable(); err != nil {
		return err
	}
	if _, err := g.slot(parent); err != nil {
		return err
	}
	if _, err := g.slot(child); err != nil {
		return err
	}
	if e, ok := g.findEdge(int(parent.index), int(child.index)); ok {
		g.disconnect(e)
	}
	return nil
}

func (g *Graph) disconnect(e int) {
	es := &g.edges[e]
	g.emitEdge(ConnectionRemoved, e)
	p, c := &g.vertices[es.parent], &g.vertices[es.child]
	p.out = slices.DeleteFunc(p.out, func(x int) bool { return x == e })
	c.in = slices.DeleteFunc(c.in, func(x int) bool { return x == e })
	if c.alive {
		_ = g.SetState(g.handle(es.child), feature.ModelDirty)
	}
	*es = edgeSlot{gen: es.gen}
	g.freeEdges = append(g.freeEdges, e)
}

func (g *Graph) findEdge(parent, child int) (int, bool) {
	for _, e := range g.vertices[parent].out {
		if g.edges[e].child == child {
			return e, true
		}
	}
	return 0, false
}

// EdgeInfo returns the endpoints and roles of e.
func (g *Graph) EdgeInfo(e Edge) (parent, child Vertex, tags feature.Tags, err error) {
	es, err := g.edgeSlot(e)
	if err != nil {
		return Vertex{}, Vertex{}, nil, err
	}
	return g.handle(es.parent), g.handle(es.child), slices.Clone(es.tags), nil
}

// InEdges returns the edges into v in connection order.
func (g *Graph) InEdges(v Vertex) []Edge {
	s, err := g.slot(v)
	if err != nil {
		return nil
	}
	out := make([]Edge, len(s.in))
	for i, e := range s.in {
		out[i] = g.edgeHandle(e)
	}
	return out
}

// OutEdges returns the edges out of v in connection order.
func (g *Graph) OutEdges(v Vertex) []Edge {
	s, err := g.slot(v)
	if err != nil {
		return nil
	}
	out := make([]Edge, len(s.out))
	for i, e := range s.out {
		out[i] = g.edgeHandle(e)
	}
	return out
}

// Parents returns the vertices with an edge into v, in connection order.
func (g *Graph) Parents(v Vertex) []Vertex {
	s, err := g.slot(v)
	if err != nil {
		return nil
	}
	out := make([]Vertex, len(s.in))
	for i, e := range s.in {
		out[i] = g.handle(g.edges[e].parent)
	}
	return out
}

// Children returns the vertices v has an edge to, in connection order.
func (g *Graph) Children(v Vertex) []Vertex {
	s, err := g.slot(v)
	if err != nil {
		return nil
	}
	out := make([]Vertex, len(s.out))
	for i, e := range s.out {
		out[i] = g.handle(g.edges[e].child)
	}
	return out
}

// Out and In expose the graph to the traverse package.
func (g *Graph) Out(v Vertex) []Vertex { return g.Children(v) }
func (g *Graph) In(v Vertex) []Vertex  { return g.Parents(v) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int {
	n := 0
	for _, es := range g.edges {
		if es.used {
			n++
		}
	}
	return n
}

// reaches reports whether to is reachable from from along out edges.
func (g *Graph) reaches(from, to int) bool {
	seen := make(map[int]bool)
	stack := []int{from}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur == to {
			return true
		}
		if seen[cur] {
			continue
		}
		seen[cur] = true
		for _, e := range g.vertices[cur].out {
			stack = append(stack, g.edges[e].child)
		}
	}
	return false
}

// Validate checks graph integrity and returns nil if valid. It verifies that
// every edge joins two live features, that the adjacency lists agree with the
// edges, and that the graph is acyclic. Cycle detection uses depth-first
// search with white/gray/black coloring.
func (g *Graph) Validate() error {
	for e, es := range g.edges {
		if !es.used {
			continue
		}
		if !g.vertices[es.parent].alive || !g.vertices[es.child].alive {
			return errors.New(errors.ErrCodeInternal, "edge %s joins a removed feature", g.edgeHandle(e))
		}
		if !slices.Contains(g.vertices[es.parent].out, e) || !slices.Contains(g.vertices[es.child].in, e) {
			return errors.New(errors.ErrCodeInternal, "edge %s missing from adjacency", g.edgeHandle(e))
		}
	}
	return g.detectCycles()
}

func (g *Graph) detectCycles() error {
	const (
		white = iota
		gray
		black
	)

	color := make([]int, len(g.vertices))
	var hasCycle bool

	var dfs func(i int)
	dfs = func(i int) {
		color[i] = gray
		for _, e := range g.vertices[i].out {
			child := g.edges[e].child
			switch color[child] {
			case white:
				dfs(child)
			case gray:
				hasCycle = true
				return
			}
		}
		color[i] = black
	}

	for i := range g.vertices {
		if g.vertices[i].alive && color[i] == white {
			dfs(i)
			if hasCycle {
				return errors.New(errors.ErrCodeCycle, "graph contains a cycle")
			}
		}
	}
	return nil
}
