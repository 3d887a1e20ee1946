// Package history records how the sub-elements of solids descend from one
// another during a recompute pass.
//
// A [History] is a directed graph of stable ids. An edge always points from a
// child element to the parent element it came from (a "devolve" edge), so
// walking parents goes back in time and walking children goes forward. Each
// id may be owned by one or more features: the features whose shape store
// currently holds that id. An id can be owned by several features when an
// operation passes a sub-element through unchanged.
//
// The project-wide history is rebuilt on every recompute and discarded
// afterwards. A pick (see [History.CreateDevolveHistory]) is a small history
// rooted at one element, captured when something referenced that element,
// and kept by its owner independent of the pass that produced it. Later
// passes use [History.ResolveHistories] to find what the picked element has
// become.
//
// History is not safe for concurrent use. A recompute pass owns it
// exclusively.
package history

import (
	"slices"

	"github.com/cadseer/cadseer/pkg/stableid"
)

type node struct {
	id       stableid.ID
	owners   []stableid.ID
	parents  []int
	children []int
}

// History is a devolve graph of stable ids. The zero value is not usable;
// call New.
type History struct {
	nodes []node
	index map[stableid.ID]int
	root  stableid.ID
}

// New returns an empty history.
func New() *History {
	return &History{index: make(map[stableid.ID]int)}
}

func (h *History) ensure(id stableid.ID) int {
	if i, ok := h.index[id]; ok {
		return i
	}
	h.nodes = append(h.nodes, node{id: id})
	i := len(h.nodes) - 1
	h.index[id] = i
	return i
}

// AddShape registers that shapeID belongs to featureID's output. Nil ids are
// ignored.
func (h *History) AddShape(featureID, shapeID stableid.ID) {
	if shapeID.IsNil() {
		return
	}
	n := &h.nodes[h.ensure(shapeID)]
	if featureID.IsNil() || slices.Contains(n.owners, featureID) {
		return
	}
	n.owners = append(n.owners, featureID)
}

// AddConnection records that child descends from parent. Nil ids and self
// edges are ignored, as are repeats of an existing edge.
func (h *History) AddConnection(child, parent stableid.ID) {
	if child.IsNil() || parent.IsNil() || child == parent {
		return
	}
	c := h.ensure(child)
	p := h.ensure(parent)
	if slices.Contains(h.nodes[c].parents, p) {
		return
	}
	h.nodes[c].parents = append(h.nodes[c].parents, p)
	h.nodes[p].children = append(h.nodes[p].children, c)
}

// HasShape reports whether id is a node of the history.
func (h *History) HasShape(id stableid.ID) bool {
	_, ok := h.index[id]
	return ok
}

// Len returns the number of nodes.
func (h *History) Len() int { return len(h.nodes) }

// Root returns the element a pick was captured for, or Nil for a project
// history.
func (h *History) Root() stableid.ID { return h.root }

// IDs returns every node id in insertion order.
func (h *History) IDs() []stableid.ID {
	ids := make([]stableid.ID, len(h.nodes))
	for i, n := range h.nodes {
		ids[i] = n.id
	}
	return ids
}

// Owners returns the features holding id.
func (h *History) Owners(id stableid.ID) []stableid.ID {
	i, ok := h.index[id]
	if !ok {
		return nil
	}
	return slices.Clone(h.nodes[i].owners)
}

// BelongsTo reports whether featureID owns shapeID.
func (h *History) BelongsTo(featureID, shapeID stableid.ID) bool {
	i, ok := h.index[shapeID]
	return ok && slices.Contains(h.nodes[i].owners, featureID)
}

// Parents returns the ids id directly descends from.
func (h *History) Parents(id stableid.ID) []stableid.ID {
	i, ok := h.index[id]
	if !ok {
		return nil
	}
	return h.idsOf(h.nodes[i].parents)
}

// Children returns the ids directly descending from id.
func (h *History) Children(id stableid.ID) []stableid.ID {
	i, ok := h.index[id]
	if !ok {
		return nil
	}
	return h.idsOf(h.nodes[i].children)
}

// Edges returns every (child, parent) pair in insertion order of the children.
func (h *History) Edges() [][2]stableid.ID {
	var out [][2]stableid.ID
	for _, n := range h.nodes {
		for _, p := range n.parents {
			out = append(out, [2]stableid.ID{n.id, h.nodes[p].id})
		}
	}
	return out
}

func (h *History) idsOf(idx []int) []stableid.ID {
	ids := make([]stableid.ID, len(idx))
	for i, x := range idx {
		ids[i] = h.nodes[x].id
	}
	return ids
}

// direction selects the adjacency a walk follows.
type direction int

const (
	forward  direction = iota // toward children (evolve)
	backward                  // toward parents (devolve)
)

func (h *History) adjacent(i int, dir direction) []int {
	if dir == forward {
		return h.nodes[i].children
	}
	return h.nodes[i].parents
}

// bfs visits start and everything reachable from it in dir, breadth first,
// until visit returns false.
func (h *History) bfs(start int, dir direction, visit func(i int) bool) {
	seen := map[int]bool{start: true}
	queue := []int{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if !visit(cur) {
			return
		}
		for _, next := range h.adjacent(cur, dir) {
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}
}

func (h *History) nearest(featureID, shapeID stableid.ID, dir direction) stableid.ID {
	start, ok := h.index[shapeID]
	if !ok {
		return stableid.Nil
	}
	found := stableid.Nil
	h.bfs(start, dir, func(i int) bool {
		if slices.Contains(h.nodes[i].owners, featureID) {
			found = h.nodes[i].id
			return false
		}
		return true
	})
	return found
}

// Evolve returns the nearest descendant of shapeID (shapeID included) owned by
// featureID, or Nil.
func (h *History) Evolve(featureID, shapeID stableid.ID) stableid.ID {
	return h.nearest(featureID, shapeID, forward)
}

// Devolve returns the nearest ancestor of shapeID (shapeID included) owned by
// featureID, or Nil.
func (h *History) Devolve(featureID, shapeID stableid.ID) stableid.ID {
	return h.nearest(featureID, shapeID, backward)
}

// CreateDevolveHistory extracts shapeID and all of its ancestors, with the
// edges between them and their owners, as a standalone history rooted at
// shapeID. The result shares nothing with h. An unknown shapeID yields a
// history holding only that id.
func (h *History) CreateDevolveHistory(shapeID stableid.ID) *History {
	out := New()
	out.root = shapeID
	start, ok := h.index[shapeID]
	if !ok {
		out.ensure(shapeID)
		return out
	}

	var visited []int
	h.bfs(start, backward, func(i int) bool {
		visited = append(visited, i)
		return true
	})
	for _, i := range visited {
		n := h.nodes[i]
		out.ensure(n.id)
		for _, owner := range n.owners {
			out.AddShape(owner, n.id)
		}
	}
	for _, i := range visited {
		for _, p := range h.nodes[i].parents {
			out.AddConnection(h.nodes[i].id, h.nodes[p].id)
		}
	}
	return out
}

// ResolveHistories finds what a picked element has become in featureID.
//
// The pick is walked breadth first from its root toward its ancestors until
// a node that also exists in h is found. From that anchor, h is walked
// forward to every descendant and backward to every ancestor, collecting the
// nodes owned by featureID. The anchor is included when featureID owns it.
// Results are unique and ordered by discovery.
//
// An empty result means the selection no longer exists; callers must handle
// it. h must be the fully rebuilt history of the current pass.
func (h *History) ResolveHistories(pick *History, featureID stableid.ID) []stableid.ID {
	if pick == nil || pick.Len() == 0 {
		return nil
	}
	root := pick.root
	if _, ok := pick.index[root]; !ok {
		root = pick.nodes[0].id
	}

	anchor := -1
	pick.bfs(pick.index[root], backward, func(i int) bool {
		if j, ok := h.index[pick.nodes[i].id]; ok {
			anchor = j
			return false
		}
		return true
	})
	if anchor < 0 {
		return nil
	}

	var out []stableid.ID
	seen := make(map[int]bool)
	collect := func(i int) bool {
		if !seen[i] && slices.Contains(h.nodes[i].owners, featureID) {
			seen[i] = true
			out = append(out, h.nodes[i].id)
		}
		return true
	}
	h.bfs(anchor, forward, collect)
	h.bfs(anchor, backward, collect)
	return out
}

// Merge copies every node, owner and edge of other into h.
func (h *History) Merge(other *History) {
	for _, n := range other.nodes {
		h.ensure(n.id)
		for _, owner := range n.owners {
			h.AddShape(owner, n.id)
		}
	}
	for _, e := range other.Edges() {
		h.AddConnection(e[0], e[1])
	}
}
