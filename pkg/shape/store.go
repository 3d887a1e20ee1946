// Package shape provides the per-feature table that gives every sub-element
// of a feature's output a stable id.
//
// A [Store] maps stable ids to the opaque shape handles of the external
// geometry engine. Next to that table it keeps:
//   - an evolution table: pairs (in, out) meaning the upstream id "in" became
//     "out" in this feature
//   - a derived table: ids assigned to elements born from a set of parent ids,
//     so the same set of parents yields the same id on every recompute
//   - feature tags: well-known names ("XP", "seam") bound to ids
//
// While a feature is building its output the store may hold nil and
// duplicate ids. At the end of every successful update it must hold neither;
// see [Store.Validate] and the correlate package's Finish.
package shape

import (
	"slices"

	"github.com/cadseer/cadseer/pkg/geom"
	"github.com/cadseer/cadseer/pkg/history"
	"github.com/cadseer/cadseer/pkg/stableid"
)

// Entry is one row of the id table.
type Entry struct {
	ID    stableid.ID
	Shape geom.Shape
}

// Evolution records that In (an upstream id, or Nil for a fresh element)
// became Out in this feature.
type Evolution struct {
	In  stableid.ID `json:"in"`
	Out stableid.ID `json:"out"`
}

// Store is a feature's id table. The zero value is an empty, usable store.
// Store is not safe for concurrent use; it is owned by one feature and only
// mutated from that feature's update.
type Store struct {
	x       geom.Explorer
	entries []Entry
	byHash  map[uint64][]int
	parents map[int][]int

	evolutions []Evolution
	derived    map[string]stableid.ID
	derivedSrc map[string]stableid.Set
	tags       map[string]stableid.ID
	tagOrder   []string
}

// New returns an empty store.
func New() *Store { return &Store{} }

// SetRoot replaces the id table with every sub-element of root, all with nil
// ids, and clears the evolution table. Derived ids and feature tags survive:
// they are what keeps ids stable from one recompute to the next.
func (s *Store) SetRoot(x geom.Explorer, root geom.Shape) {
	s.x = x
	s.entries = s.entries[:0]
	s.byHash = make(map[uint64][]int)
	s.parents = make(map[int][]int)
	s.evolutions = nil
	if root == nil {
		return
	}
	for _, sub := range x.SubShapes(root) {
		s.entries = append(s.entries, Entry{Shape: sub})
		s.byHash[sub.Hash()] = append(s.byHash[sub.Hash()], len(s.entries)-1)
	}
	for i, e := range s.entries {
		for _, child := range x.Children(e.Shape) {
			if j := s.indexOf(child); j >= 0 {
				s.parents[j] = append(s.parents[j], i)
			}
		}
	}
}

func (s *Store) indexOf(sh geom.Shape) int {
	if sh == nil {
		return -1
	}
	for _, i := range s.byHash[sh.Hash()] {
		if s.entries[i].Shape.Same(sh) {
			return i
		}
	}
	return -1
}

func (s *Store) indexOfID(id stableid.ID) int {
	if id.IsNil() {
		return -1
	}
	for i, e := range s.entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// Len returns the number of entries.
func (s *Store) Len() int { return len(s.entries) }

// Entries returns a copy of the id table in enumeration order.
func (s *Store) Entries() []Entry { return slices.Clone(s.entries) }

// IDs returns the ids of all entries in enumeration order, nils included.
func (s *Store) IDs() []stableid.ID {
	out := make([]stableid.ID, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.ID
	}
	return out
}

// HasID reports whether a live entry holds id. Nil is never present.
func (s *Store) HasID(id stableid.ID) bool { return s.indexOfID(id) >= 0 }

// HasShape reports whether sh is one of the entries.
func (s *Store) HasShape(sh geom.Shape) bool { return s.indexOf(sh) >= 0 }

// FindShape returns the shape holding id.
func (s *Store) FindShape(id stableid.ID) (geom.Shape, bool) {
	if i := s.indexOfID(id); i >= 0 {
		return s.entries[i].Shape, true
	}
	return nil, false
}

// FindID returns the id of sh, which is Nil for an unassigned entry. The
// boolean reports whether sh is in the store at all.
func (s *Store) FindID(sh geom.Shape) (stableid.ID, bool) {
	if i := s.indexOf(sh); i >= 0 {
		return s.entries[i].ID, true
	}
	return stableid.Nil, false
}

// UpdateID assigns id to sh. It reports false when sh is not in the store.
func (s *Store) UpdateID(sh geom.Shape, id stableid.ID) bool {
	i := s.indexOf(sh)
	if i < 0 {
		return false
	}
	s.entries[i].ID = id
	return true
}

// RootShape returns the first entry's shape, the root passed to SetRoot.
func (s *Store) RootShape() geom.Shape {
	if len(s.entries) == 0 {
		return nil
	}
	return s.entries[0].Shape
}

// RootID returns the root's id.
func (s *Store) RootID() stableid.ID {
	if len(s.entries) == 0 {
		return stableid.Nil
	}
	return s.entries[0].ID
}

// ShapesOfKind returns the entries' shapes of one kind.
func (s *Store) ShapesOfKind(kind geom.Kind) []geom.Shape {
	var out []geom.Shape
	for _, e := range s.entries {
		if e.Shape.Kind() == kind {
			out = append(out, e.Shape)
		}
	}
	return out
}

// IDsOfKind returns the non-nil ids of entries of one kind.
func (s *Store) IDsOfKind(kind geom.Kind) []stableid.ID {
	var out []stableid.ID
	for _, e := range s.entries {
		if e.Shape.Kind() == kind && e.ID.Valid() {
			out = append(out, e.ID)
		}
	}
	return out
}

// ParentsOf returns the entries that directly contain sh, for example the
// wires holding an edge.
func (s *Store) ParentsOf(sh geom.Shape) []geom.Shape {
	i := s.indexOf(sh)
	if i < 0 {
		return nil
	}
	out := make([]geom.Shape, len(s.parents[i]))
	for k, p := range s.parents[i] {
		out[k] = s.entries[p].Shape
	}
	return out
}

// AncestorsOfKind returns the distinct entries of kind that contain sh at any
// depth.
func (s *Store) AncestorsOfKind(sh geom.Shape, kind geom.Kind) []geom.Shape {
	start := s.indexOf(sh)
	if start < 0 {
		return nil
	}
	seen := map[int]bool{start: true}
	queue := []int{start}
	var out []geom.Shape
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, p := range s.parents[cur] {
			if seen[p] {
				continue
			}
			seen[p] = true
			if s.entries[p].Shape.Kind() == kind {
				out = append(out, s.entries[p].Shape)
			}
			queue = append(queue, p)
		}
	}
	return out
}

// InsertEvolve records that in became out in this feature. Repeats are ignored.
func (s *Store) InsertEvolve(in, out stableid.ID) {
	ev := Evolution{In: in, Out: out}
	if slices.Contains(s.evolutions, ev) {
		return
	}
	s.evolutions = append(s.evolutions, ev)
}

// Evolutions returns the evolution table in insertion order.
func (s *Store) Evolutions() []Evolution { return slices.Clone(s.evolutions) }

// EvolveForward returns the ids that in became.
func (s *Store) EvolveForward(in stableid.ID) []stableid.ID {
	var out []stableid.ID
	for _, ev := range s.evolutions {
		if ev.In == in {
			out = append(out, ev.Out)
		}
	}
	return out
}

// EvolveReverse returns the upstream ids out came from.
func (s *Store) EvolveReverse(out stableid.ID) []stableid.ID {
	var in []stableid.ID
	for _, ev := range s.evolutions {
		if ev.Out == out {
			in = append(in, ev.In)
		}
	}
	return in
}

// DerivedID returns the id previously assigned to an element born from
// parents.
func (s *Store) DerivedID(parents stableid.Set) (stableid.ID, bool) {
	id, ok := s.derived[parents.Key()]
	return id, ok
}

// InsertDerived binds parents to id.
func (s *Store) InsertDerived(parents stableid.Set, id stableid.ID) {
	if s.derived == nil {
		s.derived = make(map[string]stableid.ID)
		s.derivedSrc = make(map[string]stableid.Set)
	}
	s.derived[parents.Key()] = id
	s.derivedSrc[parents.Key()] = parents
}

// InsertFeatureTag binds a well-known name to id.
func (s *Store) InsertFeatureTag(tag string, id stableid.ID) {
	if s.tags == nil {
		s.tags = make(map[string]stableid.ID)
	}
	if _, ok := s.tags[tag]; !ok {
		s.tagOrder = append(s.tagOrder, tag)
	}
	s.tags[tag] = id
}

// FeatureTagID returns the id bound to tag.
func (s *Store) FeatureTagID(tag string) (stableid.ID, bool) {
	id, ok := s.tags[tag]
	return id, ok
}

// FeatureTags returns the bound tag names in insertion order.
func (s *Store) FeatureTags() []string { return slices.Clone(s.tagOrder) }

// RecordHistory registers every id with h as owned by featureID and records
// each evolution as a devolve edge.
func (s *Store) RecordHistory(h *history.History, featureID stableid.ID) {
	for _, e := range s.entries {
		h.AddShape(featureID, e.ID)
	}
	for _, ev := range s.evolutions {
		h.AddConnection(ev.Out, ev.In)
	}
}
