package shape

import (
	"slices"

	"github.com/cadseer/cadseer/pkg/geom"
	"github.com/cadseer/cadseer/pkg/stableid"
)

// The match rules below only ever fill nil entries and never adopt an id the
// store already holds. Each returns the number of entries it filled.

// ShapeMatch adopts src's id for every entry whose shape is also in src.
// Elements an operation passes through untouched keep their upstream id.
func (s *Store) ShapeMatch(src *Store) int {
	n := 0
	for i, e := range s.entries {
		if e.ID.Valid() {
			continue
		}
		id, ok := src.FindID(e.Shape)
		if !ok || id.IsNil() || s.HasID(id) {
			continue
		}
		s.entries[i].ID = id
		n++
	}
	return n
}

// UniqueTypeMatch adopts src's id for every kind that both stores hold
// exactly once, for example the single solid of a boolean result.
func (s *Store) UniqueTypeMatch(src *Store) int {
	n := 0
	for _, kind := range geom.Kinds {
		mine := s.indexesOfKind(kind)
		theirs := src.indexesOfKind(kind)
		if len(mine) != 1 || len(theirs) != 1 {
			continue
		}
		id := src.entries[theirs[0]].ID
		if s.entries[mine[0]].ID.Valid() || id.IsNil() || s.HasID(id) {
			continue
		}
		s.entries[mine[0]].ID = id
		n++
	}
	return n
}

// OuterWireMatch gives the outer wire of every identified face the id of the
// outer wire of the face with the same id in src.
func (s *Store) OuterWireMatch(src *Store) int {
	if s.x == nil || src.x == nil {
		return 0
	}
	n := 0
	for _, i := range s.indexesOfKind(geom.KindFace) {
		face := s.entries[i]
		if face.ID.IsNil() {
			continue
		}
		wire, ok := s.x.OuterWire(face.Shape)
		if !ok {
			continue
		}
		if id, in := s.FindID(wire); !in || id.Valid() {
			continue
		}
		srcFace, ok := src.FindShape(face.ID)
		if !ok {
			continue
		}
		srcWire, ok := src.x.OuterWire(srcFace)
		if !ok {
			continue
		}
		id, _ := src.FindID(srcWire)
		if id.IsNil() || s.HasID(id) {
			continue
		}
		s.UpdateID(wire, id)
		n++
	}
	return n
}

// DerivedMatch names every nil entry whose children all have ids after the
// set of its children's ids. A set seen on an earlier pass yields the same id
// again; a new set gets a fresh id from gen which is remembered in the derived
// table and recorded as a fresh element. Passes repeat until nothing changes,
// so a face is named once its wire is.
func (s *Store) DerivedMatch(gen stableid.Generator) int {
	if s.x == nil {
		return 0
	}
	n := 0
	for {
		filled := s.derivedPass(gen)
		if filled == 0 {
			return n
		}
		n += filled
	}
}

func (s *Store) derivedPass(gen stableid.Generator) int {
	n := 0
	for i := len(s.entries) - 1; i >= 0; i-- {
		e := s.entries[i]
		if e.ID.Valid() {
			continue
		}
		children := s.x.Children(e.Shape)
		if len(children) == 0 {
			continue
		}
		ids := make([]stableid.ID, 0, len(children))
		for _, c := range children {
			id, _ := s.FindID(c)
			if id.IsNil() {
				break
			}
			ids = append(ids, id)
		}
		if len(ids) != len(children) {
			continue
		}
		parents := stableid.NewSet(ids...)
		id, ok := s.DerivedID(parents)
		if ok && s.HasID(id) {
			continue
		}
		if !ok {
			id = gen.New()
			s.InsertDerived(parents, id)
			s.InsertEvolve(stableid.Nil, id)
		}
		s.entries[i].ID = id
		n++
	}
	return n
}

func (s *Store) indexesOfKind(kind geom.Kind) []int {
	var out []int
	for i, e := range s.entries {
		if e.Shape.Kind() == kind {
			out = append(out, i)
		}
	}
	return slices.Clip(out)
}
