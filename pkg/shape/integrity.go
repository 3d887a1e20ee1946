package shape

import (
	"fmt"

	"github.com/cadseer/cadseer/pkg/errors"
	"github.com/cadseer/cadseer/pkg/geom"
	"github.com/cadseer/cadseer/pkg/stableid"
)

// Nils returns the shapes that have no id yet.
func (s *Store) Nils() []geom.Shape {
	var out []geom.Shape
	for _, e := range s.entries {
		if e.ID.IsNil() {
			out = append(out, e.Shape)
		}
	}
	return out
}

// Duplicates returns every id held by more than one entry, in order of first
// occurrence.
func (s *Store) Duplicates() []stableid.ID {
	counts := make(map[stableid.ID]int)
	var out []stableid.ID
	for _, e := range s.entries {
		if e.ID.IsNil() {
			continue
		}
		counts[e.ID]++
		if counts[e.ID] == 2 {
			out = append(out, e.ID)
		}
	}
	return out
}

// EnsureNoNils gives every unassigned entry a fresh id from gen and records
// it as a fresh element (Nil -> id) in the evolution table. It returns the
// number of repaired entries.
func (s *Store) EnsureNoNils(gen stableid.Generator) int {
	n := 0
	for i := range s.entries {
		if s.entries[i].ID.Valid() {
			continue
		}
		id := gen.New()
		s.entries[i].ID = id
		s.InsertEvolve(stableid.Nil, id)
		n++
	}
	return n
}

// EnsureNoDuplicates keeps the first holder of every duplicated id and gives
// the others fresh ids from gen. Evolutions into the duplicated id are copied
// onto the fresh one so history still connects it to its source. It returns
// the number of repaired entries.
func (s *Store) EnsureNoDuplicates(gen stableid.Generator) int {
	seen := make(map[stableid.ID]bool)
	n := 0
	for i := range s.entries {
		id := s.entries[i].ID
		if id.IsNil() {
			continue
		}
		if !seen[id] {
			seen[id] = true
			continue
		}
		fresh := gen.New()
		s.entries[i].ID = fresh
		for _, in := range s.EvolveReverse(id) {
			s.InsertEvolve(in, fresh)
		}
		if len(s.EvolveReverse(id)) == 0 {
			s.InsertEvolve(id, fresh)
		}
		n++
	}
	return n
}

// Validate reports an IDENTITY_INTEGRITY error when the store holds a nil or
// duplicate id.
func (s *Store) Validate() error {
	nils := len(s.Nils())
	dups := s.Duplicates()
	if nils == 0 && len(dups) == 0 {
		return nil
	}
	msg := fmt.Sprintf("%d nil ids, %d duplicate ids", nils, len(dups))
	if len(dups) > 0 {
		msg += fmt.Sprintf(" (first duplicate %s)", dups[0].Short())
	}
	return errors.New(errors.ErrCodeIdentityIntegrity, "%s", msg)
}
