package shape

import (
	"slices"

	"github.com/cadseer/cadseer/pkg/errors"
	"github.com/cadseer/cadseer/pkg/geom"
	"github.com/cadseer/cadseer/pkg/stableid"
)

// Pair binds an id to a shape reference. Ref is the position of the shape in
// the root's SubShapes enumeration, which the persistence layer reproduces
// when it reloads the engine's shape.
type Pair struct {
	ID  stableid.ID `json:"id"`
	Ref int         `json:"ref"`
}

// Derived is one row of the derived table.
type Derived struct {
	Parents []stableid.ID `json:"parents"`
	ID      stableid.ID   `json:"id"`
}

// Tag is one feature tag binding.
type Tag struct {
	Name string      `json:"name"`
	ID   stableid.ID `json:"id"`
}

// Snapshot is the serialized form of a store: ordered lists only, so the
// encoding is stable.
type Snapshot struct {
	Pairs      []Pair      `json:"pairs"`
	Evolutions []Evolution `json:"evolutions,omitempty"`
	Derived    []Derived   `json:"derived,omitempty"`
	Tags       []Tag       `json:"tags,omitempty"`
}

// Snapshot captures the store. Entries are listed in enumeration order.
func (s *Store) Snapshot() Snapshot {
	snap := Snapshot{Evolutions: s.Evolutions()}
	for i, e := range s.entries {
		snap.Pairs = append(snap.Pairs, Pair{ID: e.ID, Ref: i})
	}
	for _, key := range sortedKeys(s.derived) {
		snap.Derived = append(snap.Derived, Derived{Parents: s.derivedSrc[key], ID: s.derived[key]})
	}
	for _, name := range s.tagOrder {
		snap.Tags = append(snap.Tags, Tag{Name: name, ID: s.tags[name]})
	}
	return snap
}

// Restore rebuilds the store from snap over root. root must enumerate to the
// same sub-elements in the same order as when the snapshot was taken.
func (s *Store) Restore(x geom.Explorer, root geom.Shape, snap Snapshot) error {
	s.SetRoot(x, root)
	for _, p := range snap.Pairs {
		if p.Ref < 0 || p.Ref >= len(s.entries) {
			return errors.New(errors.ErrCodeInvalidModel, "restore shape store: ref %d out of range (%d entries)", p.Ref, len(s.entries))
		}
		s.entries[p.Ref].ID = p.ID
	}
	s.evolutions = append(s.evolutions[:0], snap.Evolutions...)
	s.derived, s.derivedSrc = nil, nil
	for _, d := range snap.Derived {
		s.InsertDerived(stableid.NewSet(d.Parents...), d.ID)
	}
	s.tags, s.tagOrder = nil, nil
	for _, t := range snap.Tags {
		s.InsertFeatureTag(t.Name, t.ID)
	}
	return nil
}

func sortedKeys(m map[string]stableid.ID) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
