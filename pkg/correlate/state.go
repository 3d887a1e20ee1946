package correlate

import (
	"maps"
	"slices"
	"strings"

	"github.com/cadseer/cadseer/pkg/errors"
	"github.com/cadseer/cadseer/pkg/stableid"
)

// IDList is one source id with the ordered ids derived from it: the pieces
// of a split, or the copies of a pattern instance by instance number.
type IDList struct {
	Source stableid.ID   `json:"source"`
	IDs    []stableid.ID `json:"ids"`
}

// SetID is an id remembered for a set of parent ids.
type SetID struct {
	Parents []stableid.ID `json:"parents"`
	ID      stableid.ID   `json:"id"`
}

// nth returns the id at index in key's list, growing the list with fresh ids
// as needed.
func nth(m map[stableid.ID][]stableid.ID, key stableid.ID, index int, gen stableid.Generator) stableid.ID {
	ids := m[key]
	for len(ids) <= index {
		ids = append(ids, gen.New())
	}
	m[key] = ids
	return ids[index]
}

// bySet returns the id remembered for parents, remembering a fresh one on
// first use.
func bySet(m map[string]stableid.ID, parents stableid.Set, gen stableid.Generator) stableid.ID {
	id, ok := m[parents.Key()]
	if !ok {
		id = gen.New()
		m[parents.Key()] = id
	}
	return id
}

func idLists(m map[stableid.ID][]stableid.ID) []IDList {
	keys := slices.SortedFunc(maps.Keys(m), stableid.ID.Compare)
	out := make([]IDList, 0, len(keys))
	for _, k := range keys {
		out = append(out, IDList{Source: k, IDs: slices.Clone(m[k])})
	}
	return out
}

func fromIDLists(lists []IDList) (map[stableid.ID][]stableid.ID, error) {
	m := make(map[stableid.ID][]stableid.ID, len(lists))
	for _, l := range lists {
		if l.Source.IsNil() || slices.Contains(l.IDs, stableid.Nil) {
			return nil, errors.New(errors.ErrCodeInvalidModel, "restore correlator state: nil id in list for %s", l.Source.Short())
		}
		m[l.Source] = slices.Clone(l.IDs)
	}
	return m, nil
}

func setIDs(m map[string]stableid.ID) []SetID {
	keys := slices.Sorted(maps.Keys(m))
	out := make([]SetID, 0, len(keys))
	for _, k := range keys {
		parents, _ := parseKey(k)
		out = append(out, SetID{Parents: parents, ID: m[k]})
	}
	return out
}

func fromSetIDs(rows []SetID) (map[string]stableid.ID, error) {
	m := make(map[string]stableid.ID, len(rows))
	for _, r := range rows {
		if r.ID.IsNil() || len(r.Parents) == 0 {
			return nil, errors.New(errors.ErrCodeInvalidModel, "restore correlator state: incomplete derived row")
		}
		m[stableid.NewSet(r.Parents...).Key()] = r.ID
	}
	return m, nil
}

func parseKey(key string) (stableid.Set, error) {
	var ids []stableid.ID
	for _, part := range strings.Split(key, ",") {
		id, err := stableid.Parse(part)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidModel, err, "restore correlator state: derived key")
		}
		ids = append(ids, id)
	}
	return stableid.NewSet(ids...), nil
}
