package correlate

import (
	"context"

	"github.com/cadseer/cadseer/pkg/geom"
	"github.com/cadseer/cadseer/pkg/shape"
	"github.com/cadseer/cadseer/pkg/stableid"
)

// IntersectionMapper assigns ids to elements created by intersecting input
// elements, such as the section edge of two faces. An element gets the id
// remembered for the sorted set of its generating input ids, so the edge
// between the same two faces has the same id on every recompute. Vertices
// bounding such an edge are named after the edge and their position on it.
type IntersectionMapper struct {
	derived  map[string]stableid.ID
	vertices map[stableid.ID][]stableid.ID
	root     stableid.ID
}

// NewIntersectionMapper returns a mapper with no remembered state.
func NewIntersectionMapper() *IntersectionMapper {
	return &IntersectionMapper{
		derived:  make(map[string]stableid.ID),
		vertices: make(map[stableid.ID][]stableid.ID),
	}
}

// Map fills out from inputs and the engine report rel.
func (m *IntersectionMapper) Map(ctx context.Context, out *shape.Store, inputs []*shape.Store, rel geom.Relation, opts Options) error {
	gen := opts.generator()
	if rel == nil {
		rel = geom.EmptyRelation{}
	}

	for _, g := range generatedBy(out, rel, inputs) {
		parents := stableid.NewSet(g.parents...)
		adopt(out, g.shape, bySet(m.derived, parents, gen), parents...)
	}

	nameEdgeVertices(out, opts.Explorer, m.vertices, gen)

	if root := out.RootShape(); root != nil {
		if m.root.IsNil() {
			m.root = gen.New()
		}
		adopt(out, root, m.root)
	}
	out.DerivedMatch(gen)

	return Finish(ctx, out, opts)
}

// IntersectionState is the persisted form of an [IntersectionMapper].
type IntersectionState struct {
	Root     stableid.ID `json:"root,omitzero"`
	Derived  []SetID     `json:"derived,omitempty"`
	Vertices []IDList    `json:"vertices,omitempty"`
}

// State returns the mapper's memory as ordered lists.
func (m *IntersectionMapper) State() IntersectionState {
	return IntersectionState{
		Root:     m.root,
		Derived:  setIDs(m.derived),
		Vertices: idLists(m.vertices),
	}
}

// Restore replaces the mapper's memory with st.
func (m *IntersectionMapper) Restore(st IntersectionState) error {
	derived, err := fromSetIDs(st.Derived)
	if err != nil {
		return err
	}
	vertices, err := fromIDLists(st.Vertices)
	if err != nil {
		return err
	}
	m.root, m.derived, m.vertices = st.Root, derived, vertices
	return nil
}
