package correlate

import (
	"context"
	"slices"

	"github.com/cadseer/cadseer/pkg/geom"
	"github.com/cadseer/cadseer/pkg/shape"
	"github.com/cadseer/cadseer/pkg/stableid"
)

// BooleanInputs are the operands and the engine report of a boolean
// operation (union, subtraction, intersection).
type BooleanInputs struct {
	Targets  []*shape.Store
	Tools    []*shape.Store
	Relation geom.Relation
}

func (in BooleanInputs) all() []*shape.Store {
	return append(slices.Clone(in.Targets), in.Tools...)
}

// BooleanIDMapper assigns ids to the result of a boolean operation. Rules are
// applied in order, each only filling what earlier rules left nil:
//
//  1. identical shapes keep their input id
//  2. an element modified into exactly one output passes its id on; a split
//     gives each piece the id remembered for that piece
//  3. elements generated from input elements are named after the set of
//     their generators
//  4. kinds present exactly once on both sides (the solid, the shell)
//  5. outer wires of identified faces
//  6. new vertices of identified edges, by position on the edge
//  7. elements named after their identified children
//  8. the result root keeps the id it had on the previous recompute
//
// Anything left is fresh in [Finish].
type BooleanIDMapper struct {
	splits   map[stableid.ID][]stableid.ID
	derived  map[string]stableid.ID
	vertices map[stableid.ID][]stableid.ID
	root     stableid.ID
}

// NewBooleanIDMapper returns a mapper with no remembered state.
func NewBooleanIDMapper() *BooleanIDMapper {
	return &BooleanIDMapper{
		splits:   make(map[stableid.ID][]stableid.ID),
		derived:  make(map[string]stableid.ID),
		vertices: make(map[stableid.ID][]stableid.ID),
	}
}

// Map fills out, which must already hold the result's sub-elements.
func (m *BooleanIDMapper) Map(ctx context.Context, out *shape.Store, in BooleanInputs, opts Options) error {
	gen := opts.generator()
	inputs := in.all()
	rel := in.Relation
	if rel == nil {
		rel = geom.EmptyRelation{}
	}

	for _, src := range inputs {
		out.ShapeMatch(src)
	}

	for _, src := range inputs {
		for _, e := range src.Entries() {
			if e.ID.IsNil() {
				continue
			}
			var pieces []geom.Shape
			for _, mod := range rel.Modified(e.Shape) {
				if out.HasShape(mod) {
					pieces = append(pieces, mod)
				}
			}
			if len(pieces) == 1 {
				adopt(out, pieces[0], e.ID)
				continue
			}
			for i, piece := range pieces {
				adopt(out, piece, nth(m.splits, e.ID, i, gen), e.ID)
			}
		}
	}

	for _, g := range generatedBy(out, rel, inputs) {
		parents := stableid.NewSet(g.parents...)
		adopt(out, g.shape, bySet(m.derived, parents, gen), parents...)
	}

	for _, src := range inputs {
		out.UniqueTypeMatch(src)
	}
	for _, src := range inputs {
		out.OuterWireMatch(src)
	}
	nameEdgeVertices(out, opts.Explorer, m.vertices, gen)
	out.DerivedMatch(gen)

	if root := out.RootShape(); root != nil {
		if m.root.IsNil() {
			m.root = gen.New()
		}
		adopt(out, root, m.root)
	}

	return Finish(ctx, out, opts)
}

// BooleanState is the persisted form of a [BooleanIDMapper].
type BooleanState struct {
	Root     stableid.ID `json:"root,omitzero"`
	Splits   []IDList    `json:"splits,omitempty"`
	Derived  []SetID     `json:"derived,omitempty"`
	Vertices []IDList    `json:"vertices,omitempty"`
}

// State returns the mapper's memory as ordered lists.
func (m *BooleanIDMapper) State() BooleanState {
	return BooleanState{
		Root:     m.root,
		Splits:   idLists(m.splits),
		Derived:  setIDs(m.derived),
		Vertices: idLists(m.vertices),
	}
}

// Restore replaces the mapper's memory with st.
func (m *BooleanIDMapper) Restore(st BooleanState) error {
	splits, err := fromIDLists(st.Splits)
	if err != nil {
		return err
	}
	derived, err := fromSetIDs(st.Derived)
	if err != nil {
		return err
	}
	vertices, err := fromIDLists(st.Vertices)
	if err != nil {
		return err
	}
	m.root, m.splits, m.derived, m.vertices = st.Root, splits, derived, vertices
	return nil
}
