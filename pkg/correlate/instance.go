package correlate

import (
	"context"

	"github.com/cadseer/cadseer/pkg/geom"
	"github.com/cadseer/cadseer/pkg/shape"
	"github.com/cadseer/cadseer/pkg/stableid"
)

// InstanceMapper assigns ids to the copies made by a pattern. Each distinct
// source id owns an ordered list of output ids indexed by instance number;
// the list grows on demand, so adding instances never renames existing ones.
type InstanceMapper struct {
	instances map[stableid.ID][]stableid.ID
	root      stableid.ID
}

// NewInstanceMapper returns a mapper with no remembered instances.
func NewInstanceMapper() *InstanceMapper {
	return &InstanceMapper{instances: make(map[stableid.ID][]stableid.ID)}
}

// ID returns the id of instance index of source, generating ids up to index
// as needed.
func (m *InstanceMapper) ID(source stableid.ID, index int, gen stableid.Generator) stableid.ID {
	return nth(m.instances, source, index, gen)
}

// Map fills out from src. instances holds one report per copy, mapping every
// element of src to its copy as a modification.
func (m *InstanceMapper) Map(ctx context.Context, out, src *shape.Store, instances []geom.Relation, opts Options) error {
	gen := opts.generator()
	for i, rel := range instances {
		for _, e := range src.Entries() {
			if e.ID.IsNil() {
				continue
			}
			for _, c := range rel.Modified(e.Shape) {
				adopt(out, c, m.ID(e.ID, i, gen), e.ID)
			}
		}
	}

	if root := out.RootShape(); root != nil {
		if m.root.IsNil() {
			m.root = gen.New()
		}
		adopt(out, root, m.root, src.RootID())
	}

	return Finish(ctx, out, opts)
}

// InstanceState is the persisted form of an [InstanceMapper].
type InstanceState struct {
	Root      stableid.ID `json:"root,omitzero"`
	Instances []IDList    `json:"instances,omitempty"`
}

// State returns the mapper's memory as ordered lists.
func (m *InstanceMapper) State() InstanceState {
	return InstanceState{Root: m.root, Instances: idLists(m.instances)}
}

// Restore replaces the mapper's memory with st.
func (m *InstanceMapper) Restore(st InstanceState) error {
	instances, err := fromIDLists(st.Instances)
	if err != nil {
		return err
	}
	m.root, m.instances = st.Root, instances
	return nil
}
