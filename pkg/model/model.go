package model

import (
	"github.com/cadseer/cadseer/pkg/dag"
	"github.com/cadseer/cadseer/pkg/errors"
	"github.com/cadseer/cadseer/pkg/feature"
	"github.com/cadseer/cadseer/pkg/feature/reference"
	"github.com/cadseer/cadseer/pkg/geom/memgeom"
	"github.com/cadseer/cadseer/pkg/stableid"
)

// Model is the declarative description of a feature graph.
type Model struct {
	Name string `toml:"name,omitempty" yaml:"name,omitempty" json:"name,omitempty"`

	// Seed makes shape ids reproducible across runs when non-zero.
	Seed int64 `toml:"seed,omitempty" yaml:"seed,omitempty" json:"seed,omitempty"`

	Features    []Feature    `toml:"features" yaml:"features" json:"features"`
	Connections []Connection `toml:"connections,omitempty" yaml:"connections,omitempty" json:"connections,omitempty"`
}

// Feature describes one feature. Type is a reference feature descriptor
// ("box", "boolean", "pattern", "intersect", "passthrough").
type Feature struct {
	Name string `toml:"name" yaml:"name" json:"name"`
	Type string `toml:"type" yaml:"type" json:"type"`

	// ID pins the feature's stable id. Empty means a fresh id per build.
	ID string `toml:"id,omitempty" yaml:"id,omitempty" json:"id,omitempty"`

	// Count is the number of copies a pattern makes.
	Count int `toml:"count,omitempty" yaml:"count,omitempty" json:"count,omitempty"`

	Inactive bool `toml:"inactive,omitempty" yaml:"inactive,omitempty" json:"inactive,omitempty"`
	Skipped  bool `toml:"skipped,omitempty" yaml:"skipped,omitempty" json:"skipped,omitempty"`

	// Fail makes every update of the feature fail with this message.
	Fail string `toml:"fail,omitempty" yaml:"fail,omitempty" json:"fail,omitempty"`
}

// Connection feeds the output of From into To under one or more roles.
type Connection struct {
	From  string   `toml:"from" yaml:"from" json:"from"`
	To    string   `toml:"to" yaml:"to" json:"to"`
	Roles []string `toml:"roles" yaml:"roles" json:"roles"`
}

func invalid(format string, args ...any) error {
	return errors.New(errors.ErrCodeInvalidModel, format, args...)
}

// Validate checks names, types, ids and connection endpoints. Cycles are
// found by [Model.Build].
func (m *Model) Validate() error {
	names := make(map[string]bool, len(m.Features))
	ids := make(map[stableid.ID]string)
	known := make(map[string]bool)
	for _, d := range reference.Descriptors() {
		known[d] = true
	}

	for i, f := range m.Features {
		if err := errors.ValidateFeatureName(f.Name); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidModel, err, "feature %d", i)
		}
		if names[f.Name] {
			return invalid("duplicate feature name %q", f.Name)
		}
		names[f.Name] = true
		if !known[f.Type] {
			return invalid("feature %q: unknown type %q", f.Name, f.Type)
		}
		if f.ID == "" {
			continue
		}
		id, err := stableid.Parse(f.ID)
		if err != nil || id.IsNil() {
			return invalid("feature %q: bad id %q", f.Name, f.ID)
		}
		if other, dup := ids[id]; dup {
			return invalid("features %q and %q share id %s", other, f.Name, f.ID)
		}
		ids[id] = f.Name
	}

	for _, c := range m.Connections {
		if !names[c.From] || !names[c.To] {
			return invalid("connection %q -> %q: unknown feature", c.From, c.To)
		}
		if len(c.Roles) == 0 {
			return invalid("connection %q -> %q: no roles", c.From, c.To)
		}
		for _, r := range c.Roles {
			if err := errors.ValidateTag(r); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidModel, err, "connection %q -> %q", c.From, c.To)
			}
		}
	}
	return nil
}

// Generator returns the id generator for recomputes of this model.
func (m *Model) Generator() stableid.Generator {
	if m.Seed != 0 {
		return stableid.NewSeeded(m.Seed)
	}
	return stableid.Random{}
}

// Built is a model turned into a graph.
type Built struct {
	Graph *dag.Graph

	vertices map[string]dag.Vertex
}

// Vertex returns the vertex of the feature named name.
func (b *Built) Vertex(name string) (dag.Vertex, error) {
	v, ok := b.vertices[name]
	if !ok {
		return dag.Vertex{}, errors.New(errors.ErrCodeNotFound, "no feature named %q", name)
	}
	return v, nil
}

// Build validates m and creates its features on eng and their graph. A
// connection that would close a cycle is an INVALID_MODEL error.
func (m *Model) Build(eng *memgeom.Engine) (*Built, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	b := &Built{Graph: dag.New(), vertices: make(map[string]dag.Vertex, len(m.Features))}
	for _, mf := range m.Features {
		var id stableid.ID
		if mf.ID != "" {
			id = stableid.MustParse(mf.ID)
		}
		f, err := reference.New(eng, reference.Spec{ID: id, Name: mf.Name, Type: mf.Type, Count: mf.Count, Fail: mf.Fail})
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidModel, err, "feature %q", mf.Name)
		}
		v, err := b.Graph.AddFeature(f)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidModel, err, "feature %q", mf.Name)
		}
		if mf.Inactive {
			_ = b.Graph.SetInactive(v)
		}
		if mf.Skipped {
			_ = b.Graph.SetSkipped(v, true)
		}
		b.vertices[mf.Name] = v
	}

	for _, c := range m.Connections {
		roles := make([]feature.InputType, len(c.Roles))
		for i, r := range c.Roles {
			roles[i] = feature.InputType(r)
		}
		if _, err := b.Graph.Connect(b.vertices[c.From], b.vertices[c.To], feature.NewTags(roles...)); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidModel, err, "connection %q -> %q", c.From, c.To)
		}
	}
	return b, nil
}

// FromGraph describes g as a model, features in insertion order and
// connections grouped by parent. Feature ids are pinned so that loading the
// result rebuilds the same graph. Features not built by the reference
// package are an UNSUPPORTED error.
func FromGraph(g *dag.Graph, name string) (*Model, error) {
	m := &Model{Name: name}
	for _, v := range g.Vertices() {
		d, ok := reference.Describe(g.Feature(v))
		if !ok {
			return nil, errors.New(errors.ErrCodeUnsupported, "feature %q cannot be described", g.Feature(v).Name())
		}
		st := g.State(v)
		m.Features = append(m.Features, Feature{
			Name:     d.Name,
			Type:     d.Type,
			ID:       d.ID.String(),
			Count:    d.Count,
			Inactive: st.Has(feature.Inactive),
			Skipped:  st.Has(feature.Skipped),
			Fail:     d.Fail,
		})
	}
	for _, v := range g.Vertices() {
		for _, e := range g.OutEdges(v) {
			parent, child, tags, err := g.EdgeInfo(e)
			if err != nil {
				return nil, err
			}
			roles := make([]string, len(tags))
			for i, t := range tags {
				roles[i] = string(t)
			}
			m.Connections = append(m.Connections, Connection{
				From:  g.Feature(parent).Name(),
				To:    g.Feature(child).Name(),
				Roles: roles,
			})
		}
	}
	return m, nil
}
