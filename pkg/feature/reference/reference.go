// Package reference provides a small set of working features built on the
// in-memory geometry engine: a box primitive, a fuse, a pattern, a section
// and a pass-through. They drive the command line tool and the end-to-end
// tests of the update engine, and show how a feature uses the correlators.
package reference

import (
	"context"

	"github.com/cadseer/cadseer/pkg/correlate"
	"github.com/cadseer/cadseer/pkg/errors"
	"github.com/cadseer/cadseer/pkg/feature"
	"github.com/cadseer/cadseer/pkg/geom/memgeom"
	"github.com/cadseer/cadseer/pkg/shape"
	"github.com/cadseer/cadseer/pkg/stableid"
)

// Descriptors of the reference features.
const (
	DescBox         = "box"
	DescBoolean     = "boolean"
	DescPattern     = "pattern"
	DescIntersect   = "intersect"
	DescPassthrough = "passthrough"
)

func newBase(id stableid.ID, name, desc string) feature.Base {
	b := feature.NewBase(id, name, desc)
	b.Annexes().SetShape(shape.New())
	return b
}

// Spec describes a reference feature by descriptor, as model files do.
type Spec struct {
	// ID is the feature's id. Nil means a fresh one.
	ID   stableid.ID
	Name string
	Type string

	// Count is the number of copies a pattern makes.
	Count int

	// Fail, when set, makes every update fail with this message.
	Fail string
}

// Descriptors lists the feature types [New] builds.
func Descriptors() []string {
	return []string{DescBox, DescBoolean, DescPattern, DescIntersect, DescPassthrough}
}

// New builds the feature s describes. An unknown type is an INVALID_INPUT
// error.
func New(eng *memgeom.Engine, s Spec) (feature.Feature, error) {
	base := newBase(s.ID, s.Name, s.Type)
	var f feature.Feature
	switch s.Type {
	case DescBox:
		f = newBox(eng, base)
	case DescBoolean:
		f = newBoolean(eng, base)
	case DescPattern:
		f = newPattern(eng, base, s.Count)
	case DescIntersect:
		f = newIntersect(eng, base)
	case DescPassthrough:
		f = &Passthrough{Base: base, eng: eng}
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown feature type %q", s.Type)
	}
	if s.Fail != "" {
		f = Failing(f, s.Fail)
	}
	return f, nil
}

// input returns the shape and store of a parent output.
func input(e feature.Entry) (*memgeom.Shape, *shape.Store, error) {
	store := feature.ShapeOf(e.Feature)
	if store == nil || store.RootShape() == nil {
		return nil, nil, errors.New(errors.ErrCodeInvalidInput, "%s input %q has no shape", e.Tag, e.Feature.Name())
	}
	sh, ok := store.RootShape().(*memgeom.Shape)
	if !ok {
		return nil, nil, errors.New(errors.ErrCodeUnsupported, "%s input %q was not built by this engine", e.Tag, e.Feature.Name())
	}
	return sh, store, nil
}

// passThrough makes f's output the primary input's output with the same ids.
// Without a primary input the output is empty.
func passThrough(ctx context.Context, f feature.Feature, eng *memgeom.Engine, p *feature.Payload) error {
	out := feature.ShapeOf(f)
	primary, ok := p.Primary()
	if !ok {
		out.SetRoot(eng, nil)
		return nil
	}
	src := feature.ShapeOf(primary.Feature)
	if src == nil {
		out.SetRoot(eng, nil)
		return nil
	}
	out.SetRoot(eng, src.RootShape())
	out.ShapeMatch(src)
	return correlate.Finish(ctx, out, p.Correlation(f, eng))
}

// Describe is the inverse of [New]: it returns the spec that builds f. It
// reports false for features not built by this package.
func Describe(f feature.Feature) (Spec, bool) {
	s := Spec{ID: f.ID(), Name: f.Name(), Type: f.Descriptor()}
	if w, ok := f.(*failing); ok {
		s.Fail = w.msg
		f = w.Unwrap()
	}
	switch f := f.(type) {
	case *Pattern:
		s.Count = f.Count
	case *Box, *Boolean, *Intersect, *Passthrough:
	default:
		return Spec{}, false
	}
	return s, true
}
