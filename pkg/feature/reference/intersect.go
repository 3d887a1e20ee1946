package reference

import (
	"context"

	"github.com/cadseer/cadseer/pkg/correlate"
	"github.com/cadseer/cadseer/pkg/feature"
	"github.com/cadseer/cadseer/pkg/geom/memgeom"
	"github.com/cadseer/cadseer/pkg/shape"
	"github.com/cadseer/cadseer/pkg/stableid"
)

// Intersect sections its Target with its Tool, producing the edges where
// their faces meet.
type Intersect struct {
	feature.Base
	eng *memgeom.Engine
}

// NewIntersect returns a section feature.
func NewIntersect(eng *memgeom.Engine, name string) *Intersect {
	return newIntersect(eng, newBase(stableid.Nil, name, DescIntersect))
}

func newIntersect(eng *memgeom.Engine, base feature.Base) *Intersect {
	f := &Intersect{Base: base, eng: eng}
	f.Annexes().SetIntersectionMapper(correlate.NewIntersectionMapper())
	return f
}

func (f *Intersect) Update(ctx context.Context, p *feature.Payload) error {
	if p.Skipped {
		return passThrough(ctx, f, f.eng, p)
	}
	if err := p.RequireHealthy(feature.InputTarget, feature.InputTool); err != nil {
		return err
	}
	te, err := p.Single(feature.InputTarget)
	if err != nil {
		return err
	}
	oe, err := p.Single(feature.InputTool)
	if err != nil {
		return err
	}
	a, sa, err := input(te)
	if err != nil {
		return err
	}
	b, sb, err := input(oe)
	if err != nil {
		return err
	}

	section, op := f.eng.Section(a, b)
	out := feature.ShapeOf(f)
	out.SetRoot(f.eng, section)
	mapper, _ := f.Annexes().IntersectionMapper()
	return mapper.Map(ctx, out, []*shape.Store{sa, sb}, op, p.Correlation(f, f.eng))
}
