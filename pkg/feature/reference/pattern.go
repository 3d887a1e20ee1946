package reference

import (
	"context"

	"github.com/cadseer/cadseer/pkg/correlate"
	"github.com/cadseer/cadseer/pkg/errors"
	"github.com/cadseer/cadseer/pkg/feature"
	"github.com/cadseer/cadseer/pkg/geom"
	"github.com/cadseer/cadseer/pkg/geom/memgeom"
	"github.com/cadseer/cadseer/pkg/stableid"
)

// Pattern makes Count copies of its Target.
type Pattern struct {
	feature.Base
	eng   *memgeom.Engine
	Count int
}

// NewPattern returns a pattern feature making count copies.
func NewPattern(eng *memgeom.Engine, name string, count int) *Pattern {
	return newPattern(eng, newBase(stableid.Nil, name, DescPattern), count)
}

func newPattern(eng *memgeom.Engine, base feature.Base, count int) *Pattern {
	f := &Pattern{Base: base, eng: eng, Count: count}
	f.Annexes().SetInstanceMapper(correlate.NewInstanceMapper())
	return f
}

func (f *Pattern) Update(ctx context.Context, p *feature.Payload) error {
	if p.Skipped {
		return passThrough(ctx, f, f.eng, p)
	}
	if f.Count < 1 {
		return errors.New(errors.ErrCodeInvalidInput, "pattern count must be positive, got %d", f.Count)
	}
	if err := p.RequireHealthy(feature.InputTarget); err != nil {
		return err
	}
	e, err := p.Single(feature.InputTarget)
	if err != nil {
		return err
	}
	src, srcStore, err := input(e)
	if err != nil {
		return err
	}

	compound, ops := f.eng.Pattern(src, f.Count)
	rels := make([]geom.Relation, len(ops))
	for i, op := range ops {
		rels[i] = op
	}
	out := feature.ShapeOf(f)
	out.SetRoot(f.eng, compound)
	mapper, _ := f.Annexes().InstanceMapper()
	return mapper.Map(ctx, out, srcStore, rels, p.Correlation(f, f.eng))
}
