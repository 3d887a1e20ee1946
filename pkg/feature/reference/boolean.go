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

// Boolean fuses one Target with one or more Tools. A failed target or tool
// fails the boolean.
type Boolean struct {
	feature.Base
	eng *memgeom.Engine
}

// NewBoolean returns a fuse feature.
func NewBoolean(eng *memgeom.Engine, name string) *Boolean {
	return newBoolean(eng, newBase(stableid.Nil, name, DescBoolean))
}

func newBoolean(eng *memgeom.Engine, base feature.Base) *Boolean {
	b := &Boolean{Base: base, eng: eng}
	b.Annexes().SetBooleanMapper(correlate.NewBooleanIDMapper())
	return b
}

func (b *Boolean) Update(ctx context.Context, p *feature.Payload) error {
	if p.Skipped {
		return passThrough(ctx, b, b.eng, p)
	}
	if err := p.RequireHealthy(feature.InputTarget, feature.InputTool); err != nil {
		return err
	}

	te, err := p.Single(feature.InputTarget)
	if err != nil {
		return err
	}
	target, targetStore, err := input(te)
	if err != nil {
		return err
	}

	toolEntries := p.ByTag(feature.InputTool)
	if len(toolEntries) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "boolean needs at least one Tool input")
	}
	var tools []*memgeom.Shape
	var toolStores []*shape.Store
	for _, e := range toolEntries {
		sh, st, err := input(e)
		if err != nil {
			return err
		}
		tools = append(tools, sh)
		toolStores = append(toolStores, st)
	}

	fused, op := b.eng.Fuse(target, tools...)
	out := feature.ShapeOf(b)
	out.SetRoot(b.eng, fused)
	mapper, _ := b.Annexes().BooleanMapper()
	return mapper.Map(ctx, out, correlate.BooleanInputs{
		Targets:  []*shape.Store{targetStore},
		Tools:    toolStores,
		Relation: op,
	}, p.Correlation(b, b.eng))
}
