package reference

import (
	"context"

	"github.com/cadseer/cadseer/pkg/correlate"
	"github.com/cadseer/cadseer/pkg/feature"
	"github.com/cadseer/cadseer/pkg/geom/memgeom"
	"github.com/cadseer/cadseer/pkg/stableid"
)

// Box is a primitive without shape inputs. Every sub-element is tagged with
// its construction name, so ids survive any number of recomputes. A LinkCSys
// input places the box at the linked feature's coordinate system.
type Box struct {
	feature.Base
	eng *memgeom.Engine
}

// NewBox returns a box feature placed at the origin.
func NewBox(eng *memgeom.Engine, name string) *Box {
	return newBox(eng, newBase(stableid.Nil, name, DescBox))
}

func newBox(eng *memgeom.Engine, base feature.Base) *Box {
	b := &Box{Base: base, eng: eng}
	b.Annexes().SetCSys(&feature.CSys{})
	return b
}

func (b *Box) Update(ctx context.Context, p *feature.Payload) error {
	b.link(p)
	if p.Skipped {
		return passThrough(ctx, b, b.eng, p)
	}
	gen := p.Generator
	if gen == nil {
		gen = stableid.Random{}
	}

	out := feature.ShapeOf(b)
	out.SetRoot(b.eng, b.eng.Box())
	for _, e := range out.Entries() {
		tag := e.Shape.(*memgeom.Shape).Name()
		id, ok := out.FeatureTagID(tag)
		if !ok {
			id = gen.New()
			out.InsertFeatureTag(tag, id)
		}
		out.UpdateID(e.Shape, id)
	}
	return correlate.Finish(ctx, out, p.Correlation(b, b.eng))
}

// link follows the first LinkCSys input that carries a coordinate system.
// Without one the box keeps its own origin and is unlinked.
func (b *Box) link(p *feature.Payload) {
	own, _ := b.Annexes().CSys()
	own.Linked = stableid.Nil
	for _, e := range p.ByTag(feature.InputLinkCSys) {
		if c, ok := e.Feature.Annexes().CSys(); ok {
			own.Origin = c.Origin
			own.Linked = e.Feature.ID()
			return
		}
	}
}
