package reference

import (
	"context"

	"github.com/cadseer/cadseer/pkg/errors"
	"github.com/cadseer/cadseer/pkg/feature"
	"github.com/cadseer/cadseer/pkg/geom/memgeom"
	"github.com/cadseer/cadseer/pkg/stableid"
)

// Passthrough forwards its primary input unchanged. It stands in for
// features that do not change geometry, such as datums or inert imports.
type Passthrough struct {
	feature.Base
	eng *memgeom.Engine
}

// NewPassthrough returns a pass-through feature.
func NewPassthrough(eng *memgeom.Engine, name string) *Passthrough {
	return &Passthrough{Base: newBase(stableid.Nil, name, DescPassthrough), eng: eng}
}

func (f *Passthrough) Update(ctx context.Context, p *feature.Payload) error {
	return passThrough(ctx, f, f.eng, p)
}

// Failing wraps a feature so that every update fails with msg. Models use it
// to exercise failure handling.
func Failing(f feature.Feature, msg string) feature.Feature {
	return &failing{Feature: f, msg: msg}
}

type failing struct {
	feature.Feature
	msg string
}

func (f *failing) Update(context.Context, *feature.Payload) error {
	return errors.New(errors.ErrCodeUpdateFailed, "%s", f.msg)
}

// Unwrap returns the wrapped feature.
func (f *failing) Unwrap() feature.Feature { return f.Feature }
