// Package feature defines the contract between the update engine and the
// modeling steps of a parametric model.
//
// A [Feature] is one step of a model: a primitive, a boolean, a pattern. The
// engine never inspects what a feature computes. It hands the feature a
// [Payload] holding the outputs of its parents, keyed by the role each parent
// plays (see [InputType]), and calls [Feature.Update]. The feature asks the
// geometry engine for its result and fills its shape store through one of the
// correlate package's mappers.
//
// Optional capabilities (a shape store, an instance mapper) are held in an
// [Annexes] registry keyed by [AnnexKind].
package feature

import (
	"context"

	"github.com/cadseer/cadseer/pkg/stableid"
)

// Feature is one modeling step.
type Feature interface {
	// ID returns the feature's stable id. It never changes.
	ID() stableid.ID

	// Name returns the user-facing name.
	Name() string

	// Descriptor names the feature type, for example "box".
	Descriptor() string

	// Annexes returns the feature's capabilities. Never nil.
	Annexes() *Annexes

	// Update recomputes the feature's output from p. A returned error marks
	// the feature failed; it does not stop the recompute pass.
	Update(ctx context.Context, p *Payload) error
}

// Base carries the identity every feature has. Concrete features embed it.
type Base struct {
	id         stableid.ID
	name       string
	descriptor string
	annexes    *Annexes
}

// NewBase returns a Base with an empty annex registry. A nil id is replaced
// by a fresh one.
func NewBase(id stableid.ID, name, descriptor string) Base {
	if id.IsNil() {
		id = stableid.New()
	}
	return Base{id: id, name: name, descriptor: descriptor, annexes: NewAnnexes()}
}

func (b *Base) ID() stableid.ID     { return b.id }
func (b *Base) Name() string        { return b.name }
func (b *Base) Descriptor() string  { return b.descriptor }
func (b *Base) Annexes() *Annexes   { return b.annexes }
func (b *Base) SetName(name string) { b.name = name }
