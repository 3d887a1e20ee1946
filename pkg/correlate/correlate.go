// Package correlate assigns stable ids to the output of a modeling operation
// from the ids of its inputs.
//
// Every correlator fills a feature's [shape.Store] in the same way: ids that
// can be carried over from an input are carried over, elements born from a
// known set of inputs get the id they had on the previous recompute, and
// whatever is left gets a fresh id in [Finish]. After Finish the store holds
// no nil and no duplicate id, and its evolutions are recorded in the pass
// history.
//
// Correlators keep the state that makes ids stable between recomputes (which
// id went to the second half of a split face, which id instance 3 of a
// pattern uses) and expose it as ordered lists for persistence.
package correlate

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/cadseer/cadseer/pkg/geom"
	"github.com/cadseer/cadseer/pkg/history"
	"github.com/cadseer/cadseer/pkg/observability"
	"github.com/cadseer/cadseer/pkg/shape"
	"github.com/cadseer/cadseer/pkg/stableid"
)

// Options carries what every correlator needs from the running update.
type Options struct {
	// Explorer enumerates sub-elements of engine shapes.
	Explorer geom.Explorer

	// History receives the store's ids and evolutions in Finish. Nil skips
	// recording.
	History *history.History

	// Generator produces fresh ids. Nil means random ids.
	Generator stableid.Generator

	// Logger receives repair diagnostics. Nil means log.Default().
	Logger *log.Logger

	// Integrity receives repair counts. Nil means the registered
	// [observability.Integrity] hooks.
	Integrity observability.IntegrityHooks

	// FeatureID and FeatureName identify the feature being updated.
	FeatureID   stableid.ID
	FeatureName string
}

func (o Options) generator() stableid.Generator {
	if o.Generator == nil {
		return stableid.Random{}
	}
	return o.Generator
}

func (o Options) integrity() observability.IntegrityHooks {
	if o.Integrity == nil {
		return observability.Integrity()
	}
	return o.Integrity
}

func (o Options) logger() *log.Logger {
	if o.Logger == nil {
		return log.Default()
	}
	return o.Logger
}

// Finish is the last step of every id assignment. It gives fresh ids to
// entries still nil, splits duplicated ids, reports both repairs, records
// the store in the history and validates the result.
func Finish(ctx context.Context, out *shape.Store, opts Options) error {
	gen := opts.generator()
	logger := opts.logger()
	hooks := opts.integrity()

	if n := out.EnsureNoDuplicates(gen); n > 0 {
		logger.Warn("split duplicate ids", "feature", opts.FeatureName, "count", n)
		hooks.OnDuplicateRepaired(ctx, opts.FeatureName, n)
	}
	if n := out.EnsureNoNils(gen); n > 0 {
		logger.Debug("assigned fresh ids", "feature", opts.FeatureName, "count", n)
		hooks.OnNilRepaired(ctx, opts.FeatureName, n)
	}
	if opts.History != nil {
		out.RecordHistory(opts.History, opts.FeatureID)
	}
	return out.Validate()
}

// generated is an output element with the input ids that generated it.
type generated struct {
	shape   geom.Shape
	parents []stableid.ID
}

// generatedBy collects, in input order, the output elements that rel reports
// as generated by identified input elements.
func generatedBy(out *shape.Store, rel geom.Relation, inputs []*shape.Store) []generated {
	var res []generated
	for _, src := range inputs {
		for _, e := range src.Entries() {
			if e.ID.IsNil() {
				continue
			}
			for _, g := range rel.Generated(e.Shape) {
				if !out.HasShape(g) {
					continue
				}
				i := indexOfShape(res, g)
				if i < 0 {
					res = append(res, generated{shape: g})
					i = len(res) - 1
				}
				res[i].parents = append(res[i].parents, e.ID)
			}
		}
	}
	return res
}

func indexOfShape(res []generated, sh geom.Shape) int {
	for i, g := range res {
		if g.shape.Same(sh) {
			return i
		}
	}
	return -1
}

// adopt gives sh the id when sh is still nil and the id is not taken, and
// records every parent as an evolution into it.
func adopt(out *shape.Store, sh geom.Shape, id stableid.ID, parents ...stableid.ID) bool {
	cur, ok := out.FindID(sh)
	if !ok || cur.Valid() || out.HasID(id) {
		return false
	}
	out.UpdateID(sh, id)
	for _, p := range parents {
		out.InsertEvolve(p, id)
	}
	return true
}

// nameEdgeVertices gives every nil vertex of an identified edge the id
// remembered for its position on that edge.
func nameEdgeVertices(out *shape.Store, x geom.Explorer, mem map[stableid.ID][]stableid.ID, gen stableid.Generator) {
	if x == nil {
		return
	}
	for _, edge := range out.ShapesOfKind(geom.KindEdge) {
		edgeID, _ := out.FindID(edge)
		if edgeID.IsNil() {
			continue
		}
		for i, v := range x.Children(edge) {
			if id, _ := out.FindID(v); v.Kind() != geom.KindVertex || id.Valid() {
				continue
			}
			adopt(out, v, nth(mem, edgeID, i, gen), edgeID)
		}
	}
}
