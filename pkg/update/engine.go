// Package update runs recompute passes over a feature graph.
//
// An [Engine] keeps the graph's outputs in step with its parameters. Editing
// a feature marks it dirty with [Engine.MarkDirty], which also dirties every
// feature downstream of it. [Engine.Recompute] then updates exactly the dirty
// features, each one after all of its dirty parents, and rebuilds the shape
// history that picks are resolved against.
//
// A failing feature never stops a pass. Its error is written to the
// feature's log and its Failure flag is set; its children still run and see
// the failure on their payload entries.
//
// # Usage
//
//	eng := update.New(g, update.Options{Logger: logger})
//	res, err := eng.Recompute(ctx)
//	if err != nil {
//	    return err // only cancellation or a reentrant call
//	}
//	for _, id := range res.Failed {
//	    fmt.Println(g.Log(mustVertex(id)))
//	}
package update

import (
	"context"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/cadseer/cadseer/pkg/dag"
	"github.com/cadseer/cadseer/pkg/dag/traverse"
	"github.com/cadseer/cadseer/pkg/errors"
	"github.com/cadseer/cadseer/pkg/feature"
	"github.com/cadseer/cadseer/pkg/history"
	"github.com/cadseer/cadseer/pkg/stableid"
)

// Engine drives recomputes of one graph. It is not safe for concurrent use.
type Engine struct {
	g       *dag.Graph
	opts    Options
	logger  *log.Logger
	history *history.History
}

// Result summarizes one pass.
type Result struct {
	// Order lists the features the pass visited, in visit order.
	Order []stableid.ID

	// Updated lists the visited features whose update succeeded.
	Updated []stableid.ID

	// Failed lists the visited features whose update returned an error.
	Failed []stableid.ID

	// Skipped lists the visited features that passed their input through.
	Skipped []stableid.ID

	Duration time.Duration
}

// New creates an engine for g.
func New(g *dag.Graph, opts Options) *Engine {
	opts.SetDefaults()
	return &Engine{g: g, opts: opts, logger: opts.Logger}
}

// Graph returns the graph the engine drives.
func (e *Engine) Graph() *dag.Graph { return e.g }

// History returns the shape history of the last completed pass, or nil
// before the first one.
func (e *Engine) History() *history.History { return e.history }

// =============================================================================
// Dirtiness
// =============================================================================

// MarkDirty marks v and every feature downstream of it ModelDirty. Edges
// rejected by [Options.Propagates] stop the spread.
func (e *Engine) MarkDirty(v dag.Vertex) error {
	if err := e.g.Check(v); err != nil {
		return err
	}
	e.spread([]dag.Vertex{v})
	return nil
}

// MarkAllDirty marks every live feature ModelDirty.
func (e *Engine) MarkAllDirty() {
	for _, v := range e.g.Vertices() {
		_ = e.g.SetState(v, feature.ModelDirty)
	}
}

// spread dirties from and its downstream closure.
func (e *Engine) spread(from []dag.Vertex) {
	seen := make(map[dag.Vertex]bool, len(from))
	queue := slices.Clone(from)
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		if seen[v] {
			continue
		}
		seen[v] = true
		_ = e.g.SetState(v, feature.ModelDirty)
		for _, edge := range e.g.OutEdges(v) {
			_, child, tags, err := e.g.EdgeInfo(edge)
			if err != nil || !e.opts.Propagates(tags) {
				continue
			}
			queue = append(queue, child)
		}
	}
}

// dirtySet spreads the dirtiness already present in the graph and returns
// the dirty active features. An inactive feature keeps its dirty flag
// without passing it on; it spreads once the feature is active again.
func (e *Engine) dirtySet() map[dag.Vertex]bool {
	var dirty []dag.Vertex
	for _, v := range e.g.Vertices() {
		if e.g.State(v).Has(feature.ModelDirty) && e.g.IsActive(v) {
			dirty = append(dirty, v)
		}
	}
	e.spread(dirty)

	set := make(map[dag.Vertex]bool)
	for _, v := range e.g.Vertices() {
		if e.g.State(v).Has(feature.ModelDirty) && e.g.IsActive(v) {
			set[v] = true
		}
	}
	return set
}

// =============================================================================
// Recompute
// =============================================================================

func (e *Engine) traverseOptions(filter func(dag.Vertex) bool) traverse.Options[dag.Vertex] {
	return traverse.Options[dag.Vertex]{
		SortSiblings: func(vs []dag.Vertex) { e.opts.SortSiblings(e.g, vs) },
		Filter:       filter,
	}
}

// Recompute updates every dirty active feature. A feature runs only after
// all of its dirty parents; siblings run in [Options.SortSiblings] order.
//
// Feature failures do not end the pass and are not returned: they are
// recorded on the features and listed in the result. The returned error is
// non-nil only when ctx is done, in which case the features not yet visited
// stay dirty, or when Recompute is called from inside a pass.
func (e *Engine) Recompute(ctx context.Context) (*Result, error) {
	if e.g.InPass() {
		return nil, errors.New(errors.ErrCodePrecondition, "recompute already running")
	}
	start := time.Now()
	hooks := e.opts.Hooks
	dirty := e.dirtySet()
	hooks.OnRecomputeStart(ctx, len(dirty))
	e.logger.Debug("recompute", "dirty", len(dirty))

	h := e.seedHistory(dirty)
	res := &Result{}

	e.g.BeginPass()
	err := traverse.Walk[dag.Vertex](e.g, e.traverseOptions(func(v dag.Vertex) bool { return dirty[v] }), traverse.Funcs[dag.Vertex]{
		OnDiscover: func(v dag.Vertex) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			e.run(ctx, v, h, res)
			return nil
		},
	})
	e.g.EndPass()

	e.updateLeaves()
	res.Duration = time.Since(start)
	hooks.OnRecomputeComplete(ctx, len(res.Updated), len(res.Failed), res.Duration, err)

	if err != nil {
		e.logger.Warn("recompute interrupted", "done", len(res.Order), "remaining", len(dirty)-len(res.Order), "err", err)
		return res, err
	}
	e.history = h
	e.logger.Info("recompute complete",
		"updated", len(res.Updated),
		"failed", len(res.Failed),
		"duration", res.Duration)
	return res, nil
}

// seedHistory starts a pass history holding the outputs of every live
// feature that will not run, so picks can reach through clean features.
func (e *Engine) seedHistory(dirty map[dag.Vertex]bool) *history.History {
	h := history.New()
	for _, v := range e.g.Vertices() {
		if dirty[v] {
			continue
		}
		f := e.g.Feature(v)
		if store := feature.ShapeOf(f); store != nil {
			store.RecordHistory(h, f.ID())
		}
	}
	return h
}

// run updates one feature and records the outcome on its vertex.
func (e *Engine) run(ctx context.Context, v dag.Vertex, h *history.History, res *Result) {
	f := e.g.Feature(v)
	short := f.ID().Short()
	p := e.payload(v, h)
	hooks := e.opts.Hooks

	e.g.ClearLog(v)
	hooks.OnFeatureStart(ctx, f.Name(), short)
	start := time.Now()
	err := f.Update(ctx, p)
	d := time.Since(start)
	hooks.OnFeatureComplete(ctx, f.Name(), short, d, err)

	res.Order = append(res.Order, f.ID())
	if p.Skipped {
		res.Skipped = append(res.Skipped, f.ID())
	}
	if err != nil {
		e.g.AppendLog(v, err.Error())
		_ = e.g.ClearState(v, feature.Success)
		_ = e.g.SetState(v, feature.Failure)
		res.Failed = append(res.Failed, f.ID())
		e.logger.Warn("feature failed", "feature", f.Name(), "id", short, "err", err)
	} else {
		_ = e.g.ClearState(v, feature.Failure)
		_ = e.g.SetState(v, feature.Success)
		res.Updated = append(res.Updated, f.ID())
		e.logger.Debug("feature updated", "feature", f.Name(), "id", short, "duration", d)
	}
	_ = e.g.ClearState(v, feature.ModelDirty)
	_ = e.g.SetState(v, feature.VisualDirty)
}

// payload assembles v's inputs: one entry per parent per role, in
// connection order.
func (e *Engine) payload(v dag.Vertex, h *history.History) *feature.Payload {
	f := e.g.Feature(v)
	p := &feature.Payload{
		History:   h,
		Skipped:   e.g.State(v).Has(feature.Skipped),
		Generator: e.opts.Generator,
		Logger:    e.logger.With("feature", f.Name()),
		Integrity: e.opts.Integrity,
	}
	for _, edge := range e.g.InEdges(v) {
		parent, _, tags, err := e.g.EdgeInfo(edge)
		if err != nil {
			continue
		}
		pf := e.g.Feature(parent)
		failed := e.g.State(parent).Has(feature.Failure)
		for _, tag := range tags {
			p.Entries = append(p.Entries, feature.Entry{Tag: tag, Feature: pf, Failed: failed})
		}
	}
	return p
}

// updateLeaves marks a feature NonLeaf when any of its descendants is active
// and Leaf otherwise.
func (e *Engine) updateLeaves() {
	order := traverse.Order[dag.Vertex](e.g, e.traverseOptions(nil))
	hasActive := make(map[dag.Vertex]bool, len(order))
	for _, v := range slices.Backward(order) {
		for _, c := range e.g.Children(v) {
			if e.g.IsActive(c) || hasActive[c] {
				hasActive[v] = true
				break
			}
		}
		if hasActive[v] {
			_ = e.g.SetNonLeaf(v)
		} else {
			_ = e.g.SetLeaf(v)
		}
	}
}

// =============================================================================
// Picks and display
// =============================================================================

// Pick captures the devolve history of shapeID from the last pass, ready to
// be stored by a feature that references that element.
func (e *Engine) Pick(shapeID stableid.ID) (history.Pick, error) {
	if err := e.settled(); err != nil {
		return history.Pick{}, err
	}
	if !e.history.HasShape(shapeID) {
		return history.Pick{}, errors.New(errors.ErrCodeNotFound, "shape %s is not in the current history", shapeID.Short())
	}
	return history.NewPick(e.history, shapeID), nil
}

// Resolve returns the ids that pick has become in the output of featureID.
// It needs a completed pass and fails with PRECONDITION while one runs. An
// empty result is not an error; it is reported to the integrity hooks.
func (e *Engine) Resolve(ctx context.Context, pick history.Pick, featureID stableid.ID) ([]stableid.ID, error) {
	if err := e.settled(); err != nil {
		return nil, err
	}
	ids := pick.Resolve(e.history, featureID)
	if len(ids) == 0 {
		name := featureID.Short()
		if f, ok := e.g.FindFeature(featureID); ok {
			name = f.Name()
		}
		e.opts.Integrity.OnPickUnresolved(ctx, name, pick.ID.Short())
		e.logger.Debug("pick unresolved", "feature", name, "pick", pick.ID.Short())
	}
	return ids, nil
}

func (e *Engine) settled() error {
	if e.g.InPass() {
		return errors.New(errors.ErrCodePrecondition, "picks cannot be resolved during a recompute pass")
	}
	if e.history == nil {
		return errors.New(errors.ErrCodePrecondition, "no recompute has completed")
	}
	return nil
}

// UpdateVisual calls fn for every VisualDirty feature in display order and
// clears the flag of each feature fn accepts. It stops at the first error.
func (e *Engine) UpdateVisual(fn func(v dag.Vertex, f feature.Feature) error) error {
	if e.g.InPass() {
		return errors.New(errors.ErrCodePrecondition, "visual update during a recompute pass")
	}
	order := traverse.Order[dag.Vertex](e.g, e.traverseOptions(func(v dag.Vertex) bool {
		return e.g.State(v).Has(feature.VisualDirty)
	}))
	for _, v := range order {
		if err := fn(v, e.g.Feature(v)); err != nil {
			return err
		}
		_ = e.g.ClearState(v, feature.VisualDirty)
	}
	return nil
}
