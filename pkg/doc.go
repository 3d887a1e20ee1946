// Package pkg provides the core libraries of cadseer, a parametric modeling
// core that keeps geometry ids stable across recomputes.
//
// # Overview
//
// A model is a directed acyclic graph of features. Each feature turns the
// shapes of its parents into a new shape and gives every sub-element of its
// output a stable id. When a parameter changes, the update engine recomputes
// the features downstream of the edit in dependency order, and the id
// correlators carry ids from the old output to the new one so that
// selections made by later features survive.
//
// # Architecture
//
// The typical data flow through a recompute:
//
//	[dag] feature graph (dirty features)
//	         ↓
//	[update] engine (controlled traversal via [dag/traverse])
//	         ↓
//	[feature] Update with a payload of parent outputs
//	         ↓
//	[correlate] ids carried from inputs to the new [shape] store
//	         ↓
//	[history] merged per pass; picks resolved against it
//
// # Quick Start
//
// Build a graph, recompute it and follow a face downstream:
//
//	eng := memgeom.New()
//	g := dag.New()
//	base, _ := g.AddFeature(reference.NewBox(eng, "base"))
//	boss, _ := g.AddFeature(reference.NewBox(eng, "boss"))
//	fuse, _ := g.AddFeature(reference.NewBoolean(eng, "fuse"))
//	g.Connect(base, fuse, feature.NewTags(feature.InputTarget))
//	g.Connect(boss, fuse, feature.NewTags(feature.InputTool))
//
//	e := update.New(g, update.Options{})
//	if _, err := e.Recompute(ctx); err != nil {
//	    return err
//	}
//
// # Main Packages
//
//   - [stableid]: 128-bit ids and generators
//   - [geom]: the geometry engine contract; [geom/memgeom] implements it in memory
//   - [shape]: per-feature id tables and the matchers that fill them
//   - [history]: the shape history graph and persisted picks
//   - [correlate]: id carry-over for booleans, instances and intersections
//   - [feature]: the feature contract; [feature/reference] has sample features
//   - [dag]: the feature graph; [dag/traverse] its controlled traversal
//   - [update]: the recompute engine
//   - [model]: TOML, YAML and JSON model files
//   - [render/nodelink]: Graphviz output of graphs and histories
//   - [errors], [observability]: coded errors and diagnostic hooks
//
// [stableid]: github.com/cadseer/cadseer/pkg/stableid
// [geom]: github.com/cadseer/cadseer/pkg/geom
// [geom/memgeom]: github.com/cadseer/cadseer/pkg/geom/memgeom
// [shape]: github.com/cadseer/cadseer/pkg/shape
// [history]: github.com/cadseer/cadseer/pkg/history
// [correlate]: github.com/cadseer/cadseer/pkg/correlate
// [feature]: github.com/cadseer/cadseer/pkg/feature
// [feature/reference]: github.com/cadseer/cadseer/pkg/feature/reference
// [dag]: github.com/cadseer/cadseer/pkg/dag
// [dag/traverse]: github.com/cadseer/cadseer/pkg/dag/traverse
// [update]: github.com/cadseer/cadseer/pkg/update
// [model]: github.com/cadseer/cadseer/pkg/model
// [render/nodelink]: github.com/cadseer/cadseer/pkg/render/nodelink
// [errors]: github.com/cadseer/cadseer/pkg/errors
// [observability]: github.com/cadseer/cadseer/pkg/observability
package pkg
