// Package dag provides the feature dependency graph of a parametric model.
//
// # Overview
//
// A model is a directed acyclic graph whose vertices are features and whose
// edges say which feature consumes which: an edge parent -> child means the
// child's update reads the parent's output. Every edge carries a set of roles
// ([feature.Tags]) naming what the parent is to the child, for example the
// Target of a boolean or one of its Tools. There is at most one edge per
// pair, so a parent serving two roles does so through one edge with two tags.
//
// # Basic Usage
//
// Create a graph with [New], insert features with [Graph.AddFeature] and
// connect them with [Graph.Connect]:
//
//	g := dag.New()
//	box, _ := g.AddFeature(reference.NewBox(eng, "box"))
//	cyl, _ := g.AddFeature(reference.NewBox(eng, "tool"))
//	fuse, _ := g.AddFeature(reference.NewBoolean(eng, "fuse"))
//	g.Connect(box, fuse, feature.NewTags(feature.InputTarget))
//	g.Connect(cyl, fuse, feature.NewTags(feature.InputTool))
//
// Connect rejects an edge that would close a cycle with a CYCLE error and
// leaves the graph unchanged.
//
// # Handles
//
// Vertices live in an arena and are addressed by generation-checked [Vertex]
// handles. Removing a feature is a soft delete: the slot is marked dead, its
// edges are dropped, and the handle keeps resolving so that code holding it
// can still read the feature. [Graph.Compact] recycles dead slots; from then
// on the old handles fail with STALE_VERTEX instead of silently pointing at
// a different feature.
//
// # State
//
// Each vertex carries [feature.State] flags and a log of messages from its
// last update. The update engine drives ModelDirty, Success and Failure;
// callers toggle Inactive, NonLeaf and Skipped through the Set methods.
//
// # Events
//
// Every mutation is reported as an [Event] to the observers registered with
// [Graph.Subscribe]. Delivery is synchronous and in mutation order; the
// transport beyond that belongs to the caller.
//
// # Concurrency
//
// Graph instances are not safe for concurrent use. Structure must not change
// while a recompute pass runs; [Graph.BeginPass] makes structural mutations
// fail with PRECONDITION until [Graph.EndPass].
package dag
