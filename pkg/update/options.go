package update

import (
	"cmp"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/cadseer/cadseer/pkg/dag"
	"github.com/cadseer/cadseer/pkg/feature"
	"github.com/cadseer/cadseer/pkg/observability"
	"github.com/cadseer/cadseer/pkg/stableid"
)

// Options configures an [Engine].
type Options struct {
	// Propagates reports whether dirtiness flows across an edge carrying
	// tags. Nil means every edge propagates.
	Propagates func(feature.Tags) bool

	// SortSiblings orders the children of one feature before they are
	// visited. Nil sorts by feature name, then by id.
	SortSiblings func(g *dag.Graph, siblings []dag.Vertex)

	// Generator hands out fresh ids to features. Nil uses random ids.
	Generator stableid.Generator

	// Logger receives pass and per-feature messages. Nil discards them.
	Logger *log.Logger

	// Hooks receives pass and feature events. Nil uses the hooks registered
	// with [observability.SetUpdateHooks] when the engine is created.
	Hooks observability.UpdateHooks

	// Integrity receives id repairs and unresolved picks. Nil uses the
	// registered integrity hooks.
	Integrity observability.IntegrityHooks
}

// SetDefaults fills every unset field.
func (o *Options) SetDefaults() {
	if o.Propagates == nil {
		o.Propagates = PropagateAll
	}
	if o.SortSiblings == nil {
		o.SortSiblings = SortByName
	}
	if o.Generator == nil {
		o.Generator = stableid.Random{}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if o.Hooks == nil {
		o.Hooks = observability.Update()
	}
	if o.Integrity == nil {
		o.Integrity = observability.Integrity()
	}
}

// PropagateAll lets dirtiness cross every edge.
func PropagateAll(feature.Tags) bool { return true }

// PropagateExcept returns a policy under which an edge carrying only the
// given roles does not propagate dirtiness. An edge with any other role
// still does.
func PropagateExcept(roles ...feature.InputType) func(feature.Tags) bool {
	blocked := feature.NewTags(roles...)
	return func(tags feature.Tags) bool {
		for _, t := range tags {
			if !blocked.Has(t) {
				return true
			}
		}
		return false
	}
}

// SortByName orders siblings by feature name, then by id.
func SortByName(g *dag.Graph, siblings []dag.Vertex) {
	slices.SortStableFunc(siblings, func(a, b dag.Vertex) int {
		fa, fb := g.Feature(a), g.Feature(b)
		if c := strings.Compare(fa.Name(), fb.Name()); c != 0 {
			return c
		}
		return fa.ID().Compare(fb.ID())
	})
}

// SortByInsertion keeps siblings in the order their features were added.
func SortByInsertion(g *dag.Graph, siblings []dag.Vertex) {
	rank := make(map[dag.Vertex]int, g.Len())
	for i, v := range g.Vertices() {
		rank[v] = i
	}
	slices.SortStableFunc(siblings, func(a, b dag.Vertex) int { return cmp.Compare(rank[a], rank[b]) })
}
