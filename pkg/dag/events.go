package dag

import (
	"slices"

	"github.com/cadseer/cadseer/pkg/feature"
	"github.com/cadseer/cadseer/pkg/stableid"
)

// EventKind names what changed in a [Graph].
type EventKind int

const (
	FeatureAdded EventKind = iota
	FeatureRemoved
	StateChanged
	ConnectionAdded
	ConnectionRemoved
)

func (k EventKind) String() string {
	switch k {
	case FeatureAdded:
		return "feature-added"
	case FeatureRemoved:
		return "feature-removed"
	case StateChanged:
		return "state-changed"
	case ConnectionAdded:
		return "connection-added"
	case ConnectionRemoved:
		return "connection-removed"
	default:
		return "unknown"
	}
}

// Event is a plain description of one change. Feature events carry the
// feature id and its state; connection events carry both endpoints and the
// edge's roles.
type Event struct {
	Kind    EventKind
	Feature stableid.ID
	State   feature.State
	Parent  stableid.ID
	Child   stableid.ID
	Tags    feature.Tags
}

// Observer receives graph events synchronously, in the order the changes
// happen. Observers must not mutate the graph.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to [Observer].
type ObserverFunc func(Event)

func (f ObserverFunc) Observe(e Event) { f(e) }

type observerEntry struct {
	id int
	o  Observer
}

// Subscribe registers o and returns a function that unregisters it.
func (g *Graph) Subscribe(o Observer) (unsubscribe func()) {
	g.observerID++
	id := g.observerID
	g.observers = append(g.observers, observerEntry{id: id, o: o})
	return func() {
		g.observers = slices.DeleteFunc(g.observers, func(e observerEntry) bool { return e.id == id })
	}
}

func (g *Graph) emit(e Event) {
	for _, entry := range slices.Clone(g.observers) {
		entry.o.Observe(e)
	}
}

func (g *Graph) emitEdge(kind EventKind, e int) {
	es := g.edges[e]
	g.emit(Event{
		Kind:   kind,
		Parent: g.vertices[es.parent].feature.ID(),
		Child:  g.vertices[es.child].feature.ID(),
		Tags:   slices.Clone(es.tags),
	})
}
