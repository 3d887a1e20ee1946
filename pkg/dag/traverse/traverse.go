// Package traverse walks directed acyclic graphs in a deterministic,
// dependency respecting order.
//
// [Walk] is a depth-first search driven by an explicit stack with one extra
// rule, the readiness gate: a vertex is only discovered once none of its
// parents is still undiscovered. A child reached through one parent while
// another parent is pending is skipped and picked up again from that other
// parent. The result is a DFS order in which, for every edge u -> v, u is
// discovered before v. The update engine relies on this to update a feature
// only after all of its inputs.
//
// Sibling order is whatever the caller's SortSiblings hook produces, and the
// structural order of the graph when there is no hook.
package traverse

import (
	"errors"
	"slices"
)

// ErrStop may be returned by a [Visitor] to end a walk early. Walk then
// returns nil.
var ErrStop = errors.New("traverse: stop")

// Graph is the read-only view of a directed graph the walkers need.
type Graph[V comparable] interface {
	// Vertices returns every vertex in a stable order.
	Vertices() []V
	// Out returns the children of v.
	Out(v V) []V
	// In returns the parents of v.
	In(v V) []V
}

// Options restrict and order a walk.
type Options[V comparable] struct {
	// Start lists the vertices the walk begins from. When empty, every
	// vertex without a parent in the walked subgraph is a start.
	Start []V

	// SortSiblings orders a slice of vertices in place. It is applied to the
	// start set and to the children of every vertex. Nil keeps graph order.
	SortSiblings func([]V)

	// Filter restricts the walk to the subgraph induced by the vertices it
	// accepts. Nil accepts every vertex.
	Filter func(V) bool
}

func (o Options[V]) accept(v V) bool { return o.Filter == nil || o.Filter(v) }

func (o Options[V]) sorted(vs []V) []V {
	if o.SortSiblings != nil {
		o.SortSiblings(vs)
	}
	return vs
}

func (o Options[V]) out(g Graph[V], v V) []V {
	var res []V
	for _, c := range g.Out(v) {
		if o.accept(c) {
			res = append(res, c)
		}
	}
	return o.sorted(res)
}

func (o Options[V]) in(g Graph[V], v V) []V {
	var res []V
	for _, p := range g.In(v) {
		if o.accept(p) {
			res = append(res, p)
		}
	}
	return res
}

// Visitor receives the events of a walk. Returning [ErrStop] ends the walk;
// any other error ends it and is returned by [Walk].
type Visitor[V comparable] interface {
	// Discover is called when v is first reached.
	Discover(v V) error
	// Finish is called once every child of v has been explored.
	Finish(v V) error
}

// Funcs adapts a pair of functions to [Visitor]. Nil functions are skipped.
type Funcs[V comparable] struct {
	OnDiscover func(V) error
	OnFinish   func(V) error
}

func (f Funcs[V]) Discover(v V) error {
	if f.OnDiscover == nil {
		return nil
	}
	return f.OnDiscover(v)
}

func (f Funcs[V]) Finish(v V) error {
	if f.OnFinish == nil {
		return nil
	}
	return f.OnFinish(v)
}

type color uint8

const (
	white color = iota // undiscovered
	gray               // on the active path
	black              // finished
)

type frame[V comparable] struct {
	v        V
	children []V
	next     int
}

// Starts returns the start set of a walk: opts.Start when given, else the
// accepted vertices with no accepted parent. Either way the set is filtered
// and sorted with opts.SortSiblings.
func Starts[V comparable](g Graph[V], opts Options[V]) []V {
	var starts []V
	if len(opts.Start) > 0 {
		for _, v := range opts.Start {
			if opts.accept(v) && !slices.Contains(starts, v) {
				starts = append(starts, v)
			}
		}
	} else {
		for _, v := range g.Vertices() {
			if opts.accept(v) && len(opts.in(g, v)) == 0 {
				starts = append(starts, v)
			}
		}
	}
	return opts.sorted(starts)
}

// scope returns the vertices reachable from starts through accepted vertices.
func scope[V comparable](g Graph[V], opts Options[V], starts []V) map[V]bool {
	in := make(map[V]bool)
	stack := slices.Clone(starts)
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if in[v] {
			continue
		}
		in[v] = true
		for _, c := range g.Out(v) {
			if opts.accept(c) && !in[c] {
				stack = append(stack, c)
			}
		}
	}
	return in
}

// Walk visits every vertex reachable from the start set exactly once.
//
// A vertex is discovered only when all of its parents inside the walked
// scope have been discovered. Parents outside the scope, either rejected by
// the filter or unreachable from the start set, do not hold a vertex back.
// Vertices on a cycle are never ready and are not visited.
func Walk[V comparable](g Graph[V], opts Options[V], vis Visitor[V]) error {
	starts := Starts(g, opts)
	inScope := scope(g, opts, starts)
	colors := make(map[V]color, len(inScope))

	ready := func(v V) bool {
		for _, p := range opts.in(g, v) {
			if inScope[p] && colors[p] == white {
				return false
			}
		}
		return true
	}

	var stack []frame[V]
	discover := func(v V) error {
		colors[v] = gray
		if err := vis.Discover(v); err != nil {
			return err
		}
		stack = append(stack, frame[V]{v: v, children: opts.out(g, v)})
		return nil
	}

	run := func() error {
		for _, s := range starts {
			if colors[s] != white || !ready(s) {
				continue
			}
			if err := discover(s); err != nil {
				return err
			}
			for len(stack) > 0 {
				top := &stack[len(stack)-1]
				if top.next < len(top.children) {
					c := top.children[top.next]
					top.next++
					if colors[c] == white && ready(c) {
						if err := discover(c); err != nil {
							return err
						}
					}
					continue
				}
				colors[top.v] = black
				v := top.v
				stack = stack[:len(stack)-1]
				if err := vis.Finish(v); err != nil {
					return err
				}
			}
		}
		return nil
	}

	if err := run(); err != nil && !errors.Is(err, ErrStop) {
		return err
	}
	return nil
}

// Order returns the discovery order of a [Walk].
func Order[V comparable](g Graph[V], opts Options[V]) []V {
	var order []V
	_ = Walk(g, opts, Funcs[V]{OnDiscover: func(v V) error {
		order = append(order, v)
		return nil
	}})
	return order
}
