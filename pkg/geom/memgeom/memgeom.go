// Package memgeom is an in-memory topology engine implementing the
// [geom.Explorer] and [geom.Relation] contracts.
//
// It builds no real geometry: shapes are named nodes in a topology tree with
// shared sub-elements. The operations mimic what a kernel reports (a fuse
// modifies, splits, deletes and generates; a pattern copies; a section
// generates edges) so identity correlation can be exercised end to end.
// Every operation returns brand new handles, like a real kernel rebuilding
// a solid from scratch.
package memgeom

import (
	"fmt"
	"sync/atomic"

	"github.com/cadseer/cadseer/pkg/geom"
)

// Shape is a node in the topology tree.
type Shape struct {
	serial   uint64
	kind     geom.Kind
	name     string
	children []*Shape
}

// Kind returns the topological kind.
func (s *Shape) Kind() geom.Kind { return s.kind }

// Name returns the construction name, e.g. "XP" for the +X face of a box.
func (s *Shape) Name() string { return s.name }

// Same reports handle identity.
func (s *Shape) Same(other geom.Shape) bool {
	o, ok := other.(*Shape)
	return ok && o == s
}

// Hash returns the allocation serial.
func (s *Shape) Hash() uint64 { return s.serial }

func (s *Shape) String() string { return fmt.Sprintf("%s:%s#%d", s.kind, s.name, s.serial) }

// Engine allocates shapes and answers topology queries. The zero value is
// ready to use and safe for concurrent use.
type Engine struct {
	serial atomic.Uint64
}

// New returns an Engine.
func New() *Engine { return &Engine{} }

// NewShape allocates a shape.
func (e *Engine) NewShape(kind geom.Kind, name string, children ...*Shape) *Shape {
	return &Shape{serial: e.serial.Add(1), kind: kind, name: name, children: children}
}

// SubShapes returns root followed by its distinct sub-elements in pre-order.
func (e *Engine) SubShapes(root geom.Shape) []geom.Shape {
	r, ok := root.(*Shape)
	if !ok || r == nil {
		return nil
	}
	seen := make(map[*Shape]bool)
	var out []geom.Shape
	stack := []*Shape{r}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
		for i := len(s.children) - 1; i >= 0; i-- {
			if !seen[s.children[i]] {
				stack = append(stack, s.children[i])
			}
		}
	}
	return out
}

// Children returns the direct sub-elements of s.
func (e *Engine) Children(s geom.Shape) []geom.Shape {
	n, ok := s.(*Shape)
	if !ok || n == nil {
		return nil
	}
	out := make([]geom.Shape, len(n.children))
	for i, c := range n.children {
		out[i] = c
	}
	return out
}

// OuterWire returns the first wire of a face.
func (e *Engine) OuterWire(face geom.Shape) (geom.Shape, bool) {
	f, ok := face.(*Shape)
	if !ok || f == nil || f.kind != geom.KindFace {
		return nil, false
	}
	for _, c := range f.children {
		if c.kind == geom.KindWire {
			return c, true
		}
	}
	return nil, false
}

// OfKind returns the distinct sub-elements of root with the given kind.
func (e *Engine) OfKind(root geom.Shape, kind geom.Kind) []*Shape {
	var out []*Shape
	for _, s := range e.SubShapes(root) {
		if s.Kind() == kind {
			out = append(out, s.(*Shape))
		}
	}
	return out
}

// Find returns the first sub-element of root with the given name and kind.
func (e *Engine) Find(root geom.Shape, kind geom.Kind, name string) (*Shape, bool) {
	for _, s := range e.OfKind(root, kind) {
		if s.name == name {
			return s, true
		}
	}
	return nil, false
}

var (
	_ geom.Shape    = (*Shape)(nil)
	_ geom.Explorer = (*Engine)(nil)
)
