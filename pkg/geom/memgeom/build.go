package memgeom

import (
	"fmt"

	"github.com/cadseer/cadseer/pkg/geom"
)

// BoxFaceNames are the construction names of a box's faces, -X first.
var BoxFaceNames = []string{"XN", "XP", "YN", "YP", "ZN", "ZP"}

// Box builds a closed box: solid, shell, six faces each bounded by one wire,
// twelve shared edges and eight shared vertices. Vertex i sits at the corner
// whose x, y, z bits are the bits of i. Edges are named "E<i><j>" and wires
// "W<face>".
func (e *Engine) Box() *Shape {
	var verts [8]*Shape
	for i := range verts {
		verts[i] = e.NewShape(geom.KindVertex, fmt.Sprintf("V%d", i))
	}

	edges := make(map[[2]int]*Shape)
	for i := 0; i < 8; i++ {
		for bit := 0; bit < 3; bit++ {
			j := i | 1<<bit
			if j == i {
				continue
			}
			edges[[2]int{i, j}] = e.NewShape(geom.KindEdge, fmt.Sprintf("E%d%d", i, j), verts[i], verts[j])
		}
	}

	faces := make([]*Shape, 0, 6)
	for axis := 0; axis < 3; axis++ {
		for side := 0; side < 2; side++ {
			name := BoxFaceNames[axis*2+side]
			var boundary []*Shape
			for i := 0; i < 8; i++ {
				for bit := 0; bit < 3; bit++ {
					j := i | 1<<bit
					if j == i || (i>>axis)&1 != side || (j>>axis)&1 != side {
						continue
					}
					boundary = append(boundary, edges[[2]int{i, j}])
				}
			}
			wire := e.NewShape(geom.KindWire, "W"+name, boundary...)
			faces = append(faces, e.NewShape(geom.KindFace, name, wire))
		}
	}

	shell := e.NewShape(geom.KindShell, "shell", faces...)
	return e.NewShape(geom.KindSolid, "solid", shell)
}

// Fuse combines target with tools into one new solid and reports how every
// input face ended up:
//   - every face is rebuilt (modified) with a new outer wire over the same edges
//   - the first tool face is split in two
//   - the last target face is consumed (deleted)
//   - one new edge is generated where the first target face meets the first
//     tool face; it bounds the first half of the split face
//
// Edges and vertices that survive are the same handles as in the inputs.
func (e *Engine) Fuse(target *Shape, tools ...*Shape) (*Shape, *Op) {
	op := NewOp()
	targetFaces := e.OfKind(target, geom.KindFace)
	var toolFaces []*Shape
	for _, t := range tools {
		toolFaces = append(toolFaces, e.OfKind(t, geom.KindFace)...)
	}

	var seam *Shape
	if len(targetFaces) > 0 && len(toolFaces) > 0 {
		seam = e.NewShape(geom.KindEdge, "seam",
			e.NewShape(geom.KindVertex, "seam-start"),
			e.NewShape(geom.KindVertex, "seam-end"))
		op.AddGenerated(targetFaces[0], seam)
		op.AddGenerated(toolFaces[0], seam)
	}

	var out []*Shape
	for i, f := range targetFaces {
		if i == len(targetFaces)-1 && len(toolFaces) > 0 {
			op.AddDeleted(f)
			continue
		}
		nf := e.rebuildFace(f, nil)
		op.AddModified(f, nf)
		out = append(out, nf)
	}
	for i, f := range toolFaces {
		if i == 0 {
			a := e.rebuildFace(f, seam)
			b := e.rebuildFace(f, nil)
			op.AddModified(f, a)
			op.AddModified(f, b)
			out = append(out, a, b)
			continue
		}
		nf := e.rebuildFace(f, nil)
		op.AddModified(f, nf)
		out = append(out, nf)
	}

	shell := e.NewShape(geom.KindShell, "shell", out...)
	return e.NewShape(geom.KindSolid, "fuse", shell), op
}

func (e *Engine) rebuildFace(f *Shape, extra *Shape) *Shape {
	var edges []*Shape
	if w, ok := e.OuterWire(f); ok {
		edges = append(edges, w.(*Shape).children...)
	}
	if extra != nil {
		edges = append(edges, extra)
	}
	wire := e.NewShape(geom.KindWire, "W"+f.name, edges...)
	return e.NewShape(geom.KindFace, f.name, wire)
}

// Pattern makes count copies of source and returns them in a compound with
// one report per instance; report i maps every sub-element of source to its
// copy in instance i.
func (e *Engine) Pattern(source *Shape, count int) (*Shape, []*Op) {
	ops := make([]*Op, count)
	copies := make([]*Shape, count)
	for i := range count {
		op := NewOp()
		copies[i] = e.copyShape(source, make(map[*Shape]*Shape), op)
		ops[i] = op
	}
	return e.NewShape(geom.KindCompound, "pattern", copies...), ops
}

func (e *Engine) copyShape(s *Shape, memo map[*Shape]*Shape, op *Op) *Shape {
	if c, ok := memo[s]; ok {
		return c
	}
	children := make([]*Shape, len(s.children))
	for i, ch := range s.children {
		children[i] = e.copyShape(ch, memo, op)
	}
	c := e.NewShape(s.kind, s.name, children...)
	memo[s] = c
	op.AddModified(s, c)
	return c
}

// Section intersects the faces of a and b pairwise (first with first, second
// with second, ...) and returns a compound of the resulting edges. Each edge
// is reported as generated by both faces; its two vertices are new.
func (e *Engine) Section(a, b *Shape) (*Shape, *Op) {
	op := NewOp()
	fa := e.OfKind(a, geom.KindFace)
	fb := e.OfKind(b, geom.KindFace)
	n := min(len(fa), len(fb))

	edges := make([]*Shape, 0, n)
	for i := 0; i < n; i++ {
		name := fa[i].name + "x" + fb[i].name
		edge := e.NewShape(geom.KindEdge, name,
			e.NewShape(geom.KindVertex, name+"-0"),
			e.NewShape(geom.KindVertex, name+"-1"))
		op.AddGenerated(fa[i], edge)
		op.AddGenerated(fb[i], edge)
		edges = append(edges, edge)
	}
	return e.NewShape(geom.KindCompound, "section", edges...), op
}
