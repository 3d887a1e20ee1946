// Package geom defines the contract between the cadseer core and an external
// geometry engine.
//
// The core never computes geometry. It only needs to enumerate the
// sub-elements of a shape, compare two handles for identity, find a face's
// outer boundary, and read an operation's generated/modified/deleted report.
// Everything else (solid construction, booleans, meshing) lives behind these
// interfaces.
//
// The [memgeom] subpackage is a small in-memory implementation used by tests
// and by the cadseer CLI for dry runs.
//
// [memgeom]: github.com/cadseer/cadseer/pkg/geom/memgeom
package geom

// Kind is the topological kind of a shape.
type Kind int

const (
	KindCompound Kind = iota
	KindCompSolid
	KindSolid
	KindShell
	KindFace
	KindWire
	KindEdge
	KindVertex
)

// Kinds lists every kind from the outermost to the innermost.
var Kinds = []Kind{KindCompound, KindCompSolid, KindSolid, KindShell, KindFace, KindWire, KindEdge, KindVertex}

func (k Kind) String() string {
	switch k {
	case KindCompound:
		return "compound"
	case KindCompSolid:
		return "compsolid"
	case KindSolid:
		return "solid"
	case KindShell:
		return "shell"
	case KindFace:
		return "face"
	case KindWire:
		return "wire"
	case KindEdge:
		return "edge"
	case KindVertex:
		return "vertex"
	default:
		return "unknown"
	}
}

// Shape is an opaque handle to a sub-element produced by the engine.
//
// Same reports engine identity: the two handles denote the same topological
// entity. Hash must agree with Same (same shapes hash equal) so callers can
// bucket handles.
type Shape interface {
	Kind() Kind
	Same(other Shape) bool
	Hash() uint64
}

// Explorer enumerates topology.
type Explorer interface {
	// SubShapes returns root followed by every distinct sub-element of root.
	// The order must be deterministic for a given root.
	SubShapes(root Shape) []Shape
	// Children returns the direct sub-elements of s.
	Children(s Shape) []Shape
	// OuterWire returns the outer boundary of a face.
	OuterWire(face Shape) (Shape, bool)
}

// Relation is the history report of one engine operation: what every input
// sub-element generated, became, or whether it disappeared.
type Relation interface {
	Generated(in Shape) []Shape
	Modified(in Shape) []Shape
	IsDeleted(in Shape) bool
}

// EmptyRelation is a Relation that reports nothing.
type EmptyRelation struct{}

func (EmptyRelation) Generated(Shape) []Shape { return nil }
func (EmptyRelation) Modified(Shape) []Shape  { return nil }
func (EmptyRelation) IsDeleted(Shape) bool    { return false }

// Contains reports whether shapes holds a handle that is Same as s.
func Contains(shapes []Shape, s Shape) bool {
	for _, x := range shapes {
		if x.Same(s) {
			return true
		}
	}
	return false
}
