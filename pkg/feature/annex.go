package feature

import (
	"slices"

	"github.com/cadseer/cadseer/pkg/correlate"
	"github.com/cadseer/cadseer/pkg/shape"
	"github.com/cadseer/cadseer/pkg/stableid"
)

// AnnexKind names an optional feature capability.
type AnnexKind int

const (
	AnnexShape AnnexKind = iota
	AnnexCSysDragger
	AnnexInstanceMapper
	AnnexIntersectionMapper
	AnnexBooleanMapper
)

func (k AnnexKind) String() string {
	switch k {
	case AnnexShape:
		return "Shape"
	case AnnexCSysDragger:
		return "CSysDragger"
	case AnnexInstanceMapper:
		return "InstanceMapper"
	case AnnexIntersectionMapper:
		return "IntersectionMapper"
	case AnnexBooleanMapper:
		return "BooleanMapper"
	default:
		return "Unknown"
	}
}

// CSys is a placement a feature can be dragged by or linked to another
// feature's coordinate system through.
type CSys struct {
	Origin [3]float64
	// Linked is the feature whose coordinate system drives this one, or Nil.
	Linked stableid.ID
}

// Annexes holds a feature's capabilities. Each kind has a typed accessor so a
// lookup cannot return the wrong type.
type Annexes struct {
	shape        *shape.Store
	csys         *CSys
	instance     *correlate.InstanceMapper
	intersection *correlate.IntersectionMapper
	boolean      *correlate.BooleanIDMapper
}

// NewAnnexes returns an empty registry.
func NewAnnexes() *Annexes { return &Annexes{} }

// Kinds lists the capabilities present, in kind order.
func (a *Annexes) Kinds() []AnnexKind {
	var out []AnnexKind
	if a.shape != nil {
		out = append(out, AnnexShape)
	}
	if a.csys != nil {
		out = append(out, AnnexCSysDragger)
	}
	if a.instance != nil {
		out = append(out, AnnexInstanceMapper)
	}
	if a.intersection != nil {
		out = append(out, AnnexIntersectionMapper)
	}
	if a.boolean != nil {
		out = append(out, AnnexBooleanMapper)
	}
	return out
}

// Has reports whether kind is present.
func (a *Annexes) Has(kind AnnexKind) bool { return slices.Contains(a.Kinds(), kind) }

func (a *Annexes) SetShape(s *shape.Store)                       { a.shape = s }
func (a *Annexes) SetCSys(c *CSys)                               { a.csys = c }
func (a *Annexes) SetInstanceMapper(m *correlate.InstanceMapper) { a.instance = m }
func (a *Annexes) SetIntersectionMapper(m *correlate.IntersectionMapper) {
	a.intersection = m
}
func (a *Annexes) SetBooleanMapper(m *correlate.BooleanIDMapper) { a.boolean = m }

func (a *Annexes) Shape() (*shape.Store, bool) { return a.shape, a.shape != nil }
func (a *Annexes) CSys() (*CSys, bool)         { return a.csys, a.csys != nil }
func (a *Annexes) InstanceMapper() (*correlate.InstanceMapper, bool) {
	return a.instance, a.instance != nil
}
func (a *Annexes) IntersectionMapper() (*correlate.IntersectionMapper, bool) {
	return a.intersection, a.intersection != nil
}
func (a *Annexes) BooleanMapper() (*correlate.BooleanIDMapper, bool) {
	return a.boolean, a.boolean != nil
}

// ShapeOf returns f's shape store, or nil when f has none.
func ShapeOf(f Feature) *shape.Store {
	if f == nil {
		return nil
	}
	s, _ := f.Annexes().Shape()
	return s
}
