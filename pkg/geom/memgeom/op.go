package memgeom

import "github.com/cadseer/cadseer/pkg/geom"

// Op records the generated/modified/deleted report of one operation.
type Op struct {
	generated map[*Shape][]geom.Shape
	modified  map[*Shape][]geom.Shape
	deleted   map[*Shape]bool
}

// NewOp returns an empty report.
func NewOp() *Op {
	return &Op{
		generated: make(map[*Shape][]geom.Shape),
		modified:  make(map[*Shape][]geom.Shape),
		deleted:   make(map[*Shape]bool),
	}
}

// AddGenerated records that in generated out.
func (o *Op) AddGenerated(in, out *Shape) { o.generated[in] = append(o.generated[in], out) }

// AddModified records that in became out. Calling it several times for the
// same input records a split.
func (o *Op) AddModified(in, out *Shape) { o.modified[in] = append(o.modified[in], out) }

// AddDeleted records that in has no counterpart in the result.
func (o *Op) AddDeleted(in *Shape) { o.deleted[in] = true }

// Generated implements geom.Relation.
func (o *Op) Generated(in geom.Shape) []geom.Shape {
	if s, ok := in.(*Shape); ok {
		return o.generated[s]
	}
	return nil
}

// Modified implements geom.Relation.
func (o *Op) Modified(in geom.Shape) []geom.Shape {
	if s, ok := in.(*Shape); ok {
		return o.modified[s]
	}
	return nil
}

// IsDeleted implements geom.Relation.
func (o *Op) IsDeleted(in geom.Shape) bool {
	if s, ok := in.(*Shape); ok {
		return o.deleted[s]
	}
	return false
}

var _ geom.Relation = (*Op)(nil)
