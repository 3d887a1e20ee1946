package dag_test

import (
	"fmt"

	"github.com/cadseer/cadseer/pkg/dag"
	"github.com/cadseer/cadseer/pkg/errors"
	"github.com/cadseer/cadseer/pkg/feature"
	"github.com/cadseer/cadseer/pkg/feature/reference"
	"github.com/cadseer/cadseer/pkg/geom/memgeom"
)

func ExampleGraph_Connect() {
	eng := memgeom.New()
	g := dag.New()
	box, _ := g.AddFeature(reference.NewBox(eng, "box"))
	tool, _ := g.AddFeature(reference.NewBox(eng, "tool"))
	fuse, _ := g.AddFeature(reference.NewBoolean(eng, "fuse"))

	_, _ = g.Connect(box, fuse, feature.NewTags(feature.InputTarget))
	_, _ = g.Connect(tool, fuse, feature.NewTags(feature.InputTool))

	// Closing a cycle is rejected and leaves the graph as it was.
	_, err := g.Connect(fuse, box, feature.NewTags(feature.InputTool))
	fmt.Println("cycle rejected:", errors.Is(err, errors.ErrCodeCycle))
	fmt.Println("features:", g.Len())
	fmt.Println("connections:", g.EdgeCount())
	fmt.Println("parents of fuse:", len(g.Parents(fuse)))
	// Output:
	// cycle rejected: true
	// features: 3
	// connections: 2
	// parents of fuse: 2
}

func ExampleGraph_RemoveFeature() {
	eng := memgeom.New()
	g := dag.New()
	box, _ := g.AddFeature(reference.NewBox(eng, "box"))

	_ = g.RemoveFeature(box)
	fmt.Println(errors.GetCode(g.Check(box)))

	g.Compact()
	fmt.Println(errors.GetCode(g.Check(box)))
	// Output:
	// DEAD_VERTEX
	// STALE_VERTEX
}
