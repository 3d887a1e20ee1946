// Package nodelink renders feature graphs and shape histories as node-link
// diagrams.
//
// # Overview
//
// This package produces Graphviz DOT text for the two graphs of a model: the
// feature graph, where features appear as boxes and edges carry the roles
// a parent plays for its child, and the shape history of a recompute pass,
// where every element points back to the element it came from.
//
// # Usage
//
// Convert a graph to DOT format, then render to SVG:
//
//	dot := nodelink.ToDOT(g, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(dot)
//
// Dump the history of the last pass with feature names as owners:
//
//	dot := nodelink.HistoryToDOT(eng.History(), nodelink.Options{
//	    Detailed: true,
//	    Names:    nodelink.NamesOf(g),
//	})
//	err := nodelink.WriteGraphviz(dot, "history.svg")
//
// # DOT Format
//
// The generated DOT uses top-to-bottom layout (rankdir=TB) with rounded box
// nodes. Features at the same depth share a rank, so a model reads from its
// primitives at the top to its results at the bottom.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering.
package nodelink
