package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/cadseer/cadseer/pkg/dag"
	"github.com/cadseer/cadseer/pkg/dag/traverse"
	"github.com/cadseer/cadseer/pkg/errors"
	"github.com/cadseer/cadseer/pkg/feature"
	"github.com/cadseer/cadseer/pkg/history"
	"github.com/cadseer/cadseer/pkg/stableid"
)

// Options configures diagram generation.
type Options struct {
	// Detailed adds the descriptor, state flags and log lines to feature
	// labels, and owners to history labels. When false, features show their
	// name and short id and history nodes only their short id.
	Detailed bool

	// Names maps feature ids to names for history labels. Owners missing
	// from the map are shown by short id.
	Names map[stableid.ID]string
}

// NamesOf returns the id to name map of every live feature in g, for
// [Options.Names].
func NamesOf(g *dag.Graph) map[stableid.ID]string {
	names := make(map[stableid.ID]string, g.Len())
	for _, v := range g.Vertices() {
		f := g.Feature(v)
		names[f.ID()] = f.Name()
	}
	return names
}

func header(buf *bytes.Buffer) {
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=24, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")
}

// ToDOT converts a feature graph to Graphviz DOT format. Features that share
// a depth are placed on the same rank; edges are labelled with their roles.
// The resulting DOT string can be rendered using [RenderSVG].
//
// Failed features are filled red, skipped features grey, and inactive
// features drawn dashed.
func ToDOT(g *dag.Graph, opts Options) string {
	var buf bytes.Buffer
	header(&buf)

	for _, v := range g.Vertices() {
		f := g.Feature(v)
		attrs := fmtAttrs(g.State(v), fmtLabel(g, v, opts.Detailed))
		fmt.Fprintf(&buf, "  %q [%s];\n", f.ID().String(), strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, v := range g.Vertices() {
		for _, e := range g.OutEdges(v) {
			parent, child, tags, err := g.EdgeInfo(e)
			if err != nil {
				continue
			}
			fmt.Fprintf(&buf, "  %q -> %q [label=%q];\n",
				g.Feature(parent).ID().String(), g.Feature(child).ID().String(), tags.String())
		}
	}

	layers := traverse.Layers[dag.Vertex](g, traverse.Options[dag.Vertex]{})
	if len(layers) > 1 {
		buf.WriteString("\n")
		for _, layer := range layers {
			ids := make([]string, len(layer))
			for i, v := range layer {
				ids[i] = strconv.Quote(g.Feature(v).ID().String())
			}
			fmt.Fprintf(&buf, "  { rank=same; %s; }\n", strings.Join(ids, "; "))
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(g *dag.Graph, v dag.Vertex, detailed bool) string {
	f := g.Feature(v)
	if !detailed {
		return f.Name() + "\n" + f.ID().Short()
	}

	parts := []string{
		fmt.Sprintf("%s %s", f.Descriptor(), f.ID().Short()),
		fmt.Sprintf("state: %s", g.State(v)),
	}
	parts = append(parts, g.Log(v)...)
	return f.Name() + "\n" + strings.Join(parts, "\n")
}

func fmtAttrs(st feature.State, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	switch {
	case st.Has(feature.Failure):
		attrs = append(attrs, "fillcolor=mistyrose", "color=red")
	case st.Has(feature.Skipped):
		attrs = append(attrs, "fillcolor=lightgrey")
	}
	if st.Has(feature.Inactive) {
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fontcolor=grey")
	}
	return attrs
}

// HistoryToDOT converts a shape history to DOT format. Every edge points
// from an element to the element it came from. A pick's root is drawn bold.
func HistoryToDOT(h *history.History, opts Options) string {
	var buf bytes.Buffer
	header(&buf)

	for _, id := range h.IDs() {
		attrs := []string{fmt.Sprintf("label=%q", historyLabel(h, id, opts))}
		if id == h.Root() {
			attrs = append(attrs, "penwidth=3")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", id.String(), strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range h.Edges() {
		fmt.Fprintf(&buf, "  %q -> %q;\n", e[0].String(), e[1].String())
	}

	buf.WriteString("}\n")
	return buf.String()
}

func historyLabel(h *history.History, id stableid.ID, opts Options) string {
	if !opts.Detailed {
		return id.Short()
	}
	owners := h.Owners(id)
	if len(owners) == 0 {
		return id.Short()
	}
	names := make([]string, len(owners))
	for i, o := range owners {
		if n, ok := opts.Names[o]; ok {
			names[i] = n
		} else {
			names[i] = o.Short()
		}
	}
	return id.Short() + "\n" + strings.Join(names, "\n")
}

// WriteGraphviz writes dot to path. A ".svg" extension renders the graph
// with [RenderSVG] first; any other extension gets the DOT text.
func WriteGraphviz(dot, path string) error {
	data := []byte(dot)
	if strings.EqualFold(filepath.Ext(path), ".svg") {
		svg, err := RenderSVG(dot)
		if err != nil {
			return err
		}
		data = svg
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "write %s", path)
	}
	return nil
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
