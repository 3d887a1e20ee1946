package traverse

// Layers groups the accepted vertices by depth.
//
// Layers uses a longest-path assignment via topological sort (Kahn's
// algorithm): sources are at layer 0 and every other vertex sits one below
// its deepest parent, so all parents are strictly above their children.
// Within a layer, vertices keep the order of g.Vertices() and are then
// sorted with opts.SortSiblings. opts.Start is ignored.
//
// Vertices on a cycle never reach zero in-degree and are left out.
//
// Time complexity is O(V + E).
func Layers[V comparable](g Graph[V], opts Options[V]) [][]V {
	var vertices []V
	inDegree := make(map[V]int)
	for _, v := range g.Vertices() {
		if opts.accept(v) {
			vertices = append(vertices, v)
			inDegree[v] = len(opts.in(g, v))
		}
	}

	depth := make(map[V]int, len(vertices))
	queue := make([]V, 0, len(vertices))
	for _, v := range vertices {
		if inDegree[v] == 0 {
			queue = append(queue, v)
		}
	}

	placed := make(map[V]bool, len(vertices))
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		placed[curr] = true

		for _, child := range g.Out(curr) {
			if !opts.accept(child) {
				continue
			}
			if d := depth[curr] + 1; d > depth[child] {
				depth[child] = d
			}
			inDegree[child]--
			if inDegree[child] == 0 {
				queue = append(queue, child)
			}
		}
	}

	var layers [][]V
	for _, v := range vertices {
		if !placed[v] {
			continue
		}
		d := depth[v]
		for len(layers) <= d {
			layers = append(layers, nil)
		}
		layers[d] = append(layers[d], v)
	}
	for _, l := range layers {
		opts.sorted(l)
	}
	return layers
}
