package traverse

import (
	"errors"
	"fmt"
	"math/rand"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// adj is a small adjacency-list graph over strings.
type adj struct {
	order []string
	out   map[string][]string
	in    map[string][]string
}

func graph(edges ...string) *adj {
	g := &adj{out: make(map[string][]string), in: make(map[string][]string)}
	seen := make(map[string]bool)
	add := func(v string) {
		if !seen[v] {
			seen[v] = true
			g.order = append(g.order, v)
		}
	}
	for _, e := range edges {
		parts := strings.Split(e, "->")
		if len(parts) == 1 {
			add(parts[0])
			continue
		}
		add(parts[0])
		add(parts[1])
		g.out[parts[0]] = append(g.out[parts[0]], parts[1])
		g.in[parts[1]] = append(g.in[parts[1]], parts[0])
	}
	return g
}

func (g *adj) Vertices() []string    { return g.order }
func (g *adj) Out(v string) []string { return g.out[v] }
func (g *adj) In(v string) []string  { return g.in[v] }

func (g *adj) edges() [][2]string {
	var out [][2]string
	for _, u := range g.order {
		for _, v := range g.out[u] {
			out = append(out, [2]string{u, v})
		}
	}
	return out
}

func assertDependencyOrder(t *testing.T, g *adj, order []string) {
	t.Helper()
	pos := make(map[string]int, len(order))
	for i, v := range order {
		_, dup := pos[v]
		require.False(t, dup, "%s discovered twice", v)
		pos[v] = i
	}
	for _, e := range g.edges() {
		pu, okU := pos[e[0]]
		pv, okV := pos[e[1]]
		if okU && okV {
			assert.Less(t, pu, pv, "%s must precede %s", e[0], e[1])
		}
	}
}

func TestOrderWaitsForAllParents(t *testing.T) {
	// d has three parents; the DFS reaches it first through b but may only
	// discover it after c and y.
	g := graph("a->b", "a->c", "a->x", "b->d", "c->d", "x->y", "y->d")
	assert.Equal(t, []string{"a", "b", "c", "x", "y", "d"}, Order[string](g, Options[string]{}))
}

func TestOrderDepthAndBranching(t *testing.T) {
	g := graph(
		"root->l1a", "root->l1b",
		"l1a->l2a", "l1a->l2b", "l1b->l2b", "l1b->l2c",
		"l2a->l3", "l2b->l3", "l2c->l3b",
		"l3->l4", "l3b->l4", "root->l4",
		"l4->l5",
	)
	order := Order[string](g, Options[string]{})
	assert.Len(t, order, len(g.order))
	assertDependencyOrder(t, g, order)
}

func TestSortSiblings(t *testing.T) {
	g := graph("a->c", "a->b", "b->d", "c->d")
	reverse := func(vs []string) { slices.Sort(vs); slices.Reverse(vs) }
	sorted := func(vs []string) { slices.Sort(vs) }

	tests := []struct {
		name string
		sort func([]string)
		want []string
	}{
		{"structural", nil, []string{"a", "c", "b", "d"}},
		{"ascending", sorted, []string{"a", "b", "c", "d"}},
		{"descending", reverse, []string{"a", "c", "b", "d"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Order[string](g, Options[string]{SortSiblings: tt.sort})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStartSetIsSorted(t *testing.T) {
	g := graph("z", "m", "a")
	got := Order[string](g, Options[string]{SortSiblings: func(vs []string) { slices.Sort(vs) }})
	assert.Equal(t, []string{"a", "m", "z"}, got)
}

func TestFilterInducesSubgraph(t *testing.T) {
	g := graph("a->b", "b->c", "a->c", "c->d", "x->d")
	keep := map[string]bool{"b": true, "c": true, "d": true}
	got := Order[string](g, Options[string]{Filter: func(v string) bool { return keep[v] }})
	assert.Equal(t, []string{"b", "c", "d"}, got)
}

func TestExplicitStart(t *testing.T) {
	g := graph("a->b", "b->c", "x->c", "c->d")
	got := Order[string](g, Options[string]{Start: []string{"b"}})
	assert.Equal(t, []string{"b", "c", "d"}, got, "x is outside the walked scope")
}

func TestFinishIsPostOrder(t *testing.T) {
	g := graph("a->b", "b->c", "a->d")
	var events []string
	err := Walk[string](g, Options[string]{}, Funcs[string]{
		OnDiscover: func(v string) error { events = append(events, "+"+v); return nil },
		OnFinish:   func(v string) error { events = append(events, "-"+v); return nil },
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"+a", "+b", "+c", "-c", "-b", "+d", "-d", "-a"}, events)
}

func TestStopAndErrors(t *testing.T) {
	g := graph("a->b", "b->c")
	var seen []string
	err := Walk[string](g, Options[string]{}, Funcs[string]{OnDiscover: func(v string) error {
		seen = append(seen, v)
		if v == "b" {
			return ErrStop
		}
		return nil
	}})
	assert.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, seen)

	boom := errors.New("boom")
	err = Walk[string](g, Options[string]{}, Funcs[string]{OnFinish: func(v string) error {
		if v == "c" {
			return boom
		}
		return nil
	}})
	assert.ErrorIs(t, err, boom)
}

func TestDeepChain(t *testing.T) {
	var edges []string
	for i := 0; i < 5000; i++ {
		edges = append(edges, fmt.Sprintf("v%d->v%d", i, i+1))
	}
	g := graph(edges...)
	order := Order[string](g, Options[string]{})
	assert.Len(t, order, 5001)
	assert.Equal(t, "v5000", order[len(order)-1])
}

func TestCycleIsNotVisited(t *testing.T) {
	g := graph("a->b", "b->c", "c->b", "a->d")
	assert.Equal(t, []string{"a", "d"}, Order[string](g, Options[string]{}))
}

func TestRandomDAGs(t *testing.T) {
	for seed := int64(1); seed <= 50; seed++ {
		rng := rand.New(rand.NewSource(seed))
		n := 5 + rng.Intn(25)
		var edges []string
		for v := 0; v < n; v++ {
			edges = append(edges, fmt.Sprintf("n%02d", v))
		}
		for u := 0; u < n; u++ {
			for v := u + 1; v < n; v++ {
				if rng.Float64() < 0.2 {
					edges = append(edges, fmt.Sprintf("n%02d->n%02d", u, v))
				}
			}
		}
		g := graph(edges...)
		order := Order[string](g, Options[string]{})
		assert.Len(t, order, n, "seed %d", seed)
		assertDependencyOrder(t, g, order)
	}
}

func TestLayers(t *testing.T) {
	g := graph("a->b", "a->c", "b->d", "c->d", "a->d", "e")
	got := Layers[string](g, Options[string]{})
	assert.Equal(t, [][]string{{"a", "e"}, {"b", "c"}, {"d"}}, got)

	got = Layers[string](g, Options[string]{Filter: func(v string) bool { return v != "a" }})
	assert.Equal(t, [][]string{{"b", "c", "e"}, {"d"}}, got)
}
