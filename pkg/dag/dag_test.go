package dag

import (
	"context"
	"slices"
	"testing"

	"github.com/cadseer/cadseer/pkg/errors"
	"github.com/cadseer/cadseer/pkg/feature"
	"github.com/cadseer/cadseer/pkg/stableid"
)

type stub struct{ feature.Base }

func (*stub) Update(context.Context, *feature.Payload) error { return nil }

func newStub(name string) *stub {
	return &stub{Base: feature.NewBase(stableid.Nil, name, "stub")}
}

func mustAdd(t *testing.T, g *Graph, name string) Vertex {
	t.Helper()
	v, err := g.AddFeature(newStub(name))
	if err != nil {
		t.Fatalf("AddFeature(%s): %v", name, err)
	}
	return v
}

func mustConnect(t *testing.T, g *Graph, p, c Vertex, roles ...feature.InputType) Edge {
	t.Helper()
	e, err := g.Connect(p, c, feature.NewTags(roles...))
	if err != nil {
		t.Fatalf("Connect(%s, %s): %v", p, c, err)
	}
	return e
}

func names(g *Graph, vs []Vertex) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = g.Feature(v).Name()
	}
	return out
}

func TestAddFeature(t *testing.T) {
	g := New()
	f := newStub("box")
	v, err := g.AddFeature(f)
	if err != nil {
		t.Fatalf("AddFeature: %v", err)
	}
	if v.IsZero() {
		t.Fatal("AddFeature returned the zero handle")
	}
	if got := g.State(v); got != feature.ModelDirty {
		t.Errorf("State = %v, want %v", got, feature.ModelDirty)
	}
	if got, ok := g.Vertex(f.ID()); !ok || got != v {
		t.Errorf("Vertex(id) = %v, %v, want %v, true", got, ok, v)
	}
	if got, ok := g.FindFeature(f.ID()); !ok || got != f {
		t.Errorf("FindFeature(id) = %v, %v", got, ok)
	}

	if _, err := g.AddFeature(f); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("duplicate AddFeature error = %v, want INVALID_INPUT", err)
	}
	if _, err := g.AddFeature(nil); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("nil AddFeature error = %v, want INVALID_INPUT", err)
	}
	if g.Len() != 1 {
		t.Errorf("Len = %d, want 1", g.Len())
	}
}

func TestConnect(t *testing.T) {
	tests := []struct {
		name string
		from string
		to   string
		tags feature.Tags
		want errors.Code
	}{
		{"new edge", "a", "d", feature.NewTags(feature.InputTool), ""},
		{"no roles", "a", "d", nil, errors.ErrCodeInvalidInput},
		{"self loop", "a", "a", feature.NewTags(feature.InputTool), errors.ErrCodeCycle},
		{"direct cycle", "b", "a", feature.NewTags(feature.InputTool), errors.ErrCodeCycle},
		{"long cycle", "c", "a", feature.NewTags(feature.InputTool), errors.ErrCodeCycle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New()
			vs := map[string]Vertex{}
			for _, n := range []string{"a", "b", "c", "d"} {
				vs[n] = mustAdd(t, g, n)
			}
			mustConnect(t, g, vs["a"], vs["b"], feature.InputTarget)
			mustConnect(t, g, vs["b"], vs["c"], feature.InputTarget)

			_, err := g.Connect(vs[tt.from], vs[tt.to], tt.tags)
			if tt.want == "" {
				if err != nil {
					t.Fatalf("Connect: %v", err)
				}
				if g.EdgeCount() != 3 {
					t.Errorf("EdgeCount = %d, want 3", g.EdgeCount())
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("Connect error = %v, want %s", err, tt.want)
			}
			if g.EdgeCount() != 2 {
				t.Errorf("EdgeCount after failed Connect = %d, want 2", g.EdgeCount())
			}
			if err := g.Validate(); err != nil {
				t.Errorf("Validate after failed Connect: %v", err)
			}
		})
	}
}

func TestConnectMergesTags(t *testing.T) {
	g := New()
	a, b := mustAdd(t, g, "a"), mustAdd(t, g, "b")
	e1 := mustConnect(t, g, a, b, feature.InputTool)
	e2 := mustConnect(t, g, a, b, feature.InputTarget)

	if e1 != e2 {
		t.Errorf("second Connect returned %v, want the existing edge %v", e2, e1)
	}
	if g.EdgeCount() != 1 {
		t.Errorf("EdgeCount = %d, want 1", g.EdgeCount())
	}
	_, _, tags, err := g.EdgeInfo(e1)
	if err != nil {
		t.Fatalf("EdgeInfo: %v", err)
	}
	if got := tags.String(); got != "Target,Tool" {
		t.Errorf("tags = %q, want %q", got, "Target,Tool")
	}
}

func TestConnectDirtiesChild(t *testing.T) {
	g := New()
	a, b := mustAdd(t, g, "a"), mustAdd(t, g, "b")
	_ = g.ClearState(b, feature.ModelDirty)

	e := mustConnect(t, g, a, b, feature.InputTarget)
	if !g.State(b).Has(feature.ModelDirty) {
		t.Error("child not dirty after Connect")
	}

	_ = g.ClearState(b, feature.ModelDirty)
	if err := g.Disconnect(e); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}
	if !g.State(b).Has(feature.ModelDirty) {
		t.Error("child not dirty after Disconnect")
	}
	if err := g.Disconnect(e); !errors.Is(err, errors.ErrCodeStaleVertex) {
		t.Errorf("second Disconnect error = %v, want STALE_VERTEX", err)
	}
	if got := g.Parents(b); len(got) != 0 {
		t.Errorf("Parents after Disconnect = %v, want none", got)
	}
}

func TestRemoveFeature(t *testing.T) {
	g := New()
	a, b, c := mustAdd(t, g, "a"), mustAdd(t, g, "b"), mustAdd(t, g, "c")
	mustConnect(t, g, a, b, feature.InputTarget)
	mustConnect(t, g, b, c, feature.InputTarget)
	_ = g.ClearState(c, feature.ModelDirty)

	id := g.Feature(b).ID()
	if err := g.RemoveFeature(b); err != nil {
		t.Fatalf("RemoveFeature: %v", err)
	}

	if g.Alive(b) {
		t.Error("removed vertex still alive")
	}
	if g.Feature(b) == nil {
		t.Error("Feature of a removed vertex = nil before Compact")
	}
	if _, ok := g.Vertex(id); ok {
		t.Error("removed feature still found by id")
	}
	if !g.State(c).Has(feature.ModelDirty) {
		t.Error("child of removed feature not dirty")
	}
	if g.EdgeCount() != 0 {
		t.Errorf("EdgeCount = %d, want 0", g.EdgeCount())
	}
	if _, err := g.Connect(a, b, feature.NewTags(feature.InputTool)); !errors.Is(err, errors.ErrCodeDeadVertex) {
		t.Errorf("Connect to removed vertex error = %v, want DEAD_VERTEX", err)
	}
	if err := g.RemoveFeature(b); !errors.Is(err, errors.ErrCodeDeadVertex) {
		t.Errorf("second RemoveFeature error = %v, want DEAD_VERTEX", err)
	}

	if n := g.Compact(); n != 1 {
		t.Errorf("Compact = %d, want 1", n)
	}
	if err := g.Check(b); !errors.Is(err, errors.ErrCodeStaleVertex) {
		t.Errorf("Check after Compact = %v, want STALE_VERTEX", err)
	}
	if g.Feature(b) != nil {
		t.Error("Feature of a compacted vertex != nil")
	}

	d := mustAdd(t, g, "d")
	if d.index != b.index {
		t.Errorf("new vertex slot = %d, want recycled slot %d", d.index, b.index)
	}
	if err := g.Check(b); !errors.Is(err, errors.ErrCodeStaleVertex) {
		t.Errorf("old handle after slot reuse = %v, want STALE_VERTEX", err)
	}
	if got, want := names(g, g.Vertices()), []string{"a", "c", "d"}; !slices.Equal(got, want) {
		t.Errorf("Vertices = %v, want %v", got, want)
	}
}

func TestZeroHandle(t *testing.T) {
	g := New()
	mustAdd(t, g, "a")
	if err := g.Check(Vertex{}); !errors.Is(err, errors.ErrCodeStaleVertex) {
		t.Errorf("Check(zero) = %v, want STALE_VERTEX", err)
	}
	if g.State(Vertex{}) != 0 {
		t.Error("State(zero) != 0")
	}
}

func TestPassFreezesStructure(t *testing.T) {
	g := New()
	a, b := mustAdd(t, g, "a"), mustAdd(t, g, "b")
	e := mustConnect(t, g, a, b, feature.InputTarget)

	g.BeginPass()
	checks := map[string]error{
		"AddFeature":     func() error { _, err := g.AddFeature(newStub("c")); return err }(),
		"Connect":        func() error { _, err := g.Connect(b, a, feature.NewTags(feature.InputTool)); return err }(),
		"Disconnect":     g.Disconnect(e),
		"DisconnectPair": g.DisconnectPair(a, b),
		"RemoveFeature":  g.RemoveFeature(a),
	}
	for op, err := range checks {
		if !errors.Is(err, errors.ErrCodePrecondition) {
			t.Errorf("%s during pass = %v, want PRECONDITION", op, err)
		}
	}
	if err := g.SetState(b, feature.Success); err != nil {
		t.Errorf("SetState during pass: %v", err)
	}
	g.EndPass()

	if g.InPass() {
		t.Error("InPass after EndPass")
	}
	if err := g.RemoveFeature(a); err != nil {
		t.Errorf("RemoveFeature after EndPass: %v", err)
	}
}

func TestStateHelpers(t *testing.T) {
	g := New()
	v := mustAdd(t, g, "a")

	if !g.IsActive(v) || !g.IsLeaf(v) {
		t.Fatal("new vertex should be active and a leaf")
	}
	_ = g.SetInactive(v)
	_ = g.SetNonLeaf(v)
	if g.IsActive(v) || g.IsLeaf(v) {
		t.Error("SetInactive/SetNonLeaf had no effect")
	}
	_ = g.SetActive(v)
	_ = g.SetLeaf(v)
	if !g.IsActive(v) || !g.IsLeaf(v) {
		t.Error("SetActive/SetLeaf had no effect")
	}

	_ = g.ClearState(v, feature.ModelDirty)
	_ = g.SetSkipped(v, true)
	if st := g.State(v); !st.Has(feature.Skipped) || !st.Has(feature.ModelDirty) {
		t.Errorf("State after SetSkipped(true) = %v", st)
	}
	_ = g.ClearState(v, feature.ModelDirty)
	_ = g.SetSkipped(v, false)
	if st := g.State(v); st.Has(feature.Skipped) || !st.Has(feature.ModelDirty) {
		t.Errorf("State after SetSkipped(false) = %v", st)
	}

	g.AppendLog(v, "first")
	g.AppendLog(v, "second")
	if got := g.Log(v); !slices.Equal(got, []string{"first", "second"}) {
		t.Errorf("Log = %v", got)
	}
	g.ClearLog(v)
	if got := g.Log(v); len(got) != 0 {
		t.Errorf("Log after ClearLog = %v", got)
	}
}

func TestEvents(t *testing.T) {
	g := New()
	var kinds []EventKind
	var last Event
	unsubscribe := g.Subscribe(ObserverFunc(func(e Event) {
		kinds = append(kinds, e.Kind)
		last = e
	}))

	a, b := mustAdd(t, g, "a"), mustAdd(t, g, "b")
	_ = g.ClearState(b, feature.ModelDirty)
	_ = g.ClearState(b, feature.ModelDirty)
	mustConnect(t, g, a, b, feature.InputTool)

	want := []EventKind{FeatureAdded, FeatureAdded, StateChanged, ConnectionAdded, StateChanged}
	if !slices.Equal(kinds, want) {
		t.Errorf("events = %v, want %v", kinds, want)
	}
	if last.Feature != g.Feature(b).ID() || last.State != feature.ModelDirty {
		t.Errorf("last event = %+v", last)
	}

	unsubscribe()
	_ = g.RemoveFeature(a)
	if len(kinds) != len(want) {
		t.Errorf("received %d events after unsubscribe", len(kinds)-len(want))
	}
}

func TestConnectionEventCarriesEndpoints(t *testing.T) {
	g := New()
	a, b := mustAdd(t, g, "a"), mustAdd(t, g, "b")
	mustConnect(t, g, a, b, feature.InputTarget)

	var got []Event
	g.Subscribe(ObserverFunc(func(e Event) { got = append(got, e) }))
	if err := g.RemoveFeature(a); err != nil {
		t.Fatal(err)
	}

	if len(got) == 0 || got[0].Kind != ConnectionRemoved {
		t.Fatalf("events = %v, want ConnectionRemoved first", got)
	}
	if got[0].Parent != g.Feature(a).ID() || got[0].Child != g.Feature(b).ID() {
		t.Errorf("endpoints = %s -> %s", got[0].Parent, got[0].Child)
	}
	if got[len(got)-1].Kind != FeatureRemoved {
		t.Errorf("last event = %v, want FeatureRemoved", got[len(got)-1].Kind)
	}
}

func TestAdjacency(t *testing.T) {
	g := New()
	a, b, c := mustAdd(t, g, "a"), mustAdd(t, g, "b"), mustAdd(t, g, "c")
	mustConnect(t, g, a, c, feature.InputTarget)
	mustConnect(t, g, b, c, feature.InputTool)

	if got, want := names(g, g.Parents(c)), []string{"a", "b"}; !slices.Equal(got, want) {
		t.Errorf("Parents = %v, want %v", got, want)
	}
	if got, want := names(g, g.Children(a)), []string{"c"}; !slices.Equal(got, want) {
		t.Errorf("Children = %v, want %v", got, want)
	}
	if got := len(g.InEdges(c)); got != 2 {
		t.Errorf("InEdges = %d, want 2", got)
	}
	if got := len(g.OutEdges(c)); got != 0 {
		t.Errorf("OutEdges = %d, want 0", got)
	}
	if err := g.DisconnectPair(a, c); err != nil {
		t.Fatalf("DisconnectPair: %v", err)
	}
	if got, want := names(g, g.Parents(c)), []string{"b"}; !slices.Equal(got, want) {
		t.Errorf("Parents after DisconnectPair = %v, want %v", got, want)
	}
	if got := len(g.AllFeatureIDs()); got != 3 {
		t.Errorf("AllFeatureIDs = %d, want 3", got)
	}
}

func TestEventKindString(t *testing.T) {
	tests := []struct {
		kind EventKind
		want string
	}{
		{FeatureAdded, "feature-added"},
		{ConnectionRemoved, "connection-removed"},
		{EventKind(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
