package correlate

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadseer/cadseer/pkg/errors"
	"github.com/cadseer/cadseer/pkg/geom"
	"github.com/cadseer/cadseer/pkg/geom/memgeom"
	"github.com/cadseer/cadseer/pkg/history"
	"github.com/cadseer/cadseer/pkg/observability"
	"github.com/cadseer/cadseer/pkg/shape"
	"github.com/cadseer/cadseer/pkg/stableid"
)

func identified(eng *memgeom.Engine, root geom.Shape, gen stableid.Generator) *shape.Store {
	s := shape.New()
	s.SetRoot(eng, root)
	s.EnsureNoNils(gen)
	return s
}

func relations(ops []*memgeom.Op) []geom.Relation {
	out := make([]geom.Relation, len(ops))
	for i, op := range ops {
		out[i] = op
	}
	return out
}

type countingIntegrity struct {
	observability.NoopIntegrityHooks
	nils, dups int
}

func (c *countingIntegrity) OnNilRepaired(_ context.Context, _ string, n int)       { c.nils += n }
func (c *countingIntegrity) OnDuplicateRepaired(_ context.Context, _ string, n int) { c.dups += n }

func TestFinishRepairsAndRecords(t *testing.T) {
	rec := &countingIntegrity{}
	eng := memgeom.New()
	out := shape.New()
	out.SetRoot(eng, eng.Box())
	faces := out.ShapesOfKind(geom.KindFace)
	dup := stableid.New()
	out.UpdateID(faces[0], dup)
	out.UpdateID(faces[1], dup)

	h := history.New()
	feature := stableid.New()
	err := Finish(context.Background(), out, Options{History: h, Integrity: rec, FeatureID: feature, FeatureName: "box"})
	require.NoError(t, err)

	assert.Empty(t, out.Nils())
	assert.Empty(t, out.Duplicates())
	assert.Equal(t, 1, rec.dups)
	assert.Equal(t, 32, rec.nils)
	assert.Equal(t, 34, h.Len())
	assert.True(t, h.BelongsTo(feature, out.RootID()))
}

func TestFinishUsesOwnHooks(t *testing.T) {
	global := &countingIntegrity{}
	observability.SetIntegrityHooks(global)
	defer observability.Reset()

	eng := memgeom.New()
	own := &countingIntegrity{}
	a := shape.New()
	a.SetRoot(eng, eng.Box())
	require.NoError(t, Finish(context.Background(), a, Options{Integrity: own, FeatureName: "a"}))
	assert.Equal(t, 34, own.nils)
	assert.Zero(t, global.nils)

	b := shape.New()
	b.SetRoot(eng, eng.Box())
	require.NoError(t, Finish(context.Background(), b, Options{FeatureName: "b"}))
	assert.Equal(t, 34, global.nils)
	assert.Equal(t, 34, own.nils)
}

type fuseRun struct {
	eng          *memgeom.Engine
	box, tool    *memgeom.Shape
	target, tstr *shape.Store
	h            *history.History
	boxF, toolF  stableid.ID
}

func newFuseRun(gen stableid.Generator) *fuseRun {
	r := &fuseRun{eng: memgeom.New(), h: history.New(), boxF: gen.New(), toolF: gen.New()}
	r.box, r.tool = r.eng.Box(), r.eng.Box()
	r.target = identified(r.eng, r.box, gen)
	r.tstr = identified(r.eng, r.tool, gen)
	r.target.RecordHistory(r.h, r.boxF)
	r.tstr.RecordHistory(r.h, r.toolF)
	return r
}

func (r *fuseRun) fuse(t *testing.T, m *BooleanIDMapper, out *shape.Store, opts Options) *memgeom.Shape {
	t.Helper()
	fused, op := r.eng.Fuse(r.box, r.tool)
	out.SetRoot(r.eng, fused)
	err := m.Map(context.Background(), out, BooleanInputs{
		Targets:  []*shape.Store{r.target},
		Tools:    []*shape.Store{r.tstr},
		Relation: op,
	}, opts)
	require.NoError(t, err)
	return fused
}

func TestBooleanIDMapper(t *testing.T) {
	gen := stableid.NewSeeded(11)
	r := newFuseRun(gen)
	fuseF := gen.New()
	opts := Options{Explorer: r.eng, History: r.h, Generator: gen, FeatureID: fuseF, FeatureName: "fuse"}

	m := NewBooleanIDMapper()
	out := shape.New()
	fused := r.fuse(t, m, out, opts)
	require.NoError(t, out.Validate())

	t.Run("modified face keeps its id", func(t *testing.T) {
		src, _ := r.eng.Find(r.box, geom.KindFace, "XP")
		dst, _ := r.eng.Find(fused, geom.KindFace, "XP")
		want, _ := r.target.FindID(src)
		got, _ := out.FindID(dst)
		assert.Equal(t, want, got)
	})

	t.Run("shared edges pass through", func(t *testing.T) {
		src, _ := r.eng.Find(r.box, geom.KindEdge, "E01")
		want, _ := r.target.FindID(src)
		got, ok := out.FindID(src)
		require.True(t, ok)
		assert.Equal(t, want, got)
	})

	t.Run("split face resolves to both pieces", func(t *testing.T) {
		split, _ := r.eng.Find(r.tool, geom.KindFace, "XN")
		splitID, _ := r.tstr.FindID(split)
		pick := history.NewPick(r.h, splitID)

		// the seam generated from the face resolves too; keep the faces
		var pieces []stableid.ID
		for _, id := range pick.Resolve(r.h, fuseF) {
			if sh, ok := out.FindShape(id); ok && sh.Kind() == geom.KindFace {
				pieces = append(pieces, id)
			}
		}
		assert.Len(t, pieces, 2)
		assert.NotContains(t, pieces, splitID)
	})

	t.Run("seam is named after its generators", func(t *testing.T) {
		seam, ok := r.eng.Find(fused, geom.KindEdge, "seam")
		require.True(t, ok)
		id, _ := out.FindID(seam)
		assert.Len(t, out.EvolveReverse(id), 2)
	})

	t.Run("solid keeps the target id", func(t *testing.T) {
		assert.Equal(t, r.target.RootID(), out.RootID())
	})
}

func TestBooleanIDMapperIsStable(t *testing.T) {
	gen := stableid.NewSeeded(5)
	r := newFuseRun(gen)
	opts := Options{Explorer: r.eng, Generator: gen, FeatureID: gen.New()}

	m := NewBooleanIDMapper()
	out := shape.New()
	r.fuse(t, m, out, opts)
	first := out.IDs()

	r.fuse(t, m, out, opts)
	assert.Equal(t, first, out.IDs())

	// a restored mapper and store reproduce the ids as well
	data, err := json.Marshal(m.State())
	require.NoError(t, err)
	var st BooleanState
	require.NoError(t, json.Unmarshal(data, &st))
	restored := NewBooleanIDMapper()
	require.NoError(t, restored.Restore(st))

	fresh := shape.New()
	snap := out.Snapshot()
	require.NoError(t, fresh.Restore(r.eng, out.RootShape(), snap))
	r.fuse(t, restored, fresh, opts)
	assert.Equal(t, first, fresh.IDs())
}

func TestInstanceMapper(t *testing.T) {
	gen := stableid.NewSeeded(2)
	eng := memgeom.New()
	box := eng.Box()
	src := identified(eng, box, gen)
	h := history.New()
	srcF, patF := gen.New(), gen.New()
	src.RecordHistory(h, srcF)
	opts := Options{Explorer: eng, History: h, Generator: gen, FeatureID: patF}

	m := NewInstanceMapper()
	out := shape.New()
	compound, ops := eng.Pattern(box, 3)
	out.SetRoot(eng, compound)
	require.NoError(t, m.Map(context.Background(), out, src, relations(ops), opts))

	copies := eng.Children(compound)
	require.Len(t, copies, 3)
	var solids []stableid.ID
	for _, c := range copies {
		id, _ := out.FindID(c)
		solids = append(solids, id)
		assert.Equal(t, []stableid.ID{src.RootID()}, h.Parents(id))
	}
	assert.Len(t, stableid.NewSet(solids...), 3)

	// growing the pattern keeps the ids of existing instances
	compound, ops = eng.Pattern(box, 5)
	out.SetRoot(eng, compound)
	require.NoError(t, m.Map(context.Background(), out, src, relations(ops), Options{Explorer: eng, Generator: gen}))
	for i, c := range eng.Children(compound)[:3] {
		id, _ := out.FindID(c)
		assert.Equal(t, solids[i], id, "instance %d", i)
	}
	assert.Equal(t, solids[1], m.ID(src.RootID(), 1, gen))

	var st InstanceState
	data, err := json.Marshal(m.State())
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &st))
	restored := NewInstanceMapper()
	require.NoError(t, restored.Restore(st))
	assert.Equal(t, solids[2], restored.ID(src.RootID(), 2, gen))
}

func TestIntersectionMapperIsStable(t *testing.T) {
	gen := stableid.NewSeeded(9)
	eng := memgeom.New()
	a, b := eng.Box(), eng.Box()
	sa, sb := identified(eng, a, gen), identified(eng, b, gen)
	opts := Options{Explorer: eng, Generator: gen}

	m := NewIntersectionMapper()
	run := func(out *shape.Store) []stableid.ID {
		section, op := eng.Section(a, b)
		out.SetRoot(eng, section)
		require.NoError(t, m.Map(context.Background(), out, []*shape.Store{sa, sb}, op, opts))
		return out.IDs()
	}

	first := run(shape.New())
	assert.Len(t, first, 1+6+12)
	assert.Equal(t, first, run(shape.New()), "new section handles, same ids")

	restored := NewIntersectionMapper()
	require.NoError(t, restored.Restore(m.State()))
	m = restored
	assert.Equal(t, first, run(shape.New()))
}

func TestRestoreRejectsNilIDs(t *testing.T) {
	m := NewInstanceMapper()
	err := m.Restore(InstanceState{Instances: []IDList{{Source: stableid.New(), IDs: []stableid.ID{stableid.Nil}}}})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidModel), "got %v", err)

	b := NewBooleanIDMapper()
	err = b.Restore(BooleanState{Derived: []SetID{{ID: stableid.New()}}})
	assert.Error(t, err)
}

// Random stacks of fuses and patterns must always end with a complete,
// duplicate free id table.
func TestCorrelatorsLeaveNoNilsOrDuplicates(t *testing.T) {
	for seed := int64(1); seed <= 25; seed++ {
		t.Run(fmt.Sprintf("seed=%d", seed), func(t *testing.T) {
			rng := rand.New(rand.NewSource(seed))
			gen := stableid.NewSeeded(seed)
			eng := memgeom.New()
			opts := Options{Explorer: eng, Generator: gen}

			cur := eng.Box()
			curStore := identified(eng, cur, gen)
			for step := 0; step < 4; step++ {
				out := shape.New()
				if rng.Intn(2) == 0 {
					tools := make([]*memgeom.Shape, 1+rng.Intn(2))
					var toolStores []*shape.Store
					for i := range tools {
						tools[i] = eng.Box()
						toolStores = append(toolStores, identified(eng, tools[i], gen))
					}
					fused, op := eng.Fuse(cur, tools...)
					out.SetRoot(eng, fused)
					require.NoError(t, NewBooleanIDMapper().Map(context.Background(), out,
						BooleanInputs{Targets: []*shape.Store{curStore}, Tools: toolStores, Relation: op}, opts))
					cur = fused
				} else {
					compound, ops := eng.Pattern(cur, 1+rng.Intn(3))
					out.SetRoot(eng, compound)
					require.NoError(t, NewInstanceMapper().Map(context.Background(), out, curStore, relations(ops), opts))
					cur = compound
				}
				assert.Empty(t, out.Nils())
				assert.Empty(t, out.Duplicates())
				curStore = out
			}
		})
	}
}
