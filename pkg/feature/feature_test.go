package feature

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadseer/cadseer/pkg/correlate"
	"github.com/cadseer/cadseer/pkg/errors"
	"github.com/cadseer/cadseer/pkg/shape"
	"github.com/cadseer/cadseer/pkg/stableid"
)

type stub struct{ Base }

func (s *stub) Update(context.Context, *Payload) error { return nil }

func newStub(name string) *stub { return &stub{Base: NewBase(stableid.Nil, name, "stub")} }

func TestBase(t *testing.T) {
	f := newStub("a")
	assert.True(t, f.ID().Valid())
	assert.Equal(t, "a", f.Name())
	assert.Equal(t, "stub", f.Descriptor())
	require.NotNil(t, f.Annexes())
	assert.Empty(t, f.Annexes().Kinds())

	f.SetName("b")
	assert.Equal(t, "b", f.Name())

	id := stableid.New()
	assert.Equal(t, id, (&stub{Base: NewBase(id, "c", "stub")}).ID())
}

func TestState(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{0, "0"},
		{ModelDirty, "ModelDirty"},
		{ModelDirty | Failure, "ModelDirty|Failure"},
		{Success | Inactive | Skipped, "Success|Inactive|Skipped"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}

	s := State(0).Set(ModelDirty | VisualDirty)
	assert.True(t, s.Has(ModelDirty))
	assert.True(t, s.Has(ModelDirty|VisualDirty))
	s = s.Clear(ModelDirty)
	assert.False(t, s.Has(ModelDirty))
	assert.True(t, s.Has(VisualDirty))
}

func TestTags(t *testing.T) {
	tags := NewTags(InputTool, InputTarget, InputTool, "")
	assert.Equal(t, Tags{InputTarget, InputTool}, tags)
	assert.True(t, tags.Has(InputTool))
	assert.False(t, tags.Has(InputBlend))
	assert.True(t, tags.Intersects(NewTags(InputBlend, InputTarget)))
	assert.False(t, tags.Intersects(NewTags(InputBlend)))
	assert.Equal(t, "Target,Tool", tags.String())
	assert.Equal(t, NewTags(InputBlend, InputTarget, InputTool), tags.Union(NewTags(InputBlend)))
	assert.Equal(t, tags, ParseTags(" Tool, Target"))
}

func TestPayload(t *testing.T) {
	target, tool1, tool2 := newStub("target"), newStub("tool1"), newStub("tool2")
	p := &Payload{Entries: []Entry{
		{Tag: InputTool, Feature: tool1},
		{Tag: InputTarget, Feature: target},
		{Tag: InputTool, Feature: tool2, Failed: true},
	}}

	assert.Len(t, p.ByTag(InputTool), 2)

	e, err := p.Single(InputTarget)
	require.NoError(t, err)
	assert.Equal(t, target, e.Feature)

	_, err = p.Single(InputTool)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))

	primary, ok := p.Primary()
	require.True(t, ok)
	assert.Equal(t, target, primary.Feature)

	assert.NoError(t, p.RequireHealthy(InputTarget))
	err = p.RequireHealthy(InputTool)
	assert.True(t, errors.Is(err, errors.ErrCodeInputFailed))
	assert.Contains(t, err.Error(), "tool2")
	assert.Error(t, p.RequireHealthy())

	_, ok = (&Payload{}).Primary()
	assert.False(t, ok)
}

func TestAnnexes(t *testing.T) {
	f := newStub("a")
	assert.Nil(t, ShapeOf(f))
	assert.Nil(t, ShapeOf(nil))

	store := shape.New()
	f.Annexes().SetShape(store)
	f.Annexes().SetBooleanMapper(correlate.NewBooleanIDMapper())
	f.Annexes().SetCSys(&CSys{Origin: [3]float64{1, 2, 3}})

	assert.Same(t, store, ShapeOf(f))
	assert.Equal(t, []AnnexKind{AnnexShape, AnnexCSysDragger, AnnexBooleanMapper}, f.Annexes().Kinds())
	assert.True(t, f.Annexes().Has(AnnexBooleanMapper))
	assert.False(t, f.Annexes().Has(AnnexInstanceMapper))
	_, ok := f.Annexes().InstanceMapper()
	assert.False(t, ok)
	assert.Equal(t, "IntersectionMapper", AnnexIntersectionMapper.String())
}
