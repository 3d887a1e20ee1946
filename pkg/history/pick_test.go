package history

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadseer/cadseer/pkg/errors"
	"github.com/cadseer/cadseer/pkg/stableid"
)

func TestPickSurvivesRebuild(t *testing.T) {
	box, fuse := stableid.New(), stableid.New()
	face, half1, half2 := stableid.New(), stableid.New(), stableid.New()

	first := New()
	first.AddShape(box, face)
	pick := NewPick(first, face)

	data, err := json.Marshal(pick)
	require.NoError(t, err)
	var loaded Pick
	require.NoError(t, json.Unmarshal(data, &loaded))
	assert.Equal(t, face, loaded.ID)

	// next pass: the face is split by a downstream fuse
	next := New()
	next.AddShape(box, face)
	next.AddShape(fuse, half1)
	next.AddShape(fuse, half2)
	next.AddConnection(half1, face)
	next.AddConnection(half2, face)

	assert.Equal(t, []stableid.ID{half1, half2}, loaded.Resolve(next, fuse))
	assert.Equal(t, []stableid.ID{face}, loaded.Resolve(next, box))
}

func TestPickDecodeErrors(t *testing.T) {
	var p Pick
	for _, raw := range []string{`{"id":""}`, `[]`} {
		err := json.Unmarshal([]byte(raw), &p)
		assert.Equal(t, errors.ErrCodeInvalidModel, errors.GetCode(err), "decoding %s: %v", raw, err)
	}

	id := stableid.New()
	require.NoError(t, json.Unmarshal([]byte(`{"id":"`+id.String()+`"}`), &p))
	assert.Equal(t, 1, p.History.Len())
	assert.Equal(t, id, p.History.Root())
}
