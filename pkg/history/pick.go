package history

import (
	"encoding/json"

	"github.com/cadseer/cadseer/pkg/errors"
	"github.com/cadseer/cadseer/pkg/stableid"
)

// Pick is a persisted selection of one sub-element: the picked id plus the
// devolve history it had when it was picked. A feature that references
// geometry of an upstream feature stores picks and resolves them against the
// current history on every update.
type Pick struct {
	ID      stableid.ID
	History *History
}

// NewPick records a selection of shapeID from the current history h.
func NewPick(h *History, shapeID stableid.ID) Pick {
	return Pick{ID: shapeID, History: h.CreateDevolveHistory(shapeID)}
}

// Resolve returns what the pick has become in featureID's output.
func (p Pick) Resolve(h *History, featureID stableid.ID) []stableid.ID {
	return h.ResolveHistories(p.History, featureID)
}

type wirePick struct {
	ID      stableid.ID `json:"id"`
	History *History    `json:"history"`
}

// MarshalJSON encodes the pick with its history.
func (p Pick) MarshalJSON() ([]byte, error) {
	return json.Marshal(wirePick{ID: p.ID, History: p.History})
}

// UnmarshalJSON decodes a pick. A pick without a history gets one holding
// only its id.
func (p *Pick) UnmarshalJSON(data []byte) error {
	var w wirePick
	if err := json.Unmarshal(data, &w); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidModel, err, "decode pick")
	}
	if w.ID.IsNil() {
		return errors.New(errors.ErrCodeInvalidModel, "decode pick: nil id")
	}
	if w.History == nil {
		w.History = New()
		w.History.root = w.ID
		w.History.ensure(w.ID)
	}
	p.ID, p.History = w.ID, w.History
	return nil
}
