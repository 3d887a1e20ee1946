package history

import (
	"encoding/json"

	"github.com/cadseer/cadseer/pkg/errors"
	"github.com/cadseer/cadseer/pkg/stableid"
)

// wireNode and wireEdge are the serialized form of a history. Ordered lists
// keep the encoding stable, which matters for picks stored in project files.
type wireNode struct {
	ID     stableid.ID   `json:"id"`
	Owners []stableid.ID `json:"owners,omitempty"`
}

type wireEdge struct {
	Child  stableid.ID `json:"child"`
	Parent stableid.ID `json:"parent"`
}

type wireHistory struct {
	Root  stableid.ID `json:"root"`
	Nodes []wireNode  `json:"nodes"`
	Edges []wireEdge  `json:"edges,omitempty"`
}

// MarshalJSON encodes the history as ordered node and edge lists.
func (h *History) MarshalJSON() ([]byte, error) {
	w := wireHistory{Root: h.root, Nodes: make([]wireNode, len(h.nodes))}
	for i, n := range h.nodes {
		w.Nodes[i] = wireNode{ID: n.id, Owners: n.owners}
	}
	for _, e := range h.Edges() {
		w.Edges = append(w.Edges, wireEdge{Child: e[0], Parent: e[1]})
	}
	return json.Marshal(w)
}

// UnmarshalJSON replaces h with the decoded history.
func (h *History) UnmarshalJSON(data []byte) error {
	var w wireHistory
	if err := json.Unmarshal(data, &w); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidModel, err, "decode history")
	}
	*h = *New()
	h.root = w.Root
	for _, n := range w.Nodes {
		if n.ID.IsNil() {
			return errors.New(errors.ErrCodeInvalidModel, "decode history: nil node id")
		}
		h.ensure(n.ID)
		for _, owner := range n.Owners {
			h.AddShape(owner, n.ID)
		}
	}
	for _, e := range w.Edges {
		if !h.HasShape(e.Child) || !h.HasShape(e.Parent) {
			return errors.New(errors.ErrCodeInvalidModel, "decode history: edge %s -> %s references unknown node", e.Child.Short(), e.Parent.Short())
		}
		h.AddConnection(e.Child, e.Parent)
	}
	return nil
}
