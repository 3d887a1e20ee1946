package feature

import "strings"

// State is the lifecycle of a feature graph vertex. Flags are independent;
// after an update attempt exactly one of Success and Failure is set.
type State uint32

const (
	// ModelDirty means the output is stale and the next recompute updates it.
	ModelDirty State = 1 << iota
	// VisualDirty means the output changed since it was last displayed.
	VisualDirty
	// Failure means the last update returned an error.
	Failure
	// Success means the last update succeeded.
	Success
	// Inactive features are left out of recomputes and of leaf status.
	Inactive
	// NonLeaf features have active descendants and are hidden by default.
	NonLeaf
	// Skipped features pass their primary input through unchanged.
	Skipped
)

var stateNames = []struct {
	flag State
	name string
}{
	{ModelDirty, "ModelDirty"},
	{VisualDirty, "VisualDirty"},
	{Failure, "Failure"},
	{Success, "Success"},
	{Inactive, "Inactive"},
	{NonLeaf, "NonLeaf"},
	{Skipped, "Skipped"},
}

// Has reports whether every flag of f is set.
func (s State) Has(f State) bool { return s&f == f }

// Set returns s with the flags of f set.
func (s State) Set(f State) State { return s | f }

// Clear returns s with the flags of f cleared.
func (s State) Clear(f State) State { return s &^ f }

// String lists the set flags joined by "|", or "0" when none is set.
func (s State) String() string {
	var parts []string
	for _, n := range stateNames {
		if s.Has(n.flag) {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return "0"
	}
	return strings.Join(parts, "|")
}
