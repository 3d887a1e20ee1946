package feature

import (
	"slices"
	"strings"
)

// InputType names the role a parent plays for a child: the target of a
// boolean, one of its tools, the coordinate system a primitive is linked to.
// Features may define their own roles beyond the well-known ones.
type InputType string

const (
	InputTarget   InputType = "Target"
	InputTool     InputType = "Tool"
	InputCreate   InputType = "Create"
	InputInsert   InputType = "Insert"
	InputLinkCSys InputType = "LinkCSys"
	InputBlend    InputType = "Blend"
)

// Tags is a sorted, duplicate free set of roles. A graph edge carries one
// Tags value, so a parent serves several roles to one child through one edge.
type Tags []InputType

// NewTags builds a set from roles, dropping blanks and duplicates.
func NewTags(roles ...InputType) Tags {
	t := make(Tags, 0, len(roles))
	for _, r := range roles {
		if r != "" {
			t = append(t, r)
		}
	}
	slices.Sort(t)
	return slices.Compact(t)
}

// Has reports whether role is in the set.
func (t Tags) Has(role InputType) bool {
	_, ok := slices.BinarySearch(t, role)
	return ok
}

// Intersects reports whether t and other share a role.
func (t Tags) Intersects(other Tags) bool {
	for _, r := range other {
		if t.Has(r) {
			return true
		}
	}
	return false
}

// Union returns the roles of both sets.
func (t Tags) Union(other Tags) Tags {
	return NewTags(append(slices.Clone(t), other...)...)
}

// String joins the roles with ",".
func (t Tags) String() string {
	parts := make([]string, len(t))
	for i, r := range t {
		parts[i] = string(r)
	}
	return strings.Join(parts, ",")
}

// ParseTags reads a comma separated role list.
func ParseTags(s string) Tags {
	var roles []InputType
	for _, part := range strings.Split(s, ",") {
		roles = append(roles, InputType(strings.TrimSpace(part)))
	}
	return NewTags(roles...)
}
