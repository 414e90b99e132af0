package permissions

import (
	"encoding/json"
	"sort"

	"github.com/valinor-ai/navgate/internal/pathmap"
)

// Set is an unordered collection of role ids or path templates.
type Set map[string]struct{}

func newSet(items ...string) Set {
	s := make(Set, len(items))
	for _, it := range items {
		s[it] = struct{}{}
	}
	return s
}

// Has reports membership. A nil set contains nothing.
func (s Set) Has(item string) bool {
	_, ok := s[item]
	return ok
}

// Sorted returns the members in lexical order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// MarshalJSON encodes the set as a sorted array.
func (s Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// Equal reports whether both sets hold the same members.
func (s Set) Equal(other Set) bool {
	if len(s) != len(other) {
		return false
	}
	for k := range s {
		if !other.Has(k) {
			return false
		}
	}
	return true
}

// Maps holds the lookup tables derived from a path map. A built Maps value
// is never mutated.
type Maps struct {
	PathToViewRoles   map[string]Set `json:"pathToViewRoles"`
	PathToActionRoles map[string]Set `json:"pathToActionRoles"`
	RoleToPaths       map[string]Set `json:"roleToPaths"`
}

// ViewRoles returns the roles allowed to view template.
func (m *Maps) ViewRoles(template string) Set {
	return m.PathToViewRoles[template]
}

// ActionRoles returns the roles allowed to act on template.
func (m *Maps) ActionRoles(template string) Set {
	return m.PathToActionRoles[template]
}

// PathsFor returns the templates reachable by role through either list.
func (m *Maps) PathsFor(role string) Set {
	return m.RoleToPaths[role]
}

// Build derives the permission maps from paths. Role lists are copied
// verbatim; wildcard or super-admin roles are not expanded.
func Build(paths *pathmap.Map) *Maps {
	m := &Maps{
		PathToViewRoles:   make(map[string]Set, paths.Len()),
		PathToActionRoles: make(map[string]Set, paths.Len()),
		RoleToPaths:       make(map[string]Set),
	}
	for _, e := range paths.Entries() {
		m.PathToViewRoles[e.Template] = newSet(e.ViewRoles...)
		m.PathToActionRoles[e.Template] = newSet(e.ActionRoles...)

		for _, roles := range [][]string{e.ViewRoles, e.ActionRoles} {
			for _, r := range roles {
				set := m.RoleToPaths[r]
				if set == nil {
					set = make(Set)
					m.RoleToPaths[r] = set
				}
				set[e.Template] = struct{}{}
			}
		}
	}
	return m
}
