package reachability

import (
	"slices"

	"github.com/panbanda/sweep/pkg/graph"
)

// DispatchResolver resolves dynamic dispatch from override references.
// A reachable protocol requirement or overridable member keeps every declaration
// that overrides or witnesses it, since any of them may be the runtime target.
type DispatchResolver struct {
	overriders map[uint32][]uint32 // base decl ID -> overriding decl IDs
	external   []uint32            // decls overriding a symbol outside the graph
}

// NewDispatchResolver indexes every override reference in g.
func NewDispatchResolver(g *graph.Graph) *DispatchResolver {
	v := &DispatchResolver{
		overriders: make(map[uint32][]uint32),
	}
	for _, r := range g.References() {
		if r.Role != graph.RoleOverride || r.Parent == nil {
			continue
		}
		bases := g.DeclarationsFor(r.USR)
		if len(bases) == 0 {
			v.external = append(v.external, r.Parent.ID)
			continue
		}
		for _, base := range bases {
			v.overriders[base.ID] = append(v.overriders[base.ID], r.Parent.ID)
		}
	}
	for id, ids := range v.overriders {
		slices.Sort(ids)
		v.overriders[id] = slices.Compact(ids)
	}
	slices.Sort(v.external)
	v.external = slices.Compact(v.external)
	return v
}

// Overriders returns the declarations that override or witness base.
func (v *DispatchResolver) Overriders(base uint32) []uint32 {
	return v.overriders[base]
}

// ExternalWitnesses returns declarations overriding symbols declared outside the
// graph, such as requirements of system protocols. The external caller may
// dispatch to them at any time.
func (v *DispatchResolver) ExternalWitnesses() []uint32 {
	return v.external
}
