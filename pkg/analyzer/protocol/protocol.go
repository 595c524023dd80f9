// Package protocol finds protocols that are only ever conformed to.
//
// A protocol is redundant when it is never used as a type and its requirements
// are never called through it. The conformance clauses are then its only
// references and can be removed together with the protocol.
package protocol

import (
	"context"
	"slices"

	"github.com/panbanda/sweep/pkg/analyzer"
	"github.com/panbanda/sweep/pkg/graph"
)

// Compile-time check that Analyzer implements GraphAnalyzer.
var _ analyzer.GraphAnalyzer[[]Redundancy] = (*Analyzer)(nil)

// Redundancy is a redundant protocol with the conformance references that can
// be removed along with it.
type Redundancy struct {
	Protocol    *graph.Declaration
	Conformance []*graph.Reference
}

// Analyzer detects redundant protocols among reachable declarations.
type Analyzer struct{}

// New creates a redundant protocol analyzer.
func New() *Analyzer {
	return &Analyzer{}
}

// Analyze returns the redundant protocols in ID order; conformance references
// are sorted by location.
func (a *Analyzer) Analyze(ctx context.Context, g *graph.Graph) ([]Redundancy, error) {
	var out []Redundancy
	for _, d := range g.Declarations() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if d.Kind != graph.KindProtocol || !g.IsReachable(d) {
			continue
		}
		if conformance, ok := redundant(g, d); ok {
			out = append(out, Redundancy{Protocol: d, Conformance: conformance})
		}
	}
	return out, nil
}

func redundant(g *graph.Graph, proto *graph.Declaration) ([]*graph.Reference, bool) {
	var conformance []*graph.Reference
	for _, r := range g.ReferencesTo(proto) {
		if r.Role != graph.RoleConformance {
			return nil, false
		}
		// Refinement by another protocol is polymorphic use
		if r.Parent != nil && r.Parent.Kind.IsProtocol() {
			return nil, false
		}
		conformance = append(conformance, r)
	}
	if len(conformance) == 0 {
		return nil, false
	}

	for _, member := range proto.Children {
		for _, r := range g.ReferencesTo(member) {
			if r.Role != graph.RoleOverride && r.Role != graph.RoleConformance {
				return nil, false
			}
		}
	}

	slices.SortFunc(conformance, func(a, b *graph.Reference) int {
		return a.Location.Compare(b.Location)
	})
	return conformance, true
}
