// Package assignonly finds stored properties that are written but never read.
package assignonly

import (
	"context"

	"github.com/panbanda/sweep/pkg/analyzer"
	"github.com/panbanda/sweep/pkg/graph"
)

// Compile-time check that Analyzer implements GraphAnalyzer.
var _ analyzer.GraphAnalyzer[[]*graph.Declaration] = (*Analyzer)(nil)

// Analyzer detects assign-only properties among reachable declarations.
type Analyzer struct {
	retainAll bool
}

// Option is a functional option for configuring Analyzer.
type Option func(*Analyzer)

// WithRetainAssignOnly disables the pass: every property counts as read.
func WithRetainAssignOnly(retain bool) Option {
	return func(a *Analyzer) {
		a.retainAll = retain
	}
}

// New creates an assign-only property analyzer.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// usage tallies the reads and writes attributed to one property.
type usage struct {
	reads  int
	writes int
}

// Analyze returns the assign-only properties in ID order. The reachable set must
// already be recorded on g.
func (a *Analyzer) Analyze(ctx context.Context, g *graph.Graph) ([]*graph.Declaration, error) {
	if a.retainAll {
		return nil, nil
	}

	var out []*graph.Declaration
	for _, d := range g.Declarations() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !candidate(g, d) {
			continue
		}
		u := tally(g, d)
		if u.writes > 0 && u.reads == 0 {
			out = append(out, d)
		}
	}
	return out, nil
}

func candidate(g *graph.Graph, d *graph.Declaration) bool {
	if d.Implicit || !d.IsStoredProperty() || !g.IsReachable(d) {
		return false
	}
	switch d.Kind {
	case graph.KindVarLocal, graph.KindVarParameter:
		return false
	}
	// Witnesses and overrides are read through the base declaration
	for _, r := range g.ReferencesFrom(d) {
		if r.Role == graph.RoleOverride {
			return false
		}
	}
	return true
}

// tally attributes references to the property and to its accessors.
func tally(g *graph.Graph, d *graph.Declaration) usage {
	var u usage
	for _, r := range g.ReferencesTo(d) {
		u.add(r, false)
	}
	for _, acc := range d.Accessors() {
		setter := acc.Kind.IsSetterLike()
		for _, r := range g.ReferencesTo(acc) {
			u.add(r, setter)
		}
	}
	return u
}

func (u *usage) add(r *graph.Reference, viaSetter bool) {
	switch {
	case r.Role == graph.RoleWrite:
		u.writes++
	case viaSetter && r.Role != graph.RoleRead:
		u.writes++
	default:
		u.reads++
	}
}
