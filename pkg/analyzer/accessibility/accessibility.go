// Package accessibility finds public declarations that are never used from a
// module that needs them to be public.
package accessibility

import (
	"context"
	"slices"

	"github.com/panbanda/sweep/pkg/analyzer"
	"github.com/panbanda/sweep/pkg/graph"
)

// Compile-time check that Analyzer implements GraphAnalyzer.
var _ analyzer.GraphAnalyzer[[]Redundancy] = (*Analyzer)(nil)

// Redundancy is a declaration whose public accessibility is unnecessary, with the
// modules it is referenced from.
type Redundancy struct {
	Declaration *graph.Declaration
	Modules     []string
}

// Analyzer detects redundant public accessibility among reachable declarations.
type Analyzer struct{}

// New creates a redundant public accessibility analyzer.
func New() *Analyzer {
	return &Analyzer{}
}

// Analyze returns the redundant declarations in ID order.
func (a *Analyzer) Analyze(ctx context.Context, g *graph.Graph) ([]Redundancy, error) {
	var out []Redundancy
	for _, d := range g.Declarations() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !candidate(g, d) {
			continue
		}
		if modules, ok := confinedModules(g, d); ok {
			out = append(out, Redundancy{Declaration: d, Modules: modules})
		}
	}
	return out, nil
}

func candidate(g *graph.Graph, d *graph.Declaration) bool {
	if d.Implicit || d.Kind.IsAccessor() || d.Kind.IsExtension() {
		return false
	}
	if !d.Accessibility.Explicit || !d.Accessibility.Value.IsCrossModule() {
		return false
	}
	if !g.IsReachable(d) {
		return false
	}
	// Requirements take their accessibility from the protocol
	if d.Parent != nil && d.Parent.Kind.IsProtocol() {
		return false
	}
	for _, r := range g.ReferencesFrom(d) {
		if r.Role == graph.RoleOverride {
			return false
		}
	}
	return true
}

// confinedModules returns the modules referencing d when every one of them can
// see d without public accessibility. Any unknown module means the usage cannot
// be bounded and d is not flagged.
func confinedModules(g *graph.Graph, d *graph.Declaration) ([]string, bool) {
	declaring := g.ModulesOf(d.Location.File)
	if len(declaring) == 0 {
		return nil, false
	}

	var modules []string
	for _, r := range g.ReferencesTo(d) {
		using := g.ModulesOf(r.Location.File)
		if len(using) == 0 {
			return nil, false
		}
		for _, m := range using {
			if !slices.Contains(declaring, m) && !importsTestable(g, r.Location.File, declaring) {
				return nil, false
			}
			modules = append(modules, m)
		}
	}
	if len(modules) == 0 {
		return nil, false
	}

	slices.Sort(modules)
	return slices.Compact(modules), true
}

// importsTestable reports whether file imports any of modules with @testable,
// which exposes internal declarations to it.
func importsTestable(g *graph.Graph, file string, modules []string) bool {
	f, ok := g.File(file)
	if !ok {
		return false
	}
	for _, m := range modules {
		if f.HasTestableImport(m) {
			return true
		}
	}
	return false
}
