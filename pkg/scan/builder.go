package scan

import (
	"cmp"
	"slices"

	"github.com/panbanda/sweep/pkg/graph"
)

// Build merges the annotations recorded on g into an ordered result list.
//
// Unreachable declarations that are assign-only properties are reported as
// assign-only. Redundant protocol and redundant public entries for declarations
// that are already reported as unused are dropped. Implicit declarations,
// accessors and ignored declarations are never reported. Unused imports are
// always appended.
func Build(g *graph.Graph) []Result {
	assignOnly := g.AssignOnlyProperties()
	removable := graph.NewDeclarationSet()
	for _, d := range g.UnreachableDeclarations() {
		if !g.IsAssignOnly(d) {
			removable.Add(d.ID)
		}
	}

	var results []Result
	add := func(d *graph.Declaration, a Annotation) {
		if shouldReport(g, d) {
			results = append(results, DeclarationResult{Declaration: d, Annotation: a})
		}
	}

	for _, id := range removable.IDs() {
		add(g.ByID(id), Unused{})
	}
	for _, d := range assignOnly {
		add(d, AssignOnlyProperty{})
	}
	for d, refs := range g.RedundantProtocols() {
		if !removable.Contains(d.ID) && len(refs) > 0 {
			add(d, RedundantProtocol{References: refs})
		}
	}
	for d, modules := range g.RedundantPublicAccessibility() {
		if !removable.Contains(d.ID) {
			add(d, RedundantPublicAccessibility{Modules: modules})
		}
	}
	for _, stmt := range g.UnusedImports() {
		results = append(results, ImportResult{Statement: stmt})
	}

	Sort(results)
	return results
}

func shouldReport(g *graph.Graph, d *graph.Declaration) bool {
	return !d.Implicit && !d.Kind.IsAccessor() && !g.IsIgnored(d)
}

// Sort orders results by location, kind, name, hint, then first symbol ID.
func Sort(results []Result) {
	slices.SortStableFunc(results, Compare)
}

// Compare is the total order used by Sort.
func Compare(a, b Result) int {
	if c := a.Location().Compare(b.Location()); c != 0 {
		return c
	}
	ak, an, au := sortKey(a)
	bk, bn, bu := sortKey(b)
	if c := cmp.Compare(ak, bk); c != 0 {
		return c
	}
	if c := cmp.Compare(an, bn); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Hint(), b.Hint()); c != 0 {
		return c
	}
	return cmp.Compare(au, bu)
}

func sortKey(r Result) (kind, name, usr string) {
	switch r := r.(type) {
	case DeclarationResult:
		if len(r.Declaration.USRs) > 0 {
			usr = r.Declaration.USRs[0]
		}
		return string(r.Declaration.Kind), r.Declaration.Name, usr
	case ImportResult:
		return string(graph.KindModule), r.Statement.Path(), ""
	}
	return "", "", ""
}
