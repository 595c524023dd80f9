package index

import (
	"context"
	"slices"

	"github.com/panbanda/sweep/pkg/analyzer/imports"
	"github.com/panbanda/sweep/pkg/graph"
)

var (
	_ imports.ModuleResolver = (*SymbolTable)(nil)
	_ imports.BatchResolver  = (*SymbolTable)(nil)
)

// SymbolTable maps USRs to the modules that declare them. Declarations in the
// dump contribute the modules of their file; external symbols come from the
// dump's symbols table. It is read-only after construction.
type SymbolTable struct {
	modules map[string][]string
}

// NewSymbolTable indexes the declarations of g together with external symbols.
func NewSymbolTable(g *graph.Graph, external map[string][]string) *SymbolTable {
	t := &SymbolTable{modules: make(map[string][]string, len(external)+g.Len())}
	for usr, mods := range external {
		t.modules[usr] = append(t.modules[usr], mods...)
	}
	for _, d := range g.Declarations() {
		mods := g.ModulesOf(d.Location.File)
		for _, usr := range d.USRs {
			t.modules[usr] = append(t.modules[usr], mods...)
		}
	}
	for usr, mods := range t.modules {
		slices.Sort(mods)
		t.modules[usr] = slices.Compact(mods)
	}
	return t
}

// Len returns the number of known symbols.
func (t *SymbolTable) Len() int {
	return len(t.modules)
}

// ResolveModules returns the modules declaring usr, or nil when it is unknown.
func (t *SymbolTable) ResolveModules(ctx context.Context, usr string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return slices.Clone(t.modules[usr]), nil
}

// ResolveModulesBatch resolves several USRs at once. Unknown USRs are omitted.
func (t *SymbolTable) ResolveModulesBatch(ctx context.Context, usrs []string) (map[string][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make(map[string][]string, len(usrs))
	for _, usr := range usrs {
		if mods, ok := t.modules[usr]; ok {
			out[usr] = slices.Clone(mods)
		}
	}
	return out, nil
}
