// Package graph holds the in-memory symbol graph: declarations, the references
// between them, the import statements of each source file, and the annotation
// sets that analysis passes add to it.
//
// Construction happens once, through AddFile, AddDeclaration, SetParent and
// AddReference. Freeze closes construction; from then on only the Mark* methods
// mutate the graph, and they only ever add to a set.
package graph

import (
	"fmt"
	"maps"
	"slices"
)

// Graph is the symbol graph of one analysis run.
type Graph struct {
	declarations []*Declaration
	byUSR        map[string][]*Declaration

	references []*Reference
	refsByUSR  map[string][]*Reference
	refsBySite map[uint32][]*Reference
	unowned    []*Reference

	files map[string]*SourceFile

	frozen bool

	retained *DeclarationSet
	ignored  *DeclarationSet

	reachable          *DeclarationSet
	unreachable        *DeclarationSet
	assignOnly         *DeclarationSet
	redundantProtocols map[uint32][]*Reference
	redundantPublic    map[uint32][]string
	unusedImports      map[*ImportStatement]bool
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		byUSR:              make(map[string][]*Declaration),
		refsByUSR:          make(map[string][]*Reference),
		refsBySite:         make(map[uint32][]*Reference),
		files:              make(map[string]*SourceFile),
		retained:           NewDeclarationSet(),
		ignored:            NewDeclarationSet(),
		reachable:          NewDeclarationSet(),
		unreachable:        NewDeclarationSet(),
		assignOnly:         NewDeclarationSet(),
		redundantProtocols: make(map[uint32][]*Reference),
		redundantPublic:    make(map[uint32][]string),
		unusedImports:      make(map[*ImportStatement]bool),
	}
}

func (g *Graph) mustBuild(op string) {
	if g.frozen {
		panic(fmt.Sprintf("graph: %s after Freeze", op))
	}
}

// Freeze closes construction. It is idempotent.
func (g *Graph) Freeze() {
	g.frozen = true
}

// Frozen reports whether construction is closed.
func (g *Graph) Frozen() bool {
	return g.frozen
}

// AddFile registers a source file, merging with an existing entry for the same path.
func (g *Graph) AddFile(path string, modules []string, imports ...*ImportStatement) *SourceFile {
	g.mustBuild("AddFile")
	f, ok := g.files[path]
	if !ok {
		f = &SourceFile{Path: path}
		g.files[path] = f
	}
	f.Modules = normalizeSet(append(f.Modules, modules...))
	f.Imports = append(f.Imports, imports...)
	return f
}

// AddDeclaration assigns the declaration its ID and indexes it by every USR.
// The caller guarantees a non-empty USR set.
func (g *Graph) AddDeclaration(d *Declaration) {
	g.mustBuild("AddDeclaration")
	d.ID = uint32(len(g.declarations))
	d.USRs = normalizeSet(d.USRs)
	d.Modifiers = normalizeSet(d.Modifiers)
	d.Attributes = normalizeSet(d.Attributes)
	g.declarations = append(g.declarations, d)
	for _, usr := range d.USRs {
		g.byUSR[usr] = append(g.byUSR[usr], d)
	}
	if _, ok := g.files[d.Location.File]; !ok && d.Location.File != "" {
		g.files[d.Location.File] = &SourceFile{Path: d.Location.File}
	}
}

// SetParent records lexical nesting of child inside parent.
func (g *Graph) SetParent(child, parent *Declaration) {
	g.mustBuild("SetParent")
	if child.Parent != nil {
		child.Parent.Children = slices.DeleteFunc(child.Parent.Children, func(c *Declaration) bool {
			return c == child
		})
	}
	child.Parent = parent
	parent.Children = append(parent.Children, child)
}

// AddReference indexes a reference by target USR and by using site.
func (g *Graph) AddReference(r *Reference) {
	g.mustBuild("AddReference")
	g.references = append(g.references, r)
	g.refsByUSR[r.USR] = append(g.refsByUSR[r.USR], r)
	if r.Parent != nil {
		g.refsBySite[r.Parent.ID] = append(g.refsBySite[r.Parent.ID], r)
	} else {
		g.unowned = append(g.unowned, r)
	}
	if _, ok := g.files[r.Location.File]; !ok && r.Location.File != "" {
		g.files[r.Location.File] = &SourceFile{Path: r.Location.File}
	}
}

// Declaration returns the first declaration carrying usr.
func (g *Graph) Declaration(usr string) (*Declaration, bool) {
	decls := g.byUSR[usr]
	if len(decls) == 0 {
		return nil, false
	}
	return decls[0], true
}

// DeclarationsFor returns every declaration carrying usr. More than one result
// means the symbol is ambiguous.
func (g *Graph) DeclarationsFor(usr string) []*Declaration {
	return g.byUSR[usr]
}

// ByID returns the declaration with the given ID.
func (g *Graph) ByID(id uint32) *Declaration {
	if int(id) >= len(g.declarations) {
		return nil
	}
	return g.declarations[id]
}

// Declarations returns every declaration in ID order.
func (g *Graph) Declarations() []*Declaration {
	return g.declarations
}

// Len returns the number of declarations.
func (g *Graph) Len() int {
	return len(g.declarations)
}

// References returns every reference in insertion order.
func (g *Graph) References() []*Reference {
	return g.references
}

// ReferencesTo returns the references targeting any USR of d.
func (g *Graph) ReferencesTo(d *Declaration) []*Reference {
	if len(d.USRs) == 1 {
		return g.refsByUSR[d.USRs[0]]
	}
	var out []*Reference
	for _, usr := range d.USRs {
		out = append(out, g.refsByUSR[usr]...)
	}
	return out
}

// ReferencesFrom returns the references whose using site is d.
func (g *Graph) ReferencesFrom(d *Declaration) []*Reference {
	return g.refsBySite[d.ID]
}

// UnownedReferences returns references made from file-level code.
func (g *Graph) UnownedReferences() []*Reference {
	return g.unowned
}

// ReferencesByFile groups references by the file they occur in.
func (g *Graph) ReferencesByFile() map[string][]*Reference {
	out := make(map[string][]*Reference)
	for _, r := range g.references {
		out[r.Location.File] = append(out[r.Location.File], r)
	}
	return out
}

// File returns the source file registered for path.
func (g *Graph) File(path string) (*SourceFile, bool) {
	f, ok := g.files[path]
	return f, ok
}

// Files returns every source file sorted by path.
func (g *Graph) Files() []*SourceFile {
	paths := slices.Sorted(maps.Keys(g.files))
	out := make([]*SourceFile, len(paths))
	for i, p := range paths {
		out[i] = g.files[p]
	}
	return out
}

// ModulesOf returns the modules a file is compiled into.
func (g *Graph) ModulesOf(path string) []string {
	if f, ok := g.files[path]; ok {
		return f.Modules
	}
	return nil
}

// MarkRetained makes d a reachability root.
func (g *Graph) MarkRetained(d *Declaration) {
	g.retained.Add(d.ID)
}

// MarkIgnored excludes d from reporting. Ignored declarations are also retained so
// that whatever they use stays alive.
func (g *Graph) MarkIgnored(d *Declaration) {
	g.ignored.Add(d.ID)
	g.retained.Add(d.ID)
}

// IsRetained reports whether d was explicitly retained.
func (g *Graph) IsRetained(d *Declaration) bool {
	return g.retained.Contains(d.ID)
}

// IsIgnored reports whether d is excluded from reporting.
func (g *Graph) IsIgnored(d *Declaration) bool {
	return g.ignored.Contains(d.ID)
}

// MarkReachable records the reachable set.
func (g *Graph) MarkReachable(set *DeclarationSet) {
	g.reachable.Union(set)
}

// IsReachable reports whether d was marked reachable.
func (g *Graph) IsReachable(d *Declaration) bool {
	return g.reachable.Contains(d.ID)
}

// ReachableSet returns a copy of the reachable set.
func (g *Graph) ReachableSet() *DeclarationSet {
	return g.reachable.Clone()
}

// MarkUnreachable records d as removable.
func (g *Graph) MarkUnreachable(d *Declaration) {
	g.unreachable.Add(d.ID)
}

// IsUnreachable reports whether d was marked unreachable.
func (g *Graph) IsUnreachable(d *Declaration) bool {
	return g.unreachable.Contains(d.ID)
}

// UnreachableDeclarations returns the unreachable declarations in ID order.
func (g *Graph) UnreachableDeclarations() []*Declaration {
	return g.resolve(g.unreachable.IDs())
}

// MarkAssignOnly records d as a property that is written but never read.
func (g *Graph) MarkAssignOnly(d *Declaration) {
	g.assignOnly.Add(d.ID)
}

// IsAssignOnly reports whether d was marked assign-only.
func (g *Graph) IsAssignOnly(d *Declaration) bool {
	return g.assignOnly.Contains(d.ID)
}

// AssignOnlyProperties returns the assign-only properties in ID order.
func (g *Graph) AssignOnlyProperties() []*Declaration {
	return g.resolve(g.assignOnly.IDs())
}

// MarkRedundantProtocol records d as a protocol only used for conformance, along
// with the conformance references. References already recorded are not repeated.
func (g *Graph) MarkRedundantProtocol(d *Declaration, refs []*Reference) {
	existing := g.redundantProtocols[d.ID]
	for _, r := range refs {
		if !slices.Contains(existing, r) {
			existing = append(existing, r)
		}
	}
	g.redundantProtocols[d.ID] = existing
}

// RedundantProtocols returns protocol -> conformance references.
func (g *Graph) RedundantProtocols() map[*Declaration][]*Reference {
	out := make(map[*Declaration][]*Reference, len(g.redundantProtocols))
	for id, refs := range g.redundantProtocols {
		out[g.declarations[id]] = refs
	}
	return out
}

// MarkRedundantPublicAccessibility records d as public while only used in modules.
func (g *Graph) MarkRedundantPublicAccessibility(d *Declaration, modules []string) {
	g.redundantPublic[d.ID] = normalizeSet(append(g.redundantPublic[d.ID], modules...))
}

// RedundantPublicAccessibility returns declaration -> modules it is used in.
func (g *Graph) RedundantPublicAccessibility() map[*Declaration][]string {
	out := make(map[*Declaration][]string, len(g.redundantPublic))
	for id, mods := range g.redundantPublic {
		out[g.declarations[id]] = mods
	}
	return out
}

// MarkUnusedImport records an import no referenced symbol belongs to.
func (g *Graph) MarkUnusedImport(s *ImportStatement) {
	g.unusedImports[s] = true
}

// UnusedImports returns the unused imports ordered by location.
func (g *Graph) UnusedImports() []*ImportStatement {
	out := slices.Collect(maps.Keys(g.unusedImports))
	slices.SortFunc(out, func(a, b *ImportStatement) int {
		return a.Location.Compare(b.Location)
	})
	return out
}

func (g *Graph) resolve(ids []uint32) []*Declaration {
	out := make([]*Declaration, len(ids))
	for i, id := range ids {
		out[i] = g.declarations[id]
	}
	return out
}
