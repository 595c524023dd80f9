package scan

import (
	"github.com/panbanda/sweep/pkg/graph"
)

// Hint names a classification in reports.
type Hint string

const (
	HintUnused                       Hint = "unused"
	HintAssignOnlyProperty           Hint = "assignOnlyProperty"
	HintRedundantProtocol            Hint = "redundantProtocol"
	HintRedundantPublicAccessibility Hint = "redundantPublicAccessibility"
	HintRedundantConformance         Hint = "redundantConformance"
	HintUnusedImport                 Hint = "unusedImport"
)

// Annotation is the classification of a reported declaration. The set of
// implementations is closed.
type Annotation interface {
	Hint() Hint
	annotation()
}

// Unused marks a declaration nothing reaches.
type Unused struct{}

// AssignOnlyProperty marks a stored property that is written but never read.
type AssignOnlyProperty struct{}

// RedundantProtocol marks a protocol that is only conformed to. References holds
// the conformance sites, sorted by location and never empty.
type RedundantProtocol struct {
	References []*graph.Reference
}

// RedundantPublicAccessibility marks a declaration that is public but only used
// where internal accessibility suffices. Modules is the sorted set of modules
// it is used in.
type RedundantPublicAccessibility struct {
	Modules []string
}

func (Unused) Hint() Hint                       { return HintUnused }
func (AssignOnlyProperty) Hint() Hint           { return HintAssignOnlyProperty }
func (RedundantProtocol) Hint() Hint            { return HintRedundantProtocol }
func (RedundantPublicAccessibility) Hint() Hint { return HintRedundantPublicAccessibility }

func (Unused) annotation()                       {}
func (AssignOnlyProperty) annotation()           {}
func (RedundantProtocol) annotation()            {}
func (RedundantPublicAccessibility) annotation() {}

// Result is one report entry: an ImportResult or a DeclarationResult.
type Result interface {
	Location() graph.Location
	Hint() Hint
	result()
}

// ImportResult reports an unused import.
type ImportResult struct {
	Statement *graph.ImportStatement
}

// DeclarationResult reports a classified declaration.
type DeclarationResult struct {
	Declaration *graph.Declaration
	Annotation  Annotation
}

// Location returns the position of the import statement.
func (r ImportResult) Location() graph.Location { return r.Statement.Location }

// Hint returns HintUnusedImport.
func (r ImportResult) Hint() Hint { return HintUnusedImport }

// Location returns the position of the declaration.
func (r DeclarationResult) Location() graph.Location { return r.Declaration.Location }

// Hint returns the annotation's hint.
func (r DeclarationResult) Hint() Hint { return r.Annotation.Hint() }

func (ImportResult) result()      {}
func (DeclarationResult) result() {}
