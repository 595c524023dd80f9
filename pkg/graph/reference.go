package graph

import (
	"fmt"
	"strings"
)

// Role describes how a reference uses its target.
type Role string

const (
	// RoleUse is a plain use whose read/write nature is unknown.
	RoleUse Role = "use"

	RoleRead  Role = "read"
	RoleWrite Role = "write"

	// RoleConformance names a protocol in an inheritance clause.
	RoleConformance Role = "conformance"

	// RoleOverride links a declaration to the requirement or base member it
	// witnesses or overrides.
	RoleOverride Role = "override"
)

// ParseRole converts a raw role name to a Role. Empty means RoleUse.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case "":
		return RoleUse, nil
	case RoleUse, RoleRead, RoleWrite, RoleConformance, RoleOverride:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown reference role %q", s)
}

// String returns the raw role name.
func (r Role) String() string {
	return string(r)
}

// Reference is a directed edge from a using site to a symbol.
type Reference struct {
	Kind     Kind
	USR      string
	Name     string
	Role     Role
	Location Location

	// Parent is the declaration containing the using site, nil for file-level code.
	Parent *Declaration
}

func (r *Reference) String() string {
	return fmt.Sprintf("%s %s %s (%s)", r.Role, r.Kind, r.USR, r.Location)
}

// ImportStatement is a module import in a source file.
type ImportStatement struct {
	Parts    []string
	Testable bool
	Location Location
}

// Path returns the dotted module path.
func (s *ImportStatement) Path() string {
	return strings.Join(s.Parts, ".")
}

// Module returns the top-level module name.
func (s *ImportStatement) Module() string {
	if len(s.Parts) == 0 {
		return ""
	}
	return s.Parts[0]
}

// SourceFile groups the imports of a file and the modules it is compiled into.
type SourceFile struct {
	Path    string
	Modules []string
	Imports []*ImportStatement
}

// HasTestableImport reports whether the file imports module with @testable.
func (f *SourceFile) HasTestableImport(module string) bool {
	for _, imp := range f.Imports {
		if imp.Testable && imp.Module() == module {
			return true
		}
	}
	return false
}
