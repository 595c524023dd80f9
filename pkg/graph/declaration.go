package graph

import (
	"cmp"
	"fmt"
	"slices"
)

// Location is a position in a source file. Line and Column are 1-based.
type Location struct {
	File   string `json:"file" toon:"file"`
	Line   int    `json:"line" toon:"line"`
	Column int    `json:"column" toon:"column"`
}

// String renders the location as file:line:column.
func (l Location) String() string {
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// Compare orders locations by file, then line, then column.
func (l Location) Compare(o Location) int {
	if c := cmp.Compare(l.File, o.File); c != 0 {
		return c
	}
	if c := cmp.Compare(l.Line, o.Line); c != 0 {
		return c
	}
	return cmp.Compare(l.Column, o.Column)
}

// Declaration is a named or synthesized program entity.
type Declaration struct {
	// ID is the dense index assigned by the graph. It keys every annotation set.
	ID uint32

	Kind          Kind
	Name          string // empty when the entity has no name
	Modifiers     []string
	Attributes    []string
	Accessibility Accessibility
	USRs          []string
	Location      Location

	// Implicit marks compiler-synthesized declarations.
	Implicit bool
	// Computed marks properties backed by accessors rather than storage.
	Computed bool

	Parent   *Declaration
	Children []*Declaration
}

// HasName reports whether the declaration carries a name.
func (d *Declaration) HasName() bool {
	return d.Name != ""
}

// HasModifier reports whether the modifier set contains m.
func (d *Declaration) HasModifier(m string) bool {
	_, ok := slices.BinarySearch(d.Modifiers, m)
	return ok
}

// HasAttribute reports whether the attribute set contains a.
func (d *Declaration) HasAttribute(a string) bool {
	_, ok := slices.BinarySearch(d.Attributes, a)
	return ok
}

// IsStoredProperty reports whether the declaration is a property backed by storage.
func (d *Declaration) IsStoredProperty() bool {
	return d.Kind.IsVariable() && !d.Computed
}

// Accessors returns the accessor children of a property.
func (d *Declaration) Accessors() []*Declaration {
	var out []*Declaration
	for _, c := range d.Children {
		if c.Kind.IsAccessor() {
			out = append(out, c)
		}
	}
	return out
}

func (d *Declaration) String() string {
	name := d.Name
	if name == "" {
		name = "<anonymous>"
	}
	return fmt.Sprintf("%s %s (%s)", d.Kind, name, d.Location)
}

// normalizeSet sorts and deduplicates a string set, dropping empty values.
func normalizeSet(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s != "" {
			out = append(out, s)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
