package graph

import "fmt"

// AccessLevel is a position in the visibility lattice.
type AccessLevel int

const (
	AccessPrivate AccessLevel = iota
	AccessFilePrivate
	AccessInternal
	AccessPackage
	AccessPublic
	AccessOpen
)

var accessNames = [...]string{
	AccessPrivate:     "private",
	AccessFilePrivate: "fileprivate",
	AccessInternal:    "internal",
	AccessPackage:     "package",
	AccessPublic:      "public",
	AccessOpen:        "open",
}

// ParseAccessLevel converts a visibility keyword to an AccessLevel.
// An empty string is the language default, internal.
func ParseAccessLevel(s string) (AccessLevel, error) {
	if s == "" {
		return AccessInternal, nil
	}
	for level, name := range accessNames {
		if name == s {
			return AccessLevel(level), nil
		}
	}
	return AccessInternal, fmt.Errorf("unknown accessibility %q", s)
}

// String returns the visibility keyword.
func (a AccessLevel) String() string {
	if a < AccessPrivate || int(a) >= len(accessNames) {
		return "unknown"
	}
	return accessNames[a]
}

// IsCrossModule reports whether the level is visible outside the declaring module.
func (a AccessLevel) IsCrossModule() bool {
	return a >= AccessPublic
}

// Accessibility is a declaration's visibility together with its provenance.
// Explicit is false when the value was inherited or defaulted rather than written.
type Accessibility struct {
	Value    AccessLevel
	Explicit bool
}

// EffectiveAccessibility returns the visibility a declaration actually has once
// every enclosing declaration is taken into account.
func EffectiveAccessibility(d *Declaration) AccessLevel {
	level := d.Accessibility.Value
	for p := d.Parent; p != nil; p = p.Parent {
		if p.Kind.IsExtension() && !p.Accessibility.Explicit {
			continue
		}
		if p.Accessibility.Value < level {
			level = p.Accessibility.Value
		}
	}
	return level
}
