package reachability

import (
	"path"

	"github.com/panbanda/sweep/pkg/graph"
)

// Policy decides whether a declaration must be kept regardless of its references,
// for example because a runtime reaches it dynamically.
type Policy interface {
	Retain(d *graph.Declaration) bool
}

// PolicyFunc adapts a function to Policy.
type PolicyFunc func(d *graph.Declaration) bool

// Retain calls f(d).
func (f PolicyFunc) Retain(d *graph.Declaration) bool {
	return f(d)
}

// AnyPolicy retains a declaration when any of the given policies does.
func AnyPolicy(policies ...Policy) Policy {
	return PolicyFunc(func(d *graph.Declaration) bool {
		for _, p := range policies {
			if p != nil && p.Retain(d) {
				return true
			}
		}
		return false
	})
}

// DefaultRetainedAttributes are attributes whose declarations the runtime calls
// without a visible reference.
var DefaultRetainedAttributes = []string{
	"main",
	"UIApplicationMain",
	"NSApplicationMain",
	"IBAction",
	"IBOutlet",
	"IBInspectable",
	"IBSegueAction",
	"GKInspectable",
}

var objcAttributes = []string{"objc", "objcMembers", "IBDesignable"}

// AttributePolicy retains declarations by attribute, modifier, and name pattern.
type AttributePolicy struct {
	attributes   map[string]bool
	modifiers    map[string]bool
	namePatterns []string
	retainObjc   bool
}

// PolicyOption configures an AttributePolicy.
type PolicyOption func(*AttributePolicy)

// WithRetainedAttributes adds attributes that retain their declaration.
func WithRetainedAttributes(attrs ...string) PolicyOption {
	return func(p *AttributePolicy) {
		for _, a := range attrs {
			p.attributes[a] = true
		}
	}
}

// WithRetainedModifiers adds modifiers that retain their declaration.
func WithRetainedModifiers(mods ...string) PolicyOption {
	return func(p *AttributePolicy) {
		for _, m := range mods {
			p.modifiers[m] = true
		}
	}
}

// WithNamePatterns retains declarations whose name matches any glob pattern.
func WithNamePatterns(patterns ...string) PolicyOption {
	return func(p *AttributePolicy) {
		p.namePatterns = append(p.namePatterns, patterns...)
	}
}

// WithObjcAccessible retains declarations exposed to the Objective-C runtime,
// including members of types marked objcMembers.
func WithObjcAccessible(enabled bool) PolicyOption {
	return func(p *AttributePolicy) {
		p.retainObjc = enabled
	}
}

// NewAttributePolicy creates a policy seeded with DefaultRetainedAttributes and the
// dynamic modifier.
func NewAttributePolicy(opts ...PolicyOption) *AttributePolicy {
	p := &AttributePolicy{
		attributes: make(map[string]bool),
		modifiers:  map[string]bool{"dynamic": true},
	}
	for _, a := range DefaultRetainedAttributes {
		p.attributes[a] = true
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Retain implements Policy.
func (p *AttributePolicy) Retain(d *graph.Declaration) bool {
	if d.Kind == graph.KindFunctionFree && d.Name == "main" {
		return true
	}
	for _, a := range d.Attributes {
		if p.attributes[a] {
			return true
		}
	}
	for _, m := range d.Modifiers {
		if p.modifiers[m] {
			return true
		}
	}
	if p.retainObjc && isObjcAccessible(d) {
		return true
	}
	if d.Name != "" {
		for _, pattern := range p.namePatterns {
			if ok, _ := path.Match(pattern, d.Name); ok {
				return true
			}
		}
	}
	return false
}

func isObjcAccessible(d *graph.Declaration) bool {
	for _, a := range objcAttributes {
		if d.HasAttribute(a) {
			return true
		}
	}
	return d.Parent != nil && d.Parent.HasAttribute("objcMembers")
}
