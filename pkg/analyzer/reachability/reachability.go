// Package reachability marks the declarations that can be reached from the root
// set and reports the rest as unused.
//
// The algorithm is a mark-sweep over the symbol graph:
//  1. Roots: retained declarations, policy matches, optionally public API,
//     targets of file-level references and witnesses of external requirements.
//  2. Mark: breadth-first traversal from the roots, following references,
//     lexical parents, property accessors and dynamic dispatch to overriders.
//  3. Sweep: every reportable declaration not marked is unreachable.
package reachability

import (
	"context"
	"errors"
	"slices"

	"github.com/panbanda/sweep/pkg/analyzer"
	"github.com/panbanda/sweep/pkg/graph"
)

// Compile-time check that Analyzer implements GraphAnalyzer.
var _ analyzer.GraphAnalyzer[*Result] = (*Analyzer)(nil)

// ErrNoPolicy is returned when the analyzer has no retention policy.
var ErrNoPolicy = errors.New("reachability: no retention policy configured")

// cancelCheckInterval is how many visited declarations pass between context checks.
const cancelCheckInterval = 1024

// Analyzer computes the reachable set of a graph.
type Analyzer struct {
	policy       Policy
	retainPublic bool
}

// Option is a functional option for configuring Analyzer.
type Option func(*Analyzer)

// WithPolicy sets the retention policy.
func WithPolicy(p Policy) Option {
	return func(a *Analyzer) {
		a.policy = p
	}
}

// WithRetainPublic makes every public or open declaration a root.
func WithRetainPublic(retain bool) Option {
	return func(a *Analyzer) {
		a.retainPublic = retain
	}
}

// New creates a reachability analyzer.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Result is the outcome of one reachability run.
type Result struct {
	Reachable   *graph.DeclarationSet
	Unreachable []*graph.Declaration
	Roots       []uint32
}

// Analyze marks the reachable set of g and returns the unreachable declarations
// in ID order.
func (a *Analyzer) Analyze(ctx context.Context, g *graph.Graph) (*Result, error) {
	if a.policy == nil {
		return nil, ErrNoPolicy
	}

	dispatch := NewDispatchResolver(g)
	roots := a.Roots(g, dispatch)

	reachable, err := mark(ctx, g, dispatch, roots)
	if err != nil {
		return nil, err
	}

	var unreachable []*graph.Declaration
	for _, d := range g.Declarations() {
		if reachable.Contains(d.ID) || !reportable(g, d) {
			continue
		}
		unreachable = append(unreachable, d)
	}

	return &Result{
		Reachable:   reachable,
		Unreachable: unreachable,
		Roots:       roots,
	}, nil
}

// Roots returns the sorted, deduplicated root set.
func (a *Analyzer) Roots(g *graph.Graph, dispatch *DispatchResolver) []uint32 {
	var roots []uint32
	for _, d := range g.Declarations() {
		if a.isRoot(g, d) {
			roots = append(roots, d.ID)
		}
	}
	for _, r := range g.UnownedReferences() {
		for _, target := range g.DeclarationsFor(r.USR) {
			roots = append(roots, target.ID)
		}
	}
	roots = append(roots, dispatch.ExternalWitnesses()...)

	slices.Sort(roots)
	return slices.Compact(roots)
}

func (a *Analyzer) isRoot(g *graph.Graph, d *graph.Declaration) bool {
	if g.IsRetained(d) || g.IsIgnored(d) {
		return true
	}
	if a.retainPublic && graph.EffectiveAccessibility(d).IsCrossModule() {
		return true
	}
	return a.policy.Retain(d)
}

// reportable reports whether d may appear in the unreachable set.
func reportable(g *graph.Graph, d *graph.Declaration) bool {
	return !d.Implicit && !d.Kind.IsAccessor() && !g.IsIgnored(d)
}

// mark runs the breadth-first traversal from roots.
func mark(ctx context.Context, g *graph.Graph, dispatch *DispatchResolver, roots []uint32) (*graph.DeclarationSet, error) {
	reachable := graph.NewDeclarationSet()
	reachable.AddMany(roots)

	// Index-based queue avoids reslicing on every pop
	queue := make([]uint32, len(roots), len(roots)*2+1)
	copy(queue, roots)
	head := 0

	for head < len(queue) {
		if head%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		current := g.ByID(queue[head])
		head++

		for _, next := range successors(g, dispatch, current) {
			if reachable.Add(next) {
				queue = append(queue, next)
			}
		}
	}
	return reachable, nil
}

// successors returns the declarations a reachable d keeps alive.
func successors(g *graph.Graph, dispatch *DispatchResolver, d *graph.Declaration) []uint32 {
	var out []uint32
	for _, r := range g.ReferencesFrom(d) {
		for _, target := range g.DeclarationsFor(r.USR) {
			out = append(out, target.ID)
		}
	}
	if d.Parent != nil {
		out = append(out, d.Parent.ID)
	}
	// Properties and subscripts run their bodies through accessors
	for _, acc := range d.Accessors() {
		out = append(out, acc.ID)
	}
	out = append(out, dispatch.Overriders(d.ID)...)
	return out
}
