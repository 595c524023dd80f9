// Package imports finds module imports that no referenced symbol in the file
// belongs to.
//
// Each file is analyzed on its own: the modules of every symbol the file
// references are unioned, and an import whose top-level module is not in that
// union is unused. Files are processed in parallel and a failing module lookup
// only fails the file it happened in.
package imports

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/panbanda/sweep/internal/fileproc"
	"github.com/panbanda/sweep/pkg/analyzer"
	"github.com/panbanda/sweep/pkg/graph"
)

// Compile-time check that Analyzer implements GraphAnalyzer.
var _ analyzer.GraphAnalyzer[*Result] = (*Analyzer)(nil)

// ErrNoResolver is returned when the analyzer has no module resolver.
var ErrNoResolver = errors.New("imports: no module resolver configured")

// Analyzer detects unused imports.
type Analyzer struct {
	resolver   ModuleResolver
	retained   map[string]bool
	skip       func(path string) bool
	workers    int
	onProgress fileproc.ProgressFunc
}

// Option is a functional option for configuring Analyzer.
type Option func(*Analyzer)

// WithResolver sets the symbol-to-module lookup.
func WithResolver(r ModuleResolver) Option {
	return func(a *Analyzer) {
		a.resolver = r
	}
}

// WithRetainedModules never reports imports of the given modules.
func WithRetainedModules(modules ...string) Option {
	return func(a *Analyzer) {
		for _, m := range modules {
			a.retained[m] = true
		}
	}
}

// WithSkip excludes files for which skip returns true.
func WithSkip(skip func(path string) bool) Option {
	return func(a *Analyzer) {
		a.skip = skip
	}
}

// WithWorkers bounds the number of files analyzed concurrently.
func WithWorkers(n int) Option {
	return func(a *Analyzer) {
		a.workers = n
	}
}

// WithProgress sets a callback invoked after each file.
func WithProgress(fn fileproc.ProgressFunc) Option {
	return func(a *Analyzer) {
		a.onProgress = fn
	}
}

// New creates an unused import analyzer.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		retained: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Result holds the unused imports and the files whose analysis failed.
type Result struct {
	Unused []*graph.ImportStatement
	// Errors is nil when every file was analyzed.
	Errors *fileproc.ProcessingErrors
	// Files is the number of files analyzed.
	Files int
}

// Analyze returns the unused imports ordered by location. Per-file lookup
// failures are reported in Result.Errors; only cancellation fails the whole pass.
func (a *Analyzer) Analyze(ctx context.Context, g *graph.Graph) (*Result, error) {
	if a.resolver == nil {
		return nil, ErrNoResolver
	}

	resolver, ok := a.resolver.(*CachedResolver)
	if !ok {
		resolver = NewCachedResolver(a.resolver)
	}
	refsByFile := g.ReferencesByFile()

	var paths []string
	for _, f := range g.Files() {
		if a.skip != nil && a.skip(f.Path) {
			continue
		}
		paths = append(paths, f.Path)
	}

	opts := fileproc.Options{MaxWorkers: a.workers, OnProgress: a.onProgress}
	perFile, errs := fileproc.ForEachFile(ctx, paths, opts, func(ctx context.Context, path string) ([]*graph.ImportStatement, error) {
		f, _ := g.File(path)
		return a.analyzeFile(ctx, resolver, f, refsByFile[path])
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var unused []*graph.ImportStatement
	for _, stmts := range perFile {
		unused = append(unused, stmts...)
	}
	slices.SortFunc(unused, func(x, y *graph.ImportStatement) int {
		return x.Location.Compare(y.Location)
	})

	return &Result{Unused: unused, Errors: errs, Files: len(paths)}, nil
}

func (a *Analyzer) analyzeFile(ctx context.Context, resolver *CachedResolver, f *graph.SourceFile, refs []*graph.Reference) ([]*graph.ImportStatement, error) {
	if len(f.Imports) == 0 {
		return nil, nil
	}

	pending := make(map[string]bool)
	for _, imp := range f.Imports {
		if m := imp.Module(); m != "" && !a.retained[m] {
			pending[m] = true
		}
	}
	if len(pending) == 0 {
		return nil, nil
	}

	usrs := distinctUSRs(refs)
	if err := resolver.Prefetch(ctx, usrs); err != nil {
		return nil, fmt.Errorf("resolving modules: %w", err)
	}

	for _, usr := range usrs {
		mods, err := resolver.ResolveModules(ctx, usr)
		if err != nil {
			return nil, fmt.Errorf("resolving modules of %s: %w", usr, err)
		}
		for _, m := range mods {
			delete(pending, m)
		}
		if len(pending) == 0 {
			return nil, nil
		}
	}

	var unused []*graph.ImportStatement
	for _, imp := range f.Imports {
		if pending[imp.Module()] {
			unused = append(unused, imp)
		}
	}
	return unused, nil
}

func distinctUSRs(refs []*graph.Reference) []string {
	usrs := make([]string, 0, len(refs))
	for _, r := range refs {
		usrs = append(usrs, r.USR)
	}
	slices.Sort(usrs)
	return slices.Compact(usrs)
}
