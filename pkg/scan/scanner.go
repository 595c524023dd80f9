// Package scan runs the analysis passes over a symbol graph and merges their
// annotations into an ordered report.
//
// Control flow of one scan:
//  1. Preconditions: a retention policy, and a module resolver when unused
//     imports are enabled.
//  2. Freeze the graph and mark declarations in excluded files as ignored.
//  3. Reachability, while the unused import pass runs alongside it.
//  4. Assign-only, redundant protocol and redundant public passes in parallel.
//  5. Single-threaded merge of every pass into the graph, then Build.
package scan

import (
	"context"
	"fmt"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/panbanda/sweep/internal/exclude"
	"github.com/panbanda/sweep/internal/fileproc"
	"github.com/panbanda/sweep/pkg/analyzer/accessibility"
	"github.com/panbanda/sweep/pkg/analyzer/assignonly"
	"github.com/panbanda/sweep/pkg/analyzer/imports"
	"github.com/panbanda/sweep/pkg/analyzer/protocol"
	"github.com/panbanda/sweep/pkg/analyzer/reachability"
	"github.com/panbanda/sweep/pkg/config"
	"github.com/panbanda/sweep/pkg/graph"
)

// Passes selects the optional classification passes. Reachability always runs.
type Passes struct {
	AssignOnly        bool
	RedundantProtocol bool
	RedundantPublic   bool
	UnusedImports     bool
}

// AllPasses enables every pass.
var AllPasses = Passes{AssignOnly: true, RedundantProtocol: true, RedundantPublic: true, UnusedImports: true}

// Scanner runs a full analysis over a graph.
type Scanner struct {
	policy          reachability.Policy
	resolver        imports.ModuleResolver
	passes          Passes
	retainPublic    bool
	retainAssign    bool
	retainedModules []string
	exclude         *exclude.Matcher
	workers         int
	onImportFile    fileproc.ProgressFunc
}

// Option is a functional option for configuring Scanner.
type Option func(*Scanner)

// WithPolicy sets the retention policy. It is required.
func WithPolicy(p reachability.Policy) Option {
	return func(s *Scanner) {
		s.policy = p
	}
}

// WithResolver sets the symbol-to-module lookup. It is required when the unused
// import pass is enabled.
func WithResolver(r imports.ModuleResolver) Option {
	return func(s *Scanner) {
		s.resolver = r
	}
}

// WithPasses selects the classification passes.
func WithPasses(p Passes) Option {
	return func(s *Scanner) {
		s.passes = p
	}
}

// WithRetainPublic makes public declarations reachability roots.
func WithRetainPublic(retain bool) Option {
	return func(s *Scanner) {
		s.retainPublic = retain
	}
}

// WithRetainAssignOnlyProperties disables assign-only reporting.
func WithRetainAssignOnlyProperties(retain bool) Option {
	return func(s *Scanner) {
		s.retainAssign = retain
	}
}

// WithRetainedModules never reports imports of the given modules.
func WithRetainedModules(modules ...string) Option {
	return func(s *Scanner) {
		s.retainedModules = append(s.retainedModules, modules...)
	}
}

// WithExclude ignores declarations and imports in files the matcher excludes.
func WithExclude(m *exclude.Matcher) Option {
	return func(s *Scanner) {
		s.exclude = m
	}
}

// WithWorkers bounds the unused import pass concurrency.
func WithWorkers(n int) Option {
	return func(s *Scanner) {
		s.workers = n
	}
}

// WithImportProgress sets a callback invoked after each file of the unused
// import pass.
func WithImportProgress(fn fileproc.ProgressFunc) Option {
	return func(s *Scanner) {
		s.onImportFile = fn
	}
}

// New creates a scanner with every pass enabled.
func New(opts ...Option) *Scanner {
	s := &Scanner{passes: AllPasses}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FromConfig returns the scanner options a configuration implies. The policy and
// resolver are not part of the configuration and must be added by the caller.
func FromConfig(cfg *config.Config) ([]Option, error) {
	m, err := exclude.New(cfg.Report.Exclude,
		exclude.WithRoot(cfg.Report.Root),
		exclude.WithGitignore(cfg.Report.Gitignore))
	if err != nil {
		return nil, err
	}
	return []Option{
		WithPasses(Passes{
			AssignOnly:        cfg.Analysis.AssignOnly,
			RedundantProtocol: cfg.Analysis.RedundantProtocol,
			RedundantPublic:   cfg.Analysis.RedundantPublic,
			UnusedImports:     cfg.Analysis.UnusedImports,
		}),
		WithRetainPublic(cfg.Retention.Public),
		WithRetainAssignOnlyProperties(cfg.Retention.AssignOnlyProperties),
		WithRetainedModules(cfg.Retention.UnusedImportedModules...),
		WithExclude(m),
		WithWorkers(cfg.Analysis.Workers),
	}, nil
}

// PolicyFromConfig builds the attribute policy the retention settings describe.
func PolicyFromConfig(cfg *config.Config) *reachability.AttributePolicy {
	return reachability.NewAttributePolicy(
		reachability.WithRetainedAttributes(cfg.Retention.Attributes...),
		reachability.WithRetainedModifiers(cfg.Retention.Modifiers...),
		reachability.WithNamePatterns(cfg.Retention.Names...),
		reachability.WithObjcAccessible(cfg.Retention.ObjcAccessible),
	)
}

// Stats summarizes one scan.
type Stats struct {
	Declarations   int           `json:"declarations" toon:"declarations"`
	References     int           `json:"references" toon:"references"`
	Files          int           `json:"files" toon:"files"`
	Roots          int           `json:"roots" toon:"roots"`
	Reachable      int           `json:"reachable" toon:"reachable"`
	Unreachable    int           `json:"unreachable" toon:"unreachable"`
	AssignOnly     int           `json:"assign_only" toon:"assign_only"`
	RedundantProto int           `json:"redundant_protocols" toon:"redundant_protocols"`
	RedundantPub   int           `json:"redundant_public" toon:"redundant_public"`
	UnusedImports  int           `json:"unused_imports" toon:"unused_imports"`
	ImportFailures int           `json:"import_failures" toon:"import_failures"`
	Duration       time.Duration `json:"duration_ns" toon:"duration_ns"`
}

// Report is the outcome of a scan.
type Report struct {
	Results []Result
	// ImportErrors lists files whose unused import analysis failed. Their imports
	// are not reported; everything else in the report is complete.
	ImportErrors *fileproc.ProcessingErrors
	Stats        Stats
}

// passResults holds what each pass produced. Every field is written by exactly
// one goroutine and read only after the pool is done.
type passResults struct {
	assignOnly []*graph.Declaration
	protocols  []protocol.Redundancy
	public     []accessibility.Redundancy
	imports    *imports.Result
}

// Scan analyzes g and returns the merged report. The graph is frozen.
func (s *Scanner) Scan(ctx context.Context, g *graph.Graph) (*Report, error) {
	start := time.Now()
	if s.policy == nil {
		return nil, fmt.Errorf("scan: %w", reachability.ErrNoPolicy)
	}
	if s.passes.UnusedImports && s.resolver == nil {
		return nil, fmt.Errorf("scan: %w", imports.ErrNoResolver)
	}

	g.Freeze()
	s.markExcluded(g)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var out passResults
	p := pool.New().WithContext(ctx).WithCancelOnError()

	if s.passes.UnusedImports {
		an := imports.New(
			imports.WithResolver(s.resolver),
			imports.WithRetainedModules(s.retainedModules...),
			imports.WithSkip(s.exclude.Excluded),
			imports.WithWorkers(s.workers),
			imports.WithProgress(s.onImportFile),
		)
		p.Go(func(ctx context.Context) error {
			res, err := an.Analyze(ctx, g)
			out.imports = res
			return err
		})
	}

	reach, err := reachability.New(
		reachability.WithPolicy(s.policy),
		reachability.WithRetainPublic(s.retainPublic),
	).Analyze(ctx, g)
	if err != nil {
		cancel()
		_ = p.Wait()
		return nil, fmt.Errorf("scan: reachability: %w", err)
	}
	g.MarkReachable(reach.Reachable)
	for _, d := range reach.Unreachable {
		g.MarkUnreachable(d)
	}

	if s.passes.AssignOnly {
		an := assignonly.New(assignonly.WithRetainAssignOnly(s.retainAssign))
		p.Go(func(ctx context.Context) error {
			res, err := an.Analyze(ctx, g)
			out.assignOnly = res
			return err
		})
	}
	if s.passes.RedundantProtocol {
		p.Go(func(ctx context.Context) error {
			res, err := protocol.New().Analyze(ctx, g)
			out.protocols = res
			return err
		})
	}
	if s.passes.RedundantPublic {
		p.Go(func(ctx context.Context) error {
			res, err := accessibility.New().Analyze(ctx, g)
			out.public = res
			return err
		})
	}

	if err := p.Wait(); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}

	s.merge(g, &out)

	report := &Report{
		Results: Build(g),
		Stats: Stats{
			Declarations:   g.Len(),
			References:     len(g.References()),
			Files:          len(g.Files()),
			Roots:          len(reach.Roots),
			Reachable:      reach.Reachable.Len(),
			Unreachable:    len(reach.Unreachable),
			AssignOnly:     len(out.assignOnly),
			RedundantProto: len(out.protocols),
			RedundantPub:   len(out.public),
		},
	}
	if out.imports != nil {
		report.ImportErrors = out.imports.Errors
		report.Stats.UnusedImports = len(out.imports.Unused)
		report.Stats.ImportFailures = len(out.imports.Errors.Sorted())
	}
	report.Stats.Duration = time.Since(start)
	return report, nil
}

// ImportFiles returns how many files of g the unused import pass visits, which
// is how many times the import progress callback fires.
func (s *Scanner) ImportFiles(g *graph.Graph) int {
	if !s.passes.UnusedImports {
		return 0
	}
	n := 0
	for _, f := range g.Files() {
		if !s.exclude.Excluded(f.Path) {
			n++
		}
	}
	return n
}

// Explain returns the shortest chain of declarations that keeps usr alive, seen
// with the same roots and exclusions as Scan. The graph is frozen.
func (s *Scanner) Explain(ctx context.Context, g *graph.Graph, usr string) (*reachability.Explanation, error) {
	if s.policy == nil {
		return nil, fmt.Errorf("explain: %w", reachability.ErrNoPolicy)
	}
	g.Freeze()
	s.markExcluded(g)
	return reachability.New(
		reachability.WithPolicy(s.policy),
		reachability.WithRetainPublic(s.retainPublic),
	).Explain(ctx, g, usr)
}

func (s *Scanner) markExcluded(g *graph.Graph) {
	if s.exclude == nil {
		return
	}
	for _, d := range g.Declarations() {
		if s.exclude.Excluded(d.Location.File) {
			g.MarkIgnored(d)
		}
	}
}

func (s *Scanner) merge(g *graph.Graph, out *passResults) {
	for _, d := range out.assignOnly {
		g.MarkAssignOnly(d)
	}
	for _, r := range out.protocols {
		g.MarkRedundantProtocol(r.Protocol, r.Conformance)
	}
	for _, r := range out.public {
		g.MarkRedundantPublicAccessibility(r.Declaration, r.Modules)
	}
	if out.imports != nil {
		for _, stmt := range out.imports.Unused {
			g.MarkUnusedImport(stmt)
		}
	}
}
