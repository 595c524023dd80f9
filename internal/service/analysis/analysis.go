// Package analysis runs scans against index dumps on disk. The CLI and the MCP
// server both go through it.
package analysis

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/panbanda/sweep/internal/cache"
	"github.com/panbanda/sweep/internal/exclude"
	"github.com/panbanda/sweep/internal/fileproc"
	"github.com/panbanda/sweep/internal/output"
	"github.com/panbanda/sweep/internal/progress"
	"github.com/panbanda/sweep/pkg/analyzer/reachability"
	"github.com/panbanda/sweep/pkg/config"
	"github.com/panbanda/sweep/pkg/index"
	"github.com/panbanda/sweep/pkg/scan"
)

// Service orchestrates loading an index, scanning it and caching the result.
type Service struct {
	config *config.Config
	cache  *cache.Cache
}

// Option configures a Service.
type Option func(*Service)

// WithConfig sets the configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

// WithCache sets the result cache. Without one, every scan runs in full.
func WithCache(c *cache.Cache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// New creates a new analysis service.
func New(opts ...Option) *Service {
	s := &Service{
		config: config.LoadOrDefault(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the configuration the service scans with.
func (s *Service) Config() *config.Config {
	return s.config
}

// ScanOptions configures one scan.
type ScanOptions struct {
	NoCache  bool
	Progress bool // show unused import progress on stderr
}

// Outcome is the result of scanning one index.
type Outcome struct {
	Records []output.Record
	// Stats and ImportErrors are nil when the records came from the cache.
	Stats        *scan.Stats
	ImportErrors *fileproc.ProcessingErrors
	Cached       bool
}

// Scan loads the index at path and reports its unused code.
func (s *Service) Scan(ctx context.Context, path string, opts ScanOptions) (*Outcome, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	useCache := s.cache != nil && s.cache.Enabled() && !opts.NoCache
	var fingerprint string
	if useCache {
		fingerprint, err = s.fingerprint(data)
		if err != nil {
			return nil, fmt.Errorf("cache fingerprint: %w", err)
		}
		if records, ok := s.cache.Load(cacheKey(path), fingerprint); ok {
			return &Outcome{Records: records, Cached: true}, nil
		}
	}

	idx, err := index.Parse(data, index.FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	scanOpts, err := s.scannerOptions(idx)
	if err != nil {
		return nil, err
	}

	scanner := scan.New(scanOpts...)
	var tracker *progress.Tracker
	if n := scanner.ImportFiles(idx.Graph); opts.Progress && n > 0 {
		tracker = progress.NewTracker("Resolving imports", n)
		scanner = scan.New(append(scanOpts, scan.WithImportProgress(tracker.Tick))...)
	}

	report, err := scanner.Scan(ctx, idx.Graph)
	if tracker != nil {
		if err != nil {
			tracker.FinishError(err)
		} else {
			tracker.FinishSuccess()
		}
	}
	if err != nil {
		return nil, err
	}

	records := output.Flatten(report.Results)
	// An incomplete import pass must not be served from the cache later.
	if useCache && !report.ImportErrors.HasErrors() {
		if err := s.cache.Store(cacheKey(path), fingerprint, records); err != nil {
			return nil, fmt.Errorf("cache store: %w", err)
		}
	}

	return &Outcome{
		Records:      records,
		Stats:        &report.Stats,
		ImportErrors: report.ImportErrors,
	}, nil
}

// Forget drops the cached results for the index at path.
func (s *Service) Forget(path string) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Invalidate(cacheKey(path))
}

// cacheKey identifies an index by absolute path so that relative and absolute
// spellings share an entry.
func cacheKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

// fingerprint keys a cache entry on the index, the config and, when gitignore
// matching is on, the .gitignore files that decide the exclusions.
func (s *Service) fingerprint(data []byte) (string, error) {
	var extra [][]byte
	if s.config.Report.Gitignore && s.config.Report.Root != "" {
		digest, err := exclude.GitignoreDigest(s.config.Report.Root)
		if err != nil {
			return "", err
		}
		extra = append(extra, digest)
	}
	return cache.Fingerprint(data, s.config, extra...)
}

// Explain loads the index at path and returns why usr is retained.
func (s *Service) Explain(ctx context.Context, path, usr string) (*reachability.Explanation, error) {
	idx, err := index.Load(path)
	if err != nil {
		return nil, err
	}
	scanOpts, err := s.scannerOptions(idx)
	if err != nil {
		return nil, err
	}
	return scan.New(scanOpts...).Explain(ctx, idx.Graph, usr)
}

// Summary describes a valid index.
type Summary struct {
	Path         string `json:"path" toon:"path"`
	Files        int    `json:"files" toon:"files"`
	Declarations int    `json:"declarations" toon:"declarations"`
	References   int    `json:"references" toon:"references"`
	Symbols      int    `json:"symbols" toon:"symbols"`
}

// Check validates the index at path without scanning it.
func (s *Service) Check(path string) (*Summary, error) {
	idx, err := index.Load(path)
	if err != nil {
		return nil, err
	}
	return &Summary{
		Path:         path,
		Files:        len(idx.Graph.Files()),
		Declarations: idx.Graph.Len(),
		References:   len(idx.Graph.References()),
		Symbols:      idx.Symbols.Len(),
	}, nil
}

func (s *Service) scannerOptions(idx *index.Index) ([]scan.Option, error) {
	opts, err := scan.FromConfig(s.config)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return append(opts,
		scan.WithPolicy(scan.PolicyFromConfig(s.config)),
		scan.WithResolver(idx.Symbols),
	), nil
}
