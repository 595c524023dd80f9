package analysis

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/panbanda/sweep/internal/cache"
	"github.com/panbanda/sweep/internal/output"
	"github.com/panbanda/sweep/internal/testutil"
	"github.com/panbanda/sweep/pkg/analyzer/reachability"
	"github.com/panbanda/sweep/pkg/config"
	"github.com/panbanda/sweep/pkg/index"
)

func describe(records []output.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Location.String() + " " + r.Hint()
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestNew(t *testing.T) {
	svc := New()
	if svc == nil {
		t.Fatal("New() returned nil")
	}
	if svc.config == nil {
		t.Error("config should not be nil")
	}
	if svc.cache != nil {
		t.Error("cache should be nil by default")
	}
}

func TestNewWithConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	svc := New(WithConfig(cfg))
	if svc.Config() != cfg {
		t.Error("WithConfig did not set config")
	}
}

func TestScan(t *testing.T) {
	path := testutil.WriteIndex(t)
	svc := New(WithConfig(config.DefaultConfig()))

	out, err := svc.Scan(context.Background(), path, ScanOptions{})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if got := describe(out.Records); !equal(got, testutil.AppResults) {
		t.Errorf("Scan() records = %v, want %v", got, testutil.AppResults)
	}
	if out.Cached {
		t.Error("Scan() without a cache should not be cached")
	}
	if out.Stats == nil || out.Stats.Declarations != 5 {
		t.Errorf("Scan() stats = %+v", out.Stats)
	}
}

func TestScan_UsesCache(t *testing.T) {
	path := testutil.WriteIndex(t)
	cfg := config.DefaultConfig()
	c, err := cache.New(filepath.Join(t.TempDir(), "cache"), 24, true)
	if err != nil {
		t.Fatal(err)
	}
	svc := New(WithConfig(cfg), WithCache(c))

	first, err := svc.Scan(context.Background(), path, ScanOptions{})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if first.Cached {
		t.Fatal("first Scan() should not be cached")
	}

	second, err := svc.Scan(context.Background(), path, ScanOptions{})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if !second.Cached {
		t.Error("second Scan() should be served from the cache")
	}
	if !equal(describe(second.Records), describe(first.Records)) {
		t.Errorf("cached records = %v, want %v", describe(second.Records), describe(first.Records))
	}

	bypass, err := svc.Scan(context.Background(), path, ScanOptions{NoCache: true})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if bypass.Cached {
		t.Error("NoCache should bypass the cache")
	}

	// A config change invalidates the entry.
	cfg.Analysis.UnusedImports = false
	third, err := svc.Scan(context.Background(), path, ScanOptions{})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if third.Cached {
		t.Error("Scan() after a config change should not be cached")
	}
	if len(third.Records) != len(first.Records)-1 {
		t.Errorf("Scan() without unused imports = %v", describe(third.Records))
	}
}

func TestScan_GitignoreChangeInvalidatesCache(t *testing.T) {
	path := testutil.WriteIndex(t)
	root := t.TempDir()
	gitignore := filepath.Join(root, ".gitignore")
	testutil.WriteFile(t, gitignore, "Pods/\n")

	cfg := config.DefaultConfig()
	cfg.Report.Gitignore = true
	cfg.Report.Root = root
	c, err := cache.New(filepath.Join(t.TempDir(), "cache"), 24, true)
	if err != nil {
		t.Fatal(err)
	}
	svc := New(WithConfig(cfg), WithCache(c))

	if _, err := svc.Scan(context.Background(), path, ScanOptions{}); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	cached, err := svc.Scan(context.Background(), path, ScanOptions{})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if !cached.Cached {
		t.Fatal("unchanged .gitignore should be served from the cache")
	}

	testutil.WriteFile(t, gitignore, "Sources/\n")
	fresh, err := svc.Scan(context.Background(), path, ScanOptions{})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if fresh.Cached {
		t.Error("editing .gitignore should invalidate the cache")
	}
	if len(fresh.Records) != 0 {
		t.Errorf("records in ignored Sources/ = %v", describe(fresh.Records))
	}
}

func TestForget(t *testing.T) {
	path := testutil.WriteIndex(t)
	c, err := cache.New(filepath.Join(t.TempDir(), "cache"), 24, true)
	if err != nil {
		t.Fatal(err)
	}
	svc := New(WithConfig(config.DefaultConfig()), WithCache(c))

	if _, err := svc.Scan(context.Background(), path, ScanOptions{}); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if err := svc.Forget(path); err != nil {
		t.Fatalf("Forget() error = %v", err)
	}
	out, err := svc.Scan(context.Background(), path, ScanOptions{})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if out.Cached {
		t.Error("Scan() after Forget() should not be cached")
	}

	if err := New(WithConfig(config.DefaultConfig())).Forget(path); err != nil {
		t.Errorf("Forget() without a cache error = %v", err)
	}
}

func TestScan_Errors(t *testing.T) {
	svc := New(WithConfig(config.DefaultConfig()))

	if _, err := svc.Scan(context.Background(), filepath.Join(t.TempDir(), "missing.json"), ScanOptions{}); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Scan() of missing file error = %v", err)
	}

	bad := filepath.Join(t.TempDir(), "bad.json")
	testutil.WriteFile(t, bad, `{"declarations": [{"kind": "class"}]}`)
	if _, err := svc.Scan(context.Background(), bad, ScanOptions{}); !errors.Is(err, index.ErrInvalidDump) {
		t.Errorf("Scan() of invalid dump error = %v", err)
	}
}

func TestExplain(t *testing.T) {
	path := testutil.WriteIndex(t)
	svc := New(WithConfig(config.DefaultConfig()))

	exp, err := svc.Explain(context.Background(), path, "s:Model")
	if err != nil {
		t.Fatalf("Explain() error = %v", err)
	}
	if len(exp.Path) != 2 || exp.Path[0].Name != "main" || exp.Path[1].Name != "Model" {
		t.Errorf("Explain() path = %v", exp.Path)
	}

	if _, err := svc.Explain(context.Background(), path, "s:dead"); !errors.Is(err, reachability.ErrNotRetained) {
		t.Errorf("Explain(s:dead) error = %v", err)
	}
	if _, err := svc.Explain(context.Background(), path, "s:nope"); !errors.Is(err, reachability.ErrUnknownSymbol) {
		t.Errorf("Explain(s:nope) error = %v", err)
	}
}

func TestCheck(t *testing.T) {
	path := testutil.WriteIndex(t)
	svc := New(WithConfig(config.DefaultConfig()))

	summary, err := svc.Check(path)
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if summary.Files != 1 || summary.Declarations != 5 || summary.References != 4 {
		t.Errorf("Check() = %+v", summary)
	}
}
