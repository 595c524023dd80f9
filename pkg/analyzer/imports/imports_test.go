package imports

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/sweep/pkg/graph"
)

type mapResolver struct {
	mu      sync.Mutex
	modules map[string][]string
	fail    map[string]error
	calls   map[string]int
}

func newMapResolver(modules map[string][]string) *mapResolver {
	return &mapResolver{modules: modules, fail: map[string]error{}, calls: map[string]int{}}
}

func (r *mapResolver) ResolveModules(_ context.Context, usr string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[usr]++
	if err := r.fail[usr]; err != nil {
		return nil, err
	}
	return r.modules[usr], nil
}

type batchResolver struct {
	*mapResolver
	batches [][]string
}

func (r *batchResolver) ResolveModulesBatch(_ context.Context, usrs []string) (map[string][]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, usrs)
	out := make(map[string][]string)
	for _, usr := range usrs {
		out[usr] = r.modules[usr]
	}
	return out, nil
}

func importAt(file string, line int, parts ...string) *graph.ImportStatement {
	return &graph.ImportStatement{Parts: parts, Location: graph.Location{File: file, Line: line, Column: 1}}
}

func refIn(g *graph.Graph, file, usr string) {
	g.AddReference(&graph.Reference{Kind: graph.KindClass, USR: usr, Location: graph.Location{File: file, Line: 10, Column: 1}})
}

func TestAnalyze_RequiresResolver(t *testing.T) {
	_, err := New().Analyze(context.Background(), graph.New())
	assert.ErrorIs(t, err, ErrNoResolver)
}

func TestAnalyze_ReportsModulesNoReferenceBelongsTo(t *testing.T) {
	g := graph.New()
	foundation := importAt("a.swift", 1, "Foundation")
	uikit := importAt("a.swift", 2, "UIKit")
	g.AddFile("a.swift", []string{"App"}, foundation, uikit)
	refIn(g, "a.swift", "c:objc(cs)NSString")
	g.Freeze()

	res, err := New(WithResolver(newMapResolver(map[string][]string{
		"c:objc(cs)NSString": {"Foundation"},
	}))).Analyze(context.Background(), g)
	require.NoError(t, err)
	assert.Equal(t, []*graph.ImportStatement{uikit}, res.Unused)
	assert.Nil(t, res.Errors)
	assert.Equal(t, 1, res.Files)
}

func TestAnalyze_FileWithoutReferences(t *testing.T) {
	g := graph.New()
	imp := importAt("empty.swift", 1, "Combine")
	g.AddFile("empty.swift", []string{"App"}, imp)
	g.Freeze()

	res, err := New(WithResolver(newMapResolver(nil))).Analyze(context.Background(), g)
	require.NoError(t, err)
	assert.Equal(t, []*graph.ImportStatement{imp}, res.Unused)
}

func TestAnalyze_UsesTopLevelModuleAndUnionOfModules(t *testing.T) {
	g := graph.New()
	sub := importAt("a.swift", 1, "Foundation", "NSString")
	core := importAt("a.swift", 2, "CoreKit")
	g.AddFile("a.swift", []string{"App"}, sub, core)
	refIn(g, "a.swift", "s:shared")
	g.Freeze()

	res, err := New(WithResolver(newMapResolver(map[string][]string{
		"s:shared": {"CoreKit", "Foundation"},
	}))).Analyze(context.Background(), g)
	require.NoError(t, err)
	assert.Empty(t, res.Unused)
}

func TestAnalyze_RetainedModulesNeverReported(t *testing.T) {
	g := graph.New()
	g.AddFile("a.swift", []string{"App"}, importAt("a.swift", 1, "SwiftUI"))
	g.Freeze()

	res, err := New(WithResolver(newMapResolver(nil)), WithRetainedModules("SwiftUI")).Analyze(context.Background(), g)
	require.NoError(t, err)
	assert.Empty(t, res.Unused)
}

func TestAnalyze_SkippedFiles(t *testing.T) {
	g := graph.New()
	g.AddFile("Generated/a.swift", []string{"App"}, importAt("Generated/a.swift", 1, "UIKit"))
	g.Freeze()

	skip := func(path string) bool { return path == "Generated/a.swift" }
	res, err := New(WithResolver(newMapResolver(nil)), WithSkip(skip)).Analyze(context.Background(), g)
	require.NoError(t, err)
	assert.Empty(t, res.Unused)
	assert.Zero(t, res.Files)
}

func TestAnalyze_LookupFailureIsolatedPerFile(t *testing.T) {
	g := graph.New()
	broken := importAt("broken.swift", 1, "UIKit")
	fine := importAt("fine.swift", 1, "UIKit")
	g.AddFile("broken.swift", []string{"App"}, broken)
	g.AddFile("fine.swift", []string{"App"}, fine)
	refIn(g, "broken.swift", "s:bad")
	refIn(g, "fine.swift", "s:good")
	g.Freeze()

	errStore := errors.New("index store closed")
	r := newMapResolver(map[string][]string{"s:good": {"Foundation"}})
	r.fail["s:bad"] = errStore

	res, err := New(WithResolver(r), WithWorkers(2)).Analyze(context.Background(), g)
	require.NoError(t, err)
	assert.Equal(t, []*graph.ImportStatement{fine}, res.Unused)
	require.True(t, res.Errors.HasErrors())
	sorted := res.Errors.Sorted()
	require.Len(t, sorted, 1)
	assert.Equal(t, "broken.swift", sorted[0].Path)
	assert.ErrorIs(t, res.Errors, errStore)
}

func TestAnalyze_LookupsCachedAcrossFiles(t *testing.T) {
	g := graph.New()
	for _, file := range []string{"a.swift", "b.swift", "c.swift"} {
		g.AddFile(file, []string{"App"}, importAt(file, 1, "UIKit"), importAt(file, 2, "Foundation"))
		refIn(g, file, "s:shared")
		refIn(g, file, "s:shared")
	}
	g.Freeze()

	r := newMapResolver(map[string][]string{"s:shared": {"Foundation"}})
	cached := NewCachedResolver(r)
	res, err := New(WithResolver(cached), WithWorkers(1)).Analyze(context.Background(), g)
	require.NoError(t, err)
	assert.Len(t, res.Unused, 3)
	assert.Equal(t, 1, r.calls["s:shared"])

	hits, misses := cached.Stats()
	assert.Equal(t, uint64(2), hits)
	assert.Equal(t, uint64(1), misses)
}

func TestAnalyze_ProgressPerFile(t *testing.T) {
	g := graph.New()
	g.AddFile("a.swift", nil)
	g.AddFile("b.swift", nil)
	g.Freeze()

	var mu sync.Mutex
	count := 0
	_, err := New(WithResolver(newMapResolver(nil)), WithProgress(func() {
		mu.Lock()
		count++
		mu.Unlock()
	})).Analyze(context.Background(), g)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestCachedResolver_Prefetch(t *testing.T) {
	r := &batchResolver{mapResolver: newMapResolver(map[string][]string{
		"s:a": {"A"},
		"s:b": {"B"},
	})}
	c := NewCachedResolver(r)

	require.NoError(t, c.Prefetch(context.Background(), []string{"s:a", "s:b", "s:unknown"}))
	require.NoError(t, c.Prefetch(context.Background(), []string{"s:a"}))
	assert.Len(t, r.batches, 1)

	mods, err := c.ResolveModules(context.Background(), "s:b")
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, mods)

	mods, err = c.ResolveModules(context.Background(), "s:unknown")
	require.NoError(t, err)
	assert.Empty(t, mods)
	assert.Empty(t, r.calls)
}

func TestCachedResolver_FailuresNotCached(t *testing.T) {
	r := newMapResolver(map[string][]string{"s:x": {"X"}})
	r.fail["s:x"] = errors.New("transient")
	c := NewCachedResolver(r)

	_, err := c.ResolveModules(context.Background(), "s:x")
	require.Error(t, err)

	delete(r.fail, "s:x")
	mods, err := c.ResolveModules(context.Background(), "s:x")
	require.NoError(t, err)
	assert.Equal(t, []string{"X"}, mods)
	assert.Equal(t, 2, r.calls["s:x"])
}

func TestResolverFunc(t *testing.T) {
	f := ResolverFunc(func(_ context.Context, usr string) ([]string, error) {
		return []string{usr + "Module"}, nil
	})
	mods, err := f.ResolveModules(context.Background(), "Core")
	require.NoError(t, err)
	assert.Equal(t, []string{"CoreModule"}, mods)
}
