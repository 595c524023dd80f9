package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/panbanda/sweep/internal/output"
	"github.com/panbanda/sweep/pkg/config"
	"github.com/panbanda/sweep/pkg/graph"
)

func sampleRecords() []output.Record {
	return []output.Record{{
		Kind:          "class",
		Name:          "Store",
		Modifiers:     []string{"final"},
		Attributes:    []string{},
		Accessibility: "internal",
		IDs:           []string{"s:Store"},
		Location:      graph.Location{File: "Store.swift", Line: 1, Column: 7},
		Hints:         []string{"unused"},
		Message:       "Class 'Store' is unused",
	}}
}

func TestNew(t *testing.T) {
	tmpDir := t.TempDir()

	c, err := New(filepath.Join(tmpDir, "cache"), 24, true)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if !c.Enabled() {
		t.Error("cache should be enabled")
	}

	c, err = New("", 0, false)
	if err != nil {
		t.Fatalf("New() error for disabled cache: %v", err)
	}
	if c.Enabled() {
		t.Error("cache should be disabled")
	}
}

func TestNewCreatesDirectory(t *testing.T) {
	cacheDir := filepath.Join(t.TempDir(), "nested", "cache", "dir")

	if _, err := New(cacheDir, 24, true); err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if _, err := os.Stat(cacheDir); os.IsNotExist(err) {
		t.Error("New() should create cache directory")
	}
}

func TestStoreAndLoad(t *testing.T) {
	c, err := New(filepath.Join(t.TempDir(), "cache"), 24, true)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	records := sampleRecords()
	if err := c.Store("index.json", "fp1", records); err != nil {
		t.Fatalf("Store() error: %v", err)
	}

	got, ok := c.Load("index.json", "fp1")
	if !ok {
		t.Fatal("Load() should hit")
	}
	if !reflect.DeepEqual(got, records) {
		t.Errorf("Load() = %+v, want %+v", got, records)
	}

	if _, ok := c.Load("index.json", "fp2"); ok {
		t.Error("Load() should miss on a different fingerprint")
	}
	if _, ok := c.Load("other.json", "fp1"); ok {
		t.Error("Load() should miss on a different key")
	}
}

func TestLoadExpired(t *testing.T) {
	c, err := New(filepath.Join(t.TempDir(), "cache"), 1, true)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	entry := Entry{Hash: "fp", Timestamp: time.Now().Add(-2 * time.Hour), Records: sampleRecords()}
	data, _ := json.Marshal(entry)
	if err := os.WriteFile(c.keyPath("index.json"), data, 0600); err != nil {
		t.Fatal(err)
	}

	if _, ok := c.Load("index.json", "fp"); ok {
		t.Error("Load() should miss for expired entry")
	}
	if _, err := os.Stat(c.keyPath("index.json")); !os.IsNotExist(err) {
		t.Error("expired entry should be removed")
	}
}

func TestLoadCorrupted(t *testing.T) {
	c, err := New(filepath.Join(t.TempDir(), "cache"), 24, true)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if err := os.WriteFile(c.keyPath("index.json"), []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Load("index.json", "fp"); ok {
		t.Error("Load() should miss for corrupted entry")
	}
}

func TestDisabledCache(t *testing.T) {
	c, _ := New("", 0, false)

	if err := c.Store("k", "fp", sampleRecords()); err != nil {
		t.Errorf("Store() on disabled cache error: %v", err)
	}
	if _, ok := c.Load("k", "fp"); ok {
		t.Error("Load() on disabled cache should miss")
	}
	if err := c.Invalidate("k"); err != nil {
		t.Errorf("Invalidate() error: %v", err)
	}
	if err := c.Clear(); err != nil {
		t.Errorf("Clear() error: %v", err)
	}
	stats, err := c.GetStats()
	if err != nil || stats.Entries != 0 {
		t.Errorf("GetStats() = %+v, %v", stats, err)
	}
}

func TestInvalidate(t *testing.T) {
	c, _ := New(filepath.Join(t.TempDir(), "cache"), 24, true)
	if err := c.Store("k", "fp", sampleRecords()); err != nil {
		t.Fatal(err)
	}
	if err := c.Invalidate("k"); err != nil {
		t.Fatalf("Invalidate() error: %v", err)
	}
	if _, ok := c.Load("k", "fp"); ok {
		t.Error("entry should be gone")
	}
	if err := c.Invalidate("k"); err != nil {
		t.Errorf("Invalidate() of missing entry error: %v", err)
	}
}

func TestClearAndStats(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	c, _ := New(dir, 24, true)
	for _, key := range []string{"a", "b", "c"} {
		if err := c.Store(key, "fp", sampleRecords()); err != nil {
			t.Fatal(err)
		}
	}

	stats, err := c.GetStats()
	if err != nil {
		t.Fatalf("GetStats() error: %v", err)
	}
	if stats.Entries != 3 || stats.TotalSize == 0 {
		t.Errorf("GetStats() = %+v", stats)
	}

	if err := c.Clear(); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Error("Clear() should remove the directory")
	}
	stats, err = c.GetStats()
	if err != nil || stats.Entries != 0 {
		t.Errorf("GetStats() after Clear = %+v, %v", stats, err)
	}
}

func TestFingerprint(t *testing.T) {
	cfg := config.DefaultConfig()
	index := []byte(`{"declarations": []}`)

	base, err := Fingerprint(index, cfg)
	if err != nil {
		t.Fatalf("Fingerprint() error: %v", err)
	}
	again, _ := Fingerprint(index, cfg)
	if base != again {
		t.Error("Fingerprint() should be deterministic")
	}

	changedIndex, _ := Fingerprint([]byte(`{"declarations": [1]}`), cfg)
	if changedIndex == base {
		t.Error("index change should change the fingerprint")
	}

	retain := *cfg
	retain.Retention.Public = true
	changedCfg, _ := Fingerprint(index, &retain)
	if changedCfg == base {
		t.Error("retention change should change the fingerprint")
	}

	format := *cfg
	format.Output.Format = "json"
	sameFormat, _ := Fingerprint(index, &format)
	if sameFormat != base {
		t.Error("output settings should not change the fingerprint")
	}

	gitignore, _ := Fingerprint(index, cfg, []byte(".gitignore\x00Pods/\n"))
	if gitignore == base {
		t.Error("extra inputs should change the fingerprint")
	}
	edited, _ := Fingerprint(index, cfg, []byte(".gitignore\x00Carthage/\n"))
	if edited == gitignore {
		t.Error("changed extra inputs should change the fingerprint")
	}
}

func TestHashBytes(t *testing.T) {
	h := HashBytes([]byte("hello"))
	if len(h) != 64 {
		t.Errorf("HashBytes() length = %d, want 64", len(h))
	}
	if h == HashBytes([]byte("world")) {
		t.Error("different inputs should hash differently")
	}
}
