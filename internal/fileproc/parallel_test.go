package fileproc

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
)

func testFiles(n int) []string {
	files := make([]string, n)
	for i := range files {
		files[i] = fmt.Sprintf("Sources/File%03d.swift", i)
	}
	return files
}

func TestForEachFile(t *testing.T) {
	files := testFiles(3)

	results, errs := ForEachFile(context.Background(), files, Options{}, func(_ context.Context, path string) (string, error) {
		return path, nil
	})

	if errs != nil {
		t.Errorf("Unexpected errors: %v", errs)
	}
	sort.Strings(results)
	for i, want := range files {
		if results[i] != want {
			t.Errorf("results[%d] = %q, want %q", i, results[i], want)
		}
	}
}

func TestForEachFile_EmptyFileList(t *testing.T) {
	results, errs := ForEachFile(context.Background(), nil, Options{}, func(_ context.Context, path string) (string, error) {
		return path, nil
	})

	if results != nil {
		t.Errorf("Expected nil for empty file list, got %v", results)
	}
	if errs != nil {
		t.Errorf("Expected nil errors for empty file list, got %v", errs)
	}
}

func TestForEachFile_ErrorsAreIsolated(t *testing.T) {
	files := testFiles(10)
	errLookup := errors.New("index store unavailable")

	results, errs := ForEachFile(context.Background(), files, Options{MaxWorkers: 3}, func(_ context.Context, path string) (int, error) {
		if path == files[4] || path == files[7] {
			return 0, errLookup
		}
		return 1, nil
	})

	if len(results) != 8 {
		t.Errorf("Expected 8 results, got %d", len(results))
	}
	if !errs.HasErrors() {
		t.Fatal("Expected errors to be collected")
	}
	sorted := errs.Sorted()
	if len(sorted) != 2 || sorted[0].Path != files[4] || sorted[1].Path != files[7] {
		t.Errorf("Sorted() = %v", sorted)
	}
	if !errors.Is(errs, errLookup) {
		t.Error("errors.Is should see the per-file error")
	}
}

func TestForEachFile_ProgressCountsEveryFile(t *testing.T) {
	files := testFiles(25)
	var calls atomic.Int32

	opts := Options{OnProgress: func() { calls.Add(1) }}
	ForEachFile(context.Background(), files, opts, func(_ context.Context, path string) (string, error) {
		if path == files[0] {
			return "", errors.New("boom")
		}
		return path, nil
	})

	if got := calls.Load(); got != int32(len(files)) {
		t.Errorf("progress called %d times, want %d", got, len(files))
	}
}

func TestForEachFile_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	files := testFiles(5)
	results, errs := ForEachFile(ctx, files, Options{MaxWorkers: 1}, func(_ context.Context, path string) (string, error) {
		return path, nil
	})

	if len(results) != 0 {
		t.Errorf("Expected no results after cancellation, got %d", len(results))
	}
	if !errs.HasErrors() {
		t.Fatal("Expected cancellation errors")
	}
	if !errors.Is(errs, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", errs)
	}
}

func TestProcessingError(t *testing.T) {
	inner := fmt.Errorf("lookup failed")
	err := ProcessingError{Path: "/path/to/file.swift", Err: inner}
	expected := "/path/to/file.swift: lookup failed"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
	if !errors.Is(err, inner) {
		t.Error("ProcessingError should unwrap to its cause")
	}
}

func TestProcessingErrors(t *testing.T) {
	errs := &ProcessingErrors{}

	// Empty errors
	if errs.HasErrors() {
		t.Error("Empty ProcessingErrors should not have errors")
	}
	if errs.Error() != "no errors" {
		t.Errorf("Empty error message = %q, want 'no errors'", errs.Error())
	}

	// Single error
	errs.Add("/file1.swift", fmt.Errorf("error1"))
	if !errs.HasErrors() {
		t.Error("ProcessingErrors with one error should have errors")
	}
	if errs.Error() != "/file1.swift: error1" {
		t.Errorf("Single error message = %q", errs.Error())
	}

	// Multiple errors
	errs.Add("/file2.swift", fmt.Errorf("error2"))
	if len(errs.Errors) != 2 {
		t.Errorf("Expected 2 errors, got %d", len(errs.Errors))
	}
	errMsg := errs.Error()
	if errMsg != "2 files failed to process (first: /file1.swift: error1)" {
		t.Errorf("Multiple error message = %q", errMsg)
	}
}

func TestProcessingErrors_Nil(t *testing.T) {
	var errs *ProcessingErrors
	if errs.HasErrors() {
		t.Error("nil ProcessingErrors should not have errors")
	}
	if errs.Sorted() != nil {
		t.Error("nil ProcessingErrors should sort to nil")
	}
}

func TestProcessingErrors_ThreadSafe(t *testing.T) {
	errs := &ProcessingErrors{}
	var wg sync.WaitGroup

	// Add errors concurrently
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			errs.Add(fmt.Sprintf("/file%d.swift", n), fmt.Errorf("error %d", n))
		}(i)
	}
	wg.Wait()

	if len(errs.Errors) != 100 {
		t.Errorf("Expected 100 errors, got %d", len(errs.Errors))
	}
}
