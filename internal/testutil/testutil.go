// Package testutil holds index fixtures shared by command and service tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// AppIndex is a small index dump:
//
//	// Sources/App/main.swift
//	import Foundation        // used through Date
//	import Core              // unused
//	protocol Marker {}       // only conformed to
//	class Model: Marker {    // used by main
//	    var name = ""        // only assigned
//	}
//	func dead() {}
//	func main() { let m = Model(); m.name = "x"; _ = Date() }
const AppIndex = `{
  "version": 1,
  "files": [
    {
      "path": "Sources/App/main.swift",
      "modules": ["App"],
      "imports": [
        {"parts": ["Foundation"], "line": 1, "column": 1},
        {"parts": ["Core"], "line": 2, "column": 1}
      ]
    }
  ],
  "declarations": [
    {"kind": "protocol", "name": "Marker", "usrs": ["s:Marker"], "file": "Sources/App/main.swift", "line": 3, "column": 10},
    {"kind": "class", "name": "Model", "usrs": ["s:Model"], "file": "Sources/App/main.swift", "line": 4, "column": 7},
    {"kind": "var.instance", "name": "name", "usrs": ["s:Model.name"], "file": "Sources/App/main.swift", "line": 5, "column": 9, "parent": "s:Model"},
    {"kind": "function.free", "name": "dead", "usrs": ["s:dead"], "file": "Sources/App/main.swift", "line": 7, "column": 6},
    {"kind": "function.free", "name": "main", "usrs": ["s:main"], "file": "Sources/App/main.swift", "line": 8, "column": 6}
  ],
  "references": [
    {"kind": "protocol", "usr": "s:Marker", "role": "conformance", "file": "Sources/App/main.swift", "line": 4, "column": 14, "parent": "s:Model"},
    {"kind": "class", "usr": "s:Model", "role": "use", "file": "Sources/App/main.swift", "line": 8, "column": 23, "parent": "s:main"},
    {"kind": "var.instance", "usr": "s:Model.name", "role": "write", "file": "Sources/App/main.swift", "line": 8, "column": 34, "parent": "s:main"},
    {"kind": "struct", "usr": "s:Date", "role": "use", "file": "Sources/App/main.swift", "line": 8, "column": 50, "parent": "s:main"}
  ],
  "symbols": {
    "s:Date": ["Foundation"]
  }
}`

// AppResults lists what a default scan of AppIndex reports, as
// "location hint" pairs in report order.
var AppResults = []string{
	"Sources/App/main.swift:2:1 unusedImport",
	"Sources/App/main.swift:3:10 redundantProtocol",
	"Sources/App/main.swift:4:14 redundantConformance",
	"Sources/App/main.swift:5:9 assignOnlyProperty",
	"Sources/App/main.swift:7:6 unused",
}

// WriteFile writes content to a file in the real filesystem.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("MkdirAll(%s) error: %v", dir, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile(%s) error: %v", path, err)
	}
}

// ReadFile reads content from a file.
func ReadFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile(%s) error: %v", path, err)
	}
	return string(data)
}

// WriteIndex writes AppIndex into a fresh temporary directory and returns its path.
func WriteIndex(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "index.json")
	WriteFile(t, path, AppIndex)
	return path
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
