package exclude

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestExcluded(t *testing.T) {
	m, err := New([]string{"Generated/", "*.pb.swift", "# comment", "", "Sources/Legacy/**"})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	tests := []struct {
		path string
		want bool
	}{
		{"Generated/Model.swift", true},
		{"Sources/App/Generated/Model.swift", true},
		{"Sources/App/Message.pb.swift", true},
		{"Sources/Legacy/Old.swift", true},
		{"Sources/App/App.swift", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := m.Excluded(tt.path); got != tt.want {
				t.Errorf("Excluded(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestExcludedAbsolutePathsUseRoot(t *testing.T) {
	root := filepath.Join(string(filepath.Separator), "work", "app")
	m, err := New([]string{"Tests/"}, WithRoot(root))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	if !m.Excluded(filepath.Join(root, "Tests", "AppTests.swift")) {
		t.Error("absolute path under root should be matched relative to root")
	}
	if m.Excluded(filepath.Join(root, "Sources", "App.swift")) {
		t.Error("unmatched absolute path should not be excluded")
	}
}

func TestNilAndEmptyMatcher(t *testing.T) {
	var m *Matcher
	if m.Excluded("a.swift") {
		t.Error("nil matcher should exclude nothing")
	}

	empty, err := New(nil)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if empty.Excluded("a.swift") {
		t.Error("empty matcher should exclude nothing")
	}
}

func TestGitignore(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, ".gitignore"), []byte("Pods/\n"), 0o644); err != nil {
		t.Fatalf("write .gitignore: %v", err)
	}

	m, err := New(nil, WithRoot(root), WithGitignore(true))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if !m.Excluded(filepath.Join(root, "Pods", "Alamofire", "Session.swift")) {
		t.Error("path ignored by .gitignore should be excluded")
	}
	if m.Excluded("Sources/App.swift") {
		t.Error("tracked path should not be excluded")
	}
}

func TestGitignoreRequiresRoot(t *testing.T) {
	if _, err := New(nil, WithGitignore(true)); err == nil {
		t.Error("expected error without a root")
	}
}

func TestGitignoreDigest(t *testing.T) {
	root := t.TempDir()
	write := func(rel, content string) {
		t.Helper()
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
	write(".gitignore", "Pods/\n")
	write("Sources/.gitignore", "*.generated.swift\n")
	write(".git/info/.gitignore", "ignored\n")

	base, err := GitignoreDigest(root)
	if err != nil {
		t.Fatalf("GitignoreDigest() error: %v", err)
	}
	if !bytes.Contains(base, []byte("*.generated.swift")) {
		t.Error("digest should include nested .gitignore files")
	}
	if bytes.Contains(base, []byte("ignored")) {
		t.Error("digest should skip .git directories")
	}

	again, _ := GitignoreDigest(root)
	if !bytes.Equal(base, again) {
		t.Error("GitignoreDigest() should be deterministic")
	}

	write("Sources/.gitignore", "*.pb.swift\n")
	changed, _ := GitignoreDigest(root)
	if bytes.Equal(base, changed) {
		t.Error("editing a .gitignore should change the digest")
	}
}
