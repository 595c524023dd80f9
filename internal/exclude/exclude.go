// Package exclude matches source file paths against gitignore-style patterns.
package exclude

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// Matcher reports whether a file is excluded from a report.
// The zero value and nil excluded nothing.
type Matcher struct {
	root    string
	matcher gitignore.Matcher
}

// Option is a functional option for configuring Matcher.
type Option func(*options)

type options struct {
	root      string
	gitignore bool
}

// WithRoot resolves absolute paths relative to root before matching.
func WithRoot(root string) Option {
	return func(o *options) {
		o.root = root
	}
}

// WithGitignore also applies every .gitignore file found under the root.
func WithGitignore(enabled bool) Option {
	return func(o *options) {
		o.gitignore = enabled
	}
}

// New builds a matcher from patterns in gitignore syntax.
func New(patterns []string, opts ...Option) (*Matcher, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var ps []gitignore.Pattern
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" || strings.HasPrefix(p, "#") {
			continue
		}
		ps = append(ps, gitignore.ParsePattern(p, nil))
	}

	if o.gitignore {
		if o.root == "" {
			return nil, fmt.Errorf("exclude: gitignore matching requires a root directory")
		}
		// ReadPatterns recursively reads all .gitignore files in the tree
		gitPatterns, err := gitignore.ReadPatterns(osfs.New(o.root), nil)
		if err != nil {
			return nil, fmt.Errorf("exclude: reading .gitignore files: %w", err)
		}
		ps = append(ps, gitPatterns...)
	}

	m := &Matcher{root: o.root}
	if len(ps) > 0 {
		m.matcher = gitignore.NewMatcher(ps)
	}
	return m, nil
}

// Excluded reports whether path matches any pattern.
func (m *Matcher) Excluded(path string) bool {
	if m == nil || m.matcher == nil || path == "" {
		return false
	}
	if m.root != "" && filepath.IsAbs(path) {
		if rel, err := filepath.Rel(m.root, path); err == nil && !strings.HasPrefix(rel, "..") {
			path = rel
		}
	}
	parts := strings.Split(strings.TrimPrefix(filepath.ToSlash(path), "/"), "/")
	return m.matcher.Match(parts, false)
}

// GitignoreDigest returns the paths and contents of every .gitignore file under
// root in walk order, for use as a cache key. .git directories are skipped.
func GitignoreDigest(root string) ([]byte, error) {
	fs := osfs.New(root)
	var digest []byte
	err := util.Walk(fs, ".", func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if info.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if info.Name() != ".gitignore" {
			return nil
		}
		data, err := util.ReadFile(fs, path)
		if err != nil {
			return err
		}
		digest = append(digest, filepath.ToSlash(path)...)
		digest = append(digest, 0)
		digest = append(digest, data...)
		digest = append(digest, 0)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("exclude: reading .gitignore files: %w", err)
	}
	return digest, nil
}
