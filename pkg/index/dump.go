package index

// Dump is the serialized form of an index: what the indexer recorded for one
// build, before it is turned into a graph.
type Dump struct {
	Version      int                 `json:"version,omitempty" yaml:"version,omitempty"`
	Files        []File              `json:"files,omitempty" yaml:"files,omitempty"`
	Declarations []Declaration       `json:"declarations,omitempty" yaml:"declarations,omitempty"`
	References   []Reference         `json:"references,omitempty" yaml:"references,omitempty"`
	Symbols      map[string][]string `json:"symbols,omitempty" yaml:"symbols,omitempty"`
}

// File is a source file and the modules it is compiled into.
type File struct {
	Path    string   `json:"path" yaml:"path"`
	Modules []string `json:"modules,omitempty" yaml:"modules,omitempty"`
	Imports []Import `json:"imports,omitempty" yaml:"imports,omitempty"`
}

// Import is one import statement.
type Import struct {
	Parts    []string `json:"parts" yaml:"parts"`
	Testable bool     `json:"testable,omitempty" yaml:"testable,omitempty"`
	Line     int      `json:"line,omitempty" yaml:"line,omitempty"`
	Column   int      `json:"column,omitempty" yaml:"column,omitempty"`
}

// Declaration is one declared entity. Parent names the enclosing declaration
// by any of its USRs.
type Declaration struct {
	Kind                  string   `json:"kind" yaml:"kind"`
	Name                  string   `json:"name,omitempty" yaml:"name,omitempty"`
	USRs                  []string `json:"usrs" yaml:"usrs"`
	Modifiers             []string `json:"modifiers,omitempty" yaml:"modifiers,omitempty"`
	Attributes            []string `json:"attributes,omitempty" yaml:"attributes,omitempty"`
	Accessibility         string   `json:"accessibility,omitempty" yaml:"accessibility,omitempty"`
	AccessibilityExplicit bool     `json:"accessibility_explicit,omitempty" yaml:"accessibility_explicit,omitempty"`
	File                  string   `json:"file" yaml:"file"`
	Line                  int      `json:"line,omitempty" yaml:"line,omitempty"`
	Column                int      `json:"column,omitempty" yaml:"column,omitempty"`
	Implicit              bool     `json:"implicit,omitempty" yaml:"implicit,omitempty"`
	Computed              bool     `json:"computed,omitempty" yaml:"computed,omitempty"`
	Parent                string   `json:"parent,omitempty" yaml:"parent,omitempty"`
	Retained              bool     `json:"retained,omitempty" yaml:"retained,omitempty"`
	Ignored               bool     `json:"ignored,omitempty" yaml:"ignored,omitempty"`
}

// Reference is one use of a symbol. Parent names the declaration containing the
// use; it is empty for file-level code.
type Reference struct {
	Kind   string `json:"kind" yaml:"kind"`
	USR    string `json:"usr" yaml:"usr"`
	Name   string `json:"name,omitempty" yaml:"name,omitempty"`
	Role   string `json:"role,omitempty" yaml:"role,omitempty"`
	File   string `json:"file" yaml:"file"`
	Line   int    `json:"line,omitempty" yaml:"line,omitempty"`
	Column int    `json:"column,omitempty" yaml:"column,omitempty"`
	Parent string `json:"parent,omitempty" yaml:"parent,omitempty"`
}
