// Package index loads an index dump into a symbol graph.
//
// A dump is a JSON or YAML document listing files, declarations, references
// and the owning modules of external symbols. It is validated against an
// embedded JSON Schema before anything is built, so structural problems are
// reported with the offending document location.
package index

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"

	"github.com/panbanda/sweep/pkg/graph"
)

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "https://github.com/panbanda/sweep/index.schema.json"

// ErrInvalidDump is returned when a dump does not match the schema or refers
// to declarations it does not contain.
var ErrInvalidDump = errors.New("index: invalid dump")

// Format is the serialization of a dump.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format by file extension. Anything that is not
// .yaml or .yml is read as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Index is a loaded dump.
type Index struct {
	Graph   *graph.Graph
	Symbols *SymbolTable
}

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		return nil, err
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, doc); err != nil {
		return nil, err
	}
	return c.Compile(schemaURL)
})

// Load reads and builds the dump at path.
func Load(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	idx, err := Parse(data, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return idx, nil
}

// Decode reads a dump from r.
func Decode(r io.Reader, format Format) (*Index, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(data, format)
}

// Parse validates and builds a dump. The returned graph is not frozen, so
// callers may still add to it.
func Parse(data []byte, format Format) (*Index, error) {
	dump, err := Validate(data, format)
	if err != nil {
		return nil, err
	}
	return Build(dump)
}

// Validate checks data against the dump schema and decodes it.
func Validate(data []byte, format Format) (*Dump, error) {
	if format == FormatYAML {
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidDump, err)
		}
		converted, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidDump, err)
		}
		data = converted
	}

	schema, err := compiledSchema()
	if err != nil {
		return nil, fmt.Errorf("index: compiling schema: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDump, err)
	}
	if err := schema.Validate(inst); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDump, err)
	}

	var dump Dump
	if err := json.Unmarshal(data, &dump); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDump, err)
	}
	return &dump, nil
}

// Build turns a decoded dump into a graph. Kinds, roles and accessibility
// keywords are checked here, as are parent links.
func Build(dump *Dump) (*Index, error) {
	g := graph.New()
	for _, f := range dump.Files {
		var imports []*graph.ImportStatement
		for _, imp := range f.Imports {
			imports = append(imports, &graph.ImportStatement{
				Parts:    imp.Parts,
				Testable: imp.Testable,
				Location: graph.Location{File: f.Path, Line: imp.Line, Column: imp.Column},
			})
		}
		g.AddFile(f.Path, f.Modules, imports...)
	}

	decls := make([]*graph.Declaration, len(dump.Declarations))
	for i, dd := range dump.Declarations {
		d, err := buildDeclaration(dd)
		if err != nil {
			return nil, fmt.Errorf("%w: declarations[%d]: %w", ErrInvalidDump, i, err)
		}
		g.AddDeclaration(d)
		decls[i] = d
	}
	for i, dd := range dump.Declarations {
		if dd.Parent == "" {
			continue
		}
		parent, ok := g.Declaration(dd.Parent)
		if !ok {
			return nil, fmt.Errorf("%w: declarations[%d]: unknown parent %q", ErrInvalidDump, i, dd.Parent)
		}
		if parent == decls[i] {
			return nil, fmt.Errorf("%w: declarations[%d]: declaration is its own parent", ErrInvalidDump, i)
		}
		g.SetParent(decls[i], parent)
	}
	for i, d := range decls {
		depth := 0
		for p := d.Parent; p != nil; p = p.Parent {
			if p == d || depth > len(decls) {
				return nil, fmt.Errorf("%w: declarations[%d]: parent cycle", ErrInvalidDump, i)
			}
			depth++
		}
	}
	for i, dd := range dump.Declarations {
		if dd.Ignored {
			g.MarkIgnored(decls[i])
		} else if dd.Retained {
			g.MarkRetained(decls[i])
		}
	}

	for i, dr := range dump.References {
		r, err := buildReference(g, dr)
		if err != nil {
			return nil, fmt.Errorf("%w: references[%d]: %w", ErrInvalidDump, i, err)
		}
		g.AddReference(r)
	}

	return &Index{Graph: g, Symbols: NewSymbolTable(g, dump.Symbols)}, nil
}

func buildDeclaration(dd Declaration) (*graph.Declaration, error) {
	kind, err := graph.ParseKind(dd.Kind)
	if err != nil {
		return nil, err
	}
	level, err := graph.ParseAccessLevel(dd.Accessibility)
	if err != nil {
		return nil, err
	}
	return &graph.Declaration{
		Kind:          kind,
		Name:          dd.Name,
		USRs:          dd.USRs,
		Modifiers:     dd.Modifiers,
		Attributes:    dd.Attributes,
		Accessibility: graph.Accessibility{Value: level, Explicit: dd.AccessibilityExplicit},
		Location:      graph.Location{File: dd.File, Line: dd.Line, Column: dd.Column},
		Implicit:      dd.Implicit,
		Computed:      dd.Computed,
	}, nil
}

func buildReference(g *graph.Graph, dr Reference) (*graph.Reference, error) {
	kind, err := graph.ParseKind(dr.Kind)
	if err != nil {
		return nil, err
	}
	role, err := graph.ParseRole(dr.Role)
	if err != nil {
		return nil, err
	}
	r := &graph.Reference{
		Kind:     kind,
		USR:      dr.USR,
		Name:     dr.Name,
		Role:     role,
		Location: graph.Location{File: dr.File, Line: dr.Line, Column: dr.Column},
	}
	if dr.Parent != "" {
		parent, ok := g.Declaration(dr.Parent)
		if !ok {
			return nil, fmt.Errorf("unknown parent %q", dr.Parent)
		}
		r.Parent = parent
	}
	return r, nil
}
