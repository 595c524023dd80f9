package output

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/fatih/color"

	"github.com/panbanda/sweep/pkg/graph"
	"github.com/panbanda/sweep/pkg/scan"
)

// Record is one flat output row. Redundant conformance sites of a redundant
// protocol are records of their own, placed right after the protocol.
type Record struct {
	Kind          string
	Name          string
	Modifiers     []string
	Attributes    []string
	Accessibility string
	IDs           []string
	Location      graph.Location
	Hints         []string
	// Message is the human-readable description used by line-oriented formats.
	Message string
}

// RecordView is the serialized shape of a record in json and toon output.
type RecordView struct {
	Kind          string   `json:"kind" toon:"kind"`
	Name          string   `json:"name" toon:"name"`
	Modifiers     []string `json:"modifiers" toon:"modifiers"`
	Attributes    []string `json:"attributes" toon:"attributes"`
	Accessibility string   `json:"accessibility" toon:"accessibility"`
	IDs           []string `json:"ids" toon:"ids"`
	Hints         []string `json:"hints" toon:"hints"`
	Location      string   `json:"location" toon:"location"`
}

// View returns the serialized shape of r.
func (r Record) View() RecordView {
	return RecordView{
		Kind:          r.Kind,
		Name:          r.Name,
		Modifiers:     r.Modifiers,
		Attributes:    r.Attributes,
		Accessibility: r.Accessibility,
		IDs:           r.IDs,
		Hints:         r.Hints,
		Location:      r.Location.String(),
	}
}

// Hint returns the first hint, or "".
func (r Record) Hint() string {
	if len(r.Hints) == 0 {
		return ""
	}
	return r.Hints[0]
}

// Flatten converts ordered scan results into records, keeping their order.
func Flatten(results []scan.Result) []Record {
	records := make([]Record, 0, len(results))
	for _, res := range results {
		switch res := res.(type) {
		case scan.ImportResult:
			records = append(records, importRecord(res))
		case scan.DeclarationResult:
			records = append(records, declarationRecord(res))
			if rp, ok := res.Annotation.(scan.RedundantProtocol); ok {
				for _, ref := range rp.References {
					records = append(records, conformanceRecord(res.Declaration, ref))
				}
			}
		}
	}
	return records
}

// FilterHints keeps the records whose hint is in hints. The redundant
// conformance records of a kept protocol are kept with it. An empty hints list
// keeps everything.
func FilterHints(records []Record, hints []string) []Record {
	if len(hints) == 0 {
		return records
	}
	want := make(map[string]bool, len(hints))
	for _, h := range hints {
		want[h] = true
	}

	var out []Record
	keptProtocol := false
	for _, r := range records {
		hint := r.Hint()
		if hint == string(scan.HintRedundantConformance) {
			if keptProtocol || want[hint] {
				out = append(out, r)
			}
			continue
		}
		keptProtocol = want[hint] && hint == string(scan.HintRedundantProtocol)
		if want[hint] {
			out = append(out, r)
		}
	}
	return out
}

func importRecord(r scan.ImportResult) Record {
	path := r.Statement.Path()
	return Record{
		Kind:       string(graph.KindModule),
		Name:       path,
		Modifiers:  []string{},
		Attributes: []string{},
		IDs:        []string{},
		Location:   r.Statement.Location,
		Hints:      []string{string(scan.HintUnusedImport)},
		Message:    fmt.Sprintf("Module '%s' is unused", path),
	}
}

func declarationRecord(r scan.DeclarationResult) Record {
	d := r.Declaration
	return Record{
		Kind:          string(d.Kind),
		Name:          d.Name,
		Modifiers:     nonNil(d.Modifiers),
		Attributes:    nonNil(d.Attributes),
		Accessibility: d.Accessibility.Value.String(),
		IDs:           nonNil(d.USRs),
		Location:      d.Location,
		Hints:         []string{string(r.Hint())},
		Message:       Describe(d, r.Annotation),
	}
}

func conformanceRecord(proto *graph.Declaration, ref *graph.Reference) Record {
	return Record{
		Kind:       string(ref.Kind),
		Name:       ref.Name,
		Modifiers:  []string{},
		Attributes: []string{},
		IDs:        []string{ref.USR},
		Location:   ref.Location,
		Hints:      []string{string(scan.HintRedundantConformance)},
		Message:    fmt.Sprintf("Protocol '%s' conformance is redundant", proto.Name),
	}
}

// Describe returns the sentence reported for a classified declaration, such as
// "Class 'Foo' is unused".
func Describe(d *graph.Declaration, a scan.Annotation) string {
	if !d.HasName() {
		return "unused"
	}

	var b strings.Builder
	if kind := d.Kind.DisplayName(); kind != "" {
		b.WriteString(capitalize(kind))
		b.WriteByte(' ')
	}
	fmt.Fprintf(&b, "'%s'", d.Name)

	switch a := a.(type) {
	case scan.Unused:
		b.WriteString(" is unused")
	case scan.AssignOnlyProperty:
		b.WriteString(" is assigned, but never used")
	case scan.RedundantProtocol:
		b.WriteString(" is redundant as it's never used as an existential type")
	case scan.RedundantPublicAccessibility:
		fmt.Fprintf(&b, " is declared public, but not used outside of %s", strings.Join(a.Modules, ", "))
	}
	return b.String()
}

// HintColor renders text in the color used for hint.
func HintColor(hint, text string) string {
	switch scan.Hint(hint) {
	case scan.HintUnused, scan.HintUnusedImport:
		return color.RedString(text)
	case scan.HintAssignOnlyProperty:
		return color.YellowString(text)
	case scan.HintRedundantProtocol, scan.HintRedundantConformance, scan.HintRedundantPublicAccessibility:
		return color.CyanString(text)
	default:
		return text
	}
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
