package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/panbanda/sweep/pkg/graph"
)

// CSVHeader is the first row of csv output.
var CSVHeader = []string{"Kind", "Name", "Modifiers", "Attributes", "Accessibility", "IDs", "Location", "Hints"}

// setSeparator joins multi-valued csv fields.
const setSeparator = "|"

func csvRow(r Record) []string {
	return []string{
		r.Kind,
		r.Name,
		strings.Join(r.Modifiers, setSeparator),
		strings.Join(r.Attributes, setSeparator),
		r.Accessibility,
		strings.Join(r.IDs, setSeparator),
		r.Location.String(),
		strings.Join(r.Hints, setSeparator),
	}
}

// WriteCSV writes the header and one row per record.
func WriteCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write(csvRow(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ParseCSVLine parses one data row written by WriteCSV back into a record.
// The message is not part of the row and stays empty.
func ParseCSVLine(line string) (Record, error) {
	cr := csv.NewReader(strings.NewReader(line))
	cr.FieldsPerRecord = len(CSVHeader)
	fields, err := cr.Read()
	if err != nil {
		return Record{}, fmt.Errorf("parsing csv row: %w", err)
	}
	loc, err := ParseLocation(fields[6])
	if err != nil {
		return Record{}, err
	}
	return Record{
		Kind:          fields[0],
		Name:          fields[1],
		Modifiers:     splitSet(fields[2]),
		Attributes:    splitSet(fields[3]),
		Accessibility: fields[4],
		IDs:           splitSet(fields[5]),
		Location:      loc,
		Hints:         splitSet(fields[7]),
	}, nil
}

// ParseLocation parses the file:line:column form of graph.Location. The file
// part may itself contain colons.
func ParseLocation(s string) (graph.Location, error) {
	colIdx := strings.LastIndexByte(s, ':')
	if colIdx < 0 {
		return graph.Location{}, fmt.Errorf("location %q: missing column", s)
	}
	lineIdx := strings.LastIndexByte(s[:colIdx], ':')
	if lineIdx < 0 {
		return graph.Location{}, fmt.Errorf("location %q: missing line", s)
	}
	line, err := strconv.Atoi(s[lineIdx+1 : colIdx])
	if err != nil {
		return graph.Location{}, fmt.Errorf("location %q: bad line: %w", s, err)
	}
	col, err := strconv.Atoi(s[colIdx+1:])
	if err != nil {
		return graph.Location{}, fmt.Errorf("location %q: bad column: %w", s, err)
	}
	return graph.Location{File: s[:lineIdx], Line: line, Column: col}, nil
}

func splitSet(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, setSeparator)
}
