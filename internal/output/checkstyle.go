package output

import (
	"encoding/xml"
	"io"
)

type checkstyleReport struct {
	XMLName xml.Name         `xml:"checkstyle"`
	Version string           `xml:"version,attr"`
	Files   []checkstyleFile `xml:"file"`
}

type checkstyleFile struct {
	Name   string            `xml:"name,attr"`
	Errors []checkstyleError `xml:"error"`
}

type checkstyleError struct {
	Line     int    `xml:"line,attr"`
	Column   int    `xml:"column,attr"`
	Severity string `xml:"severity,attr"`
	Message  string `xml:"message,attr"`
	Source   string `xml:"source,attr"`
}

// WriteCheckstyle writes records as a checkstyle XML report, one file element
// per source file in first-seen order.
func WriteCheckstyle(w io.Writer, records []Record) error {
	report := checkstyleReport{Version: "4.3"}
	index := make(map[string]int)
	for _, r := range records {
		i, ok := index[r.Location.File]
		if !ok {
			i = len(report.Files)
			index[r.Location.File] = i
			report.Files = append(report.Files, checkstyleFile{Name: r.Location.File})
		}
		report.Files[i].Errors = append(report.Files[i].Errors, checkstyleError{
			Line:     r.Location.Line,
			Column:   r.Location.Column,
			Severity: "warning",
			Message:  r.Message,
			Source:   "sweep." + r.Hint(),
		})
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(report); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}
