// Package report renders findings as a tabular CSV report, one row per
// finding, in the order the analyzer produced them.
package report

import (
	"encoding/csv"
	"os"
	"strconv"

	"invtidy/pkg/analyzer"
)

// Header is the fixed column set of the report.
var Header = []string{"kind", "group", "host", "variable", "group_value", "host_value", "count"}

// Rows returns the report as structured data, header excluded.
func Rows(findings []analyzer.Finding) [][]string {
	rows := make([][]string, 0, len(findings))
	for _, f := range findings {
		count := ""
		if f.Kind == analyzer.DuplicateHostInGroup {
			count = strconv.Itoa(f.Count)
		}
		rows = append(rows, []string{
			f.Kind.String(),
			f.Group,
			f.Host,
			f.Variable,
			f.GroupValue,
			f.HostValue,
			count,
		})
	}
	return rows
}

// WriteCSV writes the report to path, header first.
func WriteCSV(path string, findings []analyzer.Finding) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(Header); err != nil {
		return err
	}
	for _, row := range Rows(findings) {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
