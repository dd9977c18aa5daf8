// Package export writes dashboard rows to CSV and JSON.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/campuscode/leetboard/internal/model"
)

// csvColumns defines the ordered CSV output columns. The sheet this feeds
// expects these exact headings.
var csvColumns = []string{
	"Roll Number",
	"Name",
	"LeetCode Username",
	"Easy Solved",
	"Medium Solved",
	"Hard Solved",
	"Total Solved",
}

// WriteCSV writes dashboard rows as CSV.
func WriteCSV(w io.Writer, results []model.StudentResult) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvColumns); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}
	for _, r := range results {
		if err := cw.Write(buildRow(r)); err != nil {
			return eris.Wrapf(err, "export: write csv row %s", r.RollNo)
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush csv")
}

// ExportCSV writes dashboard rows as a CSV file.
func ExportCSV(results []model.StudentResult, outputPath string) error {
	f, err := os.Create(outputPath)
	if err != nil {
		return eris.Wrap(err, "export: create file")
	}
	defer f.Close()

	return WriteCSV(f, results)
}

// buildRow maps a dashboard row to a CSV record.
func buildRow(r model.StudentResult) []string {
	return []string{
		r.RollNo,
		r.Name,
		r.Username,
		strconv.Itoa(r.Easy),
		strconv.Itoa(r.Medium),
		strconv.Itoa(r.Hard),
		strconv.Itoa(r.Total),
	}
}

// WriteJSON writes dashboard rows as indented JSON.
func WriteJSON(w io.Writer, results []model.StudentResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(results), "export: encode json")
}

// ExportJSON writes dashboard rows as a JSON file.
func ExportJSON(results []model.StudentResult, outputPath string) error {
	f, err := os.Create(outputPath)
	if err != nil {
		return eris.Wrap(err, "export: create file")
	}
	defer f.Close()

	return WriteJSON(f, results)
}
