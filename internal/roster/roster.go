// Package roster loads the student roster from CSV and XLSX files.
package roster

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/campuscode/leetboard/internal/model"
)

// headerAliases maps accepted column headings to canonical field names.
// Headings are matched after lowercasing and replacing spaces and dashes
// with underscores, so "Roll Number" and "roll_number" are the same column.
var headerAliases = map[string]string{
	"roll_no":           "roll_no",
	"roll_number":       "roll_no",
	"rollno":            "roll_no",
	"roll":              "roll_no",
	"name":              "name",
	"student_name":      "name",
	"actual_name":       "name",
	"username":          "username",
	"leetcode_username": "username",
	"leetcode_id":       "username",
	"year":              "year",
	"section":           "section",
}

var requiredColumns = []string{"roll_no", "name", "username"}

// Load reads a roster file, dispatching on the file extension.
func Load(path string) ([]model.Student, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return LoadCSV(path)
	case ".xlsx":
		return LoadXLSX(path, XLSXOptions{})
	default:
		return nil, eris.Errorf("roster: unsupported file type %q", filepath.Ext(path))
	}
}

// rowsToStudents maps raw rows (header first) onto students.
func rowsToStudents(records [][]string) ([]model.Student, error) {
	if len(records) < 2 {
		return nil, eris.New("roster: file has no data rows")
	}

	colIdx := make(map[string]int, len(records[0]))
	for i, col := range records[0] {
		if canonical, ok := headerAliases[normalizeHeader(col)]; ok {
			if _, dup := colIdx[canonical]; !dup {
				colIdx[canonical] = i
			}
		}
	}
	for _, col := range requiredColumns {
		if _, ok := colIdx[col]; !ok {
			return nil, eris.Errorf("roster: missing required column %q", col)
		}
	}

	seen := make(map[string]bool)
	var students []model.Student

	for i, row := range records[1:] {
		rollNo := getCol(row, colIdx, "roll_no")
		if rollNo == "" {
			if !emptyRow(row) {
				zap.L().Warn("roster row skipped, missing roll number", zap.Int("row", i+2))
			}
			continue
		}
		if seen[rollNo] {
			zap.L().Warn("roster row skipped, duplicate roll number",
				zap.Int("row", i+2),
				zap.String("roll_no", rollNo),
			)
			continue
		}
		seen[rollNo] = true

		students = append(students, model.Student{
			RollNo:   rollNo,
			Name:     getCol(row, colIdx, "name"),
			Username: getCol(row, colIdx, "username"),
			Year:     parseYear(getCol(row, colIdx, "year")),
			Section:  getCol(row, colIdx, "section"),
		})
	}

	if len(students) == 0 {
		return nil, eris.New("roster: no valid students found")
	}
	return students, nil
}

// getCol safely retrieves a column value from a row.
func getCol(row []string, colIdx map[string]int, col string) string {
	idx, ok := colIdx[col]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.ReplaceAll(h, " ", "_")
	h = strings.ReplaceAll(h, "-", "_")
	return h
}

func emptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// parseYear reads the leading digits of a year cell, so "2", "2nd" and the
// "2.0" Excel renders numeric cells as all parse to 2.
func parseYear(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}
