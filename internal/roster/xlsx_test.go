package roster

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func createTestXLSX(t *testing.T, sheets map[string][][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	for name, rows := range sheets {
		sheet, err := f.AddSheet(name)
		require.NoError(t, err)
		for _, rowData := range rows {
			row := sheet.AddRow()
			for _, cellData := range rowData {
				cell := row.AddCell()
				cell.SetString(cellData)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "roster.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestLoadXLSX_Basic(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Sheet1": {
			{"roll_no", "name", "username", "year", "section"},
			{"20CS101", "Alice Kumar", "alicek", "2", "A"},
			{"20CS102", "Bobby Rao", "bobbyr", "2", "B"},
		},
	})

	students, err := LoadXLSX(path, XLSXOptions{})
	require.NoError(t, err)
	require.Len(t, students, 2)
	assert.Equal(t, "20CS101", students[0].RollNo)
	assert.Equal(t, "bobbyr", students[1].Username)
}

func TestLoadXLSX_NumericYearCell(t *testing.T) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Roster")
	require.NoError(t, err)

	header := sheet.AddRow()
	for _, h := range []string{"roll_no", "name", "username", "year"} {
		header.AddCell().SetString(h)
	}
	row := sheet.AddRow()
	row.AddCell().SetString("20CS101")
	row.AddCell().SetString("Alice Kumar")
	row.AddCell().SetString("alicek")
	row.AddCell().SetInt(2)

	path := filepath.Join(t.TempDir(), "roster.xlsx")
	require.NoError(t, f.Save(path))

	students, err := LoadXLSX(path, XLSXOptions{})
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, 2, students[0].Year)
}

func TestLoadXLSX_SheetName(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Notes": {
			{"scratch"},
		},
		"Roster": {
			{"roll_no", "name", "username"},
			{"20CS101", "Alice Kumar", "alicek"},
		},
	})

	students, err := LoadXLSX(path, XLSXOptions{SheetName: "Roster"})
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "alicek", students[0].Username)
}

func TestLoadXLSX_SheetNameNotFound(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Sheet1": {
			{"roll_no", "name", "username"},
			{"20CS101", "Alice Kumar", "alicek"},
		},
	})

	_, err := LoadXLSX(path, XLSXOptions{SheetName: "Missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `sheet "Missing" not found`)
}

func TestLoadXLSX_SheetIndexOutOfRange(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Sheet1": {
			{"roll_no", "name", "username"},
			{"20CS101", "Alice Kumar", "alicek"},
		},
	})

	_, err := LoadXLSX(path, XLSXOptions{SheetIndex: 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestLoad_DispatchesByExtension(t *testing.T) {
	xlsxPath := createTestXLSX(t, map[string][][]string{
		"Sheet1": {
			{"roll_no", "name", "username"},
			{"20CS101", "Alice Kumar", "alicek"},
		},
	})
	students, err := Load(xlsxPath)
	require.NoError(t, err)
	assert.Len(t, students, 1)

	csvPath := filepath.Join(t.TempDir(), "roster.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("roll_no,name,username\n20CS102,Bobby Rao,bobbyr\n"), 0o644))
	students, err = Load(csvPath)
	require.NoError(t, err)
	assert.Len(t, students, 1)
	assert.Equal(t, "20CS102", students[0].RollNo)
}
