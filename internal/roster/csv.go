package roster

import (
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/charmap"

	"github.com/campuscode/leetboard/internal/model"
)

// LoadCSV reads a roster CSV from disk.
func LoadCSV(path string) ([]model.Student, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "roster: open csv")
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV parses a roster CSV. Files exported from Excel are often
// Windows-1252 rather than UTF-8, so invalid UTF-8 input is re-decoded
// before parsing.
func ReadCSV(r io.Reader) ([]model.Student, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrap(err, "roster: read csv")
	}
	data, err = decodeToUTF8(data)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1 // allow variable fields

	records, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "roster: parse csv")
	}
	return rowsToStudents(records)
}

func decodeToUTF8(data []byte) ([]byte, error) {
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF}) // UTF-8 BOM
	if utf8.Valid(data) {
		return data, nil
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return nil, eris.Wrap(err, "roster: decode windows-1252")
	}
	return decoded, nil
}
