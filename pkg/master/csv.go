package master

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/gocarina/gocsv"
)

// rowsReader feeds already normalized rows to gocsv
type rowsReader struct {
	rows [][]string
	pos  int
}

func (r *rowsReader) Read() ([]string, error) {
	if r.pos >= len(r.rows) {
		return nil, io.EOF
	}
	row := r.rows[r.pos]
	r.pos++
	return row, nil
}

func (r *rowsReader) ReadAll() ([][]string, error) {
	rest := r.rows[r.pos:]
	r.pos = len(r.rows)
	return rest, nil
}

func loadCSV(path string) ([]Device, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open master data file %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV %s: %w", path, err)
	}
	return decodeRows(records)
}

// decodeRows turns a header row plus data rows into devices. The first
// record is the header.
func decodeRows(records [][]string) ([]Device, error) {
	var header []string
	if len(records) > 0 {
		header = records[0]
	}
	normalized, err := normalizeHeader(header)
	if err != nil {
		return nil, err
	}

	rows := append([][]string{normalized}, padRows(records[1:], len(normalized))...)
	var devices []Device
	if len(rows) > 1 {
		if err := gocsv.UnmarshalCSV(&rowsReader{rows: rows}, &devices); err != nil {
			return nil, fmt.Errorf("failed to decode master data rows: %w", err)
		}
	}
	return trimDevices(devices), nil
}
