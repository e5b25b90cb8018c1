package master

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Canonical column names of the master data file
const (
	ColumnEquipmentID = "equipment_id"
	ColumnAddress     = "address"
	ColumnModel       = "model"
)

// DefaultPath is the master data file used when none is given
const DefaultPath = "master_equipment.csv"

var (
	ErrNotFound          = errors.New("master data file not found")
	ErrUnsupportedFormat = errors.New("unsupported master data format")
	ErrMissingColumn     = errors.New("missing required column")
)

// columnAliases maps every accepted header spelling to its canonical column
var columnAliases = map[string]string{
	"equipment_id": ColumnEquipmentID,
	"eqp_id":       ColumnEquipmentID,
	"address":      ColumnAddress,
	"IP":           ColumnAddress,
	"model":        ColumnModel,
}

var requiredColumns = []string{ColumnEquipmentID, ColumnAddress, ColumnModel}

// Device is one row of the master data
type Device struct {
	EquipmentID string `csv:"equipment_id"`
	Address     string `csv:"address"`
	Model       string `csv:"model"`
	// Row is the 1-based position of the device among the loaded rows
	Row int `csv:"-"`
}

func (d Device) String() string {
	return fmt.Sprintf("eqp_id=%s, address=%s, model=%s", d.EquipmentID, d.Address, d.Model)
}

// MissingColumnError reports a required column absent from the header
type MissingColumnError struct {
	Column string
	Found  []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("master data has no '%s' column (columns: %v)", e.Column, e.Found)
}

func (e *MissingColumnError) Is(target error) bool {
	return target == ErrMissingColumn
}

// Load reads the master data file at path. The format is chosen by the
// file extension: .csv, or .xlsx/.xlsm (first sheet).
func Load(path string) ([]Device, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to stat master data file %s: %w", path, err)
	}

	var (
		devices []Device
		err     error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		devices, err = loadCSV(path)
	case ".xlsx", ".xlsm":
		devices, err = loadXLSX(path)
	default:
		return nil, fmt.Errorf("%w: supported .csv, .xlsx, .xlsm (got %q)", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, err
	}
	return devices, nil
}

// normalizeHeader maps aliased headers to their canonical names and checks
// that every required column is present.
func normalizeHeader(header []string) ([]string, error) {
	found := make([]string, len(header))
	normalized := make([]string, len(header))
	present := make(map[string]bool, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		found[i] = h
		if canonical, ok := columnAliases[h]; ok && !present[canonical] {
			normalized[i] = canonical
			present[canonical] = true
			continue
		}
		// unknown or duplicate column, keep it out of the way of the struct tags
		normalized[i] = fmt.Sprintf("_%d_%s", i, h)
	}

	for _, col := range requiredColumns {
		if !present[col] {
			return nil, &MissingColumnError{Column: col, Found: found}
		}
	}
	return normalized, nil
}

// padRows pads short rows with blanks and drops rows with no content.
func padRows(rows [][]string, width int) [][]string {
	result := make([][]string, 0, len(rows))
	for _, row := range rows {
		blank := true
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				blank = false
				break
			}
		}
		if blank {
			continue
		}
		if len(row) < width {
			padded := make([]string, width)
			copy(padded, row)
			row = padded
		} else if len(row) > width {
			row = row[:width]
		}
		result = append(result, row)
	}
	return result
}

func trimDevices(devices []Device) []Device {
	for i := range devices {
		devices[i].EquipmentID = strings.TrimSpace(devices[i].EquipmentID)
		devices[i].Address = strings.TrimSpace(devices[i].Address)
		devices[i].Model = strings.TrimSpace(devices[i].Model)
		devices[i].Row = i + 1
	}
	return devices
}
