// Package spreadsheet reads and writes the workbooks exchanged with attendance devices.
package spreadsheet

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

var ErrEmptyWorkbook = errors.New("no worksheet found")

// maxXLSRows bounds legacy .xls reads.
const maxXLSRows = 100000

// Workbook is an in-memory, read-only view of all sheets of a file.
// Cells hold raw values: dates as Excel serials, times as day fractions.
type Workbook struct {
	names  []string
	sheets map[string][][]string
}

// Open reads an .xlsx or .xls file. The extension decides the decoder.
func Open(data []byte, filename string) (*Workbook, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xls":
		return openXLS(data)
	default:
		return openXLSX(data)
	}
}

func openXLSX(data []byte) (*Workbook, error) {
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() { _ = file.Close() }()

	wb := &Workbook{sheets: make(map[string][][]string)}
	for _, name := range file.GetSheetList() {
		rows, err := file.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %q: %w", name, err)
		}
		wb.names = append(wb.names, name)
		wb.sheets[name] = rows
	}
	if len(wb.names) == 0 {
		return nil, ErrEmptyWorkbook
	}
	return wb, nil
}

func openXLS(data []byte) (*Workbook, error) {
	file, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	if file.NumSheets() == 0 {
		return nil, ErrEmptyWorkbook
	}

	wb := &Workbook{sheets: make(map[string][][]string)}
	for i := 0; i < file.NumSheets(); i++ {
		sheet := file.GetSheet(i)
		if sheet == nil {
			continue
		}
		var rows [][]string
		for r := 0; r <= int(sheet.MaxRow) && r < maxXLSRows; r++ {
			row := sheet.Row(r)
			if row == nil {
				rows = append(rows, nil)
				continue
			}
			cells := make([]string, 0, row.LastCol())
			for c := 0; c < row.LastCol(); c++ {
				cells = append(cells, row.Col(c))
			}
			rows = append(rows, cells)
		}
		wb.names = append(wb.names, sheet.Name)
		wb.sheets[sheet.Name] = rows
	}
	if len(wb.names) == 0 {
		return nil, ErrEmptyWorkbook
	}
	return wb, nil
}

// SheetNames returns sheet names in workbook order.
func (w *Workbook) SheetNames() []string {
	return append([]string(nil), w.names...)
}

// HasSheet reports whether a sheet with the exact name exists.
func (w *Workbook) HasSheet(name string) bool {
	_, ok := w.sheets[name]
	return ok
}

// Rows returns the rows of the named sheet.
func (w *Workbook) Rows(name string) ([][]string, bool) {
	rows, ok := w.sheets[name]
	return rows, ok
}

// FirstRows returns the rows of the first (active) sheet.
func (w *Workbook) FirstRows() [][]string {
	return w.sheets[w.names[0]]
}

// Cell returns the trimmed value at zero-based (row, col), or "" when out of range.
func Cell(rows [][]string, row, col int) string {
	if row < 0 || row >= len(rows) {
		return ""
	}
	return CellValue(rows[row], col)
}

// CellValue returns the trimmed value at idx of a single row.
func CellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// IsBlank reports whether every cell of row is empty.
func IsBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
