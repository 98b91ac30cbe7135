package spreadsheet

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Writer builds a single-sheet xlsx workbook row by row.
type Writer struct {
	file  *excelize.File
	sheet string
	next  int
}

// NewWriter creates a workbook whose only sheet is named sheet and starts with headers.
func NewWriter(sheet string, headers []string) (*Writer, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}
	w := &Writer{file: f, sheet: sheet, next: 1}

	row := make([]any, len(headers))
	for i, h := range headers {
		row[i] = h
	}
	if err := w.AppendRow(row); err != nil {
		return nil, err
	}
	return w, nil
}

// AppendRow writes values into the next free row.
func (w *Writer) AppendRow(values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, w.next)
	if err != nil {
		return err
	}
	if err := w.file.SetSheetRow(w.sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", w.next, err)
	}
	w.next++
	return nil
}

// Bytes serializes the workbook and releases it.
func (w *Writer) Bytes() ([]byte, error) {
	defer func() { _ = w.file.Close() }()
	buf, err := w.file.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
