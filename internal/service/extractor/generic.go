package extractor

import (
	"context"

	"github.com/pinnacle-hris/payroll-engine/internal/domain/attendance"
	"github.com/pinnacle-hris/payroll-engine/internal/pkg/spreadsheet"
	"github.com/pinnacle-hris/payroll-engine/internal/pkg/timeparse"
)

// Generic reads a plain table keyed by employee id: Employee, Employee Name,
// Attendance Date, In Time, Out Time, with an optional Shift column.
type Generic struct{}

func NewGeneric() *Generic { return &Generic{} }

func (g *Generic) Format() attendance.Format { return attendance.FormatGeneric }

func (g *Generic) Extract(ctx context.Context, file File) (Result, error) {
	wb, err := openWorkbook(file)
	if err != nil {
		return Result{}, err
	}
	rows := wb.FirstRows()
	if len(rows) < 2 {
		return Result{}, nil
	}

	idx := headerIndex(rows[0], func(s string) string { return s })
	if err := requireColumns(idx, "Employee", "Employee Name", "Attendance Date", "In Time", "Out Time"); err != nil {
		return Result{}, err
	}
	shiftCol, hasShift := idx["Shift"]

	var res Result
	seen := dedupe{}
	for r := 1; r < len(rows); r++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		row := rows[r]
		if spreadsheet.IsBlank(row) {
			continue
		}
		employeeID := spreadsheet.CellValue(row, idx["Employee"])
		name := spreadsheet.CellValue(row, idx["Employee Name"])
		rawDate := spreadsheet.CellValue(row, idx["Attendance Date"])
		if employeeID == "" || name == "" || rawDate == "" {
			res.skip(r+1, "missing employee, name or date")
			continue
		}
		date, err := timeparse.ParseDate(rawDate)
		if err != nil {
			res.skip(r+1, err.Error())
			continue
		}

		shift := defaultShift
		if hasShift {
			if s := spreadsheet.CellValue(row, shiftCol); s != "" {
				shift = s
			}
		}
		raw := attendance.RawRow{
			Source:       attendance.SourceOther,
			EmployeeID:   employeeID,
			EmployeeName: name,
			Date:         date,
			In:           clockPtr(spreadsheet.CellValue(row, idx["In Time"])),
			Out:          clockPtr(spreadsheet.CellValue(row, idx["Out Time"])),
			Shift:        shift,
			Row:          r + 1,
		}
		if seen.seen(raw) {
			continue
		}
		res.Rows = append(res.Rows, raw)
	}
	return res, nil
}
