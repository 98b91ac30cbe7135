package extractor

import (
	"context"

	"github.com/pinnacle-hris/payroll-engine/internal/domain/attendance"
	"github.com/pinnacle-hris/payroll-engine/internal/pkg/spreadsheet"
	"github.com/pinnacle-hris/payroll-engine/internal/pkg/timeparse"
)

const deviceTableSheet = "Final"

// DeviceTable reads the tabular device export: sheet "Final" with columns
// ID, G (employee name), Date, In Time and Out Time.
type DeviceTable struct {
	device string
}

func NewDeviceTable(device string) *DeviceTable {
	return &DeviceTable{device: device}
}

func (t *DeviceTable) Format() attendance.Format { return attendance.FormatDeviceTable }

func (t *DeviceTable) Extract(ctx context.Context, file File) (Result, error) {
	wb, err := openWorkbook(file)
	if err != nil {
		return Result{}, err
	}
	rows, ok := wb.Rows(deviceTableSheet)
	if !ok {
		return Result{}, missingSheet(deviceTableSheet)
	}
	if len(rows) < 2 {
		return Result{}, nil
	}

	idx := headerIndex(rows[0], func(s string) string { return s })
	if err := requireColumns(idx, "ID", "G", "Date", "In Time", "Out Time"); err != nil {
		return Result{}, err
	}

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
		deviceID := spreadsheet.CellValue(row, idx["ID"])
		name := spreadsheet.CellValue(row, idx["G"])
		rawDate := spreadsheet.CellValue(row, idx["Date"])
		if deviceID == "" || name == "" || rawDate == "" {
			res.skip(r+1, "missing device id, name or date")
			continue
		}
		date, err := timeparse.ParseDate(rawDate)
		if err != nil {
			res.skip(r+1, err.Error())
			continue
		}

		raw := attendance.RawRow{
			Source:        attendance.SourceDeviceB,
			Device:        t.device,
			DeviceLocalID: deviceID,
			EmployeeName:  name,
			Date:          date,
			In:            clockPtr(spreadsheet.CellValue(row, idx["In Time"])),
			Out:           clockPtr(spreadsheet.CellValue(row, idx["Out Time"])),
			Shift:         defaultShift,
			Row:           r + 1,
		}
		if seen.seen(raw) {
			continue
		}
		res.Rows = append(res.Rows, raw)
	}
	return res, nil
}
