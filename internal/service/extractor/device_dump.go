package extractor

import (
	"context"
	"strings"

	"github.com/pinnacle-hris/payroll-engine/internal/domain/attendance"
	"github.com/pinnacle-hris/payroll-engine/internal/pkg/spreadsheet"
	"github.com/pinnacle-hris/payroll-engine/internal/pkg/timeparse"
)

// headerWords are the fragments some devices split a header into, one per cell.
// A word in headerTerminators closes the header being assembled.
var (
	headerWords = map[string]bool{
		"attendance": true, "device": true, "id": true, "employee": true, "name": true,
		"date": true, "shift": true, "in": true, "out": true, "time": true,
	}
	headerTerminators = map[string]bool{"id": true, "name": true, "date": true, "shift": true, "time": true}
)

// mergeHeader joins split header cells, e.g. ["Attendance","Device","Id"] becomes
// "attendance device id". The result maps merged header to the column of its last fragment.
func mergeHeader(cells []string) map[string]int {
	idx := make(map[string]int)
	var parts []string
	for c, raw := range cells {
		text := strings.ToLower(strings.TrimSpace(raw))
		if text == "" {
			continue
		}
		if !headerWords[text] {
			parts = nil
			if _, dup := idx[text]; !dup {
				idx[text] = c
			}
			continue
		}
		parts = append(parts, text)
		if headerTerminators[text] {
			key := strings.Join(parts, " ")
			if _, dup := idx[key]; !dup {
				idx[key] = c
			}
			parts = nil
		}
	}
	return idx
}

// DeviceDump reads a raw device dump whose first sheet carries the device name per row.
type DeviceDump struct{}

func NewDeviceDump() *DeviceDump { return &DeviceDump{} }

func (d *DeviceDump) Format() attendance.Format { return attendance.FormatDeviceDump }

func (d *DeviceDump) Extract(ctx context.Context, file File) (Result, error) {
	wb, err := openWorkbook(file)
	if err != nil {
		return Result{}, err
	}
	rows := wb.FirstRows()
	if len(rows) < 1 {
		return Result{}, nil
	}

	idx := mergeHeader(rows[0])
	if err := requireColumns(idx,
		"attendance device id", "attendance device", "employee name",
		"attendance date", "in time", "out time",
	); err != nil {
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
		deviceID := spreadsheet.CellValue(row, idx["attendance device id"])
		device := spreadsheet.CellValue(row, idx["attendance device"])
		name := spreadsheet.CellValue(row, idx["employee name"])
		rawDate := spreadsheet.CellValue(row, idx["attendance date"])
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
			Source:        attendance.SourceOther,
			Device:        device,
			DeviceLocalID: deviceID,
			EmployeeName:  name,
			Date:          date,
			In:            clockPtr(spreadsheet.CellValue(row, idx["in time"])),
			Out:           clockPtr(spreadsheet.CellValue(row, idx["out time"])),
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
