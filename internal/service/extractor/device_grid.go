package extractor

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pinnacle-hris/payroll-engine/internal/domain/attendance"
	"github.com/pinnacle-hris/payroll-engine/internal/pkg/spreadsheet"
	"github.com/pinnacle-hris/payroll-engine/internal/pkg/timeparse"
)

const (
	deviceGridSheet  = "Att.log report"
	deviceGridDevice = "Zicom Regal"
	defaultShift     = "Regular"
)

// DeviceGrid reads the attendance-log grid export: a period header in C3, day
// numbers in row 4 and, for each employee, an "ID:" row followed by a punch row
// holding one "HH:MM...HH:MM" string per day column.
type DeviceGrid struct {
	device string
}

func NewDeviceGrid() *DeviceGrid {
	return &DeviceGrid{device: deviceGridDevice}
}

func (g *DeviceGrid) Format() attendance.Format { return attendance.FormatDeviceGrid }

func (g *DeviceGrid) Extract(ctx context.Context, file File) (Result, error) {
	wb, err := openWorkbook(file)
	if err != nil {
		return Result{}, err
	}
	rows, ok := wb.Rows(deviceGridSheet)
	if !ok {
		return Result{}, missingSheet(deviceGridSheet)
	}

	start, end, err := gridPeriod(spreadsheet.Cell(rows, 2, 2))
	if err != nil {
		return Result{}, err
	}

	// day number per column, from row 4
	days := make(map[int]int)
	var dayCols []int
	for c, v := range rowAt(rows, 3) {
		d, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || d < 1 || d > 31 {
			continue
		}
		days[c] = d
		dayCols = append(dayCols, c)
	}
	if len(dayCols) == 0 {
		return Result{}, fmt.Errorf("%w: no day numbers in row 4 of %q", attendance.ErrMissingColumn, deviceGridSheet)
	}

	var res Result
	seen := dedupe{}
	for r := 4; r < len(rows); r++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		if spreadsheet.Cell(rows, r, 0) != "ID:" {
			continue
		}
		deviceID := spreadsheet.Cell(rows, r, 2)
		name := spreadsheet.Cell(rows, r, 10)
		if deviceID == "" {
			res.skip(r+1, "missing device id")
			r++
			continue
		}

		punchRow := rowAt(rows, r+1)
		for _, c := range dayCols {
			log := spreadsheet.CellValue(punchRow, c)
			if log == "" {
				continue
			}
			date, ok := gridDate(start, end, days[c])
			if !ok {
				res.skip(r+2, fmt.Sprintf("day %d outside period", days[c]))
				continue
			}
			in, out := splitPunchLog(log)
			row := attendance.RawRow{
				Source:        attendance.SourceDeviceA,
				Device:        g.device,
				DeviceLocalID: deviceID,
				EmployeeName:  name,
				Date:          date,
				In:            in,
				Out:           out,
				Shift:         defaultShift,
				Row:           r + 2,
			}
			if row.In == nil && row.Out == nil {
				res.skip(r+2, fmt.Sprintf("unreadable punch %q", log))
				continue
			}
			if seen.seen(row) {
				continue
			}
			res.Rows = append(res.Rows, row)
		}
		r++
	}
	return res, nil
}

func rowAt(rows [][]string, r int) []string {
	if r < 0 || r >= len(rows) {
		return nil
	}
	return rows[r]
}

// gridPeriod parses "start ~ end". A missing end leaves the period open.
func gridPeriod(raw string) (time.Time, time.Time, error) {
	parts := strings.SplitN(raw, "~", 2)
	if len(parts) != 2 {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: invalid period %q in C3", attendance.ErrMissingColumn, raw)
	}
	start, err := timeparse.ParseDate(strings.TrimSpace(parts[0]))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("unable to parse period start: %w", err)
	}
	end, err := timeparse.ParseDate(strings.TrimSpace(parts[1]))
	if err != nil {
		end = time.Time{}
	}
	return start, end, nil
}

// gridDate places a day number inside the period, rolling into the next month when the
// period crosses a month boundary.
func gridDate(start, end time.Time, day int) (time.Time, bool) {
	d := timeparse.Date(start.Year(), start.Month(), day)
	if day < start.Day() {
		d = timeparse.Date(start.Year(), start.Month()+1, day)
	}
	if d.Day() != day {
		return time.Time{}, false
	}
	if !end.IsZero() && d.After(end) {
		return time.Time{}, false
	}
	return d, true
}

// splitPunchLog reads the first five characters as IN and, for logs of ten or more
// characters, the last five as OUT.
func splitPunchLog(log string) (*timeparse.Clock, *timeparse.Clock) {
	log = strings.TrimSpace(log)
	if len(log) < 5 {
		return nil, nil
	}
	in := clockPtr(log[:5])
	var out *timeparse.Clock
	if len(log) >= 10 {
		out = clockPtr(log[len(log)-5:])
	}
	return in, out
}
