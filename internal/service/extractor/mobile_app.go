package extractor

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/pinnacle-hris/payroll-engine/internal/domain/attendance"
	"github.com/pinnacle-hris/payroll-engine/internal/pkg/timeparse"
)

// MobileApp reads app check-ins straight from the check-in log, already keyed by employee.
type MobileApp struct {
	checkins attendance.CheckinRepository
}

func NewMobileApp(checkins attendance.CheckinRepository) *MobileApp {
	return &MobileApp{checkins: checkins}
}

func (m *MobileApp) Format() attendance.Format { return attendance.FormatMobileApp }

// Collect returns one row per employee-day in [from, to] with the earliest IN and latest OUT.
func (m *MobileApp) Collect(ctx context.Context, employeeIDs []string, from, to time.Time) ([]attendance.RawRow, error) {
	checkins, err := m.checkins.ListBetween(ctx, employeeIDs, timeparse.DateOf(from), timeparse.DateOf(to).AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("failed to list app check-ins: %w", err)
	}

	type key struct {
		employee string
		date     time.Time
	}
	byDay := make(map[key]*attendance.RawRow)
	var order []key
	for _, c := range checkins {
		k := key{employee: c.EmployeeID, date: timeparse.DateOf(c.Time)}
		row, ok := byDay[k]
		if !ok {
			shift := c.ShiftID
			if shift == "" {
				shift = defaultShift
			}
			row = &attendance.RawRow{
				Source:     attendance.SourceMobileApp,
				Device:     "App",
				EmployeeID: c.EmployeeID,
				Date:       k.date,
				Shift:      shift,
			}
			byDay[k] = row
			order = append(order, k)
		}
		clock := timeparse.ClockOf(c.Time)
		switch c.LogType {
		case attendance.LogIn:
			if row.In == nil || clock.Before(*row.In) {
				row.In = &clock
			}
		case attendance.LogOut:
			if row.Out == nil || clock.After(*row.Out) {
				row.Out = &clock
			}
		}
	}

	sort.Slice(order, func(i, j int) bool {
		if order[i].employee != order[j].employee {
			return order[i].employee < order[j].employee
		}
		return order[i].date.Before(order[j].date)
	})
	rows := make([]attendance.RawRow, 0, len(order))
	for _, k := range order {
		rows = append(rows, *byDay[k])
	}
	return rows, nil
}

// Punches returns every app punch of an employee-day in time order, whatever its direction.
func (m *MobileApp) Punches(ctx context.Context, employeeID string, date time.Time) ([]timeparse.Clock, error) {
	day := timeparse.DateOf(date)
	checkins, err := m.checkins.ListBetween(ctx, []string{employeeID}, day, day.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("failed to list app check-ins: %w", err)
	}
	out := make([]timeparse.Clock, 0, len(checkins))
	for _, c := range checkins {
		out = append(out, timeparse.ClockOf(c.Time))
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}
