// Package reconcile merges raw punches from every source into one attendance
// record per employee and day.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/pinnacle-hris/payroll-engine/internal/domain/attendance"
	"github.com/pinnacle-hris/payroll-engine/internal/pkg/timeparse"
)

// SupplementSource supplies extra punches for a day whose IN and OUT collapsed into one.
type SupplementSource interface {
	Punches(ctx context.Context, employeeID string, date time.Time) ([]timeparse.Clock, error)
}

type Result struct {
	Records []attendance.AttendanceRecord
	// Dropped counts rows whose device id maps to no employee.
	Dropped int
	// Degenerate counts days whose IN equalled OUT before supplementation.
	Degenerate int
	// Supplemented counts degenerate days fixed with app punches.
	Supplemented int
	Issues       []attendance.Issue
}

type Reconciler struct {
	devices    DeviceResolver
	supplement SupplementSource
}

// NewReconciler builds a reconciler. supplement may be nil to disable the app fallback.
func NewReconciler(devices DeviceResolver, supplement SupplementSource) *Reconciler {
	return &Reconciler{devices: devices, supplement: supplement}
}

type dayKey struct {
	employee string
	date     time.Time
}

type punch struct {
	at     timeparse.Clock
	source attendance.Source
}

type day struct {
	key   dayKey
	shift string
	ins   []punch
	outs  []punch
}

// Reconcile groups rows by employee and day and picks IN and OUT by policy.
// The result does not depend on the order of rows.
func (r *Reconciler) Reconcile(ctx context.Context, rows []attendance.RawRow, policy attendance.Policy) (Result, error) {
	var res Result
	days := make(map[dayKey]*day)

	for _, raw := range rows {
		p, err := r.normalize(ctx, raw)
		if err != nil {
			if errors.Is(err, attendance.ErrUnmappedDevice) {
				res.Dropped++
				res.Issues = append(res.Issues, attendance.Issue{Row: raw.Row, Reason: err.Error()})
				continue
			}
			return Result{}, err
		}

		k := dayKey{employee: p.EmployeeID, date: timeparse.DateOf(p.Date)}
		d, ok := days[k]
		if !ok {
			d = &day{key: k}
			days[k] = d
		}
		if p.ShiftID != "" && (d.shift == "" || p.ShiftID < d.shift) {
			d.shift = p.ShiftID
		}
		if p.In != nil {
			d.ins = append(d.ins, punch{at: *p.In, source: p.Source})
		}
		if p.Out != nil {
			d.outs = append(d.outs, punch{at: *p.Out, source: p.Source})
		}
	}

	keys := make([]dayKey, 0, len(days))
	for k := range days {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].employee != keys[j].employee {
			return keys[i].employee < keys[j].employee
		}
		return keys[i].date.Before(keys[j].date)
	})

	for _, k := range keys {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		d := days[k]
		in, out := finalize(d, policy)

		if degenerate(in, out) {
			res.Degenerate++
			if fixedIn, fixedOut, ok := r.supplementDay(ctx, d, in, out); ok {
				in, out = fixedIn, fixedOut
				res.Supplemented++
			}
		}
		res.Records = append(res.Records, record(d, in, out))
	}

	slog.Info("punches reconciled",
		"policy", policy,
		"rows", len(rows),
		"records", len(res.Records),
		"dropped", res.Dropped,
		"degenerate", res.Degenerate,
		"supplemented", res.Supplemented,
	)
	return res, nil
}

func (r *Reconciler) normalize(ctx context.Context, raw attendance.RawRow) (attendance.NormalizedPunch, error) {
	employeeID := raw.EmployeeID
	if employeeID == "" {
		if raw.DeviceLocalID == "" {
			return attendance.NormalizedPunch{}, fmt.Errorf("%w: row without employee or device id", attendance.ErrUnmappedDevice)
		}
		id, err := r.devices.ResolveDevice(ctx, raw.Device, raw.DeviceLocalID)
		if err != nil {
			return attendance.NormalizedPunch{}, err
		}
		employeeID = id
	}
	return attendance.NormalizedPunch{
		EmployeeID: employeeID,
		Date:       raw.Date,
		In:         raw.In,
		Out:        raw.Out,
		ShiftID:    raw.Shift,
		Source:     raw.Source,
		Device:     raw.Device,
	}, nil
}

// finalize picks the day's IN and OUT. Clubbed sorts every punch and takes the first and
// last; direction takes the earliest IN and the latest OUT independently.
func finalize(d *day, policy attendance.Policy) (*punch, *punch) {
	if policy == attendance.PolicyDirection {
		var in, out *punch
		for i := range d.ins {
			if in == nil || earlier(d.ins[i], *in) {
				in = &d.ins[i]
			}
		}
		for i := range d.outs {
			if out == nil || earlier(*out, d.outs[i]) {
				out = &d.outs[i]
			}
		}
		return in, out
	}
	all := make([]punch, 0, len(d.ins)+len(d.outs))
	all = append(all, d.ins...)
	all = append(all, d.outs...)
	return club(all)
}

func club(all []punch) (*punch, *punch) {
	if len(all) == 0 {
		return nil, nil
	}
	sorted := append([]punch(nil), all...)
	sort.Slice(sorted, func(i, j int) bool { return earlier(sorted[i], sorted[j]) })
	first, last := sorted[0], sorted[len(sorted)-1]
	return &first, &last
}

// earlier orders punches by time, then by source so ties resolve the same way every run.
func earlier(a, b punch) bool {
	if a.at != b.at {
		return a.at < b.at
	}
	return a.source < b.source
}

func degenerate(in, out *punch) bool {
	if in == nil && out == nil {
		return false
	}
	if in == nil || out == nil {
		return true
	}
	return in.at == out.at
}

// supplementDay mixes the day's app punches into what the sources gave and re-clubs them.
func (r *Reconciler) supplementDay(ctx context.Context, d *day, in, out *punch) (*punch, *punch, bool) {
	if r.supplement == nil {
		return nil, nil, false
	}
	clocks, err := r.supplement.Punches(ctx, d.key.employee, d.key.date)
	if err != nil {
		slog.Warn("app punches unavailable",
			"employee_id", d.key.employee,
			"date", timeparse.FormatDate(d.key.date),
			"error", err,
		)
		return nil, nil, false
	}
	if len(clocks) == 0 {
		return nil, nil, false
	}

	var all []punch
	for _, p := range []*punch{in, out} {
		if p != nil {
			all = append(all, *p)
		}
	}
	for _, c := range clocks {
		all = append(all, punch{at: c, source: attendance.SourceMobileApp})
	}
	newIn, newOut := club(all)
	if degenerate(newIn, newOut) {
		return nil, nil, false
	}
	return newIn, newOut, true
}

func record(d *day, in, out *punch) attendance.AttendanceRecord {
	rec := attendance.AttendanceRecord{
		EmployeeID: d.key.employee,
		Date:       d.key.date,
		ShiftID:    d.shift,
		Status:     attendance.StatusAbsent,
		DocStatus:  attendance.DocDraft,
	}
	if in != nil {
		at := in.at
		rec.In = &at
		rec.LogInSource = in.source
	}
	if out != nil {
		at := out.at
		rec.Out = &at
		rec.LogOutSource = out.source
	}
	if rec.In != nil || rec.Out != nil {
		rec.Status = attendance.StatusPresent
	}
	return rec
}
