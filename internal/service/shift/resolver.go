// Package shift resolves the working window that applies to an employee on a date.
package shift

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pinnacle-hris/payroll-engine/internal/domain/shift"
	"github.com/pinnacle-hris/payroll-engine/internal/pkg/timeparse"
)

type Resolver struct {
	shifts    shift.ShiftRepository
	threshold timeparse.Clock
}

// NewResolver builds a resolver; threshold is the clock after which a checkout counts as overtime.
func NewResolver(shifts shift.ShiftRepository, threshold timeparse.Clock) *Resolver {
	return &Resolver{shifts: shifts, threshold: threshold}
}

// Period holds the variations of one company over a date range, loaded once, and caches
// shift types by name. It is not safe for concurrent use.
type Period struct {
	resolver   *Resolver
	variations map[time.Time][]shift.ShiftVariation
	types      map[string]shift.ShiftType
}

// ForPeriod preloads the company's shift variations in [from, to].
func (r *Resolver) ForPeriod(ctx context.Context, companyID string, from, to time.Time) (*Period, error) {
	variations, err := r.shifts.ListVariations(ctx, companyID, timeparse.DateOf(from), timeparse.DateOf(to))
	if err != nil {
		return nil, fmt.Errorf("failed to list shift variations: %w", err)
	}
	p := &Period{
		resolver:   r,
		variations: make(map[time.Time][]shift.ShiftVariation),
		types:      make(map[string]shift.ShiftType),
	}
	for _, v := range variations {
		d := timeparse.DateOf(v.Date)
		p.variations[d] = append(p.variations[d], v)
	}
	return p, nil
}

// Resolve returns the window for employeeID on date. A variation on the date wins over the
// named shift; one naming the employee wins over one covering the whole company.
func (p *Period) Resolve(ctx context.Context, employeeID string, date time.Time, shiftName string) (shift.Window, error) {
	day := timeparse.DateOf(date)

	if v := p.variationFor(employeeID, day); v != nil {
		return p.window(day, v.Start, v.End, v)
	}

	if shiftName == "" {
		return shift.Window{}, fmt.Errorf("%w on %s", shift.ErrShiftNotAssigned, timeparse.FormatDate(day))
	}
	st, err := p.shiftType(ctx, shiftName)
	if err != nil {
		if errors.Is(err, shift.ErrShiftNotFound) {
			return shift.Window{}, fmt.Errorf("%w: %q on %s", shift.ErrShiftNotFound, shiftName, timeparse.FormatDate(day))
		}
		return shift.Window{}, err
	}
	return p.window(day, st.Start, st.End, nil)
}

func (p *Period) variationFor(employeeID string, day time.Time) *shift.ShiftVariation {
	var blanket *shift.ShiftVariation
	for i, v := range p.variations[day] {
		if len(v.Employees) == 0 {
			if blanket == nil {
				blanket = &p.variations[day][i]
			}
			continue
		}
		if v.AppliesTo(employeeID) {
			return &p.variations[day][i]
		}
	}
	return blanket
}

func (p *Period) shiftType(ctx context.Context, name string) (shift.ShiftType, error) {
	if st, ok := p.types[name]; ok {
		return st, nil
	}
	st, err := p.resolver.shifts.GetShiftType(ctx, name)
	if err != nil {
		return shift.ShiftType{}, err
	}
	p.types[name] = st
	return st, nil
}

func (p *Period) window(day time.Time, start, end timeparse.Clock, v *shift.ShiftVariation) (shift.Window, error) {
	if !end.After(start) {
		return shift.Window{}, fmt.Errorf("%w: %s-%s on %s", shift.ErrInvalidShiftWindow, start, end, timeparse.FormatDate(day))
	}
	return shift.Window{
		IdealIn:           start.On(day),
		IdealOut:          end.On(day),
		OvertimeThreshold: p.resolver.threshold.On(day),
		Variation:         v,
	}, nil
}
