// Package deduction prices a single working day against its shift window using the
// graduated late-arrival and early-departure slabs.
package deduction

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pinnacle-hris/payroll-engine/internal/config"
	"github.com/pinnacle-hris/payroll-engine/internal/domain/payroll"
	"github.com/pinnacle-hris/payroll-engine/internal/domain/shift"
)

// Slab is a sub-window of the shift carrying a deduction weight.
type Slab struct {
	Start  time.Time
	End    time.Time
	Weight decimal.Decimal
}

type DayPay struct {
	Deduction   decimal.Decimal
	Pay         decimal.Decimal
	WorkedHours decimal.Decimal
	// Absent is set when the worked hours do not reach the minimum presence.
	Absent bool
}

type Engine struct {
	rules config.PayrollRules
}

func NewEngine(rules config.PayrollRules) *Engine {
	return &Engine{rules: rules}
}

// Slabs builds the check-in slabs forward from IdealIn and the check-out slabs backward
// from IdealOut, both ordered from the mildest to the steepest weight.
func (e *Engine) Slabs(w shift.Window) (in []Slab, out []Slab) {
	ideal := w.IdealMinutes()

	prev := w.IdealIn
	for _, s := range e.rules.CheckInSlabs {
		end := w.IdealIn.Add(offset(ideal, s.Upto))
		in = append(in, Slab{Start: prev, End: end, Weight: decimal.NewFromFloat(s.Weight)})
		prev = end
	}

	prev = w.IdealOut
	for _, s := range e.rules.CheckOutSlabs {
		start := w.IdealOut.Add(-offset(ideal, s.Upto))
		out = append(out, Slab{Start: start, End: prev, Weight: decimal.NewFromFloat(s.Weight)})
		prev = start
	}
	return in, out
}

// offset is fraction of the ideal minutes, rounded half to even to whole minutes.
func offset(idealMinutes, fraction float64) time.Duration {
	return time.Duration(math.RoundToEven(idealMinutes*fraction)) * time.Minute
}

// Deduction sums the weight of the check-in slab holding checkIn (start < in <= end) and
// of the check-out slab holding checkOut (start <= out < end). A punch beyond the outermost
// slab (checking in after IdealOut, leaving before IdealIn) takes the steepest weight.
func (e *Engine) Deduction(checkIn, checkOut time.Time, w shift.Window) decimal.Decimal {
	in, out := e.Slabs(w)
	return inWeight(in, checkIn).Add(outWeight(out, checkOut))
}

func inWeight(in []Slab, checkIn time.Time) decimal.Decimal {
	for _, s := range in {
		if checkIn.After(s.Start) && !checkIn.After(s.End) {
			return s.Weight
		}
	}
	if n := len(in); n > 0 && checkIn.After(in[n-1].End) {
		return in[n-1].Weight
	}
	return decimal.Zero
}

func outWeight(out []Slab, checkOut time.Time) decimal.Decimal {
	for _, s := range out {
		if !checkOut.Before(s.Start) && checkOut.Before(s.End) {
			return s.Weight
		}
	}
	if n := len(out); n > 0 && checkOut.Before(out[n-1].Start) {
		return out[n-1].Weight
	}
	return decimal.Zero
}

// ComputeDayPay prices a day with both punches present.
func (e *Engine) ComputeDayPay(checkIn, checkOut time.Time, w shift.Window, perDay decimal.Decimal) DayPay {
	worked := decimal.NewFromFloat(checkOut.Sub(checkIn).Hours()).Round(2)
	if worked.LessThanOrEqual(decimal.NewFromFloat(e.rules.MinimumWorkedHours)) {
		return DayPay{Deduction: decimal.Zero, Pay: decimal.Zero, WorkedHours: worked, Absent: true}
	}

	d := e.Deduction(checkIn, checkOut, w)
	pay := perDay.Mul(decimal.NewFromInt(1).Sub(d))
	if pay.IsNegative() {
		pay = decimal.Zero
	}
	return DayPay{Deduction: d, Pay: pay.Round(2), WorkedHours: worked}
}

// Overtime pays the minutes past IdealOut when checkOut is beyond the overtime threshold.
func (e *Engine) Overtime(checkOut time.Time, w shift.Window, perDay decimal.Decimal, eligible bool) decimal.Decimal {
	if !eligible || !checkOut.After(w.OvertimeThreshold) {
		return decimal.Zero
	}
	minutes := decimal.NewFromFloat(checkOut.Sub(w.IdealOut).Minutes())
	perMinute := perDay.Div(decimal.NewFromInt(int64(e.rules.OvertimeBaseMinutes)))
	return minutes.Mul(perMinute).Round(2)
}

// Classify maps a deduction fraction to its pay category.
func (e *Engine) Classify(deduction decimal.Decimal) payroll.Category {
	c := e.rules.Categories
	switch {
	case deduction.IsZero():
		return payroll.CategoryFullDay
	case deduction.Equal(decimal.NewFromFloat(c.Late)):
		return payroll.CategoryLate
	case deduction.Equal(decimal.NewFromFloat(c.ThreeQuarter)):
		return payroll.CategoryThreeQuarter
	case deduction.Equal(decimal.NewFromFloat(c.Half)):
		return payroll.CategoryHalf
	case deduction.Equal(decimal.NewFromFloat(c.Quarter)):
		return payroll.CategoryQuarter
	default:
		return payroll.CategoryOther
	}
}
