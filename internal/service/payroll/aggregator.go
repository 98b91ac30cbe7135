package payroll

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pinnacle-hris/payroll-engine/internal/config"
	"github.com/pinnacle-hris/payroll-engine/internal/domain/attendance"
	"github.com/pinnacle-hris/payroll-engine/internal/domain/employee"
	"github.com/pinnacle-hris/payroll-engine/internal/domain/holiday"
	"github.com/pinnacle-hris/payroll-engine/internal/domain/payroll"
	"github.com/pinnacle-hris/payroll-engine/internal/domain/salary"
	"github.com/pinnacle-hris/payroll-engine/internal/domain/shift"
	"github.com/pinnacle-hris/payroll-engine/internal/pkg/timeparse"
	"github.com/pinnacle-hris/payroll-engine/internal/service/deduction"
	shiftsvc "github.com/pinnacle-hris/payroll-engine/internal/service/shift"
)

// Aggregator computes an employee's monthly salary breakdown from submitted attendance.
type Aggregator struct {
	rules       config.PayrollRules
	engine      *deduction.Engine
	shifts      *shiftsvc.Resolver
	attendance  attendance.AttendanceRepository
	holidays    holiday.HolidayRepository
	history     salary.HistoryRepository
	encashments salary.EncashmentRepository
	recurring   salary.RecurringRepository
	payslips    payroll.PayslipRepository
}

func NewAggregator(
	rules config.PayrollRules,
	shifts *shiftsvc.Resolver,
	attendanceRepo attendance.AttendanceRepository,
	holidays holiday.HolidayRepository,
	history salary.HistoryRepository,
	encashments salary.EncashmentRepository,
	recurring salary.RecurringRepository,
	payslips payroll.PayslipRepository,
) *Aggregator {
	return &Aggregator{
		rules:       rules,
		engine:      deduction.NewEngine(rules),
		shifts:      shifts,
		attendance:  attendanceRepo,
		holidays:    holidays,
		history:     history,
		encashments: encashments,
		recurring:   recurring,
		payslips:    payslips,
	}
}

// dayInput is everything classifyDay needs to know about one calendar day.
type dayInput struct {
	Date     time.Time
	Employed bool
	Holiday  bool
	Record   *attendance.AttendanceRecord
	Window   *shift.Window
	// OvertimeEligible comes from the salary revision in force on Date.
	OvertimeEligible bool
}

// Compute builds the breakdown of emp for year/month. payslipID names an existing draft
// whose linked ledger rows must be offered again; it is empty for a first run.
func (a *Aggregator) Compute(ctx context.Context, emp employee.Employee, year, month int, payslipID string) (payroll.SalaryBreakdown, error) {
	m := time.Month(month)
	from, to := timeparse.MonthRange(year, m)

	entries, err := a.history.ListByEmployee(ctx, emp.ID)
	if err != nil {
		return payroll.SalaryBreakdown{}, fmt.Errorf("failed to list salary history: %w", err)
	}
	history := salary.History(entries)
	basic, ok := history.MonthlyBasic(year, m)
	if !ok {
		return payroll.SalaryBreakdown{}, fmt.Errorf("%w: %s", salary.ErrSalaryHistoryNotFound, emp.ID)
	}
	days := timeparse.DaysIn(year, m)
	perDay := basic.Div(decimal.NewFromInt(int64(days))).Round(2)

	inputs, holidayCount, err := a.loadDays(ctx, emp, history, from, to)
	if err != nil {
		return payroll.SalaryBreakdown{}, err
	}

	budget, err := a.latesBudget(ctx, emp, from)
	if err != nil {
		return payroll.SalaryBreakdown{}, err
	}

	acc := newAccumulator(emp.ID, year, month, basic, perDay, days, budget)
	for _, in := range inputs {
		acc = fold(acc, classifyDay(a.engine, in, perDay))
	}
	b := acc.breakdown

	b.Holidays = holidayCount
	b.HolidayPay = decimal.Zero
	if b.ActualWorkingDays > 0 {
		b.HolidayPay = perDay.Mul(decimal.NewFromInt(int64(holidayCount))).Round(2)
	}

	encashments, err := a.encashments.ListApplicable(ctx, emp.ID, from, to, payslipID)
	if err != nil {
		return payroll.SalaryBreakdown{}, fmt.Errorf("failed to list leave encashments: %w", err)
	}
	b.Encashment = decimal.Zero
	b.EncashmentIDs = []string{}
	for _, e := range encashments {
		b.Encashment = b.Encashment.Add(e.Amount)
		b.EncashmentIDs = append(b.EncashmentIDs, e.ID)
	}

	components, err := a.recurring.ListApplicable(ctx, emp.ID, from, to, payslipID)
	if err != nil {
		return payroll.SalaryBreakdown{}, fmt.Errorf("failed to list recurring components: %w", err)
	}
	b.RecurringEarnings, b.RecurringDeductions = decimal.Zero, decimal.Zero
	for _, c := range components {
		if c.Kind == salary.KindDeduction {
			b.RecurringDeductions = b.RecurringDeductions.Add(c.Amount)
		} else {
			b.RecurringEarnings = b.RecurringEarnings.Add(c.Amount)
		}
	}
	b.Recurring = components

	b.NetPayable = b.Total.
		Add(b.Overtime).
		Add(b.HolidayPay).
		Add(b.Encashment).
		Add(b.RecurringEarnings).
		Sub(b.RecurringDeductions).
		Round(2)
	return b, nil
}

// loadDays gathers the attendance, holiday and shift window of every day of the month.
func (a *Aggregator) loadDays(ctx context.Context, emp employee.Employee, history salary.History, from, to time.Time) ([]dayInput, int, error) {
	records, err := a.attendance.ListSubmitted(ctx, emp.ID, from, to)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list attendance: %w", err)
	}
	byDate := make(map[time.Time]*attendance.AttendanceRecord, len(records))
	for i := range records {
		byDate[timeparse.DateOf(records[i].Date)] = &records[i]
	}

	holidaySet := make(map[time.Time]bool)
	if emp.HolidayList != "" {
		holidays, err := a.holidays.ListBetween(ctx, emp.HolidayList, from, to)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to list holidays: %w", err)
		}
		for _, h := range holidays {
			holidaySet[timeparse.DateOf(h.Date)] = true
		}
	}

	period, err := a.shifts.ForPeriod(ctx, emp.CompanyID, from, to)
	if err != nil {
		return nil, 0, err
	}

	var inputs []dayInput
	holidayCount := 0
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		in := dayInput{
			Date:     d,
			Employed: emp.EmployedOn(d),
			Record:   byDate[d],
		}
		in.Holiday = holidaySet[d] && in.Employed
		if in.Holiday {
			holidayCount++
		}
		if entry, ok := history.EntryOn(d); ok {
			in.OvertimeEligible = entry.OvertimeEligible
		}

		if !in.Holiday && in.Record != nil && in.Record.HasBothPunches() {
			shiftName := in.Record.ShiftID
			if shiftName == "" {
				shiftName = emp.DefaultShift
			}
			w, err := period.Resolve(ctx, emp.ID, d, shiftName)
			if err != nil {
				return nil, 0, err
			}
			in.Window = &w
		}
		inputs = append(inputs, in)
	}
	return inputs, holidayCount, nil
}

// latesBudget is the number of lates still forgivable in the month starting at monthStart.
func (a *Aggregator) latesBudget(ctx context.Context, emp employee.Employee, monthStart time.Time) (int, error) {
	budget := emp.AllowedLates
	if a.rules.AllowedLatesReset == config.LatesResetFiscalYear {
		fyStart, _ := timeparse.FiscalYear(monthStart)
		used, err := a.payslips.SumLatesForgiven(ctx, emp.ID, fyStart, monthStart)
		if err != nil {
			return 0, fmt.Errorf("failed to count forgiven lates: %w", err)
		}
		budget -= used
	}
	if budget < 0 {
		budget = 0
	}
	return budget, nil
}

// classifyDay prices one day. It reads nothing but its arguments.
func classifyDay(engine *deduction.Engine, in dayInput, perDay decimal.Decimal) payroll.DayResult {
	res := payroll.DayResult{
		Date:        in.Date,
		Category:    payroll.CategoryAbsent,
		Deduction:   decimal.Zero,
		Pay:         decimal.Zero,
		OvertimePay: decimal.Zero,
		WorkedHours: decimal.Zero,
	}
	if in.Holiday {
		res.Category = payroll.CategoryHoliday
		return res
	}
	if in.Record == nil || !in.Record.HasBothPunches() || in.Window == nil {
		return res
	}

	checkIn := in.Record.In.On(in.Date)
	checkOut := in.Record.Out.On(in.Date)
	w := applyVariationGrace(*in.Window, checkIn, checkOut)

	day := engine.ComputeDayPay(checkIn, checkOut, w, perDay)
	res.WorkedHours = day.WorkedHours
	if day.Absent {
		return res
	}
	res.Deduction = day.Deduction
	res.Pay = day.Pay
	res.Category = engine.Classify(day.Deduction)
	if in.Date.Weekday() == time.Sunday {
		res.Category = payroll.CategorySunday
	}
	res.OvertimePay = engine.Overtime(checkOut, w, perDay, in.OvertimeEligible)
	return res
}

// applyVariationGrace credits an early arrival against an early departure and a late stay
// against a late arrival when the window comes from a shift variation.
// An early arrival moves IdealOut earlier by the gap rather than moving IdealIn forward:
// shifting IdealIn while the punch already precedes it would leave the check-in deduction
// at zero and grant nothing. A late stay moves IdealIn later by the overrun.
func applyVariationGrace(w shift.Window, checkIn, checkOut time.Time) shift.Window {
	if w.Variation == nil {
		return w
	}
	adjusted := w
	if checkIn.Before(w.IdealIn) {
		adjusted.IdealOut = adjusted.IdealOut.Add(-w.IdealIn.Sub(checkIn))
	}
	if checkOut.After(w.IdealOut) {
		adjusted.IdealIn = adjusted.IdealIn.Add(checkOut.Sub(w.IdealOut))
	}
	if !adjusted.IdealOut.After(adjusted.IdealIn) {
		return w
	}
	return adjusted
}

type accumulator struct {
	breakdown payroll.SalaryBreakdown
	perDay    decimal.Decimal
	latesLeft int
}

func newAccumulator(employeeID string, year, month int, basic, perDay decimal.Decimal, days, latesBudget int) accumulator {
	return accumulator{
		breakdown: payroll.SalaryBreakdown{
			EmployeeID:          employeeID,
			Year:                year,
			Month:               month,
			BasicSalary:         basic,
			PerDaySalary:        perDay,
			StandardWorkingDays: days,
			Categories:          make(map[payroll.Category]payroll.CategoryTotal),
			Total:               decimal.Zero,
			Overtime:            decimal.Zero,
			Days:                make([]payroll.DayResult, 0, days),
		},
		perDay:    perDay,
		latesLeft: latesBudget,
	}
}

// fold adds one day to the running breakdown. A Late day is forgiven as a full day while
// the allowed-lates budget lasts.
func fold(acc accumulator, day payroll.DayResult) accumulator {
	b := &acc.breakdown

	if day.Category == payroll.CategoryLate && acc.latesLeft > 0 {
		acc.latesLeft--
		day.Category = payroll.CategoryFullDay
		day.Pay = acc.perDay
		day.LateForgiven = true
		b.LatesForgiven++
	}

	switch day.Category {
	case payroll.CategoryAbsent:
		b.Absent++
	case payroll.CategoryHoliday:
	default:
		b.ActualWorkingDays++
		t := b.Categories[day.Category]
		t.Days++
		t.Amount = t.Amount.Add(day.Pay)
		b.Categories[day.Category] = t
		b.Total = b.Total.Add(day.Pay)
		b.Overtime = b.Overtime.Add(day.OvertimePay)
	}
	b.Days = append(b.Days, day)
	return acc
}
