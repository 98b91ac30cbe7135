package payroll

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pinnacle-hris/payroll-engine/internal/config"
	"github.com/pinnacle-hris/payroll-engine/internal/domain/attendance"
	"github.com/pinnacle-hris/payroll-engine/internal/domain/employee"
	"github.com/pinnacle-hris/payroll-engine/internal/domain/holiday"
	"github.com/pinnacle-hris/payroll-engine/internal/domain/job"
	"github.com/pinnacle-hris/payroll-engine/internal/domain/payroll"
	"github.com/pinnacle-hris/payroll-engine/internal/domain/salary"
	"github.com/pinnacle-hris/payroll-engine/internal/domain/shift"
	"github.com/pinnacle-hris/payroll-engine/internal/pkg/apperror"
	"github.com/pinnacle-hris/payroll-engine/internal/pkg/email"
	"github.com/pinnacle-hris/payroll-engine/internal/pkg/jobs"
	"github.com/pinnacle-hris/payroll-engine/internal/pkg/notify"
	"github.com/pinnacle-hris/payroll-engine/internal/pkg/storage"
	"github.com/pinnacle-hris/payroll-engine/internal/pkg/timeparse"
	"github.com/pinnacle-hris/payroll-engine/internal/repository/memory"
	shiftsvc "github.com/pinnacle-hris/payroll-engine/internal/service/shift"
)

type captureEmail struct {
	mu   sync.Mutex
	sent []email.PayslipEmail
}

func (c *captureEmail) SendPayslip(_ context.Context, p email.PayslipEmail) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, p)
	return nil
}

func (c *captureEmail) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

type fixture struct {
	employees    *memory.EmployeeRepository
	attendance   *memory.AttendanceRepository
	shifts       *memory.ShiftRepository
	holidays     *memory.HolidayRepository
	history      *memory.HistoryRepository
	encashments  *memory.EncashmentRepository
	recurring    *memory.RecurringRepository
	payslips     *memory.PayslipRepository
	runs         *memory.JobRunRepository
	runner       *jobs.Runner
	mail         *captureEmail
	aggregator   *Aggregator
	materializer *Materializer
	svc          payroll.PayrollService
}

func newFixture(t *testing.T, rules config.PayrollRules) *fixture {
	t.Helper()
	f := &fixture{
		employees:   memory.NewEmployeeRepository(),
		attendance:  memory.NewAttendanceRepository(),
		shifts:      memory.NewShiftRepository(shift.ShiftType{Name: "Regular", Start: timeparse.NewClock(9, 0, 0), End: timeparse.NewClock(18, 0, 0)}),
		holidays:    memory.NewHolidayRepository(),
		history:     memory.NewHistoryRepository(),
		encashments: memory.NewEncashmentRepository(),
		recurring:   memory.NewRecurringRepository(),
		payslips:    memory.NewPayslipRepository(),
		runs:        memory.NewJobRunRepository(),
		mail:        &captureEmail{},
	}
	f.runner = jobs.NewRunner(f.runs, 16)

	files, err := storage.NewLocalStorage(t.TempDir(), "http://localhost/uploads")
	require.NoError(t, err)

	resolver := shiftsvc.NewResolver(f.shifts, rules.OvertimeThreshold)
	f.aggregator = NewAggregator(rules, resolver, f.attendance, f.holidays, f.history, f.encashments, f.recurring, f.payslips)
	f.materializer = NewMaterializer(memory.NewTransactor(), f.payslips, f.encashments, f.recurring)
	f.svc = NewPayrollService(f.employees, f.payslips, f.aggregator, f.materializer, f.runner, notify.Log{}, f.mail, files)

	f.addEmployee(asha())
	return f
}

func asha() employee.Employee {
	doj := timeparse.Date(2024, time.January, 1)
	mail := "asha@example.com"
	return employee.Employee{
		ID:            "EMP-001",
		FullName:      "Asha Rao",
		CompanyID:     "ACME",
		DefaultShift:  "Regular",
		HolidayList:   "IN-2025",
		DateOfJoining: &doj,
		PersonalEmail: &mail,
		Status:        employee.StatusActive,
	}
}

// addEmployee registers e with a 31000 monthly salary, so March pays 1000 a day.
func (f *fixture) addEmployee(e employee.Employee) {
	f.employees.Put(e)
	f.history.Add(salary.HistoryEntry{
		ID:               e.ID + "-h1",
		EmployeeID:       e.ID,
		FromDate:         timeparse.Date(2024, time.January, 1),
		Amount:           decimal.NewFromInt(31000),
		OvertimeEligible: true,
	})
}

func (f *fixture) punch(t *testing.T, employeeID string, day, inH, inM, outH, outM int) {
	t.Helper()
	in := timeparse.NewClock(inH, inM, 0)
	out := timeparse.NewClock(outH, outM, 0)
	_, err := f.attendance.Create(context.Background(), attendance.AttendanceRecord{
		EmployeeID: employeeID,
		Date:       timeparse.Date(2025, time.March, day),
		In:         &in,
		Out:        &out,
		ShiftID:    "Regular",
		Status:     attendance.StatusPresent,
		DocStatus:  attendance.DocSubmitted,
	})
	require.NoError(t, err)
}

func (f *fixture) holiday(day int) {
	f.holidays.Add(holiday.Holiday{HolidayList: "IN-2025", Date: timeparse.Date(2025, time.March, day)})
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertDec(t *testing.T, want string, got decimal.Decimal, msg string) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "%s: want %s, got %s", msg, want, got)
}

func TestCompute_March(t *testing.T) {
	f := newFixture(t, config.DefaultPayrollRules())
	f.punch(t, "EMP-001", 3, 9, 0, 18, 0)  // full day
	f.punch(t, "EMP-001", 4, 9, 5, 18, 0)  // late
	f.punch(t, "EMP-001", 5, 9, 0, 11, 30) // 2.5 hours: absent
	f.punch(t, "EMP-001", 6, 9, 0, 20, 0)  // full day plus 120 minutes overtime
	f.punch(t, "EMP-001", 9, 9, 0, 18, 0)  // sunday
	f.holiday(14)

	b, err := f.aggregator.Compute(context.Background(), asha(), 2025, 3, "")
	require.NoError(t, err)

	assertDec(t, "31000", b.BasicSalary, "basic")
	assertDec(t, "1000", b.PerDaySalary, "per day")
	assert.Equal(t, 31, b.StandardWorkingDays)
	assert.Equal(t, 4, b.ActualWorkingDays)
	assert.Equal(t, 26, b.Absent)
	assert.Equal(t, 1, b.Holidays)

	assert.Equal(t, 2, b.Categories[payroll.CategoryFullDay].Days)
	assertDec(t, "2000", b.Categories[payroll.CategoryFullDay].Amount, "full day")
	assert.Equal(t, 1, b.Categories[payroll.CategoryLate].Days)
	assertDec(t, "900", b.Categories[payroll.CategoryLate].Amount, "late")
	assert.Equal(t, 1, b.Categories[payroll.CategorySunday].Days)

	assertDec(t, "3900", b.Total, "total")
	assertDec(t, "222.22", b.Overtime, "overtime")
	assertDec(t, "1000", b.HolidayPay, "holiday pay")
	assertDec(t, "5122.22", b.NetPayable, "net")

	require.Len(t, b.Days, 31)
	assert.Equal(t, payroll.CategoryAbsent, b.Days[4].Category)
	assertDec(t, "2.5", b.Days[4].WorkedHours, "worked hours")
	assert.Equal(t, payroll.CategoryHoliday, b.Days[13].Category)
	assert.Equal(t, payroll.CategoryAbsent, b.Days[0].Category)
}

func TestCompute_Deterministic(t *testing.T) {
	f := newFixture(t, config.DefaultPayrollRules())
	f.punch(t, "EMP-001", 3, 9, 0, 18, 0)
	f.punch(t, "EMP-001", 4, 9, 45, 17, 10)

	first, err := f.aggregator.Compute(context.Background(), asha(), 2025, 3, "")
	require.NoError(t, err)
	second, err := f.aggregator.Compute(context.Background(), asha(), 2025, 3, "")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCompute_LatesForgiven(t *testing.T) {
	f := newFixture(t, config.DefaultPayrollRules())
	emp := asha()
	emp.AllowedLates = 1
	f.employees.Put(emp)
	f.punch(t, "EMP-001", 4, 9, 5, 18, 0)
	f.punch(t, "EMP-001", 5, 9, 10, 18, 0)

	b, err := f.aggregator.Compute(context.Background(), emp, 2025, 3, "")
	require.NoError(t, err)
	assert.Equal(t, 1, b.LatesForgiven)
	assert.Equal(t, 1, b.Categories[payroll.CategoryFullDay].Days)
	assertDec(t, "1000", b.Categories[payroll.CategoryFullDay].Amount, "forgiven day")
	assert.Equal(t, 1, b.Categories[payroll.CategoryLate].Days)
	assert.True(t, b.Days[3].LateForgiven)
	assert.False(t, b.Days[4].LateForgiven)
}

func TestCompute_LatesFiscalYearBudget(t *testing.T) {
	rules := config.DefaultPayrollRules()
	rules.AllowedLatesReset = config.LatesResetFiscalYear
	f := newFixture(t, rules)
	emp := asha()
	emp.AllowedLates = 1
	f.punch(t, "EMP-001", 4, 9, 5, 18, 0)

	_, err := f.payslips.Create(context.Background(), payroll.Payslip{
		EmployeeID: "EMP-001", Year: 2025, Month: 2, LatesForgiven: 1, Status: payroll.StatusSubmitted,
	})
	require.NoError(t, err)

	b, err := f.aggregator.Compute(context.Background(), emp, 2025, 3, "")
	require.NoError(t, err)
	assert.Equal(t, 0, b.LatesForgiven)
	assert.Equal(t, 1, b.Categories[payroll.CategoryLate].Days)

	// a new fiscal year starts with the full budget
	_, err = f.payslips.Create(context.Background(), payroll.Payslip{
		EmployeeID: "EMP-001", Year: 2024, Month: 3, LatesForgiven: 5, Status: payroll.StatusSubmitted,
	})
	require.NoError(t, err)
	budget, err := f.aggregator.latesBudget(context.Background(), emp, timeparse.Date(2025, time.April, 1))
	require.NoError(t, err)
	assert.Equal(t, 1, budget)
}

func TestCompute_JoinedMidMonth(t *testing.T) {
	f := newFixture(t, config.DefaultPayrollRules())
	emp := asha()
	doj := timeparse.Date(2025, time.March, 15)
	emp.DateOfJoining = &doj
	f.holiday(10)
	f.holiday(20)
	f.punch(t, "EMP-001", 17, 9, 0, 18, 0)

	b, err := f.aggregator.Compute(context.Background(), emp, 2025, 3, "")
	require.NoError(t, err)
	assert.Equal(t, 1, b.Holidays)
	assertDec(t, "1000", b.HolidayPay, "holiday pay")
	assert.Equal(t, payroll.CategoryAbsent, b.Days[9].Category)
	assert.Equal(t, payroll.CategoryHoliday, b.Days[19].Category)
}

func TestCompute_HolidayNeedsAWorkingDay(t *testing.T) {
	f := newFixture(t, config.DefaultPayrollRules())
	f.holiday(14)

	b, err := f.aggregator.Compute(context.Background(), asha(), 2025, 3, "")
	require.NoError(t, err)
	assert.Equal(t, 1, b.Holidays)
	assert.True(t, b.HolidayPay.IsZero())
	assert.Equal(t, 30, b.Absent)
}

func TestCompute_HolidayOverridesAttendance(t *testing.T) {
	f := newFixture(t, config.DefaultPayrollRules())
	f.holiday(14)
	f.punch(t, "EMP-001", 14, 9, 0, 18, 0)
	f.punch(t, "EMP-001", 17, 9, 0, 18, 0)

	b, err := f.aggregator.Compute(context.Background(), asha(), 2025, 3, "")
	require.NoError(t, err)
	assert.Equal(t, 1, b.ActualWorkingDays)
	assertDec(t, "1000", b.Total, "total")
	assertDec(t, "1000", b.HolidayPay, "holiday pay")
	assertDec(t, "2000", b.NetPayable, "net")
}

func TestCompute_MidMonthIncrement(t *testing.T) {
	f := newFixture(t, config.DefaultPayrollRules())
	f.history.Add(salary.HistoryEntry{
		EmployeeID: "EMP-001",
		FromDate:   timeparse.Date(2025, time.March, 17),
		Amount:     decimal.NewFromInt(62000),
	})

	b, err := f.aggregator.Compute(context.Background(), asha(), 2025, 3, "")
	require.NoError(t, err)
	assertDec(t, "46000", b.BasicSalary, "basic")
	assertDec(t, "1483.87", b.PerDaySalary, "per day")
}

func TestCompute_NoSalaryHistory(t *testing.T) {
	f := newFixture(t, config.DefaultPayrollRules())
	emp := asha()
	emp.ID = "EMP-404"

	_, err := f.aggregator.Compute(context.Background(), emp, 2025, 3, "")
	assert.ErrorIs(t, err, salary.ErrSalaryHistoryNotFound)
	assert.ErrorIs(t, err, apperror.ErrReferenceDataMissing)
}

func TestCompute_SalaryStartsAfterMonth(t *testing.T) {
	f := newFixture(t, config.DefaultPayrollRules())
	emp := asha()
	emp.ID = "EMP-LATE"
	f.employees.Put(emp)
	f.history.Add(salary.HistoryEntry{
		EmployeeID: emp.ID,
		FromDate:   timeparse.Date(2025, time.June, 1),
		Amount:     decimal.NewFromInt(50000),
	})

	_, err := f.aggregator.Compute(context.Background(), emp, 2025, 3, "")
	assert.ErrorIs(t, err, salary.ErrSalaryHistoryNotFound)
}

func TestCompute_VariationGrace(t *testing.T) {
	f := newFixture(t, config.DefaultPayrollRules())
	f.shifts.AddVariation(shift.ShiftVariation{
		ID: "v1", CompanyID: "ACME", Date: timeparse.Date(2025, time.March, 7),
		Start: timeparse.NewClock(10, 0, 0), End: timeparse.NewClock(17, 0, 0),
	})
	f.punch(t, "EMP-001", 7, 9, 30, 16, 30)
	f.punch(t, "EMP-001", 10, 9, 30, 16, 30)

	b, err := f.aggregator.Compute(context.Background(), asha(), 2025, 3, "")
	require.NoError(t, err)
	// arriving 30 minutes before the variation start covers leaving 30 minutes early
	assert.Equal(t, payroll.CategoryFullDay, b.Days[6].Category)
	// the same punches against the regular shift are late and early
	assert.Equal(t, payroll.CategoryOther, b.Days[9].Category)
}

func TestCompute_UnknownShiftNamesDate(t *testing.T) {
	f := newFixture(t, config.DefaultPayrollRules())
	in, out := timeparse.NewClock(9, 0, 0), timeparse.NewClock(18, 0, 0)
	_, err := f.attendance.Create(context.Background(), attendance.AttendanceRecord{
		EmployeeID: "EMP-001", Date: timeparse.Date(2025, time.March, 3),
		In: &in, Out: &out, ShiftID: "Night", DocStatus: attendance.DocSubmitted,
	})
	require.NoError(t, err)

	_, err = f.aggregator.Compute(context.Background(), asha(), 2025, 3, "")
	assert.ErrorIs(t, err, shift.ErrShiftNotFound)
	assert.Contains(t, err.Error(), "03-Mar-2025")
}

func TestGenerateBatch_Idempotent(t *testing.T) {
	f := newFixture(t, config.DefaultPayrollRules())
	f.punch(t, "EMP-001", 3, 9, 0, 18, 0)
	req := payroll.GenerateRequest{CompanyID: "ACME", Year: 2025, Month: 3}

	first, err := f.svc.GenerateBatch(context.Background(), req, nil)
	require.NoError(t, err)
	require.Equal(t, 1, first.Processed)

	second, err := f.svc.GenerateBatch(context.Background(), req, nil)
	require.NoError(t, err)
	require.Equal(t, 1, second.Processed)

	assert.Equal(t, first.Results[0].PayslipID, second.Results[0].PayslipID)
	assert.Equal(t, 1, f.payslips.Count())

	p, err := f.svc.GetPayslip(context.Background(), first.Results[0].PayslipID)
	require.NoError(t, err)
	require.Len(t, p.SalaryCalculation, 1)
	assert.Equal(t, "Full Day", p.SalaryCalculation[0].Particulars)
	assert.Equal(t, payroll.StatusDraft, p.Status)
}

func TestGenerateBatch_Summary(t *testing.T) {
	f := newFixture(t, config.DefaultPayrollRules())
	f.punch(t, "EMP-001", 3, 9, 0, 18, 0)

	noHistory := asha()
	noHistory.ID = "EMP-002"
	f.employees.Put(noHistory)

	badShift := asha()
	badShift.ID = "EMP-003"
	f.addEmployee(badShift)
	in, out := timeparse.NewClock(9, 0, 0), timeparse.NewClock(18, 0, 0)
	_, err := f.attendance.Create(context.Background(), attendance.AttendanceRecord{
		EmployeeID: "EMP-003", Date: timeparse.Date(2025, time.March, 3),
		In: &in, Out: &out, ShiftID: "Night", DocStatus: attendance.DocSubmitted,
	})
	require.NoError(t, err)

	var calls [][2]int
	summary, err := f.svc.GenerateBatch(context.Background(), payroll.GenerateRequest{CompanyID: "ACME", Year: 2025, Month: 3},
		func(done, total int) { calls = append(calls, [2]int{done, total}) })
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 2, summary.Skipped)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, payroll.ResultSkipped, summary.Results[1].Status)
	assert.Contains(t, summary.Results[1].Error, "salary history")
	assert.Equal(t, [][2]int{{1, 3}, {2, 3}, {3, 3}}, calls)
}

func TestGenerateBatch_Validation(t *testing.T) {
	f := newFixture(t, config.DefaultPayrollRules())

	_, err := f.svc.GenerateBatch(context.Background(), payroll.GenerateRequest{Year: 2025, Month: 13, CompanyID: "ACME"}, nil)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = f.svc.GenerateBatch(context.Background(), payroll.GenerateRequest{Year: 2025, Month: 3}, nil)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = f.svc.GenerateBatch(context.Background(), payroll.GenerateRequest{Year: 2025, Month: 3, CompanyID: "NOBODY"}, nil)
	assert.ErrorIs(t, err, payroll.ErrNoEmployeesSelected)
}

func TestSubmittedPayslipIsLocked(t *testing.T) {
	f := newFixture(t, config.DefaultPayrollRules())
	f.punch(t, "EMP-001", 3, 9, 0, 18, 0)
	req := payroll.GenerateRequest{EmployeeIDs: []string{"EMP-001"}, Year: 2025, Month: 3}

	summary, err := f.svc.GenerateBatch(context.Background(), req, nil)
	require.NoError(t, err)
	id := summary.Results[0].PayslipID
	require.NoError(t, f.svc.Submit(context.Background(), id))
	assert.ErrorIs(t, f.svc.Submit(context.Background(), id), payroll.ErrPayslipSubmitted)

	f.punch(t, "EMP-001", 4, 9, 0, 18, 0)
	summary, err = f.svc.GenerateBatch(context.Background(), req, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Skipped)

	_, err = f.svc.Regenerate(context.Background(), id)
	assert.ErrorIs(t, err, payroll.ErrPayslipSubmitted)
	assert.ErrorIs(t, err, apperror.ErrStateConflict)

	p, err := f.svc.GetPayslip(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 1, p.ActualWorkingDays)
}

func TestEncashmentAppliedOnce(t *testing.T) {
	f := newFixture(t, config.DefaultPayrollRules())
	f.punch(t, "EMP-001", 3, 9, 0, 18, 0)
	enc, err := f.encashments.Create(context.Background(), salary.LeaveEncashment{
		EmployeeID: "EMP-001",
		FromDate:   timeparse.Date(2024, time.January, 1),
		ToDate:     timeparse.Date(2025, time.March, 31),
		Amount:     decimal.NewFromInt(5000),
	})
	require.NoError(t, err)

	req := payroll.GenerateRequest{EmployeeIDs: []string{"EMP-001"}, Year: 2025, Month: 3}
	summary, err := f.svc.GenerateBatch(context.Background(), req, nil)
	require.NoError(t, err)
	id := summary.Results[0].PayslipID

	p, err := f.svc.GetPayslip(context.Background(), id)
	require.NoError(t, err)
	assertDec(t, "6000", p.NetPayable, "net with encashment")

	latest, err := f.encashments.Latest(context.Background(), "EMP-001")
	require.NoError(t, err)
	assert.Equal(t, salary.EncashmentPaid, latest.Status)
	require.NotNil(t, latest.PayslipID)
	assert.Equal(t, id, *latest.PayslipID)

	// regenerating the draft keeps the same encashment exactly once
	p, err = f.svc.Regenerate(context.Background(), id)
	require.NoError(t, err)
	assertDec(t, "6000", p.NetPayable, "net after regenerate")

	// a payslip for another employee-month cannot take it
	_, err = f.materializer.Upsert(context.Background(), asha(), payroll.SalaryBreakdown{
		EmployeeID: "EMP-001", Year: 2025, Month: 4, EncashmentIDs: []string{enc.ID},
	})
	assert.ErrorIs(t, err, salary.ErrLedgerAlreadyApplied)
}

func TestRecurringComponents(t *testing.T) {
	f := newFixture(t, config.DefaultPayrollRules())
	f.punch(t, "EMP-001", 3, 9, 0, 18, 0)
	for _, c := range []salary.RecurringComponent{
		{EmployeeID: "EMP-001", Component: "Bonus", Kind: salary.KindEarning, Amount: decimal.NewFromInt(700), DueDate: timeparse.Date(2025, time.March, 31)},
		{EmployeeID: "EMP-001", Component: "Advance", Kind: salary.KindDeduction, Amount: decimal.NewFromInt(200), DueDate: timeparse.Date(2025, time.March, 31)},
		{EmployeeID: "EMP-001", Component: "Bonus", Kind: salary.KindEarning, Amount: decimal.NewFromInt(700), DueDate: timeparse.Date(2025, time.April, 30)},
	} {
		_, err := f.recurring.Create(context.Background(), c)
		require.NoError(t, err)
	}

	summary, err := f.svc.GenerateBatch(context.Background(), payroll.GenerateRequest{EmployeeIDs: []string{"EMP-001"}, Year: 2025, Month: 3}, nil)
	require.NoError(t, err)
	p, err := f.svc.GetPayslip(context.Background(), summary.Results[0].PayslipID)
	require.NoError(t, err)
	assertDec(t, "1500", p.NetPayable, "net")

	var particulars []string
	for _, it := range p.OtherEarnings {
		particulars = append(particulars, it.Particulars)
	}
	assert.Equal(t, []string{"Advance", "Bonus"}, particulars)

	april, err := f.recurring.ListApplicable(context.Background(), "EMP-001",
		timeparse.Date(2025, time.April, 1), timeparse.Date(2025, time.April, 30), "")
	require.NoError(t, err)
	assert.Len(t, april, 1)
}

func TestLineItems(t *testing.T) {
	b := payroll.SalaryBreakdown{
		Categories: map[payroll.Category]payroll.CategoryTotal{
			payroll.CategorySunday:  {Days: 1, Amount: dec("1000")},
			payroll.CategoryFullDay: {Days: 20, Amount: dec("20000")},
			payroll.CategoryLate:    {Days: 2, Amount: dec("1800")},
			payroll.CategoryHalf:    {Days: 0, Amount: decimal.Zero},
		},
		Encashment: dec("5000"),
		Overtime:   decimal.Zero,
		HolidayPay: dec("2000"),
	}
	items := LineItems(b)
	require.Len(t, items, 5)

	assert.Equal(t, "Full Day", items[0].Particulars)
	assert.Equal(t, 100, items[0].Rate)
	assert.Equal(t, "Lates", items[1].Particulars)
	assert.Equal(t, 90, items[1].Rate)
	assert.Equal(t, "Sunday Workings", items[2].Particulars)
	assert.Equal(t, 3, items[2].Position)

	assert.Equal(t, payroll.LineOtherEarnings, items[3].Kind)
	assert.Equal(t, "Leave Encashment", items[3].Particulars)
	assert.Equal(t, 1, items[3].Position)
	assert.Equal(t, "Holidays", items[4].Particulars)
}

func TestEmailPayslip(t *testing.T) {
	f := newFixture(t, config.DefaultPayrollRules())
	f.punch(t, "EMP-001", 3, 9, 0, 18, 0)
	summary, err := f.svc.GenerateBatch(context.Background(), payroll.GenerateRequest{EmployeeIDs: []string{"EMP-001"}, Year: 2025, Month: 3}, nil)
	require.NoError(t, err)
	id := summary.Results[0].PayslipID

	require.NoError(t, f.svc.EmailPayslip(context.Background(), id))
	require.Equal(t, 1, f.mail.count())
	sent := f.mail.sent[0]
	assert.Equal(t, "asha@example.com", sent.To)
	assert.Equal(t, "March", sent.MonthName)
	assert.NotEmpty(t, sent.PDF)

	stored, err := f.payslips.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, stored.PDFKey)
	assert.NotNil(t, stored.EmailedAt)

	doc, err := f.svc.PayslipPDF(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(doc[:4]))
}

func TestEmailPayslip_NoAddress(t *testing.T) {
	f := newFixture(t, config.DefaultPayrollRules())
	emp := asha()
	emp.PersonalEmail = nil
	f.employees.Put(emp)
	f.punch(t, "EMP-001", 3, 9, 0, 18, 0)
	summary, err := f.svc.GenerateBatch(context.Background(), payroll.GenerateRequest{EmployeeIDs: []string{"EMP-001"}, Year: 2025, Month: 3}, nil)
	require.NoError(t, err)

	err = f.svc.EmailPayslip(context.Background(), summary.Results[0].PayslipID)
	assert.ErrorIs(t, err, payroll.ErrNoEmailAddress)
	assert.Contains(t, err.Error(), "EMP-001")
	assert.Equal(t, 0, f.mail.count())
}

func TestStartRun(t *testing.T) {
	f := newFixture(t, config.DefaultPayrollRules())
	f.punch(t, "EMP-001", 3, 9, 0, 18, 0)
	ctx, cancel := context.WithCancel(context.Background())
	f.runner.Start(ctx)
	t.Cleanup(func() {
		cancel()
		f.runner.Wait()
	})

	resp, err := f.svc.StartRun(context.Background(), payroll.GenerateRequest{CompanyID: "ACME", Year: 2025, Month: 3, SendEmail: true})
	require.NoError(t, err)
	require.NotEmpty(t, resp.JobID)

	assert.Eventually(t, func() bool {
		run, err := f.runs.GetByID(context.Background(), resp.JobID)
		return err == nil && run.Status == job.StatusCompleted
	}, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool { return f.mail.count() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, f.payslips.Count())

	_, err = f.svc.StartRun(context.Background(), payroll.GenerateRequest{Year: 2025, Month: 3})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}
