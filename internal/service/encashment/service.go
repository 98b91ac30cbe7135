package encashment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pinnacle-hris/payroll-engine/internal/domain/employee"
	"github.com/pinnacle-hris/payroll-engine/internal/domain/salary"
	"github.com/pinnacle-hris/payroll-engine/internal/pkg/timeparse"
	"github.com/pinnacle-hris/payroll-engine/internal/pkg/validator"
)

type EncashmentServiceImpl struct {
	employees   employee.EmployeeRepository
	history     salary.HistoryRepository
	encashments salary.EncashmentRepository
}

func NewEncashmentService(employees employee.EmployeeRepository, history salary.HistoryRepository, encashments salary.EncashmentRepository) salary.EncashmentService {
	return &EncashmentServiceImpl{employees: employees, history: history, encashments: encashments}
}

// candidate is an eligible employee with their most recent encashment.
type candidate struct {
	emp  employee.Employee
	last *salary.LeaveEncashment
}

// Eligible implements salary.EncashmentService.
func (s *EncashmentServiceImpl) Eligible(ctx context.Context, year, month int) ([]salary.EligibleEmployee, error) {
	if !validator.IsValidPeriod(year, month) {
		return nil, salary.ErrInvalidPeriod
	}
	candidates, err := s.candidates(ctx, year, month)
	if err != nil {
		return nil, err
	}
	out := make([]salary.EligibleEmployee, 0, len(candidates))
	for _, c := range candidates {
		e := salary.EligibleEmployee{
			EmployeeID:    c.emp.ID,
			EmployeeName:  c.emp.FullName,
			DateOfJoining: c.emp.DateOfJoining.Format("2006-01-02"),
		}
		if c.last != nil {
			last := c.last.EncashmentDate.Format("2006-01-02")
			next := c.last.NextEncashmentDate.Format("2006-01-02")
			e.LastEncashmentDate, e.NextEncashmentDate = &last, &next
		}
		out = append(out, e)
	}
	return out, nil
}

// candidates returns active employees with at least a year of service at the end of the
// month whose next encashment, if they had one before, falls in that month. An employee
// already encashed in the month is not a candidate again.
func (s *EncashmentServiceImpl) candidates(ctx context.Context, year, month int) ([]candidate, error) {
	employees, err := s.employees.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	_, monthEnd := timeparse.MonthRange(year, time.Month(month))

	var out []candidate
	for _, emp := range employees {
		if emp.DateOfJoining == nil || emp.DateOfJoining.AddDate(1, 0, 0).After(monthEnd) {
			continue
		}
		last, err := s.encashments.Latest(ctx, emp.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to get last encashment: %w", err)
		}
		if last != nil {
			if inMonth(last.EncashmentDate, year, month) || !inMonth(last.NextEncashmentDate, year, month) {
				continue
			}
		}
		out = append(out, candidate{emp: emp, last: last})
	}
	return out, nil
}

// Generate implements salary.EncashmentService.
func (s *EncashmentServiceImpl) Generate(ctx context.Context, req salary.GenerateEncashmentRequest) (salary.GenerateEncashmentResponse, error) {
	if err := req.Validate(); err != nil {
		return salary.GenerateEncashmentResponse{}, err
	}
	var ov overrides
	for _, o := range []struct {
		value *string
		dst   **time.Time
	}{
		{req.FromDate, &ov.from},
		{req.ToDate, &ov.to},
		{req.NextEncashmentDate, &ov.next},
	} {
		if o.value == nil {
			continue
		}
		d, err := timeparse.ParseDate(*o.value)
		if err != nil {
			return salary.GenerateEncashmentResponse{}, err
		}
		*o.dst = &d
	}

	candidates, err := s.candidates(ctx, req.Year, req.Month)
	if err != nil {
		return salary.GenerateEncashmentResponse{}, err
	}
	byID := make(map[string]candidate, len(candidates))
	for _, c := range candidates {
		byID[c.emp.ID] = c
	}

	selected := candidates
	resp := salary.GenerateEncashmentResponse{Created: []salary.EncashmentResponse{}, Skipped: []string{}}
	if len(req.EmployeeIDs) > 0 {
		selected = selected[:0:0]
		for _, id := range req.EmployeeIDs {
			c, ok := byID[id]
			if !ok {
				resp.Skipped = append(resp.Skipped, fmt.Sprintf("%s: not eligible for leave encashment", id))
				continue
			}
			selected = append(selected, c)
		}
	}

	_, monthEnd := timeparse.MonthRange(req.Year, time.Month(req.Month))
	for _, c := range selected {
		e, err := s.build(ctx, c, ov, monthEnd)
		if err == nil {
			e, err = s.encashments.Create(ctx, e)
		}
		if err != nil {
			slog.Warn("leave encashment skipped", "employee_id", c.emp.ID, "error", err)
			resp.Skipped = append(resp.Skipped, fmt.Sprintf("%s: %v", c.emp.ID, err))
			continue
		}
		resp.Created = append(resp.Created, salary.ToEncashmentResponse(e))
	}

	slog.Info("leave encashments generated",
		"year", req.Year,
		"month", req.Month,
		"created", len(resp.Created),
		"skipped", len(resp.Skipped),
	)
	return resp, nil
}

// overrides are the optional request dates replacing the computed ones.
type overrides struct {
	from, to, next *time.Time
}

// build prices one encashment: paid leaves accrue monthly from the start date to the end
// of the month and are valued at the average daily salary of the year ending there.
// The next encashment falls at the end of the fiscal year after monthEnd.
func (s *EncashmentServiceImpl) build(ctx context.Context, c candidate, ov overrides, monthEnd time.Time) (salary.LeaveEncashment, error) {
	var from time.Time
	switch {
	case ov.from != nil:
		from = *ov.from
	case c.last != nil:
		from = c.last.EncashmentDate
	case c.emp.DateOfJoining != nil:
		from = *c.emp.DateOfJoining
	default:
		return salary.LeaveEncashment{}, fmt.Errorf("%w: %s", employee.ErrJoiningDateNotSet, c.emp.ID)
	}
	from = timeparse.DateOf(from)
	to := monthEnd
	if ov.to != nil {
		to = *ov.to
		if to.After(monthEnd) {
			return salary.LeaveEncashment{}, fmt.Errorf("%w: to date %s is after %s", salary.ErrInvalidPeriod, to.Format("2006-01-02"), monthEnd.Format("2006-01-02"))
		}
	}
	if from.After(to) {
		return salary.LeaveEncashment{}, fmt.Errorf("%w: from date %s is after %s", salary.ErrInvalidPeriod, from.Format("2006-01-02"), to.Format("2006-01-02"))
	}

	entries, err := s.history.ListByEmployee(ctx, c.emp.ID)
	if err != nil {
		return salary.LeaveEncashment{}, fmt.Errorf("failed to list salary history: %w", err)
	}
	avg, ok := salary.History(entries).AverageDaily(to.AddDate(-1, 0, 1), to)
	if !ok {
		return salary.LeaveEncashment{}, fmt.Errorf("%w: %s", salary.ErrSalaryHistoryNotFound, c.emp.ID)
	}

	months := accrualMonths(from, to)
	amount := decimal.NewFromFloat(c.emp.PaidLeaves).
		Div(decimal.NewFromInt(12)).
		Mul(decimal.NewFromInt(int64(months))).
		Mul(avg).
		Round(2)
	_, next := timeparse.FiscalYear(monthEnd)
	if !next.After(monthEnd) {
		next = next.AddDate(1, 0, 0)
	}
	if ov.next != nil {
		next = *ov.next
		if !next.After(monthEnd) {
			return salary.LeaveEncashment{}, fmt.Errorf("%w: next encashment date %s is not after %s", salary.ErrInvalidPeriod, next.Format("2006-01-02"), monthEnd.Format("2006-01-02"))
		}
	}

	return salary.LeaveEncashment{
		ID:                 uuid.NewString(),
		EmployeeID:         c.emp.ID,
		FromDate:           from,
		ToDate:             to,
		EncashmentDate:     monthEnd,
		NextEncashmentDate: next,
		Amount:             amount,
		Status:             salary.EncashmentUnpaid,
	}, nil
}

func inMonth(d time.Time, year, month int) bool {
	return d.Year() == year && int(d.Month()) == month
}

// accrualMonths counts whole months from from to to, plus the month in progress.
func accrualMonths(from, to time.Time) int {
	months := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	if to.Day() < from.Day() {
		months--
	}
	return months + 1
}

// ListDue implements salary.EncashmentService.
func (s *EncashmentServiceImpl) ListDue(ctx context.Context, year, month int) ([]salary.EncashmentResponse, error) {
	if !validator.IsValidPeriod(year, month) {
		return nil, salary.ErrInvalidPeriod
	}
	from, to := timeparse.MonthRange(year, time.Month(month))
	due, err := s.encashments.ListNextDue(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list due encashments: %w", err)
	}
	out := make([]salary.EncashmentResponse, 0, len(due))
	for _, e := range due {
		out = append(out, salary.ToEncashmentResponse(e))
	}
	return out, nil
}
