package recurring

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pinnacle-hris/payroll-engine/internal/domain/employee"
	"github.com/pinnacle-hris/payroll-engine/internal/domain/salary"
	"github.com/pinnacle-hris/payroll-engine/internal/pkg/database"
	"github.com/pinnacle-hris/payroll-engine/internal/pkg/timeparse"
)

type RecurringServiceImpl struct {
	tx        database.Transactor
	employees employee.EmployeeRepository
	recurring salary.RecurringRepository
}

func NewRecurringService(tx database.Transactor, employees employee.EmployeeRepository, recurring salary.RecurringRepository) salary.RecurringService {
	return &RecurringServiceImpl{tx: tx, employees: employees, recurring: recurring}
}

// Schedule implements salary.RecurringService.
func (s *RecurringServiceImpl) Schedule(ctx context.Context, req salary.ScheduleRequest) (salary.ScheduleResponse, error) {
	if err := req.Validate(); err != nil {
		return salary.ScheduleResponse{}, err
	}
	emp, err := s.employees.GetByID(ctx, req.EmployeeID)
	if err != nil {
		return salary.ScheduleResponse{}, err
	}

	resp := salary.ScheduleResponse{Scheduled: []salary.ComponentResponse{}, SkippedRows: []int{}}
	var pending []salary.RecurringComponent
	for i, row := range req.Rows {
		installments, ok := split(emp.ID, row)
		if !ok {
			resp.SkippedRows = append(resp.SkippedRows, i)
			continue
		}
		pending = append(pending, installments...)
	}
	if len(pending) == 0 {
		return salary.ScheduleResponse{}, salary.ErrNoScheduleRows
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		for _, c := range pending {
			created, err := s.recurring.Create(ctx, c)
			if err != nil {
				return fmt.Errorf("failed to create recurring component: %w", err)
			}
			resp.Scheduled = append(resp.Scheduled, salary.ComponentResponse{
				ID:        created.ID,
				Component: created.Component,
				Kind:      created.Kind,
				Amount:    created.Amount,
				DueDate:   created.DueDate.Format("2006-01-02"),
				Status:    created.Status,
			})
		}
		return nil
	})
	if err != nil {
		return salary.ScheduleResponse{}, err
	}

	slog.Info("recurring components scheduled",
		"employee_id", emp.ID,
		"installments", len(resp.Scheduled),
		"skipped_rows", len(resp.SkippedRows),
	)
	return resp, nil
}

// split spreads a row's total over its months, each installment due at a month end.
// Rounding is settled on the last installment so the installments add up to the total.
func split(employeeID string, row salary.ScheduleRow) ([]salary.RecurringComponent, bool) {
	component := strings.TrimSpace(row.Component)
	if component == "" || row.Months <= 0 || !row.TotalAmount.IsPositive() || row.StartDate == "" {
		return nil, false
	}
	start, err := timeparse.ParseDate(row.StartDate)
	if err != nil {
		return nil, false
	}
	kind := row.Kind
	if kind == "" {
		kind = salary.KindEarning
	}

	months := decimal.NewFromInt(int64(row.Months))
	each := row.TotalAmount.Div(months).Round(2)
	last := row.TotalAmount.Sub(each.Mul(decimal.NewFromInt(int64(row.Months - 1))))

	first := timeparse.Date(start.Year(), start.Month(), 1)
	out := make([]salary.RecurringComponent, 0, row.Months)
	for i := 0; i < row.Months; i++ {
		m := first.AddDate(0, i, 0)
		_, due := timeparse.MonthRange(m.Year(), m.Month())
		amount := each
		if i == row.Months-1 {
			amount = last
		}
		out = append(out, salary.RecurringComponent{
			ID:         uuid.NewString(),
			EmployeeID: employeeID,
			Component:  component,
			Kind:       kind,
			Amount:     amount,
			DueDate:    due,
			Status:     salary.ComponentPending,
			CreatedAt:  time.Now().UTC(),
		})
	}
	return out, true
}
