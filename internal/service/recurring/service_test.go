package recurring

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pinnacle-hris/payroll-engine/internal/domain/employee"
	"github.com/pinnacle-hris/payroll-engine/internal/domain/salary"
	"github.com/pinnacle-hris/payroll-engine/internal/pkg/apperror"
	"github.com/pinnacle-hris/payroll-engine/internal/pkg/timeparse"
	"github.com/pinnacle-hris/payroll-engine/internal/repository/memory"
)

func newService() (salary.RecurringService, *memory.RecurringRepository) {
	repo := memory.NewRecurringRepository()
	employees := memory.NewEmployeeRepository(employee.Employee{ID: "EMP-001", Status: employee.StatusActive})
	return NewRecurringService(memory.NewTransactor(), employees, repo), repo
}

func TestSchedule(t *testing.T) {
	svc, repo := newService()

	resp, err := svc.Schedule(context.Background(), salary.ScheduleRequest{
		EmployeeID: "EMP-001",
		Rows: []salary.ScheduleRow{
			{Component: "Bonus", TotalAmount: decimal.NewFromInt(1000), Months: 3, StartDate: "2025-01-15"},
			{Component: "Broken", TotalAmount: decimal.NewFromInt(1000), Months: 0, StartDate: "2025-01-15"},
			{Component: "Advance", Kind: salary.KindDeduction, TotalAmount: decimal.NewFromInt(600), Months: 2, StartDate: "2025-02-01"},
			{Component: "", TotalAmount: decimal.NewFromInt(10), Months: 1, StartDate: "2025-02-01"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, resp.SkippedRows)
	require.Len(t, resp.Scheduled, 5)

	bonus := resp.Scheduled[:3]
	assert.Equal(t, []string{"2025-01-31", "2025-02-28", "2025-03-31"}, []string{bonus[0].DueDate, bonus[1].DueDate, bonus[2].DueDate})
	assert.True(t, decimal.RequireFromString("333.33").Equal(bonus[0].Amount))
	assert.True(t, decimal.RequireFromString("333.34").Equal(bonus[2].Amount))
	assert.Equal(t, salary.KindEarning, bonus[0].Kind)
	assert.Equal(t, salary.ComponentPending, bonus[0].Status)

	sum := decimal.Zero
	for _, c := range bonus {
		sum = sum.Add(c.Amount)
	}
	assert.True(t, decimal.NewFromInt(1000).Equal(sum))

	march, err := repo.ListApplicable(context.Background(), "EMP-001",
		timeparse.Date(2025, time.March, 1), timeparse.Date(2025, time.March, 31), "")
	require.NoError(t, err)
	require.Len(t, march, 2)
	assert.Equal(t, "Advance", march[0].Component)
	assert.Equal(t, salary.KindDeduction, march[0].Kind)
	assert.True(t, decimal.NewFromInt(300).Equal(march[0].Amount))
}

func TestSchedule_Errors(t *testing.T) {
	svc, _ := newService()

	_, err := svc.Schedule(context.Background(), salary.ScheduleRequest{
		EmployeeID: "EMP-404",
		Rows:       []salary.ScheduleRow{{Component: "Bonus", TotalAmount: decimal.NewFromInt(100), Months: 1, StartDate: "2025-01-01"}},
	})
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)

	_, err = svc.Schedule(context.Background(), salary.ScheduleRequest{
		EmployeeID: "EMP-001",
		Rows:       []salary.ScheduleRow{{Component: "Bonus", TotalAmount: decimal.NewFromInt(100), Months: 1, StartDate: "someday"}},
	})
	assert.ErrorIs(t, err, salary.ErrNoScheduleRows)

	_, err = svc.Schedule(context.Background(), salary.ScheduleRequest{
		EmployeeID: "EMP-001",
		Rows:       []salary.ScheduleRow{{Component: "Bonus", Kind: "gift", TotalAmount: decimal.NewFromInt(100), Months: 1, StartDate: "2025-01-01"}},
	})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = svc.Schedule(context.Background(), salary.ScheduleRequest{EmployeeID: "EMP-001"})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}
