package encashment

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

func joined(year int, month time.Month, day int) *time.Time {
	d := timeparse.Date(year, month, day)
	return &d
}

func newService(t *testing.T) (salary.EncashmentService, *memory.EncashmentRepository) {
	t.Helper()
	employees := memory.NewEmployeeRepository(
		employee.Employee{ID: "EMP-001", FullName: "Asha Rao", DateOfJoining: joined(2023, time.June, 10), PaidLeaves: 12, Status: employee.StatusActive},
		employee.Employee{ID: "EMP-002", FullName: "New Joiner", DateOfJoining: joined(2024, time.June, 1), PaidLeaves: 12, Status: employee.StatusActive},
		employee.Employee{ID: "EMP-003", FullName: "Paid In June", DateOfJoining: joined(2020, time.January, 1), PaidLeaves: 12, Status: employee.StatusActive},
		employee.Employee{ID: "EMP-004", FullName: "No Salary", DateOfJoining: joined(2020, time.January, 1), PaidLeaves: 12, Status: employee.StatusActive},
		employee.Employee{ID: "EMP-005", FullName: "Former", DateOfJoining: joined(2020, time.January, 1), PaidLeaves: 12, Status: employee.StatusLeft},
	)
	history := memory.NewHistoryRepository(salary.HistoryEntry{
		EmployeeID: "EMP-001",
		FromDate:   timeparse.Date(2023, time.June, 10),
		Amount:     decimal.NewFromInt(36500),
	})
	encashments := memory.NewEncashmentRepository()
	for _, e := range []salary.LeaveEncashment{
		{EmployeeID: "EMP-003", FromDate: timeparse.Date(2023, time.July, 1), ToDate: timeparse.Date(2024, time.June, 30),
			EncashmentDate: timeparse.Date(2024, time.June, 30), NextEncashmentDate: timeparse.Date(2025, time.June, 30), Amount: decimal.NewFromInt(100)},
		{EmployeeID: "EMP-004", FromDate: timeparse.Date(2023, time.April, 1), ToDate: timeparse.Date(2024, time.March, 31),
			EncashmentDate: timeparse.Date(2024, time.March, 31), NextEncashmentDate: timeparse.Date(2025, time.March, 31), Amount: decimal.NewFromInt(100)},
	} {
		_, err := encashments.Create(context.Background(), e)
		require.NoError(t, err)
	}
	return NewEncashmentService(employees, history, encashments), encashments
}

func TestEligible(t *testing.T) {
	svc, _ := newService(t)

	got, err := svc.Eligible(context.Background(), 2025, 3)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "EMP-001", got[0].EmployeeID)
	assert.Nil(t, got[0].LastEncashmentDate)
	assert.Equal(t, "EMP-004", got[1].EmployeeID)
	require.NotNil(t, got[1].NextEncashmentDate)
	assert.Equal(t, "2025-03-31", *got[1].NextEncashmentDate)

	june, err := svc.Eligible(context.Background(), 2025, 6)
	require.NoError(t, err)
	ids := make([]string, 0, len(june))
	for _, e := range june {
		ids = append(ids, e.EmployeeID)
	}
	assert.Equal(t, []string{"EMP-001", "EMP-002", "EMP-003"}, ids)

	_, err = svc.Eligible(context.Background(), 2025, 0)
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestGenerate(t *testing.T) {
	svc, repo := newService(t)

	resp, err := svc.Generate(context.Background(), salary.GenerateEncashmentRequest{Year: 2025, Month: 3})
	require.NoError(t, err)

	require.Len(t, resp.Created, 1)
	got := resp.Created[0]
	assert.Equal(t, "EMP-001", got.EmployeeID)
	assert.Equal(t, "2023-06-10", got.FromDate)
	assert.Equal(t, "2025-03-31", got.ToDate)
	assert.Equal(t, "2026-03-31", got.NextEncashmentDate)
	// 22 months of 1 leave a month at an average of 1200 a day
	assert.True(t, decimal.NewFromInt(26400).Equal(got.Amount), "amount %s", got.Amount)
	assert.Equal(t, salary.EncashmentUnpaid, got.Status)

	require.Len(t, resp.Skipped, 1)
	assert.Contains(t, resp.Skipped[0], "EMP-004")
	assert.Contains(t, resp.Skipped[0], "salary history")

	latest, err := repo.Latest(context.Background(), "EMP-001")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, got.ID, latest.ID)

	again, err := svc.Generate(context.Background(), salary.GenerateEncashmentRequest{Year: 2025, Month: 3, EmployeeIDs: []string{"EMP-001", "EMP-002"}})
	require.NoError(t, err)
	assert.Empty(t, again.Created)
	assert.Equal(t, []string{
		"EMP-001: not eligible for leave encashment",
		"EMP-002: not eligible for leave encashment",
	}, again.Skipped)
}

func TestGenerate_FromDateOverride(t *testing.T) {
	svc, _ := newService(t)
	from := "2024-04-01"

	resp, err := svc.Generate(context.Background(), salary.GenerateEncashmentRequest{Year: 2025, Month: 3, FromDate: &from, EmployeeIDs: []string{"EMP-001"}})
	require.NoError(t, err)
	require.Len(t, resp.Created, 1)
	assert.Equal(t, "2024-04-01", resp.Created[0].FromDate)
	assert.True(t, decimal.NewFromInt(14400).Equal(resp.Created[0].Amount), "amount %s", resp.Created[0].Amount)

	bad := "01/04/2024"
	_, err = svc.Generate(context.Background(), salary.GenerateEncashmentRequest{Year: 2025, Month: 3, FromDate: &bad})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestGenerate_EligibleAgainNextMarch(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Generate(ctx, salary.GenerateEncashmentRequest{Year: 2025, Month: 3, EmployeeIDs: []string{"EMP-001"}})
	require.NoError(t, err)

	june, err := svc.Eligible(ctx, 2025, 6)
	require.NoError(t, err)
	for _, e := range june {
		assert.NotEqual(t, "EMP-001", e.EmployeeID)
	}

	march, err := svc.Eligible(ctx, 2026, 3)
	require.NoError(t, err)
	var found *salary.EligibleEmployee
	for i := range march {
		if march[i].EmployeeID == "EMP-001" {
			found = &march[i]
		}
	}
	require.NotNil(t, found, "EMP-001 should be due again in March 2026")
	require.NotNil(t, found.LastEncashmentDate)
	assert.Equal(t, "2025-03-31", *found.LastEncashmentDate)
	assert.Equal(t, "2026-03-31", *found.NextEncashmentDate)

	resp, err := svc.Generate(ctx, salary.GenerateEncashmentRequest{Year: 2026, Month: 3, EmployeeIDs: []string{"EMP-001"}})
	require.NoError(t, err)
	require.Len(t, resp.Created, 1)
	assert.Equal(t, "2025-03-31", resp.Created[0].FromDate)
	assert.Equal(t, "2027-03-31", resp.Created[0].NextEncashmentDate)
}

func TestGenerate_DateOverrides(t *testing.T) {
	svc, _ := newService(t)
	to := "2025-03-15"
	next := "2025-09-30"

	resp, err := svc.Generate(context.Background(), salary.GenerateEncashmentRequest{
		Year: 2025, Month: 3, ToDate: &to, NextEncashmentDate: &next, EmployeeIDs: []string{"EMP-001"},
	})
	require.NoError(t, err)
	require.Len(t, resp.Created, 1)
	got := resp.Created[0]
	assert.Equal(t, "2025-03-15", got.ToDate)
	assert.Equal(t, "2025-03-31", got.EncashmentDate)
	assert.Equal(t, "2025-09-30", got.NextEncashmentDate)

	svc, _ = newService(t)
	past := "2025-03-31"
	resp, err = svc.Generate(context.Background(), salary.GenerateEncashmentRequest{
		Year: 2025, Month: 3, NextEncashmentDate: &past, EmployeeIDs: []string{"EMP-001"},
	})
	require.NoError(t, err)
	assert.Empty(t, resp.Created)
	require.Len(t, resp.Skipped, 1)
	assert.Contains(t, resp.Skipped[0], "next encashment date")

	bad := "31-03-2025"
	_, err = svc.Generate(context.Background(), salary.GenerateEncashmentRequest{Year: 2025, Month: 3, ToDate: &bad})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestListDue(t *testing.T) {
	svc, _ := newService(t)
	due, err := svc.ListDue(context.Background(), 2025, 6)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "EMP-003", due[0].EmployeeID)
}

func TestAccrualMonths(t *testing.T) {
	tests := []struct {
		from, to time.Time
		want     int
	}{
		{timeparse.Date(2025, time.March, 1), timeparse.Date(2025, time.March, 31), 1},
		{timeparse.Date(2025, time.January, 15), timeparse.Date(2025, time.March, 31), 3},
		{timeparse.Date(2025, time.January, 31), timeparse.Date(2025, time.February, 28), 1},
		{timeparse.Date(2024, time.March, 31), timeparse.Date(2025, time.March, 31), 13},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, accrualMonths(tt.from, tt.to), "%s..%s", tt.from.Format("2006-01-02"), tt.to.Format("2006-01-02"))
	}
}
