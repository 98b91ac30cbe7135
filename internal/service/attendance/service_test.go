package attendance

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pinnacle-hris/payroll-engine/internal/config"
	"github.com/pinnacle-hris/payroll-engine/internal/domain/attendance"
	"github.com/pinnacle-hris/payroll-engine/internal/domain/employee"
	"github.com/pinnacle-hris/payroll-engine/internal/domain/job"
	"github.com/pinnacle-hris/payroll-engine/internal/pkg/apperror"
	"github.com/pinnacle-hris/payroll-engine/internal/pkg/jobs"
	"github.com/pinnacle-hris/payroll-engine/internal/pkg/spreadsheet"
	"github.com/pinnacle-hris/payroll-engine/internal/pkg/timeparse"
	"github.com/pinnacle-hris/payroll-engine/internal/repository/memory"
	"github.com/pinnacle-hris/payroll-engine/internal/service/extractor"
	"github.com/pinnacle-hris/payroll-engine/internal/service/reconcile"
)

type fixture struct {
	records  *memory.AttendanceRepository
	checkins *memory.CheckinRepository
	runs     *memory.JobRunRepository
	runner   *jobs.Runner
	svc      *AttendanceServiceImpl
}

func newFixture(t *testing.T, rules config.PayrollRules) *fixture {
	t.Helper()
	f := &fixture{
		records:  memory.NewAttendanceRepository(),
		checkins: memory.NewCheckinRepository(),
		runs:     memory.NewJobRunRepository(),
	}
	employees := memory.NewEmployeeRepository(
		employee.Employee{ID: "EMP-001", CompanyID: "ACME", DefaultShift: "Night", Status: employee.StatusActive},
		employee.Employee{ID: "EMP-002", CompanyID: "ACME", DefaultShift: "Regular", Status: employee.StatusActive},
	)
	app := extractor.NewMobileApp(f.checkins)
	f.runner = jobs.NewRunner(f.runs, 8)
	f.svc = NewAttendanceService(
		memory.NewTransactor(),
		f.records,
		f.checkins,
		employees,
		extractor.NewDefaultRegistry(rules.DeviceBName),
		app,
		reconcile.NewReconciler(reconcile.NewAllotmentResolver(memory.NewAllotmentRepository(), employees), app),
		f.runner,
		rules,
	).(*AttendanceServiceImpl)
	return f
}

func genericFile(t *testing.T, rows [][]any) attendance.ImportFile {
	t.Helper()
	w, err := spreadsheet.NewWriter("Sheet1", []string{"Employee", "Employee Name", "Attendance Date", "In Time", "Out Time"})
	require.NoError(t, err)
	for _, r := range rows {
		require.NoError(t, w.AppendRow(r))
	}
	data, err := w.Bytes()
	require.NoError(t, err)
	return attendance.ImportFile{Format: attendance.FormatGeneric, Name: "other.xlsx", Data: data}
}

func (f *fixture) submitted(t *testing.T, employeeID string, day int, in, out timeparse.Clock) attendance.AttendanceRecord {
	t.Helper()
	rec, err := f.records.Create(context.Background(), attendance.AttendanceRecord{
		EmployeeID: employeeID,
		Date:       timeparse.Date(2025, time.March, day),
		In:         &in,
		Out:        &out,
		ShiftID:    "Regular",
		Status:     attendance.StatusPresent,
		DocStatus:  attendance.DocSubmitted,
	})
	require.NoError(t, err)
	return rec
}

func clock(h, m int) timeparse.Clock { return timeparse.NewClock(h, m, 0) }

func TestPreview(t *testing.T) {
	f := newFixture(t, config.DefaultPayrollRules())
	_, err := f.checkins.Create(context.Background(), attendance.Checkin{
		EmployeeID: "EMP-002", Time: clock(19, 0).On(timeparse.Date(2025, time.March, 4)), LogType: attendance.LogOut,
	})
	require.NoError(t, err)

	file := genericFile(t, [][]any{
		{"EMP-001", "Asha Rao", "2025-03-03", "09:00", "18:00"},
		{"EMP-001", "Asha Rao", "2025-03-03", "09:00", "18:00"},
		{"EMP-002", "Ravi Kumar", "2025-03-04", "10:00", "10:00"},
		{"EMP-002", "", "2025-03-05", "10:00", "18:00"},
		{"EMP-001", "Asha Rao", "2025-04-01", "09:00", "18:00"},
	})
	broken := attendance.ImportFile{Format: attendance.FormatDeviceGrid, Name: "device.xlsx", Data: []byte("not a workbook")}

	resp, err := f.svc.Preview(context.Background(), attendance.ImportRequest{
		Files:    []attendance.ImportFile{file, broken},
		FromDate: timeparse.Date(2025, time.March, 1),
		ToDate:   timeparse.Date(2025, time.March, 31),
	})
	require.NoError(t, err)

	require.Len(t, resp.Records, 2)
	assert.Equal(t, attendance.RecordRow{
		EmployeeID: "EMP-001", Date: "2025-03-03", InTime: "09:00:00", OutTime: "18:00:00", Shift: "Regular",
		LogInSource: attendance.SourceOther, LogOutSource: attendance.SourceOther,
	}, resp.Records[0])
	assert.Equal(t, "10:00:00", resp.Records[1].InTime)
	assert.Equal(t, "19:00:00", resp.Records[1].OutTime)
	assert.Equal(t, attendance.SourceMobileApp, resp.Records[1].LogOutSource)

	require.Len(t, resp.Report.Files, 2)
	assert.Equal(t, 2, resp.Report.Files[0].Rows)
	assert.Equal(t, 2, resp.Report.Files[0].Skipped)
	assert.NotEmpty(t, resp.Report.Files[1].Error)
	assert.Equal(t, 1, resp.Report.Degenerate)
	assert.Equal(t, 1, resp.Report.Supplemented)
	assert.Equal(t, 2, resp.Report.Records)
}

func TestPreview_AppOnly(t *testing.T) {
	f := newFixture(t, config.DefaultPayrollRules())
	day := timeparse.Date(2025, time.March, 10)
	for _, c := range []attendance.Checkin{
		{EmployeeID: "EMP-002", Time: clock(9, 2).On(day), LogType: attendance.LogIn},
		{EmployeeID: "EMP-002", Time: clock(18, 5).On(day), LogType: attendance.LogOut},
	} {
		_, err := f.checkins.Create(context.Background(), c)
		require.NoError(t, err)
	}

	resp, err := f.svc.Preview(context.Background(), attendance.ImportRequest{
		FromDate:   timeparse.Date(2025, time.March, 1),
		ToDate:     timeparse.Date(2025, time.March, 31),
		IncludeApp: true,
		Policy:     attendance.PolicyDirection,
	})
	require.NoError(t, err)
	require.Len(t, resp.Records, 1)
	assert.Equal(t, "09:02:00", resp.Records[0].InTime)
	assert.Equal(t, "18:05:00", resp.Records[0].OutTime)
	assert.Equal(t, attendance.FormatMobileApp, resp.Report.Files[0].Format)
}

func TestPreview_NoInput(t *testing.T) {
	f := newFixture(t, config.DefaultPayrollRules())
	_, err := f.svc.Preview(context.Background(), attendance.ImportRequest{
		FromDate: timeparse.Date(2025, time.March, 1),
		ToDate:   timeparse.Date(2025, time.March, 31),
	})
	assert.ErrorIs(t, err, attendance.ErrNoInputFiles)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = f.svc.Preview(context.Background(), attendance.ImportRequest{IncludeApp: true})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestFillShifts(t *testing.T) {
	f := newFixture(t, config.DefaultPayrollRules())
	records, err := f.svc.fillShifts(context.Background(), []attendance.AttendanceRecord{
		{EmployeeID: "EMP-001"},
		{EmployeeID: "EMP-002", ShiftID: "Night"},
		{EmployeeID: "EMP-404"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Night", records[0].ShiftID)
	assert.Equal(t, "Night", records[1].ShiftID)
	assert.Equal(t, "", records[2].ShiftID)
}

func TestValidate(t *testing.T) {
	f := newFixture(t, config.DefaultPayrollRules())
	resp, err := f.svc.Validate(context.Background(), attendance.RecordsRequest{Records: []attendance.RecordRow{
		{EmployeeID: "EMP-001", Date: "2025-03-03", InTime: "09:00:00", OutTime: "18:00:00"},
		{EmployeeID: "EMP-001", Date: "2025-03-04", InTime: "09:00:00"},
		{EmployeeID: "EMP-001", Date: "2025-03-05", InTime: "09:00:00", OutTime: "09:00:00"},
		{EmployeeID: "EMP-001", Date: "2025-03-06", InTime: "18:00:00", OutTime: "09:00:00"},
		{EmployeeID: "EMP-001", Date: "2025-03-03", InTime: "09:30:00", OutTime: "18:00:00"},
	}})
	require.NoError(t, err)

	require.Len(t, resp.Valid, 1)
	assert.Equal(t, "2025-03-03", resp.Valid[0].Date)

	reasons := make([]string, 0, len(resp.Rejected))
	for _, r := range resp.Rejected {
		reasons = append(reasons, r.Reason)
	}
	assert.Equal(t, []string{
		attendance.ErrMissingPunch.Error(),
		attendance.ErrSamePunch.Error(),
		attendance.ErrInAfterOut.Error(),
		attendance.ErrDuplicateDate.Error(),
	}, reasons)

	_, err = f.svc.Validate(context.Background(), attendance.RecordsRequest{Records: []attendance.RecordRow{{Date: "03/03/2025"}}})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestCommit(t *testing.T) {
	f := newFixture(t, config.DefaultPayrollRules())
	ctx, cancel := context.WithCancel(context.Background())
	f.runner.Start(ctx)
	t.Cleanup(func() {
		cancel()
		f.runner.Wait()
	})
	f.submitted(t, "EMP-002", 3, clock(9, 0), clock(18, 0))

	resp, err := f.svc.Commit(context.Background(), attendance.RecordsRequest{Records: []attendance.RecordRow{
		{EmployeeID: "EMP-001", Date: "2025-03-03", InTime: "09:00:00", OutTime: "18:00:00", Shift: "Regular"},
		{EmployeeID: "EMP-002", Date: "2025-03-03", InTime: "09:15:00", OutTime: "18:00:00", Shift: "Regular"},
		{EmployeeID: "EMP-002", Date: "2025-03-04", InTime: "09:15:00"},
	}})
	require.NoError(t, err)

	var run job.JobRun
	require.Eventually(t, func() bool {
		run, err = f.runs.GetByID(context.Background(), resp.JobID)
		return err == nil && run.Status == job.StatusCompleted
	}, 2*time.Second, 10*time.Millisecond)

	var result attendance.CommitResult
	require.NoError(t, json.Unmarshal(run.Details, &result))
	assert.Equal(t, 1, result.Inserted)
	assert.Equal(t, 1, result.Existing)
	assert.Empty(t, result.Failed)

	rec, err := f.records.GetActive(context.Background(), "EMP-001", timeparse.Date(2025, time.March, 3))
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, attendance.DocSubmitted, rec.DocStatus)

	existing, err := f.records.GetActive(context.Background(), "EMP-002", timeparse.Date(2025, time.March, 3))
	require.NoError(t, err)
	assert.Equal(t, "09:00:00", existing.In.String())
}

func TestCommit_NothingValid(t *testing.T) {
	f := newFixture(t, config.DefaultPayrollRules())
	_, err := f.svc.Commit(context.Background(), attendance.RecordsRequest{Records: []attendance.RecordRow{
		{EmployeeID: "EMP-001", Date: "2025-03-03", InTime: "09:00:00"},
	}})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestExport(t *testing.T) {
	f := newFixture(t, config.DefaultPayrollRules())
	data, err := f.svc.Export(context.Background(), attendance.RecordsRequest{Records: []attendance.RecordRow{
		{EmployeeID: "EMP-001", Date: "2025-03-03", InTime: "09:00:00", OutTime: "18:00:00", Shift: "Regular", LogInSource: attendance.SourceDeviceA},
	}})
	require.NoError(t, err)

	wb, err := spreadsheet.Open(data, "export.xlsx")
	require.NoError(t, err)
	assert.True(t, wb.HasSheet("Final Attendance"))
	rows := wb.FirstRows()
	require.Len(t, rows, 2)
	assert.Equal(t, "Attendance Date", spreadsheet.Cell(rows, 0, 1))
	assert.Equal(t, "EMP-001", spreadsheet.Cell(rows, 1, 0))
	assert.Equal(t, "device_a", spreadsheet.Cell(rows, 1, 5))
}

func TestCorrect(t *testing.T) {
	f := newFixture(t, config.DefaultPayrollRules())
	rec := f.submitted(t, "EMP-001", 3, clock(9, 0), clock(17, 0))

	row, err := f.svc.Correct(context.Background(), attendance.CorrectionRequest{
		AttendanceID: rec.ID, Field: "out", Time: "18:30", Reason: "forgot to punch out", RequestedBy: "hr@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "09:00:00", row.InTime)
	assert.Equal(t, "18:30:00", row.OutTime)
	assert.Equal(t, attendance.SourceManual, row.LogOutSource)

	old, err := f.records.GetByID(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, attendance.DocCancelled, old.DocStatus)
	require.NotNil(t, old.Note)
	assert.Contains(t, *old.Note, "forgot to punch out")

	active, err := f.records.GetActive(context.Background(), "EMP-001", rec.Date)
	require.NoError(t, err)
	require.NotNil(t, active.AmendedFrom)
	assert.Equal(t, rec.ID, *active.AmendedFrom)

	_, err = f.svc.Correct(context.Background(), attendance.CorrectionRequest{
		AttendanceID: rec.ID, Field: "in", Time: "09:00", Reason: "again",
	})
	assert.ErrorIs(t, err, attendance.ErrRecordNotSubmitted)
}

func TestCorrect_Limit(t *testing.T) {
	rules := config.DefaultPayrollRules()
	rules.CorrectionLimit = 1
	f := newFixture(t, rules)
	first := f.submitted(t, "EMP-001", 3, clock(9, 20), clock(18, 0))
	second := f.submitted(t, "EMP-001", 4, clock(9, 20), clock(18, 0))

	_, err := f.svc.Correct(context.Background(), attendance.CorrectionRequest{
		AttendanceID: first.ID, Field: "in", Time: "09:00", Reason: "device fault",
	})
	require.NoError(t, err)

	_, err = f.svc.Correct(context.Background(), attendance.CorrectionRequest{
		AttendanceID: second.ID, Field: "in", Time: "09:00", Reason: "device fault",
	})
	assert.ErrorIs(t, err, attendance.ErrCorrectionLimitReached)
	assert.ErrorIs(t, err, apperror.ErrStateConflict)

	_, err = f.svc.Correct(context.Background(), attendance.CorrectionRequest{
		AttendanceID: second.ID, Field: "in", Time: "09:00", Reason: "device fault", IsAdmin: true,
	})
	assert.NoError(t, err)
}

func TestCorrect_InAfterOut(t *testing.T) {
	f := newFixture(t, config.DefaultPayrollRules())
	rec := f.submitted(t, "EMP-001", 3, clock(9, 0), clock(18, 0))

	_, err := f.svc.Correct(context.Background(), attendance.CorrectionRequest{
		AttendanceID: rec.ID, Field: "in", Time: "19:00", Reason: "typo",
	})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	still, err := f.records.GetByID(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, attendance.DocSubmitted, still.DocStatus)
}

func TestApproveSelfAttendance(t *testing.T) {
	f := newFixture(t, config.DefaultPayrollRules())
	resp, err := f.svc.ApproveSelfAttendance(context.Background(), attendance.SelfAttendanceRequest{
		EmployeeID: "EMP-002", Date: "2025-03-10", InTime: "09:00", OutTime: "18:00",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.InCheckinID)
	assert.NotEmpty(t, resp.OutCheckinID)

	day := timeparse.Date(2025, time.March, 10)
	checkins, err := f.checkins.ListBetween(context.Background(), []string{"EMP-002"}, day, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, checkins, 2)
	assert.Equal(t, attendance.LogIn, checkins[0].LogType)
	assert.Equal(t, "Regular", checkins[0].ShiftID)
	assert.Equal(t, clock(18, 0).On(day), checkins[1].Time)

	f.submitted(t, "EMP-001", 11, clock(9, 0), clock(18, 0))
	_, err = f.svc.ApproveSelfAttendance(context.Background(), attendance.SelfAttendanceRequest{
		EmployeeID: "EMP-001", Date: "2025-03-11", InTime: "09:00", OutTime: "18:00",
	})
	assert.ErrorIs(t, err, attendance.ErrAttendanceExists)

	_, err = f.svc.ApproveSelfAttendance(context.Background(), attendance.SelfAttendanceRequest{
		EmployeeID: "EMP-404", Date: "2025-03-11", InTime: "09:00", OutTime: "18:00",
	})
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
}
