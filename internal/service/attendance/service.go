package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pinnacle-hris/payroll-engine/internal/config"
	"github.com/pinnacle-hris/payroll-engine/internal/domain/attendance"
	"github.com/pinnacle-hris/payroll-engine/internal/domain/employee"
	"github.com/pinnacle-hris/payroll-engine/internal/domain/job"
	"github.com/pinnacle-hris/payroll-engine/internal/pkg/apperror"
	"github.com/pinnacle-hris/payroll-engine/internal/pkg/database"
	"github.com/pinnacle-hris/payroll-engine/internal/pkg/jobs"
	"github.com/pinnacle-hris/payroll-engine/internal/pkg/spreadsheet"
	"github.com/pinnacle-hris/payroll-engine/internal/pkg/timeparse"
	"github.com/pinnacle-hris/payroll-engine/internal/service/extractor"
	"github.com/pinnacle-hris/payroll-engine/internal/service/reconcile"
)

const exportSheet = "Final Attendance"

var exportHeaders = []string{"Employee", "Attendance Date", "In Time", "Out Time", "Shift", "Log In Source", "Log Out Source"}

type AttendanceServiceImpl struct {
	tx         database.Transactor
	records    attendance.AttendanceRepository
	checkins   attendance.CheckinRepository
	employees  employee.EmployeeRepository
	registry   *extractor.Registry
	app        *extractor.MobileApp
	reconciler *reconcile.Reconciler
	runner     *jobs.Runner
	rules      config.PayrollRules
}

func NewAttendanceService(
	tx database.Transactor,
	records attendance.AttendanceRepository,
	checkins attendance.CheckinRepository,
	employees employee.EmployeeRepository,
	registry *extractor.Registry,
	app *extractor.MobileApp,
	reconciler *reconcile.Reconciler,
	runner *jobs.Runner,
	rules config.PayrollRules,
) attendance.AttendanceService {
	return &AttendanceServiceImpl{
		tx:         tx,
		records:    records,
		checkins:   checkins,
		employees:  employees,
		registry:   registry,
		app:        app,
		reconciler: reconciler,
		runner:     runner,
		rules:      rules,
	}
}

// Preview implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) Preview(ctx context.Context, req attendance.ImportRequest) (attendance.PreviewResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.PreviewResponse{}, err
	}
	if len(req.Files) == 0 && !req.IncludeApp {
		return attendance.PreviewResponse{}, attendance.ErrNoInputFiles
	}

	from, to := timeparse.DateOf(req.FromDate), timeparse.DateOf(req.ToDate)
	var (
		rows   []attendance.RawRow
		report attendance.ImportReport
	)
	for _, f := range req.Files {
		fr := attendance.FileReport{Name: f.Name, Format: f.Format}
		res, err := s.registry.Extract(ctx, f.Format, extractor.File{Name: f.Name, Data: f.Data})
		if err != nil {
			// a broken file is reported and the other files still go through
			if ctx.Err() != nil {
				return attendance.PreviewResponse{}, ctx.Err()
			}
			fr.Error = err.Error()
			slog.Warn("attendance file rejected", "file", f.Name, "format", f.Format, "error", err)
			report.Files = append(report.Files, fr)
			continue
		}
		fr.Skipped, fr.Issues = res.Skipped, res.Issues
		for _, row := range res.Rows {
			if row.Date.Before(from) || row.Date.After(to) {
				fr.Skipped++
				fr.Issues = append(fr.Issues, attendance.Issue{Row: row.Row, Reason: "date outside import period"})
				continue
			}
			rows = append(rows, row)
			fr.Rows++
		}
		report.Files = append(report.Files, fr)
	}

	if req.IncludeApp {
		appRows, err := s.app.Collect(ctx, req.EmployeeIDs, from, to)
		if err != nil {
			return attendance.PreviewResponse{}, err
		}
		rows = append(rows, appRows...)
		report.Files = append(report.Files, attendance.FileReport{
			Name:   "mobile app",
			Format: attendance.FormatMobileApp,
			Rows:   len(appRows),
		})
	}

	policy := req.Policy
	if policy == "" {
		policy = attendance.PolicyClubbed
	}
	res, err := s.reconciler.Reconcile(ctx, rows, policy)
	if err != nil {
		return attendance.PreviewResponse{}, fmt.Errorf("failed to reconcile punches: %w", err)
	}
	for _, issue := range res.Issues {
		slog.Warn("punch dropped", "row", issue.Row, "reason", issue.Reason)
	}

	records, err := s.fillShifts(ctx, res.Records)
	if err != nil {
		return attendance.PreviewResponse{}, err
	}

	report.Dropped = res.Dropped
	report.Degenerate = res.Degenerate
	report.Supplemented = res.Supplemented
	report.Records = len(records)

	out := make([]attendance.RecordRow, 0, len(records))
	for _, r := range records {
		out = append(out, attendance.ToRecordRow(r))
	}
	return attendance.PreviewResponse{Records: out, Report: report}, nil
}

// fillShifts gives records without a shift the employee's default shift.
func (s *AttendanceServiceImpl) fillShifts(ctx context.Context, records []attendance.AttendanceRecord) ([]attendance.AttendanceRecord, error) {
	defaults := make(map[string]string)
	for i := range records {
		if records[i].ShiftID != "" {
			continue
		}
		id := records[i].EmployeeID
		shiftName, ok := defaults[id]
		if !ok {
			emp, err := s.employees.GetByID(ctx, id)
			switch {
			case errors.Is(err, employee.ErrEmployeeNotFound):
				slog.Warn("no employee for reconciled record", "employee_id", id)
			case err != nil:
				return nil, fmt.Errorf("failed to get employee: %w", err)
			default:
				shiftName = emp.DefaultShift
			}
			defaults[id] = shiftName
		}
		records[i].ShiftID = shiftName
	}
	return records, nil
}

// Validate implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) Validate(ctx context.Context, req attendance.RecordsRequest) (attendance.ValidateResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.ValidateResponse{}, err
	}
	return validateRows(req.Records), nil
}

// validateRows splits rows into those that can be committed and those that cannot.
func validateRows(rows []attendance.RecordRow) attendance.ValidateResponse {
	resp := attendance.ValidateResponse{
		Valid:    []attendance.RecordRow{},
		Rejected: []attendance.RejectedRow{},
	}
	seen := make(map[string]bool, len(rows))
	for _, row := range rows {
		rec, err := row.ToRecord()
		if err == nil {
			err = checkPunches(rec)
		}
		if err == nil {
			key := rec.EmployeeID + "|" + rec.Date.Format("2006-01-02")
			if seen[key] {
				err = attendance.ErrDuplicateDate
			}
			seen[key] = true
		}
		if err != nil {
			resp.Rejected = append(resp.Rejected, attendance.RejectedRow{RecordRow: row, Reason: err.Error()})
			continue
		}
		resp.Valid = append(resp.Valid, row)
	}
	return resp
}

func checkPunches(rec attendance.AttendanceRecord) error {
	switch {
	case !rec.HasBothPunches():
		return attendance.ErrMissingPunch
	case *rec.In == *rec.Out:
		return attendance.ErrSamePunch
	case rec.In.After(*rec.Out):
		return attendance.ErrInAfterOut
	}
	return nil
}

// Commit implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) Commit(ctx context.Context, req attendance.RecordsRequest) (attendance.CommitResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.CommitResponse{}, err
	}
	checked := validateRows(req.Records)
	if len(checked.Valid) == 0 {
		return attendance.CommitResponse{}, fmt.Errorf("%w: no valid attendance rows to commit", apperror.ErrValidation)
	}
	if n := len(checked.Rejected); n > 0 {
		slog.Warn("attendance rows rejected before commit", "rejected", n)
	}

	id, err := s.runner.Enqueue(ctx, job.TypeAttendanceImport, func(ctx context.Context, progress jobs.Progress) (any, error) {
		return s.insert(ctx, checked.Valid, progress)
	})
	if err != nil {
		return attendance.CommitResponse{}, err
	}
	return attendance.CommitResponse{JobID: id}, nil
}

// insert writes rows as submitted records, leaving employee-days that already have one.
func (s *AttendanceServiceImpl) insert(ctx context.Context, rows []attendance.RecordRow, progress jobs.Progress) (attendance.CommitResult, error) {
	var result attendance.CommitResult
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		rec, err := row.ToRecord()
		if err != nil {
			result.Failed = append(result.Failed, fmt.Sprintf("%s %s: %v", row.EmployeeID, row.Date, err))
			continue
		}

		err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
			existing, err := s.records.GetActive(ctx, rec.EmployeeID, rec.Date)
			if err != nil {
				return fmt.Errorf("failed to check existing attendance: %w", err)
			}
			if existing != nil {
				return attendance.ErrAttendanceExists
			}
			rec.ID = uuid.NewString()
			rec.Status = attendance.StatusPresent
			rec.DocStatus = attendance.DocSubmitted
			_, err = s.records.Create(ctx, rec)
			return err
		})
		switch {
		case err == nil:
			result.Inserted++
		case errors.Is(err, attendance.ErrAttendanceExists):
			result.Existing++
		default:
			slog.Error("attendance insert failed", "employee_id", rec.EmployeeID, "date", row.Date, "error", err)
			result.Failed = append(result.Failed, fmt.Sprintf("%s %s: %v", row.EmployeeID, row.Date, err))
		}
		progress(i+1, len(rows))
	}

	slog.Info("attendance committed",
		"inserted", result.Inserted,
		"existing", result.Existing,
		"failed", len(result.Failed),
	)
	return result, nil
}

// Export implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) Export(ctx context.Context, req attendance.RecordsRequest) ([]byte, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	w, err := spreadsheet.NewWriter(exportSheet, exportHeaders)
	if err != nil {
		return nil, err
	}
	for _, r := range req.Records {
		if err := w.AppendRow([]any{r.EmployeeID, r.Date, r.InTime, r.OutTime, r.Shift, string(r.LogInSource), string(r.LogOutSource)}); err != nil {
			return nil, err
		}
	}
	return w.Bytes()
}

// Correct implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) Correct(ctx context.Context, req attendance.CorrectionRequest) (attendance.RecordRow, error) {
	if err := req.Validate(); err != nil {
		return attendance.RecordRow{}, err
	}
	clock, _ := timeparse.ParseClock(req.Time)

	var amended attendance.AttendanceRecord
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		rec, err := s.records.GetByID(ctx, req.AttendanceID)
		if err != nil {
			return err
		}
		if rec.DocStatus != attendance.DocSubmitted {
			return attendance.ErrRecordNotSubmitted
		}

		if !req.IsAdmin {
			fyStart, fyEnd := timeparse.FiscalYear(rec.Date)
			n, err := s.records.CountAmendments(ctx, rec.EmployeeID, fyStart, fyEnd)
			if err != nil {
				return fmt.Errorf("failed to count corrections: %w", err)
			}
			if n >= s.rules.CorrectionLimit {
				return fmt.Errorf("%w: %d of %d used", attendance.ErrCorrectionLimitReached, n, s.rules.CorrectionLimit)
			}
		}

		amended = rec
		amended.ID = uuid.NewString()
		amended.AmendedFrom = &rec.ID
		amended.Status = attendance.StatusPresent
		amended.DocStatus = attendance.DocSubmitted
		if req.Field == "in" {
			amended.In = &clock
			amended.LogInSource = attendance.SourceManual
		} else {
			amended.Out = &clock
			amended.LogOutSource = attendance.SourceManual
		}
		if amended.HasBothPunches() {
			if err := checkPunches(amended); err != nil {
				return fmt.Errorf("%w: %v", apperror.ErrValidation, err)
			}
		}

		note := fmt.Sprintf("%s time corrected to %s by %s: %s", req.Field, clock, req.RequestedBy, req.Reason)
		amended.Note = &note
		if err := s.records.Cancel(ctx, rec.ID, note); err != nil {
			return fmt.Errorf("failed to cancel attendance: %w", err)
		}
		amended, err = s.records.Create(ctx, amended)
		if err != nil {
			return fmt.Errorf("failed to create amended attendance: %w", err)
		}
		return nil
	})
	if err != nil {
		return attendance.RecordRow{}, err
	}

	slog.Info("attendance corrected",
		"attendance_id", req.AttendanceID,
		"amended_id", amended.ID,
		"employee_id", amended.EmployeeID,
		"field", req.Field,
	)
	return attendance.ToRecordRow(amended), nil
}

// ApproveSelfAttendance implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ApproveSelfAttendance(ctx context.Context, req attendance.SelfAttendanceRequest) (attendance.SelfAttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.SelfAttendanceResponse{}, err
	}
	date, err := timeparse.ParseDate(req.Date)
	if err != nil {
		return attendance.SelfAttendanceResponse{}, fmt.Errorf("%w: %v", apperror.ErrValidation, err)
	}
	in, _ := timeparse.ParseClock(req.InTime)
	out, _ := timeparse.ParseClock(req.OutTime)

	emp, err := s.employees.GetByID(ctx, req.EmployeeID)
	if err != nil {
		return attendance.SelfAttendanceResponse{}, err
	}
	shiftName := req.Shift
	if shiftName == "" {
		shiftName = emp.DefaultShift
	}

	var resp attendance.SelfAttendanceResponse
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := s.records.GetActive(ctx, emp.ID, date)
		if err != nil {
			return fmt.Errorf("failed to check existing attendance: %w", err)
		}
		if existing != nil {
			return fmt.Errorf("%w: %s on %s", attendance.ErrAttendanceExists, emp.ID, timeparse.FormatDate(date))
		}

		resp.InCheckinID, err = s.createCheckin(ctx, emp.ID, in.On(date), attendance.LogIn, shiftName)
		if err != nil {
			return err
		}
		resp.OutCheckinID, err = s.createCheckin(ctx, emp.ID, out.On(date), attendance.LogOut, shiftName)
		return err
	})
	if err != nil {
		return attendance.SelfAttendanceResponse{}, err
	}

	slog.Info("self attendance approved", "employee_id", emp.ID, "date", req.Date)
	return resp, nil
}

func (s *AttendanceServiceImpl) createCheckin(ctx context.Context, employeeID string, at time.Time, logType attendance.LogType, shiftName string) (string, error) {
	c, err := s.checkins.Create(ctx, attendance.Checkin{
		ID:         uuid.NewString(),
		EmployeeID: employeeID,
		Time:       at,
		LogType:    logType,
		ShiftID:    shiftName,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create %s check-in: %w", logType, err)
	}
	return c.ID, nil
}
