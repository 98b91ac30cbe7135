package cron

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pinnacle-hris/payroll-engine/internal/domain/employee"
	"github.com/pinnacle-hris/payroll-engine/internal/domain/payroll"
	"github.com/pinnacle-hris/payroll-engine/internal/domain/salary"
	"github.com/pinnacle-hris/payroll-engine/internal/pkg/notify"
)

// PayrollJobs drafts the previous month's payslips and reports due leave encashments.
type PayrollJobs struct {
	payrollSvc    payroll.PayrollService
	encashmentSvc salary.EncashmentService
	employeeRepo  employee.EmployeeRepository
	notifier      notify.Notifier
	runDay        int
	now           func() time.Time
}

func NewPayrollJobs(
	payrollSvc payroll.PayrollService,
	encashmentSvc salary.EncashmentService,
	employeeRepo employee.EmployeeRepository,
	notifier notify.Notifier,
	runDay int,
) *PayrollJobs {
	return &PayrollJobs{
		payrollSvc:    payrollSvc,
		encashmentSvc: encashmentSvc,
		employeeRepo:  employeeRepo,
		notifier:      notifier,
		runDay:        runDay,
		now:           time.Now,
	}
}

func (j *PayrollJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("draft_monthly_payslips", 1*time.Hour, j.DraftMonthlyPayslips)
	scheduler.AddJob("report_due_encashments", 1*time.Hour, j.ReportDueEncashments)
}

// DraftMonthlyPayslips generates draft payslips for the previous month in every company.
// It fires only during the midnight hour of the configured run day.
func (j *PayrollJobs) DraftMonthlyPayslips(ctx context.Context) error {
	now := j.now().UTC()
	if now.Day() != j.runDay || now.Hour() != 0 {
		return nil
	}

	prev := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
	slog.Info("Cron: Starting monthly payslip draft", "year", prev.Year(), "month", int(prev.Month()))

	companies, err := j.employeeRepo.ListCompanies(ctx)
	if err != nil {
		return fmt.Errorf("failed to list companies: %w", err)
	}

	var failedCompanies []string
	for _, companyID := range companies {
		summary, err := j.payrollSvc.GenerateBatch(ctx, payroll.GenerateRequest{
			CompanyID: companyID,
			Year:      prev.Year(),
			Month:     int(prev.Month()),
		}, nil)
		if err != nil {
			slog.Error("Cron: Failed to draft payslips", "company_id", companyID, "error", err)
			failedCompanies = append(failedCompanies, companyID)
			continue
		}

		slog.Info("Cron: Drafted payslips",
			"company_id", companyID,
			"processed", summary.Processed,
			"skipped", summary.Skipped,
			"failed", summary.Failed,
		)
		if summary.Skipped > 0 || summary.Failed > 0 {
			msg := fmt.Sprintf("Payroll draft %s for %s: %d processed, %d skipped, %d failed",
				prev.Format("Jan 2006"), companyID, summary.Processed, summary.Skipped, summary.Failed)
			if err := j.notifier.Notify(ctx, msg); err != nil {
				slog.Warn("Cron: Failed to send payroll notification", "company_id", companyID, "error", err)
			}
		}
	}

	if len(failedCompanies) > 0 {
		return fmt.Errorf("payslip draft failed for companies: %s", strings.Join(failedCompanies, ", "))
	}
	return nil
}

// ReportDueEncashments logs the leave encashments that fall due this month.
// It fires once a day during the midnight hour.
func (j *PayrollJobs) ReportDueEncashments(ctx context.Context) error {
	now := j.now().UTC()
	if now.Hour() != 0 {
		return nil
	}

	due, err := j.encashmentSvc.ListDue(ctx, now.Year(), int(now.Month()))
	if err != nil {
		return fmt.Errorf("failed to list due encashments: %w", err)
	}
	if len(due) == 0 {
		slog.Info("Cron: No leave encashments due this month")
		return nil
	}

	ids := make([]string, 0, len(due))
	for _, e := range due {
		ids = append(ids, e.EmployeeID)
	}
	slog.Info("Cron: Leave encashments due this month", "count", len(due), "employee_ids", ids)
	return nil
}
