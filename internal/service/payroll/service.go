package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pinnacle-hris/payroll-engine/internal/domain/employee"
	"github.com/pinnacle-hris/payroll-engine/internal/domain/job"
	"github.com/pinnacle-hris/payroll-engine/internal/domain/payroll"
	"github.com/pinnacle-hris/payroll-engine/internal/pkg/apperror"
	"github.com/pinnacle-hris/payroll-engine/internal/pkg/email"
	"github.com/pinnacle-hris/payroll-engine/internal/pkg/jobs"
	"github.com/pinnacle-hris/payroll-engine/internal/pkg/notify"
	"github.com/pinnacle-hris/payroll-engine/internal/pkg/storage"
)

type PayrollServiceImpl struct {
	employees    employee.EmployeeRepository
	payslips     payroll.PayslipRepository
	aggregator   *Aggregator
	materializer *Materializer
	runner       *jobs.Runner
	notifier     notify.Notifier
	emailService email.EmailService
	storage      storage.FileStorage
}

func NewPayrollService(
	employees employee.EmployeeRepository,
	payslips payroll.PayslipRepository,
	aggregator *Aggregator,
	materializer *Materializer,
	runner *jobs.Runner,
	notifier notify.Notifier,
	emailService email.EmailService,
	fileStorage storage.FileStorage,
) payroll.PayrollService {
	return &PayrollServiceImpl{
		employees:    employees,
		payslips:     payslips,
		aggregator:   aggregator,
		materializer: materializer,
		runner:       runner,
		notifier:     notifier,
		emailService: emailService,
		storage:      fileStorage,
	}
}

// Breakdown implements payroll.PayrollService.
func (s *PayrollServiceImpl) Breakdown(ctx context.Context, req payroll.BreakdownRequest) (payroll.SalaryBreakdown, error) {
	if err := req.Validate(); err != nil {
		return payroll.SalaryBreakdown{}, err
	}
	emp, err := s.employees.GetByID(ctx, req.EmployeeID)
	if err != nil {
		return payroll.SalaryBreakdown{}, err
	}
	existing, err := s.payslips.GetForUpdate(ctx, emp.ID, req.Year, req.Month)
	if err != nil {
		return payroll.SalaryBreakdown{}, fmt.Errorf("failed to get payslip: %w", err)
	}
	payslipID := ""
	if existing != nil {
		payslipID = existing.ID
	}
	return s.aggregator.Compute(ctx, emp, req.Year, req.Month, payslipID)
}

// GenerateBatch implements payroll.PayrollService.
func (s *PayrollServiceImpl) GenerateBatch(ctx context.Context, req payroll.GenerateRequest, progress func(done, total int)) (payroll.BatchSummary, error) {
	if err := req.Validate(); err != nil {
		return payroll.BatchSummary{}, err
	}
	employees, err := s.selectEmployees(ctx, req)
	if err != nil {
		return payroll.BatchSummary{}, err
	}

	summary := payroll.BatchSummary{Total: len(employees), Results: make([]payroll.EmployeeResult, 0, len(employees))}
	for i, emp := range employees {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		result := payroll.EmployeeResult{EmployeeID: emp.ID}
		p, err := s.generate(ctx, emp, req.Year, req.Month)
		switch {
		case err == nil:
			result.Status = payroll.ResultProcessed
			result.PayslipID = p.ID
			summary.Processed++
		case isSkippable(err):
			result.Status = payroll.ResultSkipped
			result.Error = err.Error()
			summary.Skipped++
			slog.Warn("payslip skipped", "employee_id", emp.ID, "error", err)
		default:
			result.Status = payroll.ResultFailed
			result.Error = err.Error()
			summary.Failed++
			slog.Error("payslip generation failed", "employee_id", emp.ID, "error", err)
		}
		summary.Results = append(summary.Results, result)

		if result.Status == payroll.ResultProcessed && req.SendEmail {
			s.queueEmail(ctx, p.ID)
		}
		if progress != nil {
			progress(i+1, len(employees))
		}
	}

	slog.Info("payroll batch finished",
		"year", req.Year,
		"month", req.Month,
		"total", summary.Total,
		"processed", summary.Processed,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
	)
	if err := s.notifier.Notify(ctx, summaryText(req, summary)); err != nil {
		slog.Warn("payroll summary notification failed", "error", err)
	}
	return summary, nil
}

// StartRun implements payroll.PayrollService.
func (s *PayrollServiceImpl) StartRun(ctx context.Context, req payroll.GenerateRequest) (payroll.RunResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.RunResponse{}, err
	}
	id, err := s.runner.Enqueue(ctx, job.TypePayrollRun, func(ctx context.Context, progress jobs.Progress) (any, error) {
		return s.GenerateBatch(ctx, req, progress)
	})
	if err != nil {
		return payroll.RunResponse{}, err
	}
	return payroll.RunResponse{JobID: id}, nil
}

// GetPayslip implements payroll.PayrollService.
func (s *PayrollServiceImpl) GetPayslip(ctx context.Context, id string) (payroll.PayslipResponse, error) {
	p, err := s.payslips.GetByID(ctx, id)
	if err != nil {
		return payroll.PayslipResponse{}, err
	}
	return payroll.ToPayslipResponse(p), nil
}

// Regenerate implements payroll.PayrollService.
func (s *PayrollServiceImpl) Regenerate(ctx context.Context, id string) (payroll.PayslipResponse, error) {
	p, err := s.payslips.GetByID(ctx, id)
	if err != nil {
		return payroll.PayslipResponse{}, err
	}
	if p.Status == payroll.StatusSubmitted {
		return payroll.PayslipResponse{}, payroll.ErrPayslipSubmitted
	}
	emp, err := s.employees.GetByID(ctx, p.EmployeeID)
	if err != nil {
		return payroll.PayslipResponse{}, err
	}
	updated, err := s.generate(ctx, emp, p.Year, p.Month)
	if err != nil {
		return payroll.PayslipResponse{}, err
	}
	return payroll.ToPayslipResponse(updated), nil
}

// Submit implements payroll.PayrollService.
func (s *PayrollServiceImpl) Submit(ctx context.Context, id string) error {
	if err := s.payslips.Submit(ctx, id); err != nil {
		return err
	}
	slog.Info("payslip submitted", "payslip_id", id)
	return nil
}

// generate computes and upserts one employee's payslip.
func (s *PayrollServiceImpl) generate(ctx context.Context, emp employee.Employee, year, month int) (payroll.Payslip, error) {
	existing, err := s.payslips.GetForUpdate(ctx, emp.ID, year, month)
	if err != nil {
		return payroll.Payslip{}, fmt.Errorf("failed to get payslip: %w", err)
	}
	payslipID := ""
	if existing != nil {
		if existing.Status == payroll.StatusSubmitted {
			return payroll.Payslip{}, fmt.Errorf("%w: %s %04d-%02d", payroll.ErrPayslipSubmitted, emp.ID, year, month)
		}
		payslipID = existing.ID
	}

	b, err := s.aggregator.Compute(ctx, emp, year, month, payslipID)
	if err != nil {
		return payroll.Payslip{}, err
	}
	return s.materializer.Upsert(ctx, emp, b)
}

func (s *PayrollServiceImpl) selectEmployees(ctx context.Context, req payroll.GenerateRequest) ([]employee.Employee, error) {
	var (
		employees []employee.Employee
		err       error
	)
	if len(req.EmployeeIDs) > 0 {
		employees, err = s.employees.GetByIDs(ctx, req.EmployeeIDs)
	} else {
		employees, err = s.employees.GetActiveByCompanyID(ctx, req.CompanyID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}

	if req.CompanyID != "" && len(req.EmployeeIDs) > 0 {
		filtered := employees[:0]
		for _, e := range employees {
			if e.CompanyID == req.CompanyID {
				filtered = append(filtered, e)
			}
		}
		employees = filtered
	}
	if len(employees) == 0 {
		return nil, payroll.ErrNoEmployeesSelected
	}
	return employees, nil
}

func (s *PayrollServiceImpl) queueEmail(ctx context.Context, payslipID string) {
	_, err := s.runner.Enqueue(ctx, job.TypePayslipEmail, func(ctx context.Context, _ jobs.Progress) (any, error) {
		return map[string]string{"payslip_id": payslipID}, s.EmailPayslip(ctx, payslipID)
	})
	if err != nil {
		slog.Warn("payslip email not queued", "payslip_id", payslipID, "error", err)
	}
}

// isSkippable separates employees that could not be processed because of missing
// reference data or a locked payslip from genuine failures.
func isSkippable(err error) bool {
	return errors.Is(err, apperror.ErrReferenceDataMissing) || errors.Is(err, apperror.ErrStateConflict)
}

func summaryText(req payroll.GenerateRequest, summary payroll.BatchSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Payroll %04d-%02d: %d processed, %d skipped, %d failed of %d",
		req.Year, req.Month, summary.Processed, summary.Skipped, summary.Failed, summary.Total)
	for _, r := range summary.Results {
		if r.Status == payroll.ResultFailed {
			fmt.Fprintf(&b, "\n- %s: %s", r.EmployeeID, r.Error)
		}
	}
	return b.String()
}
