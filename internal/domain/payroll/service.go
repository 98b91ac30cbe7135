package payroll

import (
	"context"
)

type PayrollService interface {
	// Breakdown computes a month without writing anything.
	Breakdown(ctx context.Context, req BreakdownRequest) (SalaryBreakdown, error)
	// GenerateBatch upserts draft payslips for every selected employee. Per-employee
	// errors are reported in the summary; only validation errors abort the batch.
	GenerateBatch(ctx context.Context, req GenerateRequest, progress func(done, total int)) (BatchSummary, error)
	// StartRun queues GenerateBatch as a background job.
	StartRun(ctx context.Context, req GenerateRequest) (RunResponse, error)
	GetPayslip(ctx context.Context, id string) (PayslipResponse, error)
	Regenerate(ctx context.Context, id string) (PayslipResponse, error)
	Submit(ctx context.Context, id string) error
	EmailPayslip(ctx context.Context, id string) error
	PayslipPDF(ctx context.Context, id string) ([]byte, error)
}
