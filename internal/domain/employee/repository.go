package employee

import (
	"context"
)

// EmployeeRepository is the read-only roster used by payroll runs.
type EmployeeRepository interface {
	GetByID(ctx context.Context, id string) (Employee, error)
	GetByIDs(ctx context.Context, ids []string) ([]Employee, error)
	GetActiveByCompanyID(ctx context.Context, companyID string) ([]Employee, error)
	ListActive(ctx context.Context) ([]Employee, error)
	ListCompanies(ctx context.Context) ([]string, error)

	// GetByAttendanceDeviceID looks up the legacy single device id stored on the employee.
	GetByAttendanceDeviceID(ctx context.Context, deviceLocalID string) (Employee, error)
}

// AllotmentRepository resolves (device, device-local id) pairs to employees.
type AllotmentRepository interface {
	// Resolve returns ErrAllotmentNotFound when no employee holds the pair.
	Resolve(ctx context.Context, device, deviceLocalID string) (string, error)
}
