package reconcile

import (
	"context"
	"errors"
	"fmt"

	"github.com/pinnacle-hris/payroll-engine/internal/domain/attendance"
	"github.com/pinnacle-hris/payroll-engine/internal/domain/employee"
)

// DeviceResolver maps a device-local punch id to an employee id.
type DeviceResolver interface {
	ResolveDevice(ctx context.Context, device, deviceLocalID string) (string, error)
}

// AllotmentResolver looks the pair up in the allotment table and falls back to the
// single attendance device id kept on the employee.
type AllotmentResolver struct {
	allotments employee.AllotmentRepository
	employees  employee.EmployeeRepository
}

func NewAllotmentResolver(allotments employee.AllotmentRepository, employees employee.EmployeeRepository) *AllotmentResolver {
	return &AllotmentResolver{allotments: allotments, employees: employees}
}

func (r *AllotmentResolver) ResolveDevice(ctx context.Context, device, deviceLocalID string) (string, error) {
	id, err := r.allotments.Resolve(ctx, device, deviceLocalID)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, employee.ErrAllotmentNotFound) {
		return "", fmt.Errorf("failed to resolve device allotment: %w", err)
	}

	emp, err := r.employees.GetByAttendanceDeviceID(ctx, deviceLocalID)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return "", fmt.Errorf("%w: %s/%s", attendance.ErrUnmappedDevice, device, deviceLocalID)
		}
		return "", fmt.Errorf("failed to resolve attendance device id: %w", err)
	}
	return emp.ID, nil
}
