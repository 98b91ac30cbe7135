package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/pinnacle-hris/payroll-engine/internal/domain/employee"
)

type EmployeeRepository struct {
	mu        sync.RWMutex
	employees map[string]employee.Employee
}

func NewEmployeeRepository(employees ...employee.Employee) *EmployeeRepository {
	r := &EmployeeRepository{employees: make(map[string]employee.Employee)}
	for _, e := range employees {
		r.employees[e.ID] = e
	}
	return r
}

// Put inserts or replaces an employee.
func (r *EmployeeRepository) Put(e employee.Employee) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.employees[e.ID] = e
}

func (r *EmployeeRepository) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.employees[id]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return e, nil
}

func (r *EmployeeRepository) GetByIDs(ctx context.Context, ids []string) ([]employee.Employee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []employee.Employee
	for _, id := range ids {
		if e, ok := r.employees[id]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *EmployeeRepository) GetActiveByCompanyID(ctx context.Context, companyID string) ([]employee.Employee, error) {
	return r.filter(func(e employee.Employee) bool {
		return e.CompanyID == companyID && e.Status == employee.StatusActive
	}), nil
}

func (r *EmployeeRepository) ListActive(ctx context.Context) ([]employee.Employee, error) {
	return r.filter(func(e employee.Employee) bool { return e.Status == employee.StatusActive }), nil
}

func (r *EmployeeRepository) ListCompanies(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, e := range r.filter(func(employee.Employee) bool { return true }) {
		if e.CompanyID != "" && !seen[e.CompanyID] {
			seen[e.CompanyID] = true
			out = append(out, e.CompanyID)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *EmployeeRepository) GetByAttendanceDeviceID(ctx context.Context, deviceLocalID string) (employee.Employee, error) {
	found := r.filter(func(e employee.Employee) bool {
		return e.AttendanceDeviceID != nil && *e.AttendanceDeviceID == deviceLocalID
	})
	if len(found) == 0 {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return found[0], nil
}

func (r *EmployeeRepository) filter(keep func(employee.Employee) bool) []employee.Employee {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []employee.Employee
	for _, e := range r.employees {
		if keep(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type AllotmentRepository struct {
	mu         sync.RWMutex
	allotments map[[2]string]string
}

func NewAllotmentRepository(allotments ...employee.DeviceAllotment) *AllotmentRepository {
	r := &AllotmentRepository{allotments: make(map[[2]string]string)}
	for _, a := range allotments {
		r.allotments[[2]string{a.Device, a.DeviceLocalID}] = a.EmployeeID
	}
	return r
}

func (r *AllotmentRepository) Resolve(ctx context.Context, device, deviceLocalID string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.allotments[[2]string{device, deviceLocalID}]
	if !ok {
		return "", employee.ErrAllotmentNotFound
	}
	return id, nil
}
