package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pinnacle-hris/payroll-engine/internal/domain/employee"
	"github.com/pinnacle-hris/payroll-engine/internal/pkg/database"
)

const employeeColumns = `id, full_name, company_id, default_shift, holiday_list, date_of_joining,
	relieving_date, personal_email, attendance_device_id, status, allowed_lates, paid_leaves,
	created_at, updated_at`

type employeeRepositoryImpl struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) employee.EmployeeRepository {
	return &employeeRepositoryImpl{db: db}
}

func scanEmployee(row pgx.Row) (employee.Employee, error) {
	var emp employee.Employee
	err := row.Scan(
		&emp.ID, &emp.FullName, &emp.CompanyID, &emp.DefaultShift, &emp.HolidayList, &emp.DateOfJoining,
		&emp.RelievingDate, &emp.PersonalEmail, &emp.AttendanceDeviceID, &emp.Status, &emp.AllowedLates,
		&emp.PaidLeaves, &emp.CreatedAt, &emp.UpdatedAt,
	)
	return emp, err
}

func (e *employeeRepositoryImpl) list(ctx context.Context, query string, args ...interface{}) ([]employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	var employees []employee.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, emp)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return employees, nil
}

// GetByID implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id = $1`

	emp, err := scanEmployee(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, fmt.Errorf("%w: %s", employee.ErrEmployeeNotFound, id)
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee with id %s: %w", id, err)
	}
	return emp, nil
}

// GetByIDs implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) GetByIDs(ctx context.Context, ids []string) ([]employee.Employee, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id = ANY($1) ORDER BY id`
	return e.list(ctx, query, ids)
}

// GetActiveByCompanyID implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) GetActiveByCompanyID(ctx context.Context, companyID string) ([]employee.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE company_id = $1 AND status = $2 ORDER BY id`
	return e.list(ctx, query, companyID, employee.StatusActive)
}

// ListActive implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) ListActive(ctx context.Context) ([]employee.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE status = $1 ORDER BY id`
	return e.list(ctx, query, employee.StatusActive)
}

// ListCompanies implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) ListCompanies(ctx context.Context) ([]string, error) {
	q := GetQuerier(ctx, e.db)

	query := `SELECT DISTINCT company_id FROM employees WHERE status = $1 ORDER BY company_id`

	rows, err := q.Query(ctx, query, employee.StatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	defer rows.Close()

	var companies []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan company id: %w", err)
		}
		companies = append(companies, id)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return companies, nil
}

// GetByAttendanceDeviceID implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) GetByAttendanceDeviceID(ctx context.Context, deviceLocalID string) (employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	query := `SELECT ` + employeeColumns + ` FROM employees WHERE attendance_device_id = $1 ORDER BY id LIMIT 1`

	emp, err := scanEmployee(q.QueryRow(ctx, query, deviceLocalID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, fmt.Errorf("%w: device id %s", employee.ErrEmployeeNotFound, deviceLocalID)
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee by device id %s: %w", deviceLocalID, err)
	}
	return emp, nil
}

type allotmentRepositoryImpl struct {
	db *database.DB
}

func NewAllotmentRepository(db *database.DB) employee.AllotmentRepository {
	return &allotmentRepositoryImpl{db: db}
}

// Resolve implements employee.AllotmentRepository.
func (a *allotmentRepositoryImpl) Resolve(ctx context.Context, device, deviceLocalID string) (string, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT employee_id
		FROM attendance_device_allotments
		WHERE device = $1 AND device_local_id = $2
	`

	var employeeID string
	err := q.QueryRow(ctx, query, device, deviceLocalID).Scan(&employeeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("%w: %s/%s", employee.ErrAllotmentNotFound, device, deviceLocalID)
		}
		return "", fmt.Errorf("failed to resolve device allotment: %w", err)
	}
	return employeeID, nil
}
