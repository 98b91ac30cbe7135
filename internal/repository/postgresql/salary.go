package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/pinnacle-hris/payroll-engine/internal/domain/salary"
	"github.com/pinnacle-hris/payroll-engine/internal/pkg/database"
)

type historyRepositoryImpl struct {
	db *database.DB
}

func NewHistoryRepository(db *database.DB) salary.HistoryRepository {
	return &historyRepositoryImpl{db: db}
}

// ListByEmployee implements salary.HistoryRepository.
func (r *historyRepositoryImpl) ListByEmployee(ctx context.Context, employeeID string) ([]salary.HistoryEntry, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, employee_id, from_date, amount, overtime_eligible, created_at
		FROM salary_history
		WHERE employee_id = $1
		ORDER BY from_date, created_at
	`

	rows, err := q.Query(ctx, query, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list salary history: %w", err)
	}
	defer rows.Close()

	var entries []salary.HistoryEntry
	for rows.Next() {
		var e salary.HistoryEntry
		if err := rows.Scan(&e.ID, &e.EmployeeID, &e.FromDate, &e.Amount, &e.OvertimeEligible, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan salary history: %w", err)
		}
		entries = append(entries, e)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

const encashmentColumns = `id, employee_id, from_date, to_date, encashment_date, next_encashment_date,
	amount, status, payslip_id, created_at`

type encashmentRepositoryImpl struct {
	db *database.DB
}

func NewEncashmentRepository(db *database.DB) salary.EncashmentRepository {
	return &encashmentRepositoryImpl{db: db}
}

func scanEncashment(row pgx.Row) (salary.LeaveEncashment, error) {
	var e salary.LeaveEncashment
	err := row.Scan(
		&e.ID, &e.EmployeeID, &e.FromDate, &e.ToDate, &e.EncashmentDate, &e.NextEncashmentDate,
		&e.Amount, &e.Status, &e.PayslipID, &e.CreatedAt,
	)
	return e, err
}

func (r *encashmentRepositoryImpl) list(ctx context.Context, query string, args ...interface{}) ([]salary.LeaveEncashment, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query leave encashments: %w", err)
	}
	defer rows.Close()

	var out []salary.LeaveEncashment
	for rows.Next() {
		e, err := scanEncashment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leave encashment: %w", err)
		}
		out = append(out, e)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Create implements salary.EncashmentRepository.
func (r *encashmentRepositoryImpl) Create(ctx context.Context, e salary.LeaveEncashment) (salary.LeaveEncashment, error) {
	q := GetQuerier(ctx, r.db)

	if e.Status == "" {
		e.Status = salary.EncashmentUnpaid
	}
	query := `
		INSERT INTO leave_encashments (
			id, employee_id, from_date, to_date, encashment_date, next_encashment_date, amount, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + encashmentColumns

	created, err := scanEncashment(q.QueryRow(ctx, query,
		e.ID, e.EmployeeID, dateParam(&e.FromDate), dateParam(&e.ToDate), dateParam(&e.EncashmentDate),
		dateParam(&e.NextEncashmentDate), e.Amount, e.Status,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return salary.LeaveEncashment{}, salary.ErrEncashmentExists
		}
		return salary.LeaveEncashment{}, fmt.Errorf("failed to create leave encashment: %w", err)
	}
	return created, nil
}

// Latest implements salary.EncashmentRepository.
func (r *encashmentRepositoryImpl) Latest(ctx context.Context, employeeID string) (*salary.LeaveEncashment, error) {
	query := `
		SELECT ` + encashmentColumns + `
		FROM leave_encashments
		WHERE employee_id = $1
		ORDER BY encashment_date DESC, created_at DESC
		LIMIT 1
	`
	out, err := r.list(ctx, query, employeeID)
	if err != nil || len(out) == 0 {
		return nil, err
	}
	return &out[0], nil
}

// Exists implements salary.EncashmentRepository.
func (r *encashmentRepositoryImpl) Exists(ctx context.Context, employeeID string, from, to time.Time) (bool, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT EXISTS(
			SELECT 1 FROM leave_encashments WHERE employee_id = $1 AND from_date = $2 AND to_date = $3
		)
	`

	var exists bool
	if err := q.QueryRow(ctx, query, employeeID, dateParam(&from), dateParam(&to)).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check leave encashment: %w", err)
	}
	return exists, nil
}

// ListApplicable implements salary.EncashmentRepository.
func (r *encashmentRepositoryImpl) ListApplicable(ctx context.Context, employeeID string, from, to time.Time, payslipID string) ([]salary.LeaveEncashment, error) {
	query := `
		SELECT ` + encashmentColumns + `
		FROM leave_encashments
		WHERE employee_id = $1
			AND (
				(status = $2 AND payslip_id IS NULL AND to_date BETWEEN $3 AND $4)
				OR ($5 <> '' AND payslip_id = $5)
			)
		ORDER BY to_date
	`
	return r.list(ctx, query, employeeID, salary.EncashmentUnpaid, dateParam(&from), dateParam(&to), payslipID)
}

// ListNextDue implements salary.EncashmentRepository.
func (r *encashmentRepositoryImpl) ListNextDue(ctx context.Context, from, to time.Time) ([]salary.LeaveEncashment, error) {
	query := `
		SELECT ` + encashmentColumns + `
		FROM leave_encashments
		WHERE next_encashment_date BETWEEN $1 AND $2
		ORDER BY employee_id
	`
	return r.list(ctx, query, dateParam(&from), dateParam(&to))
}

// MarkPaid implements salary.EncashmentRepository.
func (r *encashmentRepositoryImpl) MarkPaid(ctx context.Context, ids []string, payslipID string) error {
	return linkLedger(ctx, GetQuerier(ctx, r.db), "leave_encashments", ids, payslipID, string(salary.EncashmentPaid))
}

// Release implements salary.EncashmentRepository.
func (r *encashmentRepositoryImpl) Release(ctx context.Context, payslipID string) error {
	return releaseLedger(ctx, GetQuerier(ctx, r.db), "leave_encashments", payslipID, string(salary.EncashmentUnpaid))
}

const recurringColumns = `id, employee_id, component, kind, amount, due_date, status, payslip_id, created_at`

type recurringRepositoryImpl struct {
	db *database.DB
}

func NewRecurringRepository(db *database.DB) salary.RecurringRepository {
	return &recurringRepositoryImpl{db: db}
}

func scanRecurring(row pgx.Row) (salary.RecurringComponent, error) {
	var c salary.RecurringComponent
	err := row.Scan(&c.ID, &c.EmployeeID, &c.Component, &c.Kind, &c.Amount, &c.DueDate, &c.Status, &c.PayslipID, &c.CreatedAt)
	return c, err
}

// Create implements salary.RecurringRepository.
func (r *recurringRepositoryImpl) Create(ctx context.Context, c salary.RecurringComponent) (salary.RecurringComponent, error) {
	q := GetQuerier(ctx, r.db)

	if c.Status == "" {
		c.Status = salary.ComponentPending
	}
	query := `
		INSERT INTO recurring_components (id, employee_id, component, kind, amount, due_date, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + recurringColumns

	created, err := scanRecurring(q.QueryRow(ctx, query,
		c.ID, c.EmployeeID, c.Component, c.Kind, c.Amount, dateParam(&c.DueDate), c.Status,
	))
	if err != nil {
		return salary.RecurringComponent{}, fmt.Errorf("failed to create recurring component: %w", err)
	}
	return created, nil
}

// ListApplicable implements salary.RecurringRepository.
func (r *recurringRepositoryImpl) ListApplicable(ctx context.Context, employeeID string, from, to time.Time, payslipID string) ([]salary.RecurringComponent, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + recurringColumns + `
		FROM recurring_components
		WHERE employee_id = $1
			AND (
				(status = $2 AND payslip_id IS NULL AND due_date BETWEEN $3 AND $4)
				OR ($5 <> '' AND payslip_id = $5)
			)
		ORDER BY due_date, component
	`

	rows, err := q.Query(ctx, query, employeeID, salary.ComponentPending, dateParam(&from), dateParam(&to), payslipID)
	if err != nil {
		return nil, fmt.Errorf("failed to list recurring components: %w", err)
	}
	defer rows.Close()

	var out []salary.RecurringComponent
	for rows.Next() {
		c, err := scanRecurring(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recurring component: %w", err)
		}
		out = append(out, c)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// MarkCleared implements salary.RecurringRepository.
func (r *recurringRepositoryImpl) MarkCleared(ctx context.Context, ids []string, payslipID string) error {
	return linkLedger(ctx, GetQuerier(ctx, r.db), "recurring_components", ids, payslipID, string(salary.ComponentCleared))
}

// Release implements salary.RecurringRepository.
func (r *recurringRepositoryImpl) Release(ctx context.Context, payslipID string) error {
	return releaseLedger(ctx, GetQuerier(ctx, r.db), "recurring_components", payslipID, string(salary.ComponentPending))
}

// linkLedger attaches ledger rows to a payslip. Rows linked to another payslip, or
// missing, leave the update short and fail the whole call.
func linkLedger(ctx context.Context, q database.Querier, table string, ids []string, payslipID, status string) error {
	if len(ids) == 0 {
		return nil
	}
	query := fmt.Sprintf(`
		UPDATE %s
		SET status = $1, payslip_id = $2
		WHERE id = ANY($3) AND (payslip_id IS NULL OR payslip_id = $2)
	`, table)

	tag, err := q.Exec(ctx, query, status, payslipID, ids)
	if err != nil {
		return fmt.Errorf("failed to link %s to payslip %s: %w", table, payslipID, err)
	}
	if int(tag.RowsAffected()) != len(ids) {
		return salary.ErrLedgerAlreadyApplied
	}
	return nil
}

func releaseLedger(ctx context.Context, q database.Querier, table, payslipID, status string) error {
	query := fmt.Sprintf(`UPDATE %s SET status = $1, payslip_id = NULL WHERE payslip_id = $2`, table)

	if _, err := q.Exec(ctx, query, status, payslipID); err != nil {
		return fmt.Errorf("failed to release %s of payslip %s: %w", table, payslipID, err)
	}
	return nil
}
