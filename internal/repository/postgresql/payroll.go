package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/pinnacle-hris/payroll-engine/internal/domain/payroll"
	"github.com/pinnacle-hris/payroll-engine/internal/pkg/database"
)

const payslipColumns = `id, employee_id, employee_name, company_id, year, month, basic_salary, per_day_salary,
	standard_working_days, actual_working_days, absent, lates_forgiven, total, net_payable, status,
	pdf_key, emailed_at, created_at, updated_at`

type payslipRepositoryImpl struct {
	db *database.DB
}

func NewPayslipRepository(db *database.DB) payroll.PayslipRepository {
	return &payslipRepositoryImpl{db: db}
}

func scanPayslip(row pgx.Row) (payroll.Payslip, error) {
	var p payroll.Payslip
	err := row.Scan(
		&p.ID, &p.EmployeeID, &p.EmployeeName, &p.CompanyID, &p.Year, &p.Month, &p.BasicSalary, &p.PerDaySalary,
		&p.StandardWorkingDays, &p.ActualWorkingDays, &p.Absent, &p.LatesForgiven, &p.Total, &p.NetPayable, &p.Status,
		&p.PDFKey, &p.EmailedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

// GetByID implements payroll.PayslipRepository.
func (r *payslipRepositoryImpl) GetByID(ctx context.Context, id string) (payroll.Payslip, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + payslipColumns + ` FROM payslips WHERE id = $1`

	p, err := scanPayslip(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.Payslip{}, payroll.ErrPayslipNotFound
		}
		return payroll.Payslip{}, fmt.Errorf("failed to get payslip with id %s: %w", id, err)
	}
	if err := r.loadLineItems(ctx, &p); err != nil {
		return payroll.Payslip{}, err
	}
	return p, nil
}

func (r *payslipRepositoryImpl) loadLineItems(ctx context.Context, p *payroll.Payslip) error {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT kind, position, particulars, days, rate, amount
		FROM payslip_line_items
		WHERE payslip_id = $1
		ORDER BY kind, position
	`

	rows, err := q.Query(ctx, query, p.ID)
	if err != nil {
		return fmt.Errorf("failed to list payslip line items: %w", err)
	}
	defer rows.Close()

	p.SalaryCalculation, p.OtherEarnings = nil, nil
	for rows.Next() {
		var item payroll.LineItem
		if err := rows.Scan(&item.Kind, &item.Position, &item.Particulars, &item.Days, &item.Rate, &item.Amount); err != nil {
			return fmt.Errorf("failed to scan payslip line item: %w", err)
		}
		switch item.Kind {
		case payroll.LineSalaryCalculation:
			p.SalaryCalculation = append(p.SalaryCalculation, item)
		case payroll.LineOtherEarnings:
			p.OtherEarnings = append(p.OtherEarnings, item)
		}
	}
	return rows.Err()
}

// GetForUpdate implements payroll.PayslipRepository.
func (r *payslipRepositoryImpl) GetForUpdate(ctx context.Context, employeeID string, year, month int) (*payroll.Payslip, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + payslipColumns + `
		FROM payslips
		WHERE employee_id = $1 AND year = $2 AND month = $3
		FOR UPDATE
	`

	p, err := scanPayslip(q.QueryRow(ctx, query, employeeID, year, month))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to lock payslip: %w", err)
	}
	return &p, nil
}

// Create implements payroll.PayslipRepository.
func (r *payslipRepositoryImpl) Create(ctx context.Context, p payroll.Payslip) (payroll.Payslip, error) {
	q := GetQuerier(ctx, r.db)

	if p.Status == "" {
		p.Status = payroll.StatusDraft
	}
	query := `
		INSERT INTO payslips (
			id, employee_id, employee_name, company_id, year, month, basic_salary, per_day_salary,
			standard_working_days, actual_working_days, absent, lates_forgiven, total, net_payable, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		p.ID, p.EmployeeID, p.EmployeeName, p.CompanyID, p.Year, p.Month, p.BasicSalary, p.PerDaySalary,
		p.StandardWorkingDays, p.ActualWorkingDays, p.Absent, p.LatesForgiven, p.Total, p.NetPayable, p.Status,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return payroll.Payslip{}, fmt.Errorf("failed to create payslip: %w", err)
	}
	return p, nil
}

// UpdateHeader implements payroll.PayslipRepository.
func (r *payslipRepositoryImpl) UpdateHeader(ctx context.Context, p payroll.Payslip) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE payslips
		SET employee_name = $1, company_id = $2, basic_salary = $3, per_day_salary = $4,
			standard_working_days = $5, actual_working_days = $6, absent = $7, lates_forgiven = $8,
			total = $9, net_payable = $10, updated_at = NOW()
		WHERE id = $11 AND status = $12
	`

	tag, err := q.Exec(ctx, query,
		p.EmployeeName, p.CompanyID, p.BasicSalary, p.PerDaySalary,
		p.StandardWorkingDays, p.ActualWorkingDays, p.Absent, p.LatesForgiven,
		p.Total, p.NetPayable, p.ID, payroll.StatusDraft,
	)
	if err != nil {
		return fmt.Errorf("failed to update payslip with id %s: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return r.missingOrSubmitted(ctx, p.ID)
	}
	return nil
}

// missingOrSubmitted explains why a draft-only update touched no row.
func (r *payslipRepositoryImpl) missingOrSubmitted(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	var status payroll.Status
	err := q.QueryRow(ctx, `SELECT status FROM payslips WHERE id = $1`, id).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.ErrPayslipNotFound
		}
		return fmt.Errorf("failed to get payslip status: %w", err)
	}
	return payroll.ErrPayslipSubmitted
}

// ReplaceLineItems implements payroll.PayslipRepository.
func (r *payslipRepositoryImpl) ReplaceLineItems(ctx context.Context, payslipID string, items []payroll.LineItem) error {
	q := GetQuerier(ctx, r.db)

	if _, err := q.Exec(ctx, `DELETE FROM payslip_line_items WHERE payslip_id = $1`, payslipID); err != nil {
		return fmt.Errorf("failed to delete payslip line items: %w", err)
	}

	query := `
		INSERT INTO payslip_line_items (payslip_id, kind, position, particulars, days, rate, amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for _, item := range items {
		_, err := q.Exec(ctx, query, payslipID, item.Kind, item.Position, item.Particulars, item.Days, item.Rate, item.Amount)
		if err != nil {
			return fmt.Errorf("failed to insert payslip line item %s/%d: %w", item.Kind, item.Position, err)
		}
	}
	return nil
}

// Submit implements payroll.PayslipRepository.
func (r *payslipRepositoryImpl) Submit(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	query := `UPDATE payslips SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`

	tag, err := q.Exec(ctx, query, payroll.StatusSubmitted, id, payroll.StatusDraft)
	if err != nil {
		return fmt.Errorf("failed to submit payslip with id %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return r.missingOrSubmitted(ctx, id)
	}
	return nil
}

// SumLatesForgiven implements payroll.PayslipRepository.
func (r *payslipRepositoryImpl) SumLatesForgiven(ctx context.Context, employeeID string, from, to time.Time) (int, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT COALESCE(SUM(lates_forgiven), 0)
		FROM payslips
		WHERE employee_id = $1
			AND make_date(year, month, 1) >= $2
			AND make_date(year, month, 1) < $3
	`

	var total int
	if err := q.QueryRow(ctx, query, employeeID, dateParam(&from), dateParam(&to)).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum lates forgiven: %w", err)
	}
	return total, nil
}

// SetPDFKey implements payroll.PayslipRepository.
func (r *payslipRepositoryImpl) SetPDFKey(ctx context.Context, id string, key string) error {
	return r.exec(ctx, id, `UPDATE payslips SET pdf_key = $1, updated_at = NOW() WHERE id = $2`, key, id)
}

// MarkEmailed implements payroll.PayslipRepository.
func (r *payslipRepositoryImpl) MarkEmailed(ctx context.Context, id string, at time.Time) error {
	return r.exec(ctx, id, `UPDATE payslips SET emailed_at = $1, updated_at = NOW() WHERE id = $2`, at, id)
}

func (r *payslipRepositoryImpl) exec(ctx context.Context, id, query string, args ...interface{}) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update payslip with id %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return payroll.ErrPayslipNotFound
	}
	return nil
}
