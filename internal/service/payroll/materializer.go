package payroll

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pinnacle-hris/payroll-engine/internal/domain/employee"
	"github.com/pinnacle-hris/payroll-engine/internal/domain/payroll"
	"github.com/pinnacle-hris/payroll-engine/internal/domain/salary"
	"github.com/pinnacle-hris/payroll-engine/internal/pkg/database"
)

// categoryLines labels the salary-calculation rows and their pay rates, in payslip order.
var categoryLines = []struct {
	category    payroll.Category
	particulars string
	rate        int
}{
	{payroll.CategoryFullDay, "Full Day", 100},
	{payroll.CategoryLate, "Lates", 90},
	{payroll.CategoryThreeQuarter, "3/4 Quarter Day", 75},
	{payroll.CategoryHalf, "Half Day", 50},
	{payroll.CategoryQuarter, "Quarter Day", 25},
	{payroll.CategoryOther, "Others Day", 0},
	{payroll.CategorySunday, "Sunday Workings", 100},
}

// Materializer writes a breakdown into the employee's payslip for the month.
type Materializer struct {
	tx          database.Transactor
	payslips    payroll.PayslipRepository
	encashments salary.EncashmentRepository
	recurring   salary.RecurringRepository
}

func NewMaterializer(tx database.Transactor, payslips payroll.PayslipRepository, encashments salary.EncashmentRepository, recurring salary.RecurringRepository) *Materializer {
	return &Materializer{tx: tx, payslips: payslips, encashments: encashments, recurring: recurring}
}

// Upsert creates the payslip or rebuilds the existing draft in one transaction.
// A submitted payslip is left untouched and ErrPayslipSubmitted is returned.
func (m *Materializer) Upsert(ctx context.Context, emp employee.Employee, b payroll.SalaryBreakdown) (payroll.Payslip, error) {
	var result payroll.Payslip
	err := m.tx.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := m.payslips.GetForUpdate(ctx, emp.ID, b.Year, b.Month)
		if err != nil {
			return fmt.Errorf("failed to lock payslip: %w", err)
		}
		if existing != nil && existing.Status == payroll.StatusSubmitted {
			return fmt.Errorf("%w: %s %04d-%02d", payroll.ErrPayslipSubmitted, emp.ID, b.Year, b.Month)
		}

		p := header(emp, b)
		if existing == nil {
			p.ID = uuid.NewString()
			p, err = m.payslips.Create(ctx, p)
			if err != nil {
				return fmt.Errorf("failed to create payslip: %w", err)
			}
		} else {
			p.ID = existing.ID
			p.CreatedAt = existing.CreatedAt
			p.PDFKey = existing.PDFKey
			p.EmailedAt = existing.EmailedAt
			if err := m.payslips.UpdateHeader(ctx, p); err != nil {
				return fmt.Errorf("failed to update payslip: %w", err)
			}
		}

		if err := m.encashments.Release(ctx, p.ID); err != nil {
			return fmt.Errorf("failed to release leave encashments: %w", err)
		}
		if err := m.recurring.Release(ctx, p.ID); err != nil {
			return fmt.Errorf("failed to release recurring components: %w", err)
		}
		if len(b.EncashmentIDs) > 0 {
			if err := m.encashments.MarkPaid(ctx, b.EncashmentIDs, p.ID); err != nil {
				return err
			}
		}
		if ids := b.RecurringIDs(); len(ids) > 0 {
			if err := m.recurring.MarkCleared(ctx, ids, p.ID); err != nil {
				return err
			}
		}

		items := LineItems(b)
		if err := m.payslips.ReplaceLineItems(ctx, p.ID, items); err != nil {
			return fmt.Errorf("failed to write payslip line items: %w", err)
		}
		for _, it := range items {
			switch it.Kind {
			case payroll.LineSalaryCalculation:
				p.SalaryCalculation = append(p.SalaryCalculation, it)
			case payroll.LineOtherEarnings:
				p.OtherEarnings = append(p.OtherEarnings, it)
			}
		}
		result = p
		return nil
	})
	if err != nil {
		return payroll.Payslip{}, err
	}
	return result, nil
}

func header(emp employee.Employee, b payroll.SalaryBreakdown) payroll.Payslip {
	now := time.Now().UTC()
	return payroll.Payslip{
		EmployeeID:          emp.ID,
		EmployeeName:        emp.FullName,
		CompanyID:           emp.CompanyID,
		Year:                b.Year,
		Month:               b.Month,
		BasicSalary:         b.BasicSalary,
		PerDaySalary:        b.PerDaySalary,
		StandardWorkingDays: b.StandardWorkingDays,
		ActualWorkingDays:   b.ActualWorkingDays,
		Absent:              b.Absent,
		LatesForgiven:       b.LatesForgiven,
		Total:               b.Total,
		NetPayable:          b.NetPayable,
		Status:              payroll.StatusDraft,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

// LineItems lays a breakdown out as payslip rows: one per worked category with days, then
// one per other earning with a nonzero amount.
func LineItems(b payroll.SalaryBreakdown) []payroll.LineItem {
	var items []payroll.LineItem
	pos := 0
	for _, l := range categoryLines {
		t, ok := b.Categories[l.category]
		if !ok || t.Days == 0 {
			continue
		}
		pos++
		items = append(items, payroll.LineItem{
			Kind:        payroll.LineSalaryCalculation,
			Position:    pos,
			Particulars: l.particulars,
			Days:        t.Days,
			Rate:        l.rate,
			Amount:      t.Amount,
		})
	}

	pos = 0
	other := func(particulars string, amount decimal.Decimal) {
		if amount.IsZero() {
			return
		}
		pos++
		items = append(items, payroll.LineItem{
			Kind:        payroll.LineOtherEarnings,
			Position:    pos,
			Particulars: particulars,
			Amount:      amount,
		})
	}
	other("Leave Encashment", b.Encashment)
	other("Overtime", b.Overtime)
	other("Holidays", b.HolidayPay)
	for _, c := range b.Recurring {
		amount := c.Amount
		if c.Kind == salary.KindDeduction {
			amount = amount.Neg()
		}
		other(c.Component, amount)
	}
	return items
}
