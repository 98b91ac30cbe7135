package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pinnacle-hris/payroll-engine/internal/domain/payroll"
)

type PayslipRepository struct {
	mu       sync.RWMutex
	payslips map[string]payroll.Payslip
}

func NewPayslipRepository() *PayslipRepository {
	return &PayslipRepository{payslips: make(map[string]payroll.Payslip)}
}

func (r *PayslipRepository) GetByID(ctx context.Context, id string) (payroll.Payslip, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.payslips[id]
	if !ok {
		return payroll.Payslip{}, payroll.ErrPayslipNotFound
	}
	return clonePayslip(p), nil
}

func (r *PayslipRepository) GetForUpdate(ctx context.Context, employeeID string, year, month int) (*payroll.Payslip, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.payslips {
		if p.EmployeeID == employeeID && p.Year == year && p.Month == month {
			p = clonePayslip(p)
			return &p, nil
		}
	}
	return nil, nil
}

// Count returns the number of stored payslips.
func (r *PayslipRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.payslips)
}

func (r *PayslipRepository) Create(ctx context.Context, p payroll.Payslip) (payroll.Payslip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	if p.Status == "" {
		p.Status = payroll.StatusDraft
	}
	r.payslips[p.ID] = clonePayslip(p)
	return p, nil
}

func (r *PayslipRepository) UpdateHeader(ctx context.Context, p payroll.Payslip) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.payslips[p.ID]
	if !ok {
		return payroll.ErrPayslipNotFound
	}
	if cur.Status == payroll.StatusSubmitted {
		return payroll.ErrPayslipSubmitted
	}
	p.SalaryCalculation = cur.SalaryCalculation
	p.OtherEarnings = cur.OtherEarnings
	p.CreatedAt = cur.CreatedAt
	p.UpdatedAt = time.Now().UTC()
	r.payslips[p.ID] = p
	return nil
}

func (r *PayslipRepository) ReplaceLineItems(ctx context.Context, payslipID string, items []payroll.LineItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payslips[payslipID]
	if !ok {
		return payroll.ErrPayslipNotFound
	}
	p.SalaryCalculation, p.OtherEarnings = nil, nil
	for _, item := range items {
		switch item.Kind {
		case payroll.LineSalaryCalculation:
			p.SalaryCalculation = append(p.SalaryCalculation, item)
		case payroll.LineOtherEarnings:
			p.OtherEarnings = append(p.OtherEarnings, item)
		}
	}
	r.payslips[payslipID] = p
	return nil
}

func (r *PayslipRepository) Submit(ctx context.Context, id string) error {
	return r.update(id, func(p *payroll.Payslip) error {
		if p.Status == payroll.StatusSubmitted {
			return payroll.ErrPayslipSubmitted
		}
		p.Status = payroll.StatusSubmitted
		return nil
	})
}

func (r *PayslipRepository) SumLatesForgiven(ctx context.Context, employeeID string, from, to time.Time) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	total := 0
	for _, p := range r.payslips {
		start := time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC)
		if p.EmployeeID == employeeID && !start.Before(from) && start.Before(to) {
			total += p.LatesForgiven
		}
	}
	return total, nil
}

func (r *PayslipRepository) SetPDFKey(ctx context.Context, id string, key string) error {
	return r.update(id, func(p *payroll.Payslip) error {
		p.PDFKey = strPtr(key)
		return nil
	})
}

func (r *PayslipRepository) MarkEmailed(ctx context.Context, id string, at time.Time) error {
	return r.update(id, func(p *payroll.Payslip) error {
		p.EmailedAt = &at
		return nil
	})
}

func (r *PayslipRepository) update(id string, fn func(p *payroll.Payslip) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payslips[id]
	if !ok {
		return payroll.ErrPayslipNotFound
	}
	if err := fn(&p); err != nil {
		return err
	}
	p.UpdatedAt = time.Now().UTC()
	r.payslips[id] = p
	return nil
}

func clonePayslip(p payroll.Payslip) payroll.Payslip {
	p.SalaryCalculation = append([]payroll.LineItem(nil), p.SalaryCalculation...)
	p.OtherEarnings = append([]payroll.LineItem(nil), p.OtherEarnings...)
	return p
}
