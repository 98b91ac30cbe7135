package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pinnacle-hris/payroll-engine/internal/domain/salary"
)

type HistoryRepository struct {
	mu      sync.RWMutex
	entries []salary.HistoryEntry
}

func NewHistoryRepository(entries ...salary.HistoryEntry) *HistoryRepository {
	return &HistoryRepository{entries: entries}
}

func (r *HistoryRepository) Add(e salary.HistoryEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
}

func (r *HistoryRepository) ListByEmployee(ctx context.Context, employeeID string) ([]salary.HistoryEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []salary.HistoryEntry
	for _, e := range r.entries {
		if e.EmployeeID == employeeID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].FromDate.Before(out[j].FromDate) })
	return out, nil
}

type EncashmentRepository struct {
	mu   sync.RWMutex
	rows map[string]salary.LeaveEncashment
}

func NewEncashmentRepository() *EncashmentRepository {
	return &EncashmentRepository{rows: make(map[string]salary.LeaveEncashment)}
}

func (r *EncashmentRepository) Create(ctx context.Context, e salary.LeaveEncashment) (salary.LeaveEncashment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.rows {
		if existing.EmployeeID == e.EmployeeID && existing.FromDate.Equal(e.FromDate) && existing.ToDate.Equal(e.ToDate) {
			return salary.LeaveEncashment{}, salary.ErrEncashmentExists
		}
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Status == "" {
		e.Status = salary.EncashmentUnpaid
	}
	e.CreatedAt = time.Now().UTC()
	r.rows[e.ID] = e
	return e, nil
}

func (r *EncashmentRepository) Latest(ctx context.Context, employeeID string) (*salary.LeaveEncashment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var latest *salary.LeaveEncashment
	for _, e := range r.rows {
		if e.EmployeeID != employeeID {
			continue
		}
		if latest == nil || e.EncashmentDate.After(latest.EncashmentDate) {
			e := e
			latest = &e
		}
	}
	return latest, nil
}

func (r *EncashmentRepository) Exists(ctx context.Context, employeeID string, from, to time.Time) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.rows {
		if e.EmployeeID == employeeID && e.FromDate.Equal(from) && e.ToDate.Equal(to) {
			return true, nil
		}
	}
	return false, nil
}

func (r *EncashmentRepository) ListApplicable(ctx context.Context, employeeID string, from, to time.Time, payslipID string) ([]salary.LeaveEncashment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []salary.LeaveEncashment
	for _, e := range r.rows {
		if e.EmployeeID != employeeID {
			continue
		}
		unpaid := e.Status == salary.EncashmentUnpaid && e.PayslipID == nil && within(e.ToDate, from, to)
		linked := payslipID != "" && e.PayslipID != nil && *e.PayslipID == payslipID
		if unpaid || linked {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ToDate.Before(out[j].ToDate) })
	return out, nil
}

func (r *EncashmentRepository) ListNextDue(ctx context.Context, from, to time.Time) ([]salary.LeaveEncashment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []salary.LeaveEncashment
	for _, e := range r.rows {
		if within(e.NextEncashmentDate, from, to) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeID < out[j].EmployeeID })
	return out, nil
}

func (r *EncashmentRepository) MarkPaid(ctx context.Context, ids []string, payslipID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		e, ok := r.rows[id]
		if !ok {
			return salary.ErrLedgerAlreadyApplied
		}
		if e.PayslipID != nil && *e.PayslipID != payslipID {
			return salary.ErrLedgerAlreadyApplied
		}
	}
	for _, id := range ids {
		e := r.rows[id]
		e.Status = salary.EncashmentPaid
		e.PayslipID = strPtr(payslipID)
		r.rows[id] = e
	}
	return nil
}

func (r *EncashmentRepository) Release(ctx context.Context, payslipID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, e := range r.rows {
		if e.PayslipID != nil && *e.PayslipID == payslipID {
			e.Status = salary.EncashmentUnpaid
			e.PayslipID = nil
			r.rows[id] = e
		}
	}
	return nil
}

type RecurringRepository struct {
	mu   sync.RWMutex
	rows map[string]salary.RecurringComponent
}

func NewRecurringRepository() *RecurringRepository {
	return &RecurringRepository{rows: make(map[string]salary.RecurringComponent)}
}

func (r *RecurringRepository) Create(ctx context.Context, c salary.RecurringComponent) (salary.RecurringComponent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Status == "" {
		c.Status = salary.ComponentPending
	}
	c.CreatedAt = time.Now().UTC()
	r.rows[c.ID] = c
	return c, nil
}

func (r *RecurringRepository) ListApplicable(ctx context.Context, employeeID string, from, to time.Time, payslipID string) ([]salary.RecurringComponent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []salary.RecurringComponent
	for _, c := range r.rows {
		if c.EmployeeID != employeeID {
			continue
		}
		pending := c.Status == salary.ComponentPending && c.PayslipID == nil && within(c.DueDate, from, to)
		linked := payslipID != "" && c.PayslipID != nil && *c.PayslipID == payslipID
		if pending || linked {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].DueDate.Before(out[j].DueDate)
		}
		return out[i].Component < out[j].Component
	})
	return out, nil
}

func (r *RecurringRepository) MarkCleared(ctx context.Context, ids []string, payslipID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		c, ok := r.rows[id]
		if !ok || (c.PayslipID != nil && *c.PayslipID != payslipID) {
			return salary.ErrLedgerAlreadyApplied
		}
	}
	for _, id := range ids {
		c := r.rows[id]
		c.Status = salary.ComponentCleared
		c.PayslipID = strPtr(payslipID)
		r.rows[id] = c
	}
	return nil
}

func (r *RecurringRepository) Release(ctx context.Context, payslipID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, c := range r.rows {
		if c.PayslipID != nil && *c.PayslipID == payslipID {
			c.Status = salary.ComponentPending
			c.PayslipID = nil
			r.rows[id] = c
		}
	}
	return nil
}
