package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pinnacle-hris/payroll-engine/internal/domain/attendance"
)

type AttendanceRepository struct {
	mu      sync.RWMutex
	records map[string]attendance.AttendanceRecord
}

func NewAttendanceRepository() *AttendanceRepository {
	return &AttendanceRepository{records: make(map[string]attendance.AttendanceRecord)}
}

func (r *AttendanceRepository) Create(ctx context.Context, rec attendance.AttendanceRecord) (attendance.AttendanceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec.DocStatus != attendance.DocCancelled {
		for _, existing := range r.records {
			if existing.EmployeeID == rec.EmployeeID && existing.Date.Equal(rec.Date) && existing.DocStatus != attendance.DocCancelled {
				return attendance.AttendanceRecord{}, attendance.ErrAttendanceExists
			}
		}
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	rec.CreatedAt, rec.UpdatedAt = now, now
	r.records[rec.ID] = rec
	return rec, nil
}

func (r *AttendanceRepository) GetByID(ctx context.Context, id string) (attendance.AttendanceRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[id]
	if !ok {
		return attendance.AttendanceRecord{}, attendance.ErrAttendanceNotFound
	}
	return rec, nil
}

func (r *AttendanceRepository) GetActive(ctx context.Context, employeeID string, date time.Time) (*attendance.AttendanceRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, rec := range r.records {
		if rec.EmployeeID == employeeID && rec.Date.Equal(date) && rec.DocStatus != attendance.DocCancelled {
			rec := rec
			return &rec, nil
		}
	}
	return nil, nil
}

func (r *AttendanceRepository) ListSubmitted(ctx context.Context, employeeID string, from, to time.Time) ([]attendance.AttendanceRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []attendance.AttendanceRecord
	for _, rec := range r.records {
		if rec.EmployeeID == employeeID && rec.DocStatus == attendance.DocSubmitted && within(rec.Date, from, to) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *AttendanceRepository) Cancel(ctx context.Context, id string, note string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return attendance.ErrAttendanceNotFound
	}
	rec.DocStatus = attendance.DocCancelled
	if rec.Note != nil && *rec.Note != "" {
		note = *rec.Note + "\n" + note
	}
	rec.Note = strPtr(note)
	rec.UpdatedAt = time.Now().UTC()
	r.records[id] = rec
	return nil
}

func (r *AttendanceRepository) CountAmendments(ctx context.Context, employeeID string, from, to time.Time) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, rec := range r.records {
		if rec.EmployeeID == employeeID && rec.AmendedFrom != nil && within(rec.Date, from, to) {
			n++
		}
	}
	return n, nil
}

type CheckinRepository struct {
	mu       sync.RWMutex
	checkins []attendance.Checkin
}

func NewCheckinRepository() *CheckinRepository {
	return &CheckinRepository{}
}

func (r *CheckinRepository) Create(ctx context.Context, c attendance.Checkin) (attendance.Checkin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = time.Now().UTC()
	r.checkins = append(r.checkins, c)
	return c, nil
}

func (r *CheckinRepository) ListBetween(ctx context.Context, employeeIDs []string, from, to time.Time) ([]attendance.Checkin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []attendance.Checkin
	for _, c := range r.checkins {
		if len(employeeIDs) > 0 && !contains(employeeIDs, c.EmployeeID) {
			continue
		}
		if c.Time.Before(from) || !c.Time.Before(to) {
			continue
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out, nil
}
