package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pinnacle-hris/payroll-engine/internal/domain/holiday"
	"github.com/pinnacle-hris/payroll-engine/internal/domain/shift"
)

type ShiftRepository struct {
	mu         sync.RWMutex
	types      map[string]shift.ShiftType
	variations []shift.ShiftVariation
}

func NewShiftRepository(types ...shift.ShiftType) *ShiftRepository {
	r := &ShiftRepository{types: make(map[string]shift.ShiftType)}
	for _, t := range types {
		r.types[t.Name] = t
	}
	return r
}

func (r *ShiftRepository) AddVariation(v shift.ShiftVariation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.variations = append(r.variations, v)
}

func (r *ShiftRepository) GetShiftType(ctx context.Context, name string) (shift.ShiftType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.types[name]
	if !ok {
		return shift.ShiftType{}, shift.ErrShiftNotFound
	}
	return t, nil
}

func (r *ShiftRepository) ListVariations(ctx context.Context, companyID string, from, to time.Time) ([]shift.ShiftVariation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []shift.ShiftVariation
	for _, v := range r.variations {
		if v.CompanyID == companyID && within(v.Date, from, to) {
			out = append(out, v)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

type HolidayRepository struct {
	mu       sync.RWMutex
	holidays []holiday.Holiday
}

func NewHolidayRepository(holidays ...holiday.Holiday) *HolidayRepository {
	return &HolidayRepository{holidays: holidays}
}

func (r *HolidayRepository) Add(h holiday.Holiday) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.holidays = append(r.holidays, h)
}

func (r *HolidayRepository) ListBetween(ctx context.Context, holidayList string, from, to time.Time) ([]holiday.Holiday, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []holiday.Holiday
	for _, h := range r.holidays {
		if h.HolidayList == holidayList && within(h.Date, from, to) {
			out = append(out, h)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}
