package salary

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/pinnacle-hris/payroll-engine/internal/pkg/timeparse"
)

// History is an employee's salary revisions ordered by FromDate.
type History []HistoryEntry

// EntryOn returns the revision in force on d. Days before the first revision use the
// first revision.
func (h History) EntryOn(d time.Time) (HistoryEntry, bool) {
	if len(h) == 0 {
		return HistoryEntry{}, false
	}
	entry := h[0]
	for _, e := range h[1:] {
		if e.FromDate.After(d) {
			break
		}
		entry = e
	}
	return entry, true
}

// startsBy reports whether the first revision is in force on or before d.
func (h History) startsBy(d time.Time) bool {
	return len(h) > 0 && !h[0].FromDate.After(d)
}

// MonthlyBasic weights each revision by the days of the month it was in force, so a
// mid-month increment pays the old rate before its FromDate and the new rate from it.
// A month ending before the first revision has no basic salary.
func (h History) MonthlyBasic(year int, month time.Month) (decimal.Decimal, bool) {
	days := timeparse.DaysIn(year, month)
	if !h.startsBy(timeparse.Date(year, month, days)) {
		return decimal.Zero, false
	}
	sum := decimal.Zero
	for day := 1; day <= days; day++ {
		e, _ := h.EntryOn(timeparse.Date(year, month, day))
		sum = sum.Add(e.Amount)
	}
	return sum.Div(decimal.NewFromInt(int64(days))).Round(2), true
}

// AverageDaily is the mean daily salary over [from, to], each day valued at its
// revision's monthly amount divided by the days of its month.
func (h History) AverageDaily(from, to time.Time) (decimal.Decimal, bool) {
	from, to = timeparse.DateOf(from), timeparse.DateOf(to)
	if to.Before(from) || !h.startsBy(to) {
		return decimal.Zero, false
	}
	sum := decimal.Zero
	n := 0
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		e, _ := h.EntryOn(d)
		perDay := e.Amount.Div(decimal.NewFromInt(int64(timeparse.DaysIn(d.Year(), d.Month()))))
		sum = sum.Add(perDay)
		n++
	}
	return sum.Div(decimal.NewFromInt(int64(n))).Round(2), true
}
