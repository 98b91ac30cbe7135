package shift

import (
	"time"

	"github.com/pinnacle-hris/payroll-engine/internal/pkg/timeparse"
)

// ShiftType is a named working window, e.g. "Regular" 09:00-18:00.
type ShiftType struct {
	Name      string
	Start     timeparse.Clock
	End       timeparse.Clock
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ShiftVariation overrides the shift window on one date.
// An empty Employees list applies the variation to everyone in the company.
type ShiftVariation struct {
	ID        string
	CompanyID string
	Date      time.Time
	Start     timeparse.Clock
	End       timeparse.Clock
	Employees []string
	CreatedAt time.Time
}

// AppliesTo reports whether the variation covers employeeID.
func (v ShiftVariation) AppliesTo(employeeID string) bool {
	if len(v.Employees) == 0 {
		return true
	}
	for _, id := range v.Employees {
		if id == employeeID {
			return true
		}
	}
	return false
}

// Window is the resolved working window for one employee-day.
type Window struct {
	IdealIn           time.Time
	IdealOut          time.Time
	OvertimeThreshold time.Time
	// Variation is set when the window came from a ShiftVariation.
	Variation *ShiftVariation
}

// IdealMinutes is the length of the window in minutes.
func (w Window) IdealMinutes() float64 {
	return w.IdealOut.Sub(w.IdealIn).Minutes()
}
