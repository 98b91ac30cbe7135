package attendance

import (
	"context"
	"time"
)

type AttendanceRepository interface {
	Create(ctx context.Context, record AttendanceRecord) (AttendanceRecord, error)

	// GetByID returns ErrAttendanceNotFound when missing.
	GetByID(ctx context.Context, id string) (AttendanceRecord, error)

	// GetActive returns the non-cancelled record of an employee-day, or nil.
	GetActive(ctx context.Context, employeeID string, date time.Time) (*AttendanceRecord, error)

	// ListSubmitted returns submitted records of an employee in [from, to] ordered by date.
	ListSubmitted(ctx context.Context, employeeID string, from, to time.Time) ([]AttendanceRecord, error)

	// Cancel moves a record to cancelled and appends note to its audit trail.
	Cancel(ctx context.Context, id string, note string) error

	// CountAmendments counts records created by corrections whose date falls in [from, to].
	CountAmendments(ctx context.Context, employeeID string, from, to time.Time) (int, error)
}

type CheckinRepository interface {
	Create(ctx context.Context, checkin Checkin) (Checkin, error)

	// ListBetween returns check-ins of the given employees in [from, to).
	// An empty employeeIDs slice means every employee.
	ListBetween(ctx context.Context, employeeIDs []string, from, to time.Time) ([]Checkin, error)
}
