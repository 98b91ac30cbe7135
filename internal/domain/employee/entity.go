package employee

import (
	"time"
)

type Employee struct {
	ID                 string
	FullName           string
	CompanyID          string
	DefaultShift       string
	HolidayList        string
	DateOfJoining      *time.Time
	RelievingDate      *time.Time
	PersonalEmail      *string
	AttendanceDeviceID *string
	Status             EmploymentStatus
	// AllowedLates is the number of 10% lates forgiven per reset period.
	AllowedLates int
	// PaidLeaves is the yearly paid-leave entitlement in days, used for encashment.
	PaidLeaves float64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type EmploymentStatus string

const (
	StatusActive   EmploymentStatus = "active"
	StatusInactive EmploymentStatus = "inactive"
	StatusLeft     EmploymentStatus = "left"
)

// EmployedOn reports whether d falls inside [DateOfJoining, RelievingDate].
// Missing bounds are open.
func (e Employee) EmployedOn(d time.Time) bool {
	if e.DateOfJoining != nil && d.Before(*e.DateOfJoining) {
		return false
	}
	if e.RelievingDate != nil && d.After(*e.RelievingDate) {
		return false
	}
	return true
}

// DeviceAllotment maps a device-local punch id to an employee.
type DeviceAllotment struct {
	Device        string
	DeviceLocalID string
	EmployeeID    string
}
