package attendance

import (
	"time"

	"github.com/pinnacle-hris/payroll-engine/internal/pkg/timeparse"
)

// Source tags where a punch came from.
type Source string

const (
	SourceDeviceA   Source = "device_a"
	SourceDeviceB   Source = "device_b"
	SourceMobileApp Source = "mobile_app"
	SourceManual    Source = "manual"
	SourceOther     Source = "other"
)

// Format is the declared layout of an uploaded attendance file.
type Format string

const (
	FormatDeviceGrid  Format = "device_a"
	FormatDeviceTable Format = "device_b"
	FormatDeviceDump  Format = "device_dump"
	FormatGeneric     Format = "other"
	FormatMobileApp   Format = "mobile_app"
)

type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
)

// DocStatus is the record lifecycle: draft -> submitted -> cancelled.
type DocStatus string

const (
	DocDraft     DocStatus = "draft"
	DocSubmitted DocStatus = "submitted"
	DocCancelled DocStatus = "cancelled"
)

// Policy selects how the reconciler picks IN and OUT from a day's punches.
type Policy string

const (
	// PolicyClubbed treats every punch as a timestamp: earliest is IN, latest is OUT.
	PolicyClubbed Policy = "clubbed"
	// PolicyDirection takes the earliest IN and the latest OUT independently.
	PolicyDirection Policy = "direction"
)

// RawRow is one attendance row as read from a source. Either Device+DeviceLocalID
// or EmployeeID identifies the person.
type RawRow struct {
	Source        Source
	Device        string
	DeviceLocalID string
	EmployeeID    string
	EmployeeName  string
	Date          time.Time
	In            *timeparse.Clock
	Out           *timeparse.Clock
	Shift         string
	// Row is the 1-based spreadsheet row, 0 for non-file sources.
	Row int
}

// NormalizedPunch is a RawRow after employee resolution.
type NormalizedPunch struct {
	EmployeeID string
	Date       time.Time
	In         *timeparse.Clock
	Out        *timeparse.Clock
	ShiftID    string
	Source     Source
	Device     string
}

type AttendanceRecord struct {
	ID           string
	EmployeeID   string
	Date         time.Time
	In           *timeparse.Clock
	Out          *timeparse.Clock
	ShiftID      string
	LogInSource  Source
	LogOutSource Source
	Status       Status
	DocStatus    DocStatus
	AmendedFrom  *string
	Note         *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasBothPunches reports whether both IN and OUT are known.
func (r AttendanceRecord) HasBothPunches() bool {
	return r.In != nil && r.Out != nil
}

type LogType string

const (
	LogIn  LogType = "IN"
	LogOut LogType = "OUT"
)

// Checkin is a single mobile app punch.
type Checkin struct {
	ID         string
	EmployeeID string
	Time       time.Time
	LogType    LogType
	ShiftID    string
	CreatedAt  time.Time
}
