package attendance

import (
	"time"

	"github.com/pinnacle-hris/payroll-engine/internal/pkg/timeparse"
	"github.com/pinnacle-hris/payroll-engine/internal/pkg/validator"
)

// ========== IMPORT DTOs ==========

// ImportFile is one uploaded attendance file with its declared format.
type ImportFile struct {
	Format Format
	Name   string
	Data   []byte
}

type ImportRequest struct {
	Files    []ImportFile
	FromDate time.Time
	ToDate   time.Time
	Policy   Policy
	// IncludeApp adds mobile app check-ins for the period.
	IncludeApp bool
	// EmployeeIDs limits app check-ins to these employees; empty means all.
	EmployeeIDs []string
}

func (r *ImportRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.FromDate.IsZero() {
		errs = append(errs, validator.ValidationError{Field: "from_date", Message: "is required"})
	}
	if r.ToDate.IsZero() {
		errs = append(errs, validator.ValidationError{Field: "to_date", Message: "is required"})
	}
	if !r.FromDate.IsZero() && !r.ToDate.IsZero() && r.ToDate.Before(r.FromDate) {
		errs = append(errs, validator.ValidationError{Field: "to_date", Message: "must be on or after from_date"})
	}
	if r.Policy != "" && r.Policy != PolicyClubbed && r.Policy != PolicyDirection {
		errs = append(errs, validator.ValidationError{Field: "policy", Message: "must be 'clubbed' or 'direction'"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Issue is a skipped row and why.
type Issue struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

type FileReport struct {
	Name    string  `json:"name"`
	Format  Format  `json:"format"`
	Rows    int     `json:"rows"`
	Skipped int     `json:"skipped"`
	Error   string  `json:"error,omitempty"`
	Issues  []Issue `json:"issues,omitempty"`
}

type ImportReport struct {
	Files        []FileReport `json:"files"`
	Dropped      int          `json:"dropped"`
	Degenerate   int          `json:"degenerate"`
	Supplemented int          `json:"supplemented"`
	Records      int          `json:"records"`
}

// RecordRow is the wire shape of a reconciled or staged attendance row.
type RecordRow struct {
	EmployeeID   string `json:"employee_id" validate:"required"`
	Date         string `json:"date" validate:"required,datetime=2006-01-02"`
	InTime       string `json:"in_time"`
	OutTime      string `json:"out_time"`
	Shift        string `json:"shift"`
	LogInSource  Source `json:"log_in_source,omitempty"`
	LogOutSource Source `json:"log_out_source,omitempty"`
}

// ToRecordRow renders a record for the wire.
func ToRecordRow(r AttendanceRecord) RecordRow {
	row := RecordRow{
		EmployeeID:   r.EmployeeID,
		Date:         r.Date.Format("2006-01-02"),
		Shift:        r.ShiftID,
		LogInSource:  r.LogInSource,
		LogOutSource: r.LogOutSource,
	}
	if r.In != nil {
		row.InTime = r.In.String()
	}
	if r.Out != nil {
		row.OutTime = r.Out.String()
	}
	return row
}

// ToRecord parses a wire row. Unparseable times become missing punches.
func (r RecordRow) ToRecord() (AttendanceRecord, error) {
	date, err := timeparse.ParseDate(r.Date)
	if err != nil {
		return AttendanceRecord{}, err
	}
	rec := AttendanceRecord{
		EmployeeID:   r.EmployeeID,
		Date:         date,
		ShiftID:      r.Shift,
		LogInSource:  r.LogInSource,
		LogOutSource: r.LogOutSource,
	}
	if c, ok := timeparse.ParseClock(r.InTime); ok {
		rec.In = &c
	}
	if c, ok := timeparse.ParseClock(r.OutTime); ok {
		rec.Out = &c
	}
	return rec, nil
}

type PreviewResponse struct {
	Records []RecordRow  `json:"records"`
	Report  ImportReport `json:"report"`
}

type RecordsRequest struct {
	Records []RecordRow `json:"records" validate:"required,min=1,dive"`
}

func (r *RecordsRequest) Validate() error {
	if errs := validator.Struct(r); len(errs) > 0 {
		return errs
	}
	return nil
}

type RejectedRow struct {
	RecordRow
	Reason string `json:"reason"`
}

type ValidateResponse struct {
	Valid    []RecordRow   `json:"valid"`
	Rejected []RejectedRow `json:"rejected"`
}

type CommitResponse struct {
	JobID string `json:"job_id"`
}

// ========== CORRECTION DTOs ==========

type CorrectionRequest struct {
	AttendanceID string `json:"attendance_id" validate:"required"`
	// Field is "in" or "out".
	Field       string `json:"field" validate:"required,oneof=in out"`
	Time        string `json:"time" validate:"required"`
	Reason      string `json:"reason" validate:"required"`
	RequestedBy string `json:"-"`
	IsAdmin     bool   `json:"-"`
}

func (r *CorrectionRequest) Validate() error {
	errs := validator.Struct(r)
	if r.Time != "" {
		if _, ok := timeparse.ParseClock(r.Time); !ok {
			errs = append(errs, validator.ValidationError{Field: "time", Message: "must be a valid time"})
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ========== SELF ATTENDANCE DTOs ==========

type SelfAttendanceRequest struct {
	EmployeeID string `json:"employee_id" validate:"required"`
	Date       string `json:"date" validate:"required,datetime=2006-01-02"`
	InTime     string `json:"in_time" validate:"required"`
	OutTime    string `json:"out_time" validate:"required"`
	Shift      string `json:"shift"`
}

func (r *SelfAttendanceRequest) Validate() error {
	errs := validator.Struct(r)
	in, inOK := timeparse.ParseClock(r.InTime)
	out, outOK := timeparse.ParseClock(r.OutTime)
	if r.InTime != "" && !inOK {
		errs = append(errs, validator.ValidationError{Field: "in_time", Message: "must be a valid time"})
	}
	if r.OutTime != "" && !outOK {
		errs = append(errs, validator.ValidationError{Field: "out_time", Message: "must be a valid time"})
	}
	if inOK && outOK && !in.Before(out) {
		errs = append(errs, validator.ValidationError{Field: "out_time", Message: "must be after in_time"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

type SelfAttendanceResponse struct {
	InCheckinID  string `json:"in_checkin_id"`
	OutCheckinID string `json:"out_checkin_id"`
}

// CommitResult is the outcome recorded on an attendance_import job.
type CommitResult struct {
	Inserted int      `json:"inserted"`
	Existing int      `json:"existing"`
	Failed   []string `json:"failed,omitempty"`
}
