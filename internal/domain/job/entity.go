package job

import (
	"encoding/json"
	"time"
)

type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

const (
	TypeAttendanceImport = "attendance_import"
	TypePayrollRun       = "payroll_run"
	TypePayslipEmail     = "payslip_email"
)

type JobRun struct {
	ID          string
	Type        string
	Status      Status
	Progress    int
	Details     json.RawMessage
	Error       *string
	CreatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
}

type JobRunResponse struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Status      Status          `json:"status"`
	Progress    int             `json:"progress"`
	Details     json.RawMessage `json:"details,omitempty"`
	Error       *string         `json:"error,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

func ToResponse(r JobRun) JobRunResponse {
	return JobRunResponse{
		ID:          r.ID,
		Type:        r.Type,
		Status:      r.Status,
		Progress:    r.Progress,
		Details:     r.Details,
		Error:       r.Error,
		CreatedAt:   r.CreatedAt,
		CompletedAt: r.CompletedAt,
	}
}
