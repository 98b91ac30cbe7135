package salary

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/pinnacle-hris/payroll-engine/internal/pkg/validator"
)

// ========== ENCASHMENT DTOs ==========

type GenerateEncashmentRequest struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	// FromDate overrides the accrual start for every eligible employee (YYYY-MM-DD).
	FromDate *string `json:"from_date,omitempty"`
	// ToDate ends accrual before the month does (YYYY-MM-DD).
	ToDate *string `json:"to_date,omitempty"`
	// NextEncashmentDate replaces the computed next due date (YYYY-MM-DD).
	NextEncashmentDate *string  `json:"next_encashment_date,omitempty"`
	EmployeeIDs        []string `json:"employee_ids,omitempty"`
}

func (r *GenerateEncashmentRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidPeriod(r.Year, r.Month) {
		errs = append(errs, validator.ValidationError{Field: "period", Message: "year and month must name a valid month"})
	}
	dates := []struct {
		field string
		value *string
	}{
		{"from_date", r.FromDate},
		{"to_date", r.ToDate},
		{"next_encashment_date", r.NextEncashmentDate},
	}
	for _, d := range dates {
		if d.value == nil {
			continue
		}
		if _, ok := validator.IsValidDate(*d.value); !ok {
			errs = append(errs, validator.ValidationError{Field: d.field, Message: "must be in YYYY-MM-DD format"})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type EligibleEmployee struct {
	EmployeeID         string  `json:"employee_id"`
	EmployeeName       string  `json:"employee_name"`
	DateOfJoining      string  `json:"date_of_joining"`
	LastEncashmentDate *string `json:"last_encashment_date,omitempty"`
	NextEncashmentDate *string `json:"next_encashment_date,omitempty"`
}

type EncashmentResponse struct {
	ID                 string          `json:"id"`
	EmployeeID         string          `json:"employee_id"`
	FromDate           string          `json:"from_date"`
	ToDate             string          `json:"to_date"`
	EncashmentDate     string          `json:"encashment_date"`
	NextEncashmentDate string          `json:"next_encashment_date"`
	Amount             decimal.Decimal `json:"amount"`
	Status             LedgerStatus    `json:"status"`
}

func ToEncashmentResponse(e LeaveEncashment) EncashmentResponse {
	return EncashmentResponse{
		ID:                 e.ID,
		EmployeeID:         e.EmployeeID,
		FromDate:           e.FromDate.Format("2006-01-02"),
		ToDate:             e.ToDate.Format("2006-01-02"),
		EncashmentDate:     e.EncashmentDate.Format("2006-01-02"),
		NextEncashmentDate: e.NextEncashmentDate.Format("2006-01-02"),
		Amount:             e.Amount,
		Status:             e.Status,
	}
}

type GenerateEncashmentResponse struct {
	Created []EncashmentResponse `json:"created"`
	Skipped []string             `json:"skipped"`
}

// ========== RECURRING COMPONENT DTOs ==========

type ScheduleRow struct {
	Component   string          `json:"component"`
	Kind        ComponentKind   `json:"kind"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Months      int             `json:"months"`
	StartDate   string          `json:"start_date"`
}

type ScheduleRequest struct {
	EmployeeID string        `json:"employee_id" validate:"required"`
	Rows       []ScheduleRow `json:"rows" validate:"required,min=1"`
}

func (r *ScheduleRequest) Validate() error {
	errs := validator.Struct(r)
	for i, row := range r.Rows {
		if row.Kind != "" && row.Kind != KindEarning && row.Kind != KindDeduction {
			errs = append(errs, validator.ValidationError{Field: fmt.Sprintf("rows[%d].kind", i), Message: "must be 'earning' or 'deduction'"})
		}
		if row.TotalAmount.IsNegative() {
			errs = append(errs, validator.ValidationError{Field: fmt.Sprintf("rows[%d].total_amount", i), Message: "must be non-negative"})
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ComponentResponse struct {
	ID        string          `json:"id"`
	Component string          `json:"component"`
	Kind      ComponentKind   `json:"kind"`
	Amount    decimal.Decimal `json:"amount"`
	DueDate   string          `json:"due_date"`
	Status    LedgerStatus    `json:"status"`
}

type ScheduleResponse struct {
	Scheduled   []ComponentResponse `json:"scheduled"`
	SkippedRows []int               `json:"skipped_rows"`
}
