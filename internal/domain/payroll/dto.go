package payroll

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/pinnacle-hris/payroll-engine/internal/pkg/validator"
)

// GenerateRequest scopes a payroll run to a company, a set of employees, or both.
type GenerateRequest struct {
	CompanyID   string   `json:"company_id,omitempty"`
	EmployeeIDs []string `json:"employee_ids,omitempty"`
	Year        int      `json:"year"`
	Month       int      `json:"month"`
	SendEmail   bool     `json:"send_email"`
}

func (r *GenerateRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidPeriod(r.Year, r.Month) {
		errs = append(errs, validator.ValidationError{Field: "period", Message: "year and month must name a valid month"})
	}
	if validator.IsEmpty(r.CompanyID) && len(r.EmployeeIDs) == 0 {
		errs = append(errs, validator.ValidationError{Field: "employee_ids", Message: "select a company or at least one employee"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type BreakdownRequest struct {
	EmployeeID string `json:"employee_id" validate:"required"`
	Year       int    `json:"year" validate:"required,gte=2000,lte=2100"`
	Month      int    `json:"month" validate:"required,min=1,max=12"`
}

func (r *BreakdownRequest) Validate() error {
	if errs := validator.Struct(r); len(errs) > 0 {
		return errs
	}
	return nil
}

type LineItemResponse struct {
	Particulars string          `json:"particulars"`
	Days        int             `json:"days,omitempty"`
	Rate        int             `json:"rate,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
}

type PayslipResponse struct {
	ID                  string             `json:"id"`
	EmployeeID          string             `json:"employee_id"`
	EmployeeName        string             `json:"employee_name"`
	CompanyID           string             `json:"company_id"`
	Year                int                `json:"year"`
	Month               int                `json:"month"`
	BasicSalary         decimal.Decimal    `json:"basic_salary"`
	PerDaySalary        decimal.Decimal    `json:"per_day_salary"`
	StandardWorkingDays int                `json:"standard_working_days"`
	ActualWorkingDays   int                `json:"actual_working_days"`
	Absent              int                `json:"absent"`
	LatesForgiven       int                `json:"lates_forgiven"`
	Total               decimal.Decimal    `json:"total"`
	NetPayable          decimal.Decimal    `json:"net_payable"`
	Status              Status             `json:"status"`
	SalaryCalculation   []LineItemResponse `json:"salary_calculation"`
	OtherEarnings       []LineItemResponse `json:"other_earnings"`
	EmailedAt           *time.Time         `json:"emailed_at,omitempty"`
}

func toLineItemResponses(items []LineItem) []LineItemResponse {
	out := make([]LineItemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, LineItemResponse{Particulars: it.Particulars, Days: it.Days, Rate: it.Rate, Amount: it.Amount})
	}
	return out
}

func ToPayslipResponse(p Payslip) PayslipResponse {
	return PayslipResponse{
		ID:                  p.ID,
		EmployeeID:          p.EmployeeID,
		EmployeeName:        p.EmployeeName,
		CompanyID:           p.CompanyID,
		Year:                p.Year,
		Month:               p.Month,
		BasicSalary:         p.BasicSalary,
		PerDaySalary:        p.PerDaySalary,
		StandardWorkingDays: p.StandardWorkingDays,
		ActualWorkingDays:   p.ActualWorkingDays,
		Absent:              p.Absent,
		LatesForgiven:       p.LatesForgiven,
		Total:               p.Total,
		NetPayable:          p.NetPayable,
		Status:              p.Status,
		SalaryCalculation:   toLineItemResponses(p.SalaryCalculation),
		OtherEarnings:       toLineItemResponses(p.OtherEarnings),
		EmailedAt:           p.EmailedAt,
	}
}

type RunResponse struct {
	JobID string `json:"job_id"`
}
