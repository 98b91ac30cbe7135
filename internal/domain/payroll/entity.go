package payroll

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/pinnacle-hris/payroll-engine/internal/domain/salary"
)

// Category is the pay classification of one calendar day.
type Category string

const (
	CategoryFullDay      Category = "full_day"
	CategoryLate         Category = "late"
	CategoryThreeQuarter Category = "three_quarter"
	CategoryHalf         Category = "half_day"
	CategoryQuarter      Category = "quarter_day"
	CategoryOther        Category = "other"
	CategorySunday       Category = "sunday"
	CategoryAbsent       Category = "absent"
	CategoryHoliday      Category = "holiday"
)

// PaidCategories are the categories whose pay goes into the salary total, in line-item order.
var PaidCategories = []Category{
	CategoryFullDay,
	CategoryLate,
	CategoryThreeQuarter,
	CategoryHalf,
	CategoryQuarter,
	CategoryOther,
	CategorySunday,
}

// DayResult is the classification of one day. It carries no state of its own.
type DayResult struct {
	Date         time.Time       `json:"date"`
	Category     Category        `json:"category"`
	Deduction    decimal.Decimal `json:"deduction"`
	Pay          decimal.Decimal `json:"pay"`
	OvertimePay  decimal.Decimal `json:"overtime_pay"`
	WorkedHours  decimal.Decimal `json:"worked_hours"`
	LateForgiven bool            `json:"late_forgiven"`
}

type CategoryTotal struct {
	Days   int             `json:"days"`
	Amount decimal.Decimal `json:"amount"`
}

// SalaryBreakdown is the monthly computation result fed to the materializer.
type SalaryBreakdown struct {
	EmployeeID          string                     `json:"employee_id"`
	Year                int                        `json:"year"`
	Month               int                        `json:"month"`
	BasicSalary         decimal.Decimal            `json:"basic_salary"`
	PerDaySalary        decimal.Decimal            `json:"per_day_salary"`
	StandardWorkingDays int                        `json:"standard_working_days"`
	ActualWorkingDays   int                        `json:"actual_working_days"`
	Absent              int                        `json:"absent"`
	LatesForgiven       int                        `json:"lates_forgiven"`
	Categories          map[Category]CategoryTotal `json:"categories"`
	Holidays            int                        `json:"holidays"`
	HolidayPay          decimal.Decimal            `json:"holiday_pay"`
	Overtime            decimal.Decimal            `json:"overtime"`
	Encashment          decimal.Decimal            `json:"encashment"`
	RecurringEarnings   decimal.Decimal            `json:"recurring_earnings"`
	RecurringDeductions decimal.Decimal            `json:"recurring_deductions"`
	Total               decimal.Decimal            `json:"total"`
	NetPayable          decimal.Decimal            `json:"net_payable"`
	EncashmentIDs       []string                   `json:"encashment_ids"`
	Days                []DayResult                `json:"days"`

	Recurring []salary.RecurringComponent `json:"-"`
}

// RecurringIDs returns the ids of the consumed recurring components.
func (b SalaryBreakdown) RecurringIDs() []string {
	ids := make([]string, 0, len(b.Recurring))
	for _, c := range b.Recurring {
		ids = append(ids, c.ID)
	}
	return ids
}

type Status string

const (
	StatusDraft     Status = "draft"
	StatusSubmitted Status = "submitted"
)

type LineKind string

const (
	LineSalaryCalculation LineKind = "salary_calculation"
	LineOtherEarnings     LineKind = "other_earnings"
)

type LineItem struct {
	Kind        LineKind
	Position    int
	Particulars string
	Days        int
	// Rate is the pay percentage of a salary-calculation row, 0 when not applicable.
	Rate   int
	Amount decimal.Decimal
}

type Payslip struct {
	ID                  string
	EmployeeID          string
	EmployeeName        string
	CompanyID           string
	Year                int
	Month               int
	BasicSalary         decimal.Decimal
	PerDaySalary        decimal.Decimal
	StandardWorkingDays int
	ActualWorkingDays   int
	Absent              int
	LatesForgiven       int
	Total               decimal.Decimal
	NetPayable          decimal.Decimal
	Status              Status
	SalaryCalculation   []LineItem
	OtherEarnings       []LineItem
	PDFKey              *string
	EmailedAt           *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// ResultStatus is the outcome of one employee in a batch.
type ResultStatus string

const (
	ResultProcessed ResultStatus = "processed"
	ResultSkipped   ResultStatus = "skipped"
	ResultFailed    ResultStatus = "failed"
)

type EmployeeResult struct {
	EmployeeID string       `json:"employee_id"`
	PayslipID  string       `json:"payslip_id,omitempty"`
	Status     ResultStatus `json:"status"`
	Error      string       `json:"error,omitempty"`
}

type BatchSummary struct {
	Total     int              `json:"total"`
	Processed int              `json:"processed"`
	Skipped   int              `json:"skipped"`
	Failed    int              `json:"failed"`
	Results   []EmployeeResult `json:"results"`
}
