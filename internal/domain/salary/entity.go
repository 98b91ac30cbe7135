package salary

import (
	"time"

	"github.com/shopspring/decimal"
)

// HistoryEntry is one salary revision. Entries of an employee are ordered by FromDate.
type HistoryEntry struct {
	ID               string
	EmployeeID       string
	FromDate         time.Time
	Amount           decimal.Decimal
	OvertimeEligible bool
	CreatedAt        time.Time
}

type LedgerStatus string

const (
	EncashmentUnpaid LedgerStatus = "unpaid"
	EncashmentPaid   LedgerStatus = "paid"

	ComponentPending LedgerStatus = "pending"
	ComponentCleared LedgerStatus = "cleared"
)

type LeaveEncashment struct {
	ID                 string
	EmployeeID         string
	FromDate           time.Time
	ToDate             time.Time
	EncashmentDate     time.Time
	NextEncashmentDate time.Time
	Amount             decimal.Decimal
	Status             LedgerStatus
	PayslipID          *string
	CreatedAt          time.Time
}

type ComponentKind string

const (
	KindEarning   ComponentKind = "earning"
	KindDeduction ComponentKind = "deduction"
)

// RecurringComponent is one monthly installment of a scheduled earning or deduction.
type RecurringComponent struct {
	ID         string
	EmployeeID string
	Component  string
	Kind       ComponentKind
	Amount     decimal.Decimal
	DueDate    time.Time
	Status     LedgerStatus
	PayslipID  *string
	CreatedAt  time.Time
}
