package salary

import (
	"context"
	"time"
)

type HistoryRepository interface {
	// ListByEmployee returns every entry of an employee ordered by FromDate.
	ListByEmployee(ctx context.Context, employeeID string) ([]HistoryEntry, error)
}

type EncashmentRepository interface {
	Create(ctx context.Context, e LeaveEncashment) (LeaveEncashment, error)

	// Latest returns the most recent encashment of an employee by EncashmentDate, or nil.
	Latest(ctx context.Context, employeeID string) (*LeaveEncashment, error)

	Exists(ctx context.Context, employeeID string, from, to time.Time) (bool, error)

	// ListApplicable returns unpaid encashments whose ToDate falls in [from, to],
	// plus any already linked to payslipID.
	ListApplicable(ctx context.Context, employeeID string, from, to time.Time, payslipID string) ([]LeaveEncashment, error)

	// ListNextDue returns encashments whose NextEncashmentDate falls in [from, to].
	ListNextDue(ctx context.Context, from, to time.Time) ([]LeaveEncashment, error)

	// MarkPaid links ids to payslipID. An id linked to another payslip fails with ErrLedgerAlreadyApplied.
	MarkPaid(ctx context.Context, ids []string, payslipID string) error

	// Release unlinks every encashment of payslipID and returns it to unpaid.
	Release(ctx context.Context, payslipID string) error
}

type RecurringRepository interface {
	Create(ctx context.Context, c RecurringComponent) (RecurringComponent, error)

	// ListApplicable returns pending components due in [from, to], plus any linked to payslipID.
	ListApplicable(ctx context.Context, employeeID string, from, to time.Time, payslipID string) ([]RecurringComponent, error)

	// MarkCleared links ids to payslipID. An id linked to another payslip fails with ErrLedgerAlreadyApplied.
	MarkCleared(ctx context.Context, ids []string, payslipID string) error

	Release(ctx context.Context, payslipID string) error
}
