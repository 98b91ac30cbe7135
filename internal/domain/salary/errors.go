package salary

import (
	"fmt"

	"github.com/pinnacle-hris/payroll-engine/internal/pkg/apperror"
)

var (
	ErrSalaryHistoryNotFound = fmt.Errorf("%w: no salary history for employee", apperror.ErrReferenceDataMissing)
	ErrLedgerAlreadyApplied  = fmt.Errorf("%w: ledger entry already applied to another payslip", apperror.ErrStateConflict)
	ErrEncashmentExists      = fmt.Errorf("%w: encashment already exists for this period", apperror.ErrStateConflict)
	ErrInvalidPeriod         = fmt.Errorf("%w: invalid period", apperror.ErrValidation)
	ErrNoScheduleRows        = fmt.Errorf("%w: no schedulable component rows", apperror.ErrValidation)
)
