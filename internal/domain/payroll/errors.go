package payroll

import (
	"fmt"

	"github.com/pinnacle-hris/payroll-engine/internal/pkg/apperror"
)

var (
	ErrPayslipNotFound     = fmt.Errorf("%w: payslip not found", apperror.ErrReferenceDataMissing)
	ErrPayslipSubmitted    = fmt.Errorf("%w: payslip already submitted, cannot modify", apperror.ErrStateConflict)
	ErrNoEmailAddress      = fmt.Errorf("%w: employee has no email address", apperror.ErrValidation)
	ErrInvalidPeriod       = fmt.Errorf("%w: invalid payroll period", apperror.ErrValidation)
	ErrNoEmployeesSelected = fmt.Errorf("%w: select a company or at least one employee", apperror.ErrValidation)
)
