package shift

import (
	"fmt"

	"github.com/pinnacle-hris/payroll-engine/internal/pkg/apperror"
)

var (
	ErrShiftNotFound      = fmt.Errorf("%w: shift not found", apperror.ErrReferenceDataMissing)
	ErrShiftNotAssigned   = fmt.Errorf("%w: shift is missing in attendance record", apperror.ErrReferenceDataMissing)
	ErrInvalidShiftWindow = fmt.Errorf("%w: shift end must be after shift start", apperror.ErrReferenceDataMissing)
)
