package employee

import (
	"fmt"

	"github.com/pinnacle-hris/payroll-engine/internal/pkg/apperror"
)

var (
	ErrEmployeeNotFound  = fmt.Errorf("%w: employee not found", apperror.ErrReferenceDataMissing)
	ErrAllotmentNotFound = fmt.Errorf("%w: no employee allotted to device id", apperror.ErrMapping)
	ErrJoiningDateNotSet = fmt.Errorf("%w: joining date not found for employee", apperror.ErrReferenceDataMissing)
)
