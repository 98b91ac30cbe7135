package attendance

import (
	"errors"
	"fmt"

	"github.com/pinnacle-hris/payroll-engine/internal/pkg/apperror"
)

var (
	ErrAttendanceNotFound     = fmt.Errorf("%w: attendance record not found", apperror.ErrReferenceDataMissing)
	ErrAttendanceExists       = fmt.Errorf("%w: attendance already exists for this employee and date", apperror.ErrStateConflict)
	ErrRecordNotSubmitted     = fmt.Errorf("%w: only submitted attendance can be corrected", apperror.ErrStateConflict)
	ErrCorrectionLimitReached = fmt.Errorf("%w: correction limit reached for this fiscal year", apperror.ErrStateConflict)
	ErrNoInputFiles           = fmt.Errorf("%w: no attendance file or app data supplied", apperror.ErrValidation)
	ErrUnmappedDevice         = fmt.Errorf("%w: device punch has no employee mapping", apperror.ErrMapping)
	ErrUnknownFormat          = fmt.Errorf("%w: unknown attendance file format", apperror.ErrInputFormat)
	ErrMissingSheet           = fmt.Errorf("%w: required sheet missing", apperror.ErrInputFormat)
	ErrMissingColumn          = fmt.Errorf("%w: required column missing", apperror.ErrInputFormat)
)

// Validation reasons reported for rejected rows.
var (
	ErrMissingPunch  = errors.New("missing in or out time")
	ErrSamePunch     = errors.New("in and out time are the same")
	ErrInAfterOut    = errors.New("in time is after out time")
	ErrDuplicateDate = errors.New("duplicate attendance for employee and date")
)
