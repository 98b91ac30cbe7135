// Package apperror holds the error kinds shared by every domain.
//
// Domain sentinels wrap exactly one kind, e.g.
//
//	var ErrShiftNotFound = fmt.Errorf("%w: shift not found", apperror.ErrReferenceDataMissing)
//
// so callers can match either the specific sentinel or the kind with errors.Is.
package apperror

import "errors"

var (
	// ErrInputFormat marks a missing sheet/column or an unparseable value in an uploaded file.
	ErrInputFormat = errors.New("input format error")

	// ErrMapping marks a device punch that cannot be mapped to an employee.
	ErrMapping = errors.New("mapping error")

	// ErrReferenceDataMissing marks missing shift, salary or employee reference data.
	ErrReferenceDataMissing = errors.New("reference data missing")

	// ErrStateConflict marks an operation rejected because of a document's state.
	ErrStateConflict = errors.New("state conflict")

	// ErrValidation marks a request rejected before any processing started.
	ErrValidation = errors.New("validation error")
)

// Kind returns the taxonomy kind wrapped by err, or nil when err carries none.
func Kind(err error) error {
	for _, k := range []error{ErrInputFormat, ErrMapping, ErrReferenceDataMissing, ErrStateConflict, ErrValidation} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
