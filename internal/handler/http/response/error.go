package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/pinnacle-hris/payroll-engine/internal/pkg/apperror"
	"github.com/pinnacle-hris/payroll-engine/internal/pkg/validator"
)

// HandleError maps an error kind to its HTTP status. Unknown errors are logged and hidden.
func HandleError(w http.ResponseWriter, err error) {
	// Field-level validation errors carry their details
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	case errors.Is(err, apperror.ErrValidation):
		UnprocessableEntity(w, err.Error())
	case errors.Is(err, apperror.ErrInputFormat):
		fail(w, http.StatusBadRequest, CodeInputFormat, err.Error(), nil)
	case errors.Is(err, apperror.ErrMapping):
		fail(w, http.StatusBadRequest, CodeMapping, err.Error(), nil)
	case errors.Is(err, apperror.ErrReferenceDataMissing):
		NotFound(w, err.Error())
	case errors.Is(err, apperror.ErrStateConflict):
		Conflict(w, err.Error())
	default:
		slog.Error("unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
