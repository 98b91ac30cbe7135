package job

import (
	"fmt"

	"github.com/pinnacle-hris/payroll-engine/internal/pkg/apperror"
)

var ErrJobNotFound = fmt.Errorf("%w: job not found", apperror.ErrReferenceDataMissing)
