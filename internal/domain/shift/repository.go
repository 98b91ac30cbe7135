package shift

import (
	"context"
	"time"
)

type ShiftRepository interface {
	// GetShiftType returns ErrShiftNotFound when name is unknown.
	GetShiftType(ctx context.Context, name string) (ShiftType, error)

	// ListVariations returns the variations of a company whose date falls in [from, to].
	ListVariations(ctx context.Context, companyID string, from, to time.Time) ([]ShiftVariation, error)
}
