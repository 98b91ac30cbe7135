package holiday

import (
	"context"
	"time"
)

type HolidayRepository interface {
	// ListBetween returns the holidays of a holiday list in [from, to], ordered by date.
	ListBetween(ctx context.Context, holidayList string, from, to time.Time) ([]Holiday, error)
}
