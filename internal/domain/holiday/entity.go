package holiday

import "time"

type Holiday struct {
	HolidayList string
	Date        time.Time
	Description string
}
