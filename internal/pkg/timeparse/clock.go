package timeparse

import (
	"fmt"
	"time"
)

// Clock is a wall-clock time of day, stored as the offset from midnight.
type Clock time.Duration

// NewClock builds a Clock from hour, minute and second.
func NewClock(hour, minute, second int) Clock {
	return Clock(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute + time.Duration(second)*time.Second)
}

// ClockOf returns the time-of-day part of t.
func ClockOf(t time.Time) Clock {
	return NewClock(t.Hour(), t.Minute(), t.Second())
}

func (c Clock) Hour() int   { return int(time.Duration(c) / time.Hour) }
func (c Clock) Minute() int { return int(time.Duration(c)%time.Hour) / int(time.Minute) }
func (c Clock) Second() int { return int(time.Duration(c)%time.Minute) / int(time.Second) }

// Minutes returns the offset from midnight in minutes.
func (c Clock) Minutes() float64 {
	return time.Duration(c).Minutes()
}

// On combines the clock with the calendar date of d.
func (c Clock) On(d time.Time) time.Time {
	return DateOf(d).Add(time.Duration(c))
}

func (c Clock) Before(o Clock) bool { return c < o }
func (c Clock) After(o Clock) bool  { return c > o }

// String formats the clock as HH:MM:SS.
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", c.Hour(), c.Minute(), c.Second())
}

// MarshalText lets clocks travel as "15:04:05" in JSON and YAML.
func (c Clock) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Clock) UnmarshalText(b []byte) error {
	parsed, ok := ParseClock(string(b))
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidTime, string(b))
	}
	*c = parsed
	return nil
}

// Date returns the UTC midnight of the given calendar day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DateOf strips the time part of t, keeping its calendar day.
func DateOf(t time.Time) time.Time {
	return Date(t.Year(), t.Month(), t.Day())
}

// DaysIn returns the number of days in the month.
func DaysIn(year int, month time.Month) int {
	return Date(year, month+1, 0).Day()
}

// MonthRange returns the first and last day of the month.
func MonthRange(year int, month time.Month) (time.Time, time.Time) {
	return Date(year, month, 1), Date(year, month, DaysIn(year, month))
}

// FiscalYear returns the April..March fiscal year containing d.
func FiscalYear(d time.Time) (time.Time, time.Time) {
	start := d.Year()
	if d.Month() < time.April {
		start--
	}
	return Date(start, time.April, 1), Date(start+1, time.March, 31)
}
