// Package timeparse normalizes the date and time shapes found in attendance exports.
package timeparse

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pinnacle-hris/payroll-engine/internal/pkg/apperror"
	"github.com/xuri/excelize/v2"
)

var (
	ErrInvalidDate = fmt.Errorf("%w: invalid date", apperror.ErrInputFormat)
	ErrInvalidTime = fmt.Errorf("%w: invalid time", apperror.ErrInputFormat)
)

// missing lists the blank and zero-like values devices emit for an absent punch.
var missing = map[string]struct{}{
	"":         {},
	"-":        {},
	"--":       {},
	"None":     {},
	"none":     {},
	"NULL":     {},
	"null":     {},
	"NaT":      {},
	"nan":      {},
	"0":        {},
	"00":       {},
	"00:00":    {},
	"00:00:00": {},
	"0:0":      {},
	"0:00":     {},
	"00:0":     {},
}

var dateLayouts = []string{
	"2006-01-02",
	"02-Jan-2006",
	"2-Jan-2006",
	"02/01/2006",
	"2/1/2006",
	"2006/01/02",
	"02-01-2006",
	"2-1-2006",
	"02 Jan 2006",
	"Jan 2, 2006",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

var clockLayouts = []string{
	"15:04:05",
	"15:04",
	"3:04:05 PM",
	"3:04 PM",
	"3:04:05PM",
	"3:04PM",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02 3:04:05 PM",
	"2006-01-02 3:04 PM",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"2006/01/02 3:04:05 PM",
	"2006/01/02 3:04 PM",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02-01-2006 15:04:05",
	"02-01-2006 15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// IsMissing reports whether v is a blank or zero-like punch value.
func IsMissing(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case time.Time:
		return val.IsZero()
	case *Clock:
		return val == nil
	case Clock:
		return false
	case string:
		_, ok := missing[strings.TrimSpace(val)]
		return ok
	default:
		return false
	}
}

// ParseDate converts v into a calendar date.
// It accepts time values, Excel serial numbers and the string layouts used by device exports.
func ParseDate(v any) (time.Time, error) {
	switch val := v.(type) {
	case time.Time:
		if val.IsZero() {
			return time.Time{}, ErrInvalidDate
		}
		return DateOf(val), nil
	case float64:
		return serialDate(val)
	case int:
		return serialDate(float64(val))
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return time.Time{}, ErrInvalidDate
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return DateOf(t), nil
			}
		}
		if serial, err := strconv.ParseFloat(s, 64); err == nil {
			return serialDate(serial)
		}
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	default:
		return time.Time{}, fmt.Errorf("%w: unsupported value %T", ErrInvalidDate, v)
	}
}

// serialDate accepts only a realistic range of Excel serials so plain numbers are not
// mistaken for dates.
func serialDate(serial float64) (time.Time, error) {
	if serial < 20000 || serial > 80000 {
		return time.Time{}, fmt.Errorf("%w: serial %v out of range", ErrInvalidDate, serial)
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidDate, err)
	}
	return DateOf(t), nil
}

// ParseClock converts v into a time of day. The boolean is false when the punch is missing
// or cannot be read; a missing punch is not an error.
func ParseClock(v any) (Clock, bool) {
	if IsMissing(v) {
		return 0, false
	}
	switch val := v.(type) {
	case Clock:
		return val, true
	case *Clock:
		return *val, true
	case time.Time:
		return ClockOf(val), true
	case float64:
		return fractionClock(val)
	case string:
		s := strings.ToUpper(strings.TrimSpace(val))
		for _, layout := range clockLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return ClockOf(t), true
			}
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return fractionClock(f)
		}
	}
	return 0, false
}

// fractionClock reads the day fraction of an Excel time or date-time value.
func fractionClock(f float64) (Clock, bool) {
	if f < 0 {
		return 0, false
	}
	_, frac := math.Modf(f)
	if frac == 0 {
		return 0, false
	}
	seconds := int(math.Round(frac * 86400))
	return Clock(time.Duration(seconds) * time.Second), true
}

// FormatDate renders d the way attendance exports show it.
func FormatDate(d time.Time) string {
	return d.Format("02-Jan-2006")
}
