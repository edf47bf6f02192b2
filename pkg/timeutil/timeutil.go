// Package timeutil provides time helpers for the AcademIQ pipeline:
// millisecond-epoch conversions for LMS session timestamps, calendar-day
// keys for activity counting, and explicit "as of" evaluation instants.
// No external dependencies - uses only standard library.
package timeutil

import "time"

// DayKeyLayout is the layout used for calendar-day keys.
const DayKeyLayout = "2006-01-02"

// FromMillis converts a millisecond epoch value to time.Time.
func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms)
}

// ToMillis converts a time.Time to a millisecond epoch value.
func ToMillis(t time.Time) int64 {
	return t.UnixMilli()
}

// DayKey returns the calendar-day key of t in the given location.
// A nil location means the local time of the evaluating process.
func DayKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(DayKeyLayout)
}

// OrNow returns t, or the current time if t is zero.
// Used to default missing as-of instants at API boundaries.
func OrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}
