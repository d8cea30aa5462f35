package utils

import (
	"time"
)

// Trading windows in minutes since midnight: 09:30-11:30 and 13:00-15:00.
var sessionWindows = [][2]int{
	{9*60 + 30, 11*60 + 30},
	{13 * 60, 15 * 60},
}

// LoadLocation resolves a zone name, falling back to time.Local for "" or unknown names.
func LoadLocation(name string) *time.Location {
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.Local
	}
	return loc
}

// IsTradingSession reports whether t (already in the market's local zone) falls on a
// weekday inside one of the trading windows. Both window bounds are inclusive.
func IsTradingSession(t time.Time) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	minutes := t.Hour()*60 + t.Minute()
	for _, w := range sessionWindows {
		if minutes >= w[0] && minutes <= w[1] {
			return true
		}
	}
	return false
}

// Clock is the wall-clock source used by the pollers. Tests replace it.
type Clock func() time.Time

// ClockIn returns a clock reading the current time in loc.
func ClockIn(loc *time.Location) Clock {
	return func() time.Time {
		return time.Now().In(loc)
	}
}
