// Package dashboard contains dashboard-related use cases.
package dashboard

import "time"

// Window is a trailing range of the totals aggregation.
type Window struct {
	Daily   time.Time
	Weekly  time.Time
	Monthly time.Time
}

// WindowStarts returns the start of each totals window for now. Every start
// is aligned to midnight in now's location: today, 7 days ago and 30 days ago.
func WindowStarts(now time.Time) Window {
	midnight := startOfDay(now)
	return Window{
		Daily:   midnight,
		Weekly:  midnight.AddDate(0, 0, -7),
		Monthly: midnight.AddDate(0, 0, -30),
	}
}

// startOfDay returns midnight of the given date in its own location.
func startOfDay(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
}
