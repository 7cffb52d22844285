package model

import "time"

// Epoch is the origin every billing timeline must start from.
var Epoch = time.Unix(0, 0).UTC()

// StartOfDay snaps t to 00:00:00.000 in its own location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay snaps t to 23:59:59.999 in its own location.
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), t.Location())
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// DaysInclusive counts the calendar days covered by [a, b], both ends
// included. The order of the arguments does not matter.
func DaysInclusive(a, b time.Time) int {
	if a.After(b) {
		a, b = b, a
	}
	// Noon-to-noon in UTC sidesteps DST-length days.
	na := time.Date(a.Year(), a.Month(), a.Day(), 12, 0, 0, 0, time.UTC)
	nb := time.Date(b.Year(), b.Month(), b.Day(), 12, 0, 0, 0, time.UTC)
	return int(nb.Sub(na).Hours()/24) + 1
}
